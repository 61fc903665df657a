package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"coup/internal/app"
	"coup/internal/bot"
	"coup/internal/config"
	"coup/internal/domain"
	"coup/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats     [app.MaxPlayers]string      `json:"seats"`      // Array of user IDs, empty string means seat is empty
	OwnerSeat int                         `json:"owner_seat"` // Seat index of the match owner
	Tick      int64                       `json:"tick"`       // Current tick of the match for timer logic
	Presences map[string]runtime.Presence `json:"-"`          // Map UserId -> Presence for targeted messaging

	App       *app.Service       `json:"-"` // Game rule service
	Game      *domain.Game       `json:"-"` // Current active game state (nil if in lobby)
	SessionID string             `json:"session_id"`
	Version   string             `json:"-"` // Storage version of the last committed snapshot
	Store     ports.SessionStore `json:"-"`
	Economy   ports.EconomyPort  `json:"-"`
	Rng       *rand.Rand         `json:"-"`

	TurnDuration    int `json:"turn_duration"`    // Seconds the turn holder has to declare an action
	DecisionTimeout int `json:"decision_timeout"` // Seconds for challenge/block windows and card choices

	BotsEnabled          bool                  `json:"bots_enabled"`
	BotMinDelay          int                   `json:"bot_min_delay"`
	BotMaxDelay          int                   `json:"bot_max_delay"`
	BotAutoFillDelay     int                   `json:"bot_auto_fill_delay"`
	BotWaitUntil         int64                 `json:"bot_wait_until"`
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"`
	Bots                 map[string]*bot.Agent `json:"-"`

	// phaseKey fingerprints the waiting state so deadlines reset exactly when
	// the game moves on.
	phaseKey     string
	deadlineTick int64
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	cfg := config.GetGameConfig()
	state := &MatchState{
		Tick:             time.Now().Unix(),
		Presences:        make(map[string]runtime.Presence),
		App:              app.NewService(nil),
		OwnerSeat:        -1,
		Store:            NewNakamaSessionStore(nk),
		Economy:          NewNakamaEconomyAdapter(nk),
		Rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
		TurnDuration:     cfg.TurnDurationSeconds,
		DecisionTimeout:  cfg.DecisionTimeoutSeconds,
		BotsEnabled:      true,
		BotMinDelay:      cfg.BotMinDelaySeconds,
		BotMaxDelay:      cfg.BotMaxDelaySeconds,
		BotAutoFillDelay: cfg.BotAutoFillDelaySeconds,
		Bots:             make(map[string]*bot.Agent),
	}

	if matchID, ok := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string); ok {
		state.SessionID = matchID
	}

	// Environment overrides for pacing and bots.
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if val, ok := env["coup_bots_enabled"]; ok {
			state.BotsEnabled = val == "true"
		}
		if val, ok := env["coup_turn_duration_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil && i > 0 {
				state.TurnDuration = i
			}
		}
		if val, ok := env["coup_decision_timeout_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil && i > 0 {
				state.DecisionTimeout = i
			}
		}
		if val, ok := env["coup_bot_auto_fill_delay_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil && i > 0 {
				state.BotAutoFillDelay = i
			}
		}
	}

	label := MatchLabel{Open: state.GetOpenSeatsCount(), State: "lobby"}
	labelBytes, err := json.Marshal(label)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Reconnects keep their seat.
	for _, seat := range matchState.Seats {
		if seat == presence.GetUserId() {
			return state, true, ""
		}
	}

	// Allow join if there is an empty seat OR a bot to replace (lobby only).
	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		if matchState.Game == nil {
			for _, seat := range matchState.Seats {
				if isBotUserId(seat) {
					hasBot = true
					break
				}
			}
		}
		if !hasBot {
			return state, false, "Match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		// Reconnects are already seated.
		seated := false
		for _, seatUserId := range matchState.Seats {
			if seatUserId == p.GetUserId() {
				seated = true
				break
			}
		}
		if seated {
			if matchState.Game != nil {
				mh.sendSnapshot(matchState, dispatcher, logger, p.GetUserId())
			}
			continue
		}

		// Assign seat: try empty seats first, then bots (lobby only).
		assigned := false
		for i, seatUserId := range matchState.Seats {
			if seatUserId == "" {
				matchState.Seats[i] = p.GetUserId()
				assigned = true
				break
			}
		}

		if !assigned && matchState.Game == nil {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, p.GetUserId(), i)
					delete(matchState.Bots, seatUserId)
					matchState.Seats[i] = p.GetUserId()
					assigned = true
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", p.GetUserId())
		}
	}

	// Ensure owner seat is assigned to a human player only.
	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		for i, seatUserId := range matchState.Seats {
			if seatUserId == p.GetUserId() {
				matchState.Seats[i] = ""
				logger.Debug("MatchLeave: User %s left, seat %d freed.", p.GetUserId(), i)
				break
			}
		}

		// A mid-game departure forfeits the seat's influence.
		if matchState.Game != nil && matchState.Game.PlayerByID(p.GetUserId()) != nil {
			mh.applyIntent(ctx, matchState, dispatcher, logger, p.GetUserId(), func() ([]app.Event, error) {
				return matchState.App.LeaveGame(matchState.Game, p.GetUserId())
			})
		}
	}

	newOwnerSeat := findFirstHumanSeat(matchState.Seats[:])
	if newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
		if newOwnerSeat >= 0 {
			logger.Debug("MatchLeave: Owner set to human seat %d.", newOwnerSeat)
		}
	}

	if shouldTerminateNoHumans(matchState.Seats[:]) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		if matchState.Game != nil && matchState.Store != nil {
			if err := matchState.Store.Delete(ctx, matchState.SessionID); err != nil {
				logger.Warn("MatchLeave: Failed to delete session snapshot: %v", err)
			}
		}
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleMessage(ctx, matchState, dispatcher, logger, msg)
	}

	mh.processTimeouts(ctx, matchState, dispatcher, logger)

	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

func (mh *matchHandler) handleMessage(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	if msg.GetOpCode() == OpStartGame {
		mh.handleStartGame(ctx, state, dispatcher, logger, msg)
		return
	}

	if state.Game == nil {
		logger.Warn("handleMessage: Opcode %d from %s before game start.", msg.GetOpCode(), senderID)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(app.ErrInvalidPhase), "game not started")
		return
	}

	switch msg.GetOpCode() {
	case OpDeclareAction:
		var request DeclareActionRequest
		if err := json.Unmarshal(msg.GetData(), &request); err != nil {
			logger.Warn("handleMessage: Invalid DeclareActionRequest from %s: %v", senderID, err)
			return
		}
		mh.applyIntent(ctx, state, dispatcher, logger, senderID, func() ([]app.Event, error) {
			return state.App.PerformAction(state.Game, senderID, request.Kind, request.TargetID)
		})
	case OpChallenge:
		mh.applyIntent(ctx, state, dispatcher, logger, senderID, func() ([]app.Event, error) {
			return state.App.Challenge(state.Game, senderID)
		})
	case OpBlock:
		var request BlockRequest
		if err := json.Unmarshal(msg.GetData(), &request); err != nil {
			logger.Warn("handleMessage: Invalid BlockRequest from %s: %v", senderID, err)
			return
		}
		mh.applyIntent(ctx, state, dispatcher, logger, senderID, func() ([]app.Event, error) {
			return state.App.Block(state.Game, senderID, request.Role)
		})
	case OpPass:
		mh.applyIntent(ctx, state, dispatcher, logger, senderID, func() ([]app.Event, error) {
			return state.App.Pass(state.Game, senderID)
		})
	case OpResolveLoss:
		var request ResolveLossRequest
		if err := json.Unmarshal(msg.GetData(), &request); err != nil {
			logger.Warn("handleMessage: Invalid ResolveLossRequest from %s: %v", senderID, err)
			return
		}
		mh.applyIntent(ctx, state, dispatcher, logger, senderID, func() ([]app.Event, error) {
			return state.App.ResolveLoss(state.Game, senderID, request.CardIndex)
		})
	case OpResolveExchange:
		var request ResolveExchangeRequest
		if err := json.Unmarshal(msg.GetData(), &request); err != nil {
			logger.Warn("handleMessage: Invalid ResolveExchangeRequest from %s: %v", senderID, err)
			return
		}
		mh.applyIntent(ctx, state, dispatcher, logger, senderID, func() ([]app.Event, error) {
			return state.App.ResolveExchange(state.Game, senderID, request.KeepIndices)
		})
	default:
		logger.Warn("handleMessage: Unknown opcode received: %d", msg.GetOpCode())
	}
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := -1
	for i, seatUserId := range state.Seats {
		if seatUserId == senderID {
			senderSeat = i
			break
		}
	}

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if state.Game != nil {
		logger.Warn("StartGame: Game already in progress.")
		mh.sendError(state, dispatcher, logger, senderID, errorCode(app.ErrInvalidPhase), "game already in progress")
		return
	}
	if senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		return
	}

	activeCount := state.GetOccupiedSeatCount()
	if activeCount < app.MinPlayersToStartGame {
		logger.Warn("StartGame: Cannot start with %d players. Need at least %d.", activeCount, app.MinPlayersToStartGame)
		return
	}

	seats := make([]app.SeatAssignment, 0, activeCount)
	for _, userId := range state.Seats {
		if userId == "" {
			continue
		}
		seats = append(seats, app.SeatAssignment{
			UserID:      userId,
			DisplayName: mh.displayNameFor(state, userId),
		})
	}

	game, events, err := state.App.StartGame(seats, senderID)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}

	state.Game = game
	state.Version = ""
	state.phaseKey = ""
	mh.persistGame(ctx, state, logger)
	mh.updateLabel(state, dispatcher, logger)

	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}

	logger.Info("StartGame: Game started with %d players.", activeCount)
}

// applyIntent runs one mutation against the game, commits the snapshot and
// broadcasts the resulting events. Rejected intents only notify the sender.
func (mh *matchHandler) applyIntent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, senderID string, fn func() ([]app.Event, error)) {
	events, err := fn()
	if err != nil {
		logger.Warn("applyIntent: Rejected intent from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}

	mh.persistGame(ctx, state, logger)
	ended := false
	for _, ev := range events {
		if ev.Kind == app.EventGameEnded {
			ended = true
		}
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
	if ended {
		mh.updateLabel(state, dispatcher, logger)
	}
}

// persistGame commits the current game snapshot with the last seen version.
// The match loop is the only writer, so a conflict means the stored version
// drifted (e.g. a manual repair); the version is refreshed and retried once.
func (mh *matchHandler) persistGame(ctx context.Context, state *MatchState, logger runtime.Logger) {
	if state.Store == nil || state.SessionID == "" || state.Game == nil {
		return
	}

	version, err := state.Store.Put(ctx, state.SessionID, state.Game, state.Version)
	if errors.Is(err, ports.ErrConflict) {
		_, latest, getErr := state.Store.Get(ctx, state.SessionID)
		if getErr != nil {
			logger.Error("persistGame: Conflict and refresh failed: %v", getErr)
			return
		}
		version, err = state.Store.Put(ctx, state.SessionID, state.Game, latest)
	}
	if err != nil {
		logger.Error("persistGame: Failed to commit snapshot: %v", err)
		return
	}
	state.Version = version
}

// processTimeouts enforces the turn clock and decision windows. An expired
// turn takes income (or the mandatory coup), expired windows pass for every
// remaining responder, and expired card choices resolve to defaults.
func (mh *matchHandler) processTimeouts(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	game := state.Game
	if game == nil || game.Status != domain.StatusPlaying {
		state.phaseKey = ""
		return
	}

	key := fmt.Sprintf("%s|%s|%d", game.Phase, game.PendingPlayerID, game.TurnIndex)
	if key != state.phaseKey {
		state.phaseKey = key
		duration := state.DecisionTimeout
		if game.Phase == domain.PhaseChoosingAction {
			duration = state.TurnDuration
		}
		state.deadlineTick = state.Tick + int64(duration)
		return
	}
	if state.Tick < state.deadlineTick {
		return
	}

	switch game.Phase {
	case domain.PhaseChoosingAction:
		holder := game.TurnHolder()
		if holder == nil {
			return
		}
		kind, target := domain.ActionIncome, ""
		if holder.Coins >= app.MandatoryCoupThreshold {
			kind = domain.ActionCoup
			target = firstLivingOpponent(game, holder.ID)
		}
		logger.Info("processTimeouts: Turn expired for %s, auto %s.", holder.ID, kind)
		mh.applyIntent(ctx, state, dispatcher, logger, holder.ID, func() ([]app.Event, error) {
			return state.App.PerformAction(game, holder.ID, kind, target)
		})
	case domain.PhaseAwaitingChallenge, domain.PhaseAwaitingBlock, domain.PhaseAwaitingBlockChallenge:
		logger.Info("processTimeouts: Window expired, passing %d responders.", len(game.PendingResponders))
		phase := game.Phase
		for game.Phase == phase && len(game.PendingResponders) > 0 {
			id := ""
			for responder := range game.PendingResponders {
				id = responder
				break
			}
			mh.applyIntent(ctx, state, dispatcher, logger, id, func() ([]app.Event, error) {
				return state.App.Pass(game, id)
			})
		}
	case domain.PhaseAwaitingInfluenceLoss:
		loser := game.PlayerByID(game.PendingPlayerID)
		if loser == nil {
			return
		}
		logger.Info("processTimeouts: Influence choice expired for %s.", loser.ID)
		mh.applyIntent(ctx, state, dispatcher, logger, loser.ID, func() ([]app.Event, error) {
			return state.App.ResolveLoss(game, loser.ID, loser.FirstUnrevealedIndex())
		})
	case domain.PhaseAwaitingExchange:
		playerID := game.PendingPlayerID
		keepCount := len(game.ExchangeBuffer) - app.ExchangeDrawCount
		keep := make([]int, 0, keepCount)
		for i := 0; i < keepCount; i++ {
			keep = append(keep, i)
		}
		logger.Info("processTimeouts: Exchange choice expired for %s.", playerID)
		mh.applyIntent(ctx, state, dispatcher, logger, playerID, func() ([]app.Event, error) {
			return state.App.ResolveExchange(game, playerID, keep)
		})
	}
	state.phaseKey = ""
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill lobby with bots if there's only one human player after delay.
	if state.Game == nil {
		humanCount := state.GetHumanPlayerCount()
		if humanCount == 1 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}

			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				added := false
				for i, seat := range state.Seats {
					if seat == "" {
						identity := bot.GetBotIdentity(i)
						botID := identity.UserID
						state.Seats[i] = botID
						state.Bots[botID] = bot.NewAgent(botID, identity.DisplayName, state.Rng)
						logger.Info("processBots: Added bot %s (%s) to seat %d", identity.Username, botID, i)
						added = true
					}
				}
				if added {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastMatchState(state, dispatcher, logger)
				}
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
		return
	}

	// 2. Handle bot intents in-game.
	game := state.Game
	if game.Status != domain.StatusPlaying {
		state.BotWaitUntil = 0
		return
	}

	botID := mh.nextActingBot(game)
	if botID == "" {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		delay := state.Rng.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay)
		logger.Debug("processBots: Bot %s will act at tick %d (current %d)", botID, state.BotWaitUntil, state.Tick)
		return
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	agent, exists := state.Bots[botID]
	if !exists {
		agent = bot.NewAgent(botID, bot.GetBotIdentity(0).DisplayName, state.Rng)
		state.Bots[botID] = agent
	}

	switch game.Phase {
	case domain.PhaseChoosingAction:
		kind, target := agent.ChooseAction(game)
		mh.applyIntent(ctx, state, dispatcher, logger, botID, func() ([]app.Event, error) {
			return state.App.PerformAction(game, botID, kind, target)
		})
	case domain.PhaseAwaitingChallenge, domain.PhaseAwaitingBlock, domain.PhaseAwaitingBlockChallenge:
		reaction, role := agent.React(game)
		mh.applyIntent(ctx, state, dispatcher, logger, botID, func() ([]app.Event, error) {
			switch reaction {
			case bot.ReactChallenge:
				return state.App.Challenge(game, botID)
			case bot.ReactBlock:
				return state.App.Block(game, botID, role)
			default:
				return state.App.Pass(game, botID)
			}
		})
	case domain.PhaseAwaitingInfluenceLoss:
		index := agent.ChooseLoss(game)
		mh.applyIntent(ctx, state, dispatcher, logger, botID, func() ([]app.Event, error) {
			return state.App.ResolveLoss(game, botID, index)
		})
	case domain.PhaseAwaitingExchange:
		keep := agent.ChooseExchange(game)
		mh.applyIntent(ctx, state, dispatcher, logger, botID, func() ([]app.Event, error) {
			return state.App.ResolveExchange(game, botID, keep)
		})
	}
}

// nextActingBot returns the bot that currently owes the game an intent, or "".
func (mh *matchHandler) nextActingBot(game *domain.Game) string {
	switch game.Phase {
	case domain.PhaseChoosingAction:
		if holder := game.TurnHolder(); holder != nil && isBotUserId(holder.ID) {
			return holder.ID
		}
	case domain.PhaseAwaitingChallenge, domain.PhaseAwaitingBlock, domain.PhaseAwaitingBlockChallenge:
		// Seat order keeps the choice deterministic across ticks.
		for _, p := range game.Players {
			if game.PendingResponders[p.ID] && isBotUserId(p.ID) {
				return p.ID
			}
		}
	case domain.PhaseAwaitingInfluenceLoss, domain.PhaseAwaitingExchange:
		if isBotUserId(game.PendingPlayerID) {
			return game.PendingPlayerID
		}
	}
	return ""
}

// broadcastEvent maps an app event to its opcode and dispatches it. Targeted
// events only go to connected recipients and are never widened to the table.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := eventOpCodes[ev.Kind]
	if !ok {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	if ev.Kind == app.EventGameEnded {
		mh.settleGameEnd(ctx, state, logger, ev)
	}

	bytes, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// If the intended recipients are not connected (e.g. bots), the
		// event must not fall back to a table-wide broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

var eventOpCodes = map[app.EventKind]int64{
	app.EventGameStarted:       OpGameStarted,
	app.EventHandDealt:         OpHandDealt,
	app.EventActionDeclared:    OpActionDeclared,
	app.EventChallengeRaised:   OpChallengeRaised,
	app.EventChallengeResolved: OpChallengeResolved,
	app.EventBlockDeclared:     OpBlockDeclared,
	app.EventResponderPassed:   OpResponderPassed,
	app.EventActionResolved:    OpActionResolved,
	app.EventActionCancelled:   OpActionCancelled,
	app.EventInfluenceLost:     OpInfluenceLost,
	app.EventPlayerEliminated:  OpPlayerEliminated,
	app.EventExchangeOptions:   OpExchangeOptions,
	app.EventExchangeCompleted: OpExchangeCompleted,
	app.EventTurnChanged:       OpTurnChanged,
	app.EventPlayerLeft:        OpPlayerLeft,
	app.EventGameEnded:         OpGameEnded,
}

// settleGameEnd credits the winner, drops the stored snapshot and returns the
// match to the lobby.
func (mh *matchHandler) settleGameEnd(ctx context.Context, state *MatchState, logger runtime.Logger, ev app.Event) {
	payload, ok := ev.Payload.(app.GameEndedPayload)
	if !ok {
		return
	}

	if state.Economy != nil && payload.WinnerID != "" && !isBotUserId(payload.WinnerID) {
		reward := config.GetGameConfig().WinReward
		err := state.Economy.UpdateBalances(ctx, []ports.WalletUpdate{
			{
				UserID: payload.WinnerID,
				Amount: reward,
				Metadata: map[string]interface{}{
					"match_id": state.SessionID,
					"reason":   "win_reward",
				},
			},
		})
		if err != nil {
			logger.Error("settleGameEnd: Failed to credit winner %s: %v", payload.WinnerID, err)
		}
	}

	if state.Store != nil && state.SessionID != "" {
		if err := state.Store.Delete(ctx, state.SessionID); err != nil {
			logger.Warn("settleGameEnd: Failed to delete session snapshot: %v", err)
		}
	}

	state.Game = nil
	state.Version = ""
	state.phaseKey = ""
	state.BotWaitUntil = 0
}

// sendError sends a GameErrorEvent to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	if isBotUserId(userID) {
		return
	}
	bytes, err := json.Marshal(GameErrorEvent{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal GameErrorEvent: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

// sendSnapshot sends the redacted session state to one viewer.
func (mh *matchHandler) sendSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, viewerID string) {
	if state.Game == nil {
		return
	}
	presence, ok := state.Presences[viewerID]
	if !ok {
		return
	}

	bytes, err := json.Marshal(snapshotFor(state.Game, viewerID))
	if err != nil {
		logger.Error("Failed to marshal session snapshot: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpSessionSnapshot, bytes, []runtime.Presence{presence}, nil, true)
}

// broadcastMatchState shares the current seating with the table.
func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	lobby := LobbyState{OpenSeats: state.GetOpenSeatsCount()}
	for i, userId := range state.Seats {
		if userId == "" {
			continue
		}
		lobby.Players = append(lobby.Players, LobbyPlayer{
			ID:      userId,
			Name:    mh.displayNameFor(state, userId),
			Seat:    i,
			IsOwner: i == state.OwnerSeat,
			IsBot:   isBotUserId(userId),
		})
	}

	bytes, err := json.Marshal(lobby)
	if err != nil {
		logger.Error("Failed to marshal lobby state: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpMatchState, bytes, nil, nil, true)
}

func (mh *matchHandler) displayNameFor(state *MatchState, userID string) string {
	if p, exists := state.Presences[userID]; exists {
		return p.GetUsername()
	}
	if name := bot.GetBotUsername(userID); name != "" {
		return name
	}
	return userID
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	matchState := "lobby"
	if state.Game != nil {
		matchState = "playing"
	}

	labelBytes, err := json.Marshal(MatchLabel{
		Open:  state.GetOpenSeatsCount(),
		State: matchState,
	})
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

// firstLivingOpponent returns the first living player other than playerID.
func firstLivingOpponent(game *domain.Game, playerID string) string {
	for _, p := range game.Players {
		if !p.Dead && p.ID != playerID {
			return p.ID
		}
	}
	return ""
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	if matchState, ok := state.(*MatchState); ok && matchState.Game != nil && matchState.Store != nil {
		if err := matchState.Store.Delete(ctx, matchState.SessionID); err != nil {
			logger.Warn("MatchTerminate: Failed to delete session snapshot: %v", err)
		}
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
