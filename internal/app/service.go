package app

import (
	"fmt"
	"math/rand"
	"time"

	"coup/internal/domain"

	"github.com/google/uuid"
)

// Service contains the game's use-cases operating on domain state. All intent
// handlers validate against the current phase/turn, mutate the session, and
// return the events to broadcast. Callers are responsible for serializing
// access to a given game.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

// SeatAssignment names a participant joining a new game.
type SeatAssignment struct {
	UserID      string
	DisplayName string
}

// StartGame deals two cards and two coins to every seated player, shuffles
// the remainder into the deck, and opens the first turn.
func (s *Service) StartGame(seats []SeatAssignment, hostID string) (*domain.Game, []Event, error) {
	players := make([]*domain.Player, 0, len(seats))
	for _, seat := range seats {
		if seat.UserID == "" {
			continue
		}
		name := seat.DisplayName
		if name == "" {
			name = seat.UserID
		}
		players = append(players, &domain.Player{
			ID:    seat.UserID,
			Name:  name,
			Coins: StartingCoins,
			Host:  seat.UserID == hostID,
		})
	}

	if len(players) < MinPlayersToStartGame {
		return nil, nil, ErrTooFewPlayers
	}
	if len(players) > MaxPlayers {
		return nil, nil, ErrTooManyPlayers
	}

	deck := domain.NewDeck()
	deck.Shuffle(s.rng)

	game := &domain.Game{
		Players: players,
		Deck:    deck,
		Phase:   domain.PhaseChoosingAction,
		Status:  domain.StatusPlaying,
	}

	events := make([]Event, 0, len(players)+1)
	for _, pl := range players {
		drawn, err := deck.Draw(CardsPerPlayer)
		if err != nil {
			return nil, nil, err
		}
		for _, role := range drawn {
			pl.Hand = append(pl.Hand, domain.Card{Role: role})
		}
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{PlayerID: pl.ID, Hand: pl.Hand},
			Recipients: []string{pl.ID},
		})
	}

	if err := game.AssertInvariant(); err != nil {
		return nil, nil, err
	}

	ids := make([]string, len(players))
	for i, pl := range players {
		ids[i] = pl.ID
	}
	s.log(game, "game started with %d players", len(players))
	events = append(events, Event{
		Kind:    EventGameStarted,
		Payload: GameStartedPayload{FirstTurnPlayerID: players[0].ID, PlayerIDs: ids},
	})

	return game, events, nil
}

// LeaveGame removes a participant. Mid-game this reveals all of their cards,
// which counts as elimination; any pending decision they owned resolves by
// default so the table is never stuck waiting on an absent player.
func (s *Service) LeaveGame(game *domain.Game, playerID string) ([]Event, error) {
	pl := game.PlayerByID(playerID)
	if pl == nil {
		return nil, ErrUnknownPlayer
	}

	if game.Status != domain.StatusPlaying {
		for i, p := range game.Players {
			if p.ID == playerID {
				game.Players = append(game.Players[:i], game.Players[i+1:]...)
				break
			}
		}
		return []Event{{Kind: EventPlayerLeft, Payload: PlayerLeftPayload{PlayerID: playerID}}}, nil
	}

	events := []Event{{Kind: EventPlayerLeft, Payload: PlayerLeftPayload{PlayerID: playerID}}}
	s.log(game, "%s left the game", pl.Name)

	if pl.Dead {
		return events, nil
	}

	// A leaver's buffered exchange cards go back to the deck first so the
	// closed-system count survives the forfeit.
	if game.Phase == domain.PhaseAwaitingExchange && game.PendingPlayerID == playerID {
		for _, c := range game.ExchangeBuffer {
			game.Deck.Return(c.Role)
		}
		game.ExchangeBuffer = nil
		game.Deck.Shuffle(s.rng)
	}

	for i := range pl.Hand {
		pl.Hand[i].Revealed = true
	}
	events = append(events, s.eliminate(game, pl)...)

	if done, endEvents := s.checkWin(game); done {
		events = append(events, endEvents...)
		return events, s.commit(game)
	}

	// The leaver may have owned the pending action, a block, a decision, or a
	// seat in the responder set. Unwind whichever applies.
	delete(game.PendingResponders, playerID)

	switch {
	case game.CurrentAction != nil && game.CurrentAction.ActorID == playerID:
		events = append(events, s.cancelAction(game)...)
		events = append(events, s.advanceTurn(game)...)
	case game.Phase == domain.PhaseAwaitingBlockChallenge && game.CurrentAction != nil && game.CurrentAction.BlockedBy == playerID:
		// Block withdrawn; the original action resolves.
		evs, err := s.resolveEffect(game)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	case (game.Phase == domain.PhaseAwaitingInfluenceLoss || game.Phase == domain.PhaseAwaitingExchange) && game.PendingPlayerID == playerID:
		// The pending decision is moot: the leaver already revealed everything.
		events = append(events, s.cancelAction(game)...)
		events = append(events, s.advanceTurn(game)...)
	case game.Phase == domain.PhaseChoosingAction && game.TurnHolder() != nil && game.TurnHolder().ID == playerID:
		events = append(events, s.advanceTurn(game)...)
	case (game.Phase == domain.PhaseAwaitingChallenge ||
		game.Phase == domain.PhaseAwaitingBlock ||
		game.Phase == domain.PhaseAwaitingBlockChallenge) && len(game.PendingResponders) == 0:
		// The leaver was the last outstanding responder. Decision phases
		// carry no responder set and must not be treated as a drained
		// window; a bystander leave there leaves the pending choice alone.
		evs, err := s.closeWindow(game)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}

	return events, s.commit(game)
}

// eliminate finalizes a player whose hand is fully revealed.
func (s *Service) eliminate(game *domain.Game, pl *domain.Player) []Event {
	pl.Dead = true
	pl.Coins = 0
	delete(game.PendingResponders, pl.ID)
	s.log(game, "%s is eliminated", pl.Name)
	return []Event{{Kind: EventPlayerEliminated, Payload: PlayerEliminatedPayload{PlayerID: pl.ID}}}
}

// checkWin ends the session when exactly one player remains.
func (s *Service) checkWin(game *domain.Game) (bool, []Event) {
	survivor := game.LastSurvivor()
	if survivor == nil {
		return false, nil
	}
	game.Status = domain.StatusFinished
	game.WinnerID = survivor.ID
	game.CurrentAction = nil
	game.PendingPlayerID = ""
	game.PendingResponders = nil
	s.log(game, "%s wins", survivor.Name)
	return true, []Event{{Kind: EventGameEnded, Payload: GameEndedPayload{WinnerID: survivor.ID}}}
}

// advanceTurn hands the table to the next living player and reopens the
// action phase.
func (s *Service) advanceTurn(game *domain.Game) []Event {
	if game.Status != domain.StatusPlaying {
		return nil
	}
	game.TurnIndex = game.NextLivingIndex(game.TurnIndex)
	game.Phase = domain.PhaseChoosingAction
	game.CurrentAction = nil
	game.PendingPlayerID = ""
	game.PendingResponders = nil
	return []Event{{
		Kind:    EventTurnChanged,
		Payload: TurnChangedPayload{TurnIndex: game.TurnIndex, PlayerID: game.TurnHolder().ID},
	}}
}

// cancelAction drops the pending action without applying its effect.
func (s *Service) cancelAction(game *domain.Game) []Event {
	a := game.CurrentAction
	if a == nil {
		return nil
	}
	game.CurrentAction = nil
	game.PendingPlayerID = ""
	game.PendingResponders = nil
	s.log(game, "%s's %s is cancelled", s.playerName(game, a.ActorID), a.Kind)
	return []Event{{Kind: EventActionCancelled, Payload: ActionCancelledPayload{Kind: a.Kind, ActorID: a.ActorID}}}
}

// responderSet lists the living players who must pass or act before the
// current window closes, excluding the given ids.
func responderSet(players []*domain.Player, except ...string) map[string]bool {
	skip := map[string]bool{}
	for _, id := range except {
		skip[id] = true
	}
	out := map[string]bool{}
	for _, p := range players {
		if !p.Dead && !skip[p.ID] {
			out[p.ID] = true
		}
	}
	return out
}

// commit verifies the closed-system invariant after a mutation. A violation
// marks the stored state as corrupted; the transport layer refuses to resume
// such sessions.
func (s *Service) commit(game *domain.Game) error {
	return game.AssertInvariant()
}

func (s *Service) playerName(game *domain.Game, id string) string {
	if p := game.PlayerByID(id); p != nil {
		return p.Name
	}
	return id
}

// log appends an audit line to the session log.
func (s *Service) log(game *domain.Game, format string, args ...any) {
	game.Logs = append(game.Logs, domain.LogEntry{
		ID:      uuid.NewString(),
		Turn:    game.TurnIndex,
		Message: fmt.Sprintf(format, args...),
	})
}
