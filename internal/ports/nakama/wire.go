package nakama

import (
	"errors"

	"coup/internal/app"
	"coup/internal/domain"
)

// Client request payloads. All opcodes carry JSON.

type StartGameRequest struct{}

type DeclareActionRequest struct {
	Kind     domain.ActionKind `json:"kind"`
	TargetID string            `json:"target_id,omitempty"`
}

type BlockRequest struct {
	Role domain.Role `json:"role"`
}

type ResolveLossRequest struct {
	CardIndex int `json:"card_index"`
}

type ResolveExchangeRequest struct {
	KeepIndices []int `json:"keep_indices"`
}

// GameErrorEvent is sent privately when a request is rejected.
type GameErrorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MatchLabel is the JSON match label used for listing queries.
type MatchLabel struct {
	Open  int    `json:"open"`
	State string `json:"state"`
}

// LobbyPlayer is one occupied seat in the lobby broadcast.
type LobbyPlayer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Seat    int    `json:"seat"`
	IsOwner bool   `json:"is_owner"`
	IsBot   bool   `json:"is_bot"`
}

// LobbyState is the seating broadcast sent whenever the table changes.
type LobbyState struct {
	Players   []LobbyPlayer `json:"players"`
	OpenSeats int           `json:"open_seats"`
}

// CardView is one influence card as a specific viewer sees it. The role of
// another player's face-down card is never sent.
type CardView struct {
	Role     domain.Role `json:"role,omitempty"`
	Revealed bool        `json:"revealed"`
}

// PlayerView is one seat in a snapshot.
type PlayerView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Coins     int        `json:"coins"`
	Influence []CardView `json:"influence"`
	Dead      bool       `json:"dead"`
	Host      bool       `json:"host"`
}

// SessionSnapshot is the full game state redacted for one viewer. Clients use
// it to resync after reconnecting or missing events.
type SessionSnapshot struct {
	Players         []PlayerView       `json:"players"`
	DeckSize        int                `json:"deck_size"`
	TurnIndex       int                `json:"turn_index"`
	Phase           domain.Phase       `json:"phase"`
	Status          domain.Status      `json:"status"`
	CurrentAction   *domain.Action     `json:"current_action,omitempty"`
	PendingPlayerID string             `json:"pending_player_id,omitempty"`
	ExchangeOptions []domain.Card      `json:"exchange_options,omitempty"`
	Responders      []string           `json:"responders,omitempty"`
	Logs            []domain.LogEntry  `json:"logs"`
	WinnerID        string             `json:"winner_id,omitempty"`
}

// snapshotFor builds the session snapshot as seen by viewerID. Unrevealed
// cards belonging to other players keep their slot but lose their role, and
// the exchange buffer is visible only to the player choosing from it.
func snapshotFor(game *domain.Game, viewerID string) SessionSnapshot {
	snapshot := SessionSnapshot{
		DeckSize:        game.Deck.Size(),
		TurnIndex:       game.TurnIndex,
		Phase:           game.Phase,
		Status:          game.Status,
		CurrentAction:   game.CurrentAction,
		PendingPlayerID: game.PendingPlayerID,
		Logs:            game.Logs,
		WinnerID:        game.WinnerID,
	}
	for _, p := range game.Players {
		view := PlayerView{
			ID:    p.ID,
			Name:  p.Name,
			Coins: p.Coins,
			Dead:  p.Dead,
			Host:  p.Host,
		}
		for _, c := range p.Hand {
			cv := CardView{Revealed: c.Revealed}
			if c.Revealed || p.ID == viewerID {
				cv.Role = c.Role
			}
			view.Influence = append(view.Influence, cv)
		}
		snapshot.Players = append(snapshot.Players, view)
	}
	if game.PendingPlayerID == viewerID {
		snapshot.ExchangeOptions = game.ExchangeBuffer
	}
	for id := range game.PendingResponders {
		snapshot.Responders = append(snapshot.Responders, id)
	}
	return snapshot
}

// errorCode maps rule rejections onto stable wire codes.
func errorCode(err error) int {
	switch {
	case errors.Is(err, app.ErrInvalidTurn):
		return 1
	case errors.Is(err, app.ErrInvalidPhase):
		return 2
	case errors.Is(err, app.ErrInsufficientFunds):
		return 3
	case errors.Is(err, app.ErrMandatoryCoup):
		return 4
	case errors.Is(err, app.ErrTargetInvalid):
		return 5
	case errors.Is(err, app.ErrInvalidBlock):
		return 6
	case errors.Is(err, app.ErrInvalidIndex):
		return 7
	case errors.Is(err, app.ErrUnknownPlayer):
		return 8
	default:
		return 100
	}
}
