package app

import "coup/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventGameStarted       EventKind = "game_started"
	EventHandDealt         EventKind = "hand_dealt"
	EventActionDeclared    EventKind = "action_declared"
	EventChallengeRaised   EventKind = "challenge_raised"
	EventChallengeResolved EventKind = "challenge_resolved"
	EventBlockDeclared     EventKind = "block_declared"
	EventResponderPassed   EventKind = "responder_passed"
	EventActionResolved    EventKind = "action_resolved"
	EventActionCancelled   EventKind = "action_cancelled"
	EventInfluenceLost     EventKind = "influence_lost"
	EventPlayerEliminated  EventKind = "player_eliminated"
	EventExchangeOptions   EventKind = "exchange_options"
	EventExchangeCompleted EventKind = "exchange_completed"
	EventTurnChanged       EventKind = "turn_changed"
	EventPlayerLeft        EventKind = "player_left"
	EventGameEnded         EventKind = "game_ended"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type GameStartedPayload struct {
	FirstTurnPlayerID string   `json:"first_turn_player_id"`
	PlayerIDs         []string `json:"player_ids"`
}

type HandDealtPayload struct {
	PlayerID string        `json:"player_id"`
	Hand     []domain.Card `json:"hand"`
}

type ActionDeclaredPayload struct {
	ActorID  string            `json:"actor_id"`
	Kind     domain.ActionKind `json:"kind"`
	TargetID string            `json:"target_id,omitempty"`
	Phase    domain.Phase      `json:"phase"`
}

type ChallengeRaisedPayload struct {
	ChallengerID string `json:"challenger_id"`
	AccusedID    string `json:"accused_id"`
	BlockClaim   bool   `json:"block_claim"`
}

type ChallengeResolvedPayload struct {
	ChallengerID string      `json:"challenger_id"`
	AccusedID    string      `json:"accused_id"`
	ClaimedRole  domain.Role `json:"claimed_role"`
	// Vindicated is true when the accused actually held the claimed role.
	Vindicated bool `json:"vindicated"`
}

type BlockDeclaredPayload struct {
	BlockerID string      `json:"blocker_id"`
	Role      domain.Role `json:"role"`
}

type ResponderPassedPayload struct {
	PlayerID  string `json:"player_id"`
	Remaining int    `json:"remaining"`
}

type ActionResolvedPayload struct {
	Kind     domain.ActionKind `json:"kind"`
	ActorID  string            `json:"actor_id"`
	TargetID string            `json:"target_id,omitempty"`
}

type ActionCancelledPayload struct {
	Kind    domain.ActionKind `json:"kind"`
	ActorID string            `json:"actor_id"`
}

type InfluenceLostPayload struct {
	PlayerID  string      `json:"player_id"`
	CardIndex int         `json:"card_index"`
	Role      domain.Role `json:"role"`
}

type PlayerEliminatedPayload struct {
	PlayerID string `json:"player_id"`
}

type ExchangeOptionsPayload struct {
	PlayerID string        `json:"player_id"`
	Options  []domain.Card `json:"options"`
	// KeepCount is how many of the options the player must select.
	KeepCount int `json:"keep_count"`
}

type ExchangeCompletedPayload struct {
	PlayerID string `json:"player_id"`
}

type TurnChangedPayload struct {
	TurnIndex int    `json:"turn_index"`
	PlayerID  string `json:"player_id"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"player_id"`
}

type GameEndedPayload struct {
	WinnerID string `json:"winner_id"`
}
