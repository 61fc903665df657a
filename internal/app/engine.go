package app

import (
	"context"

	"coup/internal/domain"
	"coup/internal/ports"
)

// Notifier delivers committed event batches to session subscribers.
type Notifier interface {
	Publish(ctx context.Context, sessionID string, events []Event) error
}

// Engine is the session façade over a persistent store: every intent is
// computed against the most recently committed state and replaces it with an
// optimistic-concurrency check. A racing commit surfaces ports.ErrConflict
// and nothing is published; the caller refetches and retries.
type Engine struct {
	svc      *Service
	store    ports.SessionStore
	notifier Notifier
}

// NewEngine builds an Engine on the given collaborators. notifier may be nil
// when no subscriber delivery is wanted.
func NewEngine(svc *Service, store ports.SessionStore, notifier Notifier) *Engine {
	return &Engine{svc: svc, store: store, notifier: notifier}
}

// CreateSession starts a new game and stores it under sessionID. It fails
// with ports.ErrConflict when a session already exists under that id.
func (e *Engine) CreateSession(ctx context.Context, sessionID string, seats []SeatAssignment, hostID string) (*domain.Game, error) {
	game, events, err := e.svc.StartGame(seats, hostID)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.Put(ctx, sessionID, game, ""); err != nil {
		return nil, err
	}
	e.publish(ctx, sessionID, events)
	return game, nil
}

// Apply runs one intent against the session: get, mutate, put-with-version,
// publish. The intent never commits when it fails, and a stale read never
// overwrites a newer commit.
func (e *Engine) Apply(ctx context.Context, sessionID string, intent func(*domain.Game) ([]Event, error)) ([]Event, error) {
	game, version, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	events, err := intent(game)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.Put(ctx, sessionID, game, version); err != nil {
		return nil, err
	}
	e.publish(ctx, sessionID, events)
	return events, nil
}

// PerformAction applies a declared action for the actor.
func (e *Engine) PerformAction(ctx context.Context, sessionID, actorID string, kind domain.ActionKind, targetID string) ([]Event, error) {
	return e.Apply(ctx, sessionID, func(g *domain.Game) ([]Event, error) {
		return e.svc.PerformAction(g, actorID, kind, targetID)
	})
}

// Challenge applies a challenge by the given player.
func (e *Engine) Challenge(ctx context.Context, sessionID, challengerID string) ([]Event, error) {
	return e.Apply(ctx, sessionID, func(g *domain.Game) ([]Event, error) {
		return e.svc.Challenge(g, challengerID)
	})
}

// Block applies a block claim by the given player.
func (e *Engine) Block(ctx context.Context, sessionID, blockerID string, role domain.Role) ([]Event, error) {
	return e.Apply(ctx, sessionID, func(g *domain.Game) ([]Event, error) {
		return e.svc.Block(g, blockerID, role)
	})
}

// Pass applies one responder's pass.
func (e *Engine) Pass(ctx context.Context, sessionID, callerID string) ([]Event, error) {
	return e.Apply(ctx, sessionID, func(g *domain.Game) ([]Event, error) {
		return e.svc.Pass(g, callerID)
	})
}

// ResolveLoss applies an influence-loss choice.
func (e *Engine) ResolveLoss(ctx context.Context, sessionID, loserID string, cardIndex int) ([]Event, error) {
	return e.Apply(ctx, sessionID, func(g *domain.Game) ([]Event, error) {
		return e.svc.ResolveLoss(g, loserID, cardIndex)
	})
}

// ResolveExchange applies an exchange selection.
func (e *Engine) ResolveExchange(ctx context.Context, sessionID, playerID string, keptIndices []int) ([]Event, error) {
	return e.Apply(ctx, sessionID, func(g *domain.Game) ([]Event, error) {
		return e.svc.ResolveExchange(g, playerID, keptIndices)
	})
}

// LeaveGame applies a departure.
func (e *Engine) LeaveGame(ctx context.Context, sessionID, playerID string) ([]Event, error) {
	return e.Apply(ctx, sessionID, func(g *domain.Game) ([]Event, error) {
		return e.svc.LeaveGame(g, playerID)
	})
}

func (e *Engine) publish(ctx context.Context, sessionID string, events []Event) {
	if e.notifier == nil || len(events) == 0 {
		return
	}
	// Delivery is best-effort: the commit already happened.
	_ = e.notifier.Publish(ctx, sessionID, events)
}
