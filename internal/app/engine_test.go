package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"coup/internal/domain"
	"coup/internal/ports"
)

// memStore is an in-memory ports.SessionStore with version counters, used to
// exercise the optimistic-concurrency contract without Nakama.
type memStore struct {
	sessions map[string][]byte
	versions map[string]int
	// failPuts makes the next n Put calls fail with ErrConflict.
	failPuts int
}

func newMemStore() *memStore {
	return &memStore{sessions: map[string][]byte{}, versions: map[string]int{}}
}

func (m *memStore) Get(ctx context.Context, sessionID string) (*domain.Game, string, error) {
	raw, ok := m.sessions[sessionID]
	if !ok {
		return nil, "", ports.ErrNotFound
	}
	var game domain.Game
	if err := json.Unmarshal(raw, &game); err != nil {
		return nil, "", err
	}
	return &game, fmt.Sprintf("v%d", m.versions[sessionID]), nil
}

func (m *memStore) Put(ctx context.Context, sessionID string, game *domain.Game, expectedVersion string) (string, error) {
	if m.failPuts > 0 {
		m.failPuts--
		return "", ports.ErrConflict
	}
	current := ""
	if _, ok := m.sessions[sessionID]; ok {
		current = fmt.Sprintf("v%d", m.versions[sessionID])
	}
	if expectedVersion != current {
		return "", ports.ErrConflict
	}
	raw, err := json.Marshal(game)
	if err != nil {
		return "", err
	}
	m.sessions[sessionID] = raw
	m.versions[sessionID]++
	return fmt.Sprintf("v%d", m.versions[sessionID]), nil
}

func (m *memStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.sessions, sessionID)
	return nil
}

// recordingNotifier captures published event batches.
type recordingNotifier struct {
	batches [][]Event
}

func (r *recordingNotifier) Publish(ctx context.Context, sessionID string, events []Event) error {
	r.batches = append(r.batches, events)
	return nil
}

func newTestEngine() (*Engine, *memStore, *recordingNotifier) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	svc := NewService(rand.New(rand.NewSource(5)))
	return NewEngine(svc, store, notifier), store, notifier
}

func TestEngineCreateAndApply(t *testing.T) {
	engine, store, notifier := newTestEngine()
	ctx := context.Background()

	if _, err := engine.CreateSession(ctx, "s1", []SeatAssignment{
		{UserID: "p1"}, {UserID: "p2"},
	}, "p1"); err != nil {
		t.Fatalf("create session error: %v", err)
	}

	events, err := engine.PerformAction(ctx, "s1", "p1", domain.ActionIncome, "")
	if err != nil {
		t.Fatalf("perform action error: %v", err)
	}
	if !hasEvent(events, EventTurnChanged) {
		t.Errorf("expected turn changed event")
	}

	game, _, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if game.PlayerByID("p1").Coins != 3 {
		t.Errorf("committed coins = %d, want 3", game.PlayerByID("p1").Coins)
	}
	if err := game.AssertInvariant(); err != nil {
		t.Errorf("round-tripped state broke invariant: %v", err)
	}

	if len(notifier.batches) != 2 {
		t.Errorf("published batches = %d, want 2 (create + income)", len(notifier.batches))
	}
}

func TestEngineRejectsDuplicateSession(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()
	seats := []SeatAssignment{{UserID: "p1"}, {UserID: "p2"}}

	if _, err := engine.CreateSession(ctx, "s1", seats, "p1"); err != nil {
		t.Fatalf("create session error: %v", err)
	}
	if _, err := engine.CreateSession(ctx, "s1", seats, "p1"); !errors.Is(err, ports.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestEngineConflictDoesNotPublish(t *testing.T) {
	engine, store, notifier := newTestEngine()
	ctx := context.Background()

	if _, err := engine.CreateSession(ctx, "s1", []SeatAssignment{
		{UserID: "p1"}, {UserID: "p2"},
	}, "p1"); err != nil {
		t.Fatalf("create session error: %v", err)
	}
	published := len(notifier.batches)

	store.failPuts = 1
	if _, err := engine.PerformAction(ctx, "s1", "p1", domain.ActionIncome, ""); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	if len(notifier.batches) != published {
		t.Errorf("conflicted commit must not publish")
	}
	game, _, _ := store.Get(ctx, "s1")
	if game.PlayerByID("p1").Coins != 2 {
		t.Errorf("coins = %d, conflicted intent must not commit", game.PlayerByID("p1").Coins)
	}
}

func TestEngineRejectedIntentDoesNotCommit(t *testing.T) {
	engine, store, _ := newTestEngine()
	ctx := context.Background()

	if _, err := engine.CreateSession(ctx, "s1", []SeatAssignment{
		{UserID: "p1"}, {UserID: "p2"},
	}, "p1"); err != nil {
		t.Fatalf("create session error: %v", err)
	}

	if _, err := engine.PerformAction(ctx, "s1", "p2", domain.ActionIncome, ""); !errors.Is(err, ErrInvalidTurn) {
		t.Fatalf("err = %v, want ErrInvalidTurn", err)
	}
	game, _, _ := store.Get(ctx, "s1")
	if game.PlayerByID("p2").Coins != 2 {
		t.Errorf("p2 coins = %d, rejected intent must not commit", game.PlayerByID("p2").Coins)
	}
}
