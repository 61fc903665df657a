package app

import (
	"fmt"
	"math/rand"
	"testing"

	"coup/internal/domain"
)

// buildGame constructs a playing session with fixed hands so rule tests can
// control exactly who holds which role. The deck gets whatever copies remain,
// keeping the 15-card invariant intact.
func buildGame(t *testing.T, hands ...[]domain.Role) (*Service, *domain.Game) {
	t.Helper()

	remaining := map[domain.Role]int{}
	for _, role := range domain.Roles {
		remaining[role] = domain.CopiesPerRole
	}

	players := make([]*domain.Player, len(hands))
	for i, hand := range hands {
		p := &domain.Player{
			ID:    playerID(i),
			Name:  playerID(i),
			Coins: StartingCoins,
		}
		for _, role := range hand {
			remaining[role]--
			if remaining[role] < 0 {
				t.Fatalf("more than %d copies of %s requested", domain.CopiesPerRole, role)
			}
			p.Hand = append(p.Hand, domain.Card{Role: role})
		}
		players[i] = p
	}
	players[0].Host = true

	deck := domain.NewDeck()
	if _, err := deck.Draw(domain.TotalCards); err != nil {
		t.Fatalf("drain deck: %v", err)
	}
	for _, role := range domain.Roles {
		for i := 0; i < remaining[role]; i++ {
			deck.Return(role)
		}
	}

	game := &domain.Game{
		Players: players,
		Deck:    deck,
		Phase:   domain.PhaseChoosingAction,
		Status:  domain.StatusPlaying,
	}
	if err := game.AssertInvariant(); err != nil {
		t.Fatalf("test setup broke invariant: %v", err)
	}

	return NewService(rand.New(rand.NewSource(1))), game
}

func playerID(i int) string {
	return fmt.Sprintf("p%d", i+1)
}

// passWindow has every pending responder of the current window pass, closing
// it. Passing stops once the phase moves on so follow-up windows stay open
// for the test to drive.
func passWindow(t *testing.T, svc *Service, game *domain.Game) []Event {
	t.Helper()
	start := game.Phase
	var events []Event
	for game.Phase == start && len(game.PendingResponders) > 0 {
		var next string
		for _, p := range game.Players {
			if game.PendingResponders[p.ID] {
				next = p.ID
				break
			}
		}
		evs, err := svc.Pass(game, next)
		if err != nil {
			t.Fatalf("pass by %s: %v", next, err)
		}
		events = append(events, evs...)
	}
	return events
}

func mustInvariant(t *testing.T, game *domain.Game) {
	t.Helper()
	if err := game.AssertInvariant(); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
}

func hasEvent(events []Event, kind EventKind) bool {
	for _, ev := range events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}
