package domain

import (
	"math/rand"
	"testing"
)

func TestNewDeckComposition(t *testing.T) {
	d := NewDeck()
	if d.Size() != TotalCards {
		t.Fatalf("deck size = %d, want %d", d.Size(), TotalCards)
	}

	counts := map[Role]int{}
	drawn, err := d.Draw(TotalCards)
	if err != nil {
		t.Fatalf("draw error: %v", err)
	}
	for _, r := range drawn {
		counts[r]++
	}
	for _, role := range Roles {
		if counts[role] != CopiesPerRole {
			t.Errorf("role %s count = %d, want %d", role, counts[role], CopiesPerRole)
		}
	}
}

func TestDrawUnderflow(t *testing.T) {
	d := NewDeck()
	if _, err := d.Draw(TotalCards + 1); err == nil {
		t.Fatalf("expected underflow error")
	}

	drawn, err := d.Draw(TotalCards)
	if err != nil {
		t.Fatalf("draw error: %v", err)
	}
	if len(drawn) != TotalCards {
		t.Fatalf("drew %d cards, want %d", len(drawn), TotalCards)
	}
	if _, err := d.Draw(1); err == nil {
		t.Fatalf("expected underflow on empty deck")
	}
}

func TestReturnAndShuffleKeepsCount(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	d := NewDeck()
	drawn, err := d.Draw(4)
	if err != nil {
		t.Fatalf("draw error: %v", err)
	}
	d.Return(drawn...)
	d.Shuffle(rng)
	if d.Size() != TotalCards {
		t.Fatalf("deck size after return = %d, want %d", d.Size(), TotalCards)
	}
}

func TestAssertInvariant(t *testing.T) {
	d := NewDeck()
	hands, err := d.Draw(4)
	if err != nil {
		t.Fatalf("draw error: %v", err)
	}
	g := &Game{
		Deck: d,
		Players: []*Player{
			{ID: "p1", Hand: []Card{{Role: hands[0]}, {Role: hands[1]}}},
			{ID: "p2", Hand: []Card{{Role: hands[2]}, {Role: hands[3]}}},
		},
	}
	if err := g.AssertInvariant(); err != nil {
		t.Fatalf("invariant violated unexpectedly: %v", err)
	}

	// Losing a card without returning it must trip the invariant.
	g.Players[0].Hand = g.Players[0].Hand[:1]
	if err := g.AssertInvariant(); err == nil {
		t.Fatalf("expected invariant violation")
	}
}
