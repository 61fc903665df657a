package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
)

const (
	// CopiesPerRole is how many cards of each role the deck starts with.
	CopiesPerRole = 3
	// TotalCards is the closed-system card count: deck plus all hands plus
	// any exchange buffer must always sum to this.
	TotalCards = CopiesPerRole * 5
)

var (
	// ErrDeckUnderflow is returned when a draw requests more cards than remain.
	ErrDeckUnderflow = errors.New("deck underflow")
	// ErrInvariantViolation indicates the 15-card invariant no longer holds.
	// Sessions in this state are corrupted and must refuse further intents.
	ErrInvariantViolation = errors.New("card count invariant violated")
)

// Deck is the unordered bag of unassigned role cards. All card movement goes
// through Draw and Return so the closed-system invariant stays enforceable in
// one place.
type Deck struct {
	cards []Role
}

// NewDeck returns a full deck with CopiesPerRole copies of every role.
func NewDeck() *Deck {
	cards := make([]Role, 0, TotalCards)
	for _, role := range Roles {
		for i := 0; i < CopiesPerRole; i++ {
			cards = append(cards, role)
		}
	}
	return &Deck{cards: cards}
}

// Size returns the number of cards currently in the deck.
func (d *Deck) Size() int {
	return len(d.cards)
}

// Draw removes and returns n cards from the top of the deck.
func (d *Deck) Draw(n int) ([]Role, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("%w: requested %d, have %d", ErrDeckUnderflow, n, len(d.cards))
	}
	drawn := make([]Role, n)
	copy(drawn, d.cards[:n])
	d.cards = d.cards[n:]
	return drawn, nil
}

// Return appends cards back into the deck. Callers must Shuffle before the
// next Draw so card positions leak nothing about what was just returned.
func (d *Deck) Return(roles ...Role) {
	d.cards = append(d.cards, roles...)
}

// Shuffle permutes the deck uniformly at random.
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// MarshalJSON encodes the deck as a bare role array.
func (d *Deck) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.cards)
}

// UnmarshalJSON decodes the deck from a bare role array.
func (d *Deck) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.cards)
}

// AssertInvariant verifies the closed-system card count across deck, hands
// and the exchange buffer. A violation means the stored state is corrupted.
func (g *Game) AssertInvariant() error {
	total := 0
	if g.Deck != nil {
		total += g.Deck.Size()
	}
	for _, p := range g.Players {
		total += len(p.Hand)
	}
	total += len(g.ExchangeBuffer)
	if total != TotalCards {
		return fmt.Errorf("%w: counted %d cards, want %d", ErrInvariantViolation, total, TotalCards)
	}
	return nil
}
