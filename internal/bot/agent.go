package bot

import (
	"math/rand"
	"time"

	"coup/internal/app"
	"coup/internal/domain"
)

// Reaction is what an agent does when a challenge or block window is open.
type Reaction int

const (
	ReactPass Reaction = iota
	ReactChallenge
	ReactBlock
)

// Agent drives one bot seat. It reads the authoritative game state and
// produces the same intents a human client would send.
type Agent struct {
	ID   string
	Name string

	rng *rand.Rand
}

// NewAgent creates an agent for the given seat.
func NewAgent(id, name string, rng *rand.Rand) *Agent {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Agent{ID: id, Name: name, rng: rng}
}

// ChooseAction picks the action for the agent's turn and a target where the
// action needs one. It never picks an action the engine would reject.
func (a *Agent) ChooseAction(g *domain.Game) (domain.ActionKind, string) {
	me := g.PlayerByID(a.ID)
	if me == nil {
		return domain.ActionIncome, ""
	}
	target := a.pickTarget(g)

	// Coup is unchallengeable and unblockable, so take it whenever forced
	// or affordable against a real target.
	if me.Coins >= app.MandatoryCoupThreshold && target != "" {
		return domain.ActionCoup, target
	}
	if me.Coins >= app.CoupCost && target != "" {
		return domain.ActionCoup, target
	}

	if a.holds(me, domain.RoleAssassin) && me.Coins >= app.AssassinateCost && target != "" {
		return domain.ActionAssassinate, target
	}
	if a.holds(me, domain.RoleDuke) {
		return domain.ActionTax, ""
	}
	if a.holds(me, domain.RoleCaptain) && target != "" && g.PlayerByID(target).Coins > 0 {
		return domain.ActionSteal, target
	}
	if a.holds(me, domain.RoleAmbassador) {
		return domain.ActionExchange, ""
	}

	// No useful role held. Occasionally bluff tax, otherwise take the safe
	// two coins unless a Duke is plausibly out there.
	if a.rng.Intn(5) == 0 {
		return domain.ActionTax, ""
	}
	if a.rng.Intn(2) == 0 {
		return domain.ActionForeignAid, ""
	}
	return domain.ActionIncome, ""
}

// React decides what to do with an open challenge or block window. The
// returned role is only meaningful for ReactBlock.
func (a *Agent) React(g *domain.Game) (Reaction, domain.Role) {
	me := g.PlayerByID(a.ID)
	if me == nil || me.Dead || g.CurrentAction == nil || !g.PendingResponders[a.ID] {
		return ReactPass, ""
	}
	action := g.CurrentAction

	switch g.Phase {
	case domain.PhaseAwaitingChallenge:
		claimed, ok := domain.RequiredRole(action.Kind)
		if ok && a.claimImpossible(g, claimed) {
			return ReactChallenge, ""
		}
	case domain.PhaseAwaitingBlock:
		for _, role := range domain.Blockers(action.Kind) {
			if a.holds(me, role) {
				return ReactBlock, role
			}
		}
		// Bluff a Contessa rather than lose a card outright.
		if action.Kind == domain.ActionAssassinate && action.TargetID == a.ID {
			return ReactBlock, domain.RoleContessa
		}
	case domain.PhaseAwaitingBlockChallenge:
		if a.claimImpossible(g, action.BlockRole) {
			return ReactChallenge, ""
		}
	}
	return ReactPass, ""
}

// ChooseLoss picks which influence card to give up.
func (a *Agent) ChooseLoss(g *domain.Game) int {
	me := g.PlayerByID(a.ID)
	if me == nil {
		return 0
	}
	// Keep the strongest role. Give up duplicates first, then the card
	// lowest in the keep order.
	best, bestScore := -1, -1
	for i, c := range me.Hand {
		if c.Revealed {
			continue
		}
		score := 0
		for rank, role := range keepOrder {
			if c.Role == role {
				score = len(keepOrder) - rank
			}
		}
		if best == -1 || score < bestScore {
			best, bestScore = i, score
		}
	}
	if best == -1 {
		return me.FirstUnrevealedIndex()
	}
	return best
}

// ChooseExchange picks which buffer indices to keep after drawing.
func (a *Agent) ChooseExchange(g *domain.Game) []int {
	keepCount := len(g.ExchangeBuffer) - app.ExchangeDrawCount
	if keepCount <= 0 {
		return nil
	}

	type scored struct {
		index int
		score int
	}
	ranked := make([]scored, 0, len(g.ExchangeBuffer))
	seen := map[domain.Role]int{}
	for i, c := range g.ExchangeBuffer {
		score := 0
		for rank, role := range keepOrder {
			if c.Role == role {
				score = (len(keepOrder) - rank) * 10
			}
		}
		// Penalize duplicates so the kept hand covers more claims.
		score -= seen[c.Role] * 15
		seen[c.Role]++
		ranked = append(ranked, scored{index: i, score: score})
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].score > ranked[j-1].score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	keep := make([]int, keepCount)
	for i := 0; i < keepCount; i++ {
		keep[i] = ranked[i].index
	}
	return keep
}

// keepOrder ranks roles from most to least worth holding.
var keepOrder = []domain.Role{
	domain.RoleDuke,
	domain.RoleContessa,
	domain.RoleCaptain,
	domain.RoleAssassin,
	domain.RoleAmbassador,
}

func (a *Agent) holds(p *domain.Player, role domain.Role) bool {
	return p.UnrevealedIndexOf(role) >= 0
}

// claimImpossible reports whether every copy of the claimed role is already
// accounted for by the agent's own hand and the table's revealed cards. Only
// then is a challenge a sure win, so the agent never gambles one.
func (a *Agent) claimImpossible(g *domain.Game, claimed domain.Role) bool {
	if claimed == "" {
		return false
	}
	visible := 0
	for _, p := range g.Players {
		for _, c := range p.Hand {
			if c.Role != claimed {
				continue
			}
			if c.Revealed || p.ID == a.ID {
				visible++
			}
		}
	}
	return visible >= domain.CopiesPerRole
}

// pickTarget chooses the living opponent closest to winning, preferring
// fewer influence cards and breaking ties on coins.
func (a *Agent) pickTarget(g *domain.Game) string {
	var best *domain.Player
	for _, p := range g.Players {
		if p.Dead || p.ID == a.ID {
			continue
		}
		if best == nil {
			best = p
			continue
		}
		if p.UnrevealedCount() < best.UnrevealedCount() ||
			(p.UnrevealedCount() == best.UnrevealedCount() && p.Coins > best.Coins) {
			best = p
		}
	}
	if best == nil {
		return ""
	}
	return best.ID
}
