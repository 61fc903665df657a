package domain

// Role is one of the five character types an influence card can represent.
type Role string

const (
	RoleDuke       Role = "duke"
	RoleAssassin   Role = "assassin"
	RoleCaptain    Role = "captain"
	RoleAmbassador Role = "ambassador"
	RoleContessa   Role = "contessa"
)

// Roles lists every character type in a stable order.
var Roles = []Role{RoleDuke, RoleAssassin, RoleCaptain, RoleAmbassador, RoleContessa}

// Phase represents the current step of the per-turn resolution state machine.
type Phase string

const (
	// PhaseChoosingAction indicates the turn holder must declare an action.
	PhaseChoosingAction Phase = "choosing_action"
	// PhaseAwaitingChallenge is the window where opponents may dispute a role claim.
	PhaseAwaitingChallenge Phase = "awaiting_challenge"
	// PhaseAwaitingBlock is the window where an eligible player may declare a block.
	PhaseAwaitingBlock Phase = "awaiting_block"
	// PhaseAwaitingBlockChallenge is the window where a declared block may be disputed.
	PhaseAwaitingBlockChallenge Phase = "awaiting_block_challenge"
	// PhaseAwaitingInfluenceLoss waits for a player to choose which card to reveal.
	PhaseAwaitingInfluenceLoss Phase = "awaiting_influence_loss"
	// PhaseAwaitingExchange waits for the ambassador to pick their new hand.
	PhaseAwaitingExchange Phase = "awaiting_exchange"
)

// Status is the lifecycle stage of a game session.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// ActionKind identifies a declarable action.
type ActionKind string

const (
	ActionIncome      ActionKind = "income"
	ActionForeignAid  ActionKind = "foreign_aid"
	ActionCoup        ActionKind = "coup"
	ActionTax         ActionKind = "tax"
	ActionSteal       ActionKind = "steal"
	ActionAssassinate ActionKind = "assassinate"
	ActionExchange    ActionKind = "exchange"
)

// Card is a single influence card. Revealed cards are public and spent.
type Card struct {
	Role     Role `json:"role"`
	Revealed bool `json:"revealed"`
}

// Player holds state for one participant.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Coins int    `json:"coins"`
	Hand  []Card `json:"hand"`
	Dead  bool   `json:"dead"`
	Host  bool   `json:"host"`
}

// UnrevealedCount returns how many influence cards the player still holds.
func (p *Player) UnrevealedCount() int {
	count := 0
	for _, c := range p.Hand {
		if !c.Revealed {
			count++
		}
	}
	return count
}

// FirstUnrevealedIndex returns the lowest hand index holding a face-down card,
// or -1 if every card is revealed.
func (p *Player) FirstUnrevealedIndex() int {
	for i, c := range p.Hand {
		if !c.Revealed {
			return i
		}
	}
	return -1
}

// UnrevealedIndexOf returns the index of a face-down card with the given role,
// or -1 if the player does not hold one.
func (p *Player) UnrevealedIndexOf(role Role) int {
	for i, c := range p.Hand {
		if !c.Revealed && c.Role == role {
			return i
		}
	}
	return -1
}

// Action is the declared action currently mid-resolution.
type Action struct {
	Kind      ActionKind `json:"kind"`
	ActorID   string     `json:"actor_id"`
	TargetID  string     `json:"target_id,omitempty"`
	BlockedBy string     `json:"blocked_by,omitempty"`
	// BlockRole is the role the blocker claims. Steal has two legal blockers,
	// so the claim must name which one is asserted.
	BlockRole Role `json:"block_role,omitempty"`
}

// LogEntry is one line of the session audit log.
type LogEntry struct {
	ID      string `json:"id"`
	Turn    int    `json:"turn"`
	Message string `json:"message"`
}

// Game captures the authoritative state for a single session. Player order is
// turn order and never changes; eliminated players keep their seat.
type Game struct {
	Players   []*Player `json:"players"`
	Deck      *Deck     `json:"deck"`
	TurnIndex int       `json:"turn_index"`
	Phase     Phase     `json:"phase"`
	Status    Status    `json:"status"`

	CurrentAction   *Action `json:"current_action,omitempty"`
	PendingPlayerID string  `json:"pending_player_id,omitempty"`
	ExchangeBuffer  []Card  `json:"exchange_buffer,omitempty"`

	// PendingResponders tracks which players must still pass or act before
	// the current challenge/block window closes.
	PendingResponders map[string]bool `json:"pending_responders,omitempty"`

	Logs     []LogEntry `json:"logs"`
	WinnerID string     `json:"winner_id,omitempty"`
}

// PlayerByID returns the player with the given id, or nil.
func (g *Game) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// TurnHolder returns the player whose turn it is.
func (g *Game) TurnHolder() *Player {
	if g.TurnIndex < 0 || g.TurnIndex >= len(g.Players) {
		return nil
	}
	return g.Players[g.TurnIndex]
}

// LivingCount returns the number of players still holding influence.
func (g *Game) LivingCount() int {
	count := 0
	for _, p := range g.Players {
		if !p.Dead {
			count++
		}
	}
	return count
}

// LastSurvivor returns the only living player, or nil if more than one remains.
func (g *Game) LastSurvivor() *Player {
	var survivor *Player
	for _, p := range g.Players {
		if p.Dead {
			continue
		}
		if survivor != nil {
			return nil
		}
		survivor = p
	}
	return survivor
}

// NextLivingIndex returns the index of the next living player after from,
// wrapping around the table. Returns from itself if nobody else lives.
func (g *Game) NextLivingIndex(from int) int {
	n := len(g.Players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if !g.Players[idx].Dead {
			return idx
		}
	}
	return from
}
