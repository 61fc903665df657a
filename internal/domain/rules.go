package domain

// RequiredRole returns the role an action claims, if it claims one.
func RequiredRole(kind ActionKind) (Role, bool) {
	switch kind {
	case ActionTax:
		return RoleDuke, true
	case ActionSteal:
		return RoleCaptain, true
	case ActionAssassinate:
		return RoleAssassin, true
	case ActionExchange:
		return RoleAmbassador, true
	default:
		return "", false
	}
}

// Blockers returns the roles that may legally block an action. Steal can be
// blocked by either Captain or Ambassador; the blocker declares which.
func Blockers(kind ActionKind) []Role {
	switch kind {
	case ActionForeignAid:
		return []Role{RoleDuke}
	case ActionSteal:
		return []Role{RoleCaptain, RoleAmbassador}
	case ActionAssassinate:
		return []Role{RoleContessa}
	default:
		return nil
	}
}

// ClaimsRole reports whether declaring the action asserts a role claim that
// opponents may challenge.
func (k ActionKind) ClaimsRole() bool {
	_, ok := RequiredRole(k)
	return ok
}

// Blockable reports whether any role can block the action.
func (k ActionKind) Blockable() bool {
	return len(Blockers(k)) > 0
}

// NeedsTarget reports whether the action requires a living target.
func (k ActionKind) NeedsTarget() bool {
	switch k {
	case ActionCoup, ActionSteal, ActionAssassinate:
		return true
	default:
		return false
	}
}

// Valid reports whether k is a known action kind.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionIncome, ActionForeignAid, ActionCoup, ActionTax, ActionSteal, ActionAssassinate, ActionExchange:
		return true
	default:
		return false
	}
}

// CanBlockWith reports whether the given role is a legal block claim against
// the action kind.
func CanBlockWith(kind ActionKind, role Role) bool {
	for _, r := range Blockers(kind) {
		if r == role {
			return true
		}
	}
	return false
}
