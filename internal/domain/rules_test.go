package domain

import "testing"

func TestRequiredRole(t *testing.T) {
	tests := []struct {
		kind   ActionKind
		role   Role
		claims bool
	}{
		{ActionTax, RoleDuke, true},
		{ActionSteal, RoleCaptain, true},
		{ActionAssassinate, RoleAssassin, true},
		{ActionExchange, RoleAmbassador, true},
		{ActionIncome, "", false},
		{ActionForeignAid, "", false},
		{ActionCoup, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			role, ok := RequiredRole(tt.kind)
			if ok != tt.claims || role != tt.role {
				t.Errorf("RequiredRole(%s) = (%s, %v), want (%s, %v)", tt.kind, role, ok, tt.role, tt.claims)
			}
		})
	}
}

func TestCanBlockWith(t *testing.T) {
	tests := []struct {
		name string
		kind ActionKind
		role Role
		want bool
	}{
		{"DukeBlocksForeignAid", ActionForeignAid, RoleDuke, true},
		{"ContessaBlocksAssassinate", ActionAssassinate, RoleContessa, true},
		{"CaptainBlocksSteal", ActionSteal, RoleCaptain, true},
		{"AmbassadorBlocksSteal", ActionSteal, RoleAmbassador, true},
		{"DukeCannotBlockSteal", ActionSteal, RoleDuke, false},
		{"NothingBlocksCoup", ActionCoup, RoleContessa, false},
		{"NothingBlocksTax", ActionTax, RoleDuke, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanBlockWith(tt.kind, tt.role); got != tt.want {
				t.Errorf("CanBlockWith(%s, %s) = %v, want %v", tt.kind, tt.role, got, tt.want)
			}
		})
	}
}

func TestNeedsTarget(t *testing.T) {
	targeted := map[ActionKind]bool{
		ActionCoup:        true,
		ActionSteal:       true,
		ActionAssassinate: true,
		ActionIncome:      false,
		ActionForeignAid:  false,
		ActionTax:         false,
		ActionExchange:    false,
	}
	for kind, want := range targeted {
		if got := kind.NeedsTarget(); got != want {
			t.Errorf("NeedsTarget(%s) = %v, want %v", kind, got, want)
		}
	}
}

func TestNextLivingIndexSkipsDead(t *testing.T) {
	g := &Game{Players: []*Player{
		{ID: "a"},
		{ID: "b", Dead: true},
		{ID: "c"},
	}}
	if idx := g.NextLivingIndex(0); idx != 2 {
		t.Errorf("NextLivingIndex(0) = %d, want 2", idx)
	}
	if idx := g.NextLivingIndex(2); idx != 0 {
		t.Errorf("NextLivingIndex(2) = %d, want 0", idx)
	}
}
