package app

import (
	"testing"

	"coup/internal/domain"
)

func TestIncomeAdvancesTurn(t *testing.T) {
	svc, game := buildGame(t,
		[]domain.Role{domain.RoleDuke, domain.RoleCaptain},
		[]domain.Role{domain.RoleAssassin, domain.RoleContessa},
	)

	events, err := svc.PerformAction(game, "p1", domain.ActionIncome, "")
	if err != nil {
		t.Fatalf("income error: %v", err)
	}

	if coins := game.PlayerByID("p1").Coins; coins != 3 {
		t.Errorf("p1 coins = %d, want 3", coins)
	}
	if game.Phase != domain.PhaseChoosingAction {
		t.Errorf("phase = %s, want choosing_action", game.Phase)
	}
	if game.TurnIndex != 1 {
		t.Errorf("turn index = %d, want 1", game.TurnIndex)
	}
	if game.CurrentAction != nil {
		t.Errorf("current action should be cleared")
	}
	if !hasEvent(events, EventTurnChanged) {
		t.Errorf("expected turn changed event")
	}
	mustInvariant(t, game)
}

func TestPerformActionWrongTurn(t *testing.T) {
	svc, game := buildGame(t,
		[]domain.Role{domain.RoleDuke, domain.RoleCaptain},
		[]domain.Role{domain.RoleAssassin, domain.RoleContessa},
	)

	if _, err := svc.PerformAction(game, "p2", domain.ActionIncome, ""); err != ErrInvalidTurn {
		t.Errorf("err = %v, want ErrInvalidTurn", err)
	}
}

func TestPerformActionDuringWindowRejected(t *testing.T) {
	svc, game := buildGame(t,
		[]domain.Role{domain.RoleDuke, domain.RoleCaptain},
		[]domain.Role{domain.RoleAssassin, domain.RoleContessa},
	)

	if _, err := svc.PerformAction(game, "p1", domain.ActionTax, ""); err != nil {
		t.Fatalf("tax error: %v", err)
	}
	if _, err := svc.PerformAction(game, "p1", domain.ActionIncome, ""); err != ErrInvalidPhase {
		t.Errorf("err = %v, want ErrInvalidPhase", err)
	}
}

func TestMandatoryCoupAtTenCoins(t *testing.T) {
	svc, game := buildGame(t,
		[]domain.Role{domain.RoleDuke, domain.RoleCaptain},
		[]domain.Role{domain.RoleAssassin, domain.RoleContessa},
	)
	game.PlayerByID("p1").Coins = 10

	if _, err := svc.PerformAction(game, "p1", domain.ActionIncome, ""); err != ErrMandatoryCoup {
		t.Fatalf("income at 10 coins: err = %v, want ErrMandatoryCoup", err)
	}

	if _, err := svc.PerformAction(game, "p1", domain.ActionCoup, "p2"); err != nil {
		t.Fatalf("coup error: %v", err)
	}
	if coins := game.PlayerByID("p1").Coins; coins != 3 {
		t.Errorf("p1 coins = %d, want 3 after paying coup", coins)
	}
	if game.Phase != domain.PhaseAwaitingInfluenceLoss {
		t.Errorf("phase = %s, want awaiting_influence_loss", game.Phase)
	}
	if game.PendingPlayerID != "p2" {
		t.Errorf("pending player = %s, want p2", game.PendingPlayerID)
	}
}

func TestCoupRequiresSevenCoins(t *testing.T) {
	svc, game := buildGame(t,
		[]domain.Role{domain.RoleDuke, domain.RoleCaptain},
		[]domain.Role{domain.RoleAssassin, domain.RoleContessa},
	)

	if _, err := svc.PerformAction(game, "p1", domain.ActionCoup, "p2"); err != ErrInsufficientFunds {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestTargetValidation(t *testing.T) {
	svc, game := buildGame(t,
		[]domain.Role{domain.RoleDuke, domain.RoleCaptain},
		[]domain.Role{domain.RoleAssassin, domain.RoleContessa},
		[]domain.Role{domain.RoleAmbassador, domain.RoleDuke},
	)
	game.PlayerByID("p1").Coins = 7
	game.PlayerByID("p3").Dead = true

	tests := []struct {
		name   string
		target string
	}{
		{"Self", "p1"},
		{"Missing", "nobody"},
		{"Dead", "p3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.PerformAction(game, "p1", domain.ActionCoup, tt.target); err != ErrTargetInvalid {
				t.Errorf("err = %v, want ErrTargetInvalid", err)
			}
		})
	}
}

func TestForeignAidOpensBlockWindowForTable(t *testing.T) {
	svc, game := buildGame(t,
		[]domain.Role{domain.RoleDuke, domain.RoleCaptain},
		[]domain.Role{domain.RoleAssassin, domain.RoleContessa},
		[]domain.Role{domain.RoleAmbassador, domain.RoleDuke},
	)

	if _, err := svc.PerformAction(game, "p1", domain.ActionForeignAid, ""); err != nil {
		t.Fatalf("foreign aid error: %v", err)
	}
	if game.Phase != domain.PhaseAwaitingBlock {
		t.Fatalf("phase = %s, want awaiting_block", game.Phase)
	}
	if !game.PendingResponders["p2"] || !game.PendingResponders["p3"] || game.PendingResponders["p1"] {
		t.Errorf("responders = %v, want p2 and p3", game.PendingResponders)
	}

	passWindow(t, svc, game)
	if coins := game.PlayerByID("p1").Coins; coins != 4 {
		t.Errorf("p1 coins = %d, want 4 after foreign aid", coins)
	}
	if game.TurnIndex != 1 {
		t.Errorf("turn index = %d, want 1", game.TurnIndex)
	}
}

func TestAssassinateDeductsCostUpFront(t *testing.T) {
	svc, game := buildGame(t,
		[]domain.Role{domain.RoleAssassin, domain.RoleCaptain},
		[]domain.Role{domain.RoleDuke, domain.RoleContessa},
	)
	game.PlayerByID("p1").Coins = 3

	if _, err := svc.PerformAction(game, "p1", domain.ActionAssassinate, "p2"); err != nil {
		t.Fatalf("assassinate error: %v", err)
	}
	if coins := game.PlayerByID("p1").Coins; coins != 0 {
		t.Errorf("p1 coins = %d, want 0 immediately after declaring", coins)
	}
	if game.Phase != domain.PhaseAwaitingChallenge {
		t.Errorf("phase = %s, want awaiting_challenge", game.Phase)
	}
}

func TestAssassinateRequiresThreeCoins(t *testing.T) {
	svc, game := buildGame(t,
		[]domain.Role{domain.RoleAssassin, domain.RoleCaptain},
		[]domain.Role{domain.RoleDuke, domain.RoleContessa},
	)
	game.PlayerByID("p1").Coins = 2

	if _, err := svc.PerformAction(game, "p1", domain.ActionAssassinate, "p2"); err != ErrInsufficientFunds {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestStealTransfersAtMostTwo(t *testing.T) {
	svc, game := buildGame(t,
		[]domain.Role{domain.RoleCaptain, domain.RoleDuke},
		[]domain.Role{domain.RoleAssassin, domain.RoleContessa},
	)
	game.PlayerByID("p2").Coins = 1

	if _, err := svc.PerformAction(game, "p1", domain.ActionSteal, "p2"); err != nil {
		t.Fatalf("steal error: %v", err)
	}
	passWindow(t, svc, game) // challenge window
	if game.Phase != domain.PhaseAwaitingBlock {
		t.Fatalf("phase = %s, want awaiting_block", game.Phase)
	}
	if !game.PendingResponders["p2"] || len(game.PendingResponders) != 1 {
		t.Errorf("only the target may block a steal, responders = %v", game.PendingResponders)
	}
	passWindow(t, svc, game) // block window

	if coins := game.PlayerByID("p1").Coins; coins != 3 {
		t.Errorf("p1 coins = %d, want 3 (stole only 1)", coins)
	}
	if coins := game.PlayerByID("p2").Coins; coins != 0 {
		t.Errorf("p2 coins = %d, want 0", coins)
	}
	if game.TurnIndex != 1 {
		t.Errorf("turn index = %d, want 1", game.TurnIndex)
	}
	mustInvariant(t, game)
}

func TestTaxResolvesAfterAllPass(t *testing.T) {
	svc, game := buildGame(t,
		[]domain.Role{domain.RoleDuke, domain.RoleCaptain},
		[]domain.Role{domain.RoleAssassin, domain.RoleContessa},
		[]domain.Role{domain.RoleAmbassador, domain.RoleDuke},
	)

	if _, err := svc.PerformAction(game, "p1", domain.ActionTax, ""); err != nil {
		t.Fatalf("tax error: %v", err)
	}

	// One pass alone must not close the window.
	if _, err := svc.Pass(game, "p2"); err != nil {
		t.Fatalf("pass error: %v", err)
	}
	if game.Phase != domain.PhaseAwaitingChallenge {
		t.Fatalf("window closed after a single pass")
	}
	if coins := game.PlayerByID("p1").Coins; coins != 2 {
		t.Fatalf("tax applied early")
	}

	if _, err := svc.Pass(game, "p3"); err != nil {
		t.Fatalf("pass error: %v", err)
	}
	if coins := game.PlayerByID("p1").Coins; coins != 5 {
		t.Errorf("p1 coins = %d, want 5", coins)
	}
	if game.TurnIndex != 1 {
		t.Errorf("turn index = %d, want 1", game.TurnIndex)
	}
}
