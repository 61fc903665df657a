package config

import "testing"

func TestGetGameConfigDefaults(t *testing.T) {
	c := GetGameConfig()
	if c.TurnDurationSeconds != DefaultTurnDurationSeconds {
		t.Errorf("turn duration = %d, want %d", c.TurnDurationSeconds, DefaultTurnDurationSeconds)
	}
	if c.DecisionTimeoutSeconds != DefaultDecisionTimeoutSeconds {
		t.Errorf("decision timeout = %d, want %d", c.DecisionTimeoutSeconds, DefaultDecisionTimeoutSeconds)
	}
	if c.BotMaxDelaySeconds < c.BotMinDelaySeconds {
		t.Errorf("bot max delay %d below min %d", c.BotMaxDelaySeconds, c.BotMinDelaySeconds)
	}
	if c.WinReward != DefaultWinReward {
		t.Errorf("win reward = %d, want %d", c.WinReward, DefaultWinReward)
	}
}
