package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// GameConfig holds tunables for session pacing and bots. Values of zero fall
// back to the defaults below so a partial config file stays valid.
type GameConfig struct {
	// TurnDurationSeconds bounds how long the turn holder may sit in the
	// action-choosing phase before income is taken automatically.
	TurnDurationSeconds int `json:"turn_duration_seconds"`
	// DecisionTimeoutSeconds bounds challenge/block windows and pending
	// card decisions before they resolve by default.
	DecisionTimeoutSeconds int `json:"decision_timeout_seconds"`

	BotMinDelaySeconds      int `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds      int `json:"bot_max_delay_seconds"`
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`

	// WinReward is the gold credited to the winner's wallet.
	WinReward int64 `json:"win_reward"`
	// WelcomeBonus is the starting gold granted once per new account.
	WelcomeBonus int64 `json:"welcome_bonus"`
}

const (
	DefaultTurnDurationSeconds     = 30
	DefaultDecisionTimeoutSeconds  = 15
	DefaultBotMinDelaySeconds      = 1
	DefaultBotMaxDelaySeconds      = 3
	DefaultBotAutoFillDelaySeconds = 5
	DefaultWinReward               = 100
	DefaultWelcomeBonus            = 500
)

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the loaded configuration with defaults applied for
// any unset field. Safe to call when no file was loaded.
func GetGameConfig() GameConfig {
	out := GameConfig{}
	if cfg != nil {
		out = *cfg
	}
	if out.TurnDurationSeconds <= 0 {
		out.TurnDurationSeconds = DefaultTurnDurationSeconds
	}
	if out.DecisionTimeoutSeconds <= 0 {
		out.DecisionTimeoutSeconds = DefaultDecisionTimeoutSeconds
	}
	if out.BotMinDelaySeconds <= 0 {
		out.BotMinDelaySeconds = DefaultBotMinDelaySeconds
	}
	if out.BotMaxDelaySeconds < out.BotMinDelaySeconds {
		out.BotMaxDelaySeconds = out.BotMinDelaySeconds + DefaultBotMaxDelaySeconds - DefaultBotMinDelaySeconds
	}
	if out.BotAutoFillDelaySeconds <= 0 {
		out.BotAutoFillDelaySeconds = DefaultBotAutoFillDelaySeconds
	}
	if out.WinReward <= 0 {
		out.WinReward = DefaultWinReward
	}
	if out.WelcomeBonus <= 0 {
		out.WelcomeBonus = DefaultWelcomeBonus
	}
	return out
}
