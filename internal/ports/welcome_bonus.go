package ports

import "context"

// WelcomeBonusPort grants the one-time starting gold for new accounts.
type WelcomeBonusPort interface {
	// GrantWelcomeBonusOnce credits the bonus and records a marker atomically.
	// Returns false with a nil error when the bonus was already granted.
	GrantWelcomeBonusOnce(ctx context.Context, userID string, amount int64, metadata map[string]interface{}) (bool, error)
}
