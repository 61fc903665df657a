package ports

import (
	"context"
	"errors"

	"coup/internal/domain"
)

var (
	// ErrNotFound means no session exists under the given id.
	ErrNotFound = errors.New("session not found")
	// ErrConflict means the session changed since the caller read it. The
	// caller must refetch the current state and retry.
	ErrConflict = errors.New("session version conflict")
)

// SessionStore persists committed game sessions with optimistic concurrency.
// Every Get returns the version it read; Put only commits when the stored
// version still matches expectedVersion, otherwise it fails with ErrConflict.
// Two racing writers can therefore never both commit against the same read.
type SessionStore interface {
	// Get returns the session and the version tag of the read state.
	Get(ctx context.Context, sessionID string) (*domain.Game, string, error)

	// Put commits the session if the stored version still equals
	// expectedVersion, returning the new version. An empty expectedVersion
	// requires that no session exists yet.
	Put(ctx context.Context, sessionID string, game *domain.Game, expectedVersion string) (string, error)

	// Delete removes the session.
	Delete(ctx context.Context, sessionID string) error
}
