package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"coup/internal/domain"
	"coup/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NakamaSessionStore implements ports.SessionStore on Nakama's storage engine.
// Snapshots are system-owned and every write carries the version read earlier,
// so a racing writer is rejected instead of silently overwritten.
type NakamaSessionStore struct {
	nk runtime.NakamaModule
}

// NewNakamaSessionStore creates a new session store adapter.
func NewNakamaSessionStore(nk runtime.NakamaModule) *NakamaSessionStore {
	return &NakamaSessionStore{nk: nk}
}

func (s *NakamaSessionStore) Get(ctx context.Context, sessionID string) (*domain.Game, string, error) {
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: SessionCollection, Key: sessionID},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}
	if len(objects) == 0 {
		return nil, "", ports.ErrNotFound
	}

	var game domain.Game
	if err := json.Unmarshal([]byte(objects[0].Value), &game); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return &game, objects[0].Version, nil
}

func (s *NakamaSessionStore) Put(ctx context.Context, sessionID string, game *domain.Game, expectedVersion string) (string, error) {
	value, err := json.Marshal(game)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session %s: %w", sessionID, err)
	}

	// An empty expected version means create-only; "*" makes Nakama reject
	// the write when the key already exists.
	version := expectedVersion
	if version == "" {
		version = "*"
	}

	acks, err := s.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      SessionCollection,
			Key:             sessionID,
			Value:           string(value),
			Version:         version,
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return "", fmt.Errorf("session %s: %w", sessionID, ports.ErrConflict)
		}
		return "", fmt.Errorf("failed to write session %s: %w", sessionID, err)
	}
	if len(acks) == 0 {
		return "", fmt.Errorf("session %s: write returned no ack", sessionID)
	}
	return acks[0].Version, nil
}

func (s *NakamaSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.nk.StorageDelete(ctx, []*runtime.StorageDelete{
		{Collection: SessionCollection, Key: sessionID},
	}); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

var _ ports.SessionStore = (*NakamaSessionStore)(nil)
