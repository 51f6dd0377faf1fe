package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/models"
	"github.com/Kerhoff/InSync/internal/repository"
)

// ErrAbsent is returned by Load when no identity has been saved.
var ErrAbsent = errors.New("no identity stored")

const storageKey = "user_id"

// Store persists the logged-in user's identity under a single key.
type Store struct {
	kv     repository.KeyValueStore
	key    string
	logger *logrus.Logger
}

// NewStore creates an identity store. A non-empty namespace scopes the key,
// so several chats can share one backend.
func NewStore(kv repository.KeyValueStore, namespace string, logger *logrus.Logger) *Store {
	key := storageKey
	if namespace != "" {
		key = namespace + ":" + storageKey
	}
	return &Store{kv: kv, key: key, logger: logger}
}

// Key returns the storage key this store reads and writes.
func (s *Store) Key() string {
	return s.key
}

// Save persists id, replacing any previous identity.
func (s *Store) Save(ctx context.Context, id models.Identity) error {
	value := strings.TrimSpace(id.String())
	if value == "" {
		return errors.New("cannot save an empty identity")
	}
	if err := s.kv.Set(ctx, s.key, value); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	s.logger.WithField("key", s.key).Debug("Identity saved")
	return nil
}

// Load returns the persisted identity, ErrAbsent when none is stored, or a
// wrapped storage error.
func (s *Store) Load(ctx context.Context) (models.Identity, error) {
	value, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to load identity: %w", err)
	}
	if !found || strings.TrimSpace(value) == "" {
		return "", ErrAbsent
	}
	return models.Identity(strings.TrimSpace(value)), nil
}

// Clear removes the persisted identity. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	s.logger.WithField("key", s.key).Debug("Identity cleared")
	return nil
}
