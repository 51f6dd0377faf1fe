package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kerhoff/InSync/internal/repository"
)

type kvRepository struct {
	db *sql.DB
}

// NewKeyValueRepository creates a device storage repository on a local
// SQLite file, the closest equivalent of on-device key-value storage.
func NewKeyValueRepository(db *sql.DB) repository.KeyValueStore {
	return &kvRepository{db: db}
}

func (r *kvRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT storage_value FROM device_storage WHERE storage_key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get storage key %q: %w", key, err)
	}
	return value, true, nil
}

func (r *kvRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO device_storage (storage_key, storage_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (storage_key) DO UPDATE
		SET storage_value = excluded.storage_value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set storage key %q: %w", key, err)
	}
	return nil
}

func (r *kvRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM device_storage WHERE storage_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete storage key %q: %w", key, err)
	}
	return nil
}
