package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/InSync/internal/repository"
)

type kvRepository struct {
	db *sql.DB
}

// NewKeyValueRepository creates a new Postgres-backed device storage repository
func NewKeyValueRepository(db *sql.DB) repository.KeyValueStore {
	return &kvRepository{db: db}
}

func (r *kvRepository) Get(ctx context.Context, key string) (string, bool, error) {
	query := `
		SELECT storage_value
		FROM device_storage
		WHERE storage_key = $1`

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get storage key %q: %w", key, err)
	}

	return value, true, nil
}

func (r *kvRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO device_storage (storage_key, storage_value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (storage_key) DO UPDATE
		SET storage_value = EXCLUDED.storage_value, updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set storage key %q: %w", key, err)
	}

	return nil
}

func (r *kvRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM device_storage WHERE storage_key = $1`

	// Deleting an absent key is not an error: clearing is idempotent.
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete storage key %q: %w", key, err)
	}

	return nil
}

func (r *kvRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
