package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/InSync/internal/config"
	"github.com/Kerhoff/InSync/pkg/logger"
)

func openStore(t *testing.T, path string) (*config.Database, *kvRepository) {
	t.Helper()

	db, err := config.NewDatabase(config.DriverSQLite, path, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	return db, NewKeyValueRepository(db.DB).(*kvRepository)
}

func TestKeyValueRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, repo := openStore(t, filepath.Join(t.TempDir(), "insync.db"))
	defer db.Close()

	_, found, err := repo.Get(ctx, "user_id")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Set(ctx, "user_id", "42"))
	require.NoError(t, repo.Set(ctx, "user_id", "43"))

	value, found, err := repo.Get(ctx, "user_id")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "43", value)

	require.NoError(t, repo.Delete(ctx, "user_id"))
	require.NoError(t, repo.Delete(ctx, "user_id"))

	_, found, err = repo.Get(ctx, "user_id")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeyValueRepository_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "insync.db")

	db, repo := openStore(t, path)
	require.NoError(t, repo.Set(ctx, "chat:7:user_id", "42"))
	require.NoError(t, db.Close())

	db, repo = openStore(t, path)
	defer db.Close()

	value, found, err := repo.Get(ctx, "chat:7:user_id")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "42", value)
}
