package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/InSync/internal/repository"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, repository.KeyValueStore) {
	mr := miniredis.RunT(t)
	client := NewClient(Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewKeyValueRepository(client, "insync:")
}

func TestKeyValueRepository_RoundTrip(t *testing.T) {
	mr, repo := setupTestRedis(t)
	ctx := context.Background()

	_, found, err := repo.Get(ctx, "user_id")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Set(ctx, "user_id", "42"))
	stored, err := mr.Get("insync:user_id")
	require.NoError(t, err)
	assert.Equal(t, "42", stored)
	assert.Zero(t, mr.TTL("insync:user_id"))

	value, found, err := repo.Get(ctx, "user_id")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "42", value)

	require.NoError(t, repo.Delete(ctx, "user_id"))
	assert.False(t, mr.Exists("insync:user_id"))
}

func TestKeyValueRepository_ServerDown(t *testing.T) {
	mr, repo := setupTestRedis(t)
	mr.Close()

	_, found, err := repo.Get(context.Background(), "user_id")
	assert.Error(t, err)
	assert.False(t, found)

	pinger, ok := repo.(repository.Pinger)
	require.True(t, ok)
	assert.Error(t, pinger.Ping(context.Background()))
}
