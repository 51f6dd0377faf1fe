package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresTelegramToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("INSYNC_CONFIG_FILE", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_TOKEN")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("INSYNC_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.IdentityStore)
	assert.Equal(t, 20*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "@every 1m", cfg.AutoStatusSchedule)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram_token: from-file
api_base_url: https://file.example/restapi
request_timeout: 5s
identity_store: redis
redis_db: 3
`), 0o600))

	t.Setenv("INSYNC_CONFIG_FILE", path)
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("INSYNC_API_BASE_URL", "https://env.example/restapi")
	t.Setenv("REDIS_DB", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.TelegramToken)
	assert.Equal(t, "https://env.example/restapi", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, StoreRedis, cfg.IdentityStore)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("INSYNC_CONFIG_FILE", "")
	t.Setenv("INSYNC_REQUEST_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults with token", mutate: func(c *Config) {}},
		{name: "postgres without url", mutate: func(c *Config) { c.IdentityStore = StorePostgres }, wantErr: true},
		{name: "postgres with url", mutate: func(c *Config) {
			c.IdentityStore = "Postgres"
			c.DatabaseURL = "postgres://localhost/insync"
		}},
		{name: "unknown store", mutate: func(c *Config) { c.IdentityStore = "etcd" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.TelegramToken = "token"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
