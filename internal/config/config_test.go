package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/draft-room/internal/storage"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.SweepInterval)
	assert.Equal(t, 30*time.Minute, cfg.RoomIdleTTL)
	assert.Equal(t, 200, cfg.ChatLimit)
	assert.Zero(t, cfg.RandomSeed)
	assert.Equal(t, 10.0, cfg.ClientRateLimit)
	assert.Equal(t, 20, cfg.ClientRateBurst)
	assert.Equal(t, storage.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "data/draft.db", cfg.Storage.SQLitePath)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9000")
	t.Setenv("SWEEP_INTERVAL", "2s")
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("ROOM_IDLE_TTL", "0s")
	t.Setenv("ALLOWED_ORIGINS", "localhost:*,draft.example.com")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 2*time.Second, cfg.SweepInterval)
	assert.Equal(t, uint64(42), cfg.RandomSeed)
	assert.Zero(t, cfg.RoomIdleTTL)
	assert.Equal(t, []string{"localhost:*", "draft.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, storage.DriverMemory, cfg.Storage.Driver)
}

func TestParseRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration":      {"SWEEP_INTERVAL": "soon"},
		"zero sweep":        {"SWEEP_INTERVAL": "0s"},
		"unknown driver":    {"STORAGE_DRIVER": "redis"},
		"postgres sans dsn": {"STORAGE_DRIVER": "postgres"},
		"zero chat limit":   {"CHAT_LIMIT": "0"},
		"negative idle ttl": {"ROOM_IDLE_TTL": "-1m"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Parse()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "parse env:")
		})
	}
}

func TestLoadReadsDotenvAndToleratesMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHAT_LIMIT=50\n"), 0o600))
	// Setenv registers the restore; dotenv only fills unset variables.
	t.Setenv("CHAT_LIMIT", "")
	require.NoError(t, os.Unsetenv("CHAT_LIMIT"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.ChatLimit)
}
