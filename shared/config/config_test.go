package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLeagueServiceConfig_Defaults(t *testing.T) {
	for _, k := range []string{
		"LEAGUE_SERVICE_LISTEN_ADDR", "STORE_BACKEND", "STORE_TX_MAX_ATTEMPTS",
		"MATCH_REQUIRE_SAME_GROUP", "REDIS_ADDRS", "LEADERBOARD_CACHE_TTL",
	} {
		t.Setenv(k, "")
	}

	cfg, err := LoadLeagueServiceConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8083", cfg.ListenAddr)
	assert.Equal(t, 8083, cfg.ServicePort)
	assert.Equal(t, BackendMongo, cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Store.TxMaxAttempts)
	assert.True(t, cfg.RequireSameGroup)
	assert.Empty(t, cfg.RedisAddrs)
	assert.Equal(t, time.Minute, cfg.LeaderboardCacheTTL)
}

func TestLoadLeagueServiceConfig_Overrides(t *testing.T) {
	t.Setenv("LEAGUE_SERVICE_LISTEN_ADDR", "127.0.0.1:9090")
	t.Setenv("STORE_BACKEND", "SQLite")
	t.Setenv("STORE_TX_MAX_ATTEMPTS", "5")
	t.Setenv("MATCH_REQUIRE_SAME_GROUP", "false")
	t.Setenv("REDIS_ADDRS", "redis-a:6379, redis-b:6379,")

	cfg, err := LoadLeagueServiceConfig()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServicePort)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, 5, cfg.Store.TxMaxAttempts)
	assert.False(t, cfg.RequireSameGroup)
	assert.Equal(t, []string{"redis-a:6379", "redis-b:6379"}, cfg.RedisAddrs)
}

func TestLoadLeagueServiceConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown backend", "STORE_BACKEND", "postgres"},
		{"zero attempts", "STORE_TX_MAX_ATTEMPTS", "0"},
		{"bad attempts", "STORE_TX_MAX_ATTEMPTS", "three"},
		{"bad bool", "MATCH_REQUIRE_SAME_GROUP", "maybe"},
		{"bad duration", "LEADERBOARD_CACHE_TTL", "soon"},
		{"bad listen addr", "LEAGUE_SERVICE_LISTEN_ADDR", "localhost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := LoadLeagueServiceConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LEAGUE_DOTENV_SAMPLE=from-file\n"), 0o600))
	t.Setenv("LEAGUE_DOTENV_SAMPLE", "")
	require.NoError(t, os.Unsetenv("LEAGUE_DOTENV_SAMPLE"))

	LoadDotEnv(path)
	assert.Equal(t, "from-file", os.Getenv("LEAGUE_DOTENV_SAMPLE"))

	// missing files are ignored
	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}

func TestExtractPort(t *testing.T) {
	port, err := extractPort(":8082")
	require.NoError(t, err)
	assert.Equal(t, 8082, port)

	port, err = extractPort("0.0.0.0:8083")
	require.NoError(t, err)
	assert.Equal(t, 8083, port)

	_, err = extractPort("nope")
	assert.Error(t, err)
}
