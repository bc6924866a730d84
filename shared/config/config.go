// shared/config/config.go
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// CommonConfig holds configuration fields that are shared across binaries.
type CommonConfig struct {
	RedisAddrs              []string // empty disables the cache and the registry
	RedisPassword           string
	HeartbeatInterval       time.Duration // How often to send a heartbeat to registry (e.g., 5s)
	HeartbeatTTL            time.Duration // How long an instance is considered alive without a heartbeat (e.g., 15s)
	RegistryCleanupInterval time.Duration // How often the registry actively cleans stale entries (e.g., 30s)
	ServiceIP               string        // The IP address this service advertises for registration (Kubernetes Pod IP)
	ServicePort             int           // The port this service listens on, used for registration
	LogLevel                string
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend                  string
	MongoDBConnStr           string
	MongoDBDatabase          string
	MongoDBTeamsCollection   string
	MongoDBGroupsCollection  string
	MongoDBMatchesCollection string
	SQLitePath               string
	LibSQLURL                string
	LibSQLAuthToken          string
	TxMaxAttempts            int
}

// LeagueServiceConfig holds configuration specific to the league-service.
type LeagueServiceConfig struct {
	CommonConfig
	Store                   StoreConfig
	ListenAddr              string
	RequireSameGroup        bool
	LeaderboardCacheTTL     time.Duration
	LeaderboardWarmInterval time.Duration // zero disables the warmer
	ShutdownTimeout         time.Duration
}

// LoadDotEnv loads the given .env files (".env" when none are named) into the
// environment. Missing files are not an error.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Debug("No .env file loaded, reading from environment variables", "err", err)
	}
}

// LoadCommonConfig loads common configuration from environment variables.
func LoadCommonConfig() (CommonConfig, error) {
	cfg := CommonConfig{
		RedisAddrs:    getList("REDIS_ADDRS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LogLevel:      getString("LOG_LEVEL", "info"),
	}
	var err error

	cfg.HeartbeatInterval, err = getDuration("SERVICE_HEARTBEAT_INTERVAL", 5*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.HeartbeatTTL, err = getDuration("SERVICE_HEARTBEAT_TTL", 15*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.RegistryCleanupInterval, err = getDuration("SERVICE_REGISTRY_CLEANUP_INTERVAL", 30*time.Second)
	if err != nil {
		return cfg, err
	}

	// Injected by Kubernetes; local runs fall back to all interfaces.
	cfg.ServiceIP = getString("POD_IP", "0.0.0.0")
	return cfg, nil
}

// LoadStoreConfig loads the document store selection.
func LoadStoreConfig() (StoreConfig, error) {
	cfg := StoreConfig{
		Backend:                  strings.ToLower(getString("STORE_BACKEND", BackendMongo)),
		MongoDBConnStr:           getString("MONGODB_CONN_STR", "mongodb://mongodb-service:27017/?replicaSet=rs0"),
		MongoDBDatabase:          getString("MONGODB_DATABASE", "league"),
		MongoDBTeamsCollection:   getString("MONGODB_TEAMS_COLLECTION", "teams"),
		MongoDBGroupsCollection:  getString("MONGODB_GROUPS_COLLECTION", "groups"),
		MongoDBMatchesCollection: getString("MONGODB_MATCHES_COLLECTION", "matches"),
		SQLitePath:               getString("SQLITE_PATH", "league.db"),
		LibSQLURL:                os.Getenv("LIBSQL_URL"),
		LibSQLAuthToken:          os.Getenv("LIBSQL_AUTH_TOKEN"),
	}
	var err error
	cfg.TxMaxAttempts, err = getInt("STORE_TX_MAX_ATTEMPTS", 3)
	if err != nil {
		return cfg, err
	}
	if cfg.TxMaxAttempts <= 0 {
		return cfg, fmt.Errorf("STORE_TX_MAX_ATTEMPTS must be a positive integer (got %d)", cfg.TxMaxAttempts)
	}
	switch cfg.Backend {
	case BackendMongo, BackendSQLite, BackendMemory:
	default:
		return cfg, fmt.Errorf("unknown STORE_BACKEND %q (want %s, %s or %s)", cfg.Backend, BackendMongo, BackendSQLite, BackendMemory)
	}
	return cfg, nil
}

// LoadLeagueServiceConfig loads configuration for the league-service.
func LoadLeagueServiceConfig() (*LeagueServiceConfig, error) {
	common, err := LoadCommonConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load common config for league-service: %w", err)
	}
	store, err := LoadStoreConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load store config for league-service: %w", err)
	}

	cfg := &LeagueServiceConfig{
		CommonConfig: common,
		Store:        store,
		ListenAddr:   getString("LEAGUE_SERVICE_LISTEN_ADDR", ":8083"),
	}

	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from LEAGUE_SERVICE_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}
	cfg.RequireSameGroup, err = getBool("MATCH_REQUIRE_SAME_GROUP", true)
	if err != nil {
		return nil, err
	}
	cfg.LeaderboardCacheTTL, err = getDuration("LEADERBOARD_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.LeaderboardWarmInterval, err = getDuration("LEADERBOARD_WARM_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func getString(envKey, defaultVal string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultVal
}

// getList splits a comma-separated variable, dropping empty items.
func getList(envKey string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(envKey), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

// Helper function to parse int from environment variable
func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}

func getBool(envKey string, defaultVal bool) (bool, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("invalid boolean format for %s: %w", envKey, err)
	}
	return b, nil
}

// extractPort extracts the numeric port from a listen address (e.g., ":8082" -> 8082, "0.0.0.0:8082" -> 8082)
func extractPort(listenAddr string) (int, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		if strings.HasPrefix(listenAddr, ":") {
			portStr = strings.TrimPrefix(listenAddr, ":")
		} else {
			return 0, fmt.Errorf("invalid ListenAddr format for port extraction: %w", err)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s': %w", portStr, err)
	}
	return port, nil
}
