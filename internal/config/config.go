// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Store backend names accepted in StoreBackend.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the table store: "memory" or "redis".
	StoreBackend string `koanf:"store_backend"`

	// RedisAddr, RedisPassword, and RedisDB configure the Redis client
	// when StoreBackend is "redis".
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// RedisKeyPrefix namespaces all Redis keys.
	RedisKeyPrefix string `koanf:"redis_key_prefix"`

	// HighScoreThreshold is the leaderboard size a score must crack to
	// count as a high score.
	HighScoreThreshold int `koanf:"highscore_threshold"`

	// DefaultTopCount is returned when a top-scores request does not
	// name a count.
	DefaultTopCount int `koanf:"default_top_count"`

	// MaxLeaderboardLimit caps GET /scores?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// DedupeSize bounds the session-id dedupe cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":8080",
		StoreBackend:        StoreMemory,
		RedisAddr:           "localhost:6379",
		RedisKeyPrefix:      "tapcircle",
		HighScoreThreshold:  10,
		DefaultTopCount:     10,
		MaxLeaderboardLimit: 100,
		DedupeSize:          50_000,
	}
}
