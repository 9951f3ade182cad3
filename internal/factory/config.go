package factory

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/friendapi/internal/resolver"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeFile   = "file"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// Config holds configuration for the application factory.
// The tagged fields are read from the environment by LoadConfig; a zero
// Config gives an in-memory registry suitable for tests.
type Config struct {
	// StorageType selects the storage backend. LoadConfig defaults it to
	// "file"; an empty value in a hand-built Config means "memory".
	StorageType string `env:"STORAGE_TYPE" envDefault:"file"`
	// FriendsFile is the JSON file used by the file backend
	FriendsFile string `env:"FRIENDS_FILE" envDefault:"friend_api.json"`
	// WatchFile reloads the registry when the friends file is edited
	WatchFile bool `env:"FRIENDS_WATCH" envDefault:"false"`
	// RedisURL is required if StorageType is "redis"
	RedisURL string `env:"REDIS_URL"`
	// SQLitePath is the database file used by the sqlite backend
	SQLitePath string `env:"SQLITE_PATH" envDefault:"friend_api.db"`

	ProfilesURL     string        `env:"PROFILES_URL"`
	SessionURL      string        `env:"SESSION_URL"`
	ResolverTimeout time.Duration `env:"RESOLVER_TIMEOUT" envDefault:"10s"`
	// ResolverCacheTTL of zero disables the lookup cache
	ResolverCacheTTL time.Duration `env:"RESOLVER_CACHE_TTL" envDefault:"1m"`

	ReconcileOnStart     bool `env:"RECONCILE_ON_START" envDefault:"true"`
	ReconcileParallelism int  `env:"RECONCILE_PARALLELISM" envDefault:"4"`

	HTTPHost string `env:"HTTP_HOST"`
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Logger is the application logger (optional).
	// If nil, a no-op logger is used.
	Logger *slog.Logger
	// Resolver replaces the Mojang client (optional)
	Resolver resolver.ProfileResolver
}

// LoadConfig reads Config from the environment
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
