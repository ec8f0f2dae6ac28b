// Package config loads process configuration from defaults, an optional
// YAML file and DOMON_ environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	// Embedded zone database so daily_timezone resolves on minimal images
	_ "time/tzdata"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Config contains process configuration
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Storage selects the backend: memory, redis or sqlite.
	Storage    string `koanf:"storage"`
	RedisURL   string `koanf:"redis_url"`
	SQLitePath string `koanf:"sqlite_path"`

	// BackupRedisURL mirrors every write to a second store when set.
	BackupRedisURL string `koanf:"backup_redis_url"`

	// OwnerID may run privileged commands. It requires GatewayToken, since
	// callers name their own user id.
	OwnerID      string `koanf:"owner_id"`
	GatewayToken string `koanf:"gateway_token"`

	// AllowedOrigins lists host patterns browsers may open the websocket
	// gateway from, e.g. "chat.example.com". Same-host requests always pass.
	AllowedOrigins []string `koanf:"allowed_origins"`

	SpawnInterval      time.Duration `koanf:"spawn_interval"`
	SpawnChance        float64       `koanf:"spawn_chance"`
	BoostedSpawnChance float64       `koanf:"boosted_spawn_chance"`
	BoostDuration      time.Duration `koanf:"boost_duration"`
	ScanWindow         time.Duration `koanf:"scan_window"`

	TurnTimeout  time.Duration `koanf:"turn_timeout"`
	MaxIdleTurns int           `koanf:"max_idle_turns"`

	// DailyTimezone is the IANA zone whose midnight resets the daily reward.
	DailyTimezone string `koanf:"daily_timezone"`

	CommandCooldown time.Duration `koanf:"command_cooldown"`
	CommandBurst    int           `koanf:"command_burst"`
}

// New returns the defaults
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":8080",
		Storage:            StorageMemory,
		SQLitePath:         "domon.db",
		SpawnInterval:      15 * time.Minute,
		SpawnChance:        0.6,
		BoostedSpawnChance: 1.0,
		BoostDuration:      10 * time.Minute,
		ScanWindow:         120 * time.Second,
		TurnTimeout:        60 * time.Second,
		MaxIdleTurns:       6,
		DailyTimezone:      "Europe/Paris",
		CommandCooldown:    2 * time.Second,
		CommandBurst:       3,
	}
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if _, err := c.Level(); err != nil {
		return err
	}

	switch c.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redis_url is required for redis storage", ErrInvalidConfig)
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for sqlite storage", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	}

	if c.OwnerID != "" && c.GatewayToken == "" {
		return fmt.Errorf("%w: owner_id requires gateway_token", ErrInvalidConfig)
	}

	if c.SpawnInterval <= 0 {
		return fmt.Errorf("%w: spawn_interval must be positive", ErrInvalidConfig)
	}
	if c.SpawnChance < 0 || c.SpawnChance > 1 {
		return fmt.Errorf("%w: spawn_chance must be within [0, 1]", ErrInvalidConfig)
	}
	if c.BoostedSpawnChance < 0 || c.BoostedSpawnChance > 1 {
		return fmt.Errorf("%w: boosted_spawn_chance must be within [0, 1]", ErrInvalidConfig)
	}
	if c.ScanWindow <= 0 {
		return fmt.Errorf("%w: scan_window must be positive", ErrInvalidConfig)
	}
	if c.TurnTimeout <= 0 {
		return fmt.Errorf("%w: turn_timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxIdleTurns < 1 {
		return fmt.Errorf("%w: max_idle_turns must be at least 1", ErrInvalidConfig)
	}
	if c.CommandCooldown < 0 || c.CommandBurst < 0 {
		return fmt.Errorf("%w: command cooldown and burst must not be negative", ErrInvalidConfig)
	}
	if _, err := c.DailyLocation(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

// DailyLocation resolves DailyTimezone
func (c *Config) DailyLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DailyTimezone)
	if err != nil {
		return nil, fmt.Errorf("%w: daily_timezone %q: %v", ErrInvalidConfig, c.DailyTimezone, err)
	}
	return loc, nil
}
