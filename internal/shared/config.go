package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Steam     SteamConfig     `toml:"steam"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
	Sync      SyncConfig      `toml:"sync"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
}

// SteamConfig contains Steam Web API settings.
type SteamConfig struct {
	APIKey   string `toml:"api_key"`
	APIBase  string `toml:"api_base"`  // defaults to the public Steam Web API host
	StoreURL string `toml:"store_url"` // defaults to the public storefront API host
}

// RateLimitConfig describes the shared request budget against the Steam APIs.
//
// Requests are drawn from a single token bucket regardless of which account
// a sync run belongs to.
type RateLimitConfig struct {
	Requests    int `toml:"requests"`         // tokens per window
	WindowSecs  int `toml:"window_seconds"`   // window length in seconds
	MaxWaitSecs int `toml:"max_wait_seconds"` // bounded wait before a fetch fails as rate limited
}

// SyncConfig controls the background scheduler.
type SyncConfig struct {
	TickMinutes  int `toml:"tick_minutes"`  // how often the scheduler scans for due accounts
	CadenceHours int `toml:"cadence_hours"` // minimum interval between automatic syncs per account
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Tick returns the scheduler wake interval as a [time.Duration].
func (c SyncConfig) Tick() time.Duration {
	if c.TickMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.TickMinutes) * time.Minute
}

// Cadence returns the per-account minimum sync interval as a [time.Duration].
func (c SyncConfig) Cadence() time.Duration {
	if c.CadenceHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.CadenceHours) * time.Hour
}

// Window returns the rate limit window as a [time.Duration].
func (c RateLimitConfig) Window() time.Duration {
	if c.WindowSecs <= 0 {
		return time.Second
	}
	return time.Duration(c.WindowSecs) * time.Second
}

// MaxWait returns how long a fetch may block on the budget before failing.
func (c RateLimitConfig) MaxWait() time.Duration {
	if c.MaxWaitSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.MaxWaitSecs) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
