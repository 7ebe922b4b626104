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
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Backend  BackendConfig  `toml:"backend"`
	Engine   EngineConfig   `toml:"engine"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
//
// RateLimit is the sustained number of command requests per second accepted from web clients.
type ServerConfig struct {
	Host      string  `toml:"host"`
	Port      int     `toml:"port"`
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BackendConfig selects and configures the media backend.
type BackendConfig struct {
	Kind           string `toml:"kind"`
	Network        string `toml:"network"`
	Address        string `toml:"address"`
	Password       string `toml:"password"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
}

// PollInterval returns the position sampling interval.
func (b BackendConfig) PollInterval() time.Duration {
	if b.PollIntervalMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(b.PollIntervalMS) * time.Millisecond
}

// EngineConfig contains playback engine tuning.
type EngineConfig struct {
	AutosaveSeconds  int `toml:"autosave_seconds"`
	QueryTimeoutMS   int `toml:"query_timeout_ms"`
	AckTimeoutMS     int `toml:"ack_timeout_ms"`
	SubscriberBuffer int `toml:"subscriber_buffer"`
	PersistWorkers   int `toml:"persist_workers"`
}

// AutosaveInterval returns the autosave period, defaulting to 30 seconds.
func (e EngineConfig) AutosaveInterval() time.Duration {
	if e.AutosaveSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(e.AutosaveSeconds) * time.Second
}

// QueryTimeout returns the bounded wait for backend state queries, defaulting to 10ms.
func (e EngineConfig) QueryTimeout() time.Duration {
	if e.QueryTimeoutMS <= 0 {
		return 10 * time.Millisecond
	}
	return time.Duration(e.QueryTimeoutMS) * time.Millisecond
}

// AckTimeout returns how long a transport command may wait for backend acknowledgement.
func (e EngineConfig) AckTimeout() time.Duration {
	if e.AckTimeoutMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(e.AckTimeoutMS) * time.Millisecond
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// LoadOrDefault loads the config at path when it exists and falls back to [DefaultConfig].
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
