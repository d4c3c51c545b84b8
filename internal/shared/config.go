package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values read from the TOML file.
const (
	EnvBaseURL = "GESTAOPRO_BASE_URL"
	EnvDBPath  = "GESTAOPRO_DB_PATH"
	EnvPort    = "GESTAOPRO_PORT"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Alerts   AlertsConfig   `toml:"alerts"`
	Backup   BackupConfig   `toml:"backup"`
}

// BackendConfig locates the external management server.
type BackendConfig struct {
	BaseURL        string `toml:"base_url"`
	APIPath        string `toml:"api_path"`
	AudioPath      string `toml:"audio_path"`
	RequestTimeout int    `toml:"request_timeout"` // seconds, 0 disables the client timeout
}

// Timeout returns the configured request timeout; zero means none.
func (b BackendConfig) Timeout() time.Duration {
	if b.RequestTimeout <= 0 {
		return 0
	}
	return time.Duration(b.RequestTimeout) * time.Second
}

// DatabaseConfig contains local settings store connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings for the local dashboard gateway.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AlertsConfig tunes the sound alert watcher.
type AlertsConfig struct {
	PollSeconds int `toml:"poll_seconds"`
}

// BackupConfig contains defaults for entity backups.
type BackupConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
	Format    string  `toml:"format"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
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

// LoadEnv loads KEY=VALUE pairs from the given dotenv files into the process environment.
//
// Missing files are ignored; variables already set are not overwritten.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with any GESTAOPRO_* variables present in the environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvPort, v)
		}
		c.Server.Port = port
	}
	return nil
}
