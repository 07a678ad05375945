// Package config provides configuration management for the schema editor.
//
// This package handles loading configuration from multiple sources:
//   - YAML configuration files
//   - Environment variables (with SE_ prefix)
//   - .env files
//   - Default values
//
// # Configuration Sources Priority
//
// Configuration is loaded in the following order (later sources override earlier ones):
//  1. Default values (hardcoded)
//  2. Configuration files (./configs/config.yaml, ~/.schemaeditor/config.yaml, /etc/schemaeditor/config.yaml)
//  3. .env files
//  4. Environment variables (SE_ prefix)
//
// # Usage Example
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Backend: %s\n", cfg.Backend.URL)
//
// # Environment Variables
//
// Environment variables override all other configuration sources.
// Use SE_ prefix and underscores for nested keys:
//   - SE_BACKEND_URL=http://localhost:8081
//   - SE_EDITOR_MAX_DEPTH=3
//   - SE_SERVER_PORT=8095
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure for the schema editor.
type Config struct {
	// Backend is the schema backend the editor talks to
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`

	// Editor contains schema store behaviour
	Editor EditorConfig `mapstructure:"editor" yaml:"editor"`

	// Server contains the UI bridge HTTP server configuration
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// DevBackend contains the in-memory development backend configuration
	DevBackend DevBackendConfig `mapstructure:"dev_backend" yaml:"dev_backend"`

	// Logging contains logging settings
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Security contains security and rate limiting settings
	Security SecurityConfig `mapstructure:"security" yaml:"security"`
}

// BackendConfig describes how to reach the schema backend.
type BackendConfig struct {
	// URL is the backend base URL (e.g., http://localhost:8081)
	URL string `mapstructure:"url" yaml:"url"`

	// Token is sent as a bearer token when set
	Token string `mapstructure:"token" yaml:"token"`

	// Timeout bounds every HTTP request
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// ReconnectMin is the first delay before re-opening the push channel
	ReconnectMin time.Duration `mapstructure:"reconnect_min" yaml:"reconnect_min"`

	// ReconnectMax caps the reconnect delay
	ReconnectMax time.Duration `mapstructure:"reconnect_max" yaml:"reconnect_max"`
}

// EditorConfig contains schema store behaviour.
type EditorConfig struct {
	// MaxDepth is the number of box levels resolved around the selection
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth"`

	// HistoryLimit caps the undo history (0 = unbounded)
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`

	// Debounce is the search debounce window
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`

	// LiveUpdates subscribes to the backend push channel
	LiveUpdates bool `mapstructure:"live_updates" yaml:"live_updates"`

	// DefaultSchema is selected on startup when set
	DefaultSchema string `mapstructure:"default_schema" yaml:"default_schema"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the server bind address (default: 0.0.0.0)
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the server listen port (default: 8080)
	Port int `mapstructure:"port" yaml:"port"`

	// ReadTimeout is the maximum duration for reading requests
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing responses
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// ShutdownTimeout is the maximum duration for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Debug enables debug logging
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// DevBackendConfig configures the in-memory development backend.
type DevBackendConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`

	// SeedSchema is created with sample content on startup (empty = none)
	SeedSchema string `mapstructure:"seed_schema" yaml:"seed_schema"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `mapstructure:"level" yaml:"level"`

	// Format is the log format (json, text)
	Format string `mapstructure:"format" yaml:"format"`

	// Output is the log output destination (stdout, stderr)
	Output string `mapstructure:"output" yaml:"output"`
}

// SecurityConfig contains security and rate limiting settings.
type SecurityConfig struct {
	// RateLimit is the maximum requests per second per client
	RateLimit int `mapstructure:"rate_limit" yaml:"rate_limit"`

	// AllowedOrigins are the CORS allowed origins
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// AuthEnabled enables JWT authentication on both servers
	AuthEnabled bool `mapstructure:"auth_enabled" yaml:"auth_enabled"`

	// JWTSecret is the secret key for signing JWT tokens
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`

	// JWTExpiration is the JWT token expiration duration (default: 24h)
	JWTExpiration time.Duration `mapstructure:"jwt_expiration" yaml:"jwt_expiration"`
}

var cfg *Config

// Load reads configuration from a file and environment variables.
// If cfgFile is empty, it searches for config.yaml in standard locations.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SE_ prefix)
//  2. .env file
//  3. Configuration file
//  4. Default values
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.schemaeditor")
		v.AddConfigPath("/etc/schemaeditor")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			// a missing explicit file falls back to defaults
			if !isFileNotFoundError(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.MergeInConfig() // Ignore error if .env file doesn't exist

	v.SetEnvPrefix("SE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", "http://localhost:8081")
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.reconnect_min", "1s")
	v.SetDefault("backend.reconnect_max", "30s")

	v.SetDefault("editor.max_depth", 2)
	v.SetDefault("editor.history_limit", 100)
	v.SetDefault("editor.debounce", "600ms")
	v.SetDefault("editor.live_updates", true)
	v.SetDefault("editor.default_schema", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.debug", false)

	v.SetDefault("dev_backend.host", "0.0.0.0")
	v.SetDefault("dev_backend.port", 8081)
	v.SetDefault("dev_backend.seed_schema", "demo")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("security.rate_limit", 100)
	v.SetDefault("security.allowed_origins", []string{"*"})
	v.SetDefault("security.auth_enabled", false)
	v.SetDefault("security.jwt_secret", "change-me-in-production")
	v.SetDefault("security.jwt_expiration", "24h")
}

// Default returns the built-in configuration without reading any file or
// the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	c := &Config{}
	_ = v.Unmarshal(c)
	return c
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.DevBackend.Port < 1 || cfg.DevBackend.Port > 65535 {
		return fmt.Errorf("invalid dev backend port: %d", cfg.DevBackend.Port)
	}

	if cfg.Backend.URL == "" {
		return fmt.Errorf("backend url is required")
	}
	u, err := url.Parse(cfg.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("backend url must be http or https: %q", cfg.Backend.URL)
	}

	if cfg.Backend.ReconnectMin > cfg.Backend.ReconnectMax {
		return fmt.Errorf("backend reconnect_min %v exceeds reconnect_max %v", cfg.Backend.ReconnectMin, cfg.Backend.ReconnectMax)
	}

	if cfg.Editor.MaxDepth < 1 {
		return fmt.Errorf("editor max_depth must be at least 1, got %d", cfg.Editor.MaxDepth)
	}

	if cfg.Editor.HistoryLimit < 0 {
		return fmt.Errorf("editor history_limit must not be negative, got %d", cfg.Editor.HistoryLimit)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", cfg.Logging.Level)
	}

	if cfg.Security.AuthEnabled && cfg.Security.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required when auth is enabled")
	}

	return nil
}

// Get returns the configuration from the last successful Load.
func Get() *Config {
	return cfg
}

// Address returns host:port of the UI bridge.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Address returns host:port of the development backend.
func (d DevBackendConfig) Address() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// isFileNotFoundError checks if an error is a file not found error.
func isFileNotFoundError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr, os.ErrNotExist)
	}
	return false
}
