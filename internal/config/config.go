// Package config provides configuration management for the catalog API server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	DefaultServerPort       = 8000
	DefaultProbePort        = 9090
	DefaultLogLevel         = "info"
	DefaultShutdownTimeout  = 30 * time.Second
	DefaultMetricsEnabled   = true
	DefaultEventsEnabled    = true
	DefaultStrictValidation = false
	DefaultSeedSampleData   = true
	DefaultConfigFile       = "config.yaml"
	DefaultDotEnvFile       = ".env"
)

// DefaultCORSAllowedOrigins lists the frontends trusted by default.
var DefaultCORSAllowedOrigins = []string{
	"http://56.155.27.230:3000",
	"http://localhost:3000",
}

// EnvPrefix is the prefix shared by all environment variables.
const EnvPrefix = "APP_"

// Environment variable names.
const (
	EnvConfigFile         = "APP_CONFIG_FILE"
	EnvServerPort         = "APP_SERVER_PORT"
	EnvProbePort          = "APP_PROBE_PORT"
	EnvLogLevel           = "APP_LOG_LEVEL"
	EnvShutdownTimeout    = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled     = "APP_METRICS_ENABLED"
	EnvEventsEnabled      = "APP_EVENTS_ENABLED"
	EnvStrictValidation   = "APP_STRICT_VALIDATION"
	EnvSeedSampleData     = "APP_SEED_SAMPLE_DATA"
	EnvCORSAllowedOrigins = "APP_CORS_ALLOWED_ORIGINS"
)

// Config holds the application configuration.
type Config struct {
	// Server settings.
	ServerPort      int           `koanf:"server_port"`
	ProbePort       int           `koanf:"probe_port"` // Probe server port (0 = disabled).
	LogLevel        string        `koanf:"log_level"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MetricsEnabled  bool          `koanf:"metrics_enabled"`

	// EventsEnabled exposes the /ws catalog change feed.
	EventsEnabled bool `koanf:"events_enabled"`

	// StrictValidation rejects negative prices and stock counts and empty
	// names. Off by default to stay compatible with existing clients.
	StrictValidation bool `koanf:"strict_validation"`

	// SeedSampleData loads the six sample products at startup.
	SeedSampleData bool `koanf:"seed_sample_data"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidProbePort       = errors.New(
		"probe port must be between 0 and 65535",
	)
	ErrProbePortConflict = errors.New(
		"probe port must differ from server port when probe port is not 0",
	)
	ErrEmptyCORSOrigin = errors.New("CORS allowed origins must not contain empty entries")
)

// defaults returns the default values keyed the same way as the
// environment and file providers.
func defaults() map[string]any {
	origins := make([]string, len(DefaultCORSAllowedOrigins))
	copy(origins, DefaultCORSAllowedOrigins)

	return map[string]any{
		"server_port":          DefaultServerPort,
		"probe_port":           DefaultProbePort,
		"log_level":            DefaultLogLevel,
		"shutdown_timeout":     DefaultShutdownTimeout,
		"metrics_enabled":      DefaultMetricsEnabled,
		"events_enabled":       DefaultEventsEnabled,
		"strict_validation":    DefaultStrictValidation,
		"seed_sample_data":     DefaultSeedSampleData,
		"cors_allowed_origins": origins,
	}
}

// Load reads configuration from defaults, an optional YAML file, an optional
// .env file and the process environment, in increasing order of priority.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading config defaults: %w", err)
	}

	configFile := DefaultConfigFile
	if val := os.Getenv(EnvConfigFile); val != "" {
		configFile = val
	}
	if err := loadFile(k, configFile); err != nil {
		return nil, err
	}

	if err := loadDotEnv(k, DefaultDotEnvFile); err != nil {
		return nil, err
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.CORSAllowedOrigins = trimAll(cfg.CORSAllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFile merges a YAML config file. A missing file is not an error.
func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking config file %s: %w", path, err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("loading config file %s: %w", path, err)
	}

	return nil
}

// loadDotEnv merges APP_* entries of a .env file. A missing file is not an error.
func loadDotEnv(k *koanf.Koanf, path string) error {
	entries, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	values := make(map[string]any, len(entries))
	for key, value := range entries {
		if name, v := envKeyValue(key, value); name != "" {
			values[name] = v
		}
	}

	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// envKeyValue maps APP_SERVER_PORT=8080 to server_port=8080. Empty values and
// keys without the prefix are skipped so they never override defaults.
func envKeyValue(key, value string) (string, any) {
	if !strings.HasPrefix(key, EnvPrefix) || value == "" || key == EnvConfigFile {
		return "", nil
	}

	name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if name == "cors_allowed_origins" {
		return name, strings.Split(value, ",")
	}

	return name, value
}

// trimAll trims whitespace around every entry.
func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	for _, origin := range c.CORSAllowedOrigins {
		if origin == "" {
			return ErrEmptyCORSOrigin
		}
	}

	return nil
}

// validateServer validates server-related configuration.
func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	if c.ProbePort < 0 || c.ProbePort > 65535 {
		return ErrInvalidProbePort
	}

	if c.ProbePort != 0 && c.ProbePort == c.ServerPort {
		return ErrProbePortConflict
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// ProbeAddress returns the probe server address in host:port format.
func (c *Config) ProbeAddress() string {
	return fmt.Sprintf(":%d", c.ProbePort)
}
