package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Arrange - Clear all environment variables
	clearEnvVars(t)

	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.ServerPort != DefaultServerPort {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, DefaultServerPort)
	}
	if cfg.ProbePort != DefaultProbePort {
		t.Errorf("ProbePort = %d, want %d", cfg.ProbePort, DefaultProbePort)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %s, want %s", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if cfg.MetricsEnabled != DefaultMetricsEnabled {
		t.Errorf("MetricsEnabled = %v, want %v", cfg.MetricsEnabled, DefaultMetricsEnabled)
	}
	if cfg.EventsEnabled != DefaultEventsEnabled {
		t.Errorf("EventsEnabled = %v, want %v", cfg.EventsEnabled, DefaultEventsEnabled)
	}
	if cfg.StrictValidation != DefaultStrictValidation {
		t.Errorf("StrictValidation = %v, want %v", cfg.StrictValidation, DefaultStrictValidation)
	}
	if cfg.SeedSampleData != DefaultSeedSampleData {
		t.Errorf("SeedSampleData = %v, want %v", cfg.SeedSampleData, DefaultSeedSampleData)
	}
	if !slices.Equal(cfg.CORSAllowedOrigins, DefaultCORSAllowedOrigins) {
		t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, DefaultCORSAllowedOrigins)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(*testing.T, *Config)
	}{
		{
			name:    "custom server port",
			envVars: map[string]string{EnvServerPort: "9091"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ServerPort != 9091 {
					t.Errorf("ServerPort = %d, want 9091", cfg.ServerPort)
				}
			},
		},
		{
			name:    "custom log level",
			envVars: map[string]string{EnvLogLevel: "debug"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != "debug" {
					t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name:    "custom shutdown timeout",
			envVars: map[string]string{EnvShutdownTimeout: "60s"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ShutdownTimeout != 60*time.Second {
					t.Errorf("ShutdownTimeout = %v, want 60s", cfg.ShutdownTimeout)
				}
			},
		},
		{
			name:    "probe server disabled",
			envVars: map[string]string{EnvProbePort: "0"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.ProbePort != 0 {
					t.Errorf("ProbePort = %d, want 0", cfg.ProbePort)
				}
			},
		},
		{
			name: "feature flags",
			envVars: map[string]string{
				EnvMetricsEnabled:   "false",
				EnvEventsEnabled:    "false",
				EnvStrictValidation: "true",
				EnvSeedSampleData:   "false",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.MetricsEnabled {
					t.Error("MetricsEnabled = true, want false")
				}
				if cfg.EventsEnabled {
					t.Error("EventsEnabled = true, want false")
				}
				if !cfg.StrictValidation {
					t.Error("StrictValidation = false, want true")
				}
				if cfg.SeedSampleData {
					t.Error("SeedSampleData = true, want false")
				}
			},
		},
		{
			name: "cors origins are split and trimmed",
			envVars: map[string]string{
				EnvCORSAllowedOrigins: "https://shop.example.com, http://localhost:5173",
			},
			validate: func(t *testing.T, cfg *Config) {
				want := []string{"https://shop.example.com", "http://localhost:5173"}
				if !slices.Equal(cfg.CORSAllowedOrigins, want) {
					t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr error
	}{
		{
			name:    "invalid server port - zero",
			envVars: map[string]string{EnvServerPort: "0"},
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "invalid server port - too high",
			envVars: map[string]string{EnvServerPort: "65536"},
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "invalid probe port",
			envVars: map[string]string{EnvProbePort: "70000"},
			wantErr: ErrInvalidProbePort,
		},
		{
			name:    "probe port conflicts with server port",
			envVars: map[string]string{EnvServerPort: "9000", EnvProbePort: "9000"},
			wantErr: ErrProbePortConflict,
		},
		{
			name:    "invalid log level",
			envVars: map[string]string{EnvLogLevel: "verbose"},
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "invalid shutdown timeout - zero",
			envVars: map[string]string{EnvShutdownTimeout: "0s"},
			wantErr: ErrInvalidShutdownTimeout,
		},
		{
			name:    "empty cors origin",
			envVars: map[string]string{EnvCORSAllowedOrigins: "http://localhost:3000,,"},
			wantErr: ErrEmptyCORSOrigin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			cfg, err := Load()

			// Assert
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if cfg != nil {
				t.Errorf("Load() returned config %+v alongside error", cfg)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{"non-numeric server port", map[string]string{EnvServerPort: "abc"}},
		{"bad shutdown timeout", map[string]string{EnvShutdownTimeout: "soon"}},
		{"bad boolean", map[string]string{EnvMetricsEnabled: "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			clearEnvVars(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			// Act
			_, err := Load()

			// Assert
			if err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	// Arrange
	clearEnvVars(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := "server_port: 8100\nlog_level: warn\nstrict_validation: true\n" +
		"cors_allowed_origins:\n  - https://admin.example.com\n"
	writeFile(t, path, content)
	t.Setenv(EnvConfigFile, path)

	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.ServerPort != 8100 {
		t.Errorf("ServerPort = %d, want 8100", cfg.ServerPort)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %s, want warn", cfg.LogLevel)
	}
	if !cfg.StrictValidation {
		t.Error("StrictValidation = false, want true")
	}
	if want := []string{"https://admin.example.com"}; !slices.Equal(cfg.CORSAllowedOrigins, want) {
		t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
	}
}

func TestLoad_EnvironmentOverridesConfigFile(t *testing.T) {
	// Arrange
	clearEnvVars(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	writeFile(t, path, "server_port: 8100\n")
	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvServerPort, "8200")

	// Act
	cfg, err := Load()

	// Assert
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.ServerPort != 8200 {
		t.Errorf("ServerPort = %d, want 8200", cfg.ServerPort)
	}
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	// Arrange
	clearEnvVars(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	writeFile(t, path, "server_port: [unterminated\n")
	t.Setenv(EnvConfigFile, path)

	// Act
	_, err := Load()

	// Assert
	if err == nil {
		t.Error("Load() expected error for malformed file, got nil")
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		k := newTestKoanf(t)

		err := loadDotEnv(k, filepath.Join(t.TempDir(), ".env"))

		if err != nil {
			t.Fatalf("loadDotEnv() returned unexpected error: %v", err)
		}
		if got := k.Int("server_port"); got != DefaultServerPort {
			t.Errorf("server_port = %d, want %d", got, DefaultServerPort)
		}
	})

	t.Run("app entries are merged", func(t *testing.T) {
		k := newTestKoanf(t)
		path := filepath.Join(t.TempDir(), ".env")
		writeFile(t, path, "APP_SERVER_PORT=8300\nOTHER=value\n")

		err := loadDotEnv(k, path)

		if err != nil {
			t.Fatalf("loadDotEnv() returned unexpected error: %v", err)
		}
		if got := k.Int("server_port"); got != 8300 {
			t.Errorf("server_port = %d, want 8300", got)
		}
		if k.Exists("other") {
			t.Error("unprefixed key was merged into the config")
		}
	})
}

func TestEnvKeyValue(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		wantKey   string
		wantValue any
	}{
		{"prefixed key", "APP_LOG_LEVEL", "debug", "log_level", "debug"},
		{"foreign key", "HOME", "/root", "", nil},
		{"empty value", "APP_SERVER_PORT", "", "", nil},
		{"config file key", EnvConfigFile, "x.yaml", "", nil},
		{"origins list", EnvCORSAllowedOrigins, "a,b", "cors_allowed_origins", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotKey, gotValue := envKeyValue(tt.key, tt.value)

			if gotKey != tt.wantKey {
				t.Errorf("key = %q, want %q", gotKey, tt.wantKey)
			}
			if !reflect.DeepEqual(gotValue, tt.wantValue) {
				t.Errorf("value = %#v, want %#v", gotValue, tt.wantValue)
			}
		})
	}
}

func TestConfig_Address(t *testing.T) {
	cfg := &Config{ServerPort: 8000, ProbePort: 9090}

	if got := cfg.Address(); got != ":8000" {
		t.Errorf("Address() = %s, want :8000", got)
	}
	if got := cfg.ProbeAddress(); got != ":9090" {
		t.Errorf("ProbeAddress() = %s, want :9090", got)
	}
}

// newTestKoanf returns a koanf instance holding only the defaults.
func newTestKoanf(t *testing.T) *koanf.Koanf {
	t.Helper()
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	return k
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// clearEnvVars unsets all configuration environment variables for the
// duration of the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		EnvConfigFile,
		EnvServerPort,
		EnvProbePort,
		EnvLogLevel,
		EnvShutdownTimeout,
		EnvMetricsEnabled,
		EnvEventsEnabled,
		EnvStrictValidation,
		EnvSeedSampleData,
		EnvCORSAllowedOrigins,
	}
	for _, env := range envVars {
		// Setenv registers the restore hook; Unsetenv then removes the variable.
		t.Setenv(env, "")
		if err := os.Unsetenv(env); err != nil {
			t.Fatalf("failed to unset env var %s: %v", env, err)
		}
	}
}
