package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/exe-builder/internal/logger"
)

// Config holds the server settings shared by the HTTP and gRPC listeners.
type Config struct {
	// HTTPAddress is the listen address of the browser form.
	HTTPAddress string `yaml:"http_addr"`
	// GRPCAddress is the listen address of the render API.
	GRPCAddress string `yaml:"grpc_addr"`
	// LogLevel is applied to the shared logger on start and on every reload.
	LogLevel string `yaml:"log_level"`
	// SessionTTL is how long an idle browser session is kept in memory.
	SessionTTL time.Duration `yaml:"session_ttl"`
	// MaxUploadBytes caps the size of a single captured file.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// EmitSpacing is the pause between setup.py and build.bat emissions.
	EmitSpacing time.Duration `yaml:"emit_spacing"`
	// Timeout bounds network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for server settings.
	DefaultConfigFilename = "exe-builder-settings.yaml"

	// DefaultHTTPAddress is used when http_addr is empty.
	DefaultHTTPAddress = ":8080"

	// DefaultGRPCAddress is used when grpc_addr is empty.
	DefaultGRPCAddress = ":50051"

	// DefaultSessionTTL is used when session_ttl is not positive.
	DefaultSessionTTL = 30 * time.Minute

	// DefaultMaxUploadBytes is used when max_upload_bytes is not positive.
	DefaultMaxUploadBytes int64 = 32 << 20

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for settings files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeSpacing is returned for a negative emit_spacing.
	errNegativeSpacing = errors.New("emit spacing must not be negative")
	// errUnknownLogLevel is returned for a log_level zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns settings with every field at its default value.
func Default() *Config {
	return &Config{
		HTTPAddress:    DefaultHTTPAddress,
		GRPCAddress:    DefaultGRPCAddress,
		LogLevel:       "info",
		SessionTTL:     DefaultSessionTTL,
		MaxUploadBytes: DefaultMaxUploadBytes,
		Timeout:        DefaultTimeout,
	}
}

// Load reads settings from the provided path and validates them.
// A missing file at the default path yields Default settings.
func Load(path string) (*Config, error) {
	usingDefaultPath := path == ""
	if usingDefaultPath {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if usingDefaultPath && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks listen addresses and the log level, filling defaults for empty fields.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.HTTPAddress == "" {
		settings.HTTPAddress = DefaultHTTPAddress
	}

	if settings.GRPCAddress == "" {
		settings.GRPCAddress = DefaultGRPCAddress
	}

	if _, _, err := net.SplitHostPort(settings.HTTPAddress); err != nil {
		return fmt.Errorf("invalid http address: %w", err)
	}

	if _, _, err := net.SplitHostPort(settings.GRPCAddress); err != nil {
		return fmt.Errorf("invalid grpc address: %w", err)
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	if settings.SessionTTL <= 0 {
		settings.SessionTTL = DefaultSessionTTL
	}

	if settings.MaxUploadBytes <= 0 {
		settings.MaxUploadBytes = DefaultMaxUploadBytes
	}

	if settings.EmitSpacing < 0 {
		return errNegativeSpacing
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	return nil
}
