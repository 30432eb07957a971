// Package config manages ctapd daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete ctapd configuration.
type Config struct {
	Transport     TransportConfig     `koanf:"transport"`
	Capabilities  CapabilitiesConfig  `koanf:"capabilities"`
	Authenticator AuthenticatorConfig `koanf:"authenticator"`
	Debug         DebugConfig         `koanf:"debug"`
	Metrics       MetricsConfig       `koanf:"metrics"`
	Log           LogConfig           `koanf:"log"`
}

// TransportConfig selects and sizes the frame transport.
type TransportConfig struct {
	// Device is a hidraw device node path (e.g. "/dev/hidraw0"), or
	// empty to run the socket-backed transport against SocketPath
	// instead of real hardware.
	Device string `koanf:"device"`

	// SocketPath is the Unix domain socket path used when Device is
	// empty.
	SocketPath string `koanf:"socket_path"`

	// FrameSize is the transport frame size in bytes. Drives
	// FrameIterator fragmentation.
	FrameSize int `koanf:"frame_size"`
}

// CapabilitiesConfig mirrors ctaphid.Capabilities; it exists here so the
// flags byte advertised in InitResponse is configuration, not a
// compile-time constant (spec.md §9, "capability flags belong to
// configuration").
type CapabilitiesConfig struct {
	Wink bool `koanf:"wink"`
	CBOR bool `koanf:"cbor"`
	NMsg bool `koanf:"nmsg"`
}

// AuthenticatorConfig configures the demo CTAP2 authenticator core.
type AuthenticatorConfig struct {
	// RPID is the relying party identifier bound into generated
	// credentials' authenticator data (rpIdHash).
	RPID string `koanf:"rp_id"`
}

// DebugConfig holds the introspection HTTP server configuration.
type DebugConfig struct {
	// Addr is the HTTP listen address for /v1/channels and /v1/state
	// (e.g., ":8080"). Empty disables the debug server.
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// defaultFrameSize is the frame size used when no device descriptor
// states otherwise (spec.md §3.1, "frame_size default 64").
const defaultFrameSize = 64

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			SocketPath: "/run/ctapd/ctapd.sock",
			FrameSize:  defaultFrameSize,
		},
		Capabilities: CapabilitiesConfig{
			CBOR: true,
		},
		Authenticator: AuthenticatorConfig{
			RPID: "ctapd.local",
		},
		Debug: DebugConfig{
			Addr: ":8080",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for ctapd configuration.
// Variables are named CTAPD_<section>_<key>, e.g., CTAPD_DEBUG_ADDR.
const envPrefix = "CTAPD_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (CTAPD_ prefix), and merges on top of DefaultConfig().
// Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	CTAPD_TRANSPORT_DEVICE      -> transport.device
//	CTAPD_TRANSPORT_FRAME_SIZE  -> transport.frame_size
//	CTAPD_DEBUG_ADDR            -> debug.addr
//	CTAPD_METRICS_ADDR          -> metrics.addr
//	CTAPD_LOG_LEVEL             -> log.level
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms CTAPD_DEBUG_ADDR -> debug.addr.
// Strips the CTAPD_ prefix, lowercases, and replaces the first _ (the
// section separator) with ., so CTAPD_TRANSPORT_FRAME_SIZE ->
// transport.frame_size.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"transport.device":      defaults.Transport.Device,
		"transport.socket_path": defaults.Transport.SocketPath,
		"transport.frame_size":  defaults.Transport.FrameSize,
		"capabilities.wink":     defaults.Capabilities.Wink,
		"capabilities.cbor":     defaults.Capabilities.CBOR,
		"capabilities.nmsg":     defaults.Capabilities.NMsg,
		"authenticator.rp_id":   defaults.Authenticator.RPID,
		"debug.addr":            defaults.Debug.Addr,
		"metrics.addr":          defaults.Metrics.Addr,
		"metrics.path":          defaults.Metrics.Path,
		"log.level":             defaults.Log.Level,
		"log.format":            defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrInvalidFrameSize indicates transport.frame_size is too small to
	// hold even an empty init frame header (spec.md §4.2,
	// MinInitFrameLen).
	ErrInvalidFrameSize = errors.New("transport.frame_size must be >= 7")

	// ErrNoTransportConfigured indicates neither a hidraw device nor a
	// socket path was configured.
	ErrNoTransportConfigured = errors.New("transport.device or transport.socket_path must be set")

	// ErrEmptyMetricsAddr indicates the metrics listen address is empty.
	ErrEmptyMetricsAddr = errors.New("metrics.addr must not be empty")

	// ErrEmptyRPID indicates no relying party identifier was configured.
	ErrEmptyRPID = errors.New("authenticator.rp_id must not be empty")
)

const minFrameSize = 7

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Transport.FrameSize < minFrameSize {
		return ErrInvalidFrameSize
	}

	if cfg.Transport.Device == "" && cfg.Transport.SocketPath == "" {
		return ErrNoTransportConfigured
	}

	if cfg.Metrics.Addr == "" {
		return ErrEmptyMetricsAddr
	}

	if cfg.Authenticator.RPID == "" {
		return ErrEmptyRPID
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
