// Package config loads the settings of an SHooks server.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables prefixed with SHOOKS_. An environment variable maps
// to a key by dropping the prefix, lowercasing, and turning underscores into
// dots, so SHOOKS_LOG_LEVEL sets log.level.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SHOOKS_"

const (
	// DefaultAddr is the listen address of the server.
	DefaultAddr = ":8080"

	// DefaultMaxBodySize caps request bodies at 1 MiB.
	DefaultMaxBodySize = 1 << 20

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Throttle ThrottleConfig `koanf:"throttle"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Socket   SocketConfig   `koanf:"socket"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr     string        `koanf:"addr"`
	MaxBody  int64         `koanf:"maxbody"`  // Request body limit in bytes; 0 disables it
	Shutdown time.Duration `koanf:"shutdown"` // Graceful shutdown timeout
	IDParam  string        `koanf:"idparam"`  // Route parameter naming the record id
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn or error
	Format string `koanf:"format"` // json or console
}

// ThrottleConfig configures per-client request pacing.
type ThrottleConfig struct {
	RPS        int           `koanf:"rps"`        // 0 disables throttling
	Slack      int           `koanf:"slack"`
	MaxWait    time.Duration `koanf:"maxwait"`    // Longest wait for a slot before a 429
	TrustProxy bool          `koanf:"trustproxy"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
	Path      string `koanf:"path"`
}

// SocketConfig configures the websocket transport.
type SocketConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.addr":     DefaultAddr,
		"server.maxbody":  DefaultMaxBodySize,
		"server.shutdown": DefaultShutdownTimeout.String(),
		"server.idparam":  "id",

		"log.level":  "info",
		"log.format": "json",

		"throttle.rps":        0,
		"throttle.slack":      0,
		"throttle.maxwait":    "1s",
		"throttle.trustproxy": false,

		"metrics.enabled":   true,
		"metrics.namespace": "shooks",
		"metrics.path":      "/metrics",

		"socket.enabled": true,
		"socket.path":    "/socket",
	}
}

// Load reads the configuration. A path of "" or naming a missing file loads
// defaults and environment variables only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := loadFileIfExists(k, path); err != nil {
			return nil, fmt.Errorf("loading config file %q: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, EnvPrefix)),
			"_",
			".",
		)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	if c.Server.MaxBody < 0 {
		return errors.New("server.maxbody must not be negative")
	}
	if c.Throttle.RPS < 0 || c.Throttle.Slack < 0 || c.Throttle.MaxWait < 0 {
		return errors.New("throttle settings must not be negative")
	}
	if c.Server.Shutdown <= 0 {
		return errors.New("server.shutdown must be positive")
	}
	return nil
}

func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return k.Load(file.Provider(path), yaml.Parser())
}
