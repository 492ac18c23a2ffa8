package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Expected addr %q, got %q", DefaultAddr, cfg.Server.Addr)
	}
	if cfg.Server.MaxBody != DefaultMaxBodySize {
		t.Errorf("Expected max body %d, got %d", DefaultMaxBodySize, cfg.Server.MaxBody)
	}
	if cfg.Server.Shutdown != DefaultShutdownTimeout {
		t.Errorf("Expected shutdown %v, got %v", DefaultShutdownTimeout, cfg.Server.Shutdown)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Unexpected log config %+v", cfg.Log)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != "shooks" || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Unexpected metrics config %+v", cfg.Metrics)
	}
	if cfg.Throttle.RPS != 0 {
		t.Errorf("Expected throttling off by default, got %d rps", cfg.Throttle.RPS)
	}
	if cfg.Throttle.MaxWait != time.Second {
		t.Errorf("Expected 1s max wait, got %v", cfg.Throttle.MaxWait)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shooks.yaml")
	content := `
server:
  addr: ":9000"
  shutdown: 3s
log:
  level: debug
throttle:
  rps: 50
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	// Environment wins over the file
	t.Setenv("SHOOKS_LOG_LEVEL", "warn")
	t.Setenv("SHOOKS_SOCKET_ENABLED", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Expected addr from file, got %q", cfg.Server.Addr)
	}
	if cfg.Server.Shutdown != 3*time.Second {
		t.Errorf("Expected 3s shutdown, got %v", cfg.Server.Shutdown)
	}
	if cfg.Throttle.RPS != 50 {
		t.Errorf("Expected 50 rps, got %d", cfg.Throttle.RPS)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected env to override log level, got %q", cfg.Log.Level)
	}
	if cfg.Socket.Enabled {
		t.Error("Expected socket disabled from env")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected a missing file to be ignored, got %v", err)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Expected default addr, got %q", cfg.Server.Addr)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad level", "SHOOKS_LOG_LEVEL", "loud"},
		{"bad format", "SHOOKS_LOG_FORMAT", "xml"},
		{"negative rps", "SHOOKS_THROTTLE_RPS", "-1"},
		{"negative body", "SHOOKS_SERVER_MAXBODY", "-5"},
		{"negative wait", "SHOOKS_THROTTLE_MAXWAIT", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(""); err == nil {
				t.Errorf("Expected %s=%s to be rejected", tt.key, tt.val)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn", Format: "console"})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("Expected info to be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("Expected error to be enabled at warn level")
	}

	if _, err := NewLogger(LogConfig{Level: "nope", Format: "json"}); err == nil {
		t.Error("Expected an invalid level to fail")
	}
}
