package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/brushconv/pkg/facemesh"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Convert.WeldEpsilon != 1e-5 {
		t.Errorf("expected weld epsilon 1e-5, got %g", cfg.Convert.WeldEpsilon)
	}
	if cfg.Convert.Strict {
		t.Error("expected strict to be false by default")
	}
	if cfg.Export.Format != "yaml" {
		t.Errorf("expected format yaml, got %s", cfg.Export.Format)
	}
	if cfg.Engine.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Engine.Timeout)
	}
	if cfg.Engine.Winding != facemesh.CounterClockwise {
		t.Errorf("expected ccw winding, got %v", cfg.Engine.Winding)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level 'warn', got %s", cfg.Logging.Level)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
convert:
  weld_epsilon: 0.001
  strict: true

export:
  format: glb
  gltf_binary: true

engine:
  timeout: 2s
  winding: cw

logging:
  level: debug
  log_file: brushconv.log
`)

	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Convert.WeldEpsilon != 0.001 || !cfg.Convert.Strict {
		t.Errorf("convert = %+v", cfg.Convert)
	}
	if cfg.Export.Format != "glb" || !cfg.Export.GLTFBinary {
		t.Errorf("export = %+v", cfg.Export)
	}
	if cfg.Engine.Timeout != 2*time.Second {
		t.Errorf("expected timeout 2s, got %v", cfg.Engine.Timeout)
	}
	if cfg.Engine.Winding != facemesh.Clockwise {
		t.Errorf("expected cw winding, got %v", cfg.Engine.Winding)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "brushconv.log" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	path := writeConfig(t, "convert:\n  strict: true\n")

	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Convert.Strict {
		t.Error("expected strict from file")
	}
	// Unset values keep their defaults.
	if cfg.Convert.WeldEpsilon != 1e-5 || cfg.Engine.Timeout != 5*time.Second {
		t.Errorf("defaults lost: %+v %+v", cfg.Convert, cfg.Engine)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "convert:\n  weld_epsilon: [1\n"},
		{"type", "convert:\n  weld_epsilon: not a number\n"},
		{"winding", "engine:\n  winding: sideways\n"},
		{"duration", "engine:\n  timeout: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := loadFromFile(Default(), writeConfig(t, tt.content)); err == nil {
				t.Error("expected error for invalid config")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := Load(&Flags{Config: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoadPriority(t *testing.T) {
	path := writeConfig(t, "convert:\n  weld_epsilon: 0.5\nengine:\n  winding: cw\n")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var f Flags
	f.Register(fs)
	if err := fs.Parse([]string{"-config", path, "-weld", "0.25", "-debug", "-binary", "-timeout", "1s"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(&f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Convert.WeldEpsilon != 0.25 {
		t.Errorf("flag should override file: weld = %g", cfg.Convert.WeldEpsilon)
	}
	if cfg.Engine.Winding != facemesh.Clockwise {
		t.Errorf("file should override default: winding = %v", cfg.Engine.Winding)
	}
	if cfg.Logging.Level != "debug" || !cfg.Export.GLTFBinary || cfg.Engine.Timeout != time.Second {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestLoadBadWindingFlag(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := Load(&Flags{Winding: "up"}); err == nil {
		t.Error("expected error for bad winding flag")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Engine.Winding = facemesh.Clockwise
	cfg.Engine.Timeout = 750 * time.Millisecond
	cfg.Export.Format = "stl"
	if err := cfg.SaveTo(path, false); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# brushconv configuration") {
		t.Errorf("missing header:\n%s", data)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}

	if err := Default().SaveTo(path, false); !errors.Is(err, ErrExists) {
		t.Errorf("second SaveTo error = %v, want ErrExists", err)
	}
	if err := Default().SaveTo(path, true); err != nil {
		t.Errorf("overwriting SaveTo: %v", err)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"upper case format", func(c *Config) { c.Export.Format = "GLB" }, false},
		{"zero weld", func(c *Config) { c.Convert.WeldEpsilon = 0 }, true},
		{"unknown format", func(c *Config) { c.Export.Format = "obj" }, true},
		{"zero timeout", func(c *Config) { c.Engine.Timeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Check(); (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveToRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Export.Format = "obj"
	if err := cfg.SaveTo(path, false); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid config should not be written")
	}
}

func TestLoadRejectsBadFormat(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := Load(&Flags{Format: "obj"}); err == nil {
		t.Error("expected error for unknown -format")
	}
}

func TestConfigDir(t *testing.T) {
	if ConfigDir() == "" {
		t.Error("ConfigDir returned empty path")
	}
}
