package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/chazu/brushconv/pkg/facemesh"
)

// Flags holds command-line overrides. Zero values leave the loaded
// configuration untouched.
type Flags struct {
	Config  string
	Debug   bool
	Strict  bool
	Weld    float64
	Format  string
	Binary  bool
	Winding string
	Timeout time.Duration
	LogFile string
}

// Register adds the shared flags to fs so every subcommand accepts them.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.Strict, "strict", false, "Fail on non-manifold edges")
	fs.Float64Var(&f.Weld, "weld", 0, "Weld epsilon for deriving shared vertices")
	fs.StringVar(&f.Format, "format", "", "Output format when the extension is missing (yaml, gltf, glb, stl)")
	fs.BoolVar(&f.Binary, "binary", false, "Write binary glTF")
	fs.StringVar(&f.Winding, "winding", "", "Initial winding for scripts (cw or ccw)")
	fs.DurationVar(&f.Timeout, "timeout", 0, "Script evaluation timeout")
	fs.StringVar(&f.LogFile, "log", "", "Log file path")
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) error {
	if f == nil {
		return nil
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Strict {
		cfg.Convert.Strict = true
	}
	if f.Weld > 0 {
		cfg.Convert.WeldEpsilon = f.Weld
	}
	if f.Format != "" {
		cfg.Export.Format = f.Format
	}
	if f.Binary {
		cfg.Export.GLTFBinary = true
	}
	if f.Winding != "" {
		w, err := facemesh.ParseWinding(f.Winding)
		if err != nil {
			return fmt.Errorf("-winding: %w", err)
		}
		cfg.Engine.Winding = w
	}
	if f.Timeout > 0 {
		cfg.Engine.Timeout = f.Timeout
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	return nil
}
