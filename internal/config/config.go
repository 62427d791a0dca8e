// Package config handles brushconv configuration loading and management.
package config

import (
	"time"

	"github.com/chazu/brushconv/pkg/facemesh"
)

// Config holds all tool settings.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Export  ExportConfig  `yaml:"export"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

// ConvertConfig holds face mesh to brush conversion settings.
type ConvertConfig struct {
	WeldEpsilon float64 `yaml:"weld_epsilon"` // position tolerance when deriving shared groups
	Strict      bool    `yaml:"strict"`       // fail on non-manifold edges
}

// ExportConfig holds output settings for to-faces and eval.
type ExportConfig struct {
	Format     string `yaml:"format"` // yaml, gltf, glb or stl when the output has no extension
	GLTFBinary bool   `yaml:"gltf_binary"`
}

// EngineConfig holds script evaluation settings.
type EngineConfig struct {
	Timeout time.Duration    `yaml:"timeout"`
	Winding facemesh.Winding `yaml:"winding"` // winding scripts start with
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			WeldEpsilon: 1e-5,
			Strict:      false,
		},
		Export: ExportConfig{
			Format:     "yaml",
			GLTFBinary: false,
		},
		Engine: EngineConfig{
			Timeout: 5 * time.Second,
			Winding: facemesh.CounterClockwise,
		},
		Logging: LoggingConfig{
			Level:   "warn",
			LogFile: "",
		},
	}
}
