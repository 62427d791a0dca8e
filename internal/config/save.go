package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrExists is returned by SaveTo when the target file is already there.
var ErrExists = errors.New("config: file already exists")

const fileHeader = `# brushconv configuration
# Read from ./brushconv.yaml or <config dir>/config.yaml; flags override it.

`

// DefaultPath is where SaveTo writes when no path is given.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Check rejects settings that no command could run with.
func (c *Config) Check() error {
	if c.Convert.WeldEpsilon <= 0 {
		return fmt.Errorf("config: weld_epsilon must be positive, got %g", c.Convert.WeldEpsilon)
	}
	switch strings.ToLower(c.Export.Format) {
	case "yaml", "yml", "gltf", "glb", "stl":
	default:
		return fmt.Errorf("config: unknown export format %q", c.Export.Format)
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("config: engine timeout must be positive, got %s", c.Engine.Timeout)
	}
	return nil
}

// SaveTo writes c as a commented YAML file, creating parent directories.
// An existing file is kept unless overwrite is set.
func (c *Config) SaveTo(path string, overwrite bool) error {
	if err := c.Check(); err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrExists)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
