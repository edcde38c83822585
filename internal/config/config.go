// Package config loads settings for the batch converter from JSON, TOML or
// YAML files and merges command line overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatGLB  = "glb"
	FormatWebP = "webp"
)

// ErrInvalid reports a config value that cannot be used.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all configurable paths and conversion settings.
type Config struct {
	// Paths
	InputDir   string `json:"input_dir" toml:"input_dir" yaml:"input_dir"`
	OutputDir  string `json:"output_dir" toml:"output_dir" yaml:"output_dir"`
	TextureDir string `json:"texture_dir" toml:"texture_dir" yaml:"texture_dir"`

	Formats []string `json:"formats" toml:"formats" yaml:"formats"`

	// Mesh post-processing. Nil means enabled.
	Reorder        *bool `json:"reorder" toml:"reorder" yaml:"reorder"`
	Split          *bool `json:"split" toml:"split" yaml:"split"`
	ComputeNormals bool  `json:"compute_normals" toml:"compute_normals" yaml:"compute_normals"`

	// Render settings
	RenderSize  int     `json:"render_size" toml:"render_size" yaml:"render_size"`
	Supersample int     `json:"supersample" toml:"supersample" yaml:"supersample"`
	FillRatio   float64 `json:"fill_ratio" toml:"fill_ratio" yaml:"fill_ratio"`
	View        string  `json:"view" toml:"view" yaml:"view"`
	FOV         float32 `json:"fov" toml:"fov" yaml:"fov"`
	Workers     int     `json:"workers" toml:"workers" yaml:"workers"`
}

// Load reads a config file; the format follows the extension (.json,
// .toml, .yaml or .yml). Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%w: unknown config extension %q", ErrInvalid, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	InputDir  string
	OutputDir string
	Formats   string // comma separated
	View      string
	Size      int
	Workers   int
}

// Resolve applies flag overrides, expands ~ in paths and fills defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Formats != "" {
		c.Formats = splitList(flags.Formats)
	}
	if flags.View != "" {
		c.View = flags.View
	}
	if flags.Size > 0 {
		c.RenderSize = flags.Size
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	for _, p := range []*string{&c.InputDir, &c.OutputDir, &c.TextureDir} {
		if exp, err := homedir.Expand(*p); err == nil {
			*p = exp
		}
	}
	if c.InputDir == "" {
		c.InputDir = "."
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.InputDir, "converted")
	}
	if c.TextureDir == "" {
		c.TextureDir = c.InputDir
	}

	c.Formats = splitList(strings.Join(c.Formats, ","))
	if len(c.Formats) == 0 {
		c.Formats = []string{FormatGLB, FormatWebP}
	}
	if c.RenderSize <= 0 {
		c.RenderSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.FillRatio <= 0 || c.FillRatio > 1 {
		c.FillRatio = 0.9
	}
	if c.View == "" {
		c.View = "iso"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate rejects unknown output formats and out-of-range values.
func (c *Config) Validate() error {
	for _, f := range c.Formats {
		if f != FormatGLB && f != FormatWebP {
			return fmt.Errorf("%w: format %q", ErrInvalid, f)
		}
	}
	if c.Supersample > 8 {
		return fmt.Errorf("%w: supersample %d", ErrInvalid, c.Supersample)
	}
	if c.FOV < 0 || c.FOV >= 180 {
		return fmt.Errorf("%w: fov %g", ErrInvalid, c.FOV)
	}
	return nil
}

// Wants reports whether format is among the requested outputs.
func (c *Config) Wants(format string) bool {
	for _, f := range c.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// ReorderEnabled and SplitEnabled treat an unset value as enabled.
func (c *Config) ReorderEnabled() bool { return c.Reorder == nil || *c.Reorder }

func (c *Config) SplitEnabled() bool { return c.Split == nil || *c.Split }

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
