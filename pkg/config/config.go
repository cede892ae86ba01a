// Package config loads the run configuration for blockgeo builds.
//
// Configuration comes from a single YAML file named by the --config flag or
// the BLOCKGEO_CONFIG environment variable. Fields the file leaves out keep
// the values from Default.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/chazu/blockgeo/pkg/kernel"
	"github.com/chazu/blockgeo/pkg/registry"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable Load reads.
const EnvVar = "BLOCKGEO_CONFIG"

// Config is the run configuration.
type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	Kernel   KernelConfig   `yaml:"kernel"`
	Log      LogConfig      `yaml:"log"`
}

// RegistryConfig configures entity canonicalization.
type RegistryConfig struct {
	// Tolerance is the grid spacing points are snapped to before comparison.
	// Default: 1e-8
	Tolerance float64 `yaml:"tolerance"`

	// TagSource is "registry" (the registry numbers entities) or "kernel"
	// (the kernel does).
	// Default: registry
	TagSource string `yaml:"tag_source"`
}

// KernelConfig selects the geometry backend.
type KernelConfig struct {
	// Backend is "record" or "sdfx".
	// Default: record
	Backend string `yaml:"backend"`

	// MeshCells is the sdfx marching-cubes resolution along the longest axis.
	// Default: 64
	MeshCells int `yaml:"mesh_cells"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info
	Level string `yaml:"level"`

	// Format is text or json.
	// Default: text
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{
			Tolerance: registry.DefaultTolerance,
			TagSource: registry.TagsFromRegistry.String(),
		},
		Kernel: KernelConfig{
			Backend:   string(kernel.BackendRecord),
			MeshCells: 64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the file named by BLOCKGEO_CONFIG. If the
// variable is unset the defaults are returned.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path, on top of the defaults, and
// validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors. Every problem is reported.
func (c *Config) Validate() error {
	var errs []error

	if c.Registry.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("registry.tolerance must be positive, got %g", c.Registry.Tolerance))
	}
	if _, err := registry.ParseTagSource(c.Registry.TagSource); err != nil {
		errs = append(errs, fmt.Errorf("registry.tag_source: %w", err))
	}
	if _, err := kernel.ParseBackend(c.Kernel.Backend); err != nil {
		errs = append(errs, fmt.Errorf("kernel.backend: %w", err))
	}
	if c.Kernel.MeshCells <= 0 {
		errs = append(errs, fmt.Errorf("kernel.mesh_cells must be positive, got %d", c.Kernel.MeshCells))
	}
	if !contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	if !contains([]string{"text", "json"}, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be text or json; got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// RegistryOptions converts the registry section. Logger and metrics are
// left for the caller.
func (c *Config) RegistryOptions() (registry.Options, error) {
	src, err := registry.ParseTagSource(c.Registry.TagSource)
	if err != nil {
		return registry.Options{}, err
	}
	return registry.Options{Tolerance: c.Registry.Tolerance, TagSource: src}, nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
