package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/blockgeo/pkg/registry"
	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blockgeo.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Registry.Tolerance != registry.DefaultTolerance {
		t.Errorf("tolerance = %g, want %g", cfg.Registry.Tolerance, registry.DefaultTolerance)
	}
	if cfg.Kernel.Backend != "record" {
		t.Errorf("backend = %q, want record", cfg.Kernel.Backend)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
registry:
  tag_source: kernel
kernel:
  backend: sdfx
log:
  level: debug
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	want := Default()
	want.Registry.TagSource = "kernel"
	want.Kernel.Backend = "sdfx"
	want.Log.Level = "debug"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	opts, err := cfg.RegistryOptions()
	if err != nil {
		t.Fatalf("RegistryOptions: %v", err)
	}
	if opts.TagSource != registry.TagsFromKernel || opts.Tolerance != registry.DefaultTolerance {
		t.Errorf("options = %+v", opts)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"bad yaml", "registry: [", []string{"parsing"}},
		{"bad backend", "kernel:\n  backend: opencascade\n", []string{"kernel.backend"}},
		{
			"several problems",
			"registry:\n  tolerance: 0\n  tag_source: dice\nlog:\n  format: xml\n",
			[]string{"registry.tolerance", "registry.tag_source", "log.format"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("err = %v, want containing %q", err, w)
				}
			}
		})
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadUsesEnvironment(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load without %s: %v", EnvVar, err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	t.Setenv(EnvVar, writeConfig(t, "kernel:\n  mesh_cells: 16\n"))
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Kernel.MeshCells != 16 {
		t.Errorf("mesh_cells = %d, want 16", cfg.Kernel.MeshCells)
	}
}
