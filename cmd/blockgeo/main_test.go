package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/blockgeo/pkg/config"
	"github.com/chazu/blockgeo/pkg/snapshot"
)

const shellHCL = `
block "shell" {
  size = 10

  block "core" {
    size = 2
    zone = "core"
  }
}
`

const shellLisp = `
(block "shell" :size 10
  (block "core" :size 2 :zone "core"))
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildFrontEnds(t *testing.T) {
	tests := []struct {
		name, file, src string
	}{
		{"hcl", "model.hcl", shellHCL},
		{"lisp", "model.lisp", shellLisp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "build", writeFile(t, tt.file, tt.src))
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if !strings.Contains(out, "blocks   2 (2 registered)") {
				t.Errorf("output missing block count:\n%s", out)
			}
			if !strings.Contains(out, "volume") {
				t.Errorf("output missing per-kind stats:\n%s", out)
			}
		})
	}
}

func TestBuildSnapshotMatchesAcrossFrontEnds(t *testing.T) {
	dir := t.TempDir()
	hclSnap := filepath.Join(dir, "hcl.cbor")
	lispSnap := filepath.Join(dir, "lisp.cbor")

	if _, err := run(t, "build", writeFile(t, "m.hcl", shellHCL), "--snapshot", hclSnap); err != nil {
		t.Fatalf("build hcl: %v", err)
	}
	if _, err := run(t, "build", writeFile(t, "m.lisp", shellLisp), "--snapshot", lispSnap); err != nil {
		t.Fatalf("build lisp: %v", err)
	}

	_, a, err := snapshot.ReadFile(hclSnap)
	if err != nil {
		t.Fatal(err)
	}
	_, b, err := snapshot.ReadFile(lispSnap)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("the same model from both front ends should fingerprint equally: %s vs %s", a, b)
	}
}

func TestBuildWritesMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.prom")
	if _, err := run(t, "build", writeFile(t, "m.hcl", shellHCL), "--metrics", path); err != nil {
		t.Fatalf("build: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "blockgeo_registry_lookups_total") {
		t.Errorf("metrics file missing lookups counter:\n%s", data)
	}
}

func TestBuildMeshNeedsMesher(t *testing.T) {
	_, err := run(t, "build", writeFile(t, "m.hcl", shellHCL), "--mesh", filepath.Join(t.TempDir(), "m.json"))
	if err == nil || !strings.Contains(err.Error(), "tessellate") {
		t.Errorf("err = %v, want tessellate error for the record backend", err)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"extension", []string{"build", writeFile(t, "m.txt", shellHCL)}, "unsupported model extension"},
		{"missing", []string{"build", filepath.Join(t.TempDir(), "none.hcl")}, "none.hcl"},
		{"lisp error", []string{"build", writeFile(t, "m.lisp", "(block :size")}, "m.lisp"},
		{"empty program", []string{"build", writeFile(t, "m.lisp", "  ")}, "empty program"},
		{"bad log level", []string{"build", writeFile(t, "m.hcl", shellHCL), "--log-level", "loud"}, "log.level"},
		{"no args", []string{"build"}, "arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", writeFile(t, "m.hcl", shellHCL))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "ok") {
		t.Errorf("output = %q, want ok", out)
	}

	out, err = run(t, "validate", writeFile(t, "m.lisp", `(block "b" :size 1 :boolean-level 1)`))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "warning:") {
		t.Errorf("output = %q, want a boolean level warning", out)
	}

	out, err = run(t, "validate", writeFile(t, "m.lisp", `(block "b" :points (list (vec3 0 0 0)))`))
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(out, "error:") {
		t.Errorf("output = %q, want an error line", out)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "blockgeo ") {
		t.Errorf("output = %q", out)
	}
}

func TestConfigFlag(t *testing.T) {
	cfgPath := writeFile(t, "blockgeo.yaml", "kernel:\n  backend: sdfx\n  mesh_cells: 8\n")
	meshPath := filepath.Join(t.TempDir(), "m.json")
	out, err := run(t, "build", writeFile(t, "m.hcl", `block "b" { size = 1 }`), "--config", cfgPath, "--mesh", meshPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(out, "meshes   1") {
		t.Errorf("output missing mesh count:\n%s", out)
	}
	if _, err := os.Stat(meshPath); err != nil {
		t.Errorf("mesh file: %v", err)
	}
}

func TestHelpExamplesExist(t *testing.T) {
	help := buildCmd(&globalFlags{}).Long
	var paths []string
	for _, field := range strings.Fields(help) {
		if strings.HasPrefix(field, "examples/") {
			paths = append(paths, field)
		}
	}
	if len(paths) == 0 {
		t.Fatal("build help names no example models")
	}
	for _, p := range paths {
		if _, err := os.Stat(filepath.Join("..", "..", p)); err != nil {
			t.Errorf("build help names %s: %v", p, err)
		}
	}
}

func TestShippedExamplesBuild(t *testing.T) {
	models, err := filepath.Glob(filepath.Join("..", "..", "examples", "*"))
	if err != nil {
		t.Fatal(err)
	}
	built := 0
	for _, m := range models {
		if ext := filepath.Ext(m); ext != ".hcl" && ext != ".lisp" {
			continue
		}
		t.Run(filepath.Base(m), func(t *testing.T) {
			if _, err := run(t, "build", m); err != nil {
				t.Errorf("build: %v", err)
			}
		})
		built++
	}
	if built == 0 {
		t.Error("no example models found")
	}
}
