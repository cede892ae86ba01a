package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chazu/blockgeo/pkg/block"
	"github.com/chazu/blockgeo/pkg/blockfile"
	"github.com/chazu/blockgeo/pkg/config"
	"github.com/chazu/blockgeo/pkg/ctxlog"
	"github.com/chazu/blockgeo/pkg/engine"
	"github.com/chazu/blockgeo/pkg/kernel"
	"github.com/chazu/blockgeo/pkg/kernel/sdfx"
)

// loadConfig reads the config file named by --config, or by BLOCKGEO_CONFIG
// when the flag is empty, and applies the logging overrides.
func loadConfig(g *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.config != "" {
		cfg, err = config.LoadFile(g.config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return ctxlog.New(cfg.Log.Level, cfg.Log.Format, w)
}

// isLisp reports whether path names a DSL program rather than an HCL file.
func isLisp(path string) (bool, error) {
	switch ext := filepath.Ext(path); ext {
	case ".hcl":
		return false, nil
	case ".lisp", ".zy":
		return true, nil
	default:
		return false, fmt.Errorf("%s: unsupported model extension %q (want .hcl, .lisp or .zy)", path, ext)
	}
}

// loadSpec reads the model at path with the front end its extension selects.
func loadSpec(ctx context.Context, path string) (*block.Spec, error) {
	lisp, err := isLisp(path)
	if err != nil {
		return nil, err
	}
	if !lisp {
		return blockfile.Load(ctx, path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("evaluating program", "path", path, "bytes", len(src))
	spec, evalErrs, err := engine.NewEngine().Evaluate(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		return nil, fmt.Errorf("%s: %w", path, joinEvalErrors(evalErrs))
	}
	if spec == nil {
		return nil, fmt.Errorf("%s: empty program", path)
	}
	return spec, nil
}

func joinEvalErrors(evalErrs []engine.EvalError) error {
	errs := make([]error, len(evalErrs))
	for i, e := range evalErrs {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// backend bundles the kernel selected by the config with the views the
// command needs of it.
type backend struct {
	name     kernel.Backend
	kernel   kernel.Kernel
	recorder *kernel.Recorder
	mesher   kernel.Mesher // nil when the backend cannot tessellate
}

func newBackend(cfg *config.Config) (*backend, error) {
	name, err := kernel.ParseBackend(cfg.Kernel.Backend)
	if err != nil {
		return nil, err
	}
	switch name {
	case kernel.BackendSDFX:
		k := sdfx.New(cfg.Kernel.MeshCells)
		return &backend{name: name, kernel: k, recorder: k.Recorder, mesher: k}, nil
	default:
		rec := kernel.NewRecorder()
		return &backend{name: name, kernel: rec, recorder: rec}, nil
	}
}
