package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/blockgeo/pkg/block"
	"github.com/chazu/blockgeo/pkg/ctxlog"
	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/registry"
	"github.com/chazu/blockgeo/pkg/snapshot"
	"github.com/chazu/blockgeo/pkg/tessellate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type buildOptions struct {
	snapshot string
	mesh     string
	metrics  string
}

func buildCmd(g *globalFlags) *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build <model>",
		Short: "Build a model and report the entities it creates",
		Long: `Build a model through the whole lifecycle: transform, register,
structure, quadrate and unregister.

Examples:
  blockgeo build examples/shell.hcl
  blockgeo build examples/stack.lisp --snapshot=stack.cbor
  blockgeo build model.hcl --config=sdfx.yaml --mesh=model.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBuild(ctx, g, opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Write a CBOR snapshot of the built model to this file")
	cmd.Flags().StringVar(&opts.mesh, "mesh", "", "Write JSON triangle meshes to this file (sdfx backend)")
	cmd.Flags().StringVar(&opts.metrics, "metrics", "", "Write registry metrics in Prometheus text format to this file")

	return cmd
}

func runBuild(ctx context.Context, g *globalFlags, opts buildOptions, path string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, stderr)
	ctx = ctxlog.WithLogger(ctx, logger)

	be, err := newBackend(cfg)
	if err != nil {
		return err
	}
	if opts.mesh != "" && be.mesher == nil {
		return fmt.Errorf("--mesh needs a backend that can tessellate; %q cannot", be.name)
	}

	spec, err := loadSpec(ctx, path)
	if err != nil {
		return err
	}
	tree, err := block.NewTree(spec)
	if err != nil {
		return err
	}
	if err := tree.CheckCurveOptions(be.name); err != nil {
		return err
	}

	regOpts, err := cfg.RegistryOptions()
	if err != nil {
		return err
	}
	promReg := prometheus.NewRegistry()
	regOpts.Logger = logger
	regOpts.Metrics = registry.NewMetrics(promReg)
	reg := registry.New(be.kernel, regOpts)

	if err := block.Build(ctx, tree, reg); err != nil {
		return err
	}
	printStats(stdout, tree, reg.Stats())

	if opts.snapshot != "" {
		fp, err := snapshot.WriteFile(opts.snapshot, snapshot.New(be.recorder.Entities(), tree))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "snapshot %s  %s\n", fp, opts.snapshot)
	}

	if opts.mesh != "" {
		meshes, err := tessellate.Tessellate(tree, be.mesher)
		if err != nil {
			return err
		}
		data, err := json.Marshal(meshes)
		if err != nil {
			return fmt.Errorf("encoding meshes: %w", err)
		}
		if err := os.WriteFile(opts.mesh, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "meshes   %d  %s\n", len(meshes), opts.mesh)
	}

	if opts.metrics != "" {
		if err := prometheus.WriteToTextfile(opts.metrics, promReg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

func printStats(w io.Writer, tree *block.Tree, stats registry.Stats) {
	registered := 0
	for h := block.Handle(0); int(h) < tree.Len(); h++ {
		if tree.Block(h).IsRegistered() {
			registered++
		}
	}
	fmt.Fprintf(w, "blocks   %d (%d registered)\n", tree.Len(), registered)
	for _, kind := range geom.Kinds {
		fmt.Fprintf(w, "%-13s created %-5d reused %d\n", kind, stats.Created[kind], stats.Hits[kind])
	}
}
