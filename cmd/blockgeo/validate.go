package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/chazu/blockgeo/pkg/block"
	"github.com/chazu/blockgeo/pkg/ctxlog"
	"github.com/chazu/blockgeo/pkg/engine"
	"github.com/spf13/cobra"
)

func validateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <model>",
		Short: "Check a model without building it",
		Long: `Check a model for structural, geometric and lifecycle problems.

Errors block a build; warnings are advisory. The command fails when any
error is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), g, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runValidate(ctx context.Context, g *globalFlags, path string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	ctx = ctxlog.WithLogger(ctx, newLogger(cfg, stderr))

	lisp, err := isLisp(path)
	if err != nil {
		return err
	}

	var errs, warnings []string
	var spec *block.Spec
	if lisp {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		res, err := engine.NewEngine().Check(string(src))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, e := range res.Errors {
			errs = append(errs, e.Error())
		}
		for _, w := range res.Warnings {
			warnings = append(warnings, w.Path+": "+w.Message)
		}
		spec = res.Spec
		if spec == nil && len(errs) == 0 {
			errs = append(errs, "empty program")
		}
	} else {
		spec, err = loadSpec(ctx, path)
		if err != nil {
			return err
		}
		res := block.Validate(spec)
		for _, e := range res.Errors {
			errs = append(errs, e.Path+": "+e.Message)
		}
		for _, w := range res.Warnings {
			warnings = append(warnings, w.Path+": "+w.Message)
		}
	}

	if len(errs) == 0 && spec != nil {
		be, err := newBackend(cfg)
		if err != nil {
			return err
		}
		tree, err := block.NewTree(spec)
		if err == nil {
			err = tree.CheckCurveOptions(be.name)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	for _, w := range warnings {
		fmt.Fprintf(stdout, "warning: %s\n", w)
	}
	for _, e := range errs {
		fmt.Fprintf(stdout, "error: %s\n", e)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s: %d error(s)", path, len(errs))
	}
	fmt.Fprintf(stdout, "%s: ok\n", path)
	return nil
}
