package block

import (
	"context"
	"fmt"
	"time"

	"github.com/chazu/blockgeo/pkg/ctxlog"
	"github.com/chazu/blockgeo/pkg/registry"
)

// Build runs the full lifecycle on t: transform, register, structure
// curves and surfaces, quadrate, structure volumes and unregister. It stops
// at the first error. The registry must be fresh or Reset for every
// independent build.
func Build(ctx context.Context, t *Tree, reg *registry.Registry) error {
	logger := ctxlog.FromContext(ctx)

	phases := []struct {
		name string
		run  func() error
	}{
		{"transform", t.Transform},
		{"register", func() error { return t.Register(reg) }},
		{"structure", func() error { return t.structureFaces(reg) }},
		{"quadrate", func() error { return t.Quadrate(reg) }},
		{"structure volumes", func() error { return t.structureVolumes(reg) }},
		{"unregister", func() error { return t.Unregister(reg) }},
	}

	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("block: build cancelled before %s: %w", p.name, err)
		}
		start := time.Now()
		if err := p.run(); err != nil {
			logger.Error("build phase failed", "phase", p.name, "error", err)
			return fmt.Errorf("block: %s: %w", p.name, err)
		}
		logger.Debug("build phase done", "phase", p.name, "blocks", t.Len(), "duration", time.Since(start))
	}

	stats := reg.Stats()
	logger.Info("build complete", "blocks", t.Len(), "created", stats.Created, "hits", stats.Hits)
	return nil
}
