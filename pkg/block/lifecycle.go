package block

import (
	"fmt"

	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/registry"
)

// Unregister mirrors Register: a block first unregisters its children when
// DoUnregisterChildren is set, then its own volume when DoUnregister is set.
// Unregistering a block that is not registered is a *geom.NotRegisteredError.
func (t *Tree) Unregister(reg *registry.Registry) error {
	return t.unregisterBlock(reg, t.Root())
}

func (t *Tree) unregisterBlock(reg *registry.Registry, h Handle) error {
	b := t.blocks[h]
	if b.DoUnregisterChildren {
		for _, c := range b.Children {
			if err := t.unregisterBlock(reg, c); err != nil {
				return err
			}
		}
	}
	if !b.DoUnregister {
		return nil
	}
	if !b.IsRegistered() {
		return &geom.NotRegisteredError{Kind: geom.KindVolume, Tag: b.Volume.Tag, Name: b.Name}
	}
	if err := reg.UnregisterVolume(b.Volume.Tag); err != nil {
		return fmt.Errorf("block %s: %w", b.Name, err)
	}
	b.unregistered = true
	return nil
}

// Structure applies transfinite settings in three children-first passes:
// curves and then surfaces whose curves are all structured, recombination
// of faces (Quadrate), and finally volumes. Volumes come last because a
// volume is structured only when all of its faces share one quadrate state,
// and a neighbour may recombine a shared face. Unmet prerequisites leave
// the entity unstructured without error.
func (t *Tree) Structure(reg *registry.Registry) error {
	if err := t.structureFaces(reg); err != nil {
		return err
	}
	if err := t.Quadrate(reg); err != nil {
		return err
	}
	return t.structureVolumes(reg)
}

func (t *Tree) structureFaces(reg *registry.Registry) error {
	return t.PostOrder(func(_ Handle, b *Block) error {
		if b.structure == nil || !b.IsRegistered() {
			return nil
		}
		for _, c := range b.Curves {
			if _, err := reg.StructureCurve(c); err != nil {
				return fmt.Errorf("block %s: %w", b.Name, err)
			}
		}
		for _, s := range b.Surfaces {
			if _, err := reg.StructureSurface(s); err != nil {
				return fmt.Errorf("block %s: %w", b.Name, err)
			}
		}
		return nil
	})
}

func (t *Tree) structureVolumes(reg *registry.Registry) error {
	return t.PostOrder(func(_ Handle, b *Block) error {
		if b.structure == nil || !b.IsRegistered() {
			return nil
		}
		ok, err := reg.StructureVolume(b.Volume)
		if err != nil {
			return fmt.Errorf("block %s: %w", b.Name, err)
		}
		b.structured = ok
		return nil
	})
}

// Quadrate requests recombination of every face children-first. A face is
// recombined only once all of its curves are structured. Structure calls it
// between its surface and volume passes; calling it again is a no-op.
func (t *Tree) Quadrate(reg *registry.Registry) error {
	return t.PostOrder(func(_ Handle, b *Block) error {
		if b.quadrate == nil || !b.IsRegistered() {
			return nil
		}
		all := true
		for _, s := range b.Surfaces {
			ok, err := reg.QuadrateSurface(s)
			if err != nil {
				return fmt.Errorf("block %s: %w", b.Name, err)
			}
			all = all && ok
		}
		b.quadrated = all
		return nil
	})
}
