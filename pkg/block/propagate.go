package block

import (
	"fmt"

	"github.com/chazu/blockgeo/pkg/transform"
)

// Transform resolves world coordinates for every block, top-down. Each
// child's transform chain is its own list, then the list its parent gave it,
// then the parent's complete chain. Points are recomputed from their local
// coordinates, so calling Transform again yields the same result.
func (t *Tree) Transform() error {
	return t.transformBlock(t.Root(), transform.Chain{})
}

func (t *Tree) transformBlock(h Handle, parentChain transform.Chain) error {
	b := t.blocks[h]
	b.chain = parentChain.Extend(b.own, b.specific)

	var ctx transform.Context
	if b.Parent != NoBlock {
		parent := t.blocks[b.Parent]
		if parent.transformed {
			corners := parent.Corners()
			ctx.ParentCorners = &corners
		}
	}

	for i, p := range b.Points {
		world, err := b.chain.Apply(b.local[i], ctx)
		if err != nil {
			return fmt.Errorf("block %s: corner %d: %w", b.Name, i, err)
		}
		p.Coords = world
	}
	for i, c := range b.Curves {
		for j, p := range c.Interior() {
			world, err := b.chain.Apply(b.localInterior[i][j], ctx)
			if err != nil {
				return fmt.Errorf("block %s: curve %d point %d: %w", b.Name, i, j, err)
			}
			p.Coords = world
		}
	}
	b.transformed = true

	for _, ch := range b.Children {
		if err := t.transformBlock(ch, b.chain); err != nil {
			return err
		}
	}
	return nil
}
