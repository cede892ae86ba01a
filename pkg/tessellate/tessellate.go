// Package tessellate walks a block tree and produces triangle meshes using a
// kernel that can mesh volumes. One mesh is produced per registered block.
package tessellate

import (
	"fmt"

	"github.com/chazu/blockgeo/pkg/block"
	"github.com/chazu/blockgeo/pkg/kernel"
)

// Tessellate walks the tree children-first and meshes the volume of every
// block that is currently registered. Unregistered blocks (including those
// removed after serving as cavities) are skipped. The tree is not mutated.
func Tessellate(t *block.Tree, m kernel.Mesher) ([]*kernel.Mesh, error) {
	if t == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	err := t.PostOrder(func(_ block.Handle, b *block.Block) error {
		if !b.IsRegistered() {
			return nil
		}
		mesh, err := m.ToMesh(b.Volume.Tag)
		if err != nil {
			return fmt.Errorf("tessellate: ToMesh failed for block %s: %w", b.Name, err)
		}
		mesh.Name = b.Name
		meshes = append(meshes, mesh)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meshes, nil
}
