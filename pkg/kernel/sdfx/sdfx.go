// Package sdfx implements the kernel.Kernel interface on top of the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// Topology (points through shells) is held by an embedded kernel.Recorder.
// Each created volume additionally becomes an sdf.SDF3: a box spanning the
// outer shell's bounds with one box per inner shell subtracted as a cavity.
// Curved edges contribute only their control points to those bounds.
package sdfx

import (
	"fmt"
	"sync"

	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel = (*SdfxKernel)(nil)
	_ kernel.Mesher = (*SdfxKernel)(nil)
	_ kernel.Solid  = (*sdfxSolid)(nil)
)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx for volume solids.
type SdfxKernel struct {
	*kernel.Recorder

	cells  int
	mu     sync.Mutex
	solids map[geom.Tag]*sdfxSolid
}

// New returns a new SdfxKernel tessellating with the given number of
// marching cubes cells along the longest axis. cells <= 0 selects
// DefaultMeshCells.
func New(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{
		Recorder: kernel.NewRecorder(),
		cells:    cells,
		solids:   make(map[geom.Tag]*sdfxSolid),
	}
}

// boxFromBounds creates a box covering b. sdf.Box3D centers the box at the
// origin, so it is translated to the bounds center.
func boxFromBounds(b geom.Bounds) (sdf.SDF3, error) {
	size := b.Size()
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, fmt.Errorf("degenerate shell bounds %v", size)
	}
	s, err := sdf.Box3D(v3.Vec{X: size.X, Y: size.Y, Z: size.Z}, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx.Box3D: %w", err)
	}
	c := b.Center()
	m := sdf.Translate3d(v3.Vec{X: c.X, Y: c.Y, Z: c.Z})
	return sdf.Transform3D(s, m), nil
}

// buildSolid creates the solid for a volume bounded by the given shells.
func (k *SdfxKernel) buildSolid(loopTags []geom.Tag) (sdf.SDF3, error) {
	if len(loopTags) == 0 {
		return nil, fmt.Errorf("volume has no surface loops")
	}
	outer, err := k.ShellBounds(loopTags[0])
	if err != nil {
		return nil, err
	}
	solid, err := boxFromBounds(outer)
	if err != nil {
		return nil, fmt.Errorf("outer shell %d: %w", loopTags[0], err)
	}
	for _, lt := range loopTags[1:] {
		inner, err := k.ShellBounds(lt)
		if err != nil {
			return nil, err
		}
		cavity, err := boxFromBounds(inner)
		if err != nil {
			return nil, fmt.Errorf("inner shell %d: %w", lt, err)
		}
		solid = sdf.Difference3D(solid, cavity)
	}
	return solid, nil
}

// CreateVolume records the volume topology and builds its solid.
func (k *SdfxKernel) CreateVolume(tag geom.Tag, loopTags []geom.Tag) (geom.Tag, error) {
	s, err := k.buildSolid(loopTags)
	if err != nil {
		return 0, fmt.Errorf("sdfx: volume: %w", err)
	}
	tag, err = k.Recorder.CreateVolume(tag, loopTags)
	if err != nil {
		return 0, err
	}
	k.mu.Lock()
	k.solids[tag] = &sdfxSolid{s: s}
	k.mu.Unlock()
	return tag, nil
}

// RemoveVolume drops the volume and its solid.
func (k *SdfxKernel) RemoveVolume(tag geom.Tag) error {
	if err := k.Recorder.RemoveVolume(tag); err != nil {
		return err
	}
	k.mu.Lock()
	delete(k.solids, tag)
	k.mu.Unlock()
	return nil
}

// Solid returns the solid for a live volume.
func (k *SdfxKernel) Solid(tag geom.Tag) (kernel.Solid, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.solids[tag]
	return s, ok
}

// ToMesh converts a volume's solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(tag geom.Tag) (*kernel.Mesh, error) {
	k.mu.Lock()
	s, ok := k.solids[tag]
	k.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("sdfx: no solid for volume %d", tag)
	}

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(s.s, renderer)

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		Volume:   tag,
	}, nil
}
