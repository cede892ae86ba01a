// Package kernel defines the abstract geometry kernel interface consumed by
// the registry. Implementations (the in-memory Recorder, the sdfx backend)
// create points, curves, loops, surfaces, shells and volumes behind this
// interface, so the registry never depends on a concrete backend.
package kernel

import "github.com/chazu/blockgeo/pkg/geom"

// Kernel is the abstract geometry kernel interface.
//
// Every creation primitive takes a proposed tag. A zero tag asks the kernel
// to choose one; a non-zero tag must be honoured. The tag actually used is
// returned.
type Kernel interface {
	// Creation primitives
	CreatePoint(tag geom.Tag, coords geom.Vec3, meshSize float64) (geom.Tag, error)
	CreateCurve(tag geom.Tag, kind geom.CurveKind, pointTags []geom.Tag, opts geom.CurveOptions) (geom.Tag, error)
	CreateCurveLoop(tag geom.Tag, signedCurveTags []geom.Tag) (geom.Tag, error)
	CreateSurface(tag geom.Tag, kind geom.SurfaceKind, loopTags []geom.Tag) (geom.Tag, error)
	CreateSurfaceLoop(tag geom.Tag, surfaceTags []geom.Tag) (geom.Tag, error)
	CreateVolume(tag geom.Tag, loopTags []geom.Tag) (geom.Tag, error)

	// Structuring and recombination
	SetTransfiniteCurve(tag geom.Tag, opts geom.CurveStructure) error
	SetTransfiniteSurface(tag geom.Tag, opts geom.SurfaceStructure) error
	SetTransfiniteVolume(tag geom.Tag, opts geom.VolumeStructure) error
	SetRecombine(tag geom.Tag, opts geom.QuadrateOptions) error

	// Removal
	RemoveVolume(tag geom.Tag) error
}

// Solid is an opaque handle to a backend solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Mesher is implemented by kernels that can tessellate a registered volume.
type Mesher interface {
	ToMesh(volume geom.Tag) (*Mesh, error)
}
