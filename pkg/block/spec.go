package block

import (
	"fmt"

	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/kernel"
	"github.com/chazu/blockgeo/pkg/transform"
)

// Spec is the raw description of one block and its subtree, as produced by
// a front end. Zero values select documented defaults.
type Spec struct {
	Name string

	// Points describes the eight corners. Nil selects a box of side 2
	// centered at the origin.
	Points PointsSpec

	// Curves holds either no entries (all straight lines) or exactly twelve,
	// indexed like the block's curves.
	Curves []CurveSpec

	SurfaceKind geom.SurfaceKind
	Transforms  []transform.Transform
	Children    []ChildSpec

	// BooleanLevel defers overlap resolution to an external boolean pass:
	// children are not nested as cavities.
	BooleanLevel *int

	Zone     string
	MeshSize float64 // default mesh size hint for generated corners

	Structure *StructureSpec
	Quadrate  *geom.QuadrateOptions

	// Lifecycle flags. Nil selects the default shown.
	Register           *bool // true
	RegisterChildren   *bool // true
	Unregister         *bool // false
	UnregisterChildren *bool // true
}

// ChildSpec nests a block under its parent. Transforms apply to the child
// after its own transforms and before the parent's.
type ChildSpec struct {
	Transforms []transform.Transform
	Block      *Spec
}

// CurveSpec describes one block edge. Interior holds the control points
// between the two corners, in the block's local coordinates.
type CurveSpec struct {
	Kind     geom.CurveKind
	Interior []geom.Vec3
	Options  geom.CurveOptions
}

// StructureSpec holds transfinite settings for a block. Curves is indexed by
// axis (x, y, z). A nil Volume leaves the volume unstructured.
type StructureSpec struct {
	Curves  [3]geom.CurveStructure
	Surface geom.SurfaceStructure
	Volume  *geom.VolumeStructure
}

// Bool returns a pointer to b, for the Spec lifecycle flags.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i, for Spec.BooleanLevel.
func Int(i int) *int { return &i }

func flag(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// ---------------------------------------------------------------------------
// Points variants
// ---------------------------------------------------------------------------

// corner is a normalized block corner in local coordinates.
type corner struct {
	coords   geom.Vec3
	meshSize float64
	zone     string
}

// PointsSpec is one of BoxSize, CornerCoords, CornerRecords or
// CornerEntities. Each variant normalizes itself into eight corners.
type PointsSpec interface {
	normalize() ([numCorners]corner, error)
}

var (
	_ PointsSpec = BoxSize(nil)
	_ PointsSpec = CornerCoords(nil)
	_ PointsSpec = CornerRecords(nil)
	_ PointsSpec = CornerEntities(nil)
)

// BoxSize is the numeric shorthand: one value for a cube, or three for the
// x, y and z extents. The box is centered at the origin.
type BoxSize []float64

func (s BoxSize) normalize() ([numCorners]corner, error) {
	var out [numCorners]corner
	var size geom.Vec3
	switch len(s) {
	case 1:
		size = geom.Vec3{X: s[0], Y: s[0], Z: s[0]}
	case 3:
		size = geom.Vec3{X: s[0], Y: s[1], Z: s[2]}
	default:
		return out, &geom.ValidationError{Field: "size", Message: fmt.Sprintf("want 1 or 3 values, got %d", len(s))}
	}
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return out, &geom.ValidationError{Field: "size", Message: fmt.Sprintf("dimensions must be positive, got %v", size)}
	}
	half := size.Scale(0.5)
	for i, ref := range transform.ReferenceCorners {
		out[i].coords = geom.Vec3{X: ref.X * half.X, Y: ref.Y * half.Y, Z: ref.Z * half.Z}
	}
	return out, nil
}

// CornerCoords lists eight bare coordinate tuples. A fourth value is read as
// the corner's mesh size hint.
type CornerCoords [][]float64

func (c CornerCoords) normalize() ([numCorners]corner, error) {
	var out [numCorners]corner
	if len(c) != numCorners {
		return out, &geom.ValidationError{Field: "points", Message: fmt.Sprintf("want %d corners, got %d", numCorners, len(c))}
	}
	for i, v := range c {
		switch len(v) {
		case 3:
		case 4:
			out[i].meshSize = v[3]
		default:
			return out, &geom.ValidationError{Field: fmt.Sprintf("points[%d]", i), Message: fmt.Sprintf("want 3 or 4 values, got %d", len(v))}
		}
		out[i].coords = geom.Vec3{X: v[0], Y: v[1], Z: v[2]}
	}
	return out, nil
}

// CornerRecord is a dict-shaped corner.
type CornerRecord struct {
	Coords   geom.Vec3
	MeshSize float64
	Zone     string
}

// CornerRecords lists eight corner records.
type CornerRecords []CornerRecord

func (c CornerRecords) normalize() ([numCorners]corner, error) {
	var out [numCorners]corner
	if len(c) != numCorners {
		return out, &geom.ValidationError{Field: "points", Message: fmt.Sprintf("want %d corners, got %d", numCorners, len(c))}
	}
	for i, r := range c {
		out[i] = corner{coords: r.Coords, meshSize: r.MeshSize, zone: r.Zone}
	}
	return out, nil
}

// CornerEntities lists eight pre-built points. Their coordinates, mesh size
// and zone are copied; the block owns its own point entities.
type CornerEntities []*geom.Point

func (c CornerEntities) normalize() ([numCorners]corner, error) {
	var out [numCorners]corner
	if len(c) != numCorners {
		return out, &geom.ValidationError{Field: "points", Message: fmt.Sprintf("want %d corners, got %d", numCorners, len(c))}
	}
	for i, p := range c {
		if p == nil {
			return out, &geom.ValidationError{Field: fmt.Sprintf("points[%d]", i), Message: "nil point"}
		}
		out[i] = corner{coords: p.Coords, meshSize: p.MeshSize, zone: p.Zone}
	}
	return out, nil
}

// normalizeCurves returns twelve curve specs, filling in straight lines when
// none are given.
func normalizeCurves(specs []CurveSpec) ([numCurves]CurveSpec, error) {
	var out [numCurves]CurveSpec
	switch len(specs) {
	case 0:
		return out, nil
	case numCurves:
	default:
		return out, &geom.ValidationError{Field: "curves", Message: fmt.Sprintf("want 0 or %d curves, got %d", numCurves, len(specs))}
	}
	for i, cs := range specs {
		if err := kernel.ValidateCurvePoints(cs.Kind, len(cs.Interior)+2); err != nil {
			return out, fmt.Errorf("curves[%d]: %w", i, err)
		}
		out[i] = cs
	}
	return out, nil
}
