// Package transform maps block points between coordinate systems.
//
// A Transform moves one point. Blocks hold an ordered list of transforms
// that runs child-local first and then carries outward through every
// ancestor; Chain models that list.
package transform

import (
	"fmt"
	"math"

	"github.com/chazu/blockgeo/pkg/geom"
)

// Context carries what a transform may consult besides the point itself.
type Context struct {
	// ParentCorners are the parent block's eight world-space corners in
	// reference order. Nil when the block has no parent or the parent has
	// not been transformed yet.
	ParentCorners *[8]geom.Vec3
}

// Transform maps a point to a new position.
type Transform interface {
	Apply(p geom.Vec3, ctx Context) (geom.Vec3, error)
}

// Compile-time interface checks.
var (
	_ Transform = Translate{}
	_ Transform = Rotate{}
	_ Transform = Scale{}
	_ Transform = Affine{}
	_ Transform = Cylindrical{}
	_ Transform = BlockLocal{}
)

// ---------------------------------------------------------------------------
// Rigid and linear transforms
// ---------------------------------------------------------------------------

// Translate shifts a point by Delta.
type Translate struct {
	Delta geom.Vec3
}

func (t Translate) Apply(p geom.Vec3, _ Context) (geom.Vec3, error) {
	return p.Add(t.Delta), nil
}

// Rotate turns a point by Angle degrees about the axis through Origin with
// direction Axis, counter-clockwise when looking down the axis.
type Rotate struct {
	Origin geom.Vec3
	Axis   geom.Vec3
	Angle  float64 // degrees
}

func (r Rotate) Apply(p geom.Vec3, _ Context) (geom.Vec3, error) {
	n := math.Sqrt(r.Axis.X*r.Axis.X + r.Axis.Y*r.Axis.Y + r.Axis.Z*r.Axis.Z)
	if n == 0 {
		return geom.Vec3{}, &geom.ValidationError{Field: "rotate", Message: "axis must be non-zero"}
	}
	k := r.Axis.Scale(1 / n)
	v := p.Sub(r.Origin)
	theta := r.Angle * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)

	// Rodrigues: v cos + (k x v) sin + k (k.v)(1 - cos)
	cross := geom.Vec3{
		X: k.Y*v.Z - k.Z*v.Y,
		Y: k.Z*v.X - k.X*v.Z,
		Z: k.X*v.Y - k.Y*v.X,
	}
	dot := k.X*v.X + k.Y*v.Y + k.Z*v.Z
	out := v.Scale(cos).Add(cross.Scale(sin)).Add(k.Scale(dot * (1 - cos)))
	return out.Add(r.Origin), nil
}

// Scale stretches a point away from Origin by a per-axis Factor.
type Scale struct {
	Origin geom.Vec3
	Factor geom.Vec3
}

func (s Scale) Apply(p geom.Vec3, _ Context) (geom.Vec3, error) {
	v := p.Sub(s.Origin)
	return geom.Vec3{X: v.X * s.Factor.X, Y: v.Y * s.Factor.Y, Z: v.Z * s.Factor.Z}.Add(s.Origin), nil
}

// Affine applies a 3x4 matrix: the left 3x3 block is linear, the last
// column is the translation.
type Affine struct {
	Matrix [3][4]float64
}

func (a Affine) Apply(p geom.Vec3, _ Context) (geom.Vec3, error) {
	in := [4]float64{p.X, p.Y, p.Z, 1}
	var out [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			out[i] += a.Matrix[i][j] * in[j]
		}
	}
	return geom.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

// Cylindrical reads a point as (r, phi, z) with phi in degrees and returns
// its Cartesian position relative to Origin.
type Cylindrical struct {
	Origin geom.Vec3
}

func (c Cylindrical) Apply(p geom.Vec3, _ Context) (geom.Vec3, error) {
	if p.X < 0 {
		return geom.Vec3{}, &geom.ValidationError{Field: "cylindrical", Message: fmt.Sprintf("negative radius %g", p.X)}
	}
	phi := p.Y * math.Pi / 180
	return geom.Vec3{X: p.X * math.Cos(phi), Y: p.X * math.Sin(phi), Z: p.Z}.Add(c.Origin), nil
}

// ---------------------------------------------------------------------------
// Block coordinate system
// ---------------------------------------------------------------------------

// ReferenceCorners are the corners of the reference cube [-1,1]^3 in the
// order every block uses for its eight points.
var ReferenceCorners = [8]geom.Vec3{
	{X: -1, Y: -1, Z: -1},
	{X: 1, Y: -1, Z: -1},
	{X: 1, Y: 1, Z: -1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: 1},
}

// Trilinear interpolates the reference-cube coordinates xi against eight
// corners given in ReferenceCorners order.
func Trilinear(corners [8]geom.Vec3, xi geom.Vec3) geom.Vec3 {
	var out geom.Vec3
	for i, ref := range ReferenceCorners {
		w := (1 + xi.X*ref.X) * (1 + xi.Y*ref.Y) * (1 + xi.Z*ref.Z) / 8
		out = out.Add(corners[i].Scale(w))
	}
	return out
}

// BlockLocal reads a point as (xi, eta, zeta) in [-1,1]^3 and places it
// inside the parent block by trilinear interpolation of the parent's world
// corners. The result is already in world space.
type BlockLocal struct{}

func (BlockLocal) Apply(p geom.Vec3, ctx Context) (geom.Vec3, error) {
	if ctx.ParentCorners == nil {
		return geom.Vec3{}, &geom.OrderingError{Op: "block-local transform", Message: "parent must exist with Block Coordinate System"}
	}
	return Trilinear(*ctx.ParentCorners, p), nil
}

// ---------------------------------------------------------------------------
// Chains
// ---------------------------------------------------------------------------

// Chain is a block's ordered transform list. Transforms at index Inherited
// and beyond were appended by ancestors. Once a BlockLocal has placed a
// point in world space, those inherited transforms are skipped since the
// parent corners already include them.
type Chain struct {
	Transforms []Transform
	Inherited  int
}

// Len returns the number of transforms in the chain.
func (c Chain) Len() int { return len(c.Transforms) }

// Extend returns a chain for a child block: the child's own transforms,
// then child-specific ones, then everything in c.
func (c Chain) Extend(own, specific []Transform) Chain {
	out := make([]Transform, 0, len(own)+len(specific)+len(c.Transforms))
	out = append(out, own...)
	out = append(out, specific...)
	out = append(out, c.Transforms...)
	return Chain{Transforms: out, Inherited: len(own) + len(specific)}
}

// Apply runs the chain on p.
func (c Chain) Apply(p geom.Vec3, ctx Context) (geom.Vec3, error) {
	world := false
	for i, t := range c.Transforms {
		if world && i >= c.Inherited {
			break
		}
		var err error
		p, err = t.Apply(p, ctx)
		if err != nil {
			return geom.Vec3{}, fmt.Errorf("transform %d (%T): %w", i, t, err)
		}
		if _, ok := t.(BlockLocal); ok {
			world = true
		}
	}
	return p, nil
}
