// Package blockfile decodes HCL block-tree files into block specs.
//
// A file holds one root block. Nested blocks are its children, in file
// order:
//
//	block "shell" {
//	  size = 10
//
//	  block "core" {
//	    size = [2, 2, 4]
//	    zone = "solid"
//	    placement "translate" { delta = [0, 0, 1] }
//	  }
//	}
//
// transform blocks belong to the block itself; placement blocks are the
// child-specific transforms its parent applies.
package blockfile

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/chazu/blockgeo/pkg/block"
	"github.com/chazu/blockgeo/pkg/ctxlog"
	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/transform"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Load parses and decodes the HCL file at path.
func Load(ctx context.Context, path string) (*block.Spec, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("decoding block file", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blockfile: %w", err)
	}
	spec, err := Parse(src, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("decoded block file", "path", path, "root", spec.Name, "children", len(spec.Children))
	return spec, nil
}

// Parse decodes HCL source. filename is used in diagnostics only.
func Parse(src []byte, filename string) (*block.Spec, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("blockfile: failed to parse %s: %w", filename, diags)
	}

	var fs fileSchema
	diags = gohcl.DecodeBody(file.Body, nil, &fs)
	if diags.HasErrors() {
		return nil, fmt.Errorf("blockfile: failed to decode %s: %w", filename, diags)
	}
	if len(fs.Blocks) != 1 {
		return nil, fmt.Errorf("blockfile: %s: want exactly one root block, got %d", filename, len(fs.Blocks))
	}

	root := fs.Blocks[0]
	if len(root.Placement) > 0 {
		return nil, fmt.Errorf("blockfile: %s: root block %q cannot have placement transforms", filename, root.Name)
	}
	spec, err := toSpec(root)
	if err != nil {
		return nil, fmt.Errorf("blockfile: %s: %w", filename, err)
	}
	return spec, nil
}

func toSpec(bs *blockSchema) (*block.Spec, error) {
	spec := &block.Spec{
		Name:               bs.Name,
		BooleanLevel:       bs.BooleanLevel,
		Register:           bs.Register,
		RegisterChildren:   bs.RegisterChildren,
		Unregister:         bs.Unregister,
		UnregisterChildren: bs.UnregisterChildren,
	}
	if bs.Zone != nil {
		spec.Zone = *bs.Zone
	}
	if bs.MeshSize != nil {
		spec.MeshSize = *bs.MeshSize
	}
	if bs.Surface != nil {
		kind, err := geom.ParseSurfaceKind(*bs.Surface)
		if err != nil {
			return nil, fmt.Errorf("block %q: %w", bs.Name, err)
		}
		spec.SurfaceKind = kind
	}

	points, err := pointsSpec(bs.Size, bs.Points)
	if err != nil {
		return nil, fmt.Errorf("block %q: %w", bs.Name, err)
	}
	spec.Points = points

	if spec.Transforms, err = transforms(bs.Transforms); err != nil {
		return nil, fmt.Errorf("block %q: %w", bs.Name, err)
	}
	if spec.Curves, err = curves(bs.Curves); err != nil {
		return nil, fmt.Errorf("block %q: %w", bs.Name, err)
	}
	if bs.Structure != nil {
		if spec.Structure, err = structure(bs.Structure); err != nil {
			return nil, fmt.Errorf("block %q: structure: %w", bs.Name, err)
		}
	}
	if bs.Quadrate != nil {
		q := &geom.QuadrateOptions{}
		if bs.Quadrate.Angle != nil {
			q.Angle = *bs.Quadrate.Angle
		}
		spec.Quadrate = q
	}

	for _, cs := range bs.Children {
		child, err := toSpec(cs)
		if err != nil {
			return nil, err
		}
		placement, err := transforms(cs.Placement)
		if err != nil {
			return nil, fmt.Errorf("block %q: placement: %w", cs.Name, err)
		}
		spec.Children = append(spec.Children, block.ChildSpec{Transforms: placement, Block: child})
	}
	return spec, nil
}

func transforms(list []*transformSchema) ([]transform.Transform, error) {
	var out []transform.Transform
	for i, ts := range list {
		t, err := toTransform(ts)
		if err != nil {
			return nil, fmt.Errorf("transform %d (%s): %w", i, ts.Type, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func toTransform(ts *transformSchema) (transform.Transform, error) {
	switch ts.Type {
	case "translate":
		d, err := vec3(ts.Delta, "delta")
		if err != nil {
			return nil, err
		}
		return transform.Translate{Delta: d}, nil

	case "rotate":
		if ts.Angle == nil {
			return nil, fmt.Errorf("angle is required")
		}
		r := transform.Rotate{Angle: *ts.Angle, Axis: geom.Vec3{Z: 1}}
		var err error
		if ts.Axis != nil {
			if r.Axis, err = vec3(ts.Axis, "axis"); err != nil {
				return nil, err
			}
		}
		if ts.Origin != nil {
			if r.Origin, err = vec3(ts.Origin, "origin"); err != nil {
				return nil, err
			}
		}
		return r, nil

	case "scale":
		f, err := perAxis(ts.Factor, 1)
		if err != nil {
			return nil, fmt.Errorf("factor: %w", err)
		}
		s := transform.Scale{Factor: geom.Vec3{X: f[0], Y: f[1], Z: f[2]}}
		if ts.Origin != nil {
			if s.Origin, err = vec3(ts.Origin, "origin"); err != nil {
				return nil, err
			}
		}
		return s, nil

	case "affine":
		if len(ts.Matrix) != 12 {
			return nil, fmt.Errorf("matrix: want 12 numbers, got %d", len(ts.Matrix))
		}
		var a transform.Affine
		for i := 0; i < 3; i++ {
			copy(a.Matrix[i][:], ts.Matrix[i*4:i*4+4])
		}
		return a, nil

	case "cylindrical":
		var c transform.Cylindrical
		if ts.Origin != nil {
			var err error
			if c.Origin, err = vec3(ts.Origin, "origin"); err != nil {
				return nil, err
			}
		}
		return c, nil

	case "block_local":
		return transform.BlockLocal{}, nil
	}
	return nil, fmt.Errorf("unknown transform type %q", ts.Type)
}

func curves(cs []*curveSchema) ([]block.CurveSpec, error) {
	if len(cs) == 0 {
		return nil, nil
	}
	out := make([]block.CurveSpec, 12)
	seen := make(map[int]bool)
	for _, c := range cs {
		idx, err := strconv.Atoi(c.Index)
		if err != nil || idx < 0 || idx >= len(out) {
			return nil, fmt.Errorf("curve %q: index must be 0..11", c.Index)
		}
		if seen[idx] {
			return nil, fmt.Errorf("curve %d defined twice", idx)
		}
		seen[idx] = true

		kind, err := geom.ParseCurveKind(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("curve %d: %w", idx, err)
		}
		spec := block.CurveSpec{Kind: kind}
		for i, v := range c.Via {
			p, err := vec3(v, fmt.Sprintf("via[%d]", i))
			if err != nil {
				return nil, fmt.Errorf("curve %d: %w", idx, err)
			}
			spec.Interior = append(spec.Interior, p)
		}
		if c.Normal != nil {
			n, err := vec3(c.Normal, "normal")
			if err != nil {
				return nil, fmt.Errorf("curve %d: %w", idx, err)
			}
			spec.Options.Normal = &n
		}
		if c.Degree != nil {
			spec.Options.Degree = *c.Degree
		}
		spec.Options.Weights = c.Weights
		out[idx] = spec
	}
	return out, nil
}

func structure(ss *structureSchema) (*block.StructureSpec, error) {
	nodes, err := perAxis(ss.Nodes, 2)
	if err != nil {
		return nil, fmt.Errorf("nodes: %w", err)
	}
	progression, err := perAxis(ss.Progression, 1)
	if err != nil {
		return nil, fmt.Errorf("progression: %w", err)
	}
	var typ string
	if ss.Type != nil {
		typ = *ss.Type
	}
	out := &block.StructureSpec{}
	for i := range out.Curves {
		n := int(nodes[i])
		if float64(n) != nodes[i] || n < 2 {
			return nil, fmt.Errorf("nodes: want an integer >= 2 per axis, got %g", nodes[i])
		}
		out.Curves[i] = geom.CurveStructure{Nodes: n, Progression: progression[i], Type: typ}
	}
	if ss.Arrangement != nil {
		out.Surface.Arrangement = *ss.Arrangement
	}
	if ss.Volume == nil || *ss.Volume {
		out.Volume = &geom.VolumeStructure{}
	}
	return out, nil
}

func vec3(v []float64, field string) (geom.Vec3, error) {
	if len(v) != 3 {
		return geom.Vec3{}, fmt.Errorf("%s: want 3 values, got %d", field, len(v))
	}
	return geom.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}
