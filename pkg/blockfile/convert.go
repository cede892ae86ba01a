package blockfile

import (
	"fmt"

	"github.com/chazu/blockgeo/pkg/block"
	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// value evaluates a literal attribute expression. A missing optional
// attribute evaluates to null.
func value(expr hcl.Expression) (cty.Value, error) {
	if expr == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return v, nil
}

// decode converts v to ty and stores it in target.
func decode(v cty.Value, ty cty.Type, target any) error {
	converted, err := convert.Convert(v, ty)
	if err != nil {
		return fmt.Errorf("cannot convert %s to %s: %w", v.Type().FriendlyName(), ty.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, target)
}

// numbers reads a number or a sequence of numbers.
func numbers(v cty.Value) ([]float64, error) {
	if v.Type() == cty.Number {
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		return []float64{f}, nil
	}
	var out []float64
	if err := decode(v, cty.List(cty.Number), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// perAxis reads a number or a list of three numbers. A missing attribute
// yields def on every axis.
func perAxis(expr hcl.Expression, def float64) ([3]float64, error) {
	v, err := value(expr)
	if err != nil {
		return [3]float64{}, err
	}
	if v.IsNull() {
		return [3]float64{def, def, def}, nil
	}
	nums, err := numbers(v)
	if err != nil {
		return [3]float64{}, err
	}
	switch len(nums) {
	case 1:
		return [3]float64{nums[0], nums[0], nums[0]}, nil
	case 3:
		return [3]float64{nums[0], nums[1], nums[2]}, nil
	}
	return [3]float64{}, fmt.Errorf("want 1 or 3 values, got %d", len(nums))
}

// cornerRecord is the object form of one corner in a points list.
type cornerRecord struct {
	Coords   []float64 `cty:"coords"`
	MeshSize *float64  `cty:"mesh_size"`
	Zone     *string   `cty:"zone"`
}

// pointsSpec picks the PointsSpec variant from the size and points
// attributes. Neither set selects the default box.
func pointsSpec(sizeExpr, pointsExpr hcl.Expression) (block.PointsSpec, error) {
	size, err := value(sizeExpr)
	if err != nil {
		return nil, fmt.Errorf("size: %w", err)
	}
	points, err := value(pointsExpr)
	if err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}

	switch {
	case !size.IsNull() && !points.IsNull():
		return nil, &geom.ValidationError{Field: "points", Message: "size and points are mutually exclusive"}
	case !size.IsNull():
		nums, err := numbers(size)
		if err != nil {
			return nil, fmt.Errorf("size: %w", err)
		}
		return block.BoxSize(nums), nil
	case points.IsNull():
		return nil, nil
	}

	ty := points.Type()
	if !ty.IsTupleType() && !ty.IsListType() {
		return nil, fmt.Errorf("points: want a list, got %s", ty.FriendlyName())
	}

	// Records are objects; bare coordinates are number sequences.
	var records bool
	it := points.ElementIterator()
	for it.Next() {
		_, ev := it.Element()
		if ev.Type().IsObjectType() || ev.Type().IsMapType() {
			records = true
		}
	}

	if !records {
		var coords [][]float64
		if err := decode(points, cty.List(cty.List(cty.Number)), &coords); err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
		return block.CornerCoords(coords), nil
	}

	var out block.CornerRecords
	it = points.ElementIterator()
	for i := 0; it.Next(); i++ {
		_, ev := it.Element()
		rec, err := cornerFromObject(ev)
		if err != nil {
			return nil, fmt.Errorf("points[%d]: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func cornerFromObject(v cty.Value) (block.CornerRecord, error) {
	if !v.Type().IsObjectType() {
		return block.CornerRecord{}, fmt.Errorf("want an object, got %s", v.Type().FriendlyName())
	}
	var rec cornerRecord
	attrs := map[string]cty.Type{
		"coords":    cty.List(cty.Number),
		"mesh_size": cty.Number,
		"zone":      cty.String,
	}
	obj := make(map[string]cty.Value, len(attrs))
	for name, ty := range attrs {
		obj[name] = cty.NullVal(ty)
	}
	for name := range v.Type().AttributeTypes() {
		if _, ok := attrs[name]; !ok {
			return block.CornerRecord{}, fmt.Errorf("unknown attribute %q", name)
		}
		obj[name] = v.GetAttr(name)
	}
	if err := decode(cty.ObjectVal(obj), cty.Object(attrs), &rec); err != nil {
		return block.CornerRecord{}, err
	}
	c, err := vec3(rec.Coords, "coords")
	if err != nil {
		return block.CornerRecord{}, err
	}
	out := block.CornerRecord{Coords: c}
	if rec.MeshSize != nil {
		out.MeshSize = *rec.MeshSize
	}
	if rec.Zone != nil {
		out.Zone = *rec.Zone
	}
	return out, nil
}
