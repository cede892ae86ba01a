package block

import (
	"errors"
	"testing"

	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/kernel"
	"github.com/google/go-cmp/cmp"
)

func TestPointsVariants(t *testing.T) {
	box := func(x, y, z float64) [numCorners]geom.Vec3 {
		var out [numCorners]geom.Vec3
		tree := mustTree(t, &Spec{Points: BoxSize{x, y, z}})
		for i, p := range tree.Block(0).Points {
			out[i] = p.Coords
		}
		return out
	}
	want := box(2, 4, 6)

	var coords CornerCoords
	var records CornerRecords
	var ents CornerEntities
	for _, c := range want {
		coords = append(coords, []float64{c.X, c.Y, c.Z, 0.5})
		records = append(records, CornerRecord{Coords: c, MeshSize: 0.5, Zone: "wall"})
		ents = append(ents, &geom.Point{Coords: c, MeshSize: 0.5})
	}

	for name, ps := range map[string]PointsSpec{
		"coords":   coords,
		"records":  records,
		"entities": ents,
	} {
		t.Run(name, func(t *testing.T) {
			tree := mustTree(t, &Spec{Points: ps, Zone: "block"})
			b := tree.Block(0)
			var got [numCorners]geom.Vec3
			for i, p := range b.Points {
				got[i] = p.Coords
				if p.MeshSize != 0.5 {
					t.Errorf("corner %d mesh size = %v, want 0.5", i, p.MeshSize)
				}
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("corners mismatch (-want +got):\n%s", diff)
			}
		})
	}

	rt := mustTree(t, &Spec{Points: records, Zone: "block"})
	if z := rt.Block(0).Points[0].Zone; z != "wall" {
		t.Errorf("record zone = %q, want wall", z)
	}
	ct := mustTree(t, &Spec{Points: coords, Zone: "block"})
	if z := ct.Block(0).Points[0].Zone; z != "block" {
		t.Errorf("coords zone = %q, want block default", z)
	}
}

func TestCornerEntitiesAreCopied(t *testing.T) {
	var ents CornerEntities
	for i := 0; i < numCorners; i++ {
		ents = append(ents, &geom.Point{Coords: geom.Vec3{X: float64(i)}})
	}
	tree := mustTree(t, &Spec{Points: ents})
	if tree.Block(0).Points[3] == ents[3] {
		t.Error("block must own its point entities")
	}
}

func TestNormalizationErrors(t *testing.T) {
	tests := []struct {
		name string
		spec *Spec
	}{
		{"nil spec", nil},
		{"box two values", &Spec{Points: BoxSize{1, 2}}},
		{"box negative", &Spec{Points: BoxSize{1, -2, 3}}},
		{"seven coords", &Spec{Points: make(CornerCoords, 7)}},
		{"short coord", &Spec{Points: CornerCoords{{0, 0}, {}, {}, {}, {}, {}, {}, {}}}},
		{"nil entity", &Spec{Points: make(CornerEntities, 8)}},
		{"five curves", &Spec{Curves: make([]CurveSpec, 5)}},
		{"arc without center", &Spec{Curves: func() []CurveSpec {
			cs := make([]CurveSpec, numCurves)
			cs[2].Kind = geom.CurveCircleArc
			return cs
		}()}},
		{"child without block", &Spec{Children: []ChildSpec{{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTree(tt.spec)
			if !errors.Is(err, geom.ErrValidation) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}

func TestDefaultFlags(t *testing.T) {
	b := mustTree(t, &Spec{}).Block(0)
	got := [4]bool{b.DoRegister, b.DoRegisterChildren, b.DoUnregister, b.DoUnregisterChildren}
	if want := [4]bool{true, true, false, true}; got != want {
		t.Errorf("flags = %v, want %v", got, want)
	}
}

func TestCheckCurveOptions(t *testing.T) {
	curves := make([]CurveSpec, numCurves)
	normal := geom.Vec3{Z: 1}
	curves[0] = CurveSpec{
		Kind:     geom.CurveCircleArc,
		Interior: []geom.Vec3{{}},
		Options:  geom.CurveOptions{Normal: &normal},
	}
	tree := mustTree(t, &Spec{Curves: curves})
	if err := tree.CheckCurveOptions(kernel.BackendRecord); err != nil {
		t.Errorf("record backend: %v", err)
	}
	if err := tree.CheckCurveOptions(kernel.BackendSDFX); !errors.Is(err, geom.ErrValidation) {
		t.Errorf("sdfx backend err = %v, want validation error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		spec         *Spec
		wantErrors   int
		wantWarnings int
	}{
		{"default block", &Spec{}, 0, 0},
		{"nil", nil, 1, 0},
		{"bad curves and child", &Spec{Curves: make([]CurveSpec, 3), Children: []ChildSpec{{}}}, 2, 0},
		{"coincident corners", &Spec{Points: make(CornerCoords, 8).fill()}, numCurves, 0},
		{"nested error", &Spec{Children: []ChildSpec{{Block: &Spec{Points: BoxSize{0}}}}}, 1, 0},
		{"unregister never registered", &Spec{Register: Bool(false), Unregister: Bool(true)}, 0, 1},
		{"boolean level without children", &Spec{BooleanLevel: Int(2)}, 0, 1},
		{"quadrate without structure", &Spec{Quadrate: &geom.QuadrateOptions{}}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Validate(tt.spec)
			if len(r.Errors) != tt.wantErrors {
				t.Errorf("errors = %v, want %d", r.Errors, tt.wantErrors)
			}
			if len(r.Warnings) != tt.wantWarnings {
				t.Errorf("warnings = %v, want %d", r.Warnings, tt.wantWarnings)
			}
			if r.OK() != (tt.wantErrors == 0) {
				t.Errorf("OK() = %v", r.OK())
			}
		})
	}
}

// fill gives every corner the same coordinates.
func (c CornerCoords) fill() CornerCoords {
	for i := range c {
		c[i] = []float64{1, 1, 1}
	}
	return c
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Path: "root/children[0]", Message: "boom", Severity: SeverityWarning}
	if got, want := e.Error(), "[warning] root/children[0]: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
