package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/blockgeo/pkg/geom"
)

func near(a, b geom.Vec3) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

func TestTransforms(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		in   geom.Vec3
		want geom.Vec3
	}{
		{"translate", Translate{Delta: geom.Vec3{X: 1, Y: 2, Z: 3}}, geom.Vec3{X: 1}, geom.Vec3{X: 2, Y: 2, Z: 3}},
		{"rotate z 90", Rotate{Axis: geom.Vec3{Z: 1}, Angle: 90}, geom.Vec3{X: 1}, geom.Vec3{Y: 1}},
		{"rotate about offset origin", Rotate{Origin: geom.Vec3{X: 1}, Axis: geom.Vec3{Z: 2}, Angle: 180}, geom.Vec3{X: 2}, geom.Vec3{}},
		{"rotate x 90", Rotate{Axis: geom.Vec3{X: 1}, Angle: 90}, geom.Vec3{Y: 1}, geom.Vec3{Z: 1}},
		{"scale", Scale{Factor: geom.Vec3{X: 2, Y: 3, Z: 4}}, geom.Vec3{X: 1, Y: 1, Z: 1}, geom.Vec3{X: 2, Y: 3, Z: 4}},
		{"scale about origin", Scale{Origin: geom.Vec3{X: 1, Y: 1, Z: 1}, Factor: geom.Vec3{X: 2, Y: 2, Z: 2}}, geom.Vec3{X: 2, Y: 1, Z: 0}, geom.Vec3{X: 3, Y: 1, Z: -1}},
		{"affine", Affine{Matrix: [3][4]float64{{0, -1, 0, 5}, {1, 0, 0, 0}, {0, 0, 1, -1}}}, geom.Vec3{X: 1, Y: 2, Z: 3}, geom.Vec3{X: 3, Y: 1, Z: 2}},
		{"cylindrical", Cylindrical{}, geom.Vec3{X: 2, Y: 90, Z: 7}, geom.Vec3{Y: 2, Z: 7}},
		{"cylindrical origin", Cylindrical{Origin: geom.Vec3{X: 1}}, geom.Vec3{X: 1, Y: 180}, geom.Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.tr.Apply(tt.in, Context{})
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !near(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInvalidTransforms(t *testing.T) {
	if _, err := (Rotate{Angle: 10}).Apply(geom.Vec3{X: 1}, Context{}); !errors.Is(err, geom.ErrValidation) {
		t.Errorf("zero axis err = %v, want validation error", err)
	}
	if _, err := (Cylindrical{}).Apply(geom.Vec3{X: -1}, Context{}); !errors.Is(err, geom.ErrValidation) {
		t.Errorf("negative radius err = %v, want validation error", err)
	}
}

func TestTrilinearCorners(t *testing.T) {
	var corners [8]geom.Vec3
	for i, ref := range ReferenceCorners {
		// An arbitrary non-affine hexahedron.
		corners[i] = geom.Vec3{X: ref.X*3 + float64(i)*0.1, Y: ref.Y * 2, Z: ref.Z + 10}
	}
	for i, ref := range ReferenceCorners {
		if got := Trilinear(corners, ref); !near(got, corners[i]) {
			t.Errorf("corner %d: got %v, want %v", i, got, corners[i])
		}
	}
	var centroid geom.Vec3
	for _, c := range corners {
		centroid = centroid.Add(c.Scale(1.0 / 8))
	}
	if got := Trilinear(corners, geom.Vec3{}); !near(got, centroid) {
		t.Errorf("center: got %v, want %v", got, centroid)
	}
}

func TestBlockLocalNeedsParent(t *testing.T) {
	_, err := BlockLocal{}.Apply(geom.Vec3{}, Context{})
	if !errors.Is(err, geom.ErrOrdering) {
		t.Fatalf("err = %v, want ordering error", err)
	}

	parent := ReferenceCorners
	for i := range parent {
		parent[i] = parent[i].Scale(5)
	}
	got, err := BlockLocal{}.Apply(geom.Vec3{X: 0.5, Y: -1, Z: 0}, Context{ParentCorners: &parent})
	if err != nil {
		t.Fatal(err)
	}
	if want := (geom.Vec3{X: 2.5, Y: -5}); !near(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestChainOrder(t *testing.T) {
	root := Chain{}.Extend([]Transform{Rotate{Axis: geom.Vec3{Z: 1}, Angle: 90}}, nil)
	child := root.Extend(
		[]Transform{Translate{Delta: geom.Vec3{X: 1}}},
		[]Transform{Scale{Factor: geom.Vec3{X: 2, Y: 2, Z: 2}}},
	)
	if child.Len() != 3 || child.Inherited != 2 {
		t.Fatalf("child chain = %d transforms, inherited at %d", child.Len(), child.Inherited)
	}
	// Own translate, then child-specific scale, then the parent's rotation.
	got, err := child.Apply(geom.Vec3{}, Context{})
	if err != nil {
		t.Fatal(err)
	}
	if want := (geom.Vec3{Y: 2}); !near(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestChainSkipsInheritedAfterBlockLocal(t *testing.T) {
	parent := ReferenceCorners
	root := Chain{}.Extend([]Transform{Translate{Delta: geom.Vec3{Z: 100}}}, nil)
	child := root.Extend([]Transform{BlockLocal{}}, nil)

	got, err := child.Apply(geom.Vec3{X: 1, Y: 1, Z: 1}, Context{ParentCorners: &parent})
	if err != nil {
		t.Fatal(err)
	}
	if want := (geom.Vec3{X: 1, Y: 1, Z: 1}); !near(got, want) {
		t.Errorf("inherited translation re-applied: got %v, want %v", got, want)
	}
}

func TestChainWrapsErrors(t *testing.T) {
	c := Chain{}.Extend([]Transform{Translate{}, BlockLocal{}}, nil)
	_, err := c.Apply(geom.Vec3{}, Context{})
	if !errors.Is(err, geom.ErrOrdering) {
		t.Errorf("err = %v, want wrapped ordering error", err)
	}
}
