package blockfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/blockgeo/pkg/block"
	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/transform"
	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, src string) *block.Spec {
	t.Helper()
	spec, err := Parse([]byte(src), "test.hcl")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return spec
}

func TestParseSimpleBlock(t *testing.T) {
	spec := mustParse(t, `
block "box" {
  size      = [2, 4, 6]
  zone      = "fluid"
  mesh_size = 0.25
  surface   = "filling"
}
`)
	want := &block.Spec{
		Name:        "box",
		Points:      block.BoxSize{2, 4, 6},
		Zone:        "fluid",
		MeshSize:    0.25,
		SurfaceKind: geom.SurfaceFilling,
	}
	if diff := cmp.Diff(want, spec); diff != "" {
		t.Errorf("spec mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePointsVariants(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want block.PointsSpec
	}{
		{"cube", `block "b" { size = 3 }`, block.BoxSize{3}},
		{"default", `block "b" {}`, nil},
		{
			"coords",
			`block "b" { points = [[0,0,0],[1,0,0],[1,1,0],[0,1,0,0.5],[0,0,1],[1,0,1],[1,1,1],[0,1,1]] }`,
			block.CornerCoords{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0, 0.5}, {0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
		},
		{
			"records",
			`block "b" {
  points = [
    { coords = [0, 0, 0], mesh_size = 0.1, zone = "wall" },
    { coords = [1, 0, 0] },
  ]
}`,
			block.CornerRecords{
				{Coords: geom.Vec3{}, MeshSize: 0.1, Zone: "wall"},
				{Coords: geom.Vec3{X: 1}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := mustParse(t, tt.src)
			if diff := cmp.Diff(tt.want, spec.Points); diff != "" {
				t.Errorf("points mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseChildrenInOrder(t *testing.T) {
	spec := mustParse(t, `
block "shell" {
  size = 10
  transform "rotate" {
    angle = 90
  }

  block "lower" {
    size = 2
    placement "translate" { delta = [0, 0, -1] }
  }

  block "upper" {
    size = 2
    transform "scale" { factor = [1, 1, 2] }
    placement "block_local" {}
  }
}
`)
	if diff := cmp.Diff([]transform.Transform{transform.Rotate{Axis: geom.Vec3{Z: 1}, Angle: 90}}, spec.Transforms); diff != "" {
		t.Errorf("root transforms mismatch (-want +got):\n%s", diff)
	}
	var names []string
	for _, c := range spec.Children {
		names = append(names, c.Block.Name)
	}
	if diff := cmp.Diff([]string{"lower", "upper"}, names); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
	lower, upper := spec.Children[0], spec.Children[1]
	if diff := cmp.Diff([]transform.Transform{transform.Translate{Delta: geom.Vec3{Z: -1}}}, lower.Transforms); diff != "" {
		t.Errorf("lower placement mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]transform.Transform{transform.BlockLocal{}}, upper.Transforms); diff != "" {
		t.Errorf("upper placement mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]transform.Transform{transform.Scale{Factor: geom.Vec3{X: 1, Y: 1, Z: 2}}}, upper.Block.Transforms); diff != "" {
		t.Errorf("upper own transforms mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTransformTypes(t *testing.T) {
	spec := mustParse(t, `
block "b" {
  transform "affine" { matrix = [1,0,0,5, 0,1,0,0, 0,0,1,0] }
  transform "cylindrical" { origin = [0, 0, 1] }
  transform "rotate" {
    angle  = 45
    axis   = [1, 0, 0]
    origin = [0, 1, 0]
  }
  transform "scale" {
    factor = 2
    origin = [1, 1, 1]
  }
}
`)
	want := []transform.Transform{
		transform.Affine{Matrix: [3][4]float64{{1, 0, 0, 5}, {0, 1, 0, 0}, {0, 0, 1, 0}}},
		transform.Cylindrical{Origin: geom.Vec3{Z: 1}},
		transform.Rotate{Angle: 45, Axis: geom.Vec3{X: 1}, Origin: geom.Vec3{Y: 1}},
		transform.Scale{Factor: geom.Vec3{X: 2, Y: 2, Z: 2}, Origin: geom.Vec3{X: 1, Y: 1, Z: 1}},
	}
	if diff := cmp.Diff(want, spec.Transforms); diff != "" {
		t.Errorf("transforms mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStructureQuadrateAndFlags(t *testing.T) {
	spec := mustParse(t, `
block "b" {
  boolean_level       = 1
  register            = true
  unregister_children = false

  structure {
    nodes       = [5, 6, 3]
    progression = 1.1
    type        = "Progression"
    arrangement = "Left"
  }
  quadrate {
    angle = 30
  }
}
`)
	want := &block.StructureSpec{
		Curves: [3]geom.CurveStructure{
			{Nodes: 5, Progression: 1.1, Type: "Progression"},
			{Nodes: 6, Progression: 1.1, Type: "Progression"},
			{Nodes: 3, Progression: 1.1, Type: "Progression"},
		},
		Surface: geom.SurfaceStructure{Arrangement: "Left"},
		Volume:  &geom.VolumeStructure{},
	}
	if diff := cmp.Diff(want, spec.Structure); diff != "" {
		t.Errorf("structure mismatch (-want +got):\n%s", diff)
	}
	if spec.Quadrate == nil || spec.Quadrate.Angle != 30 {
		t.Errorf("quadrate = %+v", spec.Quadrate)
	}
	if spec.BooleanLevel == nil || *spec.BooleanLevel != 1 {
		t.Errorf("boolean level = %v", spec.BooleanLevel)
	}
	if spec.Register == nil || !*spec.Register || spec.UnregisterChildren == nil || *spec.UnregisterChildren {
		t.Errorf("flags: register=%v unregister_children=%v", spec.Register, spec.UnregisterChildren)
	}
	if spec.Unregister != nil || spec.RegisterChildren != nil {
		t.Error("unset flags should stay nil")
	}

	spec = mustParse(t, `block "b" {
  structure {
    volume = false
  }
}`)
	if spec.Structure.Volume != nil {
		t.Error("volume structure should be off")
	}
	if spec.Structure.Curves[0].Nodes != 2 || spec.Structure.Curves[0].Progression != 1 {
		t.Errorf("defaults = %+v", spec.Structure.Curves[0])
	}
}

func TestParseCurves(t *testing.T) {
	spec := mustParse(t, `
block "b" {
  curve "4" {
    kind   = "circle_arc"
    via    = [[-1, 0, -1]]
    normal = [0, 1, 0]
  }
  curve "9" {
    kind    = "bspline"
    via     = [[1, 0, 0], [1.2, 0, 0.5]]
    degree  = 3
  }
}
`)
	if len(spec.Curves) != 12 {
		t.Fatalf("got %d curves, want 12", len(spec.Curves))
	}
	normal := geom.Vec3{Y: 1}
	want4 := block.CurveSpec{
		Kind:     geom.CurveCircleArc,
		Interior: []geom.Vec3{{X: -1, Z: -1}},
		Options:  geom.CurveOptions{Normal: &normal},
	}
	if diff := cmp.Diff(want4, spec.Curves[4]); diff != "" {
		t.Errorf("curve 4 mismatch (-want +got):\n%s", diff)
	}
	if spec.Curves[9].Kind != geom.CurveBSpline || spec.Curves[9].Options.Degree != 3 {
		t.Errorf("curve 9 = %+v", spec.Curves[9])
	}
	if spec.Curves[0].Kind != geom.CurveLine {
		t.Errorf("unlisted curve kind = %s, want line", spec.Curves[0].Kind)
	}
	if _, err := block.NewTree(spec); err != nil {
		t.Errorf("decoded curves should build a tree: %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `block "b" {`, "parse"},
		{"no root", ``, "exactly one root block"},
		{"two roots", `block "a" {}
block "b" {}`, "exactly one root block"},
		{"unknown attribute", `block "b" { colour = "red" }`, "decode"},
		{"size and points", `block "b" {
  size   = 1
  points = [[0, 0, 0]]
}`, "mutually exclusive"},
		{"size wrong type", `block "b" { size = "big" }`, "size"},
		{"unknown transform", `block "b" {
  transform "shear" {}
}`, "unknown transform type"},
		{"rotate without angle", `block "b" {
  transform "rotate" {}
}`, "angle is required"},
		{"translate short", `block "b" {
  transform "translate" { delta = [1, 2] }
}`, "delta"},
		{"curve index", `block "b" {
  curve "12" { kind = "line" }
}`, "index"},
		{"duplicate curve", `block "b" {
  curve "1" { kind = "line" }
  curve "1" { kind = "line" }
}`, "twice"},
		{"fractional nodes", `block "b" {
  structure { nodes = 2.5 }
}`, "integer"},
		{"root placement", `block "b" {
  placement "translate" { delta = [0, 0, 1] }
}`, "placement"},
		{"record attribute", `block "b" {
  points = [{ coords = [0, 0, 0], weight = 2 }]
}`, "weight"},
		{"surface kind", `block "b" { surface = "sphere" }`, "surface kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "test.hcl")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestSizeAndPointsIsValidationError(t *testing.T) {
	_, err := Parse([]byte(`block "b" {
  size   = 1
  points = [[0, 0, 0]]
}`), "test.hcl")
	if !errors.Is(err, geom.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.hcl")
	if err := os.WriteFile(path, []byte(`block "root" { size = 1 }`), 0o644); err != nil {
		t.Fatal(err)
	}
	spec, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if spec.Name != "root" {
		t.Errorf("name = %q, want root", spec.Name)
	}

	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.hcl")); err == nil {
		t.Error("expected error for missing file")
	}
}
