package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/kernel"
)

// boxShell records a four-curve loop whose points span lo..hi and wraps it
// in a shell. Only the bounds matter to the sdfx backend.
func boxShell(t *testing.T, k *SdfxKernel, lo, hi geom.Vec3) geom.Tag {
	t.Helper()
	corners := []geom.Vec3{
		lo,
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		hi,
		{X: lo.X, Y: hi.Y, Z: hi.Z},
	}
	var pts []geom.Tag
	for _, c := range corners {
		tag, err := k.CreatePoint(0, c, 0)
		if err != nil {
			t.Fatalf("CreatePoint: %v", err)
		}
		pts = append(pts, tag)
	}
	var curves []geom.Tag
	for i := range pts {
		tag, err := k.CreateCurve(0, geom.CurveLine, []geom.Tag{pts[i], pts[(i+1)%len(pts)]}, geom.CurveOptions{})
		if err != nil {
			t.Fatalf("CreateCurve: %v", err)
		}
		curves = append(curves, tag)
	}
	loop, err := k.CreateCurveLoop(0, curves)
	if err != nil {
		t.Fatalf("CreateCurveLoop: %v", err)
	}
	surf, err := k.CreateSurface(0, geom.SurfacePlane, []geom.Tag{loop})
	if err != nil {
		t.Fatalf("CreateSurface: %v", err)
	}
	shell, err := k.CreateSurfaceLoop(0, []geom.Tag{surf})
	if err != nil {
		t.Fatalf("CreateSurfaceLoop: %v", err)
	}
	return shell
}

func assertBounds(t *testing.T, s kernel.Solid, wantMin, wantMax [3]float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > 1e-6 {
			t.Errorf("min[%d] = %f, want %f", i, min[i], wantMin[i])
		}
		if math.Abs(max[i]-wantMax[i]) > 1e-6 {
			t.Errorf("max[%d] = %f, want %f", i, max[i], wantMax[i])
		}
	}
}

func TestCreateVolumeBuildsSolid(t *testing.T) {
	k := New(20)
	shell := boxShell(t, k, geom.Vec3{X: 10, Y: 20, Z: 30}, geom.Vec3{X: 20, Y: 40, Z: 60})
	vol, err := k.CreateVolume(0, []geom.Tag{shell})
	if err != nil {
		t.Fatalf("CreateVolume: %v", err)
	}
	s, ok := k.Solid(vol)
	if !ok {
		t.Fatal("no solid for created volume")
	}
	assertBounds(t, s, [3]float64{10, 20, 30}, [3]float64{20, 40, 60})
}

func TestCreateVolumeWithCavity(t *testing.T) {
	k := New(20)
	outer := boxShell(t, k, geom.Vec3{X: -5, Y: -5, Z: -5}, geom.Vec3{X: 5, Y: 5, Z: 5})
	inner := boxShell(t, k, geom.Vec3{X: -1, Y: -1, Z: -1}, geom.Vec3{X: 1, Y: 1, Z: 1})
	vol, err := k.CreateVolume(0, []geom.Tag{outer, inner})
	if err != nil {
		t.Fatalf("CreateVolume: %v", err)
	}
	s, _ := k.Solid(vol)
	// The cavity is internal, so the outer bounds are unchanged.
	assertBounds(t, s, [3]float64{-5, -5, -5}, [3]float64{5, 5, 5})

	mesh, err := k.ToMesh(vol)
	if err != nil {
		t.Fatalf("ToMesh: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if mesh.Volume != vol {
		t.Errorf("mesh.Volume = %d, want %d", mesh.Volume, vol)
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3", len(mesh.Indices))
	}
}

func TestCreateVolumeDegenerateShell(t *testing.T) {
	k := New(20)
	flat := boxShell(t, k, geom.Vec3{}, geom.Vec3{X: 1, Y: 1, Z: 0})
	if _, err := k.CreateVolume(0, []geom.Tag{flat}); err == nil {
		t.Fatal("expected error for zero-thickness shell")
	}
	if k.Count(geom.KindVolume) != 0 {
		t.Error("failed volume must not be recorded")
	}
}

func TestRemoveVolumeDropsSolid(t *testing.T) {
	k := New(20)
	shell := boxShell(t, k, geom.Vec3{}, geom.Vec3{X: 1, Y: 1, Z: 1})
	vol, err := k.CreateVolume(0, []geom.Tag{shell})
	if err != nil {
		t.Fatalf("CreateVolume: %v", err)
	}
	if err := k.RemoveVolume(vol); err != nil {
		t.Fatalf("RemoveVolume: %v", err)
	}
	if _, ok := k.Solid(vol); ok {
		t.Error("solid still present after RemoveVolume")
	}
	if _, err := k.ToMesh(vol); err == nil {
		t.Error("ToMesh on removed volume should fail")
	}
}
