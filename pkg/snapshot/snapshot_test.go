package snapshot

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/blockgeo/pkg/block"
	"github.com/chazu/blockgeo/pkg/kernel"
	"github.com/chazu/blockgeo/pkg/registry"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// build runs the full lifecycle on spec against a fresh Recorder.
func build(t *testing.T, spec *block.Spec) *Snapshot {
	t.Helper()
	tree, err := block.NewTree(spec)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	rec := kernel.NewRecorder()
	if err := block.Build(context.Background(), tree, registry.New(rec, registry.Options{})); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return New(rec.Entities(), tree)
}

func nested() *block.Spec {
	return &block.Spec{
		Name:   "outer",
		Points: block.BoxSize{10},
		Children: []block.ChildSpec{
			{Block: &block.Spec{Name: "inner", Points: block.BoxSize{2}, Zone: "core"}},
		},
	}
}

func TestDeterministicEncoding(t *testing.T) {
	a, err := Marshal(build(t, nested()))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, err := Marshal(build(t, nested()))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("identical builds should encode to identical bytes")
	}
	if Sum(a) != Sum(b) {
		t.Fatal("identical builds should share a fingerprint")
	}

	other := nested()
	other.Children[0].Block.Points = block.BoxSize{3}
	c, err := Marshal(build(t, other))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if Sum(a) == Sum(c) {
		t.Error("different geometry should change the fingerprint")
	}
}

func TestBlockRecords(t *testing.T) {
	s := build(t, nested())
	if len(s.Blocks) != 2 {
		t.Fatalf("got %d block records, want 2", len(s.Blocks))
	}
	outer, inner := s.Blocks[0], s.Blocks[1]

	type summary struct {
		Name       string
		Parent     int
		Zone       string
		Registered bool
		Seq        int
		Shells     int
	}
	got := []summary{
		{outer.Name, outer.Parent, outer.Zone, outer.Registered, outer.Seq, len(outer.Shells)},
		{inner.Name, inner.Parent, inner.Zone, inner.Registered, inner.Seq, len(inner.Shells)},
	}
	want := []summary{
		{"outer", -1, "", true, 2, 2},
		{"inner", 0, "core", true, 1, 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("blocks mismatch (-want +got):\n%s", diff)
	}
	if outer.Volume == 0 || inner.Volume == 0 || outer.Volume == inner.Volume {
		t.Errorf("volumes = %d, %d; want distinct nonzero tags", outer.Volume, inner.Volume)
	}
	if len(s.Entities.Volumes) != 2 {
		t.Errorf("recorded %d volumes, want 2", len(s.Entities.Volumes))
	}
}

func TestRoundTrip(t *testing.T) {
	s := build(t, nested())
	path := filepath.Join(t.TempDir(), "model.cbor")
	fp, err := WriteFile(path, s)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, readFP, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if fp != readFP {
		t.Errorf("fingerprint changed: wrote %s, read %s", fp, readFP)
	}
	if diff := cmp.Diff(s, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if len(fp.String()) != 64 {
		t.Errorf("fingerprint string %q should be 64 hex digits", fp)
	}
}

func TestUnmarshalRejectsVersion(t *testing.T) {
	data, err := Marshal(&Snapshot{Version: Version + 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if _, err := Unmarshal(data); err == nil || !strings.Contains(err.Error(), "unsupported version") {
		t.Errorf("err = %v, want unsupported version", err)
	}
	if _, err := Unmarshal([]byte{0xff, 0x00}); err == nil {
		t.Error("expected decode error for garbage")
	}
}

func TestNewWithoutTree(t *testing.T) {
	s := New(kernel.NewRecorder().Entities(), nil)
	if s.Version != Version || len(s.Blocks) != 0 {
		t.Errorf("snapshot = %+v", s)
	}
}
