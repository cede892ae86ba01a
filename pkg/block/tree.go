// Package block assembles a hierarchy of hexahedral blocks into canonical
// registry entities.
//
// A Tree owns every Block in an arena; blocks refer to their parent and
// children by Handle. The lifecycle is NewTree, Transform, Register (Plan
// then Commit), the optional Structure pass (which recombines faces with
// Quadrate before structuring volumes), and finally Unregister. Build runs
// all of them in order.
package block

import (
	"fmt"

	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/kernel"
	"github.com/chazu/blockgeo/pkg/transform"
)

// Handle indexes a Block in its Tree.
type Handle int

// NoBlock is the parent handle of the root.
const NoBlock Handle = -1

// Block is one hexahedron of the tree: eight corners, twelve curves, six
// curve loops and surfaces, one outer shell plus inner shells added during
// registration, and one volume.
type Block struct {
	Name     string
	Parent   Handle
	Children []Handle

	Points   [numCorners]*geom.Point
	Curves   [numCurves]*geom.Curve
	Loops    [numSurfaces]*geom.CurveLoop
	Surfaces [numSurfaces]*geom.Surface
	Shells   []*geom.SurfaceLoop // outer shell first
	Volume   *geom.Volume

	BooleanLevel *int
	Zone         string

	DoRegister           bool
	DoRegisterChildren   bool
	DoUnregister         bool
	DoUnregisterChildren bool

	// local coordinates, before transforms
	local         [numCorners]geom.Vec3
	localInterior [numCurves][]geom.Vec3

	own      []transform.Transform
	specific []transform.Transform // set by the parent for this child
	chain    transform.Chain

	structure *StructureSpec
	quadrate  *geom.QuadrateOptions

	transformed  bool
	registered   bool
	unregistered bool
	structured   bool
	quadrated    bool
	registerSeq  int
}

// IsTransformed reports whether world coordinates have been resolved.
func (b *Block) IsTransformed() bool { return b.transformed }

// IsRegistered reports whether the block's volume is currently registered.
func (b *Block) IsRegistered() bool { return b.registered && !b.unregistered }

// IsStructured reports whether the block's volume has been structured.
func (b *Block) IsStructured() bool { return b.structured }

// IsQuadrated reports whether every face of the block has been recombined.
func (b *Block) IsQuadrated() bool { return b.quadrated }

// RegisterSeq is the 1-based order in which the block finished registering
// within its tree, or 0 if it never did.
func (b *Block) RegisterSeq() int { return b.registerSeq }

// Corners returns the block's eight corner coordinates.
func (b *Block) Corners() [numCorners]geom.Vec3 {
	var out [numCorners]geom.Vec3
	for i, p := range b.Points {
		out[i] = p.Coords
	}
	return out
}

// OuterShell returns the block's outer surface loop.
func (b *Block) OuterShell() *geom.SurfaceLoop { return b.Shells[0] }

// Tree is an arena of blocks rooted at Root.
type Tree struct {
	blocks []*Block
	seq    int
}

// NewTree normalizes spec and its whole subtree into blocks.
func NewTree(spec *Spec) (*Tree, error) {
	if spec == nil {
		return nil, &geom.ValidationError{Field: "block", Message: "nil spec"}
	}
	t := &Tree{}
	if _, err := t.add(spec, nil, NoBlock, "root"); err != nil {
		return nil, err
	}
	return t, nil
}

// Root returns the handle of the root block.
func (t *Tree) Root() Handle { return 0 }

// Len returns the number of blocks.
func (t *Tree) Len() int { return len(t.blocks) }

// Block returns the block for h.
func (t *Tree) Block(h Handle) *Block { return t.blocks[h] }

// Find returns the first block with the given name in arena order.
func (t *Tree) Find(name string) (Handle, bool) {
	for i, b := range t.blocks {
		if b.Name == name {
			return Handle(i), true
		}
	}
	return NoBlock, false
}

// PostOrder calls fn for every block, children before their parent.
func (t *Tree) PostOrder(fn func(h Handle, b *Block) error) error {
	var visit func(h Handle) error
	visit = func(h Handle) error {
		b := t.blocks[h]
		for _, c := range b.Children {
			if err := visit(c); err != nil {
				return err
			}
		}
		return fn(h, b)
	}
	return visit(t.Root())
}

// add normalizes spec into a block and recurses into its children.
func (t *Tree) add(spec *Spec, specific []transform.Transform, parent Handle, path string) (Handle, error) {
	b, err := newBlock(spec, path)
	if err != nil {
		return NoBlock, err
	}
	b.Parent = parent
	b.specific = specific

	h := Handle(len(t.blocks))
	t.blocks = append(t.blocks, b)

	for i, cs := range spec.Children {
		childPath := fmt.Sprintf("%s/children[%d]", path, i)
		if cs.Block == nil {
			return NoBlock, &geom.ValidationError{Field: childPath, Message: "child has no block"}
		}
		ch, err := t.add(cs.Block, cs.Transforms, h, childPath)
		if err != nil {
			return NoBlock, err
		}
		b.Children = append(b.Children, ch)
	}
	return h, nil
}

// newBlock builds the canonical entity template for one spec.
func newBlock(spec *Spec, path string) (*Block, error) {
	points := spec.Points
	if points == nil {
		points = BoxSize{2}
	}
	corners, err := points.normalize()
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", path, err)
	}
	curveSpecs, err := normalizeCurves(spec.Curves)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", path, err)
	}

	name := spec.Name
	if name == "" {
		name = path
	}
	b := &Block{
		Name:                 name,
		BooleanLevel:         spec.BooleanLevel,
		Zone:                 spec.Zone,
		DoRegister:           flag(spec.Register, true),
		DoRegisterChildren:   flag(spec.RegisterChildren, true),
		DoUnregister:         flag(spec.Unregister, false),
		DoUnregisterChildren: flag(spec.UnregisterChildren, true),
		own:                  spec.Transforms,
		structure:            spec.Structure,
		quadrate:             spec.Quadrate,
	}

	for i, c := range corners {
		b.local[i] = c.coords
		zone := c.zone
		if zone == "" {
			zone = spec.Zone
		}
		meshSize := c.meshSize
		if meshSize == 0 {
			meshSize = spec.MeshSize
		}
		b.Points[i] = &geom.Point{Coords: c.coords, Zone: zone, MeshSize: meshSize}
	}

	for i, cs := range curveSpecs {
		ends := curveEnds[i]
		pts := []*geom.Point{b.Points[ends[0]]}
		for _, v := range cs.Interior {
			pts = append(pts, &geom.Point{Coords: v, Zone: spec.Zone, MeshSize: spec.MeshSize})
		}
		pts = append(pts, b.Points[ends[1]])
		b.localInterior[i] = cs.Interior

		c := &geom.Curve{Kind: cs.Kind, Points: pts, Options: cs.Options}
		if spec.Structure != nil {
			s := spec.Structure.Curves[curveAxis(i)]
			c.Structure = &s
		}
		b.Curves[i] = c
	}

	for f, edges := range surfaceCurves {
		loop := &geom.CurveLoop{}
		for _, e := range edges {
			loop.Curves = append(loop.Curves, b.Curves[e.curve])
			loop.Signs = append(loop.Signs, e.sign)
		}
		b.Loops[f] = loop

		s := &geom.Surface{Kind: spec.SurfaceKind, Loops: []*geom.CurveLoop{loop}, Quadrate: spec.Quadrate}
		if spec.Structure != nil {
			ss := spec.Structure.Surface
			s.Structure = &ss
		}
		b.Surfaces[f] = s
	}

	outer := &geom.SurfaceLoop{Surfaces: append([]*geom.Surface(nil), b.Surfaces[:]...)}
	b.Shells = []*geom.SurfaceLoop{outer}
	b.Volume = &geom.Volume{Loops: []*geom.SurfaceLoop{outer}, Zone: spec.Zone}
	if spec.Structure != nil && spec.Structure.Volume != nil {
		vs := *spec.Structure.Volume
		b.Volume.Structure = &vs
	}
	return b, nil
}

// CheckCurveOptions verifies every curve's options against the adapter
// table of the given kernel backend.
func (t *Tree) CheckCurveOptions(backend kernel.Backend) error {
	for _, b := range t.blocks {
		for i, c := range b.Curves {
			if err := kernel.ValidateCurveOptions(backend, c.Kind, c.Options); err != nil {
				return fmt.Errorf("block %s: curve %d: %w", b.Name, i, err)
			}
		}
	}
	return nil
}
