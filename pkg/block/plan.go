package block

import (
	"fmt"

	"github.com/chazu/blockgeo/pkg/boolean"
	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/registry"
)

// Stage is one step of a block's registration. Each stage's canonical keys
// depend on tags resolved by the stages before it.
type Stage int

const (
	StagePoints Stage = iota
	StageInteriorPoints
	StageCurves
	StageCurveLoops
	StageSurfaces
	StageOuterShell
	StageInnerShells
	StageVolume
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StagePoints, StageInteriorPoints, StageCurves, StageCurveLoops,
	StageSurfaces, StageOuterShell, StageInnerShells, StageVolume,
}

func (s Stage) String() string {
	switch s {
	case StagePoints:
		return "points"
	case StageInteriorPoints:
		return "interior_points"
	case StageCurves:
		return "curves"
	case StageCurveLoops:
		return "curve_loops"
	case StageSurfaces:
		return "surfaces"
	case StageOuterShell:
		return "outer_shell"
	case StageInnerShells:
		return "inner_shells"
	case StageVolume:
		return "volume"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Step registers one stage of one block.
type Step struct {
	Block Handle
	Stage Stage
}

// Plan is a dependency-ordered list of registration steps: every block's
// stages appear contiguously, and a child's steps precede its parent's.
type Plan []Step

// Blocks returns the distinct blocks of the plan in registration order.
func (p Plan) Blocks() []Handle {
	var out []Handle
	seen := make(map[Handle]bool)
	for _, s := range p {
		if !seen[s.Block] {
			seen[s.Block] = true
			out = append(out, s.Block)
		}
	}
	return out
}

// Plan computes the registration steps for the tree without touching any
// registry. Blocks already registered are left out, as are blocks whose
// DoRegister flag is false and subtrees below a DoRegisterChildren=false
// parent. Every block must have been transformed.
func (t *Tree) Plan() (Plan, error) {
	var plan Plan
	var visit func(h Handle) error
	visit = func(h Handle) error {
		b := t.blocks[h]
		if !b.transformed {
			return &geom.OrderingError{Op: "register", Message: fmt.Sprintf("block %q has not been transformed", b.Name)}
		}
		if b.DoRegisterChildren {
			for _, c := range b.Children {
				if err := visit(c); err != nil {
					return err
				}
			}
		}
		if !b.DoRegister || b.registered {
			return nil
		}
		for _, s := range Stages {
			plan = append(plan, Step{Block: h, Stage: s})
		}
		return nil
	}
	if err := visit(t.Root()); err != nil {
		return nil, err
	}
	return plan, nil
}

// Commit executes plan against reg. A failed commit leaves the tree and
// registry partially registered; discard both and Reset the registry before
// retrying.
func (t *Tree) Commit(reg *registry.Registry, plan Plan) error {
	for _, step := range plan {
		b := t.blocks[step.Block]
		if err := t.runStage(reg, b, step.Stage); err != nil {
			return fmt.Errorf("block %s: %s: %w", b.Name, step.Stage, err)
		}
		if step.Stage == StageVolume {
			t.seq++
			b.registered = true
			b.registerSeq = t.seq
		}
	}
	return nil
}

// Register plans and commits the registration of the whole tree.
func (t *Tree) Register(reg *registry.Registry) error {
	plan, err := t.Plan()
	if err != nil {
		return err
	}
	return t.Commit(reg, plan)
}

func (t *Tree) runStage(reg *registry.Registry, b *Block, stage Stage) error {
	switch stage {
	case StagePoints:
		for _, p := range b.Points {
			if _, err := reg.RegisterPoint(p); err != nil {
				return err
			}
		}
	case StageInteriorPoints:
		for _, c := range b.Curves {
			for _, p := range c.Interior() {
				if _, err := reg.RegisterPoint(p); err != nil {
					return err
				}
			}
		}
	case StageCurves:
		for _, c := range b.Curves {
			if _, err := reg.RegisterCurve(c); err != nil {
				return err
			}
		}
	case StageCurveLoops:
		for _, l := range b.Loops {
			if _, err := reg.RegisterCurveLoop(l); err != nil {
				return err
			}
		}
	case StageSurfaces:
		for _, s := range b.Surfaces {
			if _, err := reg.RegisterSurface(s); err != nil {
				return err
			}
		}
	case StageOuterShell:
		if _, err := reg.RegisterSurfaceLoop(b.OuterShell()); err != nil {
			return err
		}
	case StageInnerShells:
		return t.registerInnerShells(reg, b)
	case StageVolume:
		b.Volume.Loops = b.Shells
		if _, err := reg.RegisterVolume(b.Volume); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown stage %v", stage)
	}
	return nil
}

// registerInnerShells nests registered children as cavities. Children that
// share surfaces are merged into one shell. A block with a boolean level
// gets no cavities.
func (t *Tree) registerInnerShells(reg *registry.Registry, b *Block) error {
	b.Shells = b.Shells[:1]
	if b.BooleanLevel != nil {
		return nil
	}

	var volumes [][]geom.Tag
	surfaces := make(map[geom.Tag]*geom.Surface)
	for _, ch := range b.Children {
		child := t.blocks[ch]
		if !child.IsRegistered() {
			continue
		}
		shell := child.OuterShell()
		volumes = append(volumes, shell.SurfaceTags())
		for _, s := range shell.Surfaces {
			surfaces[s.Tag] = s
		}
	}
	groups, err := boolean.Group(volumes)
	if err != nil {
		return err
	}

	for _, g := range groups {
		shell := &geom.SurfaceLoop{}
		for _, tag := range g {
			shell.Surfaces = append(shell.Surfaces, surfaces[tag])
		}
		if _, err := reg.RegisterSurfaceLoop(shell); err != nil {
			return err
		}
		b.Shells = append(b.Shells, shell)
	}
	return nil
}
