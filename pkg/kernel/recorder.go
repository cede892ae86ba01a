package kernel

import (
	"fmt"
	"sync"

	"github.com/chazu/blockgeo/pkg/geom"
)

// Compile-time interface check.
var _ Kernel = (*Recorder)(nil)

// Operation names, used for call counts and injected failures.
const (
	OpCreatePoint           = "CreatePoint"
	OpCreateCurve           = "CreateCurve"
	OpCreateCurveLoop       = "CreateCurveLoop"
	OpCreateSurface         = "CreateSurface"
	OpCreateSurfaceLoop     = "CreateSurfaceLoop"
	OpCreateVolume          = "CreateVolume"
	OpSetTransfiniteCurve   = "SetTransfiniteCurve"
	OpSetTransfiniteSurface = "SetTransfiniteSurface"
	OpSetTransfiniteVolume  = "SetTransfiniteVolume"
	OpSetRecombine          = "SetRecombine"
	OpRemoveVolume          = "RemoveVolume"
)

// creationOps lists the six creation primitives.
var creationOps = []string{
	OpCreatePoint, OpCreateCurve, OpCreateCurveLoop,
	OpCreateSurface, OpCreateSurfaceLoop, OpCreateVolume,
}

// PointRecord is a created kernel point.
type PointRecord struct {
	Coords   geom.Vec3
	MeshSize float64
}

// CurveRecord is a created kernel curve.
type CurveRecord struct {
	Kind    geom.CurveKind
	Points  []geom.Tag
	Options geom.CurveOptions
}

// SurfaceRecord is a created kernel surface.
type SurfaceRecord struct {
	Kind  geom.SurfaceKind
	Loops []geom.Tag
}

// Entities is a copy of everything a Recorder currently holds.
type Entities struct {
	Points       map[geom.Tag]PointRecord
	Curves       map[geom.Tag]CurveRecord
	CurveLoops   map[geom.Tag][]geom.Tag
	Surfaces     map[geom.Tag]SurfaceRecord
	SurfaceLoops map[geom.Tag][]geom.Tag
	Volumes      map[geom.Tag][]geom.Tag

	TransfiniteCurves   map[geom.Tag]geom.CurveStructure
	TransfiniteSurfaces map[geom.Tag]geom.SurfaceStructure
	TransfiniteVolumes  map[geom.Tag]geom.VolumeStructure
	Recombined          map[geom.Tag]geom.QuadrateOptions
}

func newEntities() Entities {
	return Entities{
		Points:              make(map[geom.Tag]PointRecord),
		Curves:              make(map[geom.Tag]CurveRecord),
		CurveLoops:          make(map[geom.Tag][]geom.Tag),
		Surfaces:            make(map[geom.Tag]SurfaceRecord),
		SurfaceLoops:        make(map[geom.Tag][]geom.Tag),
		Volumes:             make(map[geom.Tag][]geom.Tag),
		TransfiniteCurves:   make(map[geom.Tag]geom.CurveStructure),
		TransfiniteSurfaces: make(map[geom.Tag]geom.SurfaceStructure),
		TransfiniteVolumes:  make(map[geom.Tag]geom.VolumeStructure),
		Recombined:          make(map[geom.Tag]geom.QuadrateOptions),
	}
}

// Recorder is an in-memory Kernel. It keeps every created entity, counts
// calls per operation and can be told to fail specific operations.
// It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	ents     Entities
	next     map[geom.Kind]geom.Tag
	calls    map[string]int
	failures map[string]error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		ents:     newEntities(),
		next:     make(map[geom.Kind]geom.Tag),
		calls:    make(map[string]int),
		failures: make(map[string]error),
	}
}

// Fail makes every subsequent call of op return err. A nil err clears it.
func (r *Recorder) Fail(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, op)
		return
	}
	r.failures[op] = err
}

// Calls returns how many times op was invoked.
func (r *Recorder) Calls(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

// CreationCalls returns the total number of creation primitive calls.
func (r *Recorder) CreationCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, op := range creationOps {
		total += r.calls[op]
	}
	return total
}

// Count returns how many entities of kind currently exist.
func (r *Recorder) Count(kind geom.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch kind {
	case geom.KindPoint:
		return len(r.ents.Points)
	case geom.KindCurve:
		return len(r.ents.Curves)
	case geom.KindCurveLoop:
		return len(r.ents.CurveLoops)
	case geom.KindSurface:
		return len(r.ents.Surfaces)
	case geom.KindSurfaceLoop:
		return len(r.ents.SurfaceLoops)
	case geom.KindVolume:
		return len(r.ents.Volumes)
	}
	return 0
}

// Entities returns a copy of the recorded model.
func (r *Recorder) Entities() Entities {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := newEntities()
	for k, v := range r.ents.Points {
		out.Points[k] = v
	}
	for k, v := range r.ents.Curves {
		v.Points = append([]geom.Tag(nil), v.Points...)
		out.Curves[k] = v
	}
	for k, v := range r.ents.CurveLoops {
		out.CurveLoops[k] = append([]geom.Tag(nil), v...)
	}
	for k, v := range r.ents.Surfaces {
		v.Loops = append([]geom.Tag(nil), v.Loops...)
		out.Surfaces[k] = v
	}
	for k, v := range r.ents.SurfaceLoops {
		out.SurfaceLoops[k] = append([]geom.Tag(nil), v...)
	}
	for k, v := range r.ents.Volumes {
		out.Volumes[k] = append([]geom.Tag(nil), v...)
	}
	for k, v := range r.ents.TransfiniteCurves {
		out.TransfiniteCurves[k] = v
	}
	for k, v := range r.ents.TransfiniteSurfaces {
		out.TransfiniteSurfaces[k] = v
	}
	for k, v := range r.ents.TransfiniteVolumes {
		out.TransfiniteVolumes[k] = v
	}
	for k, v := range r.ents.Recombined {
		out.Recombined[k] = v
	}
	return out
}

// begin counts the call and returns an injected failure, if any.
// Callers must hold r.mu.
func (r *Recorder) begin(op string) error {
	r.calls[op]++
	return r.failures[op]
}

// assign resolves the tag for a new entity of kind. Callers must hold r.mu.
func (r *Recorder) assign(kind geom.Kind, tag geom.Tag, exists func(geom.Tag) bool) (geom.Tag, error) {
	if tag < 0 {
		return 0, fmt.Errorf("negative %s tag %d", kind, tag)
	}
	if tag == 0 {
		tag = r.next[kind] + 1
		for exists(tag) {
			tag++
		}
	} else if exists(tag) {
		return 0, fmt.Errorf("%s tag %d already exists", kind, tag)
	}
	if tag > r.next[kind] {
		r.next[kind] = tag
	}
	return tag, nil
}

// CreatePoint records a point.
func (r *Recorder) CreatePoint(tag geom.Tag, coords geom.Vec3, meshSize float64) (geom.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(OpCreatePoint); err != nil {
		return 0, err
	}
	tag, err := r.assign(geom.KindPoint, tag, func(t geom.Tag) bool { _, ok := r.ents.Points[t]; return ok })
	if err != nil {
		return 0, err
	}
	r.ents.Points[tag] = PointRecord{Coords: coords, MeshSize: meshSize}
	return tag, nil
}

// CreateCurve records a curve. Every point tag must exist.
func (r *Recorder) CreateCurve(tag geom.Tag, kind geom.CurveKind, pointTags []geom.Tag, opts geom.CurveOptions) (geom.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(OpCreateCurve); err != nil {
		return 0, err
	}
	for _, pt := range pointTags {
		if _, ok := r.ents.Points[pt]; !ok {
			return 0, fmt.Errorf("curve references unknown point %d", pt)
		}
	}
	tag, err := r.assign(geom.KindCurve, tag, func(t geom.Tag) bool { _, ok := r.ents.Curves[t]; return ok })
	if err != nil {
		return 0, err
	}
	r.ents.Curves[tag] = CurveRecord{Kind: kind, Points: append([]geom.Tag(nil), pointTags...), Options: opts}
	return tag, nil
}

// CreateCurveLoop records a curve loop of signed curve tags.
func (r *Recorder) CreateCurveLoop(tag geom.Tag, signedCurveTags []geom.Tag) (geom.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(OpCreateCurveLoop); err != nil {
		return 0, err
	}
	for _, ct := range signedCurveTags {
		if _, ok := r.ents.Curves[ct.Abs()]; !ok {
			return 0, fmt.Errorf("curve loop references unknown curve %d", ct)
		}
	}
	tag, err := r.assign(geom.KindCurveLoop, tag, func(t geom.Tag) bool { _, ok := r.ents.CurveLoops[t]; return ok })
	if err != nil {
		return 0, err
	}
	r.ents.CurveLoops[tag] = append([]geom.Tag(nil), signedCurveTags...)
	return tag, nil
}

// CreateSurface records a surface bounded by curve loops.
func (r *Recorder) CreateSurface(tag geom.Tag, kind geom.SurfaceKind, loopTags []geom.Tag) (geom.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(OpCreateSurface); err != nil {
		return 0, err
	}
	for _, lt := range loopTags {
		if _, ok := r.ents.CurveLoops[lt]; !ok {
			return 0, fmt.Errorf("surface references unknown curve loop %d", lt)
		}
	}
	tag, err := r.assign(geom.KindSurface, tag, func(t geom.Tag) bool { _, ok := r.ents.Surfaces[t]; return ok })
	if err != nil {
		return 0, err
	}
	r.ents.Surfaces[tag] = SurfaceRecord{Kind: kind, Loops: append([]geom.Tag(nil), loopTags...)}
	return tag, nil
}

// CreateSurfaceLoop records a closed shell.
func (r *Recorder) CreateSurfaceLoop(tag geom.Tag, surfaceTags []geom.Tag) (geom.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(OpCreateSurfaceLoop); err != nil {
		return 0, err
	}
	for _, st := range surfaceTags {
		if _, ok := r.ents.Surfaces[st]; !ok {
			return 0, fmt.Errorf("surface loop references unknown surface %d", st)
		}
	}
	tag, err := r.assign(geom.KindSurfaceLoop, tag, func(t geom.Tag) bool { _, ok := r.ents.SurfaceLoops[t]; return ok })
	if err != nil {
		return 0, err
	}
	r.ents.SurfaceLoops[tag] = append([]geom.Tag(nil), surfaceTags...)
	return tag, nil
}

// CreateVolume records a volume bounded by shells.
func (r *Recorder) CreateVolume(tag geom.Tag, loopTags []geom.Tag) (geom.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(OpCreateVolume); err != nil {
		return 0, err
	}
	for _, lt := range loopTags {
		if _, ok := r.ents.SurfaceLoops[lt]; !ok {
			return 0, fmt.Errorf("volume references unknown surface loop %d", lt)
		}
	}
	tag, err := r.assign(geom.KindVolume, tag, func(t geom.Tag) bool { _, ok := r.ents.Volumes[t]; return ok })
	if err != nil {
		return 0, err
	}
	r.ents.Volumes[tag] = append([]geom.Tag(nil), loopTags...)
	return tag, nil
}

// SetTransfiniteCurve records curve structuring.
func (r *Recorder) SetTransfiniteCurve(tag geom.Tag, opts geom.CurveStructure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(OpSetTransfiniteCurve); err != nil {
		return err
	}
	if _, ok := r.ents.Curves[tag.Abs()]; !ok {
		return fmt.Errorf("unknown curve %d", tag)
	}
	r.ents.TransfiniteCurves[tag.Abs()] = opts
	return nil
}

// SetTransfiniteSurface records surface structuring.
func (r *Recorder) SetTransfiniteSurface(tag geom.Tag, opts geom.SurfaceStructure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(OpSetTransfiniteSurface); err != nil {
		return err
	}
	if _, ok := r.ents.Surfaces[tag]; !ok {
		return fmt.Errorf("unknown surface %d", tag)
	}
	r.ents.TransfiniteSurfaces[tag] = opts
	return nil
}

// SetTransfiniteVolume records volume structuring.
func (r *Recorder) SetTransfiniteVolume(tag geom.Tag, opts geom.VolumeStructure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(OpSetTransfiniteVolume); err != nil {
		return err
	}
	if _, ok := r.ents.Volumes[tag]; !ok {
		return fmt.Errorf("unknown volume %d", tag)
	}
	r.ents.TransfiniteVolumes[tag] = opts
	return nil
}

// SetRecombine records surface recombination.
func (r *Recorder) SetRecombine(tag geom.Tag, opts geom.QuadrateOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(OpSetRecombine); err != nil {
		return err
	}
	if _, ok := r.ents.Surfaces[tag]; !ok {
		return fmt.Errorf("unknown surface %d", tag)
	}
	r.ents.Recombined[tag] = opts
	return nil
}

// RemoveVolume deletes a volume. Its shells and surfaces stay.
func (r *Recorder) RemoveVolume(tag geom.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.begin(OpRemoveVolume); err != nil {
		return err
	}
	if _, ok := r.ents.Volumes[tag]; !ok {
		return fmt.Errorf("unknown volume %d", tag)
	}
	delete(r.ents.Volumes, tag)
	delete(r.ents.TransfiniteVolumes, tag)
	return nil
}

// ShellBounds returns the bounding box of every point reachable from a
// surface loop, interior curve control points included.
func (r *Recorder) ShellBounds(tag geom.Tag) (geom.Bounds, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	surfaces, ok := r.ents.SurfaceLoops[tag]
	if !ok {
		return geom.Bounds{}, fmt.Errorf("unknown surface loop %d", tag)
	}
	b := geom.EmptyBounds()
	seen := 0
	for _, st := range surfaces {
		for _, lt := range r.ents.Surfaces[st].Loops {
			for _, ct := range r.ents.CurveLoops[lt] {
				for _, pt := range r.ents.Curves[ct.Abs()].Points {
					p, ok := r.ents.Points[pt]
					if !ok {
						continue
					}
					b = b.Extend(p.Coords)
					seen++
				}
			}
		}
	}
	if seen == 0 {
		return geom.Bounds{}, fmt.Errorf("surface loop %d has no points", tag)
	}
	return b, nil
}
