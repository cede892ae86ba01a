// Package registry canonicalizes geometric entities so that every
// geometrically equivalent point, curve, curve loop, surface, surface loop
// and volume maps to exactly one kernel entity.
//
// A Registry lives for exactly one model build. Call Reset between
// independent builds; never mid-build.
package registry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/kernel"
)

// DefaultTolerance is the point coordinate snapping grid.
const DefaultTolerance = 1e-8

// TagSource selects who allocates tags for new entities.
type TagSource int

const (
	TagsFromRegistry TagSource = iota // monotonic per-kind counters owned by the registry
	TagsFromKernel                    // the kernel chooses and returns the tag
)

func (s TagSource) String() string {
	switch s {
	case TagsFromRegistry:
		return "registry"
	case TagsFromKernel:
		return "kernel"
	default:
		return fmt.Sprintf("TagSource(%d)", int(s))
	}
}

// ParseTagSource converts "registry" or "kernel" to a TagSource.
func ParseTagSource(name string) (TagSource, error) {
	switch name {
	case "", "registry":
		return TagsFromRegistry, nil
	case "kernel":
		return TagsFromKernel, nil
	}
	return 0, &geom.ValidationError{Field: "tag source", Message: fmt.Sprintf("unknown tag source %q", name)}
}

// Options configures a Registry.
type Options struct {
	Tolerance float64   // point snapping grid; 0 selects DefaultTolerance
	TagSource TagSource // who allocates tags
	Logger    *slog.Logger
	Metrics   *Metrics
}

// Stats counts kernel creations and cache hits per entity kind.
type Stats struct {
	Created map[geom.Kind]int
	Hits    map[geom.Kind]int
}

type tagSet map[geom.Tag]struct{}

// Registry is the canonicalization store. Lookup-or-insert for each entity
// kind is serialized by a per-kind mutex, kernel call included, so sibling
// subtrees may register concurrently.
type Registry struct {
	k       kernel.Kernel
	tol     float64
	source  TagSource
	logger  *slog.Logger
	metrics *Metrics

	locks    [6]sync.Mutex // indexed by geom.Kind
	counters [6]geom.Tag
	created  [6]int
	hits     [6]int

	points   map[pointKey]geom.Tag
	curves   map[string]geom.Tag
	loops    map[string]geom.Tag
	surfaces map[string]geom.Tag
	shells   map[string]geom.Tag
	volumes  map[string]geom.Tag
	live     map[geom.Tag]string // registered volume tag -> its key

	sideMu             sync.Mutex
	structuredCurves   tagSet
	structuredSurfaces tagSet
	structuredVolumes  tagSet
	quadratedSurfaces  tagSet
}

// New creates a Registry that creates entities through k.
func New(k kernel.Kernel, opts Options) *Registry {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	r := &Registry{
		k:       k,
		tol:     opts.Tolerance,
		source:  opts.TagSource,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	r.clear()
	return r
}

// Tolerance returns the point snapping grid.
func (r *Registry) Tolerance() float64 { return r.tol }

// clear resets every counter, map and done-set. Callers must hold all locks
// or own r exclusively.
func (r *Registry) clear() {
	r.counters = [6]geom.Tag{}
	r.created = [6]int{}
	r.hits = [6]int{}
	r.points = make(map[pointKey]geom.Tag)
	r.curves = make(map[string]geom.Tag)
	r.loops = make(map[string]geom.Tag)
	r.surfaces = make(map[string]geom.Tag)
	r.shells = make(map[string]geom.Tag)
	r.volumes = make(map[string]geom.Tag)
	r.live = make(map[geom.Tag]string)
	r.structuredCurves = make(tagSet)
	r.structuredSurfaces = make(tagSet)
	r.structuredVolumes = make(tagSet)
	r.quadratedSurfaces = make(tagSet)
}

// Reset returns every tag counter to its initial value and clears every map
// and done-set. The kernel itself is not touched.
func (r *Registry) Reset() {
	for i := range r.locks {
		r.locks[i].Lock()
	}
	r.sideMu.Lock()
	r.clear()
	r.sideMu.Unlock()
	for i := len(r.locks) - 1; i >= 0; i-- {
		r.locks[i].Unlock()
	}
	r.logger.Debug("registry reset")
}

// Stats returns a snapshot of creation and hit counts.
func (r *Registry) Stats() Stats {
	s := Stats{Created: make(map[geom.Kind]int), Hits: make(map[geom.Kind]int)}
	for _, kind := range geom.Kinds {
		r.locks[kind].Lock()
		s.Created[kind] = r.created[kind]
		s.Hits[kind] = r.hits[kind]
		r.locks[kind].Unlock()
	}
	return s
}

// hit records a cache hit. Callers hold the kind's lock.
func (r *Registry) hit(kind geom.Kind) {
	r.hits[kind]++
	r.metrics.lookup(kind, true)
}

// create allocates a tag for kind and invokes the kernel primitive op.
// Callers hold the kind's lock.
func (r *Registry) create(kind geom.Kind, op string, call func(proposed geom.Tag) (geom.Tag, error)) (geom.Tag, error) {
	r.metrics.lookup(kind, false)
	var proposed geom.Tag
	if r.source == TagsFromRegistry {
		r.counters[kind]++
		proposed = r.counters[kind]
	}
	tag, err := call(proposed)
	if err == nil && tag <= 0 {
		err = fmt.Errorf("kernel returned invalid tag %d", tag)
	}
	if err == nil && proposed != 0 && tag != proposed {
		err = fmt.Errorf("kernel returned tag %d, registry allocated %d", tag, proposed)
	}
	if err != nil {
		if proposed != 0 {
			r.counters[kind]--
		}
		return 0, &geom.KernelError{Op: op, Err: err}
	}
	r.created[kind]++
	r.logger.Debug("created kernel entity", "kind", kind.String(), "tag", int(tag))
	return tag, nil
}

func requireTags(op, what string, tags []geom.Tag) error {
	for i, t := range tags {
		if !t.IsSet() {
			return &geom.OrderingError{Op: op, Message: fmt.Sprintf("%s %d has no tag", what, i)}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

// RegisterPoint resolves p to its canonical kernel point and sets p.Tag.
// Points closer than the tolerance merge even if conceptually distinct.
func (r *Registry) RegisterPoint(p *geom.Point) (geom.Tag, error) {
	key, err := makePointKey(p.Coords, r.tol)
	if err != nil {
		return 0, err
	}

	r.locks[geom.KindPoint].Lock()
	defer r.locks[geom.KindPoint].Unlock()

	if tag, ok := r.points[key]; ok {
		r.hit(geom.KindPoint)
		p.Tag = tag
		return tag, nil
	}
	tag, err := r.create(geom.KindPoint, kernel.OpCreatePoint, func(proposed geom.Tag) (geom.Tag, error) {
		return r.k.CreatePoint(proposed, p.Coords, p.MeshSize)
	})
	if err != nil {
		return 0, err
	}
	r.points[key] = tag
	p.Tag = tag
	return tag, nil
}

// RegisterCurve resolves c to its canonical kernel curve and sets c.Tag.
// A curve already registered in the opposite direction resolves to the
// negated tag without a kernel call.
func (r *Registry) RegisterCurve(c *geom.Curve) (geom.Tag, error) {
	if len(c.Points) < 2 {
		return 0, &geom.ValidationError{Field: "curve", Message: fmt.Sprintf("%s needs at least 2 points, got %d", c.Kind, len(c.Points))}
	}
	pointTags := c.PointTags()
	if err := requireTags("register curve", "point", pointTags); err != nil {
		return 0, err
	}
	fwd, rev := curveKeys(c.Kind, pointTags)

	r.locks[geom.KindCurve].Lock()
	defer r.locks[geom.KindCurve].Unlock()

	if tag, ok := r.curves[fwd]; ok {
		r.hit(geom.KindCurve)
		c.Tag = tag
		return tag, nil
	}
	tag, err := r.create(geom.KindCurve, kernel.OpCreateCurve, func(proposed geom.Tag) (geom.Tag, error) {
		return r.k.CreateCurve(proposed, c.Kind, pointTags, c.Options)
	})
	if err != nil {
		return 0, err
	}
	r.curves[fwd] = tag
	if _, ok := r.curves[rev]; !ok {
		r.curves[rev] = -tag
	}
	c.Tag = tag
	return tag, nil
}

// RegisterCurveLoop resolves l to its canonical kernel loop and sets l.Tag.
// Any cyclic rotation of the loop, walked in either direction, resolves to
// the same tag.
func (r *Registry) RegisterCurveLoop(l *geom.CurveLoop) (geom.Tag, error) {
	if len(l.Curves) == 0 {
		return 0, &geom.ValidationError{Field: "curve loop", Message: "no curves"}
	}
	if len(l.Signs) != len(l.Curves) {
		return 0, &geom.ValidationError{Field: "curve loop", Message: fmt.Sprintf("%d signs for %d curves", len(l.Signs), len(l.Curves))}
	}
	for i, s := range l.Signs {
		if s != 1 && s != -1 {
			return 0, &geom.ValidationError{Field: "curve loop", Message: fmt.Sprintf("sign %d of curve %d must be +1 or -1", s, i)}
		}
	}
	signed := l.SignedTags()
	if err := requireTags("register curve loop", "curve", signed); err != nil {
		return 0, err
	}
	keys := loopKeys(signed)

	r.locks[geom.KindCurveLoop].Lock()
	defer r.locks[geom.KindCurveLoop].Unlock()

	for _, key := range keys {
		if tag, ok := r.loops[key]; ok {
			r.hit(geom.KindCurveLoop)
			l.Tag = tag
			return tag, nil
		}
	}
	tag, err := r.create(geom.KindCurveLoop, kernel.OpCreateCurveLoop, func(proposed geom.Tag) (geom.Tag, error) {
		return r.k.CreateCurveLoop(proposed, signed)
	})
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		r.loops[key] = tag
	}
	l.Tag = tag
	return tag, nil
}

// RegisterSurface resolves s by its ordered curve loop tags and sets s.Tag.
// The surface kind is not part of the key: a second surface over the same
// loops resolves to the first one, whatever kind it asked for.
func (r *Registry) RegisterSurface(s *geom.Surface) (geom.Tag, error) {
	if len(s.Loops) == 0 {
		return 0, &geom.ValidationError{Field: "surface", Message: "no curve loops"}
	}
	loopTags := s.LoopTags()
	if err := requireTags("register surface", "curve loop", loopTags); err != nil {
		return 0, err
	}
	key := tagsKey(0, loopTags)

	r.locks[geom.KindSurface].Lock()
	defer r.locks[geom.KindSurface].Unlock()

	if tag, ok := r.surfaces[key]; ok {
		r.hit(geom.KindSurface)
		s.Tag = tag
		return tag, nil
	}
	tag, err := r.create(geom.KindSurface, kernel.OpCreateSurface, func(proposed geom.Tag) (geom.Tag, error) {
		return r.k.CreateSurface(proposed, s.Kind, loopTags)
	})
	if err != nil {
		return 0, err
	}
	r.surfaces[key] = tag
	s.Tag = tag
	return tag, nil
}

// RegisterSurfaceLoop resolves l by its ordered surface tags and sets l.Tag.
// The key is order-sensitive: the same shell listed in another surface
// order is a distinct entry.
func (r *Registry) RegisterSurfaceLoop(l *geom.SurfaceLoop) (geom.Tag, error) {
	if len(l.Surfaces) == 0 {
		return 0, &geom.ValidationError{Field: "surface loop", Message: "no surfaces"}
	}
	surfaceTags := l.SurfaceTags()
	if err := requireTags("register surface loop", "surface", surfaceTags); err != nil {
		return 0, err
	}
	key := tagsKey(0, surfaceTags)

	r.locks[geom.KindSurfaceLoop].Lock()
	defer r.locks[geom.KindSurfaceLoop].Unlock()

	if tag, ok := r.shells[key]; ok {
		r.hit(geom.KindSurfaceLoop)
		l.Tag = tag
		return tag, nil
	}
	tag, err := r.create(geom.KindSurfaceLoop, kernel.OpCreateSurfaceLoop, func(proposed geom.Tag) (geom.Tag, error) {
		return r.k.CreateSurfaceLoop(proposed, surfaceTags)
	})
	if err != nil {
		return 0, err
	}
	r.shells[key] = tag
	l.Tag = tag
	return tag, nil
}

// RegisterVolume resolves v by its ordered surface loop tags and sets v.Tag.
func (r *Registry) RegisterVolume(v *geom.Volume) (geom.Tag, error) {
	if len(v.Loops) == 0 {
		return 0, &geom.ValidationError{Field: "volume", Message: "no surface loops"}
	}
	loopTags := v.LoopTags()
	if err := requireTags("register volume", "surface loop", loopTags); err != nil {
		return 0, err
	}
	key := tagsKey(0, loopTags)

	r.locks[geom.KindVolume].Lock()
	defer r.locks[geom.KindVolume].Unlock()

	if tag, ok := r.volumes[key]; ok {
		r.hit(geom.KindVolume)
		v.Tag = tag
		return tag, nil
	}
	tag, err := r.create(geom.KindVolume, kernel.OpCreateVolume, func(proposed geom.Tag) (geom.Tag, error) {
		return r.k.CreateVolume(proposed, loopTags)
	})
	if err != nil {
		return 0, err
	}
	r.volumes[key] = tag
	r.live[tag] = key
	v.Tag = tag
	return tag, nil
}

// IsVolumeRegistered reports whether tag is a live registered volume.
func (r *Registry) IsVolumeRegistered(tag geom.Tag) bool {
	r.locks[geom.KindVolume].Lock()
	defer r.locks[geom.KindVolume].Unlock()
	_, ok := r.live[tag]
	return ok
}

// UnregisterVolume removes a registered volume from the kernel and forgets
// its key. Its shells and surfaces stay registered.
func (r *Registry) UnregisterVolume(tag geom.Tag) error {
	r.locks[geom.KindVolume].Lock()
	defer r.locks[geom.KindVolume].Unlock()

	key, ok := r.live[tag]
	if !ok {
		return &geom.NotRegisteredError{Kind: geom.KindVolume, Tag: tag}
	}
	if err := r.k.RemoveVolume(tag); err != nil {
		return &geom.KernelError{Op: kernel.OpRemoveVolume, Err: err}
	}
	delete(r.volumes, key)
	delete(r.live, tag)

	r.sideMu.Lock()
	delete(r.structuredVolumes, tag)
	r.sideMu.Unlock()

	r.logger.Debug("removed kernel volume", "tag", int(tag))
	return nil
}
