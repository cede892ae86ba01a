package registry

import (
	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/kernel"
)

// Structuring calls are applied at most once per entity. Each returns true
// when the entity is structured (now or by an earlier call) and false when
// a prerequisite is unmet, in which case nothing is sent to the kernel.

// StructureCurve applies the curve's transfinite settings. A negative curve
// tag is forwarded as-is so the kernel can reverse the progression.
func (r *Registry) StructureCurve(c *geom.Curve) (bool, error) {
	if c.Structure == nil || !c.Tag.IsSet() {
		return false, nil
	}
	key := c.Tag.Abs()

	r.sideMu.Lock()
	defer r.sideMu.Unlock()
	if _, ok := r.structuredCurves[key]; ok {
		return true, nil
	}
	if err := r.k.SetTransfiniteCurve(c.Tag, *c.Structure); err != nil {
		return false, &geom.KernelError{Op: kernel.OpSetTransfiniteCurve, Err: err}
	}
	r.structuredCurves[key] = struct{}{}
	r.metrics.structured(geom.KindCurve.String())
	return true, nil
}

// curvesStructured reports whether every curve of s has been structured.
// Callers hold sideMu.
func (r *Registry) curvesStructured(s *geom.Surface) bool {
	for _, c := range s.Curves() {
		if _, ok := r.structuredCurves[c.Tag.Abs()]; !ok {
			return false
		}
	}
	return true
}

// StructureSurface applies the surface's transfinite settings once every
// bounding curve has been structured.
func (r *Registry) StructureSurface(s *geom.Surface) (bool, error) {
	if s.Structure == nil || !s.Tag.IsSet() {
		return false, nil
	}

	r.sideMu.Lock()
	defer r.sideMu.Unlock()
	if _, ok := r.structuredSurfaces[s.Tag]; ok {
		return true, nil
	}
	if !r.curvesStructured(s) {
		r.logger.Debug("surface structure skipped", "tag", int(s.Tag), "reason", "unstructured curves")
		return false, nil
	}
	if err := r.k.SetTransfiniteSurface(s.Tag, *s.Structure); err != nil {
		return false, &geom.KernelError{Op: kernel.OpSetTransfiniteSurface, Err: err}
	}
	r.structuredSurfaces[s.Tag] = struct{}{}
	r.metrics.structured(geom.KindSurface.String())
	return true, nil
}

// QuadrateSurface requests quadrilateral recombination of the surface once
// every bounding curve has been structured.
func (r *Registry) QuadrateSurface(s *geom.Surface) (bool, error) {
	if s.Quadrate == nil || !s.Tag.IsSet() {
		return false, nil
	}

	r.sideMu.Lock()
	defer r.sideMu.Unlock()
	if _, ok := r.quadratedSurfaces[s.Tag]; ok {
		return true, nil
	}
	if !r.curvesStructured(s) {
		r.logger.Debug("surface quadrate skipped", "tag", int(s.Tag), "reason", "unstructured curves")
		return false, nil
	}
	if err := r.k.SetRecombine(s.Tag, *s.Quadrate); err != nil {
		return false, &geom.KernelError{Op: kernel.OpSetRecombine, Err: err}
	}
	r.quadratedSurfaces[s.Tag] = struct{}{}
	r.metrics.structured("recombine")
	return true, nil
}

// StructureVolume applies the volume's transfinite settings. The volume
// must be registered, bounded by a single shell, and every surface of that
// shell must agree on whether it is quadrated.
func (r *Registry) StructureVolume(v *geom.Volume) (bool, error) {
	if v.Structure == nil || !v.Tag.IsSet() {
		return false, nil
	}
	if !r.IsVolumeRegistered(v.Tag) {
		return false, nil
	}
	if len(v.Loops) != 1 {
		r.logger.Debug("volume structure skipped", "tag", int(v.Tag), "reason", "inner shells")
		return false, nil
	}

	r.sideMu.Lock()
	defer r.sideMu.Unlock()
	if _, ok := r.structuredVolumes[v.Tag]; ok {
		return true, nil
	}
	surfaces := v.Loops[0].Surfaces
	_, first := r.quadratedSurfaces[surfaces[0].Tag]
	for _, s := range surfaces[1:] {
		if _, quad := r.quadratedSurfaces[s.Tag]; quad != first {
			r.logger.Debug("volume structure skipped", "tag", int(v.Tag), "reason", "mixed quadrate state")
			return false, nil
		}
	}
	if err := r.k.SetTransfiniteVolume(v.Tag, *v.Structure); err != nil {
		return false, &geom.KernelError{Op: kernel.OpSetTransfiniteVolume, Err: err}
	}
	r.structuredVolumes[v.Tag] = struct{}{}
	r.metrics.structured(geom.KindVolume.String())
	return true, nil
}

// IsCurveStructured reports whether the curve (either orientation) has been
// structured.
func (r *Registry) IsCurveStructured(tag geom.Tag) bool {
	r.sideMu.Lock()
	defer r.sideMu.Unlock()
	_, ok := r.structuredCurves[tag.Abs()]
	return ok
}
