package geom

import (
	"fmt"
	"strings"
)

// Tag identifies a registered kernel entity. Zero means unset. A negative
// curve tag refers to the registered curve traversed backward.
type Tag int

// IsSet reports whether the tag has been resolved.
func (t Tag) IsSet() bool { return t != 0 }

// Abs returns the tag with its orientation sign removed.
func (t Tag) Abs() Tag {
	if t < 0 {
		return -t
	}
	return t
}

// Kind enumerates the entity kinds tracked by the registry and kernels.
type Kind int

const (
	KindPoint Kind = iota
	KindCurve
	KindCurveLoop
	KindSurface
	KindSurfaceLoop
	KindVolume
)

// Kinds lists every entity kind in dependency order.
var Kinds = []Kind{KindPoint, KindCurve, KindCurveLoop, KindSurface, KindSurfaceLoop, KindVolume}

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindCurve:
		return "curve"
	case KindCurveLoop:
		return "curve_loop"
	case KindSurface:
		return "surface"
	case KindSurfaceLoop:
		return "surface_loop"
	case KindVolume:
		return "volume"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ---------------------------------------------------------------------------
// Curves
// ---------------------------------------------------------------------------

// CurveKind distinguishes curve shapes.
type CurveKind int

const (
	CurveLine       CurveKind = iota // straight segment between two points
	CurveCircleArc                   // start, center, end
	CurveEllipseArc                  // start, center, major axis point, end
	CurveSpline                      // interpolating spline through all points
	CurveBSpline                     // control points
	CurveBezier                      // control points
	CurvePolyline                    // chain of straight segments
)

var curveKindNames = map[CurveKind]string{
	CurveLine:       "line",
	CurveCircleArc:  "circle_arc",
	CurveEllipseArc: "ellipse_arc",
	CurveSpline:     "spline",
	CurveBSpline:    "bspline",
	CurveBezier:     "bezier",
	CurvePolyline:   "polyline",
}

func (k CurveKind) String() string {
	if name, ok := curveKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseCurveKind converts a curve kind name (e.g. "circle_arc") to a CurveKind.
// Hyphens are accepted in place of underscores.
func ParseCurveKind(name string) (CurveKind, error) {
	norm := strings.ReplaceAll(strings.ToLower(name), "-", "_")
	for k, n := range curveKindNames {
		if n == norm {
			return k, nil
		}
	}
	return 0, &ValidationError{Field: "curve kind", Message: fmt.Sprintf("unknown curve kind %q", name)}
}

// CurveOptions carries the backend-specific creation options for a curve.
// The legal combination per backend and kind is enforced by the kernel
// adapter table.
type CurveOptions struct {
	Degree  int       `json:"degree,omitempty"`  // bspline degree
	Weights []float64 `json:"weights,omitempty"` // bspline weights
	Normal  *Vec3     `json:"normal,omitempty"`  // arc plane normal
}

// IsZero reports whether no option is set.
func (o CurveOptions) IsZero() bool {
	return o.Degree == 0 && len(o.Weights) == 0 && o.Normal == nil
}

// CurveStructure holds transfinite settings for a curve.
type CurveStructure struct {
	Nodes       int     `json:"nodes"`
	Progression float64 `json:"progression"`
	Type        string  `json:"type,omitempty"` // "Progression" or "Bump"
}

// Point is a registered or unregistered kernel point.
type Point struct {
	Tag      Tag
	Coords   Vec3
	Zone     string
	MeshSize float64 // 0 = kernel default
}

// Curve is an edge defined by its kind and ordered points.
type Curve struct {
	Tag       Tag
	Kind      CurveKind
	Points    []*Point
	Options   CurveOptions
	Structure *CurveStructure
}

// Interior returns the control points between the two endpoints.
func (c *Curve) Interior() []*Point {
	if len(c.Points) <= 2 {
		return nil
	}
	return c.Points[1 : len(c.Points)-1]
}

// PointTags returns the tags of the curve's points in order.
func (c *Curve) PointTags() []Tag {
	tags := make([]Tag, len(c.Points))
	for i, p := range c.Points {
		tags[i] = p.Tag
	}
	return tags
}

// CurveLoop is a closed cyclic sequence of signed curves.
type CurveLoop struct {
	Tag    Tag
	Curves []*Curve
	Signs  []int // +1 or -1 per curve
}

// SignedTags returns sign*tag for every member curve.
func (l *CurveLoop) SignedTags() []Tag {
	tags := make([]Tag, len(l.Curves))
	for i, c := range l.Curves {
		tags[i] = c.Tag * Tag(l.Signs[i])
	}
	return tags
}

// ---------------------------------------------------------------------------
// Surfaces
// ---------------------------------------------------------------------------

// SurfaceKind distinguishes surface construction methods.
type SurfaceKind int

const (
	SurfacePlane   SurfaceKind = iota // planar surface bounded by curve loops
	SurfaceFilling                    // surface filling a non-planar loop
)

func (k SurfaceKind) String() string {
	switch k {
	case SurfacePlane:
		return "plane"
	case SurfaceFilling:
		return "filling"
	default:
		return "unknown"
	}
}

// ParseSurfaceKind converts "plane" or "filling" to a SurfaceKind. The empty
// string selects SurfacePlane.
func ParseSurfaceKind(name string) (SurfaceKind, error) {
	switch strings.ToLower(name) {
	case "", "plane":
		return SurfacePlane, nil
	case "filling":
		return SurfaceFilling, nil
	}
	return 0, &ValidationError{Field: "surface kind", Message: fmt.Sprintf("unknown surface kind %q", name)}
}

// SurfaceStructure holds transfinite settings for a surface.
type SurfaceStructure struct {
	Arrangement string `json:"arrangement,omitempty"` // "Left", "Right", "AlternateLeft"...
	Corners     []Tag  `json:"corners,omitempty"`
}

// QuadrateOptions holds recombination settings for a surface.
type QuadrateOptions struct {
	Angle float64 `json:"angle,omitempty"` // recombination angle threshold in degrees
}

// Surface is bounded by an outer curve loop and optional holes.
type Surface struct {
	Tag       Tag
	Kind      SurfaceKind
	Loops     []*CurveLoop // first = outer boundary
	Structure *SurfaceStructure
	Quadrate  *QuadrateOptions
}

// LoopTags returns the tags of the surface's curve loops.
func (s *Surface) LoopTags() []Tag {
	tags := make([]Tag, len(s.Loops))
	for i, l := range s.Loops {
		tags[i] = l.Tag
	}
	return tags
}

// Curves returns every curve bounding the surface, outer loop first.
func (s *Surface) Curves() []*Curve {
	var curves []*Curve
	for _, l := range s.Loops {
		curves = append(curves, l.Curves...)
	}
	return curves
}

// SurfaceLoop is a closed shell of surfaces.
type SurfaceLoop struct {
	Tag      Tag
	Surfaces []*Surface
}

// SurfaceTags returns the tags of the shell's surfaces.
func (l *SurfaceLoop) SurfaceTags() []Tag {
	tags := make([]Tag, len(l.Surfaces))
	for i, s := range l.Surfaces {
		tags[i] = s.Tag
	}
	return tags
}

// ---------------------------------------------------------------------------
// Volumes
// ---------------------------------------------------------------------------

// VolumeStructure holds transfinite settings for a volume.
type VolumeStructure struct {
	Corners []Tag `json:"corners,omitempty"`
}

// Volume is bounded by one outer shell and zero or more inner shells.
type Volume struct {
	Tag       Tag
	Loops     []*SurfaceLoop
	Structure *VolumeStructure
	Zone      string
}

// LoopTags returns the tags of the volume's surface loops.
func (v *Volume) LoopTags() []Tag {
	tags := make([]Tag, len(v.Loops))
	for i, l := range v.Loops {
		tags[i] = l.Tag
	}
	return tags
}

// Surfaces returns every surface of every shell, outer shell first.
func (v *Volume) Surfaces() []*Surface {
	var out []*Surface
	for _, l := range v.Loops {
		out = append(out, l.Surfaces...)
	}
	return out
}
