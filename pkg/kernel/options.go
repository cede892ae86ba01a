package kernel

import (
	"fmt"

	"github.com/chazu/blockgeo/pkg/geom"
)

// Backend names a concrete kernel implementation.
type Backend string

const (
	BackendRecord Backend = "record" // in-memory Recorder, no solids
	BackendSDFX   Backend = "sdfx"   // Recorder topology plus sdfx solids
)

// ParseBackend validates a backend name.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(name); b {
	case BackendRecord, BackendSDFX:
		return b, nil
	}
	return "", &geom.ValidationError{Field: "backend", Message: fmt.Sprintf("unknown kernel backend %q", name)}
}

// ---------------------------------------------------------------------------
// Curve option adapter table
// ---------------------------------------------------------------------------

// optionSet is a bit set of the curve options a (backend, kind) pair accepts.
type optionSet uint8

const (
	optDegree optionSet = 1 << iota
	optWeights
	optNormal
)

// curveOptionTable enumerates the legal option set per backend and kind.
// Kinds absent from a backend's row accept no options.
var curveOptionTable = map[Backend]map[geom.CurveKind]optionSet{
	BackendRecord: {
		geom.CurveCircleArc:  optNormal,
		geom.CurveEllipseArc: optNormal,
		geom.CurveBSpline:    optDegree | optWeights,
	},
	// sdfx solids are built from shell bounds, so arc normals and
	// rational weights have no effect there and are rejected.
	BackendSDFX: {
		geom.CurveBSpline: optDegree,
	},
}

// curvePointCounts gives the minimum and maximum point count per kind.
// A maximum of 0 means unbounded.
var curvePointCounts = map[geom.CurveKind][2]int{
	geom.CurveLine:       {2, 2},
	geom.CurveCircleArc:  {3, 3},
	geom.CurveEllipseArc: {4, 4},
	geom.CurveSpline:     {2, 0},
	geom.CurveBSpline:    {2, 0},
	geom.CurveBezier:     {2, 0},
	geom.CurvePolyline:   {2, 0},
}

// ValidateCurveOptions checks opts against the options legal for the given
// backend and kind.
func ValidateCurveOptions(b Backend, kind geom.CurveKind, opts geom.CurveOptions) error {
	row, ok := curveOptionTable[b]
	if !ok {
		return &geom.ValidationError{Field: "backend", Message: fmt.Sprintf("unknown kernel backend %q", b)}
	}
	allowed := row[kind]
	field := fmt.Sprintf("%s options", kind)

	if opts.Degree != 0 && allowed&optDegree == 0 {
		return &geom.ValidationError{Field: field, Message: fmt.Sprintf("degree is not supported by the %s backend", b)}
	}
	if opts.Degree < 0 {
		return &geom.ValidationError{Field: field, Message: fmt.Sprintf("degree %d must be positive", opts.Degree)}
	}
	if len(opts.Weights) > 0 && allowed&optWeights == 0 {
		return &geom.ValidationError{Field: field, Message: fmt.Sprintf("weights are not supported by the %s backend", b)}
	}
	if opts.Normal != nil && allowed&optNormal == 0 {
		return &geom.ValidationError{Field: field, Message: fmt.Sprintf("normal is not supported by the %s backend", b)}
	}
	return nil
}

// ValidateCurvePoints checks that a curve of the given kind has a legal
// number of points (endpoints plus interior control points).
func ValidateCurvePoints(kind geom.CurveKind, n int) error {
	bounds, ok := curvePointCounts[kind]
	if !ok {
		return &geom.ValidationError{Field: "curve kind", Message: fmt.Sprintf("unknown curve kind %d", int(kind))}
	}
	if n < bounds[0] || (bounds[1] > 0 && n > bounds[1]) {
		return &geom.ValidationError{
			Field:   fmt.Sprintf("%s points", kind),
			Message: fmt.Sprintf("got %d points, want %s", n, describeBounds(bounds)),
		}
	}
	return nil
}

func describeBounds(b [2]int) string {
	switch {
	case b[0] == b[1]:
		return fmt.Sprintf("exactly %d", b[0])
	case b[1] == 0:
		return fmt.Sprintf("at least %d", b[0])
	default:
		return fmt.Sprintf("%d to %d", b[0], b[1])
	}
}
