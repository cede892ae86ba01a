package block

import (
	"fmt"

	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/kernel"
)

// Severity indicates whether a validation finding blocks a build or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks the build
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Path     string // which block has the problem, e.g. "root/children[1]"
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Path, e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory) from
// all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no blocking error was found.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate checks a spec tree without building it. It is read-only and
// collects every finding instead of stopping at the first.
func Validate(spec *Spec) ValidationResult {
	var result ValidationResult
	if spec == nil {
		result.Errors = append(result.Errors, ValidationError{Path: "root", Message: "nil spec", Severity: SeverityError})
		return result
	}
	validateSpec(spec, "root", &result)
	return result
}

func validateSpec(spec *Spec, path string, r *ValidationResult) {
	// Tier 1: structural.
	r.Errors = append(r.Errors, validateStructure(spec, path)...)

	// Tier 2: geometric.
	r.Errors = append(r.Errors, validateGeometry(spec, path)...)

	// Tier 3: advisory.
	r.Warnings = append(r.Warnings, validateFlags(spec, path)...)

	for i, c := range spec.Children {
		if c.Block == nil {
			continue
		}
		validateSpec(c.Block, fmt.Sprintf("%s/children[%d]", path, i), r)
	}
}

func errorf(path, format string, args ...any) ValidationError {
	return ValidationError{Path: path, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func warnf(path, format string, args ...any) ValidationError {
	return ValidationError{Path: path, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

// ---------------------------------------------------------------------------
// Tier 1: structural
// ---------------------------------------------------------------------------

func validateStructure(spec *Spec, path string) []ValidationError {
	var errs []ValidationError

	if n := len(spec.Curves); n != 0 && n != numCurves {
		errs = append(errs, errorf(path, "block has %d curves, want 0 or %d", n, numCurves))
	}
	for i, cs := range spec.Curves {
		if err := kernel.ValidateCurvePoints(cs.Kind, len(cs.Interior)+2); err != nil {
			errs = append(errs, errorf(path, "curve %d: %v", i, err))
		}
	}
	for i, c := range spec.Children {
		if c.Block == nil {
			errs = append(errs, errorf(path, "child %d has no block", i))
		}
	}
	if spec.Points != nil {
		if _, err := spec.Points.normalize(); err != nil {
			errs = append(errs, errorf(path, "%v", err))
		}
	}
	return errs
}

// ---------------------------------------------------------------------------
// Tier 2: geometric
// ---------------------------------------------------------------------------

// validateGeometry checks local corners for coincidences. Box sizes are
// already rejected by Tier 1 normalization when non-positive.
func validateGeometry(spec *Spec, path string) []ValidationError {
	if spec.Points == nil {
		return nil
	}
	corners, err := spec.Points.normalize()
	if err != nil {
		return nil
	}
	var errs []ValidationError
	for _, ends := range curveEnds {
		a, b := corners[ends[0]].coords, corners[ends[1]].coords
		if a == b {
			errs = append(errs, errorf(path, "corners %d and %d coincide at %v", ends[0], ends[1], a))
		}
	}
	return errs
}

// ---------------------------------------------------------------------------
// Tier 3: advisory
// ---------------------------------------------------------------------------

func validateFlags(spec *Spec, path string) []ValidationError {
	var warnings []ValidationError
	if flag(spec.Unregister, false) && !flag(spec.Register, true) {
		warnings = append(warnings, warnf(path, "unregister is set but the block is never registered"))
	}
	if spec.BooleanLevel != nil && len(spec.Children) == 0 {
		warnings = append(warnings, warnf(path, "boolean level %d has no effect on a block without children", *spec.BooleanLevel))
	}
	if spec.Structure != nil && spec.Structure.Volume == nil {
		warnings = append(warnings, warnf(path, "structure without a volume setting leaves the volume unstructured"))
	}
	if spec.Quadrate != nil && spec.Structure == nil {
		warnings = append(warnings, warnf(path, "quadrate without structure is skipped: faces need structured curves"))
	}
	for i, cs := range spec.Curves {
		if cs.Kind != geom.CurveLine && spec.SurfaceKind == geom.SurfacePlane {
			warnings = append(warnings, warnf(path, "curve %d is a %s on a plane surface", i, cs.Kind))
			break
		}
	}
	return warnings
}
