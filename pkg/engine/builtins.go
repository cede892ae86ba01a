package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/blockgeo/pkg/block"
	"github.com/chazu/blockgeo/pkg/geom"
	"github.com/chazu/blockgeo/pkg/transform"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms DSL source code before passing it to zygomys.
// It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: block-local -> block_local
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when the hyphen sits between identifier characters; a minus
		// operator or negative literal is left alone.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

type sexpVec3 struct {
	vec geom.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

type sexpTransform struct {
	t transform.Transform
}

func (t *sexpTransform) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(transform %T)", t.t)
}
func (t *sexpTransform) Type() *zygo.RegisteredType { return nil }

type sexpStructure struct {
	spec block.StructureSpec
}

func (s *sexpStructure) SexpString(ps *zygo.PrintState) string {
	c := s.spec.Curves
	return fmt.Sprintf("(structure %d %d %d)", c[0].Nodes, c[1].Nodes, c[2].Nodes)
}
func (s *sexpStructure) Type() *zygo.RegisteredType { return nil }

type sexpQuadrate struct {
	opts geom.QuadrateOptions
}

func (q *sexpQuadrate) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(quadrate :angle %g)", q.opts.Angle)
}
func (q *sexpQuadrate) Type() *zygo.RegisteredType { return nil }

type sexpCurve struct {
	spec block.CurveSpec
}

func (c *sexpCurve) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(curve :kind %s)", c.spec.Kind)
}
func (c *sexpCurve) Type() *zygo.RegisteredType { return nil }

// sexpBlock wraps a block spec returned from `block` and consumed by
// `child` or another `block`.
type sexpBlock struct {
	spec *block.Spec
}

func (b *sexpBlock) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(block %q)", b.spec.Name)
}
func (b *sexpBlock) Type() *zygo.RegisteredType { return nil }

type sexpChild struct {
	child block.ChildSpec
}

func (c *sexpChild) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(child %q)", c.child.Block.Name)
}
func (c *sexpChild) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Trailing keyword with no value.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// unknown returns an error naming the first keyword not in allowed.
func (a kwArgs) unknown(allowed ...string) error {
	for name := range a.kw {
		found := false
		for _, ok := range allowed {
			if name == ok {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown keyword :%s", name)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpInt:
		return v.Val != 0, nil
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 accepts a (vec3 ...) value or a list of three numbers.
func toVec3(s zygo.Sexp) (geom.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	nums, err := toFloats(s)
	if err != nil || len(nums) != 3 {
		return geom.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
	}
	return geom.Vec3{X: nums[0], Y: nums[1], Z: nums[2]}, nil
}

// toFloats converts a list of numbers.
func toFloats(s zygo.Sexp) ([]float64, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, err := toFloat64(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toTransforms accepts a single transform or a list of them.
func toTransforms(s zygo.Sexp) ([]transform.Transform, error) {
	if t, ok := s.(*sexpTransform); ok {
		return []transform.Transform{t.t}, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]transform.Transform, 0, len(items))
	for i, item := range items {
		t, ok := item.(*sexpTransform)
		if !ok {
			return nil, fmt.Errorf("entry %d: expected transform, got %T (%s)", i, item, item.SexpString(nil))
		}
		out = append(out, t.t)
	}
	return out, nil
}

// toPoints reads :points as a list of eight vec3 values or numeric lists of
// three or four entries. A fourth entry is the corner's mesh size.
func toPoints(s zygo.Sexp) (block.CornerCoords, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make(block.CornerCoords, 0, len(items))
	for i, item := range items {
		if v, ok := item.(*sexpVec3); ok {
			out = append(out, []float64{v.vec.X, v.vec.Y, v.vec.Z})
			continue
		}
		nums, err := toFloats(item)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out = append(out, nums)
	}
	return out, nil
}

// toSize reads :size as one number or a list of three.
func toSize(s zygo.Sexp) (block.BoxSize, error) {
	if f, err := toFloat64(s); err == nil {
		return block.BoxSize{f}, nil
	}
	nums, err := toFloats(s)
	if err != nil {
		return nil, fmt.Errorf("expected number or list of numbers: %w", err)
	}
	return block.BoxSize(nums), nil
}

// perAxis reads a number or a list of three numbers.
func perAxis(s zygo.Sexp) ([3]float64, error) {
	if f, err := toFloat64(s); err == nil {
		return [3]float64{f, f, f}, nil
	}
	nums, err := toFloats(s)
	if err != nil {
		return [3]float64{}, err
	}
	if len(nums) != 3 {
		return [3]float64{}, fmt.Errorf("want 1 or 3 values, got %d", len(nums))
	}
	return [3]float64{nums[0], nums[1], nums[2]}, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builder tracks state shared by the builtins of one evaluation.
type builder struct {
	last *sexpBlock
}

// registerBuiltins installs the block DSL into a zygomys environment.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: geom.Vec3{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (translate (vec3 1 0 0)) or (translate 1 0 0)
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var delta geom.Vec3
		var err error
		switch len(args) {
		case 1:
			delta, err = toVec3(args[0])
		case 3:
			var c [3]float64
			for i, a := range args {
				if c[i], err = toFloat64(a); err != nil {
					break
				}
			}
			delta = geom.Vec3{X: c[0], Y: c[1], Z: c[2]}
		default:
			err = fmt.Errorf("want a vec3 or three numbers, got %d arguments", len(args))
		}
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		return &sexpTransform{t: transform.Translate{Delta: delta}}, nil
	})

	// -----------------------------------------------------------------------
	// (rotate :angle 90 :axis (vec3 0 0 1) :origin (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknown("angle", "axis", "origin"); err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		r := transform.Rotate{Axis: geom.Vec3{Z: 1}}
		v, ok := pa.kw["angle"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("rotate: :angle is required")
		}
		angle, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: angle: %w", err)
		}
		r.Angle = angle
		if v, ok := pa.kw["axis"]; ok {
			if r.Axis, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("rotate: axis: %w", err)
			}
		}
		if v, ok := pa.kw["origin"]; ok {
			if r.Origin, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("rotate: origin: %w", err)
			}
		}
		return &sexpTransform{t: r}, nil
	})

	// -----------------------------------------------------------------------
	// (scale 2) or (scale :factor (vec3 1 2 1) :origin (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("scale", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknown("factor", "origin"); err != nil {
			return zygo.SexpNull, fmt.Errorf("scale: %w", err)
		}
		factor, ok := pa.kw["factor"]
		if !ok && len(pa.positional) == 1 {
			factor, ok = pa.positional[0], true
		}
		if !ok {
			return zygo.SexpNull, fmt.Errorf("scale: a factor is required")
		}
		f, err := perAxis(factor)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scale: factor: %w", err)
		}
		s := transform.Scale{Factor: geom.Vec3{X: f[0], Y: f[1], Z: f[2]}}
		if v, ok := pa.kw["origin"]; ok {
			if s.Origin, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("scale: origin: %w", err)
			}
		}
		return &sexpTransform{t: s}, nil
	})

	// -----------------------------------------------------------------------
	// (affine (list a b c tx  d e f ty  g h i tz))
	// -----------------------------------------------------------------------
	env.AddFunction("affine", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("affine requires one list of 12 numbers")
		}
		nums, err := toFloats(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("affine: %w", err)
		}
		if len(nums) != 12 {
			return zygo.SexpNull, fmt.Errorf("affine: want 12 numbers, got %d", len(nums))
		}
		var a transform.Affine
		for i := 0; i < 3; i++ {
			copy(a.Matrix[i][:], nums[i*4:i*4+4])
		}
		return &sexpTransform{t: a}, nil
	})

	// -----------------------------------------------------------------------
	// (cylindrical :origin (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("cylindrical", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknown("origin"); err != nil {
			return zygo.SexpNull, fmt.Errorf("cylindrical: %w", err)
		}
		var c transform.Cylindrical
		if v, ok := pa.kw["origin"]; ok {
			var err error
			if c.Origin, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("cylindrical: origin: %w", err)
			}
		}
		return &sexpTransform{t: c}, nil
	})

	// -----------------------------------------------------------------------
	// (block-local)
	//
	// Registered as "block_local"; the preprocessor rewrites the hyphen.
	// -----------------------------------------------------------------------
	env.AddFunction("block_local", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 0 {
			return zygo.SexpNull, fmt.Errorf("block-local takes no arguments")
		}
		return &sexpTransform{t: transform.BlockLocal{}}, nil
	})

	// -----------------------------------------------------------------------
	// (structure :nodes (list 5 5 3) :progression 1.2 :type "Bump"
	//            :arrangement "Left" :volume true)
	// -----------------------------------------------------------------------
	env.AddFunction("structure", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknown("nodes", "progression", "type", "arrangement", "volume"); err != nil {
			return zygo.SexpNull, fmt.Errorf("structure: %w", err)
		}
		nodes := [3]float64{2, 2, 2}
		progression := [3]float64{1, 1, 1}
		var err error
		if v, ok := pa.kw["nodes"]; ok {
			if nodes, err = perAxis(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("structure: nodes: %w", err)
			}
		}
		if v, ok := pa.kw["progression"]; ok {
			if progression, err = perAxis(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("structure: progression: %w", err)
			}
		}
		var typ string
		if v, ok := pa.kw["type"]; ok {
			if typ, err = toKeywordString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("structure: type: %w", err)
			}
		}
		var spec block.StructureSpec
		for i := range spec.Curves {
			if nodes[i] < 2 || nodes[i] != float64(int(nodes[i])) {
				return zygo.SexpNull, fmt.Errorf("structure: nodes: want an integer >= 2 per axis, got %g", nodes[i])
			}
			spec.Curves[i] = geom.CurveStructure{Nodes: int(nodes[i]), Progression: progression[i], Type: typ}
		}
		if v, ok := pa.kw["arrangement"]; ok {
			if spec.Surface.Arrangement, err = toKeywordString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("structure: arrangement: %w", err)
			}
		}
		volume := true
		if v, ok := pa.kw["volume"]; ok {
			if volume, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("structure: volume: %w", err)
			}
		}
		if volume {
			spec.Volume = &geom.VolumeStructure{}
		}
		return &sexpStructure{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (quadrate :angle 45)
	// -----------------------------------------------------------------------
	env.AddFunction("quadrate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknown("angle"); err != nil {
			return zygo.SexpNull, fmt.Errorf("quadrate: %w", err)
		}
		var q geom.QuadrateOptions
		if v, ok := pa.kw["angle"]; ok {
			var err error
			if q.Angle, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("quadrate: angle: %w", err)
			}
		}
		return &sexpQuadrate{opts: q}, nil
	})

	// -----------------------------------------------------------------------
	// (curve :kind :circle-arc :via (list (vec3 0 0 0)) :normal (vec3 0 0 1))
	// (curve) is a straight line.
	// -----------------------------------------------------------------------
	env.AddFunction("curve", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknown("kind", "via", "normal", "degree", "weights"); err != nil {
			return zygo.SexpNull, fmt.Errorf("curve: %w", err)
		}
		var cs block.CurveSpec
		if v, ok := pa.kw["kind"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("curve: kind: %w", err)
			}
			if cs.Kind, err = geom.ParseCurveKind(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("curve: %w", err)
			}
		}
		if v, ok := pa.kw["via"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("curve: via: %w", err)
			}
			for i, item := range items {
				p, err := toVec3(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("curve: via %d: %w", i, err)
				}
				cs.Interior = append(cs.Interior, p)
			}
		}
		if v, ok := pa.kw["normal"]; ok {
			n, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("curve: normal: %w", err)
			}
			cs.Options.Normal = &n
		}
		if v, ok := pa.kw["degree"]; ok {
			d, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("curve: degree: %w", err)
			}
			cs.Options.Degree = d
		}
		if v, ok := pa.kw["weights"]; ok {
			w, err := toFloats(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("curve: weights: %w", err)
			}
			cs.Options.Weights = w
		}
		return &sexpCurve{spec: cs}, nil
	})

	// -----------------------------------------------------------------------
	// (child (block ...) (translate ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("child", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("child requires a block argument")
		}
		blk, ok := args[0].(*sexpBlock)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("child: expected block, got %T (%s)", args[0], args[0].SexpString(nil))
		}
		c := block.ChildSpec{Block: blk.spec}
		for i, a := range args[1:] {
			ts, err := toTransforms(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("child: transform %d: %w", i, err)
			}
			c.Transforms = append(c.Transforms, ts...)
		}
		return &sexpChild{child: c}, nil
	})

	// -----------------------------------------------------------------------
	// (block "name" :size 2 :zone "fluid" ... child-block child-block ...)
	// -----------------------------------------------------------------------
	env.AddFunction("block", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		spec, err := blockSpec(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("block: %w", err)
		}
		out := &sexpBlock{spec: spec}
		b.last = out
		return out, nil
	})
}

// blockSpec builds a Spec from the arguments of a (block ...) form. A leading
// string is the block's name; other positional arguments are children.
func blockSpec(args []zygo.Sexp) (*block.Spec, error) {
	pa := parseArgs(args)
	if err := pa.unknown("size", "points", "curves", "surface", "zone", "mesh-size",
		"boolean-level", "transforms", "structure", "quadrate",
		"register", "register-children", "unregister", "unregister-children"); err != nil {
		return nil, err
	}

	spec := &block.Spec{}
	pos := pa.positional
	if len(pos) > 0 {
		if s, ok := pos[0].(*zygo.SexpStr); ok {
			spec.Name = s.S
			pos = pos[1:]
		}
	}
	var err error

	_, hasSize := pa.kw["size"]
	_, hasPoints := pa.kw["points"]
	if hasSize && hasPoints {
		return nil, fmt.Errorf("%q: :size and :points are mutually exclusive", spec.Name)
	}
	if v, ok := pa.kw["size"]; ok {
		size, err := toSize(v)
		if err != nil {
			return nil, fmt.Errorf("size: %w", err)
		}
		spec.Points = size
	}
	if v, ok := pa.kw["points"]; ok {
		pts, err := toPoints(v)
		if err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
		spec.Points = pts
	}
	if v, ok := pa.kw["curves"]; ok {
		items, err := sexpListToSlice(v)
		if err != nil {
			return nil, fmt.Errorf("curves: %w", err)
		}
		for i, item := range items {
			c, ok := item.(*sexpCurve)
			if !ok {
				return nil, fmt.Errorf("curves: entry %d: expected curve, got %T", i, item)
			}
			spec.Curves = append(spec.Curves, c.spec)
		}
	}
	if v, ok := pa.kw["surface"]; ok {
		s, err := toKeywordString(v)
		if err != nil {
			return nil, fmt.Errorf("surface: %w", err)
		}
		if spec.SurfaceKind, err = geom.ParseSurfaceKind(s); err != nil {
			return nil, err
		}
	}
	if v, ok := pa.kw["zone"]; ok {
		if spec.Zone, err = toKeywordString(v); err != nil {
			return nil, fmt.Errorf("zone: %w", err)
		}
	}
	if v, ok := pa.kw["mesh-size"]; ok {
		if spec.MeshSize, err = toFloat64(v); err != nil {
			return nil, fmt.Errorf("mesh-size: %w", err)
		}
	}
	if v, ok := pa.kw["boolean-level"]; ok {
		lvl, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("boolean-level: %w", err)
		}
		spec.BooleanLevel = block.Int(lvl)
	}
	if v, ok := pa.kw["transforms"]; ok {
		if spec.Transforms, err = toTransforms(v); err != nil {
			return nil, fmt.Errorf("transforms: %w", err)
		}
	}
	if v, ok := pa.kw["structure"]; ok {
		s, ok := v.(*sexpStructure)
		if !ok {
			return nil, fmt.Errorf("structure: expected (structure ...), got %T", v)
		}
		st := s.spec
		spec.Structure = &st
	}
	if v, ok := pa.kw["quadrate"]; ok {
		q, ok := v.(*sexpQuadrate)
		if !ok {
			return nil, fmt.Errorf("quadrate: expected (quadrate ...), got %T", v)
		}
		opts := q.opts
		spec.Quadrate = &opts
	}
	for kw, dst := range map[string]**bool{
		"register":            &spec.Register,
		"register-children":   &spec.RegisterChildren,
		"unregister":          &spec.Unregister,
		"unregister-children": &spec.UnregisterChildren,
	} {
		v, ok := pa.kw[kw]
		if !ok {
			continue
		}
		on, err := toBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kw, err)
		}
		*dst = block.Bool(on)
	}

	for i, p := range pos {
		switch c := p.(type) {
		case *sexpBlock:
			spec.Children = append(spec.Children, block.ChildSpec{Block: c.spec})
		case *sexpChild:
			spec.Children = append(spec.Children, c.child)
		default:
			return nil, fmt.Errorf("argument %d: expected block or child, got %T (%s)", i, p, p.SexpString(nil))
		}
	}
	return spec, nil
}
