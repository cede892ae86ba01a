// Package engine evaluates the block-tree Lisp DSL. It wraps zygomys in a
// sandboxed environment and produces a block.Spec from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/blockgeo/pkg/block"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal advisory finding about the evaluated
// tree. Path names the block it concerns.
type EvalWarning struct {
	Path    string
	Message string
}

// EvalResult bundles the full output of Check.
type EvalResult struct {
	Spec     *block.Spec
	Errors   []EvalError
	Warnings []EvalWarning
}

// OK reports whether evaluation produced a spec without errors.
func (r EvalResult) OK() bool { return r.Spec != nil && len(r.Errors) == 0 }

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine creates an Engine that allows each program EvalTimeout.
func NewEngine() *Engine {
	return &Engine{timeout: EvalTimeout}
}

// Evaluate takes Lisp source code and produces the root block spec.
//
// Return semantics:
//   - On success: returns spec + nil errors + nil error
//   - On parse/eval failure: returns nil spec + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
//
// Empty source is valid and yields a nil spec with no errors.
func (e *Engine) Evaluate(source string) (*block.Spec, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		spec, evalErrs, err := e.evaluate(source)
		ch <- evalResult{spec: spec, errors: evalErrs, err: err}
	}()

	return e.await(ch, gen)
}

// Check evaluates source and then validates the resulting tree. Blocking
// validation findings are reported as EvalErrors without line information.
func (e *Engine) Check(source string) (EvalResult, error) {
	spec, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return EvalResult{}, err
	}
	res := EvalResult{Spec: spec, Errors: evalErrs}
	if spec == nil {
		return res, nil
	}
	v := block.Validate(spec)
	for _, ve := range v.Errors {
		res.Errors = append(res.Errors, EvalError{Message: ve.Path + ": " + ve.Message})
	}
	for _, w := range v.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Path: w.Path, Message: w.Message})
	}
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*block.Spec, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := &builder{}
	registerBuiltins(env, b)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	last, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	// The program's value is normally the root block. A trailing definition
	// or print leaves some other value; fall back to the last block built.
	root, ok := last.(*sexpBlock)
	if !ok {
		root = b.last
	}
	if root == nil {
		return nil, []EvalError{{Message: "program did not produce a block"}}, nil
	}
	return root.spec, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
