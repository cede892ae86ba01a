package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/blockgeo/pkg/block"
)

// EvalTimeout is the default limit for evaluating one block program.
const EvalTimeout = 5 * time.Second

var (
	// ErrEvalTimeout reports a block program that did not finish in time.
	ErrEvalTimeout = errors.New("block program timed out")

	// ErrSuperseded reports a result discarded because a newer Evaluate
	// call started while this one ran.
	ErrSuperseded = errors.New("block program superseded by a newer evaluation")
)

// evalResult carries the outcome of one sandboxed run back to Evaluate.
type evalResult struct {
	spec   *block.Spec
	errors []EvalError
	err    error
}

// await returns the result of generation gen. A run that outlives the
// engine's timeout keeps going in its goroutine; whatever it eventually
// sends lands in the buffered channel and is dropped.
func (e *Engine) await(ch <-chan evalResult, gen uint64) (*block.Spec, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, fmt.Errorf("engine: generation %d of %d: %w", gen, current, ErrSuperseded)
		}
		return res.spec, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("engine: %w after %s", ErrEvalTimeout, e.timeout)
	}
}
