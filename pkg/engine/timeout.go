package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/brushconv/pkg/facemesh"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// evalResult carries one evaluation's outcome out of its goroutine.
type evalResult struct {
	mesh   *facemesh.Mesh
	errors []EvalError
	err    error
}

// wait blocks until ch delivers, ctx ends or the engine timeout passes.
// A result from an evaluation that is no longer the latest one is
// discarded with ErrSuperseded. On timeout the evaluating goroutine keeps
// running; its late result lands in the buffered channel and is dropped.
func (e *Engine) wait(ctx context.Context, ch <-chan evalResult, gen uint64) (*facemesh.Mesh, []EvalError, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	select {
	case res := <-ch:
		if gen != e.currentGeneration() {
			return nil, nil, ErrSuperseded
		}
		return res.mesh, res.errors, res.err

	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("evaluation timed out after %s: %w", e.timeout, ErrTimeout)
		}
		return nil, nil, fmt.Errorf("evaluation cancelled: %w", ctx.Err())
	}
}

func (e *Engine) currentGeneration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}
