// Package loop expands a counted loop into a lazy sequence of iterations.
package loop

import (
	"fmt"
	"iter"

	"github.com/agentic-research/fsbuild/api"
	"github.com/agentic-research/fsbuild/internal/expr"
	"github.com/agentic-research/fsbuild/internal/scope"
)

// DefaultMaxIterations caps a single loop when no explicit cap is set.
const DefaultMaxIterations = 100_000

// Iteration is one pass through a loop body. Scope binds the loop variable
// on top of the loop's outer scope; it is independent of other iterations.
type Iteration struct {
	Index int
	Value int64
	Scope *scope.Scope
	Body  []api.Declaration
}

// Evaluator evaluates loops with a fixed iteration cap.
type Evaluator struct {
	MaxIterations int
}

// NewEvaluator returns an evaluator with the given cap. A non-positive cap
// selects DefaultMaxIterations.
func NewEvaluator(maxIterations int) *Evaluator {
	return &Evaluator{MaxIterations: maxIterations}
}

func (e *Evaluator) limit() int {
	if e == nil || e.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return e.MaxIterations
}

// compiled holds the three header expressions of a loop.
type compiled struct {
	init, cond, step *expr.Expr
}

func compile(l *api.Loop) (*compiled, error) {
	start, err := expr.CompileUpdate(l.Var, l.Init)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	cond, err := expr.Compile(l.Cond)
	if err != nil {
		return nil, fmt.Errorf("cond: %w", err)
	}
	step, err := expr.CompileUpdate(l.Var, l.Step)
	if err != nil {
		return nil, fmt.Errorf("step: %w", err)
	}
	return &compiled{init: start, cond: cond, step: step}, nil
}

// Evaluate returns the iterations of l under outer, in order. The sequence
// is lazy: the condition and step are only evaluated as the consumer pulls.
// It yields a single non-nil error and stops when an expression fails or
// the iteration cap is exceeded. Ranging over the result twice produces
// the same iterations.
func (e *Evaluator) Evaluate(l *api.Loop, outer *scope.Scope) iter.Seq2[Iteration, error] {
	limit := e.limit()
	return func(yield func(Iteration, error) bool) {
		c, err := compile(l)
		if err != nil {
			yield(Iteration{}, wrap(l, err))
			return
		}

		// Init sees only the outer scope.
		v, err := c.init.Int(outer)
		if err != nil {
			yield(Iteration{}, wrap(l, fmt.Errorf("init: %w", err)))
			return
		}

		for i := 0; ; i++ {
			cur := outer.Bind(l.Var, v)
			ok, err := c.cond.Bool(cur)
			if err != nil {
				yield(Iteration{}, wrap(l, fmt.Errorf("cond: %w", err)))
				return
			}
			if !ok {
				return
			}
			if i >= limit {
				yield(Iteration{}, &api.Error{
					Op:   "loop",
					Kind: api.KindLoopBound,
					Decl: l.Label(),
					Err:  fmt.Errorf("more than %d iterations (%s still holds at %s=%d)", limit, l.Cond, l.Var, v),
				})
				return
			}
			if !yield(Iteration{Index: i, Value: v, Scope: cur, Body: l.Body}, nil) {
				return
			}
			v, err = c.step.Int(cur)
			if err != nil {
				yield(Iteration{}, wrap(l, fmt.Errorf("step: %w", err)))
				return
			}
		}
	}
}

// Count drains the sequence and returns the number of iterations.
func (e *Evaluator) Count(l *api.Loop, outer *scope.Scope) (int, error) {
	n := 0
	for _, err := range e.Evaluate(l, outer) {
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func wrap(l *api.Loop, err error) error {
	return &api.Error{Op: "loop", Kind: api.KindOf(err), Decl: l.Label(), Err: err}
}
