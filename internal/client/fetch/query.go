package fetch

import (
	"context"
	"sync"

	"github.com/google/go-cmp/cmp"
)

// QueryState is a snapshot of a Query.
type QueryState[T any] struct {
	Data    T
	HasData bool
	Loading bool
	Err     error
}

// QueryOptions configures a Query.
type QueryOptions[T any] struct {
	// Immediate makes Start execute the query.
	Immediate bool
	// Deps is the initial dependency list compared by SetDeps.
	Deps []any
	// Transform is applied to every successful result.
	Transform func(T) T
	OnSuccess func(T)
	OnError   func(error)
	// Context is the error tag failures are reported under.
	Context string
	Errors  ErrorReporter
}

// Query wraps a single call. Results of an execution that was superseded by
// a newer one, or that finished after Close, are not applied.
type Query[T any] struct {
	fn   func(context.Context) (T, error)
	opts QueryOptions[T]

	mu     sync.Mutex
	state  QueryState[T]
	deps   []any
	gen    uint64
	closed bool
}

// NewQuery returns an idle query around fn.
func NewQuery[T any](fn func(context.Context) (T, error), opts QueryOptions[T]) *Query[T] {
	return &Query[T]{fn: fn, opts: opts, deps: opts.Deps}
}

// Start executes the query when it was created with Immediate.
func (q *Query[T]) Start(ctx context.Context) error {
	if !q.opts.Immediate {
		return nil
	}
	_, err := q.Execute(ctx)
	return err
}

// Execute runs the call and returns its result.
func (q *Query[T]) Execute(ctx context.Context) (T, error) {
	var zero T

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return zero, ErrClosed
	}
	q.gen++
	gen := q.gen
	q.state.Loading = true
	q.state.Err = nil
	q.mu.Unlock()

	v, err := q.fn(ctx)
	if err == nil && q.opts.Transform != nil {
		v = q.opts.Transform(v)
	}

	q.mu.Lock()
	current := !q.closed && gen == q.gen
	if current {
		q.state.Loading = false
		q.state.Err = err
		if err == nil {
			q.state.Data = v
			q.state.HasData = true
		}
	}
	q.mu.Unlock()

	if err != nil {
		report(q.opts.Errors, q.opts.Context, err)
		if current && q.opts.OnError != nil {
			q.opts.OnError(err)
		}
		return zero, err
	}
	if current && q.opts.OnSuccess != nil {
		q.opts.OnSuccess(v)
	}
	return v, nil
}

// SetDeps re-executes the query when deps differ from the previous list.
// It reports whether an execution happened.
func (q *Query[T]) SetDeps(ctx context.Context, deps ...any) (bool, error) {
	q.mu.Lock()
	if cmp.Equal(q.deps, deps) {
		q.mu.Unlock()
		return false, nil
	}
	q.deps = deps
	q.mu.Unlock()

	_, err := q.Execute(ctx)
	return true, err
}

// State returns the current snapshot.
func (q *Query[T]) State() QueryState[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Close stops the query from applying any further results.
func (q *Query[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}
