package suggest

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// Future is a suggestion list that is still being computed.
// It resolves exactly once; later Resolve calls are ignored.
type Future struct {
	done  chan struct{}
	once  sync.Once
	items []Suggestion
	err   error
}

// NewFuture returns an unresolved future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future that is already settled with items.
func Resolved(items []Suggestion) *Future {
	f := NewFuture()
	f.Resolve(items, nil)
	return f
}

// Go runs fn on its own goroutine and settles the future with its outcome.
// A panic inside fn settles the future with an error.
func Go(fn func() ([]Suggestion, error)) *Future {
	f := NewFuture()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.Resolve(nil, fmt.Errorf("panic: %v\n%s", r, debug.Stack()))
			}
		}()
		f.Resolve(fn())
	}()
	return f
}

// Resolve settles the future. Only the first call has an effect.
func (f *Future) Resolve(items []Suggestion, err error) {
	f.once.Do(func() {
		f.items = items
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or ctx is done.
func (f *Future) Await(ctx context.Context) ([]Suggestion, error) {
	select {
	case <-f.done:
		return f.items, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result is what a provider hands back: either a ready list or a Future.
type Result struct {
	items  []Suggestion
	future *Future
}

// Ready wraps a list computed synchronously.
func Ready(items []Suggestion) Result {
	return Result{items: items}
}

// Later wraps a list that will arrive through f.
func Later(f *Future) Result {
	return Result{future: f}
}

// Empty is the zero contribution.
func Empty() Result {
	return Result{}
}

// Pending reports whether the result still has to be awaited.
func (r Result) Pending() bool {
	return r.future != nil
}

// Await returns the suggestions, waiting on the future if there is one.
// Synchronous and asynchronous results go through this single path.
func (r Result) Await(ctx context.Context) ([]Suggestion, error) {
	if r.future == nil {
		return r.items, nil
	}
	return r.future.Await(ctx)
}
