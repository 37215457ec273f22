package types

import (
	"context"
	"sync"
)

// Future is a single-assignment cell completed exactly once with either a
// result value or an error. It is created on the user's calling goroutine
// and owned jointly by the submitter and sorter until resolved.
type Future struct {
	mu       sync.Mutex
	done     chan struct{}
	once     sync.Once
	result   interface{}
	err      error
	resolved bool
}

// NewFuture returns an unresolved Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// SetResult resolves the future with a value. It is a no-op, aside from a
// returned false, if the future was already resolved.
func (f *Future) SetResult(v interface{}) bool {
	return f.resolve(v, nil)
}

// SetException resolves the future with an error.
func (f *Future) SetException(err error) bool {
	return f.resolve(nil, err)
}

func (f *Future) resolve(v interface{}, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.mu.Lock()
		f.result = v
		f.err = err
		f.resolved = true
		f.mu.Unlock()
		close(f.done)
		resolved = true
	})
	return resolved
}

// Wait blocks until the future is resolved or ctx is done, whichever comes
// first.
func (f *Future) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done reports whether the future has already been resolved.
func (f *Future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
