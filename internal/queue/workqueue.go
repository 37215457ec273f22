// Package queue implements the two FIFO inboxes shared by the core's
// components: WorkQueue (user submissions awaiting dispatch) and EventQueue
// (replies, direct results, and watch notifications awaiting sorting).
package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ls-2018/faaskeeper-go/types"
)

// pollInterval bounds how long a Dequeue call blocks before returning a nil
// item, so that consumers can interleave their own timeout scans.
const pollInterval = 500 * time.Millisecond

// WorkItem is a single user submission: the request_id WorkQueue assigned
// it, the operation itself, the future the caller is waiting on, and,
// for a direct-request that wants a watch armed, the callback to attach
// to it. WatchCallback is nil for every cloud-request and for direct
// requests that did not ask for a watch.
type WorkItem struct {
	RequestID     int64
	Op            types.Operation
	Future        *types.Future
	WatchCallback func(types.WatchedEvent)
}

// WorkQueue is a FIFO of WorkItems. Request IDs are assigned under a mutex
// at Enqueue time, giving strict, gap-free per-session ordering.
type WorkQueue struct {
	log      *zap.Logger
	clock    clockwork.Clock
	items    chan WorkItem
	mu       sync.Mutex
	nextID   int64
	closing  atomic.Bool
}

// NewWorkQueue returns a WorkQueue with the given channel capacity. A small
// capacity applies backpressure to callers; this module defaults to a
// generous capacity (see faaskeeper.Config) rather than an unbounded queue.
func NewWorkQueue(log *zap.Logger, clock clockwork.Clock, capacity int) *WorkQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &WorkQueue{
		log:   log,
		clock: clock,
		items: make(chan WorkItem, capacity),
	}
}

// Enqueue assigns the next request_id and appends the item. It fails with
// types.ErrSessionClosing once Close has been called.
func (q *WorkQueue) Enqueue(op types.Operation, future *types.Future) (int64, error) {
	return q.enqueue(op, future, nil)
}

// EnqueueWatch is Enqueue for a direct-request operation that wants a watch
// armed on completion; callback is attached to the Watch the provider
// returns, if any.
func (q *WorkQueue) EnqueueWatch(op types.Operation, future *types.Future, callback func(types.WatchedEvent)) (int64, error) {
	return q.enqueue(op, future, callback)
}

func (q *WorkQueue) enqueue(op types.Operation, future *types.Future, callback func(types.WatchedEvent)) (int64, error) {
	if q.closing.Load() {
		return 0, types.ErrSessionClosing
	}

	q.mu.Lock()
	id := q.nextID
	q.nextID++
	q.mu.Unlock()

	q.items <- WorkItem{RequestID: id, Op: op, Future: future, WatchCallback: callback}
	return id, nil
}

// Dequeue returns the head item, or (nil, nil) if nothing arrived within the
// poll interval, or a non-nil error if ctx is done first.
func (q *WorkQueue) Dequeue(ctx context.Context) (*WorkItem, error) {
	select {
	case item, ok := <-q.items:
		if !ok {
			return nil, nil
		}
		return &item, nil
	case <-time.After(pollInterval):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close marks the queue as closing; subsequent Enqueue calls fail.
func (q *WorkQueue) Close() {
	q.closing.Store(true)
}

// DrainOrFail waits up to timeout for the queue to become empty, polling on
// the injected clock so tests can drive it with a fake clock.
func (q *WorkQueue) DrainOrFail(timeout time.Duration) error {
	deadline := q.clock.Now().Add(timeout)
	for len(q.items) > 0 {
		if !q.clock.Now().Before(deadline) {
			return &types.TimeoutError{Budget: timeout}
		}
		q.clock.Sleep(10 * time.Millisecond)
	}
	return nil
}

// Len reports the number of items currently buffered, for diagnostics.
func (q *WorkQueue) Len() int { return len(q.items) }
