package queue

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ls-2018/faaskeeper-go/metrics"
	"github.com/ls-2018/faaskeeper-go/types"
)

// EventKind tags the four shapes of event the Sorter consumes from the
// EventQueue.
type EventKind int

const (
	CloudExpectedResult EventKind = iota
	CloudDirectResult
	CloudIndirectResult
	WatchNotification
)

// Event is the single tagged struct carried on the event queue; only the
// fields relevant to Kind are populated.
type Event struct {
	Kind EventKind

	// CloudExpectedResult / CloudDirectResult
	RequestID int64
	Op        types.Operation
	Future    *types.Future
	Direct    types.DirectResult

	// CloudIndirectResult
	IndirectReply map[string]interface{}

	// WatchNotification
	Watch        *types.Watch
	WatchedEvent types.WatchedEvent
}

// EventQueue is the multiplexed inbox for replies, direct results, and
// watch notifications, and the owner of the watch registry.
type EventQueue struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	items   chan Event
	closing atomic.Bool

	watches *watchRegistry
}

// NewEventQueue returns an EventQueue with the given channel capacity.
func NewEventQueue(log *zap.Logger, m *metrics.Metrics, capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &EventQueue{
		log:     log,
		metrics: m,
		items:   make(chan Event, capacity),
		watches: newWatchRegistry(),
	}
}

func (q *EventQueue) push(e Event) error {
	if q.closing.Load() {
		return types.ErrSessionClosing
	}
	q.items <- e
	return nil
}

// AddExpectedResult records that a cloud request has been dispatched and a
// matching indirect reply is now expected, in submission order.
func (q *EventQueue) AddExpectedResult(requestID int64, op types.Operation, future *types.Future) error {
	return q.push(Event{Kind: CloudExpectedResult, RequestID: requestID, Op: op, Future: future})
}

// AddDirectResult records the outcome of a direct storage read.
func (q *EventQueue) AddDirectResult(requestID int64, result types.DirectResult, future *types.Future) error {
	return q.push(Event{Kind: CloudDirectResult, RequestID: requestID, Direct: result, Future: future})
}

// AddIndirectResult records a raw reply received over the listener socket.
func (q *EventQueue) AddIndirectResult(reply map[string]interface{}) error {
	return q.push(Event{Kind: CloudIndirectResult, IndirectReply: reply})
}

// AddWatchNotification parses a {path, watch-event, timestamp} reply,
// matches it against the watch registry, and (if a match exists) promotes
// it to a WatchNotification event. Notifications with no matching
// registered watch are logged and dropped, per the core's contract.
func (q *EventQueue) AddWatchNotification(reply map[string]interface{}) error {
	if q.closing.Load() {
		return types.ErrSessionClosing
	}

	path, _ := reply["path"].(string)
	watchEvent := types.WatchEventType(asInt(reply["watch-event"]))
	timestamp := asInt64(reply["timestamp"])

	watch, ok := q.watches.takeMatching(path, watchEvent)
	if !ok {
		if q.log != nil {
			q.log.Warn("ignoring watch notification with no matching watch",
				zap.String("path", path), zap.Int("watch_event", int(watchEvent)))
		}
		return nil
	}

	return q.push(Event{
		Kind:         WatchNotification,
		Watch:        watch,
		WatchedEvent: types.WatchedEvent{Type: watchEvent, Path: path, Timestamp: timestamp},
	})
}

// AddWatch registers watch against path, replacing any existing watch of
// the same type on that path.
func (q *EventQueue) AddWatch(path string, watch *types.Watch) error {
	if q.closing.Load() {
		return types.ErrSessionClosing
	}
	q.watches.add(path, watch)
	q.metrics.RecordWatchRegistered()
	return nil
}

// GetWatches returns every watch across paths whose registration timestamp
// precedes observedTimestamp, removing exactly those watches from the
// registry (see SPEC_FULL.md §9 decision 1 for the partial-removal
// semantics chosen here).
func (q *EventQueue) GetWatches(paths []string, observedTimestamp int64) ([]*types.Watch, error) {
	if q.closing.Load() {
		return nil, types.ErrSessionClosing
	}
	return q.watches.takeOlderThan(paths, observedTimestamp), nil
}

// Dequeue returns the head event, or (nil, nil) if nothing arrived within
// the poll interval, or a non-nil error if ctx is done first.
func (q *EventQueue) Dequeue(ctx context.Context) (*Event, error) {
	select {
	case e, ok := <-q.items:
		if !ok {
			return nil, nil
		}
		return &e, nil
	case <-time.After(pollInterval):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close marks the queue as closing; subsequent mutating calls fail.
func (q *EventQueue) Close() {
	q.closing.Store(true)
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func hashPath(path string) string {
	sum := md5.Sum([]byte(path))
	return hex.EncodeToString(sum[:])
}
