// Package sorter implements the Sorter: the goroutine that drains the
// EventQueue, correlates indirect callbacks with expected requests in
// strict submission order, fires watches, completes futures, and enforces
// per-request timeouts.
package sorter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ls-2018/faaskeeper-go/internal/queue"
	"github.com/ls-2018/faaskeeper-go/metrics"
	"github.com/ls-2018/faaskeeper-go/types"
)

// DefaultTimeout is the per-request deadline a pending cloud request may
// wait for its indirect reply before the Sorter fails it.
const DefaultTimeout = 5 * time.Second

// pendingEntry reserves a cloud request's place in submission order until
// its indirect reply arrives or it times out.
type pendingEntry struct {
	requestID int64
	op        types.Operation
	future    *types.Future
	enqueued  time.Time
}

// FaultHandler is invoked when the Sorter observes an ordering fault: an
// indirect reply whose local index does not match the head of the pending
// list. There is no safe recovery from this, so the default handler
// terminates the process; tests inject a handler that instead records the
// fault and lets the goroutine return.
type FaultHandler func(err *types.OrderingFaultError)

// Sorter drains the EventQueue and is the sole owner of the pending list.
type Sorter struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	clock   clockwork.Clock
	events  *queue.EventQueue
	timeout time.Duration
	onFault FaultHandler

	pending []pendingEntry

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New constructs a Sorter. A nil FaultHandler defaults to panicking, since
// an ordering fault indicates a protocol or client bug with no safe
// recovery (SPEC_FULL.md §7).
func New(log *zap.Logger, m *metrics.Metrics, clock clockwork.Clock, events *queue.EventQueue, timeout time.Duration, onFault FaultHandler) *Sorter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if onFault == nil {
		onFault = func(err *types.OrderingFaultError) { panic(err) }
	}
	return &Sorter{
		log:     log,
		metrics: m,
		clock:   clock,
		events:  events,
		timeout: timeout,
		onFault: onFault,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start spawns the sorting loop.
func (s *Sorter) Start() {
	go s.run()
}

func (s *Sorter) run() {
	defer close(s.done)
	s.log.Info("sorter started")

	ctx := context.Background()
	for {
		select {
		case <-s.stop:
			s.log.Info("sorter stopping")
			return
		default:
		}

		event, err := s.events.Dequeue(ctx)
		if err != nil {
			s.log.Info("sorter dequeue canceled", zap.Error(err))
			return
		}

		if event == nil {
			s.checkTimeouts()
			continue
		}

		processed := s.dispatch(event)
		if !processed {
			s.checkTimeouts()
		}

		s.metrics.SetPendingDepth(len(s.pending))
	}
}

// dispatch handles one event and reports whether a future was completed,
// mirroring the core's rule that a timeout scan only runs when the
// iteration didn't otherwise make progress.
func (s *Sorter) dispatch(event *queue.Event) bool {
	switch event.Kind {
	case queue.CloudExpectedResult:
		s.pending = append(s.pending, pendingEntry{
			requestID: event.RequestID,
			op:        event.Op,
			future:    event.Future,
			enqueued:  s.clock.Now(),
		})
		return false

	case queue.CloudDirectResult:
		s.handleDirectResult(event)
		return true

	case queue.CloudIndirectResult:
		return s.handleIndirectResult(event)

	case queue.WatchNotification:
		event.Watch.Deliver(event.WatchedEvent)
		s.metrics.RecordWatchFired()
		return false

	default:
		return false
	}
}

func (s *Sorter) handleDirectResult(event *queue.Event) {
	// A direct result also covers the synthetic failure a cloud request gets
	// when the provider rejects it outright: in that case a pending entry
	// was already reserved by CloudExpectedResult and must be released
	// here, since no indirect reply will ever arrive for it.
	if len(s.pending) > 0 && s.pending[0].requestID == event.RequestID {
		s.pending = s.pending[1:]
		s.metrics.RecordCompleted("failed_early")
	}

	if node := event.Direct.Node; node != nil {
		s.fireWatchesForNode(node)
	}

	val, err := event.Direct.Value()
	if err != nil {
		event.Future.SetException(err)
	} else {
		event.Future.SetResult(val)
	}
}

func (s *Sorter) fireWatchesForNode(node *types.Node) {
	observed := node.Modified.System.Sum

	paths := append([]string{node.Path}, node.AffectedPaths()...)
	watches, err := s.events.GetWatches(paths, observed)
	if err != nil {
		return
	}

	for _, w := range watches {
		event := types.WatchedEvent{Type: types.NodeDataChanged, Path: w.Path, Timestamp: observed}
		w.Deliver(event)
		s.metrics.RecordWatchFired()
	}
}

func (s *Sorter) handleIndirectResult(event *queue.Event) bool {
	localIdx, err := parseLocalIndex(event.IndirectReply)
	if err != nil {
		s.log.Warn("dropping indirect result with malformed event key", zap.Error(err))
		return false
	}

	if len(s.pending) == 0 {
		// The matching request already timed out (SPEC_FULL.md §9
		// decision 3): the future is long since resolved, so there is
		// nothing left to deliver this reply to.
		s.log.Warn("dropping late indirect result for already-resolved request", zap.Int64("request_id", localIdx))
		return false
	}

	head := s.pending[0]
	if head.requestID != localIdx {
		fault := &types.OrderingFaultError{Expected: head.requestID, Got: localIdx}
		s.metrics.RecordOrderingFault()
		s.onFault(fault)
		return false
	}

	s.pending = s.pending[1:]
	head.op.ProcessResult(event.IndirectReply, head.future)
	s.metrics.RecordCompleted("completed")
	return true
}

// checkTimeouts scans pending from the head, failing and removing every
// entry whose age has reached the per-request timeout. It stops at the
// first non-expired entry, since enqueue timestamps are monotone.
func (s *Sorter) checkTimeouts() {
	now := s.clock.Now()
	i := 0
	for i < len(s.pending) {
		age := now.Sub(s.pending[i].enqueued)
		if age < s.timeout {
			break
		}
		s.pending[i].future.SetException(&types.TimeoutError{Budget: s.timeout})
		s.metrics.RecordTimeout()
		s.metrics.RecordCompleted("timed_out")
		i++
	}
	if i > 0 {
		s.pending = s.pending[i:]
	}
}

func parseLocalIndex(reply map[string]interface{}) (int64, error) {
	raw, _ := reply["event"].(string)
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("faaskeeper: malformed event key %q", raw)
	}
	idx, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("faaskeeper: malformed event key %q: %w", raw, err)
	}
	return idx, nil
}

// Stop signals the sorting loop to exit and blocks until it has.
func (s *Sorter) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}
