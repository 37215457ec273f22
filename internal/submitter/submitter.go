// Package submitter implements the Submitter: the goroutine that drains the
// WorkQueue and turns each item into either a dispatched cloud request or a
// completed direct read, reporting outcomes through the EventQueue.
package submitter

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ls-2018/faaskeeper-go/internal/queue"
	"github.com/ls-2018/faaskeeper-go/metrics"
	"github.com/ls-2018/faaskeeper-go/provider"
	"github.com/ls-2018/faaskeeper-go/types"
)

// Submitter drains WorkQueue and dispatches each item to the provider,
// reporting outcomes into EventQueue. Exactly one goroutine ever calls the
// provider, so no internal locking around it is required.
type Submitter struct {
	log        *zap.Logger
	metrics    *metrics.Metrics
	work       *queue.WorkQueue
	events     *queue.EventQueue
	provider   provider.Provider
	sessionID  string
	listener   func() provider.ListenerAddr
	limiter    *rate.Limiter

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New constructs a Submitter. limiter may be nil, in which case submissions
// are not rate-limited.
func New(
	log *zap.Logger,
	m *metrics.Metrics,
	work *queue.WorkQueue,
	events *queue.EventQueue,
	prov provider.Provider,
	sessionID string,
	listener func() provider.ListenerAddr,
	limiter *rate.Limiter,
) *Submitter {
	return &Submitter{
		log:       log,
		metrics:   m,
		work:      work,
		events:    events,
		provider:  prov,
		sessionID: sessionID,
		listener:  listener,
		limiter:   limiter,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start spawns the submission loop.
func (s *Submitter) Start() {
	go s.run()
}

func (s *Submitter) run() {
	defer close(s.done)
	s.log.Info("submitter started")

	ctx := context.Background()
	for {
		select {
		case <-s.stop:
			s.log.Info("submitter stopping")
			return
		default:
		}

		item, err := s.work.Dequeue(ctx)
		if err != nil {
			s.log.Info("submitter dequeue canceled", zap.Error(err))
			return
		}
		if item == nil {
			continue
		}

		s.metrics.RecordSubmitted(item.Op.Name())
		s.dispatch(ctx, item)
	}
}

func (s *Submitter) dispatch(ctx context.Context, item *queue.WorkItem) {
	if item.Op.IsCloudRequest() {
		s.dispatchCloud(ctx, item)
		return
	}
	s.dispatchDirect(ctx, item)
}

func (s *Submitter) dispatchCloud(ctx context.Context, item *queue.WorkItem) {
	s.log.Info("begin executing cloud operation", zap.String("op", item.Op.Name()), zap.Int64("request_id", item.RequestID))

	// Establish the ordering slot before the provider call returns, so the
	// Sorter can never observe a matching indirect reply first.
	if err := s.events.AddExpectedResult(item.RequestID, item.Op, item.Future); err != nil {
		item.Future.SetException(err)
		return
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.failCloud(item, err)
			return
		}
	}

	addr := s.listener()
	data := item.Op.GenerateRequest()
	if data == nil {
		data = map[string]interface{}{}
	}
	data["sourceIP"] = addr.Address
	data["sourcePort"] = addr.Port

	requestID := fmt.Sprintf("%s-%d", s.sessionID, item.RequestID)
	if err := s.provider.SendRequest(ctx, requestID, data); err != nil {
		s.failCloud(item, err)
	}
}

// failCloud implements SPEC_FULL.md §9 decision 2: a provider failure on a
// cloud request is surfaced as a direct result carrying the same
// request_id, which the Sorter recognizes as matching the head of its
// pending list and uses to both complete the future and release the slot.
func (s *Submitter) failCloud(item *queue.WorkItem, err error) {
	providerErr := &types.ProviderError{Op: item.Op.Name(), Err: err}
	s.log.Warn("provider rejected cloud request", zap.String("op", item.Op.Name()), zap.Error(providerErr))
	_ = s.events.AddDirectResult(item.RequestID, types.ErrorResult(providerErr), item.Future)
}

func (s *Submitter) dispatchDirect(ctx context.Context, item *queue.WorkItem) {
	addr := s.listener()
	result, watch, err := s.provider.ExecuteRequest(ctx, item.Op, addr)
	if err != nil {
		result = types.ErrorResult(err)
	}

	if watch != nil {
		watch.Callback = item.WatchCallback
		if err := s.events.AddWatch(item.Op.Path(), watch); err != nil {
			s.log.Warn("could not register watch", zap.Error(err))
		}
	}

	if err := s.events.AddDirectResult(item.RequestID, result, item.Future); err != nil {
		item.Future.SetException(err)
	}
}

// Stop signals the submission loop to exit and blocks until it has.
func (s *Submitter) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}
