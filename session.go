// Package faaskeeper is the client-side runtime of a serverless,
// ZooKeeper-like coordination service: a Session facade wiring together the
// submission queue, event queue, response listener, submitter, and sorter
// that together reconstruct request ordering across two asynchronous reply
// channels (direct storage reads and indirect worker-function callbacks).
package faaskeeper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ls-2018/faaskeeper-go/internal/listener"
	"github.com/ls-2018/faaskeeper-go/internal/queue"
	"github.com/ls-2018/faaskeeper-go/internal/sorter"
	"github.com/ls-2018/faaskeeper-go/internal/submitter"
	"github.com/ls-2018/faaskeeper-go/metrics"
	"github.com/ls-2018/faaskeeper-go/provider"
	"github.com/ls-2018/faaskeeper-go/types"
)

const (
	defaultRequestTimeout = 5 * time.Second
	defaultStopTimeout    = 5 * time.Second
	defaultQueueCapacity  = 1024
)

// Session owns the five cooperating components of the core and sequences
// their startup and shutdown. No component owns another's lifecycle beyond
// the queue handles passed into its constructor (SPEC_FULL.md §9).
type Session struct {
	cfg       Config
	sessionID string
	log       *zap.Logger
	clock     clockwork.Clock
	metrics   *metrics.Metrics

	work   *queue.WorkQueue
	events *queue.EventQueue
	recv   *listener.ResponseListener
	sub    *submitter.Submitter
	sort   *sorter.Sorter
}

// NewSession constructs and starts a Session: it binds the response
// listener, resolves this client's public address, and spawns the
// submitter and sorter goroutines. The returned Session is ready to accept
// API calls immediately.
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("faaskeeper: Config.Provider is required")
	}

	log := cfg.Logger
	if log == nil {
		var err error
		log, err = zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("faaskeeper: build default logger: %w", err)
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	resolve := cfg.AddressResolver
	if resolve == nil {
		resolve = listener.HTTPAddressResolver(nil)
	}

	m := metrics.New(cfg.Registry)

	sessionID := uuid.NewString()

	events := queue.NewEventQueue(log, m, cfg.QueueCapacity)
	work := queue.NewWorkQueue(log, clock, cfg.QueueCapacity)

	recv, err := listener.Start(ctx, log, events, cfg.ListenPort, resolve)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	listenerAddr := func() provider.ListenerAddr {
		return provider.ListenerAddr{Address: recv.Address(), Port: recv.Port()}
	}

	sub := submitter.New(log, m, work, events, cfg.Provider, sessionID, listenerAddr, limiter)

	onFault := sorter.FaultHandler(nil)
	if cfg.OnOrderingFault != nil {
		onFault = func(err *types.OrderingFaultError) { cfg.OnOrderingFault(err) }
	}
	sort := sorter.New(log, m, clock, events, requestTimeout, onFault)

	sub.Start()
	sort.Start()

	s := &Session{
		cfg:       cfg,
		sessionID: sessionID,
		log:       log,
		clock:     clock,
		metrics:   m,
		work:      work,
		events:    events,
		recv:      recv,
		sub:       sub,
		sort:      sort,
	}
	s.log.Info("session started", zap.String("session_id", sessionID),
		zap.String("address", recv.Address()), zap.Int("port", recv.Port()))
	return s, nil
}

// SessionID returns the UUID-derived identifier this session advertises on
// every cloud request's event key.
func (s *Session) SessionID() string { return s.sessionID }

// ListenerAddr returns the rendezvous this session advertises to the
// provider for indirect results and watch notifications.
func (s *Session) ListenerAddr() provider.ListenerAddr {
	return provider.ListenerAddr{Address: s.recv.Address(), Port: s.recv.Port()}
}

// Stop closes the work and event queues, waits up to Config.StopTimeout for
// the work queue to drain, and tears down every background goroutine. The
// only error it returns is the WorkQueue drain timeout; stopping the
// ResponseListener, Submitter, and Sorter reports no error.
func (s *Session) Stop() error {
	s.work.Close()
	s.events.Close()

	stopTimeout := s.cfg.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}

	var err error
	if drainErr := s.work.DrainOrFail(stopTimeout); drainErr != nil {
		err = multierr.Append(err, drainErr)
	}

	s.recv.Stop()
	s.sub.Stop()
	s.sort.Stop()

	s.log.Info("session stopped", zap.String("session_id", s.sessionID))
	return err
}

func (s *Session) submitCloud(ctx context.Context, op types.Operation) (interface{}, error) {
	future := types.NewFuture()
	if _, err := s.work.Enqueue(op, future); err != nil {
		return nil, err
	}
	return future.Wait(ctx)
}

func (s *Session) submitDirect(ctx context.Context, op types.Operation, onEvent func(types.WatchedEvent)) (interface{}, error) {
	future := types.NewFuture()
	if _, err := s.work.EnqueueWatch(op, future, onEvent); err != nil {
		return nil, err
	}
	return future.Wait(ctx)
}

// Create creates a node at path with the given initial data and blocks
// until the cloud tier assigns it a logical timestamp.
func (s *Session) Create(ctx context.Context, path string, data []byte) (*types.Node, error) {
	v, err := s.submitCloud(ctx, types.NewCreateOp(path, data, s.sessionID))
	return asNode(v), err
}

// SetData updates the data stored at path, failing the version check
// server-side if version does not match the node's current version.
func (s *Session) SetData(ctx context.Context, path string, data []byte, version int) (*types.Node, error) {
	v, err := s.submitCloud(ctx, types.NewSetDataOp(path, data, version, s.sessionID))
	return asNode(v), err
}

// Delete removes the node at path.
func (s *Session) Delete(ctx context.Context, path string, version int) error {
	_, err := s.submitCloud(ctx, types.NewDeleteOp(path, version, s.sessionID))
	return err
}

// GetData performs a direct read of path's data.
func (s *Session) GetData(ctx context.Context, path string) (*types.Node, error) {
	v, err := s.submitDirect(ctx, types.NewGetDataOp(path, false), nil)
	return asNode(v), err
}

// GetDataW is GetData with a GET_DATA watch armed on path; onEvent is
// invoked from the sorter goroutine exactly once, the next time the node's
// data changes, and must not block for long (SPEC_FULL.md §9).
func (s *Session) GetDataW(ctx context.Context, path string, onEvent func(types.WatchedEvent)) (*types.Node, error) {
	v, err := s.submitDirect(ctx, types.NewGetDataOp(path, true), onEvent)
	return asNode(v), err
}

// Exists reports whether path currently exists.
func (s *Session) Exists(ctx context.Context, path string) (bool, error) {
	v, err := s.submitDirect(ctx, types.NewExistsOp(path, false), nil)
	return v != nil, err
}

// ExistsW is Exists with an EXISTS watch armed on path.
func (s *Session) ExistsW(ctx context.Context, path string, onEvent func(types.WatchedEvent)) (bool, error) {
	v, err := s.submitDirect(ctx, types.NewExistsOp(path, true), onEvent)
	return v != nil, err
}

// GetChildren performs a direct read of path's child snapshot.
func (s *Session) GetChildren(ctx context.Context, path string) (*types.Node, error) {
	v, err := s.submitDirect(ctx, types.NewGetChildrenOp(path, false), nil)
	return asNode(v), err
}

// GetChildrenW is GetChildren with a GET_CHILDREN watch armed on path.
func (s *Session) GetChildrenW(ctx context.Context, path string, onEvent func(types.WatchedEvent)) (*types.Node, error) {
	v, err := s.submitDirect(ctx, types.NewGetChildrenOp(path, true), onEvent)
	return asNode(v), err
}

func asNode(v interface{}) *types.Node {
	if n, ok := v.(*types.Node); ok {
		return n
	}
	return nil
}
