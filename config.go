package faaskeeper

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ls-2018/faaskeeper-go/internal/listener"
	"github.com/ls-2018/faaskeeper-go/provider"
)

// AddressResolver discovers the address this session advertises to the
// provider as its reply rendezvous.
type AddressResolver = listener.AddressResolver

// Config mirrors the teacher's clientv3.Config: a flat struct constructible
// either by struct literal or through the CLI's flag parsing, with every
// field except Provider optional and a sensible default filled in by
// NewSession.
type Config struct {
	// Provider is the cloud adapter this session dispatches cloud requests
	// and direct reads through. Required.
	Provider provider.Provider

	// ListenPort is the local port the ResponseListener binds. Zero picks
	// an ephemeral port, the default for library use.
	ListenPort int

	// AddressResolver discovers this client's public address, advertised
	// to the provider as the rendezvous for indirect results. Defaults to
	// an HTTP GET against a well-known echo endpoint.
	AddressResolver AddressResolver

	// RequestTimeout bounds how long a cloud request may wait in the
	// Sorter's pending list for its indirect reply. Defaults to 5s.
	RequestTimeout time.Duration

	// StopTimeout bounds how long Stop waits for the WorkQueue to drain
	// before giving up and tearing down anyway. Defaults to 5s.
	StopTimeout time.Duration

	// RateLimit caps outbound SendRequest calls per second. Zero disables
	// rate limiting.
	RateLimit float64
	// RateBurst is the token bucket burst size paired with RateLimit.
	// Defaults to 1 when RateLimit is set and this is zero.
	RateBurst int

	// QueueCapacity bounds the WorkQueue and EventQueue channel buffers.
	// Defaults to 1024.
	QueueCapacity int

	// Logger receives structured logs from every component. Defaults to
	// zap.NewProduction().
	Logger *zap.Logger

	// Clock sources time for pending-request timestamps and the timeout
	// scan. Defaults to clockwork.NewRealClock(); tests inject a
	// clockwork.NewFakeClock().
	Clock clockwork.Clock

	// Registry, if non-nil, receives the session's Prometheus collectors.
	// A nil Registry still produces a usable, nil-safe *metrics.Metrics.
	Registry prometheus.Registerer

	// OnOrderingFault overrides the Sorter's response to an ordering
	// fault. Defaults to panicking, since there is no safe recovery.
	OnOrderingFault func(err error)
}
