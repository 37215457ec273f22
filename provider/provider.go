// Package provider declares the boundary between the client's core
// ordering engine and the cloud infrastructure it runs against. Concrete
// cloud-SDK-backed adapters are out of scope for this module (see
// SPEC_FULL.md §1); only the interface and an in-memory double used by
// tests and the CLI demo live here.
package provider

import (
	"context"

	"github.com/ls-2018/faaskeeper-go/types"
)

// ListenerAddr is the rendezvous a direct read or cloud request advertises
// to the provider so that asynchronous results and watch notifications can
// find their way back to this session's ResponseListener.
type ListenerAddr struct {
	Address string
	Port    int
}

// Provider is the cloud adapter consumed by the Submitter. Implementations
// are expected to be safe for concurrent use, though in the current
// architecture only the Submitter goroutine ever calls them.
type Provider interface {
	// SendRequest is a fire-and-forget write to the provider's request
	// queue. The reply, if any, arrives later over the session's listener
	// socket and is correlated by requestID.
	SendRequest(ctx context.Context, requestID string, data map[string]interface{}) error

	// ExecuteRequest performs a synchronous direct storage access and
	// returns its outcome, optionally paired with a Watch that the caller
	// must register before honoring the result.
	ExecuteRequest(ctx context.Context, op types.Operation, listener ListenerAddr) (types.DirectResult, *types.Watch, error)
}
