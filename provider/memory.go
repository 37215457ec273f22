package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ls-2018/faaskeeper-go/types"
)

// MemoryProvider is an in-memory double for Provider. It stands in for the
// out-of-scope cloud-SDK-backed adapters: cloud requests are applied to an
// in-process namespace and the "worker function" reply is delivered by
// dialing back into the caller's own ResponseListener over TCP, exercising
// the real wire protocol end to end. It exists for tests and the CLI demo,
// not as a production provider.
type MemoryProvider struct {
	mu      sync.Mutex
	nodes   map[string]*types.Node
	nextSum int64
	clock   clockwork.Clock
	log     *zap.Logger
	dial    func(network, addr string) (net.Conn, error)
}

// NewMemoryProvider returns an empty namespace. Logical timestamps come from
// an internal counter bumped on every write; clock only sets the write
// deadline of the dial-back reply.
func NewMemoryProvider(clock clockwork.Clock, log *zap.Logger) *MemoryProvider {
	return &MemoryProvider{
		nodes: make(map[string]*types.Node),
		clock: clock,
		log:   log,
		dial:  net.Dial,
	}
}

// SendRequest applies the write synchronously against the in-memory
// namespace (simulating the server-side worker function) and then dials
// back to the session's listener with the indirect reply, asynchronously,
// the way a real worker function would deliver its callback.
func (p *MemoryProvider) SendRequest(ctx context.Context, requestID string, data map[string]interface{}) error {
	op, _ := data["op"].(string)
	path, _ := data["path"].(string)

	reply := p.apply(op, path, data)
	reply["event"] = requestID

	sourceIP, _ := data["sourceIP"].(string)
	sourcePort := data["sourcePort"]

	go p.deliver(fmt.Sprintf("%s:%v", sourceIP, sourcePort), reply)
	return nil
}

func (p *MemoryProvider) apply(op, path string, data map[string]interface{}) map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch op {
	case "delete_node":
		delete(p.nodes, path)
		return map[string]interface{}{"status": "ok"}
	default:
		p.nextSum++
		sum := p.nextSum
		node := &types.Node{
			Path: path,
			Data: bytesOf(data["data"]),
			Modified: types.Modified{
				System: types.System{Sum: sum},
			},
		}
		p.nodes[path] = node
		return map[string]interface{}{
			"status":  "ok",
			"version": sum,
		}
	}
}

// deliver dials addr and writes a single JSON message, matching the one
// message per TCP connection wire protocol the ResponseListener expects. A
// dial failure only means the test client has since stopped listening; it
// is logged, not retried, mirroring a fire-and-forget worker callback.
func (p *MemoryProvider) deliver(addr string, reply map[string]interface{}) {
	conn, err := p.dial("tcp", addr)
	if err != nil {
		if p.log != nil {
			p.log.Warn("memory provider could not reach listener", zap.String("addr", addr), zap.Error(err))
		}
		return
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(p.clock.Now().Add(2 * time.Second))
	_ = json.NewEncoder(conn).Encode(reply)
}

// NotifyWatch dials addr with a synthetic watch-event message, letting
// tests and the CLI demo trigger a NODE_DATA_CHANGED notification the same
// way a real watch dispatcher would.
func (p *MemoryProvider) NotifyWatch(addr, path string, watchEvent int, timestamp int64) error {
	conn, err := p.dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	return json.NewEncoder(conn).Encode(map[string]interface{}{
		"path":        path,
		"watch-event": watchEvent,
		"timestamp":   timestamp,
	})
}

// ExecuteRequest performs a synchronous direct read against the in-memory
// namespace and arms a watch when the operation requests one.
func (p *MemoryProvider) ExecuteRequest(ctx context.Context, op types.Operation, listener ListenerAddr) (types.DirectResult, *types.Watch, error) {
	p.mu.Lock()
	node := p.nodes[op.Path()]
	p.mu.Unlock()

	var watch *types.Watch
	if wr, ok := op.(types.WatchRequester); ok {
		if wt, want := wr.WantsWatch(); want {
			watch = &types.Watch{Path: op.Path(), Type: wt, Timestamp: p.logicalNow()}
		}
	}

	switch op.Name() {
	case "exists":
		if node == nil {
			return types.NullResult(), watch, nil
		}
		return types.NodeResult(node), watch, nil
	case "get_children":
		if node == nil {
			return types.NullResult(), watch, nil
		}
		return types.NodeResult(node), watch, nil
	default: // get_data
		if node == nil {
			return types.NullResult(), watch, fmt.Errorf("faaskeeper: no such node: %s", op.Path())
		}
		return types.NodeResult(node), watch, nil
	}
}

func (p *MemoryProvider) logicalNow() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextSum
}

func bytesOf(v interface{}) []byte {
	switch b := v.(type) {
	case []byte:
		return b
	case string:
		return []byte(b)
	default:
		return nil
	}
}
