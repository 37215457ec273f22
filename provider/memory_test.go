package provider

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ls-2018/faaskeeper-go/types"
)

func TestMemoryProviderSendRequestDeliversReply(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan map[string]interface{}, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var msg map[string]interface{}
		_ = json.NewDecoder(conn).Decode(&msg)
		received <- msg
	}()

	addr := ln.Addr().(*net.TCPAddr)
	p := NewMemoryProvider(clockwork.NewRealClock(), zap.NewNop())

	err = p.SendRequest(context.Background(), "S-0", map[string]interface{}{
		"op": "create_node", "path": "/a", "data": []byte("hi"),
		"sourceIP": addr.IP.String(), "sourcePort": addr.Port,
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, "S-0", msg["event"])
		assert.Equal(t, "ok", msg["status"])
	case <-time.After(2 * time.Second):
		t.Fatal("expected the memory provider to dial back with a reply")
	}
}

func TestMemoryProviderExecuteRequestExistsAndGetData(t *testing.T) {
	p := NewMemoryProvider(clockwork.NewRealClock(), zap.NewNop())

	result, _, err := p.ExecuteRequest(context.Background(), testOp{name: "exists", path: "/missing"}, ListenerAddr{})
	require.NoError(t, err)
	assert.Equal(t, types.DirectResultNull, result.Tag)

	err = p.SendRequest(context.Background(), "S-0", map[string]interface{}{
		"op": "create_node", "path": "/a", "data": []byte("hi"), "sourceIP": "127.0.0.1", "sourcePort": 1,
	})
	require.NoError(t, err)

	result, watch, err := p.ExecuteRequest(context.Background(), testOp{name: "get_data", path: "/a", watch: true}, ListenerAddr{})
	require.NoError(t, err)
	require.NotNil(t, watch)
	assert.Equal(t, types.WatchGetData, watch.Type)
}

type testOp struct {
	name  string
	path  string
	watch bool
}

func (o testOp) Name() string                                            { return o.name }
func (o testOp) Path() string                                            { return o.path }
func (o testOp) IsCloudRequest() bool                                    { return false }
func (o testOp) GenerateRequest() map[string]interface{}                 { return nil }
func (o testOp) ProcessResult(map[string]interface{}, *types.Future)     {}
func (o testOp) WantsWatch() (types.WatchType, bool)                     { return types.WatchGetData, o.watch }
