package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ls-2018/faaskeeper-go/internal/queue"
	"github.com/ls-2018/faaskeeper-go/metrics"
	"github.com/ls-2018/faaskeeper-go/types"
)

func stubResolver(addr string) AddressResolver {
	return func(ctx context.Context) (string, error) { return addr, nil }
}

func TestResponseListenerClassifiesIndirectResult(t *testing.T) {
	events := queue.NewEventQueue(zap.NewNop(), metrics.New(nil), 8)
	l, err := Start(context.Background(), zap.NewNop(), events, 0, stubResolver("127.0.0.1"))
	require.NoError(t, err)
	defer l.Stop()

	send(t, l.Port(), map[string]interface{}{"event": "S-0", "status": "ok"})

	ev, err := events.Dequeue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, queue.CloudIndirectResult, ev.Kind)
}

func TestResponseListenerClassifiesWatchNotification(t *testing.T) {
	events := queue.NewEventQueue(zap.NewNop(), metrics.New(nil), 8)
	l, err := Start(context.Background(), zap.NewNop(), events, 0, stubResolver("127.0.0.1"))
	require.NoError(t, err)
	defer l.Stop()

	require.NoError(t, events.AddWatch("/z", &types.Watch{Path: "/z", Type: types.WatchGetData, Timestamp: 0}))

	send(t, l.Port(), map[string]interface{}{"path": "/z", "watch-event": 1, "timestamp": 7})

	ev, err := events.Dequeue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, queue.WatchNotification, ev.Kind)
}

func TestResponseListenerStop(t *testing.T) {
	events := queue.NewEventQueue(zap.NewNop(), metrics.New(nil), 8)
	l, err := Start(context.Background(), zap.NewNop(), events, 0, stubResolver("127.0.0.1"))
	require.NoError(t, err)

	start := time.Now()
	l.Stop()
	assert.Less(t, time.Since(start), 2*time.Second)
}

func send(t *testing.T, port int, msg map[string]interface{}) {
	t.Helper()
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, json.NewEncoder(conn).Encode(msg))
}
