package faaskeeper

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ls-2018/faaskeeper-go/provider"
	"github.com/ls-2018/faaskeeper-go/types"
)

func loopbackResolver(ctx context.Context) (string, error) { return "127.0.0.1", nil }

func newTestSession(t *testing.T) *Session {
	t.Helper()
	clock := clockwork.NewRealClock()
	prov := provider.NewMemoryProvider(clock, zap.NewNop())

	session, err := NewSession(context.Background(), Config{
		Provider:        prov,
		Logger:          zap.NewNop(),
		Clock:           clock,
		RequestTimeout:  2 * time.Second,
		StopTimeout:     time.Second,
		AddressResolver: loopbackResolver,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Stop() })
	return session
}

func TestSessionCreateThenGetData(t *testing.T) {
	session := newTestSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	created, err := session.Create(ctx, "/a", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "/a", created.Path)

	node, err := session.GetData(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), node.Data)
}

func TestSessionExistsReflectsCreateAndDelete(t *testing.T) {
	session := newTestSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ok, err := session.Exists(ctx, "/a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = session.Create(ctx, "/a", []byte("x"))
	require.NoError(t, err)

	ok, err = session.Exists(ctx, "/a")
	require.NoError(t, err)
	assert.True(t, ok)

	err = session.Delete(ctx, "/a", -1)
	require.NoError(t, err)
}

func TestSessionCloseFailsSubsequentCalls(t *testing.T) {
	session := newTestSession(t)
	require.NoError(t, session.Stop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := session.Create(ctx, "/a", []byte("x"))
	assert.True(t, IsSessionClosing(err))
}

func TestSessionGetDataWFiresOnWatchNotification(t *testing.T) {
	clock := clockwork.NewRealClock()
	prov := provider.NewMemoryProvider(clock, zap.NewNop())
	session, err := NewSession(context.Background(), Config{
		Provider:        prov,
		Logger:          zap.NewNop(),
		Clock:           clock,
		AddressResolver: loopbackResolver,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Stop() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err = session.Create(ctx, "/a", []byte("v1"))
	require.NoError(t, err)

	fired := make(chan types.WatchedEvent, 1)
	_, err = session.GetDataW(ctx, "/a", func(ev types.WatchedEvent) { fired <- ev })
	require.NoError(t, err)

	addr := session.ListenerAddr()
	require.NoError(t, prov.NotifyWatch(addr.Address+":"+itoa(addr.Port), "/a", 1, 42))

	select {
	case ev := <-fired:
		assert.Equal(t, "/a", ev.Path)
		assert.EqualValues(t, 42, ev.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the watch to fire after a notification was delivered")
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
