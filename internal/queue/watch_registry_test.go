package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ls-2018/faaskeeper-go/types"
)

func TestWatchRegistryAddReplacesSameType(t *testing.T) {
	r := newWatchRegistry()
	first := &types.Watch{Path: "/a", Type: types.WatchGetData, Timestamp: 1}
	second := &types.Watch{Path: "/a", Type: types.WatchGetData, Timestamp: 2}

	r.add("/a", first)
	r.add("/a", second)

	got := r.takeOlderThan([]string{"/a"}, 10)
	assert.Len(t, got, 1)
	assert.Same(t, second, got[0])
}

func TestWatchRegistryTakeOlderThanIsPartial(t *testing.T) {
	r := newWatchRegistry()
	r.add("/a", &types.Watch{Path: "/a", Type: types.WatchGetData, Timestamp: 1})
	r.add("/a", &types.Watch{Path: "/a", Type: types.WatchExists, Timestamp: 100})

	got := r.takeOlderThan([]string{"/a"}, 10)
	assert.Len(t, got, 1)
	assert.Equal(t, types.WatchGetData, got[0].Type)

	remaining := r.takeOlderThan([]string{"/a"}, 1000)
	assert.Len(t, remaining, 1)
	assert.Equal(t, types.WatchExists, remaining[0].Type)
}

func TestWatchRegistryTakeMatchingRemovesGetDataWatch(t *testing.T) {
	r := newWatchRegistry()
	r.add("/a", &types.Watch{Path: "/a", Type: types.WatchGetData, Timestamp: 1})

	w, ok := r.takeMatching("/a", types.NodeDataChanged)
	assert.True(t, ok)
	assert.Equal(t, types.WatchGetData, w.Type)

	_, ok = r.takeMatching("/a", types.NodeDataChanged)
	assert.False(t, ok)
}

func TestWatchRegistryTakeMatchingNoWatchReturnsFalse(t *testing.T) {
	r := newWatchRegistry()
	_, ok := r.takeMatching("/unregistered", types.NodeDataChanged)
	assert.False(t, ok)
}
