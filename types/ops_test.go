package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectResultValue(t *testing.T) {
	n := &Node{Path: "/a"}
	v, err := NodeResult(n).Value()
	require.NoError(t, err)
	assert.Same(t, n, v)

	v, err = NullResult().Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	boom := assert.AnError
	v, err = ErrorResult(boom).Value()
	assert.Nil(t, v)
	assert.ErrorIs(t, err, boom)
}

func TestCreateOpGenerateRequestAndProcessResult(t *testing.T) {
	op := NewCreateOp("/a", []byte("hi"), "session-1")
	req := op.GenerateRequest()
	assert.Equal(t, "create_node", req["op"])
	assert.Equal(t, "/a", req["path"])
	assert.Equal(t, "session-1", req["user"])
	assert.True(t, op.IsCloudRequest())

	future := NewFuture()
	op.ProcessResult(map[string]interface{}{"status": "ok", "version": int64(3)}, future)

	v, err := future.Wait(context.Background())
	require.NoError(t, err)
	node := v.(*Node)
	assert.Equal(t, "/a", node.Path)
	assert.EqualValues(t, 3, node.Modified.System.Sum)
}

func TestCreateOpProcessResultError(t *testing.T) {
	op := NewCreateOp("/a", nil, "session-1")
	future := NewFuture()
	op.ProcessResult(map[string]interface{}{"status": "error", "error": "boom"}, future)

	_, err := future.Wait(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestDeleteOpProcessResultResolvesNil(t *testing.T) {
	op := NewDeleteOp("/a", 1, "session-1")
	future := NewFuture()
	op.ProcessResult(map[string]interface{}{"status": "ok"}, future)

	v, err := future.Wait(context.Background())
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDirectOpsWantWatch(t *testing.T) {
	get := NewGetDataOp("/a", true)
	wt, want := get.WantsWatch()
	assert.True(t, want)
	assert.Equal(t, WatchGetData, wt)
	assert.False(t, get.IsCloudRequest())

	ex := NewExistsOp("/a", false)
	_, want = ex.WantsWatch()
	assert.False(t, want)

	kids := NewGetChildrenOp("/a", true)
	wt, want = kids.WantsWatch()
	assert.True(t, want)
	assert.Equal(t, WatchGetChildren, wt)
}
