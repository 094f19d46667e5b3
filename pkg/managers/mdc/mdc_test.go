package mdc

import (
	"testing"

	"github.com/go-arcade/ctxprop/pkg/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerPushAndRestore(t *testing.T) {
	rt := runtime.New()
	m := New(rt, "request_id")

	h1 := m.stack.Push("req-1")
	v, ok := m.ActiveContext()
	require.True(t, ok)
	assert.Equal(t, "req-1", v.Value())

	require.NoError(t, h1.Close())
	_, ok = m.ActiveContext()
	assert.False(t, ok)
}

func TestManagerFieldReflectsActiveValue(t *testing.T) {
	rt := runtime.New()
	m := New(rt, "request_id")

	h, err := m.InitializeNewContext("req-2")
	require.NoError(t, err)
	defer h.Close()

	field := m.Field()
	assert.Equal(t, "request_id", field.Key)
	assert.Equal(t, "req-2", field.String)
}

func TestBulkManagerRoundTrip(t *testing.T) {
	rt := runtime.New()
	bm := NewBulk(rt, "thread_context")

	h, err := bm.InitializeNewContext(map[string]string{"a": "1", "b": "2"})
	require.NoError(t, err)

	active, ok := bm.ActiveContext()
	require.True(t, ok)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, active.Value())

	require.NoError(t, h.Close())
	_, ok = bm.ActiveContext()
	assert.False(t, ok)
}

func TestBulkManagerOutOfOrderCloseDoesNotCorruptActiveMap(t *testing.T) {
	rt := runtime.New()
	bm := NewBulk(rt, "thread_context")

	h1, err := bm.InitializeNewContext(map[string]string{"layer": "1"})
	require.NoError(t, err)
	h2, err := bm.InitializeNewContext(map[string]string{"layer": "2"})
	require.NoError(t, err)
	h3, err := bm.InitializeNewContext(map[string]string{"layer": "3"})
	require.NoError(t, err)

	// close h1 first: an interior close must not change the active map.
	require.NoError(t, h1.Close())
	active, ok := bm.ActiveContext()
	require.True(t, ok)
	assert.Equal(t, map[string]string{"layer": "3"}, active.Value())

	require.NoError(t, h2.Close())
	active, ok = bm.ActiveContext()
	require.True(t, ok)
	assert.Equal(t, map[string]string{"layer": "3"}, active.Value())

	require.NoError(t, h3.Close())
	_, ok = bm.ActiveContext()
	assert.False(t, ok)
}

func TestBulkManagerCloseRestoresCurrentMapToParentLayer(t *testing.T) {
	rt := runtime.New()
	bm := NewBulk(rt, "thread_context")

	_, err := bm.InitializeNewContext(map[string]string{"a": "1"})
	require.NoError(t, err)
	h2, err := bm.InitializeNewContext(map[string]string{"b": "2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "2"}, bm.Snapshot())

	require.NoError(t, h2.Close())

	assert.Equal(t, map[string]string{"a": "1"}, bm.Snapshot())
	active, ok := bm.ActiveContext()
	require.True(t, ok)
	assert.Equal(t, map[string]string{"a": "1"}, active.Value())
}

func TestBulkManagerPutMutatesCurrentMap(t *testing.T) {
	rt := runtime.New()
	bm := NewBulk(rt, "thread_context")

	h, err := bm.InitializeNewContext(map[string]string{"a": "1"})
	require.NoError(t, err)
	defer h.Close()

	bm.Put("b", "2")
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, bm.Snapshot())
}

func TestBulkManagerClearResetsMap(t *testing.T) {
	rt := runtime.New()
	bm := NewBulk(rt, "thread_context")

	_, err := bm.InitializeNewContext(map[string]string{"a": "1"})
	require.NoError(t, err)

	bm.ClearActiveContext()
	assert.Empty(t, bm.Snapshot())
	_, ok := bm.ActiveContext()
	assert.False(t, ok)
}
