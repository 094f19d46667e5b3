package wrapper

import (
	"testing"

	"github.com/go-arcade/ctxprop/pkg/ctxerr"
	"github.com/go-arcade/ctxprop/pkg/ctxmgr"
	"github.com/go-arcade/ctxprop/pkg/runtime"
	"github.com/go-arcade/ctxprop/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stackManager struct {
	name  string
	stack *ctxmgr.Stack
}

func newStackManager(name string) *stackManager {
	return &stackManager{name: name, stack: ctxmgr.NewStack(name)}
}

func (m *stackManager) Name() string { return m.name }
func (m *stackManager) InitializeNewContext(value any) (ctxmgr.Handle, error) {
	return m.stack.Push(value, nil), nil
}
func (m *stackManager) ActiveContext() (ctxmgr.Handle, bool) { return m.stack.Active() }

func TestCallableReactivatesSnapshotAroundCall(t *testing.T) {
	rt := runtime.New()
	locale := newStackManager("locale")
	rt.RegisterManager(locale)

	h := locale.stack.Push("nl_NL", nil)
	snap := snapshot.Create(rt, nil)
	require.NoError(t, h.Close())

	// active value is now "no value"; the wrapper must still see nl_NL
	callable := NewCallable(snap, func() (string, error) {
		v, ok := locale.ActiveContext()
		require.True(t, ok)
		return v.Value().(string), nil
	})

	result, err := callable.Call()
	require.NoError(t, err)
	assert.Equal(t, "nl_NL", result)

	_, ok := locale.ActiveContext()
	assert.False(t, ok)
}

func TestCallableNilSnapshotIsConfigurationError(t *testing.T) {
	callable := NewCallable[string](nil, func() (string, error) { return "x", nil })
	_, err := callable.Call()
	require.Error(t, err)
	assert.True(t, ctxerr.Is(err))
}

func TestCallableForwardsDelegateError(t *testing.T) {
	rt := runtime.New()
	snap := snapshot.Create(rt, nil)

	wantErr := assert.AnError
	callable := NewCallable(snap, func() (string, error) { return "", wantErr })

	_, err := callable.Call()
	assert.Equal(t, wantErr, err)
}

func TestCallableWithSupplierDefersCapture(t *testing.T) {
	rt := runtime.New()
	locale := newStackManager("locale")
	rt.RegisterManager(locale)

	var captured bool
	supplier := func() *snapshot.Snapshot {
		captured = true
		return snapshot.Create(rt, nil)
	}

	callable := NewCallableWithSupplier(supplier, func() (string, error) { return "ok", nil })
	assert.False(t, captured)

	result, err := callable.Call()
	require.NoError(t, err)
	assert.True(t, captured)
	assert.Equal(t, "ok", result)
}

func TestFunctionApply(t *testing.T) {
	rt := runtime.New()
	snap := snapshot.Create(rt, nil)

	fn := NewFunction(snap, func(in int) (int, error) { return in * 2, nil })
	result, err := fn.Apply(21)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestComposeRunsBeforeThenF(t *testing.T) {
	rt := runtime.New()
	snap := snapshot.Create(rt, nil)

	double := NewFunction(snap, func(in int) (int, error) { return in * 2, nil })
	toString := NewFunction(snap, func(in int) (string, error) { return string(rune('a' + in)), nil })

	composed := Compose(toString, double)
	result, err := composed.Apply(1)
	require.NoError(t, err)
	assert.Equal(t, "c", result) // double(1) = 2, 'a'+2 = 'c'
}

func TestRunnableRun(t *testing.T) {
	rt := runtime.New()
	snap := snapshot.Create(rt, nil)

	var ran bool
	runnable := NewRunnable(snap, func() error { ran = true; return nil })
	require.NoError(t, runnable.Run())
	assert.True(t, ran)
}

func TestWrapperSnapshotConsumerReceivesFreshSnapshot(t *testing.T) {
	rt := runtime.New()
	locale := newStackManager("locale")
	rt.RegisterManager(locale)

	h := locale.stack.Push("nl_NL", nil)
	snap := snapshot.Create(rt, nil)
	require.NoError(t, h.Close())

	var consumed *snapshot.Snapshot
	callable := NewCallable(snap, func() (string, error) {
		// mutate the active value during the call so the refreshed snapshot
		// differs from the one the call was invoked under.
		_ = locale.stack.Push("de_DE", nil)
		return "x", nil
	}).WithSnapshotConsumer(func(fresh *snapshot.Snapshot) { consumed = fresh })

	_, err := callable.Call()
	require.NoError(t, err)
	require.NotNil(t, consumed)
}
