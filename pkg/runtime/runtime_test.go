package runtime

import (
	"testing"

	"github.com/go-arcade/ctxprop/pkg/ctxmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopManager string

func (m noopManager) Name() string { return string(m) }
func (m noopManager) InitializeNewContext(value any) (ctxmgr.Handle, error) {
	return ctxmgr.Absent(), nil
}
func (m noopManager) ActiveContext() (ctxmgr.Handle, bool) { return nil, false }

func TestNewRuntimeIsIsolated(t *testing.T) {
	a := New()
	b := New()

	a.RegisterManager(noopManager("x"))
	assert.Equal(t, 1, a.Managers.Count())
	assert.Equal(t, 0, b.Managers.Count())
}

func TestDefaultReturnsSameInstance(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestRegisterManagerPanicsOnDuplicate(t *testing.T) {
	rt := New()
	rt.RegisterManager(noopManager("x"))
	assert.Panics(t, func() { rt.RegisterManager(noopManager("x")) })
}

func TestObserverBusUsesRuntimeObservers(t *testing.T) {
	rt := New()
	require.NotNil(t, rt.ObserverBus())
}
