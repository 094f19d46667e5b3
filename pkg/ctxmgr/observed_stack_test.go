package ctxmgr

import (
	"testing"

	"github.com/go-arcade/ctxprop/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingObserver collects every OnActivate/OnDeactivate call it receives
// for a single manager name.
type recordingObserver struct {
	name    string
	manager string

	activations   []any
	deactivations []any
}

func (o *recordingObserver) Name() string    { return o.name }
func (o *recordingObserver) Manager() string { return o.manager }

func (o *recordingObserver) OnActivate(newValue, prevValue any, hadPrev bool) {
	o.activations = append(o.activations, newValue)
}

func (o *recordingObserver) OnDeactivate(closedValue, newValue any, hasNewValue bool) {
	o.deactivations = append(o.deactivations, closedValue)
}

// panickingObserver always panics from OnActivate, modeling scenario E6: a
// misbehaving observer must never prevent activation from succeeding or
// prevent its well-behaved peers from being notified.
type panickingObserver struct {
	manager string
}

func (o *panickingObserver) Name() string                                    { return "panicker" }
func (o *panickingObserver) Manager() string                                 { return o.manager }
func (o *panickingObserver) OnActivate(newValue, prevValue any, hadPrev bool) { panic("boom") }
func (o *panickingObserver) OnDeactivate(closedValue, newValue any, hasNewValue bool) {
	panic("boom")
}

func TestObservedStackFiresActivateAndDeactivate(t *testing.T) {
	reg := registry.New[Observer]()
	obs := &recordingObserver{name: "rec", manager: "locale"}
	reg.MustRegister(obs)
	bus := NewObserverBus(reg)

	s := NewObservedStack("locale", bus)

	h := s.Push("nl_NL")
	assert.Equal(t, []any{"nl_NL"}, obs.activations)

	require.NoError(t, h.Close())
	assert.Equal(t, []any{"nl_NL"}, obs.deactivations)
}

// TestObservedStackOnlyFiresDeactivateWhenHeadChanges exercises §4.4 step 5:
// closing an interior (tombstoned) node must not fire OnDeactivate, since the
// active value hasn't actually changed.
func TestObservedStackOnlyFiresDeactivateWhenHeadChanges(t *testing.T) {
	reg := registry.New[Observer]()
	obs := &recordingObserver{name: "rec", manager: "locale"}
	reg.MustRegister(obs)
	bus := NewObserverBus(reg)

	s := NewObservedStack("locale", bus)

	h1 := s.Push("A")
	h2 := s.Push("B")
	obs.activations = nil

	require.NoError(t, h1.Close())
	assert.Empty(t, obs.deactivations, "closing an interior node must not fire OnDeactivate")

	require.NoError(t, h2.Close())
	assert.Equal(t, []any{"B"}, obs.deactivations)
}

func TestObservedStackIgnoresUnrelatedManagerNames(t *testing.T) {
	reg := registry.New[Observer]()
	obs := &recordingObserver{name: "rec", manager: "tracing"}
	reg.MustRegister(obs)
	bus := NewObserverBus(reg)

	s := NewObservedStack("locale", bus)
	h := s.Push("nl_NL")
	require.NoError(t, h.Close())

	assert.Empty(t, obs.activations)
	assert.Empty(t, obs.deactivations)
}

// TestObservedStackPanickingObserverDoesNotBreakActivationOrPeers is scenario
// E6: one observer throws on every activation; activation still succeeds,
// and a second well-behaved observer watching the same manager still
// receives the event.
func TestObservedStackPanickingObserverDoesNotBreakActivationOrPeers(t *testing.T) {
	reg := registry.New[Observer]()
	bad := &panickingObserver{manager: "locale"}
	good := &recordingObserver{name: "good", manager: "locale"}
	reg.MustRegister(bad)
	reg.MustRegister(good)
	bus := NewObserverBus(reg)

	s := NewObservedStack("locale", bus)

	require.NotPanics(t, func() {
		h := s.Push("nl_NL")
		assert.Equal(t, []any{"nl_NL"}, good.activations)
		require.NotPanics(t, func() {
			require.NoError(t, h.Close())
		})
	})
	assert.Equal(t, []any{"nl_NL"}, good.deactivations)
}

func TestObservedStackClearFiresDeactivateForEveryOpenNode(t *testing.T) {
	reg := registry.New[Observer]()
	obs := &recordingObserver{name: "rec", manager: "mdc.request_id"}
	reg.MustRegister(obs)
	bus := NewObserverBus(reg)

	s := NewObservedStack("mdc.request_id", bus)
	s.Push("a")
	s.Push("b")

	s.Clear()
	_, ok := s.Active()
	assert.False(t, ok)
	assert.ElementsMatch(t, []any{"a", "b"}, obs.deactivations)
}

func TestObservedStackWithNilBusBehavesLikePlainStack(t *testing.T) {
	s := NewObservedStack("locale", nil)

	h := s.Push("nl_NL")
	v, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "nl_NL", v.Value())

	require.NoError(t, h.Close())
	_, ok = s.Active()
	assert.False(t, ok)
}
