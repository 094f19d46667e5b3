package ctxmgr

// ObservedStack pairs a Stack with the ObserverBus its activations and
// deactivations should fire through (§4.5: "invoked by managers, typically
// by C4, on every activation/deactivation"). Managers that want observer
// support use this instead of calling Stack.Push/Close directly.
type ObservedStack struct {
	*Stack
	bus *ObserverBus
}

// NewObservedStack returns an ObservedStack named name, firing through bus.
// bus may be nil, in which case it behaves exactly like a plain Stack.
func NewObservedStack(name string, bus *ObserverBus) *ObservedStack {
	return &ObservedStack{Stack: NewStack(name), bus: bus}
}

// Push activates value for the calling goroutine, firing OnActivate on every
// observer watching this stack's Name, and returns a Handle whose Close
// fires OnDeactivate exactly when the close actually changes the active
// value (§4.4 step 5).
func (s *ObservedStack) Push(value any) Handle {
	h := s.Stack.Push(value, func(newValue, prevValue any, hadPrev bool) {
		if s.bus != nil {
			s.bus.FireActivate(s.Name, newValue, prevValue, hadPrev)
		}
	})
	return &observedHandle{inner: h.(*stackHandle), bus: s.bus, name: s.Name}
}

// Active returns the active handle for the calling goroutine, wrapped so
// that closing it (if a caller chooses to) also fires OnDeactivate.
func (s *ObservedStack) Active() (Handle, bool) {
	h, ok := s.Stack.Active()
	if !ok {
		return nil, false
	}
	return &observedHandle{inner: h.(*stackHandle), bus: s.bus, name: s.Name}, true
}

// Clear closes every node in the calling goroutine's chain, firing
// OnDeactivate once per node actually closed.
func (s *ObservedStack) Clear() {
	s.Stack.Clear(func(closedValue any) {
		if s.bus != nil {
			s.bus.FireDeactivate(s.Name, closedValue, nil, false)
		}
	})
}

type observedHandle struct {
	inner *stackHandle
	bus   *ObserverBus
	name  string
}

func (h *observedHandle) Value() any   { return h.inner.Value() }
func (h *observedHandle) Closed() bool { return h.inner.Closed() }

func (h *observedHandle) Close() error {
	return h.inner.CloseNotify(func(closedValue, newActiveValue any, changed bool) {
		if h.bus != nil && changed {
			h.bus.FireDeactivate(h.name, closedValue, newActiveValue, newActiveValue != nil)
		}
	})
}

// CloseNotify exposes the same changed-on-close signal the plain stackHandle
// offers, for managers (like mdc.BulkManager) that need to know whether a
// close actually moved the active head, in addition to observer fan-out.
func (h *observedHandle) CloseNotify(fire func(closedValue, newActiveValue any, changed bool)) error {
	return h.inner.CloseNotify(func(closedValue, newActiveValue any, changed bool) {
		if h.bus != nil && changed {
			h.bus.FireDeactivate(h.name, closedValue, newActiveValue, newActiveValue != nil)
		}
		if fire != nil {
			fire(closedValue, newActiveValue, changed)
		}
	})
}
