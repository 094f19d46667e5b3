// Package locale provides the locale manager named in §4.2/C11's concrete
// manager list, carrying golang.org/x/text/language.Tag values nested per
// §4.4. Exercises scenario E1 (nl_NL / de_DE propagation through the
// context-aware executor) almost verbatim.
package locale

import (
	"github.com/go-arcade/ctxprop/pkg/ctxmgr"
	"golang.org/x/text/language"
)

type registerer interface {
	RegisterManager(ctxmgr.Manager)
	ObserverBus() *ctxmgr.ObserverBus
}

// Manager is the locale context manager.
type Manager struct {
	stack *ctxmgr.ObservedStack
}

// New returns a locale manager, registering itself on rt. Activations and
// deactivations fire through rt's observer bus (§4.5).
func New(rt registerer) *Manager {
	m := &Manager{stack: ctxmgr.NewObservedStack("locale", rt.ObserverBus())}
	rt.RegisterManager(m)
	return m
}

func (m *Manager) Name() string { return m.stack.Name }

// InitializeNewContext pushes value, which must be a language.Tag, as the
// active locale for the calling goroutine.
func (m *Manager) InitializeNewContext(value any) (ctxmgr.Handle, error) {
	return m.stack.Push(value), nil
}

func (m *Manager) ActiveContext() (ctxmgr.Handle, bool) { return m.stack.Active() }

func (m *Manager) ClearActiveContext() { m.stack.Clear() }

// Active returns the active language.Tag for the calling goroutine, or the
// zero Tag (language.Und) if none is active.
func (m *Manager) Active() (language.Tag, bool) {
	h, ok := m.stack.Active()
	if !ok {
		return language.Und, false
	}
	tag, ok := h.Value().(language.Tag)
	return tag, ok
}

// Activate pushes tag as the active locale, returning its handle.
func (m *Manager) Activate(tag language.Tag) ctxmgr.Handle {
	return m.stack.Push(tag)
}
