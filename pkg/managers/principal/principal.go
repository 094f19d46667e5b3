// Package principal provides the security principal manager named in
// §4.2/C11: a *Principal (subject plus JWT claims) nested per §4.4,
// grounded on the teacher's pkg/http/jwt/jwt.go (AuthClaims, ParseToken)
// but adapted to hold an already-parsed principal rather than parsing a
// token itself — token verification belongs to the HTTP layer, not to
// context propagation.
package principal

import (
	"github.com/go-arcade/ctxprop/pkg/ctxmgr"
	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated identity propagated across async
// boundaries: the subject extracted from a verified token plus its
// registered claims, mirroring the teacher's AuthClaims shape.
type Principal struct {
	UserID string
	Claims jwt.RegisteredClaims
}

type registerer interface {
	RegisterManager(ctxmgr.Manager)
	ObserverBus() *ctxmgr.ObserverBus
}

// Manager is the security principal context manager.
type Manager struct {
	stack *ctxmgr.ObservedStack
}

// New returns a principal manager, registering itself on rt. Activations
// and deactivations fire through rt's observer bus (§4.5).
func New(rt registerer) *Manager {
	m := &Manager{stack: ctxmgr.NewObservedStack("principal", rt.ObserverBus())}
	rt.RegisterManager(m)
	return m
}

func (m *Manager) Name() string { return m.stack.Name }

// InitializeNewContext pushes value, which must be a *Principal, as the
// active principal for the calling goroutine.
func (m *Manager) InitializeNewContext(value any) (ctxmgr.Handle, error) {
	return m.stack.Push(value), nil
}

func (m *Manager) ActiveContext() (ctxmgr.Handle, bool) { return m.stack.Active() }

func (m *Manager) ClearActiveContext() { m.stack.Clear() }

// Active returns the active *Principal for the calling goroutine.
func (m *Manager) Active() (*Principal, bool) {
	h, ok := m.stack.Active()
	if !ok {
		return nil, false
	}
	p, ok := h.Value().(*Principal)
	return p, ok
}

// Activate pushes p as the active principal for the calling goroutine.
func (m *Manager) Activate(p *Principal) ctxmgr.Handle {
	return m.stack.Push(p)
}
