// Package runtime ties together the manager registry and observer bus into
// an explicit value a caller constructs, per spec §9's redesign note: "expose
// as an explicit Runtime value constructed once at program start... provide
// a conventional default instance for ergonomics... support per-test runtime
// override" rather than the source's hidden process-wide singleton.
package runtime

import (
	"github.com/go-arcade/ctxprop/pkg/ctxmgr"
	"github.com/go-arcade/ctxprop/pkg/registry"
)

// Runtime is the explicit, constructible replacement for the source
// library's process-wide singleton registry. Every snapshot/executor/future
// in this module is built against one Runtime; tests construct their own to
// avoid cross-test interference.
type Runtime struct {
	Managers  *registry.Registry[ctxmgr.Manager]
	Observers *registry.Registry[ctxmgr.Observer]
	bus       *ctxmgr.ObserverBus
}

// New returns an empty Runtime with its own manager and observer registries.
func New() *Runtime {
	r := &Runtime{
		Managers:  registry.New[ctxmgr.Manager](),
		Observers: registry.New[ctxmgr.Observer](),
	}
	r.bus = ctxmgr.NewObserverBus(r.Observers)
	return r
}

// ObserverBus returns the bus fanning out to this Runtime's Observers.
func (r *Runtime) ObserverBus() *ctxmgr.ObserverBus { return r.bus }

// RegisterManager registers m, panicking on a duplicate name. The concrete
// managers under pkg/managers call this from their New constructor against
// the Runtime they are given.
func (r *Runtime) RegisterManager(m ctxmgr.Manager) {
	r.Managers.MustRegister(m)
}

// RegisterObserver registers o, panicking on a duplicate name.
func (r *Runtime) RegisterObserver(o ctxmgr.Observer) {
	r.Observers.MustRegister(o)
}

// defaultRuntime is the conventional default instance spec §9 recommends for
// ergonomics. Packages wanting ambient behavior without threading a Runtime
// through every call use Default(); tests that need isolation construct
// their own Runtime with New() instead.
var defaultRuntime = New()

// Default returns the process-wide conventional Runtime instance.
func Default() *Runtime { return defaultRuntime }
