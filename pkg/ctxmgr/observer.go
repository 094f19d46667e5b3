package ctxmgr

import (
	"fmt"

	"github.com/go-arcade/ctxprop/pkg/log"
	"github.com/go-arcade/ctxprop/pkg/registry"
)

// Observer is notified of activate/deactivate events for a specified manager
// name, registered through the same registry.Registry the managers
// themselves join. Implementations that only care about a subset of
// managers should check Manager() before acting in OnActivate/OnDeactivate.
type Observer interface {
	Name() string

	// Manager returns the manager name this observer watches.
	Manager() string

	// OnActivate is fired when a new value becomes active for Manager() on
	// some goroutine. prev is the value that was active immediately before,
	// or nil if there was none.
	OnActivate(newValue, prevValue any, hadPrev bool)

	// OnDeactivate is fired only when closing a handle actually changes the
	// active value for Manager() (§4.4 step 5). newValue is the value that
	// became active as a result, if any.
	OnDeactivate(closedValue, newValue any, hasNewValue bool)
}

// ObserverBus fans out activate/deactivate events to every registered
// Observer watching a given manager, in registry order. An observer that
// panics or the bus itself recovering from it never breaks context flow:
// the panic is recovered, logged at warning, and swallowed (§4.5, §7).
type ObserverBus struct {
	registry *registry.Registry[Observer]
}

// NewObserverBus returns a bus backed by reg.
func NewObserverBus(reg *registry.Registry[Observer]) *ObserverBus {
	return &ObserverBus{registry: reg}
}

// FireActivate notifies every observer watching managerName.
func (b *ObserverBus) FireActivate(managerName string, newValue, prevValue any, hadPrev bool) {
	for _, obs := range b.registry.List() {
		if obs.Manager() != managerName {
			continue
		}
		b.invokeActivate(obs, newValue, prevValue, hadPrev)
	}
}

// FireDeactivate notifies every observer watching managerName.
func (b *ObserverBus) FireDeactivate(managerName string, closedValue, newValue any, hasNewValue bool) {
	for _, obs := range b.registry.List() {
		if obs.Manager() != managerName {
			continue
		}
		b.invokeDeactivate(obs, closedValue, newValue, hasNewValue)
	}
}

func (b *ObserverBus) invokeActivate(obs Observer, newValue, prevValue any, hadPrev bool) {
	defer b.recoverAndLog(obs, "activate")
	obs.OnActivate(newValue, prevValue, hadPrev)
}

func (b *ObserverBus) invokeDeactivate(obs Observer, closedValue, newValue any, hasNewValue bool) {
	defer b.recoverAndLog(obs, "deactivate")
	obs.OnDeactivate(closedValue, newValue, hasNewValue)
}

func (b *ObserverBus) recoverAndLog(obs Observer, op string) {
	if r := recover(); r != nil {
		log.Warnw("context observer panicked, ignoring",
			"observer", obs.Name(), "manager", obs.Manager(), "op", op,
			"panic", fmt.Sprintf("%v", r))
	}
}
