// Package mdc provides two of the concrete managers named in §4.2/C11: a
// single-key MDC manager (one named diagnostic value, nested per §4.4) and a
// Log4j-style ThreadContext snapshot manager that captures/restores the
// entire diagnostic map in one value. Both are thin adapters over
// go.uber.org/zap fields, grounded on the teacher's pkg/log/log.go.
package mdc

import (
	"maps"
	"sync"

	"github.com/go-arcade/ctxprop/pkg/ctxmgr"
	"go.uber.org/zap"
)

// Manager is the single-key MDC manager: it tracks one named diagnostic
// value per goroutine (e.g. a request ID), nested via the shared ctxmgr.Stack
// machine, and exposes the active value as a zap.Field for inclusion in log
// calls.
type Manager struct {
	key   string
	stack *ctxmgr.ObservedStack
}

type registerer interface {
	RegisterManager(ctxmgr.Manager)
	RegisterObserver(ctxmgr.Observer)
	ObserverBus() *ctxmgr.ObserverBus
}

// New returns an MDC manager tracking the named key, registering itself on
// rt. Activations and deactivations fire through rt's observer bus (§4.5).
func New(rt registerer, key string) *Manager {
	m := &Manager{key: key, stack: ctxmgr.NewObservedStack("mdc."+key, rt.ObserverBus())}
	rt.RegisterManager(m)
	return m
}

func (m *Manager) Name() string { return m.stack.Name }

func (m *Manager) InitializeNewContext(value any) (ctxmgr.Handle, error) {
	return m.stack.Push(value), nil
}

func (m *Manager) ActiveContext() (ctxmgr.Handle, bool) { return m.stack.Active() }

func (m *Manager) ClearActiveContext() { m.stack.Clear() }

// Field returns a zap.Field carrying the active value for this key, or a
// field with an empty string if none is active.
func (m *Manager) Field() zap.Field {
	if h, ok := m.stack.Active(); ok {
		return zap.Any(m.key, h.Value())
	}
	return zap.String(m.key, "")
}

// BulkManager is the Log4j ThreadContext-style manager: it captures and
// restores the entire diagnostic map as a single snapshot value, distinct
// from Manager's one-key-at-a-time model (§4.2's concrete manager list names
// both).
type BulkManager struct {
	name  string
	stack *ctxmgr.ObservedStack

	mu  sync.RWMutex
	cur map[string]string
}

// NewBulk returns a bulk ThreadContext manager, registering itself on rt.
func NewBulk(rt registerer, name string) *BulkManager {
	m := &BulkManager{name: name, stack: ctxmgr.NewObservedStack(name, rt.ObserverBus()), cur: make(map[string]string)}
	rt.RegisterManager(m)
	return m
}

func (m *BulkManager) Name() string { return m.name }

// Put sets key=value in the manager's current diagnostic map,
// side-effecting the external store the way the teacher's zap-backed MDC
// does; it does not itself push a stack entry (that only happens via
// InitializeNewContext, when a whole map is (re)activated). The map is a
// single one shared by every goroutine using this manager, not kept per
// goroutine.
func (m *BulkManager) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur[key] = value
}

// Snapshot returns a copy of the manager's current (goroutine-shared)
// diagnostic map, the value a ContextManager snapshot (C6) would capture for
// this manager.
func (m *BulkManager) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.cur)
}

func (m *BulkManager) InitializeNewContext(value any) (ctxmgr.Handle, error) {
	entries, _ := value.(map[string]string)
	snap := maps.Clone(entries)

	m.mu.Lock()
	m.cur = snap
	m.mu.Unlock()

	// The node's payload is this activation's own full map, exactly like an
	// ordinary single-value manager would store the pushed value itself —
	// not a delta against the previous state. That is what lets Close below
	// cascade correctly through tombstoned ancestors: whichever node
	// eventually becomes head again carries its own complete map.
	return &bulkHandle{inner: m.stack.Push(snap), owner: m}, nil
}

func (m *BulkManager) ActiveContext() (ctxmgr.Handle, bool) {
	h, ok := m.stack.Active()
	if !ok {
		return nil, false
	}
	return &bulkHandle{inner: h, owner: m}, true
}

func (m *BulkManager) ClearActiveContext() {
	m.stack.Clear()
	m.mu.Lock()
	m.cur = make(map[string]string)
	m.mu.Unlock()
}

// closeNotifier is satisfied structurally by the handles ctxmgr's stacks
// return (the ObservedStack handle bulkHandle wraps here included): their
// CloseNotify reports whether closing it actually unwound the stack to a new
// head (§4.4 step 5), which bulkHandle needs to know before it is safe to
// mutate the owning manager's current map.
type closeNotifier interface {
	CloseNotify(fire func(closedValue, newActiveValue any, changed bool)) error
}

// bulkHandle adapts stack handles so Value() reports the *current* map
// rather than the restoration payload the underlying stack node carries, and
// so Close only mutates the owner's active map when the close actually
// changed the head (an out-of-order close of an interior node must not).
type bulkHandle struct {
	inner ctxmgr.Handle
	owner *BulkManager
}

func (h *bulkHandle) Value() any {
	return h.owner.Snapshot()
}

func (h *bulkHandle) Closed() bool { return h.inner.Closed() }

func (h *bulkHandle) Close() error {
	notifier, ok := h.inner.(closeNotifier)
	if !ok {
		return h.inner.Close()
	}

	return notifier.CloseNotify(func(_, newActiveValue any, changed bool) {
		if !changed {
			return
		}
		restored, _ := newActiveValue.(map[string]string)
		if restored == nil {
			restored = map[string]string{}
		}
		h.owner.mu.Lock()
		h.owner.cur = maps.Clone(restored)
		h.owner.mu.Unlock()
	})
}
