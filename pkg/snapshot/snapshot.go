// Package snapshot is the capture-all/reactivate-all facade (C6) and the
// timing hook (C7) that times it. A Snapshot is an immutable, thread-safe,
// reentrant capture of every registered manager's active value, independent
// of the goroutine that created it; it may be reactivated any number of
// times, concurrently, on any goroutine.
package snapshot

import (
	"sync"
	"time"

	"github.com/go-arcade/ctxprop/pkg/ctxerr"
	"github.com/go-arcade/ctxprop/pkg/ctxmgr"
	"github.com/go-arcade/ctxprop/pkg/log"
	"github.com/go-arcade/ctxprop/pkg/runtime"
	"github.com/google/uuid"
)

type entry struct {
	manager  ctxmgr.Manager
	value    any
	hasValue bool
}

// Snapshot is an immutable ordered mapping from manager to captured value.
// Ordering matches the registry's priority order at capture time; capture
// order is also reactivation order, the only ordering guarantee between
// managers (§4.6).
type Snapshot struct {
	id      string
	rt      *runtime.Runtime
	entries []entry
}

// ID returns a correlation identifier minted at capture time. Timing records
// emitted through Hook do not carry it.
func (s *Snapshot) ID() string { return s.id }

// Refresh captures a brand new snapshot from the same Runtime s was created
// from. Wrapper and future continuations use this to capture a fresh
// snapshot immediately after a call completes (§4.9 step 5, take-new-snapshot
// mode in §4.10).
func (s *Snapshot) Refresh(hook *Hook) *Snapshot {
	return Create(s.rt, hook)
}

// Create enumerates every manager registered on rt in priority order and
// records its active value (or "no value"), per §4.6 step 1-3. hook may be
// nil, in which case no timing measurements are taken.
func Create(rt *runtime.Runtime, hook *Hook) *Snapshot {
	start := time.Now()
	managers := rt.Managers.List()
	entries := make([]entry, 0, len(managers))

	for _, m := range managers {
		mStart := time.Now()
		h, ok := m.ActiveContext()
		var v any
		if ok {
			v = h.Value()
		}
		entries = append(entries, entry{manager: m, value: v, hasValue: ok})
		if hook != nil {
			hook.record(m.Name(), "capture", time.Since(mStart))
		}
	}

	id := uuid.New().String()
	if hook != nil {
		hook.record("snapshot", "capture_total", time.Since(start))
	}

	return &Snapshot{id: id, rt: rt, entries: entries}
}

// Reactivate re-establishes this snapshot's captured values on the calling
// goroutine, in capture order (§4.6's reactivate step 1). On success it
// returns a composite ReactivationHandle whose Close restores prior state.
// If a manager rejects activation partway through, every handle already
// created is closed in reverse order and a *ctxerr.ReactivationError wrapping
// the cause is returned (§4.6 step 3, §7).
func (s *Snapshot) Reactivate() (*ReactivationHandle, error) {
	return s.reactivateWith(nil)
}

// ReactivateWithHook behaves like Reactivate but times the operation through
// hook, for callers (the executor, wrappers, futures) that share one Hook
// across many reactivations.
func (s *Snapshot) ReactivateWithHook(hook *Hook) (*ReactivationHandle, error) {
	return s.reactivateWith(hook)
}

func (s *Snapshot) reactivateWith(hook *Hook) (*ReactivationHandle, error) {
	start := time.Now()
	handles := make([]ctxmgr.Handle, 0, len(s.entries))
	names := make([]string, 0, len(s.entries))

	for _, e := range s.entries {
		if !e.hasValue {
			continue
		}

		mStart := time.Now()
		h, err := e.manager.InitializeNewContext(e.value)
		if hook != nil {
			hook.record(e.manager.Name(), "reactivate", time.Since(mStart))
		}
		if err != nil {
			for i := len(handles) - 1; i >= 0; i-- {
				if cerr := handles[i].Close(); cerr != nil {
					log.Warnw("failed to close context handle during reactivation rollback",
						"manager", names[i], "error", cerr)
				}
			}
			return nil, ctxerr.NewReactivationError(e.manager.Name(), err)
		}

		handles = append(handles, h)
		names = append(names, e.manager.Name())
	}

	if hook != nil {
		hook.record("snapshot", "reactivate_total", time.Since(start))
	}

	return &ReactivationHandle{handles: handles, names: names}, nil
}

// ReactivationHandle owns one Handle per manager present in the snapshot it
// was built from, in creation order. Close closes each contained handle
// exactly once, in reverse order, swallowing and logging any per-handle
// error; the first such error is returned only after every handle has been
// attempted (§4.6 step 2, §7).
type ReactivationHandle struct {
	mu      sync.Mutex
	handles []ctxmgr.Handle
	names   []string
	closed  bool
}

// Close restores every manager's prior active value on the calling
// goroutine. Idempotent.
func (h *ReactivationHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	var firstErr error
	for i := len(h.handles) - 1; i >= 0; i-- {
		if err := h.handles[i].Close(); err != nil {
			log.Warnw("failed to close context handle", "manager", h.names[i], "error", err)
			if firstErr == nil {
				firstErr = ctxerr.NewCloseError(h.names[i], err)
			}
		}
	}
	return firstErr
}

// ClearActiveContexts walks every manager registered on rt and, for those
// implementing ctxmgr.Clearer, asks it to reset its active context on the
// calling goroutine (§4.6's clearActiveContexts). Managers that do not
// implement ctxmgr.Clearer are skipped and keep their active context. For
// stack-based managers the effect is limited to the calling goroutine, per
// the Open Question decision recorded in DESIGN.md.
func ClearActiveContexts(rt *runtime.Runtime) {
	for _, m := range rt.Managers.List() {
		if c, ok := m.(ctxmgr.Clearer); ok {
			c.ClearActiveContext()
		}
	}
}
