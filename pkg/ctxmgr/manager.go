// Package ctxmgr is the core context-propagation machinery: the manager and
// handle capability interfaces, the goroutine-keyed nested stack most
// managers build on, and the observer bus notified of every activation.
package ctxmgr

// Manager is the uniform plug-point for one kind of ambient variable (an MDC
// entry, a locale, a tracing span, ...). Implementations are required to be
// safe for concurrent invocation from unrelated goroutines, since a Manager
// is shared process-wide through the registry.
//
// Name stands in for the Java source's "runtime class identity" — Go
// interfaces carry no cheap stable identity of their own, so every stack,
// observer route, and snapshot entry keys off Name() instead.
type Manager interface {
	Name() string

	// InitializeNewContext pushes value as the active context for this
	// manager on the calling goroutine. Returns a Handle whose Close restores
	// the prior active context for the same manager on the same goroutine.
	// Must not error for legal values; may return a *ctxerr.ActivationError
	// if the underlying external store rejects the value.
	InitializeNewContext(value any) (Handle, error)

	// ActiveContext returns a Handle reporting the currently active value
	// for this manager on the calling goroutine, or ok==false if none is
	// active. Must be side-effect-free.
	ActiveContext() (handle Handle, ok bool)
}

// Prioritized is implemented by a Manager that wants explicit control over
// its position in capture/reactivation order. Lower values sort first.
type Prioritized interface {
	Priority() int
}

// Clearer is implemented by a Manager that can reset its own active context
// on the calling goroutine, whether that state lives in a ctxmgr.Stack (C4)
// or in an external store. snapshot.ClearActiveContexts (§4.6) clears only
// managers implementing Clearer; it never walks a manager's stack itself.
type Clearer interface {
	ClearActiveContext()
}
