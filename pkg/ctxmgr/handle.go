package ctxmgr

// Handle represents one active binding of one value on one goroutine.
//
// Close is idempotent: once closed, a handle reports closed forever, and
// further calls to Close are silent no-ops. Close restores the manager's
// active context to what it was immediately before this handle was opened
// on the same goroutine — even if child handles opened above it are still
// open; see Stack for the out-of-order close rule that makes this true.
type Handle interface {
	// Value returns the value this handle carries.
	Value() any

	// Closed reports whether Close has already been called.
	Closed() bool

	// Close restores the prior active context. Safe to call more than once.
	Close() error
}

// absentHandle is returned by ActiveContext when no context is active for a
// manager on the calling goroutine.
type absentHandle struct{}

func (absentHandle) Value() any   { return nil }
func (absentHandle) Closed() bool { return true }
func (absentHandle) Close() error { return nil }

// Absent returns the "no value" handle sentinel.
func Absent() Handle { return absentHandle{} }
