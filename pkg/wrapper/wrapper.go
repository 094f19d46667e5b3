// Package wrapper implements the Function/Callable/Runnable wrappers (C9):
// a wrapper holds a snapshot (or a deferred snapshot supplier), a delegate,
// and an optional snapshot consumer, and reactivates the snapshot around
// exactly one invocation of the delegate.
package wrapper

import (
	"github.com/go-arcade/ctxprop/pkg/ctxerr"
	"github.com/go-arcade/ctxprop/pkg/log"
	"github.com/go-arcade/ctxprop/pkg/snapshot"
)

// SnapshotSupplier is called on invocation, not on wrapper construction, so
// it may defer capture (§4.9 step 1: "obtain the snapshot ... by calling the
// supplier on invocation, so suppliers may defer capture").
type SnapshotSupplier func() *snapshot.Snapshot

// SnapshotConsumer receives the fresh snapshot captured immediately after a
// wrapped call completes, used by chained futures to carry mutations made
// during the call onward to the next stage (§4.9 step 5).
type SnapshotConsumer func(*snapshot.Snapshot)

// core holds the fields shared by every wrapper shape below.
type core struct {
	snap     *snapshot.Snapshot
	supplier SnapshotSupplier
	hook     *snapshot.Hook
	consumer SnapshotConsumer
}

func (c core) resolve() (*snapshot.Snapshot, error) {
	snap := c.snap
	if snap == nil && c.supplier != nil {
		snap = c.supplier()
	}
	if snap == nil {
		return nil, ctxerr.NewConfigurationError("wrapper: no snapshot or snapshot supplier produced a non-nil snapshot")
	}
	return snap, nil
}

// invoke reactivates the resolved snapshot, runs body, and — in the scoped
// close — optionally captures a fresh snapshot for consumer, matching §4.9
// steps 2-5 exactly regardless of which wrapper shape calls it.
func (c core) invoke(body func() error) error {
	snap, err := c.resolve()
	if err != nil {
		return err
	}

	handle, err := snap.ReactivateWithHook(c.hook)
	if err != nil {
		return err
	}
	defer func() {
		if c.consumer != nil {
			c.consumer(snap.Refresh(c.hook))
		}
		if cerr := handle.Close(); cerr != nil {
			log.Warnw("wrapper: failed to close reactivation handle", "error", cerr)
		}
	}()

	return body()
}

// Callable wraps a delegate func() (T, error) so that invoking it reactivates
// a captured (or supplied) snapshot around exactly one call.
type Callable[T any] struct {
	core
	delegate func() (T, error)
}

// NewCallable builds a Callable bound to an already-captured snapshot.
func NewCallable[T any](snap *snapshot.Snapshot, delegate func() (T, error)) *Callable[T] {
	return &Callable[T]{core: core{snap: snap}, delegate: delegate}
}

// NewCallableWithSupplier builds a Callable whose snapshot is captured lazily
// by supplier at invocation time.
func NewCallableWithSupplier[T any](supplier SnapshotSupplier, delegate func() (T, error)) *Callable[T] {
	return &Callable[T]{core: core{supplier: supplier}, delegate: delegate}
}

// WithHook attaches a timing hook, returning the same Callable for chaining.
func (c *Callable[T]) WithHook(hook *snapshot.Hook) *Callable[T] {
	c.hook = hook
	return c
}

// WithSnapshotConsumer registers consumer to receive a fresh post-call
// snapshot, returning the same Callable for chaining.
func (c *Callable[T]) WithSnapshotConsumer(consumer SnapshotConsumer) *Callable[T] {
	c.consumer = consumer
	return c
}

// Call reactivates the snapshot and invokes the delegate, forwarding its
// result or error unchanged.
func (c *Callable[T]) Call() (T, error) {
	var result T
	var delegateErr error
	err := c.invoke(func() error {
		result, delegateErr = c.delegate()
		return delegateErr
	})
	if err != nil && delegateErr == nil {
		// resolve()/reactivation failed before the delegate ever ran.
		var zero T
		return zero, err
	}
	return result, delegateErr
}

// AndThen composes c with next, returning a Callable that reactivates the
// *same* snapshot around both calls in sequence (§4.9 "Composition").
func (c *Callable[T]) AndThen(next func(T) (T, error)) *Callable[T] {
	composed := &Callable[T]{core: c.core, delegate: func() (T, error) {
		v, err := c.delegate()
		if err != nil {
			return v, err
		}
		return next(v)
	}}
	return composed
}

// Function wraps a delegate func(I) (O, error), the Go-generic analogue of
// the source's single-argument Function wrapper.
type Function[I, O any] struct {
	core
	delegate func(I) (O, error)
}

// NewFunction builds a Function bound to an already-captured snapshot.
func NewFunction[I, O any](snap *snapshot.Snapshot, delegate func(I) (O, error)) *Function[I, O] {
	return &Function[I, O]{core: core{snap: snap}, delegate: delegate}
}

// WithHook attaches a timing hook, returning the same Function for chaining.
func (f *Function[I, O]) WithHook(hook *snapshot.Hook) *Function[I, O] {
	f.hook = hook
	return f
}

// WithSnapshotConsumer registers consumer to receive a fresh post-call
// snapshot, returning the same Function for chaining.
func (f *Function[I, O]) WithSnapshotConsumer(consumer SnapshotConsumer) *Function[I, O] {
	f.consumer = consumer
	return f
}

// Apply reactivates the snapshot and invokes the delegate with in.
func (f *Function[I, O]) Apply(in I) (O, error) {
	var result O
	var delegateErr error
	err := f.invoke(func() error {
		result, delegateErr = f.delegate(in)
		return delegateErr
	})
	if err != nil && delegateErr == nil {
		var zero O
		return zero, err
	}
	return result, delegateErr
}

// Compose returns a new Function that applies before, then f, reactivating
// the same snapshot around both (§4.9 "Composition": compose).
func Compose[A, B, C any](f *Function[B, C], before *Function[A, B]) *Function[A, C] {
	return &Function[A, C]{
		core: f.core,
		delegate: func(a A) (C, error) {
			b, err := before.delegate(a)
			if err != nil {
				var zero C
				return zero, err
			}
			return f.delegate(b)
		},
	}
}

// Runnable wraps a delegate func() error for fire-and-forget tasks that
// carry no return value.
type Runnable struct {
	core
	delegate func() error
}

// NewRunnable builds a Runnable bound to an already-captured snapshot.
func NewRunnable(snap *snapshot.Snapshot, delegate func() error) *Runnable {
	return &Runnable{core: core{snap: snap}, delegate: delegate}
}

// NewRunnableWithSupplier builds a Runnable whose snapshot is captured
// lazily by supplier at invocation time.
func NewRunnableWithSupplier(supplier SnapshotSupplier, delegate func() error) *Runnable {
	return &Runnable{core: core{supplier: supplier}, delegate: delegate}
}

// WithHook attaches a timing hook, returning the same Runnable for chaining.
func (r *Runnable) WithHook(hook *snapshot.Hook) *Runnable {
	r.hook = hook
	return r
}

// Run reactivates the snapshot and invokes the delegate.
func (r *Runnable) Run() error {
	return r.invoke(r.delegate)
}
