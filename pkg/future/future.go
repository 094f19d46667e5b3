// Package future implements the context-aware future/promise (C10): a
// generic Future[T] that captures a snapshot at construction and wraps every
// continuation with the reactivation wrapper from pkg/wrapper bound to that
// snapshot, so continuations observe the context as of future *creation*,
// never as of continuation *registration* (§4.10). Grounded on the teacher's
// channel-based pkg/parallel/future.go, generalized with chained
// continuations and take-new-snapshot mode.
//
// Go disallows a method from introducing its own type parameters, so the
// continuation operations (ThenApply, ThenCompose, Handle, CombineWith, ...)
// are package-level generic functions taking a *Future[I] rather than
// methods on Future[T].
package future

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-arcade/ctxprop/pkg/executor"
	"github.com/go-arcade/ctxprop/pkg/runtime"
	"github.com/go-arcade/ctxprop/pkg/snapshot"
	"github.com/go-arcade/ctxprop/pkg/wrapper"
)

// Future is a context-aware asynchronous result of type T.
type Future[T any] struct {
	rt   *runtime.Runtime
	hook *snapshot.Hook

	// snap is the snapshot captured when this future (or the stage that
	// produced it) was constructed. In take-new-snapshot mode, currentSnap
	// overrides it once a stage has completed at least once.
	snap            *snapshot.Snapshot
	takeNewSnapshot bool
	currentSnap     atomic.Pointer[snapshot.Snapshot]

	mu        sync.Mutex
	done      chan struct{}
	completed bool
	value     T
	err       error
}

func newFuture[T any](rt *runtime.Runtime, snap *snapshot.Snapshot, o *options) *Future[T] {
	return &Future[T]{
		rt:              rt,
		hook:            o.hook,
		snap:            snap,
		takeNewSnapshot: o.takeNewSnapshot,
		done:            make(chan struct{}),
	}
}

// activeSnapshot returns the snapshot the next stage chained off this future
// should reactivate around its callback.
func (f *Future[T]) activeSnapshot() *snapshot.Snapshot {
	if f.takeNewSnapshot {
		if s := f.currentSnap.Load(); s != nil {
			return s
		}
	}
	return f.snap
}

func (f *Future[T]) complete(value T, err error) {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	f.value = value
	f.err = err
	close(f.done)
	f.mu.Unlock()
}

// Complete resolves a manually constructed Future (a promise) with value and
// no error. A no-op if already completed.
func (f *Future[T]) Complete(value T) { f.complete(value, nil) }

// CompleteExceptionally resolves a manually constructed Future with err.
func (f *Future[T]) CompleteExceptionally(err error) {
	var zero T
	f.complete(zero, err)
}

// IsDone reports whether the future has completed.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get blocks until the future completes and returns its value or error.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.value, f.err
}

// GetContext blocks until the future completes or ctx is done, whichever
// comes first.
func (f *Future[T]) GetContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// whenDone invokes cb once the future completes: immediately, inline, if it
// already has; otherwise from a lightweight goroutine parked on f.done. cb
// itself is responsible for dispatching any user code through an executor —
// this goroutine only waits, it never runs a user callback directly.
func (f *Future[T]) whenDone(cb func()) {
	f.mu.Lock()
	done := f.completed
	f.mu.Unlock()

	if done {
		cb()
		return
	}
	go func() {
		<-f.done
		cb()
	}()
}

// SupplyAsync schedules supplier to run under a snapshot captured now (or
// supplied via WithSnapshot), on the executor supplied via WithExecutor (or
// executor.Default), and returns a Future for its result.
func SupplyAsync[T any](rt *runtime.Runtime, supplier func() (T, error), opts ...Option) *Future[T] {
	o := resolveOptions(opts)

	snap := o.snapshot
	if snap == nil {
		snap = snapshot.Create(rt, o.hook)
	}

	f := newFuture[T](rt, snap, o)
	exec := o.executor
	if exec == nil {
		exec = executor.Default
	}

	callable := wrapper.NewCallable(snap, supplier).WithHook(o.hook)
	if f.takeNewSnapshot {
		callable = callable.WithSnapshotConsumer(func(fresh *snapshot.Snapshot) { f.currentSnap.Store(fresh) })
	}

	exec.Execute(func() {
		v, err := callable.Call()
		f.complete(v, err)
	})

	return f
}

// RunAsync is SupplyAsync for a task with no result value.
func RunAsync(rt *runtime.Runtime, task func() error, opts ...Option) *Future[struct{}] {
	return SupplyAsync(rt, func() (struct{}, error) { return struct{}{}, task() }, opts...)
}

// chain is the shared implementation behind every Then*/Handle/CombineWith
// continuation: it waits for f, then invokes fn reactivated under f's active
// snapshot, completing a new Future[O] with the result.
func chain[I, O any](f *Future[I], exec executor.TaskExecutor, fn func(I, error) (O, error)) *Future[O] {
	child := &Future[O]{
		rt:              f.rt,
		hook:            f.hook,
		takeNewSnapshot: f.takeNewSnapshot,
		done:            make(chan struct{}),
	}
	if exec == nil {
		exec = executor.Default
	}

	f.whenDone(func() {
		// Read only once the parent has actually completed, so in
		// take-new-snapshot mode this observes the snapshot the parent's own
		// consumer stored (§4.10), not the one captured when chain was called.
		snap := f.activeSnapshot()
		child.snap = snap
		exec.Execute(func() {
			v, err := f.Get()
			callable := wrapper.NewCallable(snap, func() (O, error) { return fn(v, err) }).WithHook(f.hook)
			if child.takeNewSnapshot {
				callable = callable.WithSnapshotConsumer(func(fresh *snapshot.Snapshot) { child.currentSnap.Store(fresh) })
			}
			out, cerr := callable.Call()
			child.complete(out, cerr)
		})
	})

	return child
}
