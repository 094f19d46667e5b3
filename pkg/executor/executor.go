// Package executor wraps an arbitrary task executor so submitted work
// carries a context snapshot from the submitting goroutine to the worker
// goroutine (C8).
package executor

import (
	"github.com/go-arcade/ctxprop/pkg/log"
	"github.com/go-arcade/ctxprop/pkg/runtime"
	"github.com/go-arcade/ctxprop/pkg/snapshot"
)

// TaskExecutor is the minimal shape of an executor this package wraps:
// Execute schedules task to run, returning immediately. Shutdown,
// interruption, and rejection semantics belong entirely to the delegate;
// ContextAware never second-guesses them (§4.8).
type TaskExecutor interface {
	Execute(task func())
}

// TaskExecutorFunc adapts a plain function to TaskExecutor.
type TaskExecutorFunc func(task func())

// Execute implements TaskExecutor.
func (f TaskExecutorFunc) Execute(task func()) { f(task) }

// Default is the panic-safe goroutine-per-task executor used when a caller
// doesn't need a bounded pool.
var Default TaskExecutor = TaskExecutorFunc(Go)

// ContextAware wraps a delegate executor so every task it schedules runs
// under the snapshot captured at submission time (§4.8):
//  1. capture a snapshot on the submitting goroutine,
//  2. wrap the task in a closure that reactivates the snapshot on the worker
//     goroutine in a scoped block guaranteeing close, then invokes the task,
//  3. forward the wrapped closure to the delegate.
type ContextAware struct {
	delegate TaskExecutor
	rt       *runtime.Runtime
	hook     *snapshot.Hook
}

// New wraps delegate as a context-aware executor backed by rt. hook may be
// nil to skip timing.
func New(delegate TaskExecutor, rt *runtime.Runtime, hook *snapshot.Hook) *ContextAware {
	return &ContextAware{delegate: delegate, rt: rt, hook: hook}
}

// Execute captures a snapshot now and schedules task to run under it.
func (e *ContextAware) Execute(task func()) {
	snap := snapshot.Create(e.rt, e.hook)
	e.delegate.Execute(func() {
		handle, err := snap.ReactivateWithHook(e.hook)
		if err != nil {
			log.Errorw("context-aware executor: failed to reactivate snapshot", "error", err)
			return
		}
		defer func() {
			if cerr := handle.Close(); cerr != nil {
				log.Warnw("context-aware executor: failed to close reactivation handle", "error", cerr)
			}
		}()
		task()
	})
}
