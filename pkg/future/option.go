package future

import (
	"github.com/go-arcade/ctxprop/pkg/executor"
	"github.com/go-arcade/ctxprop/pkg/snapshot"
)

type options struct {
	executor        executor.TaskExecutor
	snapshot        *snapshot.Snapshot
	hook            *snapshot.Hook
	takeNewSnapshot bool
}

// Option configures a Future constructor or a Group, mirroring the teacher's
// functional-option convention in pkg/parallel/group.go (RunOption,
// WithTimeout).
type Option func(*options)

// WithExecutor overrides the executor the SupplyAsync/RunAsync task (or each
// Group task) runs on. Default is executor.Default, a panic-safe
// goroutine-per-task launcher. Continuations chained later do not inherit
// it; they run on the executor given to their *Async function, or
// executor.Default.
func WithExecutor(e executor.TaskExecutor) Option {
	return func(o *options) { o.executor = e }
}

// WithSnapshot supplies an already-captured snapshot instead of capturing a
// new one at construction time (§6: "Future factory ... with optional
// (executor, snapshot) parameters").
func WithSnapshot(s *snapshot.Snapshot) Option {
	return func(o *options) { o.snapshot = s }
}

// WithHook attaches a timing hook to every stage's capture/reactivate call.
func WithHook(h *snapshot.Hook) Option {
	return func(o *options) { o.hook = h }
}

// WithTakeNewSnapshot enables take-new-snapshot mode (§4.10): each completed
// stage captures a fresh snapshot and propagates it to the next continuation
// registered on the resulting Future, instead of every stage reusing the
// snapshot captured when the chain began.
func WithTakeNewSnapshot() Option {
	return func(o *options) { o.takeNewSnapshot = true }
}

func resolveOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
