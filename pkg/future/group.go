package future

import (
	"sync"

	"github.com/go-arcade/ctxprop/pkg/executor"
	"github.com/go-arcade/ctxprop/pkg/runtime"
	"github.com/go-arcade/ctxprop/pkg/snapshot"
	"github.com/go-arcade/ctxprop/pkg/wrapper"
)

// Group runs a batch of tasks concurrently, each reactivating the same
// snapshot captured when the Group was built, and collects the first error
// among them — the "batched" task submission shape named in §4.8, adapted
// from the teacher's pkg/parallel.Group (Go/Wait, first-error-wins via
// sync.Once). Unlike the teacher's Group, there is no context/timeout
// cancellation: §5 states the core has neither.
type Group struct {
	snap *snapshot.Snapshot
	hook *snapshot.Hook
	exec executor.TaskExecutor

	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
}

// NewGroup returns a Group whose tasks all reactivate the same snapshot,
// captured now unless WithSnapshot supplies one.
func NewGroup(rt *runtime.Runtime, opts ...Option) *Group {
	o := resolveOptions(opts)

	snap := o.snapshot
	if snap == nil {
		snap = snapshot.Create(rt, o.hook)
	}

	exec := o.executor
	if exec == nil {
		exec = executor.Default
	}

	return &Group{snap: snap, hook: o.hook, exec: exec}
}

// Go runs task on the group's executor, under the group's snapshot. The
// first task to return a non-nil error is the one Wait eventually reports.
func (g *Group) Go(task func() error) {
	g.wg.Add(1)
	g.exec.Execute(func() {
		defer g.wg.Done()

		runnable := wrapper.NewRunnable(g.snap, task).WithHook(g.hook)
		if err := runnable.Run(); err != nil {
			g.errOnce.Do(func() { g.err = err })
		}
	})
}

// Wait blocks until every task submitted via Go has returned, then returns
// the first non-nil error among them, if any.
func (g *Group) Wait() error {
	g.wg.Wait()
	return g.err
}
