package executor

import (
	"fmt"
	"runtime/debug"

	"github.com/go-arcade/ctxprop/pkg/log"
)

// Go starts task in a new goroutine, recovering and logging any panic
// instead of letting it crash the process. Adapted from the teacher's
// pkg/safe.Go; used by Default so a panicking worker can never leak a
// reactivation handle that was never closed.
func Go(task func()) {
	go Do(task)
}

// Do runs task on the calling goroutine, recovering from any panic.
func Do(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("recovered from panic in executor task",
				"panic", fmt.Sprintf("%v", r), "stack", string(debug.Stack()))
		}
	}()
	task()
}
