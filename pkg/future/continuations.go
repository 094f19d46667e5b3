package future

import "github.com/go-arcade/ctxprop/pkg/executor"

// ThenApply registers fn to run, under f's captured snapshot, once f
// completes successfully; an error on f short-circuits fn and propagates.
// Runs on executor.Default.
func ThenApply[I, O any](f *Future[I], fn func(I) O) *Future[O] {
	return ThenApplyAsync(f, fn, nil)
}

// ThenApplyAsync is ThenApply on an explicit executor.
func ThenApplyAsync[I, O any](f *Future[I], fn func(I) O, exec executor.TaskExecutor) *Future[O] {
	return chain(f, exec, func(v I, err error) (O, error) {
		var zero O
		if err != nil {
			return zero, err
		}
		return fn(v), nil
	})
}

// ThenAccept is ThenApply for a callback with no return value.
func ThenAccept[I any](f *Future[I], fn func(I)) *Future[struct{}] {
	return ThenAcceptAsync(f, fn, nil)
}

// ThenAcceptAsync is ThenAccept on an explicit executor.
func ThenAcceptAsync[I any](f *Future[I], fn func(I), exec executor.TaskExecutor) *Future[struct{}] {
	return chain(f, exec, func(v I, err error) (struct{}, error) {
		if err != nil {
			return struct{}{}, err
		}
		fn(v)
		return struct{}{}, nil
	})
}

// ThenCompose chains f into another future-producing function, flattening
// the result (the `flatMap` shape named in §4.10).
func ThenCompose[I, O any](f *Future[I], fn func(I) *Future[O]) *Future[O] {
	return ThenComposeAsync(f, fn, nil)
}

// ThenComposeAsync is ThenCompose on an explicit executor.
func ThenComposeAsync[I, O any](f *Future[I], fn func(I) *Future[O], exec executor.TaskExecutor) *Future[O] {
	return chain(f, exec, func(v I, err error) (O, error) {
		var zero O
		if err != nil {
			return zero, err
		}
		return fn(v).Get()
	})
}

// Handle registers fn to observe both the value and error of f, regardless
// of which path f completed on, and produce a new result.
func Handle[I, O any](f *Future[I], fn func(I, error) O) *Future[O] {
	return HandleAsync(f, fn, nil)
}

// HandleAsync is Handle on an explicit executor.
func HandleAsync[I, O any](f *Future[I], fn func(I, error) O, exec executor.TaskExecutor) *Future[O] {
	return chain(f, exec, func(v I, err error) (O, error) {
		return fn(v, err), nil
	})
}

// CombineWith waits for both fa and fb and combines their results with fn.
// An error on either future short-circuits fn and propagates (fa's error
// takes precedence if both fail).
func CombineWith[A, B, O any](fa *Future[A], fb *Future[B], fn func(A, B) O) *Future[O] {
	return CombineWithAsync(fa, fb, fn, nil)
}

// CombineWithAsync is CombineWith on an explicit executor.
func CombineWithAsync[A, B, O any](fa *Future[A], fb *Future[B], fn func(A, B) O, exec executor.TaskExecutor) *Future[O] {
	return chain(fa, exec, func(a A, errA error) (O, error) {
		var zero O
		b, errB := fb.Get()
		if errA != nil {
			return zero, errA
		}
		if errB != nil {
			return zero, errB
		}
		return fn(a, b), nil
	})
}
