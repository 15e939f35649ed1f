// Package asyncx holds small generic concurrency helpers: futures, fan-out
// over independent computations, and a bounded parallel map.
package asyncx

import (
	"context"
	"sync"
)

type outcome[T any] struct {
	value T
	err   error
}

// Future is a value that becomes available asynchronously. Create one with
// Run, read it with Await.
type Future[T any] struct {
	ch  chan outcome[T]
	mu  sync.Mutex
	res *outcome[T]
}

// Run starts fn in its own goroutine immediately.
func Run[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{ch: make(chan outcome[T], 1)}
	go func() {
		v, err := fn()
		f.ch <- outcome[T]{value: v, err: err}
	}()
	return f
}

// Await blocks for the result. Repeat calls return the cached outcome.
func (f *Future[T]) Await() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.res == nil {
		r := <-f.ch
		f.res = &r
	}
	return f.res.value, f.res.err
}

// All runs every fn concurrently and waits for all of them. The first error
// wins, but every goroutine is awaited before returning.
func All[T any](ctx context.Context, fns ...func(context.Context) (T, error)) ([]T, error) {
	values := make([]T, len(fns))
	errs := make([]error, len(fns))

	var wg sync.WaitGroup
	wg.Add(len(fns))
	for i, fn := range fns {
		go func(i int, fn func(context.Context) (T, error)) {
			defer wg.Done()
			values[i], errs[i] = fn(ctx)
		}(i, fn)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}

// Result is the settled outcome of one fan-out branch.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the branch succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// AllSettled runs every fn concurrently and never short-circuits: one
// Result per fn, in input order.
func AllSettled[T any](ctx context.Context, fns ...func(context.Context) (T, error)) []Result[T] {
	results := make([]Result[T], len(fns))

	var wg sync.WaitGroup
	wg.Add(len(fns))
	for i, fn := range fns {
		go func(i int, fn func(context.Context) (T, error)) {
			defer wg.Done()
			v, err := fn(ctx)
			results[i] = Result[T]{Value: v, Err: err}
		}(i, fn)
	}
	wg.Wait()
	return results
}

// Map applies fn to every item with at most workers goroutines. Results
// keep input order; the first error cancels nothing but is reported after
// all workers finish.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	if workers <= 0 {
		workers = len(items)
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, item := range items {
		go func(i int, item T) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i], errs[i] = fn(ctx, item)
		}(i, item)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
