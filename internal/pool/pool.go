// Package pool runs a queue of homogeneous tasks under a fixed
// concurrency ceiling.
package pool

import (
	"context"
	"sync"
	"sync/atomic"
)

// Run executes tasks with at most limit in flight at any instant and
// returns their results in input order: results[i] is what tasks[i]
// produced, regardless of completion order.
//
// Workers share an atomic cursor over the task slice; each worker claims
// the next unclaimed index and writes into that slot, so memory stays
// bounded by the result slice plus limit in-flight tasks. Tasks must not
// panic and must report their own failures through the result value (a
// nil pointer, typically); the pool has no retry or error path.
func Run[T any](ctx context.Context, tasks []func(context.Context) T, limit int) []T {
	results := make([]T, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	if limit > len(tasks) {
		limit = len(tasks)
	}
	if limit < 1 {
		limit = 1
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(limit)
	for w := 0; w < limit; w++ {
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= len(tasks) {
					return
				}
				results[i] = tasks[i](ctx)
			}
		}()
	}
	wg.Wait()

	return results
}
