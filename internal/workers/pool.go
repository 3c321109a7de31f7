// Package workers provides a bounded worker pool for fanning out I/O-bound fetches.
package workers

import (
	"context"
	"sync"
)

// DefaultWorkers is the pool size used when a non-positive size is requested.
const DefaultWorkers = 10

// WorkerPool manages a pool of worker goroutines for parallel fetches
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// Size returns the configured number of workers.
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// Result is the outcome of processing one input item.
type Result[R any] struct {
	Value R
	Err   error
}

// jobItem represents a single unit of work
type jobItem[T any] struct {
	index int
	item  T
}

// resultItem represents the result of a unit of work
type resultItem[R any] struct {
	index  int
	result Result[R]
}

// Run applies fn to every item using at most numWorkers goroutines.
//
// Results are returned in the same order as items. A failing item only records
// its error; it never stops the others. Items not yet started when ctx is
// cancelled report ctx.Err().
func Run[T, R any](ctx context.Context, wp *WorkerPool, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	numItems := len(items)
	if numItems == 0 {
		return []Result[R]{}
	}

	jobs := make(chan jobItem[T], numItems)
	results := make(chan resultItem[R], numItems)

	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if numItems < numActualWorkers {
		numActualWorkers = numItems // Don't spawn more workers than items
	}

	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := ctx.Err(); err != nil {
					results <- resultItem[R]{index: job.index, result: Result[R]{Err: err}}
					continue
				}
				value, err := fn(ctx, job.item)
				results <- resultItem[R]{index: job.index, result: Result[R]{Value: value, Err: err}}
			}
		}()
	}

	for idx, item := range items {
		jobs <- jobItem[T]{index: idx, item: item}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	resultSlice := make([]Result[R], numItems)
	for r := range results {
		resultSlice[r.index] = r.result
	}

	return resultSlice
}
