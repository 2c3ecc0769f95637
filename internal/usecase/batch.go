package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// batchItem is one unit of work for the executor. Key identifies the item
// in results, typically a fixture or league id.
type batchItem struct {
	Key string
	Run func(ctx context.Context) error
}

type batchItemResult struct {
	Key        string
	Err        error
	DurationMs int64
}

// batchExecutor runs items through an action in fixed-size batches. Items
// inside a batch run concurrently with an all-settled policy, then the
// executor pauses for the configured delay before the next batch starts.
// The pacing bounds concurrent load on the downstream workflow engine.
type batchExecutor struct {
	size   int
	delay  time.Duration
	sleep  func(time.Duration)
	submit func(pool *ants.Pool, task func()) error
}

func newBatchExecutor(size int, delay time.Duration) *batchExecutor {
	if size < 1 {
		size = 1
	}
	return &batchExecutor{
		size:  size,
		delay: delay,
		sleep: time.Sleep,
		submit: func(pool *ants.Pool, task func()) error {
			return pool.Submit(task)
		},
	}
}

// Execute returns one result per item in input order. A failing item never
// aborts its siblings or the remaining batches.
func (e *batchExecutor) Execute(ctx context.Context, items []batchItem) ([]batchItemResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(e.size)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	out := make([]batchItemResult, len(items))
	for offset := 0; offset < len(items); offset += e.size {
		if offset > 0 && e.delay > 0 {
			e.sleep(e.delay)
		}

		end := offset + e.size
		if end > len(items) {
			end = len(items)
		}

		var workers sync.WaitGroup
		for i := offset; i < end; i++ {
			i := i
			item := items[i]
			workers.Add(1)
			if err := e.submit(pool, func() {
				defer workers.Done()

				start := time.Now()
				runErr := item.Run(ctx)
				out[i] = batchItemResult{
					Key:        item.Key,
					Err:        runErr,
					DurationMs: time.Since(start).Milliseconds(),
				}
			}); err != nil {
				workers.Done()
				// Earlier submissions in this batch are still writing into
				// out. Wait them out before the slice goes out of scope.
				workers.Wait()
				return nil, fmt.Errorf("submit item to worker pool: %w", err)
			}
		}
		workers.Wait()
	}

	return out, nil
}
