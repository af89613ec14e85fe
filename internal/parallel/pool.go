package parallel

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Handler processes one batch of jobs popped from a Queue. A Handler
// should not treat a single job's failure as fatal to the batch: log and
// swallow per-job errors internally, and only return an error for a
// condition that should stop the whole Pool.
type Handler[T any] func(ctx context.Context, batch []T) error

// Pool runs a fixed number of worker goroutines against a shared Queue,
// each looping pop-a-batch -> handle -> mark done until the queue is
// stopped and drained. It replaces the channel-and-shutdownChan
// WorkerPool this package used to expose: that shape assumed one task per
// submission, whereas the search core wants to pop several lattice codes
// per worker turn to amortize scheduling overhead, so the fixed-worker
// loop is kept but built over Queue's batch-oriented Pop/Done instead.
type Pool[T any] struct {
	queue      *Queue[T]
	numWorkers int
	batchSize  int
	handle     Handler[T]
}

// NewPool creates a Pool over queue with numWorkers goroutines, each
// popping up to batchSize jobs at a time and passing them to handle. A
// numWorkers of 0 or less defaults to runtime.NumCPU().
func NewPool[T any](queue *Queue[T], numWorkers, batchSize int, handle Handler[T]) *Pool[T] {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Pool[T]{queue: queue, numWorkers: numWorkers, batchSize: batchSize, handle: handle}
}

// Run starts all workers and blocks until every worker's Queue.Pop
// returns nil (the queue was stopped and drained) or a Handler call
// returns an error, in which case Run cancels the remaining workers and
// returns that error. When a handler fails or ctx is canceled, Run stops
// the queue so that workers blocked in Pop return.
func (p *Pool[T]) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	// The errgroup context is also canceled when Wait returns, which ends
	// this goroutine.
	go func() {
		<-ctx.Done()
		p.queue.Stop()
	}()

	for i := 0; i < p.numWorkers; i++ {
		g.Go(func() error {
			for {
				batch := p.queue.Pop(p.batchSize)
				if batch == nil {
					return nil
				}

				err := p.handle(ctx, batch)
				p.queue.Done(len(batch))
				if err != nil {
					return fmt.Errorf("parallel.Pool: worker handler: %w", err)
				}

				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}
		})
	}

	return g.Wait()
}
