package bgtask

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

type task = func() error

// WorkerPool runs tasks with bounded concurrency, the first error cancels Ctx.
type WorkerPool struct {
	Ctx      context.Context
	errGroup *errgroup.Group
}

// NewWorkerPool limits concurrency to limit, or 4*NumCPU when limit <= 0.
func NewWorkerPool(ctx context.Context, limit int) *WorkerPool {
	g, ctx := errgroup.WithContext(ctx)
	if limit <= 0 {
		limit = 4 * runtime.NumCPU()
	}
	g.SetLimit(limit)
	return &WorkerPool{
		Ctx:      ctx,
		errGroup: g,
	}
}

func (wp *WorkerPool) Spawn(t task) {
	wp.errGroup.Go(t)
}

func (wp *WorkerPool) Wait() error {
	return wp.errGroup.Wait()
}
