package bgtask

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	oneBt sync.Once
	bt    *BackgroundTask
)

// BackgroundTask tracks transfers (uploads, downloads) that must be
// canceled and awaited before the program exits.
type BackgroundTask struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	tasks  atomic.Int32
}

// Get returns the process wide BackgroundTask.
func Get() *BackgroundTask {
	oneBt.Do(func() {
		bt = New()
	})
	return bt
}

func New() *BackgroundTask {
	ctx, cancel := context.WithCancel(context.Background())
	return &BackgroundTask{ctx: ctx, cancel: cancel}
}

// ShutdownCtx is canceled once Shutdown is called.
func (bt *BackgroundTask) ShutdownCtx() context.Context {
	return bt.ctx
}

// Run executes fn in a tracked goroutine, panics are logged not propagated.
func (bt *BackgroundTask) Run(fn func(shutdownCtx context.Context)) {
	bt.wg.Add(1)
	bt.tasks.Add(1)
	go func() {
		defer bt.done()
		fn(bt.ctx)
	}()
}

// RunAndBlock is Run on the caller's goroutine, used by tea.Cmds that already run off the update loop.
func (bt *BackgroundTask) RunAndBlock(fn func(shutdownCtx context.Context)) {
	bt.wg.Add(1)
	bt.tasks.Add(1)
	defer bt.done()
	fn(bt.ctx)
}

func (bt *BackgroundTask) Active() int {
	return int(bt.tasks.Load())
}

func (bt *BackgroundTask) done() {
	bt.wg.Done()
	bt.tasks.Add(-1)
	if r := recover(); r != nil {
		slog.Error("background task panicked", "err", fmt.Errorf("%v", r))
	}
}

// Shutdown cancels all running tasks and waits up to timeout for them to return.
func (bt *BackgroundTask) Shutdown(timeout time.Duration) error {
	bt.cancel()
	wait := make(chan struct{})
	go func() {
		bt.wg.Wait()
		close(wait)
	}()
	select {
	case <-wait:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout, some background tasks may not have finished, \"count\"=%v", bt.tasks.Load())
	}
}
