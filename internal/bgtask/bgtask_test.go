package bgtask

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownCancelsTasks(t *testing.T) {
	bt := New()
	started := make(chan struct{})
	var canceled atomic.Bool
	bt.Run(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		canceled.Store(true)
	})
	<-started
	assert.Equal(t, 1, bt.Active())
	require.NoError(t, bt.Shutdown(time.Second))
	assert.True(t, canceled.Load())
	assert.Equal(t, 0, bt.Active())
}

func TestShutdownTimeout(t *testing.T) {
	bt := New()
	release := make(chan struct{})
	defer close(release)
	bt.Run(func(context.Context) { <-release })
	assert.Error(t, bt.Shutdown(10*time.Millisecond))
}

func TestRunRecoversPanic(t *testing.T) {
	bt := New()
	bt.RunAndBlock(func(context.Context) { panic("boom") })
	assert.Equal(t, 0, bt.Active())
	require.NoError(t, bt.Shutdown(time.Second))
}

func TestWorkerPool(t *testing.T) {
	wp := NewWorkerPool(context.Background(), 2)
	var n atomic.Int32
	for range 10 {
		wp.Spawn(func() error {
			n.Add(1)
			return nil
		})
	}
	require.NoError(t, wp.Wait())
	assert.EqualValues(t, 10, n.Load())

	boom := errors.New("boom")
	wp = NewWorkerPool(context.Background(), 0)
	wp.Spawn(func() error { return boom })
	wp.Spawn(func() error {
		<-wp.Ctx.Done()
		return wp.Ctx.Err()
	})
	assert.ErrorIs(t, wp.Wait(), boom)
}
