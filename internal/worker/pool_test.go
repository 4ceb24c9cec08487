package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcJob struct {
	id string
	fn func(ctx context.Context) error
}

func (j funcJob) ID() string                        { return j.id }
func (j funcJob) Execute(ctx context.Context) error { return j.fn(ctx) }

func TestDispatcher_RunsAllJobsBeforeStopping(t *testing.T) {
	d := NewDispatcher(3, 100, nil)
	d.Run(context.Background())

	var ran int32
	for i := 0; i < 40; i++ {
		err := d.Submit(funcJob{id: fmt.Sprint(i), fn: func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			if i%7 == 0 {
				return errors.New("failing jobs do not stop the pool")
			}
			return nil
		}})
		require.NoError(t, err)
	}
	d.Stop()

	assert.EqualValues(t, 40, atomic.LoadInt32(&ran))
	assert.ErrorIs(t, d.Submit(funcJob{id: "late", fn: func(context.Context) error { return nil }}), ErrStopped)
	d.Stop()
}

func TestDispatcher_QueueFull(t *testing.T) {
	d := NewDispatcher(1, 1, nil)
	d.Run(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	block := funcJob{id: "block", fn: func(context.Context) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	}}

	require.NoError(t, d.Submit(block))
	<-started
	require.NoError(t, d.Submit(block))
	// The single worker is busy and the dispatcher holds the second job,
	// so at most one more fits before the queue overflows.
	var full bool
	for i := 0; i < 3; i++ {
		if errors.Is(d.Submit(block), ErrQueueFull) {
			full = true
			break
		}
	}
	assert.True(t, full)

	close(release)
	d.Stop()
}
