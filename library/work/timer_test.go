package work

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler(t *testing.T) {
	l := NewLoop()
	require.NoError(t, l.Start())
	defer l.Stop()

	s := NewScheduler(l)
	defer s.Stop()

	t.Run("Once task executes on loop", func(t *testing.T) {
		done := make(chan struct{})
		s.Once(10*time.Millisecond, func() {
			assert.Equal(t, StateExecuting, l.Status().State)
			close(done)
		})
		waitForChannel(t, done, time.Second, "Once task did not execute")
	})

	t.Run("Forever task repeats", func(t *testing.T) {
		var count atomic.Int32
		done := make(chan struct{})
		var id atomic.Int64
		id.Store(s.Forever(10*time.Millisecond, func() {
			if count.Add(1) == 3 {
				s.Cancel(id.Load())
				close(done)
			}
		}))
		require.Greater(t, id.Load(), int64(0))
		waitForChannel(t, done, time.Second, "Forever task did not repeat")
	})

	t.Run("Cancel prevents execution", func(t *testing.T) {
		var fired atomic.Bool
		id := s.Once(30*time.Millisecond, func() { fired.Store(true) })
		s.Cancel(id)
		time.Sleep(80 * time.Millisecond)
		assert.False(t, fired.Load())
	})

	t.Run("CancelAll", func(t *testing.T) {
		s.Once(time.Hour, func() {})
		s.Once(time.Hour, func() {})
		assert.GreaterOrEqual(t, s.Len(), 2)
		s.CancelAll()
		assert.Equal(t, 0, s.Len())
	})

	t.Run("invalid repeated interval rejected", func(t *testing.T) {
		assert.Equal(t, int64(-1), s.Forever(0, func() {}))
	})
}

func TestScheduler_StopRejects(t *testing.T) {
	s := NewScheduler(nil)
	s.Stop()
	s.Stop()
	assert.Equal(t, int64(-1), s.Once(time.Millisecond, func() {}))
}
