package threadpool

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNilPoolRunsInline(t *testing.T) {
	var p *Pool
	require.False(t, p.IsEnabled())
	require.Equal(t, 0, p.MaxParallelism())

	ran := false
	p.WaitToStart(func() { ran = true })
	require.True(t, ran, "nil pool must run the task inline, synchronously")
	require.False(t, p.StartIfAvailable(func() {}))
}

func TestDisabledPoolRunsInline(t *testing.T) {
	p := New(0)
	ran := false
	p.WaitToStart(func() { ran = true })
	require.True(t, ran)
	require.False(t, p.StartIfAvailable(func() {}))
}

func TestWaitToStartRunsAllTasks(t *testing.T) {
	p := New(4)
	const numTasks = 100

	var wg sync.WaitGroup
	var counter atomic.Int32
	var peak atomic.Int32
	var running atomic.Int32
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		p.WaitToStart(func() {
			defer wg.Done()
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			counter.Add(1)
			running.Add(-1)
		})
	}
	wg.Wait()
	require.Equal(t, int32(numTasks), counter.Load())
	require.LessOrEqual(t, peak.Load(), int32(goroutineToParallelismRatio*4))
}

func TestStartIfAvailableRefusesWhenFull(t *testing.T) {
	p := New(1)

	release := make(chan struct{})
	done := make(chan struct{}, 8)
	blocked := func() {
		<-release
		done <- struct{}{}
	}

	// Saturate the pool with blocked tasks.
	started := 0
	for p.StartIfAvailable(blocked) {
		started++
	}
	require.Equal(t, goroutineToParallelismRatio, started)
	require.False(t, p.StartIfAvailable(blocked))

	// A sleeping worker frees a slot.
	p.WorkerIsAsleep()
	require.True(t, p.StartIfAvailable(blocked))
	started++
	p.WorkerRestarted()

	close(release)
	for i := 0; i < started; i++ {
		<-done
	}
}

func TestUnlimitedPool(t *testing.T) {
	p := New(-1)
	require.True(t, p.IsEnabled())
	require.True(t, p.IsUnlimited())

	var wg sync.WaitGroup
	var counter atomic.Int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		require.True(t, p.StartIfAvailable(func() {
			defer wg.Done()
			counter.Add(1)
		}))
	}
	wg.Wait()
	require.Equal(t, int32(50), counter.Load())
}
