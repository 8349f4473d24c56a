// Copyright 2025-2026 The QNNPACK-Go Authors. SPDX-License-Identifier: BSD-3-Clause

// Package threadpool implements the worker pool operators use to spread
// their compute pass across the output grid.
package threadpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a soft cap on the amount of parallel work in flight.
// The actual number of goroutines may run higher, because workers waiting on
// other workers temporarily free their slot.
//
// A nil *Pool is valid: every task runs inline on the caller's goroutine.
type Pool struct {
	maxParallelism int

	mu         sync.Mutex
	cond       sync.Cond // Signaled whenever numRunning decreases.
	numRunning int

	// extraParallelism is temporarily raised while a worker sleeps waiting
	// for others.
	extraParallelism atomic.Int32
}

// New creates a Pool targeting maxParallelism concurrently running tasks.
// Zero disables parallelism (tasks run inline); negative means unlimited.
func New(maxParallelism int) *Pool {
	p := &Pool{maxParallelism: maxParallelism}
	p.cond = sync.Cond{L: &p.mu}
	return p
}

// NewDefault creates a Pool sized to the number of CPUs.
func NewDefault() *Pool {
	return New(runtime.NumCPU())
}

// IsEnabled returns whether the pool runs tasks on separate goroutines at all.
func (p *Pool) IsEnabled() bool {
	return p != nil && p.maxParallelism != 0
}

// IsUnlimited returns whether the pool caps parallelism.
func (p *Pool) IsUnlimited() bool {
	return p != nil && p.maxParallelism < 0
}

// MaxParallelism returns the soft target on concurrently running tasks.
func (p *Pool) MaxParallelism() int {
	if p == nil {
		return 0
	}
	return p.maxParallelism
}

// Tasks blocked waiting for others free their slot, so the goroutine count is
// allowed to exceed the parallelism target by this factor before WaitToStart
// blocks.
const goroutineToParallelismRatio = 2

// lockedIsFull returns whether all worker slots are taken.
// Callers must hold p.mu.
func (p *Pool) lockedIsFull() bool {
	if p.maxParallelism == 0 {
		return true
	}
	if p.maxParallelism < 0 {
		return false
	}
	return p.numRunning >= goroutineToParallelismRatio*p.maxParallelism+int(p.extraParallelism.Load())
}

// WaitToStart blocks until a worker slot frees up and then runs task on it.
// On a nil or disabled pool the task runs inline instead.
func (p *Pool) WaitToStart(task func()) {
	if !p.IsEnabled() {
		task()
		return
	}
	if p.IsUnlimited() {
		go task()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for p.lockedIsFull() {
		p.cond.Wait()
	}
	p.lockedStartTask(task)
}

// StartIfAvailable runs task on a separate goroutine if a worker slot is
// free, and reports whether it did. The caller is responsible for
// synchronizing on the task's completion.
func (p *Pool) StartIfAvailable(task func()) bool {
	if !p.IsEnabled() {
		return false
	}
	if p.IsUnlimited() {
		go task()
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lockedIsFull() {
		return false
	}
	p.lockedStartTask(task)
	return true
}

// lockedStartTask runs task on a new goroutine, keeping tabs on numRunning.
// Callers must hold p.mu.
func (p *Pool) lockedStartTask(task func()) {
	p.numRunning++
	go func() {
		task()
		p.mu.Lock()
		p.numRunning--
		p.cond.Signal()
		p.mu.Unlock()
	}()
}

// WorkerIsAsleep tells the pool the calling worker is blocked waiting for
// other workers, temporarily raising the number of available slots.
// Pair with WorkerRestarted.
func (p *Pool) WorkerIsAsleep() {
	if p == nil {
		return
	}
	p.extraParallelism.Add(1)
}

// WorkerRestarted tells the pool the calling worker is running again.
// It must only be called after WorkerIsAsleep.
func (p *Pool) WorkerRestarted() {
	if p == nil {
		return
	}
	p.extraParallelism.Add(-1)
}
