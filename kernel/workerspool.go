// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// workersPool throttles the goroutines a launch may use: the units
// themselves plus their helper tasks (seed copies).
//
// maxParallelism is a soft target: a unit that goes to sleep waiting on a
// helper temporarily gives its slot back, so the number of live goroutines
// can exceed it.
type workersPool struct {
	// maxParallelism: 0 disables parallelism (everything runs inline),
	// negative means unlimited.
	maxParallelism int

	mu         sync.Mutex
	cond       sync.Cond // Signaled whenever numRunning decreases.
	numRunning int

	// extraParallelism is temporarily increased while a worker sleeps.
	extraParallelism atomic.Int32
}

func defaultMaxParallelism() int { return runtime.NumCPU() }

func newWorkersPool(maxParallelism int) *workersPool {
	w := &workersPool{maxParallelism: maxParallelism}
	w.cond.L = &w.mu
	return w
}

// Launches keep a couple of goroutines per parallelism slot in flight, to
// cover for units blocked on their seed copies.
const goroutineToParallelismRatio = 2

// lockedIsFull reports whether all worker slots are taken.
// Must be called with w.mu held.
func (w *workersPool) lockedIsFull() bool {
	if w.maxParallelism == 0 {
		return true
	}
	if w.maxParallelism < 0 {
		return false
	}
	return w.numRunning >= goroutineToParallelismRatio*w.maxParallelism+int(w.extraParallelism.Load())
}

// Must be called with w.mu held.
func (w *workersPool) lockedRunInGoroutine(task func()) {
	w.numRunning++
	go func() {
		task()
		w.mu.Lock()
		w.numRunning--
		w.cond.Signal()
		w.mu.Unlock()
	}()
}

// WaitToStart blocks until a worker slot frees up, then runs task on it.
// With parallelism disabled the task runs inline instead.
func (w *workersPool) WaitToStart(task func()) {
	if w.maxParallelism < 0 {
		go task()
		return
	}
	if w.maxParallelism == 0 {
		task()
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.lockedIsFull() {
		w.cond.Wait()
	}
	w.lockedRunInGoroutine(task)
}

// StartIfAvailable runs task on a worker goroutine if a slot is free and
// returns true; otherwise it returns false and the caller should run the
// task itself. Completion is the caller's to synchronize.
func (w *workersPool) StartIfAvailable(task func()) bool {
	if w.maxParallelism < 0 {
		go task()
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lockedIsFull() {
		return false
	}
	w.lockedRunInGoroutine(task)
	return true
}

// WorkerIsAsleep tells the pool the calling worker is blocked waiting on
// other workers, freeing its slot until WorkerRestarted is called.
func (w *workersPool) WorkerIsAsleep() {
	w.extraParallelism.Add(1)
}

// WorkerRestarted reverses WorkerIsAsleep.
func (w *workersPool) WorkerRestarted() {
	w.extraParallelism.Add(-1)
}
