// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkersPool_Inline(t *testing.T) {
	w := newWorkersPool(0)
	ran := false
	w.WaitToStart(func() { ran = true })
	assert.True(t, ran, "with parallelism disabled the task must run inline, before WaitToStart returns")
	assert.False(t, w.StartIfAvailable(func() {}), "no workers are ever available inline")
}

func TestWorkersPool_Limit(t *testing.T) {
	// Limit 2 means at most 2*goroutineToParallelismRatio tasks in flight.
	const limit = 2
	w := newWorkersPool(limit)
	maxInFlight := limit * goroutineToParallelismRatio

	var inFlight, peak atomic.Int64
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		// WaitToStart blocks while the pool is full, so the tasks must not
		// wait on the submitting loop.
		w.WaitToStart(func() {
			defer wg.Done()
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
		})
	}
	wg.Wait()
	require.LessOrEqual(t, peak.Load(), int64(maxInFlight))
	assert.Positive(t, peak.Load())
}

func TestWorkersPool_AsleepFreesASlot(t *testing.T) {
	w := newWorkersPool(1)
	maxInFlight := 1 * goroutineToParallelismRatio

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	for range maxInFlight {
		wg.Add(1)
		w.WaitToStart(func() {
			defer wg.Done()
			started <- struct{}{}
			<-release
		})
	}
	for range maxInFlight {
		<-started
	}

	// The pool is full now, but a worker declaring itself asleep frees one
	// slot for a helper task. This is the seed-barrier protocol.
	assert.False(t, w.StartIfAvailable(func() {}))
	w.WorkerIsAsleep()
	helperRan := make(chan struct{})
	require.True(t, w.StartIfAvailable(func() { close(helperRan) }))
	<-helperRan
	w.WorkerRestarted()

	close(release)
	wg.Wait()
}
