// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"github.com/gomlx/fusednn/pkg/support/xsync"
)

// seedRowState performs the one-time row-state seed at chunk entry, for a
// chunk whose first tile resumes a row mid-way (nonzero column origin).
//
// The accumulators were already set to the identity by the caller. Here the
// source row values for the first row span are copied -- asynchronously, on
// a helper worker when one is free -- into the baseline region, and once the
// copy completes they are folded into the accumulators. A seeded value V
// therefore dominates any later contribution >= V under a min-reduction.
//
// Seeding happens only here, never per tile: it accounts for work a
// different unit may already have done for this row before this chunk, which
// can only be the case for the chunk's first row span.
func (p *Params[T, V]) seedRowState(ar *arena[T, V], firstRow int, wg *xsync.DynamicWaitGroup) {
	if p.C == nil {
		return
	}
	rows := min(p.Tile.M, p.Problem.M-firstRow) // Rows beyond M are not copied.

	copied := xsync.NewLatch()
	wg.Add(1)
	copyTask := func() {
		for r := range rows {
			ar.baseline[r] = p.C[(firstRow+r)*p.LDC]
		}
		copied.Trigger()
		wg.Done()
	}
	if !p.workers.StartIfAvailable(copyTask) {
		copyTask()
	}

	// Barrier: nothing below may read the baseline before the copy has
	// fully landed.
	p.workers.WorkerIsAsleep()
	copied.Wait()
	p.workers.WorkerRestarted()

	for r := range rows {
		ar.reduced[r] = p.ReduceOp.Reduce(ar.reduced[r], ar.baseline[r])
	}
}
