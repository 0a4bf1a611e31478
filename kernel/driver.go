// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"golang.org/x/exp/constraints"
	"k8s.io/klog/v2"

	"github.com/gomlx/fusednn/pkg/support/xsync"
)

// unitState is the per-unit driver state machine:
//
//	Idle -> Seeding -> Iterating -> Done
//	Idle -> Done (empty chunk)
type unitState int

const (
	unitIdle unitState = iota
	unitSeeding
	unitIterating
	unitDone
)

func (s unitState) String() string {
	switch s {
	case unitIdle:
		return "Idle"
	case unitSeeding:
		return "Seeding"
	case unitIterating:
		return "Iterating"
	case unitDone:
		return "Done"
	}
	return "Invalid"
}

func (p *Params[T, V]) setState(unitIdx int, state unitState) {
	if p.stateProbe != nil {
		p.stateProbe(unitIdx, state)
	}
}

// runUnit is the persistent per-unit loop: it owns one chunk of linear tile
// indices and processes them strictly in order. That order is the sole
// mechanism by which "the row changed" is detected, both for restarting the
// accumulators and for the flush decision.
func runUnit[T any, V constraints.Float](p *Params[T, V], unitIdx int, wg *xsync.DynamicWaitGroup) {
	grid := p.Grid()
	totalTiles := grid.TileCount()
	chunk := ChunkFor(unitIdx, p.UnitCount, totalTiles)
	p.setState(unitIdx, unitIdle)
	if chunk.IsEmpty(totalTiles) {
		p.setState(unitIdx, unitDone)
		return
	}
	end := min(chunk.End, totalTiles)
	if klog.V(2).Enabled() {
		klog.Infof("fusednn unit %d: tiles [%d, %d) of %d", unitIdx, chunk.Start, end, totalTiles)
	}

	ar := newArena[T, V](p.Tile, p.Engine.ScratchSize(p.Tile, p.Problem.K))
	defer ar.release()

	p.setState(unitIdx, unitSeeding)
	firstRow, firstCol := TileOrigin(chunk.Start, grid, p.Tile)
	for i := range ar.reduced {
		ar.reduced[i] = p.ReduceOp.Identity()
	}
	if firstCol != 0 {
		p.seedRowState(ar, firstRow, wg)
	}

	p.setState(unitIdx, unitIterating)
	for tileIdx := chunk.Start; tileIdx < end; tileIdx++ {
		rowOrigin, colOrigin := TileOrigin(tileIdx, grid, p.Tile)
		if colOrigin == 0 && tileIdx != chunk.Start {
			// Column wrapped to zero: a fresh row span. The previous span
			// was flushed at its row boundary, so the accumulators restart
			// from the identity.
			for i := range ar.reduced {
				ar.reduced[i] = p.ReduceOp.Identity()
			}
		}

		p.Engine.ProductTile(p.A, p.B, p.LDA, p.LDB, p.Problem, p.Tile,
			rowOrigin, colOrigin, ar.overlap, ar.acc)

		// Flush when this tile completes its row, or when it is the last
		// tile of the chunk -- End unclamped, same arithmetic ChunkFor
		// produced.
		flush := colOrigin+p.Tile.N >= p.Problem.N || tileIdx+1 == chunk.End
		p.runEpilogue(ar, unitIdx, tileIdx, rowOrigin, colOrigin, flush)
	}
	p.setState(unitIdx, unitDone)
}
