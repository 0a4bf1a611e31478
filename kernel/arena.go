// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// arena is one unit's private fast-memory region. No two units ever share an
// arena; within a unit, its regions have two different lifetimes:
//
//   - overlap is a union of the two mutually exclusive compute phases: the
//     multiply stage uses it as packing scratch, the epilogue stage as
//     staging for the auxiliary vector tile. Only one phase is live at a
//     time, so the region is sized max(phase sizes), not their sum.
//   - acc, reduced and baseline persist across tiles: acc is the product
//     accumulator tile (the register-file analog), reduced holds the
//     in-progress row reduction, baseline the seeded source row values.
type arena[T any, V constraints.Float] struct {
	overlap []byte

	acc      []V // tile.M*tile.N product accumulators
	reduced  []T // one reduction slot per row of the tile row span
	baseline []T // seeded source values, same extent as reduced
}

func newArena[T any, V constraints.Float](tile TileShape, engineScratch int) *arena[T, V] {
	overlapSize := max(engineScratch, tile.N*int(unsafe.Sizeof(*new(V))))
	return &arena[T, V]{
		overlap:  getScratch(overlapSize),
		acc:      make([]V, tile.M*tile.N),
		reduced:  make([]T, tile.M),
		baseline: make([]T, tile.M),
	}
}

// vectorTile returns the epilogue-phase view of the overlap region: n
// elements of V used to stage the auxiliary vector slice of the current
// tile. It aliases the multiply stage's scratch, which is dead by the time
// the epilogue runs.
func (a *arena[T, V]) vectorTile(n int) []V {
	return viewAs[V](a.overlap, n)
}

// release recycles the overlap region. The typed regions are left to the
// garbage collector.
func (a *arena[T, V]) release() {
	putScratch(a.overlap)
	a.overlap = nil
}

// viewAs reinterprets the prefix of a byte buffer as n elements of V. The
// buffer comes from the Go heap, so it is sufficiently aligned for any
// element type used here.
func viewAs[V constraints.Float](buf []byte, n int) []V {
	return unsafe.Slice((*V)(unsafe.Pointer(unsafe.SliceData(buf))), n)
}
