// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package gemm provides the reference matrix-multiply engines consumed by
// the kernel package: a threadblock-scoped product-tile computation that
// stages both operand tiles in the unit's fast-memory scratch, zero-padded
// to the tile shape, before running the accumulation micro-loop.
package gemm

import (
	"unsafe"

	"golang.org/x/exp/constraints"

	"github.com/gomlx/fusednn/kernel"
)

// Blocked is the portable blocked engine. It implements kernel.Engine for
// float32 and float64 and carries no state: all scratch comes from the
// caller's arena.
type Blocked[V constraints.Float] struct{}

// New returns the blocked engine for element type V.
func New[V constraints.Float]() Blocked[V] { return Blocked[V]{} }

// ScratchSize implements kernel.Engine: one packed A panel (tile.M x tile.K)
// plus one packed B panel (tile.K x tile.N).
func (Blocked[V]) ScratchSize(tile kernel.TileShape, k int) int {
	var v V
	return (tile.M*tile.K + tile.K*tile.N) * int(unsafe.Sizeof(v))
}

// ProductTile implements kernel.Engine. It runs ceil(K/tile.K) depth steps;
// each step packs the operand panels into scratch -- zero-padding rows past
// M, columns past N and depth past K, so the micro-loop needs no bounds
// checks on the contracting axis -- and accumulates into acc.
func (Blocked[V]) ProductTile(a, b []V, lda, ldb int, problem kernel.Problem, tile kernel.TileShape,
	rowOrigin, colOrigin int, scratch []byte, acc []V) {

	rows := min(tile.M, problem.M-rowOrigin)
	cols := min(tile.N, problem.N-colOrigin)

	aPack := viewAs[V](scratch, tile.M*tile.K)
	bPack := viewAs[V](scratch[tile.M*tile.K*int(unsafe.Sizeof(*new(V))):], tile.K*tile.N)

	clear(acc[:tile.M*tile.N])
	for kPanel := 0; kPanel < problem.K; kPanel += tile.K {
		depth := min(tile.K, problem.K-kPanel)
		packA(a, aPack, rowOrigin, kPanel, lda, rows, depth, tile)
		packB(b, bPack, kPanel, colOrigin, ldb, depth, cols, tile)

		for i := range rows {
			aRow := aPack[i*tile.K : i*tile.K+tile.K]
			accRow := acc[i*tile.N : i*tile.N+cols]
			for k, av := range aRow {
				bRow := bPack[k*tile.N : k*tile.N+cols]
				for j, bv := range bRow {
					accRow[j] += av * bv
				}
			}
		}
	}
}

// packA copies the rows x depth sub-block of A at (rowOrigin, kPanel) into
// dst as a dense tile.M x tile.K panel, zero-filling the padding.
func packA[V constraints.Float](src, dst []V, rowOrigin, kPanel, lda, rows, depth int, tile kernel.TileShape) {
	for i := range rows {
		srcIdx := (rowOrigin+i)*lda + kPanel
		copy(dst[i*tile.K:], src[srcIdx:srcIdx+depth])
		clear(dst[i*tile.K+depth : (i+1)*tile.K])
	}
	clear(dst[rows*tile.K : tile.M*tile.K])
}

// packB copies the depth x cols sub-block of B at (kPanel, colOrigin) into
// dst as a dense tile.K x tile.N panel, zero-filling the padding.
func packB[V constraints.Float](src, dst []V, kPanel, colOrigin, ldb, depth, cols int, tile kernel.TileShape) {
	for k := range depth {
		srcIdx := (kPanel+k)*ldb + colOrigin
		copy(dst[k*tile.N:], src[srcIdx:srcIdx+cols])
		clear(dst[k*tile.N+cols : (k+1)*tile.N])
	}
	clear(dst[depth*tile.N : tile.K*tile.N])
}

// viewAs reinterprets the prefix of a heap byte buffer as n elements of V.
func viewAs[V constraints.Float](buf []byte, n int) []V {
	return unsafe.Slice((*V)(unsafe.Pointer(unsafe.SliceData(buf))), n)
}
