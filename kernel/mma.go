// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import "golang.org/x/exp/constraints"

// Engine is the external multiply-accumulate collaborator: it computes one
// dense tile of the product A x B per invocation.
//
// The driver loop calls ProductTile once per tile with the tile's output
// origin; the engine is expected to run ceil(K/tile.K) internal reduction
// steps over the depth, zero-padding the trailing partial depth step.
// Implementations must be deterministic: the same inputs always produce the
// same accumulator tile.
//
// The gemm package provides the reference implementations.
type Engine[V constraints.Float] interface {
	// ScratchSize returns how many bytes of the unit's fast-memory arena
	// ProductTile needs as scratch for the given tile shape and problem
	// depth. It is called once per launch to size the arena's overlap
	// region.
	ScratchSize(tile TileShape, k int) int

	// ProductTile fills acc (tile.M*tile.N elements, row-major) with the
	// product of the operand tiles at (rowOrigin, colOrigin):
	//
	//	acc[i*tile.N+j] = sum_k a[(rowOrigin+i)*lda+k] * b[k*ldb+colOrigin+j]
	//
	// Cells whose global coordinates fall outside problem.M x problem.N
	// must be left zero. scratch is the arena's overlap region, at least
	// ScratchSize bytes; its previous contents are undefined.
	ProductTile(a, b []V, lda, ldb int, problem Problem, tile TileShape,
		rowOrigin, colOrigin int, scratch []byte, acc []V)
}
