// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

// TileShape is the shape of one output tile: M rows by N columns, with K as
// the depth of each internal reduction step of the multiply stage.
//
// It is fixed for the duration of a launch and shared by all tiles.
type TileShape struct {
	M, N, K int
}

// GridShape is the shape of the tile grid derived from a problem and a tile
// shape. It is never stored in Params, always recomputed, so it cannot drift
// from the problem it was derived from.
type GridShape struct {
	Rows, Cols int
}

// Grid returns the tile grid shape for the problem: ceil(M/tile.M) rows of
// tiles by ceil(N/tile.N) columns of tiles.
func (p Problem) Grid(tile TileShape) GridShape {
	return GridShape{
		Rows: (p.M + tile.M - 1) / tile.M,
		Cols: (p.N + tile.N - 1) / tile.N,
	}
}

// TileCount returns the total number of tiles in the grid.
func (g GridShape) TileCount() uint32 {
	return uint32(g.Rows) * uint32(g.Cols)
}

// TileOrigin maps a linear tile index to the output coordinates of the
// tile's top-left corner.
//
// Tiles are ordered row-major: index = tileRow*g.Cols + tileCol. This
// ordering is load-bearing: a unit's chunk is contiguous in it, so the
// column origin wrapping back to zero is what signals "a new row span
// started" to the driver loop and to the flush decision.
func TileOrigin(tileIdx uint32, g GridShape, tile TileShape) (rowOrigin, colOrigin int) {
	rowOrigin = int(tileIdx/uint32(g.Cols)) * tile.M
	colOrigin = int(tileIdx%uint32(g.Cols)) * tile.N
	return
}
