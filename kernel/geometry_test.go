// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridShape(t *testing.T) {
	tests := []struct {
		m, n, tileM, tileN int
		wantRows, wantCols int
	}{
		{128, 256, 128, 64, 1, 4},
		{1, 1, 64, 64, 1, 1},
		{64, 64, 64, 64, 1, 1},
		{65, 64, 64, 64, 2, 1},
		{100, 300, 32, 128, 4, 3},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%dx%d_tile%dx%d", test.m, test.n, test.tileM, test.tileN), func(t *testing.T) {
			problem := Problem{M: test.m, N: test.n, K: 8}
			grid := problem.Grid(TileShape{M: test.tileM, N: test.tileN, K: 8})
			assert.Equal(t, test.wantRows, grid.Rows)
			assert.Equal(t, test.wantCols, grid.Cols)
			assert.Equal(t, uint32(test.wantRows*test.wantCols), grid.TileCount())
		})
	}
}

func TestTileOrigin_Bijection(t *testing.T) {
	// TileOrigin must be a bijection over [0, TileCount()), and every origin
	// must land strictly inside the problem extent.
	shapes := []struct {
		m, n int
		tile TileShape
	}{
		{128, 256, TileShape{M: 128, N: 64, K: 8}},
		{100, 300, TileShape{M: 32, N: 128, K: 8}},
		{7, 5, TileShape{M: 2, N: 2, K: 2}},
		{1, 1, TileShape{M: 64, N: 64, K: 64}},
	}
	for _, test := range shapes {
		problem := Problem{M: test.m, N: test.n, K: test.tile.K}
		grid := problem.Grid(test.tile)
		seen := make(map[[2]int]uint32)
		for tileIdx := uint32(0); tileIdx < grid.TileCount(); tileIdx++ {
			row, col := TileOrigin(tileIdx, grid, test.tile)
			require.Less(t, row, test.m, "tile %d row origin out of range", tileIdx)
			require.Less(t, col, test.n, "tile %d col origin out of range", tileIdx)
			require.Zero(t, row%test.tile.M)
			require.Zero(t, col%test.tile.N)
			prev, dup := seen[[2]int{row, col}]
			require.False(t, dup, "tiles %d and %d map to the same origin", prev, tileIdx)
			seen[[2]int{row, col}] = tileIdx
		}
		assert.Len(t, seen, int(grid.TileCount()))

		// Row-major order: consecutive indices inside one row differ only in
		// the column origin.
		lastRow, lastCol := TileOrigin(grid.TileCount()-1, grid, test.tile)
		assert.Equal(t, (grid.Rows-1)*test.tile.M, lastRow)
		assert.Equal(t, (grid.Cols-1)*test.tile.N, lastCol)
	}
}
