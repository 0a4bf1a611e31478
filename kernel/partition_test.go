// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkFor_CoversWithoutOverlap(t *testing.T) {
	// The union of all chunks, with ends clamped, must be exactly
	// [0, totalTiles): no gap, no overlap.
	cases := []struct {
		totalTiles uint32
		unitCount  int
	}{
		{4, 2},
		{4, 1},
		{12, 5},
		{1, 8},
		{1000, 7},
		{7, 7},
		{0, 3},
	}
	for _, test := range cases {
		t.Run(fmt.Sprintf("%dtiles_%dunits", test.totalTiles, test.unitCount), func(t *testing.T) {
			covered := make([]int, test.totalTiles)
			for unit := range test.unitCount {
				chunk := ChunkFor(unit, test.unitCount, test.totalTiles)
				if chunk.IsEmpty(test.totalTiles) {
					continue
				}
				require.LessOrEqual(t, chunk.Start, chunk.End)
				for tileIdx := chunk.Start; tileIdx < min(chunk.End, test.totalTiles); tileIdx++ {
					covered[tileIdx]++
				}
			}
			for tileIdx, count := range covered {
				assert.Equal(t, 1, count, "tile %d covered %d times", tileIdx, count)
			}
		})
	}
}

func TestChunkFor_EndIsNotClamped(t *testing.T) {
	// The last unit's End may extend past totalTiles; iteration guards,
	// the flush decision uses the raw End.
	chunk := ChunkFor(2, 3, 7) // chunkSize = ceil(7/3) = 3
	assert.Equal(t, Chunk{Start: 6, End: 9}, chunk)
	assert.False(t, chunk.IsEmpty(7))

	// unitCount > totalTiles: trailing units get empty chunks.
	chunk = ChunkFor(3, 8, 2)
	assert.True(t, chunk.IsEmpty(2))
}

func TestChunkFor_SingleRowSpanSplit(t *testing.T) {
	// M=128, N=256, tile 128x64 -> grid 1x4, 4 tiles; 2 units own [0,2) and [2,4).
	grid := Problem{M: 128, N: 256, K: 8}.Grid(TileShape{M: 128, N: 64, K: 8})
	require.Equal(t, GridShape{Rows: 1, Cols: 4}, grid)
	assert.Equal(t, Chunk{Start: 0, End: 2}, ChunkFor(0, 2, grid.TileCount()))
	assert.Equal(t, Chunk{Start: 2, End: 4}, ChunkFor(1, 2, grid.TileCount()))
}
