// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

// Chunk is the half-open range [Start, End) of linear tile indices assigned
// to one unit.
//
// End is not clamped to the total tile count: the last unit's chunk may
// extend past the grid, and iteration must bound itself with
// min(End, totalTiles). The unclamped End is still the value used by the
// flush decision ("last tile in the chunk"), matching the partition
// arithmetic the epilogue depends on.
type Chunk struct {
	Start, End uint32
}

// ChunkFor statically partitions totalTiles into equal contiguous chunks,
// one per unit: chunkSize = ceil(totalTiles/unitCount).
//
// The partition is load-unaware -- every tile is assumed to cost the same,
// which holds for a fixed tile shape. When unitCount > totalTiles some
// units receive an empty chunk (Start >= totalTiles) and must do nothing.
func ChunkFor(unitIdx, unitCount int, totalTiles uint32) Chunk {
	chunkSize := (totalTiles + uint32(unitCount) - 1) / uint32(unitCount)
	start := uint32(unitIdx) * chunkSize
	return Chunk{Start: start, End: start + chunkSize}
}

// IsEmpty returns whether the chunk contains no tiles of a grid with
// totalTiles tiles.
func (c Chunk) IsEmpty(totalTiles uint32) bool {
	return c.Start >= totalTiles || c.Start >= c.End
}
