// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

// runEpilogue fuses the reduction into the tile just produced by the
// multiply stage.
//
// The combine step always runs: every in-range cell of the product tile is
// converted by the output op and folded into its row's accumulator slot.
// The flush step runs only when the flush flag is set, and writes the
// accumulator of every row in the tile's row span to the output buffer --
// one store per row per unit instead of one per tile.
//
// The flush is a plain store. If a row's column tiles are split across two
// units, both units flush their own partial reduction and the later store
// wins; choosing unit counts so a chunk never splits a row is a launch
// configuration constraint, not something this code detects.
func (p *Params[T, V]) runEpilogue(ar *arena[T, V], unitIdx int, tileIdx uint32, rowOrigin, colOrigin int, flush bool) {
	rows := min(p.Tile.M, p.Problem.M-rowOrigin)
	cols := min(p.Tile.N, p.Problem.N-colOrigin)

	if p.Vector == nil {
		for r := range rows {
			accRow := ar.reduced[r]
			tileRow := ar.acc[r*p.Tile.N:]
			for c := range cols {
				accRow = p.ReduceOp.Reduce(accRow, p.OutputOp.Apply(tileRow[c], rowOrigin+r, colOrigin+c, 0))
			}
			ar.reduced[r] = accRow
		}
	} else {
		// Stage the auxiliary vector slice of this tile (offset by the
		// column origin) in the arena; it is re-read once per row.
		vec := ar.vectorTile(cols)
		copy(vec, p.Vector[colOrigin:colOrigin+cols])
		for r := range rows {
			accRow := ar.reduced[r]
			tileRow := ar.acc[r*p.Tile.N:]
			for c := range cols {
				accRow = p.ReduceOp.Reduce(accRow, p.OutputOp.Apply(tileRow[c], rowOrigin+r, colOrigin+c, vec[c]))
			}
			ar.reduced[r] = accRow
		}
	}

	if !flush {
		return
	}
	for r := range rows {
		p.Tensor[(rowOrigin+r)*p.LDT] = ar.reduced[r]
	}
	if p.flushProbe != nil {
		p.flushProbe(unitIdx, tileIdx, rowOrigin)
	}
}
