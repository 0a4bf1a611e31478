// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
	"k8s.io/klog/v2"

	"github.com/gomlx/fusednn/pkg/support/xsync"
)

// Launch runs the fused kernel described by p to completion and returns any
// fault as a single opaque error.
//
// All units are started on the params' workers pool and joined before Launch
// returns. Units never block on each other; the only cooperative blocking is
// inside a unit, around its one-time row-state seed. There is no
// cancellation and no retry: a panic inside any unit is recovered once and
// reported as one launch failure, with no partial-result contract -- rows
// flushed before the fault keep whatever was written, which is not
// guaranteed consistent.
func Launch[T any, V constraints.Float](p *Params[T, V]) error {
	if err := CanImplement(p.Arguments); err != nil {
		// Unreachable today; kept so hardened feasibility checks slot in.
		return err
	}
	grid := p.Grid()
	klog.V(1).Infof("fusednn launch: problem %dx%dx%d, tile %dx%dx%d, grid %dx%d (%d tiles), %d units",
		p.Problem.M, p.Problem.N, p.Problem.K, p.Tile.M, p.Tile.N, p.Tile.K,
		grid.Rows, grid.Cols, grid.TileCount(), p.UnitCount)

	var (
		faultOnce sync.Once
		fault     error
	)
	wg := xsync.NewDynamicWaitGroup()
	for unitIdx := range p.UnitCount {
		wg.Add(1)
		p.workers.WaitToStart(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					faultOnce.Do(func() {
						fault = errors.Errorf("kernel launch failed: %v", r)
					})
				}
			}()
			runUnit(p, unitIdx, wg)
		})
	}
	wg.Wait()
	return fault
}
