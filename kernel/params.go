// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"github.com/gomlx/exceptions"
	"golang.org/x/exp/constraints"
)

// Problem describes one matrix-multiply problem: an implicit M x N product
// with reduction depth K. It is immutable for the duration of a launch.
type Problem struct {
	M, N, K int
}

// Arguments is the host-side launch description, mirroring the split between
// user-facing arguments and the precomputed Params the kernel consumes.
//
// Strides are in elements. When left zero they default to the dense
// row-major values: LDA=K, LDB=N, LDC=1, LDT=1.
type Arguments[T any, V constraints.Float] struct {
	Problem Problem

	// Engine is the external multiply-accumulate collaborator that computes
	// one dense product tile per driver-loop iteration.
	Engine Engine[V]

	// OutputOp converts product cells into the reduction domain; ReduceOp
	// accumulates them across the column tiles of each row.
	OutputOp OutputOp[T, V]
	ReduceOp ReduceOp[T]

	// A is the left operand, M x K with leading dimension LDA.
	// B is the right operand, K x N with leading dimension LDB.
	A, B []V

	// C optionally holds per-row source values (stride LDC): the reduction
	// baseline already present for each row, seeded into the row-state
	// cache when a unit's chunk resumes a row mid-way. Nil skips seeding.
	C []T

	// Vector is an optional auxiliary per-column vector of length >= N. Per
	// tile it is offset by the column origin and its elements are handed to
	// OutputOp.Apply. Nil passes zero values.
	Vector []V

	// Tensor is the persistent output buffer, one element per row (stride
	// LDT). It is the only externally visible artifact of the reduction.
	Tensor []T

	LDA, LDB, LDC, LDT int

	// UnitCount is the number of parallel execution units (the grid size).
	UnitCount int

	// ProblemCount is a pass-through for multi-problem batching. The
	// execution path implemented here ignores it.
	ProblemCount int
}

// Params is the precomputed launch form of Arguments, analogous to the
// device-side parameters built once on the host.
type Params[T any, V constraints.Float] struct {
	Arguments[T, V]

	// Tile is the tile shape all units use for this launch.
	Tile TileShape

	workers *workersPool

	// Test/trace hooks. Nil in production launches.
	flushProbe func(unitIdx int, tileIdx uint32, rowOrigin int)
	stateProbe func(unitIdx int, state unitState)
}

// ParamsOption configures NewParams.
type ParamsOption func(*paramsConfig)

type paramsConfig struct {
	maxParallelism int
}

// WithMaxParallelism limits how many units (plus their helper copies) run
// concurrently. 0 disables parallelism (units run inline, sequentially),
// negative values remove the limit. Defaults to runtime.NumCPU().
func WithMaxParallelism(n int) ParamsOption {
	return func(c *paramsConfig) { c.maxParallelism = n }
}

// NewParams precomputes the launch parameters for args with the given tile
// shape.
//
// It panics on programmer misuse (nil engine/ops, non-positive tile or unit
// count) -- this is different from the feasibility check CanImplement, which
// deliberately validates nothing.
func NewParams[T any, V constraints.Float](args Arguments[T, V], tile TileShape, opts ...ParamsOption) *Params[T, V] {
	if tile.M <= 0 || tile.N <= 0 || tile.K <= 0 {
		exceptions.Panicf("kernel.NewParams: invalid tile shape %+v, all dimensions must be positive", tile)
	}
	if args.UnitCount <= 0 {
		exceptions.Panicf("kernel.NewParams: UnitCount=%d, must be positive", args.UnitCount)
	}
	if args.Engine == nil || args.OutputOp == nil || args.ReduceOp == nil {
		exceptions.Panicf("kernel.NewParams: Engine, OutputOp and ReduceOp must all be set")
	}
	config := &paramsConfig{maxParallelism: defaultMaxParallelism()}
	for _, opt := range opts {
		opt(config)
	}
	p := &Params[T, V]{
		Arguments: args,
		Tile:      tile,
		workers:   newWorkersPool(config.maxParallelism),
	}
	p.applyStrideDefaults()
	return p
}

// Update re-points the precomputed Params at new arguments, keeping the tile
// shape and the workers pool. The analog of updating device parameters
// between launches without rebuilding them.
func (p *Params[T, V]) Update(args Arguments[T, V]) {
	p.Arguments = args
	p.applyStrideDefaults()
}

func (p *Params[T, V]) applyStrideDefaults() {
	if p.LDA == 0 {
		p.LDA = p.Problem.K
	}
	if p.LDB == 0 {
		p.LDB = p.Problem.N
	}
	if p.LDC == 0 {
		p.LDC = 1
	}
	if p.LDT == 0 {
		p.LDT = 1
	}
}

// Grid returns the tile grid shape of the launch.
func (p *Params[T, V]) Grid() GridShape { return p.Problem.Grid(p.Tile) }

// CanImplement reports whether the kernel can run the given arguments.
//
// It always returns nil: no operand shape or alignment validation is
// performed, and the absence of an error does not guarantee successful
// execution. Misconfigured launches surface as a single opaque error from
// Launch instead.
func CanImplement[T any, V constraints.Float](Arguments[T, V]) error {
	return nil
}

// ExtraWorkspaceSize returns the bytes of device workspace the launch needs
// beyond its per-unit fast memory. This kernel needs none.
func ExtraWorkspaceSize[T any, V constraints.Float](Arguments[T, V]) int {
	return 0
}
