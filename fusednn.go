// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package fusednn computes nearest neighbors by fusing a tiled matrix
// multiply with a row-wise streaming minimum reduction: for each query row
// the squared L2 distance to every candidate is reduced to its minimum (and
// the candidate's index) inside the same kernel pass that computes the
// products, so the full M x N distance matrix is never materialized.
//
// The heavy lifting lives in the kernel package (tile scheduling, row-state
// cache, fused epilogue) and the gemm package (product-tile engines); this
// package wires them together behind a convenience API:
//
//	nearest, err := fusednn.MinL2(x, y, m, n, k)
//	// nearest[i].Key is the row of y closest to row i of x,
//	// nearest[i].Value the squared distance.
package fusednn

import (
	"os"
	"strconv"

	"github.com/gomlx/exceptions"
	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
	"k8s.io/klog/v2"

	"github.com/gomlx/fusednn/gemm"
	"github.com/gomlx/fusednn/kernel"
)

// MaxParallelismEnv overrides the default worker parallelism
// (runtime.NumCPU) when set to an integer. 0 disables parallelism, negative
// values remove the limit.
const MaxParallelismEnv = "FUSEDNN_MAX_PARALLELISM"

// Option configures MinL2 and MinL2Float16.
type Option func(*config)

type config struct {
	tile           kernel.TileShape
	maxParallelism int
	units          int
}

// WithTileShape overrides the default 64x64x64 tile. Larger tiles amortize
// packing, smaller tiles fit more units on small problems.
func WithTileShape(m, n, k int) Option {
	return func(c *config) { c.tile = kernel.TileShape{M: m, N: n, K: k} }
}

// WithMaxParallelism overrides the workers-pool limit (and the
// FUSEDNN_MAX_PARALLELISM environment variable) for this call.
func WithMaxParallelism(n int) Option {
	return func(c *config) { c.maxParallelism = n }
}

// WithUnits overrides the number of execution units. The default is one
// unit per tile row, which guarantees no unit's chunk ever splits a row.
// Callers overriding it own that constraint: if a row's tiles are split
// across two units, each flushes its own partial minimum and the later
// write wins.
func WithUnits(n int) Option {
	return func(c *config) { c.units = n }
}

func newConfig(opts []Option) *config {
	c := &config{
		tile:           kernel.TileShape{M: 64, N: 64, K: 64},
		maxParallelism: envMaxParallelism(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func envMaxParallelism() int {
	value := os.Getenv(MaxParallelismEnv)
	if value == "" {
		return defaultParallelismSentinel
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		klog.Warningf("fusednn: invalid %s=%q, ignoring: %v", MaxParallelismEnv, value, err)
		return defaultParallelismSentinel
	}
	return n
}

// defaultParallelismSentinel tells newParamsOptions to leave the kernel's
// own default (runtime.NumCPU) in place.
const defaultParallelismSentinel = int(^uint(0) >> 1) // MaxInt

func (c *config) paramsOptions() []kernel.ParamsOption {
	if c.maxParallelism == defaultParallelismSentinel {
		return nil
	}
	return []kernel.ParamsOption{kernel.WithMaxParallelism(c.maxParallelism)}
}

// minL2Op maps a product cell to (squared distance, candidate index):
// ||x_i - y_j||^2 = ||x_i||^2 + ||y_j||^2 - 2 <x_i, y_j>. The row norms are
// op state; the candidate norms arrive per tile as the launch vector.
type minL2Op[V constraints.Float] struct {
	rowNorms []V
}

func (op minL2Op[V]) Apply(product V, row, col int, vecVal V) kernel.KeyValue[V] {
	return kernel.KeyValue[V]{Key: int32(col), Value: op.rowNorms[row] + vecVal - 2*product}
}

// MinL2 returns, for each of the m rows of x, the index of the row of y
// nearest in squared L2 distance, together with that distance.
//
// x is m x k and y is n x k, both flat row-major. Distances are computed via
// the norm expansion, so tiny negative values can appear where the true
// distance is zero; they are not clamped.
func MinL2[V constraints.Float](x, y []V, m, n, k int, opts ...Option) ([]kernel.KeyValue[V], error) {
	if len(x) < m*k || len(y) < n*k {
		exceptions.Panicf("fusednn.MinL2: operands too short: len(x)=%d < m*k=%d or len(y)=%d < n*k=%d",
			len(x), m*k, len(y), n*k)
	}
	var reduceOp kernel.MinKeyValue[V]
	out := make([]kernel.KeyValue[V], m)
	if m == 0 || n == 0 {
		for i := range out {
			out[i] = reduceOp.Identity()
		}
		return out, nil
	}
	c := newConfig(opts)

	xNorms := rowNorms(x, m, k)
	yNorms := rowNorms(y, n, k)
	yT := transpose(y, n, k)

	problem := kernel.Problem{M: m, N: n, K: k}
	units := c.units
	if units <= 0 {
		units = problem.Grid(c.tile).Rows
	}
	args := kernel.Arguments[kernel.KeyValue[V], V]{
		Problem:   problem,
		Engine:    gemm.New[V](),
		OutputOp:  minL2Op[V]{rowNorms: xNorms},
		ReduceOp:  reduceOp,
		A:         x,
		B:         yT,
		Vector:    yNorms,
		Tensor:    out,
		UnitCount: units,
	}
	params := kernel.NewParams(args, c.tile, c.paramsOptions()...)
	if err := kernel.Launch(params); err != nil {
		return nil, err
	}
	return out, nil
}

// MinL2Float16 is MinL2 for half-precision operands: they are widened once
// to float32 and both the products and the reduction run in float32.
func MinL2Float16(x, y []float16.Float16, m, n, k int, opts ...Option) ([]kernel.KeyValue[float32], error) {
	x32 := make([]float32, len(x))
	y32 := make([]float32, len(y))
	gemm.ToFloat32(x32, x)
	gemm.ToFloat32(y32, y)
	return MinL2(x32, y32, m, n, k, opts...)
}

// rowNorms returns the squared L2 norm of each row of the rows x k matrix.
func rowNorms[V constraints.Float](data []V, rows, k int) []V {
	norms := make([]V, rows)
	for i := range rows {
		row := data[i*k : i*k+k]
		var sum V
		for _, v := range row {
			sum += v * v
		}
		norms[i] = sum
	}
	return norms
}

// transpose returns the k x n transpose of the n x k matrix data.
func transpose[V constraints.Float](data []V, n, k int) []V {
	out := make([]V, k*n)
	for i := range n {
		row := data[i*k : i*k+k]
		for j, v := range row {
			out[j*n+i] = v
		}
	}
	return out
}
