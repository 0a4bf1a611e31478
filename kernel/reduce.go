// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"math"

	"golang.org/x/exp/constraints"
)

// ReduceOp is the streaming combine operator applied across the column tiles
// of one output row.
//
// Reduce is only required to be associative/commutative across the fixed
// visitation order a single unit uses -- tiles of one row, in ascending
// column order. No cross-unit merge is ever performed with it.
type ReduceOp[T any] interface {
	// Identity is the neutral starting value of the accumulator, e.g. a
	// maximal sentinel for a minimum reduction.
	Identity() T

	// Reduce combines the running accumulator a with a new contribution b.
	Reduce(a, b T) T
}

// KeyValue is the reduction element used by nearest-neighbor style
// reductions: a value (e.g. a squared distance) together with the column
// index it came from.
type KeyValue[V constraints.Float] struct {
	// Key is the output column the value was produced at, or -1 for the
	// identity element.
	Key int32

	// Value being reduced.
	Value V
}

// MinKeyValue reduces KeyValue pairs to the minimum by value; ties resolve
// to the smaller key, so the result is independent of how many times a
// contribution is re-reduced into the accumulator.
type MinKeyValue[V constraints.Float] struct{}

// Identity returns {Key: -1, Value: maximum representable value}.
//
// The maximal sentinel (and not +Inf) is used so that a flushed identity is
// recognizable in the output buffer and round-trips through the row-state
// seeding path unchanged.
func (MinKeyValue[V]) Identity() KeyValue[V] {
	return KeyValue[V]{Key: -1, Value: maxScalar[V]()}
}

// Reduce implements ReduceOp.
func (MinKeyValue[V]) Reduce(a, b KeyValue[V]) KeyValue[V] {
	if b.Value < a.Value || (b.Value == a.Value && uint32(b.Key) < uint32(a.Key)) {
		return b
	}
	return a
}

// MinValue reduces plain scalars to their minimum. It is the ReduceOp to use
// when only the reduced value matters, and not which column produced it.
type MinValue[V constraints.Float] struct{}

// Identity returns the maximum representable value of V.
func (MinValue[V]) Identity() V { return maxScalar[V]() }

// Reduce implements ReduceOp.
func (MinValue[V]) Reduce(a, b V) V {
	if b < a {
		return b
	}
	return a
}

// maxScalar returns the maximum representable value of the float type V.
func maxScalar[V constraints.Float]() V {
	var v V
	if _, ok := any(v).(float32); ok {
		return V(math.MaxFloat32)
	}
	max64 := float64(math.MaxFloat64)
	return V(max64)
}

// OutputOp converts one cell of the multiply stage's product tile into the
// reduction domain T, before it is folded into the row accumulator.
//
// row and col are global output coordinates. vecVal is the corresponding
// element of the auxiliary launch vector (see Arguments.Vector), already
// offset by the tile's column origin; it is zero when no vector was
// supplied.
type OutputOp[T any, V constraints.Float] interface {
	Apply(product V, row, col int, vecVal V) T
}
