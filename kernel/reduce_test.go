// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinKeyValue(t *testing.T) {
	var op MinKeyValue[float32]

	identity := op.Identity()
	assert.Equal(t, int32(-1), identity.Key)
	assert.Equal(t, float32(math.MaxFloat32), identity.Value)

	a := KeyValue[float32]{Key: 3, Value: 1.5}
	b := KeyValue[float32]{Key: 7, Value: 0.5}
	assert.Equal(t, b, op.Reduce(a, b))
	assert.Equal(t, b, op.Reduce(b, a))
	assert.Equal(t, a, op.Reduce(identity, a))
	assert.Equal(t, a, op.Reduce(a, identity))

	// Ties resolve to the smaller key, so re-reducing is idempotent.
	c := KeyValue[float32]{Key: 9, Value: 1.5}
	assert.Equal(t, a, op.Reduce(a, c))
	assert.Equal(t, a, op.Reduce(c, a))
	assert.Equal(t, a, op.Reduce(a, a))
}

func TestMinValue(t *testing.T) {
	var op MinValue[float64]
	assert.Equal(t, math.MaxFloat64, op.Identity())
	assert.Equal(t, 2.0, op.Reduce(2.0, 3.0))
	assert.Equal(t, 2.0, op.Reduce(3.0, 2.0))
	assert.Equal(t, -1.0, op.Reduce(op.Identity(), -1.0))
}
