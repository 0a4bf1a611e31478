// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package gemm

import "github.com/x448/float16"

// Half-precision operands are widened to float32 before the multiply and the
// reduction run: accumulating in 16 bits loses too much precision for
// distance computations, so the conversion happens once, up front, and the
// float32 engine does the rest.

// ToFloat32 widens src into dst. Both must have the same length.
func ToFloat32(dst []float32, src []float16.Float16) {
	i := 0
	for ; i+3 < len(src); i += 4 {
		dst[i] = src[i].Float32()
		dst[i+1] = src[i+1].Float32()
		dst[i+2] = src[i+2].Float32()
		dst[i+3] = src[i+3].Float32()
	}
	for ; i < len(src); i++ {
		dst[i] = src[i].Float32()
	}
}

// FromFloat32 narrows src into dst, rounding to nearest even. Both must have
// the same length.
func FromFloat32(dst []float16.Float16, src []float32) {
	for i, v := range src {
		dst[i] = float16.Fromfloat32(v)
	}
}
