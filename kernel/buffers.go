// Copyright 2025-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import "sync"

// scratchPools maps a byte length to a *sync.Pool of []byte of that length.
// Arena overlap regions are recycled through it across launches, so repeated
// launches with the same tile shape do not re-allocate their fast memory.
var scratchPools sync.Map

func getScratchPool(length int) *sync.Pool {
	poolI, ok := scratchPools.Load(length)
	if !ok {
		poolI, _ = scratchPools.LoadOrStore(length, &sync.Pool{
			New: func() any { return make([]byte, length) },
		})
	}
	return poolI.(*sync.Pool)
}

// getScratch returns a recycled (or fresh) byte buffer of the given length.
// Contents are undefined.
func getScratch(length int) []byte {
	if length == 0 {
		return nil
	}
	return getScratchPool(length).Get().([]byte)
}

// putScratch returns a buffer to its pool. The caller must drop all
// references to it.
func putScratch(buf []byte) {
	if buf == nil {
		return
	}
	getScratchPool(len(buf)).Put(buf)
}
