// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graphinfo

import "fmt"

// FillDims converts a raw dimension array of the given rank, as exposed
// by the runtime ABI, into the []int representation used throughout
// this module.
//
// It fails on nil input, or when rank exceeds the number of available
// dimensions.
func FillDims(inDimensions []uint32, rank uint32) ([]int, error) {
	if inDimensions == nil {
		return nil, fmt.Errorf("nil input dimensions")
	}
	if int(rank) > len(inDimensions) {
		return nil, fmt.Errorf("rank %d exceeds %d available dimensions", rank, len(inDimensions))
	}
	dims := make([]int, rank)
	for i := range dims {
		dims[i] = int(inDimensions[i])
	}
	return dims, nil
}

// RawDims converts the tensor dimensions back to the raw uint32 array
// form of the runtime ABI. It is the inverse of FillDims.
func (ti TensorInfo) RawDims() []uint32 {
	if len(ti.Dims) == 0 {
		return nil
	}
	raw := make([]uint32, len(ti.Dims))
	for i, d := range ti.Dims {
		raw[i] = uint32(d)
	}
	return raw
}
