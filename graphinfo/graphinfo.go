// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package graphinfo describes the input and output tensors of one
// compiled computation graph, as declared by the inference runtime.
//
// The runtime ABI exposes this information as flat C-style structs with
// raw pointers; here it becomes plain value types, with explicit
// conversion at the boundary (see FillDims and TensorInfo.RawDims).
package graphinfo

import (
	"fmt"

	"github.com/nlpodyssey/tensorio/dtype"
)

// Graph provides the tensor descriptors of one compiled graph.
type Graph struct {
	// The Name of the graph.
	Name string
	// Inputs are the descriptors of the graph's input tensors.
	Inputs []TensorInfo
	// Outputs are the descriptors of the graph's output tensors.
	Outputs []TensorInfo
}

// TensorInfo is the descriptor of a single graph tensor.
// Endianness of the raw data it describes is assumed to be
// little-endian. Ordering is assumed to be 'C'.
type TensorInfo struct {
	// The Name of the tensor, unique within the graph.
	Name string
	// The DType of each element of the tensor.
	DType dtype.DType
	// Dims holds the tensor dimensions; the leading dimension is the
	// batch dimension.
	Dims []int
	// Quant holds the quantization parameters. It is meaningful only
	// when DType is a quantized fixed-point type.
	Quant QuantParams
}

// QuantParams are the per-tensor quantization parameters of a
// fixed-point tensor.
//
// A raw quantized value q represents the real value (q + Offset) * Scale.
type QuantParams struct {
	Scale  float32
	Offset int32
}

// Dequantize converts one raw quantized value to its real value.
func (qp QuantParams) Dequantize(q int64) float32 {
	return float32(q+int64(qp.Offset)) * qp.Scale
}

// NumElements returns the total number of elements implied by the
// tensor dimensions. An error is reported if the computation overflows.
func (ti TensorInfo) NumElements() (uint64, error) {
	n := uint64(1)
	for _, d := range ti.Dims {
		if d < 0 {
			return 0, fmt.Errorf("tensor %q: negative dimension %d", ti.Name, d)
		}
		var err error
		if n, err = checkedMul(n, uint64(d)); err != nil {
			return 0, fmt.Errorf("tensor %q: failed to compute num elements from dims: %w", ti.Name, err)
		}
	}
	return n, nil
}

// ByteSize returns the total buffer size in bytes implied by the tensor
// dimensions and data type.
func (ti TensorInfo) ByteSize() (uint64, error) {
	if err := ti.DType.Validate(); err != nil {
		return 0, fmt.Errorf("tensor %q: %w", ti.Name, err)
	}
	n, err := ti.NumElements()
	if err != nil {
		return 0, err
	}
	size, err := checkedMul(n, uint64(ti.DType.Size()))
	if err != nil {
		return 0, fmt.Errorf("tensor %q: failed to compute byte size from num elements: %w", ti.Name, err)
	}
	return size, nil
}

// BatchSize returns the leading (batch) dimension of the tensor.
func (ti TensorInfo) BatchSize() (int, error) {
	if len(ti.Dims) == 0 {
		return 0, fmt.Errorf("tensor %q: zero rank", ti.Name)
	}
	return ti.Dims[0], nil
}

// TensorsByteSize computes, for each descriptor, the total byte size
// implied by its dimensions and data type, without allocating buffers.
func TensorsByteSize(tensors []TensorInfo) ([]uint64, error) {
	sizes := make([]uint64, len(tensors))
	for i, ti := range tensors {
		var err error
		if sizes[i], err = ti.ByteSize(); err != nil {
			return nil, err
		}
	}
	return sizes, nil
}
