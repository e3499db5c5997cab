// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tensorio marshals tensor data in and out of a compiled
// inference graph.
//
// Given the graph's tensor descriptors, it allocates and populates
// input buffers from files or raw memory, allocates output buffers,
// converts raw or quantized output data into floating point form and
// persists it, and finally releases every allocated buffer.
//
// The intended call order is:
//
//	SetupInputOutputTensors → PopulateInputTensors → (graph execution,
//	external) → WriteOutputTensors → TearDownInputAndOutputTensors
//
// The package is synchronous and performs no internal locking; the
// graph-execution driver owns the sequencing.
package tensorio

import (
	"github.com/nlpodyssey/tensorio/dtype"
	"github.com/nlpodyssey/tensorio/graphinfo"
)

// Tensor is a graph tensor descriptor together with the owned buffer
// backing it. The buffer is allocated by SetupInputOutputTensors and
// released by TearDownInputAndOutputTensors; between those two calls its
// byte size exactly equals element-count × element-size for the
// declared dimensions and data type.
type Tensor struct {
	info graphinfo.TensorInfo
	data []byte
}

// Info returns the tensor descriptor.
func (t *Tensor) Info() graphinfo.TensorInfo {
	return t.info
}

// The Name of the tensor.
func (t *Tensor) Name() string {
	return t.info.Name
}

// DType returns the data type of the tensor.
func (t *Tensor) DType() dtype.DType {
	return t.info.DType
}

// Dims returns a copy of the tensor dimensions.
func (t *Tensor) Dims() []int {
	if len(t.info.Dims) == 0 {
		return nil
	}
	dims := make([]int, len(t.info.Dims))
	copy(dims, t.info.Dims)
	return dims
}

// Quant returns the quantization parameters of the tensor. They are
// meaningful only for quantized fixed-point data types.
func (t *Tensor) Quant() graphinfo.QuantParams {
	return t.info.Quant
}

// Data returns the raw tensor buffer, or nil when the tensor is not
// allocated.
//
// The value returned is NOT a copy: any change to its content affects
// the tensor too. This is intentional, as graph execution reads and
// writes through this buffer.
func (t *Tensor) Data() []byte {
	return t.data
}

// Allocated reports whether the tensor currently owns a buffer.
func (t *Tensor) Allocated() bool {
	return t.data != nil
}

// PopulateResult reports the outcome of one input population pass.
type PopulateResult struct {
	// NumFilesPopulated is the number of input files consumed per
	// tensor during the pass.
	NumFilesPopulated int
	// BatchSize is the number of files required to fill each input
	// tensor completely (tensor capacity divided by file size).
	BatchSize int
}
