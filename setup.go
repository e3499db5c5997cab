// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorio

import (
	"fmt"

	"github.com/nlpodyssey/tensorio/graphinfo"
)

// SetupInputOutputTensors allocates one buffer per declared input and
// output tensor of the graph, sized from its dimensions and data type.
//
// It fails if any descriptor is malformed (zero rank, unsupported data
// type, overflowing size); on failure, all tensors allocated so far in
// this call are torn down before returning, to avoid leaks.
func SetupInputOutputTensors(graph graphinfo.Graph) (inputs, outputs []*Tensor, err error) {
	if err = graph.Validate(); err != nil {
		return nil, nil, fmt.Errorf("malformed graph info: %w", err)
	}

	if inputs, err = setupTensors(graph.Inputs); err != nil {
		return nil, nil, fmt.Errorf("failed to set up input tensors: %w", err)
	}
	if outputs, err = setupTensors(graph.Outputs); err != nil {
		tearDownTensors(inputs)
		return nil, nil, fmt.Errorf("failed to set up output tensors: %w", err)
	}
	return inputs, outputs, nil
}

func setupTensors(infos []graphinfo.TensorInfo) ([]*Tensor, error) {
	tensors := make([]*Tensor, len(infos))
	for i, info := range infos {
		t, err := allocateTensor(info)
		if err != nil {
			tearDownTensors(tensors[:i])
			return nil, err
		}
		tensors[i] = t
	}
	return tensors, nil
}

func allocateTensor(info graphinfo.TensorInfo) (*Tensor, error) {
	size, err := info.ByteSize()
	if err != nil {
		return nil, err
	}
	return &Tensor{
		info: info,
		data: make([]byte, size),
	}, nil
}

// TearDownInputAndOutputTensors releases every owned buffer and returns
// each tensor to the unallocated state.
//
// Callers must not use previously obtained Data slices afterwards.
// A second teardown of the same tensors is a no-op.
func TearDownInputAndOutputTensors(inputs, outputs []*Tensor) error {
	tearDownTensors(inputs)
	tearDownTensors(outputs)
	return nil
}

func tearDownTensors(tensors []*Tensor) {
	for _, t := range tensors {
		if t != nil {
			t.data = nil
		}
	}
}
