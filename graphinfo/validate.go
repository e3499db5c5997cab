// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graphinfo

import "fmt"

// Validate checks whether the content of a Graph is well formed,
// returning an error if a problem is encountered, otherwise nil.
//
// This validation can serve as an early isolated checking mechanism to
// identify bogus descriptors before performing further actions that
// heavily depend upon them, such as allocating and populating tensor
// buffers.
//
// The Graph is checked against the following rules:
//
//   - each input and output TensorInfo must be valid on its own
//     (see TensorInfo.Validate)
//   - tensor names must be unique across the union of inputs and outputs
func (g Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Inputs)+len(g.Outputs))
	for _, tensors := range [2][]TensorInfo{g.Inputs, g.Outputs} {
		for _, ti := range tensors {
			if err := ti.Validate(); err != nil {
				return err
			}
			if _, ok := seen[ti.Name]; ok {
				return fmt.Errorf("duplicate tensor name %q", ti.Name)
			}
			seen[ti.Name] = struct{}{}
		}
	}
	return nil
}

// Validate checks whether a single TensorInfo is well formed.
//
// The descriptor is checked against the following rules:
//
//   - the name must not be empty
//   - the data type must be valid
//   - the rank must be at least 1, and no dimension may be < 1
//   - the byte size computation must not overflow
//   - a quantized data type must carry a non-zero quantization scale
func (ti TensorInfo) Validate() error {
	if ti.Name == "" {
		return fmt.Errorf("tensor with empty name")
	}
	if err := ti.DType.Validate(); err != nil {
		return fmt.Errorf("tensor %q: %w", ti.Name, err)
	}
	if len(ti.Dims) == 0 {
		return fmt.Errorf("tensor %q: zero rank", ti.Name)
	}
	for i, d := range ti.Dims {
		if d < 1 {
			return fmt.Errorf("tensor %q: invalid dimension %d at index %d", ti.Name, d, i)
		}
	}
	if _, err := ti.ByteSize(); err != nil {
		return err
	}
	if ti.DType.IsQuantized() && ti.Quant.Scale == 0 {
		return fmt.Errorf("tensor %q: quantized data type %s with zero scale", ti.Name, ti.DType)
	}
	return nil
}
