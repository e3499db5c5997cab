// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorio

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/nlpodyssey/tensorio/dtype"
	"github.com/nlpodyssey/tensorio/float16"
	"github.com/nlpodyssey/tensorio/graphinfo"
)

// PopulateInputTensors reads, for each input tensor of the graph, the
// next file(s) from its path list starting at fileOffset, until the
// tensor buffer is full.
//
// Each file must hold a whole number of batch slices: its size must
// evenly divide the tensor capacity. The number of files needed to fill
// one tensor is reported as PopulateResult.BatchSize. When the path
// list is exhausted mid-fill, the read wraps to index 0 if
// loopBackToStart is set (so a short dataset can replay across many
// inference iterations); otherwise the fill stops early, the remainder
// of the buffer is zeroed, and PopulateResult.NumFilesPopulated reports
// the files actually consumed.
//
// With InputDataTypeFloat the file bytes are raw IEEE 32-bit floats and
// are converted down to the tensor's native representation; with
// InputDataTypeNative they are copied verbatim.
//
// inputNameToIndex, when non-nil, maps a tensor name to its column in
// filePaths; otherwise tensors are matched to columns positionally.
// All input tensors must agree on the files consumed and batch size.
func PopulateInputTensors(
	graphIdx uint32,
	filePaths [][]string,
	fileOffset int,
	loopBackToStart bool,
	inputNameToIndex map[string]uint32,
	inputs []*Tensor,
	graph graphinfo.Graph,
	inputDataType InputDataType,
) (PopulateResult, error) {
	if err := checkInputs(graphIdx, inputs, graph); err != nil {
		return PopulateResult{}, err
	}
	if fileOffset < 0 {
		return PopulateResult{}, fmt.Errorf("graph %d: negative file offset %d", graphIdx, fileOffset)
	}

	var result PopulateResult
	for i, t := range inputs {
		listIdx := i
		if inputNameToIndex != nil {
			idx, ok := inputNameToIndex[t.Name()]
			if !ok {
				return PopulateResult{}, fmt.Errorf("graph %d: no file list for input tensor %q", graphIdx, t.Name())
			}
			listIdx = int(idx)
		}
		if listIdx >= len(filePaths) {
			return PopulateResult{}, fmt.Errorf("graph %d: input tensor %q maps to file list %d, only %d available",
				graphIdx, t.Name(), listIdx, len(filePaths))
		}

		res, err := populateInputTensor(filePaths[listIdx], fileOffset, loopBackToStart, t, inputDataType)
		if err != nil {
			return PopulateResult{}, fmt.Errorf("graph %d: failed to populate input tensor %q: %w", graphIdx, t.Name(), err)
		}
		if i == 0 {
			result = res
		} else if res != result {
			return PopulateResult{}, fmt.Errorf(
				"graph %d: input tensor %q disagrees on batching: %d files of 1/%d tensor each, expected %d of 1/%d",
				graphIdx, t.Name(), res.NumFilesPopulated, res.BatchSize, result.NumFilesPopulated, result.BatchSize)
		}
	}
	return result, nil
}

func populateInputTensor(filePaths []string, fileOffset int, loopBackToStart bool, t *Tensor, inputDataType InputDataType) (PopulateResult, error) {
	capacity, err := inputCapacity(t, inputDataType)
	if err != nil {
		return PopulateResult{}, err
	}
	if len(filePaths) == 0 {
		return PopulateResult{}, fmt.Errorf("empty file path list")
	}

	idx := fileOffset
	if idx >= len(filePaths) {
		if !loopBackToStart {
			return PopulateResult{}, fmt.Errorf("file offset %d beyond %d available files", fileOffset, len(filePaths))
		}
		idx %= len(filePaths)
	}

	fileSize, err := regularFileSize(filePaths[idx])
	if err != nil {
		return PopulateResult{}, err
	}
	if fileSize == 0 || capacity%fileSize != 0 {
		return PopulateResult{}, fmt.Errorf("file %q size %d does not evenly divide tensor capacity %d",
			filePaths[idx], fileSize, capacity)
	}
	if inputDataType == InputDataTypeFloat && fileSize%4 != 0 {
		return PopulateResult{}, fmt.Errorf("file %q size %d is not a whole number of 32-bit floats", filePaths[idx], fileSize)
	}

	batchSize := capacity / fileSize
	staging := make([]byte, capacity)

	numFilesPopulated := 0
	for i := 0; i < batchSize; i++ {
		if idx >= len(filePaths) {
			if !loopBackToStart {
				break
			}
			idx = 0
		}
		if err = readFileInto(filePaths[idx], staging[i*fileSize:(i+1)*fileSize]); err != nil {
			return PopulateResult{}, err
		}
		idx++
		numFilesPopulated++
	}

	if err = storeInputData(t, staging, inputDataType); err != nil {
		return PopulateResult{}, err
	}
	// on a partial fill the unfilled tail must hold zero bytes, not the
	// converted native encoding of 0.0 (for a quantized tensor with a
	// nonzero offset the two differ)
	if numFilesPopulated < batchSize {
		tail := t.data[numFilesPopulated*(len(t.data)/batchSize):]
		for i := range tail {
			tail[i] = 0
		}
	}
	return PopulateResult{NumFilesPopulated: numFilesPopulated, BatchSize: batchSize}, nil
}

// PopulateInputTensorsFromBuffers has the same semantics as
// PopulateInputTensors, but sources each input tensor from an
// already-resident memory buffer instead of files, avoiding file I/O
// per inference iteration. Each buffer must hold exactly one full
// tensor worth of data for the requested input data type.
func PopulateInputTensorsFromBuffers(
	graphIdx uint32,
	inputBuffers [][]byte,
	inputs []*Tensor,
	graph graphinfo.Graph,
	inputDataType InputDataType,
) error {
	if err := checkInputs(graphIdx, inputs, graph); err != nil {
		return err
	}
	if len(inputBuffers) != len(inputs) {
		return fmt.Errorf("graph %d: %d input buffers for %d input tensors", graphIdx, len(inputBuffers), len(inputs))
	}

	for i, t := range inputs {
		capacity, err := inputCapacity(t, inputDataType)
		if err != nil {
			return fmt.Errorf("graph %d: input tensor %q: %w", graphIdx, t.Name(), err)
		}
		if len(inputBuffers[i]) != capacity {
			return fmt.Errorf("graph %d: input tensor %q: buffer size %d, expected %d",
				graphIdx, t.Name(), len(inputBuffers[i]), capacity)
		}
		if err = storeInputData(t, inputBuffers[i], inputDataType); err != nil {
			return fmt.Errorf("graph %d: failed to populate input tensor %q: %w", graphIdx, t.Name(), err)
		}
	}
	return nil
}

// PopulateInputTensorsWithRandValues fills every input tensor with
// pseudo-random values respecting its data type's valid range. It is
// meant for benchmarking runs without real data.
func PopulateInputTensorsWithRandValues(graphIdx uint32, inputs []*Tensor, graph graphinfo.Graph) error {
	if err := checkInputs(graphIdx, inputs, graph); err != nil {
		return err
	}
	for _, t := range inputs {
		if err := fillRand(t.DType(), t.data); err != nil {
			return fmt.Errorf("graph %d: failed to populate input tensor %q: %w", graphIdx, t.Name(), err)
		}
	}
	return nil
}

func checkInputs(graphIdx uint32, inputs []*Tensor, graph graphinfo.Graph) error {
	if len(inputs) != len(graph.Inputs) {
		return fmt.Errorf("graph %d: %d tensors for %d declared inputs", graphIdx, len(inputs), len(graph.Inputs))
	}
	for _, t := range inputs {
		if t == nil || !t.Allocated() {
			return fmt.Errorf("graph %d: input tensors are not set up", graphIdx)
		}
	}
	return nil
}

// inputCapacity returns the tensor's full byte capacity in the
// representation selected by the input data type: the native buffer
// size, or the equivalent amount of raw 32-bit floats.
func inputCapacity(t *Tensor, inputDataType InputDataType) (int, error) {
	switch inputDataType {
	case InputDataTypeNative:
		return len(t.data), nil
	case InputDataTypeFloat:
		n, err := t.info.NumElements()
		if err != nil {
			return 0, err
		}
		return int(n) * 4, nil
	}
	return 0, fmt.Errorf("unsupported input data type %q", inputDataType)
}

// storeInputData moves one full tensor worth of source bytes into the
// tensor buffer, converting from raw floats when requested.
func storeInputData(t *Tensor, src []byte, inputDataType InputDataType) error {
	switch inputDataType {
	case InputDataTypeNative:
		copy(t.data, src)
		return nil
	case InputDataTypeFloat:
		floats, err := rawToFloat(dtype.F32, graphinfo.QuantParams{}, src)
		if err != nil {
			return err
		}
		return floatToRaw(t.info.DType, t.info.Quant, floats, t.data)
	}
	return fmt.Errorf("unsupported input data type %q", inputDataType)
}

func fillRand(dt dtype.DType, data []byte) error {
	switch dt {
	case dtype.F32:
		for i := 0; i < len(data); i += 4 {
			put32(data[i:], math.Float32bits(rand.Float32()*2-1))
		}
	case dtype.F16:
		for i := 0; i < len(data); i += 2 {
			put16(data[i:], float16.FromFloat32(rand.Float32()*2-1).Bits())
		}
	case dtype.U8, dtype.I8, dtype.QU8, dtype.QI8:
		for i := range data {
			data[i] = byte(rand.Intn(1 << 8))
		}
	case dtype.U16, dtype.I16, dtype.QU16, dtype.QI16:
		for i := 0; i < len(data); i += 2 {
			put16(data[i:], uint16(rand.Intn(1<<16)))
		}
	case dtype.U32, dtype.I32:
		for i := 0; i < len(data); i += 4 {
			put32(data[i:], rand.Uint32())
		}
	case dtype.Bool:
		for i := range data {
			data[i] = byte(rand.Intn(2))
		}
	default:
		return fmt.Errorf("invalid or unsupported DType %s", dt)
	}
	return nil
}

func regularFileSize(path string) (int, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat input file: %w", err)
	}
	if fi.IsDir() {
		return 0, fmt.Errorf("input file %q is a directory", path)
	}
	return int(fi.Size()), nil
}

func readFileInto(path string, dst []byte) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	if len(b) != len(dst) {
		return fmt.Errorf("input file %q size %d, expected %d", path, len(b), len(dst))
	}
	copy(dst, b)
	return nil
}
