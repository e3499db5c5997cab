// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlpodyssey/tensorio/dtype"
	"github.com/nlpodyssey/tensorio/graphinfo"
)

// writeTempFile dumps raw bytes to a fresh file and returns its path.
func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func floatBytes(values ...float32) []byte {
	raw := make([]byte, len(values)*4)
	for i, f := range values {
		put32(raw[i*4:], math.Float32bits(f))
	}
	return raw
}

func singleInputGraph(info graphinfo.TensorInfo) graphinfo.Graph {
	return graphinfo.Graph{Name: "g", Inputs: []graphinfo.TensorInfo{info}}
}

func TestPopulateInputTensors_NativeVerbatim(t *testing.T) {
	graph := singleInputGraph(graphinfo.TensorInfo{Name: "in", DType: dtype.U8, Dims: []int{2, 2}})
	inputs, _, err := SetupInputOutputTensors(graph)
	require.NoError(t, err)

	content := []byte{0xde, 0xad, 0xbe, 0xef}
	path := writeTempFile(t, "in.raw", content)

	res, err := PopulateInputTensors(0, [][]string{{path}}, 0, false, nil, inputs, graph, InputDataTypeNative)
	require.NoError(t, err)
	assert.Equal(t, PopulateResult{NumFilesPopulated: 1, BatchSize: 1}, res)
	assert.Equal(t, content, inputs[0].Data())
}

func TestPopulateInputTensors_BatchAcrossFiles(t *testing.T) {
	// batch dimension 4, one sample per file
	graph := singleInputGraph(graphinfo.TensorInfo{Name: "in", DType: dtype.U8, Dims: []int{4, 2}})
	inputs, _, err := SetupInputOutputTensors(graph)
	require.NoError(t, err)

	dir := t.TempDir()
	paths := make([]string, 4)
	for i := range paths {
		paths[i] = filepath.Join(dir, "sample"+string(rune('0'+i))+".raw")
		require.NoError(t, os.WriteFile(paths[i], []byte{byte(i), byte(i)}, 0o644))
	}

	res, err := PopulateInputTensors(0, [][]string{paths}, 0, false, nil, inputs, graph, InputDataTypeNative)
	require.NoError(t, err)
	assert.Equal(t, PopulateResult{NumFilesPopulated: 4, BatchSize: 4}, res)
	assert.Equal(t, []byte{0, 0, 1, 1, 2, 2, 3, 3}, inputs[0].Data())
}

func TestPopulateInputTensors_LoopBackToStart(t *testing.T) {
	// a single-element file list feeding a batch of 4 never fails
	// and always reuses the same file
	graph := singleInputGraph(graphinfo.TensorInfo{Name: "in", DType: dtype.U8, Dims: []int{4}})
	inputs, _, err := SetupInputOutputTensors(graph)
	require.NoError(t, err)

	path := writeTempFile(t, "only.raw", []byte{7})

	res, err := PopulateInputTensors(0, [][]string{{path}}, 0, true, nil, inputs, graph, InputDataTypeNative)
	require.NoError(t, err)
	assert.Equal(t, PopulateResult{NumFilesPopulated: 4, BatchSize: 4}, res)
	assert.Equal(t, []byte{7, 7, 7, 7}, inputs[0].Data())

	// offset beyond the list wraps too
	res, err = PopulateInputTensors(0, [][]string{{path}}, 5, true, nil, inputs, graph, InputDataTypeNative)
	require.NoError(t, err)
	assert.Equal(t, 4, res.NumFilesPopulated)
}

func TestPopulateInputTensors_ExhaustedWithoutLoop(t *testing.T) {
	graph := singleInputGraph(graphinfo.TensorInfo{Name: "in", DType: dtype.U8, Dims: []int{4}})
	inputs, _, err := SetupInputOutputTensors(graph)
	require.NoError(t, err)

	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.raw"), filepath.Join(dir, "b.raw")}
	require.NoError(t, os.WriteFile(paths[0], []byte{7}, 0o644))
	require.NoError(t, os.WriteFile(paths[1], []byte{9}, 0o644))

	res, err := PopulateInputTensors(0, [][]string{paths}, 0, false, nil, inputs, graph, InputDataTypeNative)
	require.NoError(t, err)
	assert.Equal(t, PopulateResult{NumFilesPopulated: 2, BatchSize: 4}, res)
	// the unfilled remainder of the batch is zeroed
	assert.Equal(t, []byte{7, 9, 0, 0}, inputs[0].Data())
}

func TestPopulateInputTensors_ExhaustedFloatZeroesTail(t *testing.T) {
	// quantize(0.0) for this tensor is -5, clamped to -5 as int8; the
	// unfilled batch remainder must still hold zero bytes
	graph := singleInputGraph(graphinfo.TensorInfo{
		Name:  "in",
		DType: dtype.QI8,
		Dims:  []int{2},
		Quant: graphinfo.QuantParams{Scale: 1, Offset: 5},
	})
	inputs, _, err := SetupInputOutputTensors(graph)
	require.NoError(t, err)

	path := writeTempFile(t, "in.raw", floatBytes(7))

	res, err := PopulateInputTensors(0, [][]string{{path}}, 0, false, nil, inputs, graph, InputDataTypeFloat)
	require.NoError(t, err)
	assert.Equal(t, PopulateResult{NumFilesPopulated: 1, BatchSize: 2}, res)
	assert.Equal(t, []byte{2, 0}, inputs[0].Data())
}

func TestPopulateInputTensors_FloatConvertsToNative(t *testing.T) {
	graph := singleInputGraph(graphinfo.TensorInfo{
		Name:  "in",
		DType: dtype.QU8,
		Dims:  []int{4},
		Quant: graphinfo.QuantParams{Scale: 2, Offset: 1},
	})
	inputs, _, err := SetupInputOutputTensors(graph)
	require.NoError(t, err)

	path := writeTempFile(t, "in.raw", floatBytes(2, 4, 6, 8))

	res, err := PopulateInputTensors(0, [][]string{{path}}, 0, false, nil, inputs, graph, InputDataTypeFloat)
	require.NoError(t, err)
	assert.Equal(t, PopulateResult{NumFilesPopulated: 1, BatchSize: 1}, res)
	assert.Equal(t, []byte{0, 1, 2, 3}, inputs[0].Data())
}

func TestPopulateInputTensors_NameToIndex(t *testing.T) {
	graph := graphinfo.Graph{
		Name: "g",
		Inputs: []graphinfo.TensorInfo{
			{Name: "a", DType: dtype.U8, Dims: []int{2}},
			{Name: "b", DType: dtype.U8, Dims: []int{2}},
		},
	}
	inputs, _, err := SetupInputOutputTensors(graph)
	require.NoError(t, err)

	pathA := writeTempFile(t, "a.raw", []byte{1, 2})
	pathB := writeTempFile(t, "b.raw", []byte{3, 4})

	// columns are swapped relative to tensor order; the map resolves them
	nameToIndex := map[string]uint32{"a": 1, "b": 0}
	_, err = PopulateInputTensors(0, [][]string{{pathB}, {pathA}}, 0, false, nameToIndex, inputs, graph, InputDataTypeNative)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, inputs[0].Data())
	assert.Equal(t, []byte{3, 4}, inputs[1].Data())

	t.Run("missing name", func(t *testing.T) {
		_, err := PopulateInputTensors(0, [][]string{{pathA}, {pathB}}, 0, false, map[string]uint32{"a": 0}, inputs, graph, InputDataTypeNative)
		assert.Error(t, err)
	})
}

func TestPopulateInputTensors_Failures(t *testing.T) {
	graph := singleInputGraph(graphinfo.TensorInfo{Name: "in", DType: dtype.U8, Dims: []int{4}})
	inputs, _, err := SetupInputOutputTensors(graph)
	require.NoError(t, err)

	goodPath := writeTempFile(t, "good.raw", []byte{1, 2, 3, 4})

	t.Run("missing file", func(t *testing.T) {
		_, err := PopulateInputTensors(0, [][]string{{"/no/such/file"}}, 0, false, nil, inputs, graph, InputDataTypeNative)
		assert.Error(t, err)
	})

	t.Run("size does not divide capacity", func(t *testing.T) {
		path := writeTempFile(t, "bad.raw", []byte{1, 2, 3})
		_, err := PopulateInputTensors(0, [][]string{{path}}, 0, false, nil, inputs, graph, InputDataTypeNative)
		assert.Error(t, err)
	})

	t.Run("offset beyond list without loop", func(t *testing.T) {
		_, err := PopulateInputTensors(0, [][]string{{goodPath}}, 1, false, nil, inputs, graph, InputDataTypeNative)
		assert.Error(t, err)
	})

	t.Run("negative offset", func(t *testing.T) {
		_, err := PopulateInputTensors(0, [][]string{{goodPath}}, -1, false, nil, inputs, graph, InputDataTypeNative)
		assert.Error(t, err)
	})

	t.Run("empty file list", func(t *testing.T) {
		_, err := PopulateInputTensors(0, [][]string{{}}, 0, false, nil, inputs, graph, InputDataTypeNative)
		assert.Error(t, err)
	})

	t.Run("invalid input data type", func(t *testing.T) {
		_, err := PopulateInputTensors(0, [][]string{{goodPath}}, 0, false, nil, inputs, graph, InputDataTypeInvalid)
		assert.Error(t, err)
	})

	t.Run("tensors not set up", func(t *testing.T) {
		torn := []*Tensor{{info: graph.Inputs[0]}}
		_, err := PopulateInputTensors(0, [][]string{{goodPath}}, 0, false, nil, torn, graph, InputDataTypeNative)
		assert.Error(t, err)
	})
}

func TestPopulateInputTensorsFromBuffers(t *testing.T) {
	graph := graphinfo.Graph{
		Name: "g",
		Inputs: []graphinfo.TensorInfo{
			{Name: "a", DType: dtype.U8, Dims: []int{4}},
			{Name: "b", DType: dtype.I16, Dims: []int{2}},
		},
	}
	inputs, _, err := SetupInputOutputTensors(graph)
	require.NoError(t, err)

	t.Run("native", func(t *testing.T) {
		buffers := [][]byte{
			{1, 2, 3, 4},
			{0xfe, 0xff, 0x01, 0x00}, // int16 -2, 1
		}
		require.NoError(t, PopulateInputTensorsFromBuffers(0, buffers, inputs, graph, InputDataTypeNative))
		assert.Equal(t, []byte{1, 2, 3, 4}, inputs[0].Data())
		assert.Equal(t, []byte{0xfe, 0xff, 0x01, 0x00}, inputs[1].Data())
	})

	t.Run("float", func(t *testing.T) {
		buffers := [][]byte{
			floatBytes(1, 2, 3, 4),
			floatBytes(-2, 1),
		}
		require.NoError(t, PopulateInputTensorsFromBuffers(0, buffers, inputs, graph, InputDataTypeFloat))
		assert.Equal(t, []byte{1, 2, 3, 4}, inputs[0].Data())
		assert.Equal(t, []byte{0xfe, 0xff, 0x01, 0x00}, inputs[1].Data())
	})

	t.Run("wrong buffer size", func(t *testing.T) {
		buffers := [][]byte{{1, 2}, {0, 0, 0, 0}}
		assert.Error(t, PopulateInputTensorsFromBuffers(0, buffers, inputs, graph, InputDataTypeNative))
	})

	t.Run("wrong buffer count", func(t *testing.T) {
		assert.Error(t, PopulateInputTensorsFromBuffers(0, [][]byte{{1, 2, 3, 4}}, inputs, graph, InputDataTypeNative))
	})
}

func TestPopulateInputTensorsWithRandValues(t *testing.T) {
	graph := graphinfo.Graph{
		Name: "g",
		Inputs: []graphinfo.TensorInfo{
			{Name: "f", DType: dtype.F32, Dims: []int{16}},
			{Name: "b", DType: dtype.Bool, Dims: []int{16}},
			{Name: "q", DType: dtype.QU8, Dims: []int{16}, Quant: graphinfo.QuantParams{Scale: 1}},
		},
	}
	inputs, _, err := SetupInputOutputTensors(graph)
	require.NoError(t, err)
	require.NoError(t, PopulateInputTensorsWithRandValues(0, inputs, graph))

	floats, err := ConvertToFloat(inputs[0])
	require.NoError(t, err)
	for _, f := range floats {
		assert.GreaterOrEqual(t, f, float32(-1))
		assert.LessOrEqual(t, f, float32(1))
	}

	for _, b := range inputs[1].Data() {
		assert.LessOrEqual(t, b, byte(1))
	}
}
