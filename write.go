// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// OutputFilePath returns the deterministic path of one output tensor
// file for one inference iteration:
//
//	<outputPath>[/<graphName>]/Result_<iterationIndex>/<tensorName>.raw
//
// A non-empty graphName inserts a per-graph subdirectory.
func OutputFilePath(outputPath, graphName string, iterationIndex int, tensorName string) string {
	return filepath.Join(outputDir(outputPath, graphName, iterationIndex), tensorName+".raw")
}

// NativeOutputFilePath is the OutputFilePath variant used for the
// native raw bytes when both float and native representations are
// requested; the file name carries a "_native" suffix.
func NativeOutputFilePath(outputPath, graphName string, iterationIndex int, tensorName string) string {
	return filepath.Join(outputDir(outputPath, graphName, iterationIndex), tensorName+"_native.raw")
}

func outputDir(outputPath, graphName string, iterationIndex int) string {
	if graphName != "" {
		outputPath = filepath.Join(outputPath, graphName)
	}
	return filepath.Join(outputPath, fmt.Sprintf("Result_%d", iterationIndex))
}

// WriteOutputTensors persists every output tensor under outputPath,
// one Result_<n> directory per inference iteration, starting at
// startIdx and covering numInputFilesPopulated iterations.
//
// outputBatchSize splits each output buffer into equal per-iteration
// chunks; iteration startIdx+i receives chunk i. The graphName
// subdirectory is inserted only when graphsCount > 1, keeping
// single-graph layouts flat.
//
// Depending on outputDataType, the float conversion (dequantized
// through scale/offset for fixed-point tensors), the native raw bytes,
// or both are written; the two representations of one tensor go to
// separate files.
func WriteOutputTensors(
	graphIdx uint32,
	startIdx int,
	graphName string,
	outputs []*Tensor,
	outputDataType OutputDataType,
	graphsCount uint32,
	outputPath string,
	numInputFilesPopulated int,
	outputBatchSize int,
) error {
	writeFloat := outputDataType == OutputDataTypeFloatOnly || outputDataType == OutputDataTypeFloatAndNative
	writeNative := outputDataType == OutputDataTypeNativeOnly || outputDataType == OutputDataTypeFloatAndNative
	if !writeFloat && !writeNative {
		return fmt.Errorf("graph %d: unsupported output data type %q", graphIdx, outputDataType)
	}
	if outputBatchSize < 1 {
		return fmt.Errorf("graph %d: invalid output batch size %d", graphIdx, outputBatchSize)
	}
	if numInputFilesPopulated < 0 || numInputFilesPopulated > outputBatchSize {
		return fmt.Errorf("graph %d: %d populated input files exceed output batch size %d",
			graphIdx, numInputFilesPopulated, outputBatchSize)
	}
	if graphsCount <= 1 {
		graphName = ""
	}

	for _, t := range outputs {
		if t == nil || !t.Allocated() {
			return fmt.Errorf("graph %d: output tensors are not set up", graphIdx)
		}
		if err := writeOutputTensor(t, graphName, startIdx, outputPath, numInputFilesPopulated, outputBatchSize, writeFloat, writeNative); err != nil {
			return fmt.Errorf("graph %d: failed to write output tensor %q: %w", graphIdx, t.Name(), err)
		}
	}
	return nil
}

func writeOutputTensor(
	t *Tensor,
	graphName string,
	startIdx int,
	outputPath string,
	numInputFilesPopulated int,
	outputBatchSize int,
	writeFloat, writeNative bool,
) error {
	n, err := t.info.NumElements()
	if err != nil {
		return err
	}
	// chunking on elements keeps multi-byte elements whole within a file
	if int(n)%outputBatchSize != 0 {
		return fmt.Errorf("%d elements are not divisible by output batch size %d", n, outputBatchSize)
	}
	chunkSize := len(t.data) / outputBatchSize

	var floats []float32
	if writeFloat {
		if floats, err = ConvertToFloat(t); err != nil {
			return err
		}
	}
	floatChunk := len(floats) / outputBatchSize

	for i := 0; i < numInputFilesPopulated; i++ {
		iteration := startIdx + i
		if writeFloat {
			path := OutputFilePath(outputPath, graphName, iteration, t.Name())
			if err := writeFloatFile(path, floats[i*floatChunk:(i+1)*floatChunk]); err != nil {
				return err
			}
		}
		if writeNative {
			path := OutputFilePath(outputPath, graphName, iteration, t.Name())
			if writeFloat {
				path = NativeOutputFilePath(outputPath, graphName, iteration, t.Name())
			}
			if err := writeRawFile(path, t.data[i*chunkSize:(i+1)*chunkSize]); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFloatFile(path string, floats []float32) error {
	raw := make([]byte, len(floats)*4)
	for i, f := range floats {
		put32(raw[i*4:], math.Float32bits(f))
	}
	return writeRawFile(path, raw)
}

func writeRawFile(path string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
