// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorio

// InputDataType selects how input file (or buffer) content is
// interpreted when populating input tensors.
type InputDataType uint8

const (
	// InputDataTypeInvalid marks an unrecognized input data type token.
	InputDataTypeInvalid InputDataType = iota
	// InputDataTypeFloat means the source holds raw IEEE 32-bit floats
	// that must be converted down to the tensor's native representation.
	InputDataTypeFloat
	// InputDataTypeNative means the source already holds the tensor's
	// native representation and is copied verbatim.
	InputDataTypeNative
)

// OutputDataType selects which representations of an output tensor are
// written to disk.
type OutputDataType uint8

const (
	// OutputDataTypeInvalid marks an unrecognized output data type token.
	OutputDataTypeInvalid OutputDataType = iota
	// OutputDataTypeFloatOnly writes only the float conversion.
	OutputDataTypeFloatOnly
	// OutputDataTypeNativeOnly writes only the native raw bytes.
	OutputDataTypeNativeOnly
	// OutputDataTypeFloatAndNative writes both representations as
	// separate files.
	OutputDataTypeFloatAndNative
)

// ParseInputDataType maps a case-sensitive string token to the
// corresponding InputDataType, returning InputDataTypeInvalid for
// unrecognized input.
func ParseInputDataType(s string) InputDataType {
	switch s {
	case "float":
		return InputDataTypeFloat
	case "native":
		return InputDataTypeNative
	}
	return InputDataTypeInvalid
}

// ParseOutputDataType maps a case-sensitive string token to the
// corresponding OutputDataType, returning OutputDataTypeInvalid for
// unrecognized input.
func ParseOutputDataType(s string) OutputDataType {
	switch s {
	case "float_only":
		return OutputDataTypeFloatOnly
	case "native_only":
		return OutputDataTypeNativeOnly
	case "float_and_native":
		return OutputDataTypeFloatAndNative
	}
	return OutputDataTypeInvalid
}

// String returns the string token of an InputDataType.
func (dt InputDataType) String() string {
	switch dt {
	case InputDataTypeFloat:
		return "float"
	case InputDataTypeNative:
		return "native"
	}
	return "invalid"
}

// String returns the string token of an OutputDataType.
func (dt OutputDataType) String() string {
	switch dt {
	case OutputDataTypeFloatOnly:
		return "float_only"
	case OutputDataTypeNativeOnly:
		return "native_only"
	case OutputDataTypeFloatAndNative:
		return "float_and_native"
	}
	return "invalid"
}
