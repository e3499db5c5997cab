// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dtype

import (
	"fmt"
)

// DType represents the element data type of a tensor, as enumerated
// by the inference runtime ABI.
type DType uint8

const (
	// F32 represents a 32-bit floating point data type.
	F32 DType = iota + 1
	// F16 represents a 16-bit half-precision floating point data type.
	F16
	// U8 represents an 8-bit unsigned integer data type.
	U8
	// I8 represents an 8-bit signed integer data type.
	I8
	// U16 represents a 16-bit unsigned integer data type.
	U16
	// I16 represents a 16-bit signed integer data type.
	I16
	// U32 represents a 32-bit unsigned integer data type.
	U32
	// I32 represents a 32-bit signed integer data type.
	I32
	// QU8 represents an 8-bit unsigned quantized fixed-point data type.
	// Scale and offset are carried by the tensor descriptor.
	QU8
	// QI8 represents an 8-bit signed quantized fixed-point data type.
	QI8
	// QU16 represents a 16-bit unsigned quantized fixed-point data type.
	QU16
	// QI16 represents a 16-bit signed quantized fixed-point data type.
	QI16
	// Bool represents an 8-bit boolean data type.
	Bool
)

var (
	dTypeToString = [...]string{
		F32:  "FLOAT_32",
		F16:  "FLOAT_16",
		U8:   "UINT_8",
		I8:   "INT_8",
		U16:  "UINT_16",
		I16:  "INT_16",
		U32:  "UINT_32",
		I32:  "INT_32",
		QU8:  "UFIXED_8",
		QI8:  "SFIXED_8",
		QU16: "UFIXED_16",
		QI16: "SFIXED_16",
		Bool: "BOOL_8",
	}
	dTypeToSize = [...]int{
		F32:  4,
		F16:  2,
		U8:   1,
		I8:   1,
		U16:  2,
		I16:  2,
		U32:  4,
		I32:  4,
		QU8:  1,
		QI8:  1,
		QU16: 2,
		QI16: 2,
		Bool: 1,
	}
)

// Validate returns an error if the DType is not valid, otherwise nil.
func (dt DType) Validate() error {
	if dt == 0 || dt > Bool {
		return fmt.Errorf("invalid DType(%d)", dt)
	}
	return nil
}

// String returns a string representation of a DType.
func (dt DType) String() string {
	if err := dt.Validate(); err != nil {
		return err.Error()
	}
	return dTypeToString[dt]
}

// Size returns the size in bytes of one element of this data type,
// or -1 if the DType value is invalid.
func (dt DType) Size() int {
	if err := dt.Validate(); err != nil {
		return -1
	}
	return dTypeToSize[dt]
}

// IsQuantized reports whether the data type is a quantized fixed-point
// type, whose raw values must be interpreted through per-tensor
// scale/offset parameters.
func (dt DType) IsQuantized() bool {
	switch dt {
	case QU8, QI8, QU16, QI16:
		return true
	}
	return false
}

// IsFloat reports whether the data type is a floating point type.
func (dt DType) IsFloat() bool {
	return dt == F32 || dt == F16
}

// IsSigned reports whether raw values of the data type are signed.
func (dt DType) IsSigned() bool {
	switch dt {
	case F32, F16, I8, I16, I32, QI8, QI16:
		return true
	}
	return false
}

// Parse maps a string token to the corresponding DType,
// returning an error for unrecognized input.
func Parse(s string) (DType, error) {
	var dt DType
	if err := dt.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return dt, nil
}

// MarshalText satisfies encoding.TextMarshaler interface.
func (dt DType) MarshalText() ([]byte, error) {
	if err := dt.Validate(); err != nil {
		return nil, err
	}
	return []byte(dTypeToString[dt]), nil
}

// UnmarshalText satisfies encoding.TextUnmarshaler interface.
func (dt *DType) UnmarshalText(text []byte) error {
	s := string(text)
	switch s {
	case "FLOAT_32":
		*dt = F32
	case "FLOAT_16":
		*dt = F16
	case "UINT_8":
		*dt = U8
	case "INT_8":
		*dt = I8
	case "UINT_16":
		*dt = U16
	case "INT_16":
		*dt = I16
	case "UINT_32":
		*dt = U32
	case "INT_32":
		*dt = I32
	case "UFIXED_8":
		*dt = QU8
	case "SFIXED_8":
		*dt = QI8
	case "UFIXED_16":
		*dt = QU16
	case "SFIXED_16":
		*dt = QI16
	case "BOOL_8":
		*dt = Bool
	default:
		return fmt.Errorf("failed to text-unmarshal DType from value %q", s)
	}
	return nil
}
