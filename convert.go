// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensorio

import (
	"fmt"
	"math"

	"github.com/nlpodyssey/tensorio/dtype"
	"github.com/nlpodyssey/tensorio/float16"
	"github.com/nlpodyssey/tensorio/graphinfo"
)

// ConvertToFloat converts the tensor's raw buffer into a newly
// allocated floating-point slice. Quantized fixed-point values are
// dequantized through the tensor's scale/offset parameters; integer and
// boolean values are widened.
//
// The caller owns the result; the tensor buffer is left untouched.
func ConvertToFloat(t *Tensor) ([]float32, error) {
	if !t.Allocated() {
		return nil, fmt.Errorf("tensor %q is not allocated", t.Name())
	}
	return rawToFloat(t.info.DType, t.info.Quant, t.data)
}

// rawToFloat interprets raw little-endian tensor bytes as dt elements
// and converts each of them to float32.
func rawToFloat(dt dtype.DType, qp graphinfo.QuantParams, raw []byte) ([]float32, error) {
	es := dt.Size()
	if es <= 0 {
		return nil, fmt.Errorf("invalid or unsupported DType(%d)", uint8(dt))
	}
	if len(raw)%es != 0 {
		return nil, fmt.Errorf("raw data length %d is not a multiple of element size %d", len(raw), es)
	}

	out := make([]float32, len(raw)/es)
	switch dt {
	case dtype.F32:
		for i := range out {
			out[i] = math.Float32frombits(le32(raw[i*4:]))
		}
	case dtype.F16:
		for i := range out {
			out[i] = float16.F16(le16(raw[i*2:])).Float32()
		}
	case dtype.U8:
		for i := range out {
			out[i] = float32(raw[i])
		}
	case dtype.I8:
		for i := range out {
			out[i] = float32(int8(raw[i]))
		}
	case dtype.U16:
		for i := range out {
			out[i] = float32(le16(raw[i*2:]))
		}
	case dtype.I16:
		for i := range out {
			out[i] = float32(int16(le16(raw[i*2:])))
		}
	case dtype.U32:
		for i := range out {
			out[i] = float32(le32(raw[i*4:]))
		}
	case dtype.I32:
		for i := range out {
			out[i] = float32(int32(le32(raw[i*4:])))
		}
	case dtype.QU8:
		for i := range out {
			out[i] = qp.Dequantize(int64(raw[i]))
		}
	case dtype.QI8:
		for i := range out {
			out[i] = qp.Dequantize(int64(int8(raw[i])))
		}
	case dtype.QU16:
		for i := range out {
			out[i] = qp.Dequantize(int64(le16(raw[i*2:])))
		}
	case dtype.QI16:
		for i := range out {
			out[i] = qp.Dequantize(int64(int16(le16(raw[i*2:]))))
		}
	case dtype.Bool:
		for i := range out {
			if raw[i] != 0 {
				out[i] = 1
			}
		}
	default:
		return nil, fmt.Errorf("invalid or unsupported DType %s", dt)
	}
	return out, nil
}

// floatToRaw converts float32 values down to the native little-endian
// representation of dt, writing the result to raw. Quantized
// fixed-point values are rounded and clamped to the type range; integer
// values are truncated toward zero and clamped.
func floatToRaw(dt dtype.DType, qp graphinfo.QuantParams, floats []float32, raw []byte) error {
	es := dt.Size()
	if es <= 0 {
		return fmt.Errorf("invalid or unsupported DType(%d)", uint8(dt))
	}
	if len(raw) != len(floats)*es {
		return fmt.Errorf("raw buffer length %d does not match %d elements of size %d", len(raw), len(floats), es)
	}

	switch dt {
	case dtype.F32:
		for i, f := range floats {
			put32(raw[i*4:], math.Float32bits(f))
		}
	case dtype.F16:
		for i, f := range floats {
			put16(raw[i*2:], float16.FromFloat32(f).Bits())
		}
	case dtype.U8:
		for i, f := range floats {
			raw[i] = byte(clampInt(f, 0, math.MaxUint8))
		}
	case dtype.I8:
		for i, f := range floats {
			raw[i] = byte(int8(clampInt(f, math.MinInt8, math.MaxInt8)))
		}
	case dtype.U16:
		for i, f := range floats {
			put16(raw[i*2:], uint16(clampInt(f, 0, math.MaxUint16)))
		}
	case dtype.I16:
		for i, f := range floats {
			put16(raw[i*2:], uint16(int16(clampInt(f, math.MinInt16, math.MaxInt16))))
		}
	case dtype.U32:
		for i, f := range floats {
			put32(raw[i*4:], uint32(clampInt(f, 0, math.MaxUint32)))
		}
	case dtype.I32:
		for i, f := range floats {
			put32(raw[i*4:], uint32(int32(clampInt(f, math.MinInt32, math.MaxInt32))))
		}
	case dtype.QU8:
		for i, f := range floats {
			raw[i] = byte(quantize(f, qp, 0, math.MaxUint8))
		}
	case dtype.QI8:
		for i, f := range floats {
			raw[i] = byte(int8(quantize(f, qp, math.MinInt8, math.MaxInt8)))
		}
	case dtype.QU16:
		for i, f := range floats {
			put16(raw[i*2:], uint16(quantize(f, qp, 0, math.MaxUint16)))
		}
	case dtype.QI16:
		for i, f := range floats {
			put16(raw[i*2:], uint16(int16(quantize(f, qp, math.MinInt16, math.MaxInt16))))
		}
	case dtype.Bool:
		for i, f := range floats {
			if f != 0 {
				raw[i] = 1
			} else {
				raw[i] = 0
			}
		}
	default:
		return fmt.Errorf("invalid or unsupported DType %s", dt)
	}
	return nil
}

// quantize is the inverse of graphinfo.QuantParams.Dequantize, clamped
// to [min, max].
func quantize(f float32, qp graphinfo.QuantParams, min, max int64) int64 {
	q := int64(math.Round(float64(f)/float64(qp.Scale))) - int64(qp.Offset)
	if q < min {
		return min
	}
	if q > max {
		return max
	}
	return q
}

// clampInt truncates f toward zero and clamps it to [min, max].
func clampInt(f float32, min, max int64) int64 {
	if math.IsNaN(float64(f)) {
		return 0
	}
	v := float64(f)
	if v < float64(min) {
		return min
	}
	if v > float64(max) {
		return max
	}
	return int64(v)
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func put16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func put32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
