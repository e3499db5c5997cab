// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package float16

import "math"

// F16 is a 16-bit half-precision floating-point value (IEEE 754
// binary16), represented as raw bits (uint16).
type F16 uint16

// FromFloat32 converts a float32 value to its half-precision
// representation, rounding to nearest even. Values beyond the
// half-precision range become infinities; NaN is preserved.
func FromFloat32(f float32) F16 {
	b := math.Float32bits(f)
	sign := uint16(b>>16) & 0x8000
	exp := int32(b>>23) & 0xff
	mant := b & 0x7fffff

	switch {
	case exp == 0xff: // inf or NaN
		if mant != 0 {
			return F16(sign | 0x7e00)
		}
		return F16(sign | 0x7c00)
	case exp > 142: // overflow to inf
		return F16(sign | 0x7c00)
	case exp < 102: // underflow to zero
		return F16(sign)
	case exp < 113: // subnormal range
		mant |= 0x800000
		shift := uint32(126 - exp)
		half := mant >> shift
		// round to nearest even
		if rem := mant & (1<<shift - 1); rem > 1<<(shift-1) ||
			(rem == 1<<(shift-1) && half&1 == 1) {
			half++
		}
		return F16(sign | uint16(half))
	}

	out := uint16(exp-112)<<10 | uint16(mant>>13)
	if rem := mant & 0x1fff; rem > 0x1000 || (rem == 0x1000 && out&1 == 1) {
		out++ // carry may overflow into the exponent, which is correct
	}
	return F16(sign | out)
}

// Float32 converts the half-precision value to float32.
func (h F16) Float32() float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	switch {
	case exp == 0x1f: // inf or NaN
		return math.Float32frombits(sign | 0x7f800000 | mant<<13)
	case exp == 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// subnormal: mant * 2^-24, exactly representable in float32
		f := float32(mant) / (1 << 24)
		if sign != 0 {
			return -f
		}
		return f
	}
	return math.Float32frombits(sign | (exp+112)<<23 | mant<<13)
}

// Bits returns the raw bit representation.
func (h F16) Bits() uint16 {
	return uint16(h)
}
