// Copyright 2025 go-pixelexpr Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vex

import "math"

// This file provides the pure Go lane kernels. They are written so the
// compiler can keep the per-lane bodies free of bounds checks and, where
// the target supports it, auto-vectorize them: every loop runs over
// exactly len(dst) lanes and indexes a, b and dst uniformly.

// Num constrains the lane element types the expression engine uses.
type Num interface {
	~int32 | ~float32
}

// Fill sets every lane of dst to v.
func Fill[T Num](dst []T, v T) {
	for i := range dst {
		dst[i] = v
	}
}

// Iota writes the ramp 0, 1, ..., len(dst)-1 into dst.
func Iota[T Num](dst []T) {
	for i := range dst {
		dst[i] = T(i)
	}
}

// Copy copies src into dst lane-wise.
func Copy[T Num](dst, src []T) {
	copy(dst, src[:len(dst)])
}

// Add performs lane-wise addition.
func Add[T Num](dst, a, b []T) {
	for i := range dst {
		dst[i] = a[i] + b[i]
	}
}

// Sub performs lane-wise subtraction.
func Sub[T Num](dst, a, b []T) {
	for i := range dst {
		dst[i] = a[i] - b[i]
	}
}

// Mul performs lane-wise multiplication.
func Mul[T Num](dst, a, b []T) {
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

// Div performs lane-wise float division. IEEE semantics apply: division
// by zero produces ±Inf or NaN.
func Div(dst, a, b []float32) {
	for i := range dst {
		dst[i] = a[i] / b[i]
	}
}

// Mod performs the lane-wise truncated float remainder, matching C fmodf.
func Mod(dst, a, b []float32) {
	for i := range dst {
		dst[i] = float32(math.Mod(float64(a[i]), float64(b[i])))
	}
}

// Min performs lane-wise minimum.
func Min[T Num](dst, a, b []T) {
	for i := range dst {
		if b[i] < a[i] {
			dst[i] = b[i]
		} else {
			dst[i] = a[i]
		}
	}
}

// Max performs lane-wise maximum.
func Max[T Num](dst, a, b []T) {
	for i := range dst {
		if b[i] > a[i] {
			dst[i] = b[i]
		} else {
			dst[i] = a[i]
		}
	}
}

// MinScalar performs lane-wise minimum against a broadcast scalar.
func MinScalar[T Num](dst, a []T, s T) {
	for i := range dst {
		if a[i] < s {
			dst[i] = a[i]
		} else {
			dst[i] = s
		}
	}
}

// MaxScalar performs lane-wise maximum against a broadcast scalar.
func MaxScalar[T Num](dst, a []T, s T) {
	for i := range dst {
		if a[i] > s {
			dst[i] = a[i]
		} else {
			dst[i] = s
		}
	}
}

// Abs performs lane-wise absolute value.
func Abs[T Num](dst, a []T) {
	for i := range dst {
		if a[i] < 0 {
			dst[i] = -a[i]
		} else {
			dst[i] = a[i]
		}
	}
}

// Neg performs lane-wise negation.
func Neg[T Num](dst, a []T) {
	for i := range dst {
		dst[i] = -a[i]
	}
}

// Sqrt performs lane-wise square root.
func Sqrt(dst, a []float32) {
	for i := range dst {
		dst[i] = float32(math.Sqrt(float64(a[i])))
	}
}

// FMA computes a*b + c per lane with a single rounding.
func FMA(dst, a, b, c []float32) {
	for i := range dst {
		dst[i] = float32(math.FMA(float64(a[i]), float64(b[i]), float64(c[i])))
	}
}

// FMAScalar computes a*s + c per lane, broadcasting the scalar multiplier.
func FMAScalar(dst, a []float32, s float32, c []float32) {
	for i := range dst {
		dst[i] = float32(math.FMA(float64(a[i]), float64(s), float64(c[i])))
	}
}

// Comparison kernels produce hardware-style masks: -1 for true lanes,
// 0 for false lanes.

// CmpEQ writes the a == b mask.
func CmpEQ[T Num](dst []int32, a, b []T) {
	for i := range dst {
		dst[i] = maskBit(a[i] == b[i])
	}
}

// CmpLT writes the a < b mask.
func CmpLT[T Num](dst []int32, a, b []T) {
	for i := range dst {
		dst[i] = maskBit(a[i] < b[i])
	}
}

// CmpLE writes the a <= b mask.
func CmpLE[T Num](dst []int32, a, b []T) {
	for i := range dst {
		dst[i] = maskBit(a[i] <= b[i])
	}
}

// CmpNEQ writes the a != b mask.
func CmpNEQ[T Num](dst []int32, a, b []T) {
	for i := range dst {
		dst[i] = maskBit(a[i] != b[i])
	}
}

// CmpNLT writes the !(a < b) mask. For floats this differs from a >= b
// when NaN is involved, matching the hardware NLT predicate.
func CmpNLT[T Num](dst []int32, a, b []T) {
	for i := range dst {
		dst[i] = maskBit(!(a[i] < b[i]))
	}
}

// CmpNLE writes the !(a <= b) mask.
func CmpNLE[T Num](dst []int32, a, b []T) {
	for i := range dst {
		dst[i] = maskBit(!(a[i] <= b[i]))
	}
}

// CmpGTZero writes the a > 0 mask, the truth test used by the logical
// operators.
func CmpGTZero[T Num](dst []int32, a []T) {
	for i := range dst {
		dst[i] = maskBit(a[i] > 0)
	}
}

// CmpLEZero writes the a <= 0 mask.
func CmpLEZero[T Num](dst []int32, a []T) {
	for i := range dst {
		dst[i] = maskBit(a[i] <= 0)
	}
}

func maskBit(b bool) int32 {
	if b {
		return -1
	}
	return 0
}

// And performs lane-wise bitwise AND.
func And(dst, a, b []int32) {
	for i := range dst {
		dst[i] = a[i] & b[i]
	}
}

// Or performs lane-wise bitwise OR.
func Or(dst, a, b []int32) {
	for i := range dst {
		dst[i] = a[i] | b[i]
	}
}

// Xor performs lane-wise bitwise XOR.
func Xor(dst, a, b []int32) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// AndNot computes ^a & b per lane.
func AndNot(dst, a, b []int32) {
	for i := range dst {
		dst[i] = ^a[i] & b[i]
	}
}

// AndScalar performs a & s per lane.
func AndScalar(dst, a []int32, s int32) {
	for i := range dst {
		dst[i] = a[i] & s
	}
}

// ShiftLeft shifts each lane left by bits.
func ShiftLeft(dst, a []int32, bits uint) {
	for i := range dst {
		dst[i] = a[i] << bits
	}
}

// ShiftRight shifts each lane right (arithmetic) by bits.
func ShiftRight(dst, a []int32, bits uint) {
	for i := range dst {
		dst[i] = a[i] >> bits
	}
}

// BlendInt selects t where the mask is set and f elsewhere, as the
// bitwise (t & m) | (f & ^m).
func BlendInt(dst, t, f, m []int32) {
	for i := range dst {
		dst[i] = (t[i] & m[i]) | (f[i] &^ m[i])
	}
}

// BlendFloat is BlendInt over the bit representation of float lanes.
func BlendFloat(dst, t, f []float32, m []int32) {
	for i := range dst {
		tb := int32(math.Float32bits(t[i]))
		fb := int32(math.Float32bits(f[i]))
		dst[i] = math.Float32frombits(uint32((tb & m[i]) | (fb &^ m[i])))
	}
}
