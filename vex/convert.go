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

// ToFloat converts int lanes to float lanes.
func ToFloat(dst []float32, src []int32) {
	for i := range dst {
		dst[i] = float32(src[i])
	}
}

// RoundToInt converts float lanes to int lanes rounding to the nearest
// integer, ties to even. This is the CVTPS2DQ rounding the store path
// and the range reductions depend on.
func RoundToInt(dst []int32, src []float32) {
	for i := range dst {
		dst[i] = int32(math.RoundToEven(float64(src[i])))
	}
}

// Trunc rounds float lanes toward zero.
func Trunc(dst, src []float32) {
	for i := range dst {
		dst[i] = float32(math.Trunc(float64(src[i])))
	}
}

// Round rounds float lanes to the nearest integer, ties to even.
func Round(dst, src []float32) {
	for i := range dst {
		dst[i] = float32(math.RoundToEven(float64(src[i])))
	}
}

// Floor rounds float lanes toward negative infinity.
func Floor(dst, src []float32) {
	for i := range dst {
		dst[i] = float32(math.Floor(float64(src[i])))
	}
}

// BitCastF2I reinterprets float lanes as their int bit patterns.
func BitCastF2I(dst []int32, src []float32) {
	for i := range dst {
		dst[i] = int32(math.Float32bits(src[i]))
	}
}

// BitCastI2F reinterprets int lanes as float bit patterns.
func BitCastI2F(dst []float32, src []int32) {
	for i := range dst {
		dst[i] = math.Float32frombits(uint32(src[i]))
	}
}
