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

import (
	"math"
	"unsafe"
)

// Row memory kernels. A row is the raw byte slice of one plane row; the
// caller guarantees it holds at least len(dst) samples starting at the
// given sample offset. Samples are little-endian, per the frame contract.

// LoadU8 zero-extends 8-bit samples at sample offset x into int lanes.
func LoadU8(dst []int32, row []byte, x int) {
	s := row[x : x+len(dst)]
	for i := range dst {
		dst[i] = int32(s[i])
	}
}

// LoadU16 zero-extends 16-bit samples at sample offset x into int lanes.
func LoadU16(dst []int32, row []byte, x int) {
	s := unsafe.Slice((*uint16)(unsafe.Pointer(&row[2*x])), len(dst))
	for i := range dst {
		dst[i] = int32(s[i])
	}
}

// LoadF32 loads 32-bit float samples at sample offset x into float lanes.
func LoadF32(dst []float32, row []byte, x int) {
	s := unsafe.Slice((*float32)(unsafe.Pointer(&row[4*x])), len(dst))
	copy(dst, s)
}

// StoreU8 clamps int lanes to [0, maxval] and narrows them to 8-bit
// samples at sample offset x.
func StoreU8(row []byte, x int, src []int32, maxval int32) {
	s := row[x : x+len(src)]
	for i := range src {
		s[i] = uint8(clampInt(src[i], maxval))
	}
}

// StoreU16 clamps int lanes to [0, maxval] and narrows them to 16-bit
// samples at sample offset x.
func StoreU16(row []byte, x int, src []int32, maxval int32) {
	s := unsafe.Slice((*uint16)(unsafe.Pointer(&row[2*x])), len(src))
	for i := range src {
		s[i] = uint16(clampInt(src[i], maxval))
	}
}

// StoreU8FromFloat rounds float lanes to the nearest integer, clamps to
// [0, maxval] and narrows to 8-bit samples. NaN lanes clamp to 0.
func StoreU8FromFloat(row []byte, x int, src []float32, maxval int32) {
	s := row[x : x+len(src)]
	for i := range src {
		s[i] = uint8(clampRound(src[i], maxval))
	}
}

// StoreU16FromFloat rounds float lanes to the nearest integer, clamps to
// [0, maxval] and narrows to 16-bit samples. NaN lanes clamp to 0.
func StoreU16FromFloat(row []byte, x int, src []float32, maxval int32) {
	s := unsafe.Slice((*uint16)(unsafe.Pointer(&row[2*x])), len(src))
	for i := range src {
		s[i] = uint16(clampRound(src[i], maxval))
	}
}

// StoreF32 stores float lanes as 32-bit samples at sample offset x.
func StoreF32(row []byte, x int, src []float32) {
	s := unsafe.Slice((*float32)(unsafe.Pointer(&row[4*x])), len(src))
	copy(s, src)
}

func clampInt(v, maxval int32) int32 {
	if v < 0 {
		return 0
	}
	if v > maxval {
		return maxval
	}
	return v
}

// clampRound orders its comparisons so NaN falls through to zero.
func clampRound(v float32, maxval int32) int32 {
	if !(v > 0) {
		return 0
	}
	if v > float32(maxval) {
		return maxval
	}
	return int32(math.RoundToEven(float64(v)))
}
