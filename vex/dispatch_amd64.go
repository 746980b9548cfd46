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

//go:build amd64

package vex

import "golang.org/x/sys/cpu"

func init() {
	switch {
	case cpu.X86.HasAVX512F:
		// 512-bit registers exist but the engine's widest tier is 8
		// float lanes; AVX-512 machines still run the 256-bit class.
		setLevel(Level256)
	case cpu.X86.HasAVX2 && cpu.X86.HasFMA:
		setLevel(Level256)
	default:
		// SSE2 is the amd64 baseline.
		setLevel(Level128)
	}
}
