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

package filter

import "fmt"

// rowAlign is the guaranteed alignment and padding granularity of frame
// rows, in bytes. It is at least one full lane block for every supported
// sample width, so compiled routines never need tail handling inside a
// row.
const rowAlign = 32

// Frame is one video frame: per-plane sample rows plus the named scalar
// properties the host attached to it. Samples are little-endian.
type Frame struct {
	Format  Format
	Width   int // plane 0 width in samples
	Height  int // plane 0 height in rows
	Planes  [][]byte
	Strides []int // bytes per row, per plane

	// Props holds frame properties. Values are int64 or float64;
	// anything else reads as missing.
	Props map[string]any
}

// NewFrame allocates a frame with SIMD-aligned rows: every stride is a
// multiple of rowAlign, so a row always holds a whole number of lane
// blocks past the visible width.
func NewFrame(format Format, width, height int) *Frame {
	f := &Frame{
		Format:  format,
		Width:   width,
		Height:  height,
		Planes:  make([][]byte, format.NumPlanes),
		Strides: make([]int, format.NumPlanes),
	}
	for p := 0; p < format.NumPlanes; p++ {
		w, h := width, height
		if p > 0 {
			w >>= format.SubSamplingW
			h >>= format.SubSamplingH
		}
		stride := (w*format.BytesPerSample + rowAlign - 1) &^ (rowAlign - 1)
		f.Planes[p] = make([]byte, stride*h)
		f.Strides[p] = stride
	}
	return f
}

// Row returns the raw bytes of row y of plane p, including padding.
func (f *Frame) Row(p, y int) []byte {
	return f.Planes[p][y*f.Strides[p] : (y+1)*f.Strides[p]]
}

// PropInt reads an integer property.
func (f *Frame) PropInt(name string) (int64, bool) {
	v, ok := f.Props[name].(int64)
	return v, ok
}

// PropFloat reads a float property.
func (f *Frame) PropFloat(name string) (float64, bool) {
	v, ok := f.Props[name].(float64)
	return v, ok
}

// Clip is the host contract for one input: constant video info plus
// frame access by number.
type Clip interface {
	Info() *VideoInfo
	Frame(n int) (*Frame, error)
}

// MemClip is an in-memory Clip backed by preallocated frames. It serves
// hosts that already hold decoded planes, and tests.
type MemClip struct {
	info   VideoInfo
	frames []*Frame
}

// NewMemClip builds a clip from frames that all share the given info.
func NewMemClip(info VideoInfo, frames ...*Frame) *MemClip {
	info.NumFrames = len(frames)
	return &MemClip{info: info, frames: frames}
}

// Info returns the clip's constant video info.
func (c *MemClip) Info() *VideoInfo { return &c.info }

// Frame returns frame n.
func (c *MemClip) Frame(n int) (*Frame, error) {
	if n < 0 || n >= len(c.frames) {
		return nil, fmt.Errorf("frame %d out of range", n)
	}
	return c.frames[n], nil
}
