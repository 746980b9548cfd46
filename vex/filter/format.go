// Package filter exposes the host-facing surface of the expression
// engine: the video format model, the clip/frame contract, and the Expr
// filter that compiles one expression per output plane and evaluates it
// for every requested frame.
package filter

import "github.com/ajroetker/go-pixelexpr/vex/expr"

// ColorFamily groups pixel formats by their plane semantics.
type ColorFamily int

const (
	FamilyGray ColorFamily = iota
	FamilyYUV
	FamilyRGB
	// FamilyCompat marks legacy packed formats, which the filter
	// rejects.
	FamilyCompat
)

// Format describes a planar pixel format.
type Format struct {
	Name           string
	ColorFamily    ColorFamily
	SampleType     expr.SampleType
	BitsPerSample  int
	BytesPerSample int
	SubSamplingW   int
	SubSamplingH   int
	NumPlanes      int
}

// VideoInfo describes a clip: its format and geometry. The filter only
// accepts clips whose format and dimensions are constant over the whole
// clip.
type VideoInfo struct {
	Format    Format
	Width     int
	Height    int
	NumFrames int
}

func (vi *VideoInfo) constant() bool {
	return vi.Width > 0 && vi.Height > 0 && vi.Format.NumPlanes > 0
}

// Format preset identifiers accepted by the filter's format option.
const (
	PresetNone = iota
	PresetGray8
	PresetGray16
	PresetGrayS
	PresetYUV420P8
	PresetYUV420P10
	PresetYUV420P16
	PresetYUV444P8
	PresetYUV444PS
	PresetRGB24
	PresetRGBS
)

var presets = map[int]Format{
	PresetGray8:     {Name: "Gray8", ColorFamily: FamilyGray, SampleType: expr.SampleInt, BitsPerSample: 8, BytesPerSample: 1, NumPlanes: 1},
	PresetGray16:    {Name: "Gray16", ColorFamily: FamilyGray, SampleType: expr.SampleInt, BitsPerSample: 16, BytesPerSample: 2, NumPlanes: 1},
	PresetGrayS:     {Name: "GrayS", ColorFamily: FamilyGray, SampleType: expr.SampleFloat, BitsPerSample: 32, BytesPerSample: 4, NumPlanes: 1},
	PresetYUV420P8:  {Name: "YUV420P8", ColorFamily: FamilyYUV, SampleType: expr.SampleInt, BitsPerSample: 8, BytesPerSample: 1, SubSamplingW: 1, SubSamplingH: 1, NumPlanes: 3},
	PresetYUV420P10: {Name: "YUV420P10", ColorFamily: FamilyYUV, SampleType: expr.SampleInt, BitsPerSample: 10, BytesPerSample: 2, SubSamplingW: 1, SubSamplingH: 1, NumPlanes: 3},
	PresetYUV420P16: {Name: "YUV420P16", ColorFamily: FamilyYUV, SampleType: expr.SampleInt, BitsPerSample: 16, BytesPerSample: 2, SubSamplingW: 1, SubSamplingH: 1, NumPlanes: 3},
	PresetYUV444P8:  {Name: "YUV444P8", ColorFamily: FamilyYUV, SampleType: expr.SampleInt, BitsPerSample: 8, BytesPerSample: 1, NumPlanes: 3},
	PresetYUV444PS:  {Name: "YUV444PS", ColorFamily: FamilyYUV, SampleType: expr.SampleFloat, BitsPerSample: 32, BytesPerSample: 4, NumPlanes: 3},
	PresetRGB24:     {Name: "RGB24", ColorFamily: FamilyRGB, SampleType: expr.SampleInt, BitsPerSample: 8, BytesPerSample: 1, NumPlanes: 3},
	PresetRGBS:      {Name: "RGBS", ColorFamily: FamilyRGB, SampleType: expr.SampleFloat, BitsPerSample: 32, BytesPerSample: 4, NumPlanes: 3},
}

// PresetFormat returns the format registered for a preset id.
func PresetFormat(id int) (Format, bool) {
	f, ok := presets[id]
	return f, ok
}

// pixelFormat converts to the compiler's sample descriptor.
func pixelFormat(f Format) expr.PixelFormat {
	return expr.PixelFormat{
		SampleType:     f.SampleType,
		BitsPerSample:  f.BitsPerSample,
		BytesPerSample: f.BytesPerSample,
	}
}

// supportedSamples reports whether a format's sample depth is one the
// engine accepts: 8-16 bit unsigned integer or 32-bit float.
func supportedSamples(f Format) bool {
	if f.SampleType == expr.SampleInt {
		return f.BitsPerSample >= 8 && f.BitsPerSample <= 16
	}
	return f.BitsPerSample == 32
}

// planeDims returns the dimensions of plane p under the format's
// subsampling.
func planeDims(vi *VideoInfo, p int) (int, int) {
	w, h := vi.Width, vi.Height
	if p > 0 {
		w >>= vi.Format.SubSamplingW
		h >>= vi.Format.SubSamplingH
	}
	return w, h
}
