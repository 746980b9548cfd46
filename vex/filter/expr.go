package filter

import (
	"fmt"
	"math"

	"github.com/ajroetker/go-pixelexpr/vex/expr"
	"github.com/ajroetker/go-pixelexpr/vex/workerpool"
)

// maxInputs is the number of clips addressable from an expression:
// one letter each for x, y, z and a through w.
const maxInputs = 26

// maxPlanes is the plane count of the richest supported formats.
const maxPlanes = 3

type planeOp int

const (
	planeProcess planeOp = iota
	planeCopy
	planeUndefined
)

type options struct {
	formatPreset int
	optMask      int
	pool         *workerpool.Pool
}

// Option configures the filter constructor.
type Option func(*options)

// WithFormat selects an output format preset. The output keeps the
// subsampling and color family of input 0 and adopts the preset's sample
// type and bit depth.
func WithFormat(preset int) Option {
	return func(o *options) { o.formatPreset = preset }
}

// WithOptMask sets the option bitmask. Bit 0 enables integer arithmetic
// on integer sources; the default mask is 1.
func WithOptMask(mask int) Option {
	return func(o *options) { o.optMask = mask }
}

// WithPool processes planes through a worker pool instead of serially.
func WithPool(p *workerpool.Pool) Option {
	return func(o *options) { o.pool = p }
}

// Filter evaluates one compiled expression per output plane. A Filter
// is immutable after New returns; Frame may be called concurrently for
// different frame numbers.
type Filter struct {
	clips    []Clip
	vi       VideoInfo
	planes   [maxPlanes]planeOp
	compiled [maxPlanes]*expr.Compiled
	pool     *workerpool.Pool
}

func errf(format string, args ...any) error {
	return fmt.Errorf("Expr: "+format, args...)
}

// New validates the inputs, compiles one expression per output plane and
// returns the filter. Compilation errors fail atomically: no partial
// per-plane artifacts are retained.
//
// If fewer expressions than planes are supplied, the last one is
// replicated. An empty expression leaves the plane as a copy of input 0
// when the output format matches, and undefined otherwise.
func New(clips []Clip, exprs []string, opts ...Option) (*Filter, error) {
	o := options{optMask: 1}
	for _, opt := range opts {
		opt(&o)
	}

	if len(clips) == 0 {
		return nil, errf("At least one input clip required")
	}
	if len(clips) > maxInputs {
		return nil, errf("More than %d input clips provided", maxInputs)
	}

	vi := make([]*VideoInfo, len(clips))
	for i, c := range clips {
		vi[i] = c.Info()
		if !vi[i].constant() {
			return nil, errf("Only clips with constant format and dimensions allowed")
		}
	}
	for i := range vi {
		if vi[0].Format.NumPlanes != vi[i].Format.NumPlanes ||
			vi[0].Format.SubSamplingW != vi[i].Format.SubSamplingW ||
			vi[0].Format.SubSamplingH != vi[i].Format.SubSamplingH ||
			vi[0].Width != vi[i].Width ||
			vi[0].Height != vi[i].Height {
			return nil, errf("All inputs must have the same number of planes and the same dimensions, subsampling included")
		}
		if !supportedSamples(vi[i].Format) {
			return nil, errf("Input clips must be 8-16 bit integer or 32 bit float format")
		}
		if vi[i].Format.ColorFamily == FamilyCompat {
			return nil, errf("No compat formats allowed")
		}
	}

	out := *vi[0]
	if o.formatPreset != PresetNone {
		pf, ok := PresetFormat(o.formatPreset)
		if !ok {
			return nil, errf("Unknown output format preset %d", o.formatPreset)
		}
		if out.Format.ColorFamily == FamilyCompat {
			return nil, errf("No compat formats allowed")
		}
		if out.Format.NumPlanes != pf.NumPlanes {
			return nil, errf("The number of planes in the inputs and output must match")
		}
		// Keep input 0's subsampling and color family; adopt the
		// preset's sample layout.
		out.Format.Name = pf.Name
		out.Format.SampleType = pf.SampleType
		out.Format.BitsPerSample = pf.BitsPerSample
		out.Format.BytesPerSample = pf.BytesPerSample
		if !supportedSamples(out.Format) {
			return nil, errf("Output format must be 8-16 bit integer or 32 bit float")
		}
	}

	numPlanes := out.Format.NumPlanes
	if numPlanes > maxPlanes {
		return nil, errf("More than %d planes are not supported", maxPlanes)
	}
	if len(exprs) > numPlanes {
		return nil, errf("More expressions given than there are planes")
	}
	if len(exprs) == 0 {
		return nil, errf("At least one expression required")
	}

	var srcs [maxPlanes]string
	for i := 0; i < numPlanes; i++ {
		if i < len(exprs) {
			srcs[i] = exprs[i]
		} else {
			srcs[i] = exprs[len(exprs)-1]
		}
	}

	f := &Filter{clips: clips, vi: out, pool: o.pool}
	inputFormats := make([]expr.PixelFormat, len(clips))
	for i := range clips {
		inputFormats[i] = pixelFormat(vi[i].Format)
	}

	for p := 0; p < numPlanes; p++ {
		if srcs[p] == "" {
			if out.Format.BitsPerSample == vi[0].Format.BitsPerSample &&
				out.Format.SampleType == vi[0].Format.SampleType {
				f.planes[p] = planeCopy
			} else {
				f.planes[p] = planeUndefined
			}
			continue
		}
		f.planes[p] = planeProcess
		compiled, err := expr.Compile(srcs[p], pixelFormat(out.Format), inputFormats, o.optMask)
		if err != nil {
			return nil, errf("%v", err)
		}
		f.compiled[p] = compiled
	}
	return f, nil
}

// Info returns the output video info.
func (f *Filter) Info() *VideoInfo { return &f.vi }

// Parallel reports that Frame is safe to call concurrently for
// different frame numbers: compiled routines read only their arguments.
func (f *Filter) Parallel() bool { return true }

// Frame evaluates the filter for frame n and returns the produced
// output frame.
func (f *Filter) Frame(n int) (*Frame, error) {
	src := make([]*Frame, len(f.clips))
	for i, c := range f.clips {
		fr, err := c.Frame(n)
		if err != nil {
			return nil, errf("%v", err)
		}
		src[i] = fr
	}

	dst := NewFrame(f.vi.Format, f.vi.Width, f.vi.Height)
	if len(src[0].Props) > 0 {
		dst.Props = make(map[string]any, len(src[0].Props))
		for k, v := range src[0].Props {
			dst.Props[k] = v
		}
	}

	numPlanes := f.vi.Format.NumPlanes
	if f.pool != nil && numPlanes > 1 {
		f.pool.ParallelFor(numPlanes, func(start, end int) {
			for p := start; p < end; p++ {
				f.processPlane(dst, src, p, n)
			}
		})
	} else {
		for p := 0; p < numPlanes; p++ {
			f.processPlane(dst, src, p, n)
		}
	}
	return dst, nil
}

func (f *Filter) processPlane(dst *Frame, src []*Frame, p, n int) {
	switch f.planes[p] {
	case planeUndefined:
		return
	case planeCopy:
		w, h := planeDims(&f.vi, p)
		rowBytes := w * f.vi.Format.BytesPerSample
		for y := 0; y < h; y++ {
			copy(dst.Row(p, y)[:rowBytes], src[0].Row(p, y)[:rowBytes])
		}
	case planeProcess:
		compiled := f.compiled[p]
		rwptrs := make([][]byte, len(src)+1)
		strides := make([]int, len(src)+1)
		rwptrs[0] = dst.Planes[p]
		strides[0] = dst.Strides[p]
		for i, s := range src {
			rwptrs[i+1] = s.Planes[p]
			strides[i+1] = s.Strides[p]
		}
		consts := make([]float32, 1+len(compiled.PropAccess))
		consts[0] = math.Float32frombits(uint32(int32(n)))
		for i, pa := range compiled.PropAccess {
			consts[1+i] = resolveProp(src[pa.Clip], pa.Name)
		}
		w, h := planeDims(&f.vi, p)
		compiled.Proc(rwptrs, strides, consts, w, h)
	}
}

// resolveProp reads a frame property as a float: integer properties are
// converted by value, and any retrieval failure yields NaN so the
// expression result makes the failure visible instead of aborting the
// frame.
func resolveProp(f *Frame, name string) float32 {
	if v, ok := f.PropInt(name); ok {
		return float32(v)
	}
	if v, ok := f.PropFloat(name); ok {
		return float32(v)
	}
	return float32(math.NaN())
}
