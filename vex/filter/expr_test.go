package filter

import (
	"math"
	"strings"
	"testing"

	"github.com/ajroetker/go-pixelexpr/vex/expr"
	"github.com/ajroetker/go-pixelexpr/vex/workerpool"
)

func gray8Clip(t *testing.T, pixels [][]byte, props map[string]any) *MemClip {
	t.Helper()
	format, _ := PresetFormat(PresetGray8)
	width := len(pixels[0])
	frames := make([]*Frame, len(pixels))
	for n, row := range pixels {
		f := NewFrame(format, width, 1)
		copy(f.Row(0, 0), row)
		f.Props = props
		frames[n] = f
	}
	return NewMemClip(VideoInfo{Format: format, Width: width, Height: 1}, frames...)
}

func TestFilterRoundTrip(t *testing.T) {
	in := []byte{0, 64, 128, 255}
	clip := gray8Clip(t, [][]byte{in}, nil)
	f, err := New([]Clip{clip}, []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.Frame(0)
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if out.Row(0, 0)[i] != in[i] {
			t.Errorf("pixel %d: got %d, want %d", i, out.Row(0, 0)[i], in[i])
		}
	}
}

func TestFilterFrameNumber(t *testing.T) {
	rows := [][]byte{{0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}}
	clip := gray8Clip(t, rows, nil)
	f, err := New([]Clip{clip}, []string{"N"})
	if err != nil {
		t.Fatal(err)
	}
	for n := range rows {
		out, err := f.Frame(n)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 4; i++ {
			if out.Row(0, 0)[i] != byte(n) {
				t.Errorf("frame %d pixel %d: got %d", n, i, out.Row(0, 0)[i])
			}
		}
	}
}

func TestFilterPropertyAccess(t *testing.T) {
	x := gray8Clip(t, [][]byte{{10, 20, 30, 40}}, nil)
	y := gray8Clip(t, [][]byte{{0, 0, 0, 0}}, map[string]any{"_Gain": 3.0})
	f, err := New([]Clip{x, y}, []string{"x y._Gain *"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.Frame(0)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{30, 60, 90, 120}
	for i := range want {
		if out.Row(0, 0)[i] != want[i] {
			t.Errorf("pixel %d: got %d, want %d", i, out.Row(0, 0)[i], want[i])
		}
	}
}

func TestFilterIntProperty(t *testing.T) {
	x := gray8Clip(t, [][]byte{{10, 20, 30, 40}}, map[string]any{"_Offset": int64(5)})
	f, err := New([]Clip{x}, []string{"x x._Offset +"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.Frame(0)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{15, 25, 35, 45}
	for i := range want {
		if out.Row(0, 0)[i] != want[i] {
			t.Errorf("pixel %d: got %d, want %d", i, out.Row(0, 0)[i], want[i])
		}
	}
}

func TestFilterMissingProperty(t *testing.T) {
	x := gray8Clip(t, [][]byte{{10, 20, 30, 40}}, nil)
	f, err := New([]Clip{x}, []string{"x x._Gain *"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.Frame(0)
	if err != nil {
		t.Fatal(err)
	}
	// NaN result clamps to zero on integer output.
	for i := 0; i < 4; i++ {
		if out.Row(0, 0)[i] != 0 {
			t.Errorf("pixel %d: got %d, want 0", i, out.Row(0, 0)[i])
		}
	}
}

func TestFilterMissingPropertyFloatOut(t *testing.T) {
	x := gray8Clip(t, [][]byte{{10, 20, 30, 40}}, nil)
	f, err := New([]Clip{x}, []string{"x x._Gain *"}, WithFormat(PresetGrayS))
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.Frame(0)
	if err != nil {
		t.Fatal(err)
	}
	row := out.Row(0, 0)
	bits := uint32(row[0]) | uint32(row[1])<<8 | uint32(row[2])<<16 | uint32(row[3])<<24
	if !math.IsNaN(float64(math.Float32frombits(bits))) {
		t.Errorf("float output for missing property = %v, want NaN", math.Float32frombits(bits))
	}
}

func TestFilterValidation(t *testing.T) {
	in := []byte{0, 0, 0, 0}
	clip := gray8Clip(t, [][]byte{in}, nil)

	cases := []struct {
		name string
		run  func() error
		want string
	}{
		{"no clips", func() error {
			_, err := New(nil, []string{"x"})
			return err
		}, "input clip"},
		{"too many expressions", func() error {
			_, err := New([]Clip{clip}, []string{"x", "x"})
			return err
		}, "More expressions"},
		{"bad expression", func() error {
			_, err := New([]Clip{clip}, []string{"+"})
			return err
		}, "insufficient values"},
		{"mismatched dims", func() error {
			other := gray8Clip(t, [][]byte{{0, 0, 0, 0, 0, 0, 0, 0}}, nil)
			_, err := New([]Clip{clip, other}, []string{"x y +"})
			return err
		}, "same number of planes and the same dimensions"},
		{"unknown preset", func() error {
			_, err := New([]Clip{clip}, []string{"x"}, WithFormat(9999))
			return err
		}, "Unknown output format preset"},
	}
	for _, c := range cases {
		err := c.run()
		if err == nil {
			t.Errorf("%s: expected error", c.name)
			continue
		}
		if !strings.HasPrefix(err.Error(), "Expr: ") {
			t.Errorf("%s: error %q lacks Expr prefix", c.name, err)
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: error %q does not mention %q", c.name, err, c.want)
		}
	}
}

func TestFilterRejectsUnsupportedDepth(t *testing.T) {
	format := Format{
		Name: "Gray32", ColorFamily: FamilyGray, SampleType: expr.SampleInt,
		BitsPerSample: 32, BytesPerSample: 4, NumPlanes: 1,
	}
	frame := NewFrame(format, 4, 1)
	clip := NewMemClip(VideoInfo{Format: format, Width: 4, Height: 1}, frame)
	if _, err := New([]Clip{clip}, []string{"x"}); err == nil {
		t.Error("32-bit integer input accepted")
	}
}

func TestFilterOutputPreset(t *testing.T) {
	in := []byte{0, 64, 128, 255}
	clip := gray8Clip(t, [][]byte{in}, nil)
	f, err := New([]Clip{clip}, []string{"x 256 *"}, WithFormat(PresetGray16))
	if err != nil {
		t.Fatal(err)
	}
	if f.Info().Format.BitsPerSample != 16 {
		t.Fatalf("output bits = %d", f.Info().Format.BitsPerSample)
	}
	out, err := f.Frame(0)
	if err != nil {
		t.Fatal(err)
	}
	row := out.Row(0, 0)
	want := []uint16{0, 16384, 32768, 65280}
	for i := range want {
		got := uint16(row[i*2]) | uint16(row[i*2+1])<<8
		if got != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got, want[i])
		}
	}
}

func yuvClip(t *testing.T, w, h int) *MemClip {
	t.Helper()
	format, _ := PresetFormat(PresetYUV444P8)
	f := NewFrame(format, w, h)
	for p := 0; p < 3; p++ {
		for y := 0; y < h; y++ {
			row := f.Row(p, y)
			for x := 0; x < w; x++ {
				row[x] = byte(16*p + x + y)
			}
		}
	}
	return NewMemClip(VideoInfo{Format: format, Width: w, Height: h}, f)
}

func TestFilterExpressionReplication(t *testing.T) {
	clip := yuvClip(t, 4, 2)
	// One expression: replicated to all three planes.
	f, err := New([]Clip{clip}, []string{"x 1 +"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.Frame(0)
	if err != nil {
		t.Fatal(err)
	}
	src, _ := clip.Frame(0)
	for p := 0; p < 3; p++ {
		for x := 0; x < 4; x++ {
			if out.Row(p, 0)[x] != src.Row(p, 0)[x]+1 {
				t.Errorf("plane %d pixel %d: got %d", p, x, out.Row(p, 0)[x])
			}
		}
	}
}

func TestFilterPlaneCopy(t *testing.T) {
	clip := yuvClip(t, 4, 2)
	// Explicit empty expressions request copy mode for those planes.
	f, err := New([]Clip{clip}, []string{"x 1 +", "", ""})
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.Frame(0)
	if err != nil {
		t.Fatal(err)
	}
	src, _ := clip.Frame(0)
	for x := 0; x < 4; x++ {
		if out.Row(0, 0)[x] != src.Row(0, 0)[x]+1 {
			t.Errorf("processed plane pixel %d: got %d", x, out.Row(0, 0)[x])
		}
		if out.Row(1, 0)[x] != src.Row(1, 0)[x] {
			t.Errorf("copied plane 1 pixel %d: got %d, want %d", x, out.Row(1, 0)[x], src.Row(1, 0)[x])
		}
		if out.Row(2, 1)[x] != src.Row(2, 1)[x] {
			t.Errorf("copied plane 2 pixel %d: got %d, want %d", x, out.Row(2, 1)[x], src.Row(2, 1)[x])
		}
	}
}

func TestFilterWithPool(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Close()

	clip := yuvClip(t, 4, 2)
	f, err := New([]Clip{clip}, []string{"x 2 *"}, WithPool(pool))
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.Frame(0)
	if err != nil {
		t.Fatal(err)
	}
	src, _ := clip.Frame(0)
	for p := 0; p < 3; p++ {
		for x := 0; x < 4; x++ {
			want := int(src.Row(p, 1)[x]) * 2
			if want > 255 {
				want = 255
			}
			if int(out.Row(p, 1)[x]) != want {
				t.Errorf("plane %d pixel %d: got %d, want %d", p, x, out.Row(p, 1)[x], want)
			}
		}
	}
}

func TestFilterParallelInvocation(t *testing.T) {
	rows := make([][]byte, 16)
	for n := range rows {
		rows[n] = []byte{byte(n), byte(n * 2), byte(n * 3), byte(n * 4)}
	}
	clip := gray8Clip(t, rows, nil)
	f, err := New([]Clip{clip}, []string{"x 1 +"})
	if err != nil {
		t.Fatal(err)
	}
	if !f.Parallel() {
		t.Fatal("filter does not advertise parallel invocation")
	}

	done := make(chan error, len(rows))
	for n := range rows {
		go func(n int) {
			out, err := f.Frame(n)
			if err != nil {
				done <- err
				return
			}
			for i := 0; i < 4; i++ {
				if out.Row(0, 0)[i] != rows[n][i]+1 {
					t.Errorf("frame %d pixel %d: got %d", n, i, out.Row(0, 0)[i])
				}
			}
			done <- nil
		}(n)
	}
	for range rows {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}
}

func TestOptMaskZero(t *testing.T) {
	in := []byte{0, 64, 128, 255}
	clip := gray8Clip(t, [][]byte{in}, nil)
	f, err := New([]Clip{clip}, []string{"x 1 +"}, WithOptMask(0))
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.Frame(0)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 65, 129, 255}
	for i := range want {
		if out.Row(0, 0)[i] != want[i] {
			t.Errorf("pixel %d: got %d, want %d", i, out.Row(0, 0)[i], want[i])
		}
	}
}
