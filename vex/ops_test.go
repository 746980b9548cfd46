package vex

import (
	"math"
	"testing"
)

func TestArithmeticInt(t *testing.T) {
	a := []int32{1, -2, 3, 100}
	b := []int32{5, 5, -3, 28}
	dst := make([]int32, 4)

	Add(dst, a, b)
	want := []int32{6, 3, 0, 128}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("Add[%d]: got %d, want %d", i, dst[i], want[i])
		}
	}

	Min(dst, a, b)
	want = []int32{1, -2, -3, 28}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("Min[%d]: got %d, want %d", i, dst[i], want[i])
		}
	}

	Max(dst, a, b)
	want = []int32{5, 5, 3, 100}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("Max[%d]: got %d, want %d", i, dst[i], want[i])
		}
	}

	Abs(dst, a)
	want = []int32{1, 2, 3, 100}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("Abs[%d]: got %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestDivByZero(t *testing.T) {
	a := []float32{1, -1, 0}
	b := []float32{0, 0, 0}
	dst := make([]float32, 3)
	Div(dst, a, b)
	if !math.IsInf(float64(dst[0]), 1) {
		t.Errorf("1/0: got %v, want +Inf", dst[0])
	}
	if !math.IsInf(float64(dst[1]), -1) {
		t.Errorf("-1/0: got %v, want -Inf", dst[1])
	}
	if !math.IsNaN(float64(dst[2])) {
		t.Errorf("0/0: got %v, want NaN", dst[2])
	}
}

func TestCompareMasks(t *testing.T) {
	a := []float32{1, 2, 3, float32(math.NaN())}
	b := []float32{2, 2, 2, 2}
	m := make([]int32, 4)

	CmpLT(m, a, b)
	want := []int32{-1, 0, 0, 0}
	for i := range want {
		if m[i] != want[i] {
			t.Errorf("CmpLT[%d]: got %d, want %d", i, m[i], want[i])
		}
	}

	// NLT is not the same as >= for NaN operands.
	CmpNLT(m, a, b)
	want = []int32{0, -1, -1, -1}
	for i := range want {
		if m[i] != want[i] {
			t.Errorf("CmpNLT[%d]: got %d, want %d", i, m[i], want[i])
		}
	}
}

func TestBlend(t *testing.T) {
	tv := []int32{10, 20, 30}
	fv := []int32{1, 2, 3}
	m := []int32{-1, 0, -1}
	dst := make([]int32, 3)
	BlendInt(dst, tv, fv, m)
	want := []int32{10, 2, 30}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("BlendInt[%d]: got %d, want %d", i, dst[i], want[i])
		}
	}

	tf := []float32{1.5, 2.5, -3.5}
	ff := []float32{9, 8, 7}
	df := make([]float32, 3)
	BlendFloat(df, tf, ff, m)
	wantf := []float32{1.5, 8, -3.5}
	for i := range wantf {
		if df[i] != wantf[i] {
			t.Errorf("BlendFloat[%d]: got %v, want %v", i, df[i], wantf[i])
		}
	}
}

func TestRounding(t *testing.T) {
	src := []float32{1.5, 2.5, -1.5, 2.4, -2.6}
	dst := make([]float32, 5)

	Round(dst, src)
	want := []float32{2, 2, -2, 2, -3}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("Round[%d]: got %v, want %v", i, dst[i], want[i])
		}
	}

	Trunc(dst, src)
	want = []float32{1, 2, -1, 2, -2}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("Trunc[%d]: got %v, want %v", i, dst[i], want[i])
		}
	}

	Floor(dst, src)
	want = []float32{1, 2, -2, 2, -3}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("Floor[%d]: got %v, want %v", i, dst[i], want[i])
		}
	}

	di := make([]int32, 5)
	RoundToInt(di, src)
	wanti := []int32{2, 2, -2, 2, -3}
	for i := range wanti {
		if di[i] != wanti[i] {
			t.Errorf("RoundToInt[%d]: got %d, want %d", i, di[i], wanti[i])
		}
	}
}

func TestBitCastRoundTrip(t *testing.T) {
	src := []float32{0, 1, -1, math.Pi}
	bits := make([]int32, 4)
	back := make([]float32, 4)
	BitCastF2I(bits, src)
	BitCastI2F(back, bits)
	for i := range src {
		if back[i] != src[i] {
			t.Errorf("bitcast[%d]: got %v, want %v", i, back[i], src[i])
		}
	}
	if bits[1] != 0x3f800000 {
		t.Errorf("bits of 1.0: got %#x, want 0x3f800000", bits[1])
	}
}

func TestFMA(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{10, 10, 10}
	c := []float32{0.5, -0.5, 1}
	dst := make([]float32, 3)
	FMA(dst, a, b, c)
	want := []float32{10.5, 19.5, 31}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("FMA[%d]: got %v, want %v", i, dst[i], want[i])
		}
	}
	FMAScalar(dst, a, 2, c)
	want = []float32{2.5, 3.5, 7}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("FMAScalar[%d]: got %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestShiftsAndBitwise(t *testing.T) {
	a := []int32{1, 2, -4, 0x7f}
	dst := make([]int32, 4)
	ShiftLeft(dst, a, 23)
	if dst[0] != 1<<23 || dst[3] != 0x7f<<23 {
		t.Errorf("ShiftLeft: %v", dst)
	}
	ShiftRight(dst, a, 1)
	if dst[2] != -2 {
		t.Errorf("ShiftRight kept no sign: %v", dst)
	}
	AndNot(dst, []int32{-1, 0, -1, 0}, a)
	want := []int32{0, 2, 0, 0x7f}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("AndNot[%d]: got %d, want %d", i, dst[i], want[i])
		}
	}
	MinScalar(dst, a, 1)
	want = []int32{1, 1, -4, 1}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("MinScalar[%d]: got %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestIota(t *testing.T) {
	dst := make([]int32, 8)
	Iota(dst)
	for i := range dst {
		if dst[i] != int32(i) {
			t.Errorf("Iota[%d] = %d", i, dst[i])
		}
	}
}

func TestMaxLanes(t *testing.T) {
	n := MaxLanes()
	if n != 4 && n != 8 {
		t.Fatalf("MaxLanes() = %d, want 4 or 8", n)
	}
}
