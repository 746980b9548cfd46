package expr

import (
	"fmt"
	"math"

	"github.com/ajroetker/go-pixelexpr/vex"
)

// SampleType distinguishes integer and floating-point pixel samples.
type SampleType int

const (
	SampleInt SampleType = iota
	SampleFloat
)

// PixelFormat describes the sample layout of one plane.
type PixelFormat struct {
	SampleType     SampleType
	BitsPerSample  int
	BytesPerSample int
}

// Option bits accepted by Compile.
const (
	// FlagUseInteger keeps integer arithmetic on integer sources. When
	// clear, integer pixel loads are promoted to float immediately
	// after load.
	FlagUseInteger = 1 << 0
)

// value is one compile-time stack entry: which register slot holds it,
// whether that slot is one of the read-only broadcast slots, the numeric
// family, and whether it originated as a literal immediate.
type value struct {
	idx     int
	ro      bool
	isFloat bool
	literal bool
}

// compiler lowers a decoded op stream into a step program. Stack slots
// are virtual registers addressed by stack depth; literals, the frame
// number, the coordinates and property values live in separate read-only
// broadcast slots so they are materialized once per invocation, row or
// column step instead of per pixel.
type compiler struct {
	src       string
	tokens    []string
	ops       []Op
	vo        PixelFormat
	vi        []PixelFormat
	numInputs int
	opt       int

	prog  *program
	stack []value

	// Read-only slot interning.
	constSlots map[uint64]int // literal broadcasts, keyed by bits and family
	nSlot      int
	xSlot      int
	ySlot      int
	propSlots  map[int32]int
}

func (c *compiler) forceFloat() bool { return c.opt&FlagUseInteger == 0 }

// newROSlot allocates a read-only broadcast slot.
func (c *compiler) newROSlot() int {
	n := c.prog.roSlots
	c.prog.roSlots++
	return n
}

func (c *compiler) push(v value) {
	c.stack = append(c.stack, v)
	if len(c.stack) > c.prog.stackSlots {
		c.prog.stackSlots = len(c.stack)
	}
}

func (c *compiler) pop() value {
	v := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return v
}

// intReg and floatReg resolve a value's register at run time.
func intReg(st *state, v value) []int32 {
	if v.ro {
		return st.cri[v.idx]
	}
	return st.ri[v.idx]
}

func floatReg(st *state, v value) []float32 {
	if v.ro {
		return st.crf[v.idx]
	}
	return st.rf[v.idx]
}

// literalSlot interns a literal broadcast, materialized once per
// invocation.
func (c *compiler) literalSlot(bits uint32, isFloat bool) int {
	key := uint64(bits)
	if isFloat {
		key |= 1 << 32
	}
	if s, ok := c.constSlots[key]; ok {
		return s
	}
	s := c.newROSlot()
	c.constSlots[key] = s
	if isFloat {
		f := math.Float32frombits(bits)
		c.prog.setup = append(c.prog.setup, func(st *state) {
			vex.Fill(st.crf[s], f)
		})
	} else {
		n := int32(bits)
		c.prog.setup = append(c.prog.setup, func(st *state) {
			vex.Fill(st.cri[s], n)
		})
	}
	return s
}

// ensureFloat returns a value known to live in a float register,
// emitting a conversion into the float side of tmpSlot when the operand
// is an int. tmpSlot must be a writable stack slot that is free at this
// point in the program.
func (c *compiler) ensureFloat(v value, tmpSlot int) value {
	if v.isFloat {
		return v
	}
	src := v
	c.body(func(st *state) {
		vex.ToFloat(st.rf[tmpSlot], intReg(st, src))
	})
	return value{idx: tmpSlot, isFloat: true}
}

func (c *compiler) body(s step) {
	c.prog.bodySteps = append(c.prog.bodySteps, s)
}

// lower walks the op stream and emits the step program.
func (c *compiler) lower() error {
	for i := range c.ops {
		if err := c.lowerOp(i); err != nil {
			return err
		}
	}

	if len(c.stack) == 0 {
		return fmt.Errorf("empty expression: %s", c.src)
	}
	if len(c.stack) > 1 {
		return fmt.Errorf("unconsumed values on stack: %s", c.src)
	}
	return c.lowerStore(c.stack[0])
}

func (c *compiler) lowerOp(i int) error {
	tok := c.tokens[i]
	op := c.ops[i]

	// Validity checks before any step is emitted.
	if op.Type == OpMemLoad && int(op.Imm.Int()) >= c.numInputs {
		return fmt.Errorf("reference to undefined clip: %s", tok)
	}
	if (op.Type == OpDup || op.Type == OpSwap) && int(op.Imm.Uint()) >= len(c.stack) {
		return fmt.Errorf("insufficient values on stack: %s", tok)
	}
	if len(c.stack) < numOperands[op.Type] {
		return fmt.Errorf("insufficient values on stack: %s", tok)
	}

	switch op.Type {
	case OpDup:
		return c.lowerDup(int(op.Imm.Uint()))
	case OpSwap:
		c.lowerSwap(int(op.Imm.Uint()))
		return nil
	case OpMemLoad:
		return c.lowerMemLoad(int(op.Imm.Int()))
	case OpConstant:
		c.lowerConstant(op.Imm.Float())
		return nil
	case OpLoadConst:
		return c.lowerLoadConst(int(op.Imm.Int()))

	case OpAdd:
		c.lowerBinary(vex.Add[float32], vex.Add[int32], false)
	case OpSub:
		c.lowerBinary(vex.Sub[float32], vex.Sub[int32], false)
	case OpMul:
		c.lowerBinary(vex.Mul[float32], vex.Mul[int32], false)
	case OpDiv:
		c.lowerBinaryFloat(vex.Div)
	case OpMod:
		c.lowerBinaryFloat(vex.Mod)
	case OpMax:
		c.lowerBinary(vex.Max[float32], vex.Max[int32], c.forceFloat())
	case OpMin:
		c.lowerBinary(vex.Min[float32], vex.Min[int32], c.forceFloat())

	case OpSqrt:
		x := c.ensureFloat(c.pop(), len(c.stack))
		d := len(c.stack)
		c.body(func(st *state) {
			vex.MaxScalar(st.rf[d], floatReg(st, x), 0)
			vex.Sqrt(st.rf[d], st.rf[d])
		})
		c.push(value{idx: d, isFloat: true})

	case OpAbs:
		c.lowerAbs()

	case OpCmp:
		c.lowerCmp(Comparison(op.Imm.Uint()))

	case OpAnd:
		c.lowerLogic(vex.And)
	case OpOr:
		c.lowerLogic(vex.Or)
	case OpXor:
		c.lowerLogic(vex.Xor)
	case OpNot:
		x := c.pop()
		d := len(c.stack)
		c.body(func(st *state) {
			if x.isFloat {
				vex.CmpLEZero(st.ri[d], floatReg(st, x))
			} else {
				vex.CmpLEZero(st.ri[d], intReg(st, x))
			}
			vex.AndScalar(st.ri[d], st.ri[d], 1)
		})
		c.push(value{idx: d})

	case OpTrunc:
		c.lowerUnaryFloat(vex.Trunc)
	case OpRound:
		c.lowerUnaryFloat(vex.Round)
	case OpFloor:
		c.lowerUnaryFloat(vex.Floor)

	case OpExp:
		c.lowerUnaryFloat(func(dst, src []float32) { Exp(dst, src) })
	case OpLog:
		c.lowerUnaryFloat(func(dst, src []float32) { Log(dst, src) })
	case OpSin:
		c.lowerUnaryFloat(func(dst, src []float32) { Sin(dst, src) })
	case OpCos:
		c.lowerUnaryFloat(func(dst, src []float32) { Cos(dst, src) })

	case OpPow:
		c.lowerPow()

	case OpTernary:
		c.lowerTernary()
	}
	return nil
}

func (c *compiler) lowerDup(n int) error {
	src := c.stack[len(c.stack)-1-n]
	if src.ro {
		c.push(src)
		return nil
	}
	d := len(c.stack)
	if src.isFloat {
		c.body(func(st *state) { vex.Copy(st.rf[d], st.rf[src.idx]) })
	} else {
		c.body(func(st *state) { vex.Copy(st.ri[d], st.ri[src.idx]) })
	}
	c.push(value{idx: d, isFloat: src.isFloat, literal: src.literal})
	return nil
}

func (c *compiler) lowerSwap(n int) {
	if n == 0 {
		return
	}
	a := len(c.stack) - 1
	b := a - n
	va, vb := c.stack[a], c.stack[b]
	switch {
	case va.ro && vb.ro:
		// Broadcast slots are never written by ops; exchanging the
		// records is enough.
	case !va.ro && !vb.ro:
		// Exchange the register buffers themselves; the records keep
		// their positional slots but trade tags.
		c.body(func(st *state) {
			st.ri[a], st.ri[b] = st.ri[b], st.ri[a]
			st.rf[a], st.rf[b] = st.rf[b], st.rf[a]
		})
		va.idx, vb.idx = b, a
	case va.ro:
		// vb moves up to slot a; copy its lanes there.
		src := vb
		if src.isFloat {
			c.body(func(st *state) { vex.Copy(st.rf[a], st.rf[src.idx]) })
		} else {
			c.body(func(st *state) { vex.Copy(st.ri[a], st.ri[src.idx]) })
		}
		vb.idx = a
	default:
		src := va
		if src.isFloat {
			c.body(func(st *state) { vex.Copy(st.rf[b], st.rf[src.idx]) })
		} else {
			c.body(func(st *state) { vex.Copy(st.ri[b], st.ri[src.idx]) })
		}
		va.idx = b
	}
	c.stack[a], c.stack[b] = vb, va
}

func (c *compiler) lowerMemLoad(clip int) error {
	format := c.vi[clip]
	d := len(c.stack)
	row := clip + 1

	switch format.SampleType {
	case SampleInt:
		switch format.BytesPerSample {
		case 1:
			c.body(func(st *state) { vex.LoadU8(st.ri[d], st.rows[row], st.x) })
		case 2:
			c.body(func(st *state) { vex.LoadU16(st.ri[d], st.rows[row], st.x) })
		default:
			// Unreachable past format validation, but a silent
			// uninitialized register would be worse than an error.
			return fmt.Errorf("unsupported integer sample width: %d bytes", format.BytesPerSample)
		}
		if c.forceFloat() {
			c.body(func(st *state) { vex.ToFloat(st.rf[d], st.ri[d]) })
			c.push(value{idx: d, isFloat: true})
		} else {
			c.push(value{idx: d})
		}
	case SampleFloat:
		switch format.BytesPerSample {
		case 4:
			c.body(func(st *state) { vex.LoadF32(st.rf[d], st.rows[row], st.x) })
		default:
			return fmt.Errorf("16-bit float input is not supported")
		}
		c.push(value{idx: d, isFloat: true})
	}
	return nil
}

func (c *compiler) lowerConstant(f float32) {
	if isExactInt(f) {
		s := c.literalSlot(uint32(int32(f)), false)
		c.push(value{idx: s, ro: true, literal: true})
	} else {
		s := c.literalSlot(math.Float32bits(f), true)
		c.push(value{idx: s, ro: true, isFloat: true, literal: true})
	}
}

// isExactInt reports whether f is exactly representable as an int32, the
// condition under which a literal keeps integer arithmetic.
func isExactInt(f float32) bool {
	return f == float32(math.Trunc(float64(f))) && f >= math.MinInt32 && f < 1<<31
}

func (c *compiler) lowerLoadConst(imm int) error {
	switch imm {
	case loadConstN:
		if c.nSlot < 0 {
			c.nSlot = c.newROSlot()
			s := c.nSlot
			c.prog.setup = append(c.prog.setup, func(st *state) {
				vex.Fill(st.cri[s], int32(math.Float32bits(st.consts[0])))
			})
		}
		c.push(value{idx: c.nSlot, ro: true})
	case loadConstY:
		if c.ySlot < 0 {
			c.ySlot = c.newROSlot()
			s := c.ySlot
			c.prog.rowSteps = append(c.prog.rowSteps, func(st *state) {
				vex.Fill(st.cri[s], int32(st.y))
			})
		}
		c.push(value{idx: c.ySlot, ro: true})
	case loadConstX:
		if c.xSlot < 0 {
			c.xSlot = c.newROSlot()
			s := c.xSlot
			// The ramp changes every column step, so the fill is a
			// body step ordered before the first use.
			c.body(func(st *state) {
				base := int32(st.x)
				dst := st.cri[s]
				for i := range dst {
					dst[i] = base + int32(i)
				}
			})
		}
		c.push(value{idx: c.xSlot, ro: true})
	default:
		// Property slot; the resolver has already rewritten the
		// immediate to a dense index.
		s, ok := c.propSlots[int32(imm)]
		if !ok {
			s = c.newROSlot()
			c.propSlots[int32(imm)] = s
			ci := imm - loadConstLast + constIndexLast
			c.prog.setup = append(c.prog.setup, func(st *state) {
				vex.Fill(st.crf[s], st.consts[ci])
			})
		}
		c.push(value{idx: s, ro: true, isFloat: true})
	}
	return nil
}

// lowerBinary emits a type-propagating binary op: float if either
// operand is float, integer otherwise unless forceFloat promotes both.
func (c *compiler) lowerBinary(fop func(dst, a, b []float32), iop func(dst, a, b []int32), forceFloat bool) {
	r := c.pop()
	l := c.pop()
	d := len(c.stack)
	if l.isFloat || r.isFloat || forceFloat {
		lf := c.ensureFloat(l, d)
		rf := c.ensureFloat(r, d+1)
		c.body(func(st *state) {
			fop(st.rf[d], floatReg(st, lf), floatReg(st, rf))
		})
		c.push(value{idx: d, isFloat: true})
	} else {
		c.body(func(st *state) {
			iop(st.ri[d], intReg(st, l), intReg(st, r))
		})
		c.push(value{idx: d})
	}
}

// lowerBinaryFloat emits a binary op that always computes in float.
func (c *compiler) lowerBinaryFloat(fop func(dst, a, b []float32)) {
	r := c.pop()
	l := c.pop()
	d := len(c.stack)
	lf := c.ensureFloat(l, d)
	rf := c.ensureFloat(r, d+1)
	c.body(func(st *state) {
		fop(st.rf[d], floatReg(st, lf), floatReg(st, rf))
	})
	c.push(value{idx: d, isFloat: true})
}

// lowerUnaryFloat emits a unary op that always computes in float.
func (c *compiler) lowerUnaryFloat(fop func(dst, src []float32)) {
	x := c.ensureFloat(c.pop(), len(c.stack))
	d := len(c.stack)
	c.body(func(st *state) {
		fop(st.rf[d], floatReg(st, x))
	})
	c.push(value{idx: d, isFloat: true})
}

// lowerAbs preserves the operand type unless force-float mode promotes
// integer operands.
func (c *compiler) lowerAbs() {
	x := c.pop()
	d := len(c.stack)
	switch {
	case x.isFloat:
		c.body(func(st *state) { vex.Abs(st.rf[d], floatReg(st, x)) })
		c.push(value{idx: d, isFloat: true})
	case c.forceFloat():
		xf := c.ensureFloat(x, d)
		c.body(func(st *state) { vex.Abs(st.rf[d], floatReg(st, xf)) })
		c.push(value{idx: d, isFloat: true})
	default:
		c.body(func(st *state) { vex.Abs(st.ri[d], intReg(st, x)) })
		c.push(value{idx: d})
	}
}

func cmpKernel[T vex.Num](code Comparison) func(dst []int32, a, b []T) {
	switch code {
	case CmpEQ:
		return vex.CmpEQ[T]
	case CmpLT:
		return vex.CmpLT[T]
	case CmpLE:
		return vex.CmpLE[T]
	case CmpNEQ:
		return vex.CmpNEQ[T]
	case CmpNLT:
		return vex.CmpNLT[T]
	default:
		return vex.CmpNLE[T]
	}
}

// lowerCmp produces a 0/1 int vector: the comparison mask masked down to
// its low bit.
func (c *compiler) lowerCmp(code Comparison) {
	r := c.pop()
	l := c.pop()
	d := len(c.stack)
	if l.isFloat || r.isFloat {
		lf := c.ensureFloat(l, d)
		rf := c.ensureFloat(r, d+1)
		k := cmpKernel[float32](code)
		c.body(func(st *state) {
			k(st.ri[d], floatReg(st, lf), floatReg(st, rf))
			vex.AndScalar(st.ri[d], st.ri[d], 1)
		})
	} else {
		k := cmpKernel[int32](code)
		c.body(func(st *state) {
			k(st.ri[d], intReg(st, l), intReg(st, r))
			vex.AndScalar(st.ri[d], st.ri[d], 1)
		})
	}
	c.push(value{idx: d})
}

// lowerLogic interprets each operand's truth as operand > 0, combines
// the masks bitwise and keeps the low bit.
func (c *compiler) lowerLogic(bop func(dst, a, b []int32)) {
	r := c.pop()
	l := c.pop()
	d := len(c.stack)
	c.body(func(st *state) {
		if l.isFloat {
			vex.CmpGTZero(st.ri[d], floatReg(st, l))
		} else {
			vex.CmpGTZero(st.ri[d], intReg(st, l))
		}
		if r.isFloat {
			vex.CmpGTZero(st.ri[d+1], floatReg(st, r))
		} else {
			vex.CmpGTZero(st.ri[d+1], intReg(st, r))
		}
		bop(st.ri[d], st.ri[d], st.ri[d+1])
		vex.AndScalar(st.ri[d], st.ri[d], 1)
	})
	c.push(value{idx: d})
}

// lowerPow uses the scalar pow builtin when the exponent is a literal,
// and the exp/log composition otherwise.
func (c *compiler) lowerPow() {
	r := c.pop()
	l := c.pop()
	d := len(c.stack)
	lf := c.ensureFloat(l, d)
	if r.literal && r.isFloat {
		c.body(func(st *state) {
			dst := st.rf[d]
			base := floatReg(st, lf)
			e := floatReg(st, r)
			for i := range dst {
				dst[i] = float32(math.Pow(float64(base[i]), float64(e[i])))
			}
		})
	} else if r.literal {
		c.body(func(st *state) {
			dst := st.rf[d]
			base := floatReg(st, lf)
			e := intReg(st, r)
			for i := range dst {
				dst[i] = float32(math.Pow(float64(base[i]), float64(e[i])))
			}
		})
	} else {
		rf := c.ensureFloat(r, d+1)
		c.body(func(st *state) {
			Pow(st.rf[d], floatReg(st, lf), floatReg(st, rf))
		})
	}
	c.push(value{idx: d, isFloat: true})
}

// lowerTernary selects t where c > 0 and f elsewhere via a bitwise blend
// of the lane representations.
func (c *compiler) lowerTernary() {
	f := c.pop()
	t := c.pop()
	cond := c.pop()
	d := len(c.stack)

	if t.isFloat || f.isFloat {
		tf := c.ensureFloat(t, d+1)
		ff := c.ensureFloat(f, d+2)
		c.body(func(st *state) {
			if cond.isFloat {
				vex.CmpGTZero(st.ri[d], floatReg(st, cond))
			} else {
				vex.CmpGTZero(st.ri[d], intReg(st, cond))
			}
			vex.BlendFloat(st.rf[d], floatReg(st, tf), floatReg(st, ff), st.ri[d])
		})
		c.push(value{idx: d, isFloat: true})
	} else {
		c.body(func(st *state) {
			if cond.isFloat {
				vex.CmpGTZero(st.ri[d], floatReg(st, cond))
			} else {
				vex.CmpGTZero(st.ri[d], intReg(st, cond))
			}
			vex.BlendInt(st.ri[d], intReg(st, t), intReg(st, f), st.ri[d])
		})
		c.push(value{idx: d})
	}
}

// lowerStore emits the final clamped store of the residual value to the
// output pixel.
func (c *compiler) lowerStore(res value) error {
	switch c.vo.SampleType {
	case SampleInt:
		maxval := int32(1<<uint(c.vo.BitsPerSample) - 1)
		switch c.vo.BytesPerSample {
		case 1:
			if res.isFloat {
				c.body(func(st *state) {
					vex.StoreU8FromFloat(st.rows[0], st.x, floatReg(st, res), maxval)
				})
			} else {
				c.body(func(st *state) {
					vex.StoreU8(st.rows[0], st.x, intReg(st, res), maxval)
				})
			}
		case 2:
			if res.isFloat {
				c.body(func(st *state) {
					vex.StoreU16FromFloat(st.rows[0], st.x, floatReg(st, res), maxval)
				})
			} else {
				c.body(func(st *state) {
					vex.StoreU16(st.rows[0], st.x, intReg(st, res), maxval)
				})
			}
		default:
			return fmt.Errorf("unsupported integer sample width: %d bytes", c.vo.BytesPerSample)
		}
	case SampleFloat:
		switch c.vo.BytesPerSample {
		case 4:
			rv := res
			if !rv.isFloat {
				rv = c.ensureFloat(rv, 0)
			}
			c.body(func(st *state) {
				vex.StoreF32(st.rows[0], st.x, floatReg(st, rv))
			})
		default:
			return fmt.Errorf("16-bit float output is not supported")
		}
	}
	return nil
}
