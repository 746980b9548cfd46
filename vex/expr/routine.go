package expr

import (
	"fmt"

	"github.com/ajroetker/go-pixelexpr/vex"
)

// Proc is the entry point of a compiled routine. rwptrs holds the
// output plane base first, then one base per input clip; strides are the
// parallel row strides in bytes. consts is the per-frame constants
// buffer: slot 0 reinterpreted as int32 is the frame number, subsequent
// slots carry resolved property values in PropAccess order.
//
// The caller guarantees rows are at least 32-byte aligned and padded so
// every lane block starting below width is addressable.
type Proc func(rwptrs [][]byte, strides []int, consts []float32, width, height int)

// step is one emitted instruction of the lowered program.
type step func(st *state)

// program is the lowered form of one expression: a flat step sequence
// plus the register file geometry it runs on.
type program struct {
	lanes      int
	stackSlots int
	roSlots    int
	numInputs  int

	setup     []step // once per invocation
	rowSteps  []step // once per row
	bodySteps []step // once per lane block
}

// state is the per-invocation execution state. It is created on entry
// and never shared, keeping compiled routines reentrant.
type state struct {
	x, y   int
	rows   [][]byte
	consts []float32

	// Stack registers, one int and one float buffer per slot.
	ri [][]int32
	rf [][]float32

	// Read-only broadcast registers: literals, frame number,
	// coordinates and property values.
	cri [][]int32
	crf [][]float32
}

func newState(p *program) *state {
	st := &state{
		rows: make([][]byte, p.numInputs+1),
		ri:   make([][]int32, p.stackSlots),
		rf:   make([][]float32, p.stackSlots),
		cri:  make([][]int32, p.roSlots),
		crf:  make([][]float32, p.roSlots),
	}
	ibuf := make([]int32, (p.stackSlots+p.roSlots)*p.lanes)
	fbuf := make([]float32, (p.stackSlots+p.roSlots)*p.lanes)
	for i := 0; i < p.stackSlots; i++ {
		st.ri[i] = ibuf[i*p.lanes : (i+1)*p.lanes]
		st.rf[i] = fbuf[i*p.lanes : (i+1)*p.lanes]
	}
	for i := 0; i < p.roSlots; i++ {
		j := p.stackSlots + i
		st.cri[i] = ibuf[j*p.lanes : (j+1)*p.lanes]
		st.crf[i] = fbuf[j*p.lanes : (j+1)*p.lanes]
	}
	return st
}

// Compiled is an immutable compiled expression: the routine entry plus
// the frame properties the invoker must materialize into the constants
// buffer, in order.
type Compiled struct {
	Proc       Proc
	PropAccess []PropAccess
	Lanes      int
	Unroll     int
}

// build wraps the lowered program in the row/column loop with the
// configured lane count and unroll factor.
func build(p *program, unroll int) Proc {
	if unroll < 1 {
		unroll = 1
	}
	lanes := p.lanes
	return func(rwptrs [][]byte, strides []int, consts []float32, width, height int) {
		st := newState(p)
		st.consts = consts
		for _, s := range p.setup {
			s(st)
		}
		block := lanes * unroll
		for y := 0; y < height; y++ {
			st.y = y
			for i := range st.rows {
				st.rows[i] = rwptrs[i][y*strides[i]:]
			}
			for _, s := range p.rowSteps {
				s(st)
			}
			x := 0
			for ; x+block <= width; x += block {
				for k := 0; k < unroll; k++ {
					st.x = x + k*lanes
					for _, s := range p.bodySteps {
						s(st)
					}
				}
			}
			for ; x < width; x += lanes {
				st.x = x
				for _, s := range p.bodySteps {
					s(st)
				}
			}
		}
	}
}

// Compile turns an expression source into a routine for the given output
// and input pixel formats. opt is the option bitmask; see FlagUseInteger.
func Compile(src string, vo PixelFormat, vi []PixelFormat, opt int) (*Compiled, error) {
	tokens, ops, err := decode(src)
	if err != nil {
		return nil, err
	}
	props, err := resolveProps(tokens, ops, len(vi))
	if err != nil {
		return nil, err
	}

	cfg := vex.Active()
	c := &compiler{
		src:        src,
		tokens:     tokens,
		ops:        ops,
		vo:         vo,
		vi:         vi,
		numInputs:  len(vi),
		opt:        opt,
		prog:       &program{lanes: vex.MaxLanes(), numInputs: len(vi)},
		constSlots: make(map[uint64]int),
		propSlots:  make(map[int32]int),
		nSlot:      -1,
		xSlot:      -1,
		ySlot:      -1,
	}
	if err := c.lower(); err != nil {
		return nil, err
	}
	return &Compiled{
		Proc:       build(c.prog, cfg.Unroll),
		PropAccess: props,
		Lanes:      c.prog.lanes,
		Unroll:     cfg.Unroll,
	}, nil
}

// Describe returns a human-readable listing of the decoded ops of src,
// one per line, without compiling. It is a debugging aid for tools.
func Describe(src string) (string, error) {
	_, ops, err := decode(src)
	if err != nil {
		return "", err
	}
	out := ""
	for _, op := range ops {
		switch op.Type {
		case OpConstant:
			out += fmt.Sprintf("%-10s %v\n", op.Type, op.Imm.Float())
		case OpMemLoad, OpLoadConst, OpDup, OpSwap:
			if op.Name != "" {
				out += fmt.Sprintf("%-10s %d %s\n", op.Type, op.Imm.Int(), op.Name)
			} else {
				out += fmt.Sprintf("%-10s %d\n", op.Type, op.Imm.Int())
			}
		case OpCmp:
			out += fmt.Sprintf("%-10s %d\n", op.Type, op.Imm.Uint())
		default:
			out += fmt.Sprintf("%s\n", op.Type)
		}
	}
	return out, nil
}
