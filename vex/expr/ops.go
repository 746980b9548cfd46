// Package expr compiles whitespace-separated RPN pixel expressions into
// vectorized routines over video plane rows.
//
// An expression is evaluated independently at every pixel coordinate of
// an output plane. Operands are pushed on a stack; operators pop their
// arguments and push one result. The compiler tracks int-vs-float per
// stack slot, inserts conversions only where semantics require them, and
// emits a flat step program executed by a doubly nested row/column loop
// (see Proc and Compile).
package expr

import "math"

// OpType enumerates the operator kinds of the expression language.
type OpType int

const (
	// Terminals.
	OpMemLoad OpType = iota
	OpConstant
	OpLoadConst

	// Arithmetic primitives.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpSqrt
	OpAbs
	OpMax
	OpMin
	OpCmp

	// Integer conversions.
	OpTrunc
	OpRound
	OpFloor

	// Logical operators.
	OpAnd
	OpOr
	OpXor
	OpNot

	// Transcendental functions.
	OpExp
	OpLog
	OpPow
	OpSin
	OpCos

	// Ternary operator.
	OpTernary

	// Stack helpers.
	OpDup
	OpSwap

	numOpTypes
)

var opNames = [numOpTypes]string{
	"memload", "const", "loadconst",
	"add", "sub", "mul", "div", "mod", "sqrt", "abs", "max", "min", "cmp",
	"trunc", "round", "floor",
	"and", "or", "xor", "not",
	"exp", "log", "pow", "sin", "cos",
	"ternary",
	"dup", "swap",
}

// String returns the mnemonic of the op type.
func (t OpType) String() string {
	if t < 0 || t >= numOpTypes {
		return "invalid"
	}
	return opNames[t]
}

// numOperands gives each op type's arity. Terminals and stack helpers
// consume nothing; dup/swap depth is validated separately against the
// immediate.
var numOperands = [numOpTypes]int{
	0, // memload
	0, // const
	0, // loadconst
	2, // add
	2, // sub
	2, // mul
	2, // div
	2, // mod
	1, // sqrt
	1, // abs
	2, // max
	2, // min
	2, // cmp
	1, // trunc
	1, // round
	1, // floor
	2, // and
	2, // or
	2, // xor
	1, // not
	1, // exp
	1, // log
	2, // pow
	1, // sin
	1, // cos
	3, // ternary
	0, // dup
	0, // swap
}

// Comparison codes carried in the immediate of an OpCmp. The encodings
// match the hardware predicate numbering: ">" lowers to NLE and ">=" to
// NLT so NaN operands compare the way the vector units do.
type Comparison uint32

const (
	CmpEQ  Comparison = 0
	CmpLT  Comparison = 1
	CmpLE  Comparison = 2
	CmpNEQ Comparison = 4
	CmpNLT Comparison = 5
	CmpNLE Comparison = 6
)

// Special OpLoadConst immediates. Values at and above loadConstLast are
// frame-property slots; below it they select the frame number and the
// pixel coordinates.
const (
	loadConstN    = 0
	loadConstX    = 1
	loadConstY    = 2
	loadConstLast = 3
)

// constIndexLast is the number of reserved slots at the front of the
// per-frame constants buffer (slot 0: frame number). Property values
// follow it.
const constIndexLast = 1

// Imm is the 32-bit immediate payload of an Op, interpreted per op kind
// as signed int, unsigned int or float.
type Imm struct {
	bits uint32
}

// ImmInt builds an immediate from a signed integer.
func ImmInt(i int32) Imm { return Imm{bits: uint32(i)} }

// ImmUint builds an immediate from an unsigned integer.
func ImmUint(u uint32) Imm { return Imm{bits: u} }

// ImmFloat builds an immediate from a float.
func ImmFloat(f float32) Imm { return Imm{bits: math.Float32bits(f)} }

// Int returns the immediate as a signed integer.
func (m Imm) Int() int32 { return int32(m.bits) }

// Uint returns the immediate as an unsigned integer.
func (m Imm) Uint() uint32 { return m.bits }

// Float returns the immediate as a float.
func (m Imm) Float() float32 { return math.Float32frombits(m.bits) }

// Op is one decoded expression operator. Name is set only for
// frame-property loads. Equality is structural over all three fields.
type Op struct {
	Type OpType
	Imm  Imm
	Name string
}
