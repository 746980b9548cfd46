package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// tokenize splits an expression on ASCII whitespace. Empty runs produce
// no token; there is no quoting or escaping.
func tokenize(src string) []string {
	return strings.FieldsFunc(src, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\v', '\f', '\r':
			return true
		}
		return false
	})
}

var simpleTokens = map[string]Op{
	"+":     {Type: OpAdd},
	"-":     {Type: OpSub},
	"*":     {Type: OpMul},
	"/":     {Type: OpDiv},
	"%":     {Type: OpMod},
	"sqrt":  {Type: OpSqrt},
	"abs":   {Type: OpAbs},
	"max":   {Type: OpMax},
	"min":   {Type: OpMin},
	"<":     {Type: OpCmp, Imm: ImmUint(uint32(CmpLT))},
	">":     {Type: OpCmp, Imm: ImmUint(uint32(CmpNLE))},
	"=":     {Type: OpCmp, Imm: ImmUint(uint32(CmpEQ))},
	">=":    {Type: OpCmp, Imm: ImmUint(uint32(CmpNLT))},
	"<=":    {Type: OpCmp, Imm: ImmUint(uint32(CmpLE))},
	"trunc": {Type: OpTrunc},
	"round": {Type: OpRound},
	"floor": {Type: OpFloor},
	"and":   {Type: OpAnd},
	"or":    {Type: OpOr},
	"xor":   {Type: OpXor},
	"not":   {Type: OpNot},
	"?":     {Type: OpTernary},
	"exp":   {Type: OpExp},
	"log":   {Type: OpLog},
	"pow":   {Type: OpPow},
	"sin":   {Type: OpSin},
	"cos":   {Type: OpCos},
	"dup":   {Type: OpDup, Imm: ImmInt(0)},
	"swap":  {Type: OpSwap, Imm: ImmInt(1)},
	"pi":    {Type: OpConstant, Imm: ImmFloat(math.Pi)},
	"N":     {Type: OpLoadConst, Imm: ImmInt(loadConstN)},
	"X":     {Type: OpLoadConst, Imm: ImmInt(loadConstX)},
	"Y":     {Type: OpLoadConst, Imm: ImmInt(loadConstY)},
}

// clipIndex maps a source letter to its clip index: x, y, z are the
// first three inputs, then a through w continue from index 3.
func clipIndex(c byte) int32 {
	if c >= 'x' {
		return int32(c - 'x')
	}
	return int32(c-'a') + 3
}

// decodeToken maps one token to its Op. Decoding is strict: numeric
// parses must consume the whole token and unknown tokens are errors.
func decodeToken(tok string) (Op, error) {
	if op, ok := simpleTokens[tok]; ok {
		return op, nil
	}
	if len(tok) == 1 && tok[0] >= 'a' && tok[0] <= 'z' {
		return Op{Type: OpMemLoad, Imm: ImmInt(clipIndex(tok[0]))}, nil
	}
	if strings.HasPrefix(tok, "dup") || strings.HasPrefix(tok, "swap") {
		prefix := 3
		typ := OpDup
		if tok[0] == 's' {
			prefix = 4
			typ = OpSwap
		}
		idx, err := strconv.ParseInt(tok[prefix:], 10, 32)
		if err != nil || idx < 0 {
			return Op{}, fmt.Errorf("illegal token: %s", tok)
		}
		return Op{Type: typ, Imm: ImmInt(int32(idx))}, nil
	}
	if len(tok) >= 3 && tok[0] >= 'a' && tok[0] <= 'z' && tok[1] == '.' {
		// Frame property access: clip letter, dot, property name.
		return Op{
			Type: OpLoadConst,
			Imm:  ImmInt(loadConstLast + clipIndex(tok[0])),
			Name: tok[2:],
		}, nil
	}
	f, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return Op{}, fmt.Errorf("failed to convert '%s' to float", tok)
	}
	return Op{Type: OpConstant, Imm: ImmFloat(float32(f))}, nil
}

// decode tokenizes src and decodes every token.
func decode(src string) ([]string, []Op, error) {
	tokens := tokenize(src)
	ops := make([]Op, 0, len(tokens))
	for _, tok := range tokens {
		op, err := decodeToken(tok)
		if err != nil {
			return nil, nil, err
		}
		ops = append(ops, op)
	}
	return tokens, ops, nil
}
