package rpn

import (
	"fmt"
	"strconv"
	"strings"
)

type opKind uint8

const (
	opPushLiteral opKind = iota
	opPushRegister
	opCode
)

type instruction struct {
	kind opKind
	lit  Value
	reg  int
	code string
}

// Expression is a compiled, opaque token stream ready for repeated
// evaluation against different contexts.
type Expression struct {
	prog []instruction
}

var knownOpcodes = map[string]struct{}{
	"eq": {}, "ne": {}, "lt": {}, "gt": {}, "le": {}, "ge": {},
	"add": {}, "sub": {}, "mul": {}, "div": {},
	"and": {}, "or": {}, "not": {},
	"concat": {}, "f": {}, "mkset": {}, "union": {}, "in": {},
}

// Compile parses a whitespace-separated token stream into an Expression.
// Token grammar: a double-quoted string literal, a bare numeric literal, a
// register reference "#0".."#9", the literals "true"/"false", or a bare
// opcode name. Compilation fails on malformed literals (ErrCompilationFailed,
// wrapping the detail) or an unrecognized bare word (ErrIllegalOpcode).
func Compile(src string) (*Expression, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompilationFailed, err)
	}
	prog := make([]instruction, 0, len(toks))
	for _, tok := range toks {
		ins, err := compileToken(tok)
		if err != nil {
			return nil, err
		}
		prog = append(prog, ins)
	}
	return &Expression{prog: prog}, nil
}

func compileToken(tok string) (instruction, error) {
	switch {
	case strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && len(tok) >= 2:
		return instruction{kind: opPushLiteral, lit: stringVal(tok[1 : len(tok)-1])}, nil
	case strings.HasPrefix(tok, "#"):
		n, err := strconv.Atoi(tok[1:])
		if err != nil || n < 0 || n > 9 {
			return instruction{}, fmt.Errorf("%w: bad register %q", ErrCompilationFailed, tok)
		}
		return instruction{kind: opPushRegister, reg: n}, nil
	case tok == "true":
		return instruction{kind: opPushLiteral, lit: boolVal(true)}, nil
	case tok == "false":
		return instruction{kind: opPushLiteral, lit: boolVal(false)}, nil
	default:
		if d, err := strconv.ParseFloat(tok, 64); err == nil {
			return instruction{kind: opPushLiteral, lit: doubleVal(d)}, nil
		}
		if _, ok := knownOpcodes[tok]; ok {
			return instruction{kind: opCode, code: tok}, nil
		}
		return instruction{}, fmt.Errorf("%w: %q", ErrIllegalOpcode, tok)
	}
}

func tokenize(src string) ([]string, error) {
	var toks []string
	var b strings.Builder
	inQuote := false
	flush := func() {
		if b.Len() > 0 {
			toks = append(toks, b.String())
			b.Reset()
		}
	}
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == ' ' && !inQuote:
			flush()
		default:
			b.WriteByte(c)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated string literal")
	}
	flush()
	return toks, nil
}
