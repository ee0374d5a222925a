//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vm

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

type labelRef struct {
	pc   int
	arg  int
	line int
	name string
}

// Parse parses the program assembly from the reader. The assembly
// has one instruction per line. A '#' starts a comment that runs to
// the end of the line. Lines may start with a label definition
// "name:", and jump offsets can be given as numbers or as label
// names.
func Parse(in io.Reader) (*Program, error) {
	var code []Instr
	var refs []labelRef
	labels := make(map[string]int)

	scanner := bufio.NewScanner(in)
	var line int
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if idx := strings.IndexByte(text, '#'); idx >= 0 {
			text = text[:idx]
		}
		fields := strings.Fields(text)
		for len(fields) > 0 && strings.HasSuffix(fields[0], ":") {
			name := strings.TrimSuffix(fields[0], ":")
			if !isLabel(name) {
				return nil, errors.Wrapf(ErrInvalidProgram,
					"line %d: invalid label '%s'", line, name)
			}
			if _, ok := labels[name]; ok {
				return nil, errors.Wrapf(ErrInvalidProgram,
					"line %d: label '%s' redefined", line, name)
			}
			labels[name] = len(code)
			fields = fields[1:]
		}
		if len(fields) == 0 {
			continue
		}
		op, ok := mnemonics[strings.ToLower(fields[0])]
		if !ok {
			return nil, errors.Wrapf(ErrInvalidProgram,
				"line %d: unknown instruction '%s'", line, fields[0])
		}
		sig := op.Signature()
		if !sig.Arity(len(fields) - 1) {
			return nil, errors.Wrapf(ErrInvalidProgram,
				"line %d: %s: invalid number of operands %d, expected %s",
				line, op, len(fields)-1, sig)
		}
		instr := Instr{
			Op:   op,
			Line: line,
		}
		for i, f := range fields[1:] {
			kind := sig.Kind(i)
			if kind == KindOffset && isLabel(f) {
				refs = append(refs, labelRef{
					pc:   len(code),
					arg:  i,
					line: line,
					name: f,
				})
				instr.Args = append(instr.Args, 0)
				continue
			}
			v, err := parseOperand(kind, f)
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidProgram,
					"line %d: %s: %s", line, op, err)
			}
			instr.Args = append(instr.Args, v)
		}
		code = append(code, instr)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for _, ref := range refs {
		target, ok := labels[ref.name]
		if !ok {
			return nil, errors.Wrapf(ErrInvalidProgram,
				"line %d: undefined label '%s'", ref.line, ref.name)
		}
		code[ref.pc].Args[ref.arg] = int64(target - ref.pc)
	}

	return NewProgram(code)
}

func isLabel(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func parseOperand(kind Kind, f string) (int64, error) {
	var prefix byte
	switch kind {
	case KindS:
		prefix = 's'
	case KindC:
		prefix = 'c'
	case KindI:
		prefix = 'i'
	}
	if prefix != 0 {
		if len(f) < 2 || f[0] != prefix {
			return 0, errors.Newf("expected %s, got '%s'", kind, f)
		}
		v, err := strconv.ParseInt(f[1:], 10, 32)
		if err != nil {
			return 0, errors.Newf("invalid %s '%s'", kind, f)
		}
		return v, nil
	}
	v, err := strconv.ParseInt(f, 0, 64)
	if err == nil {
		return v, nil
	}
	if kind == KindImm {
		u, err := strconv.ParseUint(f, 0, 64)
		if err == nil {
			return int64(u), nil
		}
	}
	return 0, errors.Newf("invalid %s '%s'", kind, f)
}
