//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vm

import (
	"github.com/cockroachdb/errors"
	"github.com/markkurossi/yaovm/circuit"
)

// FromCircuit compiles the two-party circuit into a program. The
// first circuit input is the garbler's and the second the
// evaluator's. Each circuit wire maps to the 1-bit secret register
// with the same number. Independent AND gates are collected into
// batched ands instructions and the outputs are revealed and
// returned as results, one result per output argument.
func FromCircuit(c *circuit.Circuit) (*Program, error) {
	if len(c.Inputs) != 2 {
		return nil, errors.Wrapf(ErrInvalidProgram,
			"circuit has %d inputs, expected 2", len(c.Inputs))
	}
	for _, arg := range append(append(circuit.IO{}, c.Inputs...),
		c.Outputs...) {
		if arg.Size < 1 || arg.Size > MaxWidth {
			return nil, errors.Wrapf(ErrInvalidProgram,
				"circuit argument %s: invalid size", arg)
		}
	}

	b := &builder{
		xorOut: make(map[int64]bool),
		andOut: make(map[int64]bool),
		next:   int64(c.NumWires),
	}

	// Inputs.
	var wire int64
	var inputs []int64
	for player, arg := range c.Inputs {
		r := b.temp()
		inputs = append(inputs, int64(player), int64(arg.Size), r)
	}
	b.emit(Inputb, inputs...)
	for i, arg := range c.Inputs {
		args := []int64{inputs[i*3+2]}
		for j := 0; j < arg.Size; j++ {
			args = append(args, wire)
			wire++
		}
		b.emit(Bitdecs, args...)
	}

	for _, g := range c.Gates {
		a := int64(g.Input0)
		o := int64(g.Output)
		switch g.Op {
		case circuit.XOR:
			b.xor(o, a, int64(g.Input1))

		case circuit.XNOR:
			t := b.temp()
			b.xor(t, a, int64(g.Input1))
			b.not(o, t)

		case circuit.AND:
			b.and(o, a, int64(g.Input1))

		case circuit.OR:
			// a|b = (a^b)^(a&b)
			tx := b.temp()
			ta := b.temp()
			b.xor(tx, a, int64(g.Input1))
			b.and(ta, a, int64(g.Input1))
			b.xor(o, tx, ta)

		case circuit.INV:
			b.not(o, a)

		default:
			return nil, errors.Wrapf(ErrInvalidProgram,
				"unsupported gate %s", g.Op)
		}
	}
	b.flushAnds()
	b.flushXors()

	// Outputs.
	wire = int64(c.NumWires - c.Outputs.Size())
	for _, arg := range c.Outputs {
		r := b.temp()
		args := []int64{r}
		for j := 0; j < arg.Size; j++ {
			args = append(args, wire)
			wire++
		}
		b.emit(Bitcoms, args...)

		cr := b.nextClear
		b.nextClear++
		b.emit(Reveal, int64(arg.Size), cr, r)
		b.emit(Result, cr)
	}

	return NewProgram(b.code)
}

type builder struct {
	code      []Instr
	xors      []int64
	ands      []int64
	xorOut    map[int64]bool
	andOut    map[int64]bool
	next      int64
	nextClear int64
}

func (b *builder) temp() int64 {
	r := b.next
	b.next++
	return r
}

func (b *builder) emit(op Opcode, args ...int64) {
	b.code = append(b.code, Instr{
		Op:   op,
		Args: args,
	})
}

func (b *builder) flushXors() {
	if len(b.xors) == 0 {
		return
	}
	b.emit(Xors, b.xors...)
	b.xors = nil
	clear(b.xorOut)
}

func (b *builder) flushAnds() {
	if len(b.ands) == 0 {
		return
	}
	b.emit(Ands, b.ands...)
	b.ands = nil
	clear(b.andOut)
}

// The pending XORs never read the outputs of pending ANDs and the
// pending ANDs never read the outputs of pending XORs.

func (b *builder) xor(d, x, y int64) {
	if b.andOut[x] || b.andOut[y] {
		b.flushAnds()
	}
	b.xors = append(b.xors, 1, d, x, y)
	b.xorOut[d] = true
}

func (b *builder) and(d, x, y int64) {
	if b.xorOut[x] || b.xorOut[y] {
		b.flushXors()
	}
	if b.andOut[x] || b.andOut[y] {
		b.flushAnds()
	}
	b.ands = append(b.ands, 1, d, x, y)
	b.andOut[d] = true
}

func (b *builder) not(d, x int64) {
	if b.andOut[x] {
		b.flushAnds()
	}
	b.flushXors()
	b.emit(Nots, 1, d, x)
}
