//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//
// Two Halves Make a Whole - Reducing Data Transfer in Garbled Circuits
// using Half Gates
//  - https://eprint.iacr.org/2014/756.pdf

package circuit

import (
	"github.com/markkurossi/yaovm/ot"
)

// TableSize is the size of a garbled AND table in bytes: the
// generator half TG followed by the evaluator half TE.
const TableSize = 32

// GarbleAnd garbles the AND gate with input wires a and b and gate
// counter t. The function writes the gate table into table[:TableSize]
// and returns the output wire.
func GarbleAnd(a, b GarbleWire, delta ot.Label, t uint64,
	table []byte) GarbleWire {

	pa := a.Permute()
	pb := b.Permute()

	a1 := a.L1(delta)
	b1 := b.L1(delta)

	j0 := t << 1
	j1 := j0 | 1

	ha0 := Hash(a.L0, j0)
	ha1 := Hash(a1, j0)
	hb0 := Hash(b.L0, j1)
	hb1 := Hash(b1, j1)

	// Generator half-gate.
	tg := ha0
	tg.Xor(ha1)
	tg.XorIf(delta, pb)

	wg := ha0
	wg.XorIf(tg, pa)

	// Evaluator half-gate.
	te := hb0
	te.Xor(hb1)
	te.Xor(a.L0)

	we := hb0
	if pb {
		we.Xor(te)
		we.Xor(a.L0)
	}

	ot.PutLabel(table[0:], tg)
	ot.PutLabel(table[16:], te)

	wg.Xor(we)
	return GarbleWire{
		L0: wg,
	}
}

// EvalAnd evaluates the AND gate with input wires a and b, gate
// counter t, and the gate table.
func EvalAnd(a, b EvalWire, t uint64, table []byte) EvalWire {
	j0 := t << 1
	j1 := j0 | 1

	tg := ot.GetLabel(table[0:])
	te := ot.GetLabel(table[16:])

	wg := Hash(a.L, j0)
	wg.XorIf(tg, a.External())

	we := Hash(b.L, j1)
	if b.External() {
		we.Xor(te)
		we.Xor(a.L)
	}

	wg.Xor(we)
	return EvalWire{
		L: wg,
	}
}
