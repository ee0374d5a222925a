//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"

	"github.com/markkurossi/yaovm/ot"
)

// GarbleWire is the garbler's view of a wire. It stores the zero
// label L0; the one label is L0 ⊕ Δ.
type GarbleWire struct {
	L0 ot.Label
}

func (w GarbleWire) String() string {
	return fmt.Sprintf("G%s", w.L0)
}

// L1 returns the wire's one label.
func (w GarbleWire) L1(delta ot.Label) ot.Label {
	l := w.L0
	l.Xor(delta)
	return l
}

// Label returns the wire label for the bit value.
func (w GarbleWire) Label(bit bool, delta ot.Label) ot.Label {
	if bit {
		return w.L1(delta)
	}
	return w.L0
}

// Permute returns the wire's permute bit; the point-and-permute bit
// of L0. The external value of a wire is its plain value xor the
// permute bit.
func (w GarbleWire) Permute() bool {
	return w.L0.LSB()
}

// Xor returns the free-XOR of the wires.
func (w GarbleWire) Xor(o GarbleWire) GarbleWire {
	w.L0.Xor(o.L0)
	return w
}

// EvalWire is the evaluator's view of a wire. It holds exactly one
// of the wire's labels.
type EvalWire struct {
	L ot.Label
}

func (w EvalWire) String() string {
	return fmt.Sprintf("E%s", w.L)
}

// External returns the wire's external value; the point-and-permute
// bit of the held label.
func (w EvalWire) External() bool {
	return w.L.LSB()
}

// Xor returns the free-XOR of the wires.
func (w EvalWire) Xor(o EvalWire) EvalWire {
	w.L.Xor(o.L)
	return w
}
