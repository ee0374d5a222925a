//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vm

import (
	"github.com/cockroachdb/errors"
)

// ErrInput is returned when a party runs out of input values.
var ErrInput = errors.New("missing input")

// Protocol implements the secret operations of the VM on wires of
// type W.
type Protocol[W any] interface {
	// Public returns a wire carrying the public constant bit.
	Public(bit bool) W

	// Random returns a wire carrying a random bit.
	Random() (W, error)

	// Xor returns the XOR of the wires.
	Xor(a, b W) W

	// Input returns wires for the next n-bit input value of the
	// player; 0 for the garbler and 1 for the evaluator.
	Input(player, n int) ([]W, error)

	// PrepareAnd prepares a batch of n AND gates and returns the
	// batch gate tables, or nil if the protocol has no tables.
	PrepareAnd(n int) ([]byte, error)

	// And computes out[i] = a[i] AND b[i]. The tables hold the
	// tables of the gates and tweak is the gate counter of a[0]. And
	// is called concurrently for disjoint ranges of a batch.
	And(a, b, out []W, tables []byte, tweak uint64) error

	// FinalizeAnd completes the batch of n AND gates.
	FinalizeAnd(n int) error

	// Reveal reveals the value of the wires, bit i of the value from
	// wires[i]. The set function is called with the value when it
	// is known, possibly only after the next cleaning exchange.
	Reveal(wires []W, set func(v uint64)) error

	// Tainted tests if the protocol has reveals whose values are not
	// yet known to both parties.
	Tainted() bool
}
