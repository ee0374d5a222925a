//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vm

import (
	"crypto/rand"
	"io"

	"github.com/cockroachdb/errors"
)

// Plain implements the reference protocol on plain bits. Both
// players' inputs are local and reveals are resolved immediately so
// the protocol is never tainted.
type Plain struct {
	Inputs [2][]uint64
	Rand   io.Reader
	next   [2]int
	buf    [1]byte
}

// NewPlain creates a plain protocol with the garbler and evaluator
// inputs.
func NewPlain(garbler, evaluator []uint64) *Plain {
	return &Plain{
		Inputs: [2][]uint64{garbler, evaluator},
		Rand:   rand.Reader,
	}
}

// Public implements Protocol.Public.
func (p *Plain) Public(bit bool) bool {
	return bit
}

// Random implements Protocol.Random.
func (p *Plain) Random() (bool, error) {
	if _, err := io.ReadFull(p.Rand, p.buf[:]); err != nil {
		return false, err
	}
	return p.buf[0]&1 != 0, nil
}

// Xor implements Protocol.Xor.
func (p *Plain) Xor(a, b bool) bool {
	return a != b
}

// Input implements Protocol.Input.
func (p *Plain) Input(player, n int) ([]bool, error) {
	if p.next[player] >= len(p.Inputs[player]) {
		return nil, errors.Wrapf(ErrInput, "player %d: input %d",
			player, p.next[player])
	}
	v := p.Inputs[player][p.next[player]]
	p.next[player]++

	result := make([]bool, n)
	for i := 0; i < n; i++ {
		result[i] = (v>>i)&1 != 0
	}
	return result, nil
}

// PrepareAnd implements Protocol.PrepareAnd.
func (p *Plain) PrepareAnd(n int) ([]byte, error) {
	return nil, nil
}

// And implements Protocol.And.
func (p *Plain) And(a, b, out []bool, tables []byte, tweak uint64) error {
	for i := range a {
		out[i] = a[i] && b[i]
	}
	return nil
}

// FinalizeAnd implements Protocol.FinalizeAnd.
func (p *Plain) FinalizeAnd(n int) error {
	return nil
}

// Reveal implements Protocol.Reveal.
func (p *Plain) Reveal(wires []bool, set func(v uint64)) error {
	var v uint64
	for i, w := range wires {
		if w {
			v |= 1 << i
		}
	}
	set(v)
	return nil
}

// Tainted implements Protocol.Tainted.
func (p *Plain) Tainted() bool {
	return false
}
