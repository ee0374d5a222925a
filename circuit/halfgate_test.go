//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"crypto/rand"
	"testing"

	"github.com/markkurossi/yaovm/ot"
	"github.com/stretchr/testify/require"
)

func newPRG(t *testing.T) *PRG {
	prg, err := NewPRG(rand.Reader)
	require.NoError(t, err)
	return prg
}

func TestHash(t *testing.T) {
	prg := newPRG(t)
	l := prg.Label()

	require.Equal(t, Hash(l, 42), Hash(l, 42))
	require.NotEqual(t, Hash(l, 42), Hash(l, 43))

	o := l
	o.Xor(ot.Label{D1: 1})
	require.NotEqual(t, Hash(l, 42), Hash(o, 42))
}

func TestFreeXOR(t *testing.T) {
	prg := newPRG(t)
	delta := prg.Delta()
	require.True(t, delta.LSB())

	for i := 0; i < 100; i++ {
		a := GarbleWire{L0: prg.Label()}
		b := GarbleWire{L0: prg.Label()}
		c := a.Xor(b)

		for _, va := range []bool{false, true} {
			for _, vb := range []bool{false, true} {
				ea := EvalWire{L: a.Label(va, delta)}
				eb := EvalWire{L: b.Label(vb, delta)}
				require.Equal(t, c.Label(va != vb, delta), ea.Xor(eb).L)
			}
		}
		// Permute bits of the two labels differ.
		require.NotEqual(t, a.L0.LSB(), a.L1(delta).LSB())
	}
}

func TestHalfGate(t *testing.T) {
	prg := newPRG(t)
	delta := prg.Delta()

	var table [TableSize]byte
	for i := 0; i < 200; i++ {
		a := GarbleWire{L0: prg.Label()}
		b := GarbleWire{L0: prg.Label()}
		counter := uint64(i) | uint64(i%3)<<48

		c := GarbleAnd(a, b, delta, counter, table[:])

		for _, va := range []bool{false, true} {
			for _, vb := range []bool{false, true} {
				ea := EvalWire{L: a.Label(va, delta)}
				eb := EvalWire{L: b.Label(vb, delta)}
				ec := EvalAnd(ea, eb, counter, table[:])
				require.Equal(t, c.Label(va && vb, delta), ec.L,
					"gate %d: %v AND %v", i, va, vb)

				// Output reveal: external bit xor permute bit.
				require.Equal(t, va && vb, ec.External() != c.Permute())
			}
		}
	}
}

func TestHalfGateCounter(t *testing.T) {
	prg := newPRG(t)
	delta := prg.Delta()

	a := GarbleWire{L0: prg.Label()}
	b := GarbleWire{L0: prg.Label()}

	var t0, t1 [TableSize]byte
	c0 := GarbleAnd(a, b, delta, 1, t0[:])
	c1 := GarbleAnd(a, b, delta, 2, t1[:])
	require.NotEqual(t, t0, t1)
	require.NotEqual(t, c0, c1)

	// Evaluating with a wrong counter gives a label that is neither
	// of the output labels.
	ea := EvalWire{L: a.L1(delta)}
	eb := EvalWire{L: b.L1(delta)}
	ec := EvalAnd(ea, eb, 2, t0[:])
	require.NotEqual(t, c0.L0, ec.L)
	require.NotEqual(t, c0.L1(delta), ec.L)
}

func TestPRGBits(t *testing.T) {
	prg := newPRG(t)

	var ones int
	for i := 0; i < 10000; i++ {
		if prg.Bit() {
			ones++
		}
	}
	require.InDelta(t, 5000, ones, 500)
}
