//
// label_test.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLabelLSB(t *testing.T) {
	label := Label{
		D0: 0xffffffffffffffff,
		D1: 0xffffffffffffffff,
	}

	label.SetLSB(true)
	require.Equal(t, uint64(0xffffffffffffffff), label.D1)

	label.SetLSB(false)
	require.Equal(t, uint64(0xfffffffffffffffe), label.D1)
	require.False(t, label.LSB())
}

func TestLabelBits(t *testing.T) {
	var label Label
	for i := 0; i < 128; i += 3 {
		label.SetBit(i, 1)
	}
	for i := 0; i < 128; i++ {
		require.Equal(t, uint(0), label.Bit(i)^boolUint(i%3 == 0), "bit %d", i)
	}
	label.SetBit(0, 0)
	require.False(t, label.LSB())
}

func TestLabelDouble(t *testing.T) {
	l := Label{D1: 1}
	l.Double()
	require.Equal(t, Label{D1: 2}, l)

	l = Label{D0: 1 << 63}
	l.Double()
	require.Equal(t, Label{D1: 0x87}, l)

	l = Label{D0: 1, D1: 1 << 63}
	l.Double()
	require.Equal(t, Label{D0: 3}, l)
}

func TestLabelData(t *testing.T) {
	label, err := NewLabel(rand.Reader)
	require.NoError(t, err)

	var ld LabelData
	var buf [16]byte

	PutLabel(buf[:], label)
	require.Equal(t, label.Bytes(&ld), buf[:])
	require.True(t, label.Equal(GetLabel(buf[:])))

	var other Label
	other.SetBytes(buf[:])
	require.Equal(t, label, other)
}

func boolUint(b bool) uint {
	if b {
		return 1
	}
	return 0
}
