//
// label.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Wire implements a wire with 0 and 1 labels.
type Wire struct {
	L0 Label
	L1 Label
}

func (w Wire) String() string {
	return fmt.Sprintf("%s/%s", w.L0, w.L1)
}

// Label implements a 128 bit wire label. The D0 holds the high and
// D1 the low 64 bits of the label. The least significant bit of D1
// is the point-and-permute bit.
type Label struct {
	D0 uint64
	D1 uint64
}

// LabelData contains label data as byte array.
type LabelData [16]byte

func (l Label) String() string {
	return fmt.Sprintf("%016x%016x", l.D0, l.D1)
}

// Equal tests if the labels are equal.
func (l Label) Equal(o Label) bool {
	return l.D0 == o.D0 && l.D1 == o.D1
}

// NewLabel creates a new random label.
func NewLabel(rand io.Reader) (Label, error) {
	var buf LabelData
	var label Label

	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return label, err
	}
	label.SetData(&buf)
	return label, nil
}

// NewTweak creates a new label from the tweak value.
func NewTweak(tweak uint64) Label {
	return Label{
		D1: tweak,
	}
}

// LSB returns the label's least significant bit.
func (l Label) LSB() bool {
	return l.D1&1 != 0
}

// SetLSB sets the label's least significant bit.
func (l *Label) SetLSB(set bool) {
	if set {
		l.D1 |= 1
	} else {
		l.D1 &^= 1
	}
}

// Bit returns the label bit i. Bit 0 is the least significant bit of
// D1 and bit 127 the most significant bit of D0.
func (l Label) Bit(i int) uint {
	if i < 64 {
		return uint((l.D1 >> i) & 1)
	}
	return uint((l.D0 >> (i - 64)) & 1)
}

// SetBit sets the label bit i to the value v.
func (l *Label) SetBit(i int, v uint) {
	if i < 64 {
		l.D1 &^= 1 << i
		l.D1 |= uint64(v&1) << i
	} else {
		l.D0 &^= 1 << (i - 64)
		l.D0 |= uint64(v&1) << (i - 64)
	}
}

// Double multiplies the label by x in GF(2^128) with the reduction
// polynomial x^128 + x^7 + x^2 + x + 1.
func (l *Label) Double() {
	carry := l.D0 >> 63
	l.D0 = l.D0<<1 | l.D1>>63
	l.D1 <<= 1
	l.D1 ^= 0x87 * carry
}

// Xor xors the label with the argument label.
func (l *Label) Xor(o Label) {
	l.D0 ^= o.D0
	l.D1 ^= o.D1
}

// XorIf xors the label with the argument label if cond is set.
func (l *Label) XorIf(o Label, cond bool) {
	if cond {
		l.D0 ^= o.D0
		l.D1 ^= o.D1
	}
}

// GetData gets the labels as label data.
func (l Label) GetData(buf *LabelData) {
	binary.BigEndian.PutUint64(buf[0:8], l.D0)
	binary.BigEndian.PutUint64(buf[8:16], l.D1)
}

// SetData sets the labels from label data.
func (l *Label) SetData(data *LabelData) {
	l.D0 = binary.BigEndian.Uint64((*data)[0:8])
	l.D1 = binary.BigEndian.Uint64((*data)[8:16])
}

// Bytes returns the label data as bytes.
func (l Label) Bytes(buf *LabelData) []byte {
	l.GetData(buf)
	return buf[:]
}

// SetBytes sets the label data from bytes.
func (l *Label) SetBytes(data []byte) {
	l.D0 = binary.BigEndian.Uint64(data[0:8])
	l.D1 = binary.BigEndian.Uint64(data[8:16])
}

// PutLabel encodes the label into the first 16 bytes of buf.
func PutLabel(buf []byte, l Label) {
	binary.BigEndian.PutUint64(buf[0:8], l.D0)
	binary.BigEndian.PutUint64(buf[8:16], l.D1)
}

// GetLabel decodes a label from the first 16 bytes of buf.
func GetLabel(buf []byte) Label {
	return Label{
		D0: binary.BigEndian.Uint64(buf[0:8]),
		D1: binary.BigEndian.Uint64(buf[8:16]),
	}
}
