//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package yao

// bitBuffer holds bits packed LSB-first.
type bitBuffer struct {
	data []byte
	n    int
	pos  int
}

func newBitBuffer(data []byte, n int) *bitBuffer {
	return &bitBuffer{
		data: data,
		n:    n,
	}
}

func (b *bitBuffer) append(bit bool) {
	if b.n%8 == 0 {
		b.data = append(b.data, 0)
	}
	if bit {
		b.data[b.n/8] |= 1 << (b.n % 8)
	}
	b.n++
}

// next returns the next unread bit.
func (b *bitBuffer) next() (bool, bool) {
	if b.pos >= b.n {
		return false, false
	}
	bit := b.data[b.pos/8]&(1<<(b.pos%8)) != 0
	b.pos++
	return bit, true
}

func (b *bitBuffer) remaining() int {
	return b.n - b.pos
}

func (b *bitBuffer) reset() {
	b.data = b.data[:0]
	b.n = 0
	b.pos = 0
}
