//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//
// IKNP OT Extension:
//
// Extending oblivious transfers efficiently
//  - https://www.iacr.org/archive/crypto2003/27290145/27290145.pdf
//
// More Efficient Oblivious Transfer and Extensions for Faster Secure
// Computation
//  - https://eprint.iacr.org/2013/552.pdf

package ot

import (
	"crypto/aes"
	"crypto/cipher"
	"io"

	"github.com/cockroachdb/errors"
)

const (
	// K defines the IKNP security parameter; the number of IKNP base
	// OTs.
	K = 128

	// Chunk size. Must be multiple of 16 (K-bits).
	chunkSize = 2 * 1024

	// The maximum number of byte-rows in a chunk.
	chunkByteRows = chunkSize / K

	// The number of label rows in a chunk.
	chunkRows = chunkByteRows * 8
)

var (
	_ CorrelatedSender   = &IKNPSender{}
	_ CorrelatedReceiver = &IKNPReceiver{}
)

// IKNPSender implements the correlated OT extension sender. The
// sender plays the base OT receiver with the bits of Δ as its
// choices.
type IKNPSender struct {
	delta Label
	io    IO
	g     [K]cipher.Stream
}

// NewIKNPSender creates a new sender with the correlation delta. The
// function runs the K base OTs over io.
func NewIKNPSender(base OT, io IO, delta Label) (*IKNPSender, error) {
	if err := base.InitReceiver(io); err != nil {
		return nil, errors.Wrap(err, "iknp: base OT init")
	}

	var flags [K]bool
	for i := 0; i < K; i++ {
		flags[i] = delta.Bit(i) == 1
	}
	var keys [K]Label
	if err := base.Receive(flags[:], keys[:]); err != nil {
		return nil, errors.Wrap(err, "iknp: base OT")
	}

	s := &IKNPSender{
		delta: delta,
		io:    io,
	}
	for i := 0; i < K; i++ {
		var err error
		s.g[i], err = newPrg(keys[i])
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Delta returns the correlation Δ.
func (s *IKNPSender) Delta() Label {
	return s.delta
}

// ExtendCorrelated runs n correlated OTs. The receiver holds the
// labels q[i] ⊕ b[i]·Δ.
func (s *IKNPSender) ExtendCorrelated(n int) ([]Label, error) {
	result := make([]Label, n)
	var t [chunkSize]byte

	for ofs := 0; ofs < n; {
		chunk, err := s.io.ReceiveData()
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 || len(chunk)%K != 0 || len(chunk) > chunkSize {
			return nil, errors.Newf("iknp: invalid chunk size %d", len(chunk))
		}
		byteRows := len(chunk) / K

		for i := 0; i < K; i++ {
			col := t[i*byteRows : (i+1)*byteRows]
			prg(s.g[i], col)
			if s.delta.Bit(i) == 1 {
				xor(col, chunk[i*byteRows:])
			}
		}
		transpose(result[ofs:], t[:], byteRows)
		ofs += byteRows * 8
	}
	return result, nil
}

// IKNPReceiver implements the correlated OT extension receiver. The
// receiver plays the base OT sender with random seed pairs.
type IKNPReceiver struct {
	io IO
	g0 [K]cipher.Stream
	g1 [K]cipher.Stream
}

// NewIKNPReceiver creates a new receiver. The function runs the K
// base OTs over io.
func NewIKNPReceiver(base OT, io IO, rand io.Reader) (*IKNPReceiver, error) {
	if err := base.InitSender(io); err != nil {
		return nil, errors.Wrap(err, "iknp: base OT init")
	}

	var wires [K]Wire
	for i := 0; i < K; i++ {
		var err error
		wires[i].L0, err = NewLabel(rand)
		if err != nil {
			return nil, err
		}
		wires[i].L1, err = NewLabel(rand)
		if err != nil {
			return nil, err
		}
	}
	if err := base.Send(wires[:]); err != nil {
		return nil, errors.Wrap(err, "iknp: base OT")
	}

	r := &IKNPReceiver{
		io: io,
	}
	for i := 0; i < K; i++ {
		var err error
		r.g0[i], err = newPrg(wires[i].L0)
		if err != nil {
			return nil, err
		}
		r.g1[i], err = newPrg(wires[i].L1)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ExtendCorrelated runs len(choices) correlated OTs and returns the
// receiver's labels.
func (r *IKNPReceiver) ExtendCorrelated(choices []bool) ([]Label, error) {
	result := make([]Label, len(choices))

	packed := make([]byte, (len(choices)+7)/8)
	for i, c := range choices {
		if c {
			packed[i/8] |= 1 << (i % 8)
		}
	}

	var t, u [chunkSize]byte
	var tmp [chunkByteRows]byte

	for ofs := 0; ofs < len(choices); {
		rows := len(choices) - ofs
		if rows > chunkRows {
			rows = chunkRows
		}
		byteRows := (rows + 7) / 8

		for i := 0; i < K; i++ {
			col := t[i*byteRows : (i+1)*byteRows]
			prg(r.g0[i], col)
			prg(r.g1[i], tmp[:byteRows])

			// u = G(k0) ⊕ G(k1) ⊕ b
			xor(tmp[:byteRows], col)
			xor(tmp[:byteRows], packed[ofs/8:])
			copy(u[i*byteRows:], tmp[:byteRows])
		}
		if err := r.io.SendData(u[:byteRows*K]); err != nil {
			return nil, err
		}
		transpose(result[ofs:], t[:], byteRows)
		ofs += rows
	}
	if err := r.io.Flush(); err != nil {
		return nil, err
	}
	return result, nil
}

func newPrg(key Label) (cipher.Stream, error) {
	var ld LabelData
	block, err := aes.NewCipher(key.Bytes(&ld))
	if err != nil {
		return nil, err
	}
	var iv [16]byte
	return cipher.NewCTR(block, iv[:]), nil
}

func prg(c cipher.Stream, buf []byte) {
	// The buffers are reused between chunks.
	for i := range buf {
		buf[i] = 0
	}
	c.XORKeyStream(buf, buf)
}

// transpose converts the K column-major bit rows of buf into labels.
// Each column holds w bytes.
func transpose(l []Label, buf []byte, w int) {
	end := w * 8
	if end > len(l) {
		end = len(l)
	}
	for i := 0; i < end; i++ {
		row := i / 8
		bit := i % 8
		var label Label
		for j := 0; j < K; j++ {
			label.SetBit(j, uint((buf[j*w+row]>>bit)&1))
		}
		l[i] = label
	}
}
