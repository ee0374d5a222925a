//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/yaovm/ot"
	"golang.org/x/crypto/chacha20"
)

const prgBufSize = 4096

var bo = binary.BigEndian

// PRG generates wire labels and random bits from a ChaCha20 key
// stream. The key is read from the system entropy source once.
type PRG struct {
	cipher *chacha20.Cipher
	buf    [prgBufSize]byte
	pos    int
	bits   uint64
	nbits  int
}

// NewPRG creates a new PRG seeded from the random source r.
func NewPRG(r io.Reader) (*PRG, error) {
	var key [chacha20.KeySize]byte
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return nil, errors.Wrap(err, "prg: seed")
	}
	var nonce [chacha20.NonceSize]byte
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, err
	}
	return &PRG{
		cipher: c,
		pos:    prgBufSize,
	}, nil
}

func (prg *PRG) read(n int) []byte {
	if prg.pos+n > len(prg.buf) {
		for i := range prg.buf {
			prg.buf[i] = 0
		}
		prg.cipher.XORKeyStream(prg.buf[:], prg.buf[:])
		prg.pos = 0
	}
	data := prg.buf[prg.pos : prg.pos+n]
	prg.pos += n
	return data
}

// Label returns a new random label.
func (prg *PRG) Label() ot.Label {
	return ot.GetLabel(prg.read(16))
}

// Bit returns a new random bit.
func (prg *PRG) Bit() bool {
	if prg.nbits == 0 {
		prg.bits = bo.Uint64(prg.read(8))
		prg.nbits = 64
	}
	bit := prg.bits&1 != 0
	prg.bits >>= 1
	prg.nbits--
	return bit
}

// Delta returns a new random free-XOR offset Δ with the
// point-and-permute bit set.
func (prg *PRG) Delta() ot.Label {
	delta := prg.Label()
	delta.SetLSB(true)
	return delta
}
