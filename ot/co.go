//
// co.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//
// Chou Orlandi OT - The Simplest Protocol for Oblivious Transfer.
//  - https://eprint.iacr.org/2015/267.pdf

package ot

import (
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"io"
	"math/big"

	"github.com/cockroachdb/errors"
)

var (
	bo    = binary.BigEndian
	_  OT = &CO{}
)

// CO implements the Chou Orlandi base OT over the P-256 curve. The
// IKNP extension runs K instances of it once per session.
type CO struct {
	curve elliptic.Curve
	rand  io.Reader
	hash  hash.Hash
	io    IO
}

// NewCO creates a new CO OT implementing the OT interface. If r is
// nil, the OT uses crypto/rand.Reader.
func NewCO(r io.Reader) *CO {
	if r == nil {
		r = rand.Reader
	}
	return &CO{
		curve: elliptic.P256(),
		rand:  r,
		hash:  sha256.New(),
	}
}

// InitSender initializes the OT sender.
func (co *CO) InitSender(io IO) error {
	co.io = io
	if err := SendString(io, co.curve.Params().Name); err != nil {
		return err
	}
	return io.Flush()
}

// InitReceiver initializes the OT receiver.
func (co *CO) InitReceiver(io IO) error {
	co.io = io

	name, err := ReceiveString(io)
	if err != nil {
		return err
	}
	if name != co.curve.Params().Name {
		return errors.Newf("invalid curve %s, expected %s",
			name, co.curve.Params().Name)
	}
	return nil
}

// Send sends the wire labels with OT.
func (co *CO) Send(wires []Wire) error {
	params := co.curve.Params()

	a, err := rand.Int(co.rand, params.N)
	if err != nil {
		return errors.Wrap(err, "co: sender secret")
	}
	aBytes := a.Bytes()

	// A = G^a
	Ax, Ay := co.curve.ScalarBaseMult(aBytes)
	if err := co.io.SendData(Ax.Bytes()); err != nil {
		return err
	}
	if err := co.io.SendData(Ay.Bytes()); err != nil {
		return err
	}
	if err := co.io.Flush(); err != nil {
		return err
	}

	// -(A^a) = {x, p-y}
	Aax, Aay := co.curve.ScalarMult(Ax, Ay, aBytes)
	negAay := new(big.Int).Sub(params.P, Aay)

	keys := make([][2][sha256.Size]byte, len(wires))
	for i := range wires {
		Bx, err := ReceiveBigInt(co.io)
		if err != nil {
			return err
		}
		By, err := ReceiveBigInt(co.io)
		if err != nil {
			return err
		}
		if !co.curve.IsOnCurve(Bx, By) {
			return errors.Newf("co: point %d not on curve", i)
		}
		k0x, k0y := co.curve.ScalarMult(Bx, By, aBytes)
		k1x, k1y := co.curve.Add(k0x, k0y, Aax, negAay)

		co.kdf(k0x, k0y, uint64(i), &keys[i][0])
		co.kdf(k1x, k1y, uint64(i), &keys[i][1])
	}

	var ld LabelData
	for i, w := range wires {
		w.L0.GetData(&ld)
		if err := co.io.SendData(xor(ld[:], keys[i][0][:])); err != nil {
			return err
		}
		w.L1.GetData(&ld)
		if err := co.io.SendData(xor(ld[:], keys[i][1][:])); err != nil {
			return err
		}
	}
	return co.io.Flush()
}

// Receive receives the wire labels with OT based on the flag values.
func (co *CO) Receive(flags []bool, result []Label) error {
	if len(flags) != len(result) {
		return errors.Newf("co: %d flags for %d results",
			len(flags), len(result))
	}
	params := co.curve.Params()

	Ax, err := ReceiveBigInt(co.io)
	if err != nil {
		return err
	}
	Ay, err := ReceiveBigInt(co.io)
	if err != nil {
		return err
	}
	if !co.curve.IsOnCurve(Ax, Ay) {
		return errors.New("co: sender point not on curve")
	}

	secrets := make([][]byte, len(flags))
	for i, flag := range flags {
		b, err := rand.Int(co.rand, params.N)
		if err != nil {
			return errors.Wrap(err, "co: receiver secret")
		}
		secrets[i] = b.Bytes()

		// B = G^b or A·G^b
		Bx, By := co.curve.ScalarBaseMult(secrets[i])
		if flag {
			Bx, By = co.curve.Add(Bx, By, Ax, Ay)
		}
		if err := co.io.SendData(Bx.Bytes()); err != nil {
			return err
		}
		if err := co.io.SendData(By.Bytes()); err != nil {
			return err
		}
	}
	if err := co.io.Flush(); err != nil {
		return err
	}

	var key [sha256.Size]byte
	for i, flag := range flags {
		kx, ky := co.curve.ScalarMult(Ax, Ay, secrets[i])
		co.kdf(kx, ky, uint64(i), &key)

		e0, err := co.io.ReceiveData()
		if err != nil {
			return err
		}
		if len(e0) != 16 {
			return errors.Newf("co: invalid ciphertext length %d", len(e0))
		}
		// The connection may reuse its buffer so decrypt e0 before
		// reading e1.
		if !flag {
			result[i].SetBytes(xor(e0, key[:]))
		}
		e1, err := co.io.ReceiveData()
		if err != nil {
			return err
		}
		if len(e1) != 16 {
			return errors.Newf("co: invalid ciphertext length %d", len(e1))
		}
		if flag {
			result[i].SetBytes(xor(e1, key[:]))
		}
	}
	return nil
}

func (co *CO) kdf(x, y *big.Int, id uint64, out *[sha256.Size]byte) {
	co.hash.Reset()
	co.hash.Write(x.Bytes())
	co.hash.Write(y.Bytes())

	var tmp [8]byte
	bo.PutUint64(tmp[:], id)
	co.hash.Write(tmp[:])

	co.hash.Sum(out[:0])
}

// xor xors b into a and returns a truncated to the shorter length.
func xor(a, b []byte) []byte {
	l := len(a)
	if len(b) < l {
		l = len(b)
	}
	for i := 0; i < l; i++ {
		a[i] ^= b[i]
	}
	return a[:l]
}
