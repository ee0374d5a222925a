//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"crypto/aes"

	"github.com/markkurossi/yaovm/ot"
)

// Hash computes the Matyas-Meyer-Oseas gate hash of the label l with
// the tweak j:
//
//	H(l, j) = AES_{2l}(j) ⊕ j
//
// where 2l is the label doubled in GF(2^128) and the tweak block is
// (0, j).
func Hash(l ot.Label, j uint64) ot.Label {
	l.Double()

	var key, block ot.LabelData
	l.GetData(&key)
	cipher, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err)
	}

	tweak := ot.NewTweak(j)
	tweak.GetData(&block)
	cipher.Encrypt(block[:], block[:])

	var result ot.Label
	result.SetData(&block)
	result.Xor(tweak)

	return result
}
