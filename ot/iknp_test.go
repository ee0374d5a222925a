//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/markkurossi/yaovm/ot"
	"github.com/markkurossi/yaovm/p2p"
	"github.com/stretchr/testify/require"
)

func randomBools(t *testing.T, n int) []bool {
	result := make([]bool, n)
	for i := range result {
		v, err := rand.Int(rand.Reader, big.NewInt(2))
		require.NoError(t, err)
		result[i] = v.Int64() == 1
	}
	return result
}

func TestCO(t *testing.T) {
	c0, c1 := p2p.Pipe()
	sender := ot.NewCO(rand.Reader)
	receiver := ot.NewCO(rand.Reader)

	const n = 16
	wires := make([]ot.Wire, n)
	for i := range wires {
		var err error
		wires[i].L0, err = ot.NewLabel(rand.Reader)
		require.NoError(t, err)
		wires[i].L1, err = ot.NewLabel(rand.Reader)
		require.NoError(t, err)
	}
	flags := randomBools(t, n)

	errCh := make(chan error, 1)
	go func() {
		if err := sender.InitSender(c0); err != nil {
			errCh <- err
			return
		}
		errCh <- sender.Send(wires)
	}()

	require.NoError(t, receiver.InitReceiver(c1))
	result := make([]ot.Label, n)
	require.NoError(t, receiver.Receive(flags, result))
	require.NoError(t, <-errCh)

	for i, flag := range flags {
		if flag {
			require.Equal(t, wires[i].L1, result[i], "OT %d", i)
		} else {
			require.Equal(t, wires[i].L0, result[i], "OT %d", i)
		}
	}
}

func extendN(t *testing.T, n, batches int) {
	c0, c1 := p2p.Pipe()

	delta, err := ot.NewLabel(rand.Reader)
	require.NoError(t, err)
	delta.SetLSB(true)

	type result struct {
		sender *ot.IKNPSender
		q      [][]ot.Label
		err    error
	}
	resCh := make(chan result, 1)

	go func() {
		var res result
		res.sender, res.err = ot.NewIKNPSender(ot.NewCO(rand.Reader), c0, delta)
		for i := 0; res.err == nil && i < batches; i++ {
			var q []ot.Label
			q, res.err = res.sender.ExtendCorrelated(n)
			res.q = append(res.q, q)
		}
		resCh <- res
	}()

	receiver, err := ot.NewIKNPReceiver(ot.NewCO(rand.Reader), c1, rand.Reader)
	require.NoError(t, err)

	var choices [][]bool
	var labels [][]ot.Label
	for i := 0; i < batches; i++ {
		b := randomBools(t, n)
		l, err := receiver.ExtendCorrelated(b)
		require.NoError(t, err)
		require.Len(t, l, n)
		choices = append(choices, b)
		labels = append(labels, l)
	}

	res := <-resCh
	require.NoError(t, res.err)
	require.Equal(t, delta, res.sender.Delta())

	for batch := range choices {
		for i, c := range choices[batch] {
			expected := res.q[batch][i]
			expected.XorIf(delta, c)
			require.Equal(t, expected, labels[batch][i],
				"batch %d OT %d", batch, i)
		}
	}
}

func TestIKNPExtend(t *testing.T) {
	extendN(t, 129, 1)
}

func TestIKNPBatches(t *testing.T) {
	extendN(t, 33, 3)
}

func TestIKNPChunkSizes(t *testing.T) {
	for _, n := range []int{0, 1, 127, 128, 129, 255, 256, 1000} {
		extendN(t, n, 1)
	}
}
