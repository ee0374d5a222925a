//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package yao

import (
	"testing"

	"github.com/markkurossi/yaovm/ot"
	"github.com/markkurossi/yaovm/p2p"
	"github.com/markkurossi/yaovm/vm"
	"github.com/stretchr/testify/require"
)

func TestBitBuffer(t *testing.T) {
	var b bitBuffer
	bits := []bool{true, false, true, true, false, false, false, false, true}
	for _, bit := range bits {
		b.append(bit)
	}
	require.Equal(t, []byte{0x0d, 0x01}, b.data)
	require.Equal(t, len(bits), b.remaining())

	for i, expected := range bits {
		bit, ok := b.next()
		require.True(t, ok, "bit %d", i)
		require.Equal(t, expected, bit, "bit %d", i)
	}
	_, ok := b.next()
	require.False(t, ok)

	b.reset()
	require.Equal(t, 0, b.remaining())
	require.Empty(t, b.data)
}

func TestRoundTransfer(t *testing.T) {
	r := &round{
		done:    true,
		batches: []int{3, 64},
	}
	var l ot.Label
	l.D0 = 0x0123456789abcdef
	l.D1 = 0xfedcba9876543210
	r.addLabel(l)
	copy(r.addTable(32), []byte("0123456789abcdef0123456789abcdef"))
	r.masks.append(true)
	r.masks.append(false)
	r.masks.append(true)

	gc, ec := p2p.Pipe()
	ch := make(chan error)
	go func() {
		err := r.send(gc)
		if err == nil {
			err = gc.Flush()
		}
		ch <- err
	}()
	received, err := receiveRound(ec, vm.SliceLimits{
		AND:     1,
		Labels:  1,
		Inputs:  2,
		Reveals: 3,
	})
	require.NoError(t, err)
	require.NoError(t, <-ch)

	require.True(t, received.done)
	require.Equal(t, r.batches, received.batches)
	require.Equal(t, 3, received.masks.remaining())

	got, err := received.label()
	require.NoError(t, err)
	require.Equal(t, l, got)

	_, err = received.table(48)
	require.ErrorIs(t, err, ErrProtocol)
	_, err = received.table(32)
	require.NoError(t, err)

	// The masks are still unread.
	require.ErrorIs(t, received.consumed(), ErrProtocol)
	for i := 0; i < 3; i++ {
		_, ok := received.masks.next()
		require.True(t, ok)
	}
	require.NoError(t, received.consumed())
}

func TestRoundInvalid(t *testing.T) {
	limits := vm.SliceLimits{
		AND:     4,
		Labels:  4,
		Inputs:  2,
		Reveals: 8,
	}
	tests := []func(conn *p2p.Conn) error{
		func(conn *p2p.Conn) error {
			return conn.SendUint32(3)
		},
		func(conn *p2p.Conn) error {
			if err := conn.SendUint32(statusMore); err != nil {
				return err
			}
			return conn.SendData(make([]byte, 17))
		},
		// Table length far beyond the slice limit, without payload.
		func(conn *p2p.Conn) error {
			if err := conn.SendUint32(statusMore); err != nil {
				return err
			}
			return conn.SendUint32(1 << 29)
		},
		func(conn *p2p.Conn) error {
			r := new(round)
			for i := 0; i < 9; i++ {
				r.masks.append(true)
			}
			return r.send(conn)
		},
		func(conn *p2p.Conn) error {
			r := &round{
				batches: []int{1, 1, 1},
			}
			return r.send(conn)
		},
		func(conn *p2p.Conn) error {
			r := &round{
				batches: []int{65},
			}
			return r.send(conn)
		},
	}
	for idx, test := range tests {
		test := test
		gc, ec := p2p.Pipe()
		go func() {
			if test(gc) == nil {
				gc.Flush()
			}
		}()
		_, err := receiveRound(ec, limits)
		require.ErrorIs(t, err, ErrProtocol, "test %d", idx)
		require.Less(t, len(ec.ReadBuf), 1<<29, "test %d", idx)
		gc.Abort()
		ec.Abort()
	}
}

func TestSliceLimits(t *testing.T) {
	prog := parse(t, mixedProgram)
	limits := prog.SliceLimits(16)
	require.Equal(t, vm.SliceLimits{
		AND:     15 + 32,
		Labels:  16,
		Inputs:  2,
		Reveals: 40,
	}, limits)
	require.Equal(t, 47*32+16*16, limits.TableBytes())

	prog = parse(t, `
	ldint   i0 3
	ldint   i1 1
loop:	randoms 4 s0
	subint  i0 i0 i1
	jmpnz   i0 loop
`)
	limits = prog.SliceLimits(10)
	require.Equal(t, 0, limits.AND)
	require.Equal(t, 4*11, limits.Labels)
}
