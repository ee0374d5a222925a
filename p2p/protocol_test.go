//
// protocol_test.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/yaovm/ot"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var tests = []interface{}{
	byte(42),
	uint32(44),
	ot.Label{D0: 0xdeadbeef, D1: 0xcafebabe},
	make([]byte, 1024),
	pattern(2 * 1024 * 1024),
	pattern(writeBufSize - 2),
}

func pattern(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i * 7)
	}
	return buf
}

func writer(c *Conn, errCh chan<- error) {
	var ld ot.LabelData
	for _, test := range tests {
		var err error
		switch d := test.(type) {
		case byte:
			err = c.SendByte(d)
		case uint32:
			err = c.SendUint32(int(d))
		case ot.Label:
			err = c.SendLabel(d, &ld)
		case []byte:
			err = c.SendData(d)
		}
		if err != nil {
			errCh <- err
			return
		}
	}
	errCh <- c.Flush()
}

func TestProtocol(t *testing.T) {
	cw, c := Pipe()

	errCh := make(chan error, 1)
	go writer(cw, errCh)

	var ld ot.LabelData
	for _, test := range tests {
		switch d := test.(type) {
		case byte:
			v, err := c.ReceiveByte()
			require.NoError(t, err)
			require.Equal(t, d, v)

		case uint32:
			v, err := c.ReceiveUint32()
			require.NoError(t, err)
			require.Equal(t, int(d), v)

		case ot.Label:
			var v ot.Label
			require.NoError(t, c.ReceiveLabel(&v, &ld))
			require.Equal(t, d, v)

		case []byte:
			v, err := c.ReceiveData()
			require.NoError(t, err)
			require.True(t, bytes.Equal(d, v), "data of %d bytes", len(d))

		default:
			t.Fatalf("invalid value: %v(%T)", test, test)
		}
	}
	require.NoError(t, <-errCh)
	require.NoError(t, cw.Close())
	require.NoError(t, c.Close())
}

func TestStats(t *testing.T) {
	c0, c1 := Pipe()

	errCh := make(chan error, 1)
	go func() {
		if err := c0.SendData(make([]byte, 100)); err != nil {
			errCh <- err
			return
		}
		errCh <- c0.Flush()
	}()

	data, err := c1.ReceiveData()
	require.NoError(t, err)
	require.Len(t, data, 100)
	require.NoError(t, <-errCh)

	require.Equal(t, uint64(104), c0.Stats.Sent.Load())
	require.Equal(t, uint64(104), c1.Stats.Recvd.Load())
	require.Equal(t, uint64(208), c0.Stats.Add(c1.Stats).Sum())
}

func TestReceiveDataMax(t *testing.T) {
	c0, c1 := Pipe()

	errCh := make(chan error, 1)
	go func() {
		if err := c0.SendData(make([]byte, 64)); err != nil {
			errCh <- err
			return
		}
		// Length prefix only; the payload never arrives.
		if err := c0.SendUint32(1 << 30); err != nil {
			errCh <- err
			return
		}
		errCh <- c0.Flush()
	}()

	data, err := c1.ReceiveDataMax(64)
	require.NoError(t, err)
	require.Len(t, data, 64)

	_, err = c1.ReceiveDataMax(1024)
	require.ErrorIs(t, err, ErrTooLarge)
	require.Less(t, len(c1.ReadBuf), 1<<30)
	require.NoError(t, <-errCh)
}

func TestDialListen(t *testing.T) {
	log := zerolog.Nop()

	l, err := Listen("127.0.0.1:0", log)
	require.NoError(t, err)
	defer l.Close()

	errCh := make(chan error, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			errCh <- err
			return
		}
		v, err := conn.ReceiveUint32()
		if err == nil && v != 7 {
			err = errors.Newf("received %d, expected 7", v)
		}
		errCh <- err
		conn.Close()
	}()

	conn, err := Dial(context.Background(), l.Addr().String(), log)
	require.NoError(t, err)
	require.NoError(t, conn.SendUint32(7))
	require.NoError(t, conn.Flush())
	require.NoError(t, <-errCh)
	require.NoError(t, conn.Close())
}
