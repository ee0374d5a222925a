//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"context"
	"net"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// RetryDelay specifies the delay between failed connection attempts.
var RetryDelay = 5 * time.Second

// Dial connects to the peer at addr. The function retries failed
// connection attempts until the context is done.
func Dial(ctx context.Context, addr string, log zerolog.Logger) (*Conn, error) {
	var dialer net.Dialer
	for {
		log.Debug().Str("addr", addr).Msg("connecting to peer")
		nc, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			log.Info().Str("addr", addr).Msg("connected")
			return NewConn(nc), nil
		}
		log.Warn().Err(err).Str("addr", addr).Dur("retry", RetryDelay).
			Msg("connect failed")

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "p2p: dial %s", addr)
		case <-time.After(RetryDelay):
		}
	}
}

// Listener accepts peer connections.
type Listener struct {
	listener net.Listener
	log      zerolog.Logger
}

// Listen creates a new listener for the TCP address addr.
func Listen(addr string, log zerolog.Logger) (*Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "p2p: listen %s", addr)
	}
	log.Info().Str("addr", listener.Addr().String()).Msg("listening")
	return &Listener{
		listener: listener,
		log:      log,
	}, nil
}

// Addr returns the listener's network address.
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Accept waits for the next peer connection.
func (l *Listener) Accept() (*Conn, error) {
	nc, err := l.listener.Accept()
	if err != nil {
		return nil, errors.Wrap(err, "p2p: accept")
	}
	l.log.Info().Str("peer", nc.RemoteAddr().String()).Msg("accepted")
	return NewConn(nc), nil
}

// Close closes the listener.
func (l *Listener) Close() error {
	return l.listener.Close()
}
