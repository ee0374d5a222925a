//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package yao

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrProtocol is returned when the peer's messages are
	// inconsistent with the local execution.
	ErrProtocol = errors.New("protocol error")

	// ErrSetup is returned when the session or the OT extension
	// setup fails.
	ErrSetup = errors.New("session setup failed")

	// ErrInteractive is returned when a program needs revealed values
	// during a one-shot run.
	ErrInteractive = errors.New("interactive program in one-shot mode")
)
