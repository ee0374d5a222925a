//
// ot.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.

// Package ot implements oblivious transfer protocols. The package
// provides the Chou-Orlandi base OT and the IKNP correlated OT
// extension which delivers the evaluator's input wire labels.
package ot

// OT defines the base 1-out-of-2 Oblivious Transfer protocol. The
// sender uses the Send function to send a []Wire array where each
// wire has zero and one Label. The receiver calls Receive with a
// []bool array of selection bits. The higher level protocol must
// ensure the []Wire and []bool array lengths match.
type OT interface {
	// InitSender initializes the OT sender.
	InitSender(io IO) error

	// InitReceiver initializes the OT receiver.
	InitReceiver(io IO) error

	// Send sends the wire labels with OT.
	Send(wires []Wire) error

	// Receive receives the wire labels with OT based on the flag values.
	Receive(flags []bool, result []Label) error
}

// CorrelatedSender defines the sender side of a correlated OT
// extension. Each extended OT delivers a label q to the sender and
// the label q ⊕ b·Δ to the receiver, where b is the receiver's choice
// bit and Δ is the sender's fixed correlation.
type CorrelatedSender interface {
	// Delta returns the correlation Δ.
	Delta() Label

	// ExtendCorrelated runs n correlated OTs and returns the
	// sender's q labels.
	ExtendCorrelated(n int) ([]Label, error)
}

// CorrelatedReceiver defines the receiver side of a correlated OT
// extension.
type CorrelatedReceiver interface {
	// ExtendCorrelated runs len(choices) correlated OTs and returns
	// the labels q ⊕ choices[i]·Δ.
	ExtendCorrelated(choices []bool) ([]Label, error)
}
