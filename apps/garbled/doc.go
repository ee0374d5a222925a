//
// doc.go
//
// Copyright (c) 2021-2026 Markku Rossi
//
// All rights reserved.
//

// Garbled runs two-party computations of circuit VM programs with
// half-gates garbled circuits. The program is either a Bristol Fashion
// circuit (.circ) with the garbler input first and the evaluator
// input second, or a VM assembly program.
//
// Start the garbler and the evaluator with their inputs:
//
//	garbled garble -i 128 adder8.circ
//	garbled evaluate -i 127 adder8.circ
//
// The run command executes the program in the clear and the dump
// command prints its instructions. The bench-ot command measures
// correlated OT extension over an in-memory pipe:
//
//	garbled bench-ot -n 1000000
package main
