//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"github.com/cockroachdb/errors"
)

// Compute evaluates the circuit in the clear. The args hold one value
// per input argument and the result one value per output argument.
// Arguments are limited to 64 bits.
func (c *Circuit) Compute(args []uint64) ([]uint64, error) {
	if len(args) != len(c.Inputs) {
		return nil, errors.Newf("invalid arguments: got %d, expected %d",
			len(args), len(c.Inputs))
	}

	wires := make([]byte, c.NumWires)

	var w int
	for idx, io := range c.Inputs {
		a := args[idx]
		for bit := 0; bit < io.Size; bit++ {
			if bit < 64 && a&(1<<bit) != 0 {
				wires[w] = 1
			}
			w++
		}
	}

	for _, gate := range c.Gates {
		var result byte

		switch gate.Op {
		case XOR:
			result = wires[gate.Input0] ^ wires[gate.Input1]

		case XNOR:
			result = 1 ^ wires[gate.Input0] ^ wires[gate.Input1]

		case AND:
			result = wires[gate.Input0] & wires[gate.Input1]

		case OR:
			result = wires[gate.Input0] | wires[gate.Input1]

		case INV:
			result = 1 ^ wires[gate.Input0]

		default:
			return nil, errors.Newf("invalid gate %s", gate.Op)
		}

		wires[gate.Output] = result
	}

	w = c.NumWires - c.Outputs.Size()
	var result []uint64
	for _, io := range c.Outputs {
		var r uint64
		for bit := 0; bit < io.Size; bit++ {
			if wires[w] != 0 && bit < 64 {
				r |= 1 << bit
			}
			w++
		}
		result = append(result, r)
	}

	return result, nil
}
