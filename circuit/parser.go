//
// parser.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"bufio"
	"io"
	"regexp"
	"strconv"

	"github.com/cockroachdb/errors"
)

// ErrInvalidCircuit is returned for malformed circuit files.
var ErrInvalidCircuit = errors.New("invalid circuit")

var reParts = regexp.MustCompilePOSIX("[[:space:]]+")

type lineReader struct {
	r    *bufio.Reader
	line int
}

func (lr *lineReader) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidCircuit, "line %d: "+format,
		append([]interface{}{lr.line}, args...)...)
}

// next returns the fields of the next non-empty line.
func (lr *lineReader) next() ([]string, error) {
	for {
		line, err := lr.r.ReadString('\n')
		if err != nil && (err != io.EOF || len(line) == 0) {
			return nil, err
		}
		lr.line++
		var parts []string
		for _, p := range reParts.Split(line, -1) {
			if len(p) > 0 {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			return parts, nil
		}
		if err == io.EOF {
			return nil, err
		}
	}
}

func (lr *lineReader) ints(parts []string) ([]int, error) {
	result := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return nil, lr.errorf("invalid number '%s'", p)
		}
		result[i] = v
	}
	return result, nil
}

func (lr *lineReader) io(name string) (IO, error) {
	line, err := lr.next()
	if err != nil {
		return nil, lr.errorf("missing %s line", name)
	}
	vals, err := lr.ints(line)
	if err != nil {
		return nil, err
	}
	if len(vals) != vals[0]+1 {
		return nil, lr.errorf("invalid %s line: expected %d sizes, got %d",
			name, vals[0], len(vals)-1)
	}
	var result IO
	for i, size := range vals[1:] {
		result = append(result, IOArg{
			Name: name + strconv.Itoa(i),
			Size: size,
		})
	}
	return result, nil
}

// Parse parses a circuit in the Bristol Fashion format.
func Parse(in io.Reader) (*Circuit, error) {
	lr := &lineReader{
		r: bufio.NewReader(in),
	}

	// NumGates NumWires
	line, err := lr.next()
	if err != nil {
		return nil, lr.errorf("missing header")
	}
	header, err := lr.ints(line)
	if err != nil {
		return nil, err
	}
	if len(header) != 2 {
		return nil, lr.errorf("invalid header: %v", line)
	}
	numGates := header[0]
	numWires := header[1]

	inputs, err := lr.io("i")
	if err != nil {
		return nil, err
	}
	outputs, err := lr.io("o")
	if err != nil {
		return nil, err
	}
	if inputs.Size()+outputs.Size() > numWires {
		return nil, lr.errorf("too many I/O wires for %d wires", numWires)
	}

	c := &Circuit{
		NumGates: numGates,
		NumWires: numWires,
		Inputs:   inputs,
		Outputs:  outputs,
		Gates:    make([]Gate, 0, numGates),
	}

	for {
		line, err = lr.next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if len(line) < 3 {
			return nil, lr.errorf("invalid gate: %v", line)
		}
		counts, err := lr.ints(line[:2])
		if err != nil {
			return nil, err
		}
		n1, n2 := counts[0], counts[1]
		if 2+n1+n2+1 != len(line) || n2 != 1 {
			return nil, lr.errorf("invalid gate: %v", line)
		}
		wires, err := lr.ints(line[2 : 2+n1+n2])
		if err != nil {
			return nil, err
		}
		for _, w := range wires {
			if w >= numWires {
				return nil, lr.errorf("wire %d out of range", w)
			}
		}

		var op Operation
		switch line[len(line)-1] {
		case "XOR":
			op = XOR
		case "XNOR":
			op = XNOR
		case "AND":
			op = AND
		case "OR":
			op = OR
		case "INV":
			op = INV
		default:
			return nil, lr.errorf("invalid operation '%s'", line[len(line)-1])
		}
		expected := 2
		if op == INV {
			expected = 1
		}
		if n1 != expected {
			return nil, lr.errorf("%s with %d inputs", op, n1)
		}

		gate := Gate{
			Input0: Wire(wires[0]),
			Output: Wire(wires[n1]),
			Op:     op,
		}
		if n1 == 2 {
			gate.Input1 = Wire(wires[1])
		}
		c.Gates = append(c.Gates, gate)
		c.Stats[op]++
	}
	if len(c.Gates) != numGates {
		return nil, lr.errorf("expected %d gates, got %d",
			numGates, len(c.Gates))
	}

	return c, nil
}
