//
// parser_test.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"os"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

var data = `1 3
2 1 1
1 1

2 1 0 1 2 AND
`

func TestParse(t *testing.T) {
	c, err := Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 1, c.NumGates)
	require.Equal(t, 3, c.NumWires)
	require.Equal(t, 2, c.Inputs.Size())
	require.Equal(t, 1, c.Outputs.Size())
	require.Equal(t, Gate{Input0: 0, Input1: 1, Output: 2, Op: AND}, c.Gates[0])
	require.Equal(t, 1, c.Stats[AND])
	require.Equal(t, 2, c.Cost())

	for _, in := range [][]uint64{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
		out, err := c.Compute(in)
		require.NoError(t, err)
		require.Equal(t, []uint64{in[0] & in[1]}, out)
	}
}

var parseErrors = []struct {
	input string
	line  string
}{
	{"1\n", "line 1"},
	{"1 3\n2 1\n1 1\n", "line 2"},
	{"1 3\n2 1 1\n1 1\n2 1 0 1 2 NAND\n", "line 4"},
	{"1 3\n2 1 1\n1 1\n2 1 0 1 7 AND\n", "line 4"},
	{"1 3\n2 1 1\n1 1\n1 1 0 2 AND\n", "line 4"},
	{"2 3\n2 1 1\n1 1\n2 1 0 1 2 AND\n", "expected 2 gates"},
}

func TestParseErrors(t *testing.T) {
	for _, test := range parseErrors {
		_, err := Parse(strings.NewReader(test.input))
		require.Error(t, err, test.input)
		require.True(t, errors.Is(err, ErrInvalidCircuit), "%v", err)
		require.Contains(t, err.Error(), test.line)
	}
}

func TestAdder8(t *testing.T) {
	f, err := os.Open("testdata/adder8.circ")
	require.NoError(t, err)
	defer f.Close()

	c, err := Parse(f)
	require.NoError(t, err)
	require.Equal(t, 8, c.Outputs.Size())

	for a := uint64(0); a < 256; a += 17 {
		for b := uint64(0); b < 256; b += 13 {
			out, err := c.Compute([]uint64{a, b})
			require.NoError(t, err)
			require.Equal(t, (a+b)&0xff, out[0])
		}
	}
}
