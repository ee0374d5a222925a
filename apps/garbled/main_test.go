//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/markkurossi/yaovm/dispatch"
	"github.com/markkurossi/yaovm/vm"
	"github.com/stretchr/testify/require"
)

func TestParseValues(t *testing.T) {
	values, err := parseValues([]string{"42", " 0x10", "0b101", "0o17"})
	require.NoError(t, err)
	require.Equal(t, []uint64{42, 16, 5, 15}, values)

	values, err = parseValues(nil)
	require.NoError(t, err)
	require.Empty(t, values)

	_, err = parseValues([]string{"1", "apple"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid input 'apple'")
}

func TestLoadCircuit(t *testing.T) {
	prog, err := loadProgram("../../circuit/testdata/adder8.circ")
	require.NoError(t, err)
	require.Equal(t, vm.Inputb, prog.Code[0].Op)
	require.Equal(t, 19, prog.ANDGates())

	m := vm.NewMachine[bool](prog, vm.NewPlain([]uint64{200}, []uint64{100}),
		nil, dispatch.NewGateCounter(0))
	result, err := m.Run()
	require.NoError(t, err)
	require.Equal(t, []uint64{44}, result)
}

func TestLoadAssembly(t *testing.T) {
	file := filepath.Join(t.TempDir(), "and.vm")
	require.NoError(t, os.WriteFile(file, []byte(`
	inputb 0 4 s0 1 4 s1
	ands   4 s2 s0 s1
	reveal 4 c0 s2
	result c0
`), 0644))

	prog, err := loadProgram(file)
	require.NoError(t, err)
	require.Len(t, prog.Code, 4)
	require.Equal(t, 4, prog.ANDGates())

	bad := filepath.Join(t.TempDir(), "bad.vm")
	require.NoError(t, os.WriteFile(bad, []byte("ands 1 s0\n"), 0644))
	_, err = loadProgram(bad)
	require.ErrorIs(t, err, vm.ErrInvalidProgram)
	require.Contains(t, err.Error(), bad)

	_, err = loadProgram(filepath.Join(t.TempDir(), "missing.circ"))
	require.Error(t, err)
}
