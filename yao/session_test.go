//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package yao

import (
	"os"
	"strings"
	"testing"

	"github.com/markkurossi/yaovm/circuit"
	"github.com/markkurossi/yaovm/dispatch"
	"github.com/markkurossi/yaovm/env"
	"github.com/markkurossi/yaovm/p2p"
	"github.com/markkurossi/yaovm/vm"
	"github.com/stretchr/testify/require"
)

type party struct {
	result *Result
	err    error
}

func run(gConfig, eConfig *env.Config, gProg, eProg *vm.Program,
	gInputs, eInputs []uint64) (party, party) {

	gc, ec := p2p.Pipe()
	ch := make(chan party)
	go func() {
		result, err := Garble(gc, gConfig, gProg, gInputs)
		if err != nil {
			gc.Abort()
		} else {
			gc.Close()
		}
		ch <- party{result, err}
	}()
	result, err := Evaluate(ec, eConfig, eProg, eInputs)
	if err != nil {
		ec.Abort()
	} else {
		ec.Close()
	}
	return <-ch, party{result, err}
}

func parse(t *testing.T, code string) *vm.Program {
	prog, err := vm.Parse(strings.NewReader(code))
	require.NoError(t, err)
	return prog
}

func modes() map[string]*env.Config {
	return map[string]*env.Config{
		"continuous": {},
		"oneshot":    {OneShot: true},
	}
}

const andProgram = `
	inputb 0 1 s0 1 1 s1
	ands   1 s2 s0 s1
	reveal 1 c0 s2
	result c0
`

func TestAND(t *testing.T) {
	prog := parse(t, andProgram)

	for name, config := range modes() {
		for a := uint64(0); a < 2; a++ {
			for b := uint64(0); b < 2; b++ {
				g, e := run(config, &env.Config{}, prog, prog,
					[]uint64{a}, []uint64{b})
				require.NoError(t, g.err, name)
				require.NoError(t, e.err, name)
				require.Equal(t, []uint64{a & b}, g.result.Values,
					"%s: %d&%d", name, a, b)
				require.Equal(t, []uint64{a & b}, e.result.Values,
					"%s: %d&%d", name, a, b)
			}
		}
	}
}

func TestAdder8(t *testing.T) {
	f, err := os.Open("../circuit/testdata/adder8.circ")
	require.NoError(t, err)
	defer f.Close()

	c, err := circuit.Parse(f)
	require.NoError(t, err)
	prog, err := vm.FromCircuit(c)
	require.NoError(t, err)

	for name, config := range modes() {
		for _, test := range [][3]uint64{
			{0, 0, 0},
			{255, 1, 0},
			{128, 127, 255},
		} {
			g, e := run(config, config, prog, prog,
				[]uint64{test[0]}, []uint64{test[1]})
			require.NoError(t, g.err, name)
			require.NoError(t, e.err, name)
			require.Equal(t, []uint64{test[2]}, g.result.Values, name)
			require.Equal(t, []uint64{test[2]}, e.result.Values, name)
		}
	}
}

const mixedProgram = `
	inputb  0 16 s0 1 16 s1
	ands    16 s2 s0 s1
	xors    16 s3 s0 s1
	andrs   16 s4 s3 s1
	nots    16 s5 s4
	ldbits  s6 16 0x00ff
	ands    16 s7 s5 s6 16 s8 s2 s3
	inputb  1 8 s9
	ands    8 s10 s9 s7
	reveal  16 c0 s7 16 c1 s8 8 c2 s10
	result  c0
	result  c1
	result  c2
`

func TestModeEquivalence(t *testing.T) {
	prog := parse(t, mixedProgram)

	gInputs := []uint64{0xa5c3}
	eInputs := []uint64{0x3c5f, 0x9e}

	m := vm.NewMachine[bool](prog, vm.NewPlain(gInputs, eInputs), nil,
		dispatch.NewGateCounter(0))
	expected, err := m.Run()
	require.NoError(t, err)

	for name, config := range modes() {
		for _, budget := range []int{1, 16, 1 << 16} {
			config.WorkBudget = budget
			g, e := run(config, &env.Config{}, prog, prog, gInputs, eInputs)
			require.NoError(t, g.err, name)
			require.NoError(t, e.err, name)
			require.Equal(t, expected, g.result.Values, name)
			require.Equal(t, expected, e.result.Values, name)
			require.Equal(t, g.result.Rounds, e.result.Rounds)
			if budget == 1 {
				require.Greater(t, g.result.Rounds, 1)
			} else if budget == 1<<16 {
				require.Equal(t, 1, g.result.Rounds)
			}
		}
	}
}

func TestAsymmetricDispatch(t *testing.T) {
	prog := parse(t, mixedProgram)

	gInputs := []uint64{0x1234}
	eInputs := []uint64{0xfedc, 0x5a}

	m := vm.NewMachine[bool](prog, vm.NewPlain(gInputs, eInputs), nil,
		dispatch.NewGateCounter(0))
	expected, err := m.Run()
	require.NoError(t, err)

	gConfig := &env.Config{
		Threshold:   2,
		ThreadCount: 7,
	}
	eConfig := &env.Config{
		Threshold:   1000,
		ThreadCount: 1,
	}
	g, e := run(gConfig, eConfig, prog, prog, gInputs, eInputs)
	require.NoError(t, g.err)
	require.NoError(t, e.err)
	require.Equal(t, expected, g.result.Values)
	require.Equal(t, expected, e.result.Values)

	require.Equal(t, uint64(4), g.result.Pool.Dispatched)
	require.Equal(t, uint64(0), e.result.Pool.Dispatched)
	require.Equal(t, uint64(4), e.result.Pool.Inline)
}

func TestFreeXOR(t *testing.T) {
	prog := parse(t, `
	inputb 0 8 s0 1 8 s1
	xors   8 s2 s0 s1
	nots   8 s3 s2
	xors   8 s4 s3 s0
	ands   4 s5 s3 s4
`)
	g, err := NewGarbler(&env.Config{}, []uint64{0x5a})
	require.NoError(t, err)

	m := vm.NewMachine[circuit.GarbleWire](prog, g, nil,
		dispatch.NewGateCounter(0))
	m.Grow()
	m.Budget = 1

	// The XORs and NOTs do not produce any garbled material.
	state, pc, err := m.Execute(0)
	require.NoError(t, err)
	require.Equal(t, vm.Done, state)
	require.Equal(t, len(prog.Code), pc)

	r := g.endRound(true)
	require.Len(t, r.tables, 8*16+4*circuit.TableSize)
	require.Equal(t, []int{8}, r.batches)
	require.Len(t, r.inputs, 1)

	delta := g.Delta()
	require.True(t, delta.LSB())
	for _, w := range m.S[2] {
		l1 := w.L1(delta)
		l1.Xor(w.L0)
		require.Equal(t, delta, l1)
	}
}

func TestRandom(t *testing.T) {
	prog := parse(t, `
	randoms 32 s0
	movs    s1 s0
	xors    32 s2 s0 s1
	reveal  32 c0 s0 32 c1 s2
	result  c0
	result  c1
`)
	for name, config := range modes() {
		g, e := run(config, &env.Config{}, prog, prog, nil, nil)
		require.NoError(t, g.err, name)
		require.NoError(t, e.err, name)
		require.Equal(t, g.result.Values, e.result.Values)
		require.Equal(t, uint64(0), e.result.Values[1])
	}
}

const branchProgram = `
	inputb   0 8 s0 1 8 s1
	ands     8 s2 s0 s1
	reveal   8 c0 s2
	convcbit i0 c0
	jmpeqz   i0 zero
	ldi      c1 1
	jmp      out
zero:	ldi      c1 2
out:	result   c1
	result   c0
`

func TestInteractive(t *testing.T) {
	prog := parse(t, branchProgram)

	for _, test := range [][3]uint64{
		{0xf0, 0x0f, 2},
		{0xf0, 0x1f, 1},
	} {
		g, e := run(&env.Config{}, &env.Config{}, prog, prog,
			[]uint64{test[0]}, []uint64{test[1]})
		require.NoError(t, g.err)
		require.NoError(t, e.err)
		expected := []uint64{test[2], test[0] & test[1]}
		require.Equal(t, expected, g.result.Values)
		require.Equal(t, expected, e.result.Values)
		require.Equal(t, 2, g.result.Rounds)
	}

	g, e := run(&env.Config{OneShot: true}, &env.Config{}, prog, prog,
		[]uint64{1}, []uint64{1})
	require.ErrorIs(t, g.err, ErrInteractive)
	require.Error(t, e.err)
}

func TestProgramMismatch(t *testing.T) {
	g, e := run(&env.Config{}, &env.Config{},
		parse(t, andProgram), parse(t, branchProgram),
		[]uint64{1}, []uint64{1})
	require.Error(t, g.err)
	require.ErrorIs(t, e.err, ErrSetup)
}

func TestMissingInput(t *testing.T) {
	prog := parse(t, andProgram)

	g, _ := run(&env.Config{}, &env.Config{}, prog, prog, nil, []uint64{1})
	require.ErrorIs(t, g.err, vm.ErrInput)

	_, e := run(&env.Config{}, &env.Config{}, prog, prog, []uint64{1}, nil)
	require.ErrorIs(t, e.err, vm.ErrInput)
}

func TestThreads(t *testing.T) {
	prog := parse(t, `
	inputb 0 64 s0 1 64 s1
	ands   64 s2 s0 s1
	reveal 64 c0 s2
	result c0
`)
	const threads = 3
	config := &env.Config{
		Threshold:   4,
		ThreadCount: 4,
	}

	var gConns, eConns []*p2p.Conn
	var gInputs, eInputs [][]uint64
	for i := 0; i < threads; i++ {
		gc, ec := p2p.Pipe()
		gConns = append(gConns, gc)
		eConns = append(eConns, ec)
		gInputs = append(gInputs, []uint64{0xffff0000ffff0000 >> i})
		eInputs = append(eInputs, []uint64{0x0123456789abcdef})
	}

	type garblerResult struct {
		results []*Result
		err     error
	}
	ch := make(chan garblerResult)
	go func() {
		results, err := GarbleThreads(gConns, config, prog, gInputs)
		ch <- garblerResult{results, err}
	}()
	results, err := EvaluateThreads(eConns, config, prog, eInputs)
	require.NoError(t, err)
	g := <-ch
	require.NoError(t, g.err)

	for i := 0; i < threads; i++ {
		expected := []uint64{gInputs[i][0] & eInputs[i][0]}
		require.Equal(t, expected, g.results[i].Values)
		require.Equal(t, expected, results[i].Values)
		require.Equal(t, uint64(1), results[i].Pool.Dispatched)
		require.Equal(t, uint64(4), results[i].Pool.Jobs)
	}
}

func TestThreadsAbort(t *testing.T) {
	prog := parse(t, andProgram)

	var gConns, eConns []*p2p.Conn
	for i := 0; i < 2; i++ {
		gc, ec := p2p.Pipe()
		gConns = append(gConns, gc)
		eConns = append(eConns, ec)
	}
	ch := make(chan error)
	go func() {
		// Thread 1 has no garbler input.
		_, err := GarbleThreads(gConns, &env.Config{}, prog,
			[][]uint64{{1}, nil})
		ch <- err
	}()
	_, err := EvaluateThreads(eConns, &env.Config{}, prog,
		[][]uint64{{1}, {1}})
	require.Error(t, err)
	require.ErrorIs(t, <-ch, vm.ErrInput)
}
