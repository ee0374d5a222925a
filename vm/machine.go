//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vm

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/yaovm/dispatch"
)

// BreakState describes why the machine stopped executing.
type BreakState int

// Break states.
const (
	// More means that the machine used its work budget and it must
	// be resumed at the returned instruction.
	More BreakState = iota
	// Done means that the program has finished.
	Done
	// NeedsCleaning means that the instruction at the returned pc
	// reads clear values that are not yet known. The caller must
	// perform the cleaning exchange and resume at the pc.
	NeedsCleaning
	// CapacityExceeded means that the register files are smaller than
	// the program bounds. The caller must Grow the machine and resume
	// at the pc.
	CapacityExceeded
)

var breakStates = map[BreakState]string{
	More:             "More",
	Done:             "Done",
	NeedsCleaning:    "NeedsCleaning",
	CapacityExceeded: "CapacityExceeded",
}

func (s BreakState) String() string {
	name, ok := breakStates[s]
	if ok {
		return name
	}
	return fmt.Sprintf("{BreakState %d}", s)
}

// Stats holds machine execution statistics.
type Stats struct {
	Instructions uint64
	AND          uint64
	XOR          uint64
	Reveals      uint64
	Slices       uint64
}

// Machine implements the VM for the protocol wire type W. A machine
// is owned by one program thread.
type Machine[W any] struct {
	// Budget is the amount of work the machine does in one execution
	// slice. Each AND gate and each taken backward jump is a unit of
	// work.
	Budget int

	// S holds the secret registers.
	S [][]W
	// C holds the clear registers. Each register points to its value
	// cell; reveals allocate new cells that are filled when the
	// revealed value is known.
	C []*uint64
	// I holds the integer registers.
	I []int64

	prog    *Program
	proto   Protocol[W]
	pool    *dispatch.Pool
	counter *dispatch.GateCounter
	results []*uint64
	work    int
	stats   Stats
	as      []W
	bs      []W
	dsts    []int64
}

// NewMachine creates a new machine for the program. The AND batches
// are run with the pool and their gate counters are allocated from
// the counter. If pool is nil, batches run inline. The register
// files start empty.
func NewMachine[W any](prog *Program, proto Protocol[W], pool *dispatch.Pool,
	counter *dispatch.GateCounter) *Machine[W] {

	return &Machine[W]{
		Budget:  1 << 16,
		prog:    prog,
		proto:   proto,
		pool:    pool,
		counter: counter,
	}
}

// Program returns the machine's program.
func (m *Machine[W]) Program() *Program {
	return m.prog
}

// Capacity returns the current register file sizes.
func (m *Machine[W]) Capacity() Bounds {
	return Bounds{
		S: len(m.S),
		C: len(m.C),
		I: len(m.I),
	}
}

// Grow grows the register files to the program bounds.
func (m *Machine[W]) Grow() {
	b := m.prog.Bounds
	if len(m.S) < b.S {
		m.S = append(m.S, make([][]W, b.S-len(m.S))...)
	}
	if len(m.C) < b.C {
		m.C = append(m.C, make([]*uint64, b.C-len(m.C))...)
	}
	if len(m.I) < b.I {
		m.I = append(m.I, make([]int64, b.I-len(m.I))...)
	}
}

// Stats returns the machine statistics.
func (m *Machine[W]) Stats() Stats {
	return m.stats
}

// Results returns the values of the result instructions executed so
// far. The values of revealed registers are valid only after the
// protocol is clean.
func (m *Machine[W]) Results() []uint64 {
	result := make([]uint64, len(m.results))
	for i, cell := range m.results {
		result[i] = *cell
	}
	return result
}

// Run runs the program to completion with a protocol that does not
// need cleaning exchanges.
func (m *Machine[W]) Run() ([]uint64, error) {
	var pc int
	for {
		state, next, err := m.Execute(pc)
		if err != nil {
			return nil, err
		}
		pc = next
		switch state {
		case Done:
			return m.Results(), nil
		case CapacityExceeded:
			m.Grow()
		case NeedsCleaning:
			return nil, errors.Newf("pc %d: protocol needs cleaning", pc)
		}
	}
}

// Execute executes the program starting from the instruction pc. The
// function returns the break state and the pc where the execution
// must continue.
func (m *Machine[W]) Execute(pc int) (BreakState, int, error) {
	if !m.Capacity().Covers(m.prog.Bounds) {
		return CapacityExceeded, pc, nil
	}
	m.work = 0
	m.stats.Slices++

	code := m.prog.Code
	for pc < len(code) {
		instr := code[pc]
		if instr.Op.NeedsClean() && m.proto.Tainted() {
			return NeedsCleaning, pc, nil
		}
		next, err := m.step(pc, instr)
		if err != nil {
			return Done, pc, err
		}
		m.stats.Instructions++
		pc = next
		if m.work >= m.Budget && pc < len(code) {
			return More, pc, nil
		}
	}
	return Done, pc, nil
}

func (m *Machine[W]) errorf(pc int, instr Instr, format string,
	a ...interface{}) error {
	return errors.Wrapf(ErrInvalidProgram, "%s: %s: %s",
		instr.pos(pc), instr.Op, fmt.Sprintf(format, a...))
}

func (m *Machine[W]) sreg(pc int, instr Instr, r int64, n int) ([]W, error) {
	v := m.S[r]
	if len(v) < n {
		return nil, m.errorf(pc, instr, "register s%d has %d bits, need %d",
			r, len(v), n)
	}
	return v[:n], nil
}

func (m *Machine[W]) creg(pc int, instr Instr, r int64) (*uint64, error) {
	cell := m.C[r]
	if cell == nil {
		return nil, m.errorf(pc, instr, "register c%d is unset", r)
	}
	return cell, nil
}

func (m *Machine[W]) step(pc int, instr Instr) (int, error) {
	args := instr.Args

	switch instr.Op {
	case Ldbits:
		n := int(args[1])
		out := make([]W, n)
		for i := 0; i < n; i++ {
			out[i] = m.proto.Public((uint64(args[2])>>i)&1 != 0)
		}
		m.S[args[0]] = out

	case Xors:
		for i := 0; i < len(args); i += 4 {
			n := int(args[i])
			a, err := m.sreg(pc, instr, args[i+2], n)
			if err != nil {
				return pc, err
			}
			b, err := m.sreg(pc, instr, args[i+3], n)
			if err != nil {
				return pc, err
			}
			out := make([]W, n)
			for j := 0; j < n; j++ {
				out[j] = m.proto.Xor(a[j], b[j])
			}
			m.S[args[i+1]] = out
			m.stats.XOR += uint64(n)
		}

	case Xorm:
		n := int(args[0])
		a, err := m.sreg(pc, instr, args[2], n)
		if err != nil {
			return pc, err
		}
		cell, err := m.creg(pc, instr, args[3])
		if err != nil {
			return pc, err
		}
		one := m.proto.Public(true)
		out := make([]W, n)
		for i := 0; i < n; i++ {
			if (*cell>>i)&1 != 0 {
				out[i] = m.proto.Xor(a[i], one)
			} else {
				out[i] = a[i]
			}
		}
		m.S[args[1]] = out

	case Nots:
		n := int(args[0])
		a, err := m.sreg(pc, instr, args[2], n)
		if err != nil {
			return pc, err
		}
		one := m.proto.Public(true)
		out := make([]W, n)
		for i := 0; i < n; i++ {
			out[i] = m.proto.Xor(a[i], one)
		}
		m.S[args[1]] = out

	case Ands, Andrs:
		if err := m.and(pc, instr); err != nil {
			return pc, err
		}

	case Inputb:
		for i := 0; i < len(args); i += 3 {
			wires, err := m.proto.Input(int(args[i]), int(args[i+1]))
			if err != nil {
				return pc, errors.Wrapf(err, "%s: %s", instr.pos(pc), instr.Op)
			}
			m.S[args[i+2]] = wires
		}

	case Randoms:
		n := int(args[0])
		out := make([]W, n)
		for i := 0; i < n; i++ {
			w, err := m.proto.Random()
			if err != nil {
				return pc, err
			}
			out[i] = w
		}
		m.S[args[1]] = out

	case Movs:
		m.S[args[0]] = m.S[args[1]]

	case Bitdecs:
		a, err := m.sreg(pc, instr, args[0], len(args)-1)
		if err != nil {
			return pc, err
		}
		for i, r := range args[1:] {
			m.S[r] = a[i : i+1 : i+1]
		}

	case Bitcoms:
		out := make([]W, len(args)-1)
		for i, r := range args[1:] {
			a, err := m.sreg(pc, instr, r, 1)
			if err != nil {
				return pc, err
			}
			out[i] = a[0]
		}
		m.S[args[0]] = out

	case Reveal:
		for i := 0; i < len(args); i += 3 {
			a, err := m.sreg(pc, instr, args[i+2], int(args[i]))
			if err != nil {
				return pc, err
			}
			cell := new(uint64)
			m.C[args[i+1]] = cell
			err = m.proto.Reveal(a, func(v uint64) {
				*cell = v
			})
			if err != nil {
				return pc, err
			}
			m.stats.Reveals++
		}

	case Ldi:
		cell := new(uint64)
		*cell = uint64(args[1])
		m.C[args[0]] = cell

	case Xorc:
		a, err := m.creg(pc, instr, args[1])
		if err != nil {
			return pc, err
		}
		b, err := m.creg(pc, instr, args[2])
		if err != nil {
			return pc, err
		}
		cell := new(uint64)
		*cell = *a ^ *b
		m.C[args[0]] = cell

	case Convcbit:
		a, err := m.creg(pc, instr, args[1])
		if err != nil {
			return pc, err
		}
		m.I[args[0]] = int64(*a)

	case Result:
		cell, err := m.creg(pc, instr, args[0])
		if err != nil {
			return pc, err
		}
		m.results = append(m.results, cell)

	case Ldint:
		m.I[args[0]] = args[1]

	case Addint:
		m.I[args[0]] = m.I[args[1]] + m.I[args[2]]

	case Subint:
		m.I[args[0]] = m.I[args[1]] - m.I[args[2]]

	case Jmp:
		return m.jump(pc, args[0]), nil

	case Jmpnz:
		if m.I[args[0]] != 0 {
			return m.jump(pc, args[1]), nil
		}

	case Jmpeqz:
		if m.I[args[0]] == 0 {
			return m.jump(pc, args[1]), nil
		}

	default:
		return pc, m.errorf(pc, instr, "not implemented")
	}

	return pc + 1, nil
}

// jump returns the target of the taken jump. A backward jump is one
// unit of work so loops without AND gates also end their slice.
func (m *Machine[W]) jump(pc int, offset int64) int {
	if offset < 0 {
		m.work++
	}
	return pc + int(offset)
}

// and runs the AND groups of the instruction as one dispatcher
// batch. All operands are read before any destination is written.
func (m *Machine[W]) and(pc int, instr Instr) error {
	args := instr.Args
	m.as = m.as[:0]
	m.bs = m.bs[:0]
	m.dsts = m.dsts[:0]

	for i := 0; i < len(args); i += 4 {
		n := int(args[i])
		a, err := m.sreg(pc, instr, args[i+2], n)
		if err != nil {
			return err
		}
		m.as = append(m.as, a...)
		if instr.Op == Andrs {
			b, err := m.sreg(pc, instr, args[i+3], 1)
			if err != nil {
				return err
			}
			for j := 0; j < n; j++ {
				m.bs = append(m.bs, b[0])
			}
		} else {
			b, err := m.sreg(pc, instr, args[i+3], n)
			if err != nil {
				return err
			}
			m.bs = append(m.bs, b...)
		}
		m.dsts = append(m.dsts, args[i+1], int64(n))
	}
	total := len(m.as)

	tables, err := m.proto.PrepareAnd(total)
	if err != nil {
		return err
	}
	var tableSize int
	if tables != nil {
		tableSize = len(tables) / total
	}
	out := make([]W, total)

	fn := func(start, end int, tweak uint64) error {
		var t []byte
		if tables != nil {
			t = tables[start*tableSize : end*tableSize]
		}
		return m.proto.And(m.as[start:end], m.bs[start:end], out[start:end],
			t, tweak)
	}
	if m.pool != nil {
		err = m.pool.Run(total, m.counter, fn)
	} else {
		err = fn(0, total, m.counter.Reserve(total))
	}
	if err != nil {
		return errors.Wrapf(err, "%s: %s", instr.pos(pc), instr.Op)
	}
	if err := m.proto.FinalizeAnd(total); err != nil {
		return err
	}

	var ofs int
	for i := 0; i < len(m.dsts); i += 2 {
		n := int(m.dsts[i+1])
		m.S[m.dsts[i]] = out[ofs : ofs+n : ofs+n]
		ofs += n
	}
	m.work += total
	m.stats.AND += uint64(total)

	return nil
}
