//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package vm implements the circuit bytecode virtual machine. The
// machine has three register files: secret bit vector registers S,
// clear registers C, and integer registers I. Secret operations are
// delegated to a Protocol that implements them with garbled wires or,
// for reference execution, with plain bits.
package vm

import (
	"crypto/sha256"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/yaovm/circuit"
)

const (
	// MaxWidth is the maximum secret and clear register width in
	// bits.
	MaxWidth = 64

	// MaxRegisters is the maximum number of registers in each
	// register file.
	MaxRegisters = 1 << 20
)

// ErrInvalidProgram is returned for malformed programs and for
// programs that fail at runtime due to invalid register contents.
var ErrInvalidProgram = errors.New("invalid program")

// Instr implements a VM instruction.
type Instr struct {
	Op   Opcode
	Args []int64
	Line int
}

func (instr Instr) String() string {
	result := fmt.Sprintf("%-*s", maxMnemonicLength, instr.Op)
	sig := instr.Op.Signature()
	for i, arg := range instr.Args {
		result += " "
		switch sig.Kind(i) {
		case KindS:
			result += fmt.Sprintf("s%d", arg)
		case KindC:
			result += fmt.Sprintf("c%d", arg)
		case KindI:
			result += fmt.Sprintf("i%d", arg)
		case KindOffset:
			result += fmt.Sprintf("%+d", arg)
		case KindImm:
			result += fmt.Sprintf("0x%x", uint64(arg))
		default:
			result += fmt.Sprintf("%d", arg)
		}
	}
	return strings.TrimRight(result, " ")
}

func (instr Instr) pos(pc int) string {
	if instr.Line > 0 {
		return fmt.Sprintf("line %d", instr.Line)
	}
	return fmt.Sprintf("pc %d", pc)
}

// Bounds define the register file sizes a program needs.
type Bounds struct {
	S int
	C int
	I int
}

func (b Bounds) String() string {
	return fmt.Sprintf("S=%d, C=%d, I=%d", b.S, b.C, b.I)
}

// Covers tests if the bounds b are at least as large as o.
func (b Bounds) Covers(o Bounds) bool {
	return b.S >= o.S && b.C >= o.C && b.I >= o.I
}

// Program implements a validated VM program.
type Program struct {
	Code   []Instr
	Bounds Bounds
}

// NewProgram validates the instructions and creates a program from
// them.
func NewProgram(code []Instr) (*Program, error) {
	prog := &Program{
		Code: code,
	}
	for pc, instr := range code {
		if err := prog.validate(pc, instr); err != nil {
			return nil, err
		}
	}
	return prog, nil
}

func (prog *Program) validate(pc int, instr Instr) error {
	sig, ok := signatures[instr.Op]
	if !ok {
		return errors.Wrapf(ErrInvalidProgram, "%s: unknown opcode %d",
			instr.pos(pc), instr.Op)
	}
	if !sig.Arity(len(instr.Args)) {
		return errors.Wrapf(ErrInvalidProgram,
			"%s: %s: invalid number of operands %d, expected %s",
			instr.pos(pc), instr.Op, len(instr.Args), sig)
	}
	if (instr.Op == Bitdecs || instr.Op == Bitcoms) &&
		len(instr.Args)-1 > MaxWidth {
		return errors.Wrapf(ErrInvalidProgram,
			"%s: %s: too many bit registers: %d > %d",
			instr.pos(pc), instr.Op, len(instr.Args)-1, MaxWidth)
	}
	for i, arg := range instr.Args {
		kind := sig.Kind(i)
		switch kind {
		case KindS, KindC, KindI:
			if arg < 0 || arg >= MaxRegisters {
				return errors.Wrapf(ErrInvalidProgram,
					"%s: %s: invalid %s %d",
					instr.pos(pc), instr.Op, kind, arg)
			}
			switch kind {
			case KindS:
				prog.Bounds.S = max(prog.Bounds.S, int(arg)+1)
			case KindC:
				prog.Bounds.C = max(prog.Bounds.C, int(arg)+1)
			case KindI:
				prog.Bounds.I = max(prog.Bounds.I, int(arg)+1)
			}

		case KindWidth:
			if arg < 1 || arg > MaxWidth {
				return errors.Wrapf(ErrInvalidProgram,
					"%s: %s: invalid width %d", instr.pos(pc), instr.Op, arg)
			}

		case KindPlayer:
			if arg != 0 && arg != 1 {
				return errors.Wrapf(ErrInvalidProgram,
					"%s: %s: invalid player %d", instr.pos(pc), instr.Op, arg)
			}

		case KindOffset:
			if arg == 0 {
				return errors.Wrapf(ErrInvalidProgram,
					"%s: %s: jump to itself", instr.pos(pc), instr.Op)
			}
			target := int64(pc) + arg
			if target < 0 || target > int64(len(prog.Code)) {
				return errors.Wrapf(ErrInvalidProgram,
					"%s: %s: jump target %d out of range",
					instr.pos(pc), instr.Op, target)
			}
		}
	}
	return nil
}

// PP pretty-prints the program to the writer.
func (prog *Program) PP(out io.Writer) {
	for pc, instr := range prog.Code {
		fmt.Fprintf(out, "%04d\t%s\n", pc, instr)
	}
}

// Digest returns a SHA-256 digest of the program code. The parties
// compare digests to verify they run the same program.
func (prog *Program) Digest() []byte {
	h := sha256.New()
	for _, instr := range prog.Code {
		fmt.Fprintf(h, "%s\n", instr)
	}
	return h.Sum(nil)
}

// ANDGates returns the number of AND gates in the program's
// straight-line code.
func (prog *Program) ANDGates() int {
	var count int
	for _, instr := range prog.Code {
		switch instr.Op {
		case Ands, Andrs:
			for i := 0; i < len(instr.Args); i += 4 {
				count += int(instr.Args[i])
			}
		}
	}
	return count
}

// SliceLimits bound the garbled material of one execution slice.
type SliceLimits struct {
	// AND is the maximum number of AND gates.
	AND int
	// Labels is the maximum number of garbler input and random
	// wires.
	Labels int
	// Inputs is the maximum number of evaluator input groups.
	Inputs int
	// Reveals is the maximum number of revealed wires.
	Reveals int
}

// SliceLimits returns the limits of an execution slice with the work
// budget. A slice ends once its work reaches the budget. Since each
// taken backward jump is a unit of work, a slice executes each
// instruction at most budget+1 times.
func (prog *Program) SliceLimits(budget int) SliceLimits {
	var maxAND, ands int
	var pass SliceLimits
	var loops bool

	for _, instr := range prog.Code {
		args := instr.Args
		switch instr.Op {
		case Ands, Andrs:
			var n int
			for i := 0; i < len(args); i += 4 {
				n += int(args[i])
			}
			maxAND = max(maxAND, n)
			ands += n

		case Inputb:
			for i := 0; i < len(args); i += 3 {
				if args[i] == 0 {
					pass.Labels += int(args[i+1])
				} else {
					pass.Inputs++
				}
			}

		case Randoms:
			pass.Labels += int(args[0])

		case Reveal:
			for i := 0; i < len(args); i += 3 {
				pass.Reveals += int(args[i])
			}

		case Jmp:
			loops = loops || args[0] < 0

		case Jmpnz, Jmpeqz:
			loops = loops || args[1] < 0
		}
	}
	if budget < 1 {
		budget = 1
	}
	passes := 1
	if loops {
		passes = budget + 1
	}
	return SliceLimits{
		AND:     min(mulLimit(ands, passes), addLimit(budget-1, maxAND)),
		Labels:  mulLimit(pass.Labels, passes),
		Inputs:  mulLimit(pass.Inputs, passes),
		Reveals: mulLimit(pass.Reveals, passes),
	}
}

// TableBytes returns the maximum size of the slice's garbled table
// stream: one table per AND gate and one 16-byte label per garbler
// input or random wire.
func (l SliceLimits) TableBytes() int {
	return addLimit(mulLimit(l.AND, circuit.TableSize), mulLimit(l.Labels, 16))
}

// maxLimit caps slice limits.
const maxLimit = math.MaxInt32

func mulLimit(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > maxLimit/b {
		return maxLimit
	}
	return a * b
}

func addLimit(a, b int) int {
	if a > maxLimit-b {
		return maxLimit
	}
	return a + b
}
