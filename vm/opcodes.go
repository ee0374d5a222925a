//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vm

import (
	"fmt"
)

// Opcode defines VM instruction opcodes.
type Opcode uint8

// VM opcodes.
const (
	Ldbits Opcode = iota
	Xors
	Xorm
	Nots
	Ands
	Andrs
	Inputb
	Randoms
	Movs
	Bitdecs
	Bitcoms
	Reveal
	Ldi
	Xorc
	Convcbit
	Result
	Ldint
	Addint
	Subint
	Jmp
	Jmpnz
	Jmpeqz
)

var opcodes = map[Opcode]string{
	Ldbits:   "ldbits",
	Xors:     "xors",
	Xorm:     "xorm",
	Nots:     "nots",
	Ands:     "ands",
	Andrs:    "andrs",
	Inputb:   "inputb",
	Randoms:  "randoms",
	Movs:     "movs",
	Bitdecs:  "bitdecs",
	Bitcoms:  "bitcoms",
	Reveal:   "reveal",
	Ldi:      "ldi",
	Xorc:     "xorc",
	Convcbit: "convcbit",
	Result:   "result",
	Ldint:    "ldint",
	Addint:   "addint",
	Subint:   "subint",
	Jmp:      "jmp",
	Jmpnz:    "jmpnz",
	Jmpeqz:   "jmpeqz",
}

var mnemonics = make(map[string]Opcode)

var maxMnemonicLength int

func init() {
	for k, v := range opcodes {
		mnemonics[v] = k
		if len(v) > maxMnemonicLength {
			maxMnemonicLength = len(v)
		}
	}
}

func (op Opcode) String() string {
	name, ok := opcodes[op]
	if ok {
		return name
	}
	return fmt.Sprintf("{Opcode %d}", op)
}

// Kind defines instruction operand kinds.
type Kind uint8

// Operand kinds.
const (
	KindS Kind = iota
	KindC
	KindI
	KindWidth
	KindPlayer
	KindImm
	KindOffset
)

var kinds = map[Kind]string{
	KindS:      "secret register",
	KindC:      "clear register",
	KindI:      "int register",
	KindWidth:  "width",
	KindPlayer: "player",
	KindImm:    "immediate",
	KindOffset: "offset",
}

func (k Kind) String() string {
	name, ok := kinds[k]
	if ok {
		return name
	}
	return fmt.Sprintf("{Kind %d}", k)
}

// Signature defines instruction operands. The Fixed operands are
// followed by one or more repetitions of the Group operands.
type Signature struct {
	Fixed []Kind
	Group []Kind
}

// Arity tests if the argument count n is valid for the signature.
func (sig Signature) Arity(n int) bool {
	if len(sig.Group) == 0 {
		return n == len(sig.Fixed)
	}
	n -= len(sig.Fixed)
	return n > 0 && n%len(sig.Group) == 0
}

// Kind returns the kind of the argument i.
func (sig Signature) Kind(i int) Kind {
	if i < len(sig.Fixed) {
		return sig.Fixed[i]
	}
	i -= len(sig.Fixed)
	return sig.Group[i%len(sig.Group)]
}

func (sig Signature) String() string {
	var result string
	for _, k := range sig.Fixed {
		if len(result) > 0 {
			result += " "
		}
		result += k.String()
	}
	if len(sig.Group) > 0 {
		if len(result) > 0 {
			result += " "
		}
		result += "("
		for i, k := range sig.Group {
			if i > 0 {
				result += " "
			}
			result += k.String()
		}
		result += ")+"
	}
	return result
}

var (
	sigBinary = Signature{
		Group: []Kind{KindWidth, KindS, KindS, KindS},
	}
	sigInt3 = Signature{
		Fixed: []Kind{KindI, KindI, KindI},
	}
	sigCond = Signature{
		Fixed: []Kind{KindI, KindOffset},
	}
)

var signatures = map[Opcode]Signature{
	Ldbits: {
		Fixed: []Kind{KindS, KindWidth, KindImm},
	},
	Xors: sigBinary,
	Xorm: {
		Fixed: []Kind{KindWidth, KindS, KindS, KindC},
	},
	Nots: {
		Fixed: []Kind{KindWidth, KindS, KindS},
	},
	Ands:  sigBinary,
	Andrs: sigBinary,
	Inputb: {
		Group: []Kind{KindPlayer, KindWidth, KindS},
	},
	Randoms: {
		Fixed: []Kind{KindWidth, KindS},
	},
	Movs: {
		Fixed: []Kind{KindS, KindS},
	},
	Bitdecs: {
		Fixed: []Kind{KindS},
		Group: []Kind{KindS},
	},
	Bitcoms: {
		Fixed: []Kind{KindS},
		Group: []Kind{KindS},
	},
	Reveal: {
		Group: []Kind{KindWidth, KindC, KindS},
	},
	Ldi: {
		Fixed: []Kind{KindC, KindImm},
	},
	Xorc: {
		Fixed: []Kind{KindC, KindC, KindC},
	},
	Convcbit: {
		Fixed: []Kind{KindI, KindC},
	},
	Result: {
		Fixed: []Kind{KindC},
	},
	Ldint: {
		Fixed: []Kind{KindI, KindImm},
	},
	Addint: sigInt3,
	Subint: sigInt3,
	Jmp: {
		Fixed: []Kind{KindOffset},
	},
	Jmpnz:  sigCond,
	Jmpeqz: sigCond,
}

// Signature returns the opcode's operand signature.
func (op Opcode) Signature() Signature {
	return signatures[op]
}

// NeedsClean tests if the instruction reads clear values and can
// therefore run only when the session has no pending reveals.
func (op Opcode) NeedsClean() bool {
	switch op {
	case Xorm, Xorc, Convcbit:
		return true
	default:
		return false
	}
}
