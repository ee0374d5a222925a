//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package yao

import (
	"github.com/cockroachdb/errors"
	"github.com/markkurossi/yaovm/circuit"
	"github.com/markkurossi/yaovm/env"
	"github.com/markkurossi/yaovm/ot"
	"github.com/markkurossi/yaovm/p2p"
	"github.com/markkurossi/yaovm/vm"
)

var _ vm.Protocol[circuit.EvalWire] = &Evaluator{}

// Evaluator implements the evaluator side of the half-gates
// protocol. The evaluator consumes the garbled material of the
// current round in execution order.
type Evaluator struct {
	inputs    []uint64
	nextInput int
	round     *round
	revealed  bitBuffer
	cot       ot.CorrelatedReceiver
	config    *env.Config
}

// NewEvaluator creates a new evaluator with the input values.
func NewEvaluator(config *env.Config, inputs []uint64) *Evaluator {
	return &Evaluator{
		inputs: inputs,
		round:  new(round),
		config: config,
	}
}

// Public implements vm.Protocol.Public.
func (e *Evaluator) Public(bit bool) circuit.EvalWire {
	return circuit.EvalWire{}
}

// Random implements vm.Protocol.Random.
func (e *Evaluator) Random() (circuit.EvalWire, error) {
	l, err := e.round.label()
	if err != nil {
		return circuit.EvalWire{}, err
	}
	return circuit.EvalWire{
		L: l,
	}, nil
}

// Xor implements vm.Protocol.Xor.
func (e *Evaluator) Xor(a, b circuit.EvalWire) circuit.EvalWire {
	return a.Xor(b)
}

// Input implements vm.Protocol.Input.
func (e *Evaluator) Input(player, n int) ([]circuit.EvalWire, error) {
	wires := make([]circuit.EvalWire, n)
	if player == 0 {
		for i := range wires {
			l, err := e.round.label()
			if err != nil {
				return nil, err
			}
			wires[i].L = l
		}
		return wires, nil
	}
	if len(e.round.labels) == 0 {
		return nil, errors.Wrap(ErrProtocol, "no input batch for evaluator input")
	}
	labels := e.round.labels[0]
	e.round.labels = e.round.labels[1:]
	if len(labels) != n {
		return nil, errors.Wrapf(ErrProtocol,
			"input batch has %d labels, expected %d", len(labels), n)
	}
	for i, l := range labels {
		wires[i].L = l
	}
	return wires, nil
}

// PrepareAnd implements vm.Protocol.PrepareAnd.
func (e *Evaluator) PrepareAnd(n int) ([]byte, error) {
	return e.round.table(tableBytes(n))
}

// And implements vm.Protocol.And.
func (e *Evaluator) And(a, b, out []circuit.EvalWire, tables []byte,
	tweak uint64) error {

	for i := range a {
		out[i] = circuit.EvalAnd(a[i], b[i], tweak+uint64(i),
			tables[i*circuit.TableSize:])
	}
	return nil
}

// FinalizeAnd implements vm.Protocol.FinalizeAnd.
func (e *Evaluator) FinalizeAnd(n int) error {
	return nil
}

// Reveal implements vm.Protocol.Reveal. The evaluator learns the
// value immediately and returns the bits to the garbler in the next
// cleaning exchange.
func (e *Evaluator) Reveal(wires []circuit.EvalWire, set func(v uint64)) error {
	var v uint64
	for i, w := range wires {
		mask, ok := e.round.masks.next()
		if !ok {
			return errors.Wrap(ErrProtocol, "output masks exhausted")
		}
		bit := w.External() != mask
		if bit {
			v |= 1 << i
		}
		e.revealed.append(bit)
	}
	set(v)
	return nil
}

// Tainted implements vm.Protocol.Tainted.
func (e *Evaluator) Tainted() bool {
	return e.revealed.n > 0
}

// nextChoices returns the choice bits for the next evaluator input
// of n bits.
func (e *Evaluator) nextChoices(n int) ([]bool, error) {
	if e.nextInput >= len(e.inputs) {
		return nil, errors.Wrapf(vm.ErrInput, "evaluator input %d",
			e.nextInput)
	}
	v := e.inputs[e.nextInput]
	e.nextInput++

	choices := make([]bool, n)
	for i := range choices {
		choices[i] = (v>>i)&1 != 0
	}
	return choices, nil
}

// receiveInputs runs the correlated OTs for the evaluator input
// batches of the round.
func (e *Evaluator) receiveInputs(conn *p2p.Conn, r *round) error {
	for _, n := range r.batches {
		choices, err := e.nextChoices(n)
		if err != nil {
			return err
		}
		if e.cot == nil {
			cot, err := ot.NewIKNPReceiver(ot.NewCO(e.config.GetRandom()),
				conn, e.config.GetRandom())
			if err != nil {
				return errors.Mark(errors.Wrap(err, "OT extension"), ErrSetup)
			}
			e.cot = cot
		}
		t, err := e.cot.ExtendCorrelated(choices)
		if err != nil {
			return err
		}
		var data ot.LabelData
		labels := make([]ot.Label, n)
		for i := range labels {
			var e ot.Label
			if err := conn.ReceiveLabel(&e, &data); err != nil {
				return err
			}
			labels[i] = t[i]
			labels[i].Xor(e)
		}
		r.labels = append(r.labels, labels)
	}
	return nil
}

// clean sends the revealed bits to the garbler.
func (e *Evaluator) clean(conn *p2p.Conn) error {
	if err := conn.SendUint32(e.revealed.n); err != nil {
		return err
	}
	if err := conn.SendData(e.revealed.data); err != nil {
		return err
	}
	if err := conn.Flush(); err != nil {
		return err
	}
	e.revealed.reset()
	return nil
}
