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

var _ vm.Protocol[circuit.GarbleWire] = &Garbler{}

type pendingReveal struct {
	n   int
	set func(v uint64)
}

// Garbler implements the garbler side of the half-gates protocol.
type Garbler struct {
	prg       *circuit.PRG
	delta     ot.Label
	inputs    []uint64
	nextInput int
	round     *round
	reveals   []pendingReveal
	cot       ot.CorrelatedSender
	config    *env.Config
}

// NewGarbler creates a new garbler with the input values.
func NewGarbler(config *env.Config, inputs []uint64) (*Garbler, error) {
	prg, err := circuit.NewPRG(config.GetRandom())
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "garbler"), ErrSetup)
	}
	return &Garbler{
		prg:    prg,
		delta:  prg.Delta(),
		inputs: inputs,
		round:  new(round),
		config: config,
	}, nil
}

// Delta returns the free-XOR offset Δ.
func (g *Garbler) Delta() ot.Label {
	return g.delta
}

// Public implements vm.Protocol.Public. The evaluator holds the zero
// label for public wires.
func (g *Garbler) Public(bit bool) circuit.GarbleWire {
	var w circuit.GarbleWire
	if bit {
		w.L0 = g.delta
	}
	return w
}

// Random implements vm.Protocol.Random.
func (g *Garbler) Random() (circuit.GarbleWire, error) {
	w := circuit.GarbleWire{
		L0: g.prg.Label(),
	}
	g.round.addLabel(w.Label(g.prg.Bit(), g.delta))
	return w, nil
}

// Xor implements vm.Protocol.Xor.
func (g *Garbler) Xor(a, b circuit.GarbleWire) circuit.GarbleWire {
	return a.Xor(b)
}

// Input implements vm.Protocol.Input. The garbler's own input labels
// are sent in the round tables. The evaluator's inputs are
// transferred with correlated OT after the round is sent.
func (g *Garbler) Input(player, n int) ([]circuit.GarbleWire, error) {
	wires := make([]circuit.GarbleWire, n)
	for i := range wires {
		wires[i].L0 = g.prg.Label()
	}
	if player == 1 {
		l0s := make([]ot.Label, n)
		for i, w := range wires {
			l0s[i] = w.L0
		}
		g.round.inputs = append(g.round.inputs, l0s)
		g.round.batches = append(g.round.batches, n)
		return wires, nil
	}

	if g.nextInput >= len(g.inputs) {
		return nil, errors.Wrapf(vm.ErrInput, "garbler input %d", g.nextInput)
	}
	v := g.inputs[g.nextInput]
	g.nextInput++

	for i, w := range wires {
		g.round.addLabel(w.Label((v>>i)&1 != 0, g.delta))
	}
	return wires, nil
}

// PrepareAnd implements vm.Protocol.PrepareAnd.
func (g *Garbler) PrepareAnd(n int) ([]byte, error) {
	return g.round.addTable(tableBytes(n)), nil
}

// And implements vm.Protocol.And.
func (g *Garbler) And(a, b, out []circuit.GarbleWire, tables []byte,
	tweak uint64) error {

	for i := range a {
		out[i] = circuit.GarbleAnd(a[i], b[i], g.delta, tweak+uint64(i),
			tables[i*circuit.TableSize:])
	}
	return nil
}

// FinalizeAnd implements vm.Protocol.FinalizeAnd.
func (g *Garbler) FinalizeAnd(n int) error {
	return nil
}

// Reveal implements vm.Protocol.Reveal. The output masks are sent to
// the evaluator and the value is set when the evaluator returns the
// revealed bits.
func (g *Garbler) Reveal(wires []circuit.GarbleWire, set func(v uint64)) error {
	for _, w := range wires {
		g.round.masks.append(w.Permute())
	}
	g.reveals = append(g.reveals, pendingReveal{
		n:   len(wires),
		set: set,
	})
	return nil
}

// Tainted implements vm.Protocol.Tainted.
func (g *Garbler) Tainted() bool {
	return len(g.reveals) > 0
}

// endRound completes the current round and starts a new one.
func (g *Garbler) endRound(done bool) *round {
	r := g.round
	r.done = done
	g.round = new(round)
	return r
}

// transferInputs runs the correlated OTs for the evaluator input
// batches of the round. The evaluator derives its label with the
// derandomization blocks e = q ⊕ L0.
func (g *Garbler) transferInputs(conn *p2p.Conn, r *round) error {
	for _, l0s := range r.inputs {
		if g.cot == nil {
			cot, err := ot.NewIKNPSender(ot.NewCO(g.config.GetRandom()), conn,
				g.delta)
			if err != nil {
				return errors.Mark(errors.Wrap(err, "OT extension"), ErrSetup)
			}
			g.cot = cot
		}
		q, err := g.cot.ExtendCorrelated(len(l0s))
		if err != nil {
			return err
		}
		var data ot.LabelData
		for i, l0 := range l0s {
			e := q[i]
			e.Xor(l0)
			if err := conn.SendLabel(e, &data); err != nil {
				return err
			}
		}
		if err := conn.Flush(); err != nil {
			return err
		}
	}
	r.inputs = nil
	return nil
}

// clean receives the evaluator's revealed bits and sets the pending
// clear values.
func (g *Garbler) clean(conn *p2p.Conn) error {
	n, err := conn.ReceiveUint32()
	if err != nil {
		return err
	}
	var expected int
	for _, r := range g.reveals {
		expected += r.n
	}
	if n != expected {
		return errors.Wrapf(ErrProtocol, "got %d revealed bits, expected %d",
			n, expected)
	}
	data, err := receiveData(conn, (n+7)/8, "revealed bits")
	if err != nil {
		return err
	}
	if len(data) != (n+7)/8 {
		return errors.Wrapf(ErrProtocol,
			"invalid revealed bits size %d for %d bits", len(data), n)
	}
	bits := newBitBuffer(data, n)
	for _, r := range g.reveals {
		var v uint64
		for i := 0; i < r.n; i++ {
			bit, _ := bits.next()
			if bit {
				v |= 1 << i
			}
		}
		r.set(v)
	}
	g.reveals = nil
	return nil
}
