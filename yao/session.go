//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package yao implements two-party secure computation of VM programs
// with half-gates garbled circuits. The garbler garbles the program
// in rounds of bounded work and streams the garbled material to the
// evaluator that evaluates it on the same VM. The evaluator's inputs
// are transferred with IKNP correlated OT extension.
package yao

import (
	"bytes"
	"crypto/sha256"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/text/superscript"
	"github.com/markkurossi/yaovm/circuit"
	"github.com/markkurossi/yaovm/dispatch"
	"github.com/markkurossi/yaovm/env"
	"github.com/markkurossi/yaovm/p2p"
	"github.com/markkurossi/yaovm/vm"
	"github.com/rs/zerolog"
)

const protocolVersion = 1

// Result holds the outcome of a session.
type Result struct {
	// Values hold the program results.
	Values []uint64
	// Rounds is the number of rounds the session used.
	Rounds int
	VM     vm.Stats
	Pool   dispatch.Stats
	IO     p2p.IOStats
	Timing *Timing
}

type handshake struct {
	version int
	thread  int
	budget  int
	oneShot bool
	digest  []byte
}

func (h *handshake) send(conn *p2p.Conn) error {
	if err := conn.SendUint32(h.version); err != nil {
		return err
	}
	if err := conn.SendUint32(h.thread); err != nil {
		return err
	}
	if err := conn.SendUint32(h.budget); err != nil {
		return err
	}
	var mode byte
	if h.oneShot {
		mode = 1
	}
	if err := conn.SendByte(mode); err != nil {
		return err
	}
	if err := conn.SendData(h.digest); err != nil {
		return err
	}
	return conn.Flush()
}

func receiveHandshake(conn *p2p.Conn) (*handshake, error) {
	var h handshake
	var err error

	h.version, err = conn.ReceiveUint32()
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "handshake"), ErrSetup)
	}
	if h.version != protocolVersion {
		return nil, errors.Wrapf(ErrSetup, "unsupported protocol version %d",
			h.version)
	}
	h.thread, err = conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	h.budget, err = conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if h.budget < 1 {
		return nil, errors.Wrapf(ErrProtocol, "invalid work budget %d",
			h.budget)
	}
	mode, err := conn.ReceiveByte()
	if err != nil {
		return nil, err
	}
	h.oneShot = mode != 0
	h.digest, err = receiveData(conn, sha256.Size, "program digest")
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func threadLogger(config *env.Config, role string, thread int) zerolog.Logger {
	return config.GetLogger().With().
		Str("role", role).
		Str("thread", superscript.Itoa(thread)).
		Logger()
}

// execute runs the machine until it breaks for a reason other than
// register file capacity.
func execute[W any](m *vm.Machine[W], pc int) (vm.BreakState, int, error) {
	for {
		state, next, err := m.Execute(pc)
		if err != nil {
			return state, next, err
		}
		if state != vm.CapacityExceeded {
			return state, next, nil
		}
		m.Grow()
		pc = next
	}
}

// Garble runs the garbler side of a session for the program with the
// garbler's input values.
func Garble(conn *p2p.Conn, config *env.Config, prog *vm.Program,
	inputs []uint64) (*Result, error) {
	return garble(conn, config, prog, inputs, 0, 1)
}

func garble(conn *p2p.Conn, config *env.Config, prog *vm.Program,
	inputs []uint64, thread, threads int) (*Result, error) {

	log := threadLogger(config, "garbler", thread)
	timing := NewTiming()

	g, err := NewGarbler(config, inputs)
	if err != nil {
		return nil, err
	}
	hs := &handshake{
		version: protocolVersion,
		thread:  thread,
		budget:  config.GetWorkBudget(),
		oneShot: config.OneShot,
		digest:  prog.Digest(),
	}
	if err := hs.send(conn); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "handshake"), ErrSetup)
	}

	pool := dispatch.NewPool(config.Workers(threads), config.GetThreshold())
	defer pool.Close()

	m := vm.NewMachine[circuit.GarbleWire](prog, g, pool,
		dispatch.NewGateCounter(thread))
	m.Budget = hs.budget

	log.Debug().
		Int("workers", pool.Workers()).
		Int("threshold", pool.Threshold()).
		Int("budget", m.Budget).
		Bool("oneshot", hs.oneShot).
		Msg("session started")

	timing.Sample("Init", []string{FileSize(conn.Stats.Sum()).String()})

	var otTime time.Duration
	transfer := func(r *round) error {
		start := time.Now()
		err := g.transferInputs(conn, r)
		otTime += time.Since(start)
		return err
	}

	var rounds []*round
	var count int
	var pc int
	for {
		state, next, err := execute(m, pc)
		if err != nil {
			return nil, err
		}
		pc = next
		if state == vm.NeedsCleaning && hs.oneShot {
			return nil, errors.Wrapf(ErrInteractive,
				"%s", prog.Code[pc].String())
		}
		done := state == vm.Done
		r := g.endRound(done)
		count++

		log.Debug().
			Int("round", count).
			Str("state", state.String()).
			Int("tables", len(r.tables)).
			Int("masks", r.masks.n).
			Int("inputs", len(r.batches)).
			Msg("garbled")

		if hs.oneShot {
			rounds = append(rounds, r)
		} else {
			if err := r.send(conn); err != nil {
				return nil, err
			}
			if err := conn.Flush(); err != nil {
				return nil, err
			}
			if err := transfer(r); err != nil {
				return nil, err
			}
			if g.Tainted() && (done || state == vm.NeedsCleaning) {
				if err := g.clean(conn); err != nil {
					return nil, err
				}
			}
		}
		if done {
			break
		}
	}
	if hs.oneShot {
		for _, r := range rounds {
			if err := r.send(conn); err != nil {
				return nil, err
			}
		}
		if err := conn.Flush(); err != nil {
			return nil, err
		}
		for _, r := range rounds {
			if err := transfer(r); err != nil {
				return nil, err
			}
		}
		rounds = nil
		if g.Tainted() {
			if err := g.clean(conn); err != nil {
				return nil, err
			}
		}
	}
	timing.Sample("Garble", []string{FileSize(conn.Stats.Sum()).String()}).
		AbsSubSample("OT", otTime)

	log.Debug().Int("rounds", count).Msg("session done")

	return &Result{
		Values: m.Results(),
		Rounds: count,
		VM:     m.Stats(),
		Pool:   pool.Stats(),
		IO:     conn.Stats,
		Timing: timing,
	}, nil
}

// Evaluate runs the evaluator side of a session for the program with
// the evaluator's input values. The work budget and the streaming
// mode are taken from the garbler.
func Evaluate(conn *p2p.Conn, config *env.Config, prog *vm.Program,
	inputs []uint64) (*Result, error) {
	return evaluate(conn, config, prog, inputs, 0, 1)
}

func evaluate(conn *p2p.Conn, config *env.Config, prog *vm.Program,
	inputs []uint64, thread, threads int) (*Result, error) {

	log := threadLogger(config, "evaluator", thread)
	timing := NewTiming()

	hs, err := receiveHandshake(conn)
	if err != nil {
		return nil, err
	}
	if hs.thread != thread {
		return nil, errors.Wrapf(ErrSetup, "peer thread %d, expected %d",
			hs.thread, thread)
	}
	if !bytes.Equal(hs.digest, prog.Digest()) {
		return nil, errors.Wrap(ErrSetup, "program mismatch")
	}
	if hs.oneShot != config.OneShot {
		log.Warn().Bool("oneshot", hs.oneShot).Msg("using garbler's mode")
	}

	e := NewEvaluator(config, inputs)
	limits := prog.SliceLimits(hs.budget)

	pool := dispatch.NewPool(config.Workers(threads), config.GetThreshold())
	defer pool.Close()

	m := vm.NewMachine[circuit.EvalWire](prog, e, pool,
		dispatch.NewGateCounter(thread))
	m.Budget = hs.budget

	timing.Sample("Init", []string{FileSize(conn.Stats.Sum()).String()})

	var otTime time.Duration
	transfer := func(r *round) error {
		start := time.Now()
		err := e.receiveInputs(conn, r)
		otTime += time.Since(start)
		return err
	}

	var pc int
	var count int

	evalRound := func(r *round) (vm.BreakState, error) {
		e.round = r
		state, next, err := execute(m, pc)
		if err != nil {
			return state, err
		}
		pc = next
		count++
		if r.done != (state == vm.Done) {
			return state, errors.Wrapf(ErrProtocol,
				"round %d: garbler done=%v, evaluator %s",
				count, r.done, state)
		}
		if err := r.consumed(); err != nil {
			return state, errors.Wrapf(err, "round %d", count)
		}
		log.Debug().
			Int("round", count).
			Str("state", state.String()).
			Int("tables", len(r.tables)).
			Msg("evaluated")
		return state, nil
	}

	if hs.oneShot {
		var rounds []*round
		for {
			r, err := receiveRound(conn, limits)
			if err != nil {
				return nil, err
			}
			rounds = append(rounds, r)
			if r.done {
				break
			}
		}
		timing.Sample("Recv", []string{FileSize(conn.Stats.Sum()).String()})

		for _, r := range rounds {
			if err := transfer(r); err != nil {
				return nil, err
			}
		}
		for _, r := range rounds {
			state, err := evalRound(r)
			if err != nil {
				return nil, err
			}
			if state == vm.NeedsCleaning {
				return nil, errors.Wrapf(ErrInteractive,
					"%s", prog.Code[pc].String())
			}
		}
		e.round = new(round)
		if e.Tainted() {
			if err := e.clean(conn); err != nil {
				return nil, err
			}
		}
	} else {
		for {
			r, err := receiveRound(conn, limits)
			if err != nil {
				return nil, err
			}
			if err := transfer(r); err != nil {
				return nil, err
			}
			state, err := evalRound(r)
			if err != nil {
				return nil, err
			}
			e.round = new(round)
			if e.Tainted() && (r.done || state == vm.NeedsCleaning) {
				if err := e.clean(conn); err != nil {
					return nil, err
				}
			}
			if r.done {
				break
			}
		}
	}
	timing.Sample("Eval", []string{FileSize(conn.Stats.Sum()).String()}).
		AbsSubSample("OT", otTime)

	log.Debug().Int("rounds", count).Msg("session done")

	return &Result{
		Values: m.Results(),
		Rounds: count,
		VM:     m.Stats(),
		Pool:   pool.Stats(),
		IO:     conn.Stats,
		Timing: timing,
	}, nil
}
