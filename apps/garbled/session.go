//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/yaovm/dispatch"
	"github.com/markkurossi/yaovm/env"
	"github.com/markkurossi/yaovm/p2p"
	"github.com/markkurossi/yaovm/vm"
	"github.com/markkurossi/yaovm/yao"
	"github.com/spf13/cobra"
)

var garbleCmd = &cobra.Command{
	Use:   "garble FILE",
	Short: "run the garbler; listens for the evaluator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(args[0], true)
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate FILE",
	Short: "run the evaluator; connects to the garbler",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(args[0], false)
	},
}

func runSession(file string, garbler bool) error {
	config := newConfig()
	log := config.GetLogger()

	prog, err := loadProgram(file)
	if err != nil {
		return err
	}
	inputs, err := parseInputs()
	if err != nil {
		return err
	}
	if fParallel < 1 {
		return errors.Newf("invalid parallel count %d", fParallel)
	}

	var conns []*p2p.Conn
	if garbler {
		conns, err = accept(fAddr, fParallel, config)
	} else {
		conns, err = dial(fAddr, fParallel, config)
	}
	defer func() {
		for _, conn := range conns {
			if conn != nil {
				conn.Close()
			}
		}
	}()
	if err != nil {
		return err
	}

	threadInputs := make([][]uint64, fParallel)
	for i := range threadInputs {
		threadInputs[i] = inputs
	}

	var results []*yao.Result
	if garbler {
		results, err = yao.GarbleThreads(conns, config, prog, threadInputs)
	} else {
		results, err = yao.EvaluateThreads(conns, config, prog, threadInputs)
	}
	if err != nil {
		return err
	}
	for idx, result := range results {
		log.Info().Int("thread", idx).Int("rounds", result.Rounds).
			Uint64("and", result.VM.AND).
			Uint64("batches", result.Pool.Dispatched).
			Msg("done")
		for i, v := range result.Values {
			fmt.Printf("Result[%d]: %v (0x%x)\n", i, v, v)
		}
		if config.Verbose {
			result.Timing.Print(os.Stdout, result.IO)
		}
	}
	return nil
}

// accept accepts one connection for each program thread. Each peer
// connection starts with its thread index.
func accept(addr string, count int, config *env.Config) (
	[]*p2p.Conn, error) {

	listener, err := p2p.Listen(addr, *config.GetLogger())
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	conns := make([]*p2p.Conn, count)
	for i := 0; i < count; i++ {
		conn, err := listener.Accept()
		if err != nil {
			return conns, err
		}
		thread, err := conn.ReceiveUint32()
		if err != nil {
			conn.Close()
			return conns, err
		}
		if thread < 0 || thread >= count || conns[thread] != nil {
			conn.Close()
			return conns, errors.Newf("invalid peer thread %d", thread)
		}
		conns[thread] = conn
	}
	return conns, nil
}

func dial(addr string, count int, config *env.Config) ([]*p2p.Conn, error) {
	var conns []*p2p.Conn
	for i := 0; i < count; i++ {
		conn, err := p2p.Dial(context.Background(), addr, *config.GetLogger())
		if err != nil {
			return conns, err
		}
		conns = append(conns, conn)
		if err := conn.SendUint32(i); err != nil {
			return conns, err
		}
		if err := conn.Flush(); err != nil {
			return conns, err
		}
	}
	return conns, nil
}

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "run the program in the clear with garbler and evaluator inputs",
	Long: `Run the program in the clear. The inputs are consumed in program
order; the garbler and evaluator inputs are given with --input and
--peer-input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := loadProgram(args[0])
		if err != nil {
			return err
		}
		inputs, err := parseInputs()
		if err != nil {
			return err
		}
		peerInputs, err := parseValues(fPeerInputs)
		if err != nil {
			return err
		}
		m := vm.NewMachine[bool](prog, vm.NewPlain(inputs, peerInputs), nil,
			dispatch.NewGateCounter(0))
		m.Budget = fBudget
		values, err := m.Run()
		if err != nil {
			return err
		}
		for i, v := range values {
			fmt.Printf("Result[%d]: %v (0x%x)\n", i, v, v)
		}
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "print the program's instructions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := loadProgram(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("# %s: %d instructions, %d AND gates, registers %s\n",
			args[0], len(prog.Code), prog.ANDGates(), prog.Bounds)
		prog.PP(os.Stdout)
		return nil
	},
}
