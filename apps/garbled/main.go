//
// main.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/yaovm/circuit"
	"github.com/markkurossi/yaovm/env"
	"github.com/markkurossi/yaovm/vm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	fThreshold  int
	fOneShot    bool
	fThreads    int
	fBudget     int
	fParallel   int
	fVerbose    bool
	fAddr       string
	fInputs     []string
	fPeerInputs []string
)

var rootCmd = &cobra.Command{
	Use:          "garbled",
	Short:        "Two-party computation with half-gates garbled circuits",
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.IntVar(&fThreshold, "threshold", env.DefaultThreshold,
		"minimum AND batch size split across worker threads")
	flags.BoolVar(&fOneShot, "oneshot", false,
		"garble the whole program before sending it")
	flags.IntVar(&fThreads, "threads", 0,
		"worker threads per program thread (0 = NumCPU/parallel)")
	flags.IntVar(&fBudget, "budget", env.DefaultWorkBudget,
		"work units (AND gates and loop iterations) per round")
	flags.IntVar(&fParallel, "parallel", 1, "number of program threads")
	flags.BoolVarP(&fVerbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&fAddr, "addr", "localhost:8080", "peer address")
	flags.StringSliceVarP(&fInputs, "input", "i", nil,
		"input values, comma separated")

	runCmd.Flags().StringSliceVarP(&fPeerInputs, "peer-input", "p", nil,
		"evaluator input values, comma separated")

	rootCmd.AddCommand(garbleCmd, evaluateCmd, runCmd, dumpCmd)
}

func newConfig() *env.Config {
	level := zerolog.InfoLevel
	if fVerbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{
		Out: os.Stderr,
	}).Level(level).With().Timestamp().Logger()

	return &env.Config{
		Logger:      &logger,
		Threshold:   fThreshold,
		OneShot:     fOneShot,
		ThreadCount: fThreads,
		WorkBudget:  fBudget,
		Verbose:     fVerbose,
	}
}

func parseInputs() ([]uint64, error) {
	return parseValues(fInputs)
}

func parseValues(values []string) ([]uint64, error) {
	var result []uint64
	for _, input := range values {
		v, err := strconv.ParseUint(strings.TrimSpace(input), 0, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid input '%s'", input)
		}
		result = append(result, v)
	}
	return result, nil
}

// loadProgram loads a Bristol circuit (.circ) or a VM assembly
// program.
func loadProgram(file string) (*vm.Program, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if filepath.Ext(file) == ".circ" {
		c, err := circuit.Parse(f)
		if err != nil {
			return nil, errors.Wrap(err, file)
		}
		return vm.FromCircuit(c)
	}
	prog, err := vm.Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	return prog, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
