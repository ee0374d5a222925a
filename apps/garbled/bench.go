//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/yaovm/circuit"
	"github.com/markkurossi/yaovm/ot"
	"github.com/markkurossi/yaovm/p2p"
	"github.com/markkurossi/yaovm/yao"
	"github.com/spf13/cobra"
)

var fCount int

var benchCmd = &cobra.Command{
	Use:   "bench-ot",
	Short: "benchmark correlated OT extension over an in-memory pipe",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return benchOT(fCount)
	},
}

func init() {
	benchCmd.Flags().IntVarP(&fCount, "count", "n", 1<<20,
		"number of correlated OTs")
	rootCmd.AddCommand(benchCmd)
}

type senderResult struct {
	q   []ot.Label
	err error
}

func benchOT(n int) error {
	prg, err := circuit.NewPRG(rand.Reader)
	if err != nil {
		return err
	}
	delta := prg.Delta()
	choices := make([]bool, n)
	for i := range choices {
		choices[i] = prg.Bit()
	}

	timing := yao.NewTiming()
	sc, rc := p2p.Pipe()

	ch := make(chan senderResult)
	go func() {
		defer sc.Close()
		s, err := ot.NewIKNPSender(ot.NewCO(rand.Reader), sc, delta)
		if err != nil {
			ch <- senderResult{err: err}
			return
		}
		q, err := s.ExtendCorrelated(n)
		ch <- senderResult{q, err}
	}()

	r, err := ot.NewIKNPReceiver(ot.NewCO(rand.Reader), rc, rand.Reader)
	if err != nil {
		rc.Abort()
		return err
	}
	timing.Sample("Setup", []string{
		yao.FileSize(rc.Stats.Sum()).String(),
	})
	t, err := r.ExtendCorrelated(choices)
	if err != nil {
		rc.Abort()
		return err
	}
	s := <-ch
	if s.err != nil {
		return s.err
	}
	timing.Sample("Extend", []string{
		yao.FileSize(rc.Stats.Sum()).String(),
	})

	for i, c := range choices {
		l := s.q[i]
		l.XorIf(delta, c)
		if !l.Equal(t[i]) {
			return errors.Newf("OT %d: correlation mismatch", i)
		}
	}
	fmt.Printf("%d correlated OTs verified\n", n)
	timing.Print(os.Stdout, rc.Stats)

	return rc.Close()
}
