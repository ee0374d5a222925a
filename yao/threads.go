//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package yao

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/yaovm/env"
	"github.com/markkurossi/yaovm/p2p"
	"github.com/markkurossi/yaovm/vm"
	"golang.org/x/sync/errgroup"
)

type sessionFunc func(conn *p2p.Conn, config *env.Config, prog *vm.Program,
	inputs []uint64, thread, threads int) (*Result, error)

// GarbleThreads runs one garbler session per connection. Each program
// thread garbles the program with its own inputs, gate counter
// partition, and worker pool.
func GarbleThreads(conns []*p2p.Conn, config *env.Config, prog *vm.Program,
	inputs [][]uint64) ([]*Result, error) {
	return runThreads(garble, conns, config, prog, inputs)
}

// EvaluateThreads runs one evaluator session per connection.
func EvaluateThreads(conns []*p2p.Conn, config *env.Config, prog *vm.Program,
	inputs [][]uint64) ([]*Result, error) {
	return runThreads(evaluate, conns, config, prog, inputs)
}

func runThreads(session sessionFunc, conns []*p2p.Conn, config *env.Config,
	prog *vm.Program, inputs [][]uint64) ([]*Result, error) {

	if len(inputs) != len(conns) {
		return nil, errors.Newf("%d inputs for %d threads",
			len(inputs), len(conns))
	}

	// The first failing thread closes all connections so that no
	// thread stays blocked on its peer.
	var m sync.Mutex
	var first error
	abort := func(err error) {
		m.Lock()
		defer m.Unlock()
		if first != nil {
			return
		}
		first = err
		for _, conn := range conns {
			conn.Abort()
		}
	}

	results := make([]*Result, len(conns))
	var g errgroup.Group
	for idx := range conns {
		idx := idx
		g.Go(func() error {
			result, err := session(conns[idx], config, prog, inputs[idx],
				idx, len(conns))
			if err != nil {
				err = errors.Wrapf(err, "thread %d", idx)
				abort(err)
				return err
			}
			results[idx] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.Lock()
		defer m.Unlock()
		return nil, first
	}
	return results, nil
}
