//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package dispatch implements the gate batch dispatcher. It runs
// batches of independent AND gates on a pool of persistent worker
// goroutines and assigns each gate a unique gate counter.
package dispatch

import (
	"sync"
	"sync/atomic"
)

// Func processes the gates [start, end) of a batch. The gate start
// has the gate counter tweak, gate start+1 the counter tweak+1, and so
// on.
type Func func(start, end int, tweak uint64) error

// Range describes one dispatched gate range.
type Range struct {
	Start int
	End   int
	Tweak uint64
}

// Batch describes how a batch was dispatched.
type Batch struct {
	N      int
	Inline bool
	Ranges []Range
}

// Stats holds pool statistics.
type Stats struct {
	// Inline is the number of batches run in the calling goroutine.
	Inline uint64
	// Dispatched is the number of batches split across workers.
	Dispatched uint64
	// Jobs is the number of ranges run by workers.
	Jobs uint64
	// Gates is the total number of gates processed.
	Gates uint64
}

type batch struct {
	fn     Func
	wg     sync.WaitGroup
	failed atomic.Bool
	m      sync.Mutex
	err    error
}

func (b *batch) fail(err error) {
	b.m.Lock()
	if b.err == nil {
		b.err = err
	}
	b.m.Unlock()
	b.failed.Store(true)
}

type job struct {
	b *batch
	r Range
}

// Pool implements a fork-join worker pool for gate batches. The Run
// function must be called from one goroutine at a time.
type Pool struct {
	workers   int
	threshold int
	jobs      chan job
	wg        sync.WaitGroup
	observer  func(Batch)

	inline     atomic.Uint64
	dispatched atomic.Uint64
	numJobs    atomic.Uint64
	gates      atomic.Uint64
}

// NewPool creates a new pool with the number of workers. Batches
// smaller than threshold gates run inline in the caller.
func NewPool(workers, threshold int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if threshold < 1 {
		threshold = 1
	}
	p := &Pool{
		workers:   workers,
		threshold: threshold,
	}
	if workers > 1 {
		p.jobs = make(chan job, workers)
		for i := 0; i < workers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	}
	return p
}

// Workers returns the number of pool workers.
func (p *Pool) Workers() int {
	return p.workers
}

// Threshold returns the pool's batch split threshold.
func (p *Pool) Threshold() int {
	return p.threshold
}

// SetObserver sets a function that is called with the layout of each
// batch before the batch runs.
func (p *Pool) SetObserver(f func(Batch)) {
	p.observer = f
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		if !j.b.failed.Load() {
			if err := j.b.fn(j.r.Start, j.r.End, j.r.Tweak); err != nil {
				j.b.fail(err)
			}
		}
		j.b.wg.Done()
	}
}

// RangeSize returns the size of the ranges a batch of n gates is
// split into.
func (p *Pool) RangeSize(n int) int {
	size := (n + p.workers - 1) / p.workers
	if half := p.threshold / 2; half > size {
		size = half
	}
	if size < 1 {
		size = 1
	}
	return size
}

// Run runs the batch of n gates. The function reserves n gate
// counters from counter and calls fn for disjoint ranges covering [0,
// n). Batches below the threshold, or with a single worker, run with
// one inline call. The function returns after all ranges are done
// and it returns the first error any range returned; ranges not yet
// started when an error occurs are skipped.
func (p *Pool) Run(n int, counter *GateCounter, fn Func) error {
	if n <= 0 {
		return nil
	}
	base := counter.Reserve(n)
	p.gates.Add(uint64(n))

	if n < p.threshold || p.workers <= 1 {
		p.inline.Add(1)
		if p.observer != nil {
			p.observer(Batch{
				N:      n,
				Inline: true,
				Ranges: []Range{{Start: 0, End: n, Tweak: base}},
			})
		}
		return fn(0, n, base)
	}

	size := p.RangeSize(n)
	var ranges []Range
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		ranges = append(ranges, Range{
			Start: start,
			End:   end,
			Tweak: base + uint64(start),
		})
	}
	if p.observer != nil {
		p.observer(Batch{
			N:      n,
			Ranges: ranges,
		})
	}
	p.dispatched.Add(1)
	p.numJobs.Add(uint64(len(ranges)))

	b := &batch{
		fn: fn,
	}
	b.wg.Add(len(ranges))
	for _, r := range ranges {
		p.jobs <- job{
			b: b,
			r: r,
		}
	}
	b.wg.Wait()

	return b.err
}

// Stats returns the pool statistics.
func (p *Pool) Stats() Stats {
	return Stats{
		Inline:     p.inline.Load(),
		Dispatched: p.dispatched.Load(),
		Jobs:       p.numJobs.Load(),
		Gates:      p.gates.Load(),
	}
}

// Close stops the pool workers.
func (p *Pool) Close() {
	if p.jobs != nil {
		close(p.jobs)
		p.wg.Wait()
		p.jobs = nil
	}
}
