//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package dispatch

import (
	"fmt"
)

// ThreadShift is the bit position of the program thread ID in gate
// counters. Each program thread owns the counter partition
// [thread<<ThreadShift, (thread+1)<<ThreadShift).
const ThreadShift = 48

// GateCounter allocates gate counters for one program thread. The
// counters are used as half-gate hash tweaks and they are unique
// across all program threads. A GateCounter is owned by its program
// thread and must not be shared.
type GateCounter struct {
	thread int
	next   uint64
	end    uint64
}

// NewGateCounter creates a new gate counter for the program thread.
func NewGateCounter(thread int) *GateCounter {
	if thread < 0 || thread >= 1<<(64-ThreadShift-1) {
		panic(fmt.Sprintf("invalid program thread %d", thread))
	}
	base := uint64(thread) << ThreadShift
	return &GateCounter{
		thread: thread,
		next:   base,
		end:    base + 1<<ThreadShift,
	}
}

// Thread returns the counter's program thread ID.
func (c *GateCounter) Thread() int {
	return c.thread
}

// Next returns the next unallocated counter value.
func (c *GateCounter) Next() uint64 {
	return c.next
}

// Reserve allocates n consecutive counter values and returns the
// first one.
func (c *GateCounter) Reserve(n int) uint64 {
	if n < 0 || uint64(n) > c.end-c.next {
		panic(fmt.Sprintf("gate counter partition %d exhausted", c.thread))
	}
	base := c.next
	c.next += uint64(n)
	return base
}
