//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

// Package env implements global environment for the garbled circuit
// VM.
package env

import (
	"crypto/rand"
	"io"
	"runtime"

	"github.com/rs/zerolog"
)

const (
	// DefaultThreshold is the default minimum AND batch size that is
	// split across worker threads.
	DefaultThreshold = 1024

	// DefaultWorkBudget is the default amount of work the VM does
	// before it yields a round to the network. Each AND gate and each
	// taken backward jump is a unit of work.
	DefaultWorkBudget = 1 << 16
)

// Config defines the global system configuration. It configures
// system operation for all modules. Config must not be modified after
// being passed to any module. It is safe for concurrent use by
// multiple modules as they do not modify it.
type Config struct {
	// Rand is the entropy source. If unset, crypto/rand is used.
	Rand io.Reader

	// Logger receives diagnostic output. If unset, nothing is logged.
	Logger *zerolog.Logger

	// Threshold is the minimum AND batch size that is dispatched to
	// worker threads. Zero selects DefaultThreshold.
	Threshold int

	// OneShot selects the one-shot mode where the garbler garbles
	// the whole program before sending anything.
	OneShot bool

	// ThreadCount is the number of worker threads per program
	// thread. Zero derives it from the number of CPUs.
	ThreadCount int

	// WorkBudget is the amount of work per round. Zero selects
	// DefaultWorkBudget.
	WorkBudget int

	// Verbose enables timing reports.
	Verbose bool
}

// GetRandom returns the source of entropy for garbling, OT, and other
// cryptography operations.
func (config *Config) GetRandom() io.Reader {
	if config.Rand != nil {
		return config.Rand
	}
	return rand.Reader
}

var nopLogger = zerolog.Nop()

// GetLogger returns the configured logger or a no-op logger.
func (config *Config) GetLogger() *zerolog.Logger {
	if config.Logger != nil {
		return config.Logger
	}
	return &nopLogger
}

// GetThreshold returns the effective batch threshold.
func (config *Config) GetThreshold() int {
	if config.Threshold > 0 {
		return config.Threshold
	}
	return DefaultThreshold
}

// GetWorkBudget returns the effective work budget.
func (config *Config) GetWorkBudget() int {
	if config.WorkBudget > 0 {
		return config.WorkBudget
	}
	return DefaultWorkBudget
}

// Workers returns the number of worker threads for each of the
// programThreads program threads.
func (config *Config) Workers(programThreads int) int {
	if config.ThreadCount > 0 {
		return config.ThreadCount
	}
	if programThreads < 1 {
		programThreads = 1
	}
	n := runtime.NumCPU() / programThreads
	if n < 1 {
		n = 1
	}
	return n
}
