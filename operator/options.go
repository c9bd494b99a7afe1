// SPDX-License-Identifier: MIT
// Package: laso/operator
//
// options.go — functional options for the parallel operators.
//
// Contract:
//   • Options are functional (type Option func(*config)).
//   • Option constructors validate and panic on meaningless input; Apply
//     itself never panics.

package operator

import "runtime"

// Option customizes Dense and CSR operators.
type Option func(*config)

type config struct {
	workers int // concurrent columns; 1 disables the errgroup path
}

func defaultConfig() config {
	return config{workers: runtime.GOMAXPROCS(0)}
}

// WithWorkers caps the number of block columns applied concurrently.
// Panics when n < 1.
func WithWorkers(n int) Option {
	if n < 1 {
		panic("operator: WithWorkers(n < 1)")
	}

	return func(c *config) { c.workers = n }
}

func resolve(opts []Option) config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}

	return c
}
