// SPDX-License-Identifier: MIT
// Package lanczos: solver configuration.
//
// Config holds the numeric knobs of one solve. It is plain data: it can be
// built in code from DefaultConfig or read from YAML with LoadConfig. Every
// constraint is checked together by Solve before the first operator call and
// reported as one *ParamError whose Code names all violations.

package lanczos

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults for DefaultConfig.
const (
	DefaultBlockSize        = 2
	DefaultWanted           = -1 // the smallest eigenvalue
	DefaultDigits           = 8
	DefaultMaxOperatorCalls = 1000
	DefaultMaxSubspace      = 60
)

// Config configures a solve.
//
// Wanted selects the eigenvalues: |Wanted| is the count, a negative sign asks
// for the algebraically smallest ones, a positive sign for the largest.
// MaxSubspace (maxj) caps the Krylov dimension kept between restarts and must
// stay below N for the recurrence to be meaningful.
type Config struct {
	N                int   `json:"n" yaml:"n"`                                   // matrix order
	BlockSize        int   `json:"block_size" yaml:"block_size"`                 // vectors per Lanczos block
	Wanted           int   `json:"wanted" yaml:"wanted"`                         // signed eigenvalue count
	Digits           int   `json:"digits" yaml:"digits"`                         // decimal digits of eigenvalue accuracy
	MaxOperatorCalls int   `json:"max_operator_calls" yaml:"max_operator_calls"` // block applications budget
	MaxSubspace      int   `json:"max_subspace" yaml:"max_subspace"`             // maxj
	Seed             int32 `json:"seed" yaml:"seed"`                             // start of the random vector stream
}

// DefaultConfig returns a Config for an order-n operator that asks for the
// smallest eigenvalue with block size 2.
func DefaultConfig(n int) Config {
	return Config{
		N:                n,
		BlockSize:        DefaultBlockSize,
		Wanted:           DefaultWanted,
		Digits:           DefaultDigits,
		MaxOperatorCalls: DefaultMaxOperatorCalls,
		MaxSubspace:      DefaultMaxSubspace,
	}
}

// count returns |Wanted|.
func (c Config) count() int {
	if c.Wanted < 0 {
		return -c.Wanted
	}

	return c.Wanted
}

// largest reports whether the rightmost eigenvalues are wanted.
func (c Config) largest() bool { return c.Wanted > 0 }

// ParseConfig decodes YAML over DefaultConfig(0); keys absent from data keep
// their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig(0)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("lanczos: parse config: %w", err)
	}

	return cfg, nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("lanczos: read config %q: %w", path, err)
	}

	return ParseConfig(data)
}

// validate checks cfg together with the caller's input and returns every
// violated constraint, or nil.
// Complexity: O(1).
func validate(cfg Config, in *Input) error {
	var (
		code  ParamBit
		nv    int
		nperm int
	)
	nv = cfg.count()

	if cfg.N < 6*cfg.BlockSize {
		code |= ParamOrder
	}
	if cfg.Digits <= 0 {
		code |= ParamDigits
	}
	if in.Vectors != nil && in.Vectors.Rows() != cfg.N {
		code |= ParamVectorRows
	}
	nperm = len(in.Values)
	if len(in.Residuals) != nperm || (nperm > 0 && (in.Vectors == nil || in.Vectors.Cols() != nperm)) ||
		(nperm == 0 && in.Vectors != nil) {
		code |= ParamKnownPairs
	}
	if cfg.MaxSubspace < 6*cfg.BlockSize {
		code |= ParamSubspace
	}
	if nv < max(1, nperm) {
		code |= ParamWanted
	}
	if in.Start != nil && (in.Start.Rows() != cfg.N || in.Start.Cols() != cfg.BlockSize) {
		code |= ParamStartBlock
	}
	if nv > cfg.MaxOperatorCalls {
		code |= ParamBudget
	}
	if nv >= cfg.MaxSubspace/2 {
		code |= ParamWantedRatio
	}
	if cfg.BlockSize < 1 {
		code |= ParamBlockSize
	}

	if code != 0 {
		return &ParamError{Code: code}
	}

	return nil
}
