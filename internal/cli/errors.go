// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.


package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/secretsharing"
	"github.com/jeremyhahn/go-shamir/pkg/shardstore"
)

// Process exit codes. Each secretsharing error kind has its own code so
// scripts can tell a bad share from a bad command line.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitUsage          = 2
	ExitConfiguration  = 3
	ExitEmptyInput     = 4
	ExitFormat         = 5
	ExitReconstruction = 6
	ExitDomain         = 7
)

// usageError marks mistakes on the command line or in configuration values.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...interface{}) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ue *usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	if errors.Is(err, shardstore.ErrNoShards) {
		return ExitReconstruction
	}
	switch secretsharing.ErrorKind(err) {
	case secretsharing.KindConfiguration:
		return ExitConfiguration
	case secretsharing.KindEmptyInput:
		return ExitEmptyInput
	case secretsharing.KindFormat:
		return ExitFormat
	case secretsharing.KindReconstruction:
		return ExitReconstruction
	case secretsharing.KindDomain:
		return ExitDomain
	default:
		return ExitFailure
	}
}

// errorType labels err for metrics and JSON error output.
func errorType(err error) string {
	var ue *usageError
	switch {
	case errors.As(err, &ue):
		return "usage"
	case errors.Is(err, shardstore.ErrNoShards):
		return secretsharing.KindReconstruction
	default:
		return secretsharing.ErrorKind(err)
	}
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
