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

package secretsharing

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// these with errors.Is.
var (
	// ErrConfiguration reports invalid parts/threshold parameters.
	ErrConfiguration = errors.New("secretsharing: invalid configuration")

	// ErrEmptySecret is returned when asked to shard a zero-length secret.
	ErrEmptySecret = errors.New("secretsharing: secret cannot be empty")

	// ErrFormat reports a share blob that cannot be decoded.
	ErrFormat = errors.New("secretsharing: malformed share")

	// ErrReconstruction reports a set of shares that cannot be combined.
	ErrReconstruction = errors.New("secretsharing: cannot reconstruct secret")

	// ErrDomain reports an undefined field operation. Reaching it from
	// Combine indicates a broken internal invariant.
	ErrDomain = errors.New("secretsharing: field domain error")
)

// Specific errors, each wrapping its kind.
var (
	ErrInvalidParts          = fmt.Errorf("%w: parts must be between 1 and %d", ErrConfiguration, MaxShares)
	ErrInvalidThreshold      = fmt.Errorf("%w: threshold must be between 1 and %d", ErrConfiguration, MaxShares)
	ErrThresholdExceedsParts = fmt.Errorf("%w: threshold exceeds parts", ErrConfiguration)

	ErrTruncatedShare     = fmt.Errorf("%w: truncated", ErrFormat)
	ErrInvalidMagic       = fmt.Errorf("%w: bad magic", ErrFormat)
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrFormat)
	ErrZeroXCoordinate    = fmt.Errorf("%w: x-coordinate is zero", ErrFormat)
	ErrZeroThreshold      = fmt.Errorf("%w: threshold is zero", ErrFormat)
	ErrEmptyShare         = fmt.Errorf("%w: no y-values", ErrFormat)

	ErrThresholdMismatch    = fmt.Errorf("%w: mismatched thresholds", ErrReconstruction)
	ErrDuplicateXCoordinate = fmt.Errorf("%w: duplicate x-coordinate", ErrReconstruction)
	ErrInsufficientShares   = fmt.Errorf("%w: insufficient shares", ErrReconstruction)
	ErrLengthMismatch       = fmt.Errorf("%w: mismatched secret lengths", ErrReconstruction)
)

// Kind names used by ErrorKind.
const (
	KindConfiguration  = "configuration"
	KindEmptyInput     = "empty_input"
	KindFormat         = "format"
	KindReconstruction = "reconstruction"
	KindDomain         = "domain"
	KindUnknown        = "unknown"
)

// ErrorKind classifies err into one of the Kind* names. It returns an empty
// string for a nil error and KindUnknown for errors from other packages.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrEmptySecret):
		return KindEmptyInput
	case errors.Is(err, ErrFormat):
		return KindFormat
	case errors.Is(err, ErrReconstruction):
		return KindReconstruction
	case errors.Is(err, ErrDomain):
		return KindDomain
	default:
		return KindUnknown
	}
}
