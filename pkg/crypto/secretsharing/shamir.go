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
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/rand"
)

// MaxShares is the largest number of shares one secret can be split into.
// x-coordinates are nonzero bytes.
const MaxShares = 255

// ParallelThreshold is the secret size at which Split evaluates byte
// positions on multiple goroutines.
const ParallelThreshold = 64 * 1024

// XCoordinates selects how Split assigns x-coordinates to shares.
type XCoordinates string

const (
	// XRandom draws a uniformly random distinct subset of 1..255.
	XRandom XCoordinates = "random"

	// XSequential assigns 1..N in order.
	XSequential XCoordinates = "sequential"
)

// ParseXCoordinates converts a configuration string into an XCoordinates value.
func ParseXCoordinates(s string) (XCoordinates, error) {
	switch x := XCoordinates(s); x {
	case "":
		return XRandom, nil
	case XRandom, XSequential:
		return x, nil
	default:
		return "", fmt.Errorf("%w: unknown x-coordinate strategy %q", ErrConfiguration, s)
	}
}

// ShareConfig configures secret sharing parameters.
type ShareConfig struct {
	Threshold   int // T - minimum shares needed to reconstruct
	TotalShares int // N - total shares to create
}

// Validate checks 1 <= Threshold <= TotalShares <= MaxShares.
func (c *ShareConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config cannot be nil", ErrConfiguration)
	}
	if c.TotalShares < 1 || c.TotalShares > MaxShares {
		return fmt.Errorf("%w: got %d", ErrInvalidParts, c.TotalShares)
	}
	if c.Threshold < 1 || c.Threshold > MaxShares {
		return fmt.Errorf("%w: got %d", ErrInvalidThreshold, c.Threshold)
	}
	if c.Threshold > c.TotalShares {
		return fmt.Errorf("%w: threshold %d, parts %d", ErrThresholdExceedsParts, c.Threshold, c.TotalShares)
	}
	return nil
}

// Option configures a Shamir instance.
type Option func(*Shamir)

// WithRandom sets the source of polynomial coefficients and random
// x-coordinates. It must be cryptographically secure outside of tests.
func WithRandom(rng io.Reader) Option {
	return func(s *Shamir) {
		s.rng = rng
	}
}

// WithXCoordinates sets the x-coordinate assignment strategy.
func WithXCoordinates(x XCoordinates) Option {
	return func(s *Shamir) {
		s.xcoords = x
	}
}

// WithWorkers bounds the goroutines used to evaluate large secrets.
// Values below 1 are treated as 1.
func WithWorkers(n int) Option {
	return func(s *Shamir) {
		s.workers = n
	}
}

// Shamir splits secrets with a fixed threshold and share count.
type Shamir struct {
	config  ShareConfig
	rng     io.Reader
	xcoords XCoordinates
	workers int
}

// NewShamir creates a new Shamir instance with the given configuration.
// Returns an error matching ErrConfiguration if the configuration is invalid.
// Without WithRandom, coefficients come from the software RNG resolver.
func NewShamir(config *ShareConfig, opts ...Option) (*Shamir, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Shamir{
		config:  *config,
		xcoords: XRandom,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.xcoords != XRandom && s.xcoords != XSequential {
		return nil, fmt.Errorf("%w: unknown x-coordinate strategy %q", ErrConfiguration, s.xcoords)
	}
	if s.workers < 1 {
		s.workers = 1
	}
	if s.rng == nil {
		rng, err := rand.NewResolver(rand.ModeSoftware)
		if err != nil {
			return nil, fmt.Errorf("failed to create RNG resolver: %w", err)
		}
		s.rng = rng
	}
	return s, nil
}

// Threshold returns the number of shares needed to reconstruct.
func (s *Shamir) Threshold() int {
	return s.config.Threshold
}

// TotalShares returns the number of shares Split produces.
func (s *Shamir) TotalShares() int {
	return s.config.TotalShares
}

// Split divides a secret into TotalShares shares, any Threshold of which
// reconstruct it. Fresh coefficients are drawn on every call.
func (s *Shamir) Split(secret []byte) ([]Share, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	xs, err := s.xCoordinates()
	if err != nil {
		return nil, err
	}

	coeffs, err := newCoefficientMatrix(s.rng, len(secret), s.config.Threshold)
	if err != nil {
		return nil, err
	}
	defer coeffs.wipe()

	shares := make([]Share, len(xs))
	for i, x := range xs {
		shares[i] = Share{
			X:         x,
			Threshold: s.config.Threshold,
			Y:         make([]byte, len(secret)),
		}
	}

	if len(secret) >= ParallelThreshold && s.workers > 1 {
		s.evaluateParallel(secret, coeffs, shares)
	} else {
		evaluateRange(secret, coeffs, shares, 0, len(secret))
	}
	return shares, nil
}

// Combine reconstructs a secret from shares. It is equivalent to the
// package level Combine; the instance's threshold is not consulted since
// every share carries its own.
func (s *Shamir) Combine(shares []Share) ([]byte, error) {
	return Combine(shares)
}

func evaluateRange(secret []byte, coeffs *coefficientMatrix, shares []Share, lo, hi int) {
	for i := lo; i < hi; i++ {
		for k := range shares {
			shares[k].Y[i] = coeffs.evaluateRow(i, secret[i], shares[k].X)
		}
	}
}

// evaluateParallel splits byte positions into contiguous ranges. The
// coefficient matrix is read-only here and each goroutine writes disjoint
// indices of every share.
func (s *Shamir) evaluateParallel(secret []byte, coeffs *coefficientMatrix, shares []Share) {
	workers := s.workers
	chunk := (len(secret) + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < len(secret); lo += chunk {
		hi := min(lo+chunk, len(secret))
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			evaluateRange(secret, coeffs, shares, lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// maxXRounds bounds the reads spent rejection sampling x-coordinates. A
// healthy source needs one or two.
const maxXRounds = 64

func (s *Shamir) xCoordinates() ([]byte, error) {
	n := s.config.TotalShares
	xs := make([]byte, 0, n)

	if s.xcoords == XSequential {
		for i := 1; i <= n; i++ {
			xs = append(xs, byte(i))
		}
		return xs, nil
	}

	var seen [256]bool
	seen[0] = true
	buf := make([]byte, n)
	for round := 0; len(xs) < n; round++ {
		if round == maxXRounds {
			return nil, fmt.Errorf("random source produced only %d distinct x-coordinates of %d", len(xs), n)
		}
		if _, err := io.ReadFull(s.rng, buf); err != nil {
			return nil, fmt.Errorf("failed to generate x-coordinates: %w", err)
		}
		for _, b := range buf {
			if seen[b] {
				continue
			}
			seen[b] = true
			xs = append(xs, b)
			if len(xs) == n {
				break
			}
		}
	}
	return xs, nil
}

// Shard splits secret into parts encoded shares with the given threshold.
func Shard(secret []byte, parts, threshold int, opts ...Option) ([][]byte, error) {
	s, err := NewShamir(&ShareConfig{Threshold: threshold, TotalShares: parts}, opts...)
	if err != nil {
		return nil, err
	}
	shares, err := s.Split(secret)
	if err != nil {
		return nil, err
	}
	blobs := make([][]byte, len(shares))
	for i := range shares {
		blobs[i] = shares[i].Encode()
	}
	return blobs, nil
}
