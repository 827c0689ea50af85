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

	"github.com/jeremyhahn/go-shamir/pkg/crypto/gf256"
)

// Combine reconstructs the secret from threshold or more shares of one
// sharding operation. Order is irrelevant. When more than threshold shares
// are given the first threshold of them, in input order, are used.
//
// Shares are not authenticated. Threshold structurally valid shares from
// different secrets combine without error into a wrong secret.
func Combine(shares []Share) ([]byte, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("%w: no shares provided", ErrInsufficientShares)
	}

	for i := range shares {
		if err := shares[i].Validate(); err != nil {
			return nil, fmt.Errorf("share %d: %w", i, err)
		}
	}

	threshold := shares[0].Threshold
	length := len(shares[0].Y)
	for i := 1; i < len(shares); i++ {
		if shares[i].Threshold != threshold {
			return nil, fmt.Errorf("%w: share %d has threshold %d, share 0 has %d",
				ErrThresholdMismatch, i, shares[i].Threshold, threshold)
		}
	}
	for i := 1; i < len(shares); i++ {
		if len(shares[i].Y) != length {
			return nil, fmt.Errorf("%w: share %d has %d bytes, share 0 has %d",
				ErrLengthMismatch, i, len(shares[i].Y), length)
		}
	}

	var seen [256]int
	for i := range shares {
		x := shares[i].X
		if seen[x] != 0 {
			return nil, fmt.Errorf("%w: x=%d at shares %d and %d", ErrDuplicateXCoordinate, x, seen[x]-1, i)
		}
		seen[x] = i + 1
	}

	if len(shares) < threshold {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrInsufficientShares, threshold, len(shares))
	}

	chosen := shares[:threshold]
	xs := make([]byte, threshold)
	for i := range chosen {
		xs[i] = chosen[i].X
	}
	basis, err := basisAtZero(xs)
	if err != nil {
		return nil, err
	}

	secret := make([]byte, length)
	for b := 0; b < length; b++ {
		var acc byte
		for j := range chosen {
			acc = gf256.Add(acc, gf256.Mul(chosen[j].Y[b], basis[j]))
		}
		secret[b] = acc
	}
	return secret, nil
}

// CombineBytes decodes each blob with DecodeShare and combines the result.
func CombineBytes(blobs [][]byte) ([]byte, error) {
	if len(blobs) == 0 {
		return nil, fmt.Errorf("%w: no shares provided", ErrInsufficientShares)
	}
	shares := make([]Share, len(blobs))
	for i, blob := range blobs {
		s, err := DecodeShare(blob)
		if err != nil {
			return nil, fmt.Errorf("share %d: %w", i, err)
		}
		shares[i] = *s
	}
	return Combine(shares)
}
