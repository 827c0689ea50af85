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


// Package secretsharing implements Shamir's Secret Sharing Scheme over GF(2^8).
//
// A secret of L bytes is divided into N shares such that any T of them
// (the threshold) reconstruct it exactly, while T-1 or fewer reveal nothing
// about it. Each secret byte is the constant term of its own random
// polynomial of degree T-1:
//
//	p(x) = a0 + a1*x + a2*x^2 + ... + a(T-1)*x^(T-1)
//
// A share holds one nonzero x-coordinate and the value of every byte's
// polynomial at that point. Combine recovers each a0 by Lagrange
// interpolation at x=0. Field arithmetic lives in package gf256.
//
// # Usage Example
//
//	rng, err := rand.NewResolver(rand.ModeAuto)
//	if err != nil {
//	    return err
//	}
//	defer rng.Close()
//
//	blobs, err := secretsharing.Shard(secret, 5, 3, secretsharing.WithRandom(rng))
//	if err != nil {
//	    return err
//	}
//
//	// Later, any 3 of the 5 blobs:
//	recovered, err := secretsharing.CombineBytes(blobs[:3])
//
// # Share Format
//
// Encoded shares use a 9 byte big-endian header followed by the y-values:
//
//	"SH" | version (0x01) | threshold | x | length (uint32) | y[length]
//
// The format is stable; shares written by one release decode in later ones.
//
// # Security Properties
//
//   - Information-theoretic secrecy below the threshold.
//   - Fresh coefficients are drawn for every Split call.
//   - Shares are NOT authenticated. Combining T structurally valid shares
//     from different secrets succeeds and yields garbage. Callers that need
//     integrity must add it outside this package.
//   - Field arithmetic is table based and not constant time.
//
// # Errors
//
// Every error matches one of ErrConfiguration, ErrEmptySecret, ErrFormat,
// ErrReconstruction or ErrDomain with errors.Is. ErrorKind maps an error to
// a stable name for logs and metrics.
//
// # Thread Safety
//
// Shamir is safe for concurrent use when its random source is.
package secretsharing
