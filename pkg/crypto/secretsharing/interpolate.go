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

// Point is one (x, y) sample of a polynomial.
type Point struct {
	X, Y byte
}

// InterpolateAtZero returns the value at x=0 of the lowest degree polynomial
// passing through points. With fewer points than the polynomial's threshold
// the result is meaningless but no error is reported.
func InterpolateAtZero(points []Point) (byte, error) {
	if len(points) == 0 {
		return 0, fmt.Errorf("%w: no points to interpolate", ErrInsufficientShares)
	}
	xs := make([]byte, len(points))
	for i, p := range points {
		xs[i] = p.X
	}
	basis, err := basisAtZero(xs)
	if err != nil {
		return 0, err
	}
	var result byte
	for i, p := range points {
		result = gf256.Add(result, gf256.Mul(p.Y, basis[i]))
	}
	return result, nil
}

// basisAtZero computes the Lagrange basis values l_j(0) for xs:
//
//	l_j(0) = prod_{k != j} x_k / (x_j - x_k)
//
// Subtraction is XOR in GF(2^8), so (0 - x_k) is x_k.
func basisAtZero(xs []byte) ([]byte, error) {
	basis := make([]byte, len(xs))
	for j, xj := range xs {
		if xj == 0 {
			return nil, fmt.Errorf("%w: x-coordinate 0 at index %d", ErrDomain, j)
		}
		var num, den byte = 1, 1
		for k, xk := range xs {
			if k == j {
				continue
			}
			num = gf256.Mul(num, xk)
			den = gf256.Mul(den, gf256.Sub(xj, xk))
		}
		l, err := gf256.Div(num, den)
		if err != nil {
			return nil, fmt.Errorf("%w: duplicate x-coordinate %d: %w", ErrDomain, xj, err)
		}
		basis[j] = l
	}
	return basis, nil
}
