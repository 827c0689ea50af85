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

	"github.com/jeremyhahn/go-shamir/pkg/crypto/gf256"
)

// Polynomial holds GF(2^8) coefficients; coefficient i multiplies x^i.
type Polynomial []byte

// NewPolynomial returns a polynomial of degree threshold-1 whose constant
// term is intercept and whose remaining coefficients are read from rng.
// The leading coefficient may be zero.
func NewPolynomial(rng io.Reader, intercept byte, threshold int) (Polynomial, error) {
	if threshold < 1 || threshold > MaxShares {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidThreshold, threshold)
	}
	p := make(Polynomial, threshold)
	p[0] = intercept
	if threshold > 1 {
		if _, err := io.ReadFull(rng, p[1:]); err != nil {
			return nil, fmt.Errorf("failed to generate random coefficients: %w", err)
		}
	}
	return p, nil
}

// Evaluate returns p(x) using Horner's method.
func (p Polynomial) Evaluate(x byte) byte {
	return evaluate(p, x)
}

// Degree returns len(p)-1. The leading coefficient may be zero, so this is
// an upper bound on the true degree.
func (p Polynomial) Degree() int {
	return len(p) - 1
}

func evaluate(coeffs []byte, x byte) byte {
	if len(coeffs) == 0 {
		return 0
	}
	result := coeffs[len(coeffs)-1]
	for i := len(coeffs) - 2; i >= 0; i-- {
		result = gf256.Add(gf256.Mul(result, x), coeffs[i])
	}
	return result
}

// coefficientMatrix holds the random coefficients of every byte position in
// one flat slice. Row i is a1..a(T-1) for secret byte i.
type coefficientMatrix struct {
	width int
	data  []byte
}

// newCoefficientMatrix fills a matrix for rows secret bytes with a single
// read from rng.
func newCoefficientMatrix(rng io.Reader, rows, threshold int) (*coefficientMatrix, error) {
	m := &coefficientMatrix{width: threshold - 1}
	if m.width == 0 {
		return m, nil
	}
	m.data = make([]byte, rows*m.width)
	if _, err := io.ReadFull(rng, m.data); err != nil {
		clear(m.data)
		return nil, fmt.Errorf("failed to generate random coefficients: %w", err)
	}
	return m, nil
}

// evaluateRow evaluates the polynomial intercept + row(i) at x.
func (m *coefficientMatrix) evaluateRow(i int, intercept, x byte) byte {
	if m.width == 0 {
		return intercept
	}
	row := m.data[i*m.width : (i+1)*m.width]
	result := row[len(row)-1]
	for j := len(row) - 2; j >= 0; j-- {
		result = gf256.Add(gf256.Mul(result, x), row[j])
	}
	return gf256.Add(gf256.Mul(result, x), intercept)
}

func (m *coefficientMatrix) wipe() {
	clear(m.data)
}
