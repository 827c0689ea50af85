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

// Package gf256 implements arithmetic in the finite field GF(2^8).
//
// Each field element is a single byte. Addition and subtraction are XOR,
// multiplication is polynomial multiplication reduced modulo the AES
// polynomial x^8 + x^4 + x^3 + x + 1 (0x11B). Multiplication and inversion
// use logarithm and exponentiation tables generated at package init from
// the generator 0x03.
//
// None of the operations are constant time.
package gf256

import "errors"

// Polynomial is the irreducible reduction polynomial x^8 + x^4 + x^3 + x + 1.
const Polynomial = 0x11B

// generator is a primitive element of the multiplicative group.
const generator = 0x03

// ErrDivisionByZero is returned when an inverse or quotient of zero is requested.
var ErrDivisionByZero = errors.New("gf256: division by zero")

var (
	logTable [256]byte
	expTable [256]byte
)

func init() {
	var x byte = 1
	for i := 0; i < 255; i++ {
		expTable[i] = x
		logTable[x] = byte(i)
		x = MulSlow(x, generator)
	}
	expTable[255] = expTable[0]
}

// Add returns a + b.
func Add(a, b byte) byte {
	return a ^ b
}

// Sub returns a - b, which is identical to Add in characteristic 2.
func Sub(a, b byte) byte {
	return a ^ b
}

// Mul returns a * b using the log/exp tables.
func Mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return expTable[(int(logTable[a])+int(logTable[b]))%255]
}

// MulSlow multiplies with the shift-and-add (peasant) algorithm. It is used to
// build the tables and serves as a reference implementation in tests.
func MulSlow(a, b byte) byte {
	var p byte
	for i := 0; i < 8; i++ {
		if b&1 != 0 {
			p ^= a
		}
		carry := a & 0x80
		a <<= 1
		if carry != 0 {
			a ^= Polynomial & 0xFF
		}
		b >>= 1
	}
	return p
}

// Inverse returns the multiplicative inverse of a.
// Returns ErrDivisionByZero when a is zero.
func Inverse(a byte) (byte, error) {
	if a == 0 {
		return 0, ErrDivisionByZero
	}
	return expTable[255-int(logTable[a])], nil
}

// Div returns a / b. Division of zero by any nonzero b is zero.
func Div(a, b byte) (byte, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	if a == 0 {
		return 0, nil
	}
	return expTable[(int(logTable[a])+255-int(logTable[b]))%255], nil
}

// Exp returns a raised to the power n, for n >= 0. Exp(0, 0) is 1.
func Exp(a byte, n int) byte {
	if n == 0 {
		return 1
	}
	if a == 0 {
		return 0
	}
	return expTable[(int(logTable[a])*(n%255))%255]
}
