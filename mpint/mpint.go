//
// mpint.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package mpint implements multi-precision integer helpers for the
// retrieval protocol. All functions allocate their results and never
// modify their arguments.
package mpint

import (
	"errors"
	"math/big"
)

var (
	// ErrNoInverse is returned when a modular inverse is requested
	// for a value that is not coprime with the modulus.
	ErrNoInverse = errors.New("mpint: modular inverse does not exist")

	bigOne = big.NewInt(1)
)

// FromBytes creates an unsigned integer from its big-endian bytes.
func FromBytes(data []byte) *big.Int {
	return big.NewInt(0).SetBytes(data)
}

// Add returns a+b.
func Add(a, b *big.Int) *big.Int {
	return big.NewInt(0).Add(a, b)
}

// Sub returns a-b.
func Sub(a, b *big.Int) *big.Int {
	return big.NewInt(0).Sub(a, b)
}

// Mul returns a*b.
func Mul(a, b *big.Int) *big.Int {
	return big.NewInt(0).Mul(a, b)
}

// Exp returns x**y mod m.
func Exp(x, y, m *big.Int) *big.Int {
	return big.NewInt(0).Exp(x, y, m)
}

// Mod returns the Euclidean modulus x mod y.
func Mod(x, y *big.Int) *big.Int {
	return big.NewInt(0).Mod(x, y)
}

// QuoRem returns the truncated quotient and remainder of x/y.
func QuoRem(x, y *big.Int) (q, r *big.Int) {
	q = new(big.Int)
	r = new(big.Int)
	q.QuoRem(x, y, r)
	return
}

// GCD returns the non-negative greatest common divisor of a and b.
func GCD(a, b *big.Int) *big.Int {
	return new(big.Int).GCD(nil, nil, a, b)
}

// ExtendedGCD computes g = gcd(a, b) together with the Bézout
// coefficients x and y so that a*x + b*y == g. The arguments may be
// zero or negative; g is always non-negative.
func ExtendedGCD(a, b *big.Int) (g, x, y *big.Int) {
	x0 := big.NewInt(1)
	y0 := big.NewInt(0)
	x1 := big.NewInt(0)
	y1 := big.NewInt(1)

	r0 := new(big.Int).Set(a)
	r1 := new(big.Int).Set(b)

	q := new(big.Int)
	r := new(big.Int)
	tmp := new(big.Int)

	// Invariants: a*x0 + b*y0 == r0 and a*x1 + b*y1 == r1.
	for r1.Sign() != 0 {
		q.DivMod(r0, r1, r)
		r0, r1 = r1, new(big.Int).Set(r)

		tmp.Mul(q, x1)
		x0, x1 = x1, new(big.Int).Sub(x0, tmp)

		tmp.Mul(q, y1)
		y0, y1 = y1, new(big.Int).Sub(y0, tmp)
	}
	if r0.Sign() < 0 {
		r0.Neg(r0)
		x0.Neg(x0)
		y0.Neg(y0)
	}
	return r0, x0, y0
}

// ModInverse returns x in [0, m) such that a*x = 1 (mod m). The
// function returns ErrNoInverse if gcd(a, m) != 1 or if m is not
// positive.
func ModInverse(a, m *big.Int) (*big.Int, error) {
	if m.Sign() <= 0 {
		return nil, ErrNoInverse
	}
	g, x, _ := ExtendedGCD(Mod(a, m), m)
	if g.Cmp(bigOne) != 0 {
		return nil, ErrNoInverse
	}
	return x.Mod(x, m), nil
}
