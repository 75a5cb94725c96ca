//
// crt.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package crt implements the Chinese Remainder Theorem encoding of
// integer lists and the generation of pairwise coprime moduli for it.
//
// A list of residues r[i] under pairwise coprime moduli m[i] is
// combined into one integer C so that C mod m[i] == r[i]. Any single
// item is decoded with a remainder operation against its modulus,
// provided that the modulus exceeds the item.
package crt

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/markkurossi/crtpir/mpint"
)

var (
	// ErrPrecondition is returned when the CRT inputs are malformed.
	ErrPrecondition = errors.New("crt: invalid input")

	// ErrPostcondition is returned when the combined residue does
	// not reduce to the input residues. It indicates a broken
	// generator or arithmetic and is always fatal.
	ErrPostcondition = errors.New("crt: postcondition violation")

	// ErrGeneration is returned when coprime moduli could not be
	// generated.
	ErrGeneration = errors.New("crt: modulus generation failed")
)

// Solve combines residues under the pairwise coprime moduli into a
// single integer C in [0, prod(moduli)) so that C mod moduli[i] ==
// residues[i] for every i. Every residue must be in [0, moduli[i]).
func Solve(residues, moduli []*big.Int) (*big.Int, error) {
	if len(residues) != len(moduli) {
		return nil, fmt.Errorf("%w: #residues=%d != #moduli=%d",
			ErrPrecondition, len(residues), len(moduli))
	}

	d := big.NewInt(1)
	for i, m := range moduli {
		if m.Cmp(bigOne) <= 0 {
			return nil, fmt.Errorf("%w: modulus %d is %s",
				ErrPrecondition, i, m)
		}
		if residues[i].Sign() < 0 || residues[i].Cmp(m) >= 0 {
			return nil, fmt.Errorf("%w: residue %d not in [0, m)",
				ErrPrecondition, i)
		}
		d.Mul(d, m)
	}

	c := new(big.Int)
	di := new(big.Int)
	tmp := new(big.Int)

	for i, m := range moduli {
		di.Div(d, m)
		yi, err := mpint.ModInverse(di, m)
		if err != nil {
			return nil, fmt.Errorf("crt: modulus %d not coprime: %w", i, err)
		}
		tmp.Mul(residues[i], di)
		tmp.Mul(tmp, yi)
		c.Add(c, tmp)
	}
	c.Mod(c, d)

	for i, m := range moduli {
		if Decode(c, m).Cmp(residues[i]) != 0 {
			return nil, fmt.Errorf("%w: C mod m[%d] != r[%d]",
				ErrPostcondition, i, i)
		}
	}
	return c, nil
}

// Decode recovers the residue of c under modulus. The result equals
// the encoded item exactly when modulus exceeded it at encode time.
func Decode(c, modulus *big.Int) *big.Int {
	return mpint.Mod(c, modulus)
}
