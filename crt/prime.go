//
// prime.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package crt

import (
	"fmt"
	"io"
	"math/big"

	"github.com/markkurossi/crtpir/mpint"
)

const (
	// primalityRounds specifies the Miller-Rabin rounds for prime
	// candidates.
	primalityRounds = 20

	// maxExtraDraws bounds the number of rejected candidates in
	// GeneratePairwiseCoprime.
	maxExtraDraws = 64
)

var bigOne = big.NewInt(1)

// RandomPrime returns a prime of exactly bits bits. The candidates are
// read from rand so that a deterministic rand produces deterministic
// primes.
func RandomPrime(rand io.Reader, bits int) (*big.Int, error) {
	if bits < 2 {
		return nil, fmt.Errorf("%w: prime size %d too small",
			ErrPrecondition, bits)
	}
	buf := make([]byte, (bits+7)/8)

	topBits := uint(bits % 8)
	if topBits == 0 {
		topBits = 8
	}
	p := new(big.Int)

	for {
		if _, err := io.ReadFull(rand, buf); err != nil {
			return nil, err
		}
		buf[0] &= byte(int(1<<topBits) - 1)
		buf[0] |= 1 << (topBits - 1)
		buf[len(buf)-1] |= 1

		p.SetBytes(buf)
		if p.ProbablyPrime(primalityRounds) {
			return p, nil
		}
	}
}

// GeneratePairwiseCoprime returns count integers of exactly bits bits
// that are pairwise coprime and coprime to n. The integers are primes
// so coprimality only fails if a candidate repeats an earlier value
// or divides n. Such candidates are rejected and redrawn. If n is
// nil, the coprimality check against n is skipped.
func GeneratePairwiseCoprime(rand io.Reader, bits int, n *big.Int,
	count int) ([]*big.Int, error) {

	if count < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrPrecondition, count)
	}
	result := make([]*big.Int, 0, count)
	seen := make(map[string]bool)

	var rejected int
	for len(result) < count {
		p, err := RandomPrime(rand, bits)
		if err != nil {
			return nil, err
		}
		key := p.Text(16)
		if seen[key] || (n != nil && mpint.GCD(p, n).Cmp(bigOne) != 0) {
			rejected++
			if rejected > maxExtraDraws {
				return nil, fmt.Errorf("%w: %d candidates of %d bits rejected",
					ErrGeneration, rejected, bits)
			}
			continue
		}
		seen[key] = true
		result = append(result, p)
	}
	return result, nil
}
