//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package pir

import (
	"fmt"
	"math/big"
)

const (
	// DefaultEncodingBits is the default bit length of the per-item
	// moduli and blinding factors.
	DefaultEncodingBits = 512

	// MinEncodingBits is the smallest accepted encoding bit length.
	MinEncodingBits = 8

	// MinRSABits is the smallest RSA modulus size.
	MinRSABits = 1024
)

// Params define the protocol parameters. Both roles must use the
// same parameters.
type Params struct {
	// EncodingBits specifies the bit length of the per-item moduli
	// and the blinding factors. Every secret must be smaller than
	// 2^(EncodingBits-1).
	EncodingBits int

	// RSAKeyBits overrides the RSA modulus size. The value 0 selects
	// RSABitsFor(EncodingBits).
	RSAKeyBits int
}

// DefaultParams returns the default protocol parameters.
func DefaultParams() Params {
	return Params{
		EncodingBits: DefaultEncodingBits,
	}
}

// RSABitsFor returns the RSA modulus size for the encoding bit
// length: 2*encodingBits+1 rounded up to the next multiple of 256,
// but at least MinRSABits.
func RSABitsFor(encodingBits int) int {
	bits := 2*encodingBits + 1
	bits = (bits + 255) / 256 * 256
	return max(MinRSABits, bits)
}

// EncodingBitsFor returns the encoding bit length for secrets: the
// smallest length whose moduli exceed every secret, but at least
// DefaultEncodingBits.
func EncodingBitsFor(secrets []*big.Int) int {
	bits := DefaultEncodingBits
	for _, s := range secrets {
		bits = max(bits, s.BitLen()+1)
	}
	return bits
}

// RSABits returns the RSA modulus size for the parameters.
func (p Params) RSABits() int {
	if p.RSAKeyBits != 0 {
		return p.RSAKeyBits
	}
	return RSABitsFor(p.EncodingBits)
}

// Validate checks that the parameters are consistent. The blinded
// moduli are recovered with exact division which requires that the
// product of a blinding factor and a modulus never wraps the RSA
// modulus.
func (p Params) Validate() error {
	if p.EncodingBits < MinEncodingBits {
		return fmt.Errorf("%w: encoding bits %d < %d",
			ErrConfiguration, p.EncodingBits, MinEncodingBits)
	}
	return p.checkModulusBits(p.RSABits())
}

func (p Params) checkModulusBits(bits int) error {
	if bits <= 2*p.EncodingBits+1 {
		return fmt.Errorf("%w: %d-bit RSA modulus too small for %d-bit encoding",
			ErrConfiguration, bits, p.EncodingBits)
	}
	return nil
}

// checkKey validates the public key against the parameters.
func (p Params) checkKey(pub *PublicKey) error {
	if err := pub.validate(); err != nil {
		return err
	}
	return p.checkModulusBits(pub.N.BitLen())
}

// secretLimit returns the exclusive upper bound for the secrets. It
// is the smallest EncodingBits-bit integer, i.e. the smallest
// possible modulus.
func (p Params) secretLimit() *big.Int {
	return new(big.Int).Lsh(bigOne, uint(p.EncodingBits-1))
}
