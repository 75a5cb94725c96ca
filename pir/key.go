//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package pir

import (
	"crypto/rsa"
	"fmt"
	"io"
	"math/big"
)

var bigOne = big.NewInt(1)

// PublicKey defines the owner's public RSA key.
type PublicKey struct {
	N *big.Int
	E *big.Int
}

// Equal tests if the keys are equal.
func (pub *PublicKey) Equal(o *PublicKey) bool {
	if pub == nil || o == nil || pub.N == nil || o.N == nil ||
		pub.E == nil || o.E == nil {
		return false
	}
	return pub.N.Cmp(o.N) == 0 && pub.E.Cmp(o.E) == 0
}

func (pub *PublicKey) validate() error {
	if pub == nil || pub.N == nil || pub.E == nil {
		return fmt.Errorf("%w: missing public key", ErrConfiguration)
	}
	if pub.N.Cmp(bigOne) <= 0 || pub.E.Cmp(bigOne) <= 0 {
		return fmt.Errorf("%w: invalid public key", ErrConfiguration)
	}
	return nil
}

// KeyMaterial holds the owner's RSA key. The private exponent D is
// never sent to the requester.
type KeyMaterial struct {
	PublicKey
	D *big.Int
}

// NewKeyMaterial creates key material from an RSA private key.
func NewKeyMaterial(key *rsa.PrivateKey) *KeyMaterial {
	return &KeyMaterial{
		PublicKey: PublicKey{
			N: new(big.Int).Set(key.N),
			E: big.NewInt(int64(key.E)),
		},
		D: new(big.Int).Set(key.D),
	}
}

// GenerateKey creates a new RSA key of params.RSABits() bits.
func GenerateKey(rand io.Reader, params Params) (*KeyMaterial, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	key, err := rsa.GenerateKey(rand, params.RSABits())
	if err != nil {
		return nil, err
	}
	return NewKeyMaterial(key), nil
}

// Public returns a copy of the public key.
func (key *KeyMaterial) Public() *PublicKey {
	return &PublicKey{
		N: new(big.Int).Set(key.N),
		E: new(big.Int).Set(key.E),
	}
}
