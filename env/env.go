//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

// Package env implements global environment for the retrieval
// protocol.
package env

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/chacha20"
)

// Config defines the global system configuration for the protocol
// roles. It must not be modified after being passed to any role. It
// is safe for concurrent use by multiple sessions as they do not
// modify it. Note that a deterministic Rand is a stream and sharing
// it between concurrent sessions interleaves their draws.
type Config struct {
	Rand io.Reader
}

// GetRandom returns the source of entropy for moduli, blinding
// factors, and session identifiers.
func (config *Config) GetRandom() io.Reader {
	if config != nil && config.Rand != nil {
		return config.Rand
	}
	return rand.Reader
}

// NewDeterministicRand creates a reproducible entropy source from
// seed. The stream is the ChaCha20 keystream under the key
// SHA-256(seed) and a zero nonce. It is intended for tests and
// reproducible demonstrations only.
func NewDeterministicRand(seed []byte) io.Reader {
	key := sha256.Sum256(seed)
	var nonce [chacha20.NonceSize]byte

	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		panic(err)
	}
	return &keystream{
		cipher: c,
	}
}

type keystream struct {
	cipher *chacha20.Cipher
}

func (k *keystream) Read(p []byte) (int, error) {
	clear(p)
	k.cipher.XORKeyStream(p, p)
	return len(p), nil
}
