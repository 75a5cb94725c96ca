//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package pir

import (
	"math/big"

	"github.com/google/uuid"
)

// InitiationMessage is the owner's first message. It carries the
// combined residue C and the encrypted moduli T.
type InitiationMessage struct {
	// SessionID ties all messages of a session together.
	SessionID uuid.UUID

	// EncodingBits is the owner's encoding bit length. The
	// requester must use the same length.
	EncodingBits int

	// PublicKey is the owner's public key.
	PublicKey PublicKey

	// C is the CRT combination of the owner's secrets.
	C *big.Int

	// T holds the moduli encrypted with the public key.
	T []*big.Int
}

// RequestMessage is the requester's blinded request.
type RequestMessage struct {
	// SessionID echoes the initiation's session ID.
	SessionID uuid.UUID

	// Alpha holds one blinded modulus per requested index.
	Alpha []*big.Int
}

// ResponseMessage is the owner's response.
type ResponseMessage struct {
	// SessionID echoes the initiation's session ID.
	SessionID uuid.UUID

	// Beta holds the decrypted, still blinded, moduli.
	Beta []*big.Int
}
