//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package pir

import (
	"errors"
)

var (
	// ErrConfiguration is returned when the encoding size is too
	// small for the secrets or the RSA modulus is too small for the
	// encoding size.
	ErrConfiguration = errors.New("pir: configuration error")

	// ErrInvalidState is returned when a role operation is called out
	// of protocol order.
	ErrInvalidState = errors.New("pir: invalid state")

	// ErrCorruptedRecovery is returned when a response does not
	// unblind into a valid modulus.
	ErrCorruptedRecovery = errors.New("pir: corrupted recovery")

	// ErrIndexOutOfRange is returned for requested indices outside
	// the owner's list.
	ErrIndexOutOfRange = errors.New("pir: index out of range")

	// ErrSessionMismatch is returned when a message belongs to a
	// different session.
	ErrSessionMismatch = errors.New("pir: session mismatch")

	// ErrMalformed is returned for structurally invalid messages.
	ErrMalformed = errors.New("pir: malformed message")
)
