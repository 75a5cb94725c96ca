//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package pir

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/markkurossi/crtpir/crt"
	"github.com/markkurossi/crtpir/env"
	"github.com/markkurossi/crtpir/mpint"
)

// OwnerState defines the owner's protocol states.
type OwnerState int

// Owner states.
const (
	OwnerInitialized OwnerState = iota
	OwnerAwaitingRequest
	OwnerResponded
)

var ownerStates = map[OwnerState]string{
	OwnerInitialized:     "initialized",
	OwnerAwaitingRequest: "awaiting-request",
	OwnerResponded:       "responded",
}

func (s OwnerState) String() string {
	name, ok := ownerStates[s]
	if ok {
		return name
	}
	return fmt.Sprintf("{OwnerState %d}", s)
}

// Owner implements the data owner role. An Owner serves exactly one
// retrieval session; its moduli must not be reused. Owner is not
// safe for concurrent use.
type Owner struct {
	key       *KeyMaterial
	params    Params
	state     OwnerState
	sessionID uuid.UUID
	c         *big.Int
	t         []*big.Int

	// Set in OwnerResponded.
	alpha []*big.Int
	beta  []*big.Int
}

// NewOwner creates an owner for the secrets. It draws fresh pairwise
// coprime moduli, combines the secrets with CRT, and encrypts the
// moduli with the public key. The function returns ErrConfiguration
// if the key is too small for the parameters or if any secret does
// not fit under the smallest EncodingBits-bit modulus.
func NewOwner(config *env.Config, key *KeyMaterial, params Params,
	secrets []*big.Int) (*Owner, error) {

	if err := params.Validate(); err != nil {
		return nil, err
	}
	if key == nil || key.D == nil {
		return nil, fmt.Errorf("%w: missing private key", ErrConfiguration)
	}
	if err := params.checkKey(&key.PublicKey); err != nil {
		return nil, err
	}
	limit := params.secretLimit()
	for idx, s := range secrets {
		if s == nil || s.Sign() < 0 {
			return nil, fmt.Errorf("%w: secret %d is not a non-negative integer",
				ErrConfiguration, idx)
		}
		if s.Cmp(limit) >= 0 {
			return nil, fmt.Errorf("%w: secret %d has %d bits, encoding allows %d",
				ErrConfiguration, idx, s.BitLen(), params.EncodingBits-1)
		}
	}

	rand := config.GetRandom()

	sessionID, err := uuid.NewRandomFromReader(rand)
	if err != nil {
		return nil, fmt.Errorf("failed to create session id: %w", err)
	}
	moduli, err := crt.GeneratePairwiseCoprime(rand, params.EncodingBits,
		key.N, len(secrets))
	if err != nil {
		return nil, err
	}
	c, err := crt.Solve(secrets, moduli)
	if err != nil {
		return nil, err
	}
	t := make([]*big.Int, len(moduli))
	for i, d := range moduli {
		t[i] = mpint.Exp(d, key.E, key.N)
	}

	return &Owner{
		key:       key,
		params:    params,
		state:     OwnerInitialized,
		sessionID: sessionID,
		c:         c,
		t:         t,
	}, nil
}

// State returns the owner's protocol state.
func (o *Owner) State() OwnerState {
	return o.state
}

// SessionID returns the session ID.
func (o *Owner) SessionID() uuid.UUID {
	return o.sessionID
}

// InitiationMessage returns the initiation message. It can be called
// repeatedly; the first call moves the owner to OwnerAwaitingRequest.
// The returned integers are shared with the owner and must not be
// modified.
func (o *Owner) InitiationMessage() *InitiationMessage {
	if o.state == OwnerInitialized {
		o.state = OwnerAwaitingRequest
	}
	return &InitiationMessage{
		SessionID:    o.sessionID,
		EncodingBits: o.params.EncodingBits,
		PublicKey:    *o.key.Public(),
		C:            o.c,
		T:            append([]*big.Int(nil), o.t...),
	}
}

// ProcessRequest decrypts the blinded request. Processing the same
// request again after a response is a no-op, while a different
// request returns ErrInvalidState.
func (o *Owner) ProcessRequest(msg *RequestMessage) error {
	if msg == nil {
		return fmt.Errorf("%w: nil request", ErrMalformed)
	}
	if msg.SessionID != o.sessionID {
		return fmt.Errorf("%w: request %s, session %s",
			ErrSessionMismatch, msg.SessionID, o.sessionID)
	}
	if o.state == OwnerResponded {
		if equalInts(msg.Alpha, o.alpha) {
			return nil
		}
		return fmt.Errorf("%w: request already processed", ErrInvalidState)
	}
	for idx, alpha := range msg.Alpha {
		if alpha == nil || alpha.Sign() <= 0 || alpha.Cmp(o.key.N) >= 0 {
			return fmt.Errorf("%w: request value %d not in [1, n)",
				ErrMalformed, idx)
		}
	}

	alpha := make([]*big.Int, len(msg.Alpha))
	beta := make([]*big.Int, len(msg.Alpha))
	for idx, a := range msg.Alpha {
		alpha[idx] = new(big.Int).Set(a)
		beta[idx] = mpint.Exp(a, o.key.D, o.key.N)
	}
	o.alpha = alpha
	o.beta = beta
	o.state = OwnerResponded

	return nil
}

// ResponseMessage returns the response message. It returns
// ErrInvalidState if no request has been processed.
func (o *Owner) ResponseMessage() (*ResponseMessage, error) {
	if o.state != OwnerResponded {
		return nil, fmt.Errorf("%w: response in state %s",
			ErrInvalidState, o.state)
	}
	return &ResponseMessage{
		SessionID: o.sessionID,
		Beta:      append([]*big.Int(nil), o.beta...),
	}, nil
}

func equalInts(a, b []*big.Int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == nil || b[i] == nil || a[i].Cmp(b[i]) != 0 {
			return false
		}
	}
	return true
}
