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

// RequesterState defines the requester's protocol states.
type RequesterState int

// Requester states.
const (
	RequesterCreated RequesterState = iota
	RequesterAwaitingResponse
	RequesterCompleted
)

var requesterStates = map[RequesterState]string{
	RequesterCreated:          "created",
	RequesterAwaitingResponse: "awaiting-response",
	RequesterCompleted:        "completed",
}

func (s RequesterState) String() string {
	name, ok := requesterStates[s]
	if ok {
		return name
	}
	return fmt.Sprintf("{RequesterState %d}", s)
}

// requesterPhase holds the data that is valid in one requester
// state.
type requesterPhase interface {
	state() RequesterState
}

type phaseCreated struct{}

func (p *phaseCreated) state() RequesterState {
	return RequesterCreated
}

type phaseAwaitingResponse struct {
	sessionID uuid.UUID
	c         *big.Int
	blinding  []*big.Int
	alpha     []*big.Int
}

func (p *phaseAwaitingResponse) state() RequesterState {
	return RequesterAwaitingResponse
}

type phaseCompleted struct {
	sessionID uuid.UUID
	recovered []*big.Int
}

func (p *phaseCompleted) state() RequesterState {
	return RequesterCompleted
}

// Requester implements the requesting role. Requester is not safe
// for concurrent use.
type Requester struct {
	config  *env.Config
	pub     *PublicKey
	params  Params
	indices []int
	phase   requesterPhase
}

// NewRequester creates a requester for the indices of the owner's
// list. If listSize is positive, the indices are checked against it;
// otherwise they are checked against the initiation message.
func NewRequester(config *env.Config, pub *PublicKey, params Params,
	indices []int, listSize int) (*Requester, error) {

	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := params.checkKey(pub); err != nil {
		return nil, err
	}
	for _, idx := range indices {
		if idx < 0 || (listSize > 0 && idx >= listSize) {
			return nil, fmt.Errorf("%w: index %d, list size %d",
				ErrIndexOutOfRange, idx, listSize)
		}
	}
	return &Requester{
		config:  config,
		pub:     pub,
		params:  params,
		indices: append([]int(nil), indices...),
		phase:   &phaseCreated{},
	}, nil
}

// State returns the requester's protocol state.
func (r *Requester) State() RequesterState {
	return r.phase.state()
}

// Indices returns the requested indices.
func (r *Requester) Indices() []int {
	return append([]int(nil), r.indices...)
}

// ProcessInitiation processes the owner's initiation message and
// creates the blinded request.
func (r *Requester) ProcessInitiation(msg *InitiationMessage) error {
	if _, ok := r.phase.(*phaseCreated); !ok {
		return fmt.Errorf("%w: initiation in state %s",
			ErrInvalidState, r.State())
	}
	if msg == nil || msg.C == nil || msg.C.Sign() < 0 {
		return fmt.Errorf("%w: invalid initiation", ErrMalformed)
	}
	if msg.PublicKey.N != nil && !msg.PublicKey.Equal(r.pub) {
		return fmt.Errorf("%w: initiation public key mismatch",
			ErrConfiguration)
	}
	if msg.EncodingBits != r.params.EncodingBits {
		return fmt.Errorf("%w: owner uses %d-bit encoding, requester %d",
			ErrConfiguration, msg.EncodingBits, r.params.EncodingBits)
	}
	n := r.pub.N
	for idx, t := range msg.T {
		if t == nil || t.Sign() <= 0 || t.Cmp(n) >= 0 {
			return fmt.Errorf("%w: encrypted modulus %d not in [1, n)",
				ErrMalformed, idx)
		}
	}
	for _, idx := range r.indices {
		if idx >= len(msg.T) {
			return fmt.Errorf("%w: index %d, list size %d",
				ErrIndexOutOfRange, idx, len(msg.T))
		}
	}

	blinding, err := crt.GeneratePairwiseCoprime(r.config.GetRandom(),
		r.params.EncodingBits, n, len(r.indices))
	if err != nil {
		return err
	}
	alpha := make([]*big.Int, len(r.indices))
	for i, idx := range r.indices {
		a := mpint.Exp(blinding[i], r.pub.E, n)
		alpha[i] = a.Mod(a.Mul(a, msg.T[idx]), n)
	}

	r.phase = &phaseAwaitingResponse{
		sessionID: msg.SessionID,
		c:         new(big.Int).Set(msg.C),
		blinding:  blinding,
		alpha:     alpha,
	}
	return nil
}

// RequestMessage returns the blinded request message.
func (r *Requester) RequestMessage() (*RequestMessage, error) {
	phase, ok := r.phase.(*phaseAwaitingResponse)
	if !ok {
		return nil, fmt.Errorf("%w: request in state %s",
			ErrInvalidState, r.State())
	}
	return &RequestMessage{
		SessionID: phase.sessionID,
		Alpha:     append([]*big.Int(nil), phase.alpha...),
	}, nil
}

// ProcessResponse unblinds the owner's response and decodes the
// requested items. It returns ErrCorruptedRecovery if a response
// value is not an exact multiple of its blinding factor or the
// quotient is not an EncodingBits-bit modulus.
func (r *Requester) ProcessResponse(msg *ResponseMessage) error {
	phase, ok := r.phase.(*phaseAwaitingResponse)
	if !ok {
		return fmt.Errorf("%w: response in state %s",
			ErrInvalidState, r.State())
	}
	if msg == nil {
		return fmt.Errorf("%w: nil response", ErrMalformed)
	}
	if msg.SessionID != phase.sessionID {
		return fmt.Errorf("%w: response %s, session %s",
			ErrSessionMismatch, msg.SessionID, phase.sessionID)
	}
	if len(msg.Beta) != len(phase.blinding) {
		return fmt.Errorf("%w: #response=%d != #request=%d",
			ErrMalformed, len(msg.Beta), len(phase.blinding))
	}

	recovered := make([]*big.Int, len(msg.Beta))
	for i, beta := range msg.Beta {
		if beta == nil || beta.Sign() <= 0 {
			return fmt.Errorf("%w: response value %d", ErrCorruptedRecovery, i)
		}
		d, rem := mpint.QuoRem(beta, phase.blinding[i])
		if rem.Sign() != 0 {
			return fmt.Errorf("%w: inexact unblinding of item %d",
				ErrCorruptedRecovery, i)
		}
		if d.BitLen() != r.params.EncodingBits {
			return fmt.Errorf("%w: item %d unblinded to a %d-bit modulus",
				ErrCorruptedRecovery, i, d.BitLen())
		}
		recovered[i] = crt.Decode(phase.c, d)
	}

	r.phase = &phaseCompleted{
		sessionID: phase.sessionID,
		recovered: recovered,
	}
	return nil
}

// Recovered returns the recovered items in request order.
func (r *Requester) Recovered() ([]*big.Int, error) {
	phase, ok := r.phase.(*phaseCompleted)
	if !ok {
		return nil, fmt.Errorf("%w: result in state %s",
			ErrInvalidState, r.State())
	}
	return append([]*big.Int(nil), phase.recovered...), nil
}
