//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package pir implements a two-party, single-round private retrieval
// protocol. The owner holds an ordered list of non-negative integers
// and the requester learns the items at chosen indices without
// revealing the indices to the owner. Items the requester did not
// ask for stay hidden under the semi-honest model.
//
// The owner draws a fresh prime modulus d[i] for each item, combines
// the items into C with the Chinese Remainder Theorem, and publishes
// C together with T[i] = d[i]^e mod n. The requester blinds the
// selected T values with random factors r^e, the owner decrypts them
// with its private exponent, and the requester divides the factors
// out to learn the moduli and decodes C mod d.
//
// The roles are plain state machines without networking code:
//
//	owner, err := pir.NewOwner(config, key, params, secrets)
//	requester, err := pir.NewRequester(config, key.Public(), params, indices, len(secrets))
//
//	err = requester.ProcessInitiation(owner.InitiationMessage())
//	req, err := requester.RequestMessage()
//	err = owner.ProcessRequest(req)
//	resp, err := owner.ResponseMessage()
//	err = requester.ProcessResponse(resp)
//	items, err := requester.Recovered()
//
// ServeOwner and Retrieve run the same flow over a p2p.Conn. The
// initiation message carries the owner's encoding bit length and
// public key so a networked requester can leave Params.EncodingBits
// unset.
//
// Unblinding uses exact integer division and it is correct only if
// r*d < n. Params.Validate and the role constructors therefore
// reject RSA moduli of 2*EncodingBits+1 bits or less.
package pir
