//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package pir

import (
	"crypto/rand"
	"math/big"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/markkurossi/crtpir/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyCacheM sync.Mutex
	keyCache  = make(map[int]*KeyMaterial)
)

// testKey returns an RSA key of bits bits. Keys are shared between
// tests to keep the test run fast.
func testKey(t testing.TB, bits int) *KeyMaterial {
	t.Helper()

	keyCacheM.Lock()
	defer keyCacheM.Unlock()

	key, ok := keyCache[bits]
	if !ok {
		var err error
		key, err = GenerateKey(rand.Reader, Params{
			EncodingBits: MinEncodingBits,
			RSAKeyBits:   bits,
		})
		require.NoError(t, err)
		require.Equal(t, bits, key.N.BitLen())
		keyCache[bits] = key
	}
	return key
}

func bigInts(vals ...int64) []*big.Int {
	result := make([]*big.Int, len(vals))
	for i, v := range vals {
		result[i] = big.NewInt(v)
	}
	return result
}

// strs converts integers to strings for comparisons.
func strs(vals []*big.Int) []string {
	result := make([]string, len(vals))
	for i, v := range vals {
		result[i] = v.String()
	}
	return result
}

var testSecrets = bigInts(57, 1023, 14, 4545, 565656)

// run executes one in-process retrieval session.
func run(t *testing.T, config *env.Config, key *KeyMaterial, params Params,
	secrets []*big.Int, indices []int) []*big.Int {

	t.Helper()

	owner, err := NewOwner(config, key, params, secrets)
	require.NoError(t, err)
	requester, err := NewRequester(config, key.Public(), params, indices,
		len(secrets))
	require.NoError(t, err)

	require.NoError(t, requester.ProcessInitiation(owner.InitiationMessage()))
	req, err := requester.RequestMessage()
	require.NoError(t, err)
	require.Len(t, req.Alpha, len(indices))

	require.NoError(t, owner.ProcessRequest(req))
	resp, err := owner.ResponseMessage()
	require.NoError(t, err)
	require.Len(t, resp.Beta, len(indices))

	require.NoError(t, requester.ProcessResponse(resp))
	result, err := requester.Recovered()
	require.NoError(t, err)

	return result
}

func TestRSABitsFor(t *testing.T) {
	tests := []struct {
		encodingBits int
		rsaBits      int
	}{
		{8, 1024},
		{256, 1024},
		{511, 1024},
		{512, 1280},
		{600, 1280},
		{1024, 2304},
	}
	for _, test := range tests {
		assert.Equal(t, test.rsaBits, RSABitsFor(test.encodingBits),
			"encoding bits %d", test.encodingBits)
		assert.Greater(t, test.rsaBits, 2*test.encodingBits+1)
	}
	assert.Equal(t, 1280, DefaultParams().RSABits())
	assert.NoError(t, DefaultParams().Validate())
}

func TestEncodingBitsFor(t *testing.T) {
	assert.Equal(t, DefaultEncodingBits, EncodingBitsFor(testSecrets))
	assert.Equal(t, DefaultEncodingBits, EncodingBitsFor(nil))

	huge := new(big.Int).Lsh(bigOne, 700)
	bits := EncodingBitsFor([]*big.Int{big.NewInt(1), huge})
	assert.Equal(t, 702, bits)

	// The derived size accepts the secret.
	params := Params{EncodingBits: bits}
	assert.Less(t, huge.Cmp(params.secretLimit()), 0)
}

func TestEndToEnd(t *testing.T) {
	params := DefaultParams()
	key := testKey(t, params.RSABits())

	result := run(t, nil, key, params, testSecrets, []int{2, 3})
	assert.Equal(t, strs(bigInts(14, 4545)), strs(result))
}

func TestEmptyRequest(t *testing.T) {
	params := DefaultParams()
	key := testKey(t, params.RSABits())

	result := run(t, nil, key, params, testSecrets, []int{})
	assert.Empty(t, result)

	result = run(t, nil, key, params, nil, nil)
	assert.Empty(t, result)
}

func TestAllAndDuplicateIndices(t *testing.T) {
	params := DefaultParams()
	key := testKey(t, params.RSABits())

	result := run(t, nil, key, params, testSecrets, []int{4, 3, 2, 1, 0, 4, 0})
	assert.Equal(t, strs(bigInts(565656, 4545, 14, 1023, 57, 565656, 57)), strs(result))
}

// TestEncodingBoundary runs the protocol across encoding sizes with
// secrets at the largest accepted value and with the smallest RSA
// modulus the parameters accept.
func TestEncodingBoundary(t *testing.T) {
	for _, bits := range []int{MinEncodingBits, 16, 64, 255, 256, 400, 511} {
		params := Params{
			EncodingBits: bits,
		}
		key := testKey(t, params.RSABits())

		limit := params.secretLimit()
		largest := new(big.Int).Sub(limit, bigOne)
		random, err := rand.Int(rand.Reader, limit)
		require.NoError(t, err)

		secrets := []*big.Int{largest, big.NewInt(0), random, big.NewInt(1)}
		for round := 0; round < 3; round++ {
			result := run(t, nil, key, params, secrets, []int{0, 1, 2, 3})
			require.Equal(t, strs(secrets), strs(result), "encoding bits %d", bits)
		}
	}

	// The smallest modulus accepted for a 400-bit encoding.
	params := Params{
		EncodingBits: 400,
		RSAKeyBits:   2*400 + 2,
	}
	require.NoError(t, params.Validate())
	key := testKey(t, 1024)
	result := run(t, nil, key, params, testSecrets, []int{4})
	require.Equal(t, strs(bigInts(565656)), strs(result))
}

func TestSecretTooLarge(t *testing.T) {
	params := Params{
		EncodingBits: 16,
	}
	key := testKey(t, params.RSABits())

	_, err := NewOwner(nil, key, params, []*big.Int{params.secretLimit()})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewOwner(nil, key, params, bigInts(1, 70000))
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewOwner(nil, key, params, bigInts(1, -1))
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewOwner(nil, key, params, []*big.Int{nil})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestRSAModulusTooSmall(t *testing.T) {
	params := DefaultParams()
	key := testKey(t, 1024)

	_, err := NewOwner(nil, key, params, testSecrets)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRequester(nil, key.Public(), params, []int{2, 3}, 0)
	assert.ErrorIs(t, err, ErrConfiguration)

	for _, bits := range []int{1024, 2 * 512, 2*512 + 1} {
		params.RSAKeyBits = bits
		assert.ErrorIs(t, params.Validate(), ErrConfiguration, "bits %d", bits)
	}
	params.RSAKeyBits = 2*512 + 2
	assert.NoError(t, params.Validate())

	_, err = GenerateKey(rand.Reader, Params{EncodingBits: 512, RSAKeyBits: 1024})
	assert.ErrorIs(t, err, ErrConfiguration)

	assert.ErrorIs(t, Params{EncodingBits: 4}.Validate(), ErrConfiguration)
}

func TestMissingKey(t *testing.T) {
	params := DefaultParams()

	_, err := NewOwner(nil, nil, params, testSecrets)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewOwner(nil, &KeyMaterial{}, params, testSecrets)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRequester(nil, nil, params, nil, 0)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRequester(nil, &PublicKey{N: big.NewInt(1), E: big.NewInt(3)},
		params, nil, 0)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestIndexOutOfRange(t *testing.T) {
	params := DefaultParams()
	key := testKey(t, params.RSABits())

	_, err := NewRequester(nil, key.Public(), params, []int{-1}, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = NewRequester(nil, key.Public(), params, []int{5}, 5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	// Unknown list size defers the check to the initiation.
	requester, err := NewRequester(nil, key.Public(), params, []int{1, 5}, 0)
	require.NoError(t, err)

	owner, err := NewOwner(nil, key, params, testSecrets)
	require.NoError(t, err)

	err = requester.ProcessInitiation(owner.InitiationMessage())
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, RequesterCreated, requester.State())
}

func TestStateMachine(t *testing.T) {
	params := DefaultParams()
	key := testKey(t, params.RSABits())

	owner, err := NewOwner(nil, key, params, testSecrets)
	require.NoError(t, err)
	requester, err := NewRequester(nil, key.Public(), params, []int{0}, 0)
	require.NoError(t, err)

	assert.Equal(t, OwnerInitialized, owner.State())
	assert.Equal(t, RequesterCreated, requester.State())

	_, err = owner.ResponseMessage()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = requester.RequestMessage()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = requester.Recovered()
	assert.ErrorIs(t, err, ErrInvalidState)
	err = requester.ProcessResponse(&ResponseMessage{})
	assert.ErrorIs(t, err, ErrInvalidState)

	initMsg := owner.InitiationMessage()
	assert.Equal(t, OwnerAwaitingRequest, owner.State())
	again := owner.InitiationMessage()
	assert.Equal(t, initMsg.C, again.C)
	assert.Equal(t, initMsg.T, again.T)
	assert.Equal(t, OwnerAwaitingRequest, owner.State())

	require.NoError(t, requester.ProcessInitiation(initMsg))
	assert.Equal(t, RequesterAwaitingResponse, requester.State())
	err = requester.ProcessInitiation(initMsg)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = requester.Recovered()
	assert.ErrorIs(t, err, ErrInvalidState)

	req, err := requester.RequestMessage()
	require.NoError(t, err)
	require.NoError(t, owner.ProcessRequest(req))
	assert.Equal(t, OwnerResponded, owner.State())

	// Reprocessing the same request is a no-op.
	first, err := owner.ResponseMessage()
	require.NoError(t, err)
	require.NoError(t, owner.ProcessRequest(req))
	second, err := owner.ResponseMessage()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A different request is rejected.
	other := &RequestMessage{
		SessionID: req.SessionID,
		Alpha:     bigInts(2),
	}
	assert.ErrorIs(t, owner.ProcessRequest(other), ErrInvalidState)

	require.NoError(t, requester.ProcessResponse(first))
	assert.Equal(t, RequesterCompleted, requester.State())
	assert.ErrorIs(t, requester.ProcessResponse(first), ErrInvalidState)
	_, err = requester.RequestMessage()
	assert.ErrorIs(t, err, ErrInvalidState)

	result, err := requester.Recovered()
	require.NoError(t, err)
	assert.Equal(t, strs(bigInts(57)), strs(result))

	assert.Equal(t, "responded", owner.State().String())
	assert.Equal(t, "completed", requester.State().String())
	assert.Equal(t, "{OwnerState 7}", OwnerState(7).String())
}

func TestSessionMismatch(t *testing.T) {
	params := DefaultParams()
	key := testKey(t, params.RSABits())

	owner, err := NewOwner(nil, key, params, testSecrets)
	require.NoError(t, err)
	requester, err := NewRequester(nil, key.Public(), params, []int{1}, 0)
	require.NoError(t, err)
	require.NoError(t, requester.ProcessInitiation(owner.InitiationMessage()))

	req, err := requester.RequestMessage()
	require.NoError(t, err)
	forged := &RequestMessage{
		SessionID: uuid.New(),
		Alpha:     req.Alpha,
	}
	assert.ErrorIs(t, owner.ProcessRequest(forged), ErrSessionMismatch)
	assert.Equal(t, OwnerAwaitingRequest, owner.State())

	require.NoError(t, owner.ProcessRequest(req))
	resp, err := owner.ResponseMessage()
	require.NoError(t, err)

	err = requester.ProcessResponse(&ResponseMessage{
		SessionID: uuid.New(),
		Beta:      resp.Beta,
	})
	assert.ErrorIs(t, err, ErrSessionMismatch)
	assert.Equal(t, RequesterAwaitingResponse, requester.State())
}

func TestMalformedMessages(t *testing.T) {
	params := DefaultParams()
	key := testKey(t, params.RSABits())

	owner, err := NewOwner(nil, key, params, testSecrets)
	require.NoError(t, err)
	sid := owner.SessionID()

	assert.ErrorIs(t, owner.ProcessRequest(nil), ErrMalformed)
	for _, alpha := range []*big.Int{nil, big.NewInt(0), key.N,
		new(big.Int).Add(key.N, bigOne)} {

		err := owner.ProcessRequest(&RequestMessage{
			SessionID: sid,
			Alpha:     []*big.Int{big.NewInt(2), alpha},
		})
		assert.ErrorIs(t, err, ErrMalformed)
	}

	requester, err := NewRequester(nil, key.Public(), params, []int{1}, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, requester.ProcessInitiation(nil), ErrMalformed)

	initMsg := owner.InitiationMessage()
	bad := *initMsg
	bad.T = append([]*big.Int{}, initMsg.T...)
	bad.T[3] = key.N
	assert.ErrorIs(t, requester.ProcessInitiation(&bad), ErrMalformed)

	require.NoError(t, requester.ProcessInitiation(initMsg))
	err = requester.ProcessResponse(&ResponseMessage{
		SessionID: sid,
		Beta:      bigInts(1, 2),
	})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestPublicKeyMismatch(t *testing.T) {
	params := DefaultParams()
	key := testKey(t, params.RSABits())
	other := testKey(t, params.RSABits()+256)

	owner, err := NewOwner(nil, key, params, testSecrets)
	require.NoError(t, err)
	requester, err := NewRequester(nil, other.Public(), params, []int{1}, 0)
	require.NoError(t, err)

	err = requester.ProcessInitiation(owner.InitiationMessage())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestEncodingBitsMismatch(t *testing.T) {
	params := DefaultParams()
	key := testKey(t, params.RSABits())

	owner, err := NewOwner(nil, key, params, testSecrets)
	require.NoError(t, err)
	requester, err := NewRequester(nil, key.Public(), Params{
		EncodingBits: 256,
	}, []int{1}, 0)
	require.NoError(t, err)

	initMsg := owner.InitiationMessage()
	assert.Equal(t, params.EncodingBits, initMsg.EncodingBits)
	err = requester.ProcessInitiation(initMsg)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, RequesterCreated, requester.State())
}

func TestCorruptedRecovery(t *testing.T) {
	params := DefaultParams()
	key := testKey(t, params.RSABits())

	owner, err := NewOwner(nil, key, params, testSecrets)
	require.NoError(t, err)

	newSession := func() (*Requester, *ResponseMessage) {
		requester, err := NewRequester(nil, key.Public(), params, []int{0, 1},
			0)
		require.NoError(t, err)
		require.NoError(t,
			requester.ProcessInitiation(owner.InitiationMessage()))
		req, err := requester.RequestMessage()
		require.NoError(t, err)

		// Decrypt directly so that the owner can be reused.
		beta := make([]*big.Int, len(req.Alpha))
		for i, a := range req.Alpha {
			beta[i] = new(big.Int).Exp(a, key.D, key.N)
		}
		return requester, &ResponseMessage{
			SessionID: req.SessionID,
			Beta:      beta,
		}
	}

	// Inexact division.
	requester, resp := newSession()
	resp.Beta[1].Add(resp.Beta[1], bigOne)
	assert.ErrorIs(t, requester.ProcessResponse(resp), ErrCorruptedRecovery)
	assert.Equal(t, RequesterAwaitingResponse, requester.State())

	// Undecrypted request values.
	requester, _ = newSession()
	req, err := requester.RequestMessage()
	require.NoError(t, err)
	err = requester.ProcessResponse(&ResponseMessage{
		SessionID: req.SessionID,
		Beta:      req.Alpha,
	})
	assert.ErrorIs(t, err, ErrCorruptedRecovery)

	// Zero values.
	requester, resp = newSession()
	resp.Beta[0] = big.NewInt(0)
	assert.ErrorIs(t, requester.ProcessResponse(resp), ErrCorruptedRecovery)

	// A valid response still decodes.
	requester, resp = newSession()
	require.NoError(t, requester.ProcessResponse(resp))
	result, err := requester.Recovered()
	require.NoError(t, err)
	assert.Equal(t, strs(bigInts(57, 1023)), strs(result))
}

func TestDeterministicInitiation(t *testing.T) {
	params := Params{
		EncodingBits: 128,
	}
	key := testKey(t, params.RSABits())

	newOwner := func(seed string) *InitiationMessage {
		config := &env.Config{
			Rand: env.NewDeterministicRand([]byte(seed)),
		}
		owner, err := NewOwner(config, key, params, testSecrets)
		require.NoError(t, err)
		return owner.InitiationMessage()
	}
	a := newOwner("owner")
	b := newOwner("owner")
	c := newOwner("other")

	assert.Equal(t, a.SessionID, b.SessionID)
	assert.Equal(t, a.C.String(), b.C.String())
	assert.Equal(t, strs(a.T), strs(b.T))
	assert.NotEqual(t, a.SessionID, c.SessionID)
	assert.NotEqual(t, a.C.String(), c.C.String())
}

// TestRequestHidesIndex checks that requests for different indices
// are not equal to the encrypted moduli they blind.
func TestRequestHidesIndex(t *testing.T) {
	params := DefaultParams()
	key := testKey(t, params.RSABits())

	owner, err := NewOwner(nil, key, params, testSecrets)
	require.NoError(t, err)
	initMsg := owner.InitiationMessage()

	seen := make(map[string]bool)
	for _, v := range initMsg.T {
		seen[v.String()] = true
	}
	for i := 0; i < 4; i++ {
		requester, err := NewRequester(nil, key.Public(), params, []int{2}, 0)
		require.NoError(t, err)
		require.NoError(t, requester.ProcessInitiation(initMsg))
		req, err := requester.RequestMessage()
		require.NoError(t, err)

		s := req.Alpha[0].String()
		assert.False(t, seen[s], "request value repeats a public value")
		seen[s] = true
	}
}
