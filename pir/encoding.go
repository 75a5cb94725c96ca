//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package pir

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"

	"github.com/google/uuid"
)

const (
	// magicInitiation tags initiation message encodings.
	magicInitiation = "PI"

	// magicRequest tags request message encodings.
	magicRequest = "PQ"

	// magicResponse tags response message encodings.
	magicResponse = "PR"

	// maxIntBytes bounds the length of an encoded integer.
	maxIntBytes = 64 * 1024

	// maxListLen bounds the number of integers in an encoded list.
	maxListLen = 64 * 1024
)

// EncodeInitiation turns an InitiationMessage into bytes.
func EncodeInitiation(m *InitiationMessage) ([]byte, error) {
	if m == nil || m.C == nil || m.PublicKey.N == nil || m.PublicKey.E == nil {
		return nil, fmt.Errorf("%w: incomplete initiation", ErrMalformed)
	}
	if m.EncodingBits < 0 || m.EncodingBits > maxIntBytes*8 {
		return nil, fmt.Errorf("%w: invalid encoding bits %d",
			ErrMalformed, m.EncodingBits)
	}
	var buf bytes.Buffer
	buf.WriteString(magicInitiation)
	buf.Write(m.SessionID[:])
	writeUint32(&buf, m.EncodingBits)
	for _, v := range []*big.Int{m.PublicKey.N, m.PublicKey.E, m.C} {
		if err := writeInt(&buf, v); err != nil {
			return nil, err
		}
	}
	if err := writeInts(&buf, m.T); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeInitiation reconstructs an InitiationMessage from bytes.
func DecodeInitiation(data []byte) (*InitiationMessage, error) {
	r, sid, err := readHeader(data, magicInitiation)
	if err != nil {
		return nil, err
	}
	m := &InitiationMessage{
		SessionID: sid,
	}
	if m.EncodingBits, err = readUint32(r); err != nil {
		return nil, err
	}
	if m.EncodingBits > maxIntBytes*8 {
		return nil, fmt.Errorf("%w: invalid encoding bits %d",
			ErrMalformed, m.EncodingBits)
	}
	if m.PublicKey.N, err = readInt(r); err != nil {
		return nil, err
	}
	if m.PublicKey.E, err = readInt(r); err != nil {
		return nil, err
	}
	if m.C, err = readInt(r); err != nil {
		return nil, err
	}
	if m.T, err = readInts(r); err != nil {
		return nil, err
	}
	if err := checkEOF(r); err != nil {
		return nil, err
	}
	return m, nil
}

// EncodeRequest turns a RequestMessage into bytes.
func EncodeRequest(m *RequestMessage) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil request", ErrMalformed)
	}
	var buf bytes.Buffer
	buf.WriteString(magicRequest)
	buf.Write(m.SessionID[:])
	if err := writeInts(&buf, m.Alpha); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRequest reconstructs a RequestMessage from bytes.
func DecodeRequest(data []byte) (*RequestMessage, error) {
	r, sid, err := readHeader(data, magicRequest)
	if err != nil {
		return nil, err
	}
	alpha, err := readInts(r)
	if err != nil {
		return nil, err
	}
	if err := checkEOF(r); err != nil {
		return nil, err
	}
	return &RequestMessage{
		SessionID: sid,
		Alpha:     alpha,
	}, nil
}

// EncodeResponse turns a ResponseMessage into bytes.
func EncodeResponse(m *ResponseMessage) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil response", ErrMalformed)
	}
	var buf bytes.Buffer
	buf.WriteString(magicResponse)
	buf.Write(m.SessionID[:])
	if err := writeInts(&buf, m.Beta); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeResponse reconstructs a ResponseMessage from bytes.
func DecodeResponse(data []byte) (*ResponseMessage, error) {
	r, sid, err := readHeader(data, magicResponse)
	if err != nil {
		return nil, err
	}
	beta, err := readInts(r)
	if err != nil {
		return nil, err
	}
	if err := checkEOF(r); err != nil {
		return nil, err
	}
	return &ResponseMessage{
		SessionID: sid,
		Beta:      beta,
	}, nil
}

func readHeader(data []byte, magic string) (*bytes.Reader, uuid.UUID, error) {
	var sid uuid.UUID

	r := bytes.NewReader(data)
	var tag [2]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, sid, fmt.Errorf("%w: truncated magic", ErrMalformed)
	}
	if string(tag[:]) != magic {
		return nil, sid, fmt.Errorf("%w: invalid magic %q, expected %q",
			ErrMalformed, tag[:], magic)
	}
	if _, err := io.ReadFull(r, sid[:]); err != nil {
		return nil, sid, fmt.Errorf("%w: truncated session id", ErrMalformed)
	}
	return r, sid, nil
}

func checkEOF(r *bytes.Reader) error {
	if r.Len() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformed, r.Len())
	}
	return nil
}

func writeUint32(w *bytes.Buffer, v int) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	w.Write(buf[:])
}

func writeInt(w *bytes.Buffer, v *big.Int) error {
	if v == nil || v.Sign() < 0 {
		return fmt.Errorf("%w: integer must be non-negative", ErrMalformed)
	}
	data := v.Bytes()
	if len(data) > maxIntBytes {
		return fmt.Errorf("%w: integer length %d exceeds %d",
			ErrMalformed, len(data), maxIntBytes)
	}
	writeUint32(w, len(data))
	w.Write(data)
	return nil
}

func writeInts(w *bytes.Buffer, vals []*big.Int) error {
	if len(vals) > maxListLen {
		return fmt.Errorf("%w: list length %d exceeds %d",
			ErrMalformed, len(vals), maxListLen)
	}
	writeUint32(w, len(vals))
	for _, v := range vals {
		if err := writeInt(w, v); err != nil {
			return err
		}
	}
	return nil
}

func readUint32(r *bytes.Reader) (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: truncated length", ErrMalformed)
	}
	return int(binary.BigEndian.Uint32(buf[:])), nil
}

func readInt(r *bytes.Reader) (*big.Int, error) {
	l, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if l > maxIntBytes {
		return nil, fmt.Errorf("%w: integer length %d exceeds %d",
			ErrMalformed, l, maxIntBytes)
	}
	if l > r.Len() {
		return nil, fmt.Errorf("%w: integer length %d exceeds data",
			ErrMalformed, l)
	}
	data := make([]byte, l)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: truncated integer", ErrMalformed)
	}
	return new(big.Int).SetBytes(data), nil
}

func readInts(r *bytes.Reader) ([]*big.Int, error) {
	count, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if count > maxListLen {
		return nil, fmt.Errorf("%w: list length %d exceeds %d",
			ErrMalformed, count, maxListLen)
	}
	// Each element has at least its 4-byte length prefix.
	if count > r.Len()/4 {
		return nil, fmt.Errorf("%w: list length %d exceeds data",
			ErrMalformed, count)
	}
	result := make([]*big.Int, count)
	for i := range result {
		result[i], err = readInt(r)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
