//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package pir

import (
	"fmt"
	"math/big"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/markkurossi/crtpir/env"
	"github.com/markkurossi/crtpir/p2p"
	"github.com/markkurossi/crtpir/timing"
	"go.dedis.ch/onet/v3/log"
)

func dump(label string, msg interface{}) {
	if log.DebugVisible() >= 3 {
		log.Lvl3(label + ":\n" + spew.Sdump(msg))
	}
}

// mark ends a sub-phase of a timing sample.
type mark struct {
	label string
	end   time.Time
}

func sample(t *timing.Timing, label string, size int, marks ...mark) {
	if t == nil {
		return
	}
	s := t.Sample(label, []string{timing.FileSize(size).String()})
	for _, m := range marks {
		s.SubSample(m.label, m.end)
	}
}

// ServeOwner runs the owner side of one retrieval session over
// conn. The optional timing t receives one sample per protocol step.
func ServeOwner(conn *p2p.Conn, owner *Owner, t *timing.Timing) error {
	initMsg := owner.InitiationMessage()
	data, err := EncodeInitiation(initMsg)
	if err != nil {
		return err
	}
	if err := conn.SendData(data); err != nil {
		return err
	}
	if err := conn.Flush(); err != nil {
		return err
	}
	log.Lvlf2("owner %s: sent initiation: %d items, %d bytes",
		initMsg.SessionID, len(initMsg.T), len(data))
	dump("initiation", initMsg)
	sample(t, "Init", len(data))

	data, err = conn.ReceiveData()
	if err != nil {
		return fmt.Errorf("failed to receive request: %w", err)
	}
	req, err := DecodeRequest(data)
	if err != nil {
		return err
	}
	log.Lvlf2("owner %s: received request: %d items, %d bytes",
		initMsg.SessionID, len(req.Alpha), len(data))
	dump("request", req)
	sample(t, "Request", len(data))

	if err := owner.ProcessRequest(req); err != nil {
		return err
	}
	resp, err := owner.ResponseMessage()
	if err != nil {
		return err
	}
	decrypted := time.Now()
	data, err = EncodeResponse(resp)
	if err != nil {
		return err
	}
	if err := conn.SendData(data); err != nil {
		return err
	}
	if err := conn.Flush(); err != nil {
		return err
	}
	log.Lvlf2("owner %s: sent response: %d bytes", initMsg.SessionID, len(data))
	dump("response", resp)
	sample(t, "Response", len(data),
		mark{"Decrypt", decrypted}, mark{"Send", time.Now()})

	return nil
}

// Retrieve runs the requester side of one retrieval session over
// conn. The requester is created from the public key of the owner's
// initiation message. If params.EncodingBits is 0, the owner's
// encoding bit length is used; an explicit length that differs from
// the owner's returns ErrConfiguration. The function returns the
// recovered items in the order of indices.
func Retrieve(conn *p2p.Conn, config *env.Config, params Params,
	indices []int, listSize int, t *timing.Timing) ([]*big.Int, error) {

	data, err := conn.ReceiveData()
	if err != nil {
		return nil, fmt.Errorf("failed to receive initiation: %w", err)
	}
	initMsg, err := DecodeInitiation(data)
	if err != nil {
		return nil, err
	}
	log.Lvlf2("requester %s: received initiation: %d items, %d bytes",
		initMsg.SessionID, len(initMsg.T), len(data))
	dump("initiation", initMsg)
	sample(t, "Init", len(data))

	if params.EncodingBits == 0 {
		params.EncodingBits = initMsg.EncodingBits
	}
	requester, err := NewRequester(config, &initMsg.PublicKey, params, indices,
		listSize)
	if err != nil {
		return nil, err
	}
	if err := requester.ProcessInitiation(initMsg); err != nil {
		return nil, err
	}
	req, err := requester.RequestMessage()
	if err != nil {
		return nil, err
	}
	blinded := time.Now()
	data, err = EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	if err := conn.SendData(data); err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}
	log.Lvlf2("requester %s: sent request: %d bytes", initMsg.SessionID, len(data))
	dump("request", req)
	sample(t, "Request", len(data),
		mark{"Blind", blinded}, mark{"Send", time.Now()})

	data, err = conn.ReceiveData()
	if err != nil {
		return nil, fmt.Errorf("failed to receive response: %w", err)
	}
	received := time.Now()
	resp, err := DecodeResponse(data)
	if err != nil {
		return nil, err
	}
	dump("response", resp)
	if err := requester.ProcessResponse(resp); err != nil {
		return nil, err
	}
	log.Lvlf2("requester %s: recovered %d items", initMsg.SessionID,
		len(indices))
	sample(t, "Response", len(data),
		mark{"Receive", received}, mark{"Unblind", time.Now()})

	return requester.Recovered()
}
