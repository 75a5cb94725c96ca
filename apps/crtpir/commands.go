//
// commands.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/markkurossi/crtpir/p2p"
	"github.com/markkurossi/crtpir/pir"
	"github.com/markkurossi/crtpir/timing"
	"github.com/markkurossi/tabulate"
	"github.com/markkurossi/text/superscript"
	"github.com/urfave/cli"
	"go.dedis.ch/onet/v3/log"
)

func power(bits int) string {
	return "2" + superscript.Itoa(bits)
}

func printParams(params pir.Params, items int) {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Parameter").SetAlign(tabulate.ML)
	tab.Header("Value").SetAlign(tabulate.MR)

	row := tab.Row()
	row.Column("Encoding bits")
	row.Column(fmt.Sprintf("%d", params.EncodingBits))

	row = tab.Row()
	row.Column("Moduli")
	row.Column(fmt.Sprintf("%s ≤ d < %s", power(params.EncodingBits-1),
		power(params.EncodingBits)))

	row = tab.Row()
	row.Column("Secrets")
	row.Column(fmt.Sprintf("< %s", power(params.EncodingBits-1)))

	row = tab.Row()
	row.Column("RSA bits")
	row.Column(fmt.Sprintf("%d", params.RSABits()))

	if items > 0 {
		row = tab.Row()
		row.Column("Combined residue")
		row.Column(fmt.Sprintf("< %s", power(items*params.EncodingBits)))
	}
	tab.Print(os.Stdout)
}

func printResult(indices []int, items []*big.Int) {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Index").SetAlign(tabulate.MR)
	tab.Header("Value").SetAlign(tabulate.MR)

	for i, idx := range indices {
		row := tab.Row()
		row.Column(fmt.Sprintf("%d", idx))
		row.Column(items[i].String())
	}
	tab.Print(os.Stdout)
}

func cmdParams(c *cli.Context) error {
	config, err := loadConfig(c)
	if err != nil {
		return err
	}
	secrets, err := config.ParseSecrets()
	if err != nil {
		return err
	}
	params := config.Params(secrets)
	if err := params.Validate(); err != nil {
		return err
	}
	printParams(params, len(secrets))
	return nil
}

func cmdDemo(c *cli.Context) error {
	config, err := loadConfig(c)
	if err != nil {
		return err
	}
	secrets, err := config.ParseSecrets()
	if err != nil {
		return err
	}
	params := config.Params(secrets)
	if err := params.Validate(); err != nil {
		return err
	}
	if log.DebugVisible() > 0 {
		printParams(params, len(secrets))
	}

	t := timing.New()
	key, err := pir.GenerateKey(config.Env(commandDemo, "key").GetRandom(), params)
	if err != nil {
		return err
	}
	t.Sample("Keygen", nil)

	owner, err := pir.NewOwner(config.Env(commandDemo, "owner"), key, params, secrets)
	if err != nil {
		return err
	}
	t.Sample("Encode", nil)

	oc, rc := p2p.Pipe()
	done := make(chan error)
	go func() {
		err := pir.ServeOwner(oc, owner, nil)
		if err != nil {
			rc.Close()
		}
		done <- err
	}()

	listSize := config.ListSize
	if listSize == 0 {
		listSize = len(secrets)
	}
	items, err := pir.Retrieve(rc, config.Env(commandDemo, "requester"), params,
		config.Indices, listSize, t)
	if err != nil {
		oc.Close()
		return errors.Join(err, <-done)
	}
	if err := <-done; err != nil {
		return err
	}

	printResult(config.Indices, items)
	if config.Timing {
		t.Print(os.Stdout, rc.Stats)
	}
	if err := rc.Close(); err != nil {
		return err
	}
	return oc.Close()
}

func cmdOwner(c *cli.Context) error {
	config, err := loadConfig(c)
	if err != nil {
		return err
	}
	secrets, err := config.ParseSecrets()
	if err != nil {
		return err
	}
	params := config.Params(secrets)
	if err := params.Validate(); err != nil {
		return err
	}
	warnSeed(config)

	listener, err := p2p.Listen(config.Address)
	if err != nil {
		return err
	}
	defer listener.Close()
	log.Lvlf1("owner: serving %d items at %s", len(secrets), listener.Addr())

	for session := 1; config.Sessions == 0 || session <= config.Sessions; session++ {
		conn, addr, err := listener.Accept()
		if err != nil {
			return err
		}
		log.Lvlf1("owner: session %d from %s", session, addr)

		err = serveSession(conn, config, params, secrets)
		if err != nil {
			log.Errorf("owner: session %d failed: %v", session, err)
		}
	}
	return nil
}

// serveSession runs one owner session with a fresh key and fresh
// moduli.
func serveSession(conn *p2p.Conn, config *Config, params pir.Params,
	secrets []*big.Int) error {

	defer conn.Close()

	var t *timing.Timing
	if config.Timing {
		t = timing.New()
	}
	ownerEnv := config.Env(commandOwner, "owner")

	key, err := pir.GenerateKey(ownerEnv.GetRandom(), params)
	if err != nil {
		return err
	}
	owner, err := pir.NewOwner(ownerEnv, key, params, secrets)
	if err != nil {
		return err
	}
	if err := pir.ServeOwner(conn, owner, t); err != nil {
		return err
	}
	if t != nil {
		t.Print(os.Stdout, conn.Stats)
	}
	return nil
}

func warnSeed(config *Config) {
	if len(config.Seed) > 0 {
		log.Warn("seed is only used by the demo command, ignoring")
	}
}

func cmdRequester(c *cli.Context) error {
	config, err := loadConfig(c)
	if err != nil {
		return err
	}
	params := config.RequesterParams()
	if params.EncodingBits != 0 {
		if err := params.Validate(); err != nil {
			return err
		}
	}
	warnSeed(config)

	conn, err := p2p.Dial(config.Address)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Lvlf1("requester: connected to %s", config.Address)

	var t *timing.Timing
	if config.Timing {
		t = timing.New()
	}
	items, err := pir.Retrieve(conn, config.Env(commandRequester, "requester"), params,
		config.Indices, config.ListSize, t)
	if err != nil {
		return err
	}
	printResult(config.Indices, items)
	if t != nil {
		t.Print(os.Stdout, conn.Stats)
	}
	return nil
}
