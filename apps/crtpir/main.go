//
// main.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"os"

	"github.com/urfave/cli"
	"go.dedis.ch/onet/v3/log"
)

const (
	// BinaryName is the name of the application.
	BinaryName = "crtpir"

	// Version of the binary.
	Version = "0.1.0"

	defaultAddress = "127.0.0.1:8080"

	commandDemo      = "demo"
	commandOwner     = "owner"
	commandRequester = "requester"
	commandParams    = "params"

	optionConfig        = "config"
	optionDebug         = "debug"
	optionAddress       = "address"
	optionSecret        = "secret"
	optionIndex         = "index"
	optionListSize      = "list-size"
	optionEncodingBits  = "encoding-bits"
	optionRSABits       = "rsa-bits"
	optionSeed          = "seed"
	optionTiming        = "timing"
	optionSessionsLimit = "sessions"
)

func main() {
	app := cli.NewApp()
	app.Name = BinaryName
	app.Usage = "Retrieve list items without revealing their indices"
	app.Version = Version

	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  optionDebug + ", d",
			Value: 0,
			Usage: "debug-level: 1 for terse, 3 for message dumps",
		},
		cli.StringFlag{
			Name:  optionConfig + ", c",
			Usage: "TOML configuration file",
		},
	}

	paramFlags := []cli.Flag{
		cli.IntFlag{
			Name:  optionEncodingBits + ", e",
			Usage: "modulus and blinding factor size in bits",
		},
		cli.IntFlag{
			Name:  optionRSABits,
			Usage: "RSA modulus size in bits (default derived)",
		},
	}
	secretFlags := []cli.Flag{
		cli.StringSliceFlag{
			Name:  optionSecret + ", s",
			Usage: "owner's list item (repeat for each item)",
		},
	}
	indexFlags := []cli.Flag{
		cli.IntSliceFlag{
			Name:  optionIndex + ", i",
			Usage: "requested index (repeat for each index)",
		},
		cli.IntFlag{
			Name:  optionListSize,
			Usage: "owner's list size if known",
		},
	}
	addressFlags := []cli.Flag{
		cli.StringFlag{
			Name:  optionAddress + ", a",
			Usage: "owner's TCP address (default " + defaultAddress + ")",
		},
	}
	timingFlags := []cli.Flag{
		cli.BoolFlag{
			Name:  optionTiming + ", t",
			Usage: "print session timing report",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:   commandDemo,
			Usage:  "run owner and requester in one process",
			Action: cmdDemo,
			Flags: concat(paramFlags, secretFlags, indexFlags, timingFlags,
				[]cli.Flag{
					cli.StringFlag{
						Name:  optionSeed,
						Usage: "seed for reproducible moduli and blinding",
					},
				}),
		},
		{
			Name:   commandOwner,
			Usage:  "serve retrieval sessions over TCP",
			Action: cmdOwner,
			Flags: concat(paramFlags, secretFlags, addressFlags, timingFlags,
				[]cli.Flag{
					cli.IntFlag{
						Name:  optionSessionsLimit + ", n",
						Usage: "exit after n sessions (0 for no limit)",
					},
				}),
		},
		{
			Name:   commandRequester,
			Usage:  "retrieve items from an owner over TCP",
			Action: cmdRequester,
			Flags:  concat(paramFlags, indexFlags, addressFlags, timingFlags),
		},
		{
			Name:   commandParams,
			Usage:  "print the derived protocol parameters",
			Action: cmdParams,
			Flags:  concat(paramFlags, secretFlags),
		},
	}

	app.Before = func(c *cli.Context) error {
		log.SetDebugVisible(c.GlobalInt(optionDebug))
		return nil
	}

	err := app.Run(os.Args)
	log.ErrFatal(err)
}

func concat(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, f := range flags {
		result = append(result, f...)
	}
	return result
}
