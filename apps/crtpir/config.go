//
// config.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"math/big"

	"github.com/BurntSushi/toml"
	"github.com/markkurossi/crtpir/env"
	"github.com/markkurossi/crtpir/pir"
	"github.com/urfave/cli"
)

// Config defines the application configuration. It is read from the
// TOML file given with the -c flag and command line flags override
// its values.
type Config struct {
	EncodingBits int      `toml:"encoding_bits"`
	RSABits      int      `toml:"rsa_bits"`
	Address      string   `toml:"address"`
	Seed         string   `toml:"seed"`
	Secrets      []string `toml:"secrets"`
	Indices      []int    `toml:"indices"`
	ListSize     int      `toml:"list_size"`
	Timing       bool     `toml:"timing"`
	Sessions     int      `toml:"sessions"`
}

func loadConfig(c *cli.Context) (*Config, error) {
	config := new(Config)

	if file := c.GlobalString(optionConfig); len(file) > 0 {
		if _, err := toml.DecodeFile(file, config); err != nil {
			return nil, fmt.Errorf("failed to read config '%s': %w", file, err)
		}
	}
	if c.IsSet(optionEncodingBits) {
		config.EncodingBits = c.Int(optionEncodingBits)
	}
	if c.IsSet(optionRSABits) {
		config.RSABits = c.Int(optionRSABits)
	}
	if c.IsSet(optionAddress) {
		config.Address = c.String(optionAddress)
	}
	if c.IsSet(optionSeed) {
		config.Seed = c.String(optionSeed)
	}
	if c.IsSet(optionSecret) {
		config.Secrets = c.StringSlice(optionSecret)
	}
	if c.IsSet(optionIndex) {
		config.Indices = c.IntSlice(optionIndex)
	}
	if c.IsSet(optionListSize) {
		config.ListSize = c.Int(optionListSize)
	}
	if c.Bool(optionTiming) {
		config.Timing = true
	}
	if c.IsSet(optionSessionsLimit) {
		config.Sessions = c.Int(optionSessionsLimit)
	}
	if len(config.Address) == 0 {
		config.Address = defaultAddress
	}

	return config, nil
}

// ParseSecrets parses the secret list items. The items can be given
// in any base accepted by big.Int.SetString with base 0.
func (config *Config) ParseSecrets() ([]*big.Int, error) {
	result := make([]*big.Int, len(config.Secrets))
	for i, s := range config.Secrets {
		v, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("invalid secret %d: '%s'", i, s)
		}
		result[i] = v
	}
	return result, nil
}

// Params returns the protocol parameters. If the encoding size is
// not set, it is derived from secrets.
func (config *Config) Params(secrets []*big.Int) pir.Params {
	params := pir.Params{
		EncodingBits: config.EncodingBits,
		RSAKeyBits:   config.RSABits,
	}
	if params.EncodingBits == 0 {
		params.EncodingBits = pir.EncodingBitsFor(secrets)
	}
	return params
}

// RequesterParams returns the requester's protocol parameters. If
// the encoding size is not set, the owner's size is used.
func (config *Config) RequesterParams() pir.Params {
	return pir.Params{
		EncodingBits: config.EncodingBits,
		RSAKeyBits:   config.RSABits,
	}
}

// Env returns the environment for the role of the command. With a
// seed, each role of the demo command gets its own deterministic
// stream. Networked commands always use the system entropy source.
func (config *Config) Env(command, role string) *env.Config {
	if len(config.Seed) == 0 || command != commandDemo {
		return &env.Config{}
	}
	return &env.Config{
		Rand: env.NewDeterministicRand([]byte(config.Seed + "/" + role)),
	}
}
