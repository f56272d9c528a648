// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package swapper

import (
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"net/url"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ethersphere/router-swap/pkg/router"
	"github.com/ethersphere/router-swap/pkg/wallet"
)

// Environment variables read at startup. The legacy names are still honoured.
const (
	EnvNodeEndpoint   = "NODE_WS_URL"
	EnvAccountAddress = "ACCOUNT_ADDRESS"
	EnvPrivateKey     = "PRIVATE_KEY"

	envNodeEndpointLegacy = "INFURA_RINKEBY"
	envPrivateKeyLegacy   = "PRIVATE_TEST_KEY"
)

// Command line options; Override uses them to tell which values were set.
const (
	OptionChainNodeEndpoint = "chainNodeEndpoint"
	OptionAccountAddress    = "accountAddress"
	OptionWalletKey         = "walletKey"
	OptionRouter            = "router"
	OptionTokenOut          = "tokenOut"
	OptionAmountOutMin      = "amountOutMin"
	OptionValue             = "value"
	OptionGasHint           = "gasHint"
	OptionDeadlineMargin    = "deadlineMargin"
	OptionDryRun            = "dryRun"
)

const (
	// DefaultTokenOut is DAI on Rinkeby.
	DefaultTokenOut     = "0xc7ad46e0b8a400bb3c915120d284aafba8fc4735"
	DefaultAmountOutMin = "106662000000"
	// DefaultValueWei is 0.05 of the native coin.
	DefaultValueWei = "50000000000000000"
	// DefaultGasHint caps the gas used by eth_estimateGas.
	DefaultGasHint uint64 = 500_000
)

type Config struct {
	ChainNodeEndpoint string     `yaml:"chain_node_endpoint"`
	AccountAddress    string     `yaml:"account_address"`
	WalletKey         string     `yaml:"-"`
	Swap              SwapConfig `yaml:"swap"`
	DryRun            bool       `yaml:"dry_run"`
}

type SwapConfig struct {
	Router               string `yaml:"router"`
	TokenOut             string `yaml:"token_out"`
	AmountOutMin         string `yaml:"amount_out_min"`
	ValueWei             string `yaml:"value_wei"`
	GasHint              uint64 `yaml:"gas_hint"`
	DeadlineMarginMillis uint64 `yaml:"deadline_margin_ms"`
}

func DefaultConfig() Config {
	return Config{
		Swap: SwapConfig{
			Router:               router.DefaultAddress,
			TokenOut:             DefaultTokenOut,
			AmountOutMin:         DefaultAmountOutMin,
			ValueWei:             DefaultValueWei,
			GasHint:              DefaultGasHint,
			DeadlineMarginMillis: router.DefaultDeadlineMargin,
		},
	}
}

// LoadFile overlays the keys present in the YAML file at path onto cfg.
func LoadFile(cfg *Config, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return configError("config file", err)
	}

	if err := yaml.Unmarshal(content, cfg); err != nil {
		return configError("config file", fmt.Errorf("parse %s: %w", path, err))
	}

	return nil
}

// LoadEnv loads the dotenv files and overlays the non-empty environment
// variables onto cfg. With no files it reads ".env" and only a missing
// ".env" is tolerated.
func LoadEnv(cfg *Config, files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return configError("env file", err)
		}
	}

	if v := getenv(EnvNodeEndpoint, envNodeEndpointLegacy); v != "" {
		cfg.ChainNodeEndpoint = v
	}

	if v := getenv(EnvAccountAddress); v != "" {
		cfg.AccountAddress = v
	}

	if v := getenv(EnvPrivateKey, envPrivateKeyLegacy); v != "" {
		cfg.WalletKey = v
	}

	return nil
}

// Load resolves the configuration from, in increasing precedence, the
// defaults, the YAML file at path (if any), the environment and the flagged
// options for which changed reports true.
func Load(path string, envFiles []string, flagged Config, changed func(option string) bool) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := LoadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := LoadEnv(&cfg, envFiles...); err != nil {
		return Config{}, err
	}

	cfg.Override(flagged, changed)

	return cfg, nil
}

// Override copies from flagged every option for which changed reports true.
func (c *Config) Override(flagged Config, changed func(option string) bool) {
	if changed(OptionChainNodeEndpoint) {
		c.ChainNodeEndpoint = flagged.ChainNodeEndpoint
	}
	if changed(OptionAccountAddress) {
		c.AccountAddress = flagged.AccountAddress
	}
	if changed(OptionWalletKey) {
		c.WalletKey = flagged.WalletKey
	}
	if changed(OptionRouter) {
		c.Swap.Router = flagged.Swap.Router
	}
	if changed(OptionTokenOut) {
		c.Swap.TokenOut = flagged.Swap.TokenOut
	}
	if changed(OptionAmountOutMin) {
		c.Swap.AmountOutMin = flagged.Swap.AmountOutMin
	}
	if changed(OptionValue) {
		c.Swap.ValueWei = flagged.Swap.ValueWei
	}
	if changed(OptionGasHint) {
		c.Swap.GasHint = flagged.Swap.GasHint
	}
	if changed(OptionDeadlineMargin) {
		c.Swap.DeadlineMarginMillis = flagged.Swap.DeadlineMarginMillis
	}
	if changed(OptionDryRun) {
		c.DryRun = flagged.DryRun
	}
}

// Redacted returns a copy that is safe to log.
func (c Config) Redacted() Config {
	if c.WalletKey != "" {
		c.WalletKey = "***"
	}

	return c
}

// Params is a validated Config. It is not modified after Validate returns it.
type Params struct {
	Endpoint       string
	Account        common.Address
	Key            wallet.WalletKey
	Router         common.Address
	TokenOut       common.Address
	AmountOutMin   *big.Int
	Value          *big.Int
	GasHint        uint64
	DeadlineMargin uint64
	DryRun         bool
}

// Validate checks presence and syntax of every value before anything touches
// the network. Errors name the offending field.
func (c Config) Validate() (Params, error) {
	var (
		p   Params
		err error
	)

	if p.Endpoint, err = parseEndpoint(c.ChainNodeEndpoint); err != nil {
		return Params{}, configError(EnvNodeEndpoint, err)
	}

	if p.Account, err = parseAddress(c.AccountAddress); err != nil {
		return Params{}, configError(EnvAccountAddress, err)
	}

	if strings.TrimSpace(c.WalletKey) == "" {
		return Params{}, configError(EnvPrivateKey, errMissing)
	}

	p.Key = wallet.WalletKey(strings.TrimSpace(c.WalletKey))

	keyAddress, err := p.Key.Address()
	if err != nil {
		return Params{}, configError(EnvPrivateKey, fmt.Errorf("invalid private key: %w", err))
	}

	if keyAddress != p.Account {
		return Params{}, configError(EnvPrivateKey, fmt.Errorf("key controls %s, not %s", keyAddress, p.Account))
	}

	if p.Router, err = parseAddress(c.Swap.Router); err != nil {
		return Params{}, configError("swap.router", err)
	}

	if p.TokenOut, err = parseAddress(c.Swap.TokenOut); err != nil {
		return Params{}, configError("swap.token_out", err)
	}

	if p.AmountOutMin, err = parseAmount(c.Swap.AmountOutMin, false); err != nil {
		return Params{}, configError("swap.amount_out_min", err)
	}

	if p.Value, err = parseAmount(c.Swap.ValueWei, true); err != nil {
		return Params{}, configError("swap.value_wei", err)
	}

	if c.Swap.GasHint == 0 {
		return Params{}, configError("swap.gas_hint", errors.New("must be greater than zero"))
	}

	if c.Swap.DeadlineMarginMillis == 0 {
		return Params{}, configError("swap.deadline_margin_ms", errors.New("must be greater than zero"))
	}

	p.GasHint = c.Swap.GasHint
	p.DeadlineMargin = c.Swap.DeadlineMarginMillis
	p.DryRun = c.DryRun

	return p, nil
}

var errMissing = errors.New("must be set")

func parseEndpoint(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errMissing
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return "", fmt.Errorf("unsupported scheme %q, want ws, wss, http or https", u.Scheme)
	}

	if u.Host == "" {
		return "", errors.New("missing host")
	}

	return s, nil
}

func parseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.Address{}, errMissing
	}

	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%q is not a hex address", s)
	}

	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, errors.New("zero address")
	}

	return addr, nil
}

func parseAmount(s string, positive bool) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errMissing
	}

	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal integer", s)
	}

	if v.Sign() < 0 || (positive && v.Sign() == 0) {
		return nil, fmt.Errorf("%s is out of range", s)
	}

	return v, nil
}

func getenv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}

	return ""
}
