// Copyright 2024 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package swapper runs the one-shot router swap: report balances, estimate,
// price, sign and broadcast a swapExactETHForTokens transaction.
package swapper

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/ethersphere/router-swap/pkg/logging"
	"github.com/ethersphere/router-swap/pkg/router"
	"github.com/ethersphere/router-swap/pkg/wallet"
)

type Options struct {
	log logging.Logger
	now func() time.Time
}

type SwapperOption func(*Options)

func DefaultOptions() *Options {
	return &Options{
		log: logging.New(os.Stdout, logrus.InfoLevel),
		now: time.Now,
	}
}

func WithLogger(l logging.Logger) SwapperOption {
	return func(o *Options) { o.log = l }
}

// WithClock sets the time source used for the swap deadline.
func WithClock(now func() time.Time) SwapperOption {
	return func(o *Options) { o.now = now }
}

type AccountBalance struct {
	Account common.Address
	Wei     *big.Int
}

// Result describes how far a swap got. On failure it still holds everything
// gathered up to the failing stage.
type Result struct {
	Stage    Stage
	Deadline uint64
	CallData []byte
	Gas      uint64
	GasPrice *big.Int
	Nonce    uint64
	Tx       *types.Transaction
	Hash     common.Hash
}

// Balances lists the node accounts plus the configured one and logs each balance.
// A nil client dials params.Endpoint.
func Balances(ctx context.Context, params Params, client wallet.BackendClient, options ...SwapperOption) ([]AccountBalance, error) {
	client, closeFn, err := connect(ctx, params, client)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	s := newSwapper(client, params, options...)

	chainID, err := s.chainID(ctx)
	if err != nil {
		return nil, err
	}

	return s.reportBalances(ctx, chainID)
}

// Swap performs the whole workflow once. Any failure stops it; nothing is
// retried. A nil client dials params.Endpoint.
func Swap(ctx context.Context, params Params, client wallet.BackendClient, options ...SwapperOption) (Result, error) {
	client, closeFn, err := connect(ctx, params, client)
	if err != nil {
		return Result{Stage: StageUnsent}, err
	}
	defer closeFn()

	s := newSwapper(client, params, options...)

	return s.swap(ctx)
}

type swapper struct {
	wallet *wallet.Wallet
	router *router.Router
	params Params
	log    logging.Logger
	now    func() time.Time
}

func newSwapper(client wallet.BackendClient, params Params, options ...SwapperOption) *swapper {
	opts := DefaultOptions()
	for _, opt := range options {
		opt(opts)
	}

	return &swapper{
		wallet: wallet.New(client, params.Key),
		router: router.New(params.Router, client),
		params: params,
		log:    opts.log,
		now:    opts.now,
	}
}

func connect(ctx context.Context, params Params, client wallet.BackendClient) (wallet.BackendClient, func(), error) {
	if client != nil {
		return client, func() {}, nil
	}

	c, err := wallet.Dial(ctx, params.Endpoint)
	if err != nil {
		return nil, nil, stageError(KindNetwork, StageUnsent, "dial node", err)
	}

	return c, c.Close, nil
}

func (s *swapper) chainID(ctx context.Context) (*big.Int, error) {
	chainID, err := s.wallet.ChainID(ctx)
	if err != nil {
		return nil, stageError(KindNetwork, StageUnsent, "chain id", err)
	}

	return chainID, nil
}

func (s *swapper) reportBalances(ctx context.Context, chainID *big.Int) ([]AccountBalance, error) {
	symbol := "native"
	if coin, err := wallet.NativeCoinForChain(chainID.Int64()); err == nil {
		symbol = coin.Symbol
	}

	accounts, err := s.wallet.Accounts(ctx, s.params.Account)
	if err != nil {
		return nil, stageError(KindNetwork, StageUnsent, "accounts", err)
	}

	s.log.Infof("accounts: %v", accounts)

	balances := make([]AccountBalance, 0, len(accounts))
	for _, account := range accounts {
		wei, err := s.wallet.Balance(ctx, account)
		if err != nil {
			return nil, stageError(KindNetwork, StageUnsent, "balance", err)
		}

		s.log.Infof("balance of %s: %s %s", account, wallet.ToWholeUnits(wei), symbol)
		balances = append(balances, AccountBalance{Account: account, Wei: wei})
	}

	return balances, nil
}

func (s *swapper) swap(ctx context.Context) (Result, error) {
	res := Result{Stage: StageUnsent}

	chainID, err := s.chainID(ctx)
	if err != nil {
		return res, err
	}

	if _, err := s.reportBalances(ctx, chainID); err != nil {
		return res, err
	}

	weth, err := s.router.WETH(ctx)
	if err != nil {
		return res, stageError(KindNetwork, res.Stage, "query WETH", err)
	}

	s.log.Infof("WETH address: %s", weth)
	s.reportFactory(ctx)
	s.reportTokenBalance(ctx)

	res.Deadline, err = router.Deadline(s.now(), s.params.DeadlineMargin)
	if err != nil {
		kind := KindOverflow
		if errors.Is(err, router.ErrClockBeforeEpoch) {
			kind = KindClock
		}

		return res, stageError(kind, res.Stage, "deadline", err)
	}

	s.log.Infof("deadline: %d", res.Deadline)

	call := router.SwapCall{
		AmountOutMin: s.params.AmountOutMin,
		Path:         []common.Address{weth, s.params.TokenOut},
		To:           s.params.Account,
		Deadline:     res.Deadline,
	}

	res.CallData, err = call.Pack()
	if err != nil {
		return res, stageError(KindEncoding, res.Stage, "encode swap call", err)
	}

	routerAddr := s.router.Address()

	res.Gas, err = s.wallet.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.params.Account,
		To:    &routerAddr,
		Gas:   s.params.GasHint,
		Value: s.params.Value,
		Data:  res.CallData,
	})
	if err != nil {
		return res, stageError(KindNetwork, res.Stage, "estimate gas", err)
	}

	res.Stage = StageGasEstimated
	s.log.Infof("estimated gas amount: %d", res.Gas)

	res.GasPrice, err = s.wallet.GasPrice(ctx)
	if err != nil {
		return res, stageError(KindNetwork, res.Stage, "gas price", err)
	}

	s.log.Infof("gas price: %s", res.GasPrice)

	res.Nonce, err = s.wallet.Nonce(ctx, s.params.Account)
	if err != nil {
		return res, stageError(KindNetwork, res.Stage, "nonce", err)
	}

	res.Stage = StagePricedAndNonced
	s.log.Infof("nonce: %d", res.Nonce)

	tx := wallet.BuildTx(wallet.TxRequest{
		Nonce:    res.Nonce,
		To:       routerAddr,
		Value:    s.params.Value,
		GasPrice: res.GasPrice,
		GasLimit: res.Gas,
		Data:     res.CallData,
	})

	res.Stage = StageBuilt
	s.log.Infof("transaction: nonce=%d to=%s value=%s gasPrice=%s gas=%d data=0x%x",
		tx.Nonce(), tx.To(), tx.Value(), tx.GasPrice(), tx.Gas(), tx.Data())

	signer, err := s.wallet.Address()
	if err != nil {
		return res, stageError(KindSigning, res.Stage, "wallet address", err)
	}

	if signer != s.params.Account {
		return res, stageError(KindSigning, res.Stage, "wallet address", fmt.Errorf("key controls %s, not sender %s", signer, s.params.Account))
	}

	res.Tx, err = s.wallet.SignTx(tx, chainID)
	if err != nil {
		return res, stageError(KindSigning, res.Stage, "sign transaction", err)
	}

	res.Hash = res.Tx.Hash()
	res.Stage = StageSigned

	raw, err := res.Tx.MarshalBinary()
	if err != nil {
		return res, stageError(KindEncoding, res.Stage, "encode signed transaction", err)
	}

	// Logged before broadcasting so an interrupted submission can be traced.
	s.log.Infof("signed transaction %s: 0x%x", res.Hash, raw)

	if s.params.DryRun {
		s.log.Infof("dry run, transaction not sent")
		return res, nil
	}

	if err := s.wallet.Send(ctx, res.Tx); err != nil {
		return res, stageError(KindNetwork, res.Stage, "send transaction", err)
	}

	res.Stage = StageSubmitted
	s.log.Infof("transaction successful with hash: %s", res.Hash)

	return res, nil
}

// reportFactory is informational; failures are logged and ignored.
func (s *swapper) reportFactory(ctx context.Context) {
	factory, err := s.router.Factory(ctx)
	if err != nil {
		s.log.Warningf("router factory unavailable: %v", err)
		return
	}

	s.log.Infof("factory address: %s", factory)
}

// reportTokenBalance is informational only; failures are logged and ignored.
func (s *swapper) reportTokenBalance(ctx context.Context) {
	token, balance, err := s.wallet.TokenBalance(ctx, s.params.TokenOut, s.params.Account)
	if err != nil {
		s.log.Warningf("output token %s balance unavailable: %v", s.params.TokenOut, err)
		return
	}

	s.log.Infof("%s balance of %s: %s", token.Symbol, s.params.Account, wallet.FormatAmount(balance, token.Decimals))
}
