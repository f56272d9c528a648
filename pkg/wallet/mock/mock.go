// Copyright 2023 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mock

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethersphere/router-swap/pkg/wallet"
)

var ErrDisabled = errors.New("disabled chain backend")

type Option func(*Client)

func WithChainID(id int64) Option {
	return func(c *Client) { c.chainID = big.NewInt(id) }
}

func WithAccounts(accounts ...common.Address) Option {
	return func(c *Client) { c.accounts = accounts }
}

func WithBalance(balance *big.Int) Option {
	return func(c *Client) { c.balance = balance }
}

func WithNonce(nonce uint64) Option {
	return func(c *Client) { c.nonce = nonce }
}

func WithGasPrice(gasPrice *big.Int) Option {
	return func(c *Client) { c.gasPrice = gasPrice }
}

func WithGasEstimate(gas uint64) Option {
	return func(c *Client) { c.gas = gas }
}

// WithCallContract replaces the default eth_call behaviour, which fails.
func WithCallContract(fn func(ethereum.CallMsg) ([]byte, error)) Option {
	return func(c *Client) { c.callFn = fn }
}

func WithSendError(err error) Option {
	return func(c *Client) { c.sendErr = err }
}

// Client is an in-memory wallet.BackendClient.
type Client struct {
	chainID  *big.Int
	accounts []common.Address
	balance  *big.Int
	nonce    uint64
	gasPrice *big.Int
	gas      uint64
	callFn   func(ethereum.CallMsg) ([]byte, error)
	sendErr  error

	mu        sync.Mutex
	estimates []ethereum.CallMsg
	sent      []*types.Transaction
}

var _ wallet.BackendClient = (*Client)(nil)

func NewBackendClient(opts ...Option) *Client {
	c := &Client{
		chainID:  big.NewInt(1337),
		balance:  big.NewInt(100000000),
		gasPrice: big.NewInt(20_000),
		gas:      10,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

func (c *Client) Accounts(context.Context) ([]common.Address, error) {
	return append([]common.Address(nil), c.accounts...), nil
}

func (c *Client) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return new(big.Int).Set(c.balance), nil
}

func (c *Client) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

func (c *Client) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if c.callFn == nil {
		return nil, ErrDisabled
	}

	return c.callFn(msg)
}

func (c *Client) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.estimates = append(c.estimates, msg)

	return c.gas, nil
}

func (c *Client) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.gasPrice), nil
}

func (c *Client) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return c.nonce, nil
}

func (c *Client) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if c.sendErr != nil {
		return c.sendErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sent = append(c.sent, tx)

	return nil
}

// Estimates returns the calls passed to EstimateGas.
func (c *Client) Estimates() []ethereum.CallMsg {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]ethereum.CallMsg(nil), c.estimates...)
}

// Sent returns the transactions accepted by SendTransaction.
func (c *Client) Sent() []*types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]*types.Transaction(nil), c.sent...)
}
