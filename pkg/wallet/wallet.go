// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethersphere/go-sw3-abi/sw3abi"
)

var erc20ABI = mustParseABI(sw3abi.ERC20ABIv0_3_1)

type Wallet struct {
	client BackendClient
	key    WalletKey
}

func New(client BackendClient, key WalletKey) *Wallet {
	return &Wallet{
		client: client,
		key:    key,
	}
}

// Address returns the account controlled by the wallet key.
func (w *Wallet) Address() (common.Address, error) {
	return w.key.Address()
}

func (w *Wallet) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := w.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id, %w", err)
	}

	return id, nil
}

// Accounts lists the node managed accounts followed by extra.
func (w *Wallet) Accounts(ctx context.Context, extra ...common.Address) ([]common.Address, error) {
	accounts, err := w.client.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts, %w", err)
	}

	return append(accounts, extra...), nil
}

func (w *Wallet) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := w.client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of %s, %w", account, err)
	}

	return balance, nil
}

// TokenBalance reads the ERC20 balance of owner together with the token's
// symbol and decimals.
func (w *Wallet) TokenBalance(ctx context.Context, token, owner common.Address) (Token, *big.Int, error) {
	t := Token{Contract: token}

	out, err := w.callERC20(ctx, token, "balanceOf", owner)
	if err != nil {
		return t, nil, err
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return t, nil, fmt.Errorf("unexpected balanceOf result %T", out[0])
	}

	out, err = w.callERC20(ctx, token, "symbol")
	if err != nil {
		return t, nil, err
	}

	if t.Symbol, ok = out[0].(string); !ok {
		return t, nil, fmt.Errorf("unexpected symbol result %T", out[0])
	}

	out, err = w.callERC20(ctx, token, "decimals")
	if err != nil {
		return t, nil, err
	}

	decimals, ok := out[0].(uint8)
	if !ok {
		return t, nil, fmt.Errorf("unexpected decimals result %T", out[0])
	}

	t.Decimals = int(decimals)

	return t, balance, nil
}

func (w *Wallet) callERC20(ctx context.Context, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	callData, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack abi, %w", err)
	}

	output, err := w.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: callData}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s on %s, %w", method, token, err)
	}

	out, err := erc20ABI.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s, %w", method, err)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s result", method)
	}

	return out, nil
}

func (w *Wallet) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	gas, err := w.client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("failed to estimate gas, %w", err)
	}

	return gas, nil
}

func (w *Wallet) GasPrice(ctx context.Context) (*big.Int, error) {
	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get suggested gas price, %w", err)
	}

	return gasPrice, nil
}

func (w *Wallet) Nonce(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := w.client.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to get nonce, %w", err)
	}

	return nonce, nil
}

// SignTx signs an ethereum transaction.
func (w *Wallet) SignTx(transaction *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	privateKey, err := w.key.Private()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet key, %w", err)
	}

	return types.SignTx(transaction, types.LatestSignerForChainID(chainID), privateKey)
}

// Send broadcasts a signed transaction (eth_sendRawTransaction).
func (w *Wallet) Send(ctx context.Context, signedTx *types.Transaction) error {
	if err := w.client.SendTransaction(ctx, signedTx); err != nil {
		return fmt.Errorf("failed to send transaction, %w", err)
	}

	return nil
}

func mustParseABI(json string) abi.ABI {
	cabi, err := abi.JSON(strings.NewReader(json))
	if err != nil {
		panic(fmt.Sprintf("error creating ABI for contract: %v", err))
	}

	return cabi
}
