// Copyright 2023 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// BackendClient is the subset of the node API the swap workflow talks to.
type BackendClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	Accounts(ctx context.Context) ([]common.Address, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (gas uint64, err error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Client is a BackendClient backed by a live node connection. The endpoint
// may be a ws(s):// or http(s):// URL.
type Client struct {
	*ethclient.Client
	rpc *rpc.Client
}

var _ BackendClient = (*Client)(nil)

func Dial(ctx context.Context, endpoint string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	return &Client{
		Client: ethclient.NewClient(rpcClient),
		rpc:    rpcClient,
	}, nil
}

// Accounts returns the accounts managed by the node (eth_accounts).
func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}

	return accounts, nil
}
