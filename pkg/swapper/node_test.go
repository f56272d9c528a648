// Copyright 2024 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package swapper_test

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	"github.com/ethersphere/router-swap/pkg/router"
	"github.com/ethersphere/router-swap/pkg/wallet"
)

// callArgs mirrors the transaction object ethclient sends with eth_call and
// eth_estimateGas.
type callArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Gas   *hexutil.Uint64 `json:"gas"`
	Value *hexutil.Big    `json:"value"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
}

func (a callArgs) data() []byte {
	if a.Input != nil {
		return *a.Input
	}

	if a.Data != nil {
		return *a.Data
	}

	return nil
}

// testNode serves the eth namespace subset used by the swap workflow.
type testNode struct {
	chainID  *big.Int
	accounts []common.Address
	balance  *big.Int
	router   common.Address
	weth     common.Address
	factory  common.Address
	nonce    uint64
	gasPrice *big.Int
	gas      uint64
	sendErr  error

	mu        sync.Mutex
	estimates []callArgs
	sent      []*types.Transaction
}

func (n *testNode) ChainId() *hexutil.Big {
	return (*hexutil.Big)(n.chainID)
}

func (n *testNode) Accounts() []common.Address {
	return n.accounts
}

func (n *testNode) GetBalance(common.Address, *string) *hexutil.Big {
	return (*hexutil.Big)(n.balance)
}

func (n *testNode) GetCode(common.Address, *string) hexutil.Bytes {
	return hexutil.Bytes{0x1}
}

func (n *testNode) Call(args callArgs, _ *string) (hexutil.Bytes, error) {
	if args.To == nil || *args.To != n.router {
		return nil, errors.New("execution reverted")
	}

	for name, result := range map[string]common.Address{"WETH": n.weth, "factory": n.factory} {
		method := router.ABI().Methods[name]
		if bytes.Equal(args.data(), method.ID) {
			return method.Outputs.Pack(result)
		}
	}

	return nil, errors.New("execution reverted")
}

func (n *testNode) EstimateGas(args callArgs, _ *string) (hexutil.Uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.estimates = append(n.estimates, args)

	return hexutil.Uint64(n.gas), nil
}

func (n *testNode) GasPrice() *hexutil.Big {
	return (*hexutil.Big)(n.gasPrice)
}

func (n *testNode) GetTransactionCount(common.Address, *string) hexutil.Uint64 {
	return hexutil.Uint64(n.nonce)
}

func (n *testNode) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	if n.sendErr != nil {
		return common.Hash{}, n.sendErr
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, tx)

	return tx.Hash(), nil
}

func (n *testNode) recorded() ([]callArgs, []*types.Transaction) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]callArgs(nil), n.estimates...), append([]*types.Transaction(nil), n.sent...)
}

// serve exposes the node over a websocket endpoint and returns its ws:// URL.
func (n *testNode) serve(t *testing.T) string {
	t.Helper()

	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", n))

	ts := httptest.NewServer(srv.WebsocketHandler([]string{"*"}))
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})

	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dialNode(t *testing.T, endpoint string) *wallet.Client {
	t.Helper()

	client, err := wallet.Dial(context.Background(), endpoint)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}
