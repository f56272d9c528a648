// Copyright 2024 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package swapper_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethersphere/router-swap/pkg/logging"
	"github.com/ethersphere/router-swap/pkg/router"
	"github.com/ethersphere/router-swap/pkg/swapper"
	"github.com/ethersphere/router-swap/pkg/wallet"
	"github.com/ethersphere/router-swap/pkg/wallet/mock"
)

var (
	testRouter   = common.HexToAddress(router.DefaultAddress)
	testWETH     = common.HexToAddress("0xc778417E063141139Fce010982780140Aa0cD5Ab")
	testTokenOut = common.HexToAddress(swapper.DefaultTokenOut)
	testFactory  = common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	testNow      = time.UnixMilli(1_650_000_000_000)
)

func Test_Swap_Node(t *testing.T) {
	t.Parallel()

	key := generateKey(t)
	account := keyAddress(t, key)

	node := &testNode{
		chainID:  big.NewInt(4),
		accounts: []common.Address{common.HexToAddress("0x1000000000000000000000000000000000000001")},
		balance:  toBigInt("1500000000000000000"),
		router:   testRouter,
		weth:     testWETH,
		nonce:    42,
		gasPrice: big.NewInt(1_000_000_007),
		gas:      123_456,
		factory:  testFactory,
	}
	client := dialNode(t, node.serve(t))

	params := testParams(key, account)

	var logs bytes.Buffer
	opts := []swapper.SwapperOption{
		swapper.WithLogger(logging.New(&logs, logrus.InfoLevel)),
		swapper.WithClock(func() time.Time { return testNow }),
	}

	res, err := swapper.Swap(context.Background(), params, client, opts...)
	require.NoError(t, err)
	assert.Equal(t, swapper.StageSubmitted, res.Stage)

	assert.Contains(t, logs.String(), "WETH address: "+testWETH.Hex())
	assert.Contains(t, logs.String(), "factory address: "+testFactory.Hex())
	assert.Contains(t, logs.String(), "transaction: nonce=42 to="+testRouter.Hex())
	assert.Contains(t, logs.String(), "gasPrice=1000000007 gas=123456")
	assert.Contains(t, logs.String(), "transaction successful with hash: "+res.Hash.Hex())

	estimates, sent := node.recorded()
	require.Len(t, estimates, 1)
	require.Len(t, sent, 1)

	tx := sent[0]
	assert.Equal(t, uint64(42), tx.Nonce())
	assert.Equal(t, "1000000007", tx.GasPrice().String())
	assert.Equal(t, uint64(123_456), tx.Gas())
	assert.Equal(t, testRouter, *tx.To())
	assert.Equal(t, params.Value.String(), tx.Value().String())
	assert.Equal(t, res.Hash, tx.Hash())
	assert.Equal(t, res.CallData, tx.Data())

	estimate := estimates[0]
	require.NotNil(t, estimate.From)
	assert.Equal(t, account, *estimate.From)
	require.NotNil(t, estimate.Gas)
	assert.Equal(t, params.GasHint, uint64(*estimate.Gas))
	require.NotNil(t, estimate.Value)
	assert.Equal(t, params.Value.String(), estimate.Value.ToInt().String())
	assert.Equal(t, tx.Data(), estimate.data())

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(4)), tx)
	require.NoError(t, err)
	assert.Equal(t, account, sender)

	args := unpackSwap(t, tx.Data())
	assert.Equal(t, params.AmountOutMin.String(), args.amountOutMin.String())
	assert.Equal(t, []common.Address{testWETH, testTokenOut}, args.path)
	assert.Equal(t, account, args.to)
	assert.Equal(t, uint64(testNow.UnixMilli())+params.DeadlineMargin, args.deadline.Uint64())
	assert.Equal(t, args.deadline.Uint64(), res.Deadline)
}

func Test_Swap_NodeRejectsTransaction(t *testing.T) {
	t.Parallel()

	key := generateKey(t)
	account := keyAddress(t, key)

	node := &testNode{
		chainID:  big.NewInt(1337),
		balance:  big.NewInt(0),
		router:   testRouter,
		weth:     testWETH,
		nonce:    7,
		gasPrice: big.NewInt(10),
		gas:      21_000,
		sendErr:  errors.New("insufficient funds for gas * price + value"),
	}
	client := dialNode(t, node.serve(t))

	res, err := swapper.Swap(context.Background(), testParams(key, account), client, quietOptions()...)
	require.Error(t, err)
	assert.ErrorIs(t, err, swapper.ErrNetwork)
	assert.Contains(t, err.Error(), "insufficient funds")
	assert.Equal(t, swapper.StageSigned, res.Stage)
	assert.NotNil(t, res.Tx)

	_, sent := node.recorded()
	assert.Empty(t, sent)
}

func Test_Swap_DialFailure(t *testing.T) {
	t.Parallel()

	key := generateKey(t)
	params := testParams(key, keyAddress(t, key))
	params.Endpoint = "ws://127.0.0.1:1"

	res, err := swapper.Swap(context.Background(), params, nil, quietOptions()...)
	require.Error(t, err)
	assert.ErrorIs(t, err, swapper.ErrNetwork)
	assert.Equal(t, swapper.StageUnsent, res.Stage)
}

func Test_Swap(t *testing.T) {
	t.Parallel()

	t.Run("single call encoding", func(t *testing.T) {
		t.Parallel()

		key := generateKey(t)
		account := keyAddress(t, key)
		client := mock.NewBackendClient(
			mock.WithCallContract(wethCaller(testWETH)),
			mock.WithNonce(3),
			mock.WithGasEstimate(99_000),
		)

		res, err := swapper.Swap(context.Background(), testParams(key, account), client, quietOptions()...)
		require.NoError(t, err)
		assert.Equal(t, swapper.StageSubmitted, res.Stage)

		estimates := client.Estimates()
		sent := client.Sent()
		require.Len(t, estimates, 1)
		require.Len(t, sent, 1)
		assert.Equal(t, estimates[0].Data, sent[0].Data())
		assert.Equal(t, uint64(99_000), sent[0].Gas())
		assert.Equal(t, uint64(3), sent[0].Nonce())
		assert.Equal(t, "20000", sent[0].GasPrice().String())
	})

	t.Run("dry run", func(t *testing.T) {
		t.Parallel()

		key := generateKey(t)
		params := testParams(key, keyAddress(t, key))
		params.DryRun = true
		client := mock.NewBackendClient(mock.WithCallContract(wethCaller(testWETH)))

		res, err := swapper.Swap(context.Background(), params, client, quietOptions()...)
		require.NoError(t, err)
		assert.Equal(t, swapper.StageSigned, res.Stage)
		assert.NotNil(t, res.Tx)
		assert.Empty(t, client.Sent())
	})

	t.Run("send rejected", func(t *testing.T) {
		t.Parallel()

		key := generateKey(t)
		client := mock.NewBackendClient(
			mock.WithCallContract(wethCaller(testWETH)),
			mock.WithSendError(errors.New("nonce too low")),
		)

		res, err := swapper.Swap(context.Background(), testParams(key, keyAddress(t, key)), client, quietOptions()...)
		assert.ErrorIs(t, err, swapper.ErrNetwork)
		assert.Equal(t, swapper.KindNetwork, swapper.KindOf(err))
		assert.Equal(t, swapper.StageSigned, res.Stage)
	})

	t.Run("factory unavailable", func(t *testing.T) {
		t.Parallel()

		key := generateKey(t)
		client := mock.NewBackendClient(mock.WithCallContract(wethCaller(testWETH)))

		var logs bytes.Buffer
		opts := []swapper.SwapperOption{
			swapper.WithLogger(logging.New(&logs, logrus.WarnLevel)),
			swapper.WithClock(func() time.Time { return testNow }),
		}

		res, err := swapper.Swap(context.Background(), testParams(key, keyAddress(t, key)), client, opts...)
		require.NoError(t, err)
		assert.Equal(t, swapper.StageSubmitted, res.Stage)
		assert.Contains(t, logs.String(), "router factory unavailable")
	})

	t.Run("key does not control sender", func(t *testing.T) {
		t.Parallel()

		key := generateKey(t)
		params := testParams(key, keyAddress(t, generateKey(t)))
		client := mock.NewBackendClient(mock.WithCallContract(wethCaller(testWETH)))

		res, err := swapper.Swap(context.Background(), params, client, quietOptions()...)
		assert.ErrorIs(t, err, swapper.ErrSigning)
		assert.Equal(t, swapper.StageBuilt, res.Stage)
		assert.Nil(t, res.Tx)
		assert.Empty(t, client.Sent())
	})

	t.Run("WETH query fails", func(t *testing.T) {
		t.Parallel()

		key := generateKey(t)
		client := mock.NewBackendClient()

		res, err := swapper.Swap(context.Background(), testParams(key, keyAddress(t, key)), client, quietOptions()...)
		assert.ErrorIs(t, err, swapper.ErrNetwork)
		assert.ErrorIs(t, err, mock.ErrDisabled)
		assert.Equal(t, swapper.StageUnsent, res.Stage)
		assert.Empty(t, client.Estimates())
	})

	t.Run("clock before epoch", func(t *testing.T) {
		t.Parallel()

		key := generateKey(t)
		client := mock.NewBackendClient(mock.WithCallContract(wethCaller(testWETH)))
		opts := []swapper.SwapperOption{
			swapper.WithLogger(logging.Noop()),
			swapper.WithClock(func() time.Time { return time.Unix(-1, 0) }),
		}

		res, err := swapper.Swap(context.Background(), testParams(key, keyAddress(t, key)), client, opts...)
		assert.ErrorIs(t, err, swapper.ErrClock)
		assert.ErrorIs(t, err, router.ErrClockBeforeEpoch)
		assert.Equal(t, swapper.StageUnsent, res.Stage)
		assert.Empty(t, client.Sent())
	})

	t.Run("deadline overflow", func(t *testing.T) {
		t.Parallel()

		key := generateKey(t)
		params := testParams(key, keyAddress(t, key))
		params.DeadlineMargin = math.MaxUint64
		client := mock.NewBackendClient(mock.WithCallContract(wethCaller(testWETH)))

		_, err := swapper.Swap(context.Background(), params, client, quietOptions()...)
		assert.ErrorIs(t, err, swapper.ErrOverflow)
		assert.ErrorIs(t, err, router.ErrDeadlineOverflow)
		assert.Empty(t, client.Estimates())
	})

	t.Run("invalid swap path", func(t *testing.T) {
		t.Parallel()

		key := generateKey(t)
		client := mock.NewBackendClient(mock.WithCallContract(wethCaller(common.Address{})))

		res, err := swapper.Swap(context.Background(), testParams(key, keyAddress(t, key)), client, quietOptions()...)
		assert.ErrorIs(t, err, swapper.ErrEncoding)
		assert.ErrorIs(t, err, router.ErrZeroAddress)
		assert.Equal(t, swapper.StageUnsent, res.Stage)
	})
}

func Test_Balances(t *testing.T) {
	t.Parallel()

	key := generateKey(t)
	account := keyAddress(t, key)
	nodeAccount := common.HexToAddress("0x2000000000000000000000000000000000000002")

	client := mock.NewBackendClient(
		mock.WithAccounts(nodeAccount),
		mock.WithBalance(toBigInt("2500000000000000000")),
	)

	balances, err := swapper.Balances(context.Background(), testParams(key, account), client, quietOptions()...)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, nodeAccount, balances[0].Account)
	assert.Equal(t, account, balances[1].Account)
	assert.Equal(t, "2", wallet.ToWholeUnits(balances[1].Wei).String())
	assert.Empty(t, client.Sent())
}

func Test_Stage(t *testing.T) {
	t.Parallel()

	stages := []swapper.Stage{
		swapper.StageUnsent,
		swapper.StageGasEstimated,
		swapper.StagePricedAndNonced,
		swapper.StageBuilt,
		swapper.StageSigned,
		swapper.StageSubmitted,
	}
	names := []string{"unsent", "gas-estimated", "priced-and-nonced", "built", "signed", "submitted"}

	for i, s := range stages {
		assert.Equal(t, names[i], s.String())
	}

	assert.Equal(t, "unknown", swapper.Stage(100).String())
}

func Test_Error(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := error(&swapper.Error{Kind: swapper.KindNetwork, Stage: swapper.StageGasEstimated, Op: "gas price", Err: cause})

	assert.ErrorIs(t, err, swapper.ErrNetwork)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, swapper.ErrConfig)
	assert.Equal(t, "network error at stage gas-estimated: gas price: connection reset", err.Error())
	assert.Equal(t, swapper.KindNetwork, swapper.KindOf(err))
	assert.Equal(t, swapper.Kind(""), swapper.KindOf(cause))
}

type swapArgs struct {
	amountOutMin *big.Int
	path         []common.Address
	to           common.Address
	deadline     *big.Int
}

func unpackSwap(t *testing.T, data []byte) swapArgs {
	t.Helper()

	method := router.ABI().Methods[router.SwapExactETHForTokens]
	require.True(t, bytes.HasPrefix(data, method.ID))

	values, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, values, 4)

	return swapArgs{
		amountOutMin: values[0].(*big.Int),
		path:         values[1].([]common.Address),
		to:           values[2].(common.Address),
		deadline:     values[3].(*big.Int),
	}
}

func wethCaller(weth common.Address) func(ethereum.CallMsg) ([]byte, error) {
	method := router.ABI().Methods["WETH"]

	return func(msg ethereum.CallMsg) ([]byte, error) {
		if bytes.Equal(msg.Data, method.ID) {
			return method.Outputs.Pack(weth)
		}

		return nil, errors.New("execution reverted")
	}
}

func testParams(key wallet.WalletKey, account common.Address) swapper.Params {
	return swapper.Params{
		Endpoint:       "ws://localhost:8546",
		Account:        account,
		Key:            key,
		Router:         testRouter,
		TokenOut:       testTokenOut,
		AmountOutMin:   toBigInt(swapper.DefaultAmountOutMin),
		Value:          toBigInt(swapper.DefaultValueWei),
		GasHint:        swapper.DefaultGasHint,
		DeadlineMargin: router.DefaultDeadlineMargin,
	}
}

func quietOptions() []swapper.SwapperOption {
	return []swapper.SwapperOption{
		swapper.WithLogger(logging.Noop()),
		swapper.WithClock(func() time.Time { return testNow }),
	}
}

func generateKey(t *testing.T) wallet.WalletKey {
	t.Helper()

	key, err := wallet.GenerateKey()
	require.NoError(t, err)

	return key
}

func keyAddress(t *testing.T, key wallet.WalletKey) common.Address {
	t.Helper()

	addr, err := key.Address()
	require.NoError(t, err)

	return addr
}

func toBigInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid big int " + s)
	}

	return v
}
