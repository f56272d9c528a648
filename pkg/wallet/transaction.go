// Copyright 2024 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wallet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxRequest holds everything needed to build a legacy (gas price) transaction.
type TxRequest struct {
	Nonce    uint64
	To       common.Address
	Value    *big.Int
	GasPrice *big.Int
	GasLimit uint64
	Data     []byte
}

// BuildTx assembles an unsigned transaction from the request. Amounts are
// copied so later changes to the request do not leak into the transaction.
func BuildTx(req TxRequest) *types.Transaction {
	to := req.To

	return types.NewTx(&types.LegacyTx{
		Nonce:    req.Nonce,
		To:       &to,
		Value:    copyBig(req.Value),
		Gas:      req.GasLimit,
		GasPrice: copyBig(req.GasPrice),
		Data:     common.CopyBytes(req.Data),
	})
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}

	return new(big.Int).Set(v)
}
