// Copyright 2024 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package router

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const SwapExactETHForTokens = "swapExactETHForTokens"

var (
	ErrShortPath     = errors.New("swap path needs at least an input and an output token")
	ErrZeroAddress   = errors.New("zero address")
	ErrInvalidAmount = errors.New("minimum output amount must be set and not negative")
)

// SwapCall is the argument tuple of swapExactETHForTokens. The same value is
// packed once and the bytes are reused for gas estimation and the transaction.
type SwapCall struct {
	AmountOutMin *big.Int
	Path         []common.Address
	To           common.Address
	Deadline     uint64
}

func (c SwapCall) Validate() error {
	if c.AmountOutMin == nil || c.AmountOutMin.Sign() < 0 {
		return ErrInvalidAmount
	}

	if len(c.Path) < 2 {
		return ErrShortPath
	}

	for i, token := range c.Path {
		if token == (common.Address{}) {
			return fmt.Errorf("path[%d]: %w", i, ErrZeroAddress)
		}
	}

	if c.To == (common.Address{}) {
		return fmt.Errorf("recipient: %w", ErrZeroAddress)
	}

	return nil
}

// Pack ABI-encodes the call, selector included.
func (c SwapCall) Pack() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	data, err := routerABI.Pack(
		SwapExactETHForTokens,
		c.AmountOutMin,
		c.Path,
		c.To,
		new(big.Int).SetUint64(c.Deadline),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack abi, %w", err)
	}

	return data, nil
}
