// Copyright 2024 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package router binds a Uniswap V2 style router contract and encodes the
// swap calls sent to it.
package router

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// DefaultAddress is the Uniswap V2 Router02 deployment.
const DefaultAddress = "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"

//go:embed router02_abi.json
var router02ABIJSON string

var routerABI = mustParseABI(router02ABIJSON)

// ABI returns the parsed router interface.
func ABI() abi.ABI {
	return routerABI
}

type Router struct {
	address  common.Address
	contract *bind.BoundContract
}

// New binds the router at address. Only read-only calls go through caller;
// transactions are built and signed by the wallet.
func New(address common.Address, caller bind.ContractCaller) *Router {
	return &Router{
		address:  address,
		contract: bind.NewBoundContract(address, routerABI, caller, nil, nil),
	}
}

func (r *Router) Address() common.Address {
	return r.address
}

// WETH returns the wrapped native token address the router swaps through.
func (r *Router) WETH(ctx context.Context) (common.Address, error) {
	return r.callAddress(ctx, "WETH")
}

func (r *Router) Factory(ctx context.Context) (common.Address, error) {
	return r.callAddress(ctx, "factory")
}

func (r *Router) callAddress(ctx context.Context, method string) (common.Address, error) {
	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, method); err != nil {
		return common.Address{}, fmt.Errorf("router %s: %w", method, err)
	}

	if len(out) == 0 {
		return common.Address{}, fmt.Errorf("router %s: empty result", method)
	}

	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("router %s: unexpected result %T", method, out[0])
	}

	return addr, nil
}

func mustParseABI(json string) abi.ABI {
	cabi, err := abi.JSON(strings.NewReader(json))
	if err != nil {
		panic(fmt.Sprintf("error creating ABI for contract: %v", err))
	}

	return cabi
}
