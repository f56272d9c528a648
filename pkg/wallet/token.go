// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wallet

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

const NativeCoinDecimals = 18

// weiPerCoin is the fixed divisor used when showing native balances.
var weiPerCoin = big.NewInt(params.Ether)

type Token struct {
	Contract common.Address
	Symbol   string
	Decimals int
}

var chainToNativeCoinMap = map[int64]Token{
	// Mainnet
	1: {
		Symbol:   "ETH",
		Decimals: NativeCoinDecimals,
	},

	// Rinkeby Testnet
	4: {
		Symbol:   "rETH",
		Decimals: NativeCoinDecimals,
	},

	// Goerli Testnet
	5: {
		Symbol:   "gETH",
		Decimals: NativeCoinDecimals,
	},

	// Sepolia Testnet
	11155111: {
		Symbol:   "sETH",
		Decimals: NativeCoinDecimals,
	},

	// Localnet
	1337: {
		Symbol:   "tETH",
		Decimals: NativeCoinDecimals,
	},
}

func NativeCoinForChain(cid int64) (Token, error) {
	if t, ok := chainToNativeCoinMap[cid]; ok {
		return t, nil
	}

	return Token{}, fmt.Errorf("native coin not specified for chain (id %d)", cid)
}

// ToWholeUnits truncates a wei amount to whole native coins.
func ToWholeUnits(wei *big.Int) *big.Int {
	if wei == nil {
		return big.NewInt(0)
	}

	return new(big.Int).Quo(wei, weiPerCoin)
}

// FormatAmount renders amount with the given number of decimals, dropping
// trailing zeros of the fractional part.
func FormatAmount(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}

	if decimals <= 0 {
		return amount.String()
	}

	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(new(big.Int).Abs(amount), exp, new(big.Int))

	sign := ""
	if amount.Sign() < 0 {
		sign = "-"
	}

	if frac.Sign() == 0 {
		return sign + whole.String()
	}

	fracStr := frac.String()
	fracStr = strings.Repeat("0", decimals-len(fracStr)) + fracStr

	return sign + whole.String() + "." + strings.TrimRight(fracStr, "0")
}
