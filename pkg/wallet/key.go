// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrEmptyKey = errors.New("empty private key")

// WalletKey is a hex encoded secp256k1 private key, with or without 0x prefix.
type WalletKey string

func (k WalletKey) Private() (*ecdsa.PrivateKey, error) {
	h := strings.TrimPrefix(strings.TrimSpace(string(k)), "0x")
	if h == "" {
		return nil, ErrEmptyKey
	}

	privateKey, err := crypto.HexToECDSA(h)
	if err != nil {
		return nil, err
	}

	return privateKey, nil
}

func (k WalletKey) Public() (*ecdsa.PublicKey, error) {
	privateKey, err := k.Private()
	if err != nil {
		return nil, err
	}

	publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to get public key from private key")
	}

	return publicKeyECDSA, nil
}

// Address derives the account address controlled by the key.
func (k WalletKey) Address() (common.Address, error) {
	publicKey, err := k.Public()
	if err != nil {
		return common.Address{}, err
	}

	return crypto.PubkeyToAddress(*publicKey), nil
}

func GenerateKey() (WalletKey, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return "", err
	}

	privateKeyBytes := crypto.FromECDSA(privateKey)
	keyStr := hex.EncodeToString(privateKeyBytes)

	return WalletKey(keyStr), nil
}
