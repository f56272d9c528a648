// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethersphere/router-swap/pkg/logging"
	"github.com/ethersphere/router-swap/pkg/router"
	"github.com/ethersphere/router-swap/pkg/swapper"
)

const (
	optionLogVerbosity string = "log-verbosity"
	optionConfig       string = "config"
	optionEnvFile      string = "env-file"
	optionTimeout      string = "timeout"
)

var version = "dev"

func main() {
	var (
		flagged    = swapper.DefaultConfig()
		logLevel   string
		configFile string
		envFiles   []string
		timeout    time.Duration
		logger     logging.Logger
	)

	rootCmd := &cobra.Command{
		Use:   "swapper",
		Short: "swap native coins for tokens through a Uniswap V2 style router",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			logger, err = newLogger(cmd, logLevel)
			return err
		},
		Run: func(cmd *cobra.Command, args []string) {
			if err := cmd.Help(); err != nil {
				log.Fatal(err)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, optionLogVerbosity, "info", "log verbosity level 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace")

	loadParams := func(cmd *cobra.Command) swapper.Params {
		cfg, err := swapper.Load(configFile, envFiles, flagged, cmd.Flags().Changed)
		if err != nil {
			logger.Fatalf("%v", err)
		}

		logger.Debugf("configuration: %+v", cfg.Redacted())

		params, err := cfg.Validate()
		if err != nil {
			logger.Fatalf("%v", err)
		}

		return params
	}

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "estimate, sign and broadcast a swapExactETHForTokens transaction",
		Run: func(cmd *cobra.Command, args []string) {
			doSwap(loadParams(cmd), timeout, runLogger(logger))
		},
	}

	balancesCmd := &cobra.Command{
		Use:   "balances",
		Short: "list node accounts and their balances",
		Run: func(cmd *cobra.Command, args []string) {
			doBalances(loadParams(cmd), timeout, runLogger(logger))
		},
	}

	for _, cmd := range []*cobra.Command{swapCmd, balancesCmd} {
		cmd.PersistentFlags().StringVar(&configFile, optionConfig, "", "path to YAML swap file")
		cmd.PersistentFlags().StringSliceVar(&envFiles, optionEnvFile, nil, "dotenv files to load (default .env)")
		cmd.PersistentFlags().DurationVar(&timeout, optionTimeout, 0, "bound the whole run, 0 means no limit")
		cmd.PersistentFlags().StringVar(&flagged.ChainNodeEndpoint, swapper.OptionChainNodeEndpoint, "", "endpoint to chain node (overrides "+swapper.EnvNodeEndpoint+")")
		cmd.PersistentFlags().StringVar(&flagged.AccountAddress, swapper.OptionAccountAddress, "", "sender address (overrides "+swapper.EnvAccountAddress+")")
		cmd.PersistentFlags().StringVar(&flagged.WalletKey, swapper.OptionWalletKey, "", "wallet key (overrides "+swapper.EnvPrivateKey+")")
	}

	swapCmd.PersistentFlags().StringVar(&flagged.Swap.Router, swapper.OptionRouter, router.DefaultAddress, "router contract address")
	swapCmd.PersistentFlags().StringVar(&flagged.Swap.TokenOut, swapper.OptionTokenOut, swapper.DefaultTokenOut, "token to buy")
	swapCmd.PersistentFlags().StringVar(&flagged.Swap.AmountOutMin, swapper.OptionAmountOutMin, swapper.DefaultAmountOutMin, "minimum amount of tokens to receive")
	swapCmd.PersistentFlags().StringVar(&flagged.Swap.ValueWei, swapper.OptionValue, swapper.DefaultValueWei, "native coin to spend, in wei")
	swapCmd.PersistentFlags().Uint64Var(&flagged.Swap.GasHint, swapper.OptionGasHint, swapper.DefaultGasHint, "gas limit passed to gas estimation")
	swapCmd.PersistentFlags().Uint64Var(&flagged.Swap.DeadlineMarginMillis, swapper.OptionDeadlineMargin, router.DefaultDeadlineMargin, "swap deadline, in milliseconds from now")
	swapCmd.PersistentFlags().BoolVar(&flagged.DryRun, swapper.OptionDryRun, false, "sign but do not broadcast the transaction")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}

	rootCmd.AddCommand(swapCmd, balancesCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func doSwap(params swapper.Params, timeout time.Duration, logger logging.Logger) {
	ctx, cancel := runContext(timeout)
	defer cancel()

	res, err := swapper.Swap(ctx, params, nil, swapper.WithLogger(logger))
	if err != nil {
		logger.Fatalf("error while swapping: %v", err)
	}

	if res.Stage != swapper.StageSubmitted {
		logger.Infof("stopped at stage %s", res.Stage)
	}
}

func doBalances(params swapper.Params, timeout time.Duration, logger logging.Logger) {
	ctx, cancel := runContext(timeout)
	defer cancel()

	if _, err := swapper.Balances(ctx, params, nil, swapper.WithLogger(logger)); err != nil {
		logger.Fatalf("error while listing balances: %v", err)
	}
}

func runContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}

	return context.WithCancel(context.Background())
}

func runLogger(logger logging.Logger) logging.Logger {
	return logger.WithField("run", uuid.NewString())
}

func newLogger(cmd *cobra.Command, verbosity string) (logging.Logger, error) {
	var logger logging.Logger

	switch strings.ToLower(verbosity) {
	case "0", "silent":
		logger = logging.New(io.Discard, logrus.PanicLevel)
	case "1", "error":
		logger = logging.New(cmd.OutOrStdout(), logrus.ErrorLevel)
	case "2", "warn":
		logger = logging.New(cmd.OutOrStdout(), logrus.WarnLevel)
	case "3", "info":
		logger = logging.New(cmd.OutOrStdout(), logrus.InfoLevel)
	case "4", "debug":
		logger = logging.New(cmd.OutOrStdout(), logrus.DebugLevel)
	case "5", "trace":
		logger = logging.New(cmd.OutOrStdout(), logrus.TraceLevel)
	default:
		return nil, fmt.Errorf("unknown %s level %q, use help to check flag usage options", optionLogVerbosity, verbosity)
	}

	return logger, nil
}
