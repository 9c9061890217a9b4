/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"

	"exchange-client-go/internal/common"
	"exchange-client-go/internal/config"
	"exchange-client-go/internal/models"

	"go.uber.org/zap"
)

func printWallet(wallet models.Wallet, isLast bool) {
	fmt.Printf("%s %-6s: %24s\n", common.BoxPrefix(isLast), wallet.Currency, common.FormatBalance(wallet))
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg, common.ConsoleNotifier)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	snap, err := common.RequireSession(ctx, services)
	if err != nil {
		logger.Fatal("No session", zap.Error(err))
	}

	common.PrintHeader("WALLET BALANCE REPORT", common.DefaultWidth)
	fmt.Printf("\n┌─ User: %s (%s)\n", snap.User.FullName, snap.User.Email)
	fmt.Printf("│  ID: %d\n", snap.User.Id)
	fmt.Printf("│  Wallets: %d\n", len(snap.Wallets))
	common.PrintBoxSeparator(78)
	for i, wallet := range snap.Wallets {
		printWallet(wallet, i == len(snap.Wallets)-1)
	}

	common.PrintFooter(fmt.Sprintf("SUMMARY: %d wallets", len(snap.Wallets)), common.DefaultWidth)

	logger.Info("Balance query completed", zap.Int("wallets", len(snap.Wallets)))
}
