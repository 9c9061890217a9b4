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
	"flag"
	"fmt"

	"exchange-client-go/internal/common"
	"exchange-client-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Account email (required)")
	passwordFlag := flag.String("password", "", "Account password (required)")
	flag.Parse()

	if *emailFlag == "" || *passwordFlag == "" {
		logger.Fatal("Both flags are required: --email, --password")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg, common.ConsoleNotifier)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	logger.Info("Signing in", zap.String("email", *emailFlag))
	if err := services.Controller.Login(ctx, *emailFlag, *passwordFlag); err != nil {
		logger.Error("Login failed", zap.Error(err))
		return
	}

	snap := services.Controller.Snapshot()
	common.PrintHeader(fmt.Sprintf("Signed in as %s (%s)", snap.User.FullName, snap.User.Email), common.DefaultWidth)
	for i, w := range snap.Wallets {
		fmt.Printf("%s %-6s %s\n", common.BoxPrefix(i == len(snap.Wallets)-1), w.Currency, common.FormatBalance(w))
	}
}
