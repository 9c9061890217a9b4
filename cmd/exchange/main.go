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
	"strings"

	"exchange-client-go/internal/common"
	"exchange-client-go/internal/config"
	"exchange-client-go/internal/controller"

	"go.uber.org/zap"
)

type exchangeRequest struct {
	from   string
	to     string
	amount string
}

func parseAndValidateFlags() (*exchangeRequest, error) {
	fromFlag := flag.String("from", "BTC", "Currency to sell")
	toFlag := flag.String("to", "USDT", "Currency to buy")
	amountFlag := flag.String("amount", "", "Amount of --from to sell (required)")
	flag.Parse()

	if *amountFlag == "" {
		return nil, fmt.Errorf("--amount is required")
	}

	return &exchangeRequest{
		from:   strings.ToUpper(*fromFlag),
		to:     strings.ToUpper(*toFlag),
		amount: *amountFlag,
	}, nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		logger.Fatal("Invalid flags", zap.Error(err))
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

	if _, err := common.RequireSession(ctx, services); err != nil {
		logger.Fatal("No session", zap.Error(err))
	}

	ctrl := services.Controller
	ctrl.SetExchangeDraft(controller.ExchangeDraft{From: req.from, To: req.to, Amount: req.amount})

	if conv, ok := ctrl.Quote(); ok {
		fmt.Printf("Quote: %s %s → %s %s\n", req.amount, req.from, conv.Display(), req.to)
	}

	if err := ctrl.Exchange(ctx); err != nil {
		logger.Error("Exchange failed", zap.Error(err))
		return
	}

	for _, w := range ctrl.Snapshot().Wallets {
		if w.Currency == req.from || w.Currency == req.to {
			fmt.Printf("   %-6s %s\n", w.Currency, common.FormatBalance(w))
		}
	}
}
