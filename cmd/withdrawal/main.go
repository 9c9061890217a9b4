package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"exchange-client-go/internal/common"
	"exchange-client-go/internal/config"
	"exchange-client-go/internal/controller"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type withdrawalRequest struct {
	currency string
	amount   decimal.Decimal
}

func parseAndValidateFlags() (*withdrawalRequest, error) {
	currencyFlag := flag.String("currency", "BTC", "Currency to withdraw")
	amountFlag := flag.String("amount", "", "Amount to withdraw (required)")
	flag.Parse()

	if *amountFlag == "" {
		return nil, fmt.Errorf("--amount is required")
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	return &withdrawalRequest{
		currency: strings.ToUpper(*currencyFlag),
		amount:   amount,
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

	snap, err := common.RequireSession(ctx, services)
	if err != nil {
		logger.Fatal("No session", zap.Error(err))
	}

	fmt.Printf("Withdrawing %s %s to %s\n", req.amount.String(), req.currency, snap.User.TelegramWallet)

	ctrl := services.Controller
	ctrl.SetWithdrawDraft(controller.WithdrawDraft{Currency: req.currency, Amount: req.amount.String()})
	if err := ctrl.Withdraw(ctx); err != nil {
		logger.Error("Withdrawal failed", zap.Error(err))
		return
	}

	logger.Info("Withdrawal submitted",
		zap.String("currency", req.currency),
		zap.String("amount", req.amount.String()))
}
