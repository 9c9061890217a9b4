package main

import (
	"context"
	"flag"

	"exchange-client-go/internal/common"
	"exchange-client-go/internal/config"
	"exchange-client-go/internal/ledger"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Account email (required)")
	passwordFlag := flag.String("password", "", "Account password (required)")
	nameFlag := flag.String("name", "", "Full name (required)")
	telegramFlag := flag.String("telegram", "", "Telegram wallet that receives withdrawals (optional)")
	flag.Parse()

	if *emailFlag == "" || *passwordFlag == "" || *nameFlag == "" {
		logger.Fatal("Flags are required: --email, --password, --name")
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

	err = services.Controller.Register(ctx, ledger.RegisterParams{
		Email:          *emailFlag,
		Password:       *passwordFlag,
		FullName:       *nameFlag,
		TelegramWallet: *telegramFlag,
	})
	if err != nil {
		logger.Error("Registration failed", zap.Error(err))
		return
	}

	logger.Info("Account created", zap.String("email", *emailFlag))
}
