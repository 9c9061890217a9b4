package main

import (
	"context"
	"fmt"

	"exchange-client-go/internal/common"
	"exchange-client-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

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

	common.PrintHeader("TRANSACTION HISTORY", common.WideWidth)
	if len(snap.Transactions) == 0 {
		fmt.Println("No transactions yet")
	}
	for i, tx := range snap.Transactions {
		fmt.Printf("%s %-19s  %-60s %s\n",
			common.BoxPrefix(i == len(snap.Transactions)-1),
			common.FormatTimestamp(tx),
			common.DescribeTransaction(tx),
			tx.Status)
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d transactions", len(snap.Transactions)), common.WideWidth)
}
