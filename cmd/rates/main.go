package main

import (
	"flag"
	"fmt"

	"exchange-client-go/internal/common"
	"exchange-client-go/internal/config"
	"exchange-client-go/internal/exchange"

	"go.uber.org/zap"
)

func main() {
	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	fromFlag := flag.String("from", "", "Quote a conversion from this currency (optional)")
	toFlag := flag.String("to", "", "Quote a conversion to this currency (optional)")
	amountFlag := flag.String("amount", "", "Amount to quote (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	table, err := common.InitializeRatesOnly(cfg)
	if err != nil {
		logger.Fatal("Failed to load rates", zap.Error(err))
	}

	common.PrintHeader("CRYPTOCURRENCY RATES", common.DefaultWidth)
	quotes := table.Quotes()
	for i, q := range quotes {
		fmt.Printf("%s %-5s %-10s %15s %8s\n",
			common.BoxPrefix(i == len(quotes)-1),
			q.Symbol,
			q.Name,
			common.FormatPrice(q.Price),
			common.FormatChange(q.Change24h))
	}

	if *fromFlag == "" || *toFlag == "" {
		return
	}

	conv, ok := exchange.ComputeConversion(table, *fromFlag, *toFlag, *amountFlag)
	if !ok {
		logger.Fatal("Cannot quote currency pair",
			zap.String("from", *fromFlag),
			zap.String("to", *toFlag))
	}

	common.PrintFooter(fmt.Sprintf("1 %s = %s %s   you receive: %s %s",
		*fromFlag, exchange.FormatDecimal(conv.Rate), *toFlag, conv.Display(), *toFlag), common.DefaultWidth)
}
