package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"exchange-client-go/internal/controller"
	"exchange-client-go/internal/database"
	"exchange-client-go/internal/ledger"
	"exchange-client-go/internal/models"
	"exchange-client-go/internal/rates"
	"exchange-client-go/internal/session"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// A missing .env is fine, variables can come from the shell
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService  *database.Service
	Sessions   *session.Store
	Ledger     *ledger.Client
	Rates      *rates.Table
	Controller *controller.Controller
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the session database, builds the ledger client
// and wires the controller. Notifications go to notifier.
func InitializeServices(ctx context.Context, cfg *models.Config, notifier controller.Notifier) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	table, err := loadRates(cfg.RatesFile)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	ledgerClient, err := ledger.NewClient(cfg.Ledger)
	if err != nil {
		dbService.Close()
		return nil, fmt.Errorf("failed to create ledger client: %w", err)
	}

	sessions := session.NewStore(dbService)
	ctrl := controller.New(controller.Config{
		Sessions: sessions,
		Ledger:   ledgerClient,
		Rates:    table,
		Notifier: notifier,
	})

	return &Services{
		DbService:  dbService,
		Sessions:   sessions,
		Ledger:     ledgerClient,
		Rates:      table,
		Controller: ctrl,
	}, nil
}

// InitializeRatesOnly loads the rate table without touching storage or the
// network. Useful for read-only quoting.
func InitializeRatesOnly(cfg *models.Config) (*rates.Table, error) {
	return loadRates(cfg.RatesFile)
}

func loadRates(path string) (*rates.Table, error) {
	if path == "" {
		return rates.Default(), nil
	}
	zap.L().Info("Loading rate table", zap.String("path", path))
	table, err := rates.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load rates: %w", err)
	}
	return table, nil
}

func (cs *Services) Close() {
	if cs.Controller != nil {
		cs.Controller.Close()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
