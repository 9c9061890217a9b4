package models

import "time"

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Ledger    LedgerConfig
	RatesFile string
}

// DatabaseConfig holds settings for the local session database
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// LedgerConfig holds the remote endpoint settings
type LedgerConfig struct {
	AuthURL     string
	WalletURL   string
	HttpTimeout time.Duration
	RateLimit   float64 // requests per second, 0 disables throttling
	RateBurst   int
}
