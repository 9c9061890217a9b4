package models

import (
	"strings"
	"time"
)

// Wallet is a per-currency balance as reported by the ledger. Balance is kept
// as the exact decimal text sent by the server.
type Wallet struct {
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

const (
	TransactionTypeExchange = "exchange"
	TransactionTypeWithdraw = "withdraw"
)

// Transaction represents one entry of the server-ordered history (newest first)
type Transaction struct {
	Id           int64  `json:"id"`
	Type         string `json:"type"`
	FromCurrency string `json:"from_currency"`
	ToCurrency   string `json:"to_currency"`
	FromAmount   string `json:"from_amount"`
	ToAmount     string `json:"to_amount"`
	Rate         string `json:"rate"`
	CreatedAt    string `json:"created_at"`
	Status       string `json:"status"`
}

var transactionTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// Time parses CreatedAt. The ledger emits either RFC 3339 or a space separated
// timestamp with optional fraction and offset.
func (t Transaction) Time() (time.Time, bool) {
	raw := strings.TrimSpace(t.CreatedAt)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range transactionTimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// CurrencyQuote is one row of the static rate table
type CurrencyQuote struct {
	Symbol    string  `yaml:"symbol"`
	Name      string  `yaml:"name"`
	Price     float64 `yaml:"price"`
	Change24h float64 `yaml:"change24h"`
}
