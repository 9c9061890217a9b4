package rates

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"exchange-client-go/internal/models"

	"gopkg.in/yaml.v2"
)

// Table is an immutable list of quotes, looked up by symbol.
type Table struct {
	quotes []models.CurrencyQuote
	index  map[string]int
}

// Default is the rate table shipped with the client.
func Default() *Table {
	table, _ := New([]models.CurrencyQuote{
		{Symbol: "BTC", Name: "Bitcoin", Price: 43250.80, Change24h: 2.45},
		{Symbol: "ETH", Name: "Ethereum", Price: 2280.50, Change24h: -1.23},
		{Symbol: "USDT", Name: "Tether", Price: 1.00, Change24h: 0.01},
		{Symbol: "BNB", Name: "Binance Coin", Price: 315.75, Change24h: 3.12},
		{Symbol: "XRP", Name: "Ripple", Price: 0.52, Change24h: -0.87},
	})
	return table
}

// New validates the quotes and builds a table. Symbols must be unique and
// prices strictly positive.
func New(quotes []models.CurrencyQuote) (*Table, error) {
	if len(quotes) == 0 {
		return nil, fmt.Errorf("rate table is empty")
	}

	t := &Table{
		quotes: make([]models.CurrencyQuote, len(quotes)),
		index:  make(map[string]int, len(quotes)),
	}
	for i, q := range quotes {
		if q.Symbol == "" {
			return nil, fmt.Errorf("quote at index %d missing symbol", i)
		}
		if q.Price <= 0 {
			return nil, fmt.Errorf("quote %s has non-positive price %v", q.Symbol, q.Price)
		}
		if _, dup := t.index[q.Symbol]; dup {
			return nil, fmt.Errorf("duplicate quote for %s", q.Symbol)
		}
		t.quotes[i] = q
		t.index[q.Symbol] = i
	}
	return t, nil
}

// Lookup returns the quote for symbol.
func (t *Table) Lookup(symbol string) (models.CurrencyQuote, bool) {
	i, ok := t.index[symbol]
	if !ok {
		return models.CurrencyQuote{}, false
	}
	return t.quotes[i], true
}

// Quotes returns a copy of the table in its configured order.
func (t *Table) Quotes() []models.CurrencyQuote {
	out := make([]models.CurrencyQuote, len(t.quotes))
	copy(out, t.quotes)
	return out
}

// Symbols returns the symbols in table order.
func (t *Table) Symbols() []string {
	out := make([]string, len(t.quotes))
	for i, q := range t.quotes {
		out[i] = q.Symbol
	}
	return out
}

type ratesFile struct {
	Rates []models.CurrencyQuote `yaml:"rates"`
}

// LoadFile reads a YAML rate table:
//
//	rates:
//	  - symbol: BTC
//	    name: Bitcoin
//	    price: 43250.80
//	    change24h: 2.45
func LoadFile(ratesFilePath string) (*Table, error) {
	path := ratesFilePath
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", ratesFilePath, err)
	}

	var parsed ratesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", ratesFilePath, err)
	}

	for i := range parsed.Rates {
		parsed.Rates[i].Symbol = strings.ToUpper(strings.TrimSpace(parsed.Rates[i].Symbol))
	}

	table, err := New(parsed.Rates)
	if err != nil {
		return nil, fmt.Errorf("invalid rate table %s: %w", ratesFilePath, err)
	}
	return table, nil
}
