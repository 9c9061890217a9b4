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

package exchange

import (
	"strings"

	"exchange-client-go/internal/rates"

	"github.com/shopspring/decimal"
)

const (
	// MaxAmountLength bounds user-typed amount text.
	MaxAmountLength = 40

	// maxLedgerExponent bounds exponents accepted in ledger amounts such as "0E-8".
	maxLedgerExponent = 64

	// RatePrecision is the number of fraction digits kept when dividing prices.
	RatePrecision = 32
	// DisplayPrecision is applied only when rendering amounts.
	DisplayPrecision = 8
)

// Conversion is a quote for converting Amount of From into To.
type Conversion struct {
	From      string
	To        string
	Rate      decimal.Decimal
	Amount    decimal.Decimal
	ToAmount  decimal.Decimal
	HasAmount bool // false when the amount text was empty or not numeric
}

// Display returns the destination amount with 8 fraction digits, or "" when
// there is no amount to show.
func (c Conversion) Display() string {
	if !c.HasAmount {
		return ""
	}
	return FormatDecimal(c.ToAmount)
}

// Rate returns price(to) / price(from). ok is false when either symbol is not
// in the table.
func Rate(table *rates.Table, from, to string) (decimal.Decimal, bool) {
	fromQuote, ok := table.Lookup(from)
	if !ok {
		return decimal.Zero, false
	}
	toQuote, ok := table.Lookup(to)
	if !ok {
		return decimal.Zero, false
	}
	if from == to {
		return decimal.NewFromInt(1), true
	}

	fromPrice := decimal.NewFromFloat(fromQuote.Price)
	toPrice := decimal.NewFromFloat(toQuote.Price)
	return toPrice.DivRound(fromPrice, RatePrecision), true
}

// ComputeConversion quotes amountText of from in units of to. The result is
// unrounded; callers submit Rate and Amount as-is.
func ComputeConversion(table *rates.Table, from, to, amountText string) (Conversion, bool) {
	rate, ok := Rate(table, from, to)
	if !ok {
		return Conversion{}, false
	}

	conv := Conversion{From: from, To: to, Rate: rate}
	amount, ok := ParseAmount(amountText)
	if !ok {
		return conv, true
	}

	conv.Amount = amount
	conv.ToAmount = amount.Mul(rate)
	conv.HasAmount = true
	return conv, true
}

// ParseAmount parses user-typed amount text. Empty, non-numeric, overlong or
// exponent notation text is reported as not ok.
func ParseAmount(text string) (decimal.Decimal, bool) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > MaxAmountLength || strings.ContainsAny(text, "eE") {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// FormatDecimal renders d with the display precision.
func FormatDecimal(d decimal.Decimal) string {
	return d.StringFixed(DisplayPrecision)
}

// FormatAmount renders a decimal string from the ledger with the display
// precision. Text that is not a number is returned unchanged.
func FormatAmount(text string) string {
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil || amount.Exponent() < -maxLedgerExponent || amount.Exponent() > maxLedgerExponent {
		return text
	}
	return FormatDecimal(amount)
}
