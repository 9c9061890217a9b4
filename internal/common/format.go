package common

import (
	"fmt"
	"strings"

	"exchange-client-go/internal/controller"
	"exchange-client-go/internal/exchange"
	"exchange-client-go/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

var printer = message.NewPrinter(language.English)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintSeparatorNewline prints a separator with a newline before it
func PrintSeparatorNewline(char string, width int) {
	fmt.Println("\n" + strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// FormatPrice renders a USD price with two decimals and thousands separators.
func FormatPrice(price float64) string {
	return printer.Sprintf("$%.2f", price)
}

// FormatChange renders a 24h change with an explicit sign.
func FormatChange(change float64) string {
	return fmt.Sprintf("%+.2f%%", change)
}

// FormatBalance renders a wallet balance with the display precision.
func FormatBalance(w models.Wallet) string {
	return exchange.FormatAmount(w.Balance)
}

// DescribeTransaction is the one-line summary of a history row.
func DescribeTransaction(tx models.Transaction) string {
	if tx.Type == models.TransactionTypeWithdraw {
		return fmt.Sprintf("Withdraw %s %s", exchange.FormatAmount(tx.FromAmount), tx.FromCurrency)
	}
	return fmt.Sprintf("%s %s → %s %s",
		exchange.FormatAmount(tx.FromAmount), tx.FromCurrency,
		exchange.FormatAmount(tx.ToAmount), tx.ToCurrency)
}

// FormatTimestamp renders created_at for display, falling back to the raw
// server text when it cannot be parsed.
func FormatTimestamp(tx models.Transaction) string {
	if ts, ok := tx.Time(); ok {
		return ts.Format("2006-01-02 15:04:05")
	}
	if tx.CreatedAt == "" {
		return "-"
	}
	return tx.CreatedAt
}

// PrintNotification is the terminal Notifier.
func PrintNotification(n controller.Notification) {
	mark := "✅"
	if n.Kind == controller.KindError {
		mark = "❌"
	}
	fmt.Printf("\n%s %s\n   %s\n", mark, n.Title, n.Message)
}

// ConsoleNotifier prints every notification to stdout.
var ConsoleNotifier = controller.NotifierFunc(PrintNotification)
