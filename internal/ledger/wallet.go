package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"exchange-client-go/internal/models"

	"github.com/shopspring/decimal"
)

// ExchangeParams describes a conversion. Rate is the client-side quote and is
// sent unrounded.
type ExchangeParams struct {
	FromCurrency string
	ToCurrency   string
	FromAmount   decimal.Decimal
	Rate         decimal.Decimal
}

type ExchangeResult struct {
	ToAmount decimal.Decimal `json:"to_amount"`
}

// WithdrawParams describes a withdrawal to the user's external wallet.
type WithdrawParams struct {
	Currency       string
	Amount         decimal.Decimal
	TelegramWallet string
}

type WithdrawResult struct {
	Message string `json:"message"`
}

type exchangeRequest struct {
	Action       string      `json:"action"`
	UserId       int64       `json:"user_id"`
	FromCurrency string      `json:"from_currency"`
	ToCurrency   string      `json:"to_currency"`
	FromAmount   json.Number `json:"from_amount"`
	Rate         json.Number `json:"rate"`
}

type withdrawRequest struct {
	Action         string      `json:"action"`
	UserId         int64       `json:"user_id"`
	Currency       string      `json:"currency"`
	Amount         json.Number `json:"amount"`
	TelegramWallet string      `json:"telegram_wallet"`
}

// amountText keeps a JSON string or number as its exact text. null decodes to "".
type amountText string

func (a *amountText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountText(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*a = amountText(n.String())
	}
	return nil
}

type wireWallet struct {
	Currency string     `json:"currency"`
	Balance  amountText `json:"balance"`
}

type balanceResponse struct {
	Wallets []wireWallet `json:"wallets"`
}

type wireTransaction struct {
	Id           int64      `json:"id"`
	Type         string     `json:"type"`
	FromCurrency string     `json:"from_currency"`
	ToCurrency   string     `json:"to_currency"`
	FromAmount   amountText `json:"from_amount"`
	ToAmount     amountText `json:"to_amount"`
	Rate         amountText `json:"rate"`
	CreatedAt    string     `json:"created_at"`
	Status       string     `json:"status"`
}

type historyResponse struct {
	Transactions []wireTransaction `json:"transactions"`
}

// Balances fetches every wallet of the session user.
func (c *Client) Balances(ctx context.Context, session models.Session) ([]models.Wallet, error) {
	var resp balanceResponse
	if err := c.send(ctx, "balance", http.MethodGet, c.walletQuery(session, "balance"), session.Token, nil, &resp); err != nil {
		return nil, err
	}

	wallets := make([]models.Wallet, len(resp.Wallets))
	for i, w := range resp.Wallets {
		wallets[i] = models.Wallet{Currency: w.Currency, Balance: string(w.Balance)}
	}
	return wallets, nil
}

// History fetches the transaction history in server order.
func (c *Client) History(ctx context.Context, session models.Session) ([]models.Transaction, error) {
	var resp historyResponse
	if err := c.send(ctx, "history", http.MethodGet, c.walletQuery(session, "history"), session.Token, nil, &resp); err != nil {
		return nil, err
	}

	transactions := make([]models.Transaction, len(resp.Transactions))
	for i, tx := range resp.Transactions {
		transactions[i] = models.Transaction{
			Id:           tx.Id,
			Type:         tx.Type,
			FromCurrency: tx.FromCurrency,
			ToCurrency:   tx.ToCurrency,
			FromAmount:   string(tx.FromAmount),
			ToAmount:     string(tx.ToAmount),
			Rate:         string(tx.Rate),
			CreatedAt:    tx.CreatedAt,
			Status:       tx.Status,
		}
	}
	return transactions, nil
}

// Exchange submits a conversion. The ledger does not return balances; callers
// refetch Balances and History afterwards.
func (c *Client) Exchange(ctx context.Context, session models.Session, params ExchangeParams) (*ExchangeResult, error) {
	var result ExchangeResult
	err := c.send(ctx, "exchange", http.MethodPost, c.walletURL, session.Token, exchangeRequest{
		Action:       "exchange",
		UserId:       session.User.Id,
		FromCurrency: params.FromCurrency,
		ToCurrency:   params.ToCurrency,
		FromAmount:   json.Number(params.FromAmount.String()),
		Rate:         json.Number(params.Rate.String()),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Withdraw submits a withdrawal to params.TelegramWallet.
func (c *Client) Withdraw(ctx context.Context, session models.Session, params WithdrawParams) (*WithdrawResult, error) {
	var result WithdrawResult
	err := c.send(ctx, "withdraw", http.MethodPost, c.walletURL, session.Token, withdrawRequest{
		Action:         "withdraw",
		UserId:         session.User.Id,
		Currency:       params.Currency,
		Amount:         json.Number(params.Amount.String()),
		TelegramWallet: params.TelegramWallet,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// walletQuery builds the GET address; the token never goes into the URL.
func (c *Client) walletQuery(session models.Session, action string) string {
	u, err := url.Parse(c.walletURL)
	if err != nil {
		return fmt.Sprintf("%s?user_id=%d&action=%s", c.walletURL, session.User.Id, url.QueryEscape(action))
	}
	q := u.Query()
	q.Set("user_id", strconv.FormatInt(session.User.Id, 10))
	q.Set("action", action)
	u.RawQuery = q.Encode()
	return u.String()
}
