package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"exchange-client-go/internal/models"

	"github.com/shopspring/decimal"
)

// MockRoundTripper allows us to mock transport failures
type MockRoundTripper struct {
	Func func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Func(req)
}

var testSession = models.Session{
	User:  models.User{Id: 7, Email: "a@b.com", FullName: "Ann Bee", TelegramWallet: "@ann"},
	Token: "t1",
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClientWithHttp(models.LedgerConfig{
		AuthURL:   server.URL + "/auth",
		WalletURL: server.URL + "/wallet",
	}, server.Client())
	if err != nil {
		t.Fatalf("NewClientWithHttp failed: %v", err)
	}
	return client
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&body); err != nil {
		t.Fatalf("Failed to decode request body: %v", err)
	}
	return body
}

func TestLogin_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %s", ct)
		}
		if r.Header.Get(headerRequestId) == "" {
			t.Error("Expected request id header")
		}
		body := decodeBody(t, r)
		if body["action"] != "login" || body["email"] != "a@b.com" || body["password"] != "x" {
			t.Errorf("Unexpected login body %v", body)
		}
		w.Write([]byte(`{"token":"t1","user":{"id":1,"email":"a@b.com","full_name":"Ann Bee","telegram_wallet":"@ann"}}`))
	})

	result, err := client.Login(context.Background(), "a@b.com", "x")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.Token != "t1" || result.User.Id != 1 || result.User.FullName != "Ann Bee" {
		t.Errorf("Unexpected auth result %+v", result)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid credentials"}`))
	})

	_, err := client.Login(context.Background(), "a@b.com", "wrong")
	remote, ok := AsRemoteError(err)
	if !ok {
		t.Fatalf("Expected RemoteError, got %v", err)
	}
	if remote.Status != http.StatusUnauthorized || remote.Message != "Invalid credentials" {
		t.Errorf("Unexpected remote error %+v", remote)
	}
	if IsUnreachable(err) {
		t.Error("Rejected login must not be classified as unreachable")
	}
}

func TestRegister_SendsAllFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		want := map[string]any{
			"action":          "register",
			"email":           "a@b.com",
			"password":        "x",
			"full_name":       "Ann Bee",
			"telegram_wallet": "",
		}
		for k, v := range want {
			if body[k] != v {
				t.Errorf("field %s: expected %v, got %v", k, v, body[k])
			}
		}
		w.Write([]byte(`{"token":"t2","user":{"id":2,"email":"a@b.com","full_name":"Ann Bee","telegram_wallet":""}}`))
	})

	result, err := client.Register(context.Background(), RegisterParams{Email: "a@b.com", Password: "x", FullName: "Ann Bee"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if result.Token != "t2" || result.User.Id != 2 {
		t.Errorf("Unexpected auth result %+v", result)
	}
}

func TestLogin_ResponseWithoutToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"id":1}}`))
	})

	_, err := client.Login(context.Background(), "a@b.com", "x")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse, got %v", err)
	}
}

func TestBalances_TokenInHeaderOnly(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		if got := r.Header.Get(headerUserToken); got != "t1" {
			t.Errorf("Expected token header t1, got %q", got)
		}
		if strings.Contains(r.URL.RawQuery, "t1") {
			t.Errorf("Token leaked into query: %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("user_id") != "7" || r.URL.Query().Get("action") != "balance" {
			t.Errorf("Unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"wallets":[{"currency":"BTC","balance":"1.23456789012"},{"currency":"ETH","balance":0.5},{"currency":"XRP","balance":"0E-8"}]}`))
	})

	wallets, err := client.Balances(context.Background(), testSession)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}

	want := []models.Wallet{
		{Currency: "BTC", Balance: "1.23456789012"},
		{Currency: "ETH", Balance: "0.5"},
		{Currency: "XRP", Balance: "0E-8"},
	}
	if len(wallets) != len(want) {
		t.Fatalf("Expected %d wallets, got %d", len(want), len(wallets))
	}
	for i := range want {
		if wallets[i] != want[i] {
			t.Errorf("wallet %d: expected %+v, got %+v", i, want[i], wallets[i])
		}
	}
}

func TestHistory_DecodesWithdrawRows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != "history" {
			t.Errorf("Expected history action, got %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"transactions":[
			{"id":2,"type":"withdraw","from_currency":"BTC","to_currency":null,"from_amount":"0.10000000","to_amount":null,"rate":null,"created_at":"2024-03-01 10:00:00.123456","status":"completed"},
			{"id":1,"type":"exchange","from_currency":"BTC","to_currency":"USDT","from_amount":"0.5","to_amount":"0.00001156","rate":"0.00002312","created_at":"2024-03-01 09:00:00","status":"completed"}
		]}`))
	})

	txs, err := client.History(context.Background(), testSession)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(txs))
	}
	if txs[0].Id != 2 || txs[0].Type != models.TransactionTypeWithdraw || txs[0].ToCurrency != "" || txs[0].ToAmount != "" {
		t.Errorf("Unexpected withdraw row %+v", txs[0])
	}
	if txs[1].Rate != "0.00002312" || txs[1].ToCurrency != "USDT" {
		t.Errorf("Unexpected exchange row %+v", txs[1])
	}
	if _, ok := txs[0].Time(); !ok {
		t.Errorf("Expected created_at %q to parse", txs[0].CreatedAt)
	}
}

func TestExchange_SendsExactDecimals(t *testing.T) {
	rate := decimal.NewFromInt(1).DivRound(decimal.RequireFromString("43250.8"), 32)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/wallet" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(headerUserToken) != "t1" {
			t.Errorf("Expected token header, got %q", r.Header.Get(headerUserToken))
		}
		body := decodeBody(t, r)
		if body["action"] != "exchange" || body["from_currency"] != "BTC" || body["to_currency"] != "USDT" {
			t.Errorf("Unexpected exchange body %v", body)
		}
		if body["user_id"] != json.Number("7") {
			t.Errorf("Expected user_id 7, got %v", body["user_id"])
		}
		if body["from_amount"] != json.Number("0.5") {
			t.Errorf("Expected from_amount 0.5 as a number, got %v", body["from_amount"])
		}
		if body["rate"] != json.Number(rate.String()) {
			t.Errorf("Expected rate %s, got %v", rate, body["rate"])
		}
		w.Write([]byte(`{"success":true,"transaction_id":11,"to_amount":1.1560438373e-05}`))
	})

	result, err := client.Exchange(context.Background(), testSession, ExchangeParams{
		FromCurrency: "BTC",
		ToCurrency:   "USDT",
		FromAmount:   decimal.RequireFromString("0.5"),
		Rate:         rate,
	})
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if !result.ToAmount.Equal(decimal.RequireFromString("0.000011560438373")) {
		t.Errorf("Unexpected to_amount %s", result.ToAmount)
	}
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if body["action"] != "withdraw" || body["currency"] != "BTC" || body["telegram_wallet"] != "@ann" {
			t.Errorf("Unexpected withdraw body %v", body)
		}
		if body["amount"] != json.Number("2") {
			t.Errorf("Expected amount 2, got %v", body["amount"])
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"insufficient balance"}`))
	})

	_, err := client.Withdraw(context.Background(), testSession, WithdrawParams{
		Currency:       "BTC",
		Amount:         decimal.NewFromInt(2),
		TelegramWallet: "@ann",
	})
	remote, ok := AsRemoteError(err)
	if !ok {
		t.Fatalf("Expected RemoteError, got %v", err)
	}
	if remote.Message != "insufficient balance" || remote.Status != http.StatusBadRequest {
		t.Errorf("Unexpected remote error %+v", remote)
	}
}

func TestWithdraw_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"transaction_id":3,"message":"Withdrawal to @ann initiated"}`))
	})

	result, err := client.Withdraw(context.Background(), testSession, WithdrawParams{
		Currency:       "ETH",
		Amount:         decimal.RequireFromString("0.25"),
		TelegramWallet: "@ann",
	})
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if result.Message != "Withdrawal to @ann initiated" {
		t.Errorf("Unexpected message %q", result.Message)
	}
}

func TestRemoteError_WithoutErrorField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<html>oops</html>`))
	})

	_, err := client.Balances(context.Background(), testSession)
	remote, ok := AsRemoteError(err)
	if !ok {
		t.Fatalf("Expected RemoteError, got %v", err)
	}
	if remote.Message != "Internal Server Error" {
		t.Errorf("Expected status text fallback, got %q", remote.Message)
	}
}

func TestMalformedSuccessBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"wallets":`))
	})

	_, err := client.Balances(context.Background(), testSession)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse, got %v", err)
	}
	if IsUnreachable(err) {
		t.Error("Malformed body must not be classified as unreachable")
	}
}

func TestUnreachable_TransportFailure(t *testing.T) {
	dialErr := errors.New("dial tcp: connection refused")
	httpClient := &http.Client{Transport: &MockRoundTripper{
		Func: func(req *http.Request) (*http.Response, error) {
			return nil, dialErr
		},
	}}
	client, err := NewClientWithHttp(models.LedgerConfig{AuthURL: "http://auth.invalid", WalletURL: "http://wallet.invalid"}, httpClient)
	if err != nil {
		t.Fatalf("NewClientWithHttp failed: %v", err)
	}

	_, err = client.Login(context.Background(), "a@b.com", "x")
	if !IsUnreachable(err) {
		t.Fatalf("Expected unreachable error, got %v", err)
	}
	if !errors.Is(err, dialErr) {
		t.Errorf("Expected underlying transport error to be preserved, got %v", err)
	}
	if _, ok := AsRemoteError(err); ok {
		t.Error("Transport failure must not be a RemoteError")
	}
}

func TestUnreachable_BrokenBody(t *testing.T) {
	httpClient := &http.Client{Transport: &MockRoundTripper{
		Func: func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: 200,
				Body:       io.NopCloser(&failingReader{}),
				Header:     make(http.Header),
			}, nil
		},
	}}
	client, _ := NewClientWithHttp(models.LedgerConfig{AuthURL: "http://auth.invalid", WalletURL: "http://wallet.invalid"}, httpClient)

	_, err := client.History(context.Background(), testSession)
	if !IsUnreachable(err) {
		t.Errorf("Expected unreachable error, got %v", err)
	}
}

type failingReader struct{}

func (f *failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestUnreachable_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	httpClient := server.Client()
	httpClient.Timeout = 50 * time.Millisecond
	client, _ := NewClientWithHttp(models.LedgerConfig{AuthURL: server.URL, WalletURL: server.URL}, httpClient)

	_, err := client.Balances(context.Background(), testSession)
	if !IsUnreachable(err) {
		t.Errorf("Expected timeout to be unreachable, got %v", err)
	}
}

func TestThrottle_CanceledContext(t *testing.T) {
	client, err := NewClientWithHttp(models.LedgerConfig{
		AuthURL:   "http://auth.invalid",
		WalletURL: "http://wallet.invalid",
		RateLimit: 0.001,
		RateBurst: 1,
	}, &http.Client{Transport: &MockRoundTripper{
		Func: func(req *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(`{"wallets":[]}`)), Header: make(http.Header)}, nil
		},
	}})
	if err != nil {
		t.Fatalf("NewClientWithHttp failed: %v", err)
	}

	if _, err := client.Balances(context.Background(), testSession); err != nil {
		t.Fatalf("First request should use the burst token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.Balances(ctx, testSession); !IsUnreachable(err) {
		t.Errorf("Expected throttled request to fail as unreachable, got %v", err)
	}
}

func TestNewClient_RequiresEndpoints(t *testing.T) {
	if _, err := NewClient(models.LedgerConfig{WalletURL: "http://wallet"}); err == nil {
		t.Error("Expected error without auth URL")
	}
}
