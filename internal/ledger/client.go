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

package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"exchange-client-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/time/rate"
)

const (
	headerUserToken = "X-User-Token"
	headerRequestId = "X-Request-Id"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// Client talks to the auth and wallet endpoints. Each call is one request with
// one terminal outcome: a decoded value, a *RemoteError, or an error wrapping
// ErrUnreachable.
type Client struct {
	authURL    string
	walletURL  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg models.LedgerConfig) (*Client, error) {
	httpClient, err := createCustomHttpClient(cfg.HttpTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}
	return NewClientWithHttp(cfg, httpClient)
}

// NewClientWithHttp builds a client on a caller-supplied http.Client.
func NewClientWithHttp(cfg models.LedgerConfig, httpClient *http.Client) (*Client, error) {
	if cfg.AuthURL == "" || cfg.WalletURL == "" {
		return nil, fmt.Errorf("ledger config requires AuthURL and WalletURL")
	}

	c := &Client{
		authURL:    cfg.AuthURL,
		walletURL:  cfg.WalletURL,
		httpClient: httpClient,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

func createCustomHttpClient(timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   10 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   4,
		ExpectContinueTimeout: 2 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// send performs one request and decodes a 2xx body into out.
func (c *Client) send(ctx context.Context, action, method, target, token string, body any, out any) error {
	requestId := uuid.New().String()
	logger := zap.L().With(
		zap.String("action", action),
		zap.String("request_id", requestId))

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			logger.Warn("Ledger request throttled out", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrUnreachable, err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("unable to encode %s request: %w", action, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("unable to build %s request: %w", action, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestId, requestId)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(headerUserToken, token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("Ledger request failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Debug("Failed to close response body", zap.Error(err))
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		logger.Warn("Failed to read ledger response", zap.Int("status", resp.StatusCode), zap.Error(err))
		return fmt.Errorf("%w: reading response: %w", ErrUnreachable, err)
	}

	logger.Debug("Ledger response received",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteErrorFrom(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Error("Undecodable ledger response", zap.Int("status", resp.StatusCode), zap.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, action, err)
	}
	return nil
}

func remoteErrorFrom(status int, data []byte) *RemoteError {
	var parsed errorResponse
	_ = json.Unmarshal(data, &parsed)

	message := strings.TrimSpace(parsed.Error)
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &RemoteError{Status: status, Message: message}
}
