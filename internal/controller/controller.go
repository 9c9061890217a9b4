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

package controller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"exchange-client-go/internal/exchange"
	"exchange-client-go/internal/ledger"
	"exchange-client-go/internal/models"
	"exchange-client-go/internal/rates"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSubmissionInFlight = errors.New("a submission for this form is already in flight")
	ErrInvalidAmount      = errors.New("amount must be a number greater than zero")
	ErrNoQuote            = errors.New("no rate available for currency pair")
	ErrUnknownCurrency    = errors.New("unknown currency")
	ErrUnknownTab         = errors.New("unknown tab")
	ErrClosed             = errors.New("controller closed")
)

// MessageUnreachable is shown for every connectivity failure, whichever
// endpoint was called.
const MessageUnreachable = "Unable to reach the server. Check your connection and try again."

// State is the lifecycle of the view for the current session.
type State int

const (
	StateUnauthenticated State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateLoading:
		return "LOADING"
	case StateReady:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

type Tab string

const (
	TabExchange Tab = "exchange"
	TabWithdraw Tab = "withdraw"
	TabHistory  Tab = "history"
)

// ExchangeDraft is the typed but not yet submitted exchange form.
type ExchangeDraft struct {
	From   string
	To     string
	Amount string
}

// WithdrawDraft is the typed but not yet submitted withdraw form.
type WithdrawDraft struct {
	Currency string
	Amount   string
}

func defaultExchangeDraft() ExchangeDraft { return ExchangeDraft{From: "BTC", To: "USDT"} }
func defaultWithdrawDraft() WithdrawDraft { return WithdrawDraft{Currency: "BTC"} }

// SessionStore is the persistence the controller needs from session.Store.
type SessionStore interface {
	Restore(ctx context.Context) (*models.Session, bool)
	Establish(ctx context.Context, user models.User, token string) error
	Clear(ctx context.Context) error
}

// LedgerAPI is the remote surface used by the controller; *ledger.Client
// implements it.
type LedgerAPI interface {
	Login(ctx context.Context, email, password string) (*ledger.AuthResult, error)
	Register(ctx context.Context, params ledger.RegisterParams) (*ledger.AuthResult, error)
	Balances(ctx context.Context, session models.Session) ([]models.Wallet, error)
	History(ctx context.Context, session models.Session) ([]models.Transaction, error)
	Exchange(ctx context.Context, session models.Session, params ledger.ExchangeParams) (*ledger.ExchangeResult, error)
	Withdraw(ctx context.Context, session models.Session, params ledger.WithdrawParams) (*ledger.WithdrawResult, error)
}

var _ LedgerAPI = (*ledger.Client)(nil)

// Config wires the controller's collaborators.
type Config struct {
	Sessions SessionStore
	Ledger   LedgerAPI
	Rates    *rates.Table
	Notifier Notifier
}

// Snapshot is a read-only copy of the view state.
type Snapshot struct {
	State         State
	User          models.User
	Authenticated bool
	Wallets       []models.Wallet // sorted by currency
	Transactions  []models.Transaction
	ExchangeDraft ExchangeDraft
	WithdrawDraft WithdrawDraft
	Tab           Tab
	ExchangeBusy  bool
	WithdrawBusy  bool
	AuthBusy      bool
}

// Controller owns the view state and is the only place it changes. Every
// public method is one user intent. The mutex is never held across a
// network call.
type Controller struct {
	sessions SessionStore
	ledger   LedgerAPI
	table    *rates.Table
	notifier Notifier

	mu            sync.Mutex
	state         State
	identity      *models.Session // session the wallets and history belong to
	wallets       map[string]models.Wallet
	transactions  []models.Transaction
	exchangeDraft ExchangeDraft
	withdrawDraft WithdrawDraft
	tab           Tab
	authBusy      bool
	exchangeBusy  bool
	withdrawBusy  bool
	closed        bool
}

func New(cfg Config) *Controller {
	table := cfg.Rates
	if table == nil {
		table = rates.Default()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}

	return &Controller{
		sessions:      cfg.Sessions,
		ledger:        cfg.Ledger,
		table:         table,
		notifier:      notifier,
		state:         StateUnauthenticated,
		wallets:       make(map[string]models.Wallet),
		exchangeDraft: defaultExchangeDraft(),
		withdrawDraft: defaultWithdrawDraft(),
		tab:           TabExchange,
	}
}

// Start restores a persisted session and, when one exists, loads wallets and
// history for it.
func (c *Controller) Start(ctx context.Context) State {
	restored, ok := c.sessions.Restore(ctx)
	if !ok {
		zap.L().Info("No saved session, starting signed out")
		return c.State()
	}

	if !c.adopt(*restored) {
		return c.State()
	}
	c.refresh(ctx, *restored)
	return c.State()
}

// Login authenticates, persists the session and loads the account.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	if err := c.beginAuth(); err != nil {
		return err
	}
	defer c.endAuth()

	result, err := c.ledger.Login(ctx, email, password)
	if err != nil {
		zap.L().Warn("Login rejected", zap.String("email", email), zap.Error(err))
		c.notify(failure("Login failed", err))
		return err
	}

	return c.authenticate(ctx, result, "Login failed", Notification{
		Kind:    KindSuccess,
		Title:   "Signed in",
		Message: fmt.Sprintf("Welcome, %s", result.User.FullName),
	})
}

// Register opens an account and signs into it.
func (c *Controller) Register(ctx context.Context, params ledger.RegisterParams) error {
	if err := c.beginAuth(); err != nil {
		return err
	}
	defer c.endAuth()

	result, err := c.ledger.Register(ctx, params)
	if err != nil {
		zap.L().Warn("Registration rejected", zap.String("email", params.Email), zap.Error(err))
		c.notify(failure("Registration failed", err))
		return err
	}

	return c.authenticate(ctx, result, "Registration failed", Notification{
		Kind:    KindSuccess,
		Title:   "Registration complete",
		Message: "Your account has been created",
	})
}

func (c *Controller) beginAuth() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.authBusy {
		return ErrSubmissionInFlight
	}
	c.authBusy = true
	return nil
}

func (c *Controller) endAuth() {
	c.mu.Lock()
	c.authBusy = false
	c.mu.Unlock()
}

func (c *Controller) authenticate(ctx context.Context, result *ledger.AuthResult, failureTitle string, success Notification) error {
	if err := c.sessions.Establish(ctx, result.User, result.Token); err != nil {
		c.notify(Notification{
			Kind:    KindError,
			Title:   failureTitle,
			Message: "Could not save the session on this device",
		})
		return err
	}

	current := models.Session{User: result.User, Token: result.Token}
	if !c.adopt(current) {
		return ErrClosed
	}
	c.notify(success)
	c.refresh(ctx, current)
	return nil
}

// adopt makes s the session shown by the view. A different identity
// discards the previous account's wallets, history and drafts.
func (c *Controller) adopt(s models.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	if c.identity == nil || !c.identity.SameIdentity(s) {
		c.resetViewLocked()
	}
	adopted := s
	c.identity = &adopted
	c.state = StateLoading
	return true
}

// Logout forgets the session everywhere and returns to the signed out state.
func (c *Controller) Logout(ctx context.Context) error {
	clearErr := c.sessions.Clear(ctx)

	c.mu.Lock()
	c.identity = nil
	c.state = StateUnauthenticated
	c.resetViewLocked()
	c.mu.Unlock()

	if clearErr != nil {
		c.notify(Notification{
			Kind:    KindError,
			Title:   "Sign out incomplete",
			Message: "The saved session could not be removed from this device",
		})
		return clearErr
	}

	c.notify(Notification{Kind: KindSuccess, Title: "Signed out", Message: "See you soon!"})
	return nil
}

func (c *Controller) resetViewLocked() {
	c.wallets = make(map[string]models.Wallet)
	c.transactions = nil
	c.exchangeDraft = defaultExchangeDraft()
	c.withdrawDraft = defaultWithdrawDraft()
	c.tab = TabExchange
}

// Refresh reloads wallets and history for the current session.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.identity == nil {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	current := *c.identity
	c.mu.Unlock()

	return c.refresh(ctx, current)
}

// refresh fetches wallets and history concurrently. A failure in one does not
// stop the other; each result replaces its own field wholesale, and only if
// s is still the shown session.
func (c *Controller) refresh(ctx context.Context, s models.Session) error {
	var g errgroup.Group

	g.Go(func() error {
		wallets, err := c.ledger.Balances(ctx, s)
		if err != nil {
			zap.L().Warn("Failed to load wallets", zap.Int64("user_id", s.User.Id), zap.Error(err))
			return fmt.Errorf("load wallets: %w", err)
		}
		c.applyWallets(s, wallets)
		return nil
	})

	g.Go(func() error {
		transactions, err := c.ledger.History(ctx, s)
		if err != nil {
			zap.L().Warn("Failed to load transactions", zap.Int64("user_id", s.User.Id), zap.Error(err))
			return fmt.Errorf("load transactions: %w", err)
		}
		c.applyTransactions(s, transactions)
		return nil
	})

	err := g.Wait()

	c.mu.Lock()
	if c.isShownLocked(s) && c.state == StateLoading {
		c.state = StateReady
	}
	c.mu.Unlock()

	return err
}

func (c *Controller) isShownLocked(s models.Session) bool {
	return !c.closed && c.identity != nil && c.identity.SameIdentity(s)
}

func (c *Controller) applyWallets(s models.Session, wallets []models.Wallet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isShownLocked(s) {
		zap.L().Debug("Discarding wallets for a session no longer shown", zap.Int64("user_id", s.User.Id))
		return
	}
	next := make(map[string]models.Wallet, len(wallets))
	for _, w := range wallets {
		next[w.Currency] = w
	}
	c.wallets = next
}

func (c *Controller) applyTransactions(s models.Session, transactions []models.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isShownLocked(s) {
		zap.L().Debug("Discarding history for a session no longer shown", zap.Int64("user_id", s.User.Id))
		return
	}
	c.transactions = append([]models.Transaction(nil), transactions...)
}

// Exchange submits the exchange draft. On success the amount is cleared and
// wallets and history are refetched; on failure the draft is left as typed.
func (c *Controller) Exchange(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.identity == nil {
		c.mu.Unlock()
		c.notify(Notification{Kind: KindError, Title: "Exchange failed", Message: "Sign in to exchange currencies"})
		return ErrNotAuthenticated
	}
	if c.exchangeBusy {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	current := *c.identity
	draft := c.exchangeDraft

	amount, ok := exchange.ParseAmount(draft.Amount)
	if !ok || !amount.IsPositive() {
		c.mu.Unlock()
		c.notify(Notification{Kind: KindError, Title: "Exchange failed", Message: "Enter an amount greater than zero"})
		return ErrInvalidAmount
	}
	conv, ok := exchange.ComputeConversion(c.table, draft.From, draft.To, draft.Amount)
	if !ok {
		c.mu.Unlock()
		c.notify(Notification{
			Kind:    KindError,
			Title:   "Exchange failed",
			Message: fmt.Sprintf("No rate available for %s to %s", draft.From, draft.To),
		})
		return ErrNoQuote
	}
	c.exchangeBusy = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.exchangeBusy = false
		c.mu.Unlock()
	}()

	zap.L().Info("Submitting exchange",
		zap.Int64("user_id", current.User.Id),
		zap.String("from_currency", draft.From),
		zap.String("to_currency", draft.To),
		zap.String("from_amount", conv.Amount.String()),
		zap.String("rate", conv.Rate.String()))

	result, err := c.ledger.Exchange(ctx, current, ledger.ExchangeParams{
		FromCurrency: draft.From,
		ToCurrency:   draft.To,
		FromAmount:   conv.Amount,
		Rate:         conv.Rate,
	})
	if err != nil {
		zap.L().Warn("Exchange failed", zap.Int64("user_id", current.User.Id), zap.Error(err))
		c.notify(failure("Exchange failed", err))
		return err
	}

	c.mu.Lock()
	shown := c.isShownLocked(current)
	if shown {
		c.exchangeDraft.Amount = ""
	}
	c.mu.Unlock()

	c.notify(Notification{
		Kind:    KindSuccess,
		Title:   "Exchange complete",
		Message: fmt.Sprintf("You received %s %s", exchange.FormatDecimal(result.ToAmount), draft.To),
	})

	// balances only ever come from the ledger
	if shown {
		c.refresh(ctx, current)
	}
	return nil
}

// Withdraw submits the withdraw draft to the user's telegram wallet. Same
// success and failure rules as Exchange.
func (c *Controller) Withdraw(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.identity == nil {
		c.mu.Unlock()
		c.notify(Notification{Kind: KindError, Title: "Withdrawal failed", Message: "Sign in to withdraw funds"})
		return ErrNotAuthenticated
	}
	if c.withdrawBusy {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	current := *c.identity
	draft := c.withdrawDraft

	amount, ok := exchange.ParseAmount(draft.Amount)
	if !ok || !amount.IsPositive() {
		c.mu.Unlock()
		c.notify(Notification{Kind: KindError, Title: "Withdrawal failed", Message: "Enter an amount greater than zero"})
		return ErrInvalidAmount
	}
	if _, known := c.table.Lookup(draft.Currency); !known {
		c.mu.Unlock()
		c.notify(Notification{
			Kind:    KindError,
			Title:   "Withdrawal failed",
			Message: fmt.Sprintf("Unknown currency %s", draft.Currency),
		})
		return ErrUnknownCurrency
	}
	c.withdrawBusy = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.withdrawBusy = false
		c.mu.Unlock()
	}()

	zap.L().Info("Submitting withdrawal",
		zap.Int64("user_id", current.User.Id),
		zap.String("currency", draft.Currency),
		zap.String("amount", amount.String()))

	result, err := c.ledger.Withdraw(ctx, current, ledger.WithdrawParams{
		Currency:       draft.Currency,
		Amount:         amount,
		TelegramWallet: current.User.TelegramWallet,
	})
	if err != nil {
		zap.L().Warn("Withdrawal failed", zap.Int64("user_id", current.User.Id), zap.Error(err))
		c.notify(failure("Withdrawal failed", err))
		return err
	}

	c.mu.Lock()
	shown := c.isShownLocked(current)
	if shown {
		c.withdrawDraft.Amount = ""
	}
	c.mu.Unlock()

	c.notify(Notification{Kind: KindSuccess, Title: "Withdrawal initiated", Message: result.Message})

	if shown {
		c.refresh(ctx, current)
	}
	return nil
}

// SetExchangeDraft replaces the exchange form inputs.
func (c *Controller) SetExchangeDraft(d ExchangeDraft) {
	c.mu.Lock()
	c.exchangeDraft = d
	c.mu.Unlock()
}

// SetWithdrawDraft replaces the withdraw form inputs.
func (c *Controller) SetWithdrawDraft(d WithdrawDraft) {
	c.mu.Lock()
	c.withdrawDraft = d
	c.mu.Unlock()
}

func (c *Controller) SelectTab(t Tab) error {
	switch t {
	case TabExchange, TabWithdraw, TabHistory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTab, t)
	}
	c.mu.Lock()
	c.tab = t
	c.mu.Unlock()
	return nil
}

// Quote is the live conversion preview of the exchange draft.
func (c *Controller) Quote() (exchange.Conversion, bool) {
	c.mu.Lock()
	draft := c.exchangeDraft
	c.mu.Unlock()

	return exchange.ComputeConversion(c.table, draft.From, draft.To, draft.Amount)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:         c.state,
		Wallets:       make([]models.Wallet, 0, len(c.wallets)),
		Transactions:  append([]models.Transaction(nil), c.transactions...),
		ExchangeDraft: c.exchangeDraft,
		WithdrawDraft: c.withdrawDraft,
		Tab:           c.tab,
		ExchangeBusy:  c.exchangeBusy,
		WithdrawBusy:  c.withdrawBusy,
		AuthBusy:      c.authBusy,
	}
	if c.identity != nil {
		snap.User = c.identity.User
		snap.Authenticated = true
	}
	for _, w := range c.wallets {
		snap.Wallets = append(snap.Wallets, w)
	}
	sort.Slice(snap.Wallets, func(i, j int) bool {
		return snap.Wallets[i].Currency < snap.Wallets[j].Currency
	})
	return snap
}

// Close detaches the controller from its view. Requests still in flight
// finish, but their results and notifications are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Controller) notify(n Notification) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	if closed {
		zap.L().Debug("Controller closed, notification dropped", zap.String("title", n.Title))
		return
	}
	c.notifier.Notify(n)
}

// failure maps a ledger error to its notification: server rejections are
// shown verbatim, connectivity problems get the generic message.
func failure(title string, err error) Notification {
	if remote, ok := ledger.AsRemoteError(err); ok {
		return Notification{Kind: KindError, Title: title, Message: remote.Message}
	}
	if ledger.IsUnreachable(err) {
		return Notification{Kind: KindError, Title: "Connection error", Message: MessageUnreachable}
	}
	return Notification{Kind: KindError, Title: title, Message: "The server returned an unexpected response"}
}
