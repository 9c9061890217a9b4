package ledger

import (
	"context"
	"fmt"
	"net/http"

	"exchange-client-go/internal/models"
)

// AuthResult is a successful login or registration.
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// RegisterParams are the fields required to open an account.
type RegisterParams struct {
	Email          string
	Password       string
	FullName       string
	TelegramWallet string
}

type loginRequest struct {
	Action   string `json:"action"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Action         string `json:"action"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	TelegramWallet string `json:"telegram_wallet"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	err := c.send(ctx, "login", http.MethodPost, c.authURL, "", loginRequest{
		Action:   "login",
		Email:    email,
		Password: password,
	}, &result)
	if err != nil {
		return nil, err
	}
	if err := result.validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	var result AuthResult
	err := c.send(ctx, "register", http.MethodPost, c.authURL, "", registerRequest{
		Action:         "register",
		Email:          params.Email,
		Password:       params.Password,
		FullName:       params.FullName,
		TelegramWallet: params.TelegramWallet,
	}, &result)
	if err != nil {
		return nil, err
	}
	if err := result.validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *AuthResult) validate() error {
	if r.Token == "" || r.User.Id <= 0 {
		return fmt.Errorf("%w: auth response without token or user id", ErrMalformedResponse)
	}
	return nil
}
