package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mini-wallet/mini_wallet/internal/identity"
)

// LoginResult is the outcome of a credential check. When OTPRequired is set
// the token is absent and the login must be completed with VerifyOTP.
type LoginResult struct {
	OTPRequired bool             `json:"otpRequired"`
	Token       string           `json:"token"`
	User        identity.Profile `json:"user"`
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	PIN       string `json:"pin"`
}

// BVNResult reports the verification outcome and the new transaction limit.
type BVNResult struct {
	Success            bool    `json:"success"`
	VerificationStatus string  `json:"verificationStatus"`
	TransactionLimit   float64 `json:"transactionLimit"`
}

// Overview is the wallet summary shown on the dashboard.
type Overview struct {
	Balance              decimal.Decimal `json:"balance"`
	Currency             string          `json:"currency"`
	VirtualAccountNumber string          `json:"virtualAccountNumber"`
	BankName             string          `json:"bankName"`
}

// TransferOutcome is the server's answer to a transfer request.
type TransferOutcome struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	RecipientEmail string `json:"recipientEmail"`
}

// TransactionRecord is one statement line.
type TransactionRecord struct {
	ID                      string          `json:"id"`
	TransactionType         string          `json:"transactionType"`
	Amount                  decimal.Decimal `json:"amount"`
	BalanceAfterTransaction decimal.Decimal `json:"balanceAfterTransaction"`
	Description             string          `json:"description"`
	Timestamp               string          `json:"timestamp"`
}

// TransactionPage is one page of the statement.
type TransactionPage struct {
	Content       []TransactionRecord `json:"content"`
	Page          int                 `json:"page"`
	TotalPages    int                 `json:"totalPages"`
	TotalElements int                 `json:"totalElements"`
}

// Login exchanges credentials for either a token or an OTP challenge.
func (c *Client) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"identifier": identifier,
		"password":   password,
	}, &out)
	return out, err
}

// Register creates an account and returns an authenticated session.
func (c *Client) Register(ctx context.Context, in RegisterInput) (string, identity.Profile, error) {
	var out struct {
		Token string           `json:"token"`
		User  identity.Profile `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/register", in, &out)
	return out.Token, out.User, err
}

// VerifyOTP completes a two-step login.
func (c *Client) VerifyOTP(ctx context.Context, identifier, otp string) (string, identity.Profile, error) {
	var out struct {
		Token string           `json:"token"`
		User  identity.Profile `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/verify-otp", map[string]string{
		"identifier": identifier,
		"otp":        otp,
	}, &out)
	return out.Token, out.User, err
}

// ResendOTP requests a fresh login code.
func (c *Client) ResendOTP(ctx context.Context, identifier string) error {
	return c.do(ctx, http.MethodPost, "/auth/resend-otp", map[string]string{
		"identifier": identifier,
	}, nil)
}

// VerifyBVN submits identity verification details.
func (c *Client) VerifyBVN(ctx context.Context, bvn, dateOfBirth string) (BVNResult, error) {
	var out BVNResult
	err := c.do(ctx, http.MethodPost, "/auth/verify-bvn", map[string]string{
		"bvn":         bvn,
		"dateOfBirth": dateOfBirth,
	}, &out)
	return out, err
}

// Wallet fetches the dashboard summary.
func (c *Client) Wallet(ctx context.Context) (Overview, error) {
	var out Overview
	err := c.do(ctx, http.MethodGet, "/wallet", nil, &out)
	return out, err
}

// Balance fetches just the current balance.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	var out struct {
		Balance decimal.Decimal `json:"balance"`
	}
	err := c.do(ctx, http.MethodGet, "/wallet/balance", nil, &out)
	return out.Balance, err
}

// Deposit funds the wallet and returns the new balance.
func (c *Client) Deposit(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	var out struct {
		Balance decimal.Decimal `json:"balance"`
	}
	err := c.do(ctx, http.MethodPost, "/wallet/deposit", map[string]any{
		"amount": amount.InexactFloat64(),
	}, &out)
	return out.Balance, err
}

// Transfer sends funds in a single request carrying the amount, recipient
// and PIN together.
func (c *Client) Transfer(ctx context.Context, amount decimal.Decimal, recipientEmail, pin string) (TransferOutcome, error) {
	var out TransferOutcome
	err := c.do(ctx, http.MethodPost, "/wallet/transfer", map[string]any{
		"amount":         amount.InexactFloat64(),
		"recipientEmail": recipientEmail,
		"pin":            pin,
	}, &out)
	return out, err
}

// VerifyPIN checks the PIN without mutating anything. An incorrect PIN is
// reported as (false, nil), not an error.
func (c *Client) VerifyPIN(ctx context.Context, pin string) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	err := c.do(ctx, http.MethodPost, "/wallet/verify-pin", map[string]string{
		"pin": pin,
	}, &out)
	return out.Valid, err
}

// UpdatePIN replaces the transaction PIN.
func (c *Client) UpdatePIN(ctx context.Context, pin string) error {
	return c.do(ctx, http.MethodPost, "/wallet/update-pin", map[string]string{
		"pin": pin,
	}, nil)
}

// HasPIN reports whether a transaction PIN is set.
func (c *Client) HasPIN(ctx context.Context) (bool, error) {
	var out struct {
		HasPIN bool `json:"hasPin"`
	}
	err := c.do(ctx, http.MethodGet, "/wallet/pin-status", nil, &out)
	return out.HasPIN, err
}

// Transactions fetches one page of the statement.
func (c *Client) Transactions(ctx context.Context, page, size int) (TransactionPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	var out TransactionPage
	err := c.do(ctx, http.MethodGet, "/transactions?"+q.Encode(), nil, &out)
	return out, err
}

// AllTransactions fetches the full statement.
func (c *Client) AllTransactions(ctx context.Context) ([]TransactionRecord, error) {
	var out struct {
		Content []TransactionRecord `json:"content"`
	}
	err := c.do(ctx, http.MethodGet, "/transactions/all", nil, &out)
	return out.Content, err
}
