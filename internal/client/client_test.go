package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mini-wallet/mini_wallet/internal/config"
	"github.com/mini-wallet/mini_wallet/internal/logging"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.Handler, token string, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Client{BaseURL: srv.URL, Timeout: 5 * time.Second}
	return New(cfg, staticToken(token), logging.Discard(), opts...)
}

func TestBearerTokenAttached(t *testing.T) {
	var got string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"balance": 10})
	}), "tok-123")

	if _, err := c.Balance(context.Background()); err != nil {
		t.Fatalf("balance: %v", err)
	}
	if got != "Bearer tok-123" {
		t.Fatalf("authorization = %q", got)
	}
}

func TestNoBearerWhenLoggedOut(t *testing.T) {
	var got string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}), "")

	if _, err := c.Login(context.Background(), "ada@example.com", "secret123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got != "" {
		t.Fatalf("authorization = %q", got)
	}
}

func TestIdempotencyKeyOnPostsOnly(t *testing.T) {
	keys := map[string]string{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys[r.Method] = r.Header.Get("Idempotency-Key")
		_ = json.NewEncoder(w).Encode(map[string]any{"balance": 1})
	}), "tok")

	ctx := context.Background()
	if _, err := c.Balance(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := c.Deposit(ctx, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("post: %v", err)
	}

	if keys[http.MethodGet] != "" {
		t.Fatalf("GET carried idempotency key %q", keys[http.MethodGet])
	}
	if keys[http.MethodPost] == "" {
		t.Fatal("POST missing idempotency key")
	}
}

func TestBusinessErrorSurfacesServerMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Insufficient funds"})
	}), "tok")

	_, err := c.Transfer(context.Background(), decimal.NewFromInt(100), "ada@example.com", "1234")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Insufficient funds" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
	if !IsBusiness(err) {
		t.Fatal("IsBusiness = false")
	}
	if got := Message(err, "fallback"); got != "Insufficient funds" {
		t.Fatalf("Message = %q", got)
	}
}

func TestErrorWithoutBodyFallsBackToStatusText(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}), "tok")

	_, err := c.Balance(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.Message != http.StatusText(http.StatusBadGateway) {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

func TestUnauthorizedRunsHookAndReturnsSentinel(t *testing.T) {
	hookRan := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid token"})
	}), "stale", WithUnauthorizedHook(func() { hookRan = true }))

	_, err := c.Balance(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v", err)
	}
	if !hookRan {
		t.Fatal("unauthorized hook did not run")
	}
	if IsBusiness(err) {
		t.Fatal("session expiry must not read as a business error")
	}
}

func TestTransportErrorGetsGenericMessage(t *testing.T) {
	cfg := config.Client{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}
	c := New(cfg, staticToken(""), logging.Discard())

	_, err := c.Balance(context.Background())
	if err == nil {
		t.Fatal("expected connection error")
	}
	if IsBusiness(err) {
		t.Fatal("transport failure must not read as a business error")
	}
	if got := Message(err, "fallback"); got != msgTransport {
		t.Fatalf("Message = %q", got)
	}
}

func TestDecodesWalletOverview(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"balance":              1234.5,
			"currency":             "NGN",
			"virtualAccountNumber": "3012345678",
			"bankName":             "Mini Wallet MFB",
		})
	}), "tok")

	ov, err := c.Wallet(context.Background())
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if !ov.Balance.Equal(decimal.RequireFromString("1234.5")) {
		t.Fatalf("balance = %s", ov.Balance)
	}
	if ov.VirtualAccountNumber != "3012345678" || ov.BankName != "Mini Wallet MFB" {
		t.Fatalf("overview = %+v", ov)
	}
}

func TestTransferPayloadShape(t *testing.T) {
	var payload map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "ok", "recipientEmail": "ada@example.com"})
	}), "tok")

	if _, err := c.Transfer(context.Background(), decimal.RequireFromString("250.75"), "ada@example.com", "1234"); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if payload["recipientEmail"] != "ada@example.com" {
		t.Fatalf("recipientEmail = %v", payload["recipientEmail"])
	}
	if payload["pin"] != "1234" {
		t.Fatalf("pin = %v", payload["pin"])
	}
	if amount, ok := payload["amount"].(float64); !ok || amount != 250.75 {
		t.Fatalf("amount = %v", payload["amount"])
	}
}
