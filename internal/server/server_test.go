package server

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mini-wallet/mini_wallet/internal/config"
	"github.com/mini-wallet/mini_wallet/internal/logging"
)

func testConfig() config.Config {
	return config.Config{
		AppName:           "mini-wallet-test",
		AppEnv:            "development",
		Port:              "0",
		TokenSecret:       "test-secret",
		TokenTTL:          time.Hour,
		OTPTTL:            5 * time.Minute,
		OTPResendCooldown: time.Minute,
		IdempotencyTTL:    time.Hour,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(testConfig(), nil, nil, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

// call performs one request against the in-process app and decodes the JSON
// response.
func call(t *testing.T, srv *Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := srv.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, decoded
}

func register(t *testing.T, srv *Server, email, phone, pin string) (token string, userID string) {
	t.Helper()
	status, body := call(t, srv, fiber.MethodPost, "/auth/register", "", map[string]string{
		"firstName": "Ada",
		"lastName":  "Obi",
		"email":     email,
		"phone":     phone,
		"password":  "correct-horse",
		"pin":       pin,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("register %s: status %d body %v", email, status, body)
	}
	token, _ = body["token"].(string)
	user, _ := body["user"].(map[string]any)
	userID, _ = user["id"].(string)
	if token == "" || userID == "" {
		t.Fatalf("register %s: incomplete session %v", email, body)
	}
	return token, userID
}

func TestRegisterLoginAndWalletAccess(t *testing.T) {
	srv := newTestServer(t)
	token, _ := register(t, srv, "ada@example.com", "08012345678", "1234")

	// Unverified accounts log straight in, no OTP challenge.
	status, body := call(t, srv, fiber.MethodPost, "/auth/login", "", map[string]string{
		"identifier": "ada@example.com",
		"password":   "correct-horse",
	})
	if status != fiber.StatusOK {
		t.Fatalf("login: status %d body %v", status, body)
	}
	if otpRequired, _ := body["otpRequired"].(bool); otpRequired {
		t.Fatal("unverified login should not require OTP")
	}
	if token, _ := body["token"].(string); token == "" {
		t.Fatal("login token missing")
	}

	status, body = call(t, srv, fiber.MethodGet, "/wallet", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("wallet: status %d body %v", status, body)
	}
	if body["currency"] != "NGN" {
		t.Fatalf("currency = %v", body["currency"])
	}
	acct, _ := body["virtualAccountNumber"].(string)
	bank, _ := body["bankName"].(string)
	if acct == "" || bank == "" {
		t.Fatalf("funding details missing: %v", body)
	}
}

func TestLoginBadPassword(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "ada@example.com", "08012345678", "1234")

	status, body := call(t, srv, fiber.MethodPost, "/auth/login", "", map[string]string{
		"identifier": "ada@example.com",
		"password":   "wrong",
	})
	if status != fiber.StatusUnauthorized {
		t.Fatalf("status = %d", status)
	}
	if msg, _ := body["message"].(string); msg == "" {
		t.Fatalf("error body = %v", body)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	srv := newTestServer(t)

	status, body := call(t, srv, fiber.MethodGet, "/wallet", "", nil)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("status = %d", status)
	}
	if _, ok := body["message"]; !ok {
		t.Fatalf("error shape = %v", body)
	}

	status, _ = call(t, srv, fiber.MethodGet, "/wallet", "not-a-token", nil)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("garbage token status = %d", status)
	}
}

func TestDepositTransferAndStatement(t *testing.T) {
	srv := newTestServer(t)
	sender, _ := register(t, srv, "ada@example.com", "08012345678", "1234")
	register(t, srv, "bola@example.com", "08087654321", "4321")

	status, body := call(t, srv, fiber.MethodPost, "/wallet/deposit", sender, map[string]any{"amount": 10000})
	if status != fiber.StatusOK {
		t.Fatalf("deposit: status %d body %v", status, body)
	}
	if balance, _ := body["balance"].(float64); balance != 10000 {
		t.Fatalf("balance = %v", body["balance"])
	}

	// Wrong PIN blocks the transfer before any funds move.
	status, body = call(t, srv, fiber.MethodPost, "/wallet/transfer", sender, map[string]any{
		"amount": 2500, "recipientEmail": "bola@example.com", "pin": "0000",
	})
	if status != fiber.StatusBadRequest {
		t.Fatalf("wrong pin: status %d body %v", status, body)
	}
	if body["message"] != "Invalid PIN" {
		t.Fatalf("message = %v", body["message"])
	}

	status, body = call(t, srv, fiber.MethodPost, "/wallet/transfer", sender, map[string]any{
		"amount": 2500, "recipientEmail": "bola@example.com", "pin": "1234",
	})
	if status != fiber.StatusOK {
		t.Fatalf("transfer: status %d body %v", status, body)
	}
	if body["recipientEmail"] != "bola@example.com" {
		t.Fatalf("recipient = %v", body["recipientEmail"])
	}

	status, body = call(t, srv, fiber.MethodGet, "/wallet/balance", sender, nil)
	if status != fiber.StatusOK {
		t.Fatalf("balance: status %d", status)
	}
	if balance, _ := body["balance"].(float64); balance != 7500 {
		t.Fatalf("balance = %v", body["balance"])
	}

	status, body = call(t, srv, fiber.MethodGet, "/transactions?page=0&size=10", sender, nil)
	if status != fiber.StatusOK {
		t.Fatalf("transactions: status %d", status)
	}
	content, _ := body["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("statement lines = %d", len(content))
	}
	newest, _ := content[0].(map[string]any)
	if newest["transactionType"] != "DEBIT" {
		t.Fatalf("newest line = %v", newest)
	}
}

func TestPinVerifyAndUpdate(t *testing.T) {
	srv := newTestServer(t)
	token, _ := register(t, srv, "ada@example.com", "08012345678", "1234")

	status, body := call(t, srv, fiber.MethodPost, "/wallet/verify-pin", token, map[string]string{"pin": "0000"})
	if status != fiber.StatusOK {
		t.Fatalf("verify wrong: status %d body %v", status, body)
	}
	if valid, _ := body["valid"].(bool); valid {
		t.Fatal("wrong PIN reported valid")
	}

	status, body = call(t, srv, fiber.MethodPost, "/wallet/update-pin", token, map[string]string{"pin": "5678"})
	if status != fiber.StatusOK {
		t.Fatalf("update: status %d body %v", status, body)
	}

	status, body = call(t, srv, fiber.MethodPost, "/wallet/verify-pin", token, map[string]string{"pin": "5678"})
	if status != fiber.StatusOK {
		t.Fatalf("verify new: status %d", status)
	}
	if valid, _ := body["valid"].(bool); !valid {
		t.Fatal("new PIN rejected")
	}
}

func TestBVNVerificationLiftsLimit(t *testing.T) {
	srv := newTestServer(t)
	token, _ := register(t, srv, "ada@example.com", "08012345678", "1234")

	status, body := call(t, srv, fiber.MethodPost, "/auth/verify-bvn", token, map[string]string{
		"bvn": "123", "dateOfBirth": "1990-01-01",
	})
	if status != fiber.StatusBadRequest {
		t.Fatalf("short bvn: status %d body %v", status, body)
	}

	status, body = call(t, srv, fiber.MethodPost, "/auth/verify-bvn", token, map[string]string{
		"bvn": "12345678901", "dateOfBirth": "1990-01-01",
	})
	if status != fiber.StatusOK {
		t.Fatalf("verify bvn: status %d body %v", status, body)
	}
	if body["verificationStatus"] != "VERIFIED" {
		t.Fatalf("status = %v", body["verificationStatus"])
	}
	if limit, _ := body["transactionLimit"].(float64); limit != 5_000_000 {
		t.Fatalf("limit = %v", body["transactionLimit"])
	}

	// A verified account with a phone now gets the OTP challenge on login.
	status, body = call(t, srv, fiber.MethodPost, "/auth/login", "", map[string]string{
		"identifier": "ada@example.com",
		"password":   "correct-horse",
	})
	if status != fiber.StatusOK {
		t.Fatalf("login: status %d body %v", status, body)
	}
	if otpRequired, _ := body["otpRequired"].(bool); !otpRequired {
		t.Fatal("verified login should require OTP")
	}
	if token, ok := body["token"].(string); ok && token != "" {
		t.Fatal("no token before the OTP handshake completes")
	}
}

func TestHealthAndPing(t *testing.T) {
	srv := newTestServer(t)

	status, body := call(t, srv, fiber.MethodGet, "/healthz", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("healthz: status %d body %v", status, body)
	}

	status, body = call(t, srv, fiber.MethodGet, "/ping", "", nil)
	if status != fiber.StatusOK {
		t.Fatalf("ping: status %d", status)
	}
	if body["status"] != "ok" {
		t.Fatalf("ping body = %v", body)
	}
	if reqID, _ := body["request_id"].(string); reqID == "" {
		t.Fatal("request id missing")
	}
}
