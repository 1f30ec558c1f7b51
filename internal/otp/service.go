// Package otp issues and verifies the 6-digit one-time codes that gate
// logins for verified accounts. Codes live server-side with a TTL; the
// resend cooldown is enforced here, mirrored by the client countdown.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/mini-wallet/mini_wallet/internal/notification"
)

// ErrCooldown indicates a code was sent too recently to issue another.
var ErrCooldown = errors.New("a code was sent recently, please wait before requesting another")

// Service issues, delivers and verifies one-time codes.
type Service struct {
	store    Store
	notifier notification.Notifier
	ttl      time.Duration
	cooldown time.Duration
}

// NewService constructs an OTP service.
func NewService(store Store, notifier notification.Notifier, ttl, cooldown time.Duration) *Service {
	return &Service{store: store, notifier: notifier, ttl: ttl, cooldown: cooldown}
}

// Issue generates a fresh code for the identifier and hands it to the
// delivery channel. A live cooldown reservation blocks reissue.
func (s *Service) Issue(ctx context.Context, identifier string) error {
	ok, err := s.store.ReserveCooldown(ctx, identifier, s.cooldown)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCooldown
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := s.store.SaveCode(ctx, identifier, code, s.ttl); err != nil {
		return err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindOTPCode,
			Destination: identifier,
			Body:        fmt.Sprintf("Your Mini Wallet login code is %s", code),
		})
	}
	return nil
}

// Verify reports whether the submitted code matches the live one for the
// identifier. A match consumes the code; a mismatch is not an error.
func (s *Service) Verify(ctx context.Context, identifier, code string) (bool, error) {
	stored, err := s.store.LoadCode(ctx, identifier)
	if err != nil {
		return false, err
	}
	if stored == "" || len(stored) != len(code) {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}
	return true, s.store.DeleteCode(ctx, identifier)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}
