package auth

import (
	"context"
	"errors"

	"github.com/mini-wallet/mini_wallet/internal/config"
	"github.com/mini-wallet/mini_wallet/internal/identity"
	"github.com/mini-wallet/mini_wallet/internal/otp"
)

// ErrInvalidOTP indicates the submitted one-time code did not match.
var ErrInvalidOTP = errors.New("OTP verification failed")

// Service orchestrates login: password check, the OTP handshake for
// verified accounts, and session token minting.
type Service struct {
	cfg  config.Config
	ids  *identity.Service
	otps *otp.Service
}

// NewService builds an auth service instance.
func NewService(cfg config.Config, ids *identity.Service, otps *otp.Service) *Service {
	return &Service{cfg: cfg, ids: ids, otps: otps}
}

// LoginOutcome is either a session (Token set) or a pending OTP handshake
// (OTPRequired set); never both.
type LoginOutcome struct {
	OTPRequired bool
	Token       string
	User        identity.User
}

// Login authenticates the credentials. Verified accounts with a phone on
// file get a one-time code instead of an immediate session.
func (s *Service) Login(ctx context.Context, creds identity.Credentials) (LoginOutcome, error) {
	user, err := s.ids.Authenticate(ctx, creds)
	if err != nil {
		return LoginOutcome{}, err
	}

	if user.VerificationStatus == identity.StatusVerified && user.Phone != "" {
		if err := s.otps.Issue(ctx, creds.Identifier); err != nil && !errors.Is(err, otp.ErrCooldown) {
			return LoginOutcome{}, err
		}
		// A live cooldown means a usable code is already out there; the
		// handshake proceeds with that code.
		return LoginOutcome{OTPRequired: true, User: user}, nil
	}

	token, err := s.mint(user.ID)
	if err != nil {
		return LoginOutcome{}, err
	}
	return LoginOutcome{Token: token, User: user}, nil
}

// VerifyOTP completes the OTP handshake and mints a session token.
func (s *Service) VerifyOTP(ctx context.Context, identifier, code string) (string, identity.User, error) {
	ok, err := s.otps.Verify(ctx, identifier, code)
	if err != nil {
		return "", identity.User{}, err
	}
	if !ok {
		return "", identity.User{}, ErrInvalidOTP
	}

	user, err := s.ids.Lookup(ctx, identifier)
	if err != nil {
		return "", identity.User{}, err
	}

	token, err := s.mint(user.ID)
	if err != nil {
		return "", identity.User{}, err
	}
	return token, user, nil
}

// ResendOTP issues a fresh code, subject to the cooldown.
func (s *Service) ResendOTP(ctx context.Context, identifier string) error {
	if _, err := s.ids.Lookup(ctx, identifier); err != nil {
		return err
	}
	return s.otps.Issue(ctx, identifier)
}

// MintFor issues a session token for an already-authenticated user, e.g.
// right after registration.
func (s *Service) MintFor(user identity.User) (string, error) {
	return s.mint(user.ID)
}

func (s *Service) mint(userID string) (string, error) {
	return Mint(userID, []byte(s.cfg.TokenSecret), s.cfg.TokenTTL)
}
