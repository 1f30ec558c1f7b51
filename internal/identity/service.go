package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const virtualBankName = "Mini Wallet MFB"

var (
	// ErrInvalidCredentials hides whether the identifier or the password
	// was wrong.
	ErrInvalidCredentials = errors.New("invalid email/phone or password")
	// ErrBVNRejected indicates the verification provider declined the BVN.
	ErrBVNRejected = errors.New("BVN verification failed")
)

// BVNProvider represents a connector to an external identity verification
// bureau.
type BVNProvider interface {
	Check(ctx context.Context, bvn, dateOfBirth string) (BVNDecision, error)
}

// BVNDecision captures the provider response for a BVN lookup.
type BVNDecision struct {
	Reference string
	Approved  bool
}

// StaticBVNProvider simulates a bureau that approves every well-formed BVN.
type StaticBVNProvider struct{}

// Check approves the BVN with a synthetic reference.
func (StaticBVNProvider) Check(_ context.Context, _, _ string) (BVNDecision, error) {
	return BVNDecision{Reference: uuid.NewString(), Approved: true}, nil
}

// Service manages identity lifecycle: registration, authentication, the
// transaction PIN, and BVN verification.
type Service struct {
	repo     Repository
	provider BVNProvider
}

// NewService creates a new identity service.
func NewService(repo Repository, provider BVNProvider) *Service {
	if provider == nil {
		provider = StaticBVNProvider{}
	}
	return &Service{repo: repo, provider: provider}
}

// RegisterInput captures data required to open an account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
	PIN       string
}

// Register creates a new unverified user with hashed credentials and a
// provisioned virtual account number.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" {
		return User{}, errors.New("email is required")
	}
	if len(input.Password) < 8 {
		return User{}, errors.New("password must be at least 8 characters")
	}
	if len(input.PIN) != 4 {
		return User{}, errors.New("PIN must be exactly 4 digits")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	pinHash, err := bcrypt.GenerateFromPassword([]byte(input.PIN), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	account, err := virtualAccountNumber()
	if err != nil {
		return User{}, err
	}

	user := User{
		Profile: Profile{
			ID:                   uuid.New().String(),
			FirstName:            input.FirstName,
			LastName:             input.LastName,
			Email:                input.Email,
			Phone:                strings.ReplaceAll(input.Phone, " ", ""),
			VerificationStatus:   StatusUnverified,
			TransactionLimit:     UnverifiedLimit,
			VirtualAccountNumber: account,
			BankName:             virtualBankName,
		},
		PasswordHash: passwordHash,
		PINHash:      pinHash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies a password login. The identifier may be an email
// address or a Nigerian phone number.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.lookup(ctx, creds.Identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Lookup resolves a user by email or phone identifier.
func (s *Service) Lookup(ctx context.Context, identifier string) (User, error) {
	return s.lookup(ctx, identifier)
}

// FindByID resolves a user by account id.
func (s *Service) FindByID(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) lookup(ctx context.Context, identifier string) (User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return s.repo.FindByEmail(ctx, strings.ToLower(identifier))
	}
	return s.repo.FindByPhone(ctx, strings.ReplaceAll(identifier, " ", ""))
}

// VerifyPIN reports whether the submitted transaction PIN matches the
// stored hash. A mismatch is not an error.
func (s *Service) VerifyPIN(ctx context.Context, userID, pin string) (bool, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PINHash, []byte(pin)); err != nil {
		return false, nil
	}
	return true, nil
}

// UpdatePIN replaces the transaction PIN.
func (s *Service) UpdatePIN(ctx context.Context, userID, pin string) error {
	if len(pin) != 4 {
		return errors.New("PIN must be exactly 4 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePINHash(ctx, userID, hash)
}

// VerifyBVN submits the BVN to the verification provider and, on approval,
// upgrades the account to verified with the higher transaction limit.
func (s *Service) VerifyBVN(ctx context.Context, userID, bvn, dateOfBirth string) (User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	decision, err := s.provider.Check(ctx, bvn, dateOfBirth)
	if err != nil {
		return User{}, fmt.Errorf("bvn provider: %w", err)
	}
	if !decision.Approved {
		return User{}, ErrBVNRejected
	}

	if err := s.repo.UpdateVerification(ctx, user.ID, StatusVerified, VerifiedLimit); err != nil {
		return User{}, err
	}

	user.VerificationStatus = StatusVerified
	user.TransactionLimit = VerifiedLimit
	return user, nil
}

// virtualAccountNumber generates a 10-digit NUBAN-style account number.
func virtualAccountNumber() (string, error) {
	max := big.NewInt(1_000_000_00)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("30%08d", n), nil
}
