package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mini-wallet/mini_wallet/internal/identity"
	"github.com/mini-wallet/mini_wallet/internal/notification"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

var (
	// ErrSelfTransfer rejects sending funds to the sender's own account.
	ErrSelfTransfer = errors.New("you cannot transfer funds to yourself")
	// ErrUnknownRecipient indicates the recipient email has no account.
	ErrUnknownRecipient = errors.New("recipient is not a registered user")
	// ErrNonPositiveAmount rejects zero or negative amounts.
	ErrNonPositiveAmount = errors.New("amount must be greater than 0")
	// ErrLimitExceeded rejects amounts above the sender's transaction limit.
	ErrLimitExceeded = errors.New("amount exceeds your transaction limit")
)

// Service exposes wallet operations: balance, mock deposits, P2P transfers
// and the paginated statement.
type Service struct {
	repo     Repository
	users    identity.Repository
	notifier notification.Notifier
}

// NewService builds a wallet service instance.
func NewService(repo Repository, users identity.Repository, notifier notification.Notifier) *Service {
	return &Service{repo: repo, users: users, notifier: notifier}
}

// Open provisions the balance account for a new user.
func (s *Service) Open(ctx context.Context, userID string) error {
	return s.repo.EnsureAccount(ctx, userID)
}

// Balance returns the user's current balance.
func (s *Service) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return s.repo.Balance(ctx, userID)
}

// Deposit credits the user's wallet. Deposits are mock funding: there is no
// settlement leg, the balance simply increases.
func (s *Service) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (Transaction, error) {
	if !amount.IsPositive() {
		return Transaction{}, ErrNonPositiveAmount
	}
	return s.repo.Deposit(ctx, userID, amount, "Wallet deposit")
}

// TransferInput captures the data needed to move funds between users.
type TransferInput struct {
	FromUserID     string
	RecipientEmail string
	Amount         decimal.Decimal
}

// TransferResult describes a completed transfer from the sender's side.
type TransferResult struct {
	Record         Transaction
	RecipientEmail string
}

// Transfer moves funds to the user registered under the recipient email.
// The PIN gate happens upstream; by the time this runs the caller has been
// authenticated and PIN-verified.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	if !input.Amount.IsPositive() {
		return TransferResult{}, ErrNonPositiveAmount
	}

	sender, err := s.users.FindByID(ctx, input.FromUserID)
	if err != nil {
		return TransferResult{}, err
	}
	if input.Amount.GreaterThan(decimal.NewFromFloat(sender.TransactionLimit)) {
		return TransferResult{}, ErrLimitExceeded
	}

	recipientEmail := strings.ToLower(strings.TrimSpace(input.RecipientEmail))
	recipient, err := s.users.FindByEmail(ctx, recipientEmail)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return TransferResult{}, ErrUnknownRecipient
		}
		return TransferResult{}, err
	}
	if recipient.ID == sender.ID {
		return TransferResult{}, ErrSelfTransfer
	}

	if err := s.repo.EnsureAccount(ctx, recipient.ID); err != nil {
		return TransferResult{}, err
	}

	debit, err := s.repo.Transfer(ctx, sender.ID, recipient.ID, input.Amount,
		fmt.Sprintf("Transfer to %s", recipient.Email),
		fmt.Sprintf("Transfer from %s", sender.Email))
	if err != nil {
		return TransferResult{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: recipient.Email,
			Body:        fmt.Sprintf("You received %s from %s", input.Amount.String(), sender.Email),
		})
	}

	return TransferResult{Record: debit, RecipientEmail: recipient.Email}, nil
}

// Transactions returns one statement page. Size defaults to 10 and is
// capped; the page is replaced wholesale by callers, never patched.
func (s *Service) Transactions(ctx context.Context, userID string, page, size int) (Page, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return s.repo.Transactions(ctx, userID, page, size)
}
