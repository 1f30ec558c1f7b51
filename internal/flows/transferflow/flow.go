// Package transferflow implements the two-phase transfer: local validation
// produces an intent, and the intent is confirmed with a PIN in a single
// request.
package transferflow

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mini-wallet/mini_wallet/internal/client"
	"github.com/mini-wallet/mini_wallet/internal/money"
	"github.com/mini-wallet/mini_wallet/internal/validate"
)

// Client-side amount bounds. The server applies its own per-account limits
// on top of these.
var (
	MinAmount = decimal.NewFromInt(1)
	MaxAmount = decimal.NewFromInt(1_000_000)
)

// ErrIntentConsumed means Confirm was called after the intent was already
// spent; the form must be revalidated first.
var ErrIntentConsumed = errors.New("transfer intent already consumed")

// Intent is a transfer that passed local validation and awaits PIN
// confirmation.
type Intent struct {
	Amount         decimal.Decimal
	RecipientEmail string
}

// FieldErrors carries per-field validation messages. Both fields are
// checked independently so the user sees every problem at once.
type FieldErrors struct {
	Amount    string
	Recipient string
}

// OK reports whether validation passed.
func (fe FieldErrors) OK() bool {
	return fe.Amount == "" && fe.Recipient == ""
}

// Validate checks the form without touching the network. The amount input
// may carry thousands separators.
func Validate(amountInput, recipientEmail string) (Intent, FieldErrors) {
	var fe FieldErrors
	var intent Intent

	if recipientEmail == "" {
		fe.Recipient = "Recipient email is required"
	} else if res := validate.Email(recipientEmail); !res.OK {
		fe.Recipient = "Please enter a valid recipient email"
	} else {
		intent.RecipientEmail = recipientEmail
	}

	switch amount, err := money.Parse(amountInput); {
	case amountInput == "":
		fe.Amount = "Amount is required"
	case err != nil:
		fe.Amount = "Please enter a valid amount"
	case amount.LessThanOrEqual(decimal.Zero):
		fe.Amount = "Amount must be greater than 0"
	case amount.LessThan(MinAmount):
		fe.Amount = "Minimum transfer amount is ₦1"
	case amount.GreaterThan(MaxAmount):
		fe.Amount = "Maximum transfer amount is ₦1,000,000"
	default:
		intent.Amount = amount
	}

	if !fe.OK() {
		return Intent{}, fe
	}
	return intent, fe
}

// Sender is the API surface the flow needs.
type Sender interface {
	Transfer(ctx context.Context, amount decimal.Decimal, recipientEmail, pin string) (client.TransferOutcome, error)
}

// Result is a completed transfer, ready to display.
type Result struct {
	Message        string
	RecipientEmail string
	Amount         decimal.Decimal
}

// Flow holds one validated intent until it is confirmed. The intent is
// consumed by the first Confirm, whether or not the transfer succeeds.
type Flow struct {
	api    Sender
	intent *Intent
}

// NewFlow wraps the API for transfer confirmation.
func NewFlow(api Sender) *Flow {
	return &Flow{api: api}
}

// Begin stores a validated intent, replacing any unconsumed one.
func (f *Flow) Begin(intent Intent) {
	f.intent = &intent
}

// Pending reports whether an intent awaits confirmation.
func (f *Flow) Pending() bool {
	return f.intent != nil
}

// Abandon drops the pending intent without sending anything.
func (f *Flow) Abandon() {
	f.intent = nil
}

// Confirm sends the pending transfer in a single request carrying amount,
// recipient and the verified PIN. The intent is discarded before the
// request goes out, so a failed transfer requires a fresh Begin.
func (f *Flow) Confirm(ctx context.Context, pin string) (Result, error) {
	if f.intent == nil {
		return Result{}, ErrIntentConsumed
	}
	intent := *f.intent
	f.intent = nil

	outcome, err := f.api.Transfer(ctx, intent.Amount, intent.RecipientEmail, pin)
	if err != nil {
		return Result{}, err
	}

	recipient := outcome.RecipientEmail
	if recipient == "" {
		recipient = intent.RecipientEmail
	}
	message := outcome.Message
	if message == "" {
		message = "Transfer successful"
	}
	return Result{Message: message, RecipientEmail: recipient, Amount: intent.Amount}, nil
}
