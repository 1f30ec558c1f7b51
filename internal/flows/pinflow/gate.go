// Package pinflow implements the transaction PIN prompts: the single-use
// verification gate that guards sensitive actions, and the three-step
// wizard that changes the PIN.
package pinflow

import (
	"context"

	"github.com/mini-wallet/mini_wallet/internal/client"
	"github.com/mini-wallet/mini_wallet/internal/flows/digit"
)

// PINSize is the transaction PIN length.
const PINSize = 4

const (
	msgIncomplete = "Please enter your 4-digit PIN"
	msgInvalidPIN = "Invalid PIN. Please try again."
	msgVerifyFail = "PIN verification failed. Please try again."
)

// Verifier checks a candidate PIN against the account.
type Verifier interface {
	VerifyPIN(ctx context.Context, pin string) (bool, error)
}

// Gate is a single-use PIN prompt. It verifies the entered PIN remotely and
// hands the verified value to its callback exactly once; after that, or
// after Close, every input and every in-flight response is ignored.
type Gate struct {
	api        Verifier
	entry      *digit.Entry
	onVerified func(pin string)
	open       bool
	busy       bool
	errMsg     string
}

// NewGate builds an open gate. onVerified receives the PIN that passed
// verification; the gate closes immediately afterwards.
func NewGate(api Verifier, onVerified func(pin string)) *Gate {
	return &Gate{
		api:        api,
		entry:      digit.NewEntry(PINSize),
		onVerified: onVerified,
		open:       true,
	}
}

// Open reports whether the gate still accepts input.
func (g *Gate) Open() bool { return g.open }

// Err returns the message to display, empty when there is none.
func (g *Gate) Err() string { return g.errMsg }

// Entered returns how many digits are currently typed.
func (g *Gate) Entered() int { return g.entry.Len() }

// Press feeds one keypress. Filling the last position submits automatically.
func (g *Gate) Press(ctx context.Context, r rune) {
	if !g.open || g.busy {
		return
	}
	if g.entry.Append(r) && g.entry.Complete() {
		g.Submit(ctx)
	}
}

// Paste accepts pasted input only when it is exactly four digits, in which
// case it fills the buffer and submits. Anything else is ignored.
func (g *Gate) Paste(ctx context.Context, s string) {
	if !g.open || g.busy {
		return
	}
	if g.entry.Paste(s) {
		g.Submit(ctx)
	}
}

// Backspace removes the last typed digit.
func (g *Gate) Backspace() {
	if g.open && !g.busy {
		g.entry.Backspace()
	}
}

// Submit verifies the entered PIN. An incomplete entry never reaches the
// network. A mismatch clears the digits and keeps the gate open for a
// retry.
func (g *Gate) Submit(ctx context.Context) {
	if !g.open || g.busy {
		return
	}
	if !g.entry.Complete() {
		g.errMsg = msgIncomplete
		return
	}

	pin := g.entry.Value()
	g.busy = true
	valid, err := g.api.VerifyPIN(ctx, pin)
	g.busy = false

	if !g.open {
		// Closed while the request was in flight.
		return
	}

	if err != nil {
		g.entry.Clear()
		g.errMsg = client.Message(err, msgVerifyFail)
		return
	}
	if !valid {
		g.entry.Clear()
		g.errMsg = msgInvalidPIN
		return
	}

	g.open = false
	g.errMsg = ""
	g.onVerified(pin)
}

// Close cancels the gate. Any in-flight verification result is dropped.
func (g *Gate) Close() {
	g.open = false
	g.entry.Clear()
	g.errMsg = ""
}
