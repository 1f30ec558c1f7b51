package pinflow

import (
	"context"
	"errors"

	"github.com/mini-wallet/mini_wallet/internal/client"
	"github.com/mini-wallet/mini_wallet/internal/flows/digit"
)

// Sentinel outcomes of a wizard step.
var (
	ErrInvalidCurrentPIN = errors.New("current PIN is incorrect")
	ErrPINMismatch       = errors.New("new PIN and confirmation do not match")
	ErrPINUnchanged      = errors.New("new PIN must differ from the current PIN")
)

// Step identifies which input the wizard is waiting for.
type Step int

const (
	StepCurrent Step = iota + 1
	StepNew
	StepConfirm
)

// String names the step for prompts and logs.
func (s Step) String() string {
	switch s {
	case StepCurrent:
		return "current"
	case StepNew:
		return "new"
	case StepConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

// Each wizard state carries exactly the data its step has legitimately
// collected, so stale values from abandoned steps cannot leak forward.
type wizardState interface {
	step() Step
}

type awaitingCurrent struct{}

type awaitingNew struct {
	current string
}

type awaitingConfirm struct {
	current string
	next    string
}

func (awaitingCurrent) step() Step { return StepCurrent }
func (awaitingNew) step() Step     { return StepNew }
func (awaitingConfirm) step() Step { return StepConfirm }

// Updater is the API surface the wizard needs.
type Updater interface {
	VerifyPIN(ctx context.Context, pin string) (bool, error)
	UpdatePIN(ctx context.Context, pin string) error
}

// Wizard drives the PIN change: verify the current PIN remotely, collect a
// new PIN, confirm it, then issue a single update request carrying only the
// new PIN.
type Wizard struct {
	api    Updater
	state  wizardState
	entry  *digit.Entry
	errMsg string
	done   bool
	busy   bool
}

// NewWizard starts at the current-PIN step.
func NewWizard(api Updater) *Wizard {
	return &Wizard{
		api:   api,
		state: awaitingCurrent{},
		entry: digit.NewEntry(PINSize),
	}
}

// Step returns the step currently awaiting input.
func (w *Wizard) Step() Step { return w.state.step() }

// Done reports whether the PIN was updated.
func (w *Wizard) Done() bool { return w.done }

// Err returns the message to display, empty when there is none.
func (w *Wizard) Err() string { return w.errMsg }

// Entered returns how many digits are typed for the active step.
func (w *Wizard) Entered() int { return w.entry.Len() }

// Press feeds one keypress. Filling the last position submits the step.
func (w *Wizard) Press(ctx context.Context, r rune) error {
	if w.done || w.busy {
		return nil
	}
	if w.entry.Append(r) && w.entry.Complete() {
		return w.Submit(ctx)
	}
	return nil
}

// Paste accepts exactly four digits and submits the step; anything else is
// ignored.
func (w *Wizard) Paste(ctx context.Context, s string) error {
	if w.done || w.busy {
		return nil
	}
	if w.entry.Paste(s) {
		return w.Submit(ctx)
	}
	return nil
}

// Backspace removes the last typed digit.
func (w *Wizard) Backspace() {
	if !w.done && !w.busy {
		w.entry.Backspace()
	}
}

// Submit advances the wizard with the entered digits. The returned error is
// one of the sentinels above for step rejections, or the API error when the
// final update fails; Err carries the display text either way.
func (w *Wizard) Submit(ctx context.Context) error {
	if w.done || w.busy {
		return nil
	}
	if !w.entry.Complete() {
		w.errMsg = msgIncomplete
		return nil
	}

	pin := w.entry.Value()

	switch st := w.state.(type) {
	case awaitingCurrent:
		w.busy = true
		valid, err := w.api.VerifyPIN(ctx, pin)
		w.busy = false
		if err != nil {
			w.entry.Clear()
			w.errMsg = client.Message(err, msgVerifyFail)
			return err
		}
		if !valid {
			w.entry.Clear()
			w.errMsg = "Invalid current PIN. Please try again."
			return ErrInvalidCurrentPIN
		}
		w.advance(awaitingNew{current: pin})
		return nil

	case awaitingNew:
		w.advance(awaitingConfirm{current: st.current, next: pin})
		return nil

	case awaitingConfirm:
		if pin != st.next {
			// Keep the chosen new PIN, re-collect only the confirmation.
			w.entry.Clear()
			w.errMsg = "PINs do not match. Please try again."
			return ErrPINMismatch
		}
		if pin == st.current {
			w.advance(awaitingNew{current: st.current})
			w.errMsg = "New PIN must be different from your current PIN."
			return ErrPINUnchanged
		}
		w.busy = true
		err := w.api.UpdatePIN(ctx, pin)
		w.busy = false
		if err != nil {
			w.errMsg = client.Message(err, "Failed to update PIN. Please try again.")
			return err
		}
		w.done = true
		w.errMsg = ""
		return nil
	}
	return nil
}

// Back returns to the previous step. The verified current PIN is kept, so
// backing out of the confirmation does not force a re-verification.
func (w *Wizard) Back() {
	if w.done || w.busy {
		return
	}
	switch st := w.state.(type) {
	case awaitingNew:
		w.advance(awaitingCurrent{})
	case awaitingConfirm:
		w.advance(awaitingNew{current: st.current})
	}
}

func (w *Wizard) advance(next wizardState) {
	w.state = next
	w.entry.Clear()
	w.errMsg = ""
}
