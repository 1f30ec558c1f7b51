package otpflow

import (
	"context"
	"time"

	"github.com/mini-wallet/mini_wallet/internal/client"
	"github.com/mini-wallet/mini_wallet/internal/flows/digit"
	"github.com/mini-wallet/mini_wallet/internal/identity"
	"github.com/mini-wallet/mini_wallet/internal/session"
)

// OTPSize is the one-time password length.
const OTPSize = 6

// ResendWait is how many countdown ticks must pass before a resend.
const ResendWait = 60

const (
	msgIncomplete = "Please enter the 6-digit code"
	msgVerifyFail = "OTP verification failed. Please try again."
	msgResendFail = "Could not resend the code. Please try again."
)

// Authenticator is the API surface the flow needs.
type Authenticator interface {
	VerifyOTP(ctx context.Context, identifier, otp string) (string, identity.Profile, error)
	ResendOTP(ctx context.Context, identifier string) error
}

// Flow runs one OTP challenge for a login attempt. On success it persists
// the session; after that, or after Close, all input and in-flight
// responses are ignored.
type Flow struct {
	api        Authenticator
	sessions   *session.Store
	identifier string
	entry      *digit.Entry
	countdown  *Countdown
	interval   time.Duration
	open       bool
	busy       bool
	succeeded  bool
	errMsg     string
}

// New starts the challenge for the given login identifier. The resend
// countdown begins immediately. interval is one countdown tick; pass
// time.Second outside tests.
func New(api Authenticator, sessions *session.Store, identifier string, interval time.Duration) *Flow {
	return &Flow{
		api:        api,
		sessions:   sessions,
		identifier: identifier,
		entry:      digit.NewEntry(OTPSize),
		countdown:  StartCountdown(ResendWait, interval),
		interval:   interval,
		open:       true,
	}
}

// Open reports whether the flow still accepts input.
func (f *Flow) Open() bool { return f.open }

// Succeeded reports whether the login completed.
func (f *Flow) Succeeded() bool { return f.succeeded }

// Err returns the message to display, empty when there is none.
func (f *Flow) Err() string { return f.errMsg }

// Entered returns how many digits are currently typed.
func (f *Flow) Entered() int { return f.entry.Len() }

// ResendIn returns the ticks left before Resend becomes available.
func (f *Flow) ResendIn() int { return f.countdown.Remaining() }

// Press feeds one keypress. Filling the last position submits.
func (f *Flow) Press(ctx context.Context, r rune) {
	if !f.open || f.busy {
		return
	}
	if f.entry.Append(r) && f.entry.Complete() {
		f.Submit(ctx)
	}
}

// Paste accepts exactly six digits and submits; anything else is ignored.
func (f *Flow) Paste(ctx context.Context, s string) {
	if !f.open || f.busy {
		return
	}
	if f.entry.Paste(s) {
		f.Submit(ctx)
	}
}

// Backspace removes the last typed digit.
func (f *Flow) Backspace() {
	if f.open && !f.busy {
		f.entry.Backspace()
	}
}

// Submit verifies the entered code. A rejected code clears the digits for a
// fresh attempt but leaves the resend countdown running.
func (f *Flow) Submit(ctx context.Context) {
	if !f.open || f.busy {
		return
	}
	if !f.entry.Complete() {
		f.errMsg = msgIncomplete
		return
	}

	code := f.entry.Value()
	f.busy = true
	token, user, err := f.api.VerifyOTP(ctx, f.identifier, code)
	f.busy = false

	if !f.open {
		return
	}

	if err != nil {
		f.entry.Clear()
		f.errMsg = client.Message(err, msgVerifyFail)
		return
	}

	if err := f.sessions.Save(session.Session{Token: token, User: user}); err != nil {
		f.errMsg = "Could not save your session. Please try again."
		return
	}

	f.succeeded = true
	f.errMsg = ""
	f.shutdown()
}

// Resend requests a fresh code. It is a no-op until the countdown reaches
// zero; on success the countdown restarts.
func (f *Flow) Resend(ctx context.Context) {
	if !f.open || f.busy {
		return
	}
	if f.countdown.Remaining() > 0 {
		return
	}

	f.busy = true
	err := f.api.ResendOTP(ctx, f.identifier)
	f.busy = false

	if !f.open {
		return
	}
	if err != nil {
		f.errMsg = client.Message(err, msgResendFail)
		return
	}

	f.countdown.Stop()
	f.countdown = StartCountdown(ResendWait, f.interval)
	f.entry.Clear()
	f.errMsg = ""
}

// Close abandons the challenge and stops the countdown.
func (f *Flow) Close() {
	if !f.open {
		return
	}
	f.shutdown()
}

func (f *Flow) shutdown() {
	f.open = false
	f.countdown.Stop()
	f.entry.Clear()
}
