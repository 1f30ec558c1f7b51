// Package cli is the terminal shell of the wallet app: a line-oriented
// dashboard that drives the login, OTP, transfer and PIN flows.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mini-wallet/mini_wallet/internal/client"
	"github.com/mini-wallet/mini_wallet/internal/flows/otpflow"
	"github.com/mini-wallet/mini_wallet/internal/flows/pinflow"
	"github.com/mini-wallet/mini_wallet/internal/flows/transferflow"
	"github.com/mini-wallet/mini_wallet/internal/identity"
	"github.com/mini-wallet/mini_wallet/internal/money"
	"github.com/mini-wallet/mini_wallet/internal/session"
	"github.com/mini-wallet/mini_wallet/internal/validate"
)

// errQuit unwinds the shell loop when the user exits.
var errQuit = errors.New("quit")

// Shell runs the interactive wallet client over a line-based terminal.
type Shell struct {
	api      *client.Client
	sessions *session.Store
	in       *bufio.Scanner
	out      io.Writer
	logger   *slog.Logger
	// tick is one OTP countdown interval, shortened in tests.
	tick time.Duration
}

// New builds a shell reading from in and writing to out.
func New(api *client.Client, sessions *session.Store, in io.Reader, out io.Writer, logger *slog.Logger) *Shell {
	return &Shell{
		api:      api,
		sessions: sessions,
		in:       bufio.NewScanner(in),
		out:      out,
		logger:   logger,
		tick:     time.Second,
	}
}

// Run drives the shell until the user quits, input ends, or ctx is
// cancelled.
func (s *Shell) Run(ctx context.Context) error {
	if _, err := s.sessions.Load(); err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	s.printf("Mini Wallet")
	for ctx.Err() == nil {
		var err error
		if s.sessions.Current().Authenticated() {
			err = s.dashboard(ctx)
		} else {
			err = s.authMenu(ctx)
		}
		switch {
		case errors.Is(err, errQuit), errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, client.ErrSessionExpired):
			s.printf("%s", client.Message(err, ""))
		case err != nil:
			return err
		}
	}
	return ctx.Err()
}

func (s *Shell) authMenu(ctx context.Context) error {
	s.printf("\n[1] Login  [2] Register  [q] Quit")
	choice, err := s.prompt("> ")
	if err != nil {
		return err
	}
	switch choice {
	case "1", "login":
		return s.login(ctx)
	case "2", "register":
		return s.register(ctx)
	case "q", "quit", "exit":
		return errQuit
	default:
		return nil
	}
}

func (s *Shell) login(ctx context.Context) error {
	identifier, err := s.promptValid("Email or phone: ", validate.Identifier)
	if err != nil {
		return err
	}
	password, err := s.promptRequired("Password: ", "Password is required")
	if err != nil {
		return err
	}

	result, err := s.api.Login(ctx, identifier, password)
	if err != nil {
		s.printf("%s", client.Message(err, "Login failed. Please try again."))
		return passThrough(err)
	}

	if result.OTPRequired {
		return s.otpChallenge(ctx, identifier)
	}

	if err := s.sessions.Save(session.Session{Token: result.Token, User: result.User}); err != nil {
		return err
	}
	s.printf("Welcome back, %s.", result.User.FirstName)
	return nil
}

func (s *Shell) otpChallenge(ctx context.Context, identifier string) error {
	flow := otpflow.New(s.api, s.sessions, identifier, s.tick)
	defer flow.Close()

	s.printf("A 6-digit code was sent to your phone.")
	for flow.Open() {
		var hint string
		if wait := flow.ResendIn(); wait > 0 {
			hint = fmt.Sprintf("resend in %ds", wait)
		} else {
			hint = "type 'resend' for a new code"
		}
		line, err := s.prompt(fmt.Sprintf("OTP (%s, 'cancel' to abort): ", hint))
		if err != nil {
			return err
		}
		switch line {
		case "cancel":
			flow.Close()
			return nil
		case "resend":
			if flow.ResendIn() > 0 {
				s.printf("Please wait %ds before requesting a new code.", flow.ResendIn())
				continue
			}
			flow.Resend(ctx)
		default:
			if res := validate.OTP(line); !res.OK {
				s.printf("%s", res.Message)
				continue
			}
			flow.Paste(ctx, line)
		}
		if msg := flow.Err(); msg != "" {
			s.printf("%s", msg)
		}
	}

	if flow.Succeeded() {
		s.printf("Welcome back, %s.", s.sessions.Current().User.FirstName)
	}
	return nil
}

func (s *Shell) register(ctx context.Context) error {
	first, err := s.promptRequired("First name: ", "First name is required")
	if err != nil {
		return err
	}
	last, err := s.promptRequired("Last name: ", "Last name is required")
	if err != nil {
		return err
	}
	email, err := s.promptValid("Email: ", validate.Email)
	if err != nil {
		return err
	}
	phone, err := s.promptValid("Phone: ", validate.NigerianPhone)
	if err != nil {
		return err
	}
	password, err := s.promptRequired("Password (min 8 chars): ", "Password is required")
	if err != nil {
		return err
	}
	pin, err := s.promptValid("Transaction PIN (4 digits): ", validate.PIN)
	if err != nil {
		return err
	}

	token, user, err := s.api.Register(ctx, client.RegisterInput{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phone:     phone,
		Password:  password,
		PIN:       pin,
	})
	if err != nil {
		s.printf("%s", client.Message(err, "Registration failed. Please try again."))
		return passThrough(err)
	}
	if err := s.sessions.Save(session.Session{Token: token, User: user}); err != nil {
		return err
	}
	s.printf("Account created. Welcome, %s.", user.FirstName)
	return nil
}

func (s *Shell) dashboard(ctx context.Context) error {
	if err := s.overview(ctx); err != nil {
		return err
	}
	for {
		line, err := s.prompt("\nwallet> ")
		if err != nil {
			return err
		}
		var cmdErr error
		switch line {
		case "", "help":
			s.printf("Commands: balance, deposit, transfer, history, all, pin, verify, profile, logout, quit")
		case "balance":
			cmdErr = s.overview(ctx)
		case "deposit":
			cmdErr = s.deposit(ctx)
		case "transfer":
			cmdErr = s.transfer(ctx)
		case "history":
			cmdErr = s.history(ctx)
		case "all":
			cmdErr = s.allHistory(ctx)
		case "pin":
			cmdErr = s.updatePIN(ctx)
		case "verify":
			cmdErr = s.verifyBVN(ctx)
		case "profile":
			s.profile()
		case "logout":
			if err := s.sessions.Clear(); err != nil {
				return err
			}
			s.printf("Logged out.")
			return nil
		case "q", "quit", "exit":
			return errQuit
		default:
			s.printf("Unknown command %q. Type 'help' for the list.", line)
		}
		if cmdErr != nil {
			return cmdErr
		}
	}
}

func (s *Shell) overview(ctx context.Context) error {
	ov, err := s.api.Wallet(ctx)
	if err != nil {
		s.printf("%s", client.Message(err, "Could not load your wallet."))
		return passThrough(err)
	}
	s.printf("Balance: ₦%s", money.FormatDecimal(ov.Balance))
	if ov.VirtualAccountNumber != "" {
		s.printf("Fund via %s, account %s", ov.BankName, ov.VirtualAccountNumber)
	}
	return nil
}

func (s *Shell) deposit(ctx context.Context) error {
	input, err := s.prompt("Amount: ")
	if err != nil {
		return err
	}
	amount, perr := money.Parse(input)
	if perr != nil {
		s.printf("Please enter a valid amount")
		return nil
	}

	balance, err := s.api.Deposit(ctx, amount)
	if err != nil {
		s.printf("%s", client.Message(err, "Deposit failed. Please try again."))
		return passThrough(err)
	}
	s.printf("Deposit successful. New balance: ₦%s", money.FormatDecimal(balance))
	return nil
}

func (s *Shell) transfer(ctx context.Context) error {
	recipient, err := s.prompt("Recipient email: ")
	if err != nil {
		return err
	}
	amountInput, err := s.prompt("Amount: ")
	if err != nil {
		return err
	}

	intent, fieldErrs := transferflow.Validate(amountInput, recipient)
	if !fieldErrs.OK() {
		if fieldErrs.Recipient != "" {
			s.printf("%s", fieldErrs.Recipient)
		}
		if fieldErrs.Amount != "" {
			s.printf("%s", fieldErrs.Amount)
		}
		return nil
	}

	flow := transferflow.NewFlow(s.api)
	flow.Begin(intent)
	s.printf("Sending ₦%s to %s.", money.FormatDecimal(intent.Amount), intent.RecipientEmail)

	var result transferflow.Result
	var confirmErr error
	confirmed := false
	gate := pinflow.NewGate(s.api, func(pin string) {
		confirmed = true
		result, confirmErr = flow.Confirm(ctx, pin)
	})

	for gate.Open() {
		line, err := s.prompt("Enter PIN to confirm ('cancel' to abort): ")
		if err != nil {
			return err
		}
		if line == "cancel" {
			gate.Close()
			flow.Abandon()
			s.printf("Transfer cancelled.")
			return nil
		}
		if res := validate.PIN(line); !res.OK {
			s.printf("%s", res.Message)
			continue
		}
		gate.Paste(ctx, line)
		if msg := gate.Err(); msg != "" {
			s.printf("%s", msg)
		}
	}

	if !confirmed {
		return nil
	}
	if confirmErr != nil {
		s.printf("%s", client.Message(confirmErr, "Transfer failed. Please try again."))
		return passThrough(confirmErr)
	}
	s.printf("%s: ₦%s sent to %s", result.Message, money.FormatDecimal(result.Amount), result.RecipientEmail)
	return nil
}

func (s *Shell) updatePIN(ctx context.Context) error {
	wizard := pinflow.NewWizard(s.api)
	prompts := map[pinflow.Step]string{
		pinflow.StepCurrent: "Current PIN",
		pinflow.StepNew:     "New PIN",
		pinflow.StepConfirm: "Confirm new PIN",
	}

	for !wizard.Done() {
		label := prompts[wizard.Step()]
		line, err := s.prompt(fmt.Sprintf("%s ('back'/'cancel'): ", label))
		if err != nil {
			return err
		}
		switch line {
		case "cancel":
			if wizard.Step() != pinflow.StepCurrent {
				s.printf("Use 'back' to return to the previous step.")
				continue
			}
			s.printf("PIN change cancelled.")
			return nil
		case "back":
			wizard.Back()
			continue
		}
		if res := validate.PIN(line); !res.OK {
			s.printf("%s", res.Message)
			continue
		}
		stepErr := wizard.Paste(ctx, line)
		if msg := wizard.Err(); msg != "" {
			s.printf("%s", msg)
		}
		if err := passThrough(stepErr); err != nil {
			return err
		}
	}
	s.printf("PIN updated successfully.")
	return nil
}

func (s *Shell) verifyBVN(ctx context.Context) error {
	user := s.sessions.Current().User
	if user.VerificationStatus == identity.StatusVerified {
		s.printf("Your account is already verified.")
		return nil
	}

	bvn, err := s.promptValid("BVN (11 digits): ", validate.BVN)
	if err != nil {
		return err
	}
	dob, err := s.promptRequired("Date of birth (YYYY-MM-DD): ", "Date of birth is required")
	if err != nil {
		return err
	}

	result, err := s.api.VerifyBVN(ctx, bvn, dob)
	if err != nil {
		s.printf("%s", client.Message(err, "Verification failed. Please try again."))
		return passThrough(err)
	}

	sess := s.sessions.Current()
	sess.User.VerificationStatus = result.VerificationStatus
	sess.User.TransactionLimit = result.TransactionLimit
	if err := s.sessions.Save(sess); err != nil {
		return err
	}
	s.printf("Verification complete. Transaction limit: ₦%s", money.Format(fmt.Sprintf("%.0f", result.TransactionLimit)))
	return nil
}

func (s *Shell) history(ctx context.Context) error {
	page := 0
	for {
		result, err := s.api.Transactions(ctx, page, 10)
		if err != nil {
			s.printf("%s", client.Message(err, "Could not load transactions."))
			return passThrough(err)
		}
		if len(result.Content) == 0 {
			s.printf("No transactions yet.")
			return nil
		}
		s.printTransactions(result.Content)
		s.printf("Page %d of %d (%d total)", result.Page+1, result.TotalPages, result.TotalElements)

		line, err := s.prompt("[n]ext [p]rev [q]uit: ")
		if err != nil {
			return err
		}
		switch line {
		case "n":
			if page+1 < result.TotalPages {
				page++
			}
		case "p":
			if page > 0 {
				page--
			}
		default:
			return nil
		}
	}
}

func (s *Shell) allHistory(ctx context.Context) error {
	records, err := s.api.AllTransactions(ctx)
	if err != nil {
		s.printf("%s", client.Message(err, "Could not load transactions."))
		return passThrough(err)
	}
	if len(records) == 0 {
		s.printf("No transactions yet.")
		return nil
	}
	s.printTransactions(records)
	return nil
}

func (s *Shell) printTransactions(records []client.TransactionRecord) {
	for _, tx := range records {
		sign := "+"
		if tx.TransactionType == "DEBIT" {
			sign = "-"
		}
		s.printf("%s  %s₦%-12s %-30s balance ₦%s",
			tx.Timestamp, sign, money.FormatDecimal(tx.Amount), tx.Description, money.FormatDecimal(tx.BalanceAfterTransaction))
	}
}

func (s *Shell) profile() {
	user := s.sessions.Current().User
	s.printf("%s %s <%s>", user.FirstName, user.LastName, user.Email)
	s.printf("Phone: %s", user.Phone)
	s.printf("Status: %s, limit ₦%s", user.VerificationStatus, money.Format(fmt.Sprintf("%.0f", user.TransactionLimit)))
	if user.VirtualAccountNumber != "" {
		s.printf("Funding account: %s (%s)", user.VirtualAccountNumber, user.BankName)
	}
}

func (s *Shell) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Shell) promptValid(label string, v validate.Validator) (string, error) {
	for {
		input, err := s.prompt(label)
		if err != nil {
			return "", err
		}
		if res := v(input); !res.OK {
			s.printf("%s", res.Message)
			continue
		}
		return input, nil
	}
}

func (s *Shell) promptRequired(label, message string) (string, error) {
	return s.promptValid(label, validate.Required(message))
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

// passThrough keeps session expiry propagating to the shell loop while
// swallowing errors that were already rendered.
func passThrough(err error) error {
	if errors.Is(err, client.ErrSessionExpired) {
		return err
	}
	return nil
}
