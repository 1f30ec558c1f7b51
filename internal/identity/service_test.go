package identity

import (
	"context"
	"errors"
	"testing"
)

func registerInput() RegisterInput {
	return RegisterInput{
		FirstName: "Ada",
		LastName:  "Obi",
		Email:     "Ada@Example.com",
		Phone:     "0801 234 5678",
		Password:  "correct-horse",
		PIN:       "1234",
	}
}

func TestRegisterProvisionsAccount(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if user.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Phone != "08012345678" {
		t.Fatalf("phone not normalized: %q", user.Phone)
	}
	if user.VerificationStatus != StatusUnverified {
		t.Fatalf("status = %q", user.VerificationStatus)
	}
	if user.TransactionLimit != UnverifiedLimit {
		t.Fatalf("limit = %v", user.TransactionLimit)
	}
	if len(user.VirtualAccountNumber) != 10 || user.VirtualAccountNumber[:2] != "30" {
		t.Fatalf("virtual account = %q", user.VirtualAccountNumber)
	}
	if user.BankName == "" {
		t.Fatal("bank name missing")
	}
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	short := registerInput()
	short.Password = "short"
	if _, err := svc.Register(ctx, short); err == nil {
		t.Fatal("expected short password rejection")
	}

	badPIN := registerInput()
	badPIN.PIN = "123"
	if _, err := svc.Register(ctx, badPIN); err == nil {
		t.Fatal("expected short PIN rejection")
	}
}

func TestAuthenticateByEmailAndPhone(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, identifier := range []string{"ada@example.com", "ADA@example.com", "08012345678", "0801 234 5678"} {
		authed, err := svc.Authenticate(ctx, Credentials{Identifier: identifier, Password: "correct-horse"})
		if err != nil {
			t.Fatalf("authenticate %q: %v", identifier, err)
		}
		if authed.ID != user.ID {
			t.Fatalf("authenticated wrong user for %q", identifier)
		}
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, Credentials{Identifier: "ada@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Identifier: "nobody@example.com", Password: "correct-horse"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestVerifyAndUpdatePIN(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	valid, err := svc.VerifyPIN(ctx, user.ID, "1234")
	if err != nil || !valid {
		t.Fatalf("verify correct PIN: valid=%v err=%v", valid, err)
	}
	valid, err = svc.VerifyPIN(ctx, user.ID, "0000")
	if err != nil {
		t.Fatalf("verify wrong PIN: %v", err)
	}
	if valid {
		t.Fatal("wrong PIN reported valid")
	}

	if err := svc.UpdatePIN(ctx, user.ID, "5678"); err != nil {
		t.Fatalf("update PIN: %v", err)
	}
	if valid, _ := svc.VerifyPIN(ctx, user.ID, "1234"); valid {
		t.Fatal("old PIN still accepted")
	}
	if valid, _ := svc.VerifyPIN(ctx, user.ID, "5678"); !valid {
		t.Fatal("new PIN rejected")
	}
}

func TestVerifyBVNUpgradesLimit(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	upgraded, err := svc.VerifyBVN(ctx, user.ID, "12345678901", "1990-01-01")
	if err != nil {
		t.Fatalf("verify bvn: %v", err)
	}
	if upgraded.VerificationStatus != StatusVerified {
		t.Fatalf("status = %q", upgraded.VerificationStatus)
	}
	if upgraded.TransactionLimit != VerifiedLimit {
		t.Fatalf("limit = %v", upgraded.TransactionLimit)
	}

	stored, err := svc.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.VerificationStatus != StatusVerified {
		t.Fatal("upgrade not persisted")
	}
}

type rejectingProvider struct{}

func (rejectingProvider) Check(context.Context, string, string) (BVNDecision, error) {
	return BVNDecision{Approved: false}, nil
}

func TestVerifyBVNRejection(t *testing.T) {
	svc := NewService(NewMemoryRepository(), rejectingProvider{})
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.VerifyBVN(ctx, user.ID, "12345678901", "1990-01-01"); !errors.Is(err, ErrBVNRejected) {
		t.Fatalf("err = %v", err)
	}

	stored, _ := svc.FindByID(ctx, user.ID)
	if stored.VerificationStatus != StatusUnverified {
		t.Fatal("rejected BVN must not upgrade the account")
	}
}
