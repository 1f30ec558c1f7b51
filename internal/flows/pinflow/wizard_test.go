package pinflow

import (
	"context"
	"errors"
	"testing"
)

func TestWizardHappyPath(t *testing.T) {
	api := &fakeAPI{validPIN: "1234"}
	w := NewWizard(api)
	ctx := context.Background()

	if w.Step() != StepCurrent {
		t.Fatalf("step = %v", w.Step())
	}
	if err := w.Paste(ctx, "1234"); err != nil {
		t.Fatalf("verify current: %v", err)
	}
	if w.Step() != StepNew {
		t.Fatalf("step = %v", w.Step())
	}
	if err := w.Paste(ctx, "5678"); err != nil {
		t.Fatalf("enter new: %v", err)
	}
	if w.Step() != StepConfirm {
		t.Fatalf("step = %v", w.Step())
	}
	if err := w.Paste(ctx, "5678"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if !w.Done() {
		t.Fatal("wizard should be done")
	}
	if len(api.updateCalls) != 1 || api.updateCalls[0] != "5678" {
		t.Fatalf("update calls = %v", api.updateCalls)
	}
	if len(api.verifyCalls) != 1 {
		t.Fatalf("verify calls = %v", api.verifyCalls)
	}
}

func TestWizardInvalidCurrentPIN(t *testing.T) {
	api := &fakeAPI{validPIN: "1234"}
	w := NewWizard(api)
	ctx := context.Background()

	err := w.Paste(ctx, "0000")
	if !errors.Is(err, ErrInvalidCurrentPIN) {
		t.Fatalf("err = %v", err)
	}
	if w.Step() != StepCurrent {
		t.Fatalf("step = %v, want retry at current", w.Step())
	}
	if w.Entered() != 0 {
		t.Fatal("digits should be cleared for retry")
	}

	if err := w.Paste(ctx, "1234"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if w.Step() != StepNew {
		t.Fatalf("step = %v", w.Step())
	}
}

func TestWizardMismatchStaysAtConfirm(t *testing.T) {
	api := &fakeAPI{validPIN: "1234"}
	w := NewWizard(api)
	ctx := context.Background()

	w.Paste(ctx, "1234")
	w.Paste(ctx, "5678")

	// The mismatch is caught locally: no network call happens.
	err := w.Paste(ctx, "5679")
	if !errors.Is(err, ErrPINMismatch) {
		t.Fatalf("err = %v", err)
	}
	if len(api.updateCalls) != 0 {
		t.Fatalf("update calls = %v", api.updateCalls)
	}
	if w.Step() != StepConfirm {
		t.Fatalf("step = %v, want re-confirm", w.Step())
	}
	if w.Entered() != 0 {
		t.Fatal("confirmation digits should be cleared")
	}

	// Re-confirming the chosen PIN completes with a single update call.
	if err := w.Paste(ctx, "5678"); err != nil {
		t.Fatalf("confirm retry: %v", err)
	}
	if !w.Done() {
		t.Fatal("wizard should be done")
	}
	if len(api.updateCalls) != 1 || api.updateCalls[0] != "5678" {
		t.Fatalf("update calls = %v", api.updateCalls)
	}
}

func TestWizardUnchangedPINReturnsToNewStep(t *testing.T) {
	api := &fakeAPI{validPIN: "1234"}
	w := NewWizard(api)
	ctx := context.Background()

	w.Paste(ctx, "1234")
	w.Paste(ctx, "1234")

	err := w.Paste(ctx, "1234")
	if !errors.Is(err, ErrPINUnchanged) {
		t.Fatalf("err = %v", err)
	}
	if w.Step() != StepNew {
		t.Fatalf("step = %v, want back at new", w.Step())
	}
	if len(api.updateCalls) != 0 {
		t.Fatalf("update calls = %v", api.updateCalls)
	}

	// A genuinely new PIN now goes through.
	w.Paste(ctx, "4321")
	if err := w.Paste(ctx, "4321"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !w.Done() || len(api.updateCalls) != 1 || api.updateCalls[0] != "4321" {
		t.Fatalf("done=%v update calls = %v", w.Done(), api.updateCalls)
	}
}

func TestWizardBackKeepsVerifiedCurrent(t *testing.T) {
	api := &fakeAPI{validPIN: "1234"}
	w := NewWizard(api)
	ctx := context.Background()

	w.Paste(ctx, "1234")
	w.Paste(ctx, "5678")
	if w.Step() != StepConfirm {
		t.Fatalf("step = %v", w.Step())
	}

	w.Back()
	if w.Step() != StepNew {
		t.Fatalf("step after back = %v", w.Step())
	}

	// No re-verification needed: the current PIN is still held.
	w.Paste(ctx, "8765")
	if err := w.Paste(ctx, "8765"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !w.Done() {
		t.Fatal("wizard should be done")
	}
	if len(api.verifyCalls) != 1 {
		t.Fatalf("verify calls = %v", api.verifyCalls)
	}
}

func TestWizardBackFromNewForcesReverify(t *testing.T) {
	api := &fakeAPI{validPIN: "1234"}
	w := NewWizard(api)
	ctx := context.Background()

	w.Paste(ctx, "1234")
	w.Back()
	if w.Step() != StepCurrent {
		t.Fatalf("step = %v", w.Step())
	}

	w.Paste(ctx, "1234")
	if len(api.verifyCalls) != 2 {
		t.Fatalf("verify calls = %v", api.verifyCalls)
	}
}

func TestWizardUpdateFailureStaysAtConfirm(t *testing.T) {
	api := &fakeAPI{validPIN: "1234", updateErr: errors.New("boom")}
	w := NewWizard(api)
	ctx := context.Background()

	w.Paste(ctx, "1234")
	w.Paste(ctx, "5678")
	if err := w.Paste(ctx, "5678"); err == nil {
		t.Fatal("expected update error")
	}
	if w.Done() {
		t.Fatal("wizard must not complete on failure")
	}
	if w.Step() != StepConfirm {
		t.Fatalf("step = %v", w.Step())
	}
	if w.Err() == "" {
		t.Fatal("expected an error message")
	}

	// The retry issues a second update with the same PIN.
	api.updateErr = nil
	if err := w.Submit(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !w.Done() || len(api.updateCalls) != 2 || api.updateCalls[1] != "5678" {
		t.Fatalf("done=%v update calls = %v", w.Done(), api.updateCalls)
	}
}
