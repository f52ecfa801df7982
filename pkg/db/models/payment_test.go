package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creamcommerce/commerce-backend/pkg/enums"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
)

func TestPaymentHappyPath(t *testing.T) {
	payment := NewPayment(uuid.New(), decimal.NewFromInt(2000))
	if payment.Status != enums.PaymentStatusReady {
		t.Fatalf("expected ready, got %s", payment.Status)
	}
	if err := payment.Process(); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := payment.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !payment.IsCompleted() {
		t.Fatal("expected completed payment")
	}
	if err := payment.RequestRefund(); err != nil {
		t.Fatalf("request refund: %v", err)
	}
	if err := payment.Refund(); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if payment.Status != enums.PaymentStatusRefunded {
		t.Fatalf("expected refunded, got %s", payment.Status)
	}
}

func TestPaymentAmountFixedAtCreation(t *testing.T) {
	amount := decimal.NewFromInt(1234)
	payment := NewPayment(uuid.New(), amount)
	if err := payment.Process(); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := payment.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !payment.Amount.Equal(amount) {
		t.Fatalf("amount drifted: %s", payment.Amount)
	}
}

func TestPaymentFailProducesFailureFact(t *testing.T) {
	payment := NewPayment(uuid.New(), decimal.NewFromInt(500))
	failure, err := payment.Fail("insufficient balance")
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	if payment.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed, got %s", payment.Status)
	}
	if failure.PaymentID != payment.ID || failure.Reason != "insufficient balance" {
		t.Fatalf("unexpected failure fact: %+v", failure)
	}
	if payment.IsActive() {
		t.Fatal("failed payment should not be active")
	}
}

func TestPaymentFailDefaultsReason(t *testing.T) {
	payment := NewPayment(uuid.New(), decimal.NewFromInt(500))
	failure, err := payment.Fail("")
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	if failure.Reason == "" {
		t.Fatal("expected a default reason")
	}
}

func TestPaymentRetryResetsToReady(t *testing.T) {
	payment := NewPayment(uuid.New(), decimal.NewFromInt(500))
	if _, err := payment.Fail("boom"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := payment.Retry(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if payment.Status != enums.PaymentStatusReady {
		t.Fatalf("expected ready after retry, got %s", payment.Status)
	}
}

func TestPaymentIllegalTransitions(t *testing.T) {
	payment := NewPayment(uuid.New(), decimal.NewFromInt(500))

	// complete without processing
	err := payment.Complete()
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	// refund without completion
	if err := payment.RequestRefund(); err == nil {
		t.Fatal("request refund from ready should fail")
	}

	// fail a completed payment
	if err := payment.Process(); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := payment.Complete(); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := payment.Fail("late"); err == nil {
		t.Fatal("fail on completed payment should be rejected")
	}
	if err := payment.Complete(); err == nil {
		t.Fatal("complete on completed payment should be rejected")
	}
}

func TestPaymentCancelFromReadyAndFailed(t *testing.T) {
	ready := NewPayment(uuid.New(), decimal.NewFromInt(100))
	if err := ready.Cancel(); err != nil {
		t.Fatalf("cancel ready: %v", err)
	}

	failed := NewPayment(uuid.New(), decimal.NewFromInt(100))
	if _, err := failed.Fail("boom"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := failed.Cancel(); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := failed.Retry(); err == nil {
		t.Fatal("retry on canceled payment should fail")
	}
}
