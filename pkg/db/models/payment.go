package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creamcommerce/commerce-backend/pkg/enums"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
)

// Payment records one payment attempt for an order. The amount is copied
// from the order total at creation and never mutated; only the status
// moves. An order has at most one payment whose status is still active.
type Payment struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric;not null"`
	Status    enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'ready'"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// NewPayment builds a READY payment for the order with the given amount.
func NewPayment(orderID uuid.UUID, amount decimal.Decimal) *Payment {
	return &Payment{
		ID:      uuid.New(),
		OrderID: orderID,
		Amount:  amount,
		Status:  enums.PaymentStatusReady,
	}
}

func (p *Payment) transition(to enums.PaymentStatus, allowedFrom ...enums.PaymentStatus) error {
	for _, from := range allowedFrom {
		if p.Status == from {
			p.Status = to
			p.UpdatedAt = time.Now()
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		"payment cannot move from "+p.Status.String()+" to "+to.String())
}

// Process begins the charge. Requires READY.
func (p *Payment) Process() error {
	return p.transition(enums.PaymentStatusProcessing, enums.PaymentStatusReady)
}

// Complete finishes the charge. Requires PROCESSING.
func (p *Payment) Complete() error {
	return p.transition(enums.PaymentStatusCompleted, enums.PaymentStatusProcessing)
}

// Fail records a failed attempt and returns the immutable failure fact.
// Requires READY or PROCESSING. The payment itself does not keep the
// reason; only the PaymentFailure row does.
func (p *Payment) Fail(reason string) (*PaymentFailure, error) {
	if err := p.transition(enums.PaymentStatusFailed,
		enums.PaymentStatusReady, enums.PaymentStatusProcessing); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "payment processing failed"
	}
	return &PaymentFailure{
		ID:        uuid.New(),
		PaymentID: p.ID,
		Reason:    reason,
	}, nil
}

// RequestRefund opens the refund flow. Requires COMPLETED.
func (p *Payment) RequestRefund() error {
	return p.transition(enums.PaymentStatusRefunding, enums.PaymentStatusCompleted)
}

// Refund finishes the refund flow. Requires REFUNDING.
func (p *Payment) Refund() error {
	return p.transition(enums.PaymentStatusRefunded, enums.PaymentStatusRefunding)
}

// Cancel abandons the attempt. Requires READY or FAILED.
func (p *Payment) Cancel() error {
	return p.transition(enums.PaymentStatusCanceled,
		enums.PaymentStatusReady, enums.PaymentStatusFailed)
}

// Retry resets a failed attempt back to READY.
func (p *Payment) Retry() error {
	return p.transition(enums.PaymentStatusReady, enums.PaymentStatusFailed)
}

// IsActive reports whether this payment still claims its order.
func (p *Payment) IsActive() bool {
	return p.Status.IsActive()
}

// IsCompleted reports whether the charge went through.
func (p *Payment) IsCompleted() bool {
	return p.Status == enums.PaymentStatusCompleted
}
