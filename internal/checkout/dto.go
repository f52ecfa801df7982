package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProcessPaymentResult reports the outcome of a payment attempt. A
// declined payment (insufficient balance or stock) is a normal outcome,
// not an error: Success is false and Message carries the reason. The
// same shape reports an attempt aborted by an unexpected failure.
type ProcessPaymentResult struct {
	Success   bool      `json:"success"`
	PaymentID uuid.UUID `json:"payment_id"`
	Message   string    `json:"message"`
}

// CancelOrderResult reports a committed cancellation, including the
// amount returned to the buyer's wallet. Zero for unpaid orders.
type CancelOrderResult struct {
	OrderID        uuid.UUID       `json:"order_id"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
}
