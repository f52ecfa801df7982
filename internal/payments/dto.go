package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creamcommerce/commerce-backend/pkg/enums"
)

// PaymentDTO is the API shape of a payment attempt.
type PaymentDTO struct {
	ID        uuid.UUID           `json:"id"`
	OrderID   uuid.UUID           `json:"order_id"`
	Amount    decimal.Decimal     `json:"amount"`
	Status    enums.PaymentStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// FailureDTO is one recorded payment failure.
type FailureDTO struct {
	ID        uuid.UUID `json:"id"`
	PaymentID uuid.UUID `json:"payment_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
