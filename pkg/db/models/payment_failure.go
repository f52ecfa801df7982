package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentFailure is an append-only fact recorded once per failed payment
// attempt. Rows are never updated or deleted.
type PaymentFailure struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;not null"`
	Reason    string    `gorm:"column:reason;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
