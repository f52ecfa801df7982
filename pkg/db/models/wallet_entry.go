package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creamcommerce/commerce-backend/pkg/enums"
)

// WalletEntry is one signed balance change in the append-only wallet
// ledger. Amount is positive for charges and negative for uses; Balance
// snapshots the wallet balance after the change.
type WalletEntry struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID  uuid.UUID             `gorm:"column:wallet_id;type:uuid;not null;index"`
	Type      enums.WalletEntryType `gorm:"column:type;type:text;not null"`
	Amount    decimal.Decimal       `gorm:"column:amount;type:numeric;not null"`
	Balance   decimal.Decimal       `gorm:"column:balance;type:numeric;not null"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}
