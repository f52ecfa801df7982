package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creamcommerce/commerce-backend/pkg/enums"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
)

// Wallet holds a user's point balance. One wallet per user, created
// lazily on the first charge. Charge and Use are the only balance
// mutators; each returns the ledger entry that must be persisted with
// the new balance.
type Wallet struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Balance   decimal.Decimal `gorm:"column:balance;type:numeric;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// NewWallet builds an empty wallet for the user.
func NewWallet(userID uuid.UUID) *Wallet {
	return &Wallet{
		ID:      uuid.New(),
		UserID:  userID,
		Balance: decimal.Zero,
	}
}

// Charge adds amount to the balance and returns the CHARGE ledger entry.
func (w *Wallet) Charge(amount decimal.Decimal) (*WalletEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now()
	return &WalletEntry{
		ID:       uuid.New(),
		WalletID: w.ID,
		Type:     enums.WalletEntryTypeCharge,
		Amount:   amount,
		Balance:  w.Balance,
	}, nil
}

// Use subtracts amount from the balance and returns the USE ledger entry.
// The entry stores the negated amount so the signed sum of all entries
// reproduces the balance.
func (w *Wallet) Use(amount decimal.Decimal) (*WalletEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use amount must be positive")
	}
	if w.Balance.LessThan(amount) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient balance")
	}
	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = time.Now()
	return &WalletEntry{
		ID:       uuid.New(),
		WalletID: w.ID,
		Type:     enums.WalletEntryTypeUse,
		Amount:   amount.Neg(),
		Balance:  w.Balance,
	}, nil
}
