package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/creamcommerce/commerce-backend/pkg/enums"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
)

// DefaultLowStockThreshold applies when a product option is created
// without an explicit threshold.
const DefaultLowStockThreshold = 5

// Inventory tracks the stock quantity of one product option. Status is
// derived from quantity and the threshold on every mutation; it is never
// assigned independently.
type Inventory struct {
	OptionID          uuid.UUID             `gorm:"column:option_id;type:uuid;primaryKey"`
	Quantity          int                   `gorm:"column:quantity;not null;default:0"`
	LowStockThreshold int                   `gorm:"column:low_stock_threshold;not null;default:5"`
	Status            enums.InventoryStatus `gorm:"column:status;type:text;not null;default:'zero'"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// NewInventory builds inventory for an option with the starting quantity.
func NewInventory(optionID uuid.UUID, quantity, lowStockThreshold int) *Inventory {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &Inventory{
		OptionID:          optionID,
		Quantity:          quantity,
		LowStockThreshold: lowStockThreshold,
		Status:            enums.InventoryStatusFor(quantity, lowStockThreshold),
	}
}

// HasEnoughStock reports whether quantity covers the requested amount.
func (inv *Inventory) HasEnoughStock(requested int) bool {
	return inv.Quantity >= requested
}

// DecreaseQuantity removes stock. Rejects non-positive amounts and
// amounts exceeding the current quantity.
func (inv *Inventory) DecreaseQuantity(amount int) error {
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock decrease must be positive")
	}
	if !inv.HasEnoughStock(amount) {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
	}
	inv.Quantity -= amount
	inv.recompute()
	return nil
}

// IncreaseQuantity returns stock. Rejects non-positive amounts.
func (inv *Inventory) IncreaseQuantity(amount int) error {
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock increase must be positive")
	}
	inv.Quantity += amount
	inv.recompute()
	return nil
}

func (inv *Inventory) recompute() {
	inv.Status = enums.InventoryStatusFor(inv.Quantity, inv.LowStockThreshold)
	inv.UpdatedAt = time.Now()
}
