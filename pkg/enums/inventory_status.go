package enums

// InventoryStatus is derived from quantity and the low stock threshold.
// It is never assigned independently of quantity.
type InventoryStatus string

const (
	InventoryStatusNormal InventoryStatus = "normal"
	InventoryStatusLow    InventoryStatus = "low"
	InventoryStatusZero   InventoryStatus = "zero"
)

// String implements fmt.Stringer.
func (s InventoryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InventoryStatus.
func (s InventoryStatus) IsValid() bool {
	switch s {
	case InventoryStatusNormal, InventoryStatusLow, InventoryStatusZero:
		return true
	}
	return false
}

// InventoryStatusFor computes the status for a quantity and threshold.
func InventoryStatusFor(quantity, lowStockThreshold int) InventoryStatus {
	switch {
	case quantity <= 0:
		return InventoryStatusZero
	case quantity <= lowStockThreshold:
		return InventoryStatusLow
	default:
		return InventoryStatusNormal
	}
}
