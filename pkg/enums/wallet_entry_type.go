package enums

import "fmt"

// WalletEntryType marks the direction of a wallet ledger entry.
type WalletEntryType string

const (
	WalletEntryTypeCharge WalletEntryType = "charge"
	WalletEntryTypeUse    WalletEntryType = "use"
)

// String implements fmt.Stringer.
func (t WalletEntryType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known WalletEntryType.
func (t WalletEntryType) IsValid() bool {
	return t == WalletEntryTypeCharge || t == WalletEntryTypeUse
}

// ParseWalletEntryType converts raw input into a WalletEntryType.
func ParseWalletEntryType(value string) (WalletEntryType, error) {
	switch WalletEntryType(value) {
	case WalletEntryTypeCharge:
		return WalletEntryTypeCharge, nil
	case WalletEntryTypeUse:
		return WalletEntryTypeUse, nil
	}
	return "", fmt.Errorf("invalid wallet entry type %q", value)
}
