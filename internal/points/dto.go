package points

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creamcommerce/commerce-backend/pkg/enums"
)

// Balance is the wallet snapshot returned to API consumers.
type Balance struct {
	WalletID uuid.UUID       `json:"wallet_id"`
	UserID   uuid.UUID       `json:"user_id"`
	Balance  decimal.Decimal `json:"balance"`
}

// EntrySummary is one ledger row in the wallet history.
type EntrySummary struct {
	ID        uuid.UUID             `json:"id"`
	Type      enums.WalletEntryType `json:"type"`
	Amount    decimal.Decimal       `json:"amount"`
	Balance   decimal.Decimal       `json:"balance"`
	CreatedAt time.Time             `json:"created_at"`
}

// EntryList wraps paginated ledger entries plus the next page cursor.
type EntryList struct {
	Entries    []EntrySummary `json:"entries"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
