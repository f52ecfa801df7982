package points

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/creamcommerce/commerce-backend/pkg/db/models"
	"github.com/creamcommerce/commerce-backend/pkg/pagination"
)

// Repository defines persistence operations for wallets and their entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, wallet *models.Wallet) (*models.Wallet, error)
	Save(ctx context.Context, wallet *models.Wallet) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	CreateEntry(ctx context.Context, entry *models.WalletEntry) error
	ListEntries(ctx context.Context, walletID uuid.UUID, params pagination.Params) (*EntryList, error)
}
