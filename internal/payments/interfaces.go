package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/creamcommerce/commerce-backend/pkg/db/models"
)

// Repository defines persistence operations for payments and their
// failure records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	Save(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	CreateFailure(ctx context.Context, failure *models.PaymentFailure) error
	ListFailures(ctx context.Context, paymentID uuid.UUID) ([]models.PaymentFailure, error)
}
