package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/creamcommerce/commerce-backend/pkg/db"
	"github.com/creamcommerce/commerce-backend/pkg/db/models"
	"github.com/creamcommerce/commerce-backend/pkg/enums"
	"github.com/creamcommerce/commerce-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := dbpkg.LockForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Table("orders o").
		Select("o.id, o.status, o.total_amount, o.created_at, COUNT(oi.id) AS item_count").
		Joins("LEFT JOIN order_items oi ON oi.order_id = o.id").
		Where("o.user_id = ?", userID).
		Group("o.id, o.status, o.total_amount, o.created_at")

	if decodedCursor != nil {
		query = query.Where("(o.created_at < ?) OR (o.created_at = ? AND o.id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var records []orderSummaryRecord
	err = query.Order("o.created_at DESC").Order("o.id DESC").Limit(limitWithBuffer).Scan(&records).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(records) > normalizedLimit {
		records = records[:normalizedLimit]
		last := records[len(records)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	summaries := make([]OrderSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, OrderSummary{
			ID:          record.ID,
			Status:      record.Status,
			TotalAmount: record.TotalAmount,
			ItemCount:   record.ItemCount,
			CreatedAt:   record.CreatedAt,
		})
	}
	return &OrderList{Orders: summaries, NextCursor: nextCursor}, nil
}

type orderSummaryRecord struct {
	ID          uuid.UUID
	Status      enums.OrderStatus
	TotalAmount decimal.Decimal
	ItemCount   int
	CreatedAt   time.Time
}
