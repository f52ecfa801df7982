package product

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

// Repository persists products, options and their inventories.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *Repository) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Options").Save(product).Error
}

func (r *Repository) CreateOption(ctx context.Context, option *models.ProductOption) (*models.ProductOption, error) {
	if err := r.db.WithContext(ctx).Create(option).Error; err != nil {
		return nil, err
	}
	return option, nil
}

func (r *Repository) SaveOption(ctx context.Context, option *models.ProductOption) error {
	return r.db.WithContext(ctx).Omit("Inventory").Save(option).Error
}

func (r *Repository) SaveInventory(ctx context.Context, inventory *models.Inventory) error {
	return r.db.WithContext(ctx).Save(inventory).Error
}

// FindByID loads a product with its options and their inventories.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Options.Inventory").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindInventoryForUpdate locks the option's inventory row for the
// duration of the surrounding transaction.
func (r *Repository) FindInventoryForUpdate(ctx context.Context, optionID uuid.UUID) (*models.Inventory, error) {
	var inventory models.Inventory
	err := dbpkg.LockForUpdate(r.db.WithContext(ctx)).
		Where("option_id = ?", optionID).
		First(&inventory).Error
	if err != nil {
		return nil, err
	}
	return &inventory, nil
}

func (r *Repository) FindOptionByID(ctx context.Context, optionID uuid.UUID) (*models.ProductOption, error) {
	var option models.ProductOption
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		Where("id = ?", optionID).
		First(&option).Error
	if err != nil {
		return nil, err
	}
	return &option, nil
}

// FindManyByIDs loads the given products with options and inventories.
func (r *Repository) FindManyByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Options.Inventory").
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// List returns paginated product summaries, newest first.
func (r *Repository) List(ctx context.Context, params pagination.Params) (*ProductList, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	decodedCursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Table("products p").
		Select("p.id, p.name, p.price, p.status, p.created_at, COUNT(po.id) AS option_count").
		Joins("LEFT JOIN product_options po ON po.product_id = p.id").
		Group("p.id, p.name, p.price, p.status, p.created_at")

	if decodedCursor != nil {
		query = query.Where("(p.created_at < ?) OR (p.created_at = ? AND p.id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var records []productSummaryRecord
	err = query.Order("p.created_at DESC").Order("p.id DESC").Limit(limitWithBuffer).Scan(&records).Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(records) > normalizedLimit {
		records = records[:normalizedLimit]
		last := records[len(records)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	summaries := make([]ProductSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, record.toSummary())
	}
	return &ProductList{Products: summaries, NextCursor: nextCursor}, nil
}

type productSummaryRecord struct {
	ID          uuid.UUID
	Name        string
	Price       decimal.Decimal
	Status      enums.ProductStatus
	OptionCount int
	CreatedAt   time.Time
}

func (r productSummaryRecord) toSummary() ProductSummary {
	return ProductSummary{
		ID:          r.ID,
		Name:        r.Name,
		Price:       r.Price,
		Status:      r.Status,
		OptionCount: r.OptionCount,
		CreatedAt:   r.CreatedAt,
	}
}
