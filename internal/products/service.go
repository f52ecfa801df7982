package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/creamcommerce/commerce-backend/pkg/db/models"
	"github.com/creamcommerce/commerce-backend/pkg/enums"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
	"github.com/creamcommerce/commerce-backend/pkg/pagination"
	"github.com/creamcommerce/commerce-backend/pkg/redis"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type rankingStore interface {
	TopRanked(ctx context.Context, ranking string, limit int64) ([]redis.RankedProduct, error)
}

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, params pagination.Params) (*ProductList, error)
	AddOption(ctx context.Context, productID uuid.UUID, input CreateOptionInput) (*ProductDTO, error)
	UpdateProductStatus(ctx context.Context, id uuid.UUID, status enums.ProductStatus) error
	UpdateOptionStatus(ctx context.Context, productID, optionID uuid.UUID, status enums.OptionStatus) error
	AdjustStock(ctx context.Context, optionID uuid.UUID, delta int) error
	TopProducts(ctx context.Context, limit int64) ([]TopProduct, error)
}

type service struct {
	repo    *Repository
	tx      txRunner
	ranking rankingStore
}

// NewService builds a catalog service. The ranking store is optional;
// without it TopProducts returns an empty list.
func NewService(repo *Repository, tx txRunner, ranking rankingStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, ranking: ranking}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}
	if len(input.Options) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one option required")
	}
	for _, option := range input.Options {
		if strings.TrimSpace(option.Name) == "" || strings.TrimSpace(option.SKU) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "option name and sku required")
		}
		if option.AdditionalPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "option additional price cannot be negative")
		}
		if option.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "option quantity cannot be negative")
		}
	}

	product := &models.Product{
		ID:     uuid.New(),
		Name:   strings.TrimSpace(input.Name),
		Price:  input.Price,
		Status: enums.ProductStatusActive,
	}
	for _, option := range input.Options {
		optionID := uuid.New()
		product.Options = append(product.Options, models.ProductOption{
			ID:              optionID,
			ProductID:       product.ID,
			Name:            strings.TrimSpace(option.Name),
			SKU:             strings.TrimSpace(option.SKU),
			AdditionalPrice: option.AdditionalPrice,
			Status:          enums.OptionStatusActive,
			Inventory:       models.NewInventory(optionID, option.Quantity, option.LowStockThreshold),
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toProductDTO(product), nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return toProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params) (*ProductList, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

func (s *service) AddOption(ctx context.Context, productID uuid.UUID, input CreateOptionInput) (*ProductDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.SKU) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "option name and sku required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "option quantity cannot be negative")
	}

	var result *ProductDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.Status == enums.ProductStatusDiscontinued {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot add options to a discontinued product")
		}

		optionID := uuid.New()
		option := &models.ProductOption{
			ID:              optionID,
			ProductID:       product.ID,
			Name:            strings.TrimSpace(input.Name),
			SKU:             strings.TrimSpace(input.SKU),
			AdditionalPrice: input.AdditionalPrice,
			Status:          enums.OptionStatusActive,
			Inventory:       models.NewInventory(optionID, input.Quantity, input.LowStockThreshold),
		}
		if _, err := repo.CreateOption(ctx, option); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create option")
		}

		product.Options = append(product.Options, *option)
		result = toProductDTO(product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) UpdateProductStatus(ctx context.Context, id uuid.UUID, status enums.ProductStatus) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.Status == enums.ProductStatusDiscontinued {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "discontinued products cannot change status")
		}
		product.Status = status
		if err := repo.SaveProduct(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product")
		}
		return nil
	})
}

func (s *service) UpdateOptionStatus(ctx context.Context, productID, optionID uuid.UUID, status enums.OptionStatus) error {
	if productID == uuid.Nil || optionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product and option ids required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		option, err := repo.FindOptionByID(ctx, optionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "option not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load option")
		}
		if option.ProductID != productID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "option does not belong to product")
		}
		option.Status = status
		if err := repo.SaveOption(ctx, option); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save option")
		}
		return nil
	})
}

// AdjustStock applies a signed stock delta to the option's inventory.
func (s *service) AdjustStock(ctx context.Context, optionID uuid.UUID, delta int) error {
	if optionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "option id required")
	}
	if delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock delta cannot be zero")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		inventory, err := repo.FindInventoryForUpdate(ctx, optionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
		}
		if delta > 0 {
			err = inventory.IncreaseQuantity(delta)
		} else {
			err = inventory.DecreaseQuantity(-delta)
		}
		if err != nil {
			return err
		}
		if err := repo.SaveInventory(ctx, inventory); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save inventory")
		}
		return nil
	})
}

// TopProducts joins the redis sales ranking with catalog rows.
func (s *service) TopProducts(ctx context.Context, limit int64) ([]TopProduct, error) {
	if s.ranking == nil {
		return []TopProduct{}, nil
	}
	ranked, err := s.ranking.TopRanked(ctx, redis.RankingKeySales, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ranking")
	}
	if len(ranked) == 0 {
		return []TopProduct{}, nil
	}

	ids := make([]uuid.UUID, 0, len(ranked))
	for _, entry := range ranked {
		id, err := uuid.Parse(entry.ProductID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	rows, err := s.repo.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ranked products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}

	top := make([]TopProduct, 0, len(ranked))
	for _, entry := range ranked {
		id, err := uuid.Parse(entry.ProductID)
		if err != nil {
			continue
		}
		row, ok := byID[id]
		if !ok {
			continue
		}
		top = append(top, TopProduct{
			ProductID: id,
			Name:      row.Name,
			Price:     row.Price,
			SoldUnits: int64(entry.Score),
		})
	}
	return top, nil
}

func toProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Status:    product.Status,
		CreatedAt: product.CreatedAt,
		Options:   make([]OptionDTO, 0, len(product.Options)),
	}
	for _, option := range product.Options {
		entry := OptionDTO{
			ID:              option.ID,
			Name:            option.Name,
			SKU:             option.SKU,
			AdditionalPrice: option.AdditionalPrice,
			Status:          option.Status,
		}
		if option.Inventory != nil {
			entry.Quantity = option.Inventory.Quantity
			entry.StockStatus = option.Inventory.Status
		}
		dto.Options = append(dto.Options, entry)
	}
	return dto
}
