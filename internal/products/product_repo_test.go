package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/creamcommerce/commerce-backend/pkg/db/models"
	"github.com/creamcommerce/commerce-backend/pkg/enums"
	"github.com/creamcommerce/commerce-backend/pkg/pagination"
)

func seedProduct(t *testing.T, repo *Repository, name string, createdAt time.Time, optionQty int) *models.Product {
	t.Helper()
	productID := uuid.New()
	optionID := uuid.New()
	product := &models.Product{
		ID:     productID,
		Name:   name,
		Price:  decimal.NewFromInt(1000),
		Status: enums.ProductStatusActive,
		Options: []models.ProductOption{{
			ID:        optionID,
			ProductID: productID,
			Name:      "Default",
			SKU:       name + "-001",
			Status:    enums.OptionStatusActive,
			Inventory: models.NewInventory(optionID, optionQty, 5),
		}},
		CreatedAt: createdAt,
	}
	_, err := repo.CreateProduct(context.Background(), product)
	require.NoError(t, err)
	return product
}

func TestRepositoryFindByIDPreloadsInventory(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewRepository(db)

	seeded := seedProduct(t, repo, "Matcha Cream", time.Now().UTC(), 12)

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Len(t, found.Options, 1)
	require.NotNil(t, found.Options[0].Inventory)
	assert.Equal(t, 12, found.Options[0].Inventory.Quantity)
	assert.Equal(t, enums.InventoryStatusNormal, found.Options[0].Inventory.Status)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindInventoryForUpdate(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewRepository(db)

	seeded := seedProduct(t, repo, "Vanilla Cream", time.Now().UTC(), 3)
	optionID := seeded.Options[0].ID

	err := db.Transaction(func(tx *gorm.DB) error {
		inventory, err := repo.WithTx(tx).FindInventoryForUpdate(context.Background(), optionID)
		if err != nil {
			return err
		}
		if err := inventory.DecreaseQuantity(1); err != nil {
			return err
		}
		return repo.WithTx(tx).SaveInventory(context.Background(), inventory)
	})
	require.NoError(t, err)

	inventory, err := repo.FindInventoryForUpdate(context.Background(), optionID)
	require.NoError(t, err)
	assert.Equal(t, 2, inventory.Quantity)
	assert.Equal(t, enums.InventoryStatusLow, inventory.Status)
}

func TestRepositoryList_pagination(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	seedProduct(t, repo, "Oldest", now.Add(-2*time.Hour), 1)
	seedProduct(t, repo, "Middle", now.Add(-time.Hour), 1)
	seedProduct(t, repo, "Newest", now, 1)

	first, err := repo.List(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Products, 2)
	assert.NotEmpty(t, first.NextCursor)
	assert.Equal(t, "Newest", first.Products[0].Name)
	assert.Equal(t, "Middle", first.Products[1].Name)
	assert.Equal(t, 1, first.Products[0].OptionCount)

	second, err := repo.List(context.Background(), pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Empty(t, second.NextCursor)
	assert.Equal(t, "Oldest", second.Products[0].Name)
}
