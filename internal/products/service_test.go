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

	"github.com/creamcommerce/commerce-backend/pkg/enums"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
	"github.com/creamcommerce/commerce-backend/pkg/redis"
)

type dbTxRunner struct {
	db *gorm.DB
}

func (r dbTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

type stubRanking struct {
	ranked []redis.RankedProduct
	err    error
}

func (s *stubRanking) TopRanked(ctx context.Context, ranking string, limit int64) ([]redis.RankedProduct, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit > 0 && int64(len(s.ranked)) > limit {
		return s.ranked[:limit], nil
	}
	return s.ranked, nil
}

func newTestService(t *testing.T) (Service, *Repository, *stubRanking) {
	t.Helper()
	db := setupProductTestDB(t)
	repo := NewRepository(db)
	ranking := &stubRanking{}
	svc, err := NewService(repo, dbTxRunner{db: db}, ranking)
	require.NoError(t, err)
	return svc, repo, ranking
}

func TestCreateProductWithOptions(t *testing.T) {
	svc, repo, _ := newTestService(t)

	dto, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:  "Strawberry Cream",
		Price: decimal.NewFromInt(4500),
		Options: []CreateOptionInput{
			{Name: "Small", SKU: "SC-S", Quantity: 20},
			{Name: "Large", SKU: "SC-L", AdditionalPrice: decimal.NewFromInt(500), Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.Len(t, dto.Options, 2)
	assert.Equal(t, enums.ProductStatusActive, dto.Status)
	assert.Equal(t, enums.InventoryStatusNormal, dto.Options[0].StockStatus)
	assert.Equal(t, enums.InventoryStatusLow, dto.Options[1].StockStatus)

	stored, err := repo.FindByID(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Options, 2)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"missing name", CreateProductInput{Price: decimal.NewFromInt(100), Options: []CreateOptionInput{{Name: "A", SKU: "A"}}}},
		{"negative price", CreateProductInput{Name: "X", Price: decimal.NewFromInt(-1), Options: []CreateOptionInput{{Name: "A", SKU: "A"}}}},
		{"no options", CreateProductInput{Name: "X", Price: decimal.NewFromInt(100)}},
		{"option without sku", CreateProductInput{Name: "X", Price: decimal.NewFromInt(100), Options: []CreateOptionInput{{Name: "A"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestAddOptionToProduct(t *testing.T) {
	svc, repo, _ := newTestService(t)

	created := seedProduct(t, repo, "Banana Cream", time.Now().UTC(), 5)

	dto, err := svc.AddOption(context.Background(), created.ID, CreateOptionInput{
		Name: "XL", SKU: "BC-XL", Quantity: 7,
	})
	require.NoError(t, err)
	assert.Len(t, dto.Options, 2)

	err = svc.UpdateProductStatus(context.Background(), created.ID, enums.ProductStatusDiscontinued)
	require.NoError(t, err)

	_, err = svc.AddOption(context.Background(), created.ID, CreateOptionInput{Name: "Y", SKU: "BC-Y"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestUpdateOptionStatusChecksOwnership(t *testing.T) {
	svc, repo, _ := newTestService(t)

	mine := seedProduct(t, repo, "Mine", time.Now().UTC(), 5)
	other := seedProduct(t, repo, "Other", time.Now().UTC(), 5)

	err := svc.UpdateOptionStatus(context.Background(), other.ID, mine.Options[0].ID, enums.OptionStatusInactive)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	require.NoError(t, svc.UpdateOptionStatus(context.Background(), mine.ID, mine.Options[0].ID, enums.OptionStatusInactive))
	option, err := repo.FindOptionByID(context.Background(), mine.Options[0].ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OptionStatusInactive, option.Status)
}

func TestAdjustStock(t *testing.T) {
	svc, repo, _ := newTestService(t)

	created := seedProduct(t, repo, "Choco Cream", time.Now().UTC(), 4)
	optionID := created.Options[0].ID

	require.NoError(t, svc.AdjustStock(context.Background(), optionID, 10))
	inventory, err := repo.FindInventoryForUpdate(context.Background(), optionID)
	require.NoError(t, err)
	assert.Equal(t, 14, inventory.Quantity)

	err = svc.AdjustStock(context.Background(), optionID, -20)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	inventory, err = repo.FindInventoryForUpdate(context.Background(), optionID)
	require.NoError(t, err)
	assert.Equal(t, 14, inventory.Quantity)
}

func TestTopProductsJoinsCatalog(t *testing.T) {
	svc, repo, ranking := newTestService(t)

	first := seedProduct(t, repo, "Leader", time.Now().UTC(), 5)
	second := seedProduct(t, repo, "Runner", time.Now().UTC(), 5)
	ranking.ranked = []redis.RankedProduct{
		{ProductID: first.ID.String(), Score: 42},
		{ProductID: second.ID.String(), Score: 17},
		{ProductID: uuid.NewString(), Score: 5},
	}

	top, err := svc.TopProducts(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Leader", top[0].Name)
	assert.Equal(t, int64(42), top[0].SoldUnits)
	assert.Equal(t, "Runner", top[1].Name)
}

func TestTopProductsWithoutRankingStore(t *testing.T) {
	db := setupProductTestDB(t)
	svc, err := NewService(NewRepository(db), dbTxRunner{db: db}, nil)
	require.NoError(t, err)

	top, err := svc.TopProducts(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}
