package points

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/creamcommerce/commerce-backend/pkg/db/models"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
	"github.com/creamcommerce/commerce-backend/pkg/pagination"
)

type stubWalletRepo struct {
	wallet  *models.Wallet
	entries []*models.WalletEntry
	saved   bool
	created bool
}

func (s *stubWalletRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubWalletRepo) Create(ctx context.Context, wallet *models.Wallet) (*models.Wallet, error) {
	s.wallet = wallet
	s.created = true
	return wallet, nil
}

func (s *stubWalletRepo) Save(ctx context.Context, wallet *models.Wallet) error {
	s.saved = true
	return nil
}

func (s *stubWalletRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if s.wallet == nil || s.wallet.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.wallet, nil
}

func (s *stubWalletRepo) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.FindByUserID(ctx, userID)
}

func (s *stubWalletRepo) CreateEntry(ctx context.Context, entry *models.WalletEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubWalletRepo) ListEntries(ctx context.Context, walletID uuid.UUID, params pagination.Params) (*EntryList, error) {
	entries := make([]EntrySummary, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.WalletID != walletID {
			continue
		}
		entries = append(entries, EntrySummary{ID: entry.ID, Type: entry.Type, Amount: entry.Amount, Balance: entry.Balance})
	}
	return &EntryList{Entries: entries}, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestChargeCreatesWalletOnFirstUse(t *testing.T) {
	repo := &stubWalletRepo{}
	svc, err := NewService(repo, stubTxRunner{})
	require.NoError(t, err)

	userID := uuid.New()
	balance, err := svc.Charge(context.Background(), userID, decimal.NewFromInt(500))
	require.NoError(t, err)

	assert.True(t, repo.created)
	assert.True(t, repo.saved)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, userID, balance.UserID)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(500)))
}

func TestChargeAppendsToExistingWallet(t *testing.T) {
	userID := uuid.New()
	wallet := models.NewWallet(userID)
	_, err := wallet.Charge(decimal.NewFromInt(100))
	require.NoError(t, err)

	repo := &stubWalletRepo{wallet: wallet}
	svc, err := NewService(repo, stubTxRunner{})
	require.NoError(t, err)

	balance, err := svc.Charge(context.Background(), userID, decimal.NewFromInt(50))
	require.NoError(t, err)

	assert.False(t, repo.created)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(150)))
}

func TestChargeRejectsInvalidAmount(t *testing.T) {
	svc, err := NewService(&stubWalletRepo{}, stubTxRunner{})
	require.NoError(t, err)

	_, err = svc.Charge(context.Background(), uuid.New(), decimal.Zero)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUseSpendsBalance(t *testing.T) {
	userID := uuid.New()
	wallet := models.NewWallet(userID)
	_, err := wallet.Charge(decimal.NewFromInt(200))
	require.NoError(t, err)

	repo := &stubWalletRepo{wallet: wallet}
	svc, err := NewService(repo, stubTxRunner{})
	require.NoError(t, err)

	balance, err := svc.Use(context.Background(), userID, decimal.NewFromInt(80))
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(120)))
	require.Len(t, repo.entries, 1)
	assert.True(t, repo.entries[0].Amount.Equal(decimal.NewFromInt(-80)))
}

func TestUseRejectsOverdraft(t *testing.T) {
	userID := uuid.New()
	wallet := models.NewWallet(userID)
	_, err := wallet.Charge(decimal.NewFromInt(50))
	require.NoError(t, err)

	svc, err := NewService(&stubWalletRepo{wallet: wallet}, stubTxRunner{})
	require.NoError(t, err)

	_, err = svc.Use(context.Background(), userID, decimal.NewFromInt(51))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestUseWithoutWalletIsNotFound(t *testing.T) {
	svc, err := NewService(&stubWalletRepo{}, stubTxRunner{})
	require.NoError(t, err)

	_, err = svc.Use(context.Background(), uuid.New(), decimal.NewFromInt(10))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestGetBalanceNotFound(t *testing.T) {
	svc, err := NewService(&stubWalletRepo{}, stubTxRunner{})
	require.NoError(t, err)

	_, err = svc.GetBalance(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestHistoryReturnsLedger(t *testing.T) {
	userID := uuid.New()
	wallet := models.NewWallet(userID)
	entry, err := wallet.Charge(decimal.NewFromInt(100))
	require.NoError(t, err)

	repo := &stubWalletRepo{wallet: wallet, entries: []*models.WalletEntry{entry}}
	svc, err := NewService(repo, stubTxRunner{})
	require.NoError(t, err)

	list, err := svc.History(context.Background(), userID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.True(t, list.Entries[0].Amount.Equal(decimal.NewFromInt(100)))
}
