package points

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/creamcommerce/commerce-backend/pkg/db/models"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
	"github.com/creamcommerce/commerce-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines wallet operations exposed over the API.
type Service interface {
	Charge(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*Balance, error)
	Use(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*Balance, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (*Balance, error)
	History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*EntryList, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a wallet service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Charge tops up the user's wallet, creating it on first use.
func (s *service) Charge(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*Balance, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var result *Balance
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet, err := repo.FindByUserIDForUpdate(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
			}
			wallet, err = repo.Create(ctx, models.NewWallet(userID))
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wallet")
			}
		}

		entry, err := wallet.Charge(amount)
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, wallet); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wallet")
		}
		if err := repo.CreateEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger entry")
		}

		result = &Balance{WalletID: wallet.ID, UserID: wallet.UserID, Balance: wallet.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Use spends points from the user's wallet. Unlike Charge it never
// creates a wallet; spending from a missing wallet is a not-found.
func (s *service) Use(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*Balance, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var result *Balance
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet, err := repo.FindByUserIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
		}

		entry, err := wallet.Use(amount)
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, wallet); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wallet")
		}
		if err := repo.CreateEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger entry")
		}

		result = &Balance{WalletID: wallet.ID, UserID: wallet.UserID, Balance: wallet.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetBalance returns the wallet snapshot for the user.
func (s *service) GetBalance(ctx context.Context, userID uuid.UUID) (*Balance, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	wallet, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return &Balance{WalletID: wallet.ID, UserID: wallet.UserID, Balance: wallet.Balance}, nil
}

// History returns the wallet ledger, newest entries first.
func (s *service) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (*EntryList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	wallet, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	list, err := s.repo.ListEntries(ctx, wallet.ID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return list, nil
}
