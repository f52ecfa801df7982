package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/creamcommerce/commerce-backend/pkg/db/models"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes read and retry operations on payments. Creating and
// completing payments happens inside the checkout saga, never here.
type Service interface {
	GetPayment(ctx context.Context, id uuid.UUID) (*PaymentDTO, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*PaymentDTO, error)
	Retry(ctx context.Context, id uuid.UUID) (*PaymentDTO, error)
	ListFailures(ctx context.Context, paymentID uuid.UUID) ([]FailureDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a payments service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) GetPayment(ctx context.Context, id uuid.UUID) (*PaymentDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return toPaymentDTO(payment), nil
}

func (s *service) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*PaymentDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	payment, err := s.repo.FindActiveByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active payment for order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return toPaymentDTO(payment), nil
}

// Retry moves a failed payment back to READY so the checkout saga can
// run it again. Refuses when the order already has another active
// payment.
func (s *service) Retry(ctx context.Context, id uuid.UUID) (*PaymentDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	var result *PaymentDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}

		if _, err := repo.FindActiveByOrderID(ctx, payment.OrderID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already has an active payment")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active payment")
		}

		if err := payment.Retry(); err != nil {
			return err
		}
		if err := repo.Save(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
		}
		result = toPaymentDTO(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ListFailures(ctx context.Context, paymentID uuid.UUID) ([]FailureDTO, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if _, err := s.repo.FindByID(ctx, paymentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	failures, err := s.repo.ListFailures(ctx, paymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list failures")
	}
	dtos := make([]FailureDTO, 0, len(failures))
	for _, failure := range failures {
		dtos = append(dtos, FailureDTO{
			ID:        failure.ID,
			PaymentID: failure.PaymentID,
			Reason:    failure.Reason,
			CreatedAt: failure.CreatedAt,
		})
	}
	return dtos, nil
}

func toPaymentDTO(payment *models.Payment) *PaymentDTO {
	return &PaymentDTO{
		ID:        payment.ID,
		OrderID:   payment.OrderID,
		Amount:    payment.Amount,
		Status:    payment.Status,
		CreatedAt: payment.CreatedAt,
		UpdatedAt: payment.UpdatedAt,
	}
}
