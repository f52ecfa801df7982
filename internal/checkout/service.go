package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/creamcommerce/commerce-backend/internal/orders"
	"github.com/creamcommerce/commerce-backend/internal/payments"
	"github.com/creamcommerce/commerce-backend/internal/points"
	product "github.com/creamcommerce/commerce-backend/internal/products"
	dbpkg "github.com/creamcommerce/commerce-backend/pkg/db"
	"github.com/creamcommerce/commerce-backend/pkg/db/models"
	"github.com/creamcommerce/commerce-backend/pkg/enums"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
	"github.com/creamcommerce/commerce-backend/pkg/logger"
	"github.com/creamcommerce/commerce-backend/pkg/metrics"
	"github.com/creamcommerce/commerce-backend/pkg/outbox"
	"github.com/creamcommerce/commerce-backend/pkg/outbox/payloads"
	"github.com/creamcommerce/commerce-backend/pkg/redis"
)

const (
	sagaProcessPayment = "process_payment"
	sagaCancelOrder    = "cancel_order"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// rankingStore is the slice of the cache client used to keep the sales
// ranking warm. Optional; a nil store disables ranking updates.
type rankingStore interface {
	IncrementRanking(ctx context.Context, ranking, productID string, delta float64) error
}

// Service runs the two multi-aggregate flows of the shop: paying for an
// order and unwinding one. Each call is a single database transaction
// over the order, its payment, the buyer's wallet and the item stock.
type Service interface {
	ProcessPayment(ctx context.Context, orderID uuid.UUID) (*ProcessPaymentResult, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*CancelOrderResult, error)
}

type service struct {
	orders   orders.Repository
	payments payments.Repository
	wallets  points.Repository
	catalog  *product.Repository
	tx       txRunner
	outbox   outboxPublisher
	ranking  rankingStore
	sagas    *metrics.SagaMetrics
	logg     *logger.Logger
}

// NewService builds the checkout saga service. Ranking, metrics and the
// logger may be nil.
func NewService(
	orderRepo orders.Repository,
	paymentRepo payments.Repository,
	walletRepo points.Repository,
	catalog *product.Repository,
	tx txRunner,
	ob outboxPublisher,
	ranking rankingStore,
	sagas *metrics.SagaMetrics,
	logg *logger.Logger,
) (Service, error) {
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if paymentRepo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if walletRepo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		orders:   orderRepo,
		payments: paymentRepo,
		wallets:  walletRepo,
		catalog:  catalog,
		tx:       tx,
		outbox:   ob,
		ranking:  ranking,
		sagas:    sagas,
		logg:     logg,
	}, nil
}

// ProcessPayment charges the buyer's wallet and reserves stock for a
// PENDING order. Declines (insufficient balance, insufficient stock,
// missing wallet) commit a FAILED payment plus failure record and come
// back as Success=false. Unexpected errors roll the transaction back,
// then a short follow-up transaction records the failed attempt and the
// call still comes back as Success=false; only precondition errors
// (bad id, unknown order, state conflicts) return an error.
func (s *service) ProcessPayment(ctx context.Context, orderID uuid.UUID) (*ProcessPaymentResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	start := time.Now()
	var result *ProcessPaymentResult
	var soldUnits map[uuid.UUID]int

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)
		paymentRepo := s.payments.WithTx(tx)
		walletRepo := s.wallets.WithTx(tx)
		catalog := s.catalog.WithTx(tx)

		order, err := orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.IsPending() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
		}

		payment, reused, err := paymentForOrder(ctx, paymentRepo, order)
		if err != nil {
			return err
		}
		if err := payment.Process(); err != nil {
			return err
		}

		decline := func(reason string) error {
			failure, ferr := payment.Fail(reason)
			if ferr != nil {
				return ferr
			}
			if err := persistPayment(ctx, paymentRepo, payment, reused); err != nil {
				return err
			}
			if err := paymentRepo.CreateFailure(ctx, failure); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment failure")
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventPaymentFailed,
				AggregateType: enums.AggregatePayment,
				AggregateID:   payment.ID,
				Actor:         &outbox.ActorRef{UserID: order.UserID},
				Data: payloads.PaymentFailedEvent{
					OrderID:   order.ID,
					PaymentID: payment.ID,
					Reason:    reason,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue event")
			}
			result = &ProcessPaymentResult{Success: false, PaymentID: payment.ID, Message: reason}
			return nil
		}

		wallet, err := walletRepo.FindByUserIDForUpdate(ctx, order.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return decline("wallet not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
		}
		entry, err := wallet.Use(order.TotalAmount)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
				return decline("insufficient balance")
			}
			return err
		}

		units := make(map[uuid.UUID]int, len(order.Items))
		inventories := make([]*models.Inventory, 0, len(order.Items))
		for i := range order.Items {
			item := order.Items[i]
			inventory, err := catalog.FindInventoryForUpdate(ctx, item.OptionID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return decline("no inventory for " + item.SKU)
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
			}
			if err := inventory.DecreaseQuantity(item.Quantity); err != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
					return decline("insufficient stock for " + item.SKU)
				}
				return err
			}
			inventories = append(inventories, inventory)
			units[item.ProductID] += item.Quantity
		}

		if err := walletRepo.Save(ctx, wallet); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wallet")
		}
		if err := walletRepo.CreateEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record wallet entry")
		}
		for _, inventory := range inventories {
			if err := catalog.SaveInventory(ctx, inventory); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save inventory")
			}
		}

		if err := payment.Complete(); err != nil {
			return err
		}
		if err := order.Pay(); err != nil {
			return err
		}
		if err := persistPayment(ctx, paymentRepo, payment, reused); err != nil {
			return err
		}
		if err := orderRepo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: order.UserID},
			Data: payloads.OrderPaidEvent{
				OrderID:   order.ID,
				UserID:    order.UserID,
				PaymentID: payment.ID,
				Amount:    order.TotalAmount,
				PaidAt:    time.Now(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue event")
		}

		soldUnits = units
		result = &ProcessPaymentResult{Success: true, PaymentID: payment.ID, Message: "payment completed"}
		return nil
	})

	s.sagas.ObserveDuration(sagaProcessPayment, time.Since(start))
	if err != nil {
		s.sagas.IncFailure(sagaProcessPayment, failureLabel(err))
		if !abortsPayment(err) {
			return nil, err
		}
		// Unexpected failures stop at this boundary. The attempt is
		// recorded as a FAILED payment and reported as a failure
		// result, never as an escaping error.
		paymentID := s.recordAbortedPayment(ctx, orderID, err)
		return &ProcessPaymentResult{
			Success:   false,
			PaymentID: paymentID,
			Message:   failureMessage(err),
		}, nil
	}
	if !result.Success {
		s.sagas.IncFailure(sagaProcessPayment, "declined")
		return result, nil
	}
	s.sagas.IncSuccess(sagaProcessPayment)
	s.bumpSalesRanking(ctx, soldUnits)
	return result, nil
}

// CancelOrder unwinds a PENDING or PAID order. For paid orders it
// refunds the payment, returns the amount to the buyer's wallet and
// restores the reserved stock, all in the same transaction that cancels
// the order.
func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID) (*CancelOrderResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	start := time.Now()
	var result *CancelOrderResult
	var restockedUnits map[uuid.UUID]int

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)
		paymentRepo := s.payments.WithTx(tx)
		walletRepo := s.wallets.WithTx(tx)
		catalog := s.catalog.WithTx(tx)

		order, err := orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.IsPending() && !order.IsPaid() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be canceled")
		}

		refunded := decimal.Zero
		if order.IsPaid() {
			payment, err := paymentRepo.FindActiveByOrderID(ctx, order.ID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeInternal, "paid order has no active payment")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
			}
			if err := payment.RequestRefund(); err != nil {
				return err
			}
			if err := payment.Refund(); err != nil {
				return err
			}
			if err := paymentRepo.Save(ctx, payment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
			}

			wallet, err := walletRepo.FindByUserIDForUpdate(ctx, order.UserID)
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
				}
				wallet, err = walletRepo.Create(ctx, models.NewWallet(order.UserID))
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wallet")
				}
			}
			entry, err := wallet.Charge(order.TotalAmount)
			if err != nil {
				return err
			}
			if err := walletRepo.Save(ctx, wallet); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wallet")
			}
			if err := walletRepo.CreateEntry(ctx, entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record wallet entry")
			}

			units := make(map[uuid.UUID]int, len(order.Items))
			for i := range order.Items {
				item := order.Items[i]
				inventory, err := catalog.FindInventoryForUpdate(ctx, item.OptionID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
				}
				if err := inventory.IncreaseQuantity(item.Quantity); err != nil {
					return err
				}
				if err := catalog.SaveInventory(ctx, inventory); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save inventory")
				}
				units[item.ProductID] += item.Quantity
			}
			restockedUnits = units
			refunded = order.TotalAmount
		} else {
			// A pending order may carry a READY payment from an
			// earlier retry; close it out so the slot frees up.
			payment, err := paymentRepo.FindActiveByOrderID(ctx, order.ID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
			}
			if err == nil {
				if cerr := payment.Cancel(); cerr != nil {
					return cerr
				}
				if serr := paymentRepo.Save(ctx, payment); serr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, serr, "save payment")
				}
			}
		}

		if err := order.Cancel(); err != nil {
			return err
		}
		if err := orderRepo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: order.UserID},
			Data: payloads.OrderCanceledEvent{
				OrderID:        order.ID,
				UserID:         order.UserID,
				RefundedAmount: refunded,
				CanceledAt:     time.Now(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue event")
		}

		result = &CancelOrderResult{OrderID: order.ID, RefundedAmount: refunded}
		return nil
	})

	s.sagas.ObserveDuration(sagaCancelOrder, time.Since(start))
	if err != nil {
		s.sagas.IncFailure(sagaCancelOrder, failureLabel(err))
		return nil, err
	}
	s.sagas.IncSuccess(sagaCancelOrder)
	s.unwindSalesRanking(ctx, restockedUnits)
	return result, nil
}

// paymentForOrder reuses a READY payment left behind by a retry, or
// starts a fresh one. Any other active payment blocks the attempt.
// Reusing READY is what makes Retry work: Retry resets a FAILED
// payment to READY, and treating that row as a conflict here would
// dead-end every retried order. Only PROCESSING and COMPLETED block.
func paymentForOrder(ctx context.Context, repo payments.Repository, order *models.Order) (*models.Payment, bool, error) {
	existing, err := repo.FindActiveByOrderID(ctx, order.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewPayment(order.ID, order.TotalAmount), false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if existing.Status != enums.PaymentStatusReady {
		return nil, false, pkgerrors.New(pkgerrors.CodeConflict, "order already has an active payment")
	}
	return existing, true, nil
}

func persistPayment(ctx context.Context, repo payments.Repository, payment *models.Payment, reused bool) error {
	if reused {
		if err := repo.Save(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
		}
		return nil
	}
	if _, err := repo.Create(ctx, payment); err != nil {
		if dbpkg.IsUniqueViolation(err, "uq_payments_active_order") {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already has an active payment")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}
	return nil
}

// abortsPayment reports whether an error from the saga transaction is
// an unexpected failure rather than a precondition. Preconditions
// (validation, not found, conflicts) propagate to the caller as typed
// errors; everything else aborts the attempt and is contained as a
// failure result.
func abortsPayment(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return true
	}
	switch typed.Code() {
	case pkgerrors.CodeInternal, pkgerrors.CodeDependency:
		return true
	default:
		return false
	}
}

// failureMessage picks the message surfaced on a contained failure
// result and persisted as the failure reason.
func failureMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}

// recordAbortedPayment leaves a FAILED payment behind after an
// unexpected rollback so the attempt is visible and retryable, and
// returns its id. Best effort: if the order is no longer pending or
// another payment appeared in the meantime, nothing is recorded and
// uuid.Nil comes back. Business outcomes never reach here; they
// commit inside the saga itself.
func (s *service) recordAbortedPayment(ctx context.Context, orderID uuid.UUID, cause error) uuid.UUID {
	var paymentID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)
		paymentRepo := s.payments.WithTx(tx)

		order, err := orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.IsPending() {
			return nil
		}
		if _, err := paymentRepo.FindActiveByOrderID(ctx, order.ID); err == nil {
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		payment := models.NewPayment(order.ID, order.TotalAmount)
		if err := payment.Process(); err != nil {
			return err
		}
		failure, err := payment.Fail(failureMessage(cause))
		if err != nil {
			return err
		}
		if _, err := paymentRepo.Create(ctx, payment); err != nil {
			return err
		}
		if err := paymentRepo.CreateFailure(ctx, failure); err != nil {
			return err
		}
		paymentID = payment.ID
		return nil
	})
	if err != nil && s.logg != nil {
		s.logg.Error(ctx, "record failed payment attempt", err)
	}
	return paymentID
}

func (s *service) bumpSalesRanking(ctx context.Context, units map[uuid.UUID]int) {
	s.adjustSalesRanking(ctx, units, 1)
}

func (s *service) unwindSalesRanking(ctx context.Context, units map[uuid.UUID]int) {
	s.adjustSalesRanking(ctx, units, -1)
}

// adjustSalesRanking runs after commit; the cache is not part of the
// transaction, so failures are logged and swallowed.
func (s *service) adjustSalesRanking(ctx context.Context, units map[uuid.UUID]int, sign float64) {
	if s.ranking == nil {
		return
	}
	for productID, quantity := range units {
		err := s.ranking.IncrementRanking(ctx, redis.RankingKeySales, productID.String(), sign*float64(quantity))
		if err != nil && s.logg != nil {
			logCtx := s.logg.WithField(ctx, "product_id", productID.String())
			s.logg.Warn(logCtx, "sales ranking update failed")
		}
	}
}

func failureLabel(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "internal"
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation:
		return "validation"
	case pkgerrors.CodeNotFound:
		return "not_found"
	case pkgerrors.CodeConflict:
		return "conflict"
	case pkgerrors.CodeStateConflict:
		return "state_conflict"
	case pkgerrors.CodeDependency:
		return "dependency"
	default:
		return "internal"
	}
}
