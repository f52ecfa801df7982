package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/creamcommerce/commerce-backend/pkg/db/models"
	"github.com/creamcommerce/commerce-backend/pkg/enums"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
	"github.com/creamcommerce/commerce-backend/pkg/outbox"
	"github.com/creamcommerce/commerce-backend/pkg/outbox/payloads"
	"github.com/creamcommerce/commerce-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// productCatalog is the slice of the catalog repository the order flow
// needs to snapshot line items.
type productCatalog interface {
	FindManyByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Service defines buyer-facing order operations. Payment and
// cancellation run through the checkout saga, not here.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ApplyLifecycleAction(ctx context.Context, id uuid.UUID, action LifecycleAction) (*OrderDTO, error)
}

type service struct {
	repo    Repository
	catalog productCatalog
	tx      txRunner
	outbox  outboxPublisher
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, catalog productCatalog, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, catalog: catalog, tx: tx, outbox: outbox}, nil
}

// CreateOrder validates the requested options against the catalog,
// snapshots names and prices into immutable line items and persists the
// PENDING order. Stock is not touched here; the payment saga reserves it.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}

	productIDs := make([]uuid.UUID, 0, len(input.Items))
	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil || item.OptionID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and option ids required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if _, ok := seen[item.ProductID]; !ok {
			seen[item.ProductID] = struct{}{}
			productIDs = append(productIDs, item.ProductID)
		}
	}

	products, err := s.catalog.FindManyByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if !product.IsAvailable() {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
		}
		option := product.OptionByID(item.OptionID)
		if option == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product option not found")
		}
		if option.Status != enums.OptionStatusActive {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product option is not active")
		}
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			OptionID:    option.ID,
			ProductName: product.Name,
			OptionName:  option.Name,
			SKU:         option.SKU,
			UnitPrice:   product.Price.Add(option.AdditionalPrice),
			Quantity:    item.Quantity,
		})
	}

	order, err := models.NewOrder(input.UserID, items, strings.TrimSpace(input.ShippingAddress))
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: order.UserID},
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				UserID:      order.UserID,
				TotalAmount: order.TotalAmount,
				ItemCount:   len(order.Items),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return toOrderDTO(order), nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return toOrderDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// ApplyLifecycleAction runs one guarded fulfillment transition. Monetary
// compensation never happens here; canceling and refunding money is the
// checkout saga's job.
func (s *service) ApplyLifecycleAction(ctx context.Context, id uuid.UUID, action LifecycleAction) (*OrderDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var result *OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		var event *outbox.DomainEvent
		switch action {
		case ActionProcessShipping:
			err = order.ProcessShipping()
		case ActionShip:
			err = order.Ship()
		case ActionDeliver:
			err = order.Deliver()
		case ActionComplete:
			if err = order.Complete(); err == nil {
				event = &outbox.DomainEvent{
					EventType:     enums.EventOrderCompleted,
					AggregateType: enums.AggregateOrder,
					AggregateID:   order.ID,
					Data: payloads.OrderCompletedEvent{
						OrderID:     order.ID,
						UserID:      order.UserID,
						CompletedAt: time.Now(),
					},
				}
			}
		case ActionRequestRefund:
			err = order.RequestRefund()
		case ActionRefund:
			if err = order.Refund(); err == nil {
				event = &outbox.DomainEvent{
					EventType:     enums.EventOrderRefunded,
					AggregateType: enums.AggregateOrder,
					AggregateID:   order.ID,
					Data: payloads.OrderRefundedEvent{
						OrderID:    order.ID,
						UserID:     order.UserID,
						Amount:     order.TotalAmount,
						RefundedAt: time.Now(),
					},
				}
			}
		default:
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown lifecycle action")
		}
		if err != nil {
			return err
		}

		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		if event != nil {
			if err := s.outbox.Emit(ctx, tx, *event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue event")
			}
		}
		result = toOrderDTO(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func toOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		Status:          order.Status,
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		Items:           make([]ItemDTO, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			OptionID:    item.OptionID,
			ProductName: item.ProductName,
			OptionName:  item.OptionName,
			SKU:         item.SKU,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal(),
		})
	}
	return dto
}
