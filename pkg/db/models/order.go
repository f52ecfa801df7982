package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creamcommerce/commerce-backend/pkg/enums"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
)

// Order is the buyer-facing aggregate. Its item list and total amount are
// fixed at creation; only the status field moves afterwards.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric;not null"`
	ShippingAddress string            `gorm:"column:shipping_address;not null"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots one purchased option. All fields are immutable once
// the order exists; product and option are referenced by id only.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	OptionID    uuid.UUID       `gorm:"column:option_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	OptionName  string          `gorm:"column:option_name;not null"`
	SKU         string          `gorm:"column:sku;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// Subtotal returns unit price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrder builds a PENDING order, computing the total amount once from
// the supplied items. The total is never recomputed afterwards.
func NewOrder(userID uuid.UUID, items []OrderItem, shippingAddress string) (*Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	orderID := uuid.New()
	total := decimal.Zero
	for i := range items {
		if items[i].Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order item quantity must be positive")
		}
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].OrderID = orderID
		total = total.Add(items[i].Subtotal())
	}
	return &Order{
		ID:              orderID,
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		TotalAmount:     total,
		ShippingAddress: shippingAddress,
		Items:           items,
	}, nil
}

func (o *Order) transition(to enums.OrderStatus, allowedFrom ...enums.OrderStatus) error {
	for _, from := range allowedFrom {
		if o.Status == from {
			o.Status = to
			o.UpdatedAt = time.Now()
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		"order cannot move from "+o.Status.String()+" to "+to.String())
}

// Pay marks the order paid. Requires PENDING.
func (o *Order) Pay() error {
	return o.transition(enums.OrderStatusPaid, enums.OrderStatusPending)
}

// Cancel terminates the order. Requires PENDING or PAID.
func (o *Order) Cancel() error {
	return o.transition(enums.OrderStatusCanceled, enums.OrderStatusPending, enums.OrderStatusPaid)
}

// ProcessShipping starts fulfillment. Requires PAID.
func (o *Order) ProcessShipping() error {
	return o.transition(enums.OrderStatusProcessing, enums.OrderStatusPaid)
}

// Ship marks the order handed to the carrier. Requires PROCESSING.
func (o *Order) Ship() error {
	return o.transition(enums.OrderStatusShipped, enums.OrderStatusProcessing)
}

// Deliver marks the order received. Requires SHIPPED.
func (o *Order) Deliver() error {
	return o.transition(enums.OrderStatusDelivered, enums.OrderStatusShipped)
}

// Complete closes the order. Requires DELIVERED.
func (o *Order) Complete() error {
	return o.transition(enums.OrderStatusCompleted, enums.OrderStatusDelivered)
}

// RequestRefund opens the refund flow. Requires PAID, PROCESSING or SHIPPED.
func (o *Order) RequestRefund() error {
	return o.transition(enums.OrderStatusRefunding,
		enums.OrderStatusPaid, enums.OrderStatusProcessing, enums.OrderStatusShipped)
}

// Refund finishes the refund flow. Requires REFUNDING.
func (o *Order) Refund() error {
	return o.transition(enums.OrderStatusRefunded, enums.OrderStatusRefunding)
}

// IsPending reports whether the order still awaits payment.
func (o *Order) IsPending() bool {
	return o.Status == enums.OrderStatusPending
}

// IsPaid reports whether the order has a completed payment.
func (o *Order) IsPaid() bool {
	return o.Status == enums.OrderStatusPaid
}
