package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creamcommerce/commerce-backend/pkg/enums"
)

// CreateOrderInput holds the validated payload to place an order.
type CreateOrderInput struct {
	UserID          uuid.UUID
	ShippingAddress string
	Items           []CreateOrderItemInput
}

// CreateOrderItemInput selects one product option and a quantity.
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	OptionID  uuid.UUID
	Quantity  int
}

// LifecycleAction names a guarded order transition requested over the API.
type LifecycleAction string

const (
	ActionProcessShipping LifecycleAction = "process_shipping"
	ActionShip            LifecycleAction = "ship"
	ActionDeliver         LifecycleAction = "deliver"
	ActionComplete        LifecycleAction = "complete"
	ActionRequestRefund   LifecycleAction = "request_refund"
	ActionRefund          LifecycleAction = "refund"
)

// ItemDTO is the API shape of one immutable order line.
type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	OptionID    uuid.UUID       `json:"option_id"`
	ProductName string          `json:"product_name"`
	OptionName  string          `json:"option_name"`
	SKU         string          `json:"sku"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the API shape of an order with its items.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	UserID          uuid.UUID         `json:"user_id"`
	Status          enums.OrderStatus `json:"status"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	ShippingAddress string            `json:"shipping_address"`
	Items           []ItemDTO         `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// OrderSummary is the condensed row returned by the order list.
type OrderSummary struct {
	ID          uuid.UUID         `json:"id"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	ItemCount   int               `json:"item_count"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderList wraps paginated order summaries plus the next cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
