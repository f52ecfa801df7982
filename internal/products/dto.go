package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creamcommerce/commerce-backend/pkg/enums"
)

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name    string
	Price   decimal.Decimal
	Options []CreateOptionInput
}

// CreateOptionInput defines one purchasable variant with its starting stock.
type CreateOptionInput struct {
	Name              string
	SKU               string
	AdditionalPrice   decimal.Decimal
	Quantity          int
	LowStockThreshold int
}

// OptionDTO is the API shape of a product option.
type OptionDTO struct {
	ID              uuid.UUID             `json:"id"`
	Name            string                `json:"name"`
	SKU             string                `json:"sku"`
	AdditionalPrice decimal.Decimal       `json:"additional_price"`
	Status          enums.OptionStatus    `json:"status"`
	Quantity        int                   `json:"quantity"`
	StockStatus     enums.InventoryStatus `json:"stock_status"`
}

// ProductDTO is the API shape of a product with its options.
type ProductDTO struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	Price     decimal.Decimal     `json:"price"`
	Status    enums.ProductStatus `json:"status"`
	Options   []OptionDTO         `json:"options"`
	CreatedAt time.Time           `json:"created_at"`
}

// ProductSummary is the condensed row returned by the product list.
type ProductSummary struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Price       decimal.Decimal     `json:"price"`
	Status      enums.ProductStatus `json:"status"`
	OptionCount int                 `json:"option_count"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ProductList wraps paginated product summaries plus the next cursor.
type ProductList struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// TopProduct pairs a product with its sales ranking score.
type TopProduct struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	SoldUnits int64           `json:"sold_units"`
}
