package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/creamcommerce/commerce-backend/pkg/enums"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
)

// Product aggregates its purchasable options; each option carries its
// own inventory row.
type Product struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string              `gorm:"column:name;not null"`
	Price     decimal.Decimal     `gorm:"column:price;type:numeric;not null"`
	Status    enums.ProductStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Options   []ProductOption     `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductOption is one purchasable variant (SKU) of a product.
type ProductOption struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	Name            string             `gorm:"column:name;not null"`
	SKU             string             `gorm:"column:sku;not null"`
	AdditionalPrice decimal.Decimal    `gorm:"column:additional_price;type:numeric;not null"`
	Status          enums.OptionStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Inventory       *Inventory         `gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// IsAvailable reports whether the product can be ordered.
func (p *Product) IsAvailable() bool {
	return p.Status == enums.ProductStatusActive
}

// OptionByID returns the option with the given id, or nil.
func (p *Product) OptionByID(optionID uuid.UUID) *ProductOption {
	for i := range p.Options {
		if p.Options[i].ID == optionID {
			return &p.Options[i]
		}
	}
	return nil
}

// HasEnoughStock reports whether the option is active and its inventory
// covers the requested quantity.
func (o *ProductOption) HasEnoughStock(quantity int) bool {
	if o.Status != enums.OptionStatusActive || o.Inventory == nil {
		return false
	}
	return o.Inventory.HasEnoughStock(quantity)
}

// DecreaseStock removes stock from an active option.
func (o *ProductOption) DecreaseStock(quantity int) error {
	if o.Status != enums.OptionStatusActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "option is not active")
	}
	if o.Inventory == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "option has no inventory")
	}
	if err := o.Inventory.DecreaseQuantity(quantity); err != nil {
		return err
	}
	o.UpdatedAt = time.Now()
	return nil
}

// IncreaseStock returns stock to the option.
func (o *ProductOption) IncreaseStock(quantity int) error {
	if o.Inventory == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "option has no inventory")
	}
	if err := o.Inventory.IncreaseQuantity(quantity); err != nil {
		return err
	}
	o.UpdatedAt = time.Now()
	return nil
}
