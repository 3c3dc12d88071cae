package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Variant is one size/color combination of a product; stock is tracked per
// variant. (product, size, color) is unique, enforced in SQL. Stock is
// mutated only inside the checkout transaction.
type Variant struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_variants_product_size_color"`
	Size            string          `gorm:"column:size;not null;uniqueIndex:idx_variants_product_size_color"`
	Color           string          `gorm:"column:color;not null;uniqueIndex:idx_variants_product_size_color"`
	Stock           int             `gorm:"column:stock;not null;default:0"`
	PriceAdjustment decimal.Decimal `gorm:"column:price_adjustment;type:numeric(12,0);not null;default:0"`
	Product         *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (v *Variant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// FinalPrice is the variant's sell price: product base price plus the
// variant adjustment. Requires Product to be loaded.
func (v *Variant) FinalPrice() decimal.Decimal {
	if v.Product == nil {
		return v.PriceAdjustment
	}
	return v.Product.BasePrice.Add(v.PriceAdjustment)
}
