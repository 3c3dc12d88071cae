package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem freezes what was bought at the moment of purchase. Later edits
// to the product or variant must never alter a past item.
type OrderItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null;index"`

	ProductName string          `gorm:"column:product_name;not null"`
	Size        string          `gorm:"column:size;not null"`
	Color       string          `gorm:"column:color;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,0);not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(12,0);not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
