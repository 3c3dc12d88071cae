package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a subscription tier. Immutable once referenced by a live
// subscription except for administrative deactivation.
type Plan struct {
	Code              string          `gorm:"column:code;primaryKey"`
	Name              string          `gorm:"column:name;not null"`
	Description       *string         `gorm:"column:description"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(12,0);not null"`
	Days              int             `gorm:"column:days;not null"`
	MaxProducts       int             `gorm:"column:max_products;not null"`
	MaxOrdersPerMonth int             `gorm:"column:max_orders_per_month;not null"`
	// no tag defaults on these: GORM drops zero-valued fields from INSERT
	// when the tag declares a default, which would flip an inactive plan
	// back to active on create
	IsActive  bool      `gorm:"column:is_active;not null"`
	IsDefault bool      `gorm:"column:is_default;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
