package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/instastorehq/storefront-backend/pkg/enums"
)

// Order is created only by the checkout transactor, atomically with its
// items. Money fields are frozen snapshots; later catalog edits never touch
// them. Status transitions past pending belong to fulfillment, payment
// fields to the gateway callback.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	ShopID        uuid.UUID           `gorm:"column:shop_id;type:uuid;not null;index:idx_orders_shop_created"`
	OrderCode     string              `gorm:"column:order_code;not null;uniqueIndex:idx_orders_order_code"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`

	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(12,0);not null"`
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,0);not null;default:0"`
	Discount     decimal.Decimal `gorm:"column:discount;type:numeric(12,0);not null;default:0"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(12,0);not null"`

	FullName   string  `gorm:"column:full_name;not null"`
	Phone      string  `gorm:"column:phone;not null"`
	Address    string  `gorm:"column:address;not null"`
	PostalCode string  `gorm:"column:postal_code;not null"`
	City       string  `gorm:"column:city;not null;default:''"`
	Province   string  `gorm:"column:province;not null;default:''"`
	Notes      *string `gorm:"column:notes"`

	IsPaid       bool       `gorm:"column:is_paid;not null"`
	PaidAt       *time.Time `gorm:"column:paid_at"`
	TrackingCode *string    `gorm:"column:tracking_code"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_orders_shop_created"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// CanBeCancelled reports whether fulfillment may still cancel the order.
func (o *Order) CanBeCancelled() bool {
	switch o.Status {
	case enums.OrderStatusPending, enums.OrderStatusConfirmed, enums.OrderStatusProcessing:
		return true
	}
	return false
}
