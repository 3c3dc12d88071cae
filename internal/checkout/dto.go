package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/instastorehq/storefront-backend/pkg/db/models"
	"github.com/instastorehq/storefront-backend/pkg/enums"
)

// CheckoutInput is the validated payload to place an order from the
// visitor's cart.
type CheckoutInput struct {
	SessionID     string
	ShopID        uuid.UUID
	PaymentMethod enums.PaymentMethod
	Customer      CustomerInput
	ShippingCost  decimal.Decimal
}

// CustomerInput carries the shipping contact for the order.
type CustomerInput struct {
	FullName   string
	Phone      string
	Address    string
	PostalCode string
	City       string
	Province   string
	Notes      *string
}

// OrderDTO is the public representation of a placed order.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	ShopID        uuid.UUID           `json:"shop_id"`
	OrderCode     string              `json:"order_code"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	ShippingCost  decimal.Decimal     `json:"shipping_cost"`
	Discount      decimal.Decimal     `json:"discount"`
	Total         decimal.Decimal     `json:"total"`
	FullName      string              `json:"full_name"`
	Phone         string              `json:"phone"`
	Address       string              `json:"address"`
	PostalCode    string              `json:"postal_code"`
	City          string              `json:"city,omitempty"`
	Province      string              `json:"province,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	IsPaid        bool                `json:"is_paid"`
	Items         []OrderItemDTO      `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderItemDTO is one purchased line with its frozen snapshot.
type OrderItemDTO struct {
	VariantID   uuid.UUID       `json:"variant_id"`
	ProductName string          `json:"product_name"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

func toOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:            order.ID,
		ShopID:        order.ShopID,
		OrderCode:     order.OrderCode,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		Subtotal:      order.Subtotal,
		ShippingCost:  order.ShippingCost,
		Discount:      order.Discount,
		Total:         order.Total,
		FullName:      order.FullName,
		Phone:         order.Phone,
		Address:       order.Address,
		PostalCode:    order.PostalCode,
		City:          order.City,
		Province:      order.Province,
		Notes:         order.Notes,
		IsPaid:        order.IsPaid,
		Items:         make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:     order.CreatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			Size:        item.Size,
			Color:       item.Color,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			TotalPrice:  item.TotalPrice,
		})
	}
	return dto
}
