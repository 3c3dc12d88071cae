package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one variant in a visitor's cart. The price fields are display
// hints captured at add time; checkout always re-reads prices from the
// database.
type Line struct {
	VariantID   uuid.UUID       `json:"variant_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	AddedAt     time.Time       `json:"added_at"`
}

// Cart holds a visitor's pending selection for one shop. Carts are scoped to
// the (session, shop) pair so one visitor keeps independent carts across
// storefronts.
type Cart struct {
	SessionID string    `json:"session_id"`
	ShopID    uuid.UUID `json:"shop_id"`
	Lines     []Line    `json:"lines"`

	// Modified is set when stored price hints no longer match the catalog,
	// so the storefront can tell the visitor prices moved.
	Modified  bool      `json:"modified"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subtotal sums the advisory line prices.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// TotalItems counts units across all lines.
func (c *Cart) TotalItems() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) findLine(variantID uuid.UUID) *Line {
	for i := range c.Lines {
		if c.Lines[i].VariantID == variantID {
			return &c.Lines[i]
		}
	}
	return nil
}

func (c *Cart) removeLine(variantID uuid.UUID) bool {
	for i := range c.Lines {
		if c.Lines[i].VariantID == variantID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}
