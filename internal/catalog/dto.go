package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/instastorehq/storefront-backend/pkg/db/models"
)

// ProductDTO is the public representation of a listing.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	ShopID      uuid.UUID       `json:"shop_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Brand       *string         `json:"brand,omitempty"`
	IsActive    bool            `json:"is_active"`
	TotalStock  int             `json:"total_stock"`
	Variants    []VariantDTO    `json:"variants"`
	CreatedAt   time.Time       `json:"created_at"`
}

// VariantDTO is one purchasable size/color combination.
type VariantDTO struct {
	ID         uuid.UUID       `json:"id"`
	Size       string          `json:"size"`
	Color      string          `json:"color"`
	Stock      int             `json:"stock"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string
	Description *string
	BasePrice   decimal.Decimal
	Brand       *string
	Variants    []VariantInput
}

// VariantInput defines one size/color combination with starting stock.
type VariantInput struct {
	Size            string
	Color           string
	Stock           int
	PriceAdjustment decimal.Decimal
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string
	Description *string
	BasePrice   *decimal.Decimal
	Brand       *string
	IsActive    *bool
}

func toProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:          product.ID,
		ShopID:      product.ShopID,
		Name:        product.Name,
		Description: product.Description,
		BasePrice:   product.BasePrice,
		Brand:       product.Brand,
		IsActive:    product.IsActive,
		TotalStock:  product.TotalStock(),
		Variants:    make([]VariantDTO, 0, len(product.Variants)),
		CreatedAt:   product.CreatedAt,
	}
	for _, v := range product.Variants {
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:         v.ID,
			Size:       v.Size,
			Color:      v.Color,
			Stock:      v.Stock,
			FinalPrice: product.BasePrice.Add(v.PriceAdjustment),
		})
	}
	return dto
}
