package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/instastorehq/storefront-backend/internal/quota"
	pkgdb "github.com/instastorehq/storefront-backend/pkg/db"
	"github.com/instastorehq/storefront-backend/pkg/db/models"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
)

type shopReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
}

// Service exposes merchant catalog management and storefront read paths.
type Service interface {
	CreateProduct(ctx context.Context, shopID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, shopID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, shopID, productID uuid.UUID) (*ProductDTO, error)
	ListStorefront(ctx context.Context, shopID uuid.UUID) ([]ProductDTO, error)
	ListAll(ctx context.Context, shopID uuid.UUID) ([]ProductDTO, error)
	AddVariant(ctx context.Context, shopID, productID uuid.UUID, input VariantInput) (*ProductDTO, error)
	Restock(ctx context.Context, shopID, variantID uuid.UUID, stock int) error
}

type service struct {
	repo     *Repository
	shops    shopReader
	dbClient *pkgdb.Client
	now      func() time.Time
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, shops shopReader, dbClient *pkgdb.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if shops == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		repo:     repo,
		shops:    shops,
		dbClient: dbClient,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateProduct creates the listing with its variants. The plan's product
// quota is enforced inside the transaction so two concurrent creates cannot
// both slip under the cap.
func (s *service) CreateProduct(ctx context.Context, shopID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if err := quota.CheckTenant(shop, s.now()); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          uuid.New(),
		ShopID:      shopID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		BasePrice:   input.BasePrice,
		Brand:       input.Brand,
		IsActive:    true,
	}
	for _, v := range input.Variants {
		product.Variants = append(product.Variants, models.Variant{
			ID:              uuid.New(),
			ProductID:       product.ID,
			Size:            strings.TrimSpace(v.Size),
			Color:           strings.TrimSpace(v.Color),
			Stock:           v.Stock,
			PriceAdjustment: v.PriceAdjustment,
		})
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		count, err := txRepo.CountActiveByShop(ctx, shopID)
		if err != nil {
			return err
		}
		if err := quota.CheckProductQuota(shop.CurrentPlan, count); err != nil {
			return err
		}
		_, err = txRepo.CreateProduct(ctx, product)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toProductDTO(product), nil
}

// UpdateProduct mutates listing fields. Reactivating a product re-checks the
// quota, since archived listings do not consume it.
func (s *service) UpdateProduct(ctx context.Context, shopID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindProduct(ctx, shopID, productID)
	if err != nil {
		return nil, err
	}

	reactivating := input.IsActive != nil && *input.IsActive && !product.IsActive

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.BasePrice != nil {
		if input.BasePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
		}
		product.BasePrice = *input.BasePrice
	}
	if input.Brand != nil {
		product.Brand = input.Brand
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if reactivating {
			shop, err := s.shops.FindByID(ctx, shopID)
			if err != nil {
				return err
			}
			count, err := txRepo.CountActiveByShop(ctx, shopID)
			if err != nil {
				return err
			}
			if err := quota.CheckProductQuota(shop.CurrentPlan, count); err != nil {
				return err
			}
		}
		return txRepo.UpdateProduct(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return toProductDTO(product), nil
}

// GetProduct loads one listing scoped to the shop.
func (s *service) GetProduct(ctx context.Context, shopID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProduct(ctx, shopID, productID)
	if err != nil {
		return nil, err
	}
	return toProductDTO(product), nil
}

// ListStorefront returns what a visitor sees: active listings with at least
// one unit in stock.
func (s *service) ListStorefront(ctx context.Context, shopID uuid.UUID) ([]ProductDTO, error) {
	products, err := s.repo.ListByShop(ctx, shopID, true)
	if err != nil {
		return nil, err
	}
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		if !products[i].IsAvailable() {
			continue
		}
		out = append(out, *toProductDTO(&products[i]))
	}
	return out, nil
}

// ListAll returns every listing for the merchant dashboard, archived ones
// included.
func (s *service) ListAll(ctx context.Context, shopID uuid.UUID) ([]ProductDTO, error) {
	products, err := s.repo.ListByShop(ctx, shopID, false)
	if err != nil {
		return nil, err
	}
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, *toProductDTO(&products[i]))
	}
	return out, nil
}

// AddVariant adds a size/color combination to an existing product.
func (s *service) AddVariant(ctx context.Context, shopID, productID uuid.UUID, input VariantInput) (*ProductDTO, error) {
	if err := validateVariantInput(input); err != nil {
		return nil, err
	}
	product, err := s.repo.FindProduct(ctx, shopID, productID)
	if err != nil {
		return nil, err
	}

	variant := &models.Variant{
		ID:              uuid.New(),
		ProductID:       product.ID,
		Size:            strings.TrimSpace(input.Size),
		Color:           strings.TrimSpace(input.Color),
		Stock:           input.Stock,
		PriceAdjustment: input.PriceAdjustment,
	}
	if _, err := s.repo.AddVariant(ctx, variant); err != nil {
		return nil, err
	}
	product.Variants = append(product.Variants, *variant)
	return toProductDTO(product), nil
}

// Restock overwrites a variant's stock level.
func (s *service) Restock(ctx context.Context, shopID, variantID uuid.UUID, stock int) error {
	return s.repo.SetVariantStock(ctx, shopID, variantID, stock)
}

func validateProductInput(input CreateProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.BasePrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
	}
	if len(input.Variants) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one variant is required")
	}
	seen := make(map[string]struct{}, len(input.Variants))
	for _, v := range input.Variants {
		if err := validateVariantInput(v); err != nil {
			return err
		}
		key := strings.TrimSpace(v.Size) + "\x00" + strings.TrimSpace(v.Color)
		if _, dup := seen[key]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate size/color combination")
		}
		seen[key] = struct{}{}
	}
	return nil
}

func validateVariantInput(input VariantInput) error {
	if strings.TrimSpace(input.Size) == "" || strings.TrimSpace(input.Color) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant size and color are required")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}
