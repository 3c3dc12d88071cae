package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/instastorehq/storefront-backend/pkg/db"
	"github.com/instastorehq/storefront-backend/pkg/db/models"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
)

// Repository provides persistence for products and their variants.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateProduct inserts the product together with its variants.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if pkgdb.IsUniqueViolation(err, "idx_variants_product_size_color") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "duplicate size/color combination")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return product, nil
}

// FindProduct loads a product with variants. Scoped to the owning shop so a
// tenant can never read another tenant's listing by ID.
func (r *Repository) FindProduct(ctx context.Context, shopID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		First(&product, "id = ? AND shop_id = ?", productID, shopID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return &product, nil
}

// ListByShop returns products for a shop, optionally restricted to active
// listings.
func (r *Repository) ListByShop(ctx context.Context, shopID uuid.UUID, activeOnly bool) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Variants").
		Where("shop_id = ?", shopID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var list []models.Product
	if err := query.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return list, nil
}

// CountActiveByShop counts active listings, the number that consumes product
// quota.
func (r *Repository) CountActiveByShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("shop_id = ? AND is_active = ?", shopID, true).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count products")
	}
	return count, nil
}

// UpdateProduct persists the product record.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	return nil
}

// AddVariant inserts one variant.
func (r *Repository) AddVariant(ctx context.Context, variant *models.Variant) (*models.Variant, error) {
	if err := r.db.WithContext(ctx).Create(variant).Error; err != nil {
		if pkgdb.IsUniqueViolation(err, "idx_variants_product_size_color") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "duplicate size/color combination")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert variant")
	}
	return variant, nil
}

// FindVariantForShop loads a variant with its product and verifies the
// product belongs to the given shop. The tenant check lives in SQL so there
// is no window where foreign stock is visible.
func (r *Repository) FindVariantForShop(ctx context.Context, shopID, variantID uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = variants.product_id").
		Where("variants.id = ? AND products.shop_id = ?", variantID, shopID).
		Preload("Product").
		First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCrossTenant, "variant does not belong to this shop")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load variant")
	}
	return &variant, nil
}

// SetVariantStock overwrites the stock level. Restock path only; checkout
// decrements under lock instead.
func (r *Repository) SetVariantStock(ctx context.Context, shopID, variantID uuid.UUID, stock int) error {
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ? AND product_id IN (?)",
			variantID,
			r.db.Model(&models.Product{}).Select("id").Where("shop_id = ?", shopID),
		).
		Update("stock", stock)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "db: set stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeCrossTenant, "variant does not belong to this shop")
	}
	return nil
}
