package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/instastorehq/storefront-backend/pkg/db"
	"github.com/instastorehq/storefront-backend/pkg/db/models"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
)

// Repository provides the transactional persistence used by checkout.
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

// LockShop takes a write lock on the shop row. Holding it for the length of
// the checkout serializes the monthly quota count against concurrent
// checkouts for the same shop. The current plan is re-read here too: the
// quota caps enforced inside the transaction must come from this read, not
// from the pre-flight one.
func (r *Repository) LockShop(ctx context.Context, shopID uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	err := pkgdb.LockForUpdate(r.db.WithContext(ctx)).
		Preload("CurrentPlan").
		First(&shop, "id = ?", shopID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock shop")
	}
	return &shop, nil
}

// CountOrdersInWindow counts the shop's orders created in [start, end).
func (r *Repository) CountOrdersInWindow(ctx context.Context, shopID uuid.UUID, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("shop_id = ? AND created_at >= ? AND created_at < ?", shopID, start, end).
		Count(&count).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count orders")
	}
	return count, nil
}

// LockVariants loads and write-locks the given variants of one shop,
// products preloaded. Callers pass IDs in ascending order so concurrent
// checkouts acquire locks in the same sequence.
func (r *Repository) LockVariants(ctx context.Context, shopID uuid.UUID, variantIDs []uuid.UUID) ([]models.Variant, error) {
	var variants []models.Variant
	err := pkgdb.LockForUpdate(r.db.WithContext(ctx)).
		Joins("JOIN products ON products.id = variants.product_id").
		Where("variants.id IN ? AND products.shop_id = ?", variantIDs, shopID).
		Order("variants.id ASC").
		Preload("Product").
		Find(&variants).Error
	if err != nil {
		if pkgdb.IsLockTimeout(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeLockTimeout, err, "timed out waiting for stock locks")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock variants")
	}
	return variants, nil
}

// DecrementStock subtracts sold units from a locked variant. The guard in
// the WHERE clause is a second line of defense under the row lock.
func (r *Repository) DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "db: decrement stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "stock changed during checkout")
	}
	return nil
}

// CreateOrder inserts the order with its items.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByCode loads an order with items, scoped to the shop.
func (r *Repository) FindByCode(ctx context.Context, shopID uuid.UUID, code string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "order_code = ? AND shop_id = ?", code, shopID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	return &order, nil
}

// ListByShop returns the shop's orders, newest first.
func (r *Repository) ListByShop(ctx context.Context, shopID uuid.UUID, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("shop_id = ?", shopID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}
	return orders, nil
}
