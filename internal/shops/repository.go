package shops

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/instastorehq/storefront-backend/pkg/db/models"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
)

// Repository provides persistence for shops.
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

// Create inserts the shop. Slug/handle uniqueness is enforced by the
// database; callers translate the violation.
func (r *Repository) Create(ctx context.Context, shop *models.Shop) (*models.Shop, error) {
	if err := r.db.WithContext(ctx).Create(shop).Error; err != nil {
		return nil, err
	}
	return shop, nil
}

// FindByID loads a shop with its current plan preloaded.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).
		Preload("CurrentPlan").
		First(&shop, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load shop")
	}
	return &shop, nil
}

// FindBySlug loads a shop by its storefront slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).
		Preload("CurrentPlan").
		First(&shop, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load shop")
	}
	return &shop, nil
}

// Update persists the full shop record.
func (r *Repository) Update(ctx context.Context, shop *models.Shop) error {
	if err := r.db.WithContext(ctx).Save(shop).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update shop")
	}
	return nil
}

// UpdateSubscription writes only the plan lifecycle columns. The profile
// surface never touches these.
func (r *Repository) UpdateSubscription(ctx context.Context, shopID uuid.UUID, planCode *string, startedAt, expiresAt *time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.Shop{}).
		Where("id = ?", shopID).
		Updates(map[string]any{
			"current_plan_code": planCode,
			"plan_started_at":   startedAt,
			"plan_expires_at":   expiresAt,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update shop subscription")
	}
	return nil
}

// SetActive flips the tenant kill switch.
func (r *Repository) SetActive(ctx context.Context, shopID uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Shop{}).
		Where("id = ?", shopID).
		Update("is_active", active)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "db: toggle shop")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
	}
	return nil
}
