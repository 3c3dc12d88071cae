package plans

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/instastorehq/storefront-backend/pkg/db/models"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
)

// Repository provides read access to subscription plans. Plans are seeded
// administratively; the API surface never mutates them.
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

// FindByCode loads a plan by its code regardless of active state.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).First(&plan, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load plan")
	}
	return &plan, nil
}

// FindDefault returns the active default plan, or nil when none is configured.
func (r *Repository) FindDefault(ctx context.Context) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).
		Where("is_default = ? AND is_active = ?", true, true).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load default plan")
	}
	return &plan, nil
}

// ListActive returns all plans shops may currently subscribe to, cheapest
// first.
func (r *Repository) ListActive(ctx context.Context) ([]models.Plan, error) {
	var list []models.Plan
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price ASC").
		Find(&list).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list plans")
	}
	return list, nil
}
