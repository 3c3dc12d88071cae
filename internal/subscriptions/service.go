package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/instastorehq/storefront-backend/pkg/db"
	"github.com/instastorehq/storefront-backend/pkg/db/models"
	"github.com/instastorehq/storefront-backend/pkg/enums"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
)

// Service owns the plan lifecycle columns on shops. Nothing else writes
// them.
type Service interface {
	AssignPlan(ctx context.Context, shopID uuid.UUID, planCode string) (*StatusDTO, error)
	Renew(ctx context.Context, shopID uuid.UUID) (*StatusDTO, error)
	Status(ctx context.Context, shopID uuid.UUID) (*StatusDTO, error)
}

// StatusDTO reports the derived subscription state of a shop.
type StatusDTO struct {
	ShopID        uuid.UUID               `json:"shop_id"`
	State         enums.SubscriptionState `json:"state"`
	PlanCode      *string                 `json:"plan_code,omitempty"`
	PlanName      *string                 `json:"plan_name,omitempty"`
	StartedAt     *time.Time              `json:"started_at,omitempty"`
	ExpiresAt     *time.Time              `json:"expires_at,omitempty"`
	RemainingDays int                     `json:"remaining_days"`
}

type planRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Plan, error)
}

// Repository gives the service transactional access to shop rows.
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

// LockShop loads the shop row with a write lock so concurrent renewals
// serialize.
func (r *Repository) LockShop(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	err := pkgdb.LockForUpdate(r.db.WithContext(ctx)).
		First(&shop, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock shop")
	}
	return &shop, nil
}

// SaveSubscription persists the plan lifecycle columns.
func (r *Repository) SaveSubscription(ctx context.Context, shop *models.Shop) error {
	err := r.db.WithContext(ctx).
		Model(&models.Shop{}).
		Where("id = ?", shop.ID).
		Updates(map[string]any{
			"current_plan_code": shop.CurrentPlanCode,
			"plan_started_at":   shop.PlanStartedAt,
			"plan_expires_at":   shop.PlanExpiresAt,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save subscription")
	}
	return nil
}

type service struct {
	repo     *Repository
	plans    planRepository
	shops    shopFinder
	dbClient *pkgdb.Client
	now      func() time.Time
}

type shopFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
}

// NewService constructs a subscription service instance.
func NewService(repo *Repository, plans planRepository, shops shopFinder, dbClient *pkgdb.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if plans == nil {
		return nil, fmt.Errorf("plan repository required")
	}
	if shops == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		repo:     repo,
		plans:    plans,
		shops:    shops,
		dbClient: dbClient,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// AssignPlan subscribes the shop to the plan, or renews it.
//
// Renewing the same plan before expiry extends the current expiry by the
// plan's period, so paying early never loses days. Any other case (different
// plan, lapsed subscription, first subscription) starts a fresh period from
// now. The started-at marker always records this assignment.
func (s *service) AssignPlan(ctx context.Context, shopID uuid.UUID, planCode string) (*StatusDTO, error) {
	plan, err := s.plans.FindByCode(ctx, planCode)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodePlanUnavailable, "plan does not exist")
		}
		return nil, err
	}
	if !plan.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodePlanUnavailable, "plan is no longer offered")
	}

	var result *StatusDTO
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		shop, err := txRepo.LockShop(ctx, shopID)
		if err != nil {
			return err
		}

		now := s.now()
		expires := now.AddDate(0, 0, plan.Days)
		samePlan := shop.CurrentPlanCode != nil && *shop.CurrentPlanCode == plan.Code
		if samePlan && shop.PlanExpiresAt != nil && shop.PlanExpiresAt.After(now) {
			expires = shop.PlanExpiresAt.AddDate(0, 0, plan.Days)
		}

		shop.CurrentPlanCode = &plan.Code
		shop.PlanStartedAt = &now
		shop.PlanExpiresAt = &expires
		if err := txRepo.SaveSubscription(ctx, shop); err != nil {
			return err
		}

		shop.CurrentPlan = plan
		result = s.toStatusDTO(shop, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Renew extends the shop's current plan. Shops without a plan cannot renew.
func (s *service) Renew(ctx context.Context, shopID uuid.UUID) (*StatusDTO, error) {
	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if shop.CurrentPlanCode == nil {
		return nil, pkgerrors.New(pkgerrors.CodePlanUnavailable, "shop has no plan to renew")
	}
	return s.AssignPlan(ctx, shopID, *shop.CurrentPlanCode)
}

// Status reports the derived subscription state.
func (s *service) Status(ctx context.Context, shopID uuid.UUID) (*StatusDTO, error) {
	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	return s.toStatusDTO(shop, s.now()), nil
}

func (s *service) toStatusDTO(shop *models.Shop, now time.Time) *StatusDTO {
	dto := &StatusDTO{
		ShopID:    shop.ID,
		State:     shop.SubscriptionStateAt(now),
		PlanCode:  shop.CurrentPlanCode,
		StartedAt: shop.PlanStartedAt,
		ExpiresAt: shop.PlanExpiresAt,
	}
	if shop.CurrentPlan != nil {
		name := shop.CurrentPlan.Name
		dto.PlanName = &name
	}
	if dto.State == enums.SubscriptionActive && shop.PlanExpiresAt != nil {
		remaining := shop.PlanExpiresAt.Sub(now)
		dto.RemainingDays = int((remaining + 24*time.Hour - time.Nanosecond) / (24 * time.Hour))
	}
	return dto
}
