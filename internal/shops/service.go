package shops

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/instastorehq/storefront-backend/pkg/db"
	"github.com/instastorehq/storefront-backend/pkg/db/models"
	"github.com/instastorehq/storefront-backend/pkg/enums"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type planReader interface {
	FindDefault(ctx context.Context) (*models.Plan, error)
}

// Service exposes tenant registration and profile operations.
type Service interface {
	Register(ctx context.Context, input RegisterShopInput) (*ShopDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ShopDTO, error)
	GetBySlug(ctx context.Context, slug string) (*ShopDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateShopInput) (*ShopDTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     *Repository
	plans    planReader
	dbClient *pkgdb.Client
	now      func() time.Time
}

// NewService constructs a shop service instance.
func NewService(repo *Repository, plans planReader, dbClient *pkgdb.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if plans == nil {
		return nil, fmt.Errorf("plan repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		repo:     repo,
		plans:    plans,
		dbClient: dbClient,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Register creates the tenant and starts it on the default plan when one is
// configured.
func (s *service) Register(ctx context.Context, input RegisterShopInput) (*ShopDTO, error) {
	slug := normalizeSlug(input.Slug)
	handle := normalizeSlug(input.Handle)
	if !slugRe.MatchString(slug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid slug")
	}
	if !slugRe.MatchString(handle) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid handle")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	for _, method := range input.EnabledPayments {
		if !enums.PaymentMethod(method).IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
				WithDetails(map[string]any{"payment_method": method})
		}
	}

	shop := &models.Shop{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(input.Name),
		Slug:            slug,
		Handle:          handle,
		Phone:           input.Phone,
		Bio:             input.Bio,
		IsActive:        true,
		EnabledPayments: input.EnabledPayments,
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Create(ctx, shop); err != nil {
			if pkgdb.IsUniqueViolation(err, "idx_shops_slug") {
				return pkgerrors.New(pkgerrors.CodeConflict, "slug already taken")
			}
			if pkgdb.IsUniqueViolation(err, "idx_shops_handle") {
				return pkgerrors.New(pkgerrors.CodeConflict, "handle already taken")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert shop")
		}

		plan, err := s.plans.FindDefault(ctx)
		if err != nil {
			return err
		}
		if plan == nil {
			return nil
		}

		now := s.now()
		expires := now.AddDate(0, 0, plan.Days)
		shop.CurrentPlanCode = &plan.Code
		shop.CurrentPlan = plan
		shop.PlanStartedAt = &now
		shop.PlanExpiresAt = &expires
		return txRepo.UpdateSubscription(ctx, shop.ID, &plan.Code, &now, &expires)
	})
	if err != nil {
		return nil, err
	}

	return toShopDTO(shop, s.now()), nil
}

// GetByID loads the tenant by primary key.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ShopDTO, error) {
	shop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toShopDTO(shop, s.now()), nil
}

// GetBySlug loads the tenant by storefront slug.
func (s *service) GetBySlug(ctx context.Context, slug string) (*ShopDTO, error) {
	shop, err := s.repo.FindBySlug(ctx, normalizeSlug(slug))
	if err != nil {
		return nil, err
	}
	return toShopDTO(shop, s.now()), nil
}

// Update mutates profile fields only. Plan lifecycle columns are owned by
// the subscription service and cannot be reached from here.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateShopInput) (*ShopDTO, error) {
	shop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		shop.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		shop.Phone = input.Phone
	}
	if input.Bio != nil {
		shop.Bio = input.Bio
	}
	if input.EnabledPayments != nil {
		for _, method := range *input.EnabledPayments {
			if !enums.PaymentMethod(method).IsValid() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
					WithDetails(map[string]any{"payment_method": method})
			}
		}
		shop.EnabledPayments = *input.EnabledPayments
	}

	if err := s.repo.Update(ctx, shop); err != nil {
		return nil, err
	}
	return toShopDTO(shop, s.now()), nil
}

// Deactivate turns the tenant off. All storefront and checkout paths reject
// an inactive shop.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, false)
}

// Reactivate turns the tenant back on.
func (s *service) Reactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, true)
}

func normalizeSlug(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
