package shops

import (
	"time"

	"github.com/google/uuid"

	"github.com/instastorehq/storefront-backend/pkg/db/models"
	"github.com/instastorehq/storefront-backend/pkg/enums"
)

// ShopDTO is the public representation of a tenant.
type ShopDTO struct {
	ID              uuid.UUID               `json:"id"`
	Name            string                  `json:"name"`
	Slug            string                  `json:"slug"`
	Handle          string                  `json:"handle"`
	Phone           *string                 `json:"phone,omitempty"`
	Bio             *string                 `json:"bio,omitempty"`
	IsActive        bool                    `json:"is_active"`
	EnabledPayments []string                `json:"enabled_payments"`
	Subscription    SubscriptionSummary     `json:"subscription"`
	State           enums.SubscriptionState `json:"subscription_state"`
	CreatedAt       time.Time               `json:"created_at"`
}

// SubscriptionSummary carries the plan lifecycle fields of a shop.
type SubscriptionSummary struct {
	PlanCode  *string    `json:"plan_code,omitempty"`
	PlanName  *string    `json:"plan_name,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RegisterShopInput holds the validated payload to register a tenant.
type RegisterShopInput struct {
	Name            string
	Slug            string
	Handle          string
	Phone           *string
	Bio             *string
	EnabledPayments []string
}

// UpdateShopInput holds optional profile mutations. Subscription fields are
// deliberately absent.
type UpdateShopInput struct {
	Name            *string
	Phone           *string
	Bio             *string
	EnabledPayments *[]string
}

func toShopDTO(shop *models.Shop, now time.Time) *ShopDTO {
	dto := &ShopDTO{
		ID:              shop.ID,
		Name:            shop.Name,
		Slug:            shop.Slug,
		Handle:          shop.Handle,
		Phone:           shop.Phone,
		Bio:             shop.Bio,
		IsActive:        shop.IsActive,
		EnabledPayments: shop.EnabledPayments,
		State:           shop.SubscriptionStateAt(now),
		CreatedAt:       shop.CreatedAt,
		Subscription: SubscriptionSummary{
			PlanCode:  shop.CurrentPlanCode,
			StartedAt: shop.PlanStartedAt,
			ExpiresAt: shop.PlanExpiresAt,
		},
	}
	if shop.CurrentPlan != nil {
		name := shop.CurrentPlan.Name
		dto.Subscription.PlanName = &name
	}
	return dto
}
