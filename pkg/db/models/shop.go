package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/instastorehq/storefront-backend/pkg/enums"
)

// Shop represents the canonical tenant. Subscription fields are written only
// by the subscription lifecycle service; everything else is profile data.
//
// Column defaults live in the migration SQL; the struct tags stay
// dialect-neutral so the sqlite test databases migrate the same schema.
type Shop struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	Slug            string    `gorm:"column:slug;not null;uniqueIndex:idx_shops_slug"`
	Handle          string    `gorm:"column:handle;not null;uniqueIndex:idx_shops_handle"`
	Phone           *string   `gorm:"column:phone"`
	Bio             *string   `gorm:"column:bio"`
	IsActive        bool      `gorm:"column:is_active;not null"`
	EnabledPayments []string  `gorm:"column:enabled_payments;type:jsonb;serializer:json"`

	CurrentPlanCode *string    `gorm:"column:current_plan_code"`
	CurrentPlan     *Plan      `gorm:"foreignKey:CurrentPlanCode;references:Code"`
	PlanStartedAt   *time.Time `gorm:"column:plan_started_at"`
	PlanExpiresAt   *time.Time `gorm:"column:plan_expires_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Shop) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SubscriptionStateAt derives the subscription state at the given instant.
// The state is never stored; the expiry timestamp is the single source of
// truth.
func (s *Shop) SubscriptionStateAt(now time.Time) enums.SubscriptionState {
	if s.CurrentPlanCode == nil {
		return enums.SubscriptionNoPlan
	}
	if s.PlanExpiresAt == nil || !s.PlanExpiresAt.After(now) {
		return enums.SubscriptionExpired
	}
	return enums.SubscriptionActive
}

// HasActiveSubscription reports whether the shop may trade at the given
// instant.
func (s *Shop) HasActiveSubscription(now time.Time) bool {
	return s.SubscriptionStateAt(now) == enums.SubscriptionActive
}
