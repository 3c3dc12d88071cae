// Package quota holds the plan-limit policy. Functions here are pure so the
// same rules can run both on the advisory read path and inside the checkout
// transaction.
package quota

import (
	"time"

	"github.com/instastorehq/storefront-backend/pkg/db/models"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
)

// CheckTenant verifies the shop may trade at all: it must be active and hold
// an unexpired subscription.
func CheckTenant(shop *models.Shop, now time.Time) error {
	if shop == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
	}
	if !shop.IsActive {
		return pkgerrors.New(pkgerrors.CodeShopInactive, "shop is deactivated")
	}
	if shop.CurrentPlanCode == nil {
		return pkgerrors.New(pkgerrors.CodeSubscriptionExpired, "shop has no subscription")
	}
	if !shop.HasActiveSubscription(now) {
		return pkgerrors.New(pkgerrors.CodeSubscriptionExpired, "subscription has expired")
	}
	return nil
}

// CheckProductQuota rejects product creation once the plan's listing cap is
// reached. activeProducts counts only active listings; archived products do
// not consume quota.
func CheckProductQuota(plan *models.Plan, activeProducts int64) error {
	if plan == nil {
		return pkgerrors.New(pkgerrors.CodeSubscriptionExpired, "shop has no subscription")
	}
	if activeProducts >= int64(plan.MaxProducts) {
		return pkgerrors.New(pkgerrors.CodeProductQuotaExceeded, "product limit reached for current plan").
			WithDetails(map[string]any{
				"max_products":    plan.MaxProducts,
				"active_products": activeProducts,
			})
	}
	return nil
}

// CheckOrderQuota rejects a new order once the plan's calendar-month cap is
// reached.
func CheckOrderQuota(plan *models.Plan, monthlyOrders int64) error {
	if plan == nil {
		return pkgerrors.New(pkgerrors.CodeSubscriptionExpired, "shop has no subscription")
	}
	if monthlyOrders >= int64(plan.MaxOrdersPerMonth) {
		return pkgerrors.New(pkgerrors.CodeOrderQuotaExceeded, "monthly order limit reached for current plan").
			WithDetails(map[string]any{
				"max_orders_per_month": plan.MaxOrdersPerMonth,
				"orders_this_month":    monthlyOrders,
			})
	}
	return nil
}

// MonthWindow returns the UTC calendar-month boundaries containing now.
// Orders created in [start, end) count against the monthly quota.
func MonthWindow(now time.Time) (start, end time.Time) {
	now = now.UTC()
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}
