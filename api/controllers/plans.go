package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/instastorehq/storefront-backend/api/responses"
	"github.com/instastorehq/storefront-backend/pkg/db/models"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
	"github.com/instastorehq/storefront-backend/pkg/logger"
)

// PlanLister is the read surface the plan catalog endpoint needs.
type PlanLister interface {
	ListActive(ctx context.Context) ([]models.Plan, error)
}

// PlanList returns the purchasable plans ordered by price.
func PlanList(repo PlanLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan repository unavailable"))
			return
		}

		plans, err := repo.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]planResponse, 0, len(plans))
		for _, plan := range plans {
			out = append(out, newPlanResponse(plan))
		}
		responses.WriteSuccess(w, out)
	}
}

type planResponse struct {
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Description       *string         `json:"description,omitempty"`
	Price             decimal.Decimal `json:"price"`
	Days              int             `json:"days"`
	MaxProducts       int             `json:"max_products"`
	MaxOrdersPerMonth int             `json:"max_orders_per_month"`
	IsDefault         bool            `json:"is_default"`
	CreatedAt         time.Time       `json:"created_at"`
}

func newPlanResponse(plan models.Plan) planResponse {
	return planResponse{
		Code:              plan.Code,
		Name:              plan.Name,
		Description:       plan.Description,
		Price:             plan.Price,
		Days:              plan.Days,
		MaxProducts:       plan.MaxProducts,
		MaxOrdersPerMonth: plan.MaxOrdersPerMonth,
		IsDefault:         plan.IsDefault,
		CreatedAt:         plan.CreatedAt,
	}
}
