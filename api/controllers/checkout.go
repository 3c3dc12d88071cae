package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/instastorehq/storefront-backend/api/middleware"
	"github.com/instastorehq/storefront-backend/api/responses"
	"github.com/instastorehq/storefront-backend/api/validators"
	checkoutsvc "github.com/instastorehq/storefront-backend/internal/checkout"
	"github.com/instastorehq/storefront-backend/pkg/enums"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
	"github.com/instastorehq/storefront-backend/pkg/logger"
)

// Checkout converts the visitor's cart into an order atomically.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "visitor session required"))
			return
		}

		shopID, err := validators.UUIDParam(r, "shopID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		shipping := decimal.Zero
		if payload.ShippingCost != nil {
			shipping = *payload.ShippingCost
		}

		order, err := svc.Execute(r.Context(), checkoutsvc.CheckoutInput{
			SessionID:     sessionID,
			ShopID:        shopID,
			PaymentMethod: method,
			ShippingCost:  shipping,
			Customer: checkoutsvc.CustomerInput{
				FullName:   payload.Customer.FullName,
				Phone:      payload.Customer.Phone,
				Address:    payload.Customer.Address,
				PostalCode: payload.Customer.PostalCode,
				City:       payload.Customer.City,
				Province:   payload.Customer.Province,
				Notes:      payload.Customer.Notes,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type checkoutRequest struct {
	PaymentMethod string           `json:"payment_method" validate:"required,oneof=online cash bank"`
	ShippingCost  *decimal.Decimal `json:"shipping_cost,omitempty"`
	Customer      customerPayload  `json:"customer" validate:"required"`
}

type customerPayload struct {
	FullName   string  `json:"full_name" validate:"required,max=120"`
	Phone      string  `json:"phone" validate:"required,max=32"`
	Address    string  `json:"address" validate:"required,max=300"`
	PostalCode string  `json:"postal_code" validate:"required,max=16"`
	City       string  `json:"city" validate:"max=80"`
	Province   string  `json:"province" validate:"max=80"`
	Notes      *string `json:"notes,omitempty"`
}
