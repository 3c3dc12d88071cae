package controllers

import (
	"net/http"

	"github.com/instastorehq/storefront-backend/api/responses"
	"github.com/instastorehq/storefront-backend/api/validators"
	shopsvc "github.com/instastorehq/storefront-backend/internal/shops"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
	"github.com/instastorehq/storefront-backend/pkg/logger"
)

// ShopRegister handles tenant self-registration.
func ShopRegister(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		var payload registerShopRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.Register(r.Context(), shopsvc.RegisterShopInput{
			Name:            payload.Name,
			Slug:            payload.Slug,
			Handle:          payload.Handle,
			Phone:           payload.Phone,
			Bio:             payload.Bio,
			EnabledPayments: payload.EnabledPayments,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, shop)
	}
}

// ShopDetail returns the tenant by id.
func ShopDetail(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		shopID, err := validators.UUIDParam(r, "shopID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.GetByID(r.Context(), shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shop)
	}
}

// ShopBySlug resolves a storefront by its public slug.
func ShopBySlug(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		slug, err := validators.SlugParam(r, "slug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shop)
	}
}

// ShopUpdate mutates tenant profile fields.
func ShopUpdate(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		shopID, err := validators.UUIDParam(r, "shopID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateShopRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.Update(r.Context(), shopID, shopsvc.UpdateShopInput{
			Name:            payload.Name,
			Phone:           payload.Phone,
			Bio:             payload.Bio,
			EnabledPayments: payload.EnabledPayments,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shop)
	}
}

// ShopDeactivate turns the tenant off.
func ShopDeactivate(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return shopToggle(svc, logg, false)
}

// ShopReactivate turns the tenant back on.
func ShopReactivate(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return shopToggle(svc, logg, true)
}

func shopToggle(svc shopsvc.Service, logg *logger.Logger, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		shopID, err := validators.UUIDParam(r, "shopID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if active {
			err = svc.Reactivate(r.Context(), shopID)
		} else {
			err = svc.Deactivate(r.Context(), shopID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"is_active": active})
	}
}

type registerShopRequest struct {
	Name            string   `json:"name" validate:"required,max=120"`
	Slug            string   `json:"slug" validate:"required,max=64"`
	Handle          string   `json:"handle" validate:"required,max=64"`
	Phone           *string  `json:"phone,omitempty"`
	Bio             *string  `json:"bio,omitempty"`
	EnabledPayments []string `json:"enabled_payments" validate:"omitempty,dive,oneof=online cash bank"`
}

type updateShopRequest struct {
	Name            *string   `json:"name,omitempty" validate:"omitempty,max=120"`
	Phone           *string   `json:"phone,omitempty"`
	Bio             *string   `json:"bio,omitempty"`
	EnabledPayments *[]string `json:"enabled_payments,omitempty" validate:"omitempty,dive,oneof=online cash bank"`
}
