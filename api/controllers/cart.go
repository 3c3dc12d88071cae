package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/instastorehq/storefront-backend/api/middleware"
	"github.com/instastorehq/storefront-backend/api/responses"
	"github.com/instastorehq/storefront-backend/api/validators"
	cartsvc "github.com/instastorehq/storefront-backend/internal/cart"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
	"github.com/instastorehq/storefront-backend/pkg/logger"
)

// CartAdd puts a variant in the visitor's cart for this shop.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, shopID, ok := cartScope(w, r, svc, logg)
		if !ok {
			return
		}

		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Add(r.Context(), sessionID, shopID, payload.VariantID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartUpdateItem overwrites one line's quantity; zero removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, shopID, ok := cartScope(w, r, svc, logg)
		if !ok {
			return
		}

		variantID, err := validators.UUIDParam(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.UpdateQuantity(r.Context(), sessionID, shopID, variantID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartRemoveItem drops one line from the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, shopID, ok := cartScope(w, r, svc, logg)
		if !ok {
			return
		}

		variantID, err := validators.UUIDParam(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.Remove(r.Context(), sessionID, shopID, variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartFetch returns the visitor's cart, self-healed against the catalog.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, shopID, ok := cartScope(w, r, svc, logg)
		if !ok {
			return
		}

		cart, err := svc.Get(r.Context(), sessionID, shopID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartClear empties the visitor's cart for this shop.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, shopID, ok := cartScope(w, r, svc, logg)
		if !ok {
			return
		}

		if err := svc.Clear(r.Context(), sessionID, shopID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}

func cartScope(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (string, uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return "", uuid.Nil, false
	}

	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "visitor session required"))
		return "", uuid.Nil, false
	}

	shopID, err := validators.UUIDParam(r, "shopID")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return "", uuid.Nil, false
	}
	return sessionID, shopID, true
}

type cartAddRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=99"`
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}
