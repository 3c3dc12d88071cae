package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/instastorehq/storefront-backend/pkg/db/models"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
)

const maxLineQuantity = 99

type variantReader interface {
	FindVariantForShop(ctx context.Context, shopID, variantID uuid.UUID) (*models.Variant, error)
}

// Service manages visitor carts. All mutations re-resolve the variant inside
// the target shop, so a variant from another tenant can never enter a cart.
type Service interface {
	Add(ctx context.Context, sessionID string, shopID, variantID uuid.UUID, quantity int) (*Cart, error)
	UpdateQuantity(ctx context.Context, sessionID string, shopID, variantID uuid.UUID, quantity int) (*Cart, error)
	Remove(ctx context.Context, sessionID string, shopID, variantID uuid.UUID) (*Cart, error)
	Get(ctx context.Context, sessionID string, shopID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, sessionID string, shopID uuid.UUID) error
}

type service struct {
	store   Store
	catalog variantReader
	now     func() time.Time
}

// NewService constructs a cart service instance.
func NewService(store Store, catalog variantReader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{
		store:   store,
		catalog: catalog,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Add puts a variant in the cart or bumps its quantity. The stock check here
// is advisory; only checkout reserves units.
func (s *service) Add(ctx context.Context, sessionID string, shopID, variantID uuid.UUID, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	variant, err := s.catalog.FindVariantForShop(ctx, shopID, variantID)
	if err != nil {
		return nil, err
	}
	if variant.Product == nil || !variant.Product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not available")
	}

	cart, err := s.store.Load(ctx, sessionID, shopID)
	if err != nil {
		return nil, err
	}

	newQty := quantity
	if line := cart.findLine(variantID); line != nil {
		newQty += line.Quantity
	}
	if newQty > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity limit per line reached")
	}
	if newQty > variant.Stock {
		return nil, pkgerrors.InsufficientStock(variantID.String(), variant.Stock, newQty)
	}

	price := variant.FinalPrice()
	if line := cart.findLine(variantID); line != nil {
		if !line.UnitPrice.Equal(price) {
			line.UnitPrice = price
			cart.Modified = true
		}
		line.Quantity = newQty
	} else {
		cart.Lines = append(cart.Lines, Line{
			VariantID:   variant.ID,
			ProductID:   variant.ProductID,
			ProductName: variant.Product.Name,
			Size:        variant.Size,
			Color:       variant.Color,
			Quantity:    quantity,
			UnitPrice:   price,
			AddedAt:     s.now(),
		})
	}

	cart.UpdatedAt = s.now()
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateQuantity sets a line's quantity. Zero removes the line.
func (s *service) UpdateQuantity(ctx context.Context, sessionID string, shopID, variantID uuid.UUID, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if quantity == 0 {
		return s.Remove(ctx, sessionID, shopID, variantID)
	}
	if quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity limit per line reached")
	}

	variant, err := s.catalog.FindVariantForShop(ctx, shopID, variantID)
	if err != nil {
		return nil, err
	}
	if quantity > variant.Stock {
		return nil, pkgerrors.InsufficientStock(variantID.String(), variant.Stock, quantity)
	}

	cart, err := s.store.Load(ctx, sessionID, shopID)
	if err != nil {
		return nil, err
	}
	line := cart.findLine(variantID)
	if line == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant is not in the cart")
	}
	line.Quantity = quantity
	cart.UpdatedAt = s.now()
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Remove drops a line from the cart. Removing an absent line is a no-op.
func (s *service) Remove(ctx context.Context, sessionID string, shopID, variantID uuid.UUID) (*Cart, error) {
	cart, err := s.store.Load(ctx, sessionID, shopID)
	if err != nil {
		return nil, err
	}
	if cart.removeLine(variantID) {
		cart.UpdatedAt = s.now()
		if err := s.store.Save(ctx, cart); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

// Get returns the cart after reconciling it with the catalog: lines whose
// variant disappeared or whose product was archived are dropped, and stale
// price hints are refreshed with the Modified flag raised.
func (s *service) Get(ctx context.Context, sessionID string, shopID uuid.UUID) (*Cart, error) {
	cart, err := s.store.Load(ctx, sessionID, shopID)
	if err != nil {
		return nil, err
	}

	changed := false
	kept := cart.Lines[:0]
	for _, line := range cart.Lines {
		variant, err := s.catalog.FindVariantForShop(ctx, shopID, line.VariantID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeCrossTenant {
				changed = true
				continue
			}
			return nil, err
		}
		if variant.Product == nil || !variant.Product.IsActive {
			changed = true
			continue
		}
		if price := variant.FinalPrice(); !line.UnitPrice.Equal(price) {
			line.UnitPrice = price
			cart.Modified = true
			changed = true
		}
		kept = append(kept, line)
	}
	cart.Lines = kept

	if changed {
		cart.UpdatedAt = s.now()
		if err := s.store.Save(ctx, cart); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

// Clear drops the whole cart. Checkout calls this after commit.
func (s *service) Clear(ctx context.Context, sessionID string, shopID uuid.UUID) error {
	return s.store.Delete(ctx, sessionID, shopID)
}
