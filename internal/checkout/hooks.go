package checkout

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/instastorehq/storefront-backend/internal/cart"
)

// Result bundles what post-commit hooks need: the placed order plus the
// visitor session it came from.
type Result struct {
	Order     *OrderDTO
	SessionID string
}

// Hook runs after the checkout transaction commits. Hooks run in
// registration order; a failing hook never unwinds the order, its error only
// lands in the aggregate that gets logged.
type Hook func(ctx context.Context, res *Result) error

// NewCartClearHook empties the visitor's cart for the shop once the order
// exists.
func NewCartClearHook(carts cart.Service) Hook {
	return func(ctx context.Context, res *Result) error {
		if err := carts.Clear(ctx, res.SessionID, res.Order.ShopID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	}
}

// Notifier delivers order confirmations. The transport lives with the
// caller; checkout only hands over the placed order.
type Notifier interface {
	OrderPlaced(ctx context.Context, res *Result) error
}

// NewNotifyHook forwards committed orders to the notifier.
func NewNotifyHook(n Notifier) Hook {
	return func(ctx context.Context, res *Result) error {
		if n == nil {
			return nil
		}
		if err := n.OrderPlaced(ctx, res); err != nil {
			return fmt.Errorf("notify order placed: %w", err)
		}
		return nil
	}
}

func (s *service) runHooks(ctx context.Context, res *Result) {
	var errs error
	for _, hook := range s.hooks {
		if err := hook(ctx, res); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		ctx = s.logg.WithField(ctx, "order_code", res.Order.OrderCode)
		s.logg.Error(ctx, "post-checkout hooks failed", errs)
	}
}
