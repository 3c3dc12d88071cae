package checkout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/instastorehq/storefront-backend/internal/cart"
	"github.com/instastorehq/storefront-backend/internal/quota"
	"github.com/instastorehq/storefront-backend/pkg/config"
	pkgdb "github.com/instastorehq/storefront-backend/pkg/db"
	"github.com/instastorehq/storefront-backend/pkg/db/models"
	"github.com/instastorehq/storefront-backend/pkg/enums"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
	"github.com/instastorehq/storefront-backend/pkg/logger"
	"github.com/instastorehq/storefront-backend/pkg/metrics"
)

type shopReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
}

type cartReader interface {
	Get(ctx context.Context, sessionID string, shopID uuid.UUID) (*cart.Cart, error)
}

// Service turns carts into orders.
type Service interface {
	Execute(ctx context.Context, input CheckoutInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, shopID uuid.UUID, code string) (*OrderDTO, error)
	ListOrders(ctx context.Context, shopID uuid.UUID, limit int) ([]OrderDTO, error)
}

type service struct {
	repo     *Repository
	shops    shopReader
	carts    cartReader
	dbClient *pkgdb.Client
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
	cfg      config.CheckoutConfig
	hooks    []Hook
	now      func() time.Time
	newCode  func(time.Time) (string, error)
}

// NewService constructs a checkout service instance.
func NewService(
	repo *Repository,
	shops shopReader,
	carts cartReader,
	dbClient *pkgdb.Client,
	logg *logger.Logger,
	checkoutMetrics *metrics.CheckoutMetrics,
	cfg config.CheckoutConfig,
	hooks ...Hook,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if shops == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		shops:    shops,
		carts:    carts,
		dbClient: dbClient,
		logg:     logg,
		metrics:  checkoutMetrics,
		cfg:      cfg,
		hooks:    hooks,
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  GenerateOrderCode,
	}, nil
}

// Execute places an order from the visitor's cart.
//
// Everything that decides whether the sale may happen runs inside one
// transaction: the monthly quota count under the shop row lock, the stock
// check under the variant row locks, and the price snapshot. Either the
// whole cart is sold or nothing is.
func (s *service) Execute(ctx context.Context, input CheckoutInput) (*OrderDTO, error) {
	started := s.now()
	dto, err := s.execute(ctx, input)
	if s.metrics != nil {
		s.metrics.ObserveDuration(outcomeLabel(err), s.now().Sub(started))
		if err != nil {
			s.metrics.IncFailure(failureCode(err))
		} else {
			s.metrics.IncOrder(dto.PaymentMethod.String())
		}
	}
	return dto, err
}

func (s *service) execute(ctx context.Context, input CheckoutInput) (*OrderDTO, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	shop, err := s.shops.FindByID(ctx, input.ShopID)
	if err != nil {
		return nil, err
	}
	if err := quota.CheckTenant(shop, s.now()); err != nil {
		return nil, err
	}
	if len(shop.EnabledPayments) > 0 && !paymentEnabled(shop.EnabledPayments, input.PaymentMethod) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method not accepted by this shop").
			WithDetails(map[string]any{"payment_method": input.PaymentMethod.String()})
	}

	visitorCart, err := s.carts.Get(ctx, input.SessionID, input.ShopID)
	if err != nil {
		return nil, err
	}
	if visitorCart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	// merge duplicate lines: a cart should never hold two lines for one
	// variant, but a corrupted record must not decrement stock twice
	qtyByVariant := make(map[uuid.UUID]int, len(visitorCart.Lines))
	for _, line := range visitorCart.Lines {
		qtyByVariant[line.VariantID] += line.Quantity
	}
	variantIDs := make([]uuid.UUID, 0, len(qtyByVariant))
	for id := range qtyByVariant {
		variantIDs = append(variantIDs, id)
	}
	// lock in ascending ID order so concurrent checkouts cannot deadlock
	sort.Slice(variantIDs, func(i, j int) bool {
		return variantIDs[i].String() < variantIDs[j].String()
	})

	var order *models.Order
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := pkgdb.SetLocalLockTimeout(tx, s.cfg.LockTimeout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: set lock timeout")
		}
		txRepo := s.repo.WithTx(tx)

		lockedShop, err := txRepo.LockShop(ctx, input.ShopID)
		if err != nil {
			return err
		}
		// re-check under the lock: the shop or its plan may have changed
		// since the pre-flight read
		now := s.now()
		if err := quota.CheckTenant(lockedShop, now); err != nil {
			return err
		}

		winStart, winEnd := quota.MonthWindow(now)
		monthly, err := txRepo.CountOrdersInWindow(ctx, input.ShopID, winStart, winEnd)
		if err != nil {
			return err
		}
		if err := quota.CheckOrderQuota(lockedShop.CurrentPlan, monthly); err != nil {
			return err
		}

		variants, err := txRepo.LockVariants(ctx, input.ShopID, variantIDs)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*models.Variant, len(variants))
		for i := range variants {
			byID[variants[i].ID] = &variants[i]
		}

		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(variantIDs))
		for _, id := range variantIDs {
			qty := qtyByVariant[id]
			variant, ok := byID[id]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeCrossTenant, "variant does not belong to this shop")
			}
			if variant.Product == nil || !variant.Product.IsActive {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product is no longer available").
					WithDetails(map[string]any{"variant_id": id.String()})
			}
			if variant.Stock < qty {
				return pkgerrors.InsufficientStock(id.String(), variant.Stock, qty)
			}

			// price comes from the catalog under lock, never from the cart
			unit := variant.FinalPrice()
			lineTotal := unit.Mul(decimal.NewFromInt(int64(qty)))
			subtotal = subtotal.Add(lineTotal)
			items = append(items, models.OrderItem{
				ID:          uuid.New(),
				VariantID:   variant.ID,
				ProductName: variant.Product.Name,
				Size:        variant.Size,
				Color:       variant.Color,
				UnitPrice:   unit,
				Quantity:    qty,
				TotalPrice:  lineTotal,
			})
		}

		for _, id := range variantIDs {
			if err := txRepo.DecrementStock(ctx, id, qtyByVariant[id]); err != nil {
				return err
			}
		}

		order = &models.Order{
			ID:            uuid.New(),
			ShopID:        input.ShopID,
			Status:        enums.OrderStatusPending,
			PaymentMethod: input.PaymentMethod,
			Subtotal:      subtotal,
			ShippingCost:  input.ShippingCost,
			Discount:      decimal.Zero,
			Total:         subtotal.Add(input.ShippingCost),
			FullName:      strings.TrimSpace(input.Customer.FullName),
			Phone:         strings.TrimSpace(input.Customer.Phone),
			Address:       strings.TrimSpace(input.Customer.Address),
			PostalCode:    strings.TrimSpace(input.Customer.PostalCode),
			City:          strings.TrimSpace(input.Customer.City),
			Province:      strings.TrimSpace(input.Customer.Province),
			Notes:         input.Customer.Notes,
			Items:         items,
		}
		return s.insertWithFreshCode(ctx, tx, txRepo, order, now)
	})
	if err != nil {
		return nil, err
	}

	dto := toOrderDTO(order)
	s.runHooks(ctx, &Result{Order: dto, SessionID: input.SessionID})
	return dto, nil
}

// insertWithFreshCode inserts the order, regenerating the code on a
// collision. Each attempt runs under a savepoint so a unique violation does
// not poison the surrounding transaction.
func (s *service) insertWithFreshCode(ctx context.Context, tx *gorm.DB, txRepo *Repository, order *models.Order, now time.Time) error {
	attempts := s.cfg.CodeMaxAttempts
	if attempts <= 0 {
		attempts = defaultCodeRetries
	}
	for attempt := 0; attempt < attempts; attempt++ {
		code, err := s.newCode(now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order code")
		}
		order.OrderCode = code

		tx.SavePoint("order_insert")
		if err := txRepo.CreateOrder(ctx, order); err != nil {
			if pkgdb.IsUniqueViolation(err, "idx_orders_order_code") {
				tx.RollbackTo("order_insert")
				continue
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
		}
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeOrderCodeExhausted, "could not allocate a unique order code")
}

// GetOrder loads an order by code, scoped to the shop.
func (s *service) GetOrder(ctx context.Context, shopID uuid.UUID, code string) (*OrderDTO, error) {
	order, err := s.repo.FindByCode(ctx, shopID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	return toOrderDTO(order), nil
}

// ListOrders returns the shop's orders, newest first.
func (s *service) ListOrders(ctx context.Context, shopID uuid.UUID, limit int) ([]OrderDTO, error) {
	orders, err := s.repo.ListByShop(ctx, shopID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, *toOrderDTO(&orders[i]))
	}
	return out, nil
}

func validateInput(input CheckoutInput) error {
	if input.SessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session is required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if input.ShippingCost.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
	}
	c := input.Customer
	if strings.TrimSpace(c.FullName) == "" ||
		strings.TrimSpace(c.Phone) == "" ||
		strings.TrimSpace(c.Address) == "" ||
		strings.TrimSpace(c.PostalCode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "full name, phone, address and postal code are required")
	}
	return nil
}

func paymentEnabled(enabled []string, method enums.PaymentMethod) bool {
	for _, m := range enabled {
		if m == method.String() {
			return true
		}
	}
	return false
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	return "failure"
}

func failureCode(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeInternal)
}
