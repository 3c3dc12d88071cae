package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/instastorehq/storefront-backend/internal/cart"
	"github.com/instastorehq/storefront-backend/internal/catalog"
	"github.com/instastorehq/storefront-backend/internal/shops"
	"github.com/instastorehq/storefront-backend/pkg/config"
	pkgdb "github.com/instastorehq/storefront-backend/pkg/db"
	"github.com/instastorehq/storefront-backend/pkg/db/models"
	"github.com/instastorehq/storefront-backend/pkg/enums"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
	"github.com/instastorehq/storefront-backend/pkg/logger"
)

func TestExecuteHappyPath(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	shop := f.seedShop(t, 100)
	variant := f.seedVariant(t, shop.ID, 10, 45000, 5000)
	session := uuid.NewString()

	if _, err := f.carts.Add(ctx, session, shop.ID, variant.ID, 2); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	dto, err := f.svc.Execute(ctx, checkoutInput(session, shop.ID))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if dto.OrderCode == "" || dto.Status != enums.OrderStatusPending {
		t.Fatalf("unexpected order %+v", dto)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(dto.Items))
	}
	item := dto.Items[0]
	if !item.UnitPrice.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("unit price should be base plus adjustment, got %s", item.UnitPrice)
	}
	if !dto.Subtotal.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("unexpected subtotal %s", dto.Subtotal)
	}
	if !dto.Total.Equal(decimal.NewFromInt(101500)) {
		t.Fatalf("total should include shipping, got %s", dto.Total)
	}

	// stock was decremented
	var stored models.Variant
	if err := f.db.First(&stored, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if stored.Stock != 8 {
		t.Fatalf("expected stock 8, got %d", stored.Stock)
	}

	// the cart-clear hook ran
	cleared, err := f.carts.Get(ctx, session, shop.ID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if !cleared.IsEmpty() {
		t.Fatalf("cart should be empty after checkout")
	}
}

func TestExecuteChargesCatalogPriceNotCartHint(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	shop := f.seedShop(t, 100)
	variant := f.seedVariant(t, shop.ID, 10, 45000, 0)
	session := uuid.NewString()

	if _, err := f.carts.Add(ctx, session, shop.ID, variant.ID, 1); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	// merchant reprices while the cart sits idle
	if err := f.db.Model(&models.Product{}).Where("id = ?", variant.ProductID).
		Update("base_price", decimal.NewFromInt(60000)).Error; err != nil {
		t.Fatalf("reprice: %v", err)
	}

	dto, err := f.svc.Execute(ctx, checkoutInput(session, shop.ID))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !dto.Items[0].UnitPrice.Equal(decimal.NewFromInt(60000)) {
		t.Fatalf("order must charge the current catalog price, got %s", dto.Items[0].UnitPrice)
	}
}

func TestExecuteInsufficientStockAbortsWholeOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	shop := f.seedShop(t, 100)
	plenty := f.seedVariant(t, shop.ID, 10, 10000, 0)
	scarce := f.seedVariant(t, shop.ID, 1, 20000, 0)
	session := uuid.NewString()

	if _, err := f.carts.Add(ctx, session, shop.ID, plenty.ID, 2); err != nil {
		t.Fatalf("add plenty: %v", err)
	}
	if _, err := f.carts.Add(ctx, session, shop.ID, scarce.ID, 1); err != nil {
		t.Fatalf("add scarce: %v", err)
	}

	// a competing sale empties the scarce variant after the cart was built
	if err := f.db.Model(&models.Variant{}).Where("id = ?", scarce.ID).Update("stock", 0).Error; err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	_, err := f.svc.Execute(ctx, checkoutInput(session, shop.ID))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	// nothing was sold: no order rows, first variant untouched
	var orderCount int64
	if err := f.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders, got %d", orderCount)
	}
	var stored models.Variant
	if err := f.db.First(&stored, "id = ?", plenty.ID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if stored.Stock != 10 {
		t.Fatalf("partial decrement leaked: stock %d", stored.Stock)
	}
}

func TestExecuteLastUnitGoesToOneBuyer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	shop := f.seedShop(t, 100)
	variant := f.seedVariant(t, shop.ID, 1, 10000, 0)

	first := uuid.NewString()
	second := uuid.NewString()
	if _, err := f.carts.Add(ctx, first, shop.ID, variant.ID, 1); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if _, err := f.carts.Add(ctx, second, shop.ID, variant.ID, 1); err != nil {
		t.Fatalf("add second: %v", err)
	}

	if _, err := f.svc.Execute(ctx, checkoutInput(first, shop.ID)); err != nil {
		t.Fatalf("first buyer: %v", err)
	}
	_, err := f.svc.Execute(ctx, checkoutInput(second, shop.ID))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("second buyer should miss out, got %v", err)
	}

	var stored models.Variant
	if err := f.db.First(&stored, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if stored.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", stored.Stock)
	}
}

func TestExecuteEnforcesMonthlyOrderQuota(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	shop := f.seedShop(t, 1) // one order per month
	variant := f.seedVariant(t, shop.ID, 10, 10000, 0)

	first := uuid.NewString()
	second := uuid.NewString()
	if _, err := f.carts.Add(ctx, first, shop.ID, variant.ID, 1); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if _, err := f.carts.Add(ctx, second, shop.ID, variant.ID, 1); err != nil {
		t.Fatalf("add second: %v", err)
	}

	if _, err := f.svc.Execute(ctx, checkoutInput(first, shop.ID)); err != nil {
		t.Fatalf("first order: %v", err)
	}
	_, err := f.svc.Execute(ctx, checkoutInput(second, shop.ID))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeOrderQuotaExceeded {
		t.Fatalf("expected order quota error, got %v", err)
	}
}

func TestExecuteRejectsDisabledShopStates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	shop := f.seedShop(t, 100)
	variant := f.seedVariant(t, shop.ID, 10, 10000, 0)
	session := uuid.NewString()
	if _, err := f.carts.Add(ctx, session, shop.ID, variant.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	// deactivated shop
	if err := f.db.Model(&models.Shop{}).Where("id = ?", shop.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err := f.svc.Execute(ctx, checkoutInput(session, shop.ID))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeShopInactive {
		t.Fatalf("expected shop inactive, got %v", err)
	}

	// expired subscription
	past := time.Now().UTC().Add(-time.Hour)
	if err := f.db.Model(&models.Shop{}).Where("id = ?", shop.ID).Updates(map[string]any{
		"is_active":       true,
		"plan_expires_at": past,
	}).Error; err != nil {
		t.Fatalf("expire: %v", err)
	}
	_, err = f.svc.Execute(ctx, checkoutInput(session, shop.ID))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeSubscriptionExpired {
		t.Fatalf("expected subscription expired, got %v", err)
	}
}

func TestExecuteRejectsEmptyCartAndBadInput(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	shop := f.seedShop(t, 100)
	session := uuid.NewString()

	_, err := f.svc.Execute(ctx, checkoutInput(session, shop.ID))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}

	input := checkoutInput(session, shop.ID)
	input.Customer.Phone = ""
	_, err = f.svc.Execute(ctx, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing phone, got %v", err)
	}

	input = checkoutInput(session, shop.ID)
	input.PaymentMethod = "barter"
	_, err = f.svc.Execute(ctx, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad payment method, got %v", err)
	}
}

func TestExecuteRejectsDisabledPaymentMethod(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	shop := f.seedShop(t, 100)
	if err := f.db.Model(&models.Shop{}).Where("id = ?", shop.ID).
		Updates(models.Shop{EnabledPayments: []string{"online"}}).Error; err != nil {
		t.Fatalf("set payments: %v", err)
	}
	variant := f.seedVariant(t, shop.ID, 10, 10000, 0)
	session := uuid.NewString()
	if _, err := f.carts.Add(ctx, session, shop.ID, variant.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	input := checkoutInput(session, shop.ID)
	input.PaymentMethod = enums.PaymentMethodCash
	_, err := f.svc.Execute(ctx, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteQuotaUsesPlanReadInsideTransaction(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// the plan committed in the DB allows one order per month, and that
	// order already exists
	shop := f.seedShop(t, 1)
	variant := f.seedVariant(t, shop.ID, 10, 10000, 0)
	session := uuid.NewString()
	if _, err := f.carts.Add(ctx, session, shop.ID, variant.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	seedOrder(t, f.db, shop.ID, "ORD209901-USED01")

	// a pre-flight read that raced a plan downgrade still carries the old
	// generous cap; the transaction must not trust it
	stale := *shop
	stale.CurrentPlan = &models.Plan{
		Code:              *shop.CurrentPlanCode,
		Name:              "Generous",
		MaxProducts:       100,
		MaxOrdersPerMonth: 100,
		IsActive:          true,
	}

	logg := logger.New(logger.Options{ServiceName: "checkout-test"})
	svc, err := NewService(
		NewRepository(f.db),
		&staleShopReader{shop: &stale},
		f.carts,
		pkgdb.NewWithConn(f.db),
		logg,
		nil,
		config.CheckoutConfig{LockTimeout: 5 * time.Second, CodeMaxAttempts: 3},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Execute(ctx, checkoutInput(session, shop.ID))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOrderQuotaExceeded {
		t.Fatalf("expected order quota error from the in-transaction plan, got %v", err)
	}
}

func TestExecuteMergesDuplicateCartLines(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	shop := f.seedShop(t, 100)
	variant := f.seedVariant(t, shop.ID, 10, 10000, 0)
	session := uuid.NewString()

	// a corrupted cart record carrying the same variant twice
	crafted := &craftedCartReader{cart: &cart.Cart{
		SessionID: session,
		ShopID:    shop.ID,
		Lines: []cart.Line{
			{VariantID: variant.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(10000)},
			{VariantID: variant.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(10000)},
		},
	}}
	svc := f.newService(t, crafted)

	dto, err := svc.Execute(ctx, checkoutInput(session, shop.ID))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("duplicate lines must collapse into one item, got %d", len(dto.Items))
	}
	if dto.Items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", dto.Items[0].Quantity)
	}
	if !dto.Subtotal.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("unexpected subtotal %s", dto.Subtotal)
	}

	var stored models.Variant
	if err := f.db.First(&stored, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if stored.Stock != 7 {
		t.Fatalf("stock must drop once by the merged quantity, got %d", stored.Stock)
	}
}

func TestExecuteRejectsForeignCartLine(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	shopA := f.seedShop(t, 100)
	shopB := f.seedShop(t, 100)
	foreign := f.seedVariant(t, shopA.ID, 10, 10000, 0)
	session := uuid.NewString()

	// bypass the cart service guards with a crafted cart
	crafted := &craftedCartReader{cart: &cart.Cart{
		SessionID: session,
		ShopID:    shopB.ID,
		Lines: []cart.Line{{
			VariantID: foreign.ID,
			Quantity:  1,
			UnitPrice: decimal.NewFromInt(10000),
		}},
	}}
	svc := f.newService(t, crafted)

	_, err := svc.Execute(ctx, checkoutInput(session, shopB.ID))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCrossTenant {
		t.Fatalf("expected cross-tenant rejection, got %v", err)
	}
}

func TestExecuteRetriesOrderCodeCollision(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	shop := f.seedShop(t, 100)
	variant := f.seedVariant(t, shop.ID, 10, 10000, 0)
	session := uuid.NewString()
	if _, err := f.carts.Add(ctx, session, shop.ID, variant.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	// an existing order already holds the first code the generator returns
	taken := "ORD209901-TAKEN1"
	seedOrder(t, f.db, shop.ID, taken)

	codes := []string{taken, "ORD209901-FRESH1"}
	f.svc.(*service).newCode = func(time.Time) (string, error) {
		code := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return code, nil
	}

	dto, err := f.svc.Execute(ctx, checkoutInput(session, shop.ID))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if dto.OrderCode != "ORD209901-FRESH1" {
		t.Fatalf("expected retried code, got %s", dto.OrderCode)
	}
}

func TestExecuteGivesUpWhenCodesExhausted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	shop := f.seedShop(t, 100)
	variant := f.seedVariant(t, shop.ID, 10, 10000, 0)
	session := uuid.NewString()
	if _, err := f.carts.Add(ctx, session, shop.ID, variant.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	taken := "ORD209901-STUCK1"
	seedOrder(t, f.db, shop.ID, taken)
	f.svc.(*service).newCode = func(time.Time) (string, error) { return taken, nil }

	_, err := f.svc.Execute(ctx, checkoutInput(session, shop.ID))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeOrderCodeExhausted {
		t.Fatalf("expected code exhaustion, got %v", err)
	}

	// the exhausted attempt must not have sold anything
	var stored models.Variant
	if err := f.db.First(&stored, "id = ?", variant.ID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if stored.Stock != 10 {
		t.Fatalf("stock leaked on failed checkout: %d", stored.Stock)
	}
}

func TestGetOrderScopedToShop(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	shopA := f.seedShop(t, 100)
	shopB := f.seedShop(t, 100)
	variant := f.seedVariant(t, shopA.ID, 10, 10000, 0)
	session := uuid.NewString()
	if _, err := f.carts.Add(ctx, session, shopA.ID, variant.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	placed, err := f.svc.Execute(ctx, checkoutInput(session, shopA.ID))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	got, err := f.svc.GetOrder(ctx, shopA.ID, placed.OrderCode)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.OrderCode != placed.OrderCode || len(got.Items) != 1 {
		t.Fatalf("unexpected order %+v", got)
	}

	_, err = f.svc.GetOrder(ctx, shopB.ID, placed.OrderCode)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("foreign shop must not see the order, got %v", err)
	}

	list, err := f.svc.ListOrders(ctx, shopA.ID, 10)
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 order, got %d", len(list))
	}
}

type fixture struct {
	db    *gorm.DB
	carts cart.Service
	svc   Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	carts, err := cart.NewService(cart.NewMemoryStore(), catalog.NewRepository(db))
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}

	f := &fixture{db: db, carts: carts}
	f.svc = f.newService(t, carts)
	return f
}

func (f *fixture) newService(t *testing.T, carts cartReader) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "checkout-test"})
	cfg := config.CheckoutConfig{LockTimeout: 5 * time.Second, CodeMaxAttempts: 3}
	var hooks []Hook
	if full, ok := carts.(cart.Service); ok {
		hooks = append(hooks, NewCartClearHook(full))
	}
	svc, err := NewService(
		NewRepository(f.db),
		shops.NewRepository(f.db),
		carts,
		pkgdb.NewWithConn(f.db),
		logg,
		nil,
		cfg,
		hooks...,
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func (f *fixture) seedShop(t *testing.T, maxOrders int) *models.Shop {
	t.Helper()
	code := "plan-" + uuid.NewString()
	plan := &models.Plan{
		Code:              code,
		Name:              "Test Plan",
		Price:             decimal.NewFromInt(10000),
		Days:              30,
		MaxProducts:       100,
		MaxOrdersPerMonth: maxOrders,
		IsActive:          true,
	}
	if err := f.db.Create(plan).Error; err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	now := time.Now().UTC()
	expires := now.AddDate(0, 0, 30)
	shop := &models.Shop{
		ID:              uuid.New(),
		Name:            "Test Shop",
		Slug:            "shop-" + uuid.NewString(),
		Handle:          "handle-" + uuid.NewString(),
		IsActive:        true,
		CurrentPlanCode: &plan.Code,
		PlanStartedAt:   &now,
		PlanExpiresAt:   &expires,
	}
	if err := f.db.Create(shop).Error; err != nil {
		t.Fatalf("seed shop: %v", err)
	}
	return shop
}

func (f *fixture) seedVariant(t *testing.T, shopID uuid.UUID, stock int, basePrice, adjustment int64) *models.Variant {
	t.Helper()
	product := &models.Product{
		ID:        uuid.New(),
		ShopID:    shopID,
		Name:      "Product " + uuid.NewString()[:8],
		BasePrice: decimal.NewFromInt(basePrice),
		IsActive:  true,
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := &models.Variant{
		ID:              uuid.New(),
		ProductID:       product.ID,
		Size:            "M",
		Color:           "black",
		Stock:           stock,
		PriceAdjustment: decimal.NewFromInt(adjustment),
	}
	if err := f.db.Create(variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant
}

type staleShopReader struct {
	shop *models.Shop
}

func (r *staleShopReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	return r.shop, nil
}

type craftedCartReader struct {
	cart *cart.Cart
}

func (c *craftedCartReader) Get(ctx context.Context, sessionID string, shopID uuid.UUID) (*cart.Cart, error) {
	return c.cart, nil
}

func checkoutInput(session string, shopID uuid.UUID) CheckoutInput {
	return CheckoutInput{
		SessionID:     session,
		ShopID:        shopID,
		PaymentMethod: enums.PaymentMethodCash,
		ShippingCost:  decimal.NewFromInt(1500),
		Customer: CustomerInput{
			FullName:   "Ada Lovelace",
			Phone:      "+4512345678",
			Address:    "1 Analytical Row",
			PostalCode: "1000",
			City:       "Copenhagen",
		},
	}
}

func seedOrder(t *testing.T, db *gorm.DB, shopID uuid.UUID, code string) {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		ShopID:        shopID,
		OrderCode:     code,
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodCash,
		Subtotal:      decimal.NewFromInt(1000),
		ShippingCost:  decimal.Zero,
		Discount:      decimal.Zero,
		Total:         decimal.NewFromInt(1000),
		FullName:      "Existing",
		Phone:         "1",
		Address:       "1",
		PostalCode:    "1",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Plan{},
		&models.Shop{},
		&models.Product{},
		&models.Variant{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
