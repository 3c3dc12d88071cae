package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/instastorehq/storefront-backend/internal/shops"
	pkgdb "github.com/instastorehq/storefront-backend/pkg/db"
	"github.com/instastorehq/storefront-backend/pkg/db/models"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
)

func TestCreateProductWithVariants(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	shop := seedSubscribedShop(t, db, 10, 100)

	dto, err := svc.CreateProduct(ctx, shop.ID, CreateProductInput{
		Name:      "Linen Shirt",
		BasePrice: decimal.NewFromInt(45000),
		Variants: []VariantInput{
			{Size: "M", Color: "white", Stock: 5},
			{Size: "L", Color: "white", Stock: 3, PriceAdjustment: decimal.NewFromInt(5000)},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(dto.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(dto.Variants))
	}
	if dto.TotalStock != 8 {
		t.Fatalf("expected total stock 8, got %d", dto.TotalStock)
	}
	for _, v := range dto.Variants {
		if v.Size == "L" && !v.FinalPrice.Equal(decimal.NewFromInt(50000)) {
			t.Fatalf("adjustment not applied: %s", v.FinalPrice)
		}
	}
}

func TestCreateProductEnforcesQuota(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	shop := seedSubscribedShop(t, db, 1, 100)

	input := CreateProductInput{
		Name:      "First",
		BasePrice: decimal.NewFromInt(1000),
		Variants:  []VariantInput{{Size: "M", Color: "black", Stock: 1}},
	}
	if _, err := svc.CreateProduct(ctx, shop.ID, input); err != nil {
		t.Fatalf("create first: %v", err)
	}

	input.Name = "Second"
	_, err := svc.CreateProduct(ctx, shop.ID, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeProductQuotaExceeded {
		t.Fatalf("expected product quota error, got %v", err)
	}
}

func TestArchivedProductFreesQuota(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	shop := seedSubscribedShop(t, db, 1, 100)

	input := CreateProductInput{
		Name:      "Only",
		BasePrice: decimal.NewFromInt(1000),
		Variants:  []VariantInput{{Size: "M", Color: "black", Stock: 1}},
	}
	first, err := svc.CreateProduct(ctx, shop.ID, input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	inactive := false
	if _, err := svc.UpdateProduct(ctx, shop.ID, first.ID, UpdateProductInput{IsActive: &inactive}); err != nil {
		t.Fatalf("archive: %v", err)
	}

	input.Name = "Replacement"
	if _, err := svc.CreateProduct(ctx, shop.ID, input); err != nil {
		t.Fatalf("archived product should free quota: %v", err)
	}

	// reactivating the archived one would now exceed the cap again
	active := true
	_, err = svc.UpdateProduct(ctx, shop.ID, first.ID, UpdateProductInput{IsActive: &active})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeProductQuotaExceeded {
		t.Fatalf("expected quota error on reactivation, got %v", err)
	}
}

func TestCreateProductRequiresActiveSubscription(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	shop := seedShop(t, db) // no plan

	_, err := svc.CreateProduct(ctx, shop.ID, CreateProductInput{
		Name:      "Blocked",
		BasePrice: decimal.NewFromInt(1000),
		Variants:  []VariantInput{{Size: "M", Color: "black", Stock: 1}},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeSubscriptionExpired {
		t.Fatalf("expected subscription error, got %v", err)
	}
}

func TestCreateProductRejectsDuplicateVariant(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	shop := seedSubscribedShop(t, db, 10, 100)

	_, err := svc.CreateProduct(ctx, shop.ID, CreateProductInput{
		Name:      "Dup",
		BasePrice: decimal.NewFromInt(1000),
		Variants: []VariantInput{
			{Size: "M", Color: "black", Stock: 1},
			{Size: "M", Color: "black", Stock: 2},
		},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddVariantRejectsExistingCombination(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	shop := seedSubscribedShop(t, db, 10, 100)

	dto, err := svc.CreateProduct(ctx, shop.ID, CreateProductInput{
		Name:      "Tee",
		BasePrice: decimal.NewFromInt(1000),
		Variants:  []VariantInput{{Size: "M", Color: "black", Stock: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AddVariant(ctx, shop.ID, dto.ID, VariantInput{Size: "L", Color: "black", Stock: 2}); err != nil {
		t.Fatalf("add variant: %v", err)
	}

	_, err = svc.AddVariant(ctx, shop.ID, dto.ID, VariantInput{Size: "M", Color: "black", Stock: 2})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestStorefrontHidesUnavailable(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	shop := seedSubscribedShop(t, db, 10, 100)

	sellable, err := svc.CreateProduct(ctx, shop.ID, CreateProductInput{
		Name:      "Sellable",
		BasePrice: decimal.NewFromInt(1000),
		Variants:  []VariantInput{{Size: "M", Color: "black", Stock: 3}},
	})
	if err != nil {
		t.Fatalf("create sellable: %v", err)
	}

	outOfStock, err := svc.CreateProduct(ctx, shop.ID, CreateProductInput{
		Name:      "Sold Out",
		BasePrice: decimal.NewFromInt(1000),
		Variants:  []VariantInput{{Size: "M", Color: "red", Stock: 0}},
	})
	if err != nil {
		t.Fatalf("create sold out: %v", err)
	}

	archived, err := svc.CreateProduct(ctx, shop.ID, CreateProductInput{
		Name:      "Archived",
		BasePrice: decimal.NewFromInt(1000),
		Variants:  []VariantInput{{Size: "M", Color: "blue", Stock: 5}},
	})
	if err != nil {
		t.Fatalf("create archived: %v", err)
	}
	inactive := false
	if _, err := svc.UpdateProduct(ctx, shop.ID, archived.ID, UpdateProductInput{IsActive: &inactive}); err != nil {
		t.Fatalf("archive: %v", err)
	}

	list, err := svc.ListStorefront(ctx, shop.ID)
	if err != nil {
		t.Fatalf("list storefront: %v", err)
	}
	if len(list) != 1 || list[0].ID != sellable.ID {
		t.Fatalf("storefront should only show sellable product, got %+v", list)
	}

	all, err := svc.ListAll(ctx, shop.ID)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("dashboard should show all 3 products, got %d", len(all))
	}
	_ = outOfStock
}

func TestCrossTenantVariantAccess(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)

	shopA := seedSubscribedShop(t, db, 10, 100)
	shopB := seedSubscribedShop(t, db, 10, 100)

	dto, err := svc.CreateProduct(ctx, shopA.ID, CreateProductInput{
		Name:      "A's Product",
		BasePrice: decimal.NewFromInt(1000),
		Variants:  []VariantInput{{Size: "M", Color: "black", Stock: 5}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	variantID := dto.Variants[0].ID

	// shop B cannot read or restock shop A's variant
	repo := NewRepository(db)
	_, err = repo.FindVariantForShop(ctx, shopB.ID, variantID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCrossTenant {
		t.Fatalf("expected cross-tenant error, got %v", err)
	}

	err = svc.Restock(ctx, shopB.ID, variantID, 99)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCrossTenant {
		t.Fatalf("expected cross-tenant error on restock, got %v", err)
	}

	// and B's product listing can never surface A's product
	_, err = svc.GetProduct(ctx, shopB.ID, dto.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRestock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := newTestService(t, db)
	shop := seedSubscribedShop(t, db, 10, 100)

	dto, err := svc.CreateProduct(ctx, shop.ID, CreateProductInput{
		Name:      "Tee",
		BasePrice: decimal.NewFromInt(1000),
		Variants:  []VariantInput{{Size: "M", Color: "black", Stock: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	variantID := dto.Variants[0].ID

	if err := svc.Restock(ctx, shop.ID, variantID, 42); err != nil {
		t.Fatalf("restock: %v", err)
	}
	variant, err := NewRepository(db).FindVariantForShop(ctx, shop.ID, variantID)
	if err != nil {
		t.Fatalf("load variant: %v", err)
	}
	if variant.Stock != 42 {
		t.Fatalf("expected stock 42, got %d", variant.Stock)
	}

	if err := svc.Restock(ctx, shop.ID, variantID, -1); err == nil {
		t.Fatalf("expected validation error for negative stock")
	}
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), shops.NewRepository(db), pkgdb.NewWithConn(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedShop(t *testing.T, db *gorm.DB) *models.Shop {
	t.Helper()
	shop := &models.Shop{
		ID:       uuid.New(),
		Name:     "Test Shop",
		Slug:     "shop-" + uuid.NewString(),
		Handle:   "handle-" + uuid.NewString(),
		IsActive: true,
	}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("seed shop: %v", err)
	}
	return shop
}

func seedSubscribedShop(t *testing.T, db *gorm.DB, maxProducts, maxOrders int) *models.Shop {
	t.Helper()
	code := "plan-" + uuid.NewString()
	plan := &models.Plan{
		Code:              code,
		Name:              "Test Plan",
		Price:             decimal.NewFromInt(10000),
		Days:              30,
		MaxProducts:       maxProducts,
		MaxOrdersPerMonth: maxOrders,
		IsActive:          true,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	now := time.Now().UTC()
	expires := now.AddDate(0, 0, 30)
	shop := seedShop(t, db)
	if err := db.Model(&models.Shop{}).Where("id = ?", shop.ID).Updates(map[string]any{
		"current_plan_code": code,
		"plan_started_at":   now,
		"plan_expires_at":   expires,
	}).Error; err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	shop.CurrentPlanCode = &plan.Code
	shop.CurrentPlan = plan
	shop.PlanStartedAt = &now
	shop.PlanExpiresAt = &expires
	return shop
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Plan{}, &models.Shop{}, &models.Product{}, &models.Variant{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
