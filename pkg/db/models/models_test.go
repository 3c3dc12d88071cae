package models_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/instastorehq/storefront-backend/pkg/db/models"
	"github.com/instastorehq/storefront-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:models_" + uuid.NewString() + "?mode=memory&cache=shared"
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
		t.Fatalf("migrate models: %v", err)
	}
	return db
}

// The full model set must migrate on sqlite: struct tags may not carry
// postgres-only expressions, those belong in the goose SQL.
func TestAllModelsMigrateOnSQLite(t *testing.T) {
	t.Parallel()
	newTestDB(t)
}

func TestCreateAssignsUUIDWhenMissing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	shop := &models.Shop{Name: "Vinyl Den", Slug: "vinyl-den", Handle: "vinylden", IsActive: true}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("create shop: %v", err)
	}
	if shop.ID == uuid.Nil {
		t.Fatal("expected shop ID to be assigned on create")
	}

	product := &models.Product{ShopID: shop.ID, Name: "LP Crate", BasePrice: decimal.NewFromInt(45000), IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	if product.ID == uuid.Nil {
		t.Fatal("expected product ID to be assigned on create")
	}

	variant := &models.Variant{ProductID: product.ID, Size: "std", Color: "black", Stock: 3}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant: %v", err)
	}
	if variant.ID == uuid.Nil {
		t.Fatal("expected variant ID to be assigned on create")
	}
}

func TestCreateKeepsCallerAssignedID(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	want := uuid.New()
	shop := &models.Shop{ID: want, Name: "Fixed", Slug: "fixed", Handle: "fixed", IsActive: true}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("create shop: %v", err)
	}
	if shop.ID != want {
		t.Fatalf("hook replaced caller-assigned ID: got %s want %s", shop.ID, want)
	}
}

// A plan created inactive has to stay inactive after a round trip. GORM
// drops zero-valued fields from INSERT when the tag declares a default, so
// the boolean columns must not carry one.
func TestInactiveFlagsSurviveRoundTrip(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	plan := &models.Plan{
		Code:              "legacy",
		Name:              "Legacy",
		Price:             decimal.NewFromInt(0),
		Days:              30,
		MaxProducts:       5,
		MaxOrdersPerMonth: 10,
		IsActive:          false,
		IsDefault:         false,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("create plan: %v", err)
	}

	var got models.Plan
	if err := db.First(&got, "code = ?", "legacy").Error; err != nil {
		t.Fatalf("reload plan: %v", err)
	}
	if got.IsActive {
		t.Fatal("inactive plan persisted as active")
	}

	shop := &models.Shop{Name: "Dormant", Slug: "dormant", Handle: "dormant", IsActive: false}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("create shop: %v", err)
	}
	var gotShop models.Shop
	if err := db.First(&gotShop, "id = ?", shop.ID).Error; err != nil {
		t.Fatalf("reload shop: %v", err)
	}
	if gotShop.IsActive {
		t.Fatal("inactive shop persisted as active")
	}
}

func TestEnabledPaymentsRoundTrip(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	shop := &models.Shop{
		Name:            "Pay Lab",
		Slug:            "pay-lab",
		Handle:          "paylab",
		IsActive:        true,
		EnabledPayments: []string{"online", "cod"},
	}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("create shop: %v", err)
	}

	var got models.Shop
	if err := db.First(&got, "id = ?", shop.ID).Error; err != nil {
		t.Fatalf("reload shop: %v", err)
	}
	if len(got.EnabledPayments) != 2 || got.EnabledPayments[0] != "online" || got.EnabledPayments[1] != "cod" {
		t.Fatalf("unexpected enabled payments %v", got.EnabledPayments)
	}
}

func TestSubscriptionStateAt(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	code := "basic"
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Minute)

	shop := models.Shop{}
	if got := shop.SubscriptionStateAt(now); got != enums.SubscriptionNoPlan {
		t.Fatalf("expected no_plan, got %s", got)
	}

	shop.CurrentPlanCode = &code
	shop.PlanExpiresAt = &future
	if !shop.HasActiveSubscription(now) {
		t.Fatal("expected active subscription before expiry")
	}

	shop.PlanExpiresAt = &past
	if shop.HasActiveSubscription(now) {
		t.Fatal("expected expired subscription after expiry")
	}

	// expiry boundary counts as expired
	shop.PlanExpiresAt = &now
	if shop.HasActiveSubscription(now) {
		t.Fatal("expected boundary instant to be expired")
	}
}
