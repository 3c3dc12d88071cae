package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	cartsvc "github.com/instastorehq/storefront-backend/internal/cart"
	catalogsvc "github.com/instastorehq/storefront-backend/internal/catalog"
	checkoutsvc "github.com/instastorehq/storefront-backend/internal/checkout"
	shopsvc "github.com/instastorehq/storefront-backend/internal/shops"
	subscriptionsvc "github.com/instastorehq/storefront-backend/internal/subscriptions"
	"github.com/instastorehq/storefront-backend/pkg/config"
	"github.com/instastorehq/storefront-backend/pkg/db/models"
	"github.com/instastorehq/storefront-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubPlanLister struct{}

func (stubPlanLister) ListActive(context.Context) ([]models.Plan, error) {
	return []models.Plan{{Code: "basic", Name: "Basic", Days: 30}}, nil
}

type stubShopService struct{}

func (stubShopService) Register(ctx context.Context, input shopsvc.RegisterShopInput) (*shopsvc.ShopDTO, error) {
	return &shopsvc.ShopDTO{ID: uuid.New(), Name: input.Name, Slug: input.Slug, Handle: input.Handle}, nil
}

func (stubShopService) GetByID(ctx context.Context, id uuid.UUID) (*shopsvc.ShopDTO, error) {
	return &shopsvc.ShopDTO{ID: id, Name: "Mug Barn", Slug: "mug-barn"}, nil
}

func (stubShopService) GetBySlug(ctx context.Context, slug string) (*shopsvc.ShopDTO, error) {
	return &shopsvc.ShopDTO{ID: uuid.New(), Name: "Mug Barn", Slug: slug}, nil
}

func (stubShopService) Update(ctx context.Context, id uuid.UUID, input shopsvc.UpdateShopInput) (*shopsvc.ShopDTO, error) {
	panic("unimplemented")
}

func (stubShopService) Deactivate(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubShopService) Reactivate(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubSubscriptionService struct{}

func (stubSubscriptionService) AssignPlan(ctx context.Context, shopID uuid.UUID, planCode string) (*subscriptionsvc.StatusDTO, error) {
	panic("unimplemented")
}

func (stubSubscriptionService) Renew(ctx context.Context, shopID uuid.UUID) (*subscriptionsvc.StatusDTO, error) {
	panic("unimplemented")
}

func (stubSubscriptionService) Status(ctx context.Context, shopID uuid.UUID) (*subscriptionsvc.StatusDTO, error) {
	return &subscriptionsvc.StatusDTO{ShopID: shopID}, nil
}

type stubCatalogService struct{}

func (stubCatalogService) CreateProduct(ctx context.Context, shopID uuid.UUID, input catalogsvc.CreateProductInput) (*catalogsvc.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) UpdateProduct(ctx context.Context, shopID, productID uuid.UUID, input catalogsvc.UpdateProductInput) (*catalogsvc.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) GetProduct(ctx context.Context, shopID, productID uuid.UUID) (*catalogsvc.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) ListStorefront(ctx context.Context, shopID uuid.UUID) ([]catalogsvc.ProductDTO, error) {
	return []catalogsvc.ProductDTO{}, nil
}

func (stubCatalogService) ListAll(ctx context.Context, shopID uuid.UUID) ([]catalogsvc.ProductDTO, error) {
	return []catalogsvc.ProductDTO{}, nil
}

func (stubCatalogService) AddVariant(ctx context.Context, shopID, productID uuid.UUID, input catalogsvc.VariantInput) (*catalogsvc.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) Restock(ctx context.Context, shopID, variantID uuid.UUID, stock int) error {
	panic("unimplemented")
}

type stubCartService struct{}

func (stubCartService) Add(ctx context.Context, sessionID string, shopID, variantID uuid.UUID, quantity int) (*cartsvc.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateQuantity(ctx context.Context, sessionID string, shopID, variantID uuid.UUID, quantity int) (*cartsvc.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) Remove(ctx context.Context, sessionID string, shopID, variantID uuid.UUID) (*cartsvc.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) Get(ctx context.Context, sessionID string, shopID uuid.UUID) (*cartsvc.Cart, error) {
	return &cartsvc.Cart{SessionID: sessionID, ShopID: shopID, UpdatedAt: time.Now().UTC()}, nil
}

func (stubCartService) Clear(ctx context.Context, sessionID string, shopID uuid.UUID) error {
	return nil
}

type stubCheckoutService struct {
	executed int
}

func (s *stubCheckoutService) Execute(ctx context.Context, input checkoutsvc.CheckoutInput) (*checkoutsvc.OrderDTO, error) {
	s.executed++
	return &checkoutsvc.OrderDTO{ID: uuid.New(), ShopID: input.ShopID, OrderCode: "ORD202608-TEST01"}, nil
}

func (s *stubCheckoutService) GetOrder(ctx context.Context, shopID uuid.UUID, code string) (*checkoutsvc.OrderDTO, error) {
	panic("unimplemented")
}

func (s *stubCheckoutService) ListOrders(ctx context.Context, shopID uuid.UUID, limit int) ([]checkoutsvc.OrderDTO, error) {
	return []checkoutsvc.OrderDTO{}, nil
}

type fakeIdempotencyStore struct {
	data map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{data: map[string]string{}}
}

func (s *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *fakeIdempotencyStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.data[key] = fmt.Sprintf("%v", value)
	return nil
}

func (s *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("idempotency:%s:%s", scope, id)
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		Session: config.SessionConfig{
			Secret:     "test-secret",
			Issuer:     "storefront",
			TTLMinutes: 60,
		},
		Checkout: config.CheckoutConfig{IdempotencyTTL: 168 * time.Hour},
	}
}

func newTestRouter(cfg *config.Config, checkout checkoutsvc.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:        cfg,
		Logger:        logg,
		DBPinger:      stubPinger{},
		RedisPinger:   stubPinger{},
		Plans:         stubPlanLister{},
		Shops:         stubShopService{},
		Subscriptions: stubSubscriptionService{},
		Catalog:       stubCatalogService{},
		Cart:          stubCartService{},
		Checkout:      checkout,
	})
}

func TestHealthEndpointsRespond(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCheckoutService{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestVisitorSessionMintedWhenAbsent(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCheckoutService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shops/"+uuid.NewString()+"/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("X-SF-Token") == "" {
		t.Fatalf("expected a freshly minted visitor token header")
	}
}

func TestVisitorSessionPreservedWhenValid(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubCheckoutService{})

	first := httptest.NewRequest(http.MethodGet, "/api/v1/shops/"+uuid.NewString()+"/cart", nil)
	firstResp := httptest.NewRecorder()
	router.ServeHTTP(firstResp, first)
	token := firstResp.Header().Get("X-SF-Token")
	if token == "" {
		t.Fatalf("expected minted token on first request")
	}

	second := httptest.NewRequest(http.MethodGet, "/api/v1/shops/"+uuid.NewString()+"/cart", nil)
	second.Header.Set("Authorization", "Bearer "+token)
	secondResp := httptest.NewRecorder()
	router.ServeHTTP(secondResp, second)

	if secondResp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", secondResp.Code)
	}
	if secondResp.Header().Get("X-SF-Token") != "" {
		t.Fatalf("valid token should not be re-minted")
	}
}

func TestStorefrontRoutesReachHandlers(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCheckoutService{})

	paths := []string{
		"/api/v1/plans",
		"/api/v1/storefronts/mug-barn",
		"/api/v1/shops/" + uuid.NewString() + "/catalog",
		"/api/v1/shops/" + uuid.NewString() + "/orders",
		"/api/v1/shops/" + uuid.NewString() + "/subscription",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d: %s", path, resp.Code, resp.Body.String())
		}
	}
}

func TestCheckoutRequiresIdempotencyKeyWhenStoreConfigured(t *testing.T) {
	checkout := &stubCheckoutService{}
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	cfg := testConfig()
	router := NewRouter(Deps{
		Config:        cfg,
		Logger:        logg,
		DBPinger:      stubPinger{},
		RedisPinger:   stubPinger{},
		Idempotency:   newFakeIdempotencyStore(),
		Plans:         stubPlanLister{},
		Shops:         stubShopService{},
		Subscriptions: stubSubscriptionService{},
		Catalog:       stubCatalogService{},
		Cart:          stubCartService{},
		Checkout:      checkout,
	})

	body := `{"payment_method":"cash","customer":{"full_name":"Ada","phone":"0400","address":"1 Main St","postal_code":"2000"}}`
	path := "/api/v1/shops/" + uuid.NewString() + "/checkout"

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d: %s", resp.Code, resp.Body.String())
	}
	if checkout.executed != 0 {
		t.Fatalf("checkout should not run without idempotency key")
	}

	keyed := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	keyed.Header.Set("Idempotency-Key", "abc")
	keyedResp := httptest.NewRecorder()
	router.ServeHTTP(keyedResp, keyed)
	if keyedResp.Code != http.StatusCreated {
		t.Fatalf("expected 201 with idempotency key got %d: %s", keyedResp.Code, keyedResp.Body.String())
	}
	if checkout.executed != 1 {
		t.Fatalf("expected one checkout execution got %d", checkout.executed)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCheckoutService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
