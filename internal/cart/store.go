package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
	"github.com/instastorehq/storefront-backend/pkg/redis"
)

// Store persists carts keyed by (session, shop). Implementations must treat
// a missing cart as an empty one.
type Store interface {
	Load(ctx context.Context, sessionID string, shopID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, sessionID string, shopID uuid.UUID) error
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds the production cart store. Every save refreshes the
// TTL, so a cart expires only after the visitor goes idle.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Load(ctx context.Context, sessionID string, shopID uuid.UUID) (*Cart, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(sessionID, shopID.String()))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Cart{SessionID: sessionID, ShopID: shopID}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: load cart")
	}
	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		// an unreadable cart is dropped rather than bricking the session
		return &Cart{SessionID: sessionID, ShopID: shopID}, nil
	}
	return &cart, nil
}

func (s *redisStore) Save(ctx context.Context, cart *Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal cart")
	}
	key := s.client.CartKey(cart.SessionID, cart.ShopID.String())
	if err := s.client.Set(ctx, key, string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: save cart")
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, sessionID string, shopID uuid.UUID) error {
	if err := s.client.Del(ctx, s.client.CartKey(sessionID, shopID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis: delete cart")
	}
	return nil
}

type memoryStore struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

// NewMemoryStore builds an in-process cart store for tests and local runs
// without Redis.
func NewMemoryStore() Store {
	return &memoryStore{carts: make(map[string]*Cart)}
}

func (s *memoryStore) key(sessionID string, shopID uuid.UUID) string {
	return sessionID + "/" + shopID.String()
}

func (s *memoryStore) Load(ctx context.Context, sessionID string, shopID uuid.UUID) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart, ok := s.carts[s.key(sessionID, shopID)]; ok {
		copied := *cart
		copied.Lines = append([]Line(nil), cart.Lines...)
		return &copied, nil
	}
	return &Cart{SessionID: sessionID, ShopID: shopID}, nil
}

func (s *memoryStore) Save(ctx context.Context, cart *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *cart
	copied.Lines = append([]Line(nil), cart.Lines...)
	s.carts[s.key(cart.SessionID, cart.ShopID)] = &copied
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, sessionID string, shopID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, s.key(sessionID, shopID))
	return nil
}
