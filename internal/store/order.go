package store

import (
	"sync"
	"time"

	"github.com/esantos/venue/internal/domain"
)

// OrderStore is a thread-safe in-memory store for orders, with a primary
// index by order id and a secondary index by user id. The per-user slice
// is append-only in store-arrival order, which is not necessarily
// timestamp order: one user submitting to two symbols concurrently can
// have a later-stamped order reach the store first, because timestamps
// are assigned under the per-symbol lock and the store has its own.
type OrderStore struct {
	mu         sync.RWMutex
	orders     map[int64]*domain.Order
	userOrders map[string][]*domain.Order // user_id → orders (creation order)
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:     make(map[int64]*domain.Order),
		userOrders: make(map[string][]*domain.Order),
	}
}

// Create adds an order to the store and appends it to the user's
// secondary index. The caller must have assigned ID and CreatedAt.
func (s *OrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.ID] = o
	s.userOrders[o.UserID] = append(s.userOrders[o.UserID], o)
}

// Get retrieves an order by id. It returns
// domain.ErrOrderNotFound if the order does not exist.
func (s *OrderStore) Get(id int64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// ListByUserInRange returns the user's orders whose creation timestamp
// falls within [start, end], inclusive on both ends, in the order they
// reached the store. It returns domain.ErrUserNotFound if the user has
// never submitted an order.
func (s *OrderStore) ListByUserInRange(userID string, start, end time.Time) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, ok := s.userOrders[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	// The slice may not be sorted by CreatedAt (see the type comment),
	// so the range is filtered linearly rather than bisected.
	result := []*domain.Order{}
	for _, o := range all {
		if o.CreatedAt.Before(start) || o.CreatedAt.After(end) {
			continue
		}
		result = append(result, o)
	}
	return result, nil
}
