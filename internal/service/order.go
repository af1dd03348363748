package service

import (
	"regexp"
	"time"

	"github.com/esantos/venue/internal/domain"
	"github.com/esantos/venue/internal/engine"
	"github.com/esantos/venue/internal/store"
	"github.com/esantos/venue/internal/stream"
)

var (
	userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	symbolRegex = regexp.MustCompile(`^[A-Z]{1,10}$`)
)

// SubmitOrderRequest represents the input for order submission.
type SubmitOrderRequest struct {
	UserID   string
	Symbol   string
	Side     domain.Side
	Price    float64
	Quantity int64
}

// OrderService handles order submission, retrieval, cancellation, and
// per-user history.
type OrderService struct {
	matcher *engine.Matcher
	orders  *store.OrderStore
	feed    *stream.Hub
}

// NewOrderService creates a new OrderService with the given dependencies.
// feed may be nil, in which case trade publication is skipped.
func NewOrderService(matcher *engine.Matcher, orders *store.OrderStore, feed *stream.Hub) *OrderService {
	return &OrderService{
		matcher: matcher,
		orders:  orders,
		feed:    feed,
	}
}

// Submit validates the request, runs the matching engine, and publishes
// any executed trades to the feed. Validation failures reject the order
// before any state mutation.
func (s *OrderService) Submit(req SubmitOrderRequest) (*domain.Order, error) {
	if !userIDRegex.MatchString(req.UserID) {
		return nil, &domain.ValidationError{
			Message: "user_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !symbolRegex.MatchString(req.Symbol) {
		return nil, &domain.ValidationError{
			Message: "symbol must match ^[A-Z]{1,10}$",
		}
	}
	if req.Side != domain.SideBuy && req.Side != domain.SideSell {
		return nil, &domain.ValidationError{
			Message: "side must be 'buy' or 'sell'",
		}
	}
	if req.Quantity <= 0 {
		return nil, &domain.ValidationError{
			Message: "quantity must be a positive integer",
		}
	}
	if req.Price <= 0 {
		return nil, &domain.ValidationError{
			Message: "price must be greater than 0",
		}
	}
	priceCents, err := domain.DollarsToCents(req.Price)
	if err != nil {
		return nil, &domain.ValidationError{
			Message: "price must have at most 2 decimal places",
		}
	}

	order := &domain.Order{
		UserID:   req.UserID,
		Symbol:   req.Symbol,
		Side:     req.Side,
		Price:    priceCents,
		Quantity: req.Quantity,
	}

	trades := s.matcher.Submit(order)

	// Publish outside the matching lock, fire-and-forget.
	if s.feed != nil {
		s.feed.Publish(order.Symbol, trades)
	}

	return s.matcher.Snapshot(order), nil
}

// Get retrieves an order by id with all its trades. The returned order
// is a point-in-time snapshot, never the live order the matcher mutates.
func (s *OrderService) Get(orderID int64) (*domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return nil, err
	}
	return s.matcher.Snapshot(order), nil
}

// Cancel withdraws the unfilled remainder of an order. Cancelling an
// already-inactive order is a no-op returning the unchanged order.
func (s *OrderService) Cancel(orderID int64) (*domain.Order, error) {
	return s.matcher.Cancel(orderID)
}

// UserHistory returns snapshots of the user's orders created within
// [start, end], inclusive, in submission order.
func (s *OrderService) UserHistory(userID string, start, end time.Time) ([]*domain.Order, error) {
	if !userIDRegex.MatchString(userID) {
		return nil, &domain.ValidationError{
			Message: "user_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if start.After(end) {
		return nil, &domain.ValidationError{
			Message: "start_time must not be after end_time",
		}
	}
	orders, err := s.orders.ListByUserInRange(userID, start, end)
	if err != nil {
		return nil, err
	}
	for i, o := range orders {
		orders[i] = s.matcher.Snapshot(o)
	}
	return orders, nil
}
