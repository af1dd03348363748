package engine

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/esantos/venue/internal/domain"
	"github.com/esantos/venue/internal/store"
)

// Matcher implements the matching engine: it pairs incoming limit orders
// against resting opposite-side orders under price-time priority and is
// the single writer for all per-symbol state (book, ledger, window).
type Matcher struct {
	books   *BookManager
	orders  *store.OrderStore
	ledger  *store.TradeLedger
	window  *Window
	symbols *domain.SymbolRegistry
	lastID  atomic.Int64
}

// NewMatcher creates a new Matcher with the given dependencies.
func NewMatcher(
	books *BookManager,
	orders *store.OrderStore,
	ledger *store.TradeLedger,
	window *Window,
	symbols *domain.SymbolRegistry,
) *Matcher {
	return &Matcher{
		books:   books,
		orders:  orders,
		ledger:  ledger,
		window:  window,
		symbols: symbols,
	}
}

// Submit processes an incoming limit order through the matching engine.
// It assigns the order id and creation timestamp, runs the match loop
// against the opposite side of the book, and rests any unfilled
// remainder on the book. Returns the trades executed, in order.
//
// The caller must provide a validated Order with UserID, Side, Symbol,
// Price, and Quantity set. The per-symbol write lock is held for the
// entire matching pass, so trades for a symbol are recorded in
// non-decreasing execution-time order and quantity decrements are never
// observable without their trade.
//
// The incoming order is not inserted into the book until matching is
// done: it only matches against previously resting orders, so it can
// never cross against itself.
func (m *Matcher) Submit(order *domain.Order) []*domain.Trade {
	book := m.books.GetOrCreate(order.Symbol)

	book.mu.Lock()
	defer book.mu.Unlock()

	m.symbols.Register(order.Symbol)

	order.ID = m.lastID.Add(1)
	order.CreatedAt = time.Now()
	order.Remaining = order.Quantity
	order.Trades = []*domain.Trade{}

	m.orders.Create(order)

	var trades []*domain.Trade

	for order.Remaining > 0 {
		bestEntry, found := book.BestOpposite(order.Side, order.Price)
		if !found {
			break
		}

		resting := bestEntry.Order

		fillQty := order.Remaining
		if resting.Remaining < fillQty {
			fillQty = resting.Remaining
		}

		// The resting order's price stands; the aggressor never sets
		// the trade price.
		trade := &domain.Trade{
			TradeID:    uuid.New().String(),
			Symbol:     order.Symbol,
			Price:      bestEntry.Price,
			Quantity:   fillQty,
			ExecutedAt: time.Now(),
		}

		order.Remaining -= fillQty
		resting.Remaining -= fillQty

		// Both participants reference the same trade record.
		order.Trades = append(order.Trades, trade)
		resting.Trades = append(resting.Trades, trade)

		m.ledger.Append(order.Symbol, trade)
		m.window.OnTrade(order.Symbol, trade)

		trades = append(trades, trade)

		if resting.Remaining == 0 {
			book.Remove(resting.ID)
		}
	}

	if order.Remaining > 0 {
		book.Insert(OrderBookEntry{
			Price:     order.Price,
			CreatedAt: order.CreatedAt,
			OrderID:   order.ID,
			Order:     order,
		})
	}

	return trades
}

// Cancel withdraws the unfilled remainder of an order. Cancellation is
// best-effort: trades already recorded stand, and cancelling an order
// that is already inactive (filled, cancelled, or fully consumed) is a
// no-op that returns the unchanged status. Returns
// domain.ErrOrderNotFound for an unknown id.
func (m *Matcher) Cancel(orderID int64) (*domain.Order, error) {
	order, err := m.orders.Get(orderID)
	if err != nil {
		return nil, err
	}

	// The activity check must happen under the book lock: a concurrent
	// submit may be filling the order right now.
	book := m.books.GetOrCreate(order.Symbol)
	book.mu.Lock()
	defer book.mu.Unlock()

	if !order.Active() {
		return snapshotLocked(order), nil
	}

	book.Remove(order.ID)
	order.Cancelled = true

	return snapshotLocked(order), nil
}

// Snapshot returns a consistent copy of an order's externally visible
// state, taken under the symbol's book read lock. A reader of the copy
// never observes a quantity decrement without the trade that caused it,
// which a direct read of the live order cannot guarantee while the
// match loop is running.
func (m *Matcher) Snapshot(order *domain.Order) *domain.Order {
	book := m.books.GetOrCreate(order.Symbol)
	book.mu.RLock()
	defer book.mu.RUnlock()
	return snapshotLocked(order)
}

// snapshotLocked copies an order and its trade list. The caller must
// hold the order's book lock, read or write.
func snapshotLocked(order *domain.Order) *domain.Order {
	c := *order
	c.Trades = make([]*domain.Trade, len(order.Trades))
	copy(c.Trades, order.Trades)
	return &c
}
