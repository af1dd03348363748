package engine

import (
	"sync"
	"time"

	"github.com/esantos/venue/internal/domain"
	"github.com/google/btree"
)

// OrderBookEntry represents a single order resting on the book.
type OrderBookEntry struct {
	Price     int64
	CreatedAt time.Time
	OrderID   int64
	Order     *domain.Order
}

// PriceLevel represents an aggregated price level in the order book.
type PriceLevel struct {
	Price         int64
	TotalQuantity int64
	OrderCount    int
}

// buyLess defines ordering for the buy side: price descending, then
// created_at ascending, then order id ascending. Min() returns the best
// bid (highest price, earliest time, smallest id). The id tie-break makes
// the priority a total order, so replays are deterministic even when two
// orders share a timestamp.
func buyLess(a, b OrderBookEntry) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// sellLess defines ordering for the sell side: price ascending, then
// created_at ascending, then order id ascending. Min() returns the best
// ask (lowest price, earliest time, smallest id).
func sellLess(a, b OrderBookEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// OrderBook maintains the buy and sell sides for a single symbol using
// B-trees with a secondary index for O(log n) removal by order id.
// Best-price lookup never scans resting orders.
type OrderBook struct {
	symbol string
	mu     sync.RWMutex
	buys   *btree.BTreeG[OrderBookEntry]
	sells  *btree.BTreeG[OrderBookEntry]
	index  map[int64]OrderBookEntry // order id → entry
}

// NewOrderBook creates an order book for the given symbol.
func NewOrderBook(symbol string) *OrderBook {
	const degree = 32
	return &OrderBook{
		symbol: symbol,
		buys:   btree.NewG[OrderBookEntry](degree, buyLess),
		sells:  btree.NewG[OrderBookEntry](degree, sellLess),
		index:  make(map[int64]OrderBookEntry),
	}
}

// RLock acquires the read lock on the order book.
func (ob *OrderBook) RLock() {
	ob.mu.RLock()
}

// RUnlock releases the read lock on the order book.
func (ob *OrderBook) RUnlock() {
	ob.mu.RUnlock()
}

// Insert adds an entry to the side matching its order.
func (ob *OrderBook) Insert(entry OrderBookEntry) {
	if entry.Order.Side == domain.SideBuy {
		ob.buys.ReplaceOrInsert(entry)
	} else {
		ob.sells.ReplaceOrInsert(entry)
	}
	ob.index[entry.OrderID] = entry
}

// Remove deletes an order from the book by order id using the secondary
// index. Removing an id that is not on the book is a no-op, which makes
// cancellation idempotent.
func (ob *OrderBook) Remove(orderID int64) {
	entry, ok := ob.index[orderID]
	if !ok {
		return
	}
	delete(ob.index, orderID)
	// Try both sides — Delete is a no-op if the entry isn't found.
	ob.buys.Delete(entry)
	ob.sells.Delete(entry)
}

// BestBuy returns the highest-priority buy (highest price, earliest time).
func (ob *OrderBook) BestBuy() (OrderBookEntry, bool) {
	return ob.buys.Min()
}

// BestSell returns the highest-priority sell (lowest price, earliest time).
func (ob *OrderBook) BestSell() (OrderBookEntry, bool) {
	return ob.sells.Min()
}

// BestOpposite returns the resting order on the opposite side whose price
// crosses the given limit: the lowest sell ≤ a buy limit, or the highest
// buy ≥ a sell limit. The boolean is false when no resting order crosses.
func (ob *OrderBook) BestOpposite(side domain.Side, limit int64) (OrderBookEntry, bool) {
	if side == domain.SideBuy {
		best, found := ob.sells.Min()
		if !found || best.Price > limit {
			return OrderBookEntry{}, false
		}
		return best, true
	}
	best, found := ob.buys.Min()
	if !found || best.Price < limit {
		return OrderBookEntry{}, false
	}
	return best, true
}

// TopBuys returns up to n aggregated price levels from the buy side,
// ordered by price descending.
func (ob *OrderBook) TopBuys(n int) []PriceLevel {
	return topLevels(ob.buys, n)
}

// TopSells returns up to n aggregated price levels from the sell side,
// ordered by price ascending.
func (ob *OrderBook) TopSells(n int) []PriceLevel {
	return topLevels(ob.sells, n)
}

// topLevels iterates the B-tree in order and aggregates entries into
// at most n price levels.
func topLevels(tree *btree.BTreeG[OrderBookEntry], n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	tree.Ascend(func(entry OrderBookEntry) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price == entry.Price {
			levels[len(levels)-1].TotalQuantity += entry.Order.Remaining
			levels[len(levels)-1].OrderCount++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:         entry.Price,
			TotalQuantity: entry.Order.Remaining,
			OrderCount:    1,
		})
		return true
	})
	return levels
}

// BuyCount returns the number of individual buy orders on the book.
func (ob *OrderBook) BuyCount() int {
	return ob.buys.Len()
}

// SellCount returns the number of individual sell orders on the book.
func (ob *OrderBook) SellCount() int {
	return ob.sells.Len()
}

// BookManager is a thread-safe map of symbol → OrderBook.
type BookManager struct {
	mu    sync.RWMutex
	books map[string]*OrderBook
}

// NewBookManager creates a new BookManager.
func NewBookManager() *BookManager {
	return &BookManager{
		books: make(map[string]*OrderBook),
	}
}

// GetOrCreate returns the order book for the given symbol, creating
// one if it doesn't already exist.
func (bm *BookManager) GetOrCreate(symbol string) *OrderBook {
	bm.mu.RLock()
	book, ok := bm.books[symbol]
	bm.mu.RUnlock()
	if ok {
		return book
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()
	// Double-check after acquiring write lock.
	if book, ok = bm.books[symbol]; ok {
		return book
	}
	book = NewOrderBook(symbol)
	bm.books[symbol] = book
	return book
}
