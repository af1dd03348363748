package store

import (
	"sort"
	"sync"
	"time"

	"github.com/esantos/venue/internal/domain"
)

// TradeLedger is a thread-safe, append-only record of executed trades,
// keyed by symbol. Execution timestamps are assigned by the matching
// engine under the per-symbol write lock, so each symbol's slice is in
// non-decreasing ExecutedAt order and range queries can bisect it.
type TradeLedger struct {
	mu     sync.RWMutex
	trades map[string][]*domain.Trade // symbol → trades (chronological)
}

// NewTradeLedger creates an empty TradeLedger.
func NewTradeLedger() *TradeLedger {
	return &TradeLedger{
		trades: make(map[string][]*domain.Trade),
	}
}

// Append adds a trade to the symbol's chronological list.
func (l *TradeLedger) Append(symbol string, t *domain.Trade) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.trades[symbol] = append(l.trades[symbol], t)
}

// Range returns the contiguous subsequence of the symbol's trades with
// start ≤ ExecutedAt ≤ end, inclusive on both ends. Returns an empty
// slice when no trades fall in the range.
func (l *TradeLedger) Range(symbol string, start, end time.Time) []*domain.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	all := l.trades[symbol]

	lo := sort.Search(len(all), func(i int) bool {
		return !all[i].ExecutedAt.Before(start)
	})
	hi := sort.Search(len(all), func(i int) bool {
		return all[i].ExecutedAt.After(end)
	})
	if lo >= hi {
		return []*domain.Trade{}
	}

	result := make([]*domain.Trade, hi-lo)
	copy(result, all[lo:hi])
	return result
}

// BySymbol returns all trades for a symbol in chronological order.
// Returns an empty slice if no trades exist for the symbol.
func (l *TradeLedger) BySymbol(symbol string) []*domain.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	trades := l.trades[symbol]
	if trades == nil {
		return []*domain.Trade{}
	}

	// Return a copy to avoid callers mutating the internal slice.
	result := make([]*domain.Trade, len(trades))
	copy(result, trades)
	return result
}

// Len returns the number of trades recorded for a symbol.
func (l *TradeLedger) Len(symbol string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trades[symbol])
}
