package engine

import (
	"sync"
	"time"

	"github.com/esantos/venue/internal/domain"
)

// symbolWindow holds the trailing-window state for one symbol: the FIFO
// of trades still inside the window plus deferred-division accumulators.
// Tracking sum(price×qty) and sum(qty) separately and dividing only at
// read time keeps the average exact; a float running average would drift
// under repeated incremental add/remove.
type symbolWindow struct {
	fifo        []*domain.Trade // time-ordered
	sumPriceQty int64
	sumQty      int64
}

// Window maintains trailing-interval volume and volume-weighted average
// price per symbol, updated incrementally on each trade rather than by
// rescanning the ledger. Eviction runs before every read and
// opportunistically on every insert to bound memory.
type Window struct {
	duration time.Duration
	mu       sync.Mutex
	symbols  map[string]*symbolWindow
}

// NewWindow creates a Window with the given trailing duration.
func NewWindow(duration time.Duration) *Window {
	return &Window{
		duration: duration,
		symbols:  make(map[string]*symbolWindow),
	}
}

// OnTrade pushes a trade into the symbol's window FIFO and updates the
// accumulators, then evicts any trades the new execution time pushed out
// of the window.
func (w *Window) OnTrade(symbol string, t *domain.Trade) {
	w.mu.Lock()
	defer w.mu.Unlock()

	sw := w.symbols[symbol]
	if sw == nil {
		sw = &symbolWindow{}
		w.symbols[symbol] = sw
	}

	sw.fifo = append(sw.fifo, t)
	sw.sumPriceQty += t.Price * t.Quantity
	sw.sumQty += t.Quantity

	w.evict(sw, t.ExecutedAt)
}

// evict pops trades from the front of the FIFO whose timestamp is older
// than now - duration, reversing the accumulation for each. The FIFO is
// time-ordered, so a prefix scan suffices; it stops at the first trade
// still inside the window.
func (w *Window) evict(sw *symbolWindow, now time.Time) {
	cutoff := now.Add(-w.duration)
	n := 0
	for n < len(sw.fifo) {
		t := sw.fifo[n]
		if !t.ExecutedAt.Before(cutoff) {
			break
		}
		sw.sumPriceQty -= t.Price * t.Quantity
		sw.sumQty -= t.Quantity
		n++
	}
	if n > 0 {
		sw.fifo = sw.fifo[n:]
	}
}

// EvictAll expires trades across every tracked symbol. Called by the
// background sweeper to bound memory between queries.
func (w *Window) EvictAll(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, sw := range w.symbols {
		w.evict(sw, now)
	}
}

// Volume returns the trailing-window total volume for a symbol as of now.
// A symbol with no in-window trades reports 0.
func (w *Window) Volume(symbol string, now time.Time) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	sw := w.symbols[symbol]
	if sw == nil {
		return 0
	}
	w.evict(sw, now)
	return sw.sumQty
}

// AvgPrice returns the trailing-window volume-weighted average price for
// a symbol as of now. Returns (0, false) when no trades are inside the
// window; the division only happens against a positive volume.
func (w *Window) AvgPrice(symbol string, now time.Time) (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	sw := w.symbols[symbol]
	if sw == nil {
		return 0, false
	}
	w.evict(sw, now)
	if sw.sumQty == 0 {
		return 0, false
	}
	return sw.sumPriceQty / sw.sumQty, true
}

// TradeCount returns the number of trades currently inside the window
// for a symbol, after evicting as of now. Useful for testing and the
// price endpoint's trades_in_window field.
func (w *Window) TradeCount(symbol string, now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	sw := w.symbols[symbol]
	if sw == nil {
		return 0
	}
	w.evict(sw, now)
	return len(sw.fifo)
}
