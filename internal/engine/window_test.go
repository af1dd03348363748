package engine

import (
	"testing"
	"time"

	"github.com/esantos/venue/internal/domain"
)

func windowTrade(price, qty int64, executedAt time.Time) *domain.Trade {
	return &domain.Trade{
		TradeID:    "t",
		Symbol:     "AAPL",
		Price:      price,
		Quantity:   qty,
		ExecutedAt: executedAt,
	}
}

func TestWindow_EmptyState(t *testing.T) {
	w := NewWindow(time.Hour)
	now := time.Now()

	if got := w.Volume("AAPL", now); got != 0 {
		t.Errorf("expected volume 0 before any trade, got %d", got)
	}
	if _, ok := w.AvgPrice("AAPL", now); ok {
		t.Error("expected no average price before any trade")
	}
}

func TestWindow_AccumulatesTrades(t *testing.T) {
	w := NewWindow(time.Hour)
	now := time.Now()

	w.OnTrade("AAPL", windowTrade(10000, 5, now))
	w.OnTrade("AAPL", windowTrade(20000, 5, now.Add(time.Second)))

	if got := w.Volume("AAPL", now.Add(time.Second)); got != 10 {
		t.Errorf("expected volume 10, got %d", got)
	}
	avg, ok := w.AvgPrice("AAPL", now.Add(time.Second))
	if !ok {
		t.Fatal("expected an average price")
	}
	if avg != 15000 {
		t.Errorf("expected VWAP 15000, got %d", avg)
	}
}

func TestWindow_EvictsExpiredPrefix(t *testing.T) {
	w := NewWindow(time.Hour)
	now := time.Unix(100000, 0)

	// One trade just outside the window, one well inside.
	w.OnTrade("AAPL", windowTrade(10000, 7, now.Add(-3601*time.Second)))
	w.OnTrade("AAPL", windowTrade(20000, 3, now.Add(-10*time.Second)))

	if got := w.Volume("AAPL", now); got != 3 {
		t.Errorf("expected only the in-window quantity 3, got %d", got)
	}
	avg, ok := w.AvgPrice("AAPL", now)
	if !ok || avg != 20000 {
		t.Errorf("expected avg 20000 from the surviving trade, got %d (ok=%v)", avg, ok)
	}
	if got := w.TradeCount("AAPL", now); got != 1 {
		t.Errorf("expected 1 trade left in window, got %d", got)
	}
}

func TestWindow_EvictionIsExactReversal(t *testing.T) {
	w := NewWindow(time.Hour)
	base := time.Unix(100000, 0)

	w.OnTrade("AAPL", windowTrade(333, 7, base))
	w.OnTrade("AAPL", windowTrade(10001, 13, base.Add(30*time.Minute)))

	// After the first trade expires, the stats must equal a window that
	// only ever saw the second trade.
	later := base.Add(61 * time.Minute)
	if got := w.Volume("AAPL", later); got != 13 {
		t.Errorf("expected volume 13, got %d", got)
	}
	avg, ok := w.AvgPrice("AAPL", later)
	if !ok || avg != 10001 {
		t.Errorf("expected exact avg 10001 after reversal, got %d (ok=%v)", avg, ok)
	}
}

func TestWindow_AllTradesExpired(t *testing.T) {
	w := NewWindow(time.Hour)
	base := time.Unix(100000, 0)

	w.OnTrade("AAPL", windowTrade(10000, 5, base))

	later := base.Add(2 * time.Hour)
	if got := w.Volume("AAPL", later); got != 0 {
		t.Errorf("expected volume 0 after full expiry, got %d", got)
	}
	if _, ok := w.AvgPrice("AAPL", later); ok {
		t.Error("expected no average price after full expiry")
	}
}

func TestWindow_EvictAll(t *testing.T) {
	w := NewWindow(time.Hour)
	base := time.Unix(100000, 0)

	w.OnTrade("AAPL", windowTrade(10000, 5, base))
	w.OnTrade("GOOG", windowTrade(20000, 2, base))

	w.EvictAll(base.Add(2 * time.Hour))

	if w.Volume("AAPL", base.Add(2*time.Hour)) != 0 || w.Volume("GOOG", base.Add(2*time.Hour)) != 0 {
		t.Error("expected both symbols swept")
	}
}

func TestWindow_SymbolsAreIndependent(t *testing.T) {
	w := NewWindow(time.Hour)
	now := time.Now()

	w.OnTrade("AAPL", windowTrade(10000, 5, now))
	w.OnTrade("GOOG", windowTrade(20000, 2, now))

	if got := w.Volume("AAPL", now); got != 5 {
		t.Errorf("expected AAPL volume 5, got %d", got)
	}
	if got := w.Volume("GOOG", now); got != 2 {
		t.Errorf("expected GOOG volume 2, got %d", got)
	}
}
