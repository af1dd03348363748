package engine

import (
	"testing"
	"time"

	"github.com/esantos/venue/internal/domain"
)

func bookEntry(id int64, side domain.Side, price int64, createdAt time.Time) OrderBookEntry {
	o := &domain.Order{
		ID:        id,
		Symbol:    "AAPL",
		Side:      side,
		Price:     price,
		Quantity:  10,
		Remaining: 10,
		CreatedAt: createdAt,
	}
	return OrderBookEntry{Price: price, CreatedAt: createdAt, OrderID: id, Order: o}
}

func TestOrderBook_BestBuyIsHighestPrice(t *testing.T) {
	ob := NewOrderBook("AAPL")
	now := time.Now()

	ob.Insert(bookEntry(1, domain.SideBuy, 10000, now))
	ob.Insert(bookEntry(2, domain.SideBuy, 10200, now))
	ob.Insert(bookEntry(3, domain.SideBuy, 10100, now))

	best, ok := ob.BestBuy()
	if !ok {
		t.Fatal("expected a best buy")
	}
	if best.OrderID != 2 {
		t.Errorf("expected order 2 (price 10200), got %d", best.OrderID)
	}
}

func TestOrderBook_BestSellIsLowestPrice(t *testing.T) {
	ob := NewOrderBook("AAPL")
	now := time.Now()

	ob.Insert(bookEntry(1, domain.SideSell, 10200, now))
	ob.Insert(bookEntry(2, domain.SideSell, 10000, now))
	ob.Insert(bookEntry(3, domain.SideSell, 10100, now))

	best, ok := ob.BestSell()
	if !ok {
		t.Fatal("expected a best sell")
	}
	if best.OrderID != 2 {
		t.Errorf("expected order 2 (price 10000), got %d", best.OrderID)
	}
}

func TestOrderBook_TimeTieBreakAtEqualPrice(t *testing.T) {
	ob := NewOrderBook("AAPL")
	t1 := time.Unix(1000, 0)
	t2 := time.Unix(2000, 0)

	ob.Insert(bookEntry(2, domain.SideSell, 10000, t2))
	ob.Insert(bookEntry(1, domain.SideSell, 10000, t1))

	best, _ := ob.BestSell()
	if best.OrderID != 1 {
		t.Errorf("expected earlier order 1 to win the tie, got %d", best.OrderID)
	}
}

func TestOrderBook_IDTieBreakAtEqualPriceAndTime(t *testing.T) {
	ob := NewOrderBook("AAPL")
	ts := time.Unix(1000, 0)

	ob.Insert(bookEntry(7, domain.SideBuy, 10000, ts))
	ob.Insert(bookEntry(3, domain.SideBuy, 10000, ts))

	best, _ := ob.BestBuy()
	if best.OrderID != 3 {
		t.Errorf("expected smaller id 3 to win the tie, got %d", best.OrderID)
	}
}

func TestOrderBook_BestOpposite(t *testing.T) {
	ob := NewOrderBook("AAPL")
	now := time.Now()

	ob.Insert(bookEntry(1, domain.SideSell, 10000, now))

	// A buy limit at or above the best sell crosses.
	if _, ok := ob.BestOpposite(domain.SideBuy, 10000); !ok {
		t.Error("expected buy at 10000 to cross sell at 10000")
	}
	if _, ok := ob.BestOpposite(domain.SideBuy, 9999); ok {
		t.Error("expected buy at 9999 not to cross sell at 10000")
	}

	ob.Insert(bookEntry(2, domain.SideBuy, 9000, now))

	// A sell limit at or below the best buy crosses.
	if _, ok := ob.BestOpposite(domain.SideSell, 9000); !ok {
		t.Error("expected sell at 9000 to cross buy at 9000")
	}
	if _, ok := ob.BestOpposite(domain.SideSell, 9001); ok {
		t.Error("expected sell at 9001 not to cross buy at 9000")
	}
}

func TestOrderBook_RemoveIsIdempotent(t *testing.T) {
	ob := NewOrderBook("AAPL")
	ob.Insert(bookEntry(1, domain.SideBuy, 10000, time.Now()))

	ob.Remove(1)
	if ob.BuyCount() != 0 {
		t.Fatalf("expected empty buy side, got %d", ob.BuyCount())
	}

	// Removing again, or removing an unknown id, is a no-op.
	ob.Remove(1)
	ob.Remove(99)
}

func TestOrderBook_TopLevelsAggregation(t *testing.T) {
	ob := NewOrderBook("AAPL")
	now := time.Now()

	ob.Insert(bookEntry(1, domain.SideSell, 10000, now))
	ob.Insert(bookEntry(2, domain.SideSell, 10000, now.Add(time.Second)))
	ob.Insert(bookEntry(3, domain.SideSell, 10100, now))

	levels := ob.TopSells(10)
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(levels))
	}
	if levels[0].Price != 10000 || levels[0].TotalQuantity != 20 || levels[0].OrderCount != 2 {
		t.Errorf("unexpected first level: %+v", levels[0])
	}
	if levels[1].Price != 10100 || levels[1].OrderCount != 1 {
		t.Errorf("unexpected second level: %+v", levels[1])
	}

	if got := ob.TopSells(1); len(got) != 1 {
		t.Errorf("expected depth limit to apply, got %d levels", len(got))
	}
}

func TestBookManager_GetOrCreateReturnsSameBook(t *testing.T) {
	bm := NewBookManager()
	a := bm.GetOrCreate("AAPL")
	b := bm.GetOrCreate("AAPL")
	if a != b {
		t.Error("expected the same book for the same symbol")
	}
	if bm.GetOrCreate("GOOG") == a {
		t.Error("expected distinct books per symbol")
	}
}
