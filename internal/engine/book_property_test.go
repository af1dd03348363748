package engine

import (
	"testing"
	"time"

	"github.com/esantos/venue/internal/domain"
	"pgregory.net/rapid"
)

// Draining the sell side via BestSell/Remove must yield entries in
// strictly increasing priority order: price ascending, then creation
// time ascending, then id ascending.
func TestProperty_SellDrainFollowsPriceTimeIDOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ob := NewOrderBook("TEST")
		base := time.Unix(1000, 0)

		n := rapid.IntRange(1, 50).Draw(t, "n")
		for i := 0; i < n; i++ {
			price := rapid.Int64Range(1, 10).Draw(t, "price")
			tsOffset := rapid.Int64Range(0, 5).Draw(t, "ts")
			ob.Insert(bookEntry(int64(i+1), domain.SideSell, price, base.Add(time.Duration(tsOffset)*time.Second)))
		}

		var prev *OrderBookEntry
		for {
			best, ok := ob.BestSell()
			if !ok {
				break
			}
			if prev != nil {
				if best.Price < prev.Price {
					t.Fatalf("price order violated: %d after %d", best.Price, prev.Price)
				}
				if best.Price == prev.Price {
					if best.CreatedAt.Before(prev.CreatedAt) {
						t.Fatalf("time order violated at price %d", best.Price)
					}
					if best.CreatedAt.Equal(prev.CreatedAt) && best.OrderID < prev.OrderID {
						t.Fatalf("id order violated at price %d: %d after %d", best.Price, best.OrderID, prev.OrderID)
					}
				}
			}
			e := best
			prev = &e
			ob.Remove(best.OrderID)
		}

		if ob.SellCount() != 0 {
			t.Fatalf("expected empty book after drain, %d left", ob.SellCount())
		}
	})
}

// Insert and remove in any interleaving must leave exactly the
// non-removed entries on the book, and the index must agree with the tree.
func TestProperty_InsertRemoveConsistency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ob := NewOrderBook("TEST")
		base := time.Unix(1000, 0)

		n := rapid.IntRange(1, 40).Draw(t, "n")
		live := make(map[int64]bool)

		for i := 0; i < n; i++ {
			id := int64(i + 1)
			price := rapid.Int64Range(1, 20).Draw(t, "price")
			ob.Insert(bookEntry(id, domain.SideBuy, price, base))
			live[id] = true

			if rapid.Bool().Draw(t, "remove") {
				victim := rapid.Int64Range(1, id).Draw(t, "victim")
				ob.Remove(victim)
				delete(live, victim)
			}
		}

		if ob.BuyCount() != len(live) {
			t.Fatalf("book has %d entries, expected %d", ob.BuyCount(), len(live))
		}
	})
}
