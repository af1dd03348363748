package domain

import "time"

// Side indicates whether an order is a buy or a sell.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Order is a limit order submitted by a user. Orders are identified by a
// monotonically increasing integer id assigned at submission and are never
// deleted: once filled or cancelled they become inactive but remain
// queryable through the order store.
type Order struct {
	ID        int64
	UserID    string
	Symbol    string
	Side      Side
	Price     int64 // cents
	Quantity  int64
	Remaining int64
	Cancelled bool
	CreatedAt time.Time
	Trades    []*Trade
}

// Active reports whether the order still has unfilled quantity and has
// not been cancelled.
func (o *Order) Active() bool {
	return o.Remaining > 0 && !o.Cancelled
}

// Filled returns the executed quantity.
func (o *Order) Filled() int64 {
	return o.Quantity - o.Remaining
}

// AveragePrice computes the volume-weighted average execution price
// as sum(trade.price × trade.quantity) / filled_quantity using integer
// arithmetic. Returns (price, true) when trades exist, or (0, false)
// when no quantity has been executed.
func (o *Order) AveragePrice() (int64, bool) {
	filled := o.Filled()
	if len(o.Trades) == 0 || filled == 0 {
		return 0, false
	}
	var total int64
	for _, t := range o.Trades {
		total += t.Price * t.Quantity
	}
	return total / filled, true
}
