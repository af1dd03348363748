package domain

import "time"

// Trade is a matched execution between an incoming order and a resting
// order. The execution price is always the resting order's price. Both
// participating orders reference the same Trade in their histories; the
// record is immutable once created.
type Trade struct {
	TradeID    string
	Symbol     string
	Price      int64 // cents
	Quantity   int64
	ExecutedAt time.Time
}
