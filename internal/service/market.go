package service

import (
	"time"

	"github.com/esantos/venue/internal/domain"
	"github.com/esantos/venue/internal/engine"
	"github.com/esantos/venue/internal/store"
)

// OHLC summarizes the trades of a symbol over a time range. Empty is true
// when no trades fall in the range; the price fields are then meaningless
// and serialized as null by the handler. No numeric sentinel is used, so
// an empty range can never be confused with real prices.
type OHLC struct {
	Empty  bool
	Open   int64
	High   int64
	Low    int64
	Close  int64
	Volume int64
}

// BookDepth represents an aggregated snapshot of the top of the book.
type BookDepth struct {
	Symbol     string
	Buys       []engine.PriceLevel
	Sells      []engine.PriceLevel
	Spread     *int64 // nil if either side empty
	SnapshotAt time.Time
}

// TrailingPrice is the trailing-window VWAP for a symbol. Price is nil
// when no trades are inside the window.
type TrailingPrice struct {
	Symbol         string
	Price          *int64
	TradesInWindow int
}

// MarketService answers derived-analytics queries: trailing volume,
// trailing average price, OHLC over a range, and book depth.
type MarketService struct {
	ledger  *store.TradeLedger
	books   *engine.BookManager
	window  *engine.Window
	symbols *domain.SymbolRegistry
}

// NewMarketService creates a new MarketService with the given dependencies.
func NewMarketService(
	ledger *store.TradeLedger,
	books *engine.BookManager,
	window *engine.Window,
	symbols *domain.SymbolRegistry,
) *MarketService {
	return &MarketService{
		ledger:  ledger,
		books:   books,
		window:  window,
		symbols: symbols,
	}
}

// TrailingVolume returns the total executed quantity inside the trailing
// window for a symbol. A known symbol with no recent trades reports 0.
func (s *MarketService) TrailingVolume(symbol string) (int64, error) {
	if !s.symbols.Exists(symbol) {
		return 0, domain.ErrSymbolNotFound
	}
	return s.window.Volume(symbol, time.Now()), nil
}

// TrailingAvgPrice returns the volume-weighted average price of trades
// inside the trailing window. Price is nil when the window is empty.
func (s *MarketService) TrailingAvgPrice(symbol string) (*TrailingPrice, error) {
	if !s.symbols.Exists(symbol) {
		return nil, domain.ErrSymbolNotFound
	}

	now := time.Now()
	resp := &TrailingPrice{
		Symbol:         symbol,
		TradesInWindow: s.window.TradeCount(symbol, now),
	}
	if price, ok := s.window.AvgPrice(symbol, now); ok {
		resp.Price = &price
	}
	return resp, nil
}

// GetOHLC computes open/high/low/close/volume over the symbol's trades
// with start ≤ executed_at ≤ end. Open is the first trade's price in the
// range, Close the last, High/Low the extremes, Volume the quantity sum.
func (s *MarketService) GetOHLC(symbol string, start, end time.Time) (*OHLC, error) {
	if !s.symbols.Exists(symbol) {
		return nil, domain.ErrSymbolNotFound
	}
	if start.After(end) {
		return nil, &domain.ValidationError{
			Message: "start_time must not be after end_time",
		}
	}

	trades := s.ledger.Range(symbol, start, end)
	if len(trades) == 0 {
		return &OHLC{Empty: true}, nil
	}

	result := &OHLC{
		Open:  trades[0].Price,
		High:  trades[0].Price,
		Low:   trades[0].Price,
		Close: trades[len(trades)-1].Price,
	}
	for _, t := range trades {
		if t.Price > result.High {
			result.High = t.Price
		}
		if t.Price < result.Low {
			result.Low = t.Price
		}
		result.Volume += t.Quantity
	}
	return result, nil
}

// GetBookDepth returns up to depth aggregated price levels per side.
func (s *MarketService) GetBookDepth(symbol string, depth int) (*BookDepth, error) {
	if !s.symbols.Exists(symbol) {
		return nil, domain.ErrSymbolNotFound
	}
	if depth < 1 || depth > 50 {
		return nil, &domain.ValidationError{
			Message: "depth must be between 1 and 50",
		}
	}

	book := s.books.GetOrCreate(symbol)

	book.RLock()
	defer book.RUnlock()

	resp := &BookDepth{
		Symbol:     symbol,
		Buys:       book.TopBuys(depth),
		Sells:      book.TopSells(depth),
		SnapshotAt: time.Now(),
	}

	// Spread = best sell - best buy (nil if either side empty).
	if len(resp.Buys) > 0 && len(resp.Sells) > 0 {
		spread := resp.Sells[0].Price - resp.Buys[0].Price
		resp.Spread = &spread
	}

	return resp, nil
}
