package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/esantos/venue/internal/domain"
	"github.com/esantos/venue/internal/engine"
	"github.com/esantos/venue/internal/service"
	"github.com/go-chi/chi/v5"
)

// MarketHandler handles HTTP requests for instrument analytics endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc}
}

// volumeResponse is the JSON response for the trailing volume endpoint.
type volumeResponse struct {
	Symbol string `json:"symbol"`
	Volume int64  `json:"volume"`
}

// priceResponse is the JSON response for the trailing price endpoint.
type priceResponse struct {
	Symbol         string   `json:"symbol"`
	Price          *float64 `json:"price"`
	TradesInWindow int      `json:"trades_in_window"`
}

// ohlcResponse is the JSON response for the OHLC endpoint. The price
// fields are null when no trades fall inside the requested range.
type ohlcResponse struct {
	Symbol    string   `json:"symbol"`
	Empty     bool     `json:"empty"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    int64    `json:"volume"`
	StartTime int64    `json:"start_time"`
	EndTime   int64    `json:"end_time"`
}

// priceLevelResponse is an aggregated price level in the book response.
type priceLevelResponse struct {
	Price         float64 `json:"price"`
	TotalQuantity int64   `json:"total_quantity"`
	OrderCount    int     `json:"order_count"`
}

// bookResponse is the JSON response for the book depth endpoint.
type bookResponse struct {
	Symbol     string               `json:"symbol"`
	Buys       []priceLevelResponse `json:"buys"`
	Sells      []priceLevelResponse `json:"sells"`
	Spread     *float64             `json:"spread"`
	SnapshotAt int64                `json:"snapshot_at"`
}

// Volume handles GET /instruments/{symbol}/volume.
func (h *MarketHandler) Volume(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	volume, err := h.marketSvc.TrailingVolume(symbol)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, volumeResponse{Symbol: symbol, Volume: volume})
}

// Price handles GET /instruments/{symbol}/price.
func (h *MarketHandler) Price(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	tp, err := h.marketSvc.TrailingAvgPrice(symbol)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	resp := priceResponse{
		Symbol:         tp.Symbol,
		TradesInWindow: tp.TradesInWindow,
	}
	if tp.Price != nil {
		dollars := domain.CentsToDollars(*tp.Price)
		resp.Price = &dollars
	}
	WriteJSON(w, http.StatusOK, resp)
}

// OHLC handles GET /instruments/{symbol}/ohlc.
func (h *MarketHandler) OHLC(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	start, end, err := parseTimeRange(r, time.Unix(0, 0), time.Now())
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	ohlc, err := h.marketSvc.GetOHLC(symbol, start, end)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	resp := ohlcResponse{
		Symbol:    symbol,
		Empty:     ohlc.Empty,
		Volume:    ohlc.Volume,
		StartTime: start.Unix(),
		EndTime:   end.Unix(),
	}
	if !ohlc.Empty {
		open := domain.CentsToDollars(ohlc.Open)
		high := domain.CentsToDollars(ohlc.High)
		low := domain.CentsToDollars(ohlc.Low)
		cl := domain.CentsToDollars(ohlc.Close)
		resp.Open, resp.High, resp.Low, resp.Close = &open, &high, &low, &cl
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Book handles GET /instruments/{symbol}/book.
func (h *MarketHandler) Book(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	depth := 10
	if v := r.URL.Query().Get("depth"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "depth must be an integer")
			return
		}
		depth = d
	}

	book, err := h.marketSvc.GetBookDepth(symbol, depth)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	resp := bookResponse{
		Symbol:     book.Symbol,
		Buys:       buildPriceLevels(book.Buys),
		Sells:      buildPriceLevels(book.Sells),
		SnapshotAt: book.SnapshotAt.Unix(),
	}
	if book.Spread != nil {
		spread := domain.CentsToDollars(*book.Spread)
		resp.Spread = &spread
	}
	WriteJSON(w, http.StatusOK, resp)
}

func buildPriceLevels(levels []engine.PriceLevel) []priceLevelResponse {
	resp := make([]priceLevelResponse, len(levels))
	for i, pl := range levels {
		resp[i] = priceLevelResponse{
			Price:         domain.CentsToDollars(pl.Price),
			TotalQuantity: pl.TotalQuantity,
			OrderCount:    pl.OrderCount,
		}
	}
	return resp
}

// parseTimeRange reads the optional start_time and end_time query params
// (unix seconds), falling back to the given defaults. Range ordering is
// validated at the service layer.
func parseTimeRange(r *http.Request, defStart, defEnd time.Time) (time.Time, time.Time, error) {
	start, end := defStart, defEnd

	if v := r.URL.Query().Get("start_time"); v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("start_time must be a unix timestamp in seconds")
		}
		start = time.Unix(sec, 0)
	}
	if v := r.URL.Query().Get("end_time"); v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("end_time must be a unix timestamp in seconds")
		}
		end = time.Unix(sec, 0)
	}

	return start, end, nil
}
