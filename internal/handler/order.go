package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/esantos/venue/internal/domain"
	"github.com/esantos/venue/internal/service"
	"github.com/go-chi/chi/v5"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// submitOrderRequest is the JSON request body for POST /orders.
type submitOrderRequest struct {
	UserID   string  `json:"user_id"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// orderResponse is the JSON execution report for an order. Timestamps are
// unix seconds; nullable fields use pointers.
type orderResponse struct {
	OrderID           int64           `json:"order_id"`
	UserID            string          `json:"user_id"`
	Symbol            string          `json:"symbol"`
	Side              string          `json:"side"`
	Price             float64         `json:"price"`
	Quantity          int64           `json:"quantity"`
	FilledQuantity    int64           `json:"filled_quantity"`
	RemainingQuantity int64           `json:"remaining_quantity"`
	Active            bool            `json:"active"`
	CreatedAt         int64           `json:"created_at"`
	AveragePrice      *float64        `json:"average_price"`
	Trades            []tradeResponse `json:"trades"`
}

// tradeResponse is a single trade in the order response.
type tradeResponse struct {
	TradeID    string  `json:"trade_id"`
	Price      float64 `json:"price"`
	Quantity   int64   `json:"quantity"`
	ExecutedAt int64   `json:"executed_at"`
}

// buildOrderResponse converts a domain order into its JSON form.
func buildOrderResponse(o *domain.Order) orderResponse {
	trades := make([]tradeResponse, len(o.Trades))
	for i, t := range o.Trades {
		trades[i] = tradeResponse{
			TradeID:    t.TradeID,
			Price:      domain.CentsToDollars(t.Price),
			Quantity:   t.Quantity,
			ExecutedAt: t.ExecutedAt.Unix(),
		}
	}

	resp := orderResponse{
		OrderID:           o.ID,
		UserID:            o.UserID,
		Symbol:            o.Symbol,
		Side:              string(o.Side),
		Price:             domain.CentsToDollars(o.Price),
		Quantity:          o.Quantity,
		FilledQuantity:    o.Filled(),
		RemainingQuantity: o.Remaining,
		Active:            o.Active(),
		CreatedAt:         o.CreatedAt.Unix(),
		Trades:            trades,
	}

	if avg, ok := o.AveragePrice(); ok {
		dollars := domain.CentsToDollars(avg)
		resp.AveragePrice = &dollars
	}

	return resp
}

// Submit handles POST /orders.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.orderSvc.Submit(service.SubmitOrderRequest{
		UserID:   req.UserID,
		Symbol:   req.Symbol,
		Side:     domain.Side(req.Side),
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildOrderResponse(order))
}

// Get handles GET /orders/{order_id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseOrderID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "order_id must be a positive integer")
		return
	}

	order, err := h.orderSvc.Get(orderID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// Cancel handles DELETE /orders/{order_id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseOrderID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "order_id must be a positive integer")
		return
	}

	order, err := h.orderSvc.Cancel(orderID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// ListUserOrders handles GET /users/{user_id}/orders. The optional
// start_time and end_time query params are unix seconds; they default to
// the epoch and now.
func (h *OrderHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	start, end, err := parseTimeRange(r, time.Unix(0, 0), time.Now())
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	orders, err := h.orderSvc.UserHistory(userID, start, end)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = buildOrderResponse(o)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"orders": resp})
}

// parseOrderID extracts and validates the order_id path parameter.
func parseOrderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid order id")
	}
	return id, nil
}

// mapDomainError maps sentinel and validation errors to HTTP responses.
func mapDomainError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteError(w, http.StatusBadRequest, "validation_error", ve.Message)
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", "Order not found")
	case errors.Is(err, domain.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "user_not_found", "User has no orders")
	case errors.Is(err, domain.ErrSymbolNotFound):
		WriteError(w, http.StatusNotFound, "symbol_not_found", "Symbol not found")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
