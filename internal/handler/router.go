package handler

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/esantos/venue/internal/domain"
	"github.com/esantos/venue/internal/service"
	"github.com/esantos/venue/internal/stream"
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all routes registered, request
// logging, and Content-Type validation middleware.
func NewRouter(
	orderSvc *service.OrderService,
	marketSvc *service.MarketService,
	hub *stream.Hub,
	symbols *domain.SymbolRegistry,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeJSON)

	// Create handlers.
	orderH := NewOrderHandler(orderSvc)
	marketH := NewMarketHandler(marketSvc)
	streamH := NewStreamHandler(hub, symbols, logger)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Order routes.
	r.Post("/orders", orderH.Submit)
	r.Get("/orders/{order_id}", orderH.Get)
	r.Delete("/orders/{order_id}", orderH.Cancel)

	// User routes.
	r.Get("/users/{user_id}/orders", orderH.ListUserOrders)

	// Instrument routes.
	r.Get("/instruments/{symbol}/volume", marketH.Volume)
	r.Get("/instruments/{symbol}/price", marketH.Price)
	r.Get("/instruments/{symbol}/ohlc", marketH.OHLC)
	r.Get("/instruments/{symbol}/book", marketH.Book)
	r.Get("/instruments/{symbol}/stream", streamH.Trades)

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

// Hijack lets the websocket upgrader take over the underlying connection.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT,
// and PATCH requests. If the Content-Type header doesn't start with
// "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
