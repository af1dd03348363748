package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/esantos/venue/internal/domain"
	"github.com/esantos/venue/internal/stream"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// StreamHandler upgrades HTTP requests to websocket connections that
// receive the live trade feed for a symbol.
type StreamHandler struct {
	hub      *stream.Hub
	symbols  *domain.SymbolRegistry
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(hub *stream.Hub, symbols *domain.SymbolRegistry, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		hub:     hub,
		symbols: symbols,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Trades handles GET /instruments/{symbol}/stream. The symbol must have
// been seen before; the check happens before the upgrade so unknown
// symbols get a regular 404 instead of a broken websocket handshake.
func (h *StreamHandler) Trades(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	if !h.symbols.Exists(symbol) {
		WriteError(w, http.StatusNotFound, "symbol_not_found", "Symbol not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return
	}

	sub := h.hub.Subscribe(symbol)
	defer h.hub.Unsubscribe(sub)
	defer conn.Close()

	// Reader goroutine: the client sends nothing meaningful, but reading
	// is required to process control frames and detect disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(stream.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("stream write failed",
					slog.String("symbol", symbol),
					slog.String("error", err.Error()),
				)
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
