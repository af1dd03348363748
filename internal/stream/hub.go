// Package stream broadcasts executed trades to websocket subscribers.
// Publication happens after the matching engine releases the per-symbol
// lock, so a slow consumer can never stall matching.
package stream

import (
	"sync"
	"time"

	"github.com/esantos/venue/internal/domain"
)

// TradeEvent is the wire representation of a trade pushed to subscribers.
type TradeEvent struct {
	TradeID    string  `json:"trade_id"`
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	Quantity   int64   `json:"quantity"`
	ExecutedAt int64   `json:"executed_at"`
}

// Subscriber receives trade events for a single symbol. Events is closed
// when the subscription is dropped.
type Subscriber struct {
	Events chan TradeEvent
	symbol string
}

// Hub fans executed trades out to per-symbol subscriber sets.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscriber]bool // symbol → subscribers
	sendBuffer  int
}

// NewHub creates a Hub whose subscribers buffer up to sendBuffer events.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer < 1 {
		sendBuffer = 1
	}
	return &Hub{
		subscribers: make(map[string]map[*Subscriber]bool),
		sendBuffer:  sendBuffer,
	}
}

// Subscribe registers a new subscriber for a symbol.
func (h *Hub) Subscribe(symbol string) *Subscriber {
	sub := &Subscriber{
		Events: make(chan TradeEvent, h.sendBuffer),
		symbol: symbol,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[symbol] == nil {
		h.subscribers[symbol] = make(map[*Subscriber]bool)
	}
	h.subscribers[symbol][sub] = true
	return sub
}

// Unsubscribe removes a subscriber and closes its event channel.
// Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[sub.symbol]
	if subs == nil || !subs[sub] {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subscribers, sub.symbol)
	}
	close(sub.Events)
}

// Publish delivers trades to every subscriber of the symbol. Delivery is
// non-blocking: a subscriber whose buffer is full misses the event rather
// than backpressuring the publisher.
func (h *Hub) Publish(symbol string, trades []*domain.Trade) {
	if len(trades) == 0 {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := h.subscribers[symbol]
	if len(subs) == 0 {
		return
	}

	for _, t := range trades {
		event := TradeEvent{
			TradeID:    t.TradeID,
			Symbol:     t.Symbol,
			Price:      domain.CentsToDollars(t.Price),
			Quantity:   t.Quantity,
			ExecutedAt: t.ExecutedAt.Unix(),
		}
		for sub := range subs {
			select {
			case sub.Events <- event:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of subscribers for a symbol.
// Useful for testing.
func (h *Hub) SubscriberCount(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[symbol])
}

// KeepAliveInterval is how often the websocket handler pings idle
// connections; defined here so the handler and tests agree.
const KeepAliveInterval = 30 * time.Second
