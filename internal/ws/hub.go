package ws

import (
	"encoding/json"
	"sync"

	"crypto_tycoon/internal/logger"
	"crypto_tycoon/internal/service"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	feedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "market_feed_clients",
		Help: "Connected market feed subscribers",
	})
	feedDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "market_feed_dropped_total",
		Help: "Events dropped for slow subscribers",
	})
)

func init() {
	prometheus.MustRegister(feedClients)
	prometheus.MustRegister(feedDropped)
}

// Hub fans market events out to connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

var _ service.MarketFeed = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	feedClients.Set(float64(n))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	feedClients.Set(float64(n))
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish never blocks; a client whose buffer is full misses the event.
func (h *Hub) Publish(ev service.MarketEvent) {
	msg, err := json.Marshal(Envelope{Type: MsgMarket, Event: &ev})
	if err != nil {
		logger.Warn("market event encode failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.Wants(ev.Ticker) {
			continue
		}
		select {
		case c.Send <- msg:
		default:
			feedDropped.Inc()
		}
	}
}

// sendTo queues msg for a registered client.
func (h *Hub) sendTo(c *Client, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.Send <- msg:
	default:
		feedDropped.Inc()
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
	feedClients.Set(0)
}
