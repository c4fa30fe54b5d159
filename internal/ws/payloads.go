package ws

import "crypto_tycoon/internal/service"

// client → server
type InboundMessage struct {
	Type    string   `json:"type"`
	Tickers []string `json:"tickers,omitempty"`
}

// server → client
type Envelope struct {
	Type  string               `json:"type"`
	Event *service.MarketEvent `json:"event,omitempty"`
	Error string               `json:"error,omitempty"`
}
