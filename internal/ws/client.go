package ws

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"crypto_tycoon/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 256
)

// Client is one feed subscriber. With no ticker filter it receives every
// market event.
type Client struct {
	UserID int64
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub

	mu      sync.RWMutex
	tickers map[string]bool

	closeOnce sync.Once
}

func NewClient(userID int64, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		Hub:     hub,
		tickers: make(map[string]bool),
	}
}

// Run registers the client and blocks until the connection is closed.
func (c *Client) Run() {
	go c.writePump()
	c.Hub.Register(c)
	c.enqueue(Envelope{Type: MsgReady})
	c.readPump()
}

// Wants reports whether the client subscribed to ticker.
func (c *Client) Wants(ticker string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tickers) == 0 || c.tickers[ticker]
}

func (c *Client) subscribe(tickers []string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(t), "$"))
		if t == "" {
			continue
		}
		if on {
			c.tickers[t] = true
		} else {
			delete(c.tickers, t)
		}
	}
}

func (c *Client) enqueue(env Envelope) {
	msg, err := json.Marshal(env)
	if err != nil {
		return
	}
	c.Hub.sendTo(c, msg)
}

// close stops the write pump. The hub calls it with its lock held.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

//read
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "user_id", c.UserID, "error", err)
			}
			return
		}
		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.enqueue(Envelope{Type: MsgError, Error: "invalid message"})
			continue
		}
		switch msg.Type {
		case MsgSubscribe:
			c.subscribe(msg.Tickers, true)
		case MsgUnsubscribe:
			c.subscribe(msg.Tickers, false)
		case MsgPing:
			c.enqueue(Envelope{Type: MsgPong})
		default:
			c.enqueue(Envelope{Type: MsgError, Error: "unknown message type"})
		}
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "user_id", c.UserID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
