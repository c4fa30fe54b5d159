package middleware

import (
	"sync"
	"time"
)

type clientInfo struct {
	start time.Time
	count int64
}

// memoryWindow is a fixed-window counter used when Redis is not configured.
type memoryWindow struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	now     func() time.Time
}

func newMemoryWindow() *memoryWindow {
	return &memoryWindow{clients: make(map[string]*clientInfo), now: time.Now}
}

// incr counts a hit for key and returns the count in the current window.
func (m *memoryWindow) incr(key string, window time.Duration) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	ci, ok := m.clients[key]
	if !ok || now.Sub(ci.start) >= window {
		ci = &clientInfo{start: now}
		m.clients[key] = ci
	}
	ci.count++

	if len(m.clients) > 10000 {
		for k, v := range m.clients {
			if now.Sub(v.start) >= window {
				delete(m.clients, k)
			}
		}
	}
	return ci.count
}
