package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler serves liveness and readiness probes. The ledger store is
// always checked; extra dependencies (redis) are added with WithCheck.
type HealthHandler struct {
	store   Pinger
	checks  map[string]Pinger
	started time.Time
	version string

	// FeedClients reports the number of live market feed connections.
	FeedClients func() int
}

func NewHealthHandler(store Pinger, version string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		checks:  make(map[string]Pinger),
		started: time.Now(),
		version: version,
	}
}

// WithCheck registers an optional dependency. A failing optional check
// degrades readiness but does not fail it.
func (h *HealthHandler) WithCheck(name string, p Pinger) *HealthHandler {
	h.checks[name] = p
	return h
}

type ReadinessResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version,omitempty"`
	Uptime      string            `json:"uptime"`
	Timestamp   string            `json:"timestamp"`
	Checks      map[string]string `json:"checks"`
	FeedClients *int              `json:"feed_clients,omitempty"`
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness is unhealthy (503) only when the store is down.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := ReadinessResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]string{"store": probe(ctx, h.store)},
	}
	code := http.StatusOK
	if resp.Checks["store"] != "healthy" {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		res := probe(ctx, h.checks[name])
		resp.Checks[name] = res
		if res != "healthy" && resp.Status == "healthy" {
			resp.Status = "degraded"
		}
	}

	if h.FeedClients != nil {
		n := h.FeedClients()
		resp.FeedClients = &n
	}
	c.JSON(code, resp)
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

func probe(ctx context.Context, p Pinger) string {
	if err := p.Ping(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}
