package handlers

import (
	"context"
	"net/http"
	"quota-api/internal/services"
	"sync"
	"time"

	"gorm.io/gorm"
)

type HealthCheckResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
	Cached   bool   `json:"cached"`
}

// healthCache keeps the last probe result for a short TTL so health polls
// don't hammer the database. Explicit struct state under a mutex, not a
// package-level variable.
type healthCache struct {
	mu        sync.Mutex
	result    HealthCheckResponse
	healthy   bool
	checkedAt time.Time
	ttl       time.Duration
}

type HealthHandler struct {
	db    *gorm.DB
	cache services.CacheService
	state *healthCache
}

func NewHealthHandler(db *gorm.DB, cache services.CacheService) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cache,
		state: &healthCache{ttl: 10 * time.Second},
	}
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.state.mu.Lock()
	if time.Since(h.state.checkedAt) < h.state.ttl {
		response := h.state.result
		healthy := h.state.healthy
		h.state.mu.Unlock()
		response.Cached = true
		h.respond(w, response, healthy)
		return
	}
	h.state.mu.Unlock()

	response, healthy := h.probe(r.Context())

	h.state.mu.Lock()
	h.state.result = response
	h.state.healthy = healthy
	h.state.checkedAt = time.Now()
	h.state.mu.Unlock()

	h.respond(w, response, healthy)
}

func (h *HealthHandler) probe(ctx context.Context) (HealthCheckResponse, bool) {
	response := HealthCheckResponse{Status: "API is running"}
	healthy := true

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		response.Database = "Database connection failed"
		healthy = false
	} else {
		response.Database = "Database connection is healthy"
	}

	switch {
	case h.cache == nil:
		response.Cache = "Cache disabled"
	case h.cache.Ping(ctx) != nil:
		// Degraded but not unhealthy; the ledger works without Redis.
		response.Cache = "Cache unreachable"
	default:
		response.Cache = "Cache connection is healthy"
	}

	return response, healthy
}

func (h *HealthHandler) respond(w http.ResponseWriter, response HealthCheckResponse, healthy bool) {
	code := http.StatusOK
	if !healthy {
		code = http.StatusInternalServerError
	}
	respondWithJSON(w, code, response)
}
