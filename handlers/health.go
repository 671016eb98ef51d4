package handlers

import (
	"context"
	"net/http"
	"time"

	"nfl-pool/interfaces"
)

// HealthHandler reports dependency reachability
type HealthHandler struct {
	db      interfaces.DatabaseHealth
	gateway interfaces.GatewayHealth
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db interfaces.DatabaseHealth, gateway interfaces.GatewayHealth) *HealthHandler {
	return &HealthHandler{db: db, gateway: gateway}
}

// Healthz returns 200 when the database answers; the provider is informational
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := struct {
		Database string `json:"database"`
		Provider string `json:"provider"`
	}{Database: "ok", Provider: "ok"}
	code := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		status.Database = err.Error()
		code = http.StatusServiceUnavailable
	}
	if !h.gateway.HealthCheck(ctx) {
		status.Provider = "unreachable"
	}
	writeJSON(w, code, status)
}
