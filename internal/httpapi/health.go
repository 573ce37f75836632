package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"feedlode/internal/httpapi/respond"
)

// HealthResponse is the JSON body of the health endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version"`
	Checks    map[string]CheckStatus `json:"checks,omitempty"`
}

// CheckStatus is the status of one health check item.
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthHandler serves the API process's health endpoints: /health is a
// plain liveness probe, /health/ready additionally verifies database
// connectivity.
type HealthHandler struct {
	DB      *sql.DB
	Version string
}

// Register wires the health endpoints onto the given mux.
func (h HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /health/ready", h.readiness)
}

func (h HealthHandler) liveness(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.Version,
	})
}

func (h HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]CheckStatus, 1)
	status := "healthy"
	code := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		checks["database"] = CheckStatus{Status: "unhealthy", Message: "database unreachable"}
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	} else {
		checks["database"] = CheckStatus{Status: "healthy"}
	}

	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.Version,
		Checks:    checks,
	})
}
