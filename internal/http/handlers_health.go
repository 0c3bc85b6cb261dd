package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	healthyMessage = "Server is running successfully"
	pingTimeout    = 2 * time.Second
)

// Pinger checks a dependency's connectivity. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthHandlers serves readiness and liveness checks.
type HealthHandlers struct {
	DB     Pinger // Optional: database readiness
	Logger *slog.Logger
}

// Health reports healthy when the database (if configured) answers a ping.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy", Message: healthyMessage}
	code := http.StatusOK

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			if h.Logger != nil {
				h.Logger.WarnContext(r.Context(), "health check failed", "error", err)
			}
			resp = HealthResponse{Status: "unhealthy", Message: "database unavailable"}
			code = http.StatusServiceUnavailable
		}
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(code)
		return
	}
	WriteJSON(w, code, resp)
}
