package server

import (
	"context"
	"net/http"
	"time"
)

// Health is the /healthz response body.
type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DB        struct {
		Status  string `json:"status"`
		Message string `json:"message,omitempty"`
	} `json:"db"`
}

// handleHealth pings the store with a short deadline.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := Health{
		Status:    "ok",
		Timestamp: time.Now(),
	}

	if err := s.store.Ping(ctx); err != nil {
		s.logger.WithError(err).Warn("Health check failed")
		health.Status = "degraded"
		health.DB.Status = "error"
		health.DB.Message = "Database ping failed"
		s.writeJSON(w, http.StatusServiceUnavailable, health)
		return
	}

	health.DB.Status = "ok"
	s.writeJSON(w, http.StatusOK, health)
}
