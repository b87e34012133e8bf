package middleware

import (
	"encoding/json"
	"net/http"
	"time"
)

// ServiceInfo identifies the running service in status responses.
type ServiceInfo struct {
	Name    string
	Version string
}

// HealthStatus represents the health status
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
}

// HealthHandler reports liveness only. It checks no dependencies, so it stays
// healthy even when the LLM credential is missing or invalid.
func HealthHandler(info ServiceInfo, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(HealthStatus{
			Status:    "healthy",
			Timestamp: now().Format(time.RFC3339Nano),
			Service:   info.Name,
			Version:   info.Version,
		})
	}
}
