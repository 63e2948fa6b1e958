package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is anything that can report whether its backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck names one dependency probed by /health and /ready.
type HealthCheck struct {
	Name   string
	Pinger Pinger
}

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

type ComponentStatus string

const (
	ComponentStatusUp   ComponentStatus = "up"
	ComponentStatusDown ComponentStatus = "down"
)

// Health is the /health response body.
type Health struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Commit     string                     `json:"commit,omitempty"`
	Components map[string]ComponentHealth `json:"components"`
}

type ComponentHealth struct {
	Status    ComponentStatus `json:"status"`
	Message   string          `json:"message,omitempty"`
	LatencyMs float64         `json:"latency_ms"`
}

// handleHealth reports every dependency; 503 if any of them is down.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.checkHealth(r.Context(), 5*time.Second)

	status := http.StatusOK
	if health.Status == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// handleReady is the load-balancer probe: same checks, shorter budget,
// terse body.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	health := s.checkHealth(r.Context(), 2*time.Second)
	if health.Status != HealthStatusHealthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLive answers as long as the process is serving.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) checkHealth(ctx context.Context, budget time.Duration) Health {
	health := Health{
		Status:     HealthStatusHealthy,
		Timestamp:  time.Now().UTC(),
		Version:    s.build.Version,
		Commit:     s.build.Commit,
		Components: make(map[string]ComponentHealth, len(s.checks)),
	}

	for _, c := range s.checks {
		ch := probe(ctx, c.Pinger, budget)
		health.Components[c.Name] = ch
		if ch.Status == ComponentStatusDown {
			health.Status = HealthStatusUnhealthy
		}
	}
	return health
}

func probe(ctx context.Context, p Pinger, budget time.Duration) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	latency := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		return ComponentHealth{Status: ComponentStatusDown, Message: err.Error(), LatencyMs: latency}
	}
	return ComponentHealth{Status: ComponentStatusUp, LatencyMs: latency}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
