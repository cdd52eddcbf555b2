package api

import (
	"net/http"
	"time"

	"github.com/bookhaven/bookhaven-server/internal/http/response"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	components := make(map[string]ComponentHealth)
	overall := "healthy"

	// Database: a cheap key-only scan proves Badger is readable.
	start := time.Now()
	_, err := s.store.CountBooks(ctx)
	if err != nil {
		components["database"] = ComponentHealth{
			Status:  "unhealthy",
			Latency: time.Since(start).String(),
			Message: "database read failed",
		}
		overall = "unhealthy"
	} else {
		components["database"] = ComponentHealth{
			Status:  "healthy",
			Latency: time.Since(start).String(),
		}
	}

	// Search index. An empty index is degraded, not broken; the catalog
	// may simply not be seeded yet.
	start = time.Now()
	docs, err := s.search.DocumentCount()
	switch {
	case err != nil:
		components["search"] = ComponentHealth{
			Status:  "unhealthy",
			Latency: time.Since(start).String(),
			Message: "search index unreachable",
		}
		overall = "unhealthy"
	case docs == 0:
		components["search"] = ComponentHealth{
			Status:  "degraded",
			Latency: time.Since(start).String(),
			Message: "search index empty",
		}
		if overall == "healthy" {
			overall = "degraded"
		}
	default:
		components["search"] = ComponentHealth{
			Status:  "healthy",
			Latency: time.Since(start).String(),
		}
	}

	response.Success(w, HealthResponse{
		Status:     overall,
		Components: components,
	}, s.logger)
}
