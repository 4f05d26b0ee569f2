package routes

import (
	"net/http"

	"github.com/carefinder/backend/internal/api/handlers"
	"github.com/carefinder/backend/internal/api/middleware"
	"github.com/carefinder/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	discoveryHandler *handlers.DiscoveryHandler
	livefeedHandler  *handlers.LiveFeedHandler
	recommendHandler *handlers.RecommendHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router. metrics may be nil when OTel is disabled.
func NewRouter(
	discoveryHandler *handlers.DiscoveryHandler,
	livefeedHandler *handlers.LiveFeedHandler,
	recommendHandler *handlers.RecommendHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		discoveryHandler: discoveryHandler,
		livefeedHandler:  livefeedHandler,
		recommendHandler: recommendHandler,

		metrics: metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Discovery endpoints
	r.mux.HandleFunc("POST /api/discovery", r.discoveryHandler.Discover)
	r.mux.HandleFunc("GET /api/discovery", r.discoveryHandler.DiscoverByQuery)

	// Live feed endpoints
	r.mux.HandleFunc("GET /api/live-feed", r.livefeedHandler.GetFeed)

	// Recommendation endpoints
	r.mux.HandleFunc("POST /api/recommend", r.recommendHandler.Recommend)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	if r.metrics != nil {
		handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	}
	handler = middleware.CORSMiddleware(handler)

	return handler
}
