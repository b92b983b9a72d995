package routes

import (
	"net/http"

	"github.com/labdraft/backend/internal/api/handlers"
	"github.com/labdraft/backend/internal/api/middleware"
	"github.com/labdraft/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	draftHandler  *handlers.DraftHandler
	streamHandler *handlers.DraftStreamHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	draftHandler *handlers.DraftHandler,
	streamHandler *handlers.DraftStreamHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:           http.NewServeMux(),
		draftHandler:  draftHandler,
		streamHandler: streamHandler,
		metrics:       metrics,
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

	// Draft endpoints
	r.mux.HandleFunc("POST /api/drafts", r.draftHandler.SubmitDraft)
	r.mux.HandleFunc("GET /api/drafts/{jobId}", r.draftHandler.GetDraft)

	// Draft lifecycle stream
	if r.streamHandler != nil {
		r.mux.HandleFunc("GET /api/stream/drafts/{jobId}", r.streamHandler.StreamDraftUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so all responses get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	handler = middleware.CORSMiddleware(handler)

	return handler
}
