// Package rest wires the HTTP routes, middleware, and handlers.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mindweave-backend/interfaces/http/rest/handlers"
	"mindweave-backend/interfaces/http/rest/middleware"
	"mindweave-backend/internal/service/embedding"
	"mindweave-backend/internal/service/expansion"
	"mindweave-backend/pkg/common"
	"mindweave-backend/pkg/memory"
	"mindweave-backend/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	engine     *expansion.Engine
	cache      *embedding.Cache
	governor   *memory.Governor
	metrics    *observability.Collector
	logger     *zap.Logger
	enableCORS bool
}

// NewRouter creates a new router instance
func NewRouter(
	engine *expansion.Engine,
	cache *embedding.Cache,
	governor *memory.Governor,
	metrics *observability.Collector,
	logger *zap.Logger,
	enableCORS bool,
) *Router {
	return &Router{
		engine:     engine,
		cache:      cache,
		governor:   governor,
		metrics:    metrics,
		logger:     logger,
		enableCORS: enableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Recovery(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health and metrics
	router.Get("/api/health", rt.healthCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
			rt.metrics.GetRegistry(),
			promhttp.HandlerOpts{},
		))
	}

	// Expansion endpoints
	router.Route("/api/expansions", func(r chi.Router) {
		expansionHandler := handlers.NewExpansionHandler(rt.engine, rt.logger)
		r.Post("/", expansionHandler.StartExpansion)
		r.Get("/{jobID}", expansionHandler.GetExpansion)
		r.Delete("/{jobID}", expansionHandler.CancelExpansion)
		r.Get("/{jobID}/result", expansionHandler.GetExpansionResult)
	})

	// Similarity endpoints
	router.Route("/api/similarity", func(r chi.Router) {
		similarityHandler := handlers.NewSimilarityHandler(rt.cache, rt.logger)
		r.Post("/search", similarityHandler.Search)
		r.Get("/snapshot", similarityHandler.ExportSnapshot)
		r.Put("/snapshot", similarityHandler.ImportSnapshot)
	})

	return router
}

// healthPayload is the health check response
type healthPayload struct {
	Status string          `json:"status"`
	Memory memory.Sample   `json:"memory"`
	Cache  embedding.Stats `json:"cache"`
}

// healthCheck reports process memory and cache occupancy
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	payload := healthPayload{Status: "healthy"}
	if rt.governor != nil {
		payload.Memory = rt.governor.Sample()
	}
	if rt.cache != nil {
		payload.Cache = rt.cache.Stats()
	}
	common.RespondJSON(w, http.StatusOK, payload)
}
