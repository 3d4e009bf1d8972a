package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mindmap/internal/engine"
)

// RouterConfig holds HTTP options
type RouterConfig struct {
	// CORSOrigins lists the renderer origins allowed to call the API
	CORSOrigins []string
	// Static serves the bundled renderer at / when set
	Static http.Handler
}

// NewRouter builds the HTTP API for eng
func NewRouter(eng *engine.Engine, cfg RouterConfig, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validator.New()
	graph := NewGraphHandler(eng, validate, logger)
	gestures := NewGestureHandler(eng, validate, logger)

	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(logger))
	router.Use(Metrics(eng.Metrics()))

	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, map[string]string{"status": "ok"}, http.StatusOK)
	})
	router.Method(http.MethodGet, "/metrics", eng.Metrics().Handler())
	router.Method(http.MethodGet, "/events", eng.Hub())

	router.Route("/api", func(r chi.Router) {
		// Graph endpoints
		r.Get("/graph", graph.GetGraph)
		r.Delete("/graph", graph.ClearGraph)

		// Node endpoints
		r.Post("/nodes", graph.CreateNode)
		r.Put("/nodes/{id}", graph.RenameNode)
		r.Delete("/nodes/{id}", graph.DeleteNode)
		r.Post("/nodes/{id}/children", graph.CreateChild)

		// Link endpoints
		r.Post("/links", graph.CreateLink)

		// Import and export
		r.Get("/export/{format}", graph.Export)
		r.Post("/import/demo", graph.ImportDemo)
		r.Post("/import/{format}", graph.Import)

		// Renderer input
		r.Route("/gestures", func(r chi.Router) {
			r.Post("/activate", gestures.Activate)
			r.Post("/drag-start", gestures.DragStart)
			r.Post("/drag-move", gestures.DragMove)
			r.Post("/drag-end", gestures.DragEnd)
		})
		r.Put("/viewport", gestures.UpdateViewport)
		r.Post("/viewport/fit", gestures.FitViewport)

		// Prompts
		r.Get("/prompts", gestures.ListPrompts)
		r.Post("/prompts/{id}", gestures.AnswerPrompt)
	})

	if cfg.Static != nil {
		router.Handle("/*", cfg.Static)
	}
	return router
}
