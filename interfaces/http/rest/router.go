package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"meishi-backend/application/services"
	"meishi-backend/application/workflow"
	"meishi-backend/interfaces/http/rest/handlers"
	"meishi-backend/interfaces/http/rest/middleware"
	"meishi-backend/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	cards       *services.CardService
	workflow    *workflow.Manager
	validator   *auth.JWTValidator
	generator   *auth.JWTGenerator
	credentials handlers.Credentials
	enableCORS  bool
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cards *services.CardService,
	manager *workflow.Manager,
	validator *auth.JWTValidator,
	generator *auth.JWTGenerator,
	credentials handlers.Credentials,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		cards:       cards,
		workflow:    manager,
		validator:   validator,
		generator:   generator,
		credentials: credentials,
		enableCORS:  enableCORS,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// Authentication
	authHandler := handlers.NewAuthHandler(rt.generator, rt.credentials, rt.logger)
	router.Post("/auth/login", authHandler.Login)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))

		// Card endpoints
		r.Route("/cards", func(r chi.Router) {
			cardHandler := handlers.NewCardHandler(rt.cards, rt.logger)
			r.Get("/", cardHandler.ListCards)
			r.Post("/", cardHandler.CreateCard)
			r.Get("/duplicates", cardHandler.FindDuplicates)
			r.Get("/export", cardHandler.ExportCards)
			r.Get("/{cardID}", cardHandler.GetCard)
			r.Put("/{cardID}", cardHandler.UpdateCard)
			r.Delete("/{cardID}", cardHandler.DeleteCard)
		})

		// Upload workflow endpoints
		r.Route("/uploads", func(r chi.Router) {
			uploadHandler := handlers.NewUploadHandler(rt.workflow, rt.logger)
			r.Post("/", uploadHandler.StartSession)
			r.Get("/{sessionID}", uploadHandler.GetSession)
			r.Post("/{sessionID}/image", uploadHandler.AttachImage)
			r.Post("/{sessionID}/ocr", uploadHandler.StartOCR)
			r.Put("/{sessionID}/fields", uploadHandler.EditFields)
			r.Post("/{sessionID}/save", uploadHandler.Save)
			r.Post("/{sessionID}/resolve", uploadHandler.Resolve)
			r.Post("/{sessionID}/reset", uploadHandler.Reset)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
