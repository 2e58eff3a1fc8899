package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/tasktrack-be/internal/api/handlers"
	"github.com/isdelr/tasktrack-be/internal/api/respond"
	"github.com/isdelr/tasktrack-be/internal/auth"
	"github.com/isdelr/tasktrack-be/internal/services"
)

// Dependencies are the collaborators the router wires into its handlers.
type Dependencies struct {
	Users          services.UserServiceProvider
	Tasks          services.TaskServiceProvider
	Tokens         *auth.TokenIssuer
	Stats          handlers.StatsSource
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(detachCancel)

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	r.NotFound(routeNotFound)
	r.MethodNotAllowed(routeNotFound)

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens)
	taskHandler := handlers.NewTaskHandler(deps.Tasks)
	healthHandler := handlers.NewHealthHandler(deps.Stats)
	requireAuth := auth.Middleware(deps.Tokens)

	r.Get("/health", healthHandler.Get)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(requireAuth).Get("/me", authHandler.Me)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", taskHandler.List)
		r.Post("/", taskHandler.Create)
		r.Put("/{id}", taskHandler.Update)
		r.Delete("/{id}", taskHandler.Delete)
	})

	return r
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusNotFound, "Route not found")
}
