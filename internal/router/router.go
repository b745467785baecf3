package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/talkio/go-user-accounts/internal/api"
	"github.com/talkio/go-user-accounts/internal/api/user"
)

// Config contains dependencies needed for the router setup.
type Config struct {
	UserHandler            *user.HandlerImpl
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter wires the account routes. Server-wide middleware (request id,
// logger, recoverer) is applied in main before mounting this router.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "x-access-token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/users", func(r chi.Router) {
		// Public routes.
		r.Group(func(r chi.Router) {
			r.Post("/register", cfg.UserHandler.Register)
			r.Post("/login", cfg.UserHandler.Login)
		})

		// Everything else sits behind the authentication guard.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Get("/", cfg.UserHandler.GetProfile)
			r.Get("/list", cfg.UserHandler.ListUsers)
			r.Get("/search-user", cfg.UserHandler.SearchUser)
			r.Put("/update-profile", cfg.UserHandler.UpdateProfile)
			r.Patch("/update-password", cfg.UserHandler.UpdatePassword)
			r.Delete("/delete-account", cfg.UserHandler.DeleteAccount)
			r.Patch("/report-account/{id}", cfg.UserHandler.ReportAccount)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Page not found")
	})

	return r
}
