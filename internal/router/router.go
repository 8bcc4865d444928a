package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"memwatch/internal/config"
	"memwatch/internal/handler"
	"memwatch/internal/middleware"
)

type Handlers struct {
	User   *handler.UserHandler
	Memory *handler.MemoryHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, handlers Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"memwatch is running. Authenticate via /users/token to query /memory/info."}`))
	})

	r.Route("/users", func(users chi.Router) {
		users.Post("/register", handlers.User.Register)
		users.Post("/token", handlers.User.Token)
		users.With(authMiddleware.RequireAuth, authMiddleware.RequireActive).Get("/me", handlers.User.Me)
	})

	r.Route("/memory", func(memory chi.Router) {
		memory.With(authMiddleware.RequireAuth, authMiddleware.RequireActive).Get("/info", handlers.Memory.Info)
	})

	return r
}
