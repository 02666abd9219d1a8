package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpupo63/projecthub-backend/auth"
	"github.com/rpupo63/projecthub-backend/config"
	"github.com/rpupo63/projecthub-backend/functions"
	"github.com/rs/zerolog/log"
)

type Server struct {
	*http.Server
	startupTime  time.Time
	workspaces   *Workspaces
	reapInterval time.Duration
}

// Deps are the process-wide collaborators of the HTTP surface.
type Deps struct {
	Auth       *auth.Service
	Views      *functions.Views
	Workspaces *Workspaces
}

func NewServer(deps Deps, c map[string]string) (Server, error) {
	// Ensure correct port is set
	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port) // Bind to 0.0.0.0 for external access

	// Capture startup time
	startupTime := time.Now()

	router := newRouter(deps, withConfig(c), withStartupTime(startupTime))

	readTimeout := config.GetSeconds(c, "READ_TIMEOUT_SECONDS", 180)
	writeTimeout := config.GetSeconds(c, "WRITE_TIMEOUT_SECONDS", 180)
	idleTimeout := config.GetSeconds(c, "IDLE_TIMEOUT_SECONDS", 180)
	reapInterval := config.GetSeconds(c, "WORKSPACE_REAP_INTERVAL_SECONDS", 60)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  readTimeout,  // Timeout for reading the entire request
		WriteTimeout: writeTimeout, // Timeout for writing the response
		IdleTimeout:  idleTimeout,  // Timeout for idle connections
	}

	return Server{server, startupTime, deps.Workspaces, reapInterval}, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func newRouter(deps Deps, opts ...func(*router)) *chi.Mux {
	var router router
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(metricsMiddleware)

	// Apply CORS middleware
	acceptedOrigins := config.GetList(router.config, "ACCEPTED_ORIGINS")
	chiRouter.Use(CORSCheckMiddleware(acceptedOrigins))
	chiRouter.Use(corsMiddleware(acceptedOrigins))

	handlers := initializeHandlers(deps)
	authMiddleware := newAuthMiddleware(deps.Auth)

	chiRouter.Get("/healthz", healthHandler(router.startupTime))
	chiRouter.Handle("/metrics", promhttp.Handler())

	setupPublicRoutes(chiRouter, handlers, authMiddleware)
	setupAuthenticatedRoutes(chiRouter, handlers, authMiddleware)

	return chiRouter
}

func healthHandler(startupTime time.Time) http.HandlerFunc {
	responder := NewResponder(log.With().Str("handlerName", "health").Logger())
	return func(w http.ResponseWriter, r *http.Request) {
		responder.WriteJSON(w, map[string]any{
			"status": "ok",
			"uptime": time.Since(startupTime).Round(time.Second).String(),
		})
	}
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	s.workspaces.StartReaper(s.reapInterval)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}

	// release every live notification subscription
	s.workspaces.StopReaper()
	s.workspaces.CloseAll()
}
