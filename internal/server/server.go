// Package server provides the HTTP server and routing for the tracker API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/database"
	accountsmod "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/accounts"
	assetshandlers "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/assets/handlers"
	dashboardhandlers "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/dashboard/handlers"
	platformsmod "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/platforms"
	settingshandlers "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/settings/handlers"
	simulationhandlers "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/simulation/handlers"
	usersmod "github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/users"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/reliability"
)

// Config holds everything the server needs to route requests.
type Config struct {
	Log           zerolog.Logger
	Port          int
	DevMode       bool
	TrackerDB     *database.DB
	CacheDB       *database.DB
	Users         *usersmod.Handler
	Platforms     *platformsmod.Handler
	Accounts      *accountsmod.Handler
	Assets        *assetshandlers.Handler
	Dashboard     *dashboardhandlers.Handler
	Simulation    *simulationhandlers.Handler
	Settings      *settingshandlers.Handler
	BackupService *reliability.BackupService // nil when backups are not configured
}

// Server is the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
}

// New creates a new HTTP server with all routes mounted under /api.
func New(cfg Config) *Server {
	router := chi.NewRouter()
	log := cfg.Log.With().Str("component", "server").Logger()

	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if !cfg.DevMode {
		router.Use(middleware.Compress(5))
	}

	systemHandlers := NewSystemHandlers(log, cfg.TrackerDB, cfg.CacheDB, cfg.BackupService)

	router.Route("/api", func(r chi.Router) {
		cfg.Users.RegisterRoutes(r)
		cfg.Platforms.RegisterRoutes(r)
		cfg.Accounts.RegisterRoutes(r)
		cfg.Assets.RegisterRoutes(r)
		cfg.Dashboard.RegisterRoutes(r)
		cfg.Simulation.RegisterRoutes(r)
		cfg.Settings.RegisterRoutes(r)
		systemHandlers.RegisterRoutes(r)
	})

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		log: log,
	}
}

// Router exposes the router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start begins serving requests. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
