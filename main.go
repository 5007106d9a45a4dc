package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"evote-api/internal/config"
	"evote-api/internal/container"
	"evote-api/internal/domain"
	"evote-api/internal/handler"
	"evote-api/internal/middleware"
	"evote-api/pkg/logger"
)

// Resources holds all resources that need cleanup
type Resources struct {
	container *container.Container
	server    *http.Server
	log       *logger.Logger
	mu        sync.Mutex
	closed    bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	r.log.Info("Starting graceful shutdown...")

	var errs []error

	// Stop accepting new requests before tearing down connections
	if r.server != nil {
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	if r.container != nil {
		r.container.Close()
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errs), errs)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":        cfg.Port,
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
	}).Info("Starting evote-api server")

	ctx := context.Background()
	c, err := container.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	router := setupRouter(c)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		container: c,
		server:    server,
		log:       log,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// setupRouter configures and returns the HTTP router
func setupRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()
	services := c.GetServices()

	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	healthHandler := handler.NewHealthHandler(c)
	authHandler := handler.NewAuthHandler(services.Auth)
	orgHandler := handler.NewOrganizationHandler(services.Organization)
	electionHandler := handler.NewElectionHandler(services.Election)
	votingHandler := handler.NewVotingHandler(services.Voting)

	authn := middleware.Auth(services.Auth, log)
	manage := middleware.RequireRole(log,
		domain.RoleSuperAdmin, domain.RoleOrgAdmin, domain.RoleElectionManager)
	admin := middleware.RequireRole(log, domain.RoleSuperAdmin, domain.RoleOrgAdmin)

	r.Get("/health", healthHandler.Check)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/google", authHandler.GoogleLogin)
			r.Get("/google/url", authHandler.GoogleAuthURL)
			r.Get("/google/callback", authHandler.GoogleCallback)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authn)
			r.With(middleware.RequireRole(log, domain.RoleSuperAdmin)).
				Put("/{userId}/roles", authHandler.UpdateRoles)
		})

		r.Route("/organizations", func(r chi.Router) {
			r.Use(authn)
			r.Get("/", orgHandler.List)
			r.Get("/{orgId}", orgHandler.Get)
			r.With(admin).Post("/", orgHandler.Create)
			r.With(admin).Delete("/{orgId}", orgHandler.Delete)
		})

		r.Route("/elections", func(r chi.Router) {
			r.Use(authn)

			r.Get("/", electionHandler.List)
			r.Get("/{electionId}", electionHandler.Get)
			r.Get("/{electionId}/candidates", electionHandler.ListCandidates)

			// Lifecycle and roster management
			r.Group(func(r chi.Router) {
				r.Use(manage)
				r.Post("/", electionHandler.Create)
				r.Patch("/{electionId}", electionHandler.Update)
				r.Post("/{electionId}/activate", electionHandler.Activate)
				r.Post("/{electionId}/close", electionHandler.Close)
				r.Delete("/{electionId}", electionHandler.Delete)
				r.Post("/{electionId}/candidates", electionHandler.AddCandidate)
				r.Delete("/{electionId}/candidates/{candidateId}", electionHandler.RemoveCandidate)
			})

			// Voting
			r.Post("/{electionId}/votes", votingHandler.CastVote)
			r.Get("/{electionId}/votes/me", votingHandler.VoteStatus)
			r.Get("/{electionId}/results", votingHandler.Results)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"not_found","message":"Endpoint not found"}}`))
	})

	log.Info("Router configured successfully")
	return r
}
