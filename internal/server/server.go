package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asset-sharing-networks/ledgergate/internal/assets"
	assethandlers "github.com/asset-sharing-networks/ledgergate/internal/assets/handlers"
	"github.com/asset-sharing-networks/ledgergate/internal/config"
	"github.com/asset-sharing-networks/ledgergate/internal/database"
	commonhandlers "github.com/asset-sharing-networks/ledgergate/internal/server/handlers"
	"github.com/asset-sharing-networks/ledgergate/internal/server/middleware"
)

type Server struct {
	pool     *pgxpool.Pool
	queries  *database.Queries
	config   *config.ServerEnvironment
	logger   *slog.Logger
	router   *chi.Mux
	service  *assets.Service
	enroller assethandlers.Enroller
	issuer   assethandlers.TokenIssuer
}

func NewServer(
	pool *pgxpool.Pool,
	queries *database.Queries,
	cfg *config.ServerEnvironment,
	appLogger *slog.Logger,
	service *assets.Service,
	enroller assethandlers.Enroller,
	issuer assethandlers.TokenIssuer,
) *Server {
	server := &Server{
		pool:     pool,
		queries:  queries,
		config:   cfg,
		logger:   appLogger,
		router:   chi.NewRouter(),
		service:  service,
		enroller: enroller,
		issuer:   issuer,
	}

	server.setupMiddleware()
	server.registerRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.RequestLogging(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", assethandlers.IdentityHeader},
	}))
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
	s.router.Use(middleware.RequestSizeLimit(s.config.MaxRequestBodySize))
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", commonhandlers.HandleHealth)
	s.router.Get("/ready", commonhandlers.HandleReadiness(s.queries))
	s.router.Get("/version", commonhandlers.HandleVersion)

	defaultUser := s.config.LedgerUserID

	s.router.Post("/enrollUser", assethandlers.HandleEnrollUser(s.enroller, s.issuer, defaultUser))

	s.router.Get("/getAllAssets", assethandlers.HandleGetAllAssets(s.service, defaultUser))
	s.router.Get("/getAsset/{assetId}", assethandlers.HandleGetAsset(s.service, defaultUser))

	s.router.Post("/createAsset", assethandlers.HandleCreateAsset(s.service, defaultUser))
	s.router.Post("/shareAsset", assethandlers.HandleShareAsset(s.service, defaultUser))
	s.router.Post("/transferAsset", assethandlers.HandleTransferAsset(s.service, defaultUser))

	s.router.Post("/loadAssets", assethandlers.HandleLoadAssets(s.service, defaultUser))
	s.router.Post("/shareAllAssets", assethandlers.HandleShareAllAssets(s.service, defaultUser))
	s.router.Post("/deleteAllAssets", assethandlers.HandleDeleteAllAssets(s.service, defaultUser))
}

// Router exposes the configured routes for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

func (s *Server) DatabaseShutdown() {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("database connection closed")
	}
}
