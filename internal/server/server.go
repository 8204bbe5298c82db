package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/competitor-xray/backend/internal/catalog"
	"github.com/competitor-xray/backend/internal/config"
	xhttp "github.com/competitor-xray/backend/internal/http"
	"github.com/competitor-xray/backend/internal/logging"
	"github.com/competitor-xray/backend/internal/middleware"
	"github.com/competitor-xray/backend/internal/monitoring"
	"github.com/competitor-xray/backend/internal/store"
	"github.com/competitor-xray/backend/internal/workflow"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	router  *gin.Engine
	store   *store.Store
	catalog *catalog.Catalog
	runner  *workflow.Runner
	metrics *monitoring.Metrics
	http    *http.Server
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	metrics := monitoring.NewMetrics()
	traceStore := store.New(logger, store.WithObserver(metrics))

	rng := workflow.NewTimeSeededRand()
	if cfg.Demo.Seed != 0 {
		rng = workflow.NewSeededRand(cfg.Demo.Seed)
	}
	runner := workflow.NewRunner(traceStore, logger,
		workflow.WithRand(rng),
		workflow.WithMetrics(metrics),
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
	router.Use(monitoring.Middleware(metrics))

	handlers := xhttp.NewHandlers(traceStore, cat, runner, logger,
		xhttp.WithMetrics(metrics),
		xhttp.WithRunDelay(cfg.Demo.RunDelay),
	)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	router.GET("/api/traces", handlers.ListTraces)
	router.POST("/api/traces", handlers.IngestTrace)
	router.GET("/api/traces/:id", handlers.GetTrace)

	router.POST("/api/trigger-demo", handlers.TriggerDemo)
	router.GET("/api/export-errors", handlers.ExportErrors)

	router.GET("/api/test-cases", handlers.ListTestCases)
	router.GET("/api/categories", handlers.ListCategories)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		cfg:     cfg,
		logger:  logger,
		router:  router,
		store:   traceStore,
		catalog: cat,
		runner:  runner,
		metrics: metrics,
	}, nil
}

// Router exposes the configured routes for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves HTTP until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening",
			zap.String("addr", addr),
			zap.Int("categories", len(s.catalog.Categories())),
		)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
