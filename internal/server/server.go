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

	"github.com/GriffinCanCode/nodeshim/internal/api/middleware"
	"github.com/GriffinCanCode/nodeshim/internal/config"
	"github.com/GriffinCanCode/nodeshim/internal/logging"
	"github.com/GriffinCanCode/nodeshim/internal/monitoring"
	"github.com/GriffinCanCode/nodeshim/internal/registry"
	"github.com/GriffinCanCode/nodeshim/internal/sandbox"
	"github.com/GriffinCanCode/nodeshim/internal/shared/paths"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	pool     *sandbox.Pool
	manifest *registry.Manifest
	base     paths.Base
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// LoadManifest returns the manifest at cfg's MANIFEST_PATH, or the embedded
// default when none is set
func LoadManifest(cfg *config.Config) (*registry.Manifest, error) {
	if cfg.Registry.ManifestPath == "" {
		return registry.DefaultManifest(), nil
	}
	return registry.LoadManifest(cfg.Registry.ManifestPath)
}

// SandboxConfig derives the runtime configuration from cfg
func SandboxConfig(cfg *config.Config, manifest *registry.Manifest, logger *logging.Logger) sandbox.Config {
	sbCfg := sandbox.DefaultConfig()
	sbCfg.BaseDirectory = cfg.Sandbox.BaseDirectory
	sbCfg.Timeout = cfg.Sandbox.Timeout
	sbCfg.MaxRequireDepth = cfg.Registry.MaxDepth
	sbCfg.ProgressInterval = cfg.Registry.ProgressInterval
	sbCfg.Manifest = manifest
	sbCfg.Logger = logger.Logger
	return sbCfg
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Initializing nodeshim server",
		zap.String("port", cfg.Server.Port),
		zap.String("base_dir", cfg.Sandbox.BaseDirectory),
		zap.Int("max_require_depth", cfg.Registry.MaxDepth),
	)

	base, err := paths.ParseBase(cfg.Sandbox.BaseDirectory)
	if err != nil {
		return nil, err
	}

	manifest, err := LoadManifest(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load module manifest: %w", err)
	}
	logger.Info("Module manifest loaded",
		zap.String("path", cfg.Registry.ManifestPath),
		zap.Int("modules", len(manifest.Names())))

	metrics := monitoring.NewMetrics()

	sbCfg := SandboxConfig(cfg, manifest, logger)
	sbCfg.Recorder = metrics.NewRecorder()
	pool, err := sandbox.NewPool(sbCfg, cfg.Sandbox.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox pool: %w", err)
	}
	logger.Info("Sandbox pool ready", zap.Int("size", cfg.Sandbox.PoolSize))

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	s := &Server{
		router:   router,
		pool:     pool,
		manifest: manifest,
		base:     base,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}

	handlers := NewHandlers(s)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Module registry
	router.GET("/modules", handlers.ListModules)

	// Path algebra
	pathGroup := router.Group("/path")
	pathGroup.POST("/normalize", handlers.Normalize)
	pathGroup.POST("/join", handlers.Join)
	pathGroup.POST("/resolve", handlers.Resolve)
	pathGroup.POST("/relative", handlers.Relative)

	// Script execution
	router.POST("/execute", handlers.Execute)

	// Metrics endpoints
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
	router.GET("/metrics/json", handlers.MetricsJSON)

	s.http = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	err := s.http.Shutdown(ctx)
	if closeErr := s.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Close releases the sandbox pool and flushes the logger
func (s *Server) Close() error {
	if err := s.pool.Close(); err != nil {
		s.logger.Error("Error closing sandbox pool", zap.Error(err))
		return err
	}
	_ = s.logger.Sync()
	return nil
}
