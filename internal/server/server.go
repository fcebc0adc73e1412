// Package server sets up the HTTP server with all routes.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumenguard/lumenguard/internal/analyzer"
	"github.com/lumenguard/lumenguard/internal/config"
	"github.com/lumenguard/lumenguard/internal/connections"
	"github.com/lumenguard/lumenguard/internal/enrich"
	"github.com/lumenguard/lumenguard/internal/explain"
	"github.com/lumenguard/lumenguard/internal/facts"
	"github.com/lumenguard/lumenguard/internal/health"
	"github.com/lumenguard/lumenguard/internal/horizon"
	"github.com/lumenguard/lumenguard/internal/idgen"
	"github.com/lumenguard/lumenguard/internal/logging"
	"github.com/lumenguard/lumenguard/internal/metrics"
	"github.com/lumenguard/lumenguard/internal/patterns"
	"github.com/lumenguard/lumenguard/internal/ratelimit"
	"github.com/lumenguard/lumenguard/internal/realtime"
	"github.com/lumenguard/lumenguard/internal/security"
	"github.com/lumenguard/lumenguard/internal/validation"
)

// AnalysisService is the slice of the analyzer the HTTP layer needs.
type AnalysisService interface {
	Analyze(ctx context.Context, address string, txCtx *analyzer.TxContext) (*analyzer.Result, error)
	History(ctx context.Context, address string, limit int) ([]*analyzer.Record, error)
}

// Server holds the wired application: storage, pipeline, hub, and router.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	db          *sql.DB
	router      *gin.Engine
	httpSrv     *http.Server
	rateLimiter *ratelimit.Limiter

	analysis  AnalysisService
	blacklist connections.BlacklistStore
	reports   connections.ReportStore
	hub       *realtime.Hub
	checks    *health.Registry

	cancelRun context.CancelFunc
	ready     atomic.Bool
	healthy   atomic.Bool
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithAnalysisService overrides the built pipeline. Used in tests.
func WithAnalysisService(a AnalysisService) Option {
	return func(s *Server) { s.analysis = a }
}

// New creates a fully wired server from configuration.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{cfg: cfg, checks: health.NewRegistry()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.New(cfg.LogLevel, "json")
	}

	var auditStore analyzer.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		s.db = db
		s.blacklist = connections.NewPostgresBlacklist(db)
		s.reports = connections.NewPostgresReports(db)
		auditStore = analyzer.NewPostgresStore(db)
		s.checks.Register(health.Database("postgres", db))
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))
	} else {
		s.blacklist = connections.NewMemoryBlacklist()
		s.reports = connections.NewMemoryReports()
		auditStore = analyzer.NewMemoryStore()
		s.logger.Info("using in-memory storage (data will not persist)")
	}

	s.checks.Register(health.Endpoint("horizon", cfg.ResolveHorizonURL()))

	s.hub = realtime.NewHub(s.logger)

	if s.analysis == nil {
		s.analysis = s.buildPipeline(auditStore)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// buildPipeline assembles collector, enricher, detectors, scanner, and
// explainer into the analyzer. Optional upstreams (directory, text source)
// are validated and skipped with a warning when unusable so a bad endpoint
// never takes the service down.
func (s *Server) buildPipeline(auditStore analyzer.Store) *analyzer.Analyzer {
	client := horizon.NewClient(s.cfg.ResolveHorizonURL(), horizon.WithTimeout(s.cfg.HorizonTimeout))
	collector := facts.NewCollector(client, s.cfg.Network, s.cfg.FetchWindow, s.logger)

	var directory *enrich.Directory
	if s.cfg.DirectoryURL != "" {
		if err := security.ValidateEndpointURL(s.cfg.DirectoryURL); err != nil {
			s.logger.Warn("directory endpoint rejected, lookups disabled",
				"url", s.cfg.DirectoryURL, "error", err)
		} else {
			directory = enrich.NewDirectory(s.cfg.DirectoryURL,
				enrich.WithDirectoryTimeout(s.cfg.DirectoryTimeout))
		}
	}
	verifier := enrich.NewDomainVerifier(enrich.WithVerifierTimeout(s.cfg.DirectoryTimeout))
	enricher := enrich.NewEnricher(directory, verifier, s.logger)

	battery := patterns.NewBattery(patterns.DefaultConfig())
	scanner := connections.NewScanner(s.blacklist, s.reports, s.logger)

	var source explain.TextSource
	if s.cfg.ExplainURL != "" {
		if err := security.ValidateEndpointURL(s.cfg.ExplainURL); err != nil {
			s.logger.Warn("explanation endpoint rejected, using templates",
				"url", s.cfg.ExplainURL, "error", err)
		} else {
			source = explain.NewHTTPTextSource(s.cfg.ExplainURL, s.cfg.ExplainAPIKey, s.cfg.ExplainTimeout)
		}
	}
	generator := explain.NewGenerator(source, s.logger)

	return analyzer.New(collector, enricher, battery, scanner, generator,
		s.cfg.Network, s.logger,
		analyzer.WithStore(auditStore),
		analyzer.WithBroadcaster(s.hub),
	)
}

// maskDSN hides the password in a connection string for logging.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	s.router.Use(security.HeadersMiddleware())
	s.router.Use(security.CORSMiddleware([]string{"*"}))
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	rlCfg := ratelimit.DefaultConfig()
	if s.cfg.RateLimitRPM > 0 {
		rlCfg.RequestsPerMinute = s.cfg.RateLimitRPM
	}
	s.rateLimiter = ratelimit.New(rlCfg)
	s.router.Use(s.rateLimiter.Middleware())

	s.router.Use(metrics.Middleware())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = idgen.WithPrefix("req_")
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		logger := logging.L(c.Request.Context())

		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// Run starts the HTTP server and blocks until a shutdown signal, context
// cancellation, or a fatal server error.
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRun = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"port", s.cfg.Port,
			"network", s.cfg.Network,
			"horizon", s.cfg.ResolveHorizonURL(),
		)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.hub.Run(runCtx)

	// Mark ready after a brief startup delay.
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	if s.cancelRun != nil {
		s.cancelRun()
	}

	if s.httpSrv != nil {
		// Give load balancers time to stop sending traffic.
		time.Sleep(2 * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
