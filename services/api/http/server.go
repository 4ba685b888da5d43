package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/telescope-ops/obsadmin/services/api/config"
	"github.com/telescope-ops/obsadmin/services/internal/db"
	"github.com/telescope-ops/obsadmin/services/internal/logging"
	"github.com/telescope-ops/obsadmin/services/internal/models"
	"github.com/telescope-ops/obsadmin/services/internal/pipeline"
)

// Pipeline runs schedule uploads.
type Pipeline interface {
	Run(ctx context.Context, req models.UploadRequest) (*pipeline.Report, error)
	Plan(ctx context.Context, req models.UploadRequest) (*pipeline.Report, error)
}

// Catalog serves reference data and stored schedule nights.
type Catalog interface {
	ActiveInstruments(ctx context.Context) ([]models.Instrument, error)
	ActiveOperators(ctx context.Context) ([]models.Operator, error)
	ProgramDirectory(ctx context.Context, year int, half string) (map[int]models.Program, error)
	ListNights(ctx context.Context, q db.NightsQuery) (*db.NightsPage, error)
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg      config.Config
	pipeline Pipeline
	catalog  Catalog
	log      *logrus.Logger
	engine   *gin.Engine
}

// New constructs a server with routes and middleware. metrics serves
// /metrics; nil uses the default prometheus registry.
func New(cfg config.Config, pipe Pipeline, catalog Catalog, log *logrus.Logger, metrics http.Handler) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.MaxMultipartMemory = cfg.MaxUploadBytes
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))
	engine.Use(corsMiddleware())

	if metrics == nil {
		metrics = promhttp.Handler()
	}

	server := &Server{cfg: cfg, pipeline: pipe, catalog: catalog, log: log, engine: engine}
	server.registerRoutes(metrics)
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(metrics http.Handler) {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(metrics))

	s.registerV1Routes()
}

func bearerAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger stores a request-scoped entry in the request context and
// logs each request once it completes.
func requestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := logrus.NewEntry(log).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		})
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), entry))

		c.Next()

		entry = entry.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	}
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
}
