// Package server exposes extraction and sync over a local HTTP API for the
// browser front end.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bnema/coursecal/internal/calendar"
	"github.com/bnema/coursecal/internal/logger"
	"github.com/bnema/coursecal/internal/quotes"
	"github.com/bnema/coursecal/internal/schedule"
)

// Syncer runs one calendar sync.
type Syncer interface {
	Sync(ctx context.Context, records []schedule.Record) (*calendar.Report, error)
}

type Config struct {
	AllowedOrigins []string
	Sheet          string
	HeaderRow      int
	// MaxUploadBytes caps multipart uploads; 0 means 10 MiB.
	MaxUploadBytes int64
}

type Server struct {
	engine *gin.Engine
	syncer Syncer
	guard  *calendar.Guard
	quotes *quotes.Picker
	cfg    Config
}

func New(syncer Syncer, guard *calendar.Guard, picker *quotes.Picker, cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if picker == nil {
		picker = quotes.Default()
	}
	if guard == nil {
		guard = &calendar.Guard{}
	}

	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)
	r.MaxMultipartMemory = cfg.MaxUploadBytes

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:           cfg.AllowedOrigins,
			AllowHeaders:           []string{"Origin", "Content-Type"},
			ExposeHeaders:          []string{"Content-Length"},
			AllowMethods:           []string{"GET", "POST", "OPTIONS"},
			AllowBrowserExtensions: true,
			MaxAge:                 12 * time.Hour,
		}))
	}

	s := &Server{engine: r, syncer: syncer, guard: guard, quotes: picker, cfg: cfg}

	r.GET("/health", s.health)
	api := r.Group("/api")
	api.POST("/messages", s.handleMessage)
	api.POST("/schedule", s.uploadSchedule)
	api.GET("/quote", s.quote)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "syncing": s.guard.Busy()})
}

func (s *Server) quote(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"quote": s.quotes.Random()})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}
