package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"listinghub/internal/config"
	"listinghub/internal/middleware"
)

// Routes mounts the API below the group it is given.
type Routes interface {
	Register(router *gin.RouterGroup)
}

type HTTPServer struct {
	server *http.Server
	log    zerolog.Logger
}

func NewHTTPServer(cfg *config.AppConfig, log zerolog.Logger, routes Routes) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:         net.JoinHostPort(cfg.HTTP.Host, strconv.Itoa(cfg.HTTP.Port)),
			Handler:      NewRouter(cfg, log, routes),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		},
		log: log,
	}
}

// NewRouter builds the engine with the shared middleware chain, the API under
// /api and, for the local storage driver, the uploaded files.
func NewRouter(cfg *config.AppConfig, log zerolog.Logger, routes Routes) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.AllowCORSOrigins),
	)

	routes.Register(engine.Group("/api"))

	if cfg.Storage.Driver == config.StorageDriverLocal && cfg.Storage.PublicPrefix != "" {
		engine.Static(cfg.Storage.PublicPrefix, cfg.Storage.LocalDir)
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})
	return engine
}

// Start blocks until the listener fails or Shutdown is called.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")

	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("listen and serve: %w", err)
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server draining connections")
	return s.server.Shutdown(ctx)
}
