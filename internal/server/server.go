package server

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/nulzo/cost-report/internal/analytics"
	"github.com/nulzo/cost-report/internal/config"
	"github.com/nulzo/cost-report/internal/report"
	"github.com/nulzo/cost-report/internal/server/middleware"
	"github.com/nulzo/cost-report/internal/server/validator"
	"github.com/nulzo/cost-report/internal/store"
	"go.uber.org/zap"
)

type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    *zap.Logger
	repo      store.Repository
	generator *report.Generator
	analytics analytics.Service
	validator *validator.Validator
}

func New(cfg *config.Config, logger *zap.Logger, repo store.Repository, generator *report.Generator) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(ginzap.RecoveryWithZap(logger, true))
	engine.Use(middleware.Logger(logger))

	s := &Server{
		router:    engine,
		config:    cfg,
		logger:    logger,
		repo:      repo,
		generator: generator,
		analytics: analytics.NewService(repo.Runs()),
		validator: validator.New(),
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the router with the listen address and sane timeouts. The
// write timeout is left open because a report waits on the model.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
