package server

import (
	"github.com/nulzo/cost-report/internal/server/middleware"
	v1 "github.com/nulzo/cost-report/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	if s.config.Tracing.Enabled {
		s.router.Use(middleware.Tracing(s.config.Tracing.ServiceName))
	}
	s.router.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.router.Use(middleware.ErrorHandler(s.logger))

	healthHandler := v1.NewHealthHandler()
	s.router.GET("/health", healthHandler.Health)

	api := s.router.Group("/api")
	if s.config.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)
		api.Use(limiter.Middleware())
	}
	{
		providers := v1.NewProviderHandler(s.repo.Providers(), s.validator)
		api.GET("/providers", providers.List)
		api.POST("/providers", providers.Create)
		api.POST("/providers/duplicate", providers.Duplicate)
		api.GET("/providers/:ref", providers.Get)
		api.PUT("/providers/:ref", providers.Update)
		api.DELETE("/providers/:ref", providers.Delete)

		selections := v1.NewSelectionHandler(s.validator)
		api.POST("/selections", selections.Validate)

		reports := v1.NewReportHandler(s.generator, s.validator)
		api.POST("/report", reports.Create)

		usage := v1.NewAnalyticsHandler(s.analytics)
		api.GET("/analytics/usage", usage.GetUsage)
	}
}
