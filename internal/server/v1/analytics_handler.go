package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/cost-report/internal/analytics"
	"github.com/nulzo/cost-report/pkg/api"
)

type AnalyticsHandler struct {
	service analytics.Service
}

func NewAnalyticsHandler(service analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
	}
}

func (h *AnalyticsHandler) GetUsage(c *gin.Context) {
	daysStr := c.DefaultQuery("days", "7")
	days, err := strconv.Atoi(daysStr)
	if err != nil || days < 0 {
		_ = c.Error(api.BadRequestError("Invalid 'days' parameter"))
		return
	}

	stats, err := h.service.GetUsageOverview(c.Request.Context(), days)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to fetch analytics", err))
		return
	}

	data := make([]api.DailyUsage, 0, len(stats))
	for _, s := range stats {
		data = append(data, api.DailyUsage{
			Date:           s.Date,
			Reports:        s.Reports,
			Providers:      s.Providers,
			CacheHits:      s.CacheHits,
			PricingHits:    s.PricingHits,
			UpstreamMisses: s.Misses,
			Fallbacks:      s.Fallbacks,
			AverageLatency: s.AverageLatency,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   data,
	})
}
