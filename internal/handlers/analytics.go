package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/services"
)

type AnalyticsHandler struct {
	log       *logger.Logger
	analytics services.AnalyticsService
}

func NewAnalyticsHandler(log *logger.Logger, analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		log:       log.With("handler", "AnalyticsHandler"),
		analytics: analytics,
	}
}

// GetAnalytics handles GET /analytics.
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	data, err := h.analytics.GetAnalyticsData(c.Request.Context())
	if err != nil {
		h.log.Error("GetAnalytics failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "analytics_failed", err)
		return
	}
	RespondOK(c, data)
}
