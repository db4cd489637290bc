package handler

import (
	"math"
	"strconv"

	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"
	"ton-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AnalyticsHandler exposes the admin analytics surface. All routes are
// read-only aggregations over the ledger.
type AnalyticsHandler struct {
	analyticsSvc ports.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsSvc ports.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc}
}

// parseAnalyticsQuery reads the optional merchant scope and date window.
func parseAnalyticsQuery(c *gin.Context) (ports.AnalyticsQuery, error) {
	q := ports.AnalyticsQuery{Window: parseWindow(c)}
	if m := c.Query("merchant_id"); m != "" {
		id, err := uuid.Parse(m)
		if err != nil {
			return q, apperror.Validation("invalid merchant_id")
		}
		q.MerchantID = &id
	}
	return q, nil
}

// Overview handles GET /api/v1/analytics/overview: every point metric for
// the window.
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	q, err := parseAnalyticsQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	overview, err := h.analyticsSvc.Overview(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, overview)
}

// Funnel handles GET /api/v1/analytics/funnel: received → completed →
// direct-deposit stage counts derived from the window's point metrics.
func (h *AnalyticsHandler) Funnel(c *gin.Context) {
	q, err := parseAnalyticsQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	overview, err := h.analyticsSvc.Overview(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	total := overview.TotalTransactions
	completed := int64(math.Round(float64(total) * overview.ConversionRate / 100))
	direct := int64(math.Round(float64(completed) * overview.DirectDepositShare / 100))

	response.OK(c, []gin.H{
		{"stage": "received", "count": total},
		{"stage": "completed", "count": completed},
		{"stage": "direct_deposit", "count": direct},
	})
}

// Series handles GET /api/v1/analytics/chart/:metric: the daily series for
// one point metric.
func (h *AnalyticsHandler) Series(c *gin.Context) {
	q, err := parseAnalyticsQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	points, err := h.analyticsSvc.DailySeries(c.Request.Context(), c.Param("metric"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"metric": c.Param("metric"), "points": points})
}

// Retention handles GET /api/v1/analytics/retention.
func (h *AnalyticsHandler) Retention(c *gin.Context) {
	cohorts, err := h.analyticsSvc.RetentionCohorts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cohorts)
}

// NewMerchants handles GET /api/v1/analytics/new-merchants: the raw
// active-merchant cohort heatmap.
func (h *AnalyticsHandler) NewMerchants(c *gin.Context) {
	cells, err := h.analyticsSvc.NewMerchantCohorts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cells)
}

// Hotspots handles GET /api/v1/analytics/hotspots.
func (h *AnalyticsHandler) Hotspots(c *gin.Context) {
	q, err := parseAnalyticsQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	hotspots, err := h.analyticsSvc.Hotspots(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, hotspots)
}

// Clusters handles GET /api/v1/analytics/clusters.
func (h *AnalyticsHandler) Clusters(c *gin.Context) {
	q, err := parseAnalyticsQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	clusters, err := h.analyticsSvc.Clusters(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, clusters)
}

// Alerts handles GET /api/v1/analytics/alerts.
func (h *AnalyticsHandler) Alerts(c *gin.Context) {
	alerts, err := h.analyticsSvc.Alerts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, alerts)
}

// Heatmap handles GET /api/v1/analytics/heatmap: completed transaction
// counts per weekday and hour.
func (h *AnalyticsHandler) Heatmap(c *gin.Context) {
	q, err := parseAnalyticsQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	cells, err := h.analyticsSvc.Heatmap(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cells)
}

// Slowest handles GET /api/v1/analytics/slowest.
func (h *AnalyticsHandler) Slowest(c *gin.Context) {
	q, err := parseAnalyticsQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	txns, err := h.analyticsSvc.TopSlowest(c.Request.Context(), q, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, txns)
}

// Forecast handles GET /api/v1/analytics/forecast/:metric.
func (h *AnalyticsHandler) Forecast(c *gin.Context) {
	q, err := parseAnalyticsQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	horizon, _ := strconv.Atoi(c.DefaultQuery("horizon", "0"))
	result, err := h.analyticsSvc.Forecast(c.Request.Context(), c.Param("metric"), q, c.Query("model"), horizon)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
