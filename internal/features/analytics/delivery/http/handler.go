package http

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	apperrors "swagly-backend/internal/common/errors"
	"swagly-backend/internal/common/validation"
	"swagly-backend/internal/features/analytics/models"
)

type AnalyticsService interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	Scans(ctx context.Context, q models.ScanQuery) ([]models.ScanEvent, error)
	ActivityStats(ctx context.Context, activityID string) ([]models.ActivityStats, error)
	UserStats(ctx context.Context, limit int) ([]models.UserStats, error)
	EventStats(ctx context.Context, eventID string) ([]models.EventStats, error)
}

type AnalyticsHandler struct {
	service AnalyticsService
}

func NewAnalyticsHandler(service AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	analytics := router.Group("/analytics")
	{
		analytics.GET("", h.dashboard)
		analytics.GET("/scans", h.scans)
		analytics.GET("/activities", h.activities)
		analytics.GET("/users", h.users)
		analytics.GET("/events", h.events)
	}
}

type ScanQueryParams struct {
	First          int       `form:"first"`
	Skip           int       `form:"skip"`
	OrderBy        string    `form:"orderBy"`
	OrderDirection string    `form:"orderDirection"`
	UserAddress    string    `form:"userAddress"`
	ActivityID     string    `form:"activityId"`
	EventID        string    `form:"eventId"`
	From           time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To             time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

type UserStatsParams struct {
	Limit int `form:"limit"`
}

type DashboardResponse struct {
	Success bool              `json:"success"`
	Indexed bool              `json:"indexed"`
	Data    *models.Dashboard `json:"data"`
}

type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// @Summary Analytics dashboard
// @Description Totals, recent scans, top activities and users, hourly and 7-day activity
// @Tags analytics
// @Produce json
// @Success 200 {object} DashboardResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /analytics [get]
func (h *AnalyticsHandler) dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, DashboardResponse{Success: true, Indexed: true, Data: d})
}

// @Summary Scan events
// @Description Paged scan events with optional user, activity, event and time filters
// @Tags analytics
// @Produce json
// @Param first query int false "Page size, default 100, max 1000"
// @Param skip query int false "Rows to skip"
// @Param orderBy query string false "timestamp or tokensAwarded"
// @Param orderDirection query string false "asc or desc"
// @Param userAddress query string false "Wallet address"
// @Param activityId query string false "Activity id"
// @Param eventId query string false "Event id"
// @Param from query string false "RFC3339 lower bound, inclusive"
// @Param to query string false "RFC3339 upper bound, inclusive"
// @Success 200 {object} DataResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /analytics/scans [get]
func (h *AnalyticsHandler) scans(c *gin.Context) {
	var params ScanQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid query parameters"))
		return
	}
	if params.UserAddress != "" && !common.IsHexAddress(params.UserAddress) {
		_ = c.Error(apperrors.NewValidationError("userAddress", "must be a hex address"))
		return
	}
	if !checkOptionalID(c, "activityId", params.ActivityID) || !checkOptionalID(c, "eventId", params.EventID) {
		return
	}

	q := models.ScanQuery{
		First:          params.First,
		Skip:           params.Skip,
		OrderBy:        params.OrderBy,
		OrderDirection: params.OrderDirection,
		UserAddress:    params.UserAddress,
		ActivityID:     params.ActivityID,
		EventID:        params.EventID,
	}
	if !params.From.IsZero() {
		q.From = &params.From
	}
	if !params.To.IsZero() {
		q.To = &params.To
	}

	events, err := h.service.Scans(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Success: true, Data: events})
}

// @Summary Activity statistics
// @Tags analytics
// @Produce json
// @Param activityId query string false "Restrict to one activity"
// @Success 200 {object} DataResponse
// @Router /analytics/activities [get]
func (h *AnalyticsHandler) activities(c *gin.Context) {
	id := c.Query("activityId")
	if !checkOptionalID(c, "activityId", id) {
		return
	}
	stats, err := h.service.ActivityStats(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Success: true, Data: stats})
}

// @Summary User leaderboard
// @Tags analytics
// @Produce json
// @Param limit query int false "Entries, default 100"
// @Success 200 {object} DataResponse
// @Router /analytics/users [get]
func (h *AnalyticsHandler) users(c *gin.Context) {
	var params UserStatsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid query parameters"))
		return
	}
	stats, err := h.service.UserStats(c.Request.Context(), params.Limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Success: true, Data: stats})
}

// @Summary Event statistics
// @Tags analytics
// @Produce json
// @Param eventId query string false "Restrict to one event"
// @Success 200 {object} DataResponse
// @Router /analytics/events [get]
func (h *AnalyticsHandler) events(c *gin.Context) {
	id := c.Query("eventId")
	if !checkOptionalID(c, "eventId", id) {
		return
	}
	stats, err := h.service.EventStats(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Success: true, Data: stats})
}

func checkOptionalID(c *gin.Context, field, value string) bool {
	if value == "" {
		return true
	}
	if err := validation.ValidateIdentifier(value, field); err != nil {
		_ = c.Error(apperrors.NewValidationError(field, err.Error()))
		return false
	}
	return true
}
