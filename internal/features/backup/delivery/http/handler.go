package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "swagly-backend/internal/common/errors"
	"swagly-backend/internal/features/backup/models"
)

type Scheduler interface {
	Start() bool
	Stop() bool
	IsRunning() bool
	Status(ctx context.Context) (models.Status, error)
}

type CycleRunner interface {
	RunCycle(ctx context.Context) models.Result
}

type BackupHandler struct {
	scheduler Scheduler
	runner    CycleRunner
}

func NewBackupHandler(scheduler Scheduler, runner CycleRunner) *BackupHandler {
	return &BackupHandler{scheduler: scheduler, runner: runner}
}

func (h *BackupHandler) RegisterRoutes(router *gin.RouterGroup, admin gin.HandlerFunc) {
	router.GET("/backup", h.status)
	router.POST("/backup", admin, h.control)
	router.GET("/init", h.initServices)
}

type ControlRequest struct {
	Action string `json:"action" binding:"required"`
}

type StatusResponse struct {
	Success bool          `json:"success"`
	Stats   models.Status `json:"stats"`
}

type ManualBackupData struct {
	Cid             string `json:"cid,omitempty"`
	PublicURL       string `json:"ipfsUrl,omitempty"`
	ScansCount      int    `json:"scansCount"`
	ActivitiesCount int    `json:"activitiesCount"`
}

type ControlResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    *ManualBackupData `json:"data,omitempty"`
}

// @Summary Backup status
// @Description Returns the scheduler state and the last committed backup watermark
// @Tags backup
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /backup [get]
func (h *BackupHandler) status(c *gin.Context) {
	st, err := h.scheduler.Status(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to read backup status"))
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Success: true, Stats: st})
}

// @Summary Control backups
// @Description action=manual runs one cycle and waits for it; start and stop control the scheduler
// @Tags backup
// @Accept json
// @Produce json
// @Security AdminToken
// @Param input body ControlRequest true "Action: manual, start or stop"
// @Success 200 {object} ControlResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /backup [post]
func (h *BackupHandler) control(c *gin.Context) {
	var input ControlRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.NewValidationError("action", "is required"))
		return
	}

	switch input.Action {
	case "manual":
		res := h.runner.RunCycle(c.Request.Context())
		if !res.Success {
			_ = c.Error(apperrors.New(apperrors.ErrCodeBackupCycle, res.Error))
			return
		}

		data := &ManualBackupData{
			Cid:             res.Locator,
			ScansCount:      res.ScansCount,
			ActivitiesCount: res.ActivitiesCount,
		}
		if res.Locator != "" {
			if st, err := h.scheduler.Status(c.Request.Context()); err == nil {
				data.PublicURL = st.PublicURL
			}
		}
		c.JSON(http.StatusOK, ControlResponse{Success: true, Message: "Manual backup completed", Data: data})

	case "start":
		if !h.scheduler.Start() {
			c.JSON(http.StatusOK, ControlResponse{Success: true, Message: "Automatic backups already running"})
			return
		}
		c.JSON(http.StatusOK, ControlResponse{Success: true, Message: "Automatic backups started"})

	case "stop":
		if !h.scheduler.Stop() {
			c.JSON(http.StatusOK, ControlResponse{Success: true, Message: "Automatic backups were not running"})
			return
		}
		c.JSON(http.StatusOK, ControlResponse{Success: true, Message: "Automatic backups stopped"})

	default:
		_ = c.Error(apperrors.NewValidationError("action", "must be manual, start or stop"))
	}
}

// @Summary Initialise background services
// @Description Starts automatic backups if they are not running yet
// @Tags backup
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /init [get]
func (h *BackupHandler) initServices(c *gin.Context) {
	h.scheduler.Start()
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Services initialised",
		"services": gin.H{"backups": "running"},
	})
}
