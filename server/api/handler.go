package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	commonauth "inspection_server/server/common/auth"
	commonlog "inspection_server/server/common/log"
	"inspection_server/server/common/middleware"
	"inspection_server/server/common/transport/httpresp"
	"inspection_server/server/domain"
	"inspection_server/server/service"
)

// AuthConfig gates the mutating API behind a bearer token when enabled.
// A single admin credential is checked at login.
type AuthConfig struct {
	Enabled           bool
	AdminEmail        string
	AdminPasswordHash string
}

type Handler struct {
	attachments *service.AttachmentService
	inspections *service.InspectionService
	dashboard   *service.DashboardService
	reports     *service.ReportService
	realtime    *service.RealtimeService
	auth        *commonauth.Service
	authCfg     AuthConfig
	readyCheck  func(context.Context) error
}

func NewHandler(
	attachments *service.AttachmentService,
	inspections *service.InspectionService,
	dashboard *service.DashboardService,
	reports *service.ReportService,
	realtime *service.RealtimeService,
	auth *commonauth.Service,
	authCfg AuthConfig,
	readyCheck func(context.Context) error,
) *Handler {
	return &Handler{
		attachments: attachments,
		inspections: inspections,
		dashboard:   dashboard,
		reports:     reports,
		realtime:    realtime,
		auth:        auth,
		authCfg:     authCfg,
		readyCheck:  readyCheck,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.readiness)
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", h.readiness)

	api := r.Group("/api/v1")
	adminOnly := gin.HandlerFunc(func(c *gin.Context) { c.Next() })
	if h.authCfg.Enabled {
		api.POST("/auth/login", h.login)
		api.Use(middleware.AuthRequired(h.auth))
		adminOnly = middleware.RequireRoles("admin")
	}

	api.POST("/attachments", h.uploadAttachment)
	api.GET("/attachments/:id", h.downloadAttachment)
	api.GET("/attachments/:id/thumbnail", h.downloadThumbnail)

	api.POST("/companies", h.createCompany)
	api.GET("/companies", h.listCompanies)

	api.POST("/tasks", h.createTask)
	api.GET("/tasks", h.listTasks)
	api.GET("/tasks/:id", h.getTask)
	api.PUT("/tasks/:id", h.updateTask)
	api.DELETE("/tasks/:id", adminOnly, h.deleteTask)
	api.POST("/tasks/visibility", adminOnly, h.updateVisibility)
	api.POST("/tasks/:id/items/:itemID/toggle", h.toggleItem)

	api.GET("/dashboard", h.getDashboard)
	api.GET("/dashboard/stats", h.getMonthStats)
	api.GET("/reports/monthly", h.getMonthlyReport)

	if h.realtime != nil {
		api.GET("/ws/updates", h.realtime.HandleWS)
	}
}

func (h *Handler) readiness(c *gin.Context) {
	if h.readyCheck != nil {
		if err := h.readyCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
		return
	}
	if req.Email != h.authCfg.AdminEmail ||
		bcrypt.CompareHashAndPassword([]byte(h.authCfg.AdminPasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrInvalidCredentials))
		return
	}
	token, err := h.auth.GenerateToken(req.Email, "admin")
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpresp.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, httpresp.NewTokenResponse(token, "admin"))
}

// respondError translates domain error kinds into HTTP statuses. Anything
// unrecognized is a server-side failure.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, httpresp.NewErrorResponse(err.Error()))
	default:
		commonlog.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, httpresp.NewErrorResponse(err.Error()))
	}
}
