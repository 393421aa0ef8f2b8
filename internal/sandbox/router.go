package sandbox

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/charlesng35/storedesk/internal/auth"
	"github.com/charlesng35/storedesk/internal/middleware"
	"github.com/charlesng35/storedesk/internal/realtime"
)

// RouterConfig carries the dependencies of the sandbox HTTP API.
type RouterConfig struct {
	Service   *Service
	JWT       *iauth.JWTService
	Hub       *realtime.Hub
	RateStore middleware.RateStore
	RateLimit int
	RateEvery time.Duration
}

// NewRouter builds the Gin engine, wires middleware and registers the API the client consumes.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("service must be provided")
	}
	if cfg.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg.RateEvery <= 0 {
		cfg.RateEvery = time.Minute
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	r.GET("/health", Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &Handler{service: cfg.Service, jwt: cfg.JWT, hub: cfg.Hub}
	limit := middleware.RateLimit(cfg.RateStore, cfg.RateLimit, cfg.RateEvery)

	r.POST("/api/auth/login", limit, h.Login)

	api := r.Group("/api")
	api.Use(middleware.Auth(cfg.JWT), limit)

	api.GET("/push", h.Push)

	complaints := api.Group("/complaints")
	{
		complaints.GET("", h.ListComplaints)
		complaints.POST("", h.CreateComplaint)
		complaints.GET("/:id", h.GetComplaint)
		complaints.PATCH("/:id", h.PatchComplaint)
		complaints.POST("/:id/notes", h.AddNote)
		complaints.POST("/:id/resolve", h.ResolveComplaint)
		complaints.POST("/:id/assign", h.AssignComplaint)
	}

	actions := api.Group("/action-items")
	{
		actions.GET("", h.ListActionItems)
		actions.GET("/:id", h.GetActionItem)
		actions.PATCH("/:id", h.PatchActionItem)
		actions.POST("/:id/assign", h.AssignActionItem)
	}

	followups := api.Group("/follow-ups")
	{
		followups.GET("", h.ListFollowups)
		followups.POST("/:id/resolve", h.ResolveFollowup)
	}

	api.GET("/urgent", h.Urgent)
	api.GET("/dashboard", h.Dashboard)
	api.POST("/devices", h.RegisterDevice)

	notifications := api.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("/read-all", h.MarkAllNotificationsRead)
		notifications.POST("/:id/read", h.MarkNotificationRead)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
