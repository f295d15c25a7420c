package server

import (
	"log/slog"
	"net/http"

	"project-tracker/internal/auth"
	"project-tracker/internal/config"
	"project-tracker/internal/handlers"
	"project-tracker/internal/middleware"
	"project-tracker/internal/observability/metrics"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg *config.Config, h *handlers.Handler, tokens *auth.TokenManager, log *slog.Logger) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), metrics.Middleware(), middleware.RequestLogger(log), middleware.CORS(cfg.CORSOrigin))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   !cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("project_tracker_session", store))

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	requireAuth := middleware.RequireAuth(tokens, log)
	adminOnly := middleware.RequireAdmin()

	api := r.Group("/api/v1")

	// auth
	api.POST("/auth/login", limiter.Limit(), h.Login)
	api.POST("/auth/logout", h.Logout)

	// shared link, no login
	api.GET("/clients/:sharedLinkToken", h.SharedProject)

	authed := api.Group("/", requireAuth)

	projects := authed.Group("/projects")
	projects.GET("", h.ListProjects)
	projects.GET("/search", h.SearchProjects)
	projects.GET("/export/overdue-last-month", adminOnly, h.ExportOverdueLastMonth)
	projects.GET("/:id", h.GetProject)
	projects.POST("", adminOnly, h.CreateProject)
	projects.POST("/:id/assign", adminOnly, h.AssignTechnicians)
	projects.PUT("/:id", adminOnly, h.UpdateProject)
	projects.PUT("/:id/status", limiter.Limit(), h.UpdateProjectStatus)
	projects.DELETE("/:id", adminOnly, h.DeleteProject)
	projects.POST("/post/comment", limiter.Limit(), h.PostComment)

	technicians := authed.Group("/technicians", adminOnly)
	technicians.POST("", h.CreateTechnician)
	technicians.GET("", h.ListTechnicians)
	technicians.GET("/overdue", h.ListOverdueTechnicians)
	technicians.GET("/:id", h.GetTechnician)
	technicians.PUT("/:id", h.UpdateTechnician)
	technicians.DELETE("/:id", h.DeleteTechnician)

	clients := authed.Group("/clients", adminOnly)
	clients.POST("", h.CreateClient)
	clients.GET("", h.ListClients)
	clients.GET("/email/:email", h.GetClientByEmail)
	clients.PUT("/:currentEmail", h.UpdateClient)
	clients.DELETE("/:email", h.DeleteClient)

	emails := authed.Group("/emails", adminOnly)
	emails.POST("/send-email/:projectId", h.SendProjectEmail)
	emails.GET("/project/:projectId/sent-emails", h.ListProjectSentEmails)
	emails.GET("/sent-emails", h.ListSentEmails)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
