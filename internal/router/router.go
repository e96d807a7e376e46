package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/screening-backend/internal/config"
	"github.com/stemsi/screening-backend/internal/handler"
	"github.com/stemsi/screening-backend/internal/middleware"
	"github.com/stemsi/screening-backend/internal/response"
	"github.com/stemsi/screening-backend/internal/service"
)

// catalogMaxAge is how long clients may cache public catalog reads.
const catalogMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Catalog    *handler.CatalogHandler
	Assessment *handler.AssessmentHandler
	WS         *handler.WSHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	submitLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	// ─── 1. Catalog (User JWT, Cacheable) ──────────────────────────────
	catalogAPI := router.Group("/api/v1/catalog")
	catalogAPI.Use(middleware.RequireUserJWT(authService), middleware.CacheControl(catalogMaxAge))
	{
		catalogAPI.GET("/substances", handlers.Catalog.ListSubstances)
		catalogAPI.GET("/templates/:type", handlers.Catalog.GetTemplate)
	}

	// ─── 2. Assessments (User JWT) ─────────────────────────────────────
	assessmentAPI := router.Group("/api/v1/assessments")
	assessmentAPI.Use(middleware.RequireUserJWT(authService), middleware.NoStore())
	{
		assessmentAPI.POST("", handlers.Assessment.StartAssessment)
		assessmentAPI.GET("/results", handlers.Assessment.ListResults)
		assessmentAPI.GET("/:session_id", handlers.Assessment.GetAssessment)
		assessmentAPI.DELETE("/:session_id", handlers.Assessment.AbandonAssessment)
		assessmentAPI.PUT("/:session_id/answers", handlers.Assessment.AnswerQuestion)
		assessmentAPI.POST("/:session_id/navigate", handlers.Assessment.Navigate)
		assessmentAPI.GET("/:session_id/pending", handlers.Assessment.GetPending)
		assessmentAPI.POST("/:session_id/submit", submitLimiter.PerUser(), handlers.Assessment.SubmitAssessment)
	}

	// ─── 3. WebSocket (Query Token) ────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/assessments/:session_id/stream", handlers.WS.AssessmentStream)
	}

	// ─── 4. Admin (JWT + RBAC) ─────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService), middleware.NoStore())
	{
		substances := adminAPI.Group("/substances")
		{
			substances.GET("", middleware.RequirePermission(middleware.PermCatalogRead), handlers.Catalog.ListSubstances)
			substances.GET("/:id", middleware.RequirePermission(middleware.PermCatalogRead), handlers.Catalog.GetSubstance)
			substances.POST("", middleware.RequirePermission(middleware.PermCatalogWrite), handlers.Catalog.CreateSubstance)
			substances.PUT("/:id", middleware.RequirePermission(middleware.PermCatalogWrite), handlers.Catalog.UpdateSubstance)
			substances.DELETE("/:id", middleware.RequirePermission(middleware.PermCatalogWrite), handlers.Catalog.DeleteSubstance)
		}

		templates := adminAPI.Group("/templates")
		{
			templates.GET("/:type/questions", middleware.RequirePermission(middleware.PermCatalogRead), handlers.Catalog.ListQuestions)
			templates.PUT("/:type/questions", middleware.RequirePermission(middleware.PermCatalogWrite), handlers.Catalog.ReplaceQuestions)
		}

		adminAPI.POST("/catalog/refresh-cache",
			middleware.RequirePermission(middleware.PermCatalogWrite),
			handlers.Catalog.RefreshCache,
		)

		// System Monitoring (open to all admins)
		adminAPI.GET("/system/stats", handlers.System.Stats)
		adminAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	return router
}
