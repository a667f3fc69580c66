package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vnkhanh/matching-server/controllers"
	"github.com/vnkhanh/matching-server/metrics"
	"github.com/vnkhanh/matching-server/middleware"
	"github.com/vnkhanh/matching-server/services"
)

type Deps struct {
	Matchings     *services.MatchingService
	Applies       *services.ApplyService
	Notifications *services.NotificationService
	Auth          *services.AuthService
	Exports       *services.ExportService
	Uploader      controllers.ImageUploader
	Health        controllers.Pinger
	Logger        logrus.FieldLogger

	MatchingsPerMin int
	AppliesPerMin   int
	Burst           int
}

func SetupRoutes(r *gin.Engine, d Deps) {
	matchings := controllers.NewMatchingController(d.Matchings, d.Logger)
	applies := controllers.NewApplyController(d.Applies, d.Logger)
	notifications := controllers.NewNotificationController(d.Notifications, d.Logger)
	auth := controllers.NewAuthController(d.Auth, d.Logger)
	exports := controllers.NewExportController(d.Exports, d.Logger)
	uploads := controllers.NewUploadController(d.Uploader, d.Logger)
	health := controllers.NewHealthController(d.Health)

	createLimiter := middleware.NewIPRateLimiter(d.MatchingsPerMin, d.Burst, 5*time.Minute)
	applyLimiter := middleware.NewIPRateLimiter(d.AppliesPerMin, d.Burst, 5*time.Minute)
	authJWT := middleware.AuthJWT(d.Auth)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/health", health.Check)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", auth.Register)
			authGroup.POST("/login", auth.Login)
			authGroup.POST("/google/login", auth.GoogleLogin)
		}
		api.GET("/me", authJWT, auth.Me)

		m := api.Group("/matchings")
		{
			m.GET("", matchings.List)
			m.POST("/search", matchings.Search)
			m.GET("/:id", matchings.Detail)

			m.POST("", authJWT, middleware.RateLimitByIP(createLimiter), matchings.Create)
			m.PUT("/:id", authJWT, matchings.Update)
			m.DELETE("/:id", authJWT, matchings.Delete)
			m.PATCH("/:id/status", authJWT, matchings.ChangeStatus)
			m.GET("/:id/apply-contents", authJWT, matchings.ApplyContents)
			m.POST("/:id/applies", authJWT, middleware.RateLimitByIP(applyLimiter), applies.Apply)
			m.POST("/:id/export", authJWT, exports.Start)
		}

		a := api.Group("/applies")
		a.Use(authJWT)
		{
			a.GET("/me", applies.ListMine)
			a.POST("/:id/accept", applies.Accept)
			a.POST("/:id/reject", applies.Reject)
		}

		n := api.Group("/notifications")
		n.Use(authJWT)
		{
			n.GET("", notifications.List)
			n.PATCH("/:id/read", notifications.MarkRead)
		}

		api.GET("/exports/:job_id", authJWT, exports.Get)
		api.POST("/uploads", authJWT, uploads.Upload)
	}
}
