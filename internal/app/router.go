package app

import (
	"disaster_edu_backend/docs"
	"disaster_edu_backend/internal/config"
	"disaster_edu_backend/internal/middleware"
	"disaster_edu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 课程目录与报名统计
		public.GET("/modules", c.learning.ListModules)
		public.GET("/modules/stats", c.user.GetModuleStats)
		public.GET("/modules/:id", c.learning.GetModule)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.POST("/logout", c.auth.Logout)
		authGroup.PUT("/user/profile", c.user.UpdateProfile)
		authGroup.POST("/user/avatar/upload", c.user.UploadAvatar)
		authGroup.POST("/user/checkin", c.user.Checkin)

		// 学习进度
		authGroup.POST("/learning/modules/:id/lessons/complete", c.learning.CompleteLesson)
		authGroup.POST("/learning/modules/:id/access", c.learning.MarkAccessed)
		authGroup.GET("/learning/sync-status", c.learning.SyncStatus)

		authGroup.GET("/dashboard", c.dashboard.GetDashboard)
	}
}
