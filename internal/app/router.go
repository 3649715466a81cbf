package app

import (
	"skillsprint_backend/docs"
	"skillsprint_backend/internal/config"
	"skillsprint_backend/internal/middleware"
	"skillsprint_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.Health)

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/auth/me", c.auth.Me)
		authGroup.POST("/auth/logout", c.auth.Logout)

		// 学习目标
		authGroup.POST("/objectives", c.objective.Create)
		authGroup.GET("/objectives", c.objective.List)
		authGroup.GET("/objectives/:id", c.objective.Get)
		authGroup.PUT("/objectives/:id", c.objective.Update)
		authGroup.DELETE("/objectives/:id", c.objective.Delete)
		authGroup.POST("/objectives/:id/complete", c.objective.Complete)
		authGroup.GET("/objectives/:id/generation-status", c.objective.GenerationStatus)
		authGroup.GET("/objectives/:id/generation-status/stream", c.objective.GenerationStatusStream)
		authGroup.POST("/objectives/:id/sprints/generate", c.objective.Generate)

		// 冲刺
		authGroup.GET("/objectives/:id/sprints/:sprintId", c.sprint.Get)
		authGroup.PATCH("/objectives/:id/sprints/:sprintId/progress", c.sprint.UpdateProgress)
		authGroup.PATCH("/objectives/:id/sprints/:sprintId/tasks/:taskId", c.sprint.SetTask)
		authGroup.POST("/objectives/:id/sprints/:sprintId/complete", c.sprint.Complete)
		authGroup.POST("/objectives/:id/sprints/:sprintId/evidence", c.sprint.UploadEvidence)
		authGroup.GET("/objectives/:id/sprints/:sprintId/evidence", c.sprint.ListEvidence)

		// 画像测验
		authGroup.GET("/quiz", c.quiz.Questions)
		authGroup.POST("/quiz/submit", c.quiz.Submit)
		authGroup.GET("/quiz/latest", c.quiz.Latest)

		// 技术评估
		authGroup.GET("/assessments/technical/questions", c.assessment.Questions)
		authGroup.POST("/assessments/technical/submit", c.assessment.Submit)
		authGroup.GET("/assessments/technical/latest", c.assessment.Latest)
	}
}
