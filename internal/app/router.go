package app

import (
	"campus_hunt_backend/docs"
	"campus_hunt_backend/internal/config"
	"campus_hunt_backend/internal/middleware"
	"campus_hunt_backend/internal/model"

	"campus_hunt_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. Public routes, no login of any kind.
	a.registerPublicRoutes(router, c)

	// 2. Participant routes: anonymous cookie session, no account.
	a.registerStudentRoutes(router, c, cfg)

	// 3. Teacher routes: JWT-authenticated accounts.
	a.registerTeacherRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// QR display stays public so teachers can print codes from any
		// device, and scanning works before the hunt goes live.
		public.GET("/qr/display/:token", c.qr.DisplayQR)
	}
}

func (a *App) registerStudentRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	student := router.Group("/api/student")
	student.Use(middleware.ParticipantMiddleware(cfg))
	{
		student.GET("/dashboard", c.student.Dashboard)
		student.POST("/hunts/:id/start", c.student.StartHunt)
		student.GET("/questions/:token", c.student.GetQuestion)
		student.POST("/submit-answer", c.student.SubmitAnswer)
		student.POST("/submit-photo", c.student.SubmitPhoto)
		student.GET("/hunts/:id/progress", c.student.Progress)
		student.POST("/logout", c.student.Logout)
	}
}

func (a *App) registerTeacherRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	authGroup := router.Group("/api")
	authGroup.Use(
		middleware.AuthMiddleware(cfg),
		middleware.ActivityMiddleware(repos.user),
		middleware.RoleMiddleware(model.Teacher, model.Admin),
	)
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.PUT("/profile", c.auth.UpdateProfile)

		hunts := authGroup.Group("/teacher/hunts")
		{
			hunts.GET("", c.hunt.ListHunts)
			hunts.POST("", c.hunt.CreateHunt)
			hunts.POST("/with-questions", c.hunt.CreateHuntWithQuestions)
			hunts.GET("/:id", c.hunt.GetHunt)
			hunts.PUT("/:id", c.hunt.UpdateHunt)
			hunts.DELETE("/:id", c.hunt.DeleteHunt)
			hunts.POST("/:id/toggle-active", c.hunt.ToggleActive)
			hunts.GET("/:id/results", c.hunt.HuntResults)
			hunts.GET("/:id/photos", c.hunt.HuntPhotos)
			hunts.POST("/:id/questions", c.question.AddQuestion)
		}

		questions := authGroup.Group("/teacher/questions")
		{
			questions.PUT("/:id", c.question.UpdateQuestion)
			questions.DELETE("/:id", c.question.DeleteQuestion)
		}
	}
}
