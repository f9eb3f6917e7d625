package app

import (
	"toefl_sim_backend/docs"
	"toefl_sim_backend/internal/config"
	"toefl_sim_backend/internal/middleware"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	authGroup := router.Group("/api/toefl")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerSimulationRoutes(authGroup, c)
		a.registerContentRoutes(authGroup, c)
	}
}

func (a *App) registerSimulationRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/questions", c.simulation.GetQuestions)

	sim := rg.Group("/simulation")
	{
		sim.POST("/check", c.simulation.CheckSession)
		sim.POST("/start", c.simulation.StartSession)
		sim.POST("/reset", c.simulation.ResetSession)
		sim.POST("/begin", c.simulation.Begin)
		sim.POST("/submit", c.simulation.Submit)

		sim.GET("/history", c.history.ListHistory)
		sim.GET("/history/:id", c.history.GetReview)
	}
}

func (a *App) registerContentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/presets", c.content.GetPresets)
	rg.GET("/prompts", c.content.ListPrompts)
	rg.GET("/prompts/:id", c.content.GetPrompt)

	// bank statistics are for content staff
	rg.GET("/stats", middleware.RoleMiddleware(model.Editor), c.content.GetStats)
}
