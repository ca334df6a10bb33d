package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/yungbote/lessonforge-backend/internal/handlers"
  "github.com/yungbote/lessonforge-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler     *handlers.AuthHandler
  AuthMiddleware  *middleware.AuthMiddleware
  LessonHandler   *handlers.LessonHandler
  PipelineHandler *handlers.PipelineHandler
  ProviderHandler *handlers.ProviderHandler
  AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  origins := cfg.AllowOrigins
  if len(origins) == 0 {
    origins = []string{"http://localhost:3000", "http://localhost:5173"}
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     origins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  // Public
  router.GET("/healthcheck", handlers.HealthCheck)
  api := router.Group("/api")
  {
    api.POST("/register", cfg.AuthHandler.Register)
    api.POST("/login", cfg.AuthHandler.Login)
  }

  // Protected
  protected := router.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())

  protected.POST("/lessons", cfg.LessonHandler.Create)
  protected.GET("/lessons", cfg.LessonHandler.List)
  protected.GET("/lessons/:id", cfg.LessonHandler.Get)
  protected.DELETE("/lessons/:id", cfg.LessonHandler.Delete)
  protected.POST("/lessons/:id/stages/:stage", cfg.PipelineHandler.RunStage)
  protected.PATCH("/lessons/:id/slides/:index/note", cfg.LessonHandler.PatchSpeakerNote)
  protected.GET("/lessons/:id/export", cfg.PipelineHandler.Export)
  protected.GET("/models", cfg.ProviderHandler.ListModels)

  return router
}
