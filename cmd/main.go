package main

import (
  "fmt"
  "os"

  "github.com/yungbote/lessonforge-backend/internal/configstore"
  "github.com/yungbote/lessonforge-backend/internal/db"
  "github.com/yungbote/lessonforge-backend/internal/handlers"
  "github.com/yungbote/lessonforge-backend/internal/logger"
  "github.com/yungbote/lessonforge-backend/internal/middleware"
  "github.com/yungbote/lessonforge-backend/internal/repos"
  "github.com/yungbote/lessonforge-backend/internal/server"
  "github.com/yungbote/lessonforge-backend/internal/services"
  "github.com/yungbote/lessonforge-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Config store
  log.Info("Setting up config store from main...")
  var cfgStore configstore.ConfigStore
  cfgStore, err = configstore.NewRedisConfigStore(log)
  if err != nil {
    log.Warn("Redis config store unavailable, falling back to in-memory store", "error", err)
    cfgStore = configstore.NewMemoryConfigStore()
  }

  // Repos
  log.Info("Setting up repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  lessonRepo := repos.NewLessonRepo(thePG, log)
  slideRecordRepo := repos.NewSlideRecordRepo(thePG, log)
  quizQuestionRepo := repos.NewQuizQuestionRepo(thePG, log)
  generationRunRepo := repos.NewGenerationRunRepo(thePG, log)

  // Services
  log.Info("Setting up services from main...")
  authService, err := services.NewAuthService(log, userRepo)
  if err != nil {
    log.Error("Could not init AuthService", "error", err)
    os.Exit(1)
  }
  gateway := services.NewProviderGateway(log, cfgStore, nil)
  validator := services.NewFidelityValidator(utils.GetEnvAsFloat("FIDELITY_JACCARD_THRESHOLD", services.DefaultJaccardThreshold, log))
  lessonService := services.NewLessonService(log, lessonRepo, slideRecordRepo)
  pipelineService := services.NewPipelineService(log, gateway, validator, lessonRepo, slideRecordRepo, quizQuestionRepo, generationRunRepo)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  lessonHandler := handlers.NewLessonHandler(lessonService)
  pipelineHandler := handlers.NewPipelineHandler(pipelineService, lessonService)
  providerHandler := handlers.NewProviderHandler(gateway)

  // Middleware
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:     authHandler,
    AuthMiddleware:  authMiddleware,
    LessonHandler:   lessonHandler,
    PipelineHandler: pipelineHandler,
    ProviderHandler: providerHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  log.Info("Server listening", "port", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
