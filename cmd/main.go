package main

import (
  "context"
  "fmt"
  "os"
  "strings"
  "time"
  "github.com/redis/go-redis/v9"
  "github.com/yungbote/studioforge-backend/internal/logger"
  "github.com/yungbote/studioforge-backend/internal/utils"
  "github.com/yungbote/studioforge-backend/internal/db"
  "github.com/yungbote/studioforge-backend/internal/importmap"
  "github.com/yungbote/studioforge-backend/internal/repos"
  "github.com/yungbote/studioforge-backend/internal/resolver"
  "github.com/yungbote/studioforge-backend/internal/services"
  "github.com/yungbote/studioforge-backend/internal/handlers"
  "github.com/yungbote/studioforge-backend/internal/middleware"
  "github.com/yungbote/studioforge-backend/internal/server"
  "github.com/yungbote/studioforge-backend/internal/sse"
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

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
  workerPollSecs := utils.GetEnvAsInt("TRANSFORM_POLL_INTERVAL", 2, log)
  heartbeatSecs := utils.GetEnvAsInt("TRANSFORM_HEARTBEAT_INTERVAL", 10, log)
  staleRunningSecs := utils.GetEnvAsInt("TRANSFORM_STALE_RUNNING", 120, log)
  resolveDeadlineSecs := utils.GetEnvAsInt("RESOLVE_DEADLINE", 10, log)
  allowOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5174", log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Redis (optional; SSE fan-out degrades to single-node without it)
  var rdb *redis.Client
  if redisAddr := utils.GetEnv("REDIS_ADDR", "", log); redisAddr != "" {
    rdb = redis.NewClient(&redis.Options{
      Addr:     redisAddr,
      Password: utils.GetEnv("REDIS_PASSWORD", "", log),
    })
  }

  // Import map registry
  log.Info("Setting up symbol registry from main...")
  var registry importmap.Registry
  if overlayPath := utils.GetEnv("IMPORTMAP_FILE", "", log); overlayPath != "" {
    registry, err = importmap.LoadWithOverlay(overlayPath)
    if err != nil {
      log.Error("Failed to load import map overlay", "path", overlayPath, "error", err)
      os.Exit(1)
    }
  } else {
    registry = importmap.NewStaticRegistry("builtin")
  }

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  courseRepo := repos.NewCourseRepo(thePG, log)
  lessonRepo := repos.NewLessonRepo(thePG, log)
  sectionRepo := repos.NewSectionRepo(thePG, log)
  runRepo := repos.NewSectionTransformRunRepo(thePG, log)

  // SSE
  log.Info("Setting up SSE hub now...")
  sseHub := sse.NewSSEHub(log)
  sseBus := services.NewSSEBusService(rdb, sseHub, log)
  sseBus.Start(context.Background())

  // Services
  log.Info("Setting up Services from main...")
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  userService := services.NewUserService(thePG, log, userRepo)
  courseService := services.NewCourseService(thePG, log, courseRepo)
  transformService := services.NewSectionTransformService(
    thePG,
    log,
    sectionRepo,
    lessonRepo,
    runRepo,
    registry,
    sseBus,
    time.Duration(workerPollSecs)*time.Second,
    time.Duration(heartbeatSecs)*time.Second,
    time.Duration(staleRunningSecs)*time.Second,
  )
  transformService.StartWorker(context.Background())
  lessonService := services.NewLessonService(thePG, log, lessonRepo, sectionRepo, transformService)
  sectionService := services.NewSectionService(thePG, log, sectionRepo, runRepo, transformService)

  // Resolver
  symbolResolver := resolver.New(registry, resolver.NewTreeEvaluator(), log, time.Duration(resolveDeadlineSecs)*time.Second)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  userHandler := handlers.NewUserHandler(userService)
  courseHandler := handlers.NewCourseHandler(courseService, lessonService)
  lessonHandler := handlers.NewLessonHandler(lessonService, symbolResolver)
  sectionHandler := handlers.NewSectionHandler(sectionService)
  sseHandler := handlers.NewSSEHandler(sseHub)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:    authHandler,
    AuthMiddleware: authMiddleware,
    UserHandler:    userHandler,
    CourseHandler:  courseHandler,
    LessonHandler:  lessonHandler,
    SectionHandler: sectionHandler,
    SSEHandler:     sseHandler,
    SSEBus:         sseBus,
    AllowOrigins:   strings.Split(allowOrigins, ","),
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
