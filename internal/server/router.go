package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/yungbote/studioforge-backend/internal/handlers"
  "github.com/yungbote/studioforge-backend/internal/middleware"
  "github.com/yungbote/studioforge-backend/internal/services"
)

type RouterConfig struct {
  AuthHandler       *handlers.AuthHandler
  AuthMiddleware    *middleware.AuthMiddleware
  UserHandler       *handlers.UserHandler
  CourseHandler     *handlers.CourseHandler
  LessonHandler     *handlers.LessonHandler
  SectionHandler    *handlers.SectionHandler
  SSEHandler        *handlers.SSEHandler
  SSEBus            services.SSEBusService
  AllowOrigins      []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins:     cfg.AllowOrigins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  router.POST("/register", cfg.AuthHandler.Register)
  router.POST("/login", cfg.AuthHandler.Login)

// ===============
// || Protected ||
// ===============
  protected := router.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  protected.Use(middleware.AttachSSEBuffer(cfg.SSEBus))
  // Auth
  protected.POST("/refresh", cfg.AuthHandler.Refresh)
  protected.POST("/logout", cfg.AuthHandler.Logout)
  // SSE
  protected.GET("/sse/stream", cfg.SSEHandler.Stream)
  // User
  protected.GET("/user", cfg.UserHandler.GetMe)
  // Courses
  protected.GET("/courses", cfg.CourseHandler.List)
  protected.GET("/courses/:course_id", cfg.CourseHandler.Get)
  protected.GET("/courses/:course_id/lessons", cfg.CourseHandler.ListLessons)
  // Lessons (read side)
  protected.GET("/lessons/:lesson_id", cfg.LessonHandler.Get)
  protected.GET("/lessons/:lesson_id/sections", cfg.SectionHandler.ListForLesson)
  protected.GET("/lessons/:lesson_id/artifact", cfg.LessonHandler.GetArtifact)
  protected.POST("/lessons/:lesson_id/resolve", cfg.LessonHandler.Resolve)
  // Sections (read side)
  protected.GET("/sections/:section_id", cfg.SectionHandler.Get)
  protected.GET("/sections/:section_id/runs", cfg.SectionHandler.ListRuns)

// ===============
// || Staff     ||
// ===============
  staff := protected.Group("/")
  staff.Use(cfg.AuthMiddleware.RequireStaff())
  // Authoring writes
  staff.POST("/courses", cfg.CourseHandler.Create)
  staff.PATCH("/courses/:course_id", cfg.CourseHandler.Update)
  staff.POST("/lessons", cfg.LessonHandler.Create)
  staff.PATCH("/lessons/:lesson_id", cfg.LessonHandler.Update)
  staff.PUT("/lessons/:lesson_id/section-order", cfg.LessonHandler.ReorderSections)
  staff.POST("/lessons/:lesson_id/recombine", cfg.LessonHandler.Recombine)
  staff.POST("/sections", cfg.SectionHandler.Create)
  staff.PATCH("/sections/:section_id", cfg.SectionHandler.Update)
  staff.PUT("/sections/:section_id/source", cfg.SectionHandler.UpdateSource)

  return router
}
