package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/yungbote/studioforge-backend/internal/services"
  "github.com/yungbote/studioforge-backend/internal/types"
)

type CourseHandler struct {
  courseService services.CourseService
  lessonService services.LessonService
}

func NewCourseHandler(courseService services.CourseService, lessonService services.LessonService) *CourseHandler {
  return &CourseHandler{courseService: courseService, lessonService: lessonService}
}

func (ch *CourseHandler) Create(c *gin.Context) {
  var req struct {
    Title       string      `json:"title"`
    Description string      `json:"description"`
    Level       string      `json:"level"`
    Subject     string      `json:"subject"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  course := types.Course{
    Title:       req.Title,
    Description: req.Description,
    Level:       req.Level,
    Subject:     req.Subject,
  }
  created, err := ch.courseService.CreateCourse(c.Request.Context(), &course)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "course_create_failed", err)
    return
  }
  RespondOK(c, created)
}

func (ch *CourseHandler) Get(c *gin.Context) {
  courseID, err := uuid.Parse(c.Param("course_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
    return
  }
  course, err := ch.courseService.GetCourse(c.Request.Context(), courseID)
  if err != nil {
    RespondError(c, http.StatusNotFound, "course_not_found", err)
    return
  }
  RespondOK(c, course)
}

func (ch *CourseHandler) List(c *gin.Context) {
  courses, err := ch.courseService.ListCoursesForUser(c.Request.Context())
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "course_list_failed", err)
    return
  }
  RespondOK(c, gin.H{"courses": courses})
}

func (ch *CourseHandler) Update(c *gin.Context) {
  courseID, err := uuid.Parse(c.Param("course_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
    return
  }
  var updates map[string]interface{}
  if err := c.ShouldBindJSON(&updates); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if err := ch.courseService.UpdateCourse(c.Request.Context(), courseID, updates); err != nil {
    RespondError(c, http.StatusBadRequest, "course_update_failed", err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": "true"})
}

func (ch *CourseHandler) ListLessons(c *gin.Context) {
  courseID, err := uuid.Parse(c.Param("course_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
    return
  }
  lessons, err := ch.lessonService.ListLessonsForCourse(c.Request.Context(), courseID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "lesson_list_failed", err)
    return
  }
  RespondOK(c, gin.H{"lessons": lessons})
}
