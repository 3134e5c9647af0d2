package handlers

import (
  "encoding/json"
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/yungbote/studioforge-backend/internal/resolver"
  "github.com/yungbote/studioforge-backend/internal/services"
  "github.com/yungbote/studioforge-backend/internal/types"
)

type LessonHandler struct {
  lessonService services.LessonService
  resolver      *resolver.Resolver
}

func NewLessonHandler(lessonService services.LessonService, res *resolver.Resolver) *LessonHandler {
  return &LessonHandler{lessonService: lessonService, resolver: res}
}

func (lh *LessonHandler) Create(c *gin.Context) {
  var req struct {
    CourseID    uuid.UUID   `json:"course_id"`
    Title       string      `json:"title"`
    Index       int         `json:"index"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  lesson := types.Lesson{
    CourseID: req.CourseID,
    Title:    req.Title,
    Index:    req.Index,
  }
  created, err := lh.lessonService.CreateLesson(c.Request.Context(), &lesson)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "lesson_create_failed", err)
    return
  }
  RespondOK(c, created)
}

func (lh *LessonHandler) Get(c *gin.Context) {
  lessonID, err := uuid.Parse(c.Param("lesson_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
    return
  }
  lesson, err := lh.lessonService.GetLesson(c.Request.Context(), lessonID)
  if err != nil {
    RespondError(c, http.StatusNotFound, "lesson_not_found", err)
    return
  }
  RespondOK(c, lesson)
}

func (lh *LessonHandler) Update(c *gin.Context) {
  lessonID, err := uuid.Parse(c.Param("lesson_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
    return
  }
  var updates map[string]interface{}
  if err := c.ShouldBindJSON(&updates); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if err := lh.lessonService.UpdateLesson(c.Request.Context(), lessonID, updates); err != nil {
    RespondError(c, http.StatusBadRequest, "lesson_update_failed", err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": "true"})
}

func (lh *LessonHandler) ReorderSections(c *gin.Context) {
  lessonID, err := uuid.Parse(c.Param("lesson_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
    return
  }
  var req struct {
    Order       []uuid.UUID `json:"order"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if err := lh.lessonService.ReorderSections(c.Request.Context(), lessonID, req.Order); err != nil {
    RespondError(c, http.StatusBadRequest, "lesson_reorder_failed", err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": "true"})
}

func (lh *LessonHandler) Recombine(c *gin.Context) {
  lessonID, err := uuid.Parse(c.Param("lesson_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
    return
  }
  if err := lh.lessonService.Recombine(c.Request.Context(), lessonID); err != nil {
    RespondError(c, http.StatusBadRequest, "lesson_recombine_failed", err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": "true"})
}

func (lh *LessonHandler) GetArtifact(c *gin.Context) {
  lessonID, err := uuid.Parse(c.Param("lesson_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
    return
  }
  artifact, err := lh.lessonService.GetArtifact(c.Request.Context(), lessonID)
  if err != nil {
    RespondError(c, http.StatusNotFound, "artifact_not_found", err)
    return
  }
  RespondOK(c, artifact)
}

// Resolve evaluates the lesson's combined artifact server-side and returns
// the render tree plus anything the registry could not supply. Preview
// surface for the authoring UI.
func (lh *LessonHandler) Resolve(c *gin.Context) {
  lessonID, err := uuid.Parse(c.Param("lesson_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
    return
  }
  artifact, err := lh.lessonService.GetArtifact(c.Request.Context(), lessonID)
  if err != nil {
    RespondError(c, http.StatusNotFound, "artifact_not_found", err)
    return
  }
  if artifact.Code == "" {
    RespondError(c, http.StatusConflict, "artifact_empty", errors.New("Lesson has no combined artifact yet"))
    return
  }
  var manifest types.DependencyManifest
  if len(artifact.Manifest) > 0 {
    if uErr := json.Unmarshal(artifact.Manifest, &manifest); uErr != nil {
      RespondError(c, http.StatusInternalServerError, "manifest_invalid", uErr)
      return
    }
  }
  symbols, err := lh.resolver.Resolve(c.Request.Context(), manifest)
  if err != nil {
    if errors.Is(err, resolver.ErrResolveTimeout) {
      RespondError(c, http.StatusGatewayTimeout, "resolve_timeout", err)
      return
    }
    RespondError(c, http.StatusInternalServerError, "resolve_failed", err)
    return
  }
  tree, err := lh.resolver.Evaluate(c.Request.Context(), artifact.Code, manifest, artifact.ComponentName)
  if err != nil {
    RespondError(c, http.StatusUnprocessableEntity, "evaluate_failed", err)
    return
  }
  RespondOK(c, gin.H{
    "lesson_id":        artifact.LessonID,
    "component_name":   artifact.ComponentName,
    "artifact_version": artifact.ArtifactVersion,
    "tree":             tree,
    "unsupported":      symbols.Unsupported,
    "unresolved":       symbols.Unresolved,
  })
}
