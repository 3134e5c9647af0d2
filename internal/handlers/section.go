package handlers

import (
  "net/http"
  "strconv"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/yungbote/studioforge-backend/internal/services"
  "github.com/yungbote/studioforge-backend/internal/types"
)

type SectionHandler struct {
  sectionService services.SectionService
}

func NewSectionHandler(sectionService services.SectionService) *SectionHandler {
  return &SectionHandler{sectionService: sectionService}
}

func (sh *SectionHandler) Create(c *gin.Context) {
  var req struct {
    LessonID    uuid.UUID   `json:"lesson_id"`
    Title       string      `json:"title"`
    Position    int         `json:"position"`
    RawSource   string      `json:"raw_source"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  section := types.Section{
    LessonID:  req.LessonID,
    Title:     req.Title,
    Position:  req.Position,
    RawSource: req.RawSource,
  }
  created, err := sh.sectionService.CreateSection(c.Request.Context(), &section)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "section_create_failed", err)
    return
  }
  RespondOK(c, created)
}

func (sh *SectionHandler) Get(c *gin.Context) {
  sectionID, err := uuid.Parse(c.Param("section_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section id"})
    return
  }
  section, err := sh.sectionService.GetSection(c.Request.Context(), sectionID)
  if err != nil {
    RespondError(c, http.StatusNotFound, "section_not_found", err)
    return
  }
  RespondOK(c, section)
}

func (sh *SectionHandler) ListForLesson(c *gin.Context) {
  lessonID, err := uuid.Parse(c.Param("lesson_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
    return
  }
  sections, err := sh.sectionService.ListSectionsForLesson(c.Request.Context(), lessonID)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "section_list_failed", err)
    return
  }
  RespondOK(c, gin.H{"sections": sections})
}

func (sh *SectionHandler) Update(c *gin.Context) {
  sectionID, err := uuid.Parse(c.Param("section_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section id"})
    return
  }
  var updates map[string]interface{}
  if err := c.ShouldBindJSON(&updates); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  if err := sh.sectionService.UpdateSection(c.Request.Context(), sectionID, updates); err != nil {
    RespondError(c, http.StatusBadRequest, "section_update_failed", err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": "true"})
}

// UpdateSource is the authoring write path: it saves the raw snippet and
// reports whether a transform run got enqueued (identical or empty raw
// produces queued: false).
func (sh *SectionHandler) UpdateSource(c *gin.Context) {
  sectionID, err := uuid.Parse(c.Param("section_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section id"})
    return
  }
  var req struct {
    RawSource   string      `json:"raw_source"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
    return
  }
  run, err := sh.sectionService.UpdateRawSource(c.Request.Context(), sectionID, req.RawSource)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "section_source_update_failed", err)
    return
  }
  resp := gin.H{"queued": run != nil}
  if run != nil {
    resp["run_id"] = run.ID
  }
  RespondOK(c, resp)
}

func (sh *SectionHandler) ListRuns(c *gin.Context) {
  sectionID, err := uuid.Parse(c.Param("section_id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section id"})
    return
  }
  limit := 20
  if raw := c.Query("limit"); raw != "" {
    if n, pErr := strconv.Atoi(raw); pErr == nil {
      limit = n
    }
  }
  runs, err := sh.sectionService.ListRuns(c.Request.Context(), sectionID, limit)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "run_list_failed", err)
    return
  }
  RespondOK(c, gin.H{"runs": runs})
}
