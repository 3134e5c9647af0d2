package services

import (
  "context"
  "encoding/json"
  "fmt"
  "gorm.io/gorm"
  "gorm.io/datatypes"
  "github.com/google/uuid"
  "github.com/yungbote/studioforge-backend/internal/logger"
  "github.com/yungbote/studioforge-backend/internal/repos"
  "github.com/yungbote/studioforge-backend/internal/types"
)

// Recombiner rebuilds a lesson's combined artifact from its current
// sections. Satisfied by SectionTransformService.
type Recombiner interface {
  RecombineLesson(ctx context.Context, lessonID uuid.UUID, actor string) error
}

// LessonArtifact is the served shape of a lesson's combined module.
// Pure JSON contract for the frontend. Not a DB model.
type LessonArtifact struct {
  LessonID        uuid.UUID       `json:"lesson_id"`
  ComponentName   string          `json:"component_name"`
  Code            string          `json:"code"`
  Original        string          `json:"original"`
  Manifest        json.RawMessage `json:"manifest"`
  ArtifactVersion int             `json:"artifact_version"`
  AutoGenerated   bool            `json:"auto_generated"`
}

type LessonService interface {
  CreateLesson(ctx context.Context, lesson *types.Lesson) (*types.Lesson, error)
  GetLesson(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error)
  ListLessonsForCourse(ctx context.Context, courseID uuid.UUID) ([]*types.Lesson, error)
  UpdateLesson(ctx context.Context, lessonID uuid.UUID, updates map[string]interface{}) error
  ReorderSections(ctx context.Context, lessonID uuid.UUID, order []uuid.UUID) error
  Recombine(ctx context.Context, lessonID uuid.UUID) error
  GetArtifact(ctx context.Context, lessonID uuid.UUID) (*LessonArtifact, error)
}

type lessonService struct {
  db          *gorm.DB
  log         *logger.Logger
  lessonRepo  repos.LessonRepo
  sectionRepo repos.SectionRepo
  recombiner  Recombiner
}

func NewLessonService(
  db *gorm.DB,
  baseLog *logger.Logger,
  lessonRepo repos.LessonRepo,
  sectionRepo repos.SectionRepo,
  recombiner Recombiner,
) LessonService {
  serviceLog := baseLog.With("service", "LessonService")
  return &lessonService{
    db:          db,
    log:         serviceLog,
    lessonRepo:  lessonRepo,
    sectionRepo: sectionRepo,
    recombiner:  recombiner,
  }
}

func (ls *lessonService) CreateLesson(ctx context.Context, lesson *types.Lesson) (*types.Lesson, error) {
  if lesson.Title == "" {
    return nil, fmt.Errorf("Lesson title is required")
  }
  if lesson.CourseID == uuid.Nil {
    return nil, fmt.Errorf("Lesson course_id is required")
  }
  lesson.ID = uuid.New()
  if len(lesson.SectionOrder) == 0 {
    lesson.SectionOrder = datatypes.JSON([]byte("[]"))
  }
  created, err := ls.lessonRepo.Create(ctx, nil, []*types.Lesson{lesson})
  if err != nil {
    return nil, fmt.Errorf("Failed to create lesson: %w", err)
  }
  return created[0], nil
}

func (ls *lessonService) GetLesson(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error) {
  lessons, err := ls.lessonRepo.GetByIDs(ctx, nil, []uuid.UUID{lessonID})
  if err != nil {
    return nil, fmt.Errorf("Failed to get lesson: %w", err)
  }
  if len(lessons) == 0 {
    return nil, fmt.Errorf("Lesson not found")
  }
  return lessons[0], nil
}

func (ls *lessonService) ListLessonsForCourse(ctx context.Context, courseID uuid.UUID) ([]*types.Lesson, error) {
  lessons, err := ls.lessonRepo.GetByCourseIDs(ctx, nil, []uuid.UUID{courseID})
  if err != nil {
    return nil, fmt.Errorf("Failed to list lessons: %w", err)
  }
  return lessons, nil
}

func (ls *lessonService) UpdateLesson(ctx context.Context, lessonID uuid.UUID, updates map[string]interface{}) error {
  allowed := map[string]bool{"title": true, "index": true}
  filtered := map[string]interface{}{}
  for k, v := range updates {
    if allowed[k] {
      filtered[k] = v
    }
  }
  if len(filtered) == 0 {
    return fmt.Errorf("No updatable fields provided")
  }
  if err := ls.lessonRepo.UpdateFields(ctx, nil, lessonID, filtered); err != nil {
    return fmt.Errorf("Failed to update lesson: %w", err)
  }
  return nil
}

// ReorderSections persists the new ordering and recombines synchronously,
// so the caller reads back a consistent artifact.
func (ls *lessonService) ReorderSections(ctx context.Context, lessonID uuid.UUID, order []uuid.UUID) error {
  lesson, err := ls.GetLesson(ctx, lessonID)
  if err != nil {
    return err
  }
  sections, sErr := ls.sectionRepo.GetByLessonIDs(ctx, nil, []uuid.UUID{lessonID})
  if sErr != nil {
    return fmt.Errorf("Failed to load sections for reorder: %w", sErr)
  }
  known := make(map[uuid.UUID]bool, len(sections))
  for _, s := range sections {
    known[s.ID] = true
  }
  for _, id := range order {
    if !known[id] {
      return fmt.Errorf("Section %s does not belong to lesson %s", id, lessonID)
    }
  }
  orderJSON, mErr := json.Marshal(order)
  if mErr != nil {
    return fmt.Errorf("Failed to encode section order: %w", mErr)
  }
  if uErr := ls.lessonRepo.UpdateFields(ctx, nil, lesson.ID, map[string]interface{}{
    "section_order": datatypes.JSON(orderJSON),
  }); uErr != nil {
    return fmt.Errorf("Failed to persist section order: %w", uErr)
  }
  if rErr := ls.recombiner.RecombineLesson(ctx, lesson.ID, "reorder"); rErr != nil {
    return fmt.Errorf("Failed to recombine lesson after reorder: %w", rErr)
  }
  return nil
}

// Recombine rebuilds the combined artifact on demand, e.g. after a manual
// registry overlay change or to recover from an accepted CAS loss.
func (ls *lessonService) Recombine(ctx context.Context, lessonID uuid.UUID) error {
  lesson, err := ls.GetLesson(ctx, lessonID)
  if err != nil {
    return err
  }
  if rErr := ls.recombiner.RecombineLesson(ctx, lesson.ID, "manual"); rErr != nil {
    return fmt.Errorf("Failed to recombine lesson: %w", rErr)
  }
  return nil
}

func (ls *lessonService) GetArtifact(ctx context.Context, lessonID uuid.UUID) (*LessonArtifact, error) {
  lesson, err := ls.GetLesson(ctx, lessonID)
  if err != nil {
    return nil, err
  }
  manifest := json.RawMessage(lesson.CombinedManifest)
  if len(manifest) == 0 {
    manifest = json.RawMessage("{}")
  }
  return &LessonArtifact{
    LessonID:        lesson.ID,
    ComponentName:   deriveArtifactComponentName(lesson),
    Code:            lesson.CombinedCode,
    Original:        lesson.CombinedOriginal,
    Manifest:        manifest,
    ArtifactVersion: lesson.ArtifactVersion,
    AutoGenerated:   lesson.AutoGenerated,
  }, nil
}

func deriveArtifactComponentName(lesson *types.Lesson) string {
  var manifest struct {
    ComponentName string `json:"component_name"`
  }
  if len(lesson.CombinedManifest) > 0 {
    if err := json.Unmarshal(lesson.CombinedManifest, &manifest); err == nil && manifest.ComponentName != "" {
      return manifest.ComponentName
    }
  }
  return "Lesson"
}
