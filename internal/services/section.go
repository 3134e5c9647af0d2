package services

import (
  "context"
  "fmt"
  "gorm.io/gorm"
  "github.com/google/uuid"
  "github.com/yungbote/studioforge-backend/internal/logger"
  "github.com/yungbote/studioforge-backend/internal/repos"
  "github.com/yungbote/studioforge-backend/internal/sse"
  "github.com/yungbote/studioforge-backend/internal/ssedata"
  "github.com/yungbote/studioforge-backend/internal/types"
)

// TriggerNotifier is the write-event entry point of the transform
// pipeline. Implemented by SectionTransformService. Returns the enqueued
// run, or nil when the write was suppressed by a guard.
type TriggerNotifier interface {
  NotifySectionWrite(ctx context.Context, section *types.Section, prevRaw string) (*types.SectionTransformRun, error)
}

type SectionService interface {
  CreateSection(ctx context.Context, section *types.Section) (*types.Section, error)
  GetSection(ctx context.Context, sectionID uuid.UUID) (*types.Section, error)
  ListSectionsForLesson(ctx context.Context, lessonID uuid.UUID) ([]*types.Section, error)
  UpdateSection(ctx context.Context, sectionID uuid.UUID, updates map[string]interface{}) error
  UpdateRawSource(ctx context.Context, sectionID uuid.UUID, newRaw string) (*types.SectionTransformRun, error)
  ListRuns(ctx context.Context, sectionID uuid.UUID, limit int) ([]*types.SectionTransformRun, error)
}

type sectionService struct {
  db          *gorm.DB
  log         *logger.Logger
  sectionRepo repos.SectionRepo
  runRepo     repos.SectionTransformRunRepo
  notifier    TriggerNotifier
}

func NewSectionService(
  db *gorm.DB,
  baseLog *logger.Logger,
  sectionRepo repos.SectionRepo,
  runRepo repos.SectionTransformRunRepo,
  notifier TriggerNotifier,
) SectionService {
  serviceLog := baseLog.With("service", "SectionService")
  return &sectionService{
    db:          db,
    log:         serviceLog,
    sectionRepo: sectionRepo,
    runRepo:     runRepo,
    notifier:    notifier,
  }
}

func (ss *sectionService) CreateSection(ctx context.Context, section *types.Section) (*types.Section, error) {
  if section.LessonID == uuid.Nil {
    return nil, fmt.Errorf("Section lesson_id is required")
  }
  if section.Title == "" {
    return nil, fmt.Errorf("Section title is required")
  }
  section.ID = uuid.New()
  created, err := ss.sectionRepo.Create(ctx, nil, []*types.Section{section})
  if err != nil {
    return nil, fmt.Errorf("Failed to create section: %w", err)
  }
  sec := created[0]
  if sec.RawSource != "" {
    if _, nErr := ss.notifier.NotifySectionWrite(ctx, sec, ""); nErr != nil {
      ss.log.Warn("Failed to enqueue transform for new section", "section_id", sec.ID, "error", nErr)
    }
  }
  return sec, nil
}

func (ss *sectionService) GetSection(ctx context.Context, sectionID uuid.UUID) (*types.Section, error) {
  sections, err := ss.sectionRepo.GetByIDs(ctx, nil, []uuid.UUID{sectionID})
  if err != nil {
    return nil, fmt.Errorf("Failed to get section: %w", err)
  }
  if len(sections) == 0 {
    return nil, fmt.Errorf("Section not found")
  }
  return sections[0], nil
}

func (ss *sectionService) ListSectionsForLesson(ctx context.Context, lessonID uuid.UUID) ([]*types.Section, error) {
  sections, err := ss.sectionRepo.GetByLessonIDs(ctx, nil, []uuid.UUID{lessonID})
  if err != nil {
    return nil, fmt.Errorf("Failed to list sections: %w", err)
  }
  return sections, nil
}

func (ss *sectionService) UpdateSection(ctx context.Context, sectionID uuid.UUID, updates map[string]interface{}) error {
  allowed := map[string]bool{"title": true, "position": true}
  filtered := map[string]interface{}{}
  for k, v := range updates {
    if allowed[k] {
      filtered[k] = v
    }
  }
  if len(filtered) == 0 {
    return fmt.Errorf("No updatable fields provided")
  }
  if err := ss.sectionRepo.UpdateFields(ctx, nil, sectionID, filtered); err != nil {
    return fmt.Errorf("Failed to update section: %w", err)
  }
  return nil
}

// UpdateRawSource is the authoring write event. The raw column is updated
// first; whether a transform run gets enqueued is the notifier's call
// (identical raw and empty raw are both suppressed there).
func (ss *sectionService) UpdateRawSource(ctx context.Context, sectionID uuid.UUID, newRaw string) (*types.SectionTransformRun, error) {
  section, err := ss.GetSection(ctx, sectionID)
  if err != nil {
    return nil, err
  }
  prevRaw := section.RawSource
  if newRaw != prevRaw {
    if uErr := ss.sectionRepo.UpdateFields(ctx, nil, section.ID, map[string]interface{}{
      "raw_source": newRaw,
    }); uErr != nil {
      return nil, fmt.Errorf("Failed to update raw source: %w", uErr)
    }
    section.RawSource = newRaw
  }
  run, nErr := ss.notifier.NotifySectionWrite(ctx, section, prevRaw)
  if nErr != nil {
    return nil, nErr
  }
  if run != nil {
    if sd := ssedata.GetSSEData(ctx); sd != nil {
      sd.AppendMessage(sse.SSEMessage{
        Channel: "lesson:" + section.LessonID.String(),
        Event:   sse.SSEEventSectionTransformQueued,
        Data: map[string]interface{}{
          "run_id":     run.ID,
          "section_id": section.ID,
          "lesson_id":  section.LessonID,
        },
      })
    }
  }
  return run, nil
}

func (ss *sectionService) ListRuns(ctx context.Context, sectionID uuid.UUID, limit int) ([]*types.SectionTransformRun, error) {
  if limit <= 0 || limit > 100 {
    limit = 20
  }
  runs, err := ss.runRepo.GetBySectionID(ctx, nil, sectionID, limit)
  if err != nil {
    return nil, fmt.Errorf("Failed to list transform runs: %w", err)
  }
  return runs, nil
}
