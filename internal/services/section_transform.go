package services

import (
  "context"
  "crypto/sha256"
  "encoding/hex"
  "encoding/json"
  "fmt"
  "time"
  "gorm.io/gorm"
  "gorm.io/datatypes"
  "github.com/google/uuid"
  "github.com/yungbote/studioforge-backend/internal/importmap"
  "github.com/yungbote/studioforge-backend/internal/logger"
  "github.com/yungbote/studioforge-backend/internal/repos"
  "github.com/yungbote/studioforge-backend/internal/requestdata"
  "github.com/yungbote/studioforge-backend/internal/sse"
  "github.com/yungbote/studioforge-backend/internal/transform"
  "github.com/yungbote/studioforge-backend/internal/types"
)

const (
  RunStatusQueued    = "queued"
  RunStatusRunning   = "running"
  RunStatusSucceeded = "succeeded"
  RunStatusFailed    = "failed"

  StageParse     = "parse"
  StageClassify  = "classify"
  StageSanitize  = "sanitize"
  StageTranspile = "transpile"
  StagePersist   = "persist"
  StageRecombine = "recombine"
  StageDone      = "done"

  pipelineIdentity = "transform-pipeline"
)

// EventPublisher fans transform progress out to connected clients.
// Satisfied by SSEBusService.
type EventPublisher interface {
  PublishEvent(msg sse.SSEMessage)
}

// storedCombinedManifest is what lesson.combined_manifest holds: the
// aggregated dependency manifest plus the derived top-level component name.
type storedCombinedManifest struct {
  types.DependencyManifest
  ComponentName string `json:"component_name"`
}

type SectionTransformService interface {
  NotifySectionWrite(ctx context.Context, section *types.Section, prevRaw string) (*types.SectionTransformRun, error)
  RecombineLesson(ctx context.Context, lessonID uuid.UUID, actor string) error
  ProcessRun(ctx context.Context, run *types.SectionTransformRun) error
  StartWorker(ctx context.Context)
}

type sectionTransformService struct {
  db          *gorm.DB
  log         *logger.Logger
  sectionRepo repos.SectionRepo
  lessonRepo  repos.LessonRepo
  runRepo     repos.SectionTransformRunRepo
  registry    importmap.Registry
  publisher   EventPublisher

  pollInterval      time.Duration
  heartbeatInterval time.Duration
  staleRunning      time.Duration
}

func NewSectionTransformService(
  db *gorm.DB,
  baseLog *logger.Logger,
  sectionRepo repos.SectionRepo,
  lessonRepo repos.LessonRepo,
  runRepo repos.SectionTransformRunRepo,
  registry importmap.Registry,
  publisher EventPublisher,
  pollInterval time.Duration,
  heartbeatInterval time.Duration,
  staleRunning time.Duration,
) SectionTransformService {
  serviceLog := baseLog.With("service", "SectionTransformService")
  return &sectionTransformService{
    db:                db,
    log:               serviceLog,
    sectionRepo:       sectionRepo,
    lessonRepo:        lessonRepo,
    runRepo:           runRepo,
    registry:          registry,
    publisher:         publisher,
    pollInterval:      pollInterval,
    heartbeatInterval: heartbeatInterval,
    staleRunning:      staleRunning,
  }
}

// NotifySectionWrite applies the write-event guards and enqueues a
// transform run when the write genuinely changed something.
func (sts *sectionTransformService) NotifySectionWrite(ctx context.Context, section *types.Section, prevRaw string) (*types.SectionTransformRun, error) {
  if section.RawSource == prevRaw {
    // Identical raw means the write was redundant. Terminating here
    // with zero downstream writes is what keeps the pipeline loop-safe.
    return nil, nil
  }
  if section.RawSource == "" {
    return nil, nil
  }
  pending, pErr := sts.runRepo.HasPendingForSection(ctx, nil, section.ID)
  if pErr != nil {
    return nil, fmt.Errorf("Failed to check pending runs: %w", pErr)
  }
  if pending {
    // A queued/running run will pick up the latest raw when it executes.
    return nil, nil
  }
  run := &types.SectionTransformRun{
    ID:        uuid.New(),
    SectionID: section.ID,
    LessonID:  section.LessonID,
    Status:    RunStatusQueued,
    Stage:     StageParse,
    RawHash:   hashRaw(section.RawSource),
  }
  if rd := requestDataUserID(ctx); rd != uuid.Nil {
    run.UserID = rd
  }
  created, cErr := sts.runRepo.Create(ctx, nil, []*types.SectionTransformRun{run})
  if cErr != nil {
    return nil, fmt.Errorf("Failed to enqueue transform run: %w", cErr)
  }
  return created[0], nil
}

func hashRaw(raw string) string {
  sum := sha256.Sum256([]byte(raw))
  return hex.EncodeToString(sum[:])
}

// StartWorker polls for runnable transform runs until ctx is cancelled.
func (sts *sectionTransformService) StartWorker(ctx context.Context) {
  go func() {
    ticker := time.NewTicker(sts.pollInterval)
    defer ticker.Stop()
    sts.log.Info("Section transform worker started", "poll_interval", sts.pollInterval.String())
    for {
      select {
      case <-ctx.Done():
        sts.log.Info("Section transform worker stopped")
        return
      case <-ticker.C:
        sts.drainQueue(ctx)
      }
    }
  }()
}

func (sts *sectionTransformService) drainQueue(ctx context.Context) {
  for {
    run, err := sts.runRepo.ClaimNextRunnable(ctx, nil, sts.staleRunning)
    if err != nil {
      sts.log.Error("Failed to claim transform run", "error", err)
      return
    }
    if run == nil {
      return
    }
    if pErr := sts.ProcessRun(ctx, run); pErr != nil {
      sts.log.Error("Transform run failed", "run_id", run.ID, "section_id", run.SectionID, "error", pErr)
    }
  }
}

// ProcessRun executes one claimed run to completion. Failures are recorded
// on both the run and the section; they never propagate as retries.
func (sts *sectionTransformService) ProcessRun(ctx context.Context, run *types.SectionTransformRun) error {
  hbCtx, stopHeartbeat := context.WithCancel(ctx)
  defer stopHeartbeat()
  go sts.heartbeatLoop(hbCtx, run.ID)

  sts.publish(sse.SSEEventSectionTransformStarted, run, nil)

  fail := func(stage string, cause error) error {
    now := time.Now()
    msg := cause.Error()
    if uErr := sts.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
      "status":        RunStatusFailed,
      "stage":         stage,
      "error":         msg,
      "last_error_at": &now,
    }); uErr != nil {
      sts.log.Error("Failed to record run failure", "run_id", run.ID, "error", uErr)
    }
    if uErr := sts.sectionRepo.UpdateFields(ctx, nil, run.SectionID, map[string]interface{}{
      "transform_error":        msg,
      "last_transform_attempt": &now,
    }); uErr != nil {
      sts.log.Error("Failed to record section transform error", "section_id", run.SectionID, "error", uErr)
    }
    sts.publish(sse.SSEEventSectionTransformFailed, run, map[string]interface{}{"stage": stage, "error": msg})
    return cause
  }
  progress := func(stage string) {
    if uErr := sts.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{"stage": stage}); uErr != nil {
      sts.log.Warn("Failed to update run stage", "run_id", run.ID, "stage", stage, "error", uErr)
    }
  }

  sections, sErr := sts.sectionRepo.GetByIDs(ctx, nil, []uuid.UUID{run.SectionID})
  if sErr != nil {
    return fail(StageParse, fmt.Errorf("Failed to load section: %w", sErr))
  }
  if len(sections) == 0 {
    return fail(StageParse, fmt.Errorf("Section %s no longer exists", run.SectionID))
  }
  section := sections[0]

  // The run always transforms the section's current raw, not the raw it
  // was enqueued for. A later edit simply wins.
  raw := section.RawSource
  if raw == "" {
    return fail(StageParse, fmt.Errorf("Section raw source is empty"))
  }

  decls := transform.ParseImports(raw)

  progress(StageClassify)
  manifest := transform.Classify(decls, sts.registry)

  progress(StageSanitize)
  sanitized := transform.Sanitize(raw)

  progress(StageTranspile)
  rawFallback := false
  code, tErr := transform.Transpile(sanitized)
  if tErr != nil {
    // Sanitized-but-untranspiled text is still a usable artifact for the
    // frontend's raw mode.
    sts.log.Warn("Transpile failed, falling back to sanitized source", "section_id", section.ID, "error", tErr)
    code = sanitized
    rawFallback = true
  }
  if !rawFallback {
    if missing := transform.CheckConsistency(code, manifest); len(missing) > 0 {
      manifest.UnresolvedSymbols = appendUnique(manifest.UnresolvedSymbols, missing)
      sts.log.Warn("Transformed code references symbols outside the manifest", "section_id", section.ID, "symbols", missing)
    }
  }

  progress(StagePersist)
  manifestJSON, mErr := json.Marshal(manifest)
  if mErr != nil {
    return fail(StagePersist, fmt.Errorf("Failed to encode manifest: %w", mErr))
  }
  now := time.Now()
  if uErr := sts.sectionRepo.UpdateFields(ctx, nil, section.ID, map[string]interface{}{
    "code":                   code,
    "manifest":               datatypes.JSON(manifestJSON),
    "raw_fallback":           rawFallback,
    "auto_transformed":       true,
    "transform_error":        "",
    "last_transform_attempt": &now,
  }); uErr != nil {
    return fail(StagePersist, fmt.Errorf("Failed to persist transformed section: %w", uErr))
  }

  progress(StageRecombine)
  if rErr := sts.RecombineLesson(ctx, run.LessonID, pipelineIdentity); rErr != nil {
    return fail(StageRecombine, fmt.Errorf("Failed to recombine lesson: %w", rErr))
  }

  if uErr := sts.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
    "status": RunStatusSucceeded,
    "stage":  StageDone,
  }); uErr != nil {
    sts.log.Error("Failed to mark run succeeded", "run_id", run.ID, "error", uErr)
  }
  sts.publish(sse.SSEEventSectionTransformSucceeded, run, map[string]interface{}{"raw_fallback": rawFallback})
  return nil
}

// RecombineLesson rebuilds the lesson's combined artifact from current
// section state. The artifact write is guarded by a version check; on a
// conflict the whole recombination is retried once against fresh state,
// after which last-writer-wins is accepted (the loser's artifact is
// re-derivable on the next edit).
func (sts *sectionTransformService) RecombineLesson(ctx context.Context, lessonID uuid.UUID, actor string) error {
  for attempt := 0; attempt < 2; attempt++ {
    ok, err := sts.recombineOnce(ctx, lessonID, actor)
    if err != nil {
      return err
    }
    if ok {
      return nil
    }
  }
  sts.log.Warn("Recombination lost the artifact version race twice, leaving newer artifact in place", "lesson_id", lessonID)
  return nil
}

func (sts *sectionTransformService) recombineOnce(ctx context.Context, lessonID uuid.UUID, actor string) (bool, error) {
  lessons, lErr := sts.lessonRepo.GetByIDs(ctx, nil, []uuid.UUID{lessonID})
  if lErr != nil {
    return false, fmt.Errorf("Failed to load lesson: %w", lErr)
  }
  if len(lessons) == 0 {
    return false, fmt.Errorf("Lesson %s not found", lessonID)
  }
  lesson := lessons[0]

  sections, sErr := sts.sectionRepo.GetByLessonIDs(ctx, nil, []uuid.UUID{lessonID})
  if sErr != nil {
    return false, fmt.Errorf("Failed to load lesson sections: %w", sErr)
  }

  order := decodeSectionOrder(lesson.SectionOrder)
  if len(order) == 0 {
    for _, s := range sections {
      order = append(order, s.ID)
    }
  }

  combineInput := make([]transform.CombineSection, 0, len(sections))
  for _, s := range sections {
    code := s.Code
    if code == "" {
      code = transform.Sanitize(s.RawSource)
    }
    combineInput = append(combineInput, transform.CombineSection{
      ID:      s.ID,
      Title:   s.Title,
      Code:    code,
      Imports: transform.ParseImports(s.RawSource),
    })
  }

  artifact := transform.Combine(combineInput, order, lesson.Title, sts.registry)

  stored := storedCombinedManifest{DependencyManifest: artifact.Manifest, ComponentName: artifact.ComponentName}
  manifestJSON, mErr := json.Marshal(stored)
  if mErr != nil {
    return false, fmt.Errorf("Failed to encode combined manifest: %w", mErr)
  }

  now := time.Now()
  ok, cErr := sts.lessonRepo.UpdateArtifactCAS(ctx, nil, lesson.ID, lesson.ArtifactVersion, map[string]interface{}{
    "combined_code":     artifact.Code,
    "combined_original": artifact.Original,
    "combined_manifest": datatypes.JSON(manifestJSON),
    "auto_generated":    true,
    "last_generated_at": &now,
    "modified_by":       actor,
  })
  if cErr != nil {
    return false, fmt.Errorf("Failed to persist combined artifact: %w", cErr)
  }
  if ok {
    sts.publisher.PublishEvent(sse.SSEMessage{
      Channel: "lesson:" + lesson.ID.String(),
      Event:   sse.SSEEventLessonRecombined,
      Data: map[string]interface{}{
        "lesson_id":        lesson.ID,
        "component_name":   artifact.ComponentName,
        "artifact_version": lesson.ArtifactVersion + 1,
      },
    })
  }
  return ok, nil
}

func (sts *sectionTransformService) heartbeatLoop(ctx context.Context, runID uuid.UUID) {
  ticker := time.NewTicker(sts.heartbeatInterval)
  defer ticker.Stop()
  for {
    select {
    case <-ctx.Done():
      return
    case <-ticker.C:
      if err := sts.runRepo.Heartbeat(ctx, nil, runID); err != nil {
        sts.log.Warn("Failed to heartbeat run", "run_id", runID, "error", err)
      }
    }
  }
}

func (sts *sectionTransformService) publish(event sse.SSEEvent, run *types.SectionTransformRun, extra map[string]interface{}) {
  data := map[string]interface{}{
    "run_id":     run.ID,
    "section_id": run.SectionID,
    "lesson_id":  run.LessonID,
  }
  for k, v := range extra {
    data[k] = v
  }
  sts.publisher.PublishEvent(sse.SSEMessage{
    Channel: "lesson:" + run.LessonID.String(),
    Event:   event,
    Data:    data,
  })
}

func decodeSectionOrder(raw datatypes.JSON) []uuid.UUID {
  if len(raw) == 0 {
    return nil
  }
  var order []uuid.UUID
  if err := json.Unmarshal(raw, &order); err != nil {
    return nil
  }
  return order
}

func requestDataUserID(ctx context.Context) uuid.UUID {
  if rd := requestdata.GetRequestData(ctx); rd != nil {
    return rd.UserID
  }
  return uuid.Nil
}

func appendUnique(dst []string, add []string) []string {
  seen := make(map[string]bool, len(dst))
  for _, s := range dst {
    seen[s] = true
  }
  for _, s := range add {
    if !seen[s] {
      seen[s] = true
      dst = append(dst, s)
    }
  }
  return dst
}
