package services

import (
  "context"
  "testing"
  "time"
  "gorm.io/gorm"
  "gorm.io/datatypes"
  "github.com/google/uuid"
  "github.com/yungbote/studioforge-backend/internal/importmap"
  "github.com/yungbote/studioforge-backend/internal/logger"
  "github.com/yungbote/studioforge-backend/internal/sse"
  "github.com/yungbote/studioforge-backend/internal/types"
)

type fakeRunRepo struct {
  pending   bool
  created   []*types.SectionTransformRun
  calls     int
}

func (f *fakeRunRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.SectionTransformRun) ([]*types.SectionTransformRun, error) {
  f.calls++
  f.created = append(f.created, runs...)
  return runs, nil
}
func (f *fakeRunRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.SectionTransformRun, error) {
  f.calls++
  return nil, nil
}
func (f *fakeRunRepo) GetBySectionID(ctx context.Context, tx *gorm.DB, sectionID uuid.UUID, limit int) ([]*types.SectionTransformRun, error) {
  f.calls++
  return nil, nil
}
func (f *fakeRunRepo) HasPendingForSection(ctx context.Context, tx *gorm.DB, sectionID uuid.UUID) (bool, error) {
  f.calls++
  return f.pending, nil
}
func (f *fakeRunRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, staleRunning time.Duration) (*types.SectionTransformRun, error) {
  f.calls++
  return nil, nil
}
func (f *fakeRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
  f.calls++
  return nil
}
func (f *fakeRunRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  f.calls++
  return nil
}

type fakeSectionRepo struct {
  sections []*types.Section
  updates  []map[string]interface{}
}

func (f *fakeSectionRepo) Create(ctx context.Context, tx *gorm.DB, sections []*types.Section) ([]*types.Section, error) {
  return sections, nil
}
func (f *fakeSectionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Section, error) {
  return f.sections, nil
}
func (f *fakeSectionRepo) GetByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) ([]*types.Section, error) {
  return f.sections, nil
}
func (f *fakeSectionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
  f.updates = append(f.updates, updates)
  return nil
}

type fakeLessonRepo struct {
  lesson     *types.Lesson
  casResults []bool
  casCalls   int
}

func (f *fakeLessonRepo) Create(ctx context.Context, tx *gorm.DB, lessons []*types.Lesson) ([]*types.Lesson, error) {
  return lessons, nil
}
func (f *fakeLessonRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Lesson, error) {
  return []*types.Lesson{f.lesson}, nil
}
func (f *fakeLessonRepo) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Lesson, error) {
  return []*types.Lesson{f.lesson}, nil
}
func (f *fakeLessonRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
  return nil
}
func (f *fakeLessonRepo) UpdateArtifactCAS(ctx context.Context, tx *gorm.DB, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (bool, error) {
  ok := f.casResults[f.casCalls]
  f.casCalls++
  if ok {
    f.lesson.ArtifactVersion++
  }
  return ok, nil
}

type capturePublisher struct {
  msgs []sse.SSEMessage
}

func (p *capturePublisher) PublishEvent(msg sse.SSEMessage) {
  p.msgs = append(p.msgs, msg)
}

func testLog(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger init failed: %v", err)
  }
  return log
}

func newTestTransformService(runs *fakeRunRepo, sections *fakeSectionRepo, lessons *fakeLessonRepo, pub *capturePublisher, t *testing.T) SectionTransformService {
  return NewSectionTransformService(
    nil,
    testLog(t),
    sections,
    lessons,
    runs,
    importmap.NewStaticRegistry("test"),
    pub,
    time.Second,
    time.Second,
    time.Minute,
  )
}

// Feeding the controller a write where the raw did not change must produce
// zero downstream activity.
func TestNotifySectionWrite_NoOpSuppression(t *testing.T) {
  runs := &fakeRunRepo{}
  svc := newTestTransformService(runs, &fakeSectionRepo{}, &fakeLessonRepo{}, &capturePublisher{}, t)

  section := &types.Section{ID: uuid.New(), LessonID: uuid.New(), RawSource: "same"}
  run, err := svc.NotifySectionWrite(context.Background(), section, "same")
  if err != nil {
    t.Fatalf("NotifySectionWrite failed: %v", err)
  }
  if run != nil {
    t.Fatalf("identical raw should not enqueue a run")
  }
  if runs.calls != 0 {
    t.Fatalf("no-op write caused %d repo calls, want 0", runs.calls)
  }
}

func TestNotifySectionWrite_EmptySuppression(t *testing.T) {
  runs := &fakeRunRepo{}
  svc := newTestTransformService(runs, &fakeSectionRepo{}, &fakeLessonRepo{}, &capturePublisher{}, t)

  section := &types.Section{ID: uuid.New(), LessonID: uuid.New(), RawSource: ""}
  run, err := svc.NotifySectionWrite(context.Background(), section, "previous")
  if err != nil {
    t.Fatalf("NotifySectionWrite failed: %v", err)
  }
  if run != nil || runs.calls != 0 {
    t.Fatalf("empty raw should terminate before any downstream write")
  }
}

func TestNotifySectionWrite_DedupesPendingRuns(t *testing.T) {
  runs := &fakeRunRepo{pending: true}
  svc := newTestTransformService(runs, &fakeSectionRepo{}, &fakeLessonRepo{}, &capturePublisher{}, t)

  section := &types.Section{ID: uuid.New(), LessonID: uuid.New(), RawSource: "new"}
  run, err := svc.NotifySectionWrite(context.Background(), section, "old")
  if err != nil {
    t.Fatalf("NotifySectionWrite failed: %v", err)
  }
  if run != nil {
    t.Fatalf("pending run should suppress a second enqueue")
  }
  if len(runs.created) != 0 {
    t.Fatalf("run created despite pending run")
  }
}

func TestNotifySectionWrite_Enqueues(t *testing.T) {
  runs := &fakeRunRepo{}
  svc := newTestTransformService(runs, &fakeSectionRepo{}, &fakeLessonRepo{}, &capturePublisher{}, t)

  section := &types.Section{ID: uuid.New(), LessonID: uuid.New(), RawSource: "new source"}
  run, err := svc.NotifySectionWrite(context.Background(), section, "old")
  if err != nil {
    t.Fatalf("NotifySectionWrite failed: %v", err)
  }
  if run == nil {
    t.Fatalf("expected a run to be enqueued")
  }
  if run.Status != RunStatusQueued || run.Stage != StageParse {
    t.Fatalf("wrong initial run state: %s/%s", run.Status, run.Stage)
  }
  if run.SectionID != section.ID || run.LessonID != section.LessonID {
    t.Fatalf("run not bound to section: %+v", run)
  }
  if run.RawHash == "" {
    t.Fatalf("raw hash not recorded")
  }
}

func TestRecombineLesson_RetriesOnceOnVersionConflict(t *testing.T) {
  sectionID := uuid.New()
  lesson := &types.Lesson{
    ID:           uuid.New(),
    Title:        "Bio",
    SectionOrder: datatypes.JSON([]byte(`["` + sectionID.String() + `"]`)),
  }
  lessons := &fakeLessonRepo{lesson: lesson, casResults: []bool{false, true}}
  sections := &fakeSectionRepo{sections: []*types.Section{{
    ID:       sectionID,
    LessonID: lesson.ID,
    Title:    "Intro",
    Code:     `const IntroSection = (props) => h(Card, null, "x");`,
  }}}
  pub := &capturePublisher{}
  svc := newTestTransformService(&fakeRunRepo{}, sections, lessons, pub, t)

  if err := svc.RecombineLesson(context.Background(), lesson.ID, "test"); err != nil {
    t.Fatalf("RecombineLesson failed: %v", err)
  }
  if lessons.casCalls != 2 {
    t.Fatalf("expected one retry after version conflict, got %d attempts", lessons.casCalls)
  }
  if len(pub.msgs) != 1 || pub.msgs[0].Event != sse.SSEEventLessonRecombined {
    t.Fatalf("recombination event not published: %+v", pub.msgs)
  }
}

func TestRecombineLesson_AcceptsLossAfterRetry(t *testing.T) {
  sectionID := uuid.New()
  lesson := &types.Lesson{ID: uuid.New(), Title: "Bio"}
  lessons := &fakeLessonRepo{lesson: lesson, casResults: []bool{false, false}}
  sections := &fakeSectionRepo{sections: []*types.Section{{ID: sectionID, Title: "Intro"}}}
  pub := &capturePublisher{}
  svc := newTestTransformService(&fakeRunRepo{}, sections, lessons, pub, t)

  if err := svc.RecombineLesson(context.Background(), lesson.ID, "test"); err != nil {
    t.Fatalf("losing the race twice should not error: %v", err)
  }
  if len(pub.msgs) != 0 {
    t.Fatalf("no event should publish for a lost write: %+v", pub.msgs)
  }
}
