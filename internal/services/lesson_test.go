package services

import (
  "context"
  "testing"
  "gorm.io/datatypes"
  "github.com/google/uuid"
  "github.com/yungbote/studioforge-backend/internal/types"
)

type fakeRecombiner struct {
  lessonIDs []uuid.UUID
  actors    []string
}

func (f *fakeRecombiner) RecombineLesson(ctx context.Context, lessonID uuid.UUID, actor string) error {
  f.lessonIDs = append(f.lessonIDs, lessonID)
  f.actors = append(f.actors, actor)
  return nil
}

func TestLessonService_RecombineUsesManualActor(t *testing.T) {
  lesson := &types.Lesson{ID: uuid.New(), Title: "Cells"}
  lessonRepo := &fakeLessonRepo{lesson: lesson}
  rec := &fakeRecombiner{}
  svc := NewLessonService(nil, testLog(t), lessonRepo, &fakeSectionRepo{}, rec)

  if err := svc.Recombine(context.Background(), lesson.ID); err != nil {
    t.Fatalf("Recombine failed: %v", err)
  }
  if len(rec.actors) != 1 || rec.actors[0] != "manual" {
    t.Fatalf("expected one recombine with actor manual, got %v", rec.actors)
  }
  if rec.lessonIDs[0] != lesson.ID {
    t.Fatalf("recombined wrong lesson: %s", rec.lessonIDs[0])
  }
}

func TestLessonService_ReorderRejectsForeignSection(t *testing.T) {
  lesson := &types.Lesson{ID: uuid.New(), Title: "Cells"}
  own := &types.Section{ID: uuid.New(), LessonID: lesson.ID}
  lessonRepo := &fakeLessonRepo{lesson: lesson}
  sectionRepo := &fakeSectionRepo{sections: []*types.Section{own}}
  rec := &fakeRecombiner{}
  svc := NewLessonService(nil, testLog(t), lessonRepo, sectionRepo, rec)

  foreign := uuid.New()
  err := svc.ReorderSections(context.Background(), lesson.ID, []uuid.UUID{own.ID, foreign})
  if err == nil {
    t.Fatalf("expected reorder with foreign section id to fail")
  }
  if len(rec.actors) != 0 {
    t.Fatalf("rejected reorder must not recombine, got %v", rec.actors)
  }
}

func TestLessonService_ReorderPersistsAndRecombines(t *testing.T) {
  lesson := &types.Lesson{ID: uuid.New(), Title: "Cells"}
  a := &types.Section{ID: uuid.New(), LessonID: lesson.ID}
  b := &types.Section{ID: uuid.New(), LessonID: lesson.ID}
  lessonRepo := &fakeLessonRepo{lesson: lesson}
  sectionRepo := &fakeSectionRepo{sections: []*types.Section{a, b}}
  rec := &fakeRecombiner{}
  svc := NewLessonService(nil, testLog(t), lessonRepo, sectionRepo, rec)

  if err := svc.ReorderSections(context.Background(), lesson.ID, []uuid.UUID{b.ID, a.ID}); err != nil {
    t.Fatalf("ReorderSections failed: %v", err)
  }
  if len(rec.actors) != 1 || rec.actors[0] != "reorder" {
    t.Fatalf("expected one recombine with actor reorder, got %v", rec.actors)
  }
}

func TestLessonService_ArtifactComponentName(t *testing.T) {
  lesson := &types.Lesson{
    ID:               uuid.New(),
    Title:            "Cells",
    CombinedCode:     "const CellsLesson = () => h('div', null);",
    CombinedManifest: datatypes.JSON([]byte(`{"component_name":"CellsLesson"}`)),
    ArtifactVersion:  3,
  }
  lessonRepo := &fakeLessonRepo{lesson: lesson}
  svc := NewLessonService(nil, testLog(t), lessonRepo, &fakeSectionRepo{}, &fakeRecombiner{})

  art, err := svc.GetArtifact(context.Background(), lesson.ID)
  if err != nil {
    t.Fatalf("GetArtifact failed: %v", err)
  }
  if art.ComponentName != "CellsLesson" {
    t.Fatalf("component name = %q, want CellsLesson", art.ComponentName)
  }
  if art.ArtifactVersion != 3 {
    t.Fatalf("artifact version = %d, want 3", art.ArtifactVersion)
  }

  lesson.CombinedManifest = nil
  art, err = svc.GetArtifact(context.Background(), lesson.ID)
  if err != nil {
    t.Fatalf("GetArtifact without manifest failed: %v", err)
  }
  if art.ComponentName != "Lesson" {
    t.Fatalf("fallback component name = %q, want Lesson", art.ComponentName)
  }
  if string(art.Manifest) != "{}" {
    t.Fatalf("empty manifest should serve as {}, got %s", art.Manifest)
  }
}
