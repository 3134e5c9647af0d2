package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/studioforge-backend/internal/logger"
  "github.com/yungbote/studioforge-backend/internal/types"
)

type LessonRepo interface {
  Create(ctx context.Context, tx *gorm.DB, lessons []*types.Lesson) ([]*types.Lesson, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Lesson, error)
  GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Lesson, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error

  // UpdateArtifactCAS persists a recombined artifact only if the lesson's
  // artifact_version still equals expectedVersion. Returns false when a
  // concurrent recombination won the write.
  UpdateArtifactCAS(ctx context.Context, tx *gorm.DB, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (bool, error)
}

type lessonRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
  repoLog := baseLog.With("repo", "LessonRepo")
  return &lessonRepo{db: db, log: repoLog}
}

func (lr *lessonRepo) Create(ctx context.Context, tx *gorm.DB, lessons []*types.Lesson) ([]*types.Lesson, error) {
  transaction := tx
  if transaction == nil {
    transaction = lr.db
  }
  if len(lessons) == 0 {
    return []*types.Lesson{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&lessons).Error; err != nil {
    return nil, err
  }
  return lessons, nil
}

func (lr *lessonRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Lesson, error) {
  transaction := tx
  if transaction == nil {
    transaction = lr.db
  }
  var results []*types.Lesson
  if len(ids) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("id IN ?", ids).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (lr *lessonRepo) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Lesson, error) {
  transaction := tx
  if transaction == nil {
    transaction = lr.db
  }
  var results []*types.Lesson
  if len(courseIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("course_id IN ?", courseIDs).
    Order("course_id, index ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (lr *lessonRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
  transaction := tx
  if transaction == nil {
    transaction = lr.db
  }
  if id == uuid.Nil {
    return nil
  }
  if updates == nil {
    updates = map[string]interface{}{}
  }
  if _, ok := updates["updated_at"]; !ok {
    updates["updated_at"] = time.Now()
  }
  return transaction.WithContext(ctx).
    Model(&types.Lesson{}).
    Where("id = ?", id).
    Updates(updates).Error
}

func (lr *lessonRepo) UpdateArtifactCAS(ctx context.Context, tx *gorm.DB, id uuid.UUID, expectedVersion int, updates map[string]interface{}) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = lr.db
  }
  if id == uuid.Nil {
    return false, nil
  }
  if updates == nil {
    updates = map[string]interface{}{}
  }
  if _, ok := updates["updated_at"]; !ok {
    updates["updated_at"] = time.Now()
  }
  updates["artifact_version"] = gorm.Expr("artifact_version + 1")
  res := transaction.WithContext(ctx).
    Model(&types.Lesson{}).
    Where("id = ? AND artifact_version = ?", id, expectedVersion).
    Updates(updates)
  if res.Error != nil {
    return false, res.Error
  }
  return res.RowsAffected > 0, nil
}
