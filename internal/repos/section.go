package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/yungbote/studioforge-backend/internal/logger"
  "github.com/yungbote/studioforge-backend/internal/types"
)

type SectionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, sections []*types.Section) ([]*types.Section, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Section, error)
  GetByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) ([]*types.Section, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type sectionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
  repoLog := baseLog.With("repo", "SectionRepo")
  return &sectionRepo{db: db, log: repoLog}
}

func (sr *sectionRepo) Create(ctx context.Context, tx *gorm.DB, sections []*types.Section) ([]*types.Section, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  if len(sections) == 0 {
    return []*types.Section{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&sections).Error; err != nil {
    return nil, err
  }
  return sections, nil
}

func (sr *sectionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Section, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  var results []*types.Section
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

func (sr *sectionRepo) GetByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) ([]*types.Section, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  var results []*types.Section
  if len(lessonIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("lesson_id IN ?", lessonIDs).
    Order("lesson_id, position ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (sr *sectionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
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
    Model(&types.Section{}).
    Where("id = ?", id).
    Updates(updates).Error
}
