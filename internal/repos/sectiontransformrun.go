package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"

  "github.com/yungbote/studioforge-backend/internal/logger"
  "github.com/yungbote/studioforge-backend/internal/types"
)

type SectionTransformRunRepo interface {
  Create(ctx context.Context, tx *gorm.DB, runs []*types.SectionTransformRun) ([]*types.SectionTransformRun, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.SectionTransformRun, error)
  GetBySectionID(ctx context.Context, tx *gorm.DB, sectionID uuid.UUID, limit int) ([]*types.SectionTransformRun, error)

  // HasPendingForSection reports whether a queued or running run already
  // exists for the section, so redundant writes don't pile up runs.
  HasPendingForSection(ctx context.Context, tx *gorm.DB, sectionID uuid.UUID) (bool, error)

  // ClaimNextRunnable claims the next queued run, or a running run whose
  // heartbeat went stale (crash recovery). Failed runs are never reclaimed:
  // an author must re-save the section to retry.
  ClaimNextRunnable(ctx context.Context, tx *gorm.DB, staleRunning time.Duration) (*types.SectionTransformRun, error)

  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
  Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type sectionTransformRunRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSectionTransformRunRepo(db *gorm.DB, baseLog *logger.Logger) SectionTransformRunRepo {
  repoLog := baseLog.With("repo", "SectionTransformRunRepo")
  return &sectionTransformRunRepo{db: db, log: repoLog}
}

func (r *sectionTransformRunRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.SectionTransformRun) ([]*types.SectionTransformRun, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(runs) == 0 {
    return []*types.SectionTransformRun{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&runs).Error; err != nil {
    return nil, err
  }
  return runs, nil
}

func (r *sectionTransformRunRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.SectionTransformRun, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.SectionTransformRun
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

func (r *sectionTransformRunRepo) GetBySectionID(ctx context.Context, tx *gorm.DB, sectionID uuid.UUID, limit int) ([]*types.SectionTransformRun, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.SectionTransformRun
  if sectionID == uuid.Nil {
    return results, nil
  }
  q := transaction.WithContext(ctx).
    Where("section_id = ?", sectionID).
    Order("created_at DESC")
  if limit > 0 {
    q = q.Limit(limit)
  }
  if err := q.Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *sectionTransformRunRepo) HasPendingForSection(ctx context.Context, tx *gorm.DB, sectionID uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if sectionID == uuid.Nil {
    return false, nil
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.SectionTransformRun{}).
    Where("section_id = ? AND status IN ?", sectionID, []string{"queued", "running"}).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}

func (r *sectionTransformRunRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, staleRunning time.Duration) (*types.SectionTransformRun, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  now := time.Now()
  staleCutoff := now.Add(-staleRunning)

  var claimed *types.SectionTransformRun

  err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
    var run types.SectionTransformRun

    q := txx.
      Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
      Where(`
        (
          status = ?
          OR (
            status = ?
            AND heartbeat_at IS NOT NULL
            AND heartbeat_at < ?
          )
        )
      `, "queued", "running", staleCutoff).
      Order("created_at ASC")

    qErr := q.First(&run).Error
    if errors.Is(qErr, gorm.ErrRecordNotFound) {
      return nil
    }
    if qErr != nil {
      return qErr
    }

    uErr := txx.Model(&types.SectionTransformRun{}).
      Where("id = ?", run.ID).
      Updates(map[string]interface{}{
        "status":       "running",
        "attempts":     gorm.Expr("attempts + 1"),
        "locked_at":    now,
        "heartbeat_at": now,
        "updated_at":   now,
      }).Error
    if uErr != nil {
      return uErr
    }

    claimed = &run
    return nil
  })

  if err != nil {
    return nil, err
  }
  return claimed, nil
}

func (r *sectionTransformRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
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
    Model(&types.SectionTransformRun{}).
    Where("id = ?", id).
    Updates(updates).Error
}

func (r *sectionTransformRunRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == uuid.Nil {
    return nil
  }
  now := time.Now()
  return transaction.WithContext(ctx).
    Model(&types.SectionTransformRun{}).
    Where("id = ? AND status = ?", id, "running").
    Updates(map[string]interface{}{
      "heartbeat_at": now,
      "updated_at":   now,
    }).Error
}
