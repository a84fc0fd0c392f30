package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/types"
)

type GenerationRunRepo interface {
  Create(ctx context.Context, tx *gorm.DB, runs []*types.VideoGenerationRun) ([]*types.VideoGenerationRun, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.VideoGenerationRun, error)
  ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.VideoGenerationRun, error)

  // ClaimNextRunnable claims the next run that is:
  // - queued
  // - or failed with attempts < maxAttempts and last_error_at older than retryDelay
  // - or running with a stale heartbeat (crash recovery)
  ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.VideoGenerationRun, error)

  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
  Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type generationRunRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewGenerationRunRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRunRepo {
  return &generationRunRepo{db: db, log: baseLog.With("repo", "GenerationRunRepo")}
}

func (r *generationRunRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.VideoGenerationRun) ([]*types.VideoGenerationRun, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(runs) == 0 {
    return []*types.VideoGenerationRun{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&runs).Error; err != nil {
    return nil, err
  }
  return runs, nil
}

func (r *generationRunRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.VideoGenerationRun, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.VideoGenerationRun
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

func (r *generationRunRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.VideoGenerationRun, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.VideoGenerationRun
  if userID == uuid.Nil {
    return results, nil
  }
  q := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("created_at DESC")
  if limit > 0 {
    q = q.Limit(limit)
  }
  if err := q.Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *generationRunRepo) ClaimNextRunnable(
  ctx context.Context,
  tx *gorm.DB,
  maxAttempts int,
  retryDelay time.Duration,
  staleRunning time.Duration,
) (*types.VideoGenerationRun, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  now := time.Now()
  retryCutoff := now.Add(-retryDelay)
  staleCutoff := now.Add(-staleRunning)

  var claimed *types.VideoGenerationRun

  err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
    var run types.VideoGenerationRun

    q := txx.
      Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
      Where(`
        (
          status = ?
          OR (
            status = ?
            AND attempts < ?
            AND (last_error_at IS NULL OR last_error_at < ?)
          )
          OR (
            status = ?
            AND heartbeat_at IS NOT NULL
            AND heartbeat_at < ?
          )
        )
      `, types.RunStatusQueued, types.RunStatusFailed, maxAttempts, retryCutoff, types.RunStatusRunning, staleCutoff).
      Order("created_at ASC")

    qErr := q.First(&run).Error
    if errors.Is(qErr, gorm.ErrRecordNotFound) {
      return nil
    }
    if qErr != nil {
      return qErr
    }

    uErr := txx.Model(&types.VideoGenerationRun{}).
      Where("id = ?", run.ID).
      Updates(map[string]interface{}{
        "status":       types.RunStatusRunning,
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

func (r *generationRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
    Model(&types.VideoGenerationRun{}).
    Where("id = ?", id).
    Updates(updates).Error
}

func (r *generationRunRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == uuid.Nil {
    return nil
  }
  now := time.Now()
  return transaction.WithContext(ctx).
    Model(&types.VideoGenerationRun{}).
    Where("id = ? AND status = ?", id, types.RunStatusRunning).
    Updates(map[string]interface{}{
      "heartbeat_at": now,
      "updated_at":   now,
    }).Error
}
