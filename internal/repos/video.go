package repos

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/types"
)

type VideoRepo interface {
  Create(ctx context.Context, tx *gorm.DB, videos []*types.VideoRecord) ([]*types.VideoRecord, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.VideoRecord, error)
  ListByOwner(ctx context.Context, tx *gorm.DB, ownerEmail string) ([]*types.VideoRecord, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
  IncrementCounter(ctx context.Context, tx *gorm.DB, id uuid.UUID, column string) error
  Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type videoRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewVideoRepo(db *gorm.DB, baseLog *logger.Logger) VideoRepo {
  return &videoRepo{db: db, log: baseLog.With("repo", "VideoRepo")}
}

func (r *videoRepo) Create(ctx context.Context, tx *gorm.DB, videos []*types.VideoRecord) ([]*types.VideoRecord, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(videos) == 0 {
    return []*types.VideoRecord{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&videos).Error; err != nil {
    return nil, err
  }
  return videos, nil
}

func (r *videoRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.VideoRecord, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.VideoRecord
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

func (r *videoRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerEmail string) ([]*types.VideoRecord, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.VideoRecord
  if ownerEmail == "" {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("created_by = ?", ownerEmail).
    Order("created_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *videoRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
    Model(&types.VideoRecord{}).
    Where("id = ?", id).
    Updates(updates).Error
}

func (r *videoRepo) IncrementCounter(ctx context.Context, tx *gorm.DB, id uuid.UUID, column string) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == uuid.Nil {
    return nil
  }
  switch column {
  case "views", "downloads", "shares":
  default:
    return gorm.ErrInvalidField
  }
  return transaction.WithContext(ctx).
    Model(&types.VideoRecord{}).
    Where("id = ?", id).
    Updates(map[string]interface{}{
      column:       gorm.Expr(column + " + 1"),
      "updated_at": time.Now(),
    }).Error
}

// Delete removes the record and its satellite rows. The FK constraints
// cascade anyway; deleting explicitly keeps the order deterministic.
func (r *videoRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == uuid.Nil {
    return nil
  }
  return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
    if err := txx.Where("video_id = ?", id).Delete(&types.UGCVideoMetadata{}).Error; err != nil {
      return err
    }
    if err := txx.Where("video_id = ?", id).Delete(&types.Favorite{}).Error; err != nil {
      return err
    }
    if err := txx.Where("video_id = ?", id).Delete(&types.VideoAnalyticsEvent{}).Error; err != nil {
      return err
    }
    return txx.Where("id = ?", id).Delete(&types.VideoRecord{}).Error
  })
}
