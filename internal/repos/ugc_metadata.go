package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/types"
)

type UGCMetadataRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.UGCVideoMetadata) ([]*types.UGCVideoMetadata, error)
  GetByVideoIDs(ctx context.Context, tx *gorm.DB, videoIDs []uuid.UUID) ([]*types.UGCVideoMetadata, error)
}

type ugcMetadataRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUGCMetadataRepo(db *gorm.DB, baseLog *logger.Logger) UGCMetadataRepo {
  return &ugcMetadataRepo{db: db, log: baseLog.With("repo", "UGCMetadataRepo")}
}

func (r *ugcMetadataRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.UGCVideoMetadata) ([]*types.UGCVideoMetadata, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(rows) == 0 {
    return []*types.UGCVideoMetadata{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *ugcMetadataRepo) GetByVideoIDs(ctx context.Context, tx *gorm.DB, videoIDs []uuid.UUID) ([]*types.UGCVideoMetadata, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.UGCVideoMetadata
  if len(videoIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("video_id IN ?", videoIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
