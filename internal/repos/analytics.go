package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/types"
)

type AnalyticsRepo interface {
  Append(ctx context.Context, tx *gorm.DB, events []*types.VideoAnalyticsEvent) ([]*types.VideoAnalyticsEvent, error)
  ListByVideoID(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) ([]*types.VideoAnalyticsEvent, error)
  CountByVideoAndAction(ctx context.Context, tx *gorm.DB, videoID uuid.UUID, action string) (int64, error)
}

type analyticsRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsRepo {
  return &analyticsRepo{db: db, log: baseLog.With("repo", "AnalyticsRepo")}
}

func (r *analyticsRepo) Append(ctx context.Context, tx *gorm.DB, events []*types.VideoAnalyticsEvent) ([]*types.VideoAnalyticsEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(events) == 0 {
    return []*types.VideoAnalyticsEvent{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
    return nil, err
  }
  return events, nil
}

func (r *analyticsRepo) ListByVideoID(ctx context.Context, tx *gorm.DB, videoID uuid.UUID) ([]*types.VideoAnalyticsEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.VideoAnalyticsEvent
  if videoID == uuid.Nil {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("video_id = ?", videoID).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *analyticsRepo) CountByVideoAndAction(ctx context.Context, tx *gorm.DB, videoID uuid.UUID, action string) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.VideoAnalyticsEvent{}).
    Where("video_id = ? AND action = ?", videoID, action).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}
