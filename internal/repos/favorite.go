package repos

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/types"
)

type FavoriteRepo interface {
  // Add is idempotent: the (user_email, video_id) unique index makes a
  // duplicate insert a no-op rather than an error.
  Add(ctx context.Context, tx *gorm.DB, userEmail string, videoID uuid.UUID) error
  Remove(ctx context.Context, tx *gorm.DB, userEmail string, videoID uuid.UUID) error
  ListByUser(ctx context.Context, tx *gorm.DB, userEmail string) ([]*types.Favorite, error)
  Exists(ctx context.Context, tx *gorm.DB, userEmail string, videoID uuid.UUID) (bool, error)
}

type favoriteRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewFavoriteRepo(db *gorm.DB, baseLog *logger.Logger) FavoriteRepo {
  return &favoriteRepo{db: db, log: baseLog.With("repo", "FavoriteRepo")}
}

func (r *favoriteRepo) Add(ctx context.Context, tx *gorm.DB, userEmail string, videoID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if userEmail == "" || videoID == uuid.Nil {
    return nil
  }
  fav := &types.Favorite{
    ID:        uuid.New(),
    UserEmail: userEmail,
    VideoID:   videoID,
    CreatedAt: time.Now(),
  }
  // ON CONFLICT DO NOTHING keeps a duplicate Add from poisoning an
  // enclosing transaction the way a raised unique violation would.
  return transaction.WithContext(ctx).
    Clauses(clause.OnConflict{DoNothing: true}).
    Create(fav).Error
}

func (r *favoriteRepo) Remove(ctx context.Context, tx *gorm.DB, userEmail string, videoID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  return transaction.WithContext(ctx).
    Where("user_email = ? AND video_id = ?", userEmail, videoID).
    Delete(&types.Favorite{}).Error
}

func (r *favoriteRepo) ListByUser(ctx context.Context, tx *gorm.DB, userEmail string) ([]*types.Favorite, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Favorite
  if userEmail == "" {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("user_email = ?", userEmail).
    Order("created_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *favoriteRepo) Exists(ctx context.Context, tx *gorm.DB, userEmail string, videoID uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.Favorite{}).
    Where("user_email = ? AND video_id = ?", userEmail, videoID).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}
