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

type SocialConnectionRepo interface {
  Upsert(ctx context.Context, tx *gorm.DB, conn *types.SocialConnection) error
  GetByUserAndPlatform(ctx context.Context, tx *gorm.DB, userEmail, platform string) (*types.SocialConnection, error)
}

type socialConnectionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSocialConnectionRepo(db *gorm.DB, baseLog *logger.Logger) SocialConnectionRepo {
  return &socialConnectionRepo{db: db, log: baseLog.With("repo", "SocialConnectionRepo")}
}

func (r *socialConnectionRepo) Upsert(ctx context.Context, tx *gorm.DB, conn *types.SocialConnection) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if conn == nil {
    return nil
  }
  if conn.ID == uuid.Nil {
    conn.ID = uuid.New()
  }
  now := time.Now()
  if conn.CreatedAt.IsZero() {
    conn.CreatedAt = now
  }
  conn.UpdatedAt = now
  return transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns: []clause.Column{{Name: "user_email"}, {Name: "platform"}},
      DoUpdates: clause.AssignmentColumns([]string{
        "access_token", "refresh_token", "expires_at", "updated_at",
      }),
    }).
    Create(conn).Error
}

func (r *socialConnectionRepo) GetByUserAndPlatform(ctx context.Context, tx *gorm.DB, userEmail, platform string) (*types.SocialConnection, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if userEmail == "" || platform == "" {
    return nil, nil
  }
  var conn types.SocialConnection
  err := transaction.WithContext(ctx).
    Where("user_email = ? AND platform = ?", userEmail, platform).
    Limit(1).
    Find(&conn).Error
  if err != nil {
    return nil, err
  }
  if conn.ID == uuid.Nil {
    return nil, nil
  }
  return &conn, nil
}
