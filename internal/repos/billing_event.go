package repos

import (
  "context"
  "time"

  "gorm.io/gorm"
  "gorm.io/gorm/clause"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/types"
)

type BillingEventRepo interface {
  // MarkProcessed records the event id and reports whether it had been seen
  // before. Duplicate deliveries return (true, nil).
  MarkProcessed(ctx context.Context, tx *gorm.DB, eventID, eventType string) (duplicate bool, err error)
}

type billingEventRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewBillingEventRepo(db *gorm.DB, baseLog *logger.Logger) BillingEventRepo {
  return &billingEventRepo{db: db, log: baseLog.With("repo", "BillingEventRepo")}
}

func (r *billingEventRepo) MarkProcessed(ctx context.Context, tx *gorm.DB, eventID, eventType string) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if eventID == "" {
    return false, nil
  }
  row := &types.BillingEventLog{
    EventID:   eventID,
    EventType: eventType,
    CreatedAt: time.Now(),
  }
  // Insert-or-skip; zero rows affected means the id was already recorded.
  res := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{DoNothing: true}).
    Create(row)
  if res.Error != nil {
    return false, res.Error
  }
  return res.RowsAffected == 0, nil
}
