package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/types"
)

// ErrInsufficientCoins is returned by DebitCoins when the conditional
// decrement matches no row.
var ErrInsufficientCoins = errors.New("insufficient coins")

type UserRepo interface {
  Create(ctx context.Context, tx *gorm.DB, users []*types.UserAccount) ([]*types.UserAccount, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.UserAccount, error)
  GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.UserAccount, error)
  GetByStripeCustomerID(ctx context.Context, tx *gorm.DB, customerID string) (*types.UserAccount, error)
  EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error

  // DebitCoins performs an atomic conditional decrement:
  //   UPDATE user_account SET coins = coins - cost WHERE id = ? AND coins >= cost
  // and returns ErrInsufficientCoins when no row qualifies.
  DebitCoins(ctx context.Context, tx *gorm.DB, id uuid.UUID, cost int64) error
}

type userRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
  return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.UserAccount) ([]*types.UserAccount, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(users) == 0 {
    return []*types.UserAccount{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
    return nil, err
  }
  return users, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.UserAccount, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.UserAccount
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

func (r *userRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.UserAccount, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.UserAccount
  if len(emails) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("email IN ?", emails).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *userRepo) GetByStripeCustomerID(ctx context.Context, tx *gorm.DB, customerID string) (*types.UserAccount, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if customerID == "" {
    return nil, nil
  }
  var user types.UserAccount
  err := transaction.WithContext(ctx).
    Where("stripe_customer_id = ?", customerID).
    Limit(1).
    Find(&user).Error
  if err != nil {
    return nil, err
  }
  if user.ID == uuid.Nil {
    return nil, nil
  }
  return &user, nil
}

func (r *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.UserAccount{}).
    Where("email = ?", email).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}

func (r *userRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
    Model(&types.UserAccount{}).
    Where("id = ?", id).
    Updates(updates).Error
}

func (r *userRepo) DebitCoins(ctx context.Context, tx *gorm.DB, id uuid.UUID, cost int64) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if id == uuid.Nil || cost <= 0 {
    return nil
  }
  res := transaction.WithContext(ctx).
    Model(&types.UserAccount{}).
    Where("id = ? AND coins >= ?", id, cost).
    Updates(map[string]interface{}{
      "coins":              gorm.Expr("coins - ?", cost),
      "videos_this_period": gorm.Expr("videos_this_period + 1"),
      "updated_at":         time.Now(),
    })
  if res.Error != nil {
    return res.Error
  }
  if res.RowsAffected == 0 {
    return ErrInsufficientCoins
  }
  return nil
}
