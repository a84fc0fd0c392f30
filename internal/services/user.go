package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/repos"
  "github.com/yungbote/reelforge-backend/internal/requestdata"
  "github.com/yungbote/reelforge-backend/internal/types"
)

type UserService interface {
  GetMe(ctx context.Context) (*types.UserAccount, error)
  UpdateUserFields(ctx context.Context, targetID uuid.UUID, updates map[string]interface{}) error
}

type userService struct {
  db       *gorm.DB
  log      *logger.Logger
  userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo) UserService {
  return &userService{
    db:       db,
    log:      baseLog.With("service", "UserService"),
    userRepo: userRepo,
  }
}

func (us *userService) GetMe(ctx context.Context) (*types.UserAccount, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("%w: no identity on request", ErrAuth)
  }
  users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
  if err != nil {
    return nil, fmt.Errorf("load user: %w", err)
  }
  if len(users) == 0 || users[0] == nil {
    return nil, fmt.Errorf("%w: user not found", ErrAuth)
  }
  return users[0], nil
}

// editableUserColumns is the allow-list for admin direct edits.
var editableUserColumns = map[string]bool{
  "name":               true,
  "role":               true,
  "coins":              true,
  "plan":               true,
  "period_video_limit": true,
}

func (us *userService) UpdateUserFields(ctx context.Context, targetID uuid.UUID, updates map[string]interface{}) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return fmt.Errorf("%w: no identity on request", ErrAuth)
  }

  selfEdit := rd.UserID == targetID
  if !selfEdit && rd.UserRole != types.UserRoleAdmin {
    return fmt.Errorf("%w: admin role required", ErrAuth)
  }

  filtered := map[string]interface{}{}
  for k, v := range updates {
    if !editableUserColumns[k] {
      continue
    }
    // only admins touch role, coins and limits
    if selfEdit && rd.UserRole != types.UserRoleAdmin && k != "name" {
      continue
    }
    filtered[k] = v
  }
  if len(filtered) == 0 {
    return fmt.Errorf("%w: no editable fields in request", ErrValidation)
  }

  return us.userRepo.UpdateFields(ctx, nil, targetID, filtered)
}
