package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/repos"
  "github.com/yungbote/reelforge-backend/internal/types"
)

type ClientMeta struct {
  IP        string
  UserAgent string
  Referrer  string
}

type AnalyticsService interface {
  // Track appends one event row and increments the derived counter in the
  // same transaction. The counter is never recomputed from the event log.
  Track(ctx context.Context, videoID uuid.UUID, action, platform, actorEmail string, meta ClientMeta) error
}

type analyticsService struct {
  db            *gorm.DB
  log           *logger.Logger
  videoRepo     repos.VideoRepo
  analyticsRepo repos.AnalyticsRepo
}

func NewAnalyticsService(db *gorm.DB, baseLog *logger.Logger, videoRepo repos.VideoRepo, analyticsRepo repos.AnalyticsRepo) AnalyticsService {
  return &analyticsService{
    db:            db,
    log:           baseLog.With("service", "AnalyticsService"),
    videoRepo:     videoRepo,
    analyticsRepo: analyticsRepo,
  }
}

func (s *analyticsService) Track(ctx context.Context, videoID uuid.UUID, action, platform, actorEmail string, meta ClientMeta) error {
  action = strings.ToLower(strings.TrimSpace(action))

  var counterColumn string
  switch action {
  case types.AnalyticsActionView:
    counterColumn = "views"
  case types.AnalyticsActionDownload:
    counterColumn = "downloads"
  case types.AnalyticsActionShare:
    counterColumn = "shares"
    platform = strings.ToLower(strings.TrimSpace(platform))
    if platform == "" {
      return fmt.Errorf("%w: share events require a platform", ErrValidation)
    }
    action = "share_" + platform
  default:
    return fmt.Errorf("%w: unknown action %q", ErrValidation, action)
  }

  // reject orphaned references
  videos, err := s.videoRepo.GetByIDs(ctx, nil, []uuid.UUID{videoID})
  if err != nil {
    return fmt.Errorf("load video: %w", err)
  }
  if len(videos) == 0 || videos[0] == nil {
    return fmt.Errorf("%w: video not found", ErrValidation)
  }

  event := &types.VideoAnalyticsEvent{
    ID:         uuid.New(),
    VideoID:    videoID,
    Action:     action,
    ActorEmail: actorEmail,
    ClientIP:   meta.IP,
    UserAgent:  meta.UserAgent,
    Referrer:   meta.Referrer,
    CreatedAt:  time.Now(),
  }

  return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := s.analyticsRepo.Append(ctx, tx, []*types.VideoAnalyticsEvent{event}); err != nil {
      return fmt.Errorf("append event: %w", err)
    }
    return s.videoRepo.IncrementCounter(ctx, tx, videoID, counterColumn)
  })
}
