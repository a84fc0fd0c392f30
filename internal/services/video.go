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

// VideoService is the library surface over finished records: listing,
// renaming, sharing, deleting, favorites and the player composition.
type VideoService interface {
  List(ctx context.Context, ownerEmail string) ([]*types.VideoRecord, error)
  Get(ctx context.Context, ownerEmail string, id uuid.UUID) (*types.VideoRecord, error)
  Rename(ctx context.Context, ownerEmail string, id uuid.UUID, name string) error
  ToggleShare(ctx context.Context, ownerEmail string, id uuid.UUID, shared bool) error
  Delete(ctx context.Context, ownerEmail string, id uuid.UUID) error
  Favorite(ctx context.Context, ownerEmail string, id uuid.UUID) error
  Unfavorite(ctx context.Context, ownerEmail string, id uuid.UUID) error
  ListFavorites(ctx context.Context, ownerEmail string) ([]*types.VideoRecord, error)
  Composition(ctx context.Context, ownerEmail string, id uuid.UUID, strategy string) (*Composition, error)
}

type videoService struct {
  db           *gorm.DB
  log          *logger.Logger
  videoRepo    repos.VideoRepo
  favoriteRepo repos.FavoriteRepo
  composition  CompositionService
}

func NewVideoService(
  db *gorm.DB,
  baseLog *logger.Logger,
  videoRepo repos.VideoRepo,
  favoriteRepo repos.FavoriteRepo,
  composition CompositionService,
) VideoService {
  return &videoService{
    db:           db,
    log:          baseLog.With("service", "VideoService"),
    videoRepo:    videoRepo,
    favoriteRepo: favoriteRepo,
    composition:  composition,
  }
}

func (vs *videoService) List(ctx context.Context, ownerEmail string) ([]*types.VideoRecord, error) {
  return vs.videoRepo.ListByOwner(ctx, nil, ownerEmail)
}

// loadOwned returns the record if the caller owns it, or if the record is
// shared (read paths only pass allowShared=true).
func (vs *videoService) loadOwned(ctx context.Context, ownerEmail string, id uuid.UUID, allowShared bool) (*types.VideoRecord, error) {
  videos, err := vs.videoRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
  if err != nil {
    return nil, fmt.Errorf("load video: %w", err)
  }
  if len(videos) == 0 || videos[0] == nil {
    return nil, fmt.Errorf("%w: video not found", ErrValidation)
  }
  v := videos[0]
  if v.CreatedBy != ownerEmail && !(allowShared && v.IsShared) {
    return nil, fmt.Errorf("%w: video not found", ErrValidation)
  }
  return v, nil
}

func (vs *videoService) Get(ctx context.Context, ownerEmail string, id uuid.UUID) (*types.VideoRecord, error) {
  return vs.loadOwned(ctx, ownerEmail, id, true)
}

func (vs *videoService) Rename(ctx context.Context, ownerEmail string, id uuid.UUID, name string) error {
  name = strings.TrimSpace(name)
  if name == "" {
    return fmt.Errorf("%w: name required", ErrValidation)
  }
  if _, err := vs.loadOwned(ctx, ownerEmail, id, false); err != nil {
    return err
  }
  return vs.videoRepo.UpdateFields(ctx, nil, id, map[string]interface{}{
    "name":       name,
    "updated_at": time.Now(),
  })
}

func (vs *videoService) ToggleShare(ctx context.Context, ownerEmail string, id uuid.UUID, shared bool) error {
  if _, err := vs.loadOwned(ctx, ownerEmail, id, false); err != nil {
    return err
  }
  return vs.videoRepo.UpdateFields(ctx, nil, id, map[string]interface{}{
    "is_shared":  shared,
    "updated_at": time.Now(),
  })
}

func (vs *videoService) Delete(ctx context.Context, ownerEmail string, id uuid.UUID) error {
  if _, err := vs.loadOwned(ctx, ownerEmail, id, false); err != nil {
    return err
  }
  return vs.videoRepo.Delete(ctx, nil, id)
}

func (vs *videoService) Favorite(ctx context.Context, ownerEmail string, id uuid.UUID) error {
  if _, err := vs.loadOwned(ctx, ownerEmail, id, true); err != nil {
    return err
  }
  return vs.favoriteRepo.Add(ctx, nil, ownerEmail, id)
}

func (vs *videoService) Unfavorite(ctx context.Context, ownerEmail string, id uuid.UUID) error {
  return vs.favoriteRepo.Remove(ctx, nil, ownerEmail, id)
}

func (vs *videoService) ListFavorites(ctx context.Context, ownerEmail string) ([]*types.VideoRecord, error) {
  favs, err := vs.favoriteRepo.ListByUser(ctx, nil, ownerEmail)
  if err != nil {
    return nil, err
  }
  if len(favs) == 0 {
    return []*types.VideoRecord{}, nil
  }
  ids := make([]uuid.UUID, 0, len(favs))
  for _, f := range favs {
    if f != nil {
      ids = append(ids, f.VideoID)
    }
  }
  videos, err := vs.videoRepo.GetByIDs(ctx, nil, ids)
  if err != nil {
    return nil, err
  }

  // keep favorite ordering (most recent first)
  byID := make(map[uuid.UUID]*types.VideoRecord, len(videos))
  for _, v := range videos {
    if v != nil {
      byID[v.ID] = v
    }
  }
  ordered := make([]*types.VideoRecord, 0, len(ids))
  for _, id := range ids {
    if v, ok := byID[id]; ok {
      ordered = append(ordered, v)
    }
  }
  return ordered, nil
}

func (vs *videoService) Composition(ctx context.Context, ownerEmail string, id uuid.UUID, strategy string) (*Composition, error) {
  video, err := vs.loadOwned(ctx, ownerEmail, id, true)
  if err != nil {
    return nil, err
  }
  return vs.composition.Build(video, strategy)
}
