package repos

import (
  "context"
  "testing"
  "time"

  "github.com/google/uuid"

  "github.com/yungbote/reelforge-backend/internal/repos/testutil"
  "github.com/yungbote/reelforge-backend/internal/types"
)

func TestFavoriteRepoAddIsIdempotent(t *testing.T) {
  db := testutil.DB(t)
  tx := testutil.Tx(t, db)
  ctx := context.Background()

  videoID := uuid.New()
  if err := tx.Create(&types.VideoRecord{
    ID:        videoID,
    Name:      "fav target",
    AudioURL:  "https://example.com/a.mp3",
    CreatedBy: "fav@example.com",
    Category:  types.VideoCategoryGeneral,
    Status:    types.VideoStatusCompleted,
    CreatedAt: time.Now(),
    UpdatedAt: time.Now(),
  }).Error; err != nil {
    t.Fatalf("seed video: %v", err)
  }

  repo := NewFavoriteRepo(db, testutil.Logger(t))

  if err := repo.Add(ctx, tx, "fav@example.com", videoID); err != nil {
    t.Fatalf("Add: %v", err)
  }
  if err := repo.Add(ctx, tx, "fav@example.com", videoID); err != nil {
    t.Fatalf("duplicate Add should be a no-op, got: %v", err)
  }

  favs, err := repo.ListByUser(ctx, tx, "fav@example.com")
  if err != nil {
    t.Fatalf("ListByUser: %v", err)
  }
  if len(favs) != 1 {
    t.Fatalf("expected exactly 1 favorite after duplicate Add, got %d", len(favs))
  }

  exists, err := repo.Exists(ctx, tx, "fav@example.com", videoID)
  if err != nil {
    t.Fatalf("Exists: %v", err)
  }
  if !exists {
    t.Fatalf("Exists: expected true")
  }

  if err := repo.Remove(ctx, tx, "fav@example.com", videoID); err != nil {
    t.Fatalf("Remove: %v", err)
  }
  exists, err = repo.Exists(ctx, tx, "fav@example.com", videoID)
  if err != nil {
    t.Fatalf("Exists after Remove: %v", err)
  }
  if exists {
    t.Fatalf("Exists after Remove: expected false")
  }
}
