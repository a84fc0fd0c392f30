package repos

import (
  "context"
  "testing"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"

  "github.com/yungbote/reelforge-backend/internal/repos/testutil"
  "github.com/yungbote/reelforge-backend/internal/types"
)

func TestGenerationRunRepoClaimNextRunnable(t *testing.T) {
  db := testutil.DB(t)
  ctx := context.Background()

  repo := NewGenerationRunRepo(db, testutil.Logger(t))

  userID := uuid.New()
  run := &types.VideoGenerationRun{
    ID:        uuid.New(),
    UserID:    userID,
    Status:    types.RunStatusQueued,
    Stage:     types.RunStageScript,
    Settings:  datatypes.JSON([]byte(`{}`)),
    CreatedAt: time.Now(),
    UpdatedAt: time.Now(),
  }
  if _, err := repo.Create(ctx, nil, []*types.VideoGenerationRun{run}); err != nil {
    t.Fatalf("Create: %v", err)
  }
  t.Cleanup(func() {
    db.Where("id = ?", run.ID).Delete(&types.VideoGenerationRun{})
  })

  claimed, err := repo.ClaimNextRunnable(ctx, db, 3, 30*time.Second, 2*time.Minute)
  if err != nil {
    t.Fatalf("ClaimNextRunnable: %v", err)
  }
  if claimed == nil || claimed.ID != run.ID {
    t.Fatalf("expected to claim run %s, got %+v", run.ID, claimed)
  }
  if claimed.Status != types.RunStatusRunning {
    t.Fatalf("claimed run status: want=%s got=%s", types.RunStatusRunning, claimed.Status)
  }
  if claimed.Attempts != 1 {
    t.Fatalf("claimed run attempts: want=1 got=%d", claimed.Attempts)
  }

  // The run is now running with a fresh heartbeat; nothing is claimable.
  again, err := repo.ClaimNextRunnable(ctx, db, 3, 30*time.Second, 2*time.Minute)
  if err != nil {
    t.Fatalf("second ClaimNextRunnable: %v", err)
  }
  if again != nil && again.ID == run.ID {
    t.Fatalf("run claimed twice")
  }
}

func TestGenerationRunRepoFailedRunRespectsAttemptCeiling(t *testing.T) {
  db := testutil.DB(t)
  ctx := context.Background()

  repo := NewGenerationRunRepo(db, testutil.Logger(t))

  old := time.Now().Add(-time.Hour)
  run := &types.VideoGenerationRun{
    ID:          uuid.New(),
    UserID:      uuid.New(),
    Status:      types.RunStatusFailed,
    Stage:       types.RunStageSpeech,
    Attempts:    3,
    LastErrorAt: &old,
    Settings:    datatypes.JSON([]byte(`{}`)),
    CreatedAt:   old,
    UpdatedAt:   old,
  }
  if _, err := repo.Create(ctx, nil, []*types.VideoGenerationRun{run}); err != nil {
    t.Fatalf("Create: %v", err)
  }
  t.Cleanup(func() {
    db.Where("id = ?", run.ID).Delete(&types.VideoGenerationRun{})
  })

  claimed, err := repo.ClaimNextRunnable(ctx, db, 3, 30*time.Second, 2*time.Minute)
  if err != nil {
    t.Fatalf("ClaimNextRunnable: %v", err)
  }
  if claimed != nil && claimed.ID == run.ID {
    t.Fatalf("run with attempts at ceiling must not be claimed")
  }
}
