package services

import (
  "context"
  "encoding/json"
  "errors"
  "net/http"
  "net/http/httptest"
  "testing"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/yungbote/reelforge-backend/internal/repos"
  "github.com/yungbote/reelforge-backend/internal/repos/testutil"
  "github.com/yungbote/reelforge-backend/internal/sse"
  "github.com/yungbote/reelforge-backend/internal/types"
)

type fakeRunRepo struct {
  runs    map[uuid.UUID]*types.VideoGenerationRun
  updates map[uuid.UUID]map[string]interface{}
}

func newFakeRunRepo() *fakeRunRepo {
  return &fakeRunRepo{
    runs:    map[uuid.UUID]*types.VideoGenerationRun{},
    updates: map[uuid.UUID]map[string]interface{}{},
  }
}

func (f *fakeRunRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.VideoGenerationRun) ([]*types.VideoGenerationRun, error) {
  for _, r := range runs {
    f.runs[r.ID] = r
  }
  return runs, nil
}

func (f *fakeRunRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.VideoGenerationRun, error) {
  out := []*types.VideoGenerationRun{}
  for _, id := range ids {
    if r, ok := f.runs[id]; ok {
      out = append(out, r)
    }
  }
  return out, nil
}

func (f *fakeRunRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.VideoGenerationRun, error) {
  out := []*types.VideoGenerationRun{}
  for _, r := range f.runs {
    if r.UserID == userID {
      out = append(out, r)
    }
  }
  return out, nil
}

func (f *fakeRunRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.VideoGenerationRun, error) {
  return nil, nil
}

func (f *fakeRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
  merged, ok := f.updates[id]
  if !ok {
    merged = map[string]interface{}{}
    f.updates[id] = merged
  }
  for k, v := range updates {
    merged[k] = v
  }
  return nil
}

func (f *fakeRunRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error { return nil }

func generalSettings() *types.GenerationSettings {
  return &types.GenerationSettings{
    Topic:      "deep sea creatures",
    ImageStyle: "cinematic",
    Duration:   "30 Seconds",
    Language:   "en-US",
  }
}

func newEnqueueService(t *testing.T, userRepo repos.UserRepo, runRepo repos.GenerationRunRepo) VideoGenerationService {
  return newEnqueueServiceWithCatalog(t, userRepo, runRepo, &PresetCatalog{})
}

func newEnqueueServiceWithCatalog(t *testing.T, userRepo repos.UserRepo, runRepo repos.GenerationRunRepo, catalog *PresetCatalog) VideoGenerationService {
  t.Helper()
  log := testLogger(t)
  return NewVideoGenerationService(
    nil, log, sse.NewSSEHub(log), nil,
    nil, nil, userRepo, runRepo,
    nil, nil, nil, nil, nil, nil, nil,
    catalog,
  )
}

func TestEnqueueValidatesSettings(t *testing.T) {
  user := &types.UserAccount{ID: uuid.New(), Email: "gen@example.com", Coins: 100}
  svc := newEnqueueService(t, newFakeUserRepo(user), newFakeRunRepo())

  cases := []*types.GenerationSettings{
    nil,
    {ImageStyle: "cinematic", Duration: "30 Seconds", Language: "en-US"},
    {Topic: "x", Duration: "30 Seconds", Language: "en-US"},
    {Category: types.VideoCategoryUGCAds, ImageStyle: "s", Duration: "d", Language: "l", ProductName: "GlowSerum"},
    {Category: types.VideoCategoryUGCAds, ImageStyle: "s", Duration: "d", Language: "l", Avatar: &types.AvatarPersona{ID: "ava"}},
  }
  for i, settings := range cases {
    if _, err := svc.Enqueue(context.Background(), user.ID, settings); !errors.Is(err, ErrValidation) {
      t.Fatalf("case %d: expected validation error, got %v", i, err)
    }
  }
}

func TestEnqueueRejectsInsufficientBalance(t *testing.T) {
  user := &types.UserAccount{ID: uuid.New(), Email: "broke@example.com", Coins: GenerationCost - 1}
  svc := newEnqueueService(t, newFakeUserRepo(user), newFakeRunRepo())

  _, err := svc.Enqueue(context.Background(), user.ID, generalSettings())
  if !errors.Is(err, ErrInsufficientBalance) {
    t.Fatalf("expected insufficient balance, got %v", err)
  }
}

func TestEnqueueCreatesQueuedRun(t *testing.T) {
  user := &types.UserAccount{ID: uuid.New(), Email: "gen@example.com", Coins: 100}
  runRepo := newFakeRunRepo()
  svc := newEnqueueService(t, newFakeUserRepo(user), runRepo)

  run, err := svc.Enqueue(context.Background(), user.ID, generalSettings())
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }
  if run.Status != types.RunStatusQueued || run.Stage != types.RunStageScript {
    t.Fatalf("new run state: status=%s stage=%s", run.Status, run.Stage)
  }
  if _, ok := runRepo.runs[run.ID]; !ok {
    t.Fatalf("run not persisted")
  }

  var stored types.GenerationSettings
  if err := json.Unmarshal(run.Settings, &stored); err != nil {
    t.Fatalf("decode stored settings: %v", err)
  }
  if stored.Topic != "deep sea creatures" {
    t.Fatalf("settings round trip: %+v", stored)
  }
}

func TestEnqueueRejectsUncataloguedDuration(t *testing.T) {
  user := &types.UserAccount{ID: uuid.New(), Email: "gen@example.com", Coins: 100}
  catalog := &PresetCatalog{Durations: []string{"15 Seconds", "30 Seconds"}}
  svc := newEnqueueServiceWithCatalog(t, newFakeUserRepo(user), newFakeRunRepo(), catalog)

  settings := generalSettings()
  settings.Duration = "45 Seconds"
  if _, err := svc.Enqueue(context.Background(), user.ID, settings); !errors.Is(err, ErrValidation) {
    t.Fatalf("uncatalogued duration must be rejected, got %v", err)
  }

  settings.Duration = "30 seconds"
  if _, err := svc.Enqueue(context.Background(), user.ID, settings); err != nil {
    t.Fatalf("catalogued duration must pass case-insensitively: %v", err)
  }
}

func TestEnqueueFillsPersonaFromCatalog(t *testing.T) {
  user := &types.UserAccount{ID: uuid.New(), Email: "gen@example.com", Coins: 100}
  catalog := &PresetCatalog{
    Personas: []PersonaPreset{{
      ID:          "ava",
      Personality: "upbeat founder",
      ImageURL:    "https://cdn.example.com/personas/ava.png",
      Gestures:    []string{"point"},
    }},
  }
  svc := newEnqueueServiceWithCatalog(t, newFakeUserRepo(user), newFakeRunRepo(), catalog)

  settings := &types.GenerationSettings{
    Category:    types.VideoCategoryUGCAds,
    ImageStyle:  "realistic",
    Duration:    "15 Seconds",
    Language:    "en-US",
    ProductName: "GlowSerum",
    Avatar:      &types.AvatarPersona{ID: "ava"},
  }
  run, err := svc.Enqueue(context.Background(), user.ID, settings)
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }

  var stored types.GenerationSettings
  if err := json.Unmarshal(run.Settings, &stored); err != nil {
    t.Fatalf("decode stored settings: %v", err)
  }
  if stored.Avatar == nil || stored.Avatar.ImageURL != "https://cdn.example.com/personas/ava.png" {
    t.Fatalf("persona image must come from the catalog: %+v", stored.Avatar)
  }
  if stored.Avatar.Personality != "upbeat founder" || len(stored.Avatar.Gestures) != 1 {
    t.Fatalf("persona fields must be filled from the catalog: %+v", stored.Avatar)
  }
}

func TestGetRunScopesToOwner(t *testing.T) {
  owner := &types.UserAccount{ID: uuid.New(), Email: "owner@example.com", Coins: 100}
  runRepo := newFakeRunRepo()
  svc := newEnqueueService(t, newFakeUserRepo(owner), runRepo)

  run, err := svc.Enqueue(context.Background(), owner.ID, generalSettings())
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }

  if _, err := svc.GetRun(context.Background(), owner.ID, run.ID); err != nil {
    t.Fatalf("owner lookup: %v", err)
  }
  if _, err := svc.GetRun(context.Background(), uuid.New(), run.ID); !errors.Is(err, ErrValidation) {
    t.Fatalf("foreign lookup must not resolve, got %v", err)
  }
}

// ---- full pipeline scenarios against a real database ----

type pipelineEnv struct {
  db       *gorm.DB
  svc      *videoGenerationService
  user     *types.UserAccount
  runRepo  repos.GenerationRunRepo
  userRepo repos.UserRepo
}

type pipelineFakes struct {
  script          ScriptProviderService
  speech          SpeechProviderService
  captions        CaptionProviderService
  images          ImageProviderService
  avatarPrimary   AvatarVideoProviderService
  avatarSecondary AvatarVideoProviderService
}

func workingFakes() pipelineFakes {
  return pipelineFakes{
    script: &fakeScriptProvider{segments: []types.ScriptSegment{
      {ContentText: "Part one.", ImagePrompt: "scene one"},
      {ContentText: "Part two.", ImagePrompt: "scene two"},
    }},
    speech:   &fakeSpeechProvider{result: &SpeechResult{AudioData: []byte{0xFF, 0xFB}}},
    captions: &fakeCaptionProvider{lines: []types.CaptionLine{{Text: "Part one.", StartMs: 0, EndMs: 1500}}},
    images:   &fakeImageProvider{url: "https://cdn.example.com/img.png"},
  }
}

func newPipelineEnv(t *testing.T, coins int64, fakes pipelineFakes) *pipelineEnv {
  t.Helper()
  db := testutil.DB(t)
  log := testutil.Logger(t)

  userRepo := repos.NewUserRepo(db, log)
  runRepo := repos.NewGenerationRunRepo(db, log)

  user := &types.UserAccount{
    ID:       uuid.New(),
    Email:    "pipeline-" + uuid.NewString() + "@example.com",
    Password: "x",
    Coins:    coins,
  }
  if _, err := userRepo.Create(context.Background(), nil, []*types.UserAccount{user}); err != nil {
    t.Fatalf("seed user: %v", err)
  }
  t.Cleanup(func() {
    db.Exec("DELETE FROM video_generation_run WHERE user_id = ?", user.ID)
    db.Exec("DELETE FROM video_record WHERE created_by = ?", user.Email)
    db.Exec("DELETE FROM user_account WHERE id = ?", user.ID)
  })

  svc := NewVideoGenerationService(
    db, log, sse.NewSSEHub(log), nil,
    repos.NewVideoRepo(db, log),
    repos.NewUGCMetadataRepo(db, log),
    userRepo, runRepo,
    &fakeBucket{},
    fakes.script, fakes.speech, fakes.captions, fakes.images,
    fakes.avatarPrimary, fakes.avatarSecondary,
    &PresetCatalog{},
  ).(*videoGenerationService)

  return &pipelineEnv{db: db, svc: svc, user: user, runRepo: runRepo, userRepo: userRepo}
}

func (env *pipelineEnv) startRun(t *testing.T, settings *types.GenerationSettings) *types.VideoGenerationRun {
  t.Helper()
  run := &types.VideoGenerationRun{
    ID:       uuid.New(),
    UserID:   env.user.ID,
    Status:   types.RunStatusRunning,
    Stage:    types.RunStageScript,
    Attempts: 1,
    Settings: datatypes.JSON(mustJSON(settings)),
  }
  if _, err := env.runRepo.Create(context.Background(), nil, []*types.VideoGenerationRun{run}); err != nil {
    t.Fatalf("seed run: %v", err)
  }
  return run
}

func (env *pipelineEnv) reloadRun(t *testing.T, id uuid.UUID) *types.VideoGenerationRun {
  t.Helper()
  runs, err := env.runRepo.GetByIDs(context.Background(), nil, []uuid.UUID{id})
  if err != nil || len(runs) == 0 {
    t.Fatalf("reload run: %v", err)
  }
  return runs[0]
}

func (env *pipelineEnv) loadVideo(t *testing.T, id uuid.UUID) *types.VideoRecord {
  t.Helper()
  var video types.VideoRecord
  if err := env.db.Where("id = ?", id).First(&video).Error; err != nil {
    t.Fatalf("load video: %v", err)
  }
  return &video
}

func TestProcessRunCompletesGeneralVideo(t *testing.T) {
  env := newPipelineEnv(t, 100, workingFakes())
  run := env.startRun(t, generalSettings())

  env.svc.processRun(context.Background(), run)

  done := env.reloadRun(t, run.ID)
  if done.Status != types.RunStatusSucceeded || done.Stage != types.RunStageDone || done.Progress != 100 {
    t.Fatalf("run not finished: status=%s stage=%s progress=%d error=%s", done.Status, done.Stage, done.Progress, done.Error)
  }
  if done.VideoID == nil {
    t.Fatalf("run must link the produced video")
  }

  video := env.loadVideo(t, *done.VideoID)
  if video.Status != types.VideoStatusCompleted {
    t.Fatalf("video status: %s", video.Status)
  }
  if video.Category != types.VideoCategoryGeneral {
    t.Fatalf("category must default to general, got %s", video.Category)
  }
  if video.AudioURL == "" || video.ThumbnailURL == nil {
    t.Fatalf("completed video missing assets: %+v", video)
  }

  users, err := env.userRepo.GetByIDs(context.Background(), nil, []uuid.UUID{env.user.ID})
  if err != nil || len(users) == 0 {
    t.Fatalf("reload user: %v", err)
  }
  if users[0].Coins != 100-GenerationCost {
    t.Fatalf("coins after debit: %d", users[0].Coins)
  }
}

func ugcSettings() *types.GenerationSettings {
  return &types.GenerationSettings{
    Category:    types.VideoCategoryUGCAds,
    ImageStyle:  "realistic",
    Duration:    "15 Seconds",
    Language:    "en-US",
    ProductName: "GlowSerum",
    Avatar:      &types.AvatarPersona{ID: "ava", Personality: "upbeat", ImageURL: "https://cdn.example.com/ava.png"},
  }
}

func TestProcessRunDegradesWhenAvatarVendorsFail(t *testing.T) {
  fakes := workingFakes()
  fakes.avatarPrimary = &fakeAvatarProvider{name: "primary", err: errors.New("primary down")}
  fakes.avatarSecondary = &fakeAvatarProvider{name: "secondary", err: errors.New("secondary down")}
  env := newPipelineEnv(t, 100, fakes)
  run := env.startRun(t, ugcSettings())

  env.svc.processRun(context.Background(), run)

  done := env.reloadRun(t, run.ID)
  if done.Status != types.RunStatusSucceeded {
    t.Fatalf("avatar failure must not fail the run: status=%s error=%s", done.Status, done.Error)
  }

  video := env.loadVideo(t, *done.VideoID)
  if video.Status != types.VideoStatusCompletedDegraded {
    t.Fatalf("video status: %s", video.Status)
  }
  var missing []string
  if err := json.Unmarshal(video.MissingFeatures, &missing); err != nil {
    t.Fatalf("decode missing_features: %v", err)
  }
  if len(missing) != 1 || missing[0] != "avatar_video" {
    t.Fatalf("missing_features: %v", missing)
  }
  if video.VideoURL != nil {
    t.Fatalf("degraded video must have no rendered file")
  }

  var metaCount int64
  env.db.Model(&types.UGCVideoMetadata{}).Where("video_id = ?", video.ID).Count(&metaCount)
  if metaCount != 1 {
    t.Fatalf("ugc metadata rows: %d", metaCount)
  }
}

func TestProcessRunStoresAvatarVideoFromVendor(t *testing.T) {
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    w.Header().Set("Content-Type", "video/mp4")
    w.Write([]byte("mp4-bytes"))
  }))
  defer srv.Close()

  fakes := workingFakes()
  fakes.avatarPrimary = &fakeAvatarProvider{name: "primary", url: srv.URL + "/render.mp4"}
  env := newPipelineEnv(t, 100, fakes)
  run := env.startRun(t, ugcSettings())

  env.svc.processRun(context.Background(), run)

  done := env.reloadRun(t, run.ID)
  if done.Status != types.RunStatusSucceeded {
    t.Fatalf("run failed: %s %s", done.Status, done.Error)
  }
  video := env.loadVideo(t, *done.VideoID)
  if video.Status != types.VideoStatusCompleted {
    t.Fatalf("video status: %s", video.Status)
  }
  if video.VideoURL == nil || *video.VideoURL == "" {
    t.Fatalf("rendered avatar video must be stored")
  }

  var meta types.UGCVideoMetadata
  if err := env.db.Where("video_id = ?", video.ID).First(&meta).Error; err != nil {
    t.Fatalf("load ugc metadata: %v", err)
  }
  if meta.EnhancementPath != types.EnhancementPathPrimary {
    t.Fatalf("enhancement path: %s", meta.EnhancementPath)
  }
}

func TestProcessRunFailsTerminallyOnSpeechVendor(t *testing.T) {
  fakes := workingFakes()
  fakes.speech = &fakeSpeechProvider{err: &VendorError{Vendor: "tts", Code: "http_503", Message: "overloaded"}}
  env := newPipelineEnv(t, 100, fakes)
  run := env.startRun(t, generalSettings())

  env.svc.processRun(context.Background(), run)

  done := env.reloadRun(t, run.ID)
  if done.Status != types.RunStatusFailed || done.Stage != types.RunStageSpeech {
    t.Fatalf("run state: status=%s stage=%s", done.Status, done.Stage)
  }
  if done.ErrorCode != CodeSpeechSynthesisFailed {
    t.Fatalf("error code: %s", done.ErrorCode)
  }
  if done.LastErrorAt == nil {
    t.Fatalf("failed run must record last_error_at")
  }

  users, _ := env.userRepo.GetByIDs(context.Background(), nil, []uuid.UUID{env.user.ID})
  if users[0].Coins != 100 {
    t.Fatalf("failed run must not debit: %d", users[0].Coins)
  }
}

func TestProcessRunAbortsPersistWhenBalanceDropped(t *testing.T) {
  env := newPipelineEnv(t, GenerationCost-20, workingFakes())
  run := env.startRun(t, generalSettings())

  env.svc.processRun(context.Background(), run)

  done := env.reloadRun(t, run.ID)
  if done.Status != types.RunStatusFailed || done.Stage != types.RunStagePersist {
    t.Fatalf("run state: status=%s stage=%s", done.Status, done.Stage)
  }
  if done.ErrorCode != CodeInsufficientBalance {
    t.Fatalf("error code: %s", done.ErrorCode)
  }

  var videoCount int64
  env.db.Model(&types.VideoRecord{}).Where("created_by = ?", env.user.Email).Count(&videoCount)
  if videoCount != 0 {
    t.Fatalf("aborted transaction must leave no video rows, found %d", videoCount)
  }

  users, _ := env.userRepo.GetByIDs(context.Background(), nil, []uuid.UUID{env.user.ID})
  if users[0].Coins != GenerationCost-20 {
    t.Fatalf("aborted transaction must leave the balance untouched: %d", users[0].Coins)
  }
}
