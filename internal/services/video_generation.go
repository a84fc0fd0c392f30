package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "io"
  "net/http"
  "strings"
  "time"

  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  redisclient "github.com/yungbote/reelforge-backend/internal/clients/redis"
  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/repos"
  "github.com/yungbote/reelforge-backend/internal/sse"
  "github.com/yungbote/reelforge-backend/internal/types"
)

// GenerationCost is the coin debit for one successful attempt.
const GenerationCost = 50

type VideoGenerationService interface {
  Enqueue(ctx context.Context, userID uuid.UUID, settings *types.GenerationSettings) (*types.VideoGenerationRun, error)
  GetRun(ctx context.Context, userID uuid.UUID, runID uuid.UUID) (*types.VideoGenerationRun, error)
  StartWorker(ctx context.Context)
}

type videoGenerationService struct {
  db  *gorm.DB
  log *logger.Logger

  sseHub *sse.SSEHub
  sseBus redisclient.SSEBus

  videoRepo repos.VideoRepo
  ugcRepo   repos.UGCMetadataRepo
  userRepo  repos.UserRepo
  runRepo   repos.GenerationRunRepo

  bucket          BucketService
  script          ScriptProviderService
  speech          SpeechProviderService
  captions        CaptionProviderService
  images          ImageProviderService
  avatarPrimary   AvatarVideoProviderService
  avatarSecondary AvatarVideoProviderService
  presets         *PresetCatalog

  httpClient *http.Client
}

func NewVideoGenerationService(
  db *gorm.DB,
  baseLog *logger.Logger,
  sseHub *sse.SSEHub,
  sseBus redisclient.SSEBus,
  videoRepo repos.VideoRepo,
  ugcRepo repos.UGCMetadataRepo,
  userRepo repos.UserRepo,
  runRepo repos.GenerationRunRepo,
  bucket BucketService,
  script ScriptProviderService,
  speech SpeechProviderService,
  captions CaptionProviderService,
  images ImageProviderService,
  avatarPrimary AvatarVideoProviderService,
  avatarSecondary AvatarVideoProviderService,
  presets *PresetCatalog,
) VideoGenerationService {
  return &videoGenerationService{
    db:              db,
    log:             baseLog.With("service", "VideoGenerationService"),
    sseHub:          sseHub,
    sseBus:          sseBus,
    videoRepo:       videoRepo,
    ugcRepo:         ugcRepo,
    userRepo:        userRepo,
    runRepo:         runRepo,
    bucket:          bucket,
    script:          script,
    speech:          speech,
    captions:        captions,
    images:          images,
    avatarPrimary:   avatarPrimary,
    avatarSecondary: avatarSecondary,
    presets:         presets,
    httpClient:      &http.Client{Timeout: 5 * time.Minute},
  }
}

func (vgs *videoGenerationService) Enqueue(ctx context.Context, userID uuid.UUID, settings *types.GenerationSettings) (*types.VideoGenerationRun, error) {
  if err := validateSettings(settings); err != nil {
    return nil, err
  }
  if len(vgs.presets.Durations) > 0 && !vgs.presets.ValidDuration(settings.Duration) {
    return nil, fmt.Errorf("%w: unsupported duration %q", ErrValidation, settings.Duration)
  }
  if settings.Category == types.VideoCategoryUGCAds && settings.Avatar != nil {
    if persona := vgs.presets.PersonaByID(settings.Avatar.ID); persona != nil {
      if settings.Avatar.ImageURL == "" {
        settings.Avatar.ImageURL = persona.ImageURL
      }
      if settings.Avatar.Personality == "" {
        settings.Avatar.Personality = persona.Personality
      }
      if len(settings.Avatar.Gestures) == 0 {
        settings.Avatar.Gestures = persona.Gestures
      }
    }
  }

  users, err := vgs.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
  if err != nil {
    return nil, fmt.Errorf("load user: %w", err)
  }
  if len(users) == 0 || users[0] == nil {
    return nil, fmt.Errorf("%w: user not found", ErrValidation)
  }
  if users[0].Coins < GenerationCost {
    return nil, fmt.Errorf("%w: need %d coins, have %d", ErrInsufficientBalance, GenerationCost, users[0].Coins)
  }

  now := time.Now()
  run := &types.VideoGenerationRun{
    ID:        uuid.New(),
    UserID:    userID,
    Status:    types.RunStatusQueued,
    Stage:     types.RunStageScript,
    Progress:  0,
    Attempts:  0,
    Settings:  datatypes.JSON(mustJSON(settings)),
    CreatedAt: now,
    UpdatedAt: now,
  }
  if _, err := vgs.runRepo.Create(ctx, nil, []*types.VideoGenerationRun{run}); err != nil {
    return nil, fmt.Errorf("create generation run: %w", err)
  }

  vgs.broadcast(userID, sse.SSEEventVideoGenerationProgress, map[string]any{
    "run_id":   run.ID,
    "stage":    run.Stage,
    "progress": 0,
    "message":  "Queued",
  })

  return run, nil
}

func validateSettings(settings *types.GenerationSettings) error {
  if settings == nil {
    return fmt.Errorf("%w: settings required", ErrValidation)
  }
  if strings.TrimSpace(settings.ImageStyle) == "" {
    return fmt.Errorf("%w: imageStyle is required", ErrValidation)
  }
  if strings.TrimSpace(settings.Duration) == "" {
    return fmt.Errorf("%w: duration is required", ErrValidation)
  }
  if strings.TrimSpace(settings.Language) == "" {
    return fmt.Errorf("%w: language is required", ErrValidation)
  }
  if settings.Category == types.VideoCategoryUGCAds {
    if settings.Avatar == nil || strings.TrimSpace(settings.Avatar.ID) == "" {
      return fmt.Errorf("%w: UGC videos require an avatar persona", ErrValidation)
    }
    if strings.TrimSpace(settings.ProductName) == "" {
      return fmt.Errorf("%w: UGC videos require a product name", ErrValidation)
    }
  } else if strings.TrimSpace(settings.Topic) == "" {
    return fmt.Errorf("%w: topic is required", ErrValidation)
  }
  return nil
}

func (vgs *videoGenerationService) GetRun(ctx context.Context, userID uuid.UUID, runID uuid.UUID) (*types.VideoGenerationRun, error) {
  runs, err := vgs.runRepo.GetByIDs(ctx, nil, []uuid.UUID{runID})
  if err != nil {
    return nil, err
  }
  if len(runs) == 0 || runs[0] == nil || runs[0].UserID != userID {
    return nil, fmt.Errorf("%w: run not found", ErrValidation)
  }
  return runs[0], nil
}

func (vgs *videoGenerationService) StartWorker(ctx context.Context) {
  go func() {
    ticker := time.NewTicker(1 * time.Second)
    defer ticker.Stop()

    // Worker policy
    const maxAttempts = 3
    retryDelay := 30 * time.Second
    staleRunning := 2 * time.Minute

    for {
      select {
      case <-ctx.Done():
        return
      case <-ticker.C:
        run, err := vgs.runRepo.ClaimNextRunnable(ctx, vgs.db, maxAttempts, retryDelay, staleRunning)
        if err != nil {
          vgs.log.Warn("ClaimNextRunnable failed", "error", err)
          continue
        }
        if run == nil {
          continue
        }
        vgs.processRun(ctx, run)
      }
    }
  }()
}

func (vgs *videoGenerationService) processRun(ctx context.Context, run *types.VideoGenerationRun) {
  userID := run.UserID
  runID := run.ID

  fail := func(stage string, err error) {
    now := time.Now()
    _ = vgs.runRepo.UpdateFields(ctx, nil, runID, map[string]interface{}{
      "status":        types.RunStatusFailed,
      "stage":         stage,
      "error":         err.Error(),
      "error_code":    ErrorCode(err),
      "last_error_at": now,
      "locked_at":     nil,
      "updated_at":    now,
    })
    vgs.broadcast(userID, sse.SSEEventVideoGenerationFailed, map[string]any{
      "run_id": runID,
      "stage":  stage,
      "error":  err.Error(),
      "code":   ErrorCode(err),
    })
  }

  progress := func(stage string, pct int, msg string) {
    now := time.Now()
    _ = vgs.runRepo.UpdateFields(ctx, nil, runID, map[string]interface{}{
      "stage":        stage,
      "progress":     pct,
      "heartbeat_at": now,
      "updated_at":   now,
    })
    vgs.broadcast(userID, sse.SSEEventVideoGenerationProgress, map[string]any{
      "run_id":   runID,
      "stage":    stage,
      "progress": pct,
      "message":  msg,
    })
  }

  var settings types.GenerationSettings
  if err := json.Unmarshal(run.Settings, &settings); err != nil {
    fail(types.RunStageScript, fmt.Errorf("%w: decode run settings: %v", ErrValidation, err))
    return
  }
  isUGC := settings.Category == types.VideoCategoryUGCAds

  // 1) SCRIPT — terminal on failure
  progress(types.RunStageScript, 5, "Writing script")
  segments, err := vgs.script.GenerateScript(ctx, &settings)
  if err != nil {
    fail(types.RunStageScript, fmt.Errorf("%w: %v", ErrScriptGeneration, err))
    return
  }

  // 2) NARRATION — space-joined segment texts
  parts := make([]string, 0, len(segments))
  for _, seg := range segments {
    parts = append(parts, seg.ContentText)
  }
  narration := strings.Join(parts, " ")

  // 3) SPEECH — terminal on failure; binary normalized through the bucket
  progress(types.RunStageSpeech, 25, "Synthesizing narration")
  voice := vgs.presets.ResolveVoice(settings.VoiceName, settings.VoiceStyle, settings.Language)
  speechRes, err := vgs.speech.SynthesizeSpeech(ctx, narration, voice, settings.Language)
  if err != nil {
    fail(types.RunStageSpeech, fmt.Errorf("%w: %v", ErrSpeechSynthesis, err))
    return
  }
  audioData := speechRes.AudioData
  if audioData == nil {
    audioData, err = vgs.fetchAsset(ctx, speechRes.AudioURL)
    if err != nil {
      fail(types.RunStageSpeech, fmt.Errorf("%w: fetch vendor audio: %v", ErrSpeechSynthesis, err))
      return
    }
  }
  audioURL, audioGsURI, err := vgs.bucket.StoreAsset(ctx, BucketCategoryAudio, "", "audio/mpeg", audioData)
  if err != nil {
    fail(types.RunStageSpeech, err)
    return
  }

  // 4) CAPTIONS — terminal on failure
  progress(types.RunStageCaptions, 40, "Aligning captions")
  captionTrack, err := vgs.captions.AlignCaptions(ctx, audioGsURI, settings.Language)
  if err != nil {
    fail(types.RunStageCaptions, fmt.Errorf("%w: %v", ErrCaptionAlignment, err))
    return
  }

  // 5) IMAGERY — vendor failures degrade inside the adapter; only storage
  // failures surface here
  progress(types.RunStageImagery, 55, "Generating imagery")
  imageURLs, err := vgs.generateImagery(ctx, &settings, segments)
  if err != nil {
    fail(types.RunStageImagery, err)
    return
  }

  // 6) AVATAR VIDEO (UGC only) — never terminal
  missingFeatures := []string{}
  var renderedVideoURL *string
  enhancementPath := types.EnhancementPathNone

  if isUGC && settings.Avatar != nil {
    progress(types.RunStageAvatar, 70, "Rendering talking avatar")
    url, path := vgs.generateAvatarVideo(ctx, &settings, narration, audioURL)
    if url != "" {
      renderedVideoURL = &url
      enhancementPath = path
    } else {
      missingFeatures = append(missingFeatures, "avatar_video")
    }
  }

  // 7) PERSIST + DEBIT — one transaction; terminal on failure
  progress(types.RunStagePersist, 85, "Saving video")

  status := types.VideoStatusCompleted
  if len(missingFeatures) > 0 {
    status = types.VideoStatusCompletedDegraded
  }

  users, err := vgs.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
  if err != nil || len(users) == 0 || users[0] == nil {
    fail(types.RunStagePersist, fmt.Errorf("%w: load user: %v", ErrPersistence, err))
    return
  }
  owner := users[0]

  now := time.Now()
  video := &types.VideoRecord{
    ID:        uuid.New(),
    Name:      videoName(&settings),
    Script:    datatypes.JSON(mustJSON(segments)),
    AudioURL:  audioURL,
    Captions:  datatypes.JSON(mustJSON(captionTrack)),
    ImageURLs: datatypes.JSON(mustJSON(imageURLs)),
    VideoURL:  renderedVideoURL,
    CreatedBy: owner.Email,
    Category:  settings.Category,
    Status:    status,
    Views:     0,
    Downloads: 0,
    Shares:    0,
    Settings:  datatypes.JSON(mustJSON(settings)),
    CreatedAt: now,
    UpdatedAt: now,
  }
  if video.Category == "" {
    video.Category = types.VideoCategoryGeneral
  }
  if len(imageURLs) > 0 {
    thumb := imageURLs[0]
    video.ThumbnailURL = &thumb
  }
  if len(missingFeatures) > 0 {
    video.MissingFeatures = datatypes.JSON(mustJSON(missingFeatures))
  }

  err = vgs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := vgs.videoRepo.Create(ctx, tx, []*types.VideoRecord{video}); err != nil {
      return fmt.Errorf("%w: create video record: %v", ErrPersistence, err)
    }

    if isUGC {
      meta := &types.UGCVideoMetadata{
        ID:               uuid.New(),
        VideoID:          video.ID,
        AvatarID:         settings.Avatar.ID,
        Personality:      settings.Avatar.Personality,
        ProductName:      settings.ProductName,
        ProductDesc:      settings.ProductDesc,
        ProductImageURL:  settings.ProductImageURL,
        Tone:             settings.VoiceStyle,
        Language:         settings.Language,
        VoiceStyle:       settings.VoiceStyle,
        Gestures:         datatypes.JSON(mustJSON(settings.Avatar.Gestures)),
        ProductImageUsed: settings.ProductImageURL != "",
        EnhancementPath:  enhancementPath,
        CreatedAt:        now,
      }
      if _, err := vgs.ugcRepo.Create(ctx, tx, []*types.UGCVideoMetadata{meta}); err != nil {
        return fmt.Errorf("%w: create ugc metadata: %v", ErrPersistence, err)
      }
    }

    if err := vgs.userRepo.DebitCoins(ctx, tx, userID, GenerationCost); err != nil {
      if errors.Is(err, repos.ErrInsufficientCoins) {
        return fmt.Errorf("%w: balance dropped below cost before debit", ErrInsufficientBalance)
      }
      return fmt.Errorf("%w: debit coins: %v", ErrPersistence, err)
    }

    return vgs.runRepo.UpdateFields(ctx, tx, runID, map[string]interface{}{
      "status":     types.RunStatusSucceeded,
      "stage":      types.RunStageDone,
      "progress":   100,
      "video_id":   video.ID,
      "locked_at":  nil,
      "updated_at": time.Now(),
    })
  })
  if err != nil {
    fail(types.RunStagePersist, err)
    return
  }

  vgs.broadcast(userID, sse.SSEEventVideoGenerationDone, map[string]any{
    "run_id":           runID,
    "video_id":         video.ID,
    "status":           status,
    "missing_features": missingFeatures,
  })
  vgs.broadcast(userID, sse.SSEEventUserCoinsChanged, map[string]any{
    "delta": -GenerationCost,
  })
}

func (vgs *videoGenerationService) generateImagery(ctx context.Context, settings *types.GenerationSettings, segments []types.ScriptSegment) ([]string, error) {
  if settings.Category == types.VideoCategoryUGCAds {
    productURL := settings.ProductImageURL
    if productURL == "" {
      var err error
      productURL, err = vgs.images.PlaceholderImage(ctx, settings.ProductName, settings.ImageStyle)
      if err != nil {
        return nil, err
      }
    }
    urls := make([]string, len(segments))
    for i := range urls {
      urls[i] = productURL
    }
    return urls, nil
  }

  urls := make([]string, len(segments))
  g, gctx := errgroup.WithContext(ctx)
  g.SetLimit(3)
  for i, seg := range segments {
    i, seg := i, seg
    g.Go(func() error {
      prompt := seg.ImagePrompt
      if prompt == "" {
        prompt = seg.SceneDescription
      }
      if prompt == "" {
        prompt = seg.ContentText
      }
      url, err := vgs.images.GenerateSegmentImage(gctx, prompt, settings.ImageStyle)
      if err != nil {
        return err
      }
      urls[i] = url
      return nil
    })
  }
  if err := g.Wait(); err != nil {
    return nil, err
  }
  return urls, nil
}

// generateAvatarVideo tries primary then secondary; both failing degrades to
// the slideshow form. The normalized stored URL is returned, or "".
func (vgs *videoGenerationService) generateAvatarVideo(ctx context.Context, settings *types.GenerationSettings, narration, audioURL string) (string, string) {
  req := &AvatarVideoRequest{
    AvatarImageURL: settings.Avatar.ImageURL,
    AudioURL:       audioURL,
    Script:         narration,
    Gestures:       settings.Avatar.Gestures,
  }

  providers := []struct {
    svc  AvatarVideoProviderService
    path string
  }{
    {vgs.avatarPrimary, types.EnhancementPathPrimary},
    {vgs.avatarSecondary, types.EnhancementPathSecondary},
  }

  for _, p := range providers {
    if p.svc == nil {
      continue
    }
    vendorURL, err := p.svc.GenerateAvatarVideo(ctx, req)
    if err != nil {
      vgs.log.Warn("avatar vendor failed", "vendor", p.svc.Name(), "error", err)
      continue
    }
    data, err := vgs.fetchAsset(ctx, vendorURL)
    if err != nil {
      vgs.log.Warn("fetch avatar video failed", "vendor", p.svc.Name(), "error", err)
      continue
    }
    storedURL, _, err := vgs.bucket.StoreAsset(ctx, BucketCategoryVideo, "", "video/mp4", data)
    if err != nil {
      vgs.log.Warn("store avatar video failed", "vendor", p.svc.Name(), "error", err)
      continue
    }
    return storedURL, p.path
  }
  return "", types.EnhancementPathNone
}

func (vgs *videoGenerationService) fetchAsset(ctx context.Context, url string) ([]byte, error) {
  if url == "" {
    return nil, fmt.Errorf("empty asset url")
  }
  req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
  if err != nil {
    return nil, err
  }
  resp, err := vgs.httpClient.Do(req)
  if err != nil {
    return nil, err
  }
  defer resp.Body.Close()
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return nil, fmt.Errorf("fetch asset http %d", resp.StatusCode)
  }
  return io.ReadAll(resp.Body)
}

func (vgs *videoGenerationService) broadcast(userID uuid.UUID, event sse.SSEEvent, data any) {
  msg := sse.SSEMessage{
    Channel: sse.UserChannel(userID),
    Event:   event,
    Data:    data,
  }
  if vgs.sseBus != nil {
    if err := vgs.sseBus.Publish(context.Background(), msg); err != nil {
      vgs.log.Warn("redis publish failed; broadcasting locally", "error", err)
      vgs.sseHub.Broadcast(msg)
    }
    return
  }
  vgs.sseHub.Broadcast(msg)
}

func videoName(settings *types.GenerationSettings) string {
  if settings.Category == types.VideoCategoryUGCAds && settings.ProductName != "" {
    return settings.ProductName + " Ad"
  }
  if settings.Topic != "" {
    return settings.Topic
  }
  return "Untitled video"
}
