package main

import (
  "context"
  "fmt"
  "os"
  "time"

  "github.com/yungbote/reelforge-backend/internal/clients/redis"
  "github.com/yungbote/reelforge-backend/internal/db"
  "github.com/yungbote/reelforge-backend/internal/handlers"
  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/middleware"
  "github.com/yungbote/reelforge-backend/internal/repos"
  "github.com/yungbote/reelforge-backend/internal/server"
  "github.com/yungbote/reelforge-backend/internal/services"
  "github.com/yungbote/reelforge-backend/internal/sse"
  "github.com/yungbote/reelforge-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  stripeWebhookSecret := utils.GetEnv("STRIPE_WEBHOOK_SECRET", "", log)
  presetsPath := utils.GetEnv("PRESET_CATALOG_PATH", "config/presets.yaml", log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Repos
  userRepo := repos.NewUserRepo(thePG, log)
  videoRepo := repos.NewVideoRepo(thePG, log)
  ugcRepo := repos.NewUGCMetadataRepo(thePG, log)
  runRepo := repos.NewGenerationRunRepo(thePG, log)
  analyticsRepo := repos.NewAnalyticsRepo(thePG, log)
  favoriteRepo := repos.NewFavoriteRepo(thePG, log)
  billingEventRepo := repos.NewBillingEventRepo(thePG, log)
  socialRepo := repos.NewSocialConnectionRepo(thePG, log)

  // SSE
  sseHub := sse.NewSSEHub(log)
  sseBus, err := redis.NewSSEBus(log)
  if err != nil {
    log.Warn("Redis SSE bus disabled", "error", err)
    sseBus = nil
  } else {
    if err := sseBus.StartForwarder(context.Background(), func(m sse.SSEMessage) {
      sseHub.Broadcast(m)
    }); err != nil {
      log.Warn("Redis SSE forwarder failed to start", "error", err)
    }
  }

  // Services
  bucketService, err := services.NewBucketService(log)
  if err != nil {
    log.Error("Could not init BucketService", "error", err)
    os.Exit(1)
  }
  openaiClient, err := services.NewOpenAIClient(log)
  if err != nil {
    log.Error("Could not init OpenAIClient", "error", err)
    os.Exit(1)
  }
  avatarService, err := services.NewAvatarService(log, bucketService)
  if err != nil {
    log.Error("Could not init AvatarService", "error", err)
    os.Exit(1)
  }
  placeholderRenderer, err := services.NewPlaceholderRenderer()
  if err != nil {
    log.Error("Could not init placeholder renderer", "error", err)
    os.Exit(1)
  }
  scriptProvider := services.NewScriptProviderService(log, openaiClient)
  speechProvider, err := services.NewSpeechProviderService(log)
  if err != nil {
    log.Error("Could not init SpeechProviderService", "error", err)
    os.Exit(1)
  }
  captionProvider, err := services.NewCaptionProviderService(log)
  if err != nil {
    log.Error("Could not init CaptionProviderService", "error", err)
    os.Exit(1)
  }
  imageProvider := services.NewImageProviderService(log, openaiClient, bucketService, placeholderRenderer)

  avatarPrimary, err := services.NewAvatarVideoProviderService(log, "heygen", "AVATAR_PRIMARY")
  if err != nil {
    log.Warn("Primary avatar vendor disabled", "error", err)
    avatarPrimary = nil
  }
  avatarSecondary, err := services.NewAvatarVideoProviderService(log, "did", "AVATAR_SECONDARY")
  if err != nil {
    log.Warn("Secondary avatar vendor disabled", "error", err)
    avatarSecondary = nil
  }

  presetCatalog, err := services.LoadPresetCatalog(presetsPath)
  if err != nil {
    log.Error("Could not load preset catalog", "path", presetsPath, "error", err)
    os.Exit(1)
  }

  authService := services.NewAuthService(thePG, log, userRepo, avatarService, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
  userService := services.NewUserService(thePG, log, userRepo)
  compositionService := services.NewCompositionService()
  videoService := services.NewVideoService(thePG, log, videoRepo, favoriteRepo, compositionService)
  analyticsService := services.NewAnalyticsService(thePG, log, videoRepo, analyticsRepo)
  billingService := services.NewBillingService(thePG, log, userRepo, billingEventRepo)
  socialService, err := services.NewSocialPublishService(thePG, log, videoRepo, socialRepo)
  if err != nil {
    log.Error("Could not init SocialPublishService", "error", err)
    os.Exit(1)
  }
  generationService := services.NewVideoGenerationService(
    thePG,
    log,
    sseHub,
    sseBus,
    videoRepo,
    ugcRepo,
    userRepo,
    runRepo,
    bucketService,
    scriptProvider,
    speechProvider,
    captionProvider,
    imageProvider,
    avatarPrimary,
    avatarSecondary,
    presetCatalog,
  )
  generationService.StartWorker(context.Background())

  // Handlers
  authHandler := handlers.NewAuthHandler(log, authService)
  userHandler := handlers.NewUserHandler(log, userService)
  videoHandler := handlers.NewVideoHandler(log, videoService)
  generateHandler := handlers.NewGenerateHandler(log, generationService)
  analyticsHandler := handlers.NewAnalyticsHandler(log, analyticsService, authService)
  socialHandler := handlers.NewSocialHandler(log, socialService)
  billingHandler := handlers.NewBillingWebhookHandler(log, billingService, stripeWebhookSecret)
  sseHandler := handlers.NewSSEHandler(log, sseHub)

  // Middleware
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  router := server.NewRouter(server.RouterConfig{
    AuthMiddleware:   authMiddleware,
    AuthHandler:      authHandler,
    UserHandler:      userHandler,
    VideoHandler:     videoHandler,
    GenerateHandler:  generateHandler,
    AnalyticsHandler: analyticsHandler,
    SocialHandler:    socialHandler,
    BillingHandler:   billingHandler,
    SSEHandler:       sseHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  log.Info("Server listening", "port", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
