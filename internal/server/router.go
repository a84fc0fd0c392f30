package server

import (
  "os"
  "strings"

  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/yungbote/reelforge-backend/internal/handlers"
  "github.com/yungbote/reelforge-backend/internal/middleware"
)

type RouterConfig struct {
  AuthMiddleware   *middleware.AuthMiddleware
  AuthHandler      *handlers.AuthHandler
  UserHandler      *handlers.UserHandler
  VideoHandler     *handlers.VideoHandler
  GenerateHandler  *handlers.GenerateHandler
  AnalyticsHandler *handlers.AnalyticsHandler
  SocialHandler    *handlers.SocialHandler
  BillingHandler   *handlers.BillingWebhookHandler
  SSEHandler       *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  router.Use(cors.New(cors.Config{
    AllowOrigins:     allowedOrigins(),
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "Stripe-Signature"},
    AllowCredentials: true,
  }))

  router.GET("/healthcheck", handlers.HealthCheck)

  api := router.Group("/api")

  // Public
  api.POST("/auth/register", cfg.AuthHandler.Register)
  api.POST("/auth/login", cfg.AuthHandler.Login)
  api.POST("/videos/:id/track", cfg.AnalyticsHandler.Track)
  api.GET("/social/:platform/callback", cfg.SocialHandler.Callback)
  api.POST("/billing/webhook", cfg.BillingHandler.HandleWebhook)

  // Protected
  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())

  protected.GET("/user", cfg.UserHandler.GetMe)
  protected.PATCH("/user/:id", cfg.UserHandler.UpdateUser)

  protected.POST("/videos/generate", cfg.GenerateHandler.Enqueue)
  protected.GET("/videos/generate/:runId", cfg.GenerateHandler.GetRun)

  protected.GET("/videos", cfg.VideoHandler.List)
  protected.GET("/videos/:id", cfg.VideoHandler.Get)
  protected.PATCH("/videos/:id", cfg.VideoHandler.Update)
  protected.DELETE("/videos/:id", cfg.VideoHandler.Delete)
  protected.GET("/videos/:id/composition", cfg.VideoHandler.Composition)
  protected.POST("/videos/:id/favorite", cfg.VideoHandler.Favorite)
  protected.DELETE("/videos/:id/favorite", cfg.VideoHandler.Unfavorite)
  protected.GET("/favorites", cfg.VideoHandler.ListFavorites)

  protected.POST("/social/:platform/auth-url", cfg.SocialHandler.AuthURL)
  protected.POST("/social/:platform/upload", cfg.SocialHandler.Upload)

  protected.GET("/sse/stream", cfg.SSEHandler.Stream)

  return router
}

func allowedOrigins() []string {
  if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
    parts := strings.Split(raw, ",")
    origins := make([]string, 0, len(parts))
    for _, p := range parts {
      if p = strings.TrimSpace(p); p != "" {
        origins = append(origins, p)
      }
    }
    return origins
  }
  return []string{"http://localhost:3000", "http://localhost:5173"}
}
