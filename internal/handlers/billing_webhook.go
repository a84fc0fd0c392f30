package handlers

import (
  "io"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/stripe/stripe-go/v78/webhook"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/services"
)

const maxWebhookBodyBytes = 65536

type BillingWebhookHandler struct {
  log            *logger.Logger
  billingService services.BillingService
  webhookSecret  string
}

func NewBillingWebhookHandler(baseLog *logger.Logger, billingService services.BillingService, webhookSecret string) *BillingWebhookHandler {
  return &BillingWebhookHandler{
    log:            baseLog.With("handler", "BillingWebhookHandler"),
    billingService: billingService,
    webhookSecret:  webhookSecret,
  }
}

// HandleWebhook verifies the Stripe signature against the raw body. Internal
// failures after verification are logged and acknowledged with 200 so Stripe
// does not redeliver in a storm; only bad signatures get a 4xx.
func (h *BillingWebhookHandler) HandleWebhook(c *gin.Context) {
  body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
  if err != nil {
    RespondError(c, http.StatusRequestEntityTooLarge, services.CodeValidationError, err)
    return
  }

  event, err := webhook.ConstructEvent(body, c.GetHeader("Stripe-Signature"), h.webhookSecret)
  if err != nil {
    h.log.Warn("webhook signature verification failed", "error", err)
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }

  if err := h.billingService.HandleEvent(c.Request.Context(), event); err != nil {
    h.log.Error("billing event handling failed", "event_id", event.ID, "type", event.Type, "error", err)
  }
  c.JSON(http.StatusOK, gin.H{"received": true})
}
