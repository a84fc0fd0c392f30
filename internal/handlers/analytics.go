package handlers

import (
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/requestdata"
  "github.com/yungbote/reelforge-backend/internal/services"
)

type AnalyticsHandler struct {
  log              *logger.Logger
  analyticsService services.AnalyticsService
  authService      services.AuthService
}

func NewAnalyticsHandler(baseLog *logger.Logger, analyticsService services.AnalyticsService, authService services.AuthService) *AnalyticsHandler {
  return &AnalyticsHandler{
    log:              baseLog.With("handler", "AnalyticsHandler"),
    analyticsService: analyticsService,
    authService:      authService,
  }
}

type trackRequest struct {
  Action   string `json:"action"`
  Platform string `json:"platform"`
}

// Track is public so shared players can report events. A bearer token, when
// present, attributes the event to the caller.
func (h *AnalyticsHandler) Track(c *gin.Context) {
  videoID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  var req trackRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }

  actorEmail := ""
  if header := c.GetHeader("Authorization"); len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
    if ctx, err := h.authService.SetContextFromToken(c.Request.Context(), header[7:]); err == nil {
      if rd := requestdata.GetRequestData(ctx); rd != nil {
        actorEmail = rd.UserEmail
      }
    }
  }

  meta := services.ClientMeta{
    IP:        c.ClientIP(),
    UserAgent: c.GetHeader("User-Agent"),
    Referrer:  c.GetHeader("Referer"),
  }
  if err := h.analyticsService.Track(c.Request.Context(), videoID, req.Action, req.Platform, actorEmail, meta); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"tracked": true})
}
