package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/services"
)

var errMissingOAuthParams = errors.New("code and state query params required")

type SocialHandler struct {
  log            *logger.Logger
  publishService services.SocialPublishService
}

func NewSocialHandler(baseLog *logger.Logger, publishService services.SocialPublishService) *SocialHandler {
  return &SocialHandler{
    log:            baseLog.With("handler", "SocialHandler"),
    publishService: publishService,
  }
}

func (h *SocialHandler) AuthURL(c *gin.Context) {
  rd, err := currentUser(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, services.CodeAuthError, err)
    return
  }
  url, err := h.publishService.BuildAuthURL(rd.UserEmail, c.Param("platform"))
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"auth_url": url})
}

// Callback is public; the HMAC-signed state carries the user binding.
func (h *SocialHandler) Callback(c *gin.Context) {
  platform := c.Param("platform")
  code := c.Query("code")
  state := c.Query("state")
  if code == "" || state == "" {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError,
      errMissingOAuthParams)
    return
  }
  email, err := h.publishService.HandleCallback(c.Request.Context(), platform, code, state)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"connected": true, "platform": platform, "user": email})
}

type socialUploadRequest struct {
  VideoID     uuid.UUID `json:"video_id"`
  Title       string    `json:"title"`
  Description string    `json:"description"`
  Hashtags    []string  `json:"hashtags"`
}

func (h *SocialHandler) Upload(c *gin.Context) {
  rd, err := currentUser(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, services.CodeAuthError, err)
    return
  }
  var req socialUploadRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  url, err := h.publishService.Upload(c.Request.Context(), rd.UserEmail, c.Param("platform"), req.VideoID, req.Title, req.Description, req.Hashtags)
  if err != nil {
    h.log.Warn("social upload failed", "platform", c.Param("platform"), "video_id", req.VideoID, "error", err)
    c.JSON(http.StatusBadGateway, gin.H{
      "error": gin.H{
        "message": err.Error(),
        "hint":    "download the video and upload it to the platform manually",
      },
    })
    return
  }
  RespondOK(c, gin.H{"url": url})
}
