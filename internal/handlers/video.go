package handlers

import (
  "fmt"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/requestdata"
  "github.com/yungbote/reelforge-backend/internal/services"
)

type VideoHandler struct {
  log          *logger.Logger
  videoService services.VideoService
}

func NewVideoHandler(baseLog *logger.Logger, videoService services.VideoService) *VideoHandler {
  return &VideoHandler{
    log:          baseLog.With("handler", "VideoHandler"),
    videoService: videoService,
  }
}

// currentUser returns the identity the auth middleware attached.
func currentUser(c *gin.Context) (*requestdata.RequestData, error) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("no identity on request")
  }
  return rd, nil
}

func videoIDParam(c *gin.Context) (uuid.UUID, error) {
  return uuid.Parse(c.Param("id"))
}

func (h *VideoHandler) List(c *gin.Context) {
  rd, err := currentUser(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, services.CodeAuthError, err)
    return
  }
  videos, err := h.videoService.List(c.Request.Context(), rd.UserEmail)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, videos)
}

func (h *VideoHandler) Get(c *gin.Context) {
  rd, err := currentUser(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, services.CodeAuthError, err)
    return
  }
  id, err := videoIDParam(c)
  if err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  video, err := h.videoService.Get(c.Request.Context(), rd.UserEmail, id)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, video)
}

type updateVideoRequest struct {
  Name     *string `json:"name"`
  IsShared *bool   `json:"is_shared"`
}

func (h *VideoHandler) Update(c *gin.Context) {
  rd, err := currentUser(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, services.CodeAuthError, err)
    return
  }
  id, err := videoIDParam(c)
  if err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  var req updateVideoRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  ctx := c.Request.Context()
  if req.Name != nil {
    if err := h.videoService.Rename(ctx, rd.UserEmail, id, *req.Name); err != nil {
      RespondServiceError(c, err)
      return
    }
  }
  if req.IsShared != nil {
    if err := h.videoService.ToggleShare(ctx, rd.UserEmail, id, *req.IsShared); err != nil {
      RespondServiceError(c, err)
      return
    }
  }
  RespondOK(c, gin.H{"updated": true})
}

func (h *VideoHandler) Delete(c *gin.Context) {
  rd, err := currentUser(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, services.CodeAuthError, err)
    return
  }
  id, err := videoIDParam(c)
  if err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  if err := h.videoService.Delete(c.Request.Context(), rd.UserEmail, id); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"deleted": true})
}

func (h *VideoHandler) Composition(c *gin.Context) {
  rd, err := currentUser(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, services.CodeAuthError, err)
    return
  }
  id, err := videoIDParam(c)
  if err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  composition, err := h.videoService.Composition(c.Request.Context(), rd.UserEmail, id, c.Query("strategy"))
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, composition)
}

func (h *VideoHandler) Favorite(c *gin.Context) {
  rd, err := currentUser(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, services.CodeAuthError, err)
    return
  }
  id, err := videoIDParam(c)
  if err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  if err := h.videoService.Favorite(c.Request.Context(), rd.UserEmail, id); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"favorited": true})
}

func (h *VideoHandler) Unfavorite(c *gin.Context) {
  rd, err := currentUser(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, services.CodeAuthError, err)
    return
  }
  id, err := videoIDParam(c)
  if err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  if err := h.videoService.Unfavorite(c.Request.Context(), rd.UserEmail, id); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"favorited": false})
}

func (h *VideoHandler) ListFavorites(c *gin.Context) {
  rd, err := currentUser(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, services.CodeAuthError, err)
    return
  }
  videos, err := h.videoService.ListFavorites(c.Request.Context(), rd.UserEmail)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, videos)
}
