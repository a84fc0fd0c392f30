package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/services"
  "github.com/yungbote/reelforge-backend/internal/types"
)

type GenerateHandler struct {
  log               *logger.Logger
  generationService services.VideoGenerationService
}

func NewGenerateHandler(baseLog *logger.Logger, generationService services.VideoGenerationService) *GenerateHandler {
  return &GenerateHandler{
    log:               baseLog.With("handler", "GenerateHandler"),
    generationService: generationService,
  }
}

// Enqueue accepts the generation settings, checks balance pre-flight and
// returns 202 with the queued run. Progress arrives over SSE.
func (h *GenerateHandler) Enqueue(c *gin.Context) {
  rd, err := currentUser(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, services.CodeAuthError, err)
    return
  }
  var settings types.GenerationSettings
  if err := c.ShouldBindJSON(&settings); err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  run, err := h.generationService.Enqueue(c.Request.Context(), rd.UserID, &settings)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusAccepted, run)
}

func (h *GenerateHandler) GetRun(c *gin.Context) {
  rd, err := currentUser(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, services.CodeAuthError, err)
    return
  }
  runID, err := uuid.Parse(c.Param("runId"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  run, err := h.generationService.GetRun(c.Request.Context(), rd.UserID, runID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, run)
}
