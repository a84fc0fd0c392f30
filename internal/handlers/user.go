package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/services"
)

type UserHandler struct {
  log         *logger.Logger
  userService services.UserService
}

func NewUserHandler(baseLog *logger.Logger, userService services.UserService) *UserHandler {
  return &UserHandler{
    log:         baseLog.With("handler", "UserHandler"),
    userService: userService,
  }
}

func (h *UserHandler) GetMe(c *gin.Context) {
  user, err := h.userService.GetMe(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  user.Password = ""
  RespondOK(c, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
  targetID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  var updates map[string]interface{}
  if err := c.ShouldBindJSON(&updates); err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  if err := h.userService.UpdateUserFields(c.Request.Context(), targetID, updates); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"updated": true})
}
