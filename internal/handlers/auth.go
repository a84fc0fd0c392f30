package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/services"
  "github.com/yungbote/reelforge-backend/internal/types"
)

type AuthHandler struct {
  log         *logger.Logger
  authService services.AuthService
}

func NewAuthHandler(baseLog *logger.Logger, authService services.AuthService) *AuthHandler {
  return &AuthHandler{
    log:         baseLog.With("handler", "AuthHandler"),
    authService: authService,
  }
}

type registerRequest struct {
  Email    string `json:"email"`
  Password string `json:"password"`
  Name     string `json:"name"`
}

type loginRequest struct {
  Email    string `json:"email"`
  Password string `json:"password"`
}

type authResponse struct {
  Token string             `json:"token"`
  User  *types.UserAccount `json:"user"`
}

func (h *AuthHandler) Register(c *gin.Context) {
  var req registerRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  user, token, err := h.authService.RegisterUser(c.Request.Context(), req.Email, req.Password, req.Name)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  user.Password = ""
  c.JSON(http.StatusCreated, authResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(c *gin.Context) {
  var req loginRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, services.CodeValidationError, err)
    return
  }
  user, token, err := h.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  user.Password = ""
  RespondOK(c, authResponse{Token: token, User: user})
}
