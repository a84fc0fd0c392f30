package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/reelforge-backend/internal/services"
)

type APIError struct {
  Message string `json:"message"`
  Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses.
func RespondServiceError(c *gin.Context, err error) {
  code := services.ErrorCode(err)
  status := http.StatusInternalServerError
  switch code {
  case services.CodeValidationError:
    status = http.StatusBadRequest
  case services.CodeAuthError:
    status = http.StatusUnauthorized
  case services.CodeInsufficientBalance:
    status = http.StatusPaymentRequired
  case services.CodeScriptGenerationFailed,
    services.CodeSpeechSynthesisFailed,
    services.CodeCaptionAlignmentFailed:
    status = http.StatusBadGateway
  }
  RespondError(c, status, code, err)
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}
