package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/services"
  "github.com/yungbote/reelforge-backend/internal/sse"
)

type SSEHandler struct {
  log *logger.Logger
  hub *sse.SSEHub
}

func NewSSEHandler(baseLog *logger.Logger, hub *sse.SSEHub) *SSEHandler {
  return &SSEHandler{
    log: baseLog.With("handler", "SSEHandler"),
    hub: hub,
  }
}

// Stream subscribes the caller to their user channel and holds the
// connection open until the client disconnects.
func (h *SSEHandler) Stream(c *gin.Context) {
  rd, err := currentUser(c)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, services.CodeAuthError, err)
    return
  }
  client := h.hub.NewSSEClient(rd.UserID)
  h.hub.AddChannel(client, sse.UserChannel(rd.UserID))
  defer h.hub.CloseClient(client)

  h.hub.ServeHTTP(c.Writer, c.Request, client)
}
