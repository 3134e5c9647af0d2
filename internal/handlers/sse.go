package handlers

import (
  "net/http"
  "strings"
  "github.com/gin-gonic/gin"
  "github.com/yungbote/studioforge-backend/internal/requestdata"
  "github.com/yungbote/studioforge-backend/internal/sse"
)

type SSEHandler struct {
  hub *sse.SSEHub
}

func NewSSEHandler(hub *sse.SSEHub) *SSEHandler {
  return &SSEHandler{hub: hub}
}

// Stream subscribes the caller to the channels named in ?channels= (comma
// separated, e.g. "lesson:<id>") and streams transform progress events.
func (sh *SSEHandler) Stream(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
    return
  }
  client := sh.hub.NewSSEClient(rd.UserID)
  channels := strings.Split(c.Query("channels"), ",")
  subscribed := 0
  for _, ch := range channels {
    ch = strings.TrimSpace(ch)
    if ch == "" {
      continue
    }
    sh.hub.AddChannel(client, ch)
    subscribed++
  }
  if subscribed == 0 {
    c.JSON(http.StatusBadRequest, gin.H{"error": "no channels requested"})
    return
  }
  defer sh.hub.RemoveClient(client)
  sh.hub.ServeHTTP(c.Writer, c.Request, client)
}
