package middleware

import (
  "github.com/gin-gonic/gin"
  "github.com/yungbote/studioforge-backend/internal/services"
  "github.com/yungbote/studioforge-backend/internal/ssedata"
)

// AttachSSEBuffer gives the request a message buffer and publishes
// whatever accumulated once the handler chain finishes. Services append
// inside transactions; nothing goes out until the work committed.
func AttachSSEBuffer(bus services.SSEBusService) gin.HandlerFunc {
  return func(c *gin.Context) {
    ctx := ssedata.WithSSEData(c.Request.Context())
    c.Request = c.Request.WithContext(ctx)
    c.Next()
    if sd := ssedata.GetSSEData(ctx); sd != nil {
      for _, msg := range sd.Messages {
        bus.PublishEvent(msg)
      }
    }
  }
}
