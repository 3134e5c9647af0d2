package services

import (
  "context"
  "encoding/json"
  "github.com/redis/go-redis/v9"
  "github.com/yungbote/studioforge-backend/internal/logger"
  "github.com/yungbote/studioforge-backend/internal/sse"
)

const sseBusChannel = "studioforge:sse"

// SSEBusService fans SSE messages out across instances over Redis
// pub/sub. Every instance republishes received messages to its local hub.
type SSEBusService interface {
  PublishEvent(msg sse.SSEMessage)
  Start(ctx context.Context)
}

type sseBusService struct {
  rdb *redis.Client
  hub *sse.SSEHub
  log *logger.Logger
}

func NewSSEBusService(rdb *redis.Client, hub *sse.SSEHub, baseLog *logger.Logger) SSEBusService {
  serviceLog := baseLog.With("service", "SSEBusService")
  return &sseBusService{rdb: rdb, hub: hub, log: serviceLog}
}

func (sb *sseBusService) PublishEvent(msg sse.SSEMessage) {
  payload, err := json.Marshal(msg)
  if err != nil {
    sb.log.Error("Failed to encode SSE message", "error", err)
    return
  }
  if sb.rdb == nil {
    sb.hub.Broadcast(msg)
    return
  }
  if pErr := sb.rdb.Publish(context.Background(), sseBusChannel, payload).Err(); pErr != nil {
    // Redis being down should not silence local clients.
    sb.log.Warn("Failed to publish SSE message to redis, broadcasting locally", "error", pErr)
    sb.hub.Broadcast(msg)
  }
}

func (sb *sseBusService) Start(ctx context.Context) {
  if sb.rdb == nil {
    sb.log.Info("SSE bus running without redis, local broadcast only")
    return
  }
  pubsub := sb.rdb.Subscribe(ctx, sseBusChannel)
  go func() {
    defer pubsub.Close()
    ch := pubsub.Channel()
    sb.log.Info("SSE bus subscribed", "channel", sseBusChannel)
    for {
      select {
      case <-ctx.Done():
        return
      case m, ok := <-ch:
        if !ok {
          return
        }
        var msg sse.SSEMessage
        if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
          sb.log.Warn("Dropping malformed SSE bus message", "error", err)
          continue
        }
        sb.hub.Broadcast(msg)
      }
    }
  }()
}
