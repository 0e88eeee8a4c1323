package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"fooddash/pkg/cache"
	"fooddash/pkg/logger"
)

const relayChannel = "fooddash:ws:user-messages"

type envelope struct {
	UserID  string  `json:"user_id"`
	Message Message `json:"message"`
}

// Relay fans user messages out to every server instance through Redis pub/sub.
// Without a cache it delivers straight to the local hub.
type Relay struct {
	hub    *Hub
	cache  *cache.RedisCache
	logger *logger.Logger
}

func NewRelay(hub *Hub, redisCache *cache.RedisCache, log *logger.Logger) *Relay {
	return &Relay{
		hub:    hub,
		cache:  redisCache,
		logger: log,
	}
}

func (r *Relay) SendToUser(ctx context.Context, userID string, message Message) error {
	if r.cache == nil {
		r.hub.SendToUser(userID, message)
		return nil
	}

	if err := r.cache.Publish(ctx, relayChannel, envelope{UserID: userID, Message: message}); err != nil {
		return fmt.Errorf("failed to publish websocket message: %w", err)
	}
	return nil
}

// Listen blocks, delivering relayed messages to local connections until ctx ends.
func (r *Relay) Listen(ctx context.Context) error {
	if r.cache == nil {
		<-ctx.Done()
		return nil
	}

	sub := r.cache.Subscribe(ctx, relayChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.WithError(err).Warn("dropping malformed relay message")
				continue
			}
			r.hub.SendToUser(env.UserID, env.Message)
		}
	}
}
