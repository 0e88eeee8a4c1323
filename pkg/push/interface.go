package push

import (
	"context"
	"errors"
)

type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformWeb     Platform = "web"
)

var ErrNoProvider = errors.New("no push provider configured for platform")

type PushProvider interface {
	SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error)
}

type NotificationRequest struct {
	Token       string            `json:"token"`
	Platform    Platform          `json:"platform"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	ImageURL    string            `json:"image_url,omitempty"`
	Sound       string            `json:"sound,omitempty"`
	Priority    string            `json:"priority,omitempty"` // high, normal
	TTLSeconds  int               `json:"ttl,omitempty"`
	CollapseKey string            `json:"collapse_key,omitempty"`
}

type NotificationResponse struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Token     string `json:"token,omitempty"`
	// Unregistered is set when the provider reports the token as dead.
	Unregistered bool `json:"unregistered,omitempty"`
}

// Router sends each request through the provider registered for its platform.
type Router struct {
	providers map[Platform]PushProvider
}

func NewRouter() *Router {
	return &Router{providers: make(map[Platform]PushProvider)}
}

func (r *Router) Register(platform Platform, provider PushProvider) {
	if provider != nil {
		r.providers[platform] = provider
	}
}

func (r *Router) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	provider, ok := r.providers[request.Platform]
	if !ok {
		return &NotificationResponse{Success: false, Error: ErrNoProvider.Error(), Token: request.Token}, ErrNoProvider
	}
	return provider.SendNotification(ctx, request)
}
