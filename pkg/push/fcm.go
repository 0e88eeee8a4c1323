package push

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type FCMProvider struct {
	client *messaging.Client
}

func NewFCMProvider(ctx context.Context, projectID, credentialsFile string) (*FCMProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FCMProvider{client: client}, nil
}

func (f *FCMProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	response, err := f.client.Send(ctx, f.buildMessage(request))
	if err != nil {
		return &NotificationResponse{
			Success:      false,
			Error:        err.Error(),
			Token:        request.Token,
			Unregistered: messaging.IsUnregistered(err),
		}, err
	}

	return &NotificationResponse{
		MessageID: response,
		Success:   true,
		Token:     request.Token,
	}, nil
}

func (f *FCMProvider) buildMessage(request *NotificationRequest) *messaging.Message {
	message := &messaging.Message{
		Token: request.Token,
		Data:  request.Data,
		Notification: &messaging.Notification{
			Title:    request.Title,
			Body:     request.Body,
			ImageURL: request.ImageURL,
		},
	}

	priority := "normal"
	if request.Priority == "high" {
		priority = "high"
	}

	android := &messaging.AndroidConfig{
		Priority:    priority,
		CollapseKey: request.CollapseKey,
		Notification: &messaging.AndroidNotification{
			Sound:     request.Sound,
			ChannelID: "orders",
		},
	}
	if request.TTLSeconds > 0 {
		ttl := time.Duration(request.TTLSeconds) * time.Second
		android.TTL = &ttl
	}
	message.Android = android

	return message
}
