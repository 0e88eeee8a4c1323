package push

import (
	"context"
	"fmt"
	"time"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

type APNSProvider struct {
	client *apns2.Client
	topic  string
}

func NewAPNSProvider(keyFile, keyID, teamID, topic string, production bool) (*APNSProvider, error) {
	authKey, err := token.AuthKeyFromFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	})
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNSProvider{
		client: client,
		topic:  topic,
	}, nil
}

func (a *APNSProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	response, err := a.client.PushWithContext(ctx, a.buildNotification(request))
	if err != nil {
		return &NotificationResponse{
			Success: false,
			Error:   err.Error(),
			Token:   request.Token,
		}, err
	}

	if response.Sent() {
		return &NotificationResponse{
			MessageID: response.ApnsID,
			Success:   true,
			Token:     request.Token,
		}, nil
	}

	return &NotificationResponse{
		Success:      false,
		Error:        response.Reason,
		Token:        request.Token,
		Unregistered: response.Reason == apns2.ReasonUnregistered || response.Reason == apns2.ReasonBadDeviceToken,
	}, fmt.Errorf("APNS error: %s", response.Reason)
}

func (a *APNSProvider) buildNotification(request *NotificationRequest) *apns2.Notification {
	p := payload.NewPayload().AlertTitle(request.Title).AlertBody(request.Body)
	if request.Sound != "" {
		p = p.Sound(request.Sound)
	}
	for key, value := range request.Data {
		p = p.Custom(key, value)
	}

	notification := &apns2.Notification{
		DeviceToken: request.Token,
		Topic:       a.topic,
		Payload:     p,
		Priority:    apns2.PriorityLow,
		CollapseID:  request.CollapseKey,
	}

	if request.Priority == "high" {
		notification.Priority = apns2.PriorityHigh
	}

	if request.TTLSeconds > 0 {
		notification.Expiration = time.Now().Add(time.Duration(request.TTLSeconds) * time.Second)
	}

	return notification
}
