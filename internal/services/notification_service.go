package services

import (
	"context"
	"fmt"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/logger"
	"fooddash/pkg/push"
	"fooddash/pkg/sms"
	"fooddash/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// LiveSender delivers a message to a user's open websocket connections.
type LiveSender interface {
	SendToUser(ctx context.Context, userID string, message websocket.Message) error
}

type NotificationService interface {
	// Send persists the notification and fans it out to live, push and SMS
	// channels. Only the persistence error is returned.
	Send(ctx context.Context, payload *models.NotificationPayload) (*models.Notification, error)

	List(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, params *utils.PaginationParams) ([]*models.Notification, int64, error)
	UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, userID, id primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, userID, id primitive.ObjectID) error
	PurgeExpired(ctx context.Context) (int64, error)

	// Devices
	RegisterDevice(ctx context.Context, userID primitive.ObjectID, token models.DeviceToken) error
	RemoveDevice(ctx context.Context, userID primitive.ObjectID, token string) error
}

type notificationService struct {
	notificationRepo interfaces.NotificationRepository
	userRepo         interfaces.UserRepository
	live             LiveSender
	push             push.PushProvider
	sms              sms.SMSProvider
	cache            CacheService
	ttl              time.Duration
	logger           *logger.Logger
}

// NewNotificationService wires the delivery channels. live, pushProvider and
// smsProvider may each be nil, which disables that channel. A nil cache
// counts unread notifications straight from the store.
func NewNotificationService(
	notificationRepo interfaces.NotificationRepository,
	userRepo interfaces.UserRepository,
	live LiveSender,
	pushProvider push.PushProvider,
	smsProvider sms.SMSProvider,
	cacheService CacheService,
	ttl time.Duration,
	log *logger.Logger,
) NotificationService {
	if log == nil {
		log = logger.NewNop()
	}
	if cacheService == nil {
		cacheService = NewCacheService(nil, log)
	}
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		live:             live,
		push:             pushProvider,
		sms:              smsProvider,
		cache:            cacheService,
		ttl:              ttl,
		logger:           log,
	}
}

func (s *notificationService) Send(ctx context.Context, payload *models.NotificationPayload) (*models.Notification, error) {
	now := time.Now()
	notification := &models.Notification{
		UserID:    payload.UserID,
		Type:      payload.Type,
		Title:     payload.Title,
		Message:   payload.Message,
		Data:      payload.Data,
		CreatedAt: now,
	}
	if s.ttl > 0 {
		expiresAt := now.Add(s.ttl)
		notification.ExpiresAt = &expiresAt
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}
	s.cache.InvalidateUnread(ctx, notification.UserID)

	s.fanOut(ctx, notification, payload.SendSMS)
	return notification, nil
}

func (s *notificationService) fanOut(ctx context.Context, n *models.Notification, sendSMS bool) {
	log := s.logger.WithFields(map[string]interface{}{
		"notification_id": n.ID.Hex(),
		"user_id":         n.UserID.Hex(),
		"type":            string(n.Type),
	})

	var user *models.User
	if s.push != nil || (sendSMS && s.sms != nil) {
		u, err := s.userRepo.GetByID(ctx, n.UserID)
		if err != nil {
			log.WithError(err).Warn("Skipping push and SMS delivery, user lookup failed")
		} else {
			user = u
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if s.live != nil {
		g.Go(func() error {
			if err := s.live.SendToUser(gctx, n.UserID.Hex(), liveMessage(n)); err != nil {
				log.WithError(err).Warn("Live notification delivery failed")
			}
			return nil
		})
	}

	if s.push != nil && user != nil {
		for _, device := range user.DeviceTokens {
			device := device
			g.Go(func() error {
				s.sendPush(gctx, log, n, device)
				return nil
			})
		}
	}

	if sendSMS && s.sms != nil && user != nil && user.Phone != "" {
		g.Go(func() error {
			_, err := s.sms.SendSMS(gctx, &sms.SMSRequest{
				To:      user.Phone,
				Message: n.Title + ": " + n.Message,
				Type:    "transactional",
			})
			if err != nil {
				log.WithError(err).WithField("phone", utils.MaskPhone(user.Phone)).Warn("SMS delivery failed")
			}
			return nil
		})
	}

	_ = g.Wait()
}

func (s *notificationService) sendPush(ctx context.Context, log *logger.Logger, n *models.Notification, device models.DeviceToken) {
	resp, err := s.push.SendNotification(ctx, &push.NotificationRequest{
		Token:       device.Token,
		Platform:    push.Platform(device.Platform),
		Title:       n.Title,
		Body:        n.Message,
		Data:        n.Data,
		Priority:    "high",
		CollapseKey: string(n.Type),
	})
	if err == nil && resp != nil && resp.Success {
		return
	}

	log.WithError(err).WithField("platform", string(device.Platform)).Warn("Push delivery failed")
	if resp != nil && resp.Unregistered {
		if rmErr := s.userRepo.RemoveDeviceToken(ctx, n.UserID, device.Token); rmErr != nil {
			log.WithError(rmErr).Warn("Failed to remove stale device token")
		}
	}
}

func liveMessage(n *models.Notification) websocket.Message {
	data := map[string]interface{}{
		"id":      n.ID.Hex(),
		"type":    string(n.Type),
		"title":   n.Title,
		"message": n.Message,
	}
	for k, v := range n.Data {
		data[k] = v
	}
	return websocket.Message{
		Type:      "notification",
		UserID:    n.UserID.Hex(),
		Timestamp: n.CreatedAt.Unix(),
		Data:      data,
	}
}

func (s *notificationService) List(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	return s.notificationRepo.ListByUser(ctx, userID, unreadOnly, params)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.cache.UnreadCount(ctx, userID, func(ctx context.Context) (int64, error) {
		return s.notificationRepo.CountUnread(ctx, userID)
	})
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id primitive.ObjectID) error {
	if err := s.notificationRepo.MarkRead(ctx, id, userID); err != nil {
		return err
	}
	s.cache.InvalidateUnread(ctx, userID)
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	updated, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.cache.InvalidateUnread(ctx, userID)
	return updated, nil
}

func (s *notificationService) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
	if err := s.notificationRepo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.cache.InvalidateUnread(ctx, userID)
	return nil
}

func (s *notificationService) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := s.notificationRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.WithField("count", deleted).Info("Purged expired notifications")
	}
	return deleted, nil
}

func (s *notificationService) RegisterDevice(ctx context.Context, userID primitive.ObjectID, token models.DeviceToken) error {
	token.UpdatedAt = time.Now()
	return s.userRepo.RegisterDeviceToken(ctx, userID, token)
}

func (s *notificationService) RemoveDevice(ctx context.Context, userID primitive.ObjectID, token string) error {
	return s.userRepo.RemoveDeviceToken(ctx, userID, token)
}
