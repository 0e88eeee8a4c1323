package interfaces

import (
	"context"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID primitive.ObjectID, unreadOnly bool, params *utils.PaginationParams) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
