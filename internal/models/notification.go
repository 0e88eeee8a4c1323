package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeOrderPlaced     NotificationType = "order_placed"
	NotificationTypeOrderStatus     NotificationType = "order_status"
	NotificationTypeOrderCancelled  NotificationType = "order_cancelled"
	NotificationTypeOrderDispute    NotificationType = "order_dispute"
	NotificationTypeLowStock        NotificationType = "low_stock"
	NotificationTypeItemUnavailable NotificationType = "item_unavailable"
	NotificationTypeLoyalty         NotificationType = "loyalty"
	NotificationTypeReview          NotificationType = "review"
	NotificationTypeGeneral         NotificationType = "general"
)

type Notification struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Type      NotificationType   `json:"type" bson:"type"`
	Title     string             `json:"title" bson:"title"`
	Message   string             `json:"message" bson:"message"`
	Data      map[string]string  `json:"data,omitempty" bson:"data,omitempty"`
	IsRead    bool               `json:"is_read" bson:"is_read"`
	ReadAt    *time.Time         `json:"read_at,omitempty" bson:"read_at,omitempty"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
