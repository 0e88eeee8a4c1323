package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fooddash/pkg/events"
)

type OutboxEffect string
type OutboxStatus string

const (
	OutboxEffectNotify      OutboxEffect = "notify"
	OutboxEffectEarnPoints  OutboxEffect = "earn_points"
	OutboxEffectAdjustStock OutboxEffect = "adjust_stock"
	OutboxEffectPublish     OutboxEffect = "publish_event"

	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusDone    OutboxStatus = "done"
	OutboxStatusDead    OutboxStatus = "dead"
)

// OutboxMessage is a side effect that failed inline and waits for a retry.
// Exactly one payload field is set, matching Effect.
type OutboxMessage struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Effect        OutboxEffect         `json:"effect" bson:"effect"`
	OrderID       primitive.ObjectID   `json:"order_id" bson:"order_id"`
	Notification  *NotificationPayload `json:"notification,omitempty" bson:"notification,omitempty"`
	Points        *PointsPayload       `json:"points,omitempty" bson:"points,omitempty"`
	Stock         *StockPayload        `json:"stock,omitempty" bson:"stock,omitempty"`
	Event         *events.OrderEvent   `json:"event,omitempty" bson:"event,omitempty"`
	Status        OutboxStatus         `json:"status" bson:"status"`
	Attempts      int                  `json:"attempts" bson:"attempts"`
	LastError     string               `json:"last_error,omitempty" bson:"last_error,omitempty"`
	NextAttemptAt time.Time            `json:"next_attempt_at" bson:"next_attempt_at"`
	CreatedAt     time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" bson:"updated_at"`
}

type NotificationPayload struct {
	UserID  primitive.ObjectID `json:"user_id" bson:"user_id"`
	Type    NotificationType   `json:"type" bson:"type"`
	Title   string             `json:"title" bson:"title"`
	Message string             `json:"message" bson:"message"`
	Data    map[string]string  `json:"data,omitempty" bson:"data,omitempty"`
	SendSMS bool               `json:"send_sms" bson:"send_sms"`
}

type PointsPayload struct {
	UserID     primitive.ObjectID `json:"user_id" bson:"user_id"`
	OrderTotal float64            `json:"order_total" bson:"order_total"`
}

type StockPayload struct {
	RestaurantID primitive.ObjectID `json:"restaurant_id" bson:"restaurant_id"`
	ItemID       primitive.ObjectID `json:"item_id" bson:"item_id"`
	Quantity     int                `json:"quantity" bson:"quantity"`
	Reason       string             `json:"reason" bson:"reason"`
	Reference    string             `json:"reference" bson:"reference"`
}
