package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCancelled     = "order.cancelled"
	EventDisputeOpened      = "order.dispute_opened"
	EventDisputeResolved    = "order.dispute_resolved"
)

// OrderEvent is the payload published for every order lifecycle change.
type OrderEvent struct {
	Type         string    `json:"type" bson:"type"`
	OrderID      string    `json:"order_id" bson:"order_id"`
	OrderNumber  string    `json:"order_number" bson:"order_number"`
	CustomerID   string    `json:"customer_id" bson:"customer_id"`
	RestaurantID string    `json:"restaurant_id" bson:"restaurant_id"`
	FromStatus   string    `json:"from_status,omitempty" bson:"from_status,omitempty"`
	ToStatus     string    `json:"to_status" bson:"to_status"`
	ActorID      string    `json:"actor_id" bson:"actor_id"`
	ActorRole    string    `json:"actor_role" bson:"actor_role"`
	Total        float64   `json:"total" bson:"total"`
	OccurredAt   time.Time `json:"occurred_at" bson:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event *OrderEvent) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string, writeTimeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: writeTimeout,
		},
	}
}

// Publish writes synchronously so the caller can park failures in the outbox.
// Events are keyed by order ID to keep one order's events on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event *OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *OrderEvent) error { return nil }
func (NopPublisher) Close() error                               { return nil }
