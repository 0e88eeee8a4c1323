package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/events"
	"fooddash/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SideEffects runs the effects that follow an order mutation. Each effect is
// attempted inline; a retryable failure is written to the outbox for the relay
// and never reported to the caller.
type SideEffects struct {
	notifications NotificationService
	loyalty       LoyaltyService
	inventory     InventoryService
	publisher     events.Publisher
	outbox        interfaces.OutboxRepository
	logger        *logger.Logger
}

func NewSideEffects(
	notifications NotificationService,
	loyalty LoyaltyService,
	inventory InventoryService,
	publisher events.Publisher,
	outbox interfaces.OutboxRepository,
	log *logger.Logger,
) *SideEffects {
	if log == nil {
		log = logger.NewNop()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &SideEffects{
		notifications: notifications,
		loyalty:       loyalty,
		inventory:     inventory,
		publisher:     publisher,
		outbox:        outbox,
		logger:        log,
	}
}

func (e *SideEffects) Notify(ctx context.Context, orderID primitive.ObjectID, payload *models.NotificationPayload) {
	e.run(ctx, &models.OutboxMessage{Effect: models.OutboxEffectNotify, OrderID: orderID, Notification: payload})
}

func (e *SideEffects) EarnPoints(ctx context.Context, orderID, userID primitive.ObjectID, orderTotal float64) {
	e.run(ctx, &models.OutboxMessage{
		Effect:  models.OutboxEffectEarnPoints,
		OrderID: orderID,
		Points:  &models.PointsPayload{UserID: userID, OrderTotal: orderTotal},
	})
}

func (e *SideEffects) AdjustStock(ctx context.Context, orderID primitive.ObjectID, payload *models.StockPayload) {
	e.run(ctx, &models.OutboxMessage{Effect: models.OutboxEffectAdjustStock, OrderID: orderID, Stock: payload})
}

func (e *SideEffects) Publish(ctx context.Context, orderID primitive.ObjectID, event *events.OrderEvent) {
	e.run(ctx, &models.OutboxMessage{Effect: models.OutboxEffectPublish, OrderID: orderID, Event: event})
}

func (e *SideEffects) run(ctx context.Context, msg *models.OutboxMessage) {
	// The primary write is committed; a client hanging up must not cut the
	// effect short.
	ctx = context.WithoutCancel(ctx)

	err := e.Dispatch(ctx, msg)
	if err == nil {
		return
	}

	e.logger.LogSideEffectFailure(string(msg.Effect), msg.OrderID, err)
	if !IsRetryable(err) || e.outbox == nil {
		return
	}

	msg.Attempts = 1
	msg.LastError = err.Error()
	msg.NextAttemptAt = time.Now().Add(outboxBaseBackoff)
	if enqErr := e.outbox.Enqueue(ctx, msg); enqErr != nil {
		e.logger.WithError(enqErr).WithFields(map[string]interface{}{
			"effect":   string(msg.Effect),
			"order_id": msg.OrderID.Hex(),
		}).Error("Failed to enqueue side effect for retry")
	}
}

// Dispatch executes one effect. Effects are idempotent so the relay may call
// it again for a message that partly succeeded.
func (e *SideEffects) Dispatch(ctx context.Context, msg *models.OutboxMessage) error {
	switch msg.Effect {
	case models.OutboxEffectNotify:
		if msg.Notification == nil || e.notifications == nil {
			return errMissingPayload(msg)
		}
		_, err := e.notifications.Send(ctx, msg.Notification)
		return err

	case models.OutboxEffectEarnPoints:
		if msg.Points == nil || e.loyalty == nil {
			return errMissingPayload(msg)
		}
		_, err := e.loyalty.EarnPoints(ctx, msg.Points.UserID, msg.OrderID, msg.Points.OrderTotal)
		if IsAlreadyEarned(err) {
			return nil
		}
		return err

	case models.OutboxEffectAdjustStock:
		if msg.Stock == nil || e.inventory == nil {
			return errMissingPayload(msg)
		}
		_, err := e.inventory.ApplyOrderStock(ctx, msg.Stock.RestaurantID, msg.Stock.ItemID, msg.Stock.Quantity, msg.Stock.Reason, msg.Stock.Reference)
		return err

	case models.OutboxEffectPublish:
		if msg.Event == nil {
			return errMissingPayload(msg)
		}
		return e.publisher.Publish(ctx, msg.Event)
	}

	return fmt.Errorf("unknown side effect %q", msg.Effect)
}

func errMissingPayload(msg *models.OutboxMessage) error {
	return utils.NewValidationError(fmt.Sprintf("side effect %s has no payload or handler", msg.Effect), nil)
}

// IsRetryable reports whether a failed effect may succeed later. Missing
// entities and rule violations will not change on retry.
func IsRetryable(err error) bool {
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		return true
	}
	switch appErr.Kind {
	case utils.KindNotFound, utils.KindValidation, utils.KindState, utils.KindForbidden:
		return false
	}
	return true
}
