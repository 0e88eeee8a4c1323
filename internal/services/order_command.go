package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/events"
	"fooddash/pkg/maps"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderCommand is one of CancelOrder, AdvanceStatus, AssignDelivery,
// OpenDispute or ResolveDispute.
type OrderCommand interface {
	orderCommand()
}

type CancelOrder struct {
	Reason string
}

type AdvanceStatus struct {
	Status models.OrderStatus
	Note   string
}

type AssignDelivery struct {
	DriverName  string
	DriverPhone string
}

type OpenDispute struct {
	Reason string
}

type ResolveDispute struct {
	Approve      bool
	Resolution   string
	RefundAmount float64
}

func (CancelOrder) orderCommand()    {}
func (AdvanceStatus) orderCommand()  {}
func (AssignDelivery) orderCommand() {}
func (OpenDispute) orderCommand()    {}
func (ResolveDispute) orderCommand() {}

func (s *orderService) Execute(ctx context.Context, actor models.Actor, orderID primitive.ObjectID, cmd OrderCommand) (*models.Order, error) {
	switch c := cmd.(type) {
	case CancelOrder:
		return s.Transition(ctx, orderID, actor, models.OrderStatusCancelled, c.Reason)
	case AdvanceStatus:
		return s.Transition(ctx, orderID, actor, c.Status, c.Note)
	case AssignDelivery:
		return s.assignDelivery(ctx, actor, orderID, c)
	case OpenDispute:
		return s.openDispute(ctx, actor, orderID, c)
	case ResolveDispute:
		return s.resolveDispute(ctx, actor, orderID, c)
	}
	return nil, utils.NewValidationError(fmt.Sprintf("unsupported order command %T", cmd), nil)
}

func (s *orderService) assignDelivery(ctx context.Context, actor models.Actor, orderID primitive.ObjectID, cmd AssignDelivery) (*models.Order, error) {
	if strings.TrimSpace(cmd.DriverName) == "" {
		return nil, utils.NewValidationError(utils.ErrValidationFailed, map[string]string{"driver_name": "Driver name is required"})
	}

	order, restaurant, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.IsCustomer() || !canViewOrder(order, restaurant, actor) {
		return nil, utils.ErrNotPermitted
	}
	if order.DeliveryType != models.DeliveryTypeDelivery {
		return nil, utils.ErrInvalidTransition.WithMessage("pickup orders have no delivery")
	}
	if order.Status != models.OrderStatusPreparing && order.Status != models.OrderStatusReady {
		return nil, utils.ErrInvalidTransition.WithMessage("a driver can only be assigned while the order is preparing or ready")
	}

	now := s.now()
	assignment := &models.DeliveryAssignment{
		DriverName:  strings.TrimSpace(cmd.DriverName),
		DriverPhone: cmd.DriverPhone,
		AssignedBy:  actor.ID,
		AssignedAt:  now,
	}
	s.estimateArrival(ctx, restaurant, order, assignment)

	updated, err := s.orderRepo.UpdateGuarded(ctx, guardOf(order), map[string]interface{}{
		"delivery":   assignment,
		"updated_at": now,
	}, nil)
	if err != nil {
		return nil, lostRace(err)
	}

	message := fmt.Sprintf("%s will deliver your order %s", assignment.DriverName, order.OrderNumber)
	if assignment.EstimatedArrival != nil {
		message += fmt.Sprintf(", arriving around %s", assignment.EstimatedArrival.Format("15:04"))
	}
	s.effects.Notify(ctx, order.ID, &models.NotificationPayload{
		UserID:  order.CustomerID,
		Type:    models.NotificationTypeOrderStatus,
		Title:   "Driver assigned",
		Message: message,
		Data:    orderData(order),
	})

	s.logger.LogOrderEvent(order.ID, "delivery_assigned", map[string]interface{}{
		"driver":   assignment.DriverName,
		"actor_id": actor.ID.Hex(),
	})
	return updated, nil
}

func (s *orderService) estimateArrival(ctx context.Context, restaurant *models.Restaurant, order *models.Order, assignment *models.DeliveryAssignment) {
	if s.geocoder == nil || restaurant == nil || order.DeliveryLocation == nil || order.DeliveryLocation.IsZero() || restaurant.Location.IsZero() {
		return
	}

	estimate, err := s.geocoder.TravelTime(ctx,
		maps.Location{Latitude: restaurant.Location.Latitude(), Longitude: restaurant.Location.Longitude()},
		maps.Location{Latitude: order.DeliveryLocation.Latitude(), Longitude: order.DeliveryLocation.Longitude()},
	)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID.Hex()).Warn("Travel time estimate failed")
		return
	}

	eta := assignment.AssignedAt.Add(estimate.Duration)
	if order.Status == models.OrderStatusPreparing && restaurant.EstimatedPrepMinutes > 0 {
		eta = eta.Add(time.Duration(restaurant.EstimatedPrepMinutes) * time.Minute)
	}
	assignment.DistanceMeters = estimate.DistanceMeters
	assignment.EstimatedArrival = &eta
}

func (s *orderService) openDispute(ctx context.Context, actor models.Actor, orderID primitive.ObjectID, cmd OpenDispute) (*models.Order, error) {
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, utils.ErrMissingReason
	}

	order, restaurant, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.IsCustomer() && order.CustomerID == actor.ID) {
		return nil, utils.ErrNotPermitted
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, utils.ErrDisputeNotAllowed.WithMessage("only delivered orders can be disputed")
	}
	if order.Dispute != nil {
		return nil, utils.ErrDisputeNotAllowed.WithMessage("this order already has a dispute")
	}

	now := s.now()
	dispute := &models.Dispute{
		State:    models.DisputeStateOpen,
		Reason:   strings.TrimSpace(cmd.Reason),
		OpenedBy: actor.ID,
		OpenedAt: now,
	}
	updated, err := s.orderRepo.UpdateGuarded(ctx, guardOf(order), map[string]interface{}{
		"dispute":    dispute,
		"updated_at": now,
	}, nil)
	if err != nil {
		return nil, lostRace(err)
	}

	if restaurant != nil {
		s.effects.Notify(ctx, order.ID, &models.NotificationPayload{
			UserID:  restaurant.OwnerID,
			Type:    models.NotificationTypeOrderDispute,
			Title:   "Order disputed",
			Message: fmt.Sprintf("Order %s was disputed: %s", order.OrderNumber, dispute.Reason),
			Data:    orderData(order),
		})
	}
	s.effects.Publish(ctx, order.ID, orderEvent(events.EventDisputeOpened, updated, "", actor))

	s.logger.LogOrderEvent(order.ID, "dispute_opened", map[string]interface{}{"actor_id": actor.ID.Hex()})
	return updated, nil
}

func (s *orderService) resolveDispute(ctx context.Context, actor models.Actor, orderID primitive.ObjectID, cmd ResolveDispute) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, utils.ErrNotPermitted
	}
	if strings.TrimSpace(cmd.Resolution) == "" {
		return nil, utils.ErrMissingReason.WithMessage("a resolution is required")
	}

	order, _, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Dispute == nil || order.Dispute.State != models.DisputeStateOpen {
		return nil, utils.ErrDisputeNotAllowed.WithMessage("order has no open dispute")
	}
	if cmd.RefundAmount < 0 || cmd.RefundAmount > order.Pricing.Total {
		return nil, utils.NewValidationError(utils.ErrValidationFailed, map[string]string{
			"refund_amount": "Refund must be between 0 and the order total",
		})
	}

	now := s.now()
	state := models.DisputeStateRejected
	refund := 0.0
	if cmd.Approve {
		state = models.DisputeStateResolved
		refund = utils.ToAmount(utils.Money(cmd.RefundAmount))
	}

	updated, err := s.orderRepo.UpdateGuarded(ctx, guardOf(order), map[string]interface{}{
		"dispute.state":         state,
		"dispute.resolution":    strings.TrimSpace(cmd.Resolution),
		"dispute.refund_amount": refund,
		"dispute.resolved_by":   actor.ID,
		"dispute.resolved_at":   now,
		"updated_at":            now,
	}, nil)
	if err != nil {
		return nil, lostRace(err)
	}

	message := fmt.Sprintf("Your dispute for order %s was %s", order.OrderNumber, state)
	if refund > 0 {
		message += fmt.Sprintf(" with a refund of %s", utils.Money(refund).StringFixed(2))
	}
	s.effects.Notify(ctx, order.ID, &models.NotificationPayload{
		UserID:  order.CustomerID,
		Type:    models.NotificationTypeOrderDispute,
		Title:   "Dispute " + string(state),
		Message: message,
		Data:    orderData(order),
	})
	s.effects.Publish(ctx, order.ID, orderEvent(events.EventDisputeResolved, updated, "", actor))

	s.logger.LogOrderEvent(order.ID, "dispute_resolved", map[string]interface{}{
		"state":  string(state),
		"refund": refund,
	})
	return updated, nil
}

func guardOf(order *models.Order) interfaces.OrderGuard {
	return interfaces.OrderGuard{ID: order.ID, Status: order.Status, Version: order.Version}
}
