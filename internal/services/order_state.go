package services

import (
	"strings"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/utils"

	"github.com/shopspring/decimal"
)

var weekdayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// checkTransition decides whether actor may move order to target. Ownership
// failures are Forbidden; everything else the actor may not do is an invalid
// transition.
func checkTransition(order *models.Order, restaurant *models.Restaurant, actor models.Actor, target models.OrderStatus) error {
	if !target.IsValid() {
		return utils.ErrInvalidTransition.WithMessage("unknown order status " + string(target))
	}

	switch {
	case actor.IsCustomer():
		if order.CustomerID != actor.ID {
			return utils.ErrNotPermitted
		}
	case actor.IsRestaurant():
		if restaurant == nil || restaurant.OwnerID != actor.ID {
			return utils.ErrNotPermitted
		}
	case actor.IsAdmin():
	default:
		return utils.ErrNotPermitted
	}

	if order.Status.IsTerminal() {
		return utils.ErrInvalidTransition.WithMessage("order is already " + string(order.Status))
	}

	if target == models.OrderStatusCancelled {
		switch {
		case actor.IsAdmin():
			return nil
		case actor.IsRestaurant():
			if order.Status == models.OrderStatusPending || order.Status == models.OrderStatusConfirmed {
				return nil
			}
			return utils.ErrInvalidTransition.WithMessage("orders can only be declined before preparation starts")
		default:
			if order.Status == models.OrderStatusPending {
				return nil
			}
			return utils.ErrInvalidTransition.WithMessage("orders can only be cancelled while pending")
		}
	}

	if actor.IsCustomer() {
		return utils.ErrInvalidTransition.WithMessage("customers cannot advance an order")
	}

	next, ok := order.NextStatus()
	if !ok || next != target {
		return utils.ErrInvalidTransition.WithMessage(
			"order cannot move from " + string(order.Status) + " to " + string(target))
	}
	return nil
}

// canViewOrder reports whether actor may read order.
func canViewOrder(order *models.Order, restaurant *models.Restaurant, actor models.Actor) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.IsCustomer():
		return order.CustomerID == actor.ID
	case actor.IsRestaurant():
		return restaurant != nil && restaurant.OwnerID == actor.ID
	}
	return false
}

// RefundFor is the refund owed when order is cancelled by actor from its
// current status.
func RefundFor(order *models.Order, actor models.Actor) float64 {
	total := utils.Money(order.Pricing.Total)
	if actor.IsAdmin() {
		return utils.ToAmount(total)
	}

	switch order.Status {
	case models.OrderStatusPending, models.OrderStatusConfirmed:
		return utils.ToAmount(total)
	case models.OrderStatusPreparing:
		return utils.ToAmount(total.Div(decimal.NewFromInt(2)))
	}
	return 0
}

// IsOpenAt reports whether the restaurant accepts orders at t in its own
// timezone. A restaurant without operating hours is always open.
func IsOpenAt(restaurant *models.Restaurant, t time.Time) bool {
	if len(restaurant.OperatingHours) == 0 {
		return true
	}

	loc := time.UTC
	if restaurant.Timezone != "" {
		if l, err := time.LoadLocation(restaurant.Timezone); err == nil {
			loc = l
		}
	}
	local := t.In(loc)
	minute := local.Hour()*60 + local.Minute()

	today := hoursFor(restaurant, weekdayNames[local.Weekday()])
	if today != nil && !today.IsClosed {
		opening, openErr := utils.ParseHHMM(today.Open)
		closing, closeErr := utils.ParseHHMM(today.Close)
		if openErr == nil && closeErr == nil {
			if opening < closing && minute >= opening && minute < closing {
				return true
			}
			if closing < opening && minute >= opening {
				return true
			}
		}
	}

	// Yesterday's overnight window may still be running.
	yesterday := hoursFor(restaurant, weekdayNames[(local.Weekday()+6)%7])
	if yesterday != nil && !yesterday.IsClosed {
		opening, openErr := utils.ParseHHMM(yesterday.Open)
		closing, closeErr := utils.ParseHHMM(yesterday.Close)
		if openErr == nil && closeErr == nil && closing < opening && minute < closing {
			return true
		}
	}
	return false
}

func hoursFor(restaurant *models.Restaurant, day string) *models.OperatingHours {
	for i := range restaurant.OperatingHours {
		if strings.EqualFold(restaurant.OperatingHours[i].Day, day) {
			return &restaurant.OperatingHours[i]
		}
	}
	return nil
}

func statusTitle(status models.OrderStatus) string {
	switch status {
	case models.OrderStatusConfirmed:
		return "Order confirmed"
	case models.OrderStatusPreparing:
		return "Your order is being prepared"
	case models.OrderStatusReady:
		return "Your order is ready"
	case models.OrderStatusOutForDelivery:
		return "Your order is on the way"
	case models.OrderStatusDelivered:
		return "Order delivered"
	case models.OrderStatusCancelled:
		return "Order cancelled"
	}
	return "Order update"
}
