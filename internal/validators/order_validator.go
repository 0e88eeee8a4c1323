package validators

import (
	"fmt"
	"strings"

	"fooddash/internal/models"
	"fooddash/internal/utils"
)

type AddressRequest struct {
	Street     string `json:"street" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"omitempty,max=100"`
	PostalCode string `json:"postal_code" validate:"omitempty,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
}

func (a *AddressRequest) ToModel() models.Address {
	return models.Address{
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
}

type OrderItemRequest struct {
	MenuItemID          string   `json:"menu_item_id" validate:"required,object_id"`
	Quantity            int      `json:"quantity" validate:"required,min=1,max=99"`
	Customizations      []string `json:"customizations" validate:"omitempty,max=20,dive,required,max=100"`
	SpecialInstructions string   `json:"special_instructions" validate:"omitempty,max=300"`
}

type PlaceOrderRequest struct {
	RestaurantID         string             `json:"restaurant_id" validate:"required,object_id"`
	Items                []OrderItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
	DeliveryType         string             `json:"delivery_type" validate:"required,oneof=delivery pickup"`
	DeliveryAddress      *AddressRequest    `json:"delivery_address" validate:"omitempty"`
	DeliveryLocation     []float64          `json:"delivery_location" validate:"omitempty,coordinates"`
	DeliveryInstructions string             `json:"delivery_instructions" validate:"omitempty,max=300"`
	ContactPhone         string             `json:"contact_phone" validate:"omitempty,phone_number"`
	CouponCode           string             `json:"coupon_code" validate:"omitempty,coupon_code"`
	Tip                  float64            `json:"tip" validate:"gte=0,lte=1000"`
}

// OrderCommandRequest is the wire form of an order command. Type selects the
// variant; the remaining fields are read according to it.
type OrderCommandRequest struct {
	Type         string  `json:"type" validate:"required,oneof=cancel advance assign_delivery open_dispute resolve_dispute"`
	Status       string  `json:"status" validate:"omitempty,order_status"`
	Reason       string  `json:"reason" validate:"omitempty,max=500"`
	Note         string  `json:"note" validate:"omitempty,max=500"`
	DriverName   string  `json:"driver_name" validate:"omitempty,max=100"`
	DriverPhone  string  `json:"driver_phone" validate:"omitempty,phone_number"`
	Resolution   string  `json:"resolution" validate:"omitempty,max=1000"`
	Approve      bool    `json:"approve"`
	RefundAmount float64 `json:"refund_amount" validate:"gte=0"`
}

type OrderListQuery struct {
	Status       string `form:"status" validate:"omitempty,order_status"`
	RestaurantID string `form:"restaurant_id" validate:"omitempty,object_id"`
	CustomerID   string `form:"customer_id" validate:"omitempty,object_id"`
	DisputeState string `form:"dispute_state" validate:"omitempty,oneof=open resolved rejected"`
	From         string `form:"from"`
	To           string `form:"to"`
}

func ValidatePlaceOrder(req *PlaceOrderRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if req.DeliveryType == string(models.DeliveryTypeDelivery) && req.DeliveryAddress == nil {
		errors = append(errors, ValidationError{
			Field:   "delivery_address",
			Message: "Delivery address is required for delivery orders",
		})
	}

	seen := make(map[string]bool, len(req.Items))
	for i, item := range req.Items {
		if seen[item.MenuItemID] && len(item.Customizations) == 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("items[%d].menu_item_id", i),
				Message: "Duplicate menu item, increase the quantity instead",
			})
		}
		seen[item.MenuItemID] = true
	}

	return errors
}

func ValidateOrderCommand(req *OrderCommandRequest) ValidationErrors {
	errors := ValidateStruct(req)

	switch req.Type {
	case "cancel":
		if strings.TrimSpace(req.Reason) == "" {
			errors = append(errors, ValidationError{Field: "reason", Message: "A reason is required to cancel an order"})
		}
	case "advance":
		if req.Status == "" {
			errors = append(errors, ValidationError{Field: "status", Message: "Target status is required"})
		}
	case "assign_delivery":
		if strings.TrimSpace(req.DriverName) == "" {
			errors = append(errors, ValidationError{Field: "driver_name", Message: "Driver name is required"})
		}
	case "open_dispute":
		if strings.TrimSpace(req.Reason) == "" {
			errors = append(errors, ValidationError{Field: "reason", Message: "A reason is required to open a dispute"})
		}
	case "resolve_dispute":
		if strings.TrimSpace(req.Resolution) == "" {
			errors = append(errors, ValidationError{Field: "resolution", Message: "A resolution is required"})
		}
	}

	return errors
}

// ToFilter converts the query into an order filter. Date bounds accept RFC3339
// or YYYY-MM-DD; a date-only upper bound covers the whole day.
func (q *OrderListQuery) ToFilter() (*models.OrderFilter, ValidationErrors) {
	errors := ValidateStruct(q)
	filter := &models.OrderFilter{
		Status:       models.OrderStatus(q.Status),
		DisputeState: models.DisputeState(q.DisputeState),
	}

	if q.RestaurantID != "" {
		if id, err := ParseObjectID(q.RestaurantID); err == nil {
			filter.RestaurantID = &id
		}
	}
	if q.CustomerID != "" {
		if id, err := ParseObjectID(q.CustomerID); err == nil {
			filter.CustomerID = &id
		}
	}
	if q.From != "" {
		from, err := utils.ParseDate(q.From)
		if err != nil {
			errors = append(errors, ValidationError{Field: "from", Message: "Invalid date"})
		} else {
			filter.From = &from
		}
	}
	if q.To != "" {
		to, err := utils.ParseDate(q.To)
		if err != nil {
			errors = append(errors, ValidationError{Field: "to", Message: "Invalid date"})
		} else {
			if len(q.To) == len("2006-01-02") {
				to = utils.EndOfDay(to)
			}
			filter.To = &to
		}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		errors = append(errors, ValidationError{Field: "to", Message: "End date must be after start date"})
	}

	return filter, errors
}
