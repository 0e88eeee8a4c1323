package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string
type DeliveryType string
type DisputeState string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"

	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypePickup   DeliveryType = "pickup"

	DisputeStateOpen     DisputeState = "open"
	DisputeStateResolved DisputeState = "resolved"
	DisputeStateRejected DisputeState = "rejected"
)

// OrderStatusFlow is the forward path every order follows.
var OrderStatusFlow = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

func (s OrderStatus) IsValid() bool {
	if s == OrderStatusCancelled {
		return true
	}
	for _, st := range OrderStatusFlow {
		if st == s {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Next returns the forward successor of s, if any.
func (s OrderStatus) Next() (OrderStatus, bool) {
	for i, st := range OrderStatusFlow {
		if st == s && i+1 < len(OrderStatusFlow) {
			return OrderStatusFlow[i+1], true
		}
	}
	return "", false
}

// NextStatus is the forward successor for this order. Pickup orders go from
// ready straight to delivered.
func (o *Order) NextStatus() (OrderStatus, bool) {
	if o.DeliveryType == DeliveryTypePickup && o.Status == OrderStatusReady {
		return OrderStatusDelivered, true
	}
	return o.Status.Next()
}

type Order struct {
	ID                   primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	OrderNumber          string              `json:"order_number" bson:"order_number"`
	CustomerID           primitive.ObjectID  `json:"customer_id" bson:"customer_id"`
	RestaurantID         primitive.ObjectID  `json:"restaurant_id" bson:"restaurant_id"`
	Items                []OrderItem         `json:"items" bson:"items"`
	Status               OrderStatus         `json:"status" bson:"status"`
	StatusHistory        []StatusChange      `json:"status_history" bson:"status_history"`
	Pricing              Pricing             `json:"pricing" bson:"pricing"`
	DeliveryType         DeliveryType        `json:"delivery_type" bson:"delivery_type"`
	DeliveryAddress      *Address            `json:"delivery_address,omitempty" bson:"delivery_address,omitempty"`
	DeliveryLocation     *GeoPoint           `json:"delivery_location,omitempty" bson:"delivery_location,omitempty"`
	DeliveryInstructions string              `json:"delivery_instructions,omitempty" bson:"delivery_instructions,omitempty"`
	ContactPhone         string              `json:"contact_phone,omitempty" bson:"contact_phone,omitempty"`
	Delivery             *DeliveryAssignment `json:"delivery,omitempty" bson:"delivery,omitempty"`
	CouponID             *primitive.ObjectID `json:"coupon_id,omitempty" bson:"coupon_id,omitempty"`
	CouponCode           string              `json:"coupon_code,omitempty" bson:"coupon_code,omitempty"`
	Cancellation         *Cancellation       `json:"cancellation,omitempty" bson:"cancellation,omitempty"`
	Dispute              *Dispute            `json:"dispute,omitempty" bson:"dispute,omitempty"`
	ReviewEligible       bool                `json:"review_eligible" bson:"review_eligible"`
	DeliveredAt          *time.Time          `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	Version              int64               `json:"version" bson:"version"`
	CreatedAt            time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at" bson:"updated_at"`
}

type OrderItem struct {
	MenuItemID          primitive.ObjectID `json:"menu_item_id" bson:"menu_item_id"`
	Name                string             `json:"name" bson:"name"`
	Quantity            int                `json:"quantity" bson:"quantity"`
	UnitPrice           float64            `json:"unit_price" bson:"unit_price"`
	Customizations      []MenuOption       `json:"customizations,omitempty" bson:"customizations"`
	LineTotal           float64            `json:"line_total" bson:"line_total"`
	SpecialInstructions string             `json:"special_instructions,omitempty" bson:"special_instructions,omitempty"`
}

type StatusChange struct {
	Status    OrderStatus        `json:"status" bson:"status"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
	Note      string             `json:"note,omitempty" bson:"note,omitempty"`
	ActorID   primitive.ObjectID `json:"actor_id" bson:"actor_id"`
	ActorRole Role               `json:"actor_role" bson:"actor_role"`
}

// Pricing amounts are in the platform currency, rounded to cents.
// Total = Subtotal + DeliveryFee + ServiceFee + Tax + Tip - Discount.
type Pricing struct {
	Subtotal    float64 `json:"subtotal" bson:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee" bson:"delivery_fee"`
	ServiceFee  float64 `json:"service_fee" bson:"service_fee"`
	Tax         float64 `json:"tax" bson:"tax"`
	Discount    float64 `json:"discount" bson:"discount"`
	Tip         float64 `json:"tip" bson:"tip"`
	Total       float64 `json:"total" bson:"total"`
}

type DeliveryAssignment struct {
	DriverName       string             `json:"driver_name" bson:"driver_name"`
	DriverPhone      string             `json:"driver_phone,omitempty" bson:"driver_phone,omitempty"`
	AssignedBy       primitive.ObjectID `json:"assigned_by" bson:"assigned_by"`
	AssignedAt       time.Time          `json:"assigned_at" bson:"assigned_at"`
	DistanceMeters   int                `json:"distance_meters,omitempty" bson:"distance_meters,omitempty"`
	EstimatedArrival *time.Time         `json:"estimated_arrival,omitempty" bson:"estimated_arrival,omitempty"`
}

type Cancellation struct {
	Reason       string             `json:"reason" bson:"reason"`
	CancelledBy  primitive.ObjectID `json:"cancelled_by" bson:"cancelled_by"`
	Role         Role               `json:"role" bson:"role"`
	RefundAmount float64            `json:"refund_amount" bson:"refund_amount"`
	CancelledAt  time.Time          `json:"cancelled_at" bson:"cancelled_at"`
}

type Dispute struct {
	State        DisputeState        `json:"state" bson:"state"`
	Reason       string              `json:"reason" bson:"reason"`
	OpenedBy     primitive.ObjectID  `json:"opened_by" bson:"opened_by"`
	OpenedAt     time.Time           `json:"opened_at" bson:"opened_at"`
	Resolution   string              `json:"resolution,omitempty" bson:"resolution,omitempty"`
	RefundAmount float64             `json:"refund_amount,omitempty" bson:"refund_amount,omitempty"`
	ResolvedBy   *primitive.ObjectID `json:"resolved_by,omitempty" bson:"resolved_by,omitempty"`
	ResolvedAt   *time.Time          `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
}

// OrderFilter narrows order listings. Zero values are ignored.
type OrderFilter struct {
	CustomerID   *primitive.ObjectID
	RestaurantID *primitive.ObjectID
	// RestaurantIDs limits results to any of these restaurants when set.
	RestaurantIDs []primitive.ObjectID
	Status        OrderStatus
	DisputeState  DisputeState
	From          *time.Time
	To            *time.Time
}
