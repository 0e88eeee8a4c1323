package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fooddash/internal/models"
	"fooddash/internal/utils"
	"fooddash/pkg/events"
	"fooddash/pkg/maps"
)

type fakeGeocoder struct {
	geocodeErr error
	travel     *maps.TravelEstimate
}

func (g *fakeGeocoder) Geocode(_ context.Context, address string) (*maps.GeocodeResult, error) {
	if g.geocodeErr != nil {
		return nil, g.geocodeErr
	}
	return &maps.GeocodeResult{Address: address, Coordinates: maps.Location{Latitude: 52.52, Longitude: 13.405}}, nil
}

func (g *fakeGeocoder) TravelTime(context.Context, maps.Location, maps.Location) (*maps.TravelEstimate, error) {
	if g.travel == nil {
		return nil, maps.ErrNoResults
	}
	return g.travel, nil
}

type orderFixture struct {
	svc           *orderService
	orders        *memOrders
	items         *memMenuItems
	users         *memUsers
	coupons       *memCoupons
	notifications *memNotifications
	outbox        *memOutbox
	publisher     *recordingPublisher
	geocoder      *fakeGeocoder

	restaurant *models.Restaurant
	pasta      *models.MenuItem
	salad      *models.MenuItem

	customer models.Actor
	owner    models.Actor
	admin    models.Actor
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	f := &orderFixture{
		customer: models.Actor{ID: primitive.NewObjectID(), Role: models.RoleCustomer},
		owner:    models.Actor{ID: primitive.NewObjectID(), Role: models.RoleRestaurant},
		admin:    models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin},
	}
	f.restaurant = &models.Restaurant{
		ID:                   primitive.NewObjectID(),
		OwnerID:              f.owner.ID,
		Name:                 "Trattoria",
		Location:             models.NewGeoPoint(52.5, 13.4),
		DeliveryFee:          2.99,
		MinimumOrder:         15,
		EstimatedPrepMinutes: 15,
		IsActive:             true,
	}
	f.pasta = &models.MenuItem{
		ID:           primitive.NewObjectID(),
		RestaurantID: f.restaurant.ID,
		Name:         "Carbonara",
		Price:        12.5,
		Options:      []models.MenuOption{{Name: "extra cheese", Price: 1.5}},
		IsAvailable:  true,
		Inventory:    models.Inventory{CurrentStock: 10, LowStockThreshold: 2},
	}
	f.salad = &models.MenuItem{
		ID:           primitive.NewObjectID(),
		RestaurantID: f.restaurant.ID,
		Name:         "Caprese",
		Price:        8,
		IsAvailable:  true,
		Inventory:    models.Inventory{CurrentStock: 5, LowStockThreshold: 1},
	}

	save10 := activeCoupon("SAVE10", models.DiscountTypePercentage, 10)
	save10.MaxDiscountAmount = floatPtr(5)
	save10.MinOrderValue = 20

	restaurants := newMemRestaurants(f.restaurant)
	f.orders = newMemOrders()
	f.items = newMemMenuItems(f.pasta, f.salad)
	f.users = newMemUsers(
		&models.User{ID: f.customer.ID, Role: models.RoleCustomer},
		&models.User{ID: f.owner.ID, Role: models.RoleRestaurant},
	)
	f.coupons = newMemCoupons(save10)
	f.notifications = &memNotifications{}
	f.outbox = newMemOutbox()
	f.publisher = &recordingPublisher{}
	f.geocoder = &fakeGeocoder{}

	notifier := NewNotificationService(f.notifications, f.users, nil, nil, nil, nil, 0, nil)
	loyalty := NewLoyaltyService(f.users, &memLoyalty{}, 365*24*time.Hour, nil)
	inventory := NewInventoryService(restaurants, f.items, &memMovements{}, notifier, 5, nil)
	effects := NewSideEffects(notifier, loyalty, inventory, f.publisher, f.outbox, nil)
	coupons := NewCouponService(f.coupons, f.users, f.orders, nil)

	f.svc = NewOrderService(f.orders, restaurants, f.items, coupons, effects, f.geocoder,
		OrderSettings{TaxRate: 0.08, ServiceFeeRate: 0.05}, nil).(*orderService)
	return f
}

func (f *orderFixture) input() *PlaceOrderInput {
	location := models.NewGeoPoint(52.53, 13.41)
	return &PlaceOrderInput{
		RestaurantID: f.restaurant.ID,
		Items: []OrderLineInput{
			{MenuItemID: f.pasta.ID, Quantity: 2, Customizations: []string{"extra cheese"}},
			{MenuItemID: f.salad.ID, Quantity: 1},
		},
		DeliveryType:     models.DeliveryTypeDelivery,
		DeliveryAddress:  &models.Address{Street: "Torstrasse 1", City: "Berlin"},
		DeliveryLocation: &location,
		Tip:              3,
	}
}

func (f *orderFixture) place(t *testing.T, input *PlaceOrderInput) *models.Order {
	t.Helper()
	order, err := f.svc.PlaceOrder(context.Background(), f.customer, input)
	require.NoError(t, err)
	return order
}

func (f *orderFixture) advance(t *testing.T, orderID primitive.ObjectID, actor models.Actor, statuses ...models.OrderStatus) *models.Order {
	t.Helper()
	var order *models.Order
	for _, status := range statuses {
		var err error
		order, err = f.svc.Transition(context.Background(), orderID, actor, status, "")
		require.NoError(t, err, "moving to %s", status)
	}
	return order
}

func TestOrderService_PlaceOrderPricing(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t, f.input())

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, int64(1), order.Version)
	assert.NotEmpty(t, order.OrderNumber)
	require.Len(t, order.StatusHistory, 1)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 14.0, order.Items[0].UnitPrice)
	assert.Equal(t, 28.0, order.Items[0].LineTotal)

	p := order.Pricing
	assert.Equal(t, 36.0, p.Subtotal)
	assert.Equal(t, 2.99, p.DeliveryFee)
	assert.Equal(t, 1.8, p.ServiceFee)
	assert.Equal(t, 2.88, p.Tax)
	assert.Equal(t, 3.0, p.Tip)
	assert.Equal(t, 0.0, p.Discount)
	assert.Equal(t, 46.67, p.Total)

	stock, _ := f.items.stock(f.pasta.ID)
	assert.Equal(t, 10, stock, "stock is only taken on confirmation")

	assert.Equal(t, 1, f.notifications.ofType(f.owner.ID, models.NotificationTypeOrderPlaced))
	assert.Equal(t, []string{events.EventOrderPlaced}, f.publisher.types())
}

func TestOrderService_PlaceOrderWithCoupon(t *testing.T) {
	f := newOrderFixture(t)
	input := f.input()
	input.CouponCode = "SAVE10"

	order := f.place(t, input)
	assert.Equal(t, 3.6, order.Pricing.Discount)
	assert.Equal(t, 43.07, order.Pricing.Total)
	assert.Equal(t, "SAVE10", order.CouponCode)
	require.NotNil(t, order.CouponID)
	assert.Equal(t, 1, f.coupons.usage(*order.CouponID))

	user, err := f.users.GetByID(context.Background(), f.customer.ID)
	require.NoError(t, err)
	require.Len(t, user.UsedCoupons, 1)
	assert.Equal(t, order.ID, user.UsedCoupons[0].OrderID)
}

func TestOrderService_PlaceOrderReleasesCouponWhenInsertFails(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.createErr = errors.New("write concern timeout")
	input := f.input()
	input.CouponCode = "SAVE10"

	_, err := f.svc.PlaceOrder(context.Background(), f.customer, input)
	require.Error(t, err)

	coupon, err := f.coupons.GetByCode(context.Background(), "SAVE10")
	require.NoError(t, err)
	assert.Zero(t, coupon.UsageCount)
	user, err := f.users.GetByID(context.Background(), f.customer.ID)
	require.NoError(t, err)
	require.Len(t, user.UsedCoupons, 1)
	assert.NotNil(t, user.UsedCoupons[0].ReleasedAt)
	assert.Zero(t, user.CouponUsageCount(coupon.ID))
}

func TestOrderService_PlaceOrderRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("only customers", func(t *testing.T) {
		f := newOrderFixture(t)
		_, err := f.svc.PlaceOrder(ctx, f.owner, f.input())
		assertKind(t, err, utils.KindForbidden)
	})

	t.Run("field validation", func(t *testing.T) {
		f := newOrderFixture(t)
		input := f.input()
		input.Items[0].Quantity = 0
		input.DeliveryAddress = nil
		_, err := f.svc.PlaceOrder(ctx, f.customer, input)
		assertKind(t, err, utils.KindValidation)

		var appErr *utils.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Contains(t, appErr.Details, "items[0].quantity")
		assert.Contains(t, appErr.Details, "delivery_address")
	})

	t.Run("inactive restaurant", func(t *testing.T) {
		f := newOrderFixture(t)
		f.restaurant.IsActive = false
		_, err := f.svc.PlaceOrder(ctx, f.customer, f.input())
		assert.ErrorIs(t, err, utils.ErrRestaurantInactive)
	})

	t.Run("unavailable item", func(t *testing.T) {
		f := newOrderFixture(t)
		f.salad.IsAvailable = false
		_, err := f.svc.PlaceOrder(ctx, f.customer, f.input())
		assert.ErrorIs(t, err, utils.ErrItemUnavailable)
	})

	t.Run("stock summed across lines", func(t *testing.T) {
		f := newOrderFixture(t)
		input := f.input()
		input.Items = []OrderLineInput{
			{MenuItemID: f.salad.ID, Quantity: 3},
			{MenuItemID: f.salad.ID, Quantity: 3},
		}
		_, err := f.svc.PlaceOrder(ctx, f.customer, input)
		assert.ErrorIs(t, err, utils.ErrInsufficientStock)
	})

	t.Run("unknown customization", func(t *testing.T) {
		f := newOrderFixture(t)
		input := f.input()
		input.Items[1].Customizations = []string{"anchovies"}
		_, err := f.svc.PlaceOrder(ctx, f.customer, input)
		assertKind(t, err, utils.KindValidation)
	})

	t.Run("item from another restaurant", func(t *testing.T) {
		f := newOrderFixture(t)
		f.salad.RestaurantID = primitive.NewObjectID()
		_, err := f.svc.PlaceOrder(ctx, f.customer, f.input())
		assert.ErrorIs(t, err, utils.ErrMenuItemNotFound)
	})

	t.Run("below minimum", func(t *testing.T) {
		f := newOrderFixture(t)
		input := f.input()
		input.Items = []OrderLineInput{{MenuItemID: f.salad.ID, Quantity: 1}}
		_, err := f.svc.PlaceOrder(ctx, f.customer, input)
		assertKind(t, err, utils.KindState)
	})
}

func TestOrderService_GeocodesDeliveryAddress(t *testing.T) {
	f := newOrderFixture(t)
	input := f.input()
	input.DeliveryLocation = nil

	order := f.place(t, input)
	require.NotNil(t, order.DeliveryLocation)
	assert.Equal(t, 52.52, order.DeliveryLocation.Latitude())

	f.geocoder.geocodeErr = maps.ErrNoResults
	order = f.place(t, input)
	assert.Nil(t, order.DeliveryLocation)
}

func TestOrderService_CustomerCannotSkipToDelivered(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t, f.input())

	_, err := f.svc.Transition(context.Background(), order.ID, f.customer, models.OrderStatusDelivered, "")
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
}

func TestOrderService_FullDeliveryLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t, f.input())

	confirmed := f.advance(t, order.ID, f.owner, models.OrderStatusConfirmed)
	assert.Equal(t, int64(2), confirmed.Version)
	pastaStock, _ := f.items.stock(f.pasta.ID)
	saladStock, _ := f.items.stock(f.salad.ID)
	assert.Equal(t, 8, pastaStock)
	assert.Equal(t, 4, saladStock)

	delivered := f.advance(t, order.ID, f.owner,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
		models.OrderStatusOutForDelivery,
		models.OrderStatusDelivered,
	)
	assert.Equal(t, models.OrderStatusDelivered, delivered.Status)
	assert.True(t, delivered.ReviewEligible)
	assert.NotNil(t, delivered.DeliveredAt)
	assert.Len(t, delivered.StatusHistory, 6)

	user, err := f.users.GetByID(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 46, user.LoyaltyPoints)

	assert.Equal(t, 5, f.notifications.ofType(f.customer.ID, models.NotificationTypeOrderStatus))
	types := f.publisher.types()
	assert.Len(t, types, 6)
	assert.Equal(t, events.EventOrderStatusChanged, types[len(types)-1])
	assert.Empty(t, f.outbox.all())

	_, err = f.svc.Transition(context.Background(), order.ID, f.admin, models.OrderStatusCancelled, "too late")
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
}

func TestOrderService_PickupSkipsDelivery(t *testing.T) {
	f := newOrderFixture(t)
	input := f.input()
	input.DeliveryType = models.DeliveryTypePickup
	input.DeliveryAddress = nil
	order := f.place(t, input)
	assert.Zero(t, order.Pricing.DeliveryFee)
	assert.Nil(t, order.DeliveryLocation)

	f.advance(t, order.ID, f.owner, models.OrderStatusConfirmed, models.OrderStatusPreparing, models.OrderStatusReady)

	_, err := f.svc.Transition(context.Background(), order.ID, f.owner, models.OrderStatusOutForDelivery, "")
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)

	delivered := f.advance(t, order.ID, f.owner, models.OrderStatusDelivered)
	assert.Equal(t, models.OrderStatusDelivered, delivered.Status)
}

func TestOrderService_Cancellation(t *testing.T) {
	ctx := context.Background()

	t.Run("customer needs a reason", func(t *testing.T) {
		f := newOrderFixture(t)
		order := f.place(t, f.input())

		_, err := f.svc.Execute(ctx, f.customer, order.ID, CancelOrder{Reason: "  "})
		assert.ErrorIs(t, err, utils.ErrMissingReason)

		cancelled, err := f.svc.Execute(ctx, f.customer, order.ID, CancelOrder{Reason: "changed my mind"})
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.Cancellation)
		assert.Equal(t, order.Pricing.Total, cancelled.Cancellation.RefundAmount)
		assert.Equal(t, models.RoleCustomer, cancelled.Cancellation.Role)

		assert.Equal(t, 1, f.notifications.ofType(f.customer.ID, models.NotificationTypeOrderCancelled))
		assert.Equal(t, 1, f.notifications.ofType(f.owner.ID, models.NotificationTypeOrderCancelled))
		assert.Contains(t, f.publisher.types(), events.EventOrderCancelled)
	})

	t.Run("customer only while pending", func(t *testing.T) {
		f := newOrderFixture(t)
		order := f.place(t, f.input())
		f.advance(t, order.ID, f.owner, models.OrderStatusConfirmed)

		_, err := f.svc.Execute(ctx, f.customer, order.ID, CancelOrder{Reason: "slow"})
		assert.ErrorIs(t, err, utils.ErrInvalidTransition)
	})

	t.Run("restaurant declines before preparing", func(t *testing.T) {
		f := newOrderFixture(t)
		order := f.place(t, f.input())
		f.advance(t, order.ID, f.owner, models.OrderStatusConfirmed, models.OrderStatusPreparing)

		_, err := f.svc.Execute(ctx, f.owner, order.ID, CancelOrder{Reason: "out of eggs"})
		assert.ErrorIs(t, err, utils.ErrInvalidTransition)

		cancelled, err := f.svc.Execute(ctx, f.admin, order.ID, CancelOrder{Reason: "kitchen fire"})
		require.NoError(t, err)
		assert.Equal(t, order.Pricing.Total, cancelled.Cancellation.RefundAmount)
	})
}

func TestRefundFor(t *testing.T) {
	order := &models.Order{Pricing: models.Pricing{Total: 40.5}}
	customer := models.Actor{Role: models.RoleCustomer}

	order.Status = models.OrderStatusConfirmed
	assert.Equal(t, 40.5, RefundFor(order, customer))
	order.Status = models.OrderStatusPreparing
	assert.Equal(t, 20.25, RefundFor(order, customer))
	order.Status = models.OrderStatusOutForDelivery
	assert.Zero(t, RefundFor(order, customer))
	assert.Equal(t, 40.5, RefundFor(order, models.Actor{Role: models.RoleAdmin}))
}

func TestOrderService_Permissions(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	order := f.place(t, f.input())

	stranger := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleRestaurant}
	_, err := f.svc.Transition(ctx, order.ID, stranger, models.OrderStatusConfirmed, "")
	assert.ErrorIs(t, err, utils.ErrNotPermitted)

	otherCustomer := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleCustomer}
	_, err = f.svc.Execute(ctx, otherCustomer, order.ID, CancelOrder{Reason: "not mine"})
	assert.ErrorIs(t, err, utils.ErrNotPermitted)

	_, err = f.svc.GetOrder(ctx, otherCustomer, order.ID)
	assert.ErrorIs(t, err, utils.ErrNotPermitted)

	got, err := f.svc.GetOrder(ctx, f.owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.svc.GetOrder(ctx, f.admin, primitive.NewObjectID())
	assert.ErrorIs(t, err, utils.ErrOrderNotFound)
}

func TestOrderService_LostRaceIsInvalidTransition(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t, f.input())
	f.orders.staleWrites = 1

	_, err := f.svc.Transition(context.Background(), order.ID, f.owner, models.OrderStatusConfirmed, "")
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
	assert.Equal(t, []string{events.EventOrderPlaced}, f.publisher.types(), "no effects for a lost write")
}

func TestOrderService_FailedEffectsGoToOutbox(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t, f.input())
	f.publisher.err = errors.New("broker unavailable")

	confirmed, err := f.svc.Transition(context.Background(), order.ID, f.owner, models.OrderStatusConfirmed, "")
	require.NoError(t, err, "effects never fail the transition")
	assert.Equal(t, models.OrderStatusConfirmed, confirmed.Status)

	queued := f.outbox.all()
	require.Len(t, queued, 1)
	assert.Equal(t, models.OutboxEffectPublish, queued[0].Effect)
	assert.Equal(t, 1, queued[0].Attempts)
	assert.Equal(t, "broker unavailable", queued[0].LastError)
}

func TestOrderService_AssignDelivery(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }
	f.geocoder.travel = &maps.TravelEstimate{DistanceMeters: 3400, Duration: 12 * time.Minute}

	order := f.place(t, f.input())

	_, err := f.svc.Execute(ctx, f.owner, order.ID, AssignDelivery{DriverName: "Mia"})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition, "not before preparation")

	f.advance(t, order.ID, f.owner, models.OrderStatusConfirmed, models.OrderStatusPreparing)

	_, err = f.svc.Execute(ctx, f.customer, order.ID, AssignDelivery{DriverName: "Mia"})
	assert.ErrorIs(t, err, utils.ErrNotPermitted)

	_, err = f.svc.Execute(ctx, f.owner, order.ID, AssignDelivery{})
	assertKind(t, err, utils.KindValidation)

	assigned, err := f.svc.Execute(ctx, f.owner, order.ID, AssignDelivery{DriverName: "Mia", DriverPhone: "+4915112345678"})
	require.NoError(t, err)
	require.NotNil(t, assigned.Delivery)
	assert.Equal(t, "Mia", assigned.Delivery.DriverName)
	assert.Equal(t, 3400, assigned.Delivery.DistanceMeters)
	require.NotNil(t, assigned.Delivery.EstimatedArrival)
	assert.Equal(t, now.Add(27*time.Minute), *assigned.Delivery.EstimatedArrival)
	assert.Equal(t, models.OrderStatusPreparing, assigned.Status)
}

func TestOrderService_Disputes(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	order := f.place(t, f.input())

	_, err := f.svc.Execute(ctx, f.customer, order.ID, OpenDispute{Reason: "cold food"})
	assert.ErrorIs(t, err, utils.ErrDisputeNotAllowed)

	f.advance(t, order.ID, f.owner,
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
		models.OrderStatusOutForDelivery,
		models.OrderStatusDelivered,
	)

	_, err = f.svc.Execute(ctx, f.customer, order.ID, OpenDispute{})
	assert.ErrorIs(t, err, utils.ErrMissingReason)
	_, err = f.svc.Execute(ctx, f.owner, order.ID, OpenDispute{Reason: "fake"})
	assert.ErrorIs(t, err, utils.ErrNotPermitted)

	opened, err := f.svc.Execute(ctx, f.customer, order.ID, OpenDispute{Reason: "cold food"})
	require.NoError(t, err)
	require.NotNil(t, opened.Dispute)
	assert.Equal(t, models.DisputeStateOpen, opened.Dispute.State)
	assert.Equal(t, 1, f.notifications.ofType(f.owner.ID, models.NotificationTypeOrderDispute))

	_, err = f.svc.Execute(ctx, f.customer, order.ID, OpenDispute{Reason: "again"})
	assert.ErrorIs(t, err, utils.ErrDisputeNotAllowed)

	_, err = f.svc.Execute(ctx, f.owner, order.ID, ResolveDispute{Approve: true, Resolution: "ok"})
	assert.ErrorIs(t, err, utils.ErrNotPermitted)

	_, err = f.svc.Execute(ctx, f.admin, order.ID, ResolveDispute{Approve: true, Resolution: "refund", RefundAmount: 1000})
	assertKind(t, err, utils.KindValidation)

	resolved, err := f.svc.Execute(ctx, f.admin, order.ID, ResolveDispute{Approve: true, Resolution: "partial refund", RefundAmount: 10})
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStateResolved, resolved.Dispute.State)
	assert.Equal(t, 10.0, resolved.Dispute.RefundAmount)
	require.NotNil(t, resolved.Dispute.ResolvedBy)
	assert.Equal(t, f.admin.ID, *resolved.Dispute.ResolvedBy)

	_, err = f.svc.Execute(ctx, f.admin, order.ID, ResolveDispute{Approve: false, Resolution: "again"})
	assert.ErrorIs(t, err, utils.ErrDisputeNotAllowed)

	assert.Contains(t, f.publisher.types(), events.EventDisputeOpened)
	assert.Contains(t, f.publisher.types(), events.EventDisputeResolved)
}

func TestOrderService_ListOrdersScoping(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	f.place(t, f.input())
	f.place(t, f.input())

	params := &utils.PaginationParams{Page: 1, PageSize: 10}

	_, total, err := f.svc.ListOrders(ctx, f.customer, models.OrderFilter{}, params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	other := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleCustomer}
	_, total, err = f.svc.ListOrders(ctx, other, models.OrderFilter{CustomerID: &f.customer.ID}, params)
	require.NoError(t, err)
	assert.Zero(t, total, "customer filter is always the caller")

	_, total, err = f.svc.ListOrders(ctx, f.owner, models.OrderFilter{}, params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	foreign := primitive.NewObjectID()
	_, _, err = f.svc.ListOrders(ctx, f.owner, models.OrderFilter{RestaurantID: &foreign}, params)
	assert.ErrorIs(t, err, utils.ErrNotPermitted)

	stranger := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleRestaurant}
	orders, total, err := f.svc.ListOrders(ctx, stranger, models.OrderFilter{}, params)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, total)

	_, total, err = f.svc.ListOrders(ctx, f.admin, models.OrderFilter{Status: models.OrderStatusPending}, params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
