package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/events"
	"fooddash/pkg/logger"
	"fooddash/pkg/maps"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxOrderLines    = 50
	maxLineQuantity  = 99
	stockReasonOrder = "order"
)

type OrderService interface {
	// Checkout
	PlaceOrder(ctx context.Context, actor models.Actor, input *PlaceOrderInput) (*models.Order, error)

	// Lifecycle
	Transition(ctx context.Context, orderID primitive.ObjectID, actor models.Actor, target models.OrderStatus, note string) (*models.Order, error)
	Execute(ctx context.Context, actor models.Actor, orderID primitive.ObjectID, cmd OrderCommand) (*models.Order, error)

	// Queries
	GetOrder(ctx context.Context, actor models.Actor, orderID primitive.ObjectID) (*models.Order, error)
	ListOrders(ctx context.Context, actor models.Actor, filter models.OrderFilter, params *utils.PaginationParams) ([]*models.Order, int64, error)
}

type PlaceOrderInput struct {
	RestaurantID         primitive.ObjectID
	Items                []OrderLineInput
	DeliveryType         models.DeliveryType
	DeliveryAddress      *models.Address
	DeliveryLocation     *models.GeoPoint
	DeliveryInstructions string
	ContactPhone         string
	CouponCode           string
	Tip                  float64
}

type OrderLineInput struct {
	MenuItemID          primitive.ObjectID
	Quantity            int
	Customizations      []string
	SpecialInstructions string
}

type OrderSettings struct {
	TaxRate        float64
	ServiceFeeRate float64
	EnforceHours   bool
}

type orderService struct {
	orderRepo      interfaces.OrderRepository
	restaurantRepo interfaces.RestaurantRepository
	menuItemRepo   interfaces.MenuItemRepository
	coupons        CouponService
	effects        *SideEffects
	geocoder       maps.Geocoder
	settings       OrderSettings
	logger         *logger.Logger
	now            func() time.Time
}

func NewOrderService(
	orderRepo interfaces.OrderRepository,
	restaurantRepo interfaces.RestaurantRepository,
	menuItemRepo interfaces.MenuItemRepository,
	coupons CouponService,
	effects *SideEffects,
	geocoder maps.Geocoder,
	settings OrderSettings,
	log *logger.Logger,
) OrderService {
	if log == nil {
		log = logger.NewNop()
	}
	return &orderService{
		orderRepo:      orderRepo,
		restaurantRepo: restaurantRepo,
		menuItemRepo:   menuItemRepo,
		coupons:        coupons,
		effects:        effects,
		geocoder:       geocoder,
		settings:       settings,
		logger:         log,
		now:            time.Now,
	}
}

func (s *orderService) PlaceOrder(ctx context.Context, actor models.Actor, input *PlaceOrderInput) (*models.Order, error) {
	if !actor.IsCustomer() {
		return nil, utils.NewForbiddenError("only customers can place orders")
	}
	if err := checkOrderInput(input); err != nil {
		return nil, err
	}

	restaurant, err := s.restaurantRepo.GetByID(ctx, input.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !restaurant.IsActive {
		return nil, utils.ErrRestaurantInactive
	}

	now := s.now()
	if s.settings.EnforceHours && !IsOpenAt(restaurant, now) {
		return nil, utils.ErrRestaurantClosed
	}

	items, subtotal, err := s.priceLines(ctx, restaurant, input.Items)
	if err != nil {
		return nil, err
	}
	if subtotal.LessThan(utils.Money(restaurant.MinimumOrder)) {
		return nil, utils.NewStateError("BELOW_MINIMUM_ORDER",
			fmt.Sprintf("minimum order for this restaurant is %s", utils.Money(restaurant.MinimumOrder).StringFixed(2)))
	}

	order := &models.Order{
		ID:                   primitive.NewObjectID(),
		OrderNumber:          utils.GenerateOrderNumber(now),
		CustomerID:           actor.ID,
		RestaurantID:         restaurant.ID,
		Items:                items,
		Status:               models.OrderStatusPending,
		DeliveryType:         input.DeliveryType,
		DeliveryInstructions: strings.TrimSpace(input.DeliveryInstructions),
		ContactPhone:         input.ContactPhone,
		StatusHistory: []models.StatusChange{{
			Status:    models.OrderStatusPending,
			Timestamp: now,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
		}},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if order.DeliveryType == models.DeliveryTypeDelivery {
		order.DeliveryAddress = input.DeliveryAddress
		order.DeliveryLocation = s.resolveDeliveryLocation(ctx, input)
	}

	pricing := s.price(restaurant, order.DeliveryType, subtotal, utils.Money(input.Tip))

	var redemption *models.CouponRedemption
	if code := strings.TrimSpace(input.CouponCode); code != "" {
		redemption, err = s.coupons.Apply(ctx, code, actor.ID, order.ID, pricing.Subtotal, &restaurant.ID)
		if err != nil {
			return nil, err
		}
		pricing = withDiscount(pricing, utils.Money(redemption.DiscountAmount))
		order.CouponID = &redemption.CouponID
		order.CouponCode = redemption.Code
	}
	order.Pricing = pricing

	if err := s.orderRepo.Create(ctx, order); err != nil {
		if redemption != nil {
			if relErr := s.coupons.Release(context.WithoutCancel(ctx), redemption); relErr != nil {
				s.logger.WithError(relErr).WithOrderID(order.ID).Error("Failed to release coupon for unsaved order")
			}
		}
		return nil, err
	}

	s.effects.Notify(ctx, order.ID, &models.NotificationPayload{
		UserID:  restaurant.OwnerID,
		Type:    models.NotificationTypeOrderPlaced,
		Title:   "New order",
		Message: fmt.Sprintf("Order %s was placed for %s", order.OrderNumber, utils.Money(order.Pricing.Total).StringFixed(2)),
		Data:    orderData(order),
	})
	s.effects.Publish(ctx, order.ID, orderEvent(events.EventOrderPlaced, order, "", actor))

	s.logger.LogOrderEvent(order.ID, "order_placed", map[string]interface{}{
		"order_number":  order.OrderNumber,
		"restaurant_id": restaurant.ID.Hex(),
		"customer_id":   actor.ID.Hex(),
		"total":         order.Pricing.Total,
	})
	return order, nil
}

func checkOrderInput(input *PlaceOrderInput) error {
	details := map[string]string{}
	if input == nil || len(input.Items) == 0 {
		details["items"] = "At least one item is required"
	} else if len(input.Items) > maxOrderLines {
		details["items"] = fmt.Sprintf("An order can have at most %d lines", maxOrderLines)
	}
	if input != nil {
		for i, line := range input.Items {
			if line.Quantity < 1 || line.Quantity > maxLineQuantity {
				details[fmt.Sprintf("items[%d].quantity", i)] = fmt.Sprintf("Quantity must be between 1 and %d", maxLineQuantity)
			}
		}
		switch input.DeliveryType {
		case models.DeliveryTypeDelivery:
			if input.DeliveryAddress == nil || strings.TrimSpace(input.DeliveryAddress.Street) == "" {
				details["delivery_address"] = "Delivery address is required for delivery orders"
			}
		case models.DeliveryTypePickup:
		default:
			details["delivery_type"] = "Delivery type must be delivery or pickup"
		}
		if input.Tip < 0 {
			details["tip"] = "Tip cannot be negative"
		}
	}
	if len(details) > 0 {
		return utils.NewValidationError(utils.ErrValidationFailed, details)
	}
	return nil
}

// priceLines loads every menu item once and prices each line. Stock is checked
// against the quantity summed across lines of the same item.
func (s *orderService) priceLines(ctx context.Context, restaurant *models.Restaurant, lines []OrderLineInput) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]primitive.ObjectID, 0, len(lines))
	wanted := make(map[primitive.ObjectID]int, len(lines))
	for _, line := range lines {
		if _, seen := wanted[line.MenuItemID]; !seen {
			ids = append(ids, line.MenuItemID)
		}
		wanted[line.MenuItemID] += line.Quantity
	}

	found, err := s.menuItemRepo.GetMany(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[primitive.ObjectID]*models.MenuItem, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}

	for _, id := range ids {
		item, ok := byID[id]
		if !ok || item.RestaurantID != restaurant.ID {
			return nil, decimal.Zero, utils.ErrMenuItemNotFound.WithMessage("menu item " + id.Hex() + " not found at this restaurant")
		}
		if !item.IsAvailable {
			return nil, decimal.Zero, utils.ErrItemUnavailable.WithMessage(item.Name + " is not available")
		}
		if item.Inventory.CurrentStock < wanted[id] {
			return nil, decimal.Zero, utils.ErrInsufficientStock.WithMessage(
				fmt.Sprintf("only %d of %s left", item.Inventory.CurrentStock, item.Name))
		}
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))
	for i, line := range lines {
		item := byID[line.MenuItemID]
		unit := utils.Money(item.Price)

		options := make([]models.MenuOption, 0, len(line.Customizations))
		for _, name := range line.Customizations {
			opt, ok := item.Option(name)
			if !ok {
				return nil, decimal.Zero, utils.NewValidationError(utils.ErrValidationFailed, map[string]string{
					fmt.Sprintf("items[%d].customizations", i): fmt.Sprintf("%s has no option %q", item.Name, name),
				})
			}
			options = append(options, opt)
			unit = unit.Add(utils.Money(opt.Price))
		}

		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.OrderItem{
			MenuItemID:          item.ID,
			Name:                item.Name,
			Quantity:            line.Quantity,
			UnitPrice:           utils.ToAmount(unit),
			Customizations:      options,
			LineTotal:           utils.ToAmount(lineTotal),
			SpecialInstructions: strings.TrimSpace(line.SpecialInstructions),
		})
	}
	return items, subtotal, nil
}

func (s *orderService) price(restaurant *models.Restaurant, deliveryType models.DeliveryType, subtotal, tip decimal.Decimal) models.Pricing {
	deliveryFee := decimal.Zero
	if deliveryType == models.DeliveryTypeDelivery {
		deliveryFee = utils.Money(restaurant.DeliveryFee)
	}
	serviceFee := subtotal.Mul(decimal.NewFromFloat(s.settings.ServiceFeeRate)).Round(2)
	tax := subtotal.Mul(decimal.NewFromFloat(s.settings.TaxRate)).Round(2)

	return withDiscount(models.Pricing{
		Subtotal:    utils.ToAmount(subtotal),
		DeliveryFee: utils.ToAmount(deliveryFee),
		ServiceFee:  utils.ToAmount(serviceFee),
		Tax:         utils.ToAmount(tax),
		Tip:         utils.ToAmount(tip),
	}, decimal.Zero)
}

// withDiscount sets the discount and recomputes the total, never below zero.
func withDiscount(p models.Pricing, discount decimal.Decimal) models.Pricing {
	total := utils.Money(p.Subtotal).
		Add(utils.Money(p.DeliveryFee)).
		Add(utils.Money(p.ServiceFee)).
		Add(utils.Money(p.Tax)).
		Add(utils.Money(p.Tip)).
		Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	p.Discount = utils.ToAmount(discount)
	p.Total = utils.ToAmount(total)
	return p
}

func (s *orderService) resolveDeliveryLocation(ctx context.Context, input *PlaceOrderInput) *models.GeoPoint {
	if input.DeliveryLocation != nil && !input.DeliveryLocation.IsZero() {
		return input.DeliveryLocation
	}
	if s.geocoder == nil || input.DeliveryAddress == nil {
		return nil
	}

	result, err := s.geocoder.Geocode(ctx, input.DeliveryAddress.String())
	if err != nil {
		// The order is still valid without coordinates; only the ETA is lost.
		s.logger.WithError(err).Warn("Failed to geocode delivery address")
		return nil
	}
	point := models.NewGeoPoint(result.Coordinates.Latitude, result.Coordinates.Longitude)
	return &point
}

func (s *orderService) Transition(ctx context.Context, orderID primitive.ObjectID, actor models.Actor, target models.OrderStatus, note string) (*models.Order, error) {
	order, restaurant, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(order, restaurant, actor, target); err != nil {
		return nil, err
	}

	note = strings.TrimSpace(note)
	if target == models.OrderStatusCancelled && note == "" {
		return nil, utils.ErrMissingReason.WithMessage("a cancellation reason is required")
	}

	now := s.now()
	set := map[string]interface{}{
		"status":     target,
		"updated_at": now,
	}
	switch target {
	case models.OrderStatusDelivered:
		set["review_eligible"] = true
		set["delivered_at"] = now
	case models.OrderStatusCancelled:
		set["cancellation"] = &models.Cancellation{
			Reason:       note,
			CancelledBy:  actor.ID,
			Role:         actor.Role,
			RefundAmount: RefundFor(order, actor),
			CancelledAt:  now,
		}
	}

	updated, err := s.orderRepo.UpdateGuarded(ctx, guardOf(order), set, &models.StatusChange{
		Status:    target,
		Timestamp: now,
		Note:      note,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
	})
	if err != nil {
		return nil, lostRace(err)
	}

	s.afterTransition(ctx, order.Status, updated, restaurant, actor)

	s.logger.LogOrderEvent(order.ID, "status_changed", map[string]interface{}{
		"from":       string(order.Status),
		"to":         string(target),
		"actor_id":   actor.ID.Hex(),
		"actor_role": string(actor.Role),
	})
	return updated, nil
}

// afterTransition fires the effects of a committed transition. None of them
// can fail the transition.
func (s *orderService) afterTransition(ctx context.Context, from models.OrderStatus, order *models.Order, restaurant *models.Restaurant, actor models.Actor) {
	customerNote := &models.NotificationPayload{
		UserID:  order.CustomerID,
		Type:    models.NotificationTypeOrderStatus,
		Title:   statusTitle(order.Status),
		Message: fmt.Sprintf("Order %s is now %s", order.OrderNumber, strings.ReplaceAll(string(order.Status), "_", " ")),
		Data:    orderData(order),
	}

	switch order.Status {
	case models.OrderStatusConfirmed:
		for i, line := range order.Items {
			s.effects.AdjustStock(ctx, order.ID, &models.StockPayload{
				RestaurantID: order.RestaurantID,
				ItemID:       line.MenuItemID,
				Quantity:     line.Quantity,
				Reason:       stockReasonOrder + " " + order.OrderNumber,
				Reference:    stockReference(order.ID, line.MenuItemID, i),
			})
		}
		s.effects.Notify(ctx, order.ID, customerNote)

	case models.OrderStatusPreparing, models.OrderStatusReady:
		s.effects.Notify(ctx, order.ID, customerNote)

	case models.OrderStatusOutForDelivery:
		customerNote.SendSMS = true
		s.effects.Notify(ctx, order.ID, customerNote)

	case models.OrderStatusDelivered:
		s.effects.EarnPoints(ctx, order.ID, order.CustomerID, order.Pricing.Total)
		s.effects.Notify(ctx, order.ID, customerNote)

	case models.OrderStatusCancelled:
		reason := ""
		refund := 0.0
		if order.Cancellation != nil {
			reason = order.Cancellation.Reason
			refund = order.Cancellation.RefundAmount
		}
		customerNote.Type = models.NotificationTypeOrderCancelled
		customerNote.Message = fmt.Sprintf("Order %s was cancelled: %s", order.OrderNumber, reason)
		if refund > 0 {
			customerNote.Message += fmt.Sprintf(". A refund of %s is on its way", utils.Money(refund).StringFixed(2))
		}
		s.effects.Notify(ctx, order.ID, customerNote)
		if restaurant != nil {
			s.effects.Notify(ctx, order.ID, &models.NotificationPayload{
				UserID:  restaurant.OwnerID,
				Type:    models.NotificationTypeOrderCancelled,
				Title:   "Order cancelled",
				Message: fmt.Sprintf("Order %s was cancelled by the %s: %s", order.OrderNumber, actor.Role, reason),
				Data:    orderData(order),
			})
		}
	}

	eventType := events.EventOrderStatusChanged
	if order.Status == models.OrderStatusCancelled {
		eventType = events.EventOrderCancelled
	}
	s.effects.Publish(ctx, order.ID, orderEvent(eventType, order, from, actor))
}

func (s *orderService) GetOrder(ctx context.Context, actor models.Actor, orderID primitive.ObjectID) (*models.Order, error) {
	order, restaurant, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canViewOrder(order, restaurant, actor) {
		return nil, utils.ErrNotPermitted
	}
	return order, nil
}

// ListOrders scopes filter to what actor may see before querying.
func (s *orderService) ListOrders(ctx context.Context, actor models.Actor, filter models.OrderFilter, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	switch {
	case actor.IsAdmin():
	case actor.IsCustomer():
		filter.CustomerID = &actor.ID
	case actor.IsRestaurant():
		owned, err := s.restaurantRepo.ListByOwner(ctx, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		if filter.RestaurantID != nil {
			if !ownsRestaurant(owned, *filter.RestaurantID) {
				return nil, 0, utils.ErrNotPermitted
			}
			break
		}
		if len(owned) == 0 {
			return []*models.Order{}, 0, nil
		}
		filter.RestaurantIDs = make([]primitive.ObjectID, 0, len(owned))
		for _, r := range owned {
			filter.RestaurantIDs = append(filter.RestaurantIDs, r.ID)
		}
	default:
		return nil, 0, utils.ErrNotPermitted
	}

	return s.orderRepo.List(ctx, filter, params)
}

func ownsRestaurant(owned []*models.Restaurant, id primitive.ObjectID) bool {
	for _, r := range owned {
		if r.ID == id {
			return true
		}
	}
	return false
}

// load fetches an order and its restaurant. A deleted restaurant is not an
// error; permission checks treat it as unowned.
func (s *orderService) load(ctx context.Context, orderID primitive.ObjectID) (*models.Order, *models.Restaurant, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	restaurant, err := s.restaurantRepo.GetByID(ctx, order.RestaurantID)
	if err != nil && !errors.Is(err, utils.ErrRestaurantNotFound) {
		return nil, nil, err
	}
	return order, restaurant, nil
}

// lostRace turns a failed guarded write into the error the caller sees. The
// order changed underneath us, so the requested move no longer applies.
func lostRace(err error) error {
	if errors.Is(err, utils.ErrConcurrentWrite) {
		return utils.ErrInvalidTransition.WithMessage("order was changed by another request, reload and retry")
	}
	return err
}

func stockReference(orderID, itemID primitive.ObjectID, line int) string {
	return fmt.Sprintf("order:%s:item:%s:%d", orderID.Hex(), itemID.Hex(), line)
}

func orderData(order *models.Order) map[string]string {
	return map[string]string{
		"order_id":     order.ID.Hex(),
		"order_number": order.OrderNumber,
		"status":       string(order.Status),
	}
}

func orderEvent(eventType string, order *models.Order, from models.OrderStatus, actor models.Actor) *events.OrderEvent {
	return &events.OrderEvent{
		Type:         eventType,
		OrderID:      order.ID.Hex(),
		OrderNumber:  order.OrderNumber,
		CustomerID:   order.CustomerID.Hex(),
		RestaurantID: order.RestaurantID.Hex(),
		FromStatus:   string(from),
		ToStatus:     string(order.Status),
		ActorID:      actor.ID.Hex(),
		ActorRole:    string(actor.Role),
		Total:        order.Pricing.Total,
		OccurredAt:   time.Now().UTC(),
	}
}
