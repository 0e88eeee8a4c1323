package handlers

import (
	"strings"

	"fooddash/internal/models"
	"fooddash/internal/services"
	"fooddash/internal/utils"
	"fooddash/internal/validators"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// PlaceOrder checks out a cart for the authenticated customer.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req validators.PlaceOrderRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidatePlaceOrder(&req)) {
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), actor, placeOrderInput(&req))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Order placed successfully", order)
}

func placeOrderInput(req *validators.PlaceOrderRequest) *services.PlaceOrderInput {
	restaurantID, _ := validators.ParseObjectID(req.RestaurantID)
	input := &services.PlaceOrderInput{
		RestaurantID:         restaurantID,
		DeliveryType:         models.DeliveryType(req.DeliveryType),
		DeliveryInstructions: strings.TrimSpace(req.DeliveryInstructions),
		ContactPhone:         req.ContactPhone,
		CouponCode:           strings.ToUpper(strings.TrimSpace(req.CouponCode)),
		Tip:                  req.Tip,
	}
	if req.DeliveryAddress != nil {
		address := req.DeliveryAddress.ToModel()
		input.DeliveryAddress = &address
	}
	if point := geoPoint(req.DeliveryLocation); !point.IsZero() {
		input.DeliveryLocation = &point
	}
	for _, item := range req.Items {
		itemID, _ := validators.ParseObjectID(item.MenuItemID)
		input.Items = append(input.Items, services.OrderLineInput{
			MenuItemID:          itemID,
			Quantity:            item.Quantity,
			Customizations:      item.Customizations,
			SpecialInstructions: strings.TrimSpace(item.SpecialInstructions),
		})
	}
	return input
}

// ListOrders is scoped by the service: customers see their own orders and
// restaurants the orders of restaurants they own.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var query validators.OrderListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	filter, errs := query.ToFilter()
	if rejectInvalid(c, errs) {
		return
	}

	params := utils.GetPaginationParams(c, "created_at", "updated_at", "pricing.total")
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), actor, *filter, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Orders retrieved successfully", orders, params, total)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Order retrieved successfully", order)
}

// ExecuteCommand applies one lifecycle command. Which commands an actor may
// run is decided by the order service.
func (h *OrderHandler) ExecuteCommand(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req validators.OrderCommandRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateOrderCommand(&req)) {
		return
	}

	order, err := h.orderService.Execute(c.Request.Context(), actor, orderID, orderCommand(&req))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Order updated successfully", order)
}

func orderCommand(req *validators.OrderCommandRequest) services.OrderCommand {
	switch req.Type {
	case "cancel":
		return services.CancelOrder{Reason: strings.TrimSpace(req.Reason)}
	case "assign_delivery":
		return services.AssignDelivery{DriverName: strings.TrimSpace(req.DriverName), DriverPhone: req.DriverPhone}
	case "open_dispute":
		return services.OpenDispute{Reason: strings.TrimSpace(req.Reason)}
	case "resolve_dispute":
		return services.ResolveDispute{Approve: req.Approve, Resolution: strings.TrimSpace(req.Resolution), RefundAmount: req.RefundAmount}
	default:
		return services.AdvanceStatus{Status: models.OrderStatus(req.Status), Note: strings.TrimSpace(req.Note)}
	}
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// CancelOrder is the customer shortcut for the cancel command.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	h.runWithReason(c, "Order cancelled successfully", func(reason string) services.OrderCommand {
		return services.CancelOrder{Reason: reason}
	})
}

// OpenDispute is the customer shortcut for the open_dispute command.
func (h *OrderHandler) OpenDispute(c *gin.Context) {
	h.runWithReason(c, "Dispute opened successfully", func(reason string) services.OrderCommand {
		return services.OpenDispute{Reason: reason}
	})
}

func (h *OrderHandler) runWithReason(c *gin.Context, message string, build func(reason string) services.OrderCommand) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req reasonRequest
	if !bindJSON(c, &req) || rejectInvalid(c, validators.ValidateStruct(&req)) {
		return
	}

	order, err := h.orderService.Execute(c.Request.Context(), actor, orderID, build(strings.TrimSpace(req.Reason)))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, message, order)
}
