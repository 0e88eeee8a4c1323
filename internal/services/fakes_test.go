package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"fooddash/internal/models"
	"fooddash/internal/repositories/interfaces"
	"fooddash/internal/utils"
	"fooddash/pkg/events"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func assertKind(t *testing.T, err error, kind utils.ErrorKind) {
	t.Helper()
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr), "expected an AppError, got %v", err)
	require.Equal(t, kind, appErr.Kind, appErr.Error())
}

func page[T any](items []T, params *utils.PaginationParams) ([]T, int64) {
	total := int64(len(items))
	if params == nil {
		return items, total
	}
	if params.GetLimit() <= 0 {
		return items, total
	}
	start := params.GetSkip()
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + params.GetLimit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total
}

// users

type memUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{users: map[primitive.ObjectID]*models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) get(id primitive.ObjectID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, utils.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) snapshot(u *models.User) *models.User {
	c := *u
	c.UsedCoupons = append([]models.UsedCoupon(nil), u.UsedCoupons...)
	c.DeviceTokens = append([]models.DeviceToken(nil), u.DeviceTokens...)
	return &c
}

func (m *memUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return m.snapshot(u), nil
}

func (m *memUsers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *memUsers) AddLoyaltyPoints(_ context.Context, userID primitive.ObjectID, points int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(userID)
	if err != nil {
		return nil, err
	}
	u.LoyaltyPoints += points
	u.LifetimePoints += points
	return m.snapshot(u), nil
}

func (m *memUsers) RestoreLoyaltyPoints(_ context.Context, userID primitive.ObjectID, points int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(userID)
	if err != nil {
		return nil, err
	}
	u.LoyaltyPoints += points
	return m.snapshot(u), nil
}

func (m *memUsers) DeductLoyaltyPoints(_ context.Context, userID primitive.ObjectID, points int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(userID)
	if err != nil {
		return nil, err
	}
	if u.LoyaltyPoints < points {
		return nil, utils.ErrInsufficientPoints
	}
	u.LoyaltyPoints -= points
	return m.snapshot(u), nil
}

func (m *memUsers) RecordCouponUse(_ context.Context, userID primitive.ObjectID, use models.UsedCoupon, perUserLimit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(userID)
	if err != nil {
		return err
	}
	if perUserLimit > 0 && u.CouponUsageCount(use.CouponID) >= perUserLimit {
		return utils.ErrCouponUserLimit
	}
	u.UsedCoupons = append(u.UsedCoupons, use)
	return nil
}

func (m *memUsers) ReleaseCouponUse(_ context.Context, userID, couponID, orderID primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(userID)
	if err != nil {
		return err
	}
	for i := range u.UsedCoupons {
		used := &u.UsedCoupons[i]
		if used.CouponID == couponID && used.OrderID == orderID && used.ReleasedAt == nil {
			released := at
			used.ReleasedAt = &released
		}
	}
	return nil
}

func (m *memUsers) RegisterDeviceToken(_ context.Context, userID primitive.ObjectID, token models.DeviceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(userID)
	if err != nil {
		return err
	}
	for i, t := range u.DeviceTokens {
		if t.Token == token.Token {
			u.DeviceTokens[i] = token
			return nil
		}
	}
	u.DeviceTokens = append(u.DeviceTokens, token)
	return nil
}

func (m *memUsers) RemoveDeviceToken(_ context.Context, userID primitive.ObjectID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := m.get(userID)
	if err != nil {
		return err
	}
	kept := u.DeviceTokens[:0]
	for _, t := range u.DeviceTokens {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	u.DeviceTokens = kept
	return nil
}

// coupons

type memCoupons struct {
	mu      sync.Mutex
	coupons map[primitive.ObjectID]*models.Coupon
}

func newMemCoupons(coupons ...*models.Coupon) *memCoupons {
	m := &memCoupons{coupons: map[primitive.ObjectID]*models.Coupon{}}
	for _, c := range coupons {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		m.coupons[c.ID] = c
	}
	return m
}

func (m *memCoupons) Create(_ context.Context, coupon *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coupons {
		if c.Code == coupon.Code {
			return utils.ErrCouponCodeTaken
		}
	}
	coupon.ID = primitive.NewObjectID()
	c := *coupon
	m.coupons[c.ID] = &c
	return nil
}

func (m *memCoupons) GetByID(_ context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[id]
	if !ok {
		return nil, utils.ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCoupons) GetByCode(_ context.Context, code string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coupons {
		if strings.EqualFold(c.Code, code) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, utils.ErrCouponNotFound
}

func (m *memCoupons) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[id]
	if !ok {
		return nil, utils.ErrCouponNotFound
	}
	for key, value := range updates {
		switch key {
		case "is_active":
			c.IsActive = value.(bool)
		case "description":
			c.Description = value.(string)
		case "discount_value":
			c.DiscountValue = value.(float64)
		case "discount_type":
			c.DiscountType = value.(models.DiscountType)
		case "min_order_value":
			c.MinOrderValue = value.(float64)
		case "end_date":
			c.EndDate = value.(time.Time)
		case "usage_limit.total":
			c.UsageLimit.Total = value.(int)
		case "usage_limit.per_user":
			c.UsageLimit.PerUser = value.(int)
		}
	}
	cp := *c
	return &cp, nil
}

func (m *memCoupons) List(_ context.Context, activeOnly bool, params *utils.PaginationParams) ([]*models.Coupon, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Coupon
	for _, c := range m.coupons {
		if activeOnly && !c.IsActive {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	items, total := page(out, params)
	return items, total, nil
}

func (m *memCoupons) ListAvailable(_ context.Context, now time.Time, restaurantID *primitive.ObjectID) ([]*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Coupon
	for _, c := range m.coupons {
		if !c.IsActive || now.Before(c.StartDate) || now.After(c.EndDate) {
			continue
		}
		if restaurantID != nil && !c.AppliesTo(*restaurantID) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memCoupons) IncrementUsage(_ context.Context, id primitive.ObjectID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[id]
	if !ok {
		return utils.ErrCouponNotFound
	}
	if !c.IsActive || now.Before(c.StartDate) || now.After(c.EndDate) ||
		(c.UsageLimit.Total > 0 && c.UsageCount >= c.UsageLimit.Total) {
		return utils.ErrCouponExhausted
	}
	c.UsageCount++
	return nil
}

func (m *memCoupons) DecrementUsage(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.coupons[id]; ok && c.UsageCount > 0 {
		c.UsageCount--
	}
	return nil
}

func (m *memCoupons) usage(id primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coupons[id].UsageCount
}

// orders

type memOrders struct {
	mu        sync.Mutex
	orders    map[primitive.ObjectID]*models.Order
	createErr error
	// staleWrites makes the next n guarded updates lose their race.
	staleWrites int
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[primitive.ObjectID]*models.Order{}}
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	c.StatusHistory = append([]models.StatusChange(nil), o.StatusHistory...)
	return &c
}

func (m *memOrders) Create(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, utils.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (m *memOrders) List(_ context.Context, filter models.OrderFilter, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.RestaurantID != nil && o.RestaurantID != *filter.RestaurantID {
			continue
		}
		if filter.RestaurantID == nil && filter.RestaurantIDs != nil && !containsID(filter.RestaurantIDs, o.RestaurantID) {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	items, total := page(out, params)
	return items, total, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (m *memOrders) CountByCustomer(_ context.Context, customerID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (m *memOrders) UpdateGuarded(_ context.Context, guard interfaces.OrderGuard, set map[string]interface{}, history *models.StatusChange) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.staleWrites > 0 {
		m.staleWrites--
		return nil, interfaces.ErrConcurrentWrite
	}
	o, ok := m.orders[guard.ID]
	if !ok || o.Status != guard.Status || o.Version != guard.Version {
		return nil, interfaces.ErrConcurrentWrite
	}

	for key, value := range set {
		switch key {
		case "status":
			o.Status = value.(models.OrderStatus)
		case "updated_at":
			o.UpdatedAt = value.(time.Time)
		case "review_eligible":
			o.ReviewEligible = value.(bool)
		case "delivered_at":
			at := value.(time.Time)
			o.DeliveredAt = &at
		case "cancellation":
			o.Cancellation = value.(*models.Cancellation)
		case "delivery":
			o.Delivery = value.(*models.DeliveryAssignment)
		case "dispute":
			o.Dispute = value.(*models.Dispute)
		case "dispute.state":
			o.Dispute.State = value.(models.DisputeState)
		case "dispute.resolution":
			o.Dispute.Resolution = value.(string)
		case "dispute.refund_amount":
			o.Dispute.RefundAmount = value.(float64)
		case "dispute.resolved_by":
			by := value.(primitive.ObjectID)
			o.Dispute.ResolvedBy = &by
		case "dispute.resolved_at":
			at := value.(time.Time)
			o.Dispute.ResolvedAt = &at
		}
	}
	if history != nil {
		o.StatusHistory = append(o.StatusHistory, *history)
	}
	o.Version++
	return cloneOrder(o), nil
}

// restaurants

type memRestaurants struct {
	mu          sync.Mutex
	restaurants map[primitive.ObjectID]*models.Restaurant
}

func newMemRestaurants(restaurants ...*models.Restaurant) *memRestaurants {
	m := &memRestaurants{restaurants: map[primitive.ObjectID]*models.Restaurant{}}
	for _, r := range restaurants {
		m.restaurants[r.ID] = r
	}
	return m
}

func (m *memRestaurants) Create(_ context.Context, restaurant *models.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	restaurant.ID = primitive.NewObjectID()
	c := *restaurant
	m.restaurants[c.ID] = &c
	return nil
}

func (m *memRestaurants) GetByID(_ context.Context, id primitive.ObjectID) (*models.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.restaurants[id]
	if !ok {
		return nil, utils.ErrRestaurantNotFound
	}
	c := *r
	return &c, nil
}

func (m *memRestaurants) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.restaurants[id]
	if !ok {
		return nil, utils.ErrRestaurantNotFound
	}
	for key, value := range updates {
		switch key {
		case "name":
			r.Name = value.(string)
		case "is_active":
			r.IsActive = value.(bool)
		case "image_url":
			r.ImageURL = value.(string)
		case "address":
			r.Address = value.(models.Address)
		case "location":
			r.Location = value.(models.GeoPoint)
		case "owner_id":
			r.OwnerID = value.(primitive.ObjectID)
		}
	}
	c := *r
	return &c, nil
}

func (m *memRestaurants) List(_ context.Context, filter interfaces.RestaurantFilter, params *utils.PaginationParams) ([]*models.Restaurant, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Restaurant
	for _, r := range m.restaurants {
		if filter.ActiveOnly && !r.IsActive {
			continue
		}
		if filter.OwnerID != nil && r.OwnerID != *filter.OwnerID {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	items, total := page(out, params)
	return items, total, nil
}

func (m *memRestaurants) ListByOwner(_ context.Context, ownerID primitive.ObjectID) ([]*models.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Restaurant
	for _, r := range m.restaurants {
		if r.OwnerID == ownerID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memRestaurants) Nearby(_ context.Context, _, _ float64, _ float64, limit int) ([]*models.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Restaurant
	for _, r := range m.restaurants {
		if r.IsActive && len(out) < limit {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memRestaurants) Count(_ context.Context, activeOnly bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.restaurants {
		if !activeOnly || r.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *memRestaurants) AddRating(_ context.Context, id primitive.ObjectID, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.restaurants[id]
	if !ok {
		return utils.ErrRestaurantNotFound
	}
	total := r.Rating.Average*float64(r.Rating.Count) + value
	r.Rating.Count++
	r.Rating.Average = utils.ToAmount(utils.Money(total / float64(r.Rating.Count)))
	return nil
}

func (m *memRestaurants) SetRating(_ context.Context, id primitive.ObjectID, rating models.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.restaurants[id]
	if !ok {
		return utils.ErrRestaurantNotFound
	}
	r.Rating = rating
	return nil
}

// menu items

type memMenuItems struct {
	mu        sync.Mutex
	items     map[primitive.ObjectID]*models.MenuItem
	conflicts int
}

func newMemMenuItems(items ...*models.MenuItem) *memMenuItems {
	m := &memMenuItems{items: map[primitive.ObjectID]*models.MenuItem{}}
	for _, it := range items {
		if it.Version == 0 {
			it.Version = 1
		}
		m.items[it.ID] = it
	}
	return m
}

func cloneItem(it *models.MenuItem) *models.MenuItem {
	c := *it
	c.Options = append([]models.MenuOption(nil), it.Options...)
	c.Inventory.StockHistory = append([]models.StockMovement(nil), it.Inventory.StockHistory...)
	c.Inventory.AppliedRefs = append([]string(nil), it.Inventory.AppliedRefs...)
	return &c
}

func (m *memMenuItems) Create(_ context.Context, item *models.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = primitive.NewObjectID()
	item.Version = 1
	m.items[item.ID] = cloneItem(item)
	return nil
}

func (m *memMenuItems) GetByID(_ context.Context, id primitive.ObjectID) (*models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, utils.ErrMenuItemNotFound
	}
	return cloneItem(it), nil
}

func (m *memMenuItems) GetMany(_ context.Context, ids []primitive.ObjectID) ([]*models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.MenuItem
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out = append(out, cloneItem(it))
		}
	}
	return out, nil
}

func (m *memMenuItems) ListByRestaurant(_ context.Context, restaurantID primitive.ObjectID, availableOnly bool) ([]*models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.MenuItem
	for _, it := range m.items {
		if it.RestaurantID == restaurantID && (!availableOnly || it.IsAvailable) {
			out = append(out, cloneItem(it))
		}
	}
	return out, nil
}

func (m *memMenuItems) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, utils.ErrMenuItemNotFound
	}
	for key, value := range updates {
		switch key {
		case "name":
			it.Name = value.(string)
		case "price":
			it.Price = value.(float64)
		case "is_available":
			it.IsAvailable = value.(bool)
		case "image_url":
			it.ImageURL = value.(string)
		case "image_key":
			it.ImageKey = value.(string)
		}
	}
	it.Version++
	return cloneItem(it), nil
}

func (m *memMenuItems) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return utils.ErrMenuItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memMenuItems) ApplyStockUpdate(_ context.Context, u interfaces.StockUpdate) (*models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts > 0 {
		m.conflicts--
		return nil, interfaces.ErrConcurrentWrite
	}
	it, ok := m.items[u.ItemID]
	if !ok || it.Version != u.ExpectedVersion {
		return nil, interfaces.ErrConcurrentWrite
	}
	it.Inventory.CurrentStock = u.NewStock
	it.IsAvailable = u.IsAvailable
	it.Inventory.StockHistory = append(it.Inventory.StockHistory, u.Movement)
	if len(it.Inventory.StockHistory) > u.InlineHistory {
		it.Inventory.StockHistory = it.Inventory.StockHistory[len(it.Inventory.StockHistory)-u.InlineHistory:]
	}
	if u.Movement.Reference != "" {
		it.Inventory.AppliedRefs = append(it.Inventory.AppliedRefs, u.Movement.Reference)
	}
	it.Version++
	return cloneItem(it), nil
}

func (m *memMenuItems) ListLowStock(_ context.Context, restaurantID primitive.ObjectID) ([]*models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.MenuItem
	for _, it := range m.items {
		limit := it.Inventory.ReorderPoint
		if it.Inventory.LowStockThreshold > limit {
			limit = it.Inventory.LowStockThreshold
		}
		if it.RestaurantID == restaurantID && it.Inventory.CurrentStock <= limit {
			out = append(out, cloneItem(it))
		}
	}
	return out, nil
}

func (m *memMenuItems) stock(id primitive.ObjectID) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := m.items[id]
	return it.Inventory.CurrentStock, it.IsAvailable
}

type memMovements struct {
	mu        sync.Mutex
	movements []*models.StockMovement
}

func (m *memMovements) Insert(_ context.Context, movement *models.StockMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *movement
	m.movements = append(m.movements, &c)
	return nil
}

func (m *memMovements) HasReference(_ context.Context, reference string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mv := range m.movements {
		if reference != "" && mv.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMovements) ListByItem(_ context.Context, itemID primitive.ObjectID, params *utils.PaginationParams) ([]*models.StockMovement, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.StockMovement
	for i := len(m.movements) - 1; i >= 0; i-- {
		if m.movements[i].ItemID == itemID {
			out = append(out, m.movements[i])
		}
	}
	items, total := page(out, params)
	return items, total, nil
}

// loyalty

type memLoyalty struct {
	mu           sync.Mutex
	transactions []*models.LoyaltyTransaction
}

func (m *memLoyalty) CreateTransaction(_ context.Context, tx *models.LoyaltyTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.Type == models.LoyaltyTransactionEarned && tx.OrderID != nil {
		for _, existing := range m.transactions {
			if existing.Type == models.LoyaltyTransactionEarned && existing.UserID == tx.UserID &&
				existing.OrderID != nil && *existing.OrderID == *tx.OrderID {
				return utils.ErrAlreadyEarned
			}
		}
	}
	tx.ID = primitive.NewObjectID()
	c := *tx
	m.transactions = append(m.transactions, &c)
	return nil
}

func (m *memLoyalty) DeleteTransaction(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, tx := range m.transactions {
		if tx.ID == id {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memLoyalty) byUser(userID primitive.ObjectID) []*models.LoyaltyTransaction {
	var out []*models.LoyaltyTransaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].UserID == userID {
			c := *m.transactions[i]
			out = append(out, &c)
		}
	}
	return out
}

func (m *memLoyalty) ListByUser(_ context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.LoyaltyTransaction, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, total := page(m.byUser(userID), params)
	return items, total, nil
}

func (m *memLoyalty) Recent(_ context.Context, userID primitive.ObjectID, limit int) ([]*models.LoyaltyTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.byUser(userID)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memLoyalty) FindExpired(_ context.Context, now time.Time, limit int) ([]*models.LoyaltyTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.LoyaltyTransaction
	for _, tx := range m.transactions {
		if tx.Type == models.LoyaltyTransactionEarned && !tx.ExpiryProcessed && tx.ExpiresAt != nil && !tx.ExpiresAt.After(now) {
			c := *tx
			out = append(out, &c)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memLoyalty) ClaimExpiry(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.transactions {
		if tx.ID == id {
			if tx.ExpiryProcessed {
				return false, nil
			}
			tx.ExpiryProcessed = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memLoyalty) ReleaseExpiry(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.transactions {
		if tx.ID == id {
			tx.ExpiryProcessed = false
		}
	}
	return nil
}

func (m *memLoyalty) count(txType models.LoyaltyTransactionType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tx := range m.transactions {
		if tx.Type == txType {
			n++
		}
	}
	return n
}

// notifications

type memNotifications struct {
	mu            sync.Mutex
	notifications []*models.Notification
	createErr     error
}

func (m *memNotifications) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = primitive.NewObjectID()
	c := *n
	m.notifications = append(m.notifications, &c)
	return nil
}

func (m *memNotifications) ListByUser(_ context.Context, userID primitive.ObjectID, unreadOnly bool, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			c := *n
			out = append(out, &c)
		}
	}
	items, total := page(out, params)
	return items, total, nil
}

func (m *memNotifications) CountUnread(_ context.Context, userID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memNotifications) MarkRead(_ context.Context, id, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return utils.ErrNotificationNotFound
}

func (m *memNotifications) MarkAllRead(_ context.Context, userID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (m *memNotifications) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
			return nil
		}
	}
	return utils.ErrNotificationNotFound
}

func (m *memNotifications) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.notifications[:0]
	var deleted int64
	for _, n := range m.notifications {
		if n.ExpiresAt != nil && !n.ExpiresAt.After(now) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	m.notifications = kept
	return deleted, nil
}

func (m *memNotifications) forUser(userID primitive.ObjectID) []*models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	return out
}

func (m *memNotifications) ofType(userID primitive.ObjectID, t models.NotificationType) int {
	count := 0
	for _, n := range m.forUser(userID) {
		if n.Type == t {
			count++
		}
	}
	return count
}

// outbox

type memOutbox struct {
	mu       sync.Mutex
	messages map[primitive.ObjectID]*models.OutboxMessage
}

func newMemOutbox() *memOutbox {
	return &memOutbox{messages: map[primitive.ObjectID]*models.OutboxMessage{}}
}

func (m *memOutbox) Enqueue(_ context.Context, msg *models.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	msg.Status = models.OutboxStatusPending
	if msg.NextAttemptAt.IsZero() {
		msg.NextAttemptAt = time.Now()
	}
	c := *msg
	m.messages[c.ID] = &c
	return nil
}

func (m *memOutbox) ClaimDue(_ context.Context, now time.Time, lease time.Duration, limit int) ([]*models.OutboxMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.OutboxMessage
	for _, msg := range m.messages {
		if len(out) == limit {
			break
		}
		if msg.Status == models.OutboxStatusPending && !msg.NextAttemptAt.After(now) {
			msg.NextAttemptAt = now.Add(lease)
			c := *msg
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memOutbox) MarkDone(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[id].Status = models.OutboxStatusDone
	return nil
}

func (m *memOutbox) MarkFailed(_ context.Context, id primitive.ObjectID, attempts int, lastErr string, nextAttempt time.Time, dead bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := m.messages[id]
	msg.Attempts = attempts
	msg.LastError = lastErr
	msg.NextAttemptAt = nextAttempt
	if dead {
		msg.Status = models.OutboxStatusDead
	}
	return nil
}

func (m *memOutbox) List(_ context.Context, status models.OutboxStatus, params *utils.PaginationParams) ([]*models.OutboxMessage, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.OutboxMessage
	for _, msg := range m.messages {
		if status == "" || msg.Status == status {
			c := *msg
			out = append(out, &c)
		}
	}
	items, total := page(out, params)
	return items, total, nil
}

func (m *memOutbox) RequeueDead(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, msg := range m.messages {
		if msg.Status == models.OutboxStatusDead {
			msg.Status = models.OutboxStatusPending
			msg.Attempts = 0
			msg.NextAttemptAt = now
			n++
		}
	}
	return n, nil
}

func (m *memOutbox) CountByStatus(context.Context) (map[models.OutboxStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.OutboxStatus]int64{}
	for _, msg := range m.messages {
		counts[msg.Status]++
	}
	return counts, nil
}

func (m *memOutbox) all() []*models.OutboxMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.OutboxMessage
	for _, msg := range m.messages {
		c := *msg
		out = append(out, &c)
	}
	return out
}

// reviews

type memReviews struct {
	mu      sync.Mutex
	reviews map[primitive.ObjectID]*models.Review
}

func newMemReviews() *memReviews {
	return &memReviews{reviews: map[primitive.ObjectID]*models.Review{}}
}

func (m *memReviews) Create(_ context.Context, review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.UserID == review.UserID && r.OrderID == review.OrderID {
			return utils.ErrReviewExists
		}
	}
	review.ID = primitive.NewObjectID()
	c := *review
	m.reviews[c.ID] = &c
	return nil
}

func (m *memReviews) GetByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, utils.ErrReviewNotFound
	}
	c := *r
	return &c, nil
}

func (m *memReviews) ExistsForOrder(_ context.Context, userID, orderID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.UserID == userID && r.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memReviews) List(_ context.Context, filter interfaces.ReviewFilter, params *utils.PaginationParams) ([]*models.Review, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Review
	for _, r := range m.reviews {
		if filter.RestaurantID != nil && r.RestaurantID != *filter.RestaurantID {
			continue
		}
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		if filter.VisibleOnly && !countsTowardsRating(r.ModerationStatus) {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	items, total := page(out, params)
	return items, total, nil
}

func (m *memReviews) Update(_ context.Context, id primitive.ObjectID, set map[string]interface{}, edit *models.ReviewEdit) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, utils.ErrReviewNotFound
	}
	for key, value := range set {
		switch key {
		case "ratings":
			r.Ratings = value.(models.ReviewRatings)
		case "comment":
			r.Comment = value.(string)
		case "moderation_status":
			r.ModerationStatus = value.(models.ModerationStatus)
		case "moderation_note":
			r.ModerationNote = value.(string)
		}
	}
	if edit != nil {
		r.EditHistory = append(r.EditHistory, *edit)
	}
	c := *r
	return &c, nil
}

func (m *memReviews) AddFlag(_ context.Context, id primitive.ObjectID, flag models.ReviewFlag) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, utils.ErrReviewNotFound
	}
	r.Flags = append(r.Flags, flag)
	c := *r
	return &c, nil
}

func (m *memReviews) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[id]; !ok {
		return utils.ErrReviewNotFound
	}
	delete(m.reviews, id)
	return nil
}

func (m *memReviews) RatingFor(_ context.Context, restaurantID primitive.ObjectID) (models.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum, count int
	for _, r := range m.reviews {
		if r.RestaurantID == restaurantID && countsTowardsRating(r.ModerationStatus) {
			sum += r.Ratings.Overall
			count++
		}
	}
	if count == 0 {
		return models.Rating{}, nil
	}
	return models.Rating{Average: utils.ToAmount(utils.Money(float64(sum) / float64(count))), Count: count}, nil
}

func (m *memReviews) CountPending(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.reviews {
		if r.ModerationStatus == models.ModerationStatusPending {
			n++
		}
	}
	return n, nil
}

// events

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
