package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Stealz-com/order/internal/order/domain"
)

var (
	ErrStockUnavailable = errors.New("product is not in stock, please try again later")
	ErrNotFound         = errors.New("order not found")
	ErrUnauthorized     = errors.New("unauthorized access to order")
	ErrInvalidRequest   = errors.New("invalid order request")
)

// IsClientError reports whether err is a caller mistake rather than a
// dependency fault. The circuit breaker uses this to avoid tripping on
// business rejections.
func IsClientError(err error) bool {
	return errors.Is(err, ErrStockUnavailable) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidRequest)
}

const placedMessage = "Order has been placed successfully."

type Service struct {
	log           *slog.Logger
	orders        OrderRepository
	history       HistoryRepository
	inventory     InventoryClient
	events        EventPublisher
	fallbackEmail string
}

func NewService(log *slog.Logger, orders OrderRepository, history HistoryRepository, inventory InventoryClient, events EventPublisher, fallbackEmail string) *Service {
	return &Service{
		log:           log,
		orders:        orders,
		history:       history,
		inventory:     inventory,
		events:        events,
		fallbackEmail: fallbackEmail,
	}
}

type PlaceOrderRequest struct {
	UserID          string
	Email           string
	TotalAmount     decimal.Decimal
	ShippingAddress *domain.Address
	Items           []domain.LineItem
}

// PlaceOrder runs the placement saga: check stock, deduct stock, persist the
// order, append the PLACED history entry, publish the placement event. There
// is no compensation once the deduct has succeeded: a failed save leaves the
// stock deducted. Returns the order number on success.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (string, error) {
	if err := validatePlacement(req); err != nil {
		return "", err
	}

	order := domain.NewOrder(req.UserID, req.Items, req.TotalAmount, req.ShippingAddress)
	s.log.Info("placing order", "order_number", order.OrderNumber, "user_id", order.UserID)

	skus := distinctSKUs(order.Items)
	stock, err := s.inventory.CheckStock(ctx, skus)
	if err != nil {
		return "", fmt.Errorf("stock check: %w", err)
	}
	if len(stock) == 0 || !allInStock(skus, stock) {
		return "", ErrStockUnavailable
	}

	deductions := make([]StockDeduction, 0, len(order.Items))
	for _, item := range order.Items {
		deductions = append(deductions, StockDeduction{SKUCode: item.SKUCode, Quantity: item.Quantity})
	}
	if err := s.inventory.DeductStock(ctx, deductions); err != nil {
		return "", fmt.Errorf("stock deduct: %w", err)
	}

	// The declared total is trusted and persisted as-is; a mismatch against
	// the line-item sum is only logged.
	if !order.TotalAmount.Equal(order.ItemTotal()) {
		s.log.Warn("declared total differs from line item sum",
			"order_number", order.OrderNumber,
			"declared", order.TotalAmount.String(),
			"computed", order.ItemTotal().String())
	}

	if err := s.orders.Save(ctx, &order); err != nil {
		return "", fmt.Errorf("save order: %w", err)
	}
	s.log.Info("order placed", "order_number", order.OrderNumber, "order_id", order.ID)

	if err := s.history.Append(ctx, domain.StatusHistory{
		OrderID: order.ID,
		Status:  domain.StatusPlaced,
		Message: placedMessage,
	}); err != nil {
		return "", fmt.Errorf("append status history: %w", err)
	}

	email := req.Email
	if email == "" {
		email = s.fallbackEmail
	}
	ev := domain.OrderPlaced{
		OrderNumber:     order.OrderNumber,
		Email:           email,
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.Shipping,
		Items:           placedItems(order.Items),
	}
	if order.Shipping != nil {
		ev.FirstName = order.Shipping.FullName
	}
	if err := s.events.PublishOrderPlaced(ctx, ev); err != nil {
		s.log.Error("order placed event publish failed", "order_number", order.OrderNumber, "err", err)
	}

	return order.OrderNumber, nil
}

type UpdateStatusRequest struct {
	OrderID        int64
	Status         domain.Status
	TrackingNumber string
	Carrier        string
	Message        string
}

// UpdateStatus applies the fields present in the request, leaving the rest
// unchanged, appends a history entry carrying the resulting status and
// publishes the status-updated event. No ownership check is performed here:
// the endpoint is trusted service-to-service.
func (s *Service) UpdateStatus(ctx context.Context, req UpdateStatusRequest) error {
	order, err := s.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return err
	}

	if req.Status != "" {
		order.Status = req.Status
	}
	if req.TrackingNumber != "" {
		order.TrackingNumber = req.TrackingNumber
	}
	if req.Carrier != "" {
		order.Carrier = req.Carrier
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	message := req.Message
	if message == "" {
		message = fmt.Sprintf("Order status updated to %s", order.Status)
	}
	if err := s.history.Append(ctx, domain.StatusHistory{
		OrderID: order.ID,
		Status:  order.Status,
		Message: message,
	}); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	s.log.Info("order status updated", "order_id", order.ID, "status", order.Status)

	ev := domain.OrderStatusUpdated{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		Message:        message,
		UserID:         order.UserID,
		TrackingNumber: order.TrackingNumber,
		Carrier:        order.Carrier,
	}
	if err := s.events.PublishOrderStatusUpdated(ctx, ev); err != nil {
		s.log.Error("status update event publish failed", "order_id", order.ID, "err", err)
	}

	return nil
}

// OrderView is the read projection: line items carry only sku, price and
// quantity, never the customization fields.
type OrderView struct {
	ID             int64
	OrderNumber    string
	Status         domain.Status
	TotalAmount    decimal.Decimal
	CreatedAt      time.Time
	Items          []domain.PlacedItem
	TrackingNumber string
	Carrier        string
}

type TrackingView struct {
	OrderID        int64
	OrderNumber    string
	Status         domain.Status
	TrackingNumber string
	Carrier        string
	History        []domain.StatusHistory
}

func (s *Service) ListOrders(ctx context.Context, userID string) ([]OrderView, error) {
	orders, err := s.orders.FindAllByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toView(o))
	}
	return views, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID int64, userID string) (OrderView, error) {
	order, err := s.loadOwned(ctx, orderID, userID)
	if err != nil {
		return OrderView{}, err
	}
	return toView(order), nil
}

func (s *Service) GetTracking(ctx context.Context, orderID int64, userID string) (TrackingView, error) {
	order, err := s.loadOwned(ctx, orderID, userID)
	if err != nil {
		return TrackingView{}, err
	}
	history, err := s.history.FindByOrderID(ctx, order.ID)
	if err != nil {
		return TrackingView{}, err
	}
	return TrackingView{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		TrackingNumber: order.TrackingNumber,
		Carrier:        order.Carrier,
		History:        history,
	}, nil
}

func (s *Service) loadOwned(ctx context.Context, orderID int64, userID string) (domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.UserID != userID {
		return domain.Order{}, ErrUnauthorized
	}
	return order, nil
}

func validatePlacement(req PlaceOrderRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: line items must not be empty", ErrInvalidRequest)
	}
	for _, item := range req.Items {
		if item.SKUCode == "" {
			return fmt.Errorf("%w: line item sku code is required", ErrInvalidRequest)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: line item quantity must be at least 1", ErrInvalidRequest)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: line item price must not be negative", ErrInvalidRequest)
		}
	}
	if req.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: total amount must not be negative", ErrInvalidRequest)
	}
	return nil
}

func distinctSKUs(items []domain.LineItem) []string {
	seen := make(map[string]struct{}, len(items))
	skus := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.SKUCode]; ok {
			continue
		}
		seen[item.SKUCode] = struct{}{}
		skus = append(skus, item.SKUCode)
	}
	return skus
}

// allInStock fails closed: a sku absent from the check result counts as out
// of stock.
func allInStock(skus []string, stock map[string]bool) bool {
	for _, sku := range skus {
		if !stock[sku] {
			return false
		}
	}
	return true
}

func placedItems(items []domain.LineItem) []domain.PlacedItem {
	out := make([]domain.PlacedItem, 0, len(items))
	for _, item := range items {
		out = append(out, domain.PlacedItem{SKUCode: item.SKUCode, Price: item.Price, Quantity: item.Quantity})
	}
	return out
}

func toView(o domain.Order) OrderView {
	return OrderView{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		TotalAmount:    o.TotalAmount,
		CreatedAt:      o.CreatedAt,
		Items:          placedItems(o.Items),
		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,
	}
}
