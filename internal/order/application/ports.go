package application

import (
	"context"

	"github.com/Stealz-com/order/internal/order/domain"
)

type OrderRepository interface {
	// Save persists the order and its line items as one unit, assigning
	// ID and CreatedAt on the way out.
	Save(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id int64) (domain.Order, error)
	FindAllByUserID(ctx context.Context, userID string) ([]domain.Order, error)
	// Update writes status, tracking number and carrier. Everything else
	// on an order is immutable after placement.
	Update(ctx context.Context, o domain.Order) error
}

// HistoryRepository is the append-only status ledger.
type HistoryRepository interface {
	Append(ctx context.Context, h domain.StatusHistory) error
	// FindByOrderID returns entries newest-first.
	FindByOrderID(ctx context.Context, orderID int64) ([]domain.StatusHistory, error)
}

type StockDeduction struct {
	SKUCode  string `json:"skuCode"`
	Quantity int    `json:"quantity"`
}

type InventoryClient interface {
	// CheckStock reports availability per sku. A sku missing from the
	// result is treated as out of stock by the caller.
	CheckStock(ctx context.Context, skuCodes []string) (map[string]bool, error)
	DeductStock(ctx context.Context, deductions []StockDeduction) error
}

type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, ev domain.OrderPlaced) error
	PublishOrderStatusUpdated(ctx context.Context, ev domain.OrderStatusUpdated) error
}
