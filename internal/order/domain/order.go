package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is an open vocabulary: the tracking collaborator may introduce labels
// this service has never seen, so unknown values pass through untouched.
type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsKnown() bool {
	switch s {
	case StatusPlaced, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID             int64
	OrderNumber    string
	UserID         string
	Items          []LineItem
	TotalAmount    decimal.Decimal
	Shipping       *Address
	Status         Status
	TrackingNumber string
	Carrier        string
	CreatedAt      time.Time
}

type LineItem struct {
	SKUCode            string
	Price              decimal.Decimal
	Quantity           int
	CustomImageURL     string
	OriginalImageURL   string
	DesignInstructions string
}

type Address struct {
	FullName    string `json:"fullName"`
	AddressLine string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zipCode"`
	Phone       string `json:"phone"`
}

// NewOrder builds an order draft in PLACED state with a fresh order number.
// ID and CreatedAt are assigned by the repository on save.
func NewOrder(userID string, items []LineItem, total decimal.Decimal, shipping *Address) Order {
	return Order{
		OrderNumber: uuid.NewString(),
		UserID:      userID,
		Items:       items,
		TotalAmount: total,
		Shipping:    shipping,
		Status:      StatusPlaced,
	}
}

// ItemTotal sums price*quantity over the line items. The declared total is
// what gets persisted; this is used only to spot mismatches.
func (o Order) ItemTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// StatusHistory rows are append-only: never updated or deleted once written.
type StatusHistory struct {
	ID        int64
	OrderID   int64
	Status    Status
	Message   string
	CreatedAt time.Time
}
