package domain

import "github.com/shopspring/decimal"

// Event payloads are snapshots taken at the moment of the triggering
// operation. Field names match what the notification and tracking consumers
// already expect on the wire.

type OrderPlaced struct {
	OrderNumber     string          `json:"orderNumber"`
	Email           string          `json:"email"`
	FirstName       string          `json:"firstName"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingAddress *Address        `json:"shippingAddress,omitempty"`
	Items           []PlacedItem    `json:"items"`
}

type PlacedItem struct {
	SKUCode  string          `json:"skuCode"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type OrderStatusUpdated struct {
	OrderID        int64  `json:"orderId"`
	OrderNumber    string `json:"orderNumber"`
	Status         Status `json:"status"`
	Message        string `json:"message"`
	UserID         string `json:"userId"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
}
