package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the per-user mutable slot of services waiting to be booked.
// There is exactly one Cart per UserID.
type Cart struct {
	ID        string     `json:"_id,omitempty"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem is unique inside a cart by (VendorID, ServiceName).
type CartItem struct {
	VendorID    string          `json:"vendorId"`
	ServiceName string          `json:"serviceName"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

func (i CartItem) SameLine(vendorID, serviceName string) bool {
	return i.VendorID == vendorID && i.ServiceName == serviceName
}

// Total sums item prices.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price)
	}
	return total
}
