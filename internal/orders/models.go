package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                  int64
	Name                string
	SellerID            *int64
	Stock               int
	AffiliateCommission *decimal.Decimal
}

type Order struct {
	ID          int64           `json:"id"`
	BuyerID     int64           `json:"buyer_id"`
	SellerID    *int64          `json:"seller_id,omitempty"` // nil: fall back to the line items
	Invoice     string          `json:"invoice"`
	Status      Status          `json:"status"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	Version     int             `json:"version"`
	DeliveredAt *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal // snapshot at purchase time
	SellerID  *int64
}

// OrderUpdate lists the columns a status write may touch.
type OrderUpdate struct {
	Status      Status
	DeliveredAt *time.Time
}

type CancelLog struct {
	ID        int64        `json:"id"`
	OrderID   int64        `json:"order_id"`
	SellerID  *int64       `json:"seller_id,omitempty"`
	Reason    string       `json:"reason"`
	Status    CancelStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type CancelFilter struct {
	Status CancelStatus // empty = all
	Limit  int
	Offset int
}
