package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderStatusChanged   = "OrderStatusChanged"
	EventOrderCancelled       = "OrderCancelled"
	EventCancellationReviewed = "CancellationReviewed"
)

const EventVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"` // e.g. "order-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type StatusChangedPayload struct {
	OrderID        int64  `json:"order_id"`
	Invoice        string `json:"invoice"`
	SellerID       *int64 `json:"seller_id,omitempty"`
	From           Status `json:"from"`
	To             Status `json:"to"`
	ReferralSettle bool   `json:"referral_settled"` // an earning was approved or cancelled
}

type RestockedItem struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type OrderCancelledPayload struct {
	OrderID     int64           `json:"order_id"`
	Invoice     string          `json:"invoice"`
	BuyerID     int64           `json:"buyer_id"`
	SellerID    *int64          `json:"seller_id,omitempty"`
	CancelLogID int64           `json:"cancel_log_id"`
	Reason      string          `json:"reason"`
	From        Status          `json:"from"`
	Total       decimal.Decimal `json:"total"`
	Restocked   []RestockedItem `json:"restocked"`
}

type CancellationReviewedPayload struct {
	CancelLogID int64        `json:"cancel_log_id"`
	OrderID     int64        `json:"order_id"`
	SellerID    *int64       `json:"seller_id,omitempty"`
	Status      CancelStatus `json:"status"`
}
