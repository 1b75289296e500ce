package notify

import (
	"fmt"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/orders"
)

const (
	KindStatusChange = "order_status_change"
	KindCancelled    = "order_cancelled"
)

type Notification struct {
	EventID  string
	SellerID int64
	OrderID  int64
	Kind     string
	Title    string
	Message  string
	Link     string
}

var statusTitles = map[orders.Status]string{
	orders.StatusPending:    "New Order",
	orders.StatusConfirmed:  "Order Confirmed",
	orders.StatusProcessing: "Order Processing",
	orders.StatusShipped:    "Order Shipped",
	orders.StatusDelivered:  "Order Delivered",
	orders.StatusCancelled:  "Order Cancelled",
	orders.StatusPaid:       "Payment Received",
}

var statusMessages = map[orders.Status]string{
	orders.StatusPending:    "New order %s has been placed",
	orders.StatusConfirmed:  "Order %s has been confirmed",
	orders.StatusProcessing: "Order %s is now being processed",
	orders.StatusShipped:    "Order %s has been shipped",
	orders.StatusDelivered:  "Order %s has been delivered. Payment will be released after holding period.",
	orders.StatusCancelled:  "Order %s has been cancelled",
	orders.StatusPaid:       "Order %s payment has been received",
}

func orderRef(orderID int64, invoice string) string {
	if invoice != "" {
		return invoice
	}
	return fmt.Sprintf("#%d", orderID)
}

func orderLink(orderID int64) string { return fmt.Sprintf("seller/orders/detail/%d", orderID) }

func statusChanged(p orders.StatusChangedPayload) (title, message string) {
	ref := orderRef(p.OrderID, p.Invoice)
	title, ok := statusTitles[p.To]
	if !ok {
		title = "Order Status Update"
	}
	if f, ok := statusMessages[p.To]; ok {
		return title, fmt.Sprintf(f, ref)
	}
	return title, fmt.Sprintf("Order %s status changed to %s", ref, p.To)
}

func cancelled(p orders.OrderCancelledPayload) (title, message string) {
	return "Order Cancelled", fmt.Sprintf(
		"Order %s has been cancelled by the buyer (%s). No funds will be added to your balance for this order.",
		orderRef(p.OrderID, p.Invoice), p.Reason)
}
