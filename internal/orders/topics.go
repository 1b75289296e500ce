package orders

import "strconv"

const (
	TopicStatusChanged        = "order.status.changed"
	TopicOrderCancelled       = "order.cancelled"
	TopicCancellationReviewed = "order.cancellation.reviewed"
)

// Partition key = order id, so every event for one order stays in sequence.
func PartitionKey(orderID int64) []byte { return []byte(strconv.FormatInt(orderID, 10)) }
