package orders

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusUnpaid     Status = "unpaid"
	StatusPaid       Status = "paid"
)

// Statuses an admin may set. confirmed is not settable here but a buyer can
// still cancel from it.
var adminSettable = map[Status]bool{
	StatusPending:    true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
	StatusUnpaid:     true,
	StatusPaid:       true,
}

var cancellable = map[Status]bool{
	StatusPending:    true,
	StatusConfirmed:  true,
	StatusProcessing: true,
	StatusUnpaid:     true,
}

func IsAdminSettable(s Status) bool { return adminSettable[s] }

func CanCancel(s Status) bool { return cancellable[s] }

type CancelStatus string

const (
	CancelProcessing CancelStatus = "processing"
	CancelRefunded   CancelStatus = "refunded"
	CancelFailed     CancelStatus = "failed"
)

func (s CancelStatus) Valid() bool {
	switch s {
	case CancelProcessing, CancelRefunded, CancelFailed:
		return true
	}
	return false
}
