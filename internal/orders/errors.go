package orders

import "errors"

var (
	ErrInvalidStatus       = errors.New("invalid status")
	ErrReasonRequired      = errors.New("cancellation reason is required")
	ErrOrderNotFound       = errors.New("order not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrCancelLogNotFound   = errors.New("cancellation not found")
	ErrNotCancellable      = errors.New("this order cannot be cancelled")
	ErrForbidden           = errors.New("order does not belong to this user")
	ErrInvalidCancelStatus = errors.New("invalid cancellation status")
)
