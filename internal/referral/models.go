package referral

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
	// StatusPaid marks a withdrawal row: a negative amount with no order.
	StatusPaid Status = "paid"
)

const WithdrawalPending = "pending"

var (
	ErrNotFound      = errors.New("referral earning not found")
	ErrOrderNotFound = errors.New("order not found")
	ErrUserNotFound  = errors.New("user not found")

	ErrInvalidAmount       = errors.New("withdrawal amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient referral balance")
)

type Earning struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"` // referrer
	OrderID   int64           `json:"order_id"` // 0 for withdrawals
	Amount    decimal.Decimal `json:"amount"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Withdrawal struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	EarningID int64           `json:"earning_id"`
	Balance   decimal.Decimal `json:"balance"` // available after the debit
}

// OrderReferral is the slice of an order the ledger needs: its current status
// and who referred the buyer, if anyone.
type OrderReferral struct {
	OrderID     int64
	OrderStatus string
	BuyerID     int64
	ReferrerID  *int64
	Invoice     string
}

type CommissionLine struct {
	ProductID     int64
	UnitPrice     decimal.Decimal
	Quantity      int
	AffiliateRate *decimal.Decimal
}

// Store is the ledger port. Implementations are bound to the caller's
// transaction and must never commit on their own.
type Store interface {
	OrderReferral(ctx context.Context, orderID int64) (OrderReferral, error)
	CommissionLines(ctx context.Context, orderID int64) ([]CommissionLine, error)
	DefaultCommissionRate(ctx context.Context) (rate decimal.Decimal, ok bool, err error)
	FindByOrder(ctx context.Context, orderID int64) (Earning, error)
	Create(ctx context.Context, e Earning) (int64, error)
	UpdateStatus(ctx context.Context, id int64, st Status) error
	// AdjustBalance moves the users.referral_earnings display copy. The
	// ledger sum from AvailableBalance is the balance that counts.
	AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal) error
	// AvailableBalance sums approved credits and paid (negative) withdrawals.
	AvailableBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	// LockUser serialises balance changes for one user until the tx ends.
	LockUser(ctx context.Context, userID int64) error
	CreateWithdrawal(ctx context.Context, w Withdrawal) (int64, error)
}
