package orders

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/referral"
)

type OrderStore interface {
	Find(ctx context.Context, id int64) (Order, error)
	// FindForUpdate locks the order row until the surrounding tx ends.
	FindForUpdate(ctx context.Context, id int64) (Order, error)
	Update(ctx context.Context, id int64, u OrderUpdate) error
	Items(ctx context.Context, orderID int64) ([]OrderItem, error)
}

type ProductStore interface {
	Find(ctx context.Context, id int64) (Product, error)
	UpdateStock(ctx context.Context, productID int64, delta int) error
}

type CancelLogStore interface {
	Create(ctx context.Context, c CancelLog) (int64, error)
	UpdateStatus(ctx context.Context, id int64, st CancelStatus) error
	Find(ctx context.Context, id int64) (CancelLog, error)
	List(ctx context.Context, f CancelFilter) ([]CancelLog, error)
}

// Tx exposes every store bound to one database transaction.
type Tx interface {
	Orders() OrderStore
	Products() ProductStore
	CancelLogs() CancelLogStore
	Referrals() referral.Store
}

// Store is the transaction boundary. fn returning an error rolls back all of
// its writes; nil commits them. Calls do not nest.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	// Read gives non-transactional access for queries.
	Read() Tx
}

// ReferralService settles commissions on the caller's transaction; it must
// not commit on its own.
type ReferralService interface {
	ProcessReferralEarning(ctx context.Context, ledger referral.Store, orderID int64) (bool, error)
	CancelReferralEarning(ctx context.Context, ledger referral.Store, orderID int64) (bool, error)
	Withdraw(ctx context.Context, ledger referral.Store, userID int64, amount decimal.Decimal) (referral.Withdrawal, error)
}

// EventPublisher receives events after commit. Delivery is best effort.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, eventType string, orderID int64, payload any) error
}

// StatusCache is a read-through cache for OrderStatus. Misses and backend
// errors look the same to callers.
type StatusCache interface {
	Get(ctx context.Context, orderID int64) (StatusSnapshot, bool)
	Set(ctx context.Context, snap StatusSnapshot)
	Invalidate(ctx context.Context, orderID int64)
}
