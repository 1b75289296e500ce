package referral

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/postgres"
)

// PgStore is the postgres ledger. Pass a pgx.Tx to keep every write inside
// the caller's transaction.
type PgStore struct{ DB postgres.DBTX }

func NewPgStore(db postgres.DBTX) *PgStore { return &PgStore{DB: db} }

func (s *PgStore) OrderReferral(ctx context.Context, orderID int64) (OrderReferral, error) {
	var o OrderReferral
	err := s.DB.QueryRow(ctx, `
		SELECT o.id, o.status, o.user_id, r.id, o.invoice
		FROM orders o
		JOIN users u ON u.id = o.user_id
		LEFT JOIN users r ON r.id = u.referred_by
		WHERE o.id = $1`, orderID).
		Scan(&o.OrderID, &o.OrderStatus, &o.BuyerID, &o.ReferrerID, &o.Invoice)
	if errors.Is(err, pgx.ErrNoRows) {
		return OrderReferral{}, ErrOrderNotFound
	}
	return o, err
}

func (s *PgStore) CommissionLines(ctx context.Context, orderID int64) ([]CommissionLine, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT oi.product_id, oi.price::text, oi.quantity, p.affiliate_commission::text
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CommissionLine
	for rows.Next() {
		var (
			l     CommissionLine
			price string
			rate  *string
		)
		if err := rows.Scan(&l.ProductID, &price, &l.Quantity, &rate); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = postgres.Decimal(price); err != nil {
			return nil, err
		}
		if l.AffiliateRate, err = postgres.NullDecimal(rate); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PgStore) DefaultCommissionRate(ctx context.Context) (decimal.Decimal, bool, error) {
	var v string
	err := s.DB.QueryRow(ctx, `SELECT value FROM settings WHERE key = 'commission_rate'`).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	d, err := postgres.Decimal(v)
	if err != nil {
		// a garbage setting behaves like an out-of-range rate
		return decimal.Zero, true, nil
	}
	return d, true, nil
}

func (s *PgStore) FindByOrder(ctx context.Context, orderID int64) (Earning, error) {
	var (
		e      Earning
		amount string
	)
	err := s.DB.QueryRow(ctx, `
		SELECT id, user_id, order_id, amount::text, status, created_at, updated_at
		FROM referral_earnings
		WHERE order_id = $1
		ORDER BY id
		LIMIT 1`, orderID).
		Scan(&e.ID, &e.UserID, &e.OrderID, &amount, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Earning{}, ErrNotFound
	}
	if err != nil {
		return Earning{}, err
	}
	e.Amount, err = postgres.Decimal(amount)
	return e, err
}

func (s *PgStore) Create(ctx context.Context, e Earning) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
		INSERT INTO referral_earnings(user_id, order_id, amount, status)
		VALUES ($1, NULLIF($2::bigint, 0), $3::numeric, $4)
		RETURNING id`, e.UserID, e.OrderID, e.Amount.StringFixed(2), string(e.Status)).Scan(&id)
	return id, err
}

func (s *PgStore) UpdateStatus(ctx context.Context, id int64, st Status) error {
	ct, err := s.DB.Exec(ctx, `UPDATE referral_earnings SET status = $2, updated_at = now() WHERE id = $1`, id, string(st))
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// AdjustBalance moves users.referral_earnings by delta, never below zero.
func (s *PgStore) AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE users
		SET referral_earnings = GREATEST(COALESCE(referral_earnings, 0) + $2::numeric, 0),
		    updated_at = now()
		WHERE id = $1`, userID, delta.StringFixed(2))
	return err
}

func (s *PgStore) AvailableBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var v string
	err := s.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount) FILTER (WHERE status IN ('approved', 'paid')), 0)::text
		FROM referral_earnings
		WHERE user_id = $1`, userID).Scan(&v)
	if err != nil {
		return decimal.Zero, err
	}
	return postgres.Decimal(v)
}

func (s *PgStore) LockUser(ctx context.Context, userID int64) error {
	var id int64
	err := s.DB.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

func (s *PgStore) CreateWithdrawal(ctx context.Context, w Withdrawal) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
		INSERT INTO withdrawals(user_id, amount, status)
		VALUES ($1, $2::numeric, $3)
		RETURNING id`, w.UserID, w.Amount.StringFixed(2), w.Status).Scan(&id)
	return id, err
}
