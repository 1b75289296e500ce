package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/postgres"
	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/referral"
)

// Repo is the postgres Store.
type Repo struct{ DB *pgxpool.Pool }

func NewRepo(db *pgxpool.Pool) *Repo { return &Repo{DB: db} }

func (r *Repo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(pgStores{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *Repo) Read() Tx { return pgStores{db: r.DB} }

// pgStores binds every store to one executor, either the pool or a tx.
type pgStores struct{ db postgres.DBTX }

func (s pgStores) Orders() OrderStore         { return orderStore{db: s.db} }
func (s pgStores) Products() ProductStore     { return productStore{db: s.db} }
func (s pgStores) CancelLogs() CancelLogStore { return cancelLogStore{db: s.db} }
func (s pgStores) Referrals() referral.Store  { return referral.NewPgStore(s.db) }

type orderStore struct{ db postgres.DBTX }

const selectOrder = `
	SELECT id, user_id, seller_id, invoice, status,
	       subtotal::text, tax_amount::text, delivery_fee::text, discount_amount::text, total_amount::text,
	       version, delivered_at, created_at, updated_at
	FROM orders
	WHERE id = $1`

func (s orderStore) Find(ctx context.Context, id int64) (Order, error) {
	return s.scanOrder(ctx, selectOrder, id)
}

// FindForUpdate holds the row lock until commit, so an admin update and a
// buyer cancel on the same order run one after the other.
func (s orderStore) FindForUpdate(ctx context.Context, id int64) (Order, error) {
	return s.scanOrder(ctx, selectOrder+` FOR UPDATE`, id)
}

func (s orderStore) scanOrder(ctx context.Context, q string, id int64) (Order, error) {
	var (
		o                                     Order
		subtotal, tax, delivery, discount, tt string
	)
	err := s.db.QueryRow(ctx, q, id).Scan(
		&o.ID, &o.BuyerID, &o.SellerID, &o.Invoice, &o.Status,
		&subtotal, &tax, &delivery, &discount, &tt,
		&o.Version, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	for dst, src := range map[*decimal.Decimal]string{
		&o.Subtotal:    subtotal,
		&o.Tax:         tax,
		&o.DeliveryFee: delivery,
		&o.Discount:    discount,
		&o.Total:       tt,
	} {
		if *dst, err = postgres.Decimal(src); err != nil {
			return Order{}, err
		}
	}
	return o, nil
}

func (s orderStore) Update(ctx context.Context, id int64, u OrderUpdate) error {
	ct, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, delivered_at = $3, version = version + 1, updated_at = now()
		WHERE id = $1`, id, string(u.Status), u.DeliveredAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrOrderNotFound
	}
	return nil
}

func (s orderStore) Items(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price::text, seller_id
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var (
			it    OrderItem
			price string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &price, &it.SellerID); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = postgres.Decimal(price); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
