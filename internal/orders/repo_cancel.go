package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/postgres"
)

type cancelLogStore struct{ db postgres.DBTX }

func (s cancelLogStore) Create(ctx context.Context, c CancelLog) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO order_cancel_log(order_id, seller_id, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, c.OrderID, c.SellerID, c.Reason, string(c.Status)).Scan(&id)
	return id, err
}

func (s cancelLogStore) UpdateStatus(ctx context.Context, id int64, st CancelStatus) error {
	ct, err := s.db.Exec(ctx, `
		UPDATE order_cancel_log SET status = $2, updated_at = now() WHERE id = $1`, id, string(st))
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrCancelLogNotFound
	}
	return nil
}

func (s cancelLogStore) Find(ctx context.Context, id int64) (CancelLog, error) {
	var c CancelLog
	err := s.db.QueryRow(ctx, `
		SELECT id, order_id, seller_id, reason, status, created_at, updated_at
		FROM order_cancel_log WHERE id = $1`, id).
		Scan(&c.ID, &c.OrderID, &c.SellerID, &c.Reason, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CancelLog{}, ErrCancelLogNotFound
	}
	return c, err
}

// List returns newest first. An empty Status matches every row.
func (s cancelLogStore) List(ctx context.Context, f CancelFilter) ([]CancelLog, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, seller_id, reason, status, created_at, updated_at
		FROM order_cancel_log
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, string(f.Status), f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CancelLog{}
	for rows.Next() {
		var c CancelLog
		if err := rows.Scan(&c.ID, &c.OrderID, &c.SellerID, &c.Reason, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
