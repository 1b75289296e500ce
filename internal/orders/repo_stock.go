package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/prasangapokharel/Eccomerce-Nutrinexas-sub004/internal/postgres"
)

type productStore struct{ db postgres.DBTX }

func (s productStore) Find(ctx context.Context, id int64) (Product, error) {
	var (
		p    Product
		rate *string
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, product_name, seller_id, stock_quantity, affiliate_commission::text
		FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.SellerID, &p.Stock, &rate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	p.AffiliateCommission, err = postgres.NullDecimal(rate)
	return p, err
}

// UpdateStock adds delta to the product's stock. A restock is relative so
// concurrent sales of the same product are not overwritten.
func (s productStore) UpdateStock(ctx context.Context, productID int64, delta int) error {
	ct, err := s.db.Exec(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1`, productID, delta)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrProductNotFound
	}
	return nil
}
