package orders

import (
	"context"
	"errors"
)

type ProductLookup func(ctx context.Context, productID int64) (Product, error)

// ResolveSellerID picks the seller a cancellation is filed against:
//  1. the order's own seller,
//  2. else the first line item's seller,
//  3. else the seller of the first line item's product.
//
// It returns nil when none of them is known. A missing product is not an error.
func ResolveSellerID(ctx context.Context, o Order, items []OrderItem, lookup ProductLookup) (*int64, error) {
	if o.SellerID != nil && *o.SellerID != 0 {
		return o.SellerID, nil
	}
	if len(items) == 0 {
		return nil, nil
	}
	first := items[0]
	if first.SellerID != nil && *first.SellerID != 0 {
		return first.SellerID, nil
	}
	if lookup == nil {
		return nil, nil
	}
	p, err := lookup(ctx, first.ProductID)
	if errors.Is(err, ErrProductNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.SellerID != nil && *p.SellerID != 0 {
		return p.SellerID, nil
	}
	return nil, nil
}
