package service

import (
	"context"

	catalogmodel "supplyhub/apps/catalog/model"
	customermodel "supplyhub/apps/customer/model"
	"supplyhub/apps/order/model"
)

type OrderRepository interface {
	// Place locks the ordered product rows, re-checks and decrements stock,
	// then inserts the order with its items, all in one transaction. It
	// fails with a validation error when any line is short of stock.
	Place(ctx context.Context, o *model.Order) error
	Get(ctx context.Context, id uint) (*model.Order, error)
	List(ctx context.Context, f model.Filter) ([]model.Order, int64, error)
	// Save writes the order's own columns; items are immutable after
	// placement. It fails with a conflict when the stored status is no longer
	// from, and in the same transaction releases or re-reserves stock as
	// Status.HoldsStock says for the new status.
	Save(ctx context.Context, o *model.Order, from model.Status) error
	// Delete re-checks that the stored order is deletable and returns its
	// stock first when the order still holds it.
	Delete(ctx context.Context, id uint) error
}

type CustomerLookup interface {
	Get(ctx context.Context, id uint) (*customermodel.Customer, error)
}

type ProductLookup interface {
	Get(ctx context.Context, id uint) (*catalogmodel.Product, error)
}
