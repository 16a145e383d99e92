package service

import (
	"context"
	"time"

	catalogmodel "supplyhub/apps/catalog/model"
	ordermodel "supplyhub/apps/order/model"
	"supplyhub/apps/quote/model"
)

type QuoteRepository interface {
	Create(ctx context.Context, q *model.Quote) error
	Get(ctx context.Context, id uint) (*model.Quote, error)
	List(ctx context.Context, f model.Filter) ([]model.Quote, int64, error)
	// Save writes the quote and updates its existing items. It fails with a
	// conflict when the stored status is no longer from, so a quote links to
	// at most one order.
	Save(ctx context.Context, q *model.Quote, from model.Status) error
	Delete(ctx context.Context, id uint) error
	// ListStale returns sent quotes whose validUntil is before t.
	ListStale(ctx context.Context, t time.Time) ([]model.Quote, error)
}

type OrderLookup interface {
	Get(ctx context.Context, id uint) (*ordermodel.Order, error)
}

type ProductLookup interface {
	Get(ctx context.Context, id uint) (*catalogmodel.Product, error)
}
