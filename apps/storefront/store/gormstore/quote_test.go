package gormstore

import (
	"context"
	"testing"
	"time"

	"supplyhub/apps/quote/model"
	"supplyhub/pkg/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQuote(t *testing.T, st *Store, number string, status model.Status, validUntil *time.Time) *model.Quote {
	t.Helper()
	q := &model.Quote{
		QuoteNumber:  number,
		CustomerName: "Pat Buyer",
		Email:        "pat@example.com",
		Status:       status,
		ValidUntil:   validUntil,
		Items:        []model.QuoteItem{{ProductName: "Pallet racking", Quantity: 4}},
	}
	require.NoError(t, st.Quotes().Create(context.Background(), q))
	return q
}

func TestQuoteSave_ChecksStoredStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	q := seedQuote(t, st, "QT-1", model.StatusPending, nil)

	q.Items[0].QuotedPrice = decimal.NewNullDecimal(decimal.RequireFromString("12.50"))
	q.Total = decimal.NewNullDecimal(decimal.RequireFromString("50.00"))
	q.Status = model.StatusSent
	require.NoError(t, st.Quotes().Save(ctx, q, model.StatusPending))

	got, err := st.Quotes().Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, got.Status)
	assert.Equal(t, "12.50", got.Items[0].QuotedPrice.Decimal.StringFixed(2))
	assert.Equal(t, "50.00", got.Total.Decimal.StringFixed(2))

	// stale writer still thinks the quote is pending
	q.Status = model.StatusRejected
	ae := requireKind(t, st.Quotes().Save(ctx, q, model.StatusPending), apperr.KindConflict)
	assert.Contains(t, ae.Message, "changed by another request")

	orderID := uint(7)
	now := time.Now().UTC()
	got.Status = model.StatusConverted
	got.OrderID = &orderID
	got.ConvertedAt = &now
	require.NoError(t, st.Quotes().Save(ctx, got, model.StatusSent))

	other := uint(8)
	got.OrderID = &other
	ae = requireKind(t, st.Quotes().Save(ctx, got, model.StatusSent), apperr.KindConflict)
	assert.Equal(t, "quote already converted", ae.Message)

	final, err := st.Quotes().Get(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, final.OrderID)
	assert.Equal(t, orderID, *final.OrderID)

	requireKind(t, st.Quotes().Save(ctx, &model.Quote{ID: 999}, model.StatusPending), apperr.KindNotFound)
}

func TestQuoteListStaleAndDelete(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)
	stale := seedQuote(t, st, "QT-A", model.StatusSent, &past)
	seedQuote(t, st, "QT-B", model.StatusSent, &future)
	seedQuote(t, st, "QT-C", model.StatusAccepted, &past)

	got, err := st.Quotes().ListStale(ctx, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, stale.ID, got[0].ID)
	assert.Len(t, got[0].Items, 1)

	list, total, err := st.Quotes().List(ctx, model.Filter{Status: model.StatusSent, Email: "pat@", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	require.NoError(t, st.Quotes().Delete(ctx, stale.ID))
	requireKind(t, st.Quotes().Delete(ctx, stale.ID), apperr.KindNotFound)
}
