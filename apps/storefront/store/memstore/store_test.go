package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	catalogmodel "supplyhub/apps/catalog/model"
	ordermodel "supplyhub/apps/order/model"
	quotemodel "supplyhub/apps/quote/model"
	"supplyhub/pkg/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, s *Store, sku string, stock int) *catalogmodel.Product {
	t.Helper()
	p := &catalogmodel.Product{SKU: sku, Name: sku, Slug: sku, Price: decimal.NewFromInt(2), StockQuantity: stock}
	require.NoError(t, s.Products().Create(context.Background(), p))
	return p
}

func stockOf(t *testing.T, s *Store, id uint) int {
	t.Helper()
	p, err := s.Products().Get(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, paginate(items, 1, 2))
	assert.Equal(t, []int{5}, paginate(items, 3, 2))
	assert.Empty(t, paginate(items, 4, 2))
}

func TestPlace_AllOrNothing(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := seedProduct(t, s, "a", 5)
	b := seedProduct(t, s, "b", 1)

	err := s.Orders().Place(ctx, &ordermodel.Order{
		OrderNumber: "ORD-1",
		Items: []ordermodel.OrderItem{
			{ProductID: a.ID, Quantity: 3},
			{ProductID: b.ID, Quantity: 2},
		},
	})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "items[1].quantity", ae.Field)
	assert.Equal(t, 5, stockOf(t, s, a.ID))
	assert.Equal(t, 1, stockOf(t, s, b.ID))

	o := &ordermodel.Order{OrderNumber: "ORD-2", Items: []ordermodel.OrderItem{{ProductID: a.ID, Quantity: 3}, {ProductID: b.ID, Quantity: 1}}}
	require.NoError(t, s.Orders().Place(ctx, o))
	assert.Equal(t, 2, stockOf(t, s, a.ID))
	assert.Equal(t, 0, stockOf(t, s, b.ID))
	assert.NotZero(t, o.Items[0].ID)
	assert.Equal(t, o.ID, o.Items[1].OrderID)

	err = s.Orders().Place(ctx, &ordermodel.Order{OrderNumber: "ORD-2"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestPlace_ConcurrentNeverOversells(t *testing.T) {
	s := New()
	p := seedProduct(t, s, "hot", 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	placed := 0
	for i := range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Orders().Place(context.Background(), &ordermodel.Order{
				OrderNumber: "ORD-" + string(rune('A'+i)),
				Items:       []ordermodel.OrderItem{{ProductID: p.ID, Quantity: 1}},
			})
			if err == nil {
				mu.Lock()
				placed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, placed)
	assert.Equal(t, 0, stockOf(t, s, p.ID))
}

func TestSaveAndDelete_StockFollowsReservation(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, "r", 4)
	o := &ordermodel.Order{OrderNumber: "ORD-1", Status: ordermodel.StatusPending,
		Items: []ordermodel.OrderItem{{ProductID: p.ID, Quantity: 3}}}
	require.NoError(t, s.Orders().Place(ctx, o))
	assert.True(t, o.StockReserved)

	o.Status = ordermodel.StatusCancelled
	require.NoError(t, s.Orders().Save(ctx, o, ordermodel.StatusPending))
	assert.False(t, o.StockReserved)
	assert.Equal(t, 4, stockOf(t, s, p.ID))

	// a second cancel from the same stale read is refused
	err := s.Orders().Save(ctx, o, ordermodel.StatusPending)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, 4, stockOf(t, s, p.ID))

	o.Status = ordermodel.StatusPending
	require.NoError(t, s.Orders().Save(ctx, o, ordermodel.StatusCancelled))
	assert.Equal(t, 1, stockOf(t, s, p.ID))
	require.NoError(t, s.Orders().Delete(ctx, o.ID))
	assert.Equal(t, 4, stockOf(t, s, p.ID))
	assert.True(t, apperr.Is(s.Orders().Delete(ctx, o.ID), apperr.KindNotFound))

	shipped := &ordermodel.Order{OrderNumber: "ORD-2", Status: ordermodel.StatusShipped,
		Items: []ordermodel.OrderItem{{ProductID: p.ID, Quantity: 2}}}
	require.NoError(t, s.Orders().Place(ctx, shipped))
	assert.True(t, apperr.Is(s.Orders().Delete(ctx, shipped.ID), apperr.KindConflict))
	assert.Equal(t, 2, stockOf(t, s, p.ID))
}

func TestSave_ConcurrentCancelsRestockOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, "c", 5)
	o := &ordermodel.Order{OrderNumber: "ORD-1", Status: ordermodel.StatusPending,
		Items: []ordermodel.OrderItem{{ProductID: p.ID, Quantity: 3}}}
	require.NoError(t, s.Orders().Place(ctx, o))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cancel := *o
			cancel.Status = ordermodel.StatusCancelled
			errs[i] = s.Orders().Save(ctx, &cancel, ordermodel.StatusPending)
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.True(t, apperr.Is(err, apperr.KindConflict))
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 5, stockOf(t, s, p.ID))
}

func TestProductUpdate_KeepsStock(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := seedProduct(t, s, "k", 7)
	p.StockQuantity = 1000
	p.Name = "Renamed"
	require.NoError(t, s.Products().Update(ctx, p, false))
	assert.Equal(t, 7, p.StockQuantity)
	got, err := s.Products().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	customerID := uint(4)
	q := &quotemodel.Quote{QuoteNumber: "QT-1", CustomerID: &customerID, Items: []quotemodel.QuoteItem{{ProductName: "x", Quantity: 1}}}
	require.NoError(t, s.Quotes().Create(ctx, q))

	got, err := s.Quotes().Get(ctx, q.ID)
	require.NoError(t, err)
	got.Items[0].ProductName = "mutated"
	*got.CustomerID = 99

	again, err := s.Quotes().Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", again.Items[0].ProductName)
	assert.Equal(t, uint(4), *again.CustomerID)
}

func TestListStale(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)
	for i, q := range []quotemodel.Quote{
		{Status: quotemodel.StatusSent, ValidUntil: &past},
		{Status: quotemodel.StatusSent, ValidUntil: &future},
		{Status: quotemodel.StatusAccepted, ValidUntil: &past},
	} {
		q.QuoteNumber = "QT-" + string(rune('A'+i))
		require.NoError(t, s.Quotes().Create(ctx, &q))
	}
	stale, err := s.Quotes().ListStale(ctx, now)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "QT-A", stale[0].QuoteNumber)
}
