package service

import (
	"context"
	"sync"
	"testing"
	"time"

	catalogmodel "supplyhub/apps/catalog/model"
	ordermodel "supplyhub/apps/order/model"
	"supplyhub/apps/quote/model"
	"supplyhub/apps/storefront/store/memstore"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/logger"
	"supplyhub/pkg/notify"
	"supplyhub/pkg/notify/notifytest"
	"supplyhub/pkg/sequence"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	svc    *QuoteService
	store  *memstore.Store
	events *notifytest.Recorder
	clock  time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memstore.New()
	env := &testEnv{store: st, events: &notifytest.Recorder{}, clock: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
	env.svc = NewQuoteService(st.Quotes(), st.Orders(), st.Products(), sequence.NewRandomGenerator(), env.events, logger.Discard())
	env.svc.now = func() time.Time { return env.clock }
	return env
}

func (e *testEnv) request(t *testing.T, items ...ItemInput) *model.Quote {
	t.Helper()
	q, err := e.svc.Create(context.Background(), CreateQuoteInput{
		CustomerName: "Pat Buyer",
		Email:        "pat@example.com",
		Items:        items,
	})
	require.NoError(t, err)
	return q
}

func (e *testEnv) respond(t *testing.T, q *model.Quote, price string) *model.Quote {
	t.Helper()
	priced := make([]PricedItem, 0, len(q.Items))
	for _, it := range q.Items {
		priced = append(priced, PricedItem{ItemID: it.ID, QuotedPrice: decimal.RequireFromString(price)})
	}
	sent, err := e.svc.Respond(context.Background(), q.ID, RespondInput{
		Items:      priced,
		ValidUntil: e.clock.Add(72 * time.Hour),
	})
	require.NoError(t, err)
	return sent
}

func (e *testEnv) order(t *testing.T) *ordermodel.Order {
	t.Helper()
	p := &catalogmodel.Product{SKU: "ord", Name: "Ordered", Slug: "ordered", Price: decimal.NewFromInt(1), StockQuantity: 10, CategoryID: 1}
	require.NoError(t, e.store.Products().Create(context.Background(), p))
	o := &ordermodel.Order{
		OrderNumber: "ORD-1",
		CustomerID:  1,
		Items:       []ordermodel.OrderItem{{ProductID: p.ID, Quantity: 1, UnitPrice: p.Price}},
		Status:      ordermodel.StatusPending,
	}
	o.Recalculate()
	require.NoError(t, e.store.Orders().Place(context.Background(), o))
	return o
}

func TestCreate(t *testing.T) {
	env := newTestEnv(t)
	p := &catalogmodel.Product{SKU: "BR-1", Name: "Steel bracket", Slug: "steel-bracket", Price: decimal.NewFromInt(3), CategoryID: 1}
	require.NoError(t, env.store.Products().Create(context.Background(), p))

	requested := decimal.RequireFromString("2.75")
	q := env.request(t,
		ItemInput{ProductID: &p.ID, Quantity: 100, RequestedPrice: &requested},
		ItemInput{ProductName: "Custom hinge", Quantity: 5},
	)
	assert.Equal(t, model.StatusPending, q.Status)
	assert.Contains(t, q.QuoteNumber, "QT-")
	require.Len(t, q.Items, 2)
	assert.Equal(t, "Steel bracket", q.Items[0].ProductName)
	assert.True(t, q.Items[0].RequestedPrice.Valid)
	assert.False(t, q.Items[1].RequestedPrice.Valid)
	assert.False(t, q.Total.Valid)
	assert.Equal(t, []string{notify.QuoteRequested}, env.events.Types())
}

func TestCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, CreateQuoteInput{CustomerName: "Pat", Email: "pat@example.com", Items: []ItemInput{{Quantity: 1}}})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "items[0].productName", ae.Field)

	missing := uint(42)
	_, err = env.svc.Create(ctx, CreateQuoteInput{CustomerName: "Pat", Email: "pat@example.com", Items: []ItemInput{{ProductID: &missing, Quantity: 1}}})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = env.svc.Create(ctx, CreateQuoteInput{CustomerName: "Pat", Email: "not-an-email", Items: []ItemInput{{ProductName: "x", Quantity: 1}}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRespond(t *testing.T) {
	env := newTestEnv(t)
	q := env.request(t, ItemInput{ProductName: "Pallet", Quantity: 4}, ItemInput{ProductName: "Strap", Quantity: 10})

	total := decimal.RequireFromString("55")
	sent, err := env.svc.Respond(context.Background(), q.ID, RespondInput{
		Items: []PricedItem{
			{ItemID: q.Items[0].ID, QuotedPrice: decimal.RequireFromString("12.50")},
			{ItemID: q.Items[1].ID, QuotedPrice: decimal.RequireFromString("1.00")},
		},
		Discount:   decimal.RequireFromString("5"),
		Total:      &total,
		ValidUntil: env.clock.Add(24 * time.Hour),
		Message:    "Prices hold for one day.",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, sent.Status)
	assert.Equal(t, "60.00", sent.Subtotal.Decimal.StringFixed(2))
	assert.Equal(t, "55.00", sent.Total.Decimal.StringFixed(2))
	assert.Equal(t, env.clock, *sent.SentAt)
	assert.Equal(t, env.clock, *sent.RespondedAt)
	assert.Equal(t, "Prices hold for one day.", sent.AdminMessage)

	stored, err := env.svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.50", stored.Items[0].QuotedPrice.Decimal.StringFixed(2))

	_, err = env.svc.Respond(context.Background(), q.ID, RespondInput{ValidUntil: env.clock.Add(time.Hour)})
	assert.True(t, apperr.Is(err, apperr.KindTransition))
}

func TestRespond_Validation(t *testing.T) {
	env := newTestEnv(t)
	q := env.request(t, ItemInput{ProductName: "Pallet", Quantity: 4})
	ctx := context.Background()
	cases := []struct {
		name  string
		in    RespondInput
		field string
	}{
		{"past validity", RespondInput{ValidUntil: env.clock.Add(-time.Minute)}, "validUntil"},
		{"foreign item", RespondInput{Items: []PricedItem{{ItemID: 9999}}, ValidUntil: env.clock.Add(time.Hour)}, "items[0].itemId"},
		{"total mismatch", RespondInput{
			Items:      []PricedItem{{ItemID: q.Items[0].ID, QuotedPrice: decimal.NewFromInt(10)}},
			Total:      decimalPtr("39"),
			ValidUntil: env.clock.Add(time.Hour),
		}, "total"},
		{"discount too large", RespondInput{
			Items:      []PricedItem{{ItemID: q.Items[0].ID, QuotedPrice: decimal.NewFromInt(1)}},
			Discount:   decimal.NewFromInt(5),
			ValidUntil: env.clock.Add(time.Hour),
		}, "discount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Respond(ctx, q.ID, tc.in)
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, apperr.KindValidation, ae.Kind)
			assert.Equal(t, tc.field, ae.Field)
		})
	}

	stored, err := env.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	q := env.request(t, ItemInput{ProductName: "Pallet", Quantity: 1})
	ctx := context.Background()

	reviewed, err := env.svc.UpdateStatus(ctx, q.ID, model.StatusReviewed)
	require.NoError(t, err)
	assert.NotNil(t, reviewed.ReviewedAt)

	_, err = env.svc.UpdateStatus(ctx, q.ID, model.StatusConverted)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "use the convert operation to convert a quote", ae.Message)

	_, err = env.svc.UpdateStatus(ctx, q.ID, model.StatusAccepted)
	assert.True(t, apperr.Is(err, apperr.KindTransition))

	rejected, err := env.svc.UpdateStatus(ctx, q.ID, model.StatusRejected)
	require.NoError(t, err)
	assert.True(t, rejected.Status.Terminal())

	_, err = env.svc.UpdateStatus(ctx, q.ID, model.StatusSent)
	assert.True(t, apperr.Is(err, apperr.KindTransition))
}

func TestConvert_OneWay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q := env.request(t, ItemInput{ProductName: "Pallet", Quantity: 1})
	o := env.order(t)

	_, err := env.svc.Convert(ctx, q.ID, o.ID)
	assert.True(t, apperr.Is(err, apperr.KindTransition), "pending quotes cannot convert")

	env.respond(t, q, "10")
	_, err = env.svc.Convert(ctx, q.ID, 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	converted, err := env.svc.Convert(ctx, q.ID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConverted, converted.Status)
	assert.Equal(t, o.ID, *converted.OrderID)
	assert.NotNil(t, converted.ConvertedAt)

	_, err = env.svc.Convert(ctx, q.ID, o.ID)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindConflict, ae.Kind)

	for _, to := range []model.Status{model.StatusSent, model.StatusAccepted, model.StatusExpired, model.StatusPending} {
		_, err = env.svc.UpdateStatus(ctx, q.ID, to)
		assert.True(t, apperr.Is(err, apperr.KindTransition), string(to))
	}
	assert.Contains(t, env.events.Types(), notify.QuoteConverted)
}

func TestExpireStale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stale := env.respond(t, env.request(t, ItemInput{ProductName: "A", Quantity: 1}), "1")
	pending := env.request(t, ItemInput{ProductName: "B", Quantity: 1})

	n, err := env.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.clock = env.clock.Add(96 * time.Hour)
	n, err = env.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := env.svc.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, got.Status)
	got, err = env.svc.Get(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestGetForCustomerAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customerID := uint(7)
	q, err := env.svc.Create(ctx, CreateQuoteInput{
		CustomerID:   &customerID,
		CustomerName: "Pat",
		Email:        "pat@example.com",
		Items:        []ItemInput{{ProductName: "A", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = env.svc.GetForCustomer(ctx, q.ID, customerID)
	assert.NoError(t, err)
	_, err = env.svc.GetForCustomer(ctx, q.ID, customerID+1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, env.svc.Delete(ctx, q.ID))
	assert.True(t, apperr.Is(env.svc.Delete(ctx, q.ID), apperr.KindNotFound))
}

func TestConvert_ConcurrentLinksOneOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q := env.request(t, ItemInput{ProductName: "Pallet", Quantity: 1})
	env.respond(t, q, "10")
	first := env.order(t)
	second := &ordermodel.Order{OrderNumber: "ORD-2", CustomerID: 1, Status: ordermodel.StatusPending}
	require.NoError(t, env.store.Orders().Place(ctx, second))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		orderID := first.ID
		if i%2 == 1 {
			orderID = second.ID
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.svc.Convert(ctx, q.ID, orderID)
		}()
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "only one convert may succeed")
			winner = i
			continue
		}
		assert.True(t, apperr.Is(err, apperr.KindConflict), err.Error())
	}
	require.NotEqual(t, -1, winner)

	got, err := env.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	want := first.ID
	if winner%2 == 1 {
		want = second.ID
	}
	assert.Equal(t, want, *got.OrderID)
}

func TestExpireStale_SkipsQuotesConvertedMeanwhile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q := env.request(t, ItemInput{ProductName: "Pallet", Quantity: 1})
	env.respond(t, q, "10")
	o := env.order(t)

	stale, err := env.store.Quotes().ListStale(ctx, env.clock.Add(365*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	_, err = env.svc.Convert(ctx, q.ID, o.ID)
	require.NoError(t, err)

	stale[0].Status = model.StatusExpired
	err = env.store.Quotes().Save(ctx, &stale[0], model.StatusSent)
	assert.EqualError(t, err, "quote already converted")

	got, err := env.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConverted, got.Status)
	assert.Equal(t, o.ID, *got.OrderID)
}
