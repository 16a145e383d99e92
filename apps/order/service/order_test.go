package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	catalogmodel "supplyhub/apps/catalog/model"
	customermodel "supplyhub/apps/customer/model"
	"supplyhub/apps/order/model"
	"supplyhub/apps/storefront/store/memstore"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/logger"
	"supplyhub/pkg/notify"
	"supplyhub/pkg/notify/notifytest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedNumbers struct{ n int }

func (f *fixedNumbers) Next(_ context.Context, prefix string) (string, error) {
	f.n++
	return fmt.Sprintf("%s-20261014-%05d", prefix, f.n), nil
}

type testEnv struct {
	svc      *OrderService
	store    *memstore.Store
	events   *notifytest.Recorder
	customer *customermodel.Customer
	clock    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memstore.New()
	events := &notifytest.Recorder{}
	env := &testEnv{store: st, events: events, clock: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
	env.svc = NewOrderService(st.Orders(), st.Customers(), st.Products(), &fixedNumbers{}, events, logger.Discard())
	env.svc.now = func() time.Time { return env.clock }

	env.customer = &customermodel.Customer{
		Email:  "buyer@example.com",
		Name:   "Buyer",
		Status: customermodel.StatusActive,
		Address: customermodel.Address{
			Line1: "1 Dock Road", City: "Rotterdam", Country: "NL",
		},
	}
	require.NoError(t, st.Customers().Create(context.Background(), env.customer))
	return env
}

func (e *testEnv) product(t *testing.T, sku, price string, stock int) *catalogmodel.Product {
	t.Helper()
	p := &catalogmodel.Product{
		SKU:               sku,
		Name:              "Product " + sku,
		Slug:              "product-" + sku,
		Price:             decimal.RequireFromString(price),
		StockQuantity:     stock,
		LowStockThreshold: 2,
		CategoryID:        1,
		IsPublished:       true,
	}
	require.NoError(t, e.store.Products().Create(context.Background(), p))
	return p
}

func (e *testEnv) stock(t *testing.T, id uint) int {
	t.Helper()
	p, err := e.store.Products().Get(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func (e *testEnv) place(t *testing.T, items ...ItemInput) *model.Order {
	t.Helper()
	o, err := e.svc.Create(context.Background(), CreateOrderInput{CustomerID: e.customer.ID, Items: items})
	require.NoError(t, err)
	return o
}

func kind(t *testing.T, err error) *apperr.Error {
	t.Helper()
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae), "want *apperr.Error, got %v", err)
	return ae
}

func TestCreate_TotalsAndSnapshot(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "99.99", 10)
	b := env.product(t, "b", "149.99", 10)

	o := env.place(t, ItemInput{ProductID: a.ID, Quantity: 2}, ItemInput{ProductID: b.ID, Quantity: 1})

	assert.Equal(t, "ORD-20261014-00001", o.OrderNumber)
	assert.Equal(t, model.StatusPending, o.Status)
	assert.Equal(t, model.PaymentPending, o.PaymentStatus)
	assert.Equal(t, "349.97", o.Subtotal.StringFixed(2))
	assert.Equal(t, "349.97", o.Total.StringFixed(2))
	assert.Equal(t, "199.98", o.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "Rotterdam", o.ShippingAddress.City)
	assert.Equal(t, 8, env.stock(t, a.ID))
	assert.Equal(t, 9, env.stock(t, b.ID))
	assert.Equal(t, []string{notify.OrderCreated}, env.events.Types())

	// later price changes do not touch the placed order
	a.Price = decimal.RequireFromString("120.00")
	require.NoError(t, env.store.Products().Update(context.Background(), a, false))
	got, err := env.svc.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "99.99", got.Items[0].UnitPrice.StringFixed(2))
}

func TestCreate_AdjustmentsAndMergedLines(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "10.00", 10)

	o, err := env.svc.Create(context.Background(), CreateOrderInput{
		CustomerID: env.customer.ID,
		Items:      []ItemInput{{ProductID: a.ID, Quantity: 1}, {ProductID: a.ID, Quantity: 2}},
		Shipping:   decimal.RequireFromString("5.50"),
		Tax:        decimal.RequireFromString("2.00"),
		Discount:   decimal.RequireFromString("3.00"),
	})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, "34.50", o.Total.StringFixed(2))

	_, err = env.svc.Create(context.Background(), CreateOrderInput{
		CustomerID: env.customer.ID,
		Items:      []ItemInput{{ProductID: a.ID, Quantity: 1}},
		Discount:   decimal.RequireFromString("50"),
	})
	ae := kind(t, err)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Equal(t, "discount", ae.Field)

	_, err = env.svc.Create(context.Background(), CreateOrderInput{
		CustomerID: env.customer.ID,
		Items:      []ItemInput{{ProductID: a.ID, Quantity: 1}},
		Tax:        decimal.RequireFromString("-1"),
	})
	assert.Equal(t, "tax", kind(t, err).Field)
}

func TestCreate_OutOfStockLeavesStockUntouched(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 5)
	b := env.product(t, "b", "1.00", 1)

	_, err := env.svc.Create(context.Background(), CreateOrderInput{
		CustomerID: env.customer.ID,
		Items:      []ItemInput{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 3}},
	})
	ae := kind(t, err)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Equal(t, "items[1].quantity", ae.Field)
	assert.Equal(t, 5, env.stock(t, a.ID))
	assert.Equal(t, 1, env.stock(t, b.ID))
	assert.Empty(t, env.events.Events())
}

func TestCreate_BlockedOrMissingCustomer(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 5)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, CreateOrderInput{CustomerID: 999, Items: []ItemInput{{ProductID: a.ID, Quantity: 1}}})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	env.customer.Status = customermodel.StatusBlocked
	require.NoError(t, env.store.Customers().Update(ctx, env.customer))
	_, err = env.svc.Create(ctx, CreateOrderInput{CustomerID: env.customer.ID, Items: []ItemInput{{ProductID: a.ID, Quantity: 1}}})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestTransition_StrictTable(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 5)
	o := env.place(t, ItemInput{ProductID: a.ID, Quantity: 1})
	ctx := context.Background()

	_, err := env.svc.Transition(ctx, o.ID, model.StatusShipped)
	assert.True(t, apperr.Is(err, apperr.KindTransition))

	_, err = env.svc.Transition(ctx, o.ID, model.Status("lost"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	for _, to := range []model.Status{model.StatusConfirmed, model.StatusProcessing, model.StatusShipped} {
		o, err = env.svc.Transition(ctx, o.ID, to)
		require.NoError(t, err)
	}
	require.NotNil(t, o.ShippedAt)
	shippedAt := *o.ShippedAt

	env.clock = env.clock.Add(48 * time.Hour)
	o, err = env.svc.Transition(ctx, o.ID, model.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, shippedAt, *o.ShippedAt)
	assert.Equal(t, env.clock, *o.DeliveredAt)

	_, err = env.svc.Transition(ctx, o.ID, model.StatusCancelled)
	assert.True(t, apperr.Is(err, apperr.KindTransition))

	// same status is a no-op
	_, err = env.svc.Transition(ctx, o.ID, model.StatusDelivered)
	assert.NoError(t, err)
}

func TestTransition_CancelRestocks(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 5)
	o := env.place(t, ItemInput{ProductID: a.ID, Quantity: 3})
	require.Equal(t, 2, env.stock(t, a.ID))

	o, err := env.svc.Transition(context.Background(), o.ID, model.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, o.Status)
	assert.NotNil(t, o.CancelledAt)
	assert.Equal(t, 5, env.stock(t, a.ID))
	assert.Equal(t, []string{notify.OrderCreated, notify.OrderStatusChanged}, env.events.Types())
}

func TestForceStatus_BypassesTable(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 5)
	o := env.place(t, ItemInput{ProductID: a.ID, Quantity: 1})

	o, err := env.svc.ForceStatus(context.Background(), o.ID, model.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, o.Status)
	assert.NotNil(t, o.DeliveredAt)

	o, err = env.svc.ForceStatus(context.Background(), o.ID, model.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, o.Status)
}

func TestUpdatePaymentStatus(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 5)
	o := env.place(t, ItemInput{ProductID: a.ID, Quantity: 2})
	ctx := context.Background()

	o, err := env.svc.UpdatePaymentStatus(ctx, o.ID, model.PaymentPaid)
	require.NoError(t, err)
	require.NotNil(t, o.PaidAt)
	paidAt := *o.PaidAt

	env.clock = env.clock.Add(time.Hour)
	o, err = env.svc.UpdatePaymentStatus(ctx, o.ID, model.PaymentRefunded)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRefunded, o.Status)
	assert.Equal(t, paidAt, *o.PaidAt)
	// refunds do not return stock
	assert.Equal(t, 3, env.stock(t, a.ID))

	_, err = env.svc.UpdatePaymentStatus(ctx, o.ID, model.PaymentStatus("chargeback"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdate_SingleSave(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "20.00", 5)
	o := env.place(t, ItemInput{ProductID: a.ID, Quantity: 1})
	ctx := context.Background()

	shipping := decimal.RequireFromString("7.50")
	tracking := "TRK-1"
	o, err := env.svc.Update(ctx, o.ID, UpdateOrderInput{Shipping: &shipping, TrackingNumber: &tracking})
	require.NoError(t, err)
	assert.Equal(t, "27.50", o.Total.StringFixed(2))
	assert.Equal(t, "TRK-1", o.TrackingNumber)

	confirmed := model.StatusConfirmed
	o, err = env.svc.Update(ctx, o.ID, UpdateOrderInput{Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, o.Status)

	discount := decimal.RequireFromString("1")
	_, err = env.svc.Update(ctx, o.ID, UpdateOrderInput{Discount: &discount})
	ae := kind(t, err)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Equal(t, "pricing can only change while the order is pending", ae.Message)

	delivered := model.StatusDelivered
	_, err = env.svc.Update(ctx, o.ID, UpdateOrderInput{Status: &delivered})
	assert.True(t, apperr.Is(err, apperr.KindTransition))

	got, err := env.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 5)
	ctx := context.Background()

	pending := env.place(t, ItemInput{ProductID: a.ID, Quantity: 2})
	require.NoError(t, env.svc.Delete(ctx, pending.ID))
	assert.Equal(t, 5, env.stock(t, a.ID))
	_, err := env.svc.Get(ctx, pending.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	confirmed := env.place(t, ItemInput{ProductID: a.ID, Quantity: 1})
	_, err = env.svc.Transition(ctx, confirmed.ID, model.StatusConfirmed)
	require.NoError(t, err)
	err = env.svc.Delete(ctx, confirmed.ID)
	ae := kind(t, err)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Equal(t, "cannot delete a confirmed order", ae.Message)

	_, err = env.svc.Transition(ctx, confirmed.ID, model.StatusCancelled)
	require.NoError(t, err)
	require.NoError(t, env.svc.Delete(ctx, confirmed.ID))
	assert.Equal(t, 5, env.stock(t, a.ID))
}

func TestGetForCustomer(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 5)
	o := env.place(t, ItemInput{ProductID: a.ID, Quantity: 1})

	_, err := env.svc.GetForCustomer(context.Background(), o.ID, env.customer.ID)
	assert.NoError(t, err)
	_, err = env.svc.GetForCustomer(context.Background(), o.ID, env.customer.ID+1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestList_Filters(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 10)
	ctx := context.Background()
	first := env.place(t, ItemInput{ProductID: a.ID, Quantity: 1})
	env.place(t, ItemInput{ProductID: a.ID, Quantity: 1})
	_, err := env.svc.Transition(ctx, first.ID, model.StatusConfirmed)
	require.NoError(t, err)

	list, total, err := env.svc.List(ctx, model.Filter{Status: model.StatusPending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	_, _, err = env.svc.List(ctx, model.Filter{Status: "bogus"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestForceStatus_ReviveReservesStockAgain(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 5)
	o := env.place(t, ItemInput{ProductID: a.ID, Quantity: 3})
	ctx := context.Background()

	_, err := env.svc.Transition(ctx, o.ID, model.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 5, env.stock(t, a.ID))

	_, err = env.svc.ForceStatus(ctx, o.ID, model.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 2, env.stock(t, a.ID))

	_, err = env.svc.Transition(ctx, o.ID, model.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 5, env.stock(t, a.ID))

	_, err = env.svc.ForceStatus(ctx, o.ID, model.StatusPending)
	require.NoError(t, err)
	require.NoError(t, env.svc.Delete(ctx, o.ID))
	assert.Equal(t, 5, env.stock(t, a.ID))
}

func TestForceStatus_ReviveNeedsStock(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 3)
	ctx := context.Background()
	first := env.place(t, ItemInput{ProductID: a.ID, Quantity: 3})
	_, err := env.svc.Transition(ctx, first.ID, model.StatusCancelled)
	require.NoError(t, err)
	env.place(t, ItemInput{ProductID: a.ID, Quantity: 2})

	_, err = env.svc.ForceStatus(ctx, first.ID, model.StatusProcessing)
	ae := kind(t, err)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Equal(t, "items[0].quantity", ae.Field)
	assert.Equal(t, 1, env.stock(t, a.ID))

	got, err := env.svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)

	// cancelled to refunded moves no stock either way
	_, err = env.svc.ForceStatus(ctx, first.ID, model.StatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, 1, env.stock(t, a.ID))
}

// staleReads hands out the order as it was when the first Get ran, so two
// callers act on the same snapshot.
type staleReads struct {
	OrderRepository
	snapshot *model.Order
}

func (r *staleReads) Get(ctx context.Context, id uint) (*model.Order, error) {
	if r.snapshot == nil {
		o, err := r.OrderRepository.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		r.snapshot = o
	}
	o := *r.snapshot
	o.Items = append([]model.OrderItem(nil), r.snapshot.Items...)
	return &o, nil
}

func TestTransition_StaleCancelRefused(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 5)
	o := env.place(t, ItemInput{ProductID: a.ID, Quantity: 3})
	ctx := context.Background()

	stale := NewOrderService(&staleReads{OrderRepository: env.store.Orders()}, env.store.Customers(),
		env.store.Products(), &fixedNumbers{}, env.events, logger.Discard())

	_, err := stale.Transition(ctx, o.ID, model.StatusCancelled)
	require.NoError(t, err)
	_, err = stale.Transition(ctx, o.ID, model.StatusCancelled)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, 5, env.stock(t, a.ID))

	err = stale.Delete(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, env.stock(t, a.ID))
}

func TestUpdatePaymentStatus_RefundNeedsPayment(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 5)
	o := env.place(t, ItemInput{ProductID: a.ID, Quantity: 2})
	ctx := context.Background()

	_, err := env.svc.UpdatePaymentStatus(ctx, o.ID, model.PaymentRefunded)
	ae := kind(t, err)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Equal(t, "cannot refund an order whose payment is pending", ae.Message)

	got, err := env.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	require.NoError(t, env.svc.Delete(ctx, o.ID))
	assert.Equal(t, 5, env.stock(t, a.ID))
}

func TestUpdate_CancelAndRefundRestocks(t *testing.T) {
	env := newTestEnv(t)
	a := env.product(t, "a", "1.00", 5)
	o := env.place(t, ItemInput{ProductID: a.ID, Quantity: 2})
	ctx := context.Background()

	_, err := env.svc.UpdatePaymentStatus(ctx, o.ID, model.PaymentPaid)
	require.NoError(t, err)

	cancelled := model.StatusCancelled
	refunded := model.PaymentRefunded
	o, err = env.svc.Update(ctx, o.ID, UpdateOrderInput{Status: &cancelled, PaymentStatus: &refunded})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, o.Status)
	assert.Equal(t, model.PaymentRefunded, o.PaymentStatus)
	assert.NotNil(t, o.CancelledAt)
	assert.Equal(t, 5, env.stock(t, a.ID))
}
