package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	customermodel "supplyhub/apps/customer/model"
	"supplyhub/apps/order/model"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/metrics"
	"supplyhub/pkg/notify"
	"supplyhub/pkg/sequence"
	"supplyhub/pkg/validate"

	"github.com/shopspring/decimal"
)

const numberPrefix = "ORD"

type ItemInput struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderInput struct {
	CustomerID uint        `json:"customerId" validate:"required"`
	Items      []ItemInput `json:"items" validate:"required,min=1,dive"`
	// nil ships to the customer's address on file
	ShippingAddress *customermodel.Address `json:"shippingAddress" validate:"omitempty"`
	Shipping        decimal.Decimal        `json:"shipping"`
	Tax             decimal.Decimal        `json:"tax"`
	Discount        decimal.Decimal        `json:"discount"`
	Notes           string                 `json:"notes" validate:"max=2000"`
}

// UpdateOrderInput is a partial back-office edit applied with a single save.
type UpdateOrderInput struct {
	Status          *model.Status          `json:"status"`
	PaymentStatus   *model.PaymentStatus   `json:"paymentStatus"`
	TrackingNumber  *string                `json:"trackingNumber" validate:"omitempty,max=100"`
	InternalNote    *string                `json:"internalNote"`
	ShippingAddress *customermodel.Address `json:"shippingAddress" validate:"omitempty"`
	Shipping        *decimal.Decimal       `json:"shipping"`
	Tax             *decimal.Decimal       `json:"tax"`
	Discount        *decimal.Decimal       `json:"discount"`
}

func (in UpdateOrderInput) repricing() bool {
	return in.Shipping != nil || in.Tax != nil || in.Discount != nil
}

type OrderService struct {
	orders    OrderRepository
	customers CustomerLookup
	products  ProductLookup
	numbers   sequence.Generator
	events    notify.Publisher
	log       *slog.Logger
	now       func() time.Time
}

func NewOrderService(orders OrderRepository, customers CustomerLookup, products ProductLookup,
	numbers sequence.Generator, events notify.Publisher, log *slog.Logger) *OrderService {
	return &OrderService{
		orders:    orders,
		customers: customers,
		products:  products,
		numbers:   numbers,
		events:    events,
		log:       log,
		now:       time.Now,
	}
}

// Create 下单: validates the customer and every line, snapshots unit prices
// and places the order atomically with its stock decrement.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := checkAdjustments(in.Shipping, in.Tax, in.Discount); err != nil {
		return nil, err
	}

	// 1. 校验客户
	customer, err := s.customers.Get(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer.Status == customermodel.StatusBlocked {
		return nil, apperr.Conflict("customer is blocked")
	}

	// 2. 合并重复商品行, 校验库存并快照价格
	lines := mergeLines(in.Items)
	items := make([]model.OrderItem, 0, len(lines))
	for i, line := range lines {
		p, err := s.products.Get(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if line.Quantity > p.StockQuantity {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].quantity", i), "out of stock")
		}
		items = append(items, model.OrderItem{
			ProductID:   p.ID,
			SKU:         p.SKU,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			UnitPrice:   p.Price,
		})
	}

	o := &model.Order{
		CustomerID:    customer.ID,
		Items:         items,
		Shipping:      in.Shipping,
		Tax:           in.Tax,
		Discount:      in.Discount,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		Notes:         in.Notes,
	}
	if in.ShippingAddress != nil {
		o.ShippingAddress = *in.ShippingAddress
	} else {
		o.ShippingAddress = customer.Address
	}
	o.Recalculate()
	if o.Total.IsNegative() {
		return nil, apperr.Validation("discount", "exceeds the order value")
	}

	// 3. 生成订单号并在事务内扣库存、落库
	if o.OrderNumber, err = s.numbers.Next(ctx, numberPrefix); err != nil {
		return nil, apperr.Internal("generate order number", err)
	}
	if err := s.orders.Place(ctx, o); err != nil {
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	s.log.InfoContext(ctx, "order created", "order_id", o.ID, "order_number", o.OrderNumber,
		"customer_id", o.CustomerID, "total", o.Total.StringFixed(2))
	notify.Send(ctx, s.events, s.log, notify.Event{
		Type:     notify.OrderCreated,
		Entity:   "order",
		EntityID: o.ID,
		Data:     map[string]any{"orderNumber": o.OrderNumber, "customerId": o.CustomerID, "total": o.Total.StringFixed(2)},
	})
	return o, nil
}

// mergeLines folds repeated products into one line, keeping first-seen order.
func mergeLines(in []ItemInput) []ItemInput {
	index := make(map[uint]int, len(in))
	out := make([]ItemInput, 0, len(in))
	for _, it := range in {
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}

func checkAdjustments(shipping, tax, discount decimal.Decimal) error {
	switch {
	case shipping.IsNegative():
		return apperr.Validation("shipping", "must not be negative")
	case tax.IsNegative():
		return apperr.Validation("tax", "must not be negative")
	case discount.IsNegative():
		return apperr.Validation("discount", "must not be negative")
	}
	return nil
}

func (s *OrderService) Get(ctx context.Context, id uint) (*model.Order, error) {
	return s.orders.Get(ctx, id)
}

// GetForCustomer hides other customers' orders behind a not-found error.
func (s *OrderService) GetForCustomer(ctx context.Context, id, customerID uint) (*model.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, apperr.NotFound("order", id)
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context, f model.Filter) ([]model.Order, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.Validation("status", "unknown order status")
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return nil, 0, apperr.Validation("paymentStatus", "unknown payment status")
	}
	f.Normalize()
	return s.orders.List(ctx, f)
}

// Transition moves an order along the status table. Terminal states and
// skipped steps are rejected.
func (s *OrderService) Transition(ctx context.Context, id uint, to model.Status) (*model.Order, error) {
	return s.changeStatus(ctx, id, to, false)
}

// ForceStatus sets any known status regardless of the table. Callers must
// hold the orders:force permission.
func (s *OrderService) ForceStatus(ctx context.Context, id uint, to model.Status) (*model.Order, error) {
	return s.changeStatus(ctx, id, to, true)
}

func (s *OrderService) changeStatus(ctx context.Context, id uint, to model.Status, force bool) (*model.Order, error) {
	if !to.Valid() {
		return nil, apperr.Validation("status", "unknown order status")
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if from == to {
		return o, nil
	}
	if !force && !from.CanTransitionTo(to) {
		return nil, apperr.Transition("order", from, to)
	}
	s.applyStatus(o, to)
	if err := s.orders.Save(ctx, o, from); err != nil {
		return nil, err
	}
	s.statusChanged(ctx, o, from, force)
	return o, nil
}

// applyStatus sets the status and stamps the matching timestamp once.
func (s *OrderService) applyStatus(o *model.Order, to model.Status) {
	now := s.now().UTC()
	o.Status = to
	switch to {
	case model.StatusShipped:
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
	case model.StatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	case model.StatusCancelled:
		if o.CancelledAt == nil {
			o.CancelledAt = &now
		}
	}
}

func (s *OrderService) statusChanged(ctx context.Context, o *model.Order, from model.Status, force bool) {
	mode := "strict"
	if force {
		mode = "forced"
	}
	metrics.OrderTransitions.WithLabelValues(string(from), string(o.Status), mode).Inc()
	s.log.InfoContext(ctx, "order status changed", "order_id", o.ID, "from", from, "to", o.Status, "mode", mode)
	notify.Send(ctx, s.events, s.log, notify.Event{
		Type:     notify.OrderStatusChanged,
		Entity:   "order",
		EntityID: o.ID,
		Data:     map[string]any{"orderNumber": o.OrderNumber, "from": string(from), "to": string(o.Status)},
	})
}

// applyPayment sets the payment status. Paid stamps paidAt once. Refunded
// needs a paid order and moves it to refunded unless it is cancelled, in
// which case the cancellation stands.
func (s *OrderService) applyPayment(o *model.Order, ps model.PaymentStatus) error {
	switch ps {
	case model.PaymentPaid:
		if o.PaidAt == nil {
			now := s.now().UTC()
			o.PaidAt = &now
		}
	case model.PaymentRefunded:
		if o.PaymentStatus != model.PaymentPaid {
			return apperr.Conflict(fmt.Sprintf("cannot refund an order whose payment is %s", o.PaymentStatus))
		}
		if o.Status != model.StatusCancelled {
			o.Status = model.StatusRefunded
		}
	}
	o.PaymentStatus = ps
	return nil
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id uint, ps model.PaymentStatus) (*model.Order, error) {
	if !ps.Valid() {
		return nil, apperr.Validation("paymentStatus", "unknown payment status")
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus == ps {
		return o, nil
	}
	fromStatus, fromPayment := o.Status, o.PaymentStatus
	if err := s.applyPayment(o, ps); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o, fromStatus); err != nil {
		return nil, err
	}
	s.paymentChanged(ctx, o, fromPayment)
	if o.Status != fromStatus {
		s.statusChanged(ctx, o, fromStatus, true)
	}
	return o, nil
}

func (s *OrderService) paymentChanged(ctx context.Context, o *model.Order, from model.PaymentStatus) {
	s.log.InfoContext(ctx, "order payment changed", "order_id", o.ID, "from", from, "to", o.PaymentStatus)
	notify.Send(ctx, s.events, s.log, notify.Event{
		Type:     notify.OrderPaymentChanged,
		Entity:   "order",
		EntityID: o.ID,
		Data:     map[string]any{"orderNumber": o.OrderNumber, "from": string(from), "to": string(o.PaymentStatus)},
	})
}

// Update applies every field of in and saves once. A status change follows
// the strict table; pricing may change only while the order is pending.
func (s *OrderService) Update(ctx context.Context, id uint, in UpdateOrderInput) (*model.Order, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fromStatus, fromPayment := o.Status, o.PaymentStatus

	if in.repricing() {
		if o.Status != model.StatusPending {
			return nil, apperr.Conflict("pricing can only change while the order is pending")
		}
		if in.Shipping != nil {
			o.Shipping = *in.Shipping
		}
		if in.Tax != nil {
			o.Tax = *in.Tax
		}
		if in.Discount != nil {
			o.Discount = *in.Discount
		}
		if err := checkAdjustments(o.Shipping, o.Tax, o.Discount); err != nil {
			return nil, err
		}
		o.Recalculate()
		if o.Total.IsNegative() {
			return nil, apperr.Validation("discount", "exceeds the order value")
		}
	}
	if in.TrackingNumber != nil {
		o.TrackingNumber = *in.TrackingNumber
	}
	if in.InternalNote != nil {
		o.InternalNote = *in.InternalNote
	}
	if in.ShippingAddress != nil {
		o.ShippingAddress = *in.ShippingAddress
	}
	if in.Status != nil && *in.Status != o.Status {
		to := *in.Status
		if !to.Valid() {
			return nil, apperr.Validation("status", "unknown order status")
		}
		if !o.Status.CanTransitionTo(to) {
			return nil, apperr.Transition("order", o.Status, to)
		}
		s.applyStatus(o, to)
	}
	if in.PaymentStatus != nil && *in.PaymentStatus != o.PaymentStatus {
		if !in.PaymentStatus.Valid() {
			return nil, apperr.Validation("paymentStatus", "unknown payment status")
		}
		if err := s.applyPayment(o, *in.PaymentStatus); err != nil {
			return nil, err
		}
	}

	if err := s.orders.Save(ctx, o, fromStatus); err != nil {
		return nil, err
	}
	if o.PaymentStatus != fromPayment {
		s.paymentChanged(ctx, o, fromPayment)
	}
	if o.Status != fromStatus {
		forced := in.Status == nil || *in.Status != o.Status
		s.statusChanged(ctx, o, fromStatus, forced)
	}
	return o, nil
}

// Delete removes pending and cancelled orders. Stock the order still holds
// goes back to the products.
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if !o.Status.Deletable() {
		return apperr.Conflict(fmt.Sprintf("cannot delete a %s order", o.Status))
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "order deleted", "order_id", id, "order_number", o.OrderNumber)
	return nil
}
