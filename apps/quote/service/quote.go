package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"supplyhub/apps/quote/model"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/metrics"
	"supplyhub/pkg/notify"
	"supplyhub/pkg/sequence"
	"supplyhub/pkg/validate"

	"github.com/shopspring/decimal"
)

const numberPrefix = "QT"

type ItemInput struct {
	// ProductID links a catalog product; ProductName is then filled from it.
	ProductID      *uint            `json:"productId"`
	ProductName    string           `json:"productName" validate:"max=200"`
	Quantity       int              `json:"quantity" validate:"required,gt=0"`
	RequestedPrice *decimal.Decimal `json:"requestedPrice"`
}

type CreateQuoteInput struct {
	CustomerID   *uint       `json:"-"`
	CustomerName string      `json:"customerName" validate:"required,max=120"`
	Email        string      `json:"email" validate:"required,email,max=190"`
	Company      string      `json:"company" validate:"max=160"`
	Phone        string      `json:"phone" validate:"max=40"`
	Items        []ItemInput `json:"items" validate:"required,min=1,dive"`
	Notes        string      `json:"notes" validate:"max=4000"`
}

type PricedItem struct {
	ItemID      uint            `json:"itemId" validate:"required"`
	QuotedPrice decimal.Decimal `json:"quotedPrice"`
}

// RespondInput prices a quote. Subtotal defaults to the sum of quoted line
// prices, Total to Subtotal minus Discount.
type RespondInput struct {
	Items      []PricedItem     `json:"items" validate:"dive"`
	Subtotal   *decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal  `json:"discount"`
	Total      *decimal.Decimal `json:"total"`
	ValidUntil time.Time        `json:"validUntil" validate:"required"`
	Message    string           `json:"message" validate:"max=4000"`
}

type QuoteService struct {
	quotes   QuoteRepository
	orders   OrderLookup
	products ProductLookup
	numbers  sequence.Generator
	events   notify.Publisher
	log      *slog.Logger
	now      func() time.Time
}

func NewQuoteService(quotes QuoteRepository, orders OrderLookup, products ProductLookup,
	numbers sequence.Generator, events notify.Publisher, log *slog.Logger) *QuoteService {
	return &QuoteService{
		quotes:   quotes,
		orders:   orders,
		products: products,
		numbers:  numbers,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// Create records a quote request from a guest or a signed-in customer.
func (s *QuoteService) Create(ctx context.Context, in CreateQuoteInput) (*model.Quote, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	items := make([]model.QuoteItem, 0, len(in.Items))
	for i, it := range in.Items {
		item := model.QuoteItem{ProductID: it.ProductID, ProductName: it.ProductName, Quantity: it.Quantity}
		if it.RequestedPrice != nil {
			if it.RequestedPrice.IsNegative() {
				return nil, apperr.Validation(fmt.Sprintf("items[%d].requestedPrice", i), "must not be negative")
			}
			item.RequestedPrice = decimal.NewNullDecimal(*it.RequestedPrice)
		}
		if it.ProductID != nil {
			p, err := s.products.Get(ctx, *it.ProductID)
			if err != nil {
				return nil, err
			}
			item.ProductName = p.Name
		}
		if item.ProductName == "" {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].productName", i), "is required")
		}
		items = append(items, item)
	}

	q := &model.Quote{
		CustomerID:   in.CustomerID,
		CustomerName: in.CustomerName,
		Email:        in.Email,
		Company:      in.Company,
		Phone:        in.Phone,
		Items:        items,
		Notes:        in.Notes,
		Status:       model.StatusPending,
	}
	var err error
	if q.QuoteNumber, err = s.numbers.Next(ctx, numberPrefix); err != nil {
		return nil, apperr.Internal("generate quote number", err)
	}
	if err := s.quotes.Create(ctx, q); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "quote requested", "quote_id", q.ID, "quote_number", q.QuoteNumber, "items", len(q.Items))
	notify.Send(ctx, s.events, s.log, notify.Event{
		Type:     notify.QuoteRequested,
		Entity:   "quote",
		EntityID: q.ID,
		Data:     map[string]any{"quoteNumber": q.QuoteNumber, "email": q.Email},
	})
	return q, nil
}

func (s *QuoteService) Get(ctx context.Context, id uint) (*model.Quote, error) {
	return s.quotes.Get(ctx, id)
}

// GetForCustomer hides other customers' quotes behind a not-found error.
func (s *QuoteService) GetForCustomer(ctx context.Context, id, customerID uint) (*model.Quote, error) {
	q, err := s.quotes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.CustomerID == nil || *q.CustomerID != customerID {
		return nil, apperr.NotFound("quote", id)
	}
	return q, nil
}

func (s *QuoteService) List(ctx context.Context, f model.Filter) ([]model.Quote, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.Validation("status", "unknown quote status")
	}
	f.Normalize()
	return s.quotes.List(ctx, f)
}

// UpdateStatus moves a quote along the status table. Conversion has its own
// operation because it must carry the order it produced.
func (s *QuoteService) UpdateStatus(ctx context.Context, id uint, to model.Status) (*model.Quote, error) {
	if !to.Valid() {
		return nil, apperr.Validation("status", "unknown quote status")
	}
	if to == model.StatusConverted {
		return nil, apperr.Validation("status", "use the convert operation to convert a quote")
	}
	q, err := s.quotes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := q.Status
	if from == to {
		return q, nil
	}
	if !from.CanTransitionTo(to) {
		return nil, apperr.Transition("quote", from, to)
	}

	now := s.now().UTC()
	q.Status = to
	switch to {
	case model.StatusReviewed:
		q.ReviewedAt = &now
	case model.StatusSent:
		if q.SentAt == nil {
			q.SentAt = &now
		}
	}
	if err := s.quotes.Save(ctx, q, from); err != nil {
		return nil, err
	}
	s.statusChanged(ctx, q, from, notify.QuoteStatusChanged)
	return q, nil
}

// Respond attaches pricing and sends the quote to the customer.
func (s *QuoteService) Respond(ctx context.Context, id uint, in RespondInput) (*model.Quote, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	q, err := s.quotes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Status.Respondable() {
		return nil, apperr.Transition("quote", q.Status, model.StatusSent)
	}
	now := s.now().UTC()
	if !in.ValidUntil.After(now) {
		return nil, apperr.Validation("validUntil", "must be in the future")
	}
	if in.Discount.IsNegative() {
		return nil, apperr.Validation("discount", "must not be negative")
	}

	byID := make(map[uint]int, len(q.Items))
	for i := range q.Items {
		byID[q.Items[i].ID] = i
	}
	for i, p := range in.Items {
		idx, ok := byID[p.ItemID]
		if !ok {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].itemId", i), "not an item of this quote")
		}
		if p.QuotedPrice.IsNegative() {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].quotedPrice", i), "must not be negative")
		}
		q.Items[idx].QuotedPrice = decimal.NewNullDecimal(p.QuotedPrice)
	}

	subtotal := quotedSubtotal(q.Items)
	if in.Subtotal != nil {
		if in.Subtotal.IsNegative() {
			return nil, apperr.Validation("subtotal", "must not be negative")
		}
		subtotal = *in.Subtotal
	}
	total := subtotal.Sub(in.Discount)
	if in.Total != nil && !in.Total.Equal(total) {
		return nil, apperr.Validation("total", "must equal subtotal minus discount")
	}
	if total.IsNegative() {
		return nil, apperr.Validation("discount", "exceeds the subtotal")
	}

	from := q.Status
	validUntil := in.ValidUntil.UTC()
	q.Subtotal = decimal.NewNullDecimal(subtotal)
	q.Discount = decimal.NewNullDecimal(in.Discount)
	q.Total = decimal.NewNullDecimal(total)
	q.ValidUntil = &validUntil
	q.AdminMessage = in.Message
	q.Status = model.StatusSent
	q.SentAt = &now
	q.RespondedAt = &now
	if err := s.quotes.Save(ctx, q, from); err != nil {
		return nil, err
	}
	s.statusChanged(ctx, q, from, notify.QuoteResponded)
	return q, nil
}

// quotedSubtotal sums quantity times quoted price over the priced lines.
func quotedSubtotal(items []model.QuoteItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		if it.QuotedPrice.Valid {
			sum = sum.Add(it.QuotedPrice.Decimal.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	return sum
}

// Convert links the quote to the order created from it. A quote converts
// at most once.
func (s *QuoteService) Convert(ctx context.Context, id, orderID uint) (*model.Quote, error) {
	q, err := s.quotes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status == model.StatusConverted || q.OrderID != nil {
		return nil, apperr.Conflict("quote already converted")
	}
	if !q.Status.CanTransitionTo(model.StatusConverted) {
		return nil, apperr.Transition("quote", q.Status, model.StatusConverted)
	}
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, err
	}

	from := q.Status
	now := s.now().UTC()
	q.Status = model.StatusConverted
	q.OrderID = &orderID
	q.ConvertedAt = &now
	if err := s.quotes.Save(ctx, q, from); err != nil {
		return nil, err
	}
	s.statusChanged(ctx, q, from, notify.QuoteConverted)
	return q, nil
}

func (s *QuoteService) Delete(ctx context.Context, id uint) error {
	if _, err := s.quotes.Get(ctx, id); err != nil {
		return err
	}
	if err := s.quotes.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "quote deleted", "quote_id", id)
	return nil
}

// ExpireStale marks every sent quote past its validUntil as expired and
// returns how many changed.
func (s *QuoteService) ExpireStale(ctx context.Context) (int, error) {
	stale, err := s.quotes.ListStale(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range stale {
		q := &stale[i]
		if !q.Status.CanTransitionTo(model.StatusExpired) {
			continue
		}
		from := q.Status
		q.Status = model.StatusExpired
		if err := s.quotes.Save(ctx, q, from); err != nil {
			if apperr.Is(err, apperr.KindConflict) {
				continue
			}
			return expired, fmt.Errorf("expire quote %d: %w", q.ID, err)
		}
		expired++
		s.statusChanged(ctx, q, from, notify.QuoteStatusChanged)
	}
	return expired, nil
}

func (s *QuoteService) statusChanged(ctx context.Context, q *model.Quote, from model.Status, event string) {
	metrics.QuoteTransitions.WithLabelValues(string(from), string(q.Status)).Inc()
	s.log.InfoContext(ctx, "quote status changed", "quote_id", q.ID, "from", from, "to", q.Status)
	data := map[string]any{"quoteNumber": q.QuoteNumber, "from": string(from), "to": string(q.Status), "email": q.Email}
	if q.OrderID != nil {
		data["orderId"] = *q.OrderID
	}
	notify.Send(ctx, s.events, s.log, notify.Event{Type: event, Entity: "quote", EntityID: q.ID, Data: data})
}
