package memstore

import (
	"context"
	"fmt"

	"supplyhub/apps/order/model"
	"supplyhub/pkg/apperr"
)

type OrderRepo struct{ s *Store }

// Place checks every line against current stock before touching any of
// them, so a short line leaves stock and orders unchanged.
func (r *OrderRepo) Place(_ context.Context, o *model.Order) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orders {
		if existing.OrderNumber == o.OrderNumber {
			return apperr.Conflict("order number already exists: " + o.OrderNumber)
		}
	}
	if err := s.reserve(o.Items); err != nil {
		return err
	}

	now := s.stamp()
	o.ID = s.id("orders")
	o.CreatedAt, o.UpdatedAt = now, now
	o.StockReserved = true
	for i := range o.Items {
		o.Items[i].ID = s.id("order_items")
		o.Items[i].OrderID = o.ID
	}
	s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *OrderRepo) Get(_ context.Context, id uint) (*model.Order, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound("order", id)
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *OrderRepo) List(_ context.Context, f model.Filter) ([]model.Order, int64, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []model.Order{}
	for _, id := range sortedIDs(s.orders, true) {
		o := s.orders[id]
		switch {
		case f.CustomerID != nil && o.CustomerID != *f.CustomerID:
			continue
		case f.Status != "" && o.Status != f.Status:
			continue
		case f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus:
			continue
		}
		matched = append(matched, cloneOrder(o))
	}
	return paginate(matched, f.Page, f.PageSize), int64(len(matched)), nil
}

func (r *OrderRepo) Save(_ context.Context, o *model.Order, from model.Status) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.orders[o.ID]
	if !ok {
		return apperr.NotFound("order", o.ID)
	}
	if old.Status != from {
		return staleOrder(o.ID)
	}
	hold := o.Status.HoldsStock(old.StockReserved)
	switch {
	case old.StockReserved && !hold:
		s.restock(old.Items)
	case !old.StockReserved && hold:
		if err := s.reserve(old.Items); err != nil {
			return err
		}
	}

	o.StockReserved = hold
	o.Items = cloneOrder(old).Items
	o.CreatedAt = old.CreatedAt
	o.UpdatedAt = s.stamp()
	s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *OrderRepo) Delete(_ context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[id]
	if !ok {
		return apperr.NotFound("order", id)
	}
	if !stored.Status.Deletable() {
		return apperr.Conflict(fmt.Sprintf("cannot delete a %s order", stored.Status))
	}
	if stored.StockReserved {
		s.restock(stored.Items)
	}
	delete(s.orders, id)
	return nil
}

func staleOrder(id uint) error {
	return apperr.Conflict(fmt.Sprintf("order %d was changed by another request, reload and retry", id))
}

// reserve takes item quantities out of stock, or fails without touching any
// product when one line is short.
func (s *Store) reserve(items []model.OrderItem) error {
	for i, it := range items {
		p, ok := s.products[it.ProductID]
		if !ok {
			return apperr.NotFound("product", it.ProductID)
		}
		if p.StockQuantity < it.Quantity {
			return apperr.Validation(fmt.Sprintf("items[%d].quantity", i), "out of stock")
		}
	}
	now := s.stamp()
	for _, it := range items {
		p := s.products[it.ProductID]
		p.StockQuantity -= it.Quantity
		p.UpdatedAt = now
		s.products[it.ProductID] = p
	}
	return nil
}

// restock returns item quantities to products that still exist.
func (s *Store) restock(items []model.OrderItem) {
	now := s.stamp()
	for _, it := range items {
		p, ok := s.products[it.ProductID]
		if !ok {
			continue
		}
		p.StockQuantity += it.Quantity
		p.UpdatedAt = now
		s.products[it.ProductID] = p
	}
}
