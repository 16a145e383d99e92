package memstore

import (
	"context"
	"slices"

	"supplyhub/apps/customer/model"
	ordermodel "supplyhub/apps/order/model"
	"supplyhub/pkg/apperr"

	"github.com/shopspring/decimal"
)

type CustomerRepo struct{ s *Store }

func (r *CustomerRepo) Create(_ context.Context, c *model.Customer) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.customerEmailTaken(c.Email, 0) {
		return apperr.Conflict("email already exists: " + c.Email)
	}
	now := s.stamp()
	c.ID = s.id("customers")
	c.CreatedAt, c.UpdatedAt = now, now
	stored := cloneCustomer(*c)
	stored.TotalOrders, stored.TotalSpent = 0, decimal.Zero
	s.customers[c.ID] = stored
	*c = s.withCustomerTotals(stored)
	return nil
}

func (r *CustomerRepo) Get(_ context.Context, id uint) (*model.Customer, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, apperr.NotFound("customer", id)
	}
	c = s.withCustomerTotals(c)
	return &c, nil
}

func (r *CustomerRepo) GetByEmail(_ context.Context, email string) (*model.Customer, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.Email == email {
			c = s.withCustomerTotals(c)
			return &c, nil
		}
	}
	return nil, apperr.NotFound("customer", email)
}

func (r *CustomerRepo) EmailTaken(_ context.Context, email string, excludeID uint) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.customerEmailTaken(email, excludeID), nil
}

func (s *Store) customerEmailTaken(email string, excludeID uint) bool {
	for id, c := range s.customers {
		if c.Email == email && id != excludeID {
			return true
		}
	}
	return false
}

func (r *CustomerRepo) Update(_ context.Context, c *model.Customer) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.customers[c.ID]
	if !ok {
		return apperr.NotFound("customer", c.ID)
	}
	if s.customerEmailTaken(c.Email, c.ID) {
		return apperr.Conflict("email already exists: " + c.Email)
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = s.stamp()
	stored := cloneCustomer(*c)
	stored.TotalOrders, stored.TotalSpent = 0, decimal.Zero
	s.customers[c.ID] = stored
	return nil
}

func (r *CustomerRepo) Delete(_ context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return apperr.NotFound("customer", id)
	}
	for _, o := range s.orders {
		if o.CustomerID == id {
			return apperr.Conflict("customer has orders")
		}
	}
	delete(s.customers, id)
	return nil
}

func (r *CustomerRepo) List(_ context.Context, f model.Filter) ([]model.Customer, int64, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []model.Customer{}
	for _, id := range sortedIDs(s.customers, true) {
		c := s.customers[id]
		switch {
		case f.Status != "" && c.Status != f.Status:
			continue
		case f.Tag != "" && !slices.Contains(c.Tags, f.Tag):
			continue
		case f.Query != "" && !containsFold(c.Name, f.Query) && !containsFold(c.Email, f.Query) && !containsFold(c.Company, f.Query):
			continue
		}
		matched = append(matched, s.withCustomerTotals(c))
	}
	return paginate(matched, f.Page, f.PageSize), int64(len(matched)), nil
}

func (r *CustomerRepo) CountOrders(_ context.Context, customerID uint) (int64, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

// withCustomerTotals aggregates over orders that are neither cancelled nor
// refunded.
func (s *Store) withCustomerTotals(c model.Customer) model.Customer {
	c = cloneCustomer(c)
	c.TotalOrders, c.TotalSpent = 0, decimal.Zero
	for _, o := range s.orders {
		if o.CustomerID != c.ID || o.Status == ordermodel.StatusCancelled || o.Status == ordermodel.StatusRefunded {
			continue
		}
		c.TotalOrders++
		c.TotalSpent = c.TotalSpent.Add(o.Total)
	}
	return c
}
