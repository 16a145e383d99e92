// Package memstore keeps every repository in process memory behind one
// mutex. It backs the storage.driver=memory mode and the service tests.
package memstore

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	catalogmodel "supplyhub/apps/catalog/model"
	customermodel "supplyhub/apps/customer/model"
	messagemodel "supplyhub/apps/message/model"
	ordermodel "supplyhub/apps/order/model"
	quotemodel "supplyhub/apps/quote/model"
	usermodel "supplyhub/apps/user/model"
)

type Store struct {
	mu     sync.RWMutex
	now    func() time.Time
	nextID map[string]uint

	categories map[uint]catalogmodel.Category
	brands     map[uint]catalogmodel.Brand
	products   map[uint]catalogmodel.Product
	customers  map[uint]customermodel.Customer
	orders     map[uint]ordermodel.Order
	quotes     map[uint]quotemodel.Quote
	messages   map[uint]messagemodel.Message
	users      map[uint]usermodel.User
}

func New() *Store {
	return &Store{
		now:        time.Now,
		nextID:     map[string]uint{},
		categories: map[uint]catalogmodel.Category{},
		brands:     map[uint]catalogmodel.Brand{},
		products:   map[uint]catalogmodel.Product{},
		customers:  map[uint]customermodel.Customer{},
		orders:     map[uint]ordermodel.Order{},
		quotes:     map[uint]quotemodel.Quote{},
		messages:   map[uint]messagemodel.Message{},
		users:      map[uint]usermodel.User{},
	}
}

// Repository views over the shared state.
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{s} }
func (s *Store) Brands() *BrandRepo { return &BrandRepo{s} }
func (s *Store) Products() *ProductRepo { return &ProductRepo{s} }
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{s} }
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s} }
func (s *Store) Quotes() *QuoteRepo { return &QuoteRepo{s} }
func (s *Store) Messages() *MessageRepo { return &MessageRepo{s} }
func (s *Store) Users() *UserRepo { return &UserRepo{s} }

// id returns the next identifier for table. Callers hold mu.
func (s *Store) id(table string) uint {
	s.nextID[table]++
	return s.nextID[table]
}

func (s *Store) stamp() time.Time {
	return s.now().UTC()
}

func paginate[T any](items []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}

// sortedIDs returns the keys of m, newest (highest) first when desc is set.
func sortedIDs[V any](m map[uint]V, desc bool) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if desc {
			return ids[i] > ids[j]
		}
		return ids[i] < ids[j]
	})
	return ids
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func cloneUint(p *uint) *uint {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneProduct(p catalogmodel.Product) catalogmodel.Product {
	p.BrandID = cloneUint(p.BrandID)
	p.Images = slices.Clone(p.Images)
	p.DeriveStockStatus()
	return p
}

func cloneCustomer(c customermodel.Customer) customermodel.Customer {
	c.Tags = slices.Clone(c.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c
}

func cloneOrder(o ordermodel.Order) ordermodel.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

func cloneQuote(q quotemodel.Quote) quotemodel.Quote {
	q.CustomerID = cloneUint(q.CustomerID)
	q.OrderID = cloneUint(q.OrderID)
	q.Items = slices.Clone(q.Items)
	for i := range q.Items {
		q.Items[i].ProductID = cloneUint(q.Items[i].ProductID)
	}
	return q
}
