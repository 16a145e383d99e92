package memstore

import (
	"context"
	"fmt"
	"time"

	"supplyhub/apps/quote/model"
	"supplyhub/pkg/apperr"
)

type QuoteRepo struct{ s *Store }

func (r *QuoteRepo) Create(_ context.Context, q *model.Quote) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.quotes {
		if existing.QuoteNumber == q.QuoteNumber {
			return apperr.Conflict("quote number already exists: " + q.QuoteNumber)
		}
	}
	now := s.stamp()
	q.ID = s.id("quotes")
	q.CreatedAt, q.UpdatedAt = now, now
	for i := range q.Items {
		q.Items[i].ID = s.id("quote_items")
		q.Items[i].QuoteID = q.ID
	}
	s.quotes[q.ID] = cloneQuote(*q)
	return nil
}

func (r *QuoteRepo) Get(_ context.Context, id uint) (*model.Quote, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote", id)
	}
	q = cloneQuote(q)
	return &q, nil
}

func (r *QuoteRepo) List(_ context.Context, f model.Filter) ([]model.Quote, int64, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []model.Quote{}
	for _, id := range sortedIDs(s.quotes, true) {
		q := s.quotes[id]
		switch {
		case f.CustomerID != nil && (q.CustomerID == nil || *q.CustomerID != *f.CustomerID):
			continue
		case f.Status != "" && q.Status != f.Status:
			continue
		case f.Email != "" && !containsFold(q.Email, f.Email):
			continue
		}
		matched = append(matched, cloneQuote(q))
	}
	return paginate(matched, f.Page, f.PageSize), int64(len(matched)), nil
}

func (r *QuoteRepo) Save(_ context.Context, q *model.Quote, from model.Status) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.quotes[q.ID]
	if !ok {
		return apperr.NotFound("quote", q.ID)
	}
	if old.Status != from {
		return staleQuote(&old)
	}
	q.CreatedAt = old.CreatedAt
	q.UpdatedAt = s.stamp()
	s.quotes[q.ID] = cloneQuote(*q)
	return nil
}

func staleQuote(stored *model.Quote) error {
	if stored.Status == model.StatusConverted {
		return apperr.Conflict("quote already converted")
	}
	return apperr.Conflict(fmt.Sprintf("quote %d was changed by another request, reload and retry", stored.ID))
}

func (r *QuoteRepo) Delete(_ context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotes[id]; !ok {
		return apperr.NotFound("quote", id)
	}
	delete(s.quotes, id)
	return nil
}

func (r *QuoteRepo) ListStale(_ context.Context, t time.Time) ([]model.Quote, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Quote{}
	for _, id := range sortedIDs(s.quotes, false) {
		q := s.quotes[id]
		if q.Status == model.StatusSent && q.ValidUntil != nil && q.ValidUntil.Before(t) {
			out = append(out, cloneQuote(q))
		}
	}
	return out, nil
}
