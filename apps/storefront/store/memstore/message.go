package memstore

import (
	"context"

	"supplyhub/apps/message/model"
	"supplyhub/pkg/apperr"
)

type MessageRepo struct{ s *Store }

func (r *MessageRepo) Create(_ context.Context, m *model.Message) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.stamp()
	m.ID = s.id("messages")
	m.CreatedAt, m.UpdatedAt = now, now
	s.messages[m.ID] = *m
	return nil
}

func (r *MessageRepo) Get(_ context.Context, id uint) (*model.Message, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, apperr.NotFound("message", id)
	}
	return &m, nil
}

func (r *MessageRepo) Save(_ context.Context, m *model.Message) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.messages[m.ID]
	if !ok {
		return apperr.NotFound("message", m.ID)
	}
	m.CreatedAt = old.CreatedAt
	m.UpdatedAt = s.stamp()
	stored := *m
	stored.RepliedBy = cloneUint(m.RepliedBy)
	s.messages[m.ID] = stored
	return nil
}

func (r *MessageRepo) Delete(_ context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return apperr.NotFound("message", id)
	}
	delete(s.messages, id)
	return nil
}

func (r *MessageRepo) List(_ context.Context, f model.Filter) ([]model.Message, int64, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []model.Message{}
	for _, id := range sortedIDs(s.messages, true) {
		m := s.messages[id]
		switch {
		case f.Status != "" && m.Status != f.Status:
			continue
		case f.Type != "" && m.Type != f.Type:
			continue
		case f.IsStarred != nil && m.IsStarred != *f.IsStarred:
			continue
		}
		matched = append(matched, m)
	}
	return paginate(matched, f.Page, f.PageSize), int64(len(matched)), nil
}
