package memstore

import (
	"context"

	"supplyhub/apps/user/model"
	"supplyhub/pkg/apperr"
)

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return apperr.Conflict("email already registered")
		}
	}
	now := s.stamp()
	u.ID = s.id("users")
	u.CreatedAt, u.UpdatedAt = now, now
	stored := *u
	stored.CustomerID = cloneUint(u.CustomerID)
	s.users[u.ID] = stored
	return nil
}

func (r *UserRepo) Get(_ context.Context, id uint) (*model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user", email)
}

func (r *UserRepo) Update(_ context.Context, u *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users[u.ID]
	if !ok {
		return apperr.NotFound("user", u.ID)
	}
	u.CreatedAt = old.CreatedAt
	u.UpdatedAt = s.stamp()
	stored := *u
	stored.CustomerID = cloneUint(u.CustomerID)
	s.users[u.ID] = stored
	return nil
}

func (r *UserRepo) List(_ context.Context, page, pageSize int) ([]model.User, int64, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]model.User, 0, len(s.users))
	for _, id := range sortedIDs(s.users, false) {
		all = append(all, s.users[id])
	}
	return paginate(all, page, pageSize), int64(len(all)), nil
}
