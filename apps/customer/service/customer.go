package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"supplyhub/apps/customer/model"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/validate"
)

// CustomerRepository fills TotalOrders and TotalSpent on every read.
type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error
	Get(ctx context.Context, id uint) (*model.Customer, error)
	GetByEmail(ctx context.Context, email string) (*model.Customer, error)
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	Update(ctx context.Context, c *model.Customer) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, f model.Filter) ([]model.Customer, int64, error)
	CountOrders(ctx context.Context, customerID uint) (int64, error)
}

type CreateCustomerInput struct {
	Email   string         `json:"email" validate:"required,email,max=190"`
	Name    string         `json:"name" validate:"required,max=120"`
	Company string         `json:"company" validate:"max=160"`
	Phone   string         `json:"phone" validate:"max=40"`
	Address *model.Address `json:"address" validate:"omitempty"`
	Status  model.Status   `json:"status" validate:"omitempty,oneof=active inactive blocked"`
	Tags    []string       `json:"tags" validate:"dive,max=40"`
	Notes   string         `json:"notes"`
}

type UpdateCustomerInput struct {
	Email   *string        `json:"email" validate:"omitempty,email,max=190"`
	Name    *string        `json:"name" validate:"omitempty,min=1,max=120"`
	Company *string        `json:"company" validate:"omitempty,max=160"`
	Phone   *string        `json:"phone" validate:"omitempty,max=40"`
	Address *model.Address `json:"address" validate:"omitempty"`
	Status  *model.Status  `json:"status" validate:"omitempty,oneof=active inactive blocked"`
	Tags    *[]string      `json:"tags" validate:"omitempty,dive,max=40"`
	Notes   *string        `json:"notes"`
}

type CustomerService struct {
	repo CustomerRepository
	log  *slog.Logger
}

func NewCustomerService(repo CustomerRepository, log *slog.Logger) *CustomerService {
	return &CustomerService{repo: repo, log: log}
}

func (s *CustomerService) Create(ctx context.Context, in CreateCustomerInput) (*model.Customer, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}
	c := &model.Customer{
		Email:   email,
		Name:    in.Name,
		Company: in.Company,
		Phone:   in.Phone,
		Status:  model.StatusActive,
		Tags:    NormalizeTags(in.Tags),
		Notes:   in.Notes,
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.Status != "" {
		c.Status = in.Status
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "customer created", "customer_id", c.ID)
	return c, nil
}

func (s *CustomerService) Update(ctx context.Context, id uint, in UpdateCustomerInput) (*model.Customer, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != c.Email {
			if err := s.ensureEmailFree(ctx, email, c.ID); err != nil {
				return nil, err
			}
			c.Email = email
		}
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Company != nil {
		c.Company = *in.Company
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.Status != nil && *in.Status != c.Status {
		s.log.InfoContext(ctx, "customer status changed", "customer_id", c.ID, "from", c.Status, "to", *in.Status)
		c.Status = *in.Status
	}
	if in.Tags != nil {
		c.Tags = NormalizeTags(*in.Tags)
	}
	if in.Notes != nil {
		c.Notes = *in.Notes
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete refuses while orders reference the customer.
func (s *CustomerService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("customer has orders")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "customer deleted", "customer_id", id)
	return nil
}

func (s *CustomerService) Get(ctx context.Context, id uint) (*model.Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *CustomerService) List(ctx context.Context, f model.Filter) ([]model.Customer, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.Validation("status", "unknown customer status")
	}
	f.Tag = strings.ToLower(strings.TrimSpace(f.Tag))
	f.Normalize()
	return s.repo.List(ctx, f)
}

func (s *CustomerService) ensureEmailFree(ctx context.Context, email string, excludeID uint) error {
	taken, err := s.repo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("email already exists: " + email)
	}
	return nil
}

// NormalizeTags trims, lowercases, deduplicates and sorts tags.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
