package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	customermodel "supplyhub/apps/customer/model"
	"supplyhub/apps/user/model"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/jwt"
	"supplyhub/pkg/notify"
	"supplyhub/pkg/validate"

	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
}

// CustomerDirectory links accounts to customer records.
type CustomerDirectory interface {
	GetByEmail(ctx context.Context, email string) (*customermodel.Customer, error)
	Create(ctx context.Context, c *customermodel.Customer) error
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=190"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=120"`
	Company  string `json:"company" validate:"max=160"`
	Phone    string `json:"phone" validate:"max=40"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

type AuthService struct {
	users     UserRepository
	customers CustomerDirectory
	tokens    *jwt.Manager
	events    notify.Publisher
	log       *slog.Logger
	cost      int
	now       func() time.Time
}

func NewAuthService(users UserRepository, customers CustomerDirectory, tokens *jwt.Manager,
	events notify.Publisher, log *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		customers: customers,
		tokens:    tokens,
		events:    events,
		log:       log,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}
}

// Register creates a customer account, reusing the customer record with the
// same email when the back office created one first.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("email already registered")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	customer, err := s.customers.GetByEmail(ctx, email)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		customer = &customermodel.Customer{
			Email:   email,
			Name:    in.Name,
			Company: in.Company,
			Phone:   in.Phone,
			Status:  customermodel.StatusActive,
			Tags:    []string{},
		}
		if err := s.customers.Create(ctx, customer); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case customer.Status == customermodel.StatusBlocked:
		return nil, apperr.Forbidden("account is blocked")
	}

	// 密码加密存储
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	u := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         in.Name,
		Role:         model.RoleCustomer,
		CustomerID:   &customer.ID,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "customer_id", customer.ID)
	notify.Send(ctx, s.events, s.log, notify.Event{
		Type:     notify.CustomerRegistered,
		Entity:   "customer",
		EntityID: customer.ID,
		Data:     map[string]any{"email": email, "userId": u.ID},
	})
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, err
	}
	// 密码比对 (数据库里的 Hash vs 输入的明文)
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, invalidCredentials()
		}
		return nil, apperr.Internal("compare password", err)
	}
	if u.IsDisabled {
		return nil, apperr.Forbidden("account is disabled")
	}
	s.log.InfoContext(ctx, "user logged in", "user_id", u.ID, "role", u.Role)
	return s.issue(u)
}

func (s *AuthService) issue(u *model.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(u.ID, u.Email, string(u.Role), u.CustomerID)
	if err != nil {
		return nil, apperr.Internal("sign token", err)
	}
	return &Session{Token: token, ExpiresAt: s.now().Add(s.tokens.TTL()).UTC(), User: u}, nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*model.User, error) {
	return s.users.Get(ctx, userID)
}

// ChangePassword 修改密码
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.OldPassword)); err != nil {
		return apperr.Validation("oldPassword", "does not match")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.cost)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	u.PasswordHash = string(hash)
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "password changed", "user_id", u.ID)
	return nil
}

// EnsureAdmin creates the bootstrap superadmin when no user holds email.
// An empty email disables bootstrapping.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	if len(password) < 8 {
		return apperr.Validation("auth.admin_password", "must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	u := &model.User{Email: email, PasswordHash: string(hash), Name: "Administrator", Role: model.RoleSuperadmin}
	if err := s.users.Create(ctx, u); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "bootstrap admin created", "user_id", u.ID, "email", email)
	return nil
}

func invalidCredentials() error {
	return apperr.Unauthorized("invalid email or password")
}
