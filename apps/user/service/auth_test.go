package service

import (
	"context"
	"testing"
	"time"

	customermodel "supplyhub/apps/customer/model"
	"supplyhub/apps/storefront/store/memstore"
	"supplyhub/apps/user/model"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/jwt"
	"supplyhub/pkg/logger"
	"supplyhub/pkg/notify"
	"supplyhub/pkg/notify/notifytest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authEnv struct {
	svc    *AuthService
	store  *memstore.Store
	tokens *jwt.Manager
	events *notifytest.Recorder
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	st := memstore.New()
	env := &authEnv{store: st, tokens: jwt.NewManager("test-secret", time.Hour, "supplyhub"), events: &notifytest.Recorder{}}
	env.svc = NewAuthService(st.Users(), st.Customers(), env.tokens, env.events, logger.Discard())
	env.svc.cost = bcrypt.MinCost
	return env
}

func (e *authEnv) register(t *testing.T, email string) *Session {
	t.Helper()
	s, err := e.svc.Register(context.Background(), RegisterInput{Email: email, Password: "correct-horse", Name: "Sam"})
	require.NoError(t, err)
	return s
}

func TestRegister_CreatesCustomer(t *testing.T) {
	env := newAuthEnv(t)
	s := env.register(t, "Sam@Example.com")

	assert.Equal(t, "sam@example.com", s.User.Email)
	assert.Equal(t, model.RoleCustomer, s.User.Role)
	require.NotNil(t, s.User.CustomerID)

	c, err := env.store.Customers().Get(context.Background(), *s.User.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", c.Email)

	claims, err := env.tokens.ParseToken(s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, claims.UserId)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, []string{notify.CustomerRegistered}, env.events.Types())

	_, err = env.svc.Register(context.Background(), RegisterInput{Email: "sam@example.com", Password: "another-pass", Name: "Sam"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestRegister_LinksExistingCustomer(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	existing := &customermodel.Customer{Email: "buyer@example.com", Name: "Buyer", Status: customermodel.StatusActive}
	require.NoError(t, env.store.Customers().Create(ctx, existing))

	s := env.register(t, "buyer@example.com")
	assert.Equal(t, existing.ID, *s.User.CustomerID)

	blocked := &customermodel.Customer{Email: "blocked@example.com", Name: "Blocked", Status: customermodel.StatusBlocked}
	require.NoError(t, env.store.Customers().Create(ctx, blocked))
	_, err := env.svc.Register(ctx, RegisterInput{Email: "blocked@example.com", Password: "correct-horse", Name: "B"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestRegister_Validation(t *testing.T) {
	env := newAuthEnv(t)
	_, err := env.svc.Register(context.Background(), RegisterInput{Email: "short@example.com", Password: "short", Name: "S"})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Equal(t, "password", ae.Field)
}

func TestLogin(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	env.register(t, "sam@example.com")

	s, err := env.svc.Login(ctx, LoginInput{Email: "SAM@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, time.Minute)

	_, err = env.svc.Login(ctx, LoginInput{Email: "sam@example.com", Password: "wrong-horse"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = env.svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "correct-horse"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	u, err := env.store.Users().GetByEmail(ctx, "sam@example.com")
	require.NoError(t, err)
	u.IsDisabled = true
	require.NoError(t, env.store.Users().Update(ctx, u))
	_, err = env.svc.Login(ctx, LoginInput{Email: "sam@example.com", Password: "correct-horse"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestChangePassword(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()
	s := env.register(t, "sam@example.com")

	err := env.svc.ChangePassword(ctx, s.User.ID, ChangePasswordInput{OldPassword: "nope", NewPassword: "battery-staple"})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "oldPassword", ae.Field)

	require.NoError(t, env.svc.ChangePassword(ctx, s.User.ID, ChangePasswordInput{OldPassword: "correct-horse", NewPassword: "battery-staple"}))
	_, err = env.svc.Login(ctx, LoginInput{Email: "sam@example.com", Password: "correct-horse"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = env.svc.Login(ctx, LoginInput{Email: "sam@example.com", Password: "battery-staple"})
	assert.NoError(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	env := newAuthEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.EnsureAdmin(ctx, "", "ignored"))
	assert.True(t, apperr.Is(env.svc.EnsureAdmin(ctx, "root@example.com", "short"), apperr.KindValidation))

	require.NoError(t, env.svc.EnsureAdmin(ctx, "Root@Example.com", "admin-password"))
	u, err := env.store.Users().GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperadmin, u.Role)
	assert.Nil(t, u.CustomerID)

	// idempotent: the existing account is left as is
	require.NoError(t, env.svc.EnsureAdmin(ctx, "root@example.com", "different-password"))
	_, err = env.svc.Login(ctx, LoginInput{Email: "root@example.com", Password: "admin-password"})
	assert.NoError(t, err)
}
