// Package handler exposes the storefront services over HTTP.
package handler

import (
	"context"
	"strconv"

	adminservice "supplyhub/apps/admin/service"
	catalogservice "supplyhub/apps/catalog/service"
	customerservice "supplyhub/apps/customer/service"
	messageservice "supplyhub/apps/message/service"
	orderservice "supplyhub/apps/order/service"
	quoteservice "supplyhub/apps/quote/service"
	"supplyhub/apps/storefront/middleware"
	userservice "supplyhub/apps/user/service"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/jwt"
	"supplyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type Services struct {
	Categories *catalogservice.CategoryService
	Brands     *catalogservice.BrandService
	Products   *catalogservice.ProductService
	Orders     *orderservice.OrderService
	Quotes     *quoteservice.QuoteService
	Customers  *customerservice.CustomerService
	Messages   *messageservice.MessageService
	Auth       *userservice.AuthService
	Dashboard  *adminservice.DashboardService
}

type Options struct {
	Tokens  *jwt.Manager
	Limiter *middleware.RateLimiter
	// Accounts re-reads the user behind each token; nil trusts the claims.
	Accounts middleware.AccountLookup
	// CookieSecure marks the session cookie Secure (HTTPS only).
	CookieSecure bool
	// Ready backs /healthz; nil always reports healthy.
	Ready func(ctx context.Context) error
}

type Handler struct {
	svc     Services
	auth    *middleware.Authenticator
	limiter *middleware.RateLimiter
	opts    Options
}

func New(svc Services, opts Options) *Handler {
	return &Handler{
		svc:     svc,
		auth:    middleware.NewAuthenticator(opts.Tokens, opts.Accounts),
		limiter: opts.Limiter,
		opts:    opts,
	}
}

// bindJSON 解析请求体; it reports a 400 and returns false on malformed JSON.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Fail(c, apperr.Validation("body", "invalid request body: "+err.Error()))
		return false
	}
	return true
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Fail(c, apperr.Validation("id", "must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

// queryUint returns nil when the parameter is absent.
func queryUint(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, apperr.Validation(name, "must be a positive integer")
	}
	id := uint(v)
	return &id, nil
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation(name, "must be true or false")
	}
	return &v, nil
}

// paging reads page and pageSize; the services clamp the values.
func paging(c *gin.Context) (page, pageSize int, err error) {
	if page, err = queryInt(c, "page"); err != nil {
		return 0, 0, err
	}
	if pageSize, err = queryInt(c, "pageSize"); err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(name, "must be an integer")
	}
	return v, nil
}

// ownCustomer is the customer an actor without read:any is scoped to.
func ownCustomer(actor *middleware.Actor) (uint, error) {
	if actor.CustomerID == nil {
		return 0, apperr.Forbidden("account is not linked to a customer")
	}
	return *actor.CustomerID, nil
}
