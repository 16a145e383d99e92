package middleware

import (
	"context"
	"strings"

	usermodel "supplyhub/apps/user/model"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/jwt"
	"supplyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// SessionCookie carries the token for browser clients.
const SessionCookie = "session"

const actorKey = "storefront_actor"

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID     uint
	Email      string
	Role       usermodel.Role
	CustomerID *uint
}

func (a *Actor) Can(p Permission) bool {
	return a != nil && Allowed(a.Role, p)
}

// AccountLookup loads the current state of a token's user.
type AccountLookup interface {
	Get(ctx context.Context, id uint) (*usermodel.User, error)
}

// Authenticator resolves the actor from "Authorization: Bearer <token>" or
// the session cookie.
type Authenticator struct {
	tokens   *jwt.Manager
	accounts AccountLookup
}

// NewAuthenticator trusts the token claims alone when accounts is nil.
// Otherwise every token is checked against the stored user, so role changes
// and disabled accounts apply on the next request.
func NewAuthenticator(tokens *jwt.Manager, accounts AccountLookup) *Authenticator {
	return &Authenticator{tokens: tokens, accounts: accounts}
}

// Identify attaches the actor when a valid token is present. Anonymous and
// invalid-token requests continue without one; the route guards decide. A
// token whose user is gone or disabled counts as anonymous.
func (a *Authenticator) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(SessionCookie)
		}
		if token == "" {
			c.Next()
			return
		}
		claims, err := a.tokens.ParseToken(token)
		if err != nil {
			c.Next()
			return
		}
		actor := &Actor{
			UserID:     claims.UserId,
			Email:      claims.Email,
			Role:       usermodel.Role(claims.Role),
			CustomerID: claims.CustomerId,
		}
		if a.accounts != nil {
			u, err := a.accounts.Get(c.Request.Context(), claims.UserId)
			switch {
			case apperr.Is(err, apperr.KindNotFound):
				c.Next()
				return
			case err != nil:
				response.Fail(c, err)
				c.Abort()
				return
			case u.IsDisabled:
				c.Next()
				return
			}
			actor.Email, actor.Role, actor.CustomerID = u.Email, u.Role, u.CustomerID
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// bearerToken 格式通常是 "Bearer <token>"
func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ActorFrom returns the request's actor, nil for anonymous requests.
func ActorFrom(c *gin.Context) *Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*Actor)
	return actor
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ActorFrom(c) == nil {
			response.Fail(c, apperr.Unauthorized("authentication required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission rejects anonymous requests with 401 and actors lacking
// p with 403.
func RequirePermission(p Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor == nil {
			response.Fail(c, apperr.Unauthorized("authentication required"))
			c.Abort()
			return
		}
		if !actor.Can(p) {
			response.Fail(c, apperr.Forbidden("missing permission "+string(p)))
			c.Abort()
			return
		}
		c.Next()
	}
}
