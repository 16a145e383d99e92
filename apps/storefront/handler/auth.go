package handler

import (
	"net/http"
	"time"

	"supplyhub/apps/storefront/middleware"
	userservice "supplyhub/apps/user/service"
	"supplyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handler) register(c *gin.Context) {
	var in userservice.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.svc.Auth.Register(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.setSession(c, sess)
	response.Created(c, sess)
}

// login returns the token in the body and also sets it as the session cookie.
func (h *Handler) login(c *gin.Context) {
	var in userservice.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.svc.Auth.Login(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.setSession(c, sess)
	response.Success(c, sess)
}

func (h *Handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.opts.CookieSecure, true)
	response.NoContent(c)
}

func (h *Handler) setSession(c *gin.Context, sess *userservice.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sess.Token, maxAge, "/", "", h.opts.CookieSecure, true)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.Auth.Me(c.Request.Context(), middleware.ActorFrom(c).UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, u)
}

func (h *Handler) changePassword(c *gin.Context) {
	var in userservice.ChangePasswordInput
	if !bindJSON(c, &in) {
		return
	}
	if err := h.svc.Auth.ChangePassword(c.Request.Context(), middleware.ActorFrom(c).UserID, in); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}
