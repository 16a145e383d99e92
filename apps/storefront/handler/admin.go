package handler

import (
	adminservice "supplyhub/apps/admin/service"
	"supplyhub/apps/storefront/middleware"
	"supplyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// dashboardStats 后台首页统计
func (h *Handler) dashboardStats(c *gin.Context) {
	stats, err := h.svc.Dashboard.GetDashboardStats(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, stats)
}

func (h *Handler) listUsers(c *gin.Context) {
	page, pageSize, err := paging(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	users, total, err := h.svc.Dashboard.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, response.Page{Items: users, Total: total})
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in adminservice.UpdateUserInput
	if !bindJSON(c, &in) {
		return
	}
	actor := middleware.ActorFrom(c)
	u, err := h.svc.Dashboard.UpdateUser(c.Request.Context(), actor.UserID, actor.Role, id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, u)
}
