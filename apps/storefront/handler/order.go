package handler

import (
	"supplyhub/apps/order/model"
	orderservice "supplyhub/apps/order/service"
	"supplyhub/apps/storefront/middleware"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// listOrders: staff see every order, customers only their own.
func (h *Handler) listOrders(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	f := model.Filter{
		Status:        model.Status(c.Query("status")),
		PaymentStatus: model.PaymentStatus(c.Query("paymentStatus")),
	}
	var err error
	if f.Page, f.PageSize, err = paging(c); err != nil {
		response.Fail(c, err)
		return
	}
	if actor.Can(middleware.OrdersReadAny) {
		if f.CustomerID, err = queryUint(c, "customerId"); err != nil {
			response.Fail(c, err)
			return
		}
	} else {
		own, err := ownCustomer(actor)
		if err != nil {
			response.Fail(c, err)
			return
		}
		f.CustomerID = &own
	}

	list, total, err := h.svc.Orders.List(c.Request.Context(), f)
	if err != nil {
		response.Fail(c, err)
		return
	}
	f.Normalize()
	response.Success(c, response.Page{Items: list, Total: total, Page: f.Page, PageSize: f.PageSize})
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	actor := middleware.ActorFrom(c)
	var (
		o   *model.Order
		err error
	)
	if actor.Can(middleware.OrdersReadAny) {
		o, err = h.svc.Orders.Get(c.Request.Context(), id)
	} else {
		var own uint
		if own, err = ownCustomer(actor); err == nil {
			o, err = h.svc.Orders.GetForCustomer(c.Request.Context(), id, own)
		}
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, o)
}

func (h *Handler) createOrder(c *gin.Context) {
	var in orderservice.CreateOrderInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.svc.Orders.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, o)
}

func (h *Handler) updateOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in orderservice.UpdateOrderInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.svc.Orders.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, o)
}

// forceOrderStatus 强制修改状态, bypassing the transition table.
func (h *Handler) forceOrderStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Status model.Status `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Status == "" {
		response.Fail(c, apperr.Validation("status", "is required"))
		return
	}
	o, err := h.svc.Orders.ForceStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, o)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Orders.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}
