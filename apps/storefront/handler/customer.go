package handler

import (
	"supplyhub/apps/customer/model"
	customerservice "supplyhub/apps/customer/service"
	"supplyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listCustomers(c *gin.Context) {
	f := model.Filter{
		Status: model.Status(c.Query("status")),
		Tag:    c.Query("tag"),
		Query:  c.Query("q"),
	}
	var err error
	if f.Page, f.PageSize, err = paging(c); err != nil {
		response.Fail(c, err)
		return
	}
	list, total, err := h.svc.Customers.List(c.Request.Context(), f)
	if err != nil {
		response.Fail(c, err)
		return
	}
	f.Normalize()
	response.Success(c, response.Page{Items: list, Total: total, Page: f.Page, PageSize: f.PageSize})
}

func (h *Handler) getCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cust, err := h.svc.Customers.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, cust)
}

func (h *Handler) createCustomer(c *gin.Context) {
	var in customerservice.CreateCustomerInput
	if !bindJSON(c, &in) {
		return
	}
	cust, err := h.svc.Customers.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, cust)
}

func (h *Handler) updateCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in customerservice.UpdateCustomerInput
	if !bindJSON(c, &in) {
		return
	}
	cust, err := h.svc.Customers.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, cust)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Customers.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}
