package handler

import (
	"supplyhub/apps/quote/model"
	quoteservice "supplyhub/apps/quote/service"
	"supplyhub/apps/storefront/middleware"
	"supplyhub/pkg/apperr"
	"supplyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// createQuote links the quote to the signed-in customer, if any.
func (h *Handler) createQuote(c *gin.Context) {
	var in quoteservice.CreateQuoteInput
	if !bindJSON(c, &in) {
		return
	}
	if actor := middleware.ActorFrom(c); actor != nil {
		in.CustomerID = actor.CustomerID
	}
	q, err := h.svc.Quotes.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, q)
}

func (h *Handler) listQuotes(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	f := model.Filter{Status: model.Status(c.Query("status"))}
	var err error
	if f.Page, f.PageSize, err = paging(c); err != nil {
		response.Fail(c, err)
		return
	}
	if actor.Can(middleware.QuotesReadAny) {
		f.Email = c.Query("email")
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

	list, total, err := h.svc.Quotes.List(c.Request.Context(), f)
	if err != nil {
		response.Fail(c, err)
		return
	}
	f.Normalize()
	response.Success(c, response.Page{Items: list, Total: total, Page: f.Page, PageSize: f.PageSize})
}

func (h *Handler) getQuote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	actor := middleware.ActorFrom(c)
	var (
		q   *model.Quote
		err error
	)
	if actor.Can(middleware.QuotesReadAny) {
		q, err = h.svc.Quotes.Get(c.Request.Context(), id)
	} else {
		var own uint
		if own, err = ownCustomer(actor); err == nil {
			q, err = h.svc.Quotes.GetForCustomer(c.Request.Context(), id, own)
		}
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, q)
}

func (h *Handler) updateQuoteStatus(c *gin.Context) {
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
	q, err := h.svc.Quotes.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, q)
}

func (h *Handler) respondQuote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in quoteservice.RespondInput
	if !bindJSON(c, &in) {
		return
	}
	q, err := h.svc.Quotes.Respond(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, q)
}

// convertQuote 报价转订单: {"orderId": 12}
func (h *Handler) convertQuote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		OrderID uint `json:"orderId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.OrderID == 0 {
		response.Fail(c, apperr.Validation("orderId", "is required"))
		return
	}
	q, err := h.svc.Quotes.Convert(c.Request.Context(), id, req.OrderID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, q)
}

func (h *Handler) expireQuotes(c *gin.Context) {
	n, err := h.svc.Quotes.ExpireStale(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"expired": n})
}

func (h *Handler) deleteQuote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Quotes.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}
