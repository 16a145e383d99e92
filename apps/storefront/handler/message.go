package handler

import (
	"supplyhub/apps/message/model"
	messageservice "supplyhub/apps/message/service"
	"supplyhub/apps/storefront/middleware"
	"supplyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// createMessage is the public contact form.
func (h *Handler) createMessage(c *gin.Context) {
	var in messageservice.CreateMessageInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.svc.Messages.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, m)
}

func (h *Handler) listMessages(c *gin.Context) {
	f := model.Filter{
		Status: model.Status(c.Query("status")),
		Type:   model.Type(c.Query("type")),
	}
	var err error
	if f.IsStarred, err = queryBool(c, "isStarred"); err != nil {
		response.Fail(c, err)
		return
	}
	if f.Page, f.PageSize, err = paging(c); err != nil {
		response.Fail(c, err)
		return
	}
	list, total, err := h.svc.Messages.List(c.Request.Context(), f)
	if err != nil {
		response.Fail(c, err)
		return
	}
	f.Normalize()
	response.Success(c, response.Page{Items: list, Total: total, Page: f.Page, PageSize: f.PageSize})
}

// openMessage returns the message and marks it read.
func (h *Handler) openMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, err := h.svc.Messages.Open(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, m)
}

func (h *Handler) updateMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in messageservice.UpdateMessageInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.svc.Messages.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, m)
}

func (h *Handler) replyMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in messageservice.ReplyInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.svc.Messages.Reply(c.Request.Context(), id, in, middleware.ActorFrom(c).UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, m)
}

func (h *Handler) deleteMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Messages.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.NoContent(c)
}
