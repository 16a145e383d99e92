package response

import (
	"errors"
	"log/slog"
	"net/http"

	"supplyhub/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构体
type Response struct {
	Code  int         `json:"code"`            // 业务码
	Msg   string      `json:"msg"`             // 提示信息
	Field string      `json:"field,omitempty"` // 出错字段
	Data  interface{} `json:"data,omitempty"`  // 数据
}

// Page wraps a list payload with its total count.
type Page struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page,omitempty"`
	PageSize int         `json:"pageSize,omitempty"`
}

// Success 成功响应 (Code=200)
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code: 200,
		Msg:  "success",
		Data: data,
	})
}

// Created responds 201 with the new entity.
func Created(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, Response{
		Code: http.StatusCreated,
		Msg:  "created",
		Data: data,
	})
}

// NoContent responds 204.
func NoContent(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}

// Error 失败响应
func Error(ctx *gin.Context, httpStatus int, msg string) {
	ctx.JSON(httpStatus, Response{
		Code: httpStatus, // 这里简单将 HTTP 状态码作为业务码，也可以自定义
		Msg:  msg,
		Data: nil,
	})
}

// Fail translates err into the matching status. Internal errors are logged
// and reported without their cause.
func Fail(ctx *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(ctx.Request.Context(), "request failed",
			"method", ctx.Request.Method, "path", ctx.FullPath(), "error", err)
		Error(ctx, status, "internal server error")
		return
	}

	resp := Response{Code: status, Msg: err.Error()}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		resp.Msg = ae.Message
		resp.Field = ae.Field
	}
	ctx.JSON(status, resp)
}
