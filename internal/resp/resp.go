// Package resp 定义统一的 JSON 响应结构与业务错误码。
package resp

import (
	"encoding/json"
	"net/http"
)

// 业务错误码。0 表示成功，其余按类别分段。
const (
	CodeOK            = 0
	CodeInvalidParam  = 10001
	CodeConflict      = 10002
	CodeUnauthorized  = 10101
	CodeForbidden     = 10103
	CodeNotFound      = 10104
	CodeTooMany       = 10429
	CodeInternalError = 50000
	CodeTimeout       = 50004
)

// Body 为所有接口共用的响应体
type Body struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// OK 以 200 返回成功响应。
func OK(w http.ResponseWriter, data any, reqID, traceID string) {
	JSON(w, http.StatusOK, data, reqID, traceID)
}

// Created 以 201 返回资源创建成功响应。
func Created(w http.ResponseWriter, data any, reqID, traceID string) {
	JSON(w, http.StatusCreated, data, reqID, traceID)
}

// JSON 以指定状态码写出成功响应。
func JSON(w http.ResponseWriter, status int, data any, reqID, traceID string) {
	write(w, status, Body{
		Code:      CodeOK,
		Message:   "ok",
		Data:      data,
		RequestID: reqID,
		TraceID:   traceID,
	})
}

// Error 写出错误响应。
func Error(w http.ResponseWriter, status, code int, message, reqID, traceID string) {
	write(w, status, Body{
		Code:      code,
		Message:   message,
		RequestID: reqID,
		TraceID:   traceID,
	})
}

// HTTPStatusFromCode 返回业务错误码对应的默认 HTTP 状态码。
func HTTPStatusFromCode(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidParam, CodeConflict:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooMany:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func write(w http.ResponseWriter, status int, body Body) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
