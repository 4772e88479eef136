// Package apperr 定义跨层使用的错误分类。
// 服务层返回带 Kind 的 *Error，API 层据此映射 HTTP 状态码与业务错误码。
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MorseWayne/admin_panel/internal/resp"
)

// Kind 错误类别
type Kind int

const (
	KindUnexpected     Kind = iota // 存储或基础设施故障，细节只记录在服务端
	KindValidation                 // 输入缺失或格式错误
	KindAuthentication             // 缺少/无效/过期的凭证
	KindAuthorization              // 身份有效但角色不允许
	KindNotFound                   // 引用的实体不存在
	KindConflict                   // 唯一性冲突
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unexpected"
	}
}

// Error 携带类别、面向客户端的消息以及可选的底层错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is 让 errors.Is 可以按类别比较，例如 errors.Is(err, apperr.NotFound(""))
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func Validation(msg string) *Error     { return &Error{Kind: KindValidation, Message: msg} }
func Authentication(msg string) *Error { return &Error{Kind: KindAuthentication, Message: msg} }
func Authorization(msg string) *Error  { return &Error{Kind: KindAuthorization, Message: msg} }
func NotFound(msg string) *Error       { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error       { return &Error{Kind: KindConflict, Message: msg} }

// Unexpected 包装基础设施错误，客户端只会看到通用消息
func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: "internal server error", Err: err}
}

// KindOf 返回错误的类别；非 *Error 一律视为 KindUnexpected
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// HTTPStatus 返回错误对应的 HTTP 状态码与业务错误码。
// 唯一性冲突按 400 返回，与校验错误通过业务码区分。
func HTTPStatus(err error) (status, code int) {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest, resp.CodeInvalidParam
	case KindConflict:
		return http.StatusBadRequest, resp.CodeConflict
	case KindAuthentication:
		return http.StatusUnauthorized, resp.CodeUnauthorized
	case KindAuthorization:
		return http.StatusForbidden, resp.CodeForbidden
	case KindNotFound:
		return http.StatusNotFound, resp.CodeNotFound
	default:
		return http.StatusInternalServerError, resp.CodeInternalError
	}
}

// PublicMessage 返回可以安全暴露给客户端的消息
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnexpected {
		return e.Message
	}
	return "internal server error"
}
